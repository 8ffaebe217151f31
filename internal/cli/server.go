package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom-service/internal/config"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/game"
	"quizroom-service/internal/infra/memory"
	pgstore "quizroom-service/internal/infra/postgres"
	redisstore "quizroom-service/internal/infra/redis"
	"quizroom-service/internal/transport/ws"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo game.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var results game.ResultStore
	switch {
	case pool != nil:
		results = pgstore.NewResultStore(pool)
	case redisClient != nil:
		results = redisstore.NewResultStore(redisClient)
	default:
		results = memory.NewResultStore()
	}

	gameCfg := game.Config{
		StartCountdown: config.Duration(cfg.Game.StartCountdown, 3*time.Second),
		QuestionGrace:  config.Duration(cfg.Game.QuestionGrace, time.Second),
		EndedRetention: config.Duration(cfg.Game.EndedRetention, 60*time.Second),
	}
	wsHandler := ws.NewHandler()
	coordinator := game.NewCoordinator(quizRepo, results, wsHandler, gameCfg)
	wsHandler.SetCoordinator(coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz room service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal quiz set for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:      "quiz-1",
			Code:    "quiz-1",
			Title:   "World Capitals",
			Subject: "Geography",
			Questions: []domain.Question{
				{
					Prompt:   "What is the capital of France?",
					Answers:  []string{"Berlin", "Madrid", "Paris", "Rome"},
					Solution: 2,
					Time:     20,
				},
				{
					Prompt:   "What is the capital of Japan?",
					Answers:  []string{"Osaka", "Tokyo", "Kyoto", "Nagoya"},
					Solution: 1,
					Time:     20,
				},
			},
		},
	}
}
