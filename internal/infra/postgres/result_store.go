package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore writes finished-game records to the game_results table. The
// per-player standings go in as JSONB alongside the denormalized quiz title.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.GameResult) error {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_results (id, quiz_id, quiz_title, created_at, players) VALUES ($1, $2, $3, $4, $5)`,
		result.ID, result.QuizID, result.QuizTitle, result.CreatedAt, players,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}
