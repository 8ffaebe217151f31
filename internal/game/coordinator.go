package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultStore accepts final game records. Writes are best effort; the
// coordinator never blocks game flow on them.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.GameResult) error
}

// Config holds the coordinator's timing knobs.
type Config struct {
	// StartCountdown is broadcast to the room before the first question
	// opens. Zero means the default; negative opens the first question
	// synchronously.
	StartCountdown time.Duration
	// QuestionGrace is added to each question's time limit before the
	// results timer fires.
	QuestionGrace time.Duration
	// EndedRetention is how long an ended session stays resolvable for late
	// viewers before eviction.
	EndedRetention time.Duration
}

const (
	defaultStartCountdown = 3 * time.Second
	defaultQuestionGrace  = time.Second
	defaultEndedRetention = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.StartCountdown == 0 {
		c.StartCountdown = defaultStartCountdown
	}
	if c.QuestionGrace == 0 {
		c.QuestionGrace = defaultQuestionGrace
	}
	if c.EndedRetention == 0 {
		c.EndedRetention = defaultEndedRetention
	}
	return c
}

// Coordinator is the event-driven controller for all live sessions. Inbound
// client actions and timer callbacks funnel through one mutex, so session
// mutation is serialized and "all players answered" detection is exact.
type Coordinator struct {
	mu      sync.Mutex
	rooms   *Registry
	quizzes QuizRepository
	results ResultStore
	sender  Sender
	cfg     Config
	now     func() time.Time
}

func NewCoordinator(quizzes QuizRepository, results ResultStore, sender Sender, cfg Config) *Coordinator {
	return NewCoordinatorWithClock(quizzes, results, sender, cfg, time.Now)
}

// NewCoordinatorWithClock is for deterministic elapsed-time measurement in tests.
func NewCoordinatorWithClock(quizzes QuizRepository, results ResultStore, sender Sender, cfg Config, now func() time.Time) *Coordinator {
	return &Coordinator{
		rooms:   NewRegistry(),
		quizzes: quizzes,
		results: results,
		sender:  sender,
		cfg:     cfg.withDefaults(),
		now:     now,
	}
}

// RoomCount reports the number of live sessions.
func (c *Coordinator) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.Len()
}

// CreateRoom opens a lobby for the quiz and registers connID as its host.
func (c *Coordinator) CreateRoom(ctx context.Context, connID, quizID string) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		c.sendError(connID, domain.ErrQuizNotFound)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	session := c.rooms.Create(quiz, connID, c.now)
	c.sender.Send(connID, EventHostRoomCreated, RoomCodePayload{RoomCode: session.Code()})
}

// CheckRoom is a read-only validity and phase probe for a joining player.
func (c *Coordinator) CheckRoom(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok {
		c.sendError(connID, domain.ErrRoomNotFound)
		return
	}
	if session.Phase() != PhaseLobby {
		c.sendError(connID, domain.ErrGameStarted)
		return
	}
	c.sender.Send(connID, EventPlayerRoomValid, RoomCodePayload{RoomCode: code})
}

// Join adds a player to a lobby session and notifies the host.
func (c *Coordinator) Join(connID, username, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok {
		c.sendError(connID, domain.ErrRoomNotFound)
		return
	}
	player, err := session.AddPlayer(connID, username)
	if err != nil {
		c.sendError(connID, err)
		return
	}
	quiz := session.Quiz()
	c.sender.Send(connID, EventPlayerJoined, JoinedPayload{
		RoomCode: code,
		Quiz:     QuizInfo{Title: quiz.Title, Subject: quiz.Subject},
	})
	c.sender.Send(session.HostID(), EventHostPlayerJoined, player)
}

// KickPlayer removes a player on the host's request. Non-host callers and
// absent players are silent no-ops.
func (c *Coordinator) KickPlayer(connID, code, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok || session.HostID() != connID {
		return
	}
	if _, removed := session.RemovePlayer(playerID); !removed {
		return
	}
	c.sender.Send(session.HostID(), EventHostPlayerKicked, PlayerRefPayload{PlayerID: playerID})
	c.sender.Send(playerID, EventPlayerKicked, nil)
	c.closeIfAllAnsweredLocked(session)
}

// StartGame broadcasts the countdown and schedules the first question.
func (c *Coordinator) StartGame(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok || session.HostID() != connID || session.Phase() != PhaseLobby || session.starting {
		return
	}
	session.starting = true

	countdown := int(c.cfg.StartCountdown / time.Second)
	c.broadcast(session, EventGameStarting, StartingPayload{Countdown: countdown})

	if c.cfg.StartCountdown <= 0 {
		c.openQuestionLocked(session, 0)
		return
	}
	session.startTimer = time.AfterFunc(c.cfg.StartCountdown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.rooms.Get(code); !ok || current != session || session.Phase() != PhaseLobby {
			return
		}
		c.openQuestionLocked(session, 0)
	})
}

// SubmitAnswer records a player's answer for the open question. Duplicates and
// unknown players/sessions are silent no-ops.
func (c *Coordinator) SubmitAnswer(connID, code string, answer int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok {
		return
	}
	record, ok := session.Submit(connID, answer)
	if !ok {
		return
	}
	c.sender.Send(connID, EventPlayerAnswerResult, AnswerResultPayload{
		Correct: record.Correct,
		Points:  record.Points,
		Time:    record.Elapsed,
	})
	c.sender.Send(session.HostID(), EventHostPlayerAnswered, PlayerAnsweredPayload{
		PlayerID:     connID,
		AnswersCount: session.AnswerCount(),
		PlayersCount: session.PlayerCount(),
	})
	if session.AllAnswered() {
		c.showResultsLocked(session)
	}
}

// ShowResults forces SHOWING_RESULTS on the host's request.
func (c *Coordinator) ShowResults(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok || session.HostID() != connID || session.Phase() != PhaseQuestionOpen {
		return
	}
	c.showResultsLocked(session)
}

// NextQuestion advances to the next question or ends the game.
func (c *Coordinator) NextQuestion(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.rooms.Get(code)
	if !ok || session.HostID() != connID || session.Phase() != PhaseShowingResults {
		return
	}
	if session.HasMoreQuestions() {
		c.openQuestionLocked(session, session.CurrentIndex()+1)
		return
	}
	c.endGameLocked(session)
}

// Disconnect reacts to a dropped transport connection. A host leaving tears
// the session down immediately; a player leaving is removed from their room.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, isHost, ok := c.rooms.FindByConn(connID)
	if !ok {
		return
	}
	if isHost {
		session.stopTimers()
		for _, entry := range session.players {
			c.sender.Send(entry.ID, EventGameHostLeft, nil)
		}
		c.rooms.Delete(session.Code())
		return
	}
	if player, removed := session.RemovePlayer(connID); removed {
		c.sender.Send(session.HostID(), EventHostPlayerLeft, PlayerRefPayload{PlayerID: player.ID})
		c.closeIfAllAnsweredLocked(session)
	}
}

// closeIfAllAnsweredLocked closes the open question when a departure leaves
// only players who already answered. Callers hold c.mu.
func (c *Coordinator) closeIfAllAnsweredLocked(session *Session) {
	if session.Phase() == PhaseQuestionOpen && session.AllAnswered() {
		c.showResultsLocked(session)
	}
}

// openQuestionLocked opens the question at index and arms the results timer.
// Callers hold c.mu.
func (c *Coordinator) openQuestionLocked(session *Session, index int) {
	question := session.OpenQuestion(index)

	payload := QuestionPayload{
		QuestionIndex:  index,
		TotalQuestions: len(session.Quiz().Questions),
		Question:       question.Prompt,
		Answers:        question.Answers,
		Image:          question.Image,
		Time:           question.Time,
		Cooldown:       question.Cooldown,
	}
	for _, p := range session.players {
		c.sender.Send(p.ID, EventGameQuestion, payload)
	}
	solution := question.Solution
	payload.Solution = &solution
	c.sender.Send(session.HostID(), EventHostQuestion, payload)

	code := session.Code()
	duration := time.Duration(question.Time)*time.Second + c.cfg.QuestionGrace
	session.questionTimer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// The timer may race a manual advance or a teardown; only the timer
		// armed for the current question of a live session may act.
		current, ok := c.rooms.Get(code)
		if !ok || current != session || session.Phase() != PhaseQuestionOpen || session.CurrentIndex() != index {
			return
		}
		c.showResultsLocked(session)
	})
}

// showResultsLocked closes the open question and fans out the aggregates.
// Callers hold c.mu.
func (c *Coordinator) showResultsLocked(session *Session) {
	if session.questionTimer != nil {
		session.questionTimer.Stop()
	}
	roomResults, hostResults := session.CloseQuestion()
	c.sender.Send(session.HostID(), EventHostQuestionResults, hostResults)
	for _, p := range session.players {
		c.sender.Send(p.ID, EventGameQuestionResults, roomResults)
	}
}

// endGameLocked broadcasts the final leaderboard, schedules eviction and
// persists the result record without blocking the broadcast.
func (c *Coordinator) endGameLocked(session *Session) {
	session.End()
	c.broadcast(session, EventGameEnd, EndPayload{Leaderboard: session.Leaderboard()})

	code := session.Code()
	session.evictTimer = time.AfterFunc(c.cfg.EndedRetention, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.rooms.Get(code); ok && current == session {
			c.rooms.Delete(code)
		}
	})

	quiz := session.Quiz()
	result := domain.GameResult{
		ID:        newResultID(),
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		CreatedAt: c.now().UTC(),
		Players:   session.FinalStandings(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.results.SaveResult(ctx, result); err != nil {
			log.Printf("save result for quiz %s: %v", result.QuizID, err)
		}
	}()
}

// broadcast sends one event to the host and every player of a session.
func (c *Coordinator) broadcast(session *Session, event string, payload any) {
	c.sender.Send(session.HostID(), event, payload)
	for _, p := range session.players {
		c.sender.Send(p.ID, event, payload)
	}
}

func (c *Coordinator) sendError(connID string, err error) {
	c.sender.Send(connID, EventError, ErrorPayload{Message: err.Error()})
}

func newResultID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
