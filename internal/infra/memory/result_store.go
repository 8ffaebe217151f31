package memory

import (
	"context"
	"sync"

	"quizroom-service/internal/domain"
)

// ResultStore keeps finished-game records in memory. It backs the demo setup
// and lets tests inspect what the coordinator persisted.
type ResultStore struct {
	mu      sync.Mutex
	results []domain.GameResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of everything saved so far.
func (s *ResultStore) Results() []domain.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GameResult, len(s.results))
	copy(out, s.results)
	return out
}
