package memory

import (
	"context"
	"testing"
	"time"

	"quizroom-service/internal/domain"
)

func TestResultStoreAppends(t *testing.T) {
	store := NewResultStore()

	result := domain.GameResult{
		ID:        "r1",
		QuizID:    "quiz-1",
		QuizTitle: "Capitals",
		CreatedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Players:   []domain.LeaderboardEntry{{Username: "Alice", Score: 800}},
	}
	if err := store.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved := store.Results()
	if len(saved) != 1 || saved[0].ID != "r1" {
		t.Fatalf("unexpected results %+v", saved)
	}

	// Results returns a copy; mutating it must not affect the store.
	saved[0].QuizID = "tampered"
	if store.Results()[0].QuizID != "quiz-1" {
		t.Fatalf("Results must return a copy")
	}
}
