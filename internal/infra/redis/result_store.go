package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const resultsKey = "quiz:results"

// ResultStore appends finished-game records to a Redis list. Records are
// written newest first: LPUSH quiz:results {json}.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.LPush(ctx, resultsKey, data).Err(); err != nil {
		return fmt.Errorf("push result: %w", err)
	}
	return nil
}

// Recent returns up to n of the most recently saved results.
func (s *ResultStore) Recent(ctx context.Context, n int64) ([]domain.GameResult, error) {
	raw, err := s.client.LRange(ctx, resultsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.GameResult, 0, len(raw))
	for _, item := range raw {
		var result domain.GameResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
