package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sprint-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const resultsKey = "quiz:results"

// ResultStore keeps finished-session results in a Redis list. RPUSH gives the
// append-only semantics the engine relies on: concurrent appends interleave
// but never lose entries, and nothing is ever mutated or deleted.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

type storedResult struct {
	Name  string          `json:"name"`
	Score json.RawMessage `json:"score"`
	At    string          `json:"at"`
}

func (s *ResultStore) Append(ctx context.Context, name string, score int, at time.Time) error {
	raw, err := json.Marshal(map[string]any{
		"name":  name,
		"score": score,
		"at":    at.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.RPush(ctx, resultsKey, raw).Err(); err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

// ReadAll returns every stored row in submission order. Rows written by other
// tools may carry quoted, blank or missing scores; they are passed through raw
// and the engine normalizes them to 0.
func (s *ResultStore) ReadAll(ctx context.Context) ([]domain.RawResult, error) {
	raws, err := s.client.LRange(ctx, resultsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	rows := make([]domain.RawResult, 0, len(raws))
	for _, raw := range raws {
		var stored storedResult
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			// Unparseable row: keep it visible with a zero-ranked score.
			rows = append(rows, domain.RawResult{Name: raw})
			continue
		}
		rows = append(rows, domain.RawResult{
			Name:  stored.Name,
			Score: strings.Trim(string(stored.Score), `"`),
		})
	}
	return rows, nil
}
