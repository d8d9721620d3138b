package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"sprint-quiz-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore. Entries are
// append-only; concurrent appends never lose rows.
type ResultStore struct {
	mu   sync.Mutex
	rows []domain.RawResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Append(_ context.Context, name string, score int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, domain.RawResult{Name: name, Score: strconv.Itoa(score)})
	return nil
}

func (s *ResultStore) ReadAll(_ context.Context) ([]domain.RawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RawResult(nil), s.rows...), nil
}

// SeedRaw preloads rows as-is, malformed scores included. Test hook.
func (s *ResultStore) SeedRaw(rows []domain.RawResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}
