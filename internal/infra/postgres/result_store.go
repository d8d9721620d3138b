package postgres

import (
	"context"
	"fmt"
	"time"

	"sprint-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore persists finished-session results in Postgres. Rows are only
// ever inserted; ranking reads them back in submission order with the score
// as raw text so the engine's normalization stays the single point of truth.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Append(ctx context.Context, name string, score int, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_results (name, score, submitted_at) VALUES ($1, $2, $3)`,
		name, score, at)
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

func (s *ResultStore) ReadAll(ctx context.Context) ([]domain.RawResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, score::text FROM quiz_results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	defer rows.Close()

	var results []domain.RawResult
	for rows.Next() {
		var row domain.RawResult
		if err := rows.Scan(&row.Name, &row.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
