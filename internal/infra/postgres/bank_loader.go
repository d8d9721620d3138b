package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sprint-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads problem bank JSONB from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (domain.ProblemBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM problem_banks WHERE id=$1`, bankID).Scan(&raw)
	if err != nil {
		return domain.ProblemBank{}, fmt.Errorf("load bank: %w", err)
	}
	var bank domain.ProblemBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.ProblemBank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	return bank, nil
}
