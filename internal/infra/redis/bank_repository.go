package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"sprint-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches problem banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.ProblemBank, error)
}

// BankRepository caches whole problem banks in Redis as JSON blobs and falls
// back to a loader on cache miss. Sessions need the full problem content
// (prompt, choices, explanation), so the bank is cached as one value:
// SET bank:{bankID} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.ProblemBank, error) {
	key := r.bankKey(bankID)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		if bank, err := decodeBank(raw); err == nil {
			return bank, nil
		}
		// A corrupt cache entry falls through to the loader and is rewritten.
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			if bank, err := decodeBank(raw); err == nil {
				return bank, nil
			}
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.ProblemBank{}, err
		}

		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.ProblemBank{}, err
	}
	return result.(domain.ProblemBank), nil
}

func (r *BankRepository) bankKey(bankID string) string {
	return "bank:" + bankID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func decodeBank(raw []byte) (domain.ProblemBank, error) {
	var bank domain.ProblemBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.ProblemBank{}, fmt.Errorf("decode bank: %w", err)
	}
	return bank, nil
}
