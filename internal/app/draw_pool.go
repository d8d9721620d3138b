package app

import (
	"math/rand"

	"sprint-quiz-service/internal/domain"
)

// DrawPool hands out the problems of one bank in random order without
// repeats. The serving order is fixed up front as a weighted shuffle:
// preference weights bias only that initial ordering, never the exhaustion
// bookkeeping, so every identity is still served exactly once.
type DrawPool struct {
	order []domain.Problem
	next  int
}

// NewDrawPool builds a pool over problems using rnd for the shuffle.
// Equal (or missing) weights degenerate to a uniform permutation.
func NewDrawPool(problems []domain.Problem, rnd *rand.Rand) *DrawPool {
	remaining := make([]domain.Problem, len(problems))
	copy(remaining, problems)

	order := make([]domain.Problem, 0, len(remaining))
	for len(remaining) > 0 {
		i := pickWeighted(remaining, rnd)
		order = append(order, remaining[i])
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return &DrawPool{order: order}
}

// Draw returns the next problem, or ErrPoolExhausted once every identity has
// been served. Exhaustion is permanent for the lifetime of the pool.
func (p *DrawPool) Draw() (domain.Problem, error) {
	if p.next >= len(p.order) {
		return domain.Problem{}, domain.ErrPoolExhausted
	}
	problem := p.order[p.next]
	p.next++
	return problem, nil
}

// Exhausted reports whether the next Draw would fail.
func (p *DrawPool) Exhausted() bool {
	return p.next >= len(p.order)
}

// Size reports how many problems the pool started with.
func (p *DrawPool) Size() int {
	return len(p.order)
}

func pickWeighted(problems []domain.Problem, rnd *rand.Rand) int {
	total := 0
	for _, pr := range problems {
		total += weightOf(pr)
	}
	n := rnd.Intn(total)
	for i, pr := range problems {
		n -= weightOf(pr)
		if n < 0 {
			return i
		}
	}
	return len(problems) - 1
}

func weightOf(p domain.Problem) int {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}
