package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"sprint-quiz-service/internal/domain"
)

// MaxNicknameLen bounds the trimmed nickname length in runes.
const MaxNicknameLen = 12

// BankRepository abstracts how problem banks are loaded (cache, Redis, Postgres).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.ProblemBank, error)
}

// ResultStore is the append-only leaderboard persistence. Append must tolerate
// concurrent callers without losing entries; ReadAll returns raw rows whose
// score fields are normalized by the engine, not the store.
type ResultStore interface {
	Append(ctx context.Context, name string, score int, at time.Time) error
	ReadAll(ctx context.Context) ([]domain.RawResult, error)
}

// Config carries the per-deployment quiz settings.
type Config struct {
	BankID       string
	Duration     time.Duration
	Passphrase   string
	Affiliations []string
	RankingSize  int // defaults to 3 if zero
}

// Engine drives quiz sessions through their gating stages, the timed run and
// the finish sequence. Sessions are independent; the only shared boundary is
// the result store.
type Engine struct {
	banks   BankRepository
	results ResultStore
	cfg     Config
	now     func() time.Time
}

func NewEngine(banks BankRepository, results ResultStore, cfg Config) *Engine {
	return NewEngineWithClock(banks, results, cfg, time.Now)
}

// NewEngineWithClock allows deterministic timestamps in tests.
func NewEngineWithClock(banks BankRepository, results ResultStore, cfg Config, now func() time.Time) *Engine {
	return &Engine{banks: banks, results: results, cfg: cfg, now: now}
}

// Affiliations returns the configured affiliation tags for the first gate.
func (e *Engine) Affiliations() []string {
	return e.cfg.Affiliations
}

func (e *Engine) rankingSize() int {
	if e.cfg.RankingSize > 0 {
		return e.cfg.RankingSize
	}
	return 3
}

// Session is one user's journey from identity capture through quiz completion.
// All state lives here; nothing is shared across sessions.
type Session struct {
	mu sync.Mutex

	stage       domain.Stage
	affiliation string
	nickname    string
	consented   bool

	startedAt     time.Time
	pool          *DrawPool
	current       *domain.Problem
	answered      bool
	outOfProblems bool

	score    int
	correct  int
	attempts []domain.Attempt
	review   []domain.ReviewRecord

	finished bool
	results  domain.Results
}

// NewSession returns a fresh session sitting at the first gate.
func (e *Engine) NewSession() *Session {
	return &Session{stage: domain.StageUnselected}
}

// Snapshot is a read-only view of a session for transports to render.
type Snapshot struct {
	Stage       domain.Stage
	Affiliation string
	Nickname    string
	Remaining   int
	Score       int
	Attempts    int
	Answered    bool
	Problem     *domain.Problem
}

// Snapshot captures the session's current state, including remaining time
// recomputed from absolute timestamps.
func (e *Engine) Snapshot(s *Session) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.snapshotLocked(s)
}

func (e *Engine) snapshotLocked(s *Session) Snapshot {
	snap := Snapshot{
		Stage:       s.stage,
		Affiliation: s.affiliation,
		Nickname:    s.nickname,
		Score:       s.score,
		Attempts:    len(s.attempts),
		Answered:    s.answered,
	}
	if s.stage == domain.StageRunning {
		snap.Remaining = e.remainingLocked(s)
		if s.current != nil {
			problem := *s.current
			snap.Problem = &problem
		}
	}
	return snap
}

func (e *Engine) remainingLocked(s *Session) int {
	if s.outOfProblems {
		return 0
	}
	return Remaining(e.now(), s.startedAt, e.cfg.Duration)
}

// ChooseAffiliation passes the first gate. The tag must be one of the
// configured affiliations; nothing else about it is validated.
func (e *Engine) ChooseAffiliation(s *Session, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageUnselected {
		return domain.ErrStageViolation
	}
	if !contains(e.cfg.Affiliations, tag) {
		return domain.ErrUnknownAffiliation
	}
	s.affiliation = tag
	s.stage = domain.StageAffiliationChosen
	return nil
}

// VerifyPassphrase compares the submitted secret against the configured one.
// This is an access gate, not a security control: a mismatch keeps the session
// at this stage with no lockout or rate limiting.
func (e *Engine) VerifyPassphrase(s *Session, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageAffiliationChosen {
		return domain.ErrStageViolation
	}
	if secret != e.cfg.Passphrase {
		return domain.ErrWrongPassphrase
	}
	s.stage = domain.StagePassphraseVerified
	return nil
}

// GiveConsent records the one-shot acknowledgement.
func (e *Engine) GiveConsent(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StagePassphraseVerified {
		return domain.ErrStageViolation
	}
	s.consented = true
	s.stage = domain.StageConsentGiven
	return nil
}

// SetNickname accepts a trimmed, non-empty nickname of at most MaxNicknameLen
// runes. Invalid input keeps the session at its current stage so the user can
// retry. Re-setting the nickname before starting is allowed.
func (e *Engine) SetNickname(s *Session, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageConsentGiven && s.stage != domain.StageNicknameSet {
		return domain.ErrStageViolation
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNicknameLen {
		return domain.ErrInvalidNickname
	}
	s.nickname = name
	s.stage = domain.StageNicknameSet
	return nil
}

// Start enters the Running stage: it loads the problem bank, resets all run
// state, records the start instant and draws the first problem. A missing or
// unreachable bank blocks the start entirely; there is no fallback bank.
func (e *Engine) Start(ctx context.Context, s *Session) (domain.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageNicknameSet {
		return domain.Problem{}, domain.ErrStageViolation
	}

	bank, err := e.banks.GetBank(ctx, e.cfg.BankID)
	if err != nil {
		return domain.Problem{}, fmt.Errorf("%w: %v", domain.ErrBankUnavailable, err)
	}
	if len(bank.Problems) == 0 {
		return domain.Problem{}, fmt.Errorf("%w: bank %q is empty", domain.ErrBankUnavailable, bank.ID)
	}

	now := e.now()
	s.resetRunLocked()
	s.startedAt = now
	s.pool = NewDrawPool(bank.Problems, rand.New(rand.NewSource(now.UnixNano())))
	s.stage = domain.StageRunning

	problem, err := s.pool.Draw()
	if err != nil {
		return domain.Problem{}, err
	}
	s.current = &problem
	return problem, nil
}

// SubmitAnswer scores the chosen token against the active problem: +1 on a
// match, -1 otherwise (the score may go negative). A wrong answer is also
// recorded for post-session review. At most one submission is accepted per
// drawn problem.
func (e *Engine) SubmitAnswer(s *Session, chosen string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageRunning {
		return false, domain.ErrStageViolation
	}
	if s.current == nil {
		return false, domain.ErrNoActiveProblem
	}
	if s.answered {
		return false, domain.ErrAlreadyAnswered
	}

	problem := *s.current
	correct := chosen == problem.Answer
	if correct {
		s.score++
		s.correct++
	} else {
		s.score--
		s.review = append(s.review, domain.ReviewRecord{
			Prompt:      problem.Prompt,
			Chosen:      chosen,
			Answer:      problem.Answer,
			Explanation: problem.Explanation,
		})
	}
	s.attempts = append(s.attempts, domain.Attempt{
		ProblemID: problem.ID,
		Prompt:    problem.Prompt,
		Chosen:    chosen,
		Answer:    problem.Answer,
		Correct:   correct,
		At:        e.now(),
	})
	s.answered = true
	return correct, nil
}

// NextProblem draws the next problem after an accepted answer. When the pool
// is exhausted it forces the remaining time to zero and runs the normal expiry
// handling, so running out of problems and running out of time end the session
// through the same path. The second return value reports whether the session
// is still running.
func (e *Engine) NextProblem(ctx context.Context, s *Session) (domain.Problem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageRunning {
		return domain.Problem{}, false, domain.ErrStageViolation
	}
	if !s.answered {
		return domain.Problem{}, false, domain.ErrNoActiveProblem
	}

	problem, err := s.pool.Draw()
	if err != nil {
		s.outOfProblems = true
		e.expireLocked(ctx, s)
		return domain.Problem{}, false, nil
	}
	s.current = &problem
	s.answered = false
	return problem, true, nil
}

// Tick re-evaluates the clock. It returns the remaining seconds and whether
// the session has expired. The first tick that observes zero remaining runs
// the finish sequence; subsequent ticks are no-ops on an expired session, so
// no second leaderboard entry is ever written.
func (e *Engine) Tick(ctx context.Context, s *Session) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == domain.StageExpired {
		return 0, true
	}
	if s.stage != domain.StageRunning {
		return 0, false
	}
	remaining := e.remainingLocked(s)
	if remaining > 0 {
		return remaining, false
	}
	e.expireLocked(ctx, s)
	return 0, true
}

// expireLocked runs the finish sequence exactly once per session: append the
// result, fetch the ranking, classify placement. Store failures degrade to an
// empty ranking; the user always gets their own score back.
func (e *Engine) expireLocked(ctx context.Context, s *Session) {
	if s.finished {
		return
	}
	s.finished = true
	s.stage = domain.StageExpired

	fullName := s.affiliation + "_" + s.nickname
	degraded := false
	if err := e.results.Append(ctx, fullName, s.score, e.now()); err != nil {
		degraded = true
	}

	var top []domain.RankEntry
	rows, err := e.results.ReadAll(ctx)
	if err != nil {
		degraded = true
	} else {
		top = rank(rows, e.rankingSize())
	}

	s.results = domain.Results{
		Name:      fullName,
		Score:     s.score,
		Correct:   s.correct,
		Attempts:  len(s.attempts),
		PlacedTop: placedTop(s.score, top, e.rankingSize()),
		Degraded:  degraded,
		Ranking:   top,
		Review:    append([]domain.ReviewRecord(nil), s.review...),
	}
}

// Results returns the terminal view once the session has expired.
func (e *Engine) Results(s *Session) (domain.Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return domain.Results{}, false
	}
	return s.results, true
}

// Restart wipes the run and drops back to the nickname gate, keeping the
// gating choices already made.
func (e *Engine) Restart(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageExpired {
		return domain.ErrStageViolation
	}
	s.resetRunLocked()
	s.stage = domain.StageNicknameSet
	return nil
}

// ReturnHome wipes everything, gating choices included, and returns to the
// top-level menu. Allowed from any stage; an unfinished run is simply
// abandoned and writes no leaderboard entry.
func (e *Engine) ReturnHome(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetRunLocked()
	s.affiliation = ""
	s.nickname = ""
	s.consented = false
	s.stage = domain.StageUnselected
}

func (s *Session) resetRunLocked() {
	s.startedAt = time.Time{}
	s.pool = nil
	s.current = nil
	s.answered = false
	s.outOfProblems = false
	s.score = 0
	s.correct = 0
	s.attempts = nil
	s.review = nil
	s.finished = false
	s.results = domain.Results{}
}

func contains(set []string, v string) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}
