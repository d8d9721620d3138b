package domain

import "time"

// Problem is a single multiple-choice question. Choices holds at least two
// distinct answer tokens and contains Answer exactly once. Weight biases how
// early a problem tends to be drawn; zero or negative means 1.
type Problem struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Weight      int      `json:"weight,omitempty"`
}

// ProblemBank is the unit served by a problem source.
type ProblemBank struct {
	ID       string    `json:"id"`
	Problems []Problem `json:"problems"`
}

// Stage is the gate the session currently sits behind. Transitions are linear;
// the only backward edges are Restart (to StageNickname) and ReturnHome
// (to StageUnselected).
type Stage int

const (
	StageUnselected Stage = iota
	StageAffiliationChosen
	StagePassphraseVerified
	StageConsentGiven
	StageNicknameSet
	StageRunning
	StageExpired
)

func (s Stage) String() string {
	switch s {
	case StageUnselected:
		return "unselected"
	case StageAffiliationChosen:
		return "affiliationChosen"
	case StagePassphraseVerified:
		return "passphraseVerified"
	case StageConsentGiven:
		return "consentGiven"
	case StageNicknameSet:
		return "nicknameSet"
	case StageRunning:
		return "running"
	case StageExpired:
		return "expired"
	}
	return "unknown"
}

// Attempt records one submitted answer. Immutable once created.
type Attempt struct {
	ProblemID string    `json:"problemId"`
	Prompt    string    `json:"prompt"`
	Chosen    string    `json:"chosen"`
	Answer    string    `json:"answer"`
	Correct   bool      `json:"correct"`
	At        time.Time `json:"at"`
}

// ReviewRecord is a missed problem enriched for post-session review.
// Derived from incorrect attempts at session end; never persisted.
type ReviewRecord struct {
	Prompt      string `json:"prompt"`
	Chosen      string `json:"chosen"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// RawResult is the untrusted shape read back from a result store. Score may be
// non-numeric or empty; normalization happens in the engine, not here.
type RawResult struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// RankEntry is a normalized ranking row.
type RankEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Results is the terminal view for a finished session. Ranking may be empty
// when the result store is unavailable; Score is always the session's own.
type Results struct {
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	Correct   int            `json:"correct"`
	Attempts  int            `json:"attempts"`
	PlacedTop bool           `json:"placedTop"`
	Degraded  bool           `json:"degraded"`
	Ranking   []RankEntry    `json:"ranking"`
	Review    []ReviewRecord `json:"review"`
}
