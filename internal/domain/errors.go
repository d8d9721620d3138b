package domain

import "errors"

var (
	// ErrBankNotFound indicates the requested problem bank does not exist.
	ErrBankNotFound = errors.New("problem bank not found")
	// ErrBankUnavailable indicates the problem source could not be reached;
	// a session cannot start without one.
	ErrBankUnavailable = errors.New("problem bank unavailable")
	// ErrUnknownAffiliation is returned for a tag outside the configured set.
	ErrUnknownAffiliation = errors.New("unknown affiliation")
	// ErrWrongPassphrase is returned on a passphrase mismatch; the session
	// stays at the passphrase gate.
	ErrWrongPassphrase = errors.New("wrong passphrase")
	// ErrInvalidNickname is returned for an empty or over-long nickname.
	ErrInvalidNickname = errors.New("nickname must be 1-12 characters")
	// ErrStageViolation is returned when an action arrives out of order.
	ErrStageViolation = errors.New("action not allowed in current stage")
	// ErrAlreadyAnswered blocks a second submission for the same problem.
	ErrAlreadyAnswered = errors.New("problem already answered")
	// ErrNoActiveProblem is returned when an answer arrives with nothing drawn.
	ErrNoActiveProblem = errors.New("no active problem")
	// ErrPoolExhausted signals that every problem has been drawn this session.
	ErrPoolExhausted = errors.New("problem pool exhausted")
)
