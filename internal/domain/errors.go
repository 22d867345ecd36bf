package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Selection errors
	ErrMsgInvalidSelection = "invalid selection"
	ErrMsgWrongPhase       = "command not valid in current phase"
	ErrMsgNotYourTurn      = "not your turn"
	ErrMsgStaleCommand     = "stale command"

	// Pool errors
	ErrMsgPoolFull         = "pool is full"
	ErrMsgPoolAtMinimum    = "pool is at minimum size"
	ErrMsgAlreadyInPool    = "opening already in pool"
	ErrMsgWinRateImbalance = "win rate too imbalanced"
	ErrMsgInvalidFEN       = "invalid FEN"

	// Series errors
	ErrMsgSeriesNotFound  = "series not found"
	ErrMsgSeriesOver      = "series already over"
	ErrMsgOpeningNotFound = "opening not found"

	// Rematch errors
	ErrMsgNoRematchOffer = "no pending rematch offer"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context.
var (
	// Player-input errors: reported synchronously, never mutate state
	ErrInvalidSelection = errors.New(ErrMsgInvalidSelection)
	ErrWrongPhase       = errors.New(ErrMsgWrongPhase)
	ErrNotYourTurn      = errors.New(ErrMsgNotYourTurn)

	// ErrStaleCommand marks a command that lost a race against a just-applied
	// timer transition. Dropped silently, never surfaced to the client.
	ErrStaleCommand = errors.New(ErrMsgStaleCommand)

	// Pool constraint violations
	ErrPoolFull         = errors.New(ErrMsgPoolFull)
	ErrPoolAtMinimum    = errors.New(ErrMsgPoolAtMinimum)
	ErrAlreadyInPool    = errors.New(ErrMsgAlreadyInPool)
	ErrWinRateImbalance = errors.New(ErrMsgWinRateImbalance)
	ErrInvalidFEN       = errors.New(ErrMsgInvalidFEN)

	ErrSeriesNotFound  = errors.New(ErrMsgSeriesNotFound)
	ErrSeriesOver      = errors.New(ErrMsgSeriesOver)
	ErrOpeningNotFound = errors.New(ErrMsgOpeningNotFound)

	ErrNoRematchOffer = errors.New(ErrMsgNoRematchOffer)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// IsPoolConstraint reports whether err is one of the pool constraint
// violations of the add/remove operations
func IsPoolConstraint(err error) bool {
	return errors.Is(err, ErrPoolFull) ||
		errors.Is(err, ErrPoolAtMinimum) ||
		errors.Is(err, ErrAlreadyInPool) ||
		errors.Is(err, ErrWinRateImbalance)
}
