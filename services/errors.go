package services

import (
	"errors"
)

// Core failure kinds. Services fail fast with one of these (wrapped with
// context via fmt.Errorf and %w) before any state change; handlers map them to
// HTTP status codes at the edge.
var (
	// ErrValidation covers malformed input and out-of-order timestamps.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidWindow means a time boundary required to be in the future has
	// already elapsed (e.g. queueing a target whose game time is over).
	ErrInvalidWindow = errors.New("time window has already elapsed")

	// ErrWindowClosed means a submission arrived at or after the target's game time.
	ErrWindowClosed = errors.New("game time has ended")

	// ErrCycleExhausted means the user has no submissions left this cycle.
	ErrCycleExhausted = errors.New("no targets left in current cycle")

	// ErrActiveConflict means the operation collides with a currently active target.
	ErrActiveConflict = errors.New("a target is currently active")

	// ErrNotFound covers unknown targets/users and an empty activation queue.
	ErrNotFound = errors.New("not found")

	// ErrTooEarly means a deactivation was attempted before its time boundary.
	ErrTooEarly = errors.New("time boundary has not elapsed yet")
)
