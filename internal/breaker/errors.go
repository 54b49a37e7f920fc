package breaker

import "errors"

// Precondition errors. Both reject work before it runs; neither touches the
// failure counters.
var (
	// ErrOverloaded means the caller's ambient load failed the gate check.
	// The breaker state machine was never consulted.
	ErrOverloaded = errors.New("breaker: caller overloaded")

	// ErrOpen means the breaker is open and its cooldown has not elapsed.
	// Callers should back off rather than busy-retry.
	ErrOpen = errors.New("breaker: circuit open")
)
