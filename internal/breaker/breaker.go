// Package breaker implements the protection wrapper in front of monitored
// operations: an overload gate fed by ambient load signals, and a
// closed/open/half_open circuit breaker with partial forgiveness on success.
//
// One long-lived Breaker exists per operation key, shared across calls
// through the Registry. All state transitions are atomic under a per-breaker
// mutex, so concurrent callers on the same key are safe.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is the circuit position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Defaults for Options fields left at zero.
const (
	// DefaultFailureThreshold is the failure count that trips the breaker.
	DefaultFailureThreshold = 3

	// DefaultOpenTimeout is the cooldown after a trip before one test
	// request is allowed through.
	DefaultOpenTimeout = 5 * time.Minute

	// DefaultHalfOpenSuccesses is how many successful test requests close
	// the breaker again.
	DefaultHalfOpenSuccesses = 1

	// successForgiveness is subtracted from the failure count on each
	// success while closed, floored at zero. Isolated failures therefore
	// decay instead of accumulating toward a trip forever.
	successForgiveness = 0.5
)

// Options tunes a breaker. Zero values fall back to the defaults above.
type Options struct {
	FailureThreshold  int
	OpenTimeout       time.Duration
	HalfOpenSuccesses int

	// OnTransition, when set, is invoked after every state change, outside
	// the breaker's lock.
	OnTransition func(key string, from, to State)
}

func (o Options) withDefaults() Options {
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = DefaultOpenTimeout
	}
	if o.HalfOpenSuccesses <= 0 {
		o.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return o
}

// Status is a point-in-time copy of a breaker's state for reporting.
type Status struct {
	Key           string     `json:"key"`
	State         State      `json:"state"`
	Failures      float64    `json:"failures"`
	Successes     int        `json:"successes"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
}

// Breaker guards one operation key.
type Breaker struct {
	key  string
	opts Options

	mu          sync.Mutex
	state       State
	failures    float64
	successes   int
	lastFailure time.Time
	probing     bool
}

// New creates a closed breaker for the given operation key.
func New(key string, opts Options) *Breaker {
	return &Breaker{
		key:   key,
		opts:  opts.withDefaults(),
		state: StateClosed,
	}
}

// Key returns the operation key this breaker guards.
func (b *Breaker) Key() string {
	return b.key
}

// Do runs work under the breaker. The overload gate is checked first, in
// every state; a gate rejection returns ErrOverloaded without touching the
// state machine. An open breaker inside its cooldown returns ErrOpen without
// running work. Otherwise work runs, its failure or success is recorded, and
// its error (if any) is returned unchanged.
func (b *Breaker) Do(ctx context.Context, load LoadSnapshot, work func(context.Context) error) error {
	if err := load.check(); err != nil {
		return err
	}
	if err := b.allow(); err != nil {
		return err
	}
	if err := work(ctx); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// allow decides whether a call may proceed, moving open breakers to
// half_open once the cooldown has elapsed. In half_open only one probe is in
// flight at a time; concurrent calls are rejected until it resolves.
func (b *Breaker) allow() error {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return nil

	case StateOpen:
		if time.Since(b.lastFailure) < b.opts.OpenTimeout {
			b.mu.Unlock()
			return fmt.Errorf("%w: operation %q cooling down", ErrOpen, b.key)
		}
		from := b.state
		b.state = StateHalfOpen
		b.successes = 0
		b.probing = true
		b.mu.Unlock()
		b.notify(from, StateHalfOpen)
		return nil

	default: // StateHalfOpen
		if b.probing {
			b.mu.Unlock()
			return fmt.Errorf("%w: operation %q has a test request in flight", ErrOpen, b.key)
		}
		b.probing = true
		b.mu.Unlock()
		return nil
	}
}

// recordFailure accounts for a failed execution. While closed it increments
// the failure count and trips the breaker at the threshold; while half_open
// it reopens immediately. Completions that land after the breaker has
// already tripped are dropped: the open cooldown is governed by the failure
// that tripped it.
func (b *Breaker) recordFailure() {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.failures++
		b.lastFailure = time.Now()
		if b.failures >= float64(b.opts.FailureThreshold) {
			b.state = StateOpen
			b.mu.Unlock()
			b.notify(StateClosed, StateOpen)
			return
		}
		b.mu.Unlock()

	case StateHalfOpen:
		b.probing = false
		b.lastFailure = time.Now()
		b.state = StateOpen
		b.mu.Unlock()
		b.notify(StateHalfOpen, StateOpen)

	default: // StateOpen: stale completion, drop.
		b.mu.Unlock()
	}
}

// recordSuccess accounts for a successful execution. While closed it decays
// the failure count by successForgiveness, floored at zero. While half_open
// it counts toward the successes needed to close; closing resets every
// counter. Stale completions in the open state are dropped.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.successes++
		b.failures -= successForgiveness
		if b.failures < 0 {
			b.failures = 0
		}
		b.mu.Unlock()

	case StateHalfOpen:
		b.probing = false
		b.successes++
		if b.successes >= b.opts.HalfOpenSuccesses {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			b.mu.Unlock()
			b.notify(StateHalfOpen, StateClosed)
			return
		}
		b.mu.Unlock()

	default: // StateOpen: stale completion, drop.
		b.mu.Unlock()
	}
}

// Status returns a copy of the breaker's current state.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Key:       b.key,
		State:     b.state,
		Failures:  b.failures,
		Successes: b.successes,
	}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		st.LastFailureAt = &t
	}
	return st
}

// State returns the current circuit position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) notify(from, to State) {
	if b.opts.OnTransition != nil {
		b.opts.OnTransition(b.key, from, to)
	}
}
