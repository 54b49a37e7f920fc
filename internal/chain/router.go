// Package chain routes one logical query across an ordered list of provider
// adapters, accepting the first usable answer.
//
// Adapters are tried strictly in declared order with no reordering and no
// parallel fan-out; sequential trial trades worst-case latency for a simple,
// predictable failure story. A provider error or a blank answer advances the
// chain, and exhausting the list degrades to a fixed fallback reply rather
// than an error.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

// DefaultFallbackText is the terminal reply when every adapter is exhausted.
const DefaultFallbackText = "No assistant provider is available right now. Please try again in a few minutes."

// ErrExhausted reports that every adapter in the chain failed or answered
// blank. Route folds it into the fallback outcome; Resolve surfaces it so
// callers can account for the exhaustion before degrading.
var ErrExhausted = errors.New("chain: all providers exhausted")

// AttemptOutcome classifies one adapter trial.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeError   AttemptOutcome = "error"
	OutcomeBlank   AttemptOutcome = "blank"
)

// Attempt is the audit record of one adapter trial within a route.
type Attempt struct {
	Provider  string         `json:"provider"`
	Ordinal   int            `json:"ordinal"`
	Outcome   AttemptOutcome `json:"outcome"`
	Error     string         `json:"error,omitempty"`
	LatencyMS int64          `json:"latency_ms"`
}

// Outcome is the result of routing one query. Fallback outcomes carry the
// terminal reply and an empty Provider.
type Outcome struct {
	Text     string    `json:"text"`
	Provider string    `json:"provider,omitempty"`
	Fallback bool      `json:"fallback"`
	Attempts []Attempt `json:"attempts"`
}

// Router holds one ordered adapter list. It is immutable after construction;
// topology changes swap in a new Router.
type Router struct {
	name      string
	providers []provider.Provider
	fallback  string
	log       *logging.Logger
}

// NewRouter creates a router over providers in priority order. An empty
// fallback falls back to DefaultFallbackText; a nil logger to a no-op.
func NewRouter(name string, providers []provider.Provider, fallback string, log *logging.Logger) *Router {
	if name == "" {
		name = "default"
	}
	if fallback == "" {
		fallback = DefaultFallbackText
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Router{
		name:      name,
		providers: providers,
		fallback:  fallback,
		log:       log,
	}
}

// Name returns the chain name.
func (r *Router) Name() string {
	return r.name
}

// Route answers the query, degrading to the fallback reply when the chain is
// exhausted. It never returns an error: callers that cannot distinguish a
// real answer from a degraded one still receive a well-formed outcome.
func (r *Router) Route(ctx context.Context, q provider.Query) *Outcome {
	out, _ := r.Resolve(ctx, q) // exhaustion is already folded into the outcome
	return out
}

// Resolve tries each adapter in order and returns the first non-blank,
// non-errored answer. On exhaustion the outcome carries the fallback reply
// and the error wraps ErrExhausted; the attempt trail is complete either way.
func (r *Router) Resolve(ctx context.Context, q provider.Query) (*Outcome, error) {
	attempts := make([]Attempt, 0, len(r.providers))

	for i, p := range r.providers {
		start := time.Now()
		resp, err := p.Invoke(ctx, q)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			attempts = append(attempts, Attempt{
				Provider:  p.Name(),
				Ordinal:   i,
				Outcome:   OutcomeError,
				Error:     err.Error(),
				LatencyMS: latency,
			})
			r.log.Warn(ctx, "provider failed, trying next",
				zap.String("chain", r.name),
				zap.String("provider", p.Name()),
				zap.Int("ordinal", i),
				zap.Error(err))
			continue
		}

		if strings.TrimSpace(resp.Text) == "" {
			attempts = append(attempts, Attempt{
				Provider:  p.Name(),
				Ordinal:   i,
				Outcome:   OutcomeBlank,
				LatencyMS: latency,
			})
			r.log.Debug(ctx, "provider answered blank, trying next",
				zap.String("chain", r.name),
				zap.String("provider", p.Name()),
				zap.Int("ordinal", i))
			continue
		}

		attempts = append(attempts, Attempt{
			Provider:  p.Name(),
			Ordinal:   i,
			Outcome:   OutcomeSuccess,
			LatencyMS: latency,
		})
		r.log.Debug(ctx, "provider answered",
			zap.String("chain", r.name),
			zap.String("provider", p.Name()),
			zap.Int("ordinal", i),
			zap.Int64("latency_ms", latency))

		return &Outcome{
			Text:     resp.Text,
			Provider: p.Name(),
			Attempts: attempts,
		}, nil
	}

	r.log.Info(ctx, "chain exhausted, serving fallback",
		zap.String("chain", r.name),
		zap.Int("attempts", len(attempts)))

	return &Outcome{
		Text:     r.fallback,
		Fallback: true,
		Attempts: attempts,
	}, fmt.Errorf("%w: %d adapters tried", ErrExhausted, len(attempts))
}
