package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/breaker"
	"github.com/fyrsmithlabs/queryd/internal/chain"
	"github.com/fyrsmithlabs/queryd/internal/complexity"
	"github.com/fyrsmithlabs/queryd/internal/events"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/internal/secrets"
	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

// OperationKeyPrefix namespaces breaker registry keys for assistant
// operations, yielding keys like "assistant:legal".
const OperationKeyPrefix = "assistant:"

// Request is one inbound query.
type Request struct {
	SessionID string `json:"session_id,omitempty"`
	Kind      string `json:"kind"`
	Query     string `json:"query"`
}

// Reply is the service's answer. A fallback reply is a well-formed
// answer, not an error; Fallback marks it for callers that care.
type Reply struct {
	QueryID    string                `json:"query_id"`
	Text       string                `json:"text"`
	Provider   string                `json:"provider,omitempty"`
	Fallback   bool                  `json:"fallback"`
	Complexity complexity.Assessment `json:"complexity"`
	Attempts   []chain.Attempt       `json:"attempts"`
}

// Service routes queries to per-kind provider chains under breaker
// protection. It owns the session tracker and service counters; the
// breaker registry and routers are injected so the daemon can share
// them with its API surface.
type Service struct {
	registry *breaker.Registry
	monitor  *complexity.Monitor
	scrubber secrets.Scrubber
	events   events.Publisher
	sessions *SessionTracker
	stats    *Stats
	log      *logging.Logger

	mu      sync.RWMutex
	routers map[string]*chain.Router
}

// Options assembles a Service. Nil optional collaborators degrade to
// no-ops so tests and partial deployments stay simple.
type Options struct {
	Registry *breaker.Registry
	Routers  map[string]*chain.Router
	Scrubber secrets.Scrubber
	Events   events.Publisher
	Logger   *logging.Logger
}

// NewService creates the query service.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Scrubber == nil {
		opts.Scrubber = &secrets.NoopScrubber{}
	}
	if opts.Events == nil {
		opts.Events = events.NoopPublisher{}
	}
	if opts.Registry == nil {
		opts.Registry = breaker.NewRegistry(breaker.Options{}, opts.Logger)
	}
	if opts.Routers == nil {
		opts.Routers = make(map[string]*chain.Router)
	}
	return &Service{
		registry: opts.Registry,
		monitor:  complexity.NewMonitor(),
		scrubber: opts.Scrubber,
		events:   opts.Events,
		sessions: NewSessionTracker(),
		stats:    NewStats(),
		log:      opts.Logger,
		routers:  opts.Routers,
	}
}

// Ask routes one query through its kind's provider chain under breaker
// protection.
//
// When err is nil the reply is always usable, including chain
// exhaustion, which comes back as a fallback-flagged reply.
// ErrEmptyQuery and ErrUnknownKind report bad requests.
// breaker.ErrOverloaded and breaker.ErrOpen report the service
// protecting itself; transports render those, never raw provider
// errors.
func (s *Service) Ask(ctx context.Context, req Request) (*Reply, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	router, ok := s.router(req.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	queryID := uuid.New().String()
	key := OperationKeyPrefix + req.Kind
	ctx = logging.WithOperation(ctx, key)

	scrub := s.scrubber.Scrub(req.Query)
	if scrub.HasFindings() {
		s.log.Warn(ctx, "secrets scrubbed from query",
			zap.String("query_id", queryID),
			zap.Int("findings", scrub.TotalFindings),
			zap.Strings("rules", scrub.RuleIDs()))
		RecordScrubFindings(scrub.TotalFindings)
	}
	text := scrub.Scrubbed

	assessment := s.monitor.Assess(text)
	RecordComplexity(assessment.TotalComplexity)

	snapshot := s.sessions.Begin(req.SessionID, req.Kind, assessment.TotalComplexity)
	s.stats.RecordQuery()

	var outcome *chain.Outcome
	workErr := s.registry.Get(key).Do(ctx, snapshot, func(ctx context.Context) error {
		out, err := router.Resolve(ctx, provider.Query{ID: queryID, Text: text})
		outcome = out
		return err
	})

	s.recordAttempts(ctx, queryID, req.Kind, outcome)

	switch {
	case workErr == nil:
		RecordQueryResult(req.Kind, "answered")
		s.log.Info(ctx, "query answered",
			zap.String("query_id", queryID),
			zap.String("provider", outcome.Provider),
			zap.Int("attempts", len(outcome.Attempts)),
			zap.Float64("complexity", assessment.TotalComplexity))
		return s.reply(queryID, outcome, assessment), nil

	case errors.Is(workErr, chain.ErrExhausted):
		// The breaker already counted the exhaustion as a failure; the
		// caller still gets the fallback reply as a normal answer.
		s.sessions.RecordError(req.SessionID)
		s.stats.RecordFallback()
		RecordQueryResult(req.Kind, "fallback")
		RecordChainFallback(req.Kind)
		s.events.ChainFallback(ctx, events.ChainFallback{
			QueryID:  queryID,
			Kind:     req.Kind,
			Attempts: len(outcome.Attempts),
		})
		s.log.Warn(ctx, "serving fallback reply",
			zap.String("query_id", queryID),
			zap.Int("attempts", len(outcome.Attempts)))
		return s.reply(queryID, outcome, assessment), nil

	case errors.Is(workErr, breaker.ErrOverloaded):
		s.stats.RecordOverloadRejection()
		RecordQueryResult(req.Kind, "rejected")
		RecordBreakerRejection("overload")
		s.log.Warn(ctx, "query rejected by overload gate",
			zap.String("query_id", queryID),
			zap.Float64("current_load", snapshot.CurrentLoad),
			zap.Int("context_switches", snapshot.ContextSwitches),
			zap.Int("error_count", snapshot.ErrorCount))
		return nil, workErr

	case errors.Is(workErr, breaker.ErrOpen):
		s.stats.RecordOpenRejection()
		RecordQueryResult(req.Kind, "rejected")
		RecordBreakerRejection("open")
		s.log.Warn(ctx, "query rejected by open circuit",
			zap.String("query_id", queryID))
		return nil, workErr

	default:
		// Anything else passed through the breaker unchanged.
		s.sessions.RecordError(req.SessionID)
		RecordQueryResult(req.Kind, "error")
		s.log.Error(ctx, "query failed",
			zap.String("query_id", queryID),
			zap.Error(workErr))
		return nil, workErr
	}
}

// SetTopology swaps the kind to chain mapping. The config watcher calls
// this after a successful reload; in-flight queries finish on the router
// they started with.
func (s *Service) SetTopology(routers map[string]*chain.Router) {
	if routers == nil {
		routers = make(map[string]*chain.Router)
	}
	s.mu.Lock()
	s.routers = routers
	s.mu.Unlock()
	s.log.Info(context.Background(), "assistant topology updated",
		zap.Int("kinds", len(routers)))
}

// Kinds returns the configured assistant kinds, sorted.
func (s *Service) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]string, 0, len(s.routers))
	for k := range s.routers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Breakers reports the per-key breaker status, sorted by key.
func (s *Service) Breakers() []breaker.Status {
	return s.registry.Snapshot()
}

// Stats reports the in-process counters.
func (s *Service) Stats() Snapshot {
	return s.stats.Snapshot()
}

// Assess scores content without routing it anywhere.
func (s *Service) Assess(content string) complexity.Assessment {
	return s.monitor.Assess(content)
}

// Sessions returns the number of tracked sessions.
func (s *Service) Sessions() int {
	return s.sessions.Len()
}

func (s *Service) router(kind string) (*chain.Router, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routers[kind]
	return r, ok
}

// recordAttempts publishes the attempt trail to metrics, stats and
// events. The outcome is nil when the breaker refused the call before
// any provider ran.
func (s *Service) recordAttempts(ctx context.Context, queryID, kind string, out *chain.Outcome) {
	if out == nil {
		return
	}
	for _, a := range out.Attempts {
		RecordChainAttempt(a.Provider, string(a.Outcome))
		s.stats.RecordAttempt(a.Provider, string(a.Outcome))
		s.events.ChainAttempt(ctx, events.ChainAttempt{
			QueryID:   queryID,
			Kind:      kind,
			Provider:  a.Provider,
			Ordinal:   a.Ordinal,
			Outcome:   string(a.Outcome),
			Error:     a.Error,
			LatencyMS: a.LatencyMS,
		})
	}
}

func (s *Service) reply(queryID string, out *chain.Outcome, a complexity.Assessment) *Reply {
	return &Reply{
		QueryID:    queryID,
		Text:       out.Text,
		Provider:   out.Provider,
		Fallback:   out.Fallback,
		Complexity: a,
		Attempts:   out.Attempts,
	}
}

// NewTransitionHook returns the breaker OnTransition callback that wires
// state changes into the log, the transition counter and the event
// stream. Build it before the registry so the registry options can carry
// it.
func NewTransitionHook(log *logging.Logger, pub events.Publisher) func(key string, from, to breaker.State) {
	if log == nil {
		log = logging.NewNop()
	}
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return func(key string, from, to breaker.State) {
		ctx := context.Background()
		log.Info(ctx, "circuit breaker state changed",
			zap.String("key", key),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		RecordBreakerTransition(key, string(to))
		pub.BreakerTransition(ctx, events.BreakerTransition{
			Key:  key,
			From: string(from),
			To:   string(to),
		})
	}
}
