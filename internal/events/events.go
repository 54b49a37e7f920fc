package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/logging"
)

// DefaultSubjectPrefix namespaces queryd subjects on a shared NATS cluster.
const DefaultSubjectPrefix = "queryd"

// Subject suffixes relative to the configured prefix.
const (
	subjectChainAttempt      = ".chain.attempt"
	subjectChainFallback     = ".chain.fallback"
	subjectBreakerTransition = ".breaker.transition"
)

// ChainAttempt records one provider trial within a routed query.
type ChainAttempt struct {
	QueryID   string    `json:"query_id"`
	Kind      string    `json:"kind"`
	Provider  string    `json:"provider"`
	Ordinal   int       `json:"ordinal"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// ChainFallback records a chain exhausting every adapter and serving the
// fallback reply.
type ChainFallback struct {
	QueryID   string    `json:"query_id"`
	Kind      string    `json:"kind"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// BreakerTransition records a circuit state change.
type BreakerTransition struct {
	Key       string    `json:"key"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits operational events. Implementations are fire-and-forget:
// a failed publish never surfaces to the query path.
type Publisher interface {
	ChainAttempt(ctx context.Context, ev ChainAttempt)
	ChainFallback(ctx context.Context, ev ChainFallback)
	BreakerTransition(ctx context.Context, ev BreakerTransition)
}

// NATSPublisher publishes events over a NATS connection it does not own.
// The daemon manages the connection lifecycle.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	log    *logging.Logger
}

// NewNATSPublisher wraps nc. An empty prefix falls back to
// DefaultSubjectPrefix; a nil logger to a no-op.
func NewNATSPublisher(nc *nats.Conn, prefix string, log *logging.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &NATSPublisher{
		nc:     nc,
		prefix: prefix,
		log:    log,
	}
}

// ChainAttempt publishes a provider attempt event.
func (p *NATSPublisher) ChainAttempt(ctx context.Context, ev ChainAttempt) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	p.publish(ctx, p.prefix+subjectChainAttempt, ev)
}

// ChainFallback publishes a chain exhaustion event.
func (p *NATSPublisher) ChainFallback(ctx context.Context, ev ChainFallback) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	p.publish(ctx, p.prefix+subjectChainFallback, ev)
}

// BreakerTransition publishes a circuit state change event.
func (p *NATSPublisher) BreakerTransition(ctx context.Context, ev BreakerTransition) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	p.publish(ctx, p.prefix+subjectBreakerTransition, ev)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Debug(ctx, "event dropped",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Debug(ctx, "event dropped",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// NoopPublisher discards every event. It stands in when NATS is disabled
// or the initial connect failed.
type NoopPublisher struct{}

// ChainAttempt discards the event.
func (NoopPublisher) ChainAttempt(context.Context, ChainAttempt) {}

// ChainFallback discards the event.
func (NoopPublisher) ChainFallback(context.Context, ChainFallback) {}

// BreakerTransition discards the event.
func (NoopPublisher) BreakerTransition(context.Context, BreakerTransition) {}

// Compile-time checks that both implementations satisfy Publisher.
var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = NoopPublisher{}
