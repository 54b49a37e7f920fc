package assistant

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats collects in-process counters for the stats endpoint and the
// dashboard. Nothing here persists across restarts; Prometheus carries
// the durable view.
type Stats struct {
	queries   atomic.Int64
	fallbacks atomic.Int64
	overloads atomic.Int64
	opens     atomic.Int64

	mu       sync.Mutex
	outcomes map[string]map[string]int64
	started  time.Time
}

// NewStats returns zeroed counters with the uptime clock started.
func NewStats() *Stats {
	return &Stats{
		outcomes: make(map[string]map[string]int64),
		started:  time.Now(),
	}
}

// RecordQuery counts one accepted query.
func (s *Stats) RecordQuery() { s.queries.Add(1) }

// RecordFallback counts one query answered with the fallback reply.
func (s *Stats) RecordFallback() { s.fallbacks.Add(1) }

// RecordOverloadRejection counts one query rejected by the overload gate.
func (s *Stats) RecordOverloadRejection() { s.overloads.Add(1) }

// RecordOpenRejection counts one query rejected by an open circuit.
func (s *Stats) RecordOpenRejection() { s.opens.Add(1) }

// RecordAttempt tallies one provider trial by outcome.
func (s *Stats) RecordAttempt(provider, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.outcomes[provider]
	if !ok {
		m = make(map[string]int64)
		s.outcomes[provider] = m
	}
	m[outcome]++
}

// Snapshot is a point-in-time copy of the counters, safe to serialize.
type Snapshot struct {
	Queries            int64                       `json:"queries"`
	Fallbacks          int64                       `json:"fallbacks"`
	OverloadRejections int64                       `json:"overload_rejections"`
	OpenRejections     int64                       `json:"open_rejections"`
	Providers          map[string]map[string]int64 `json:"providers"`
	UptimeSeconds      int64                       `json:"uptime_seconds"`
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Queries:            s.queries.Load(),
		Fallbacks:          s.fallbacks.Load(),
		OverloadRejections: s.overloads.Load(),
		OpenRejections:     s.opens.Load(),
		Providers:          make(map[string]map[string]int64),
		UptimeSeconds:      int64(time.Since(s.started).Seconds()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for provider, m := range s.outcomes {
		c := make(map[string]int64, len(m))
		for outcome, n := range m {
			c[outcome] = n
		}
		snap.Providers[provider] = c
	}
	return snap
}
