package assistant

import (
	"sync"
	"time"

	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

const (
	// sessionIdleTTL is how long an untouched session survives before a
	// sweep drops it.
	sessionIdleTTL = time.Hour

	// sessionSweepPeriod bounds how often Begin scans for idle sessions.
	sessionSweepPeriod = 10 * time.Minute
)

// session accumulates ambient load signals across one caller's queries.
type session struct {
	lastKind        string
	contextSwitches int
	errorCount      int
	lastSeen        time.Time
}

// SessionTracker keeps per-session counters feeding the breaker's
// overload gate: context switches between assistant kinds and errors
// seen so far. State is in-memory only; idle sessions are swept
// opportunistically during Begin, so no background goroutine runs.
type SessionTracker struct {
	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time

	now func() time.Time
}

// NewSessionTracker returns an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Begin records a query arriving for a session and returns the load
// snapshot the breaker gate inspects. Asking a different kind than the
// previous query counts as a context switch, and that switch is already
// visible in the returned snapshot. An empty session ID is anonymous:
// the snapshot carries only this query's load and nothing is retained.
func (t *SessionTracker) Begin(sessionID, kind string, load float64) breaker.LoadSnapshot {
	if sessionID == "" {
		return breaker.LoadSnapshot{CurrentLoad: load}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweepLocked(now)

	s, ok := t.sessions[sessionID]
	if !ok {
		s = &session{}
		t.sessions[sessionID] = s
	}
	if s.lastKind != "" && s.lastKind != kind {
		s.contextSwitches++
	}
	s.lastKind = kind
	s.lastSeen = now

	return breaker.LoadSnapshot{
		CurrentLoad:     load,
		ContextSwitches: s.contextSwitches,
		ErrorCount:      s.errorCount,
	}
}

// RecordError counts a failed query against the session.
func (t *SessionTracker) RecordError(sessionID string) {
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.errorCount++
	}
}

// Len returns the number of tracked sessions.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *SessionTracker) sweepLocked(now time.Time) {
	if now.Sub(t.lastSweep) < sessionSweepPeriod {
		return
	}
	t.lastSweep = now
	for id, s := range t.sessions {
		if now.Sub(s.lastSeen) > sessionIdleTTL {
			delete(t.sessions, id)
		}
	}
}
