package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

func TestSessionTracker_AnonymousIsUntracked(t *testing.T) {
	tr := NewSessionTracker()

	snap := tr.Begin("", "legal", 3.5)
	assert.Equal(t, breaker.LoadSnapshot{CurrentLoad: 3.5}, snap)
	assert.Equal(t, 0, tr.Len())

	tr.RecordError("")
	assert.Equal(t, 0, tr.Len())
}

func TestSessionTracker_CountsKindSwitches(t *testing.T) {
	tr := NewSessionTracker()

	snap := tr.Begin("s1", "legal", 1)
	assert.Equal(t, 0, snap.ContextSwitches, "the first query is not a switch")

	snap = tr.Begin("s1", "legal", 1)
	assert.Equal(t, 0, snap.ContextSwitches, "repeating the kind is not a switch")

	snap = tr.Begin("s1", "code", 1)
	assert.Equal(t, 1, snap.ContextSwitches)

	snap = tr.Begin("s1", "legal", 2)
	assert.Equal(t, 2, snap.ContextSwitches)
	assert.InDelta(t, 2.0, snap.CurrentLoad, 0.001, "load reflects the current query, not history")

	// Other sessions do not share counters.
	snap = tr.Begin("s2", "code", 1)
	assert.Equal(t, 0, snap.ContextSwitches)
	assert.Equal(t, 2, tr.Len())
}

func TestSessionTracker_AccumulatesErrors(t *testing.T) {
	tr := NewSessionTracker()

	tr.Begin("s1", "legal", 1)
	tr.RecordError("s1")
	tr.RecordError("s1")
	tr.RecordError("unknown")

	snap := tr.Begin("s1", "legal", 1)
	assert.Equal(t, 2, snap.ErrorCount)
	assert.Equal(t, 1, tr.Len(), "errors for unknown sessions are dropped")
}

func TestSessionTracker_SweepsIdleSessions(t *testing.T) {
	tr := NewSessionTracker()
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tr.Begin("old", "legal", 1)
	assert.Equal(t, 1, tr.Len())

	// Two hours later the idle session is gone after the next Begin.
	now = now.Add(2 * time.Hour)
	tr.Begin("fresh", "legal", 1)
	assert.Equal(t, 1, tr.Len())

	snap := tr.Begin("old", "code", 1)
	assert.Equal(t, 0, snap.ContextSwitches, "a swept session restarts with clean counters")
}

func TestSessionTracker_SweepKeepsActiveSessions(t *testing.T) {
	tr := NewSessionTracker()
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tr.Begin("busy", "legal", 1)

	// Touched every 30 minutes, the session never goes idle.
	for i := 0; i < 6; i++ {
		now = now.Add(30 * time.Minute)
		tr.Begin("busy", "legal", 1)
	}
	assert.Equal(t, 1, tr.Len())

	snap := tr.Begin("busy", "code", 1)
	assert.Equal(t, 1, snap.ContextSwitches, "history survives across sweeps")
}
