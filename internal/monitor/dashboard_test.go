package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

func TestNewModel(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)
	assert.Equal(t, "http://localhost:9090", model.serverURL)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.False(t, model.quitting)
	assert.Empty(t, model.rateHistory)
}

func TestModel_Init(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)
	cmd := model.Init()

	// Init should return a tick command to start auto-refresh
	assert.NotNil(t, cmd)
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd) // Should return tea.Quit
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return fetchStatus command
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	msg := tickMsg(time.Now())
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return batch command (tick + fetchStatus)
}

func TestModel_Update_StatusMsg(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	msg := statusMsg{
		breakers: []breaker.Status{{Key: "assistant:legal", State: breaker.StateClosed}},
		stats:    assistant.Snapshot{Queries: 10, Fallbacks: 2},
	}
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.Len(t, m.breakers, 1)
	assert.Equal(t, int64(10), m.stats.Queries)
	assert.False(t, m.lastUpdate.IsZero())
	assert.Nil(t, cmd)

	// First snapshot only primes the rate tracking
	assert.Empty(t, m.rateHistory)

	// A later snapshot produces a rate point
	later := statusMsg{
		breakers: msg.breakers,
		stats:    assistant.Snapshot{Queries: 16, Fallbacks: 2},
	}
	updatedModel, _ = m.Update(later)
	m = updatedModel.(Model)
	assert.Len(t, m.rateHistory, 1)
	assert.GreaterOrEqual(t, m.rateHistory[0], 0.0)
}

func TestModel_Update_StatusMsg_CounterReset(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	first := statusMsg{stats: assistant.Snapshot{Queries: 100}}
	updatedModel, _ := model.Update(first)
	m := updatedModel.(Model)

	// Daemon restarted, counter went backwards
	second := statusMsg{stats: assistant.Snapshot{Queries: 3}}
	updatedModel, _ = m.Update(second)
	m = updatedModel.(Model)

	assert.Len(t, m.rateHistory, 1)
	assert.Equal(t, 0.0, m.rateHistory[0])
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)

	msg := errMsg(fmt.Errorf("connection refused"))
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.NotNil(t, m.err)
	assert.Contains(t, m.err.Error(), "connection refused")
	assert.Nil(t, cmd)
}

func TestModel_View_WithData(t *testing.T) {
	failedAt := time.Now().Add(-3 * time.Minute)

	model := NewModel("http://localhost:9090", 5*time.Second)
	model.breakers = []breaker.Status{
		{Key: "assistant:legal", State: breaker.StateClosed, Failures: 1.5},
		{Key: "assistant:code", State: breaker.StateOpen, Failures: 3, LastFailureAt: &failedAt},
	}
	model.stats = assistant.Snapshot{
		Queries:            42,
		Fallbacks:          4,
		OverloadRejections: 2,
		OpenRejections:     1,
		Providers: map[string]map[string]int64{
			"claude": {"success": 38, "error": 4},
		},
		UptimeSeconds: 8100, // 2h 15m
	}
	model.lastUpdate = time.Date(2026, 1, 1, 12, 34, 56, 0, time.UTC)

	view := model.View()

	assert.Contains(t, view, "queryd Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "2h 15m")
	assert.Contains(t, view, "1 OPEN")
	assert.Contains(t, view, "Circuit Breakers")
	assert.Contains(t, view, "assistant:legal")
	assert.Contains(t, view, "assistant:code")
	assert.Contains(t, view, "Queries")
	assert.Contains(t, view, "42")
	assert.Contains(t, view, "Providers")
	assert.Contains(t, view, "claude")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_WithError(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)
	model.err = fmt.Errorf("connection refused")

	view := model.View()

	assert.Contains(t, view, "Cannot connect to queryd")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:9090")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := NewModel("http://localhost:9090", 5*time.Second)
	// No breakers, no error

	view := model.View()

	assert.Contains(t, view, "queryd Monitor")
	assert.Contains(t, view, "none yet")
	assert.Contains(t, view, "no attempts recorded")
	assert.Contains(t, view, "[q]")
}

func TestStatusBadge(t *testing.T) {
	closed := breaker.Status{State: breaker.StateClosed}
	open := breaker.Status{State: breaker.StateOpen}
	probing := breaker.Status{State: breaker.StateHalfOpen}

	assert.Contains(t, statusBadge(nil), "HEALTHY")
	assert.Contains(t, statusBadge([]breaker.Status{closed}), "HEALTHY")
	assert.Contains(t, statusBadge([]breaker.Status{closed, probing}), "PROBING")
	assert.Contains(t, statusBadge([]breaker.Status{closed, probing, open}), "1 OPEN")
}
