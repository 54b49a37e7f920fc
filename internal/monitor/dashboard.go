// Package monitor is the terminal dashboard behind "qyd top". It polls a
// running daemon's HTTP API and renders circuit breaker states, query
// counters and per-provider outcomes.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model represents the BubbleTea dashboard model
type Model struct {
	serverURL  string
	interval   time.Duration
	lastUpdate time.Time
	breakers   []breaker.Status
	stats      assistant.Snapshot
	err        error
	quitting   bool

	// Query rate derived from successive snapshots
	rateHistory []float64
	prevQueries int64
	prevAt      time.Time

	fallbackProgress progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Status styles with unicode symbols
	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Sparkline container
	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model
func NewModel(serverURL string, interval time.Duration) Model {
	fallbackProg := progress.New(
		progress.WithGradient("#00ff00", "#ff0000"),
		progress.WithWidth(40),
	)

	return Model{
		serverURL:        serverURL,
		interval:         interval,
		quitting:         false,
		fallbackProgress: fallbackProg,
		rateHistory:      make([]float64, 0, historySize),
	}
}

// stateBadge returns a colored status badge for one breaker state
func stateBadge(state breaker.State) string {
	switch state {
	case breaker.StateClosed:
		return healthyStyle.Render("[✓]")
	case breaker.StateHalfOpen:
		return warningStyle.Render("[⚠]")
	default:
		return errorStyle.Render("[✗]")
	}
}

// statusBadge returns the overall badge from the breaker set
func statusBadge(breakers []breaker.Status) string {
	open, halfOpen := 0, 0
	for _, b := range breakers {
		switch b.State {
		case breaker.StateOpen:
			open++
		case breaker.StateHalfOpen:
			halfOpen++
		}
	}
	if open > 0 {
		return errorStyle.Render(fmt.Sprintf("✗ %d OPEN", open))
	}
	if halfOpen > 0 {
		return warningStyle.Render("⚠ PROBING")
	}
	return healthyStyle.Render("✓ HEALTHY")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time

type statusMsg struct {
	breakers []breaker.Status
	stats    assistant.Snapshot
}

type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchStatus(m.serverURL),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchStatus fetches breaker and counter snapshots from the daemon
func fetchStatus(serverURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client := NewStatusClient(serverURL)

		breakers, err := client.Breakers(ctx)
		if err != nil {
			return errMsg(err)
		}

		stats, err := client.Stats(ctx)
		if err != nil {
			return errMsg(err)
		}

		return statusMsg{breakers: breakers, stats: stats}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchStatus(m.serverURL)
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchStatus(m.serverURL),
		)

	case statusMsg:
		now := time.Now()
		if !m.prevAt.IsZero() {
			elapsed := now.Sub(m.prevAt).Minutes()
			if elapsed > 0 {
				rate := float64(msg.stats.Queries-m.prevQueries) / elapsed
				if rate < 0 {
					// Daemon restarted, counters reset
					rate = 0
				}
				m.rateHistory = appendToHistory(m.rateHistory, rate)
			}
		}
		m.prevQueries = msg.stats.Queries
		m.prevAt = now

		m.breakers = msg.breakers
		m.stats = msg.stats
		m.lastUpdate = now
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render(" queryd Monitor ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot connect to queryd") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.serverURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. queryd is running") + "\n"
	content += dimStyle.Render("  2. --server points at its listen address") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderDashboard renders the main dashboard view
func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	uptimeStr := FormatUptime(m.stats.UptimeSeconds)

	header := headerStyle.Render(" queryd Monitor ")
	headerLine := fmt.Sprintf("%s   %s   %s   %s",
		statusBadge(m.breakers),
		dimStyle.Render("Uptime:"),
		valueStyle.Render(uptimeStr),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Circuit breakers section
	content += "\n" + sectionStyle.Render("┃ Circuit Breakers") + "\n"

	if len(m.breakers) == 0 {
		content += dimStyle.Render("  none yet, the first query creates one") + "\n"
	}
	for _, b := range m.breakers {
		line := "  " + stateBadge(b.State) + " " +
			valueStyle.Render(fmt.Sprintf("%-24s", b.Key)) +
			labelStyle.Render(" failures ") + valueStyle.Render(fmt.Sprintf("%.1f", b.Failures)) +
			labelStyle.Render("  last failure ") + dimStyle.Render(FormatAgo(b.LastFailureAt, time.Now()))
		content += line + "\n"
	}

	// Queries section
	content += "\n" + sectionStyle.Render("┃ Queries") + "\n"

	rate := 0.0
	if len(m.rateHistory) > 0 {
		rate = m.rateHistory[len(m.rateHistory)-1]
	}
	rateSparkline := createSparkline(m.rateHistory)
	content += labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatRate(rate)) +
		"   " + rateSparkline + "\n"

	content += labelStyle.Render("  Served: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.stats.Queries)) +
		dimStyle.Render("  fallbacks ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.Fallbacks)) +
		dimStyle.Render("  rejected overload ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.OverloadRejections)) +
		dimStyle.Render(" open ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.OpenRejections)) + "\n"

	fallbackRatio := 0.0
	if m.stats.Queries > 0 {
		fallbackRatio = float64(m.stats.Fallbacks) / float64(m.stats.Queries)
		if fallbackRatio > 1.0 {
			fallbackRatio = 1.0
		}
	}
	content += labelStyle.Render("  Fallbacks: ") +
		m.fallbackProgress.ViewAs(fallbackRatio) +
		" " + dimStyle.Render(FormatPercentage(fallbackRatio)) + "\n"

	// Providers section
	content += "\n" + sectionStyle.Render("┃ Providers") + "\n"

	if len(m.stats.Providers) == 0 {
		content += dimStyle.Render("  no attempts recorded") + "\n"
	}
	for _, name := range sortedProviders(m.stats.Providers) {
		outcomes := m.stats.Providers[name]
		content += labelStyle.Render(fmt.Sprintf("  %-12s", name)) +
			dimStyle.Render("success ") + valueStyle.Render(fmt.Sprintf("%d", outcomes["success"])) +
			dimStyle.Render("  error ") + valueStyle.Render(fmt.Sprintf("%d", outcomes["error"])) +
			dimStyle.Render("  blank ") + valueStyle.Render(fmt.Sprintf("%d", outcomes["blank"])) + "\n"
	}

	// Footer with keyboard shortcuts
	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

func sortedProviders(providers map[string]map[string]int64) []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
