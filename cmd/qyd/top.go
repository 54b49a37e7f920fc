package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/queryd/internal/monitor"
)

var (
	// top command flags
	topInterval time.Duration
)

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().DurationVar(&topInterval, "interval", 2*time.Second, "refresh interval")
}

// topCmd runs the live terminal dashboard
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Watch queryd live in a terminal dashboard",
	Long: `Watch circuit breakers, query throughput and provider outcomes in a
live terminal dashboard.

Keys:
  q       quit
  r       force a refresh

Examples:
  # Watch the local daemon
  qyd top

  # Watch a remote daemon, refreshing every 5s
  qyd top --server http://queryd.internal:9090 --interval 5s`,
	RunE: runTop,
}

// runTop handles the top command
func runTop(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(serverURL, topInterval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}
