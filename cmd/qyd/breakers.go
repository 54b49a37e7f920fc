package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	// breakers command flags
	breakersJSON bool
)

func init() {
	rootCmd.AddCommand(breakersCmd)

	breakersCmd.Flags().BoolVar(&breakersJSON, "json", false, "Output results as JSON")
}

// breakersCmd shows circuit breaker states
var breakersCmd = &cobra.Command{
	Use:   "breakers",
	Short: "Show circuit breaker states",
	Long: `Show the state of every circuit breaker the daemon has created.

Each assistant kind gets its own breaker, keyed "assistant:<kind>". A
breaker opens after repeated failures and rejects queries until its
cooldown passes.

Examples:
  # Show all breakers
  qyd breakers

  # Output as JSON
  qyd breakers --json`,
	RunE: runBreakers,
}

// BreakerStatus matches internal/breaker Status
type BreakerStatus struct {
	Key           string     `json:"key"`
	State         string     `json:"state"`
	Failures      float64    `json:"failures"`
	Successes     int        `json:"successes"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
}

// BreakersResponse matches internal/http/handlers.go BreakersResponse
type BreakersResponse struct {
	Breakers []BreakerStatus `json:"breakers"`
}

// runBreakers handles the breakers command
func runBreakers(cmd *cobra.Command, args []string) error {
	resp, err := fetchBreakers()
	if err != nil {
		return err
	}

	if breakersJSON {
		return outputJSON(resp)
	}

	fmt.Print(formatBreakers(resp.Breakers))
	return nil
}

// fetchBreakers gets the breaker list from the daemon
func fetchBreakers() (*BreakersResponse, error) {
	url := fmt.Sprintf("%s/api/v1/breakers", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var breakersResp BreakersResponse
	if err := json.NewDecoder(resp.Body).Decode(&breakersResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &breakersResp, nil
}

// formatBreakers renders the breaker table
func formatBreakers(breakers []BreakerStatus) string {
	if len(breakers) == 0 {
		return "No circuit breakers yet (the first query creates one)\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSTATE\tFAILURES\tSUCCESSES\tLAST FAILURE")
	for _, br := range breakers {
		lastFailure := "-"
		if br.LastFailureAt != nil {
			lastFailure = br.LastFailureAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\n",
			br.Key,
			br.State,
			br.Failures,
			br.Successes,
			lastFailure,
		)
	}
	w.Flush()

	return b.String()
}
