package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// query command flags
	queryKind    string
	querySession string
	queryFile    string
	queryJSON    bool
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryKind, "kind", "", "Assistant kind to route the query to (required)")
	queryCmd.Flags().StringVar(&querySession, "session", "", "Session identifier for cognitive load tracking")
	queryCmd.Flags().StringVar(&queryFile, "file", "", "Read the question from a file")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output the full reply as JSON")
	_ = queryCmd.MarkFlagRequired("kind")
}

// queryCmd routes a question through an assistant's provider chain
var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Route a question through an assistant's provider chain",
	Long: `Route a question through the provider chain configured for an
assistant kind. The answer is written to stdout; routing details go to
stderr.

The question comes from the argument, --file, or stdin.

Examples:
  # Ask directly
  qyd query --kind legal "is an oral contract binding"

  # Ask from a file
  qyd query --kind code --file question.txt

  # Ask from stdin
  cat question.txt | qyd query --kind code -

  # Track cognitive load across a session
  qyd query --kind legal --session sess-42 "follow-up question"

  # Full reply as JSON
  qyd query --kind legal --json "is an oral contract binding"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

// QueryRequest matches internal/http/handlers.go QueryRequest
type QueryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Kind      string `json:"kind"`
	Query     string `json:"query"`
}

// QueryResponse mirrors the reply served by POST /api/v1/query
type QueryResponse struct {
	QueryID    string         `json:"query_id"`
	Text       string         `json:"text"`
	Provider   string         `json:"provider,omitempty"`
	Fallback   bool           `json:"fallback"`
	Complexity ComplexityInfo `json:"complexity"`
	Attempts   []AttemptInfo  `json:"attempts"`
}

// ComplexityInfo mirrors internal/complexity Assessment
type ComplexityInfo struct {
	TotalComplexity   float64 `json:"total_complexity"`
	ConceptCount      int     `json:"concept_count"`
	RelationshipCount int     `json:"relationship_count"`
	AbstractionLevel  int     `json:"abstraction_level"`
	Category          string  `json:"category"`
}

// AttemptInfo mirrors internal/chain Attempt
type AttemptInfo struct {
	Provider  string `json:"provider"`
	Ordinal   int    `json:"ordinal"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// runQuery handles the query command
func runQuery(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(args, queryFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no question to send")
	}

	resp, err := fetchQuery(QueryRequest{
		SessionID: querySession,
		Kind:      queryKind,
		Query:     text,
	})
	if err != nil {
		return err
	}

	if queryJSON {
		return outputJSON(resp)
	}

	// Answer to stdout, routing details to stderr
	fmt.Println(resp.Text)
	fmt.Fprint(os.Stderr, formatQuerySummary(resp))

	return nil
}

// readTextArg resolves content from the argument, a file, or stdin.
// A "-" argument forces stdin.
func readTextArg(args []string, file string) (string, error) {
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", file, err)
		}
		return string(content), nil
	}

	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	return args[0], nil
}

// fetchQuery posts the question to the daemon
func fetchQuery(req QueryRequest) (*QueryResponse, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/query", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Provider chains may wait on several slow upstreams in turn.
	client := &http.Client{
		Timeout: 2 * time.Minute,
	}

	resp, err := client.Do(httpReq)
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

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &queryResp, nil
}

// formatQuerySummary renders the stderr routing summary
func formatQuerySummary(resp *QueryResponse) string {
	var b strings.Builder

	if resp.Fallback {
		fmt.Fprintf(&b, "[qyd] fallback reply, every provider exhausted after %d attempt(s)\n", len(resp.Attempts))
	} else {
		fmt.Fprintf(&b, "[qyd] answered by %s in %d attempt(s)\n", resp.Provider, len(resp.Attempts))
	}
	fmt.Fprintf(&b, "[qyd] complexity %.2f (%s)\n",
		resp.Complexity.TotalComplexity, resp.Complexity.Category)

	return b.String()
}
