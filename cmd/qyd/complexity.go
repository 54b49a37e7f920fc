package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// complexity command flags
	complexityFile string
	complexityJSON bool
)

func init() {
	rootCmd.AddCommand(complexityCmd)

	complexityCmd.Flags().StringVar(&complexityFile, "file", "", "Read the content from a file")
	complexityCmd.Flags().BoolVar(&complexityJSON, "json", false, "Output the assessment as JSON")
}

// complexityCmd scores content without routing it
var complexityCmd = &cobra.Command{
	Use:   "complexity [text]",
	Short: "Score content complexity without routing it",
	Long: `Score content against the cognitive complexity model the daemon
uses for overload protection. Nothing is sent to a provider.

The content comes from the argument, --file, or stdin.

Examples:
  # Score a question
  qyd complexity "is an oral contract binding"

  # Score a file
  qyd complexity --file question.txt

  # Score from stdin
  cat question.txt | qyd complexity -

  # Output as JSON
  qyd complexity --json "quantum entanglement photon"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComplexity,
}

// ComplexityRequest matches internal/http/handlers.go ComplexityRequest
type ComplexityRequest struct {
	Content string `json:"content"`
}

// runComplexity handles the complexity command
func runComplexity(cmd *cobra.Command, args []string) error {
	content, err := readTextArg(args, complexityFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content to score")
	}

	resp, err := fetchComplexity(ComplexityRequest{Content: content})
	if err != nil {
		return err
	}

	if complexityJSON {
		return outputJSON(resp)
	}

	fmt.Print(formatComplexity(resp))
	return nil
}

// fetchComplexity posts the content to the daemon
func fetchComplexity(req ComplexityRequest) (*ComplexityInfo, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/complexity", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 5 * time.Second,
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

	var assessment ComplexityInfo
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &assessment, nil
}

// formatComplexity renders the human-readable assessment
func formatComplexity(a *ComplexityInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Complexity:    %.2f (%s)\n", a.TotalComplexity, a.Category)
	fmt.Fprintf(&b, "Concepts:      %d\n", a.ConceptCount)
	fmt.Fprintf(&b, "Relationships: %d\n", a.RelationshipCount)
	fmt.Fprintf(&b, "Abstraction:   %d\n", a.AbstractionLevel)

	return b.String()
}
