package mcp

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
	"github.com/fyrsmithlabs/queryd/internal/logging"
)

// sessionIDPattern mirrors the HTTP surface: session IDs become log
// fields, so they must satisfy the logging package's ID rules.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type assistantQueryInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Session identifier for cognitive load tracking"`
	Kind      string `json:"kind" jsonschema:"required,Assistant kind to route the query to"`
	Query     string `json:"query" jsonschema:"required,Question text"`
}

type assistantQueryOutput struct {
	QueryID    string  `json:"query_id" jsonschema:"Server-assigned query ID"`
	Text       string  `json:"text" jsonschema:"Answer text"`
	Provider   string  `json:"provider,omitempty" jsonschema:"Provider that answered, empty for a fallback reply"`
	Fallback   bool    `json:"fallback" jsonschema:"True when every provider declined and the stock reply was served"`
	Complexity float64 `json:"complexity" jsonschema:"Cognitive load score of the query"`
	Category   string  `json:"category" jsonschema:"Complexity category (simple, moderate, complex, overload)"`
	Attempts   int     `json:"attempts" jsonschema:"Number of providers tried"`
}

type breakerStatusInput struct{}

type breakerStatusOutput struct {
	Breakers []breaker.Status `json:"breakers" jsonschema:"Circuit breaker snapshots sorted by key"`
}

type complexityAssessInput struct {
	Content string `json:"content" jsonschema:"required,Text to assess"`
}

type complexityAssessOutput struct {
	TotalComplexity   float64 `json:"total_complexity" jsonschema:"Weighted cognitive load score"`
	ConceptCount      int     `json:"concept_count" jsonschema:"Distinct concepts found"`
	RelationshipCount int     `json:"relationship_count" jsonschema:"Relationship markers found"`
	AbstractionLevel  int     `json:"abstraction_level" jsonschema:"Abstraction markers found"`
	Category          string  `json:"category" jsonschema:"Complexity category (simple, moderate, complex, overload)"`
}

// registerTools registers the assistant tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "assistant_query",
		Description: "Route a query through the provider chain for an assistant kind, under circuit breaker protection",
	}, s.handleAssistantQuery)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "breaker_status",
		Description: "List circuit breaker states for all assistant kinds",
	}, s.handleBreakerStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "complexity_assess",
		Description: "Assess the cognitive load of a piece of text without routing it to any provider",
	}, s.handleComplexityAssess)
}

func (s *Server) handleAssistantQuery(ctx context.Context, req *mcp.CallToolRequest, args assistantQueryInput) (*mcp.CallToolResult, assistantQueryOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "assistant_query")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "assistant_query")
		s.metrics.RecordInvocation(ctx, "assistant_query", time.Since(start), toolErr)
	}()

	if args.SessionID != "" {
		if !sessionIDPattern.MatchString(args.SessionID) {
			toolErr = fmt.Errorf("invalid session_id %q", args.SessionID)
			return nil, assistantQueryOutput{}, toolErr
		}
		ctx = logging.WithSessionID(ctx, args.SessionID)
	}

	reply, err := s.svc.Ask(ctx, assistant.Request{
		SessionID: args.SessionID,
		Kind:      args.Kind,
		Query:     args.Query,
	})
	if err != nil {
		toolErr = err
		return nil, assistantQueryOutput{}, toolErr
	}

	result := assistantQueryOutput{
		QueryID:    reply.QueryID,
		Text:       s.scrubber.Scrub(reply.Text).Scrubbed,
		Provider:   reply.Provider,
		Fallback:   reply.Fallback,
		Complexity: reply.Complexity.TotalComplexity,
		Category:   string(reply.Complexity.Category),
		Attempts:   len(reply.Attempts),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Text},
		},
	}, result, nil
}

func (s *Server) handleBreakerStatus(ctx context.Context, req *mcp.CallToolRequest, args breakerStatusInput) (*mcp.CallToolResult, breakerStatusOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "breaker_status")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "breaker_status")
		s.metrics.RecordInvocation(ctx, "breaker_status", time.Since(start), toolErr)
	}()

	result := breakerStatusOutput{Breakers: s.svc.Breakers()}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%d circuit breakers", len(result.Breakers))},
		},
	}, result, nil
}

func (s *Server) handleComplexityAssess(ctx context.Context, req *mcp.CallToolRequest, args complexityAssessInput) (*mcp.CallToolResult, complexityAssessOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "complexity_assess")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "complexity_assess")
		s.metrics.RecordInvocation(ctx, "complexity_assess", time.Since(start), toolErr)
	}()

	if args.Content == "" {
		toolErr = fmt.Errorf("content is required")
		return nil, complexityAssessOutput{}, toolErr
	}

	a := s.svc.Assess(args.Content)
	result := complexityAssessOutput{
		TotalComplexity:   a.TotalComplexity,
		ConceptCount:      a.ConceptCount,
		RelationshipCount: a.RelationshipCount,
		AbstractionLevel:  a.AbstractionLevel,
		Category:          string(a.Category),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("complexity %.2f (%s)", a.TotalComplexity, a.Category)},
		},
	}, result, nil
}
