// Package mcp exposes the assistant service over the Model Context
// Protocol so agent frontends can call it as a set of tools.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls the assistant service directly.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/internal/secrets"
)

// Server bridges MCP tool calls to the assistant service.
type Server struct {
	mcp      *mcp.Server
	svc      *assistant.Service
	scrubber secrets.Scrubber
	metrics  *Metrics
	log      *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "queryd")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Logger for structured logging
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "queryd",
		Version: "dev",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server wired to the given assistant service.
// Tool responses pass through the scrubber before leaving the process.
func NewServer(cfg *Config, svc *assistant.Service, scrubber secrets.Scrubber) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if svc == nil {
		return nil, fmt.Errorf("assistant service is required")
	}
	if scrubber == nil {
		return nil, fmt.Errorf("scrubber is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		svc:      svc,
		scrubber: scrubber,
		metrics:  NewMetrics(cfg.Logger),
		log:      cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Run serves MCP on the stdio transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info(ctx, "starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
