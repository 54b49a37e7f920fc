// Package provider defines the backend capability the query chain consumes
// and the adapters that implement it.
//
// An adapter is an interchangeable backend identified by a stable name. The
// chain never mutates an adapter, only calls it; adapters are constructed
// once at startup, hold their own HTTP clients, own their own timeouts, and
// are safe for concurrent use.
//
// Example usage:
//
//	p, err := provider.New(provider.Config{
//	    Name:   "claude",
//	    Kind:   provider.KindAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	resp, err := p.Invoke(ctx, provider.Query{Text: "ping"})
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Adapter kinds understood by New.
const (
	KindAnthropic = "anthropic"
	KindOpenAI    = "openai"
	KindStatic    = "static"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultMaxTokens        = 1024
	defaultTemperature      = 0.7
	defaultTimeout          = 60 * time.Second
	defaultMaxRetries       = 3
	defaultBaseBackoff      = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

var (
	// ErrInvalidConfig indicates an adapter config that cannot produce a
	// working adapter.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrEmptyResponse indicates the backend answered without any content.
	ErrEmptyResponse = errors.New("empty response from backend")
)

// Query is one request for an answer. Metadata carries caller context the
// adapter may forward; adapters must tolerate a nil map.
type Query struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is an adapter's answer.
type Response struct {
	Text string `json:"text"`
}

// Provider is an interchangeable backend capable of answering a query.
type Provider interface {
	// Name identifies the adapter in logs, events and attempt records.
	Name() string

	// Invoke answers one query. Transport and backend failures come back
	// as *Error; the adapter enforces its own timeout.
	Invoke(ctx context.Context, q Query) (*Response, error)
}

// Error wraps a provider-side failure with the adapter that produced it.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config describes one adapter instance. Zero fields fall back to per-kind
// defaults.
type Config struct {
	Name      string
	Kind      string
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	MaxTokens int

	// Reply is the fixed answer of a static adapter.
	Reply string
}

// New constructs the adapter a config describes.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindAnthropic:
		return NewAnthropic(cfg)
	case KindOpenAI:
		return NewOpenAI(cfg)
	case KindStatic:
		return NewStatic(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, cfg.Kind)
	}
}
