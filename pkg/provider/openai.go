package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI answers queries through an OpenAI-compatible chat completion
// endpoint. With a custom BaseURL it also covers self-hosted gateways that
// speak the same protocol.
type OpenAI struct {
	name      string
	llm       *openai.LLM
	maxTokens int
}

// NewOpenAI creates an OpenAI-compatible adapter.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	name := cfg.Name
	if name == "" {
		name = KindOpenAI
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// The client requires a token even for endpoints that ignore it.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithToken(apiKey),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating OpenAI client: %v", ErrInvalidConfig, err)
	}

	return &OpenAI{
		name:      name,
		llm:       llm,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the adapter name.
func (o *OpenAI) Name() string {
	return o.name
}

// Invoke sends the query as a single-prompt completion.
func (o *OpenAI) Invoke(ctx context.Context, q Query) (*Response, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, o.llm, q.Text,
		llms.WithMaxTokens(o.maxTokens),
		llms.WithTemperature(defaultTemperature),
	)
	if err != nil {
		return nil, &Error{Provider: o.name, Err: err}
	}
	return &Response{Text: text}, nil
}

var _ Provider = (*OpenAI)(nil)
