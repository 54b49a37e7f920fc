package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

// StatusClient polls a running daemon's HTTP API.
type StatusClient struct {
	baseURL string
	client  *http.Client
}

// NewStatusClient creates a client for the daemon at baseURL.
func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Health is the daemon's health payload.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type breakersPayload struct {
	Breakers []breaker.Status `json:"breakers"`
}

func (c *StatusClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Breakers fetches the circuit breaker snapshots.
func (c *StatusClient) Breakers(ctx context.Context) ([]breaker.Status, error) {
	var payload breakersPayload
	if err := c.get(ctx, "/api/v1/breakers", &payload); err != nil {
		return nil, err
	}
	return payload.Breakers, nil
}

// Stats fetches the service counters.
func (c *StatusClient) Stats(ctx context.Context) (assistant.Snapshot, error) {
	var snap assistant.Snapshot
	if err := c.get(ctx, "/api/v1/stats", &snap); err != nil {
		return assistant.Snapshot{}, err
	}
	return snap, nil
}

// Health fetches the daemon's health payload.
func (c *StatusClient) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return Health{}, err
	}
	return h, nil
}
