package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/queryd/internal/breaker"
)

func TestNewStatusClient(t *testing.T) {
	client := NewStatusClient("http://localhost:9090")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9090", client.baseURL)
	assert.NotNil(t, client.client)
}

func TestStatusClient_Breakers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/breakers", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"breakers":[{"key":"assistant:legal","state":"closed","failures":1.5,"successes":0,"last_failure_at":"2026-02-10T09:00:00Z"}]}`))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	breakers, err := client.Breakers(context.Background())
	require.NoError(t, err)
	require.Len(t, breakers, 1)
	assert.Equal(t, "assistant:legal", breakers[0].Key)
	assert.Equal(t, breaker.StateClosed, breakers[0].State)
	assert.InDelta(t, 1.5, breakers[0].Failures, 0.001)
	require.NotNil(t, breakers[0].LastFailureAt)
}

func TestStatusClient_Breakers_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"breakers":[]}`))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	breakers, err := client.Breakers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, breakers)
}

func TestStatusClient_Stats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"queries":10,"fallbacks":2,"overload_rejections":1,"open_rejections":0,"providers":{"claude":{"success":8,"error":2}},"uptime_seconds":125}`))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Queries)
	assert.Equal(t, int64(2), stats.Fallbacks)
	assert.Equal(t, int64(1), stats.OverloadRejections)
	assert.Equal(t, int64(125), stats.UptimeSeconds)
	assert.Equal(t, int64(8), stats.Providers["claude"]["success"])
}

func TestStatusClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.2.3"}`))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
}

func TestStatusClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	_, err := client.Breakers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 500")
}

func TestStatusClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{invalid json"))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)

	_, err := client.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestStatusClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewStatusClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Breakers(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}
