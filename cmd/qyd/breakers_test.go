package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBreakers(t *testing.T) {
	t.Run("successfully fetches breakers", func(t *testing.T) {
		lastFailure := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
		mock := &BreakersResponse{
			Breakers: []BreakerStatus{
				{Key: "assistant:legal", State: "closed", Failures: 1.5, Successes: 3},
				{Key: "assistant:code", State: "open", Failures: 3, LastFailureAt: &lastFailure},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/breakers", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(mock)
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		resp, err := fetchBreakers()

		require.NoError(t, err)
		require.Len(t, resp.Breakers, 2)
		assert.Equal(t, "assistant:legal", resp.Breakers[0].Key)
		assert.Equal(t, "open", resp.Breakers[1].State)
		require.NotNil(t, resp.Breakers[1].LastFailureAt)
		assert.Equal(t, lastFailure, resp.Breakers[1].LastFailureAt.UTC())
	})

	t.Run("handles non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal error"))
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchBreakers()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestFormatBreakers(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		out := formatBreakers(nil)

		assert.Contains(t, out, "No circuit breakers yet")
	})

	t.Run("renders table", func(t *testing.T) {
		lastFailure := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
		out := formatBreakers([]BreakerStatus{
			{Key: "assistant:legal", State: "closed", Failures: 1.5, Successes: 3},
			{Key: "assistant:code", State: "open", Failures: 3, LastFailureAt: &lastFailure},
		})

		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "STATE")
		assert.Contains(t, out, "assistant:legal")
		assert.Contains(t, out, "closed")
		assert.Contains(t, out, "1.5")
		assert.Contains(t, out, "assistant:code")
		assert.Contains(t, out, "open")
		assert.Contains(t, out, lastFailure.Local().Format("2006-01-02 15:04:05"))
	})

	t.Run("dash for never-failed breakers", func(t *testing.T) {
		out := formatBreakers([]BreakerStatus{
			{Key: "assistant:legal", State: "closed"},
		})

		assert.Contains(t, out, "-")
	})
}
