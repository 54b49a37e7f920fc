package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchComplexity(t *testing.T) {
	t.Run("successfully scores content", func(t *testing.T) {
		mock := &ComplexityInfo{
			TotalComplexity:  3.0,
			ConceptCount:     3,
			AbstractionLevel: 1,
			Category:         "moderate",
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/complexity", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)

			var req ComplexityRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "quantum entanglement photon", req.Content)

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(mock)
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		resp, err := fetchComplexity(ComplexityRequest{Content: "quantum entanglement photon"})

		require.NoError(t, err)
		assert.InDelta(t, 3.0, resp.TotalComplexity, 0.001)
		assert.Equal(t, 3, resp.ConceptCount)
		assert.Equal(t, "moderate", resp.Category)
	})

	t.Run("handles non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"content field is required"}`))
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchComplexity(ComplexityRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}

func TestFormatComplexity(t *testing.T) {
	out := formatComplexity(&ComplexityInfo{
		TotalComplexity:   13.43,
		ConceptCount:      9,
		RelationshipCount: 2,
		AbstractionLevel:  3,
		Category:          "overload",
	})

	assert.Contains(t, out, "13.43 (overload)")
	assert.Contains(t, out, "Concepts:      9")
	assert.Contains(t, out, "Relationships: 2")
	assert.Contains(t, out, "Abstraction:   3")
}
