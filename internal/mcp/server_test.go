package mcp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/chain"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/internal/secrets"
	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

func newTestService(t *testing.T) *assistant.Service {
	t.Helper()

	echo, err := provider.NewStatic(provider.Config{Name: "echo", Reply: "pong"})
	require.NoError(t, err)

	routers := map[string]*chain.Router{
		"legal": chain.NewRouter("legal", []provider.Provider{echo}, "", logging.NewNop()),
	}
	return assistant.NewService(assistant.Options{Routers: routers})
}

func TestNewServer(t *testing.T) {
	svc := newTestService(t)
	scrubber := &secrets.NoopScrubber{}

	t.Run("successful creation", func(t *testing.T) {
		cfg := &Config{
			Name:    "test-server",
			Version: "1.0.0",
			Logger:  logging.NewNop(),
		}

		server, err := NewServer(cfg, svc, scrubber)
		require.NoError(t, err)
		require.NotNil(t, server)
		require.NotNil(t, server.mcp)
		require.NotNil(t, server.metrics)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		server, err := NewServer(nil, svc, scrubber)
		require.NoError(t, err)
		require.NotNil(t, server)
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		server, err := NewServer(&Config{Name: "queryd"}, svc, scrubber)
		require.NoError(t, err)
		require.NotNil(t, server.log)
	})

	t.Run("missing assistant service", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), nil, scrubber)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assistant service is required")
	})

	t.Run("missing scrubber", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), svc, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "scrubber is required")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	require.Equal(t, "queryd", cfg.Name)
	require.Equal(t, "dev", cfg.Version)
	require.NotNil(t, cfg.Logger)
}
