package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/queryd/internal/config"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

func TestBuildTopology(t *testing.T) {
	log, _ := logging.TestLogger(t)
	cfg := &config.Config{
		Chain: config.ChainConfig{FallbackText: "try again shortly"},
		Providers: []config.ProviderConfig{
			{Name: "echo", Kind: config.ProviderKindStatic, Reply: "pong"},
			{Name: "claude", Kind: config.ProviderKindAnthropic, APIKey: config.Secret("sk-ant-test")},
		},
		Assistants: []config.AssistantConfig{
			{Kind: "legal", Providers: []string{"claude", "echo"}},
			{Kind: "code", Providers: []string{"echo"}},
		},
	}

	routers, err := BuildTopology(cfg, log)
	require.NoError(t, err)
	require.Len(t, routers, 2)
	require.Contains(t, routers, "legal")
	require.Contains(t, routers, "code")
	assert.Equal(t, "legal", routers["legal"].Name())

	// The static chain serves end to end.
	out := routers["code"].Route(context.Background(), provider.Query{Text: "ping"})
	assert.Equal(t, "pong", out.Text)
	assert.Equal(t, "echo", out.Provider)
}

func TestBuildTopology_PropagatesAdapterErrors(t *testing.T) {
	log, _ := logging.TestLogger(t)
	cfg := &config.Config{
		Providers: []config.ProviderConfig{
			{Name: "claude", Kind: config.ProviderKindAnthropic},
		},
	}

	_, err := BuildTopology(cfg, log)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"claude"`)
}

func TestBuildTopology_UnknownProviderReference(t *testing.T) {
	log, _ := logging.TestLogger(t)
	cfg := &config.Config{
		Assistants: []config.AssistantConfig{
			{Kind: "legal", Providers: []string{"ghost"}},
		},
	}

	_, err := BuildTopology(cfg, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
