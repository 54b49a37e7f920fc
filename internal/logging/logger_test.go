package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info(context.Background(), "started")
	assert.NoError(t, logger.Sync())
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewLogger_OTELWithoutProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no logger provider")
}

func TestLogger_ContextFields(t *testing.T) {
	logger, logs := TestLogger(t)

	ctx := WithSessionID(context.Background(), "sess-42")
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithOperation(ctx, "assistant:legal")

	logger.Info(ctx, "handled query")

	AssertLogged(t, logs, zapcore.InfoLevel, "handled query")
	AssertField(t, logs, "session.id", "sess-42")
	AssertField(t, logs, "request.id", "req-7")
	AssertField(t, logs, "operation", "assistant:legal")
}

func TestLogger_Trace(t *testing.T) {
	logger, logs := TestLogger(t)
	require.True(t, logger.Enabled(TraceLevel))

	logger.Trace(context.Background(), "wire detail")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, TraceLevel, entries[0].Level)
}

func TestLogger_With(t *testing.T) {
	logger, logs := TestLogger(t)

	child := logger.With(zap.String("component", "chain"))
	child.Info(context.Background(), "routing")

	AssertField(t, logs, "component", "chain")
}

func TestLogger_Named(t *testing.T) {
	logger, logs := TestLogger(t)

	logger.Named("breaker").Warn(context.Background(), "tripped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "breaker", entries[0].LoggerName)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)

	// Must be safe to use everywhere a real logger is.
	logger.Info(context.Background(), "discarded")
	logger.Error(context.Background(), "discarded")
	assert.NoError(t, logger.Sync())
}
