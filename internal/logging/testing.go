package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger returns a logger that records entries in memory for
// assertions. Sampling is disabled so tests see every entry.
func TestLogger(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(TraceLevel)
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false

	return &Logger{
		zap:    zap.New(core),
		config: cfg,
	}, logs
}

// AssertLogged fails the test unless an entry at level contains msg.
func AssertLogged(t *testing.T, logs *observer.ObservedLogs, level zapcore.Level, msg string) {
	t.Helper()

	for _, entry := range logs.All() {
		if entry.Level == level && strings.Contains(entry.Message, msg) {
			return
		}
	}
	t.Errorf("expected log entry at %s containing %q, got %d entries", level, msg, logs.Len())
}

// AssertNotLogged fails the test if any entry contains msg.
func AssertNotLogged(t *testing.T, logs *observer.ObservedLogs, msg string) {
	t.Helper()

	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, msg) {
			t.Errorf("unexpected log entry containing %q: %s", msg, entry.Message)
			return
		}
	}
}

// AssertField fails the test unless some entry carries the field.
func AssertField(t *testing.T, logs *observer.ObservedLogs, key string, want interface{}) {
	t.Helper()

	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			if f.Key != key {
				continue
			}
			got := fieldValue(f)
			if got == want {
				return
			}
		}
	}
	t.Errorf("no log entry with field %s=%v", key, want)
}

// AssertNoSecrets fails the test if any string field value contains
// one of the given secrets.
func AssertNoSecrets(t *testing.T, logs *observer.ObservedLogs, secrets ...string) {
	t.Helper()

	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			v, ok := fieldValue(f).(string)
			if !ok {
				continue
			}
			for _, secret := range secrets {
				if secret != "" && strings.Contains(v, secret) {
					t.Errorf("field %s leaks secret value", f.Key)
				}
			}
		}
		for _, secret := range secrets {
			if secret != "" && strings.Contains(entry.Message, secret) {
				t.Errorf("log message leaks secret value")
			}
		}
	}
}

func fieldValue(f zapcore.Field) interface{} {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type:
		return f.Integer
	case zapcore.BoolType:
		return f.Integer == 1
	default:
		return f.Interface
	}
}
