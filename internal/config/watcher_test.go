package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher("", nil, func(*Config) {})
	assert.Error(t, err)

	_, err = NewWatcher("/tmp/config.yaml", nil, nil)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	home := fakeHome(t)
	path := writeConfigFile(t, home, "server:\n  addr: \":8085\"\n", 0600)

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, zaptest.NewLogger(t), func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Let the directory watch register before touching the file.
	time.Sleep(100 * time.Millisecond)
	writeConfigFile(t, home, "server:\n  addr: \":7070\"\n", 0600)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":7070", cfg.Server.Addr)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcher_SkipsInvalidReload(t *testing.T) {
	home := fakeHome(t)
	path := writeConfigFile(t, home, "server:\n  addr: \":8085\"\n", 0600)

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, zaptest.NewLogger(t), func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// Broken rewrite keeps the previous config and fires no callback.
	writeConfigFile(t, home, "server: [unclosed\n", 0600)
	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload with invalid config: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	// The next valid rewrite is picked up.
	writeConfigFile(t, home, "server:\n  addr: \":6060\"\n", 0600)
	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":6060", cfg.Server.Addr)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload after recovery")
	}
}
