package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/queryd/internal/config"
)

func TestSamplingCore_DropsRepeatedInfo(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sampled := newSamplingCore(core, &SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    1,
		Thereafter: 1000,
	})
	logger := zap.New(sampled)

	for i := 0; i < 10; i++ {
		logger.Info("provider attempt")
	}

	assert.Equal(t, 1, logs.Len(), "repeated info entries should be sampled away")
}

func TestSamplingCore_ErrorsNeverSampled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sampled := newSamplingCore(core, &SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    1,
		Thereafter: 1000,
	})
	logger := zap.New(sampled)

	for i := 0; i < 10; i++ {
		logger.Error("provider failed")
		logger.Warn("provider slow")
	}

	var errs, warns int
	for _, e := range logs.All() {
		switch e.Level {
		case zapcore.ErrorLevel:
			errs++
		case zapcore.WarnLevel:
			warns++
		}
	}
	assert.Equal(t, 10, errs)
	assert.Equal(t, 10, warns)
}

func TestSamplingCore_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	out := newSamplingCore(core, &SamplingConfig{Enabled: false})
	assert.Equal(t, core, out)

	logger := zap.New(out)
	for i := 0; i < 5; i++ {
		logger.Info("attempt")
	}
	assert.Equal(t, 5, logs.Len())
}

func TestLevelFilterCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	filtered := newLevelFilterCore(core, zapcore.WarnLevel, zapcore.FatalLevel)

	logger := zap.New(filtered)
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	assert.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		assert.GreaterOrEqual(t, e.Level, zapcore.WarnLevel)
	}
}
