package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSamplingCore wraps core with rate limiting for low-severity entries.
// Warn and above always pass through: dropping errors to save throughput
// is never acceptable.
func newSamplingCore(core zapcore.Core, cfg *SamplingConfig) zapcore.Core {
	if cfg == nil || !cfg.Enabled {
		return core
	}

	sampled := zapcore.NewSamplerWithOptions(
		newLevelFilterCore(core, zapcore.Level(-127), zapcore.InfoLevel),
		cfg.Tick.Duration(),
		cfg.Initial,
		cfg.Thereafter,
	)
	passthrough := newLevelFilterCore(core, zapcore.WarnLevel, zapcore.FatalLevel)

	return zapcore.NewTee(sampled, passthrough)
}

// levelFilterCore admits only entries within [min, max].
type levelFilterCore struct {
	zapcore.Core
	min zapcore.Level
	max zapcore.Level
}

func newLevelFilterCore(core zapcore.Core, min, max zapcore.Level) zapcore.Core {
	return &levelFilterCore{Core: core, min: min, max: max}
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && lvl <= c.max && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), min: c.min, max: c.max}
}
