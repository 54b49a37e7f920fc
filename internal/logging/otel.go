package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// otelScopeName identifies this module in exported log records.
const otelScopeName = "github.com/fyrsmithlabs/queryd"

// newDualCore assembles the encoder, redaction, sampling and output
// stages into a single core. With both outputs enabled, entries are
// teed to stdout and the OTEL provider.
func newDualCore(cfg *Config, provider log.LoggerProvider) (zapcore.Core, error) {
	enc, err := newRedactingEncoder(newEncoder(cfg.Format), &cfg.Redaction)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	if cfg.Output.Stdout {
		stdout := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), cfg.Level)
		cores = append(cores, newSamplingCore(stdout, &cfg.Sampling))
	}

	if cfg.Output.Stderr {
		stderr := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), cfg.Level)
		cores = append(cores, newSamplingCore(stderr, &cfg.Sampling))
	}

	if cfg.Output.OTEL {
		if provider == nil {
			if !cfg.Output.Stdout && !cfg.Output.Stderr {
				return nil, fmt.Errorf("otel output enabled but no logger provider supplied")
			}
		} else {
			otelCore := otelzap.NewCore(otelScopeName, otelzap.WithLoggerProvider(provider))
			cores = append(cores, newLevelFilterCore(otelCore, cfg.Level, zapcore.FatalLevel))
		}
	}

	switch len(cores) {
	case 0:
		return nil, fmt.Errorf("no log outputs enabled")
	case 1:
		return cores[0], nil
	default:
		return zapcore.NewTee(cores...), nil
	}
}
