package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/queryd/internal/config"
)

const (
	// redactedValue replaces sensitive values in log output.
	redactedValue = "[REDACTED]"

	// maxRedactionPatternLen bounds user-supplied redaction regexes.
	maxRedactionPatternLen = 200
)

// RedactedString returns a field whose value is always masked. Use for
// values that are sensitive by construction, regardless of key name.
func RedactedString(key, _ string) zap.Field {
	return zap.String(key, redactedValue)
}

// Secret returns a masked field for a config.Secret. The secret value
// never reaches the encoder.
func Secret(key string, _ config.Secret) zap.Field {
	return zap.String(key, redactedValue)
}

// redactingEncoder wraps a zapcore.Encoder and masks values whose keys
// match the configured field names or whose values match the configured
// patterns. Key matching is case-insensitive substring matching, so
// "api_key" also catches "anthropic_api_key".
type redactingEncoder struct {
	zapcore.Encoder
	fields   []string
	patterns []*regexp.Regexp
}

// newRedactingEncoder builds a redacting wrapper around enc.
func newRedactingEncoder(enc zapcore.Encoder, cfg *RedactionConfig) (zapcore.Encoder, error) {
	if cfg == nil || !cfg.Enabled {
		return enc, nil
	}

	fields := make([]string, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		fields = append(fields, strings.ToLower(f))
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &redactingEncoder{Encoder: enc, fields: fields, patterns: patterns}, nil
}

func (e *redactingEncoder) Clone() zapcore.Encoder {
	return &redactingEncoder{
		Encoder:  e.Encoder.Clone(),
		fields:   e.fields,
		patterns: e.patterns,
	}
}

// EncodeEntry masks per-call fields. Fields attached with With() go
// through the Add* overrides instead.
func (e *redactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if len(fields) > 0 {
		masked := make([]zapcore.Field, len(fields))
		for i, f := range fields {
			masked[i] = e.redactField(f)
		}
		fields = masked
	}
	return e.Encoder.EncodeEntry(ent, fields)
}

func (e *redactingEncoder) redactField(f zapcore.Field) zapcore.Field {
	switch f.Type {
	case zapcore.StringType:
		if e.sensitiveKey(f.Key) || e.sensitiveValue(f.String) {
			return zap.String(f.Key, redactedValue)
		}
	case zapcore.ByteStringType:
		if b, ok := f.Interface.([]byte); ok {
			if e.sensitiveKey(f.Key) || e.sensitiveValue(string(b)) {
				return zap.String(f.Key, redactedValue)
			}
		}
	case zapcore.StringerType, zapcore.ReflectType:
		if e.sensitiveKey(f.Key) {
			return zap.String(f.Key, redactedValue)
		}
	}
	return f
}

func (e *redactingEncoder) sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range e.fields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

func (e *redactingEncoder) sensitiveValue(value string) bool {
	for _, re := range e.patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func (e *redactingEncoder) AddString(key, value string) {
	if e.sensitiveKey(key) || e.sensitiveValue(value) {
		e.Encoder.AddString(key, redactedValue)
		return
	}
	e.Encoder.AddString(key, value)
}

func (e *redactingEncoder) AddByteString(key string, value []byte) {
	if e.sensitiveKey(key) || e.sensitiveValue(string(value)) {
		e.Encoder.AddByteString(key, []byte(redactedValue))
		return
	}
	e.Encoder.AddByteString(key, value)
}

func (e *redactingEncoder) AddReflected(key string, value interface{}) error {
	if e.sensitiveKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddReflected(key, value)
}

func (e *redactingEncoder) AddBinary(key string, value []byte) {
	if e.sensitiveKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return
	}
	e.Encoder.AddBinary(key, value)
}
