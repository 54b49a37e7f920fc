// Package config provides configuration loading for queryd.
//
// Configuration is loaded from a YAML file, then overridden by
// environment variables with the QUERYD_ prefix. Defaults are applied
// for anything neither source sets.
package config

import (
	"fmt"
	"regexp"
	"time"
)

// Provider kinds accepted in [ProviderConfig.Kind].
const (
	ProviderKindAnthropic = "anthropic"
	ProviderKindOpenAI    = "openai"
	ProviderKindStatic    = "static"
)

// Config holds the complete queryd configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Logging    LoggingConfig     `koanf:"logging"`
	Telemetry  TelemetryConfig   `koanf:"telemetry"`
	Breaker    BreakerConfig     `koanf:"breaker"`
	Chain      ChainConfig       `koanf:"chain"`
	Providers  []ProviderConfig  `koanf:"providers"`
	Assistants []AssistantConfig `koanf:"assistants"`
	Events     EventsConfig      `koanf:"events"`
	Scrub      ScrubConfig       `koanf:"scrub"`
	MCP        MCPConfig         `koanf:"mcp"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string   `koanf:"addr"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	WriteTimeout    Duration `koanf:"write_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	BodyLimit       string   `koanf:"body_limit"`
}

// LoggingConfig holds the daemon's logging section. The full logger
// configuration lives in internal/logging; this section carries only the
// knobs exposed to operators.
type LoggingConfig struct {
	Level       string `koanf:"level"`
	Format      string `koanf:"format"`
	OTEL        bool   `koanf:"otel"`
	NoSampling  bool   `koanf:"no_sampling"`
	NoRedaction bool   `koanf:"no_redaction"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// BreakerConfig holds circuit breaker tuning shared by all operation keys.
type BreakerConfig struct {
	FailureThreshold  int      `koanf:"failure_threshold"`
	OpenTimeout       Duration `koanf:"open_timeout"`
	HalfOpenSuccesses int      `koanf:"half_open_successes"`
}

// ChainConfig holds provider chain tuning.
type ChainConfig struct {
	// FallbackText overrides the reply served when every provider in a
	// chain has been exhausted. Empty keeps the built-in text.
	FallbackText string `koanf:"fallback_text"`
}

// ProviderConfig describes one provider adapter instance.
type ProviderConfig struct {
	Name      string   `koanf:"name"`
	Kind      string   `koanf:"kind"`
	BaseURL   string   `koanf:"base_url"`
	Model     string   `koanf:"model"`
	APIKey    Secret   `koanf:"api_key"`
	Timeout   Duration `koanf:"timeout"`
	MaxTokens int      `koanf:"max_tokens"`
	// Reply is the fixed answer for static providers.
	Reply string `koanf:"reply"`
}

// AssistantConfig maps an assistant kind to its ordered provider chain.
type AssistantConfig struct {
	Kind      string   `koanf:"kind"`
	Providers []string `koanf:"providers"`
}

// EventsConfig holds NATS event publishing configuration.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ScrubConfig holds outbound secret scrubbing configuration.
type ScrubConfig struct {
	Disabled      bool   `koanf:"disabled"`
	AllowlistPath string `koanf:"allowlist_path"`
}

// MCPConfig holds Model Context Protocol server configuration.
type MCPConfig struct {
	Enabled bool `koanf:"enabled"`
}

// namePattern constrains provider names and assistant kinds. Both flow
// into breaker keys, log fields and metric labels, so they stay within a
// plain identifier charset.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":9090"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		// Provider chains can wait on multiple slow upstreams.
		cfg.Server.WriteTimeout = Duration(2 * time.Minute)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "1M"
	}

	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 3
	}
	if cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.OpenTimeout = Duration(5 * time.Minute)
	}
	if cfg.Breaker.HalfOpenSuccesses == 0 {
		cfg.Breaker.HalfOpenSuccesses = 1
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "queryd"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}

	if cfg.Events.URL == "" {
		cfg.Events.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "queryd"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker.failure_threshold must be >= 1, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.OpenTimeout.Duration() <= 0 {
		return fmt.Errorf("breaker.open_timeout must be positive")
	}
	if c.Breaker.HalfOpenSuccesses < 1 {
		return fmt.Errorf("breaker.half_open_successes must be >= 1, got %d", c.Breaker.HalfOpenSuccesses)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.ServiceName == "" {
			return fmt.Errorf("telemetry.service_name required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
			return fmt.Errorf("telemetry.sample_ratio must be in [0, 1], got %v", c.Telemetry.SampleRatio)
		}
	}

	providerNames := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if !namePattern.MatchString(p.Name) {
			return fmt.Errorf("providers[%d]: invalid name %q (alphanumeric, hyphen, underscore, max 64)", i, p.Name)
		}
		if providerNames[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		providerNames[p.Name] = true

		switch p.Kind {
		case ProviderKindAnthropic, ProviderKindOpenAI, ProviderKindStatic:
		default:
			return fmt.Errorf("provider %q: unknown kind %q", p.Name, p.Kind)
		}
		if p.Kind == ProviderKindAnthropic && !p.APIKey.IsSet() {
			return fmt.Errorf("provider %q: api_key is required for anthropic", p.Name)
		}
	}

	kinds := make(map[string]bool, len(c.Assistants))
	for i, a := range c.Assistants {
		if a.Kind == "" {
			return fmt.Errorf("assistants[%d]: kind is required", i)
		}
		if !namePattern.MatchString(a.Kind) {
			return fmt.Errorf("assistants[%d]: invalid kind %q (alphanumeric, hyphen, underscore, max 64)", i, a.Kind)
		}
		if kinds[a.Kind] {
			return fmt.Errorf("assistants[%d]: duplicate kind %q", i, a.Kind)
		}
		kinds[a.Kind] = true

		if len(a.Providers) == 0 {
			return fmt.Errorf("assistant %q: at least one provider is required", a.Kind)
		}
		for _, name := range a.Providers {
			if !providerNames[name] {
				return fmt.Errorf("assistant %q: unknown provider %q", a.Kind, name)
			}
		}
	}

	return nil
}
