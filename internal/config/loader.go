package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// envPrefix namespaces queryd environment variables.
	envPrefix = "QUERYD_"
)

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "queryd", "config.yaml"), nil
}

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (QUERYD_SERVER__ADDR, QUERYD_LOGGING__LEVEL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// If configPath is empty, ~/.config/queryd/config.yaml is used when it
// exists, then /etc/queryd/config.yaml. Running with no config file at
// all is fine; defaults plus environment variables apply.
//
// The config file may hold provider API keys, so weak permissions are
// rejected: the file must be 0600 or 0400, at most 1MB, and live in
// ~/.config/queryd/ or /etc/queryd/.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	configPath, explicit, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := validateConfigPath(configPath); err != nil {
			return nil, fmt.Errorf("config path validation failed: %w", err)
		}

		_, statErr := os.Stat(configPath)
		switch {
		case statErr == nil:
			// Open once and validate through the descriptor to avoid a
			// TOCTOU race between stat and read.
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if err := validateConfigFileProperties(info); err != nil {
				return nil, fmt.Errorf("config file validation failed: %w", err)
			}

			content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}

			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		case explicit:
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
	}

	// Environment overrides. Double underscore separates sections so
	// single underscores survive in field names:
	//
	//	QUERYD_SERVER__ADDR              -> server.addr
	//	QUERYD_BREAKER__FAILURE_THRESHOLD -> breaker.failure_threshold
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		trimmed := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(trimmed, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ResolvePath reports the config file Load would read for the given
// explicit path. An empty result means no config file is in play and
// there is nothing to watch for changes.
func ResolvePath(configPath string) (string, error) {
	path, _, err := resolveConfigPath(configPath)
	return path, err
}

// resolveConfigPath picks the file to load. Explicit paths are always
// used; otherwise the first default location that exists wins, and no
// file at all is acceptable.
func resolveConfigPath(configPath string) (path string, explicit bool, err error) {
	if configPath != "" {
		return configPath, true, nil
	}

	userPath, err := DefaultPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(userPath); err == nil {
		return userPath, false, nil
	}

	systemPath := filepath.Join("/etc", "queryd", "config.yaml")
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, false, nil
	}

	return "", false, nil
}

// EnsureConfigDir creates the queryd config directory if it doesn't exist.
// The directory is created with 0700 permissions (owner only).
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "queryd")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return nil
}

// validateConfigPath checks that path is in an allowed directory. The
// check runs even when the file does not exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Resolve symlinks so a link cannot escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Paths that do not exist yet still get directory validation.
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "queryd"),
		filepath.Join("/etc", "queryd"),
	}

	for _, dir := range allowedDirs {
		if strings.HasPrefix(resolvedPath, dir+string(filepath.Separator)) || resolvedPath == dir {
			return nil
		}
	}

	return fmt.Errorf("config file must be in ~/.config/queryd/ or /etc/queryd/")
}

// validateConfigFileProperties checks file permissions and size. Takes
// FileInfo from an already-opened descriptor to avoid a TOCTOU race.
func validateConfigFileProperties(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("config file is not a regular file")
	}

	// Windows has a different permission model; skip the mode check there.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
