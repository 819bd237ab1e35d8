// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents the signer configuration file
type ServerConfig struct {
	Listen      string   `yaml:"listen" description:"JSON-RPC listen address" default:"127.0.0.1:1920"`
	BasePath    string   `yaml:"base_path" description:"Storage root; keyfiles live in <base_path>/keystore" default:"."`
	Storage     string   `yaml:"storage" description:"Keyfile backend: bolt (embedded key-value) or fs (one file per account)" default:"bolt"`
	CORSOrigins []string `yaml:"cors_origins" description:"Origins allowed to call the RPC from a browser (* for any, empty for none)" default:"[]"`

	// Key derivation and passphrase policy
	KdfLevel             string `yaml:"kdf_level" description:"KDF cost for new and rekeyed keyfiles: low, normal or high" default:"normal"`
	KdfWorkers           int    `yaml:"kdf_workers" description:"Maximum concurrent key derivations (0 = number of CPUs)" default:"0"`
	MinPassphraseLength  int    `yaml:"min_passphrase_length" description:"Minimum passphrase length in characters" default:"1"`
	MinPassphraseClasses int    `yaml:"min_passphrase_classes" description:"Minimum character classes (lower, upper, digit, other) in a passphrase" default:"0"`
	AllowImportOverwrite bool   `yaml:"allow_import_overwrite" description:"Let signer_importAccount replace an existing account" default:"false"`

	// Access control
	APITokenFile    string   `yaml:"api_token_file" description:"File holding the bearer token required on every request (empty = no authentication)"`
	DisabledMethods []string `yaml:"disabled_methods" description:"RPC methods refused for every caller" default:"[]"`

	// Observability
	Metrics   bool   `yaml:"metrics" description:"Serve Prometheus metrics on /metrics" default:"false"`
	AuditLog  string `yaml:"audit_log" description:"Audit log path (empty = disabled)" default:"audit.log"`
	LogLevel  string `yaml:"log_level" description:"Log level: debug, info, warn or error" default:"info"`
	LogFormat string `yaml:"log_format" description:"Log format: text or json" default:"text"`

	// Runtime behavior
	WatchKeystore           bool `yaml:"watch_keystore" description:"Reload the fs keystore when files change on disk" default:"false"`
	RequireMemoryProtection bool `yaml:"require_memory_protection" description:"Fail startup if memory protection unavailable" default:"false"`
}

// ResolvePath resolves a path relative to baseDir if not absolute.
// Returns path unchanged if empty or already absolute.
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// DefaultServerConfig returns the default server configuration.
// Relative paths are resolved against the data directory.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:              DefaultListenAddr,
		BasePath:            ".",
		Storage:             "bolt",
		KdfLevel:            "normal",
		MinPassphraseLength: 1,
		AuditLog:            "audit.log",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// GetSignerDataDir returns the data directory: the flag value if set,
// otherwise $JADE_SIGNER_DATA. Returns "" if neither is set.
func GetSignerDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(DataDirEnv)
}

// LoadServerConfig loads <dataDir>/config.yaml. A missing file yields the
// defaults; a file that does not parse is an error. Relative paths are
// resolved against dataDir.
func LoadServerConfig(dataDir string) (ServerConfig, error) {
	defaults := DefaultServerConfig()
	config := defaults

	if dataDir != "" {
		path := filepath.Join(dataDir, ConfigFileName)
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return config, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return config, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// Fill in missing fields with defaults
	if config.Listen == "" {
		config.Listen = defaults.Listen
	}
	if config.BasePath == "" {
		config.BasePath = defaults.BasePath
	}
	if config.Storage == "" {
		config.Storage = defaults.Storage
	}
	if config.KdfLevel == "" {
		config.KdfLevel = defaults.KdfLevel
	}
	if config.MinPassphraseLength <= 0 {
		config.MinPassphraseLength = defaults.MinPassphraseLength
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = defaults.LogFormat
	}

	config.BasePath = ResolvePath(config.BasePath, dataDir)
	config.AuditLog = ResolvePath(config.AuditLog, dataDir)
	config.APITokenFile = ResolvePath(config.APITokenFile, dataDir)

	return config, config.Validate()
}

// Validate checks values that cannot be repaired with a default.
func (c *ServerConfig) Validate() error {
	if c.KdfWorkers < 0 {
		return fmt.Errorf("kdf_workers must not be negative")
	}
	if c.MinPassphraseClasses < 0 || c.MinPassphraseClasses > 4 {
		return fmt.Errorf("min_passphrase_classes must be between 0 and 4")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
