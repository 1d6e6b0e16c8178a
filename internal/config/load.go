package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// CLIOverrides holds config-relevant values a cobra command bound from
// flags. Empty fields mean "not set on the command line" and are skipped
// by ResolveConfig, letting the environment or file value show through.
type CLIOverrides struct {
	ConfigPath     string
	CollectionRoot string
	S3Bucket       string
	LogLevel       string
}

// ResolvedConfig is the final, flattened configuration every command
// operates against: defaults, overridden by the config file, overridden
// by environment variables, overridden by CLI flags.
type ResolvedConfig struct {
	ConfigPath      string
	CollectionRoot  string
	DatabasePath    string
	ScratchRoot     string
	CredentialsPath string
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	DefaultFileType string
	LogLevel        string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are treated as fatal errors with "did you
// mean?" suggestions, so a typo in the config file fails loudly instead of
// being silently ignored.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path)

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports the zero-config
// first run: a fresh collection needs no config file to get started.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default. This is
// the single correct implementation of config path resolution.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) string {
	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}

// ResolveConfig loads configuration and applies the four-layer override
// chain: defaults -> config file -> environment variables -> CLI flags. It
// derives DatabasePath, ScratchRoot and CredentialsPath from the resolved
// collection root and platform cache/config directories rather than
// requiring separate settings for each.
func ResolveConfig(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*ResolvedConfig, error) {
	cfgPath := ResolveConfigPath(env, cli, logger)

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	resolved := buildResolvedConfig(cfg, cfgPath)

	if env.CollectionRoot != "" {
		resolved.CollectionRoot = env.CollectionRoot
	}

	if env.S3Endpoint != "" {
		resolved.S3Endpoint = env.S3Endpoint
	}

	if env.S3Region != "" {
		resolved.S3Region = env.S3Region
	}

	if env.S3Bucket != "" {
		resolved.S3Bucket = env.S3Bucket
	}

	if env.LogLevel != "" {
		resolved.LogLevel = env.LogLevel
	}

	if cli.CollectionRoot != "" {
		resolved.CollectionRoot = cli.CollectionRoot
	}

	if cli.S3Bucket != "" {
		resolved.S3Bucket = cli.S3Bucket
	}

	if cli.LogLevel != "" {
		resolved.LogLevel = cli.LogLevel
	}

	resolved.DatabasePath = databasePath(resolved.CollectionRoot)
	resolved.ScratchRoot = scratchRoot()
	resolved.CredentialsPath = credentialsPath()

	if err := ValidateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger.Debug("config resolved",
		"collection_root", resolved.CollectionRoot,
		"s3_bucket", resolved.S3Bucket,
	)

	return resolved, nil
}

func buildResolvedConfig(cfg *Config, cfgPath string) *ResolvedConfig {
	return &ResolvedConfig{
		ConfigPath:      cfgPath,
		CollectionRoot:  cfg.Collection.Root,
		S3Endpoint:      cfg.Cloud.Endpoint,
		S3Region:        cfg.Cloud.Region,
		S3Bucket:        cfg.Cloud.Bucket,
		DefaultFileType: cfg.Import.DefaultFileType,
		LogLevel:        cfg.Logging.LogLevel,
	}
}
