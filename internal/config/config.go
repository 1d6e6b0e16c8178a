// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for the collection manager.
package config

// Config is the top-level configuration structure, decoded directly from
// the TOML config file. Unlike ResolvedConfig, this reflects only what is
// on disk; environment and CLI overrides are layered on afterward by
// ResolveConfig.
type Config struct {
	Collection CollectionConfig `toml:"collection"`
	Cloud      CloudConfig      `toml:"cloud"`
	Import     ImportConfig     `toml:"import"`
	Logging    LoggingConfig    `toml:"logging"`
}

// CollectionConfig identifies where the content store and metadata store
// live on disk.
type CollectionConfig struct {
	Root string `toml:"root"`
}

// CloudConfig identifies the S3-compatible sync target. Endpoint is empty
// for real AWS S3, set for a compatible provider.
type CloudConfig struct {
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
}

// ImportConfig holds defaults the mass-import commands fall back to when
// the caller does not specify one explicitly.
type ImportConfig struct {
	DefaultFileType string `toml:"default_file_type"`
}

// LoggingConfig controls log output verbosity.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}
