package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and are chosen to be safe, reasonable
// starting points that work without any config file at all.
const (
	defaultFileType = "rom"
	defaultLogLevel = "info"
	defaultS3Region = "us-east-1"
)

// DefaultConfig returns a Config populated with all default values. This is
// used both as the starting point for TOML decoding (so unset fields
// retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Collection: defaultCollectionConfig(),
		Cloud:      defaultCloudConfig(),
		Import:     defaultImportConfig(),
		Logging:    defaultLoggingConfig(),
	}
}

func defaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Root: DefaultDataDir(),
	}
}

func defaultCloudConfig() CloudConfig {
	return CloudConfig{
		Region: defaultS3Region,
	}
}

func defaultImportConfig() ImportConfig {
	return ImportConfig{
		DefaultFileType: defaultFileType,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel: defaultLogLevel,
	}
}
