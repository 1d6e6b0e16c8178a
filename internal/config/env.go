package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig         = "COLLMGR_CONFIG"
	EnvCollectionRoot = "COLLMGR_COLLECTION_ROOT"
	EnvS3Endpoint     = "COLLMGR_S3_ENDPOINT"
	EnvS3Region       = "COLLMGR_S3_REGION"
	EnvS3Bucket       = "COLLMGR_S3_BUCKET"
	EnvLogLevel       = "COLLMGR_LOG_LEVEL"
)

// EnvOverrides holds values derived from environment variables. These are
// resolved by ResolveConfig and layered over the file-decoded Config,
// ahead of CLI flag overrides.
type EnvOverrides struct {
	ConfigPath     string // COLLMGR_CONFIG: override config file path
	CollectionRoot string // COLLMGR_COLLECTION_ROOT: collection root override
	S3Endpoint     string // COLLMGR_S3_ENDPOINT
	S3Region       string // COLLMGR_S3_REGION
	S3Bucket       string // COLLMGR_S3_BUCKET
	LogLevel       string // COLLMGR_LOG_LEVEL
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; callers apply the relevant
// fields via ResolveConfig.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:     os.Getenv(EnvConfig),
		CollectionRoot: os.Getenv(EnvCollectionRoot),
		S3Endpoint:     os.Getenv(EnvS3Endpoint),
		S3Region:       os.Getenv(EnvS3Region),
		S3Bucket:       os.Getenv(EnvS3Bucket),
		LogLevel:       os.Getenv(EnvLogLevel),
	}
}
