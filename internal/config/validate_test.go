package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Collection.Root = "/collection"

	return cfg
}

func TestValidate_ValidDefaults(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_CloudBucketRequiredWithEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Cloud.Endpoint = "https://s3.example.com"
	cfg.Cloud.Bucket = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud.bucket")
}

func TestValidate_ImportDefaultFileTypeRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Import.DefaultFileType = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.default_file_type")
}

func TestValidate_LogLevelMustBeKnown(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogLevel = "verbose"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.log_level")
}

func TestValidate_AccumulatesMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Import.DefaultFileType = ""
	cfg.Logging.LogLevel = "verbose"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.default_file_type")
	assert.Contains(t, err.Error(), "logging.log_level")
}

func TestValidateResolved_RejectsRelativeCollectionRoot(t *testing.T) {
	rc := &ResolvedConfig{CollectionRoot: "relative/path"}

	err := ValidateResolved(rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection.root")
}

func TestValidateResolved_RequiresRegionWhenBucketSet(t *testing.T) {
	rc := &ResolvedConfig{CollectionRoot: "/collection", S3Bucket: "my-bucket"}

	err := ValidateResolved(rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud.region")
}

func TestValidateResolved_ValidPasses(t *testing.T) {
	rc := &ResolvedConfig{
		CollectionRoot: "/collection",
		S3Bucket:       "my-bucket",
		S3Region:       "us-east-1",
	}

	assert.NoError(t, ValidateResolved(rc))
}
