package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_AllFieldsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEmpty(t, cfg.Collection.Root)
	assert.Empty(t, cfg.Cloud.Endpoint)
	assert.Equal(t, "us-east-1", cfg.Cloud.Region)
	assert.Empty(t, cfg.Cloud.Bucket)
	assert.Equal(t, "rom", cfg.Import.DefaultFileType)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
}
