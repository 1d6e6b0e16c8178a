package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateCloud(&cfg.Cloud)...)
	errs = append(errs, validateImport(&cfg.Import)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

// ValidateResolved checks cross-field constraints on a fully resolved
// config. Unlike Validate, which checks raw config file values, this runs
// after the four-layer override chain (defaults -> file -> env -> CLI)
// has been applied. It catches constraints that only make sense on the
// final merged result.
func ValidateResolved(rc *ResolvedConfig) error {
	var errs []error

	if rc.CollectionRoot != "" && !filepath.IsAbs(rc.CollectionRoot) {
		errs = append(errs, fmt.Errorf("collection.root: must be absolute after expansion, got %q", rc.CollectionRoot))
	}

	if rc.S3Bucket != "" && rc.S3Region == "" {
		errs = append(errs, errors.New("cloud.region: required when cloud.bucket is set"))
	}

	return errors.Join(errs...)
}

func validateCloud(c *CloudConfig) []error {
	var errs []error

	if c.Bucket == "" && c.Endpoint != "" {
		errs = append(errs, errors.New("cloud.bucket: required when cloud.endpoint is set"))
	}

	return errs
}

func validateImport(i *ImportConfig) []error {
	var errs []error

	if i.DefaultFileType == "" {
		errs = append(errs, errors.New("import.default_file_type: must not be empty"))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogging(l *LoggingConfig) []error {
	if !validLogLevels[l.LogLevel] {
		return []error{fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel)}
	}

	return nil
}
