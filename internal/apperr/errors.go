// Package apperr defines the typed error taxonomy shared across the
// engine: content store, metadata store, import/export/sync pipelines,
// and the service facade all surface failures through these types so a
// caller can dispatch on error kind via errors.Is/errors.As rather than
// string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is.
var (
	// ErrCancelled is returned when a pipeline aborts due to cooperative
	// cancellation.
	ErrCancelled = errors.New("apperr: operation cancelled")

	// ErrNoCredentials is returned when a sync operation is requested but
	// no cloud credentials are configured.
	ErrNoCredentials = errors.New("apperr: no cloud credentials configured")
)

// IntegrityError reports a checksum mismatch on decompression or an
// invalid zstd frame.
type IntegrityError struct {
	Path    string
	Want    string
	Got     string
	Message string
}

func (e *IntegrityError) Error() string {
	if e.Want != "" || e.Got != "" {
		return fmt.Sprintf("apperr: integrity check failed for %s: want %s, got %s", e.Path, e.Want, e.Got)
	}

	return fmt.Sprintf("apperr: integrity check failed for %s: %s", e.Path, e.Message)
}

// ConstraintError reports a violated metadata invariant, such as a
// file_set/file_info file_type mismatch.
type ConstraintError struct {
	Entity  string
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("apperr: constraint violated on %s: %s", e.Entity, e.Message)
}

// InUseError reports that deletion was refused because an entity is still
// referenced by another.
type InUseError struct {
	Entity string
	ID     int64
	UsedBy string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("apperr: %s %d is still referenced by %s", e.Entity, e.ID, e.UsedBy)
}

// NotFoundError reports that a referenced entity or file is absent.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("apperr: %s not found: %s", e.Entity, e.Key)
}

// StorageError reports a filesystem or compression failure.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("apperr: storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CloudErrorKind classifies a CloudError.
type CloudErrorKind int

const (
	CloudErrorTransport CloudErrorKind = iota
	CloudErrorInvalidCredentials
	CloudErrorObjectNotFound
)

func (k CloudErrorKind) String() string {
	switch k {
	case CloudErrorInvalidCredentials:
		return "invalid_credentials"
	case CloudErrorObjectNotFound:
		return "object_not_found"
	default:
		return "transport"
	}
}

// CloudError reports an HTTP failure from the cloud storage provider.
type CloudError struct {
	Kind CloudErrorKind
	Key  string
	Err  error
}

func (e *CloudError) Error() string {
	return fmt.Sprintf("apperr: cloud error (%s) for key %s: %v", e.Kind, e.Key, e.Err)
}

func (e *CloudError) Unwrap() error { return e.Err }

// DatabaseError wraps an underlying metadata-store failure.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("apperr: database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// ConfigError reports a missing required setting, e.g. no credentials
// when sync is requested.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("apperr: config error for %s: %s", e.Setting, e.Message)
}
