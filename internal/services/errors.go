package services

import (
	"errors"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
)

// Kind classifies a service-level failure for CLI dispatch (exit code and
// user-facing message) without the caller re-deriving the full apperr /
// capability error taxonomy itself.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindConfig
	KindCredentials
	KindIntegrity
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config"
	case KindCredentials:
		return "credentials"
	case KindIntegrity:
		return "integrity"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the facade's single error type. Every operation method wraps
// its pipeline's error through Wrap before returning, so a caller only
// ever needs to type-assert one shape, then branch on Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err and wraps it in an *Error. Returns nil for a nil
// err, and returns err unchanged (retyped) if it is already an *Error, so
// repeated wrapping across nested facade calls is harmless.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	return &Error{Kind: Classify(err), Err: err}
}

// Classify dispatches on the apperr and capability error taxonomies via
// errors.Is/errors.As, never by matching an error's formatted message.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, apperr.ErrCancelled):
		return KindCancelled
	case errors.Is(err, apperr.ErrNoCredentials):
		return KindCredentials
	case errors.Is(err, db.ErrNotFound):
		return KindNotFound
	}

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}

	var inUse *apperr.InUseError
	if errors.As(err, &inUse) {
		return KindConflict
	}

	var constraint *apperr.ConstraintError
	if errors.As(err, &constraint) {
		return KindConflict
	}

	var cfgErr *apperr.ConfigError
	if errors.As(err, &cfgErr) {
		return KindConfig
	}

	var integrity *apperr.IntegrityError
	if errors.As(err, &integrity) {
		return KindIntegrity
	}

	var cloudErr *capability.CloudError
	if errors.As(err, &cloudErr) {
		switch cloudErr.Kind {
		case capability.CloudErrorInvalidCredentials:
			return KindCredentials
		case capability.CloudErrorObjectNotFound:
			return KindNotFound
		default:
			return KindUnknown
		}
	}

	var dbErr *apperr.DatabaseError
	if errors.As(err, &dbErr) {
		return Classify(errors.Unwrap(dbErr))
	}

	var storageErr *apperr.StorageError
	if errors.As(err, &storageErr) {
		return Classify(errors.Unwrap(storageErr))
	}

	return KindUnknown
}
