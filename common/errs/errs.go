package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a missing league, season, or player. Read paths surface
// it as an empty result rather than a failure.
var ErrNotFound = errors.New("not found")

// ErrSyncInProgress is returned when a league sync is refused because another
// sync already holds the per-league lease.
var ErrSyncInProgress = errors.New("sync already in progress for league")

// ConfigError reports a missing or invalid configuration value. It is raised
// before any I/O happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for a field
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// ExternalAPIError reports a non-success response or transport failure from
// the league host API. It is fatal to the sync step that hit it; the caller
// retries by re-invoking the whole operation.
type ExternalAPIError struct {
	Endpoint   string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("league api: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("league api: %s failed: %v", e.Endpoint, e.Err)
}

func (e *ExternalAPIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExternalAPI reports whether err is (or wraps) an ExternalAPIError
func IsExternalAPI(err error) bool {
	var apiErr *ExternalAPIError
	return errors.As(err, &apiErr)
}

// IsConfig reports whether err is (or wraps) a ConfigError
func IsConfig(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
