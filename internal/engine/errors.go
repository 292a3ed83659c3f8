package engine

import (
	"errors"
	"fmt"
)

// ErrRouterStateMissing is matched by errors.Is when the store has no
// router state at the selector.
var ErrRouterStateMissing = errors.New("router state missing from store")

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeRouterStateMissing indicates routing.Reducer is not installed
	// where the selector looks.
	ErrCodeRouterStateMissing ConfigErrorCode = "ROUTER_STATE_MISSING"

	// ErrCodeNilHistory indicates Connect was given a nil history.
	ErrCodeNilHistory ConfigErrorCode = "NIL_HISTORY"

	// ErrCodeNilStore indicates Connect was given a nil store.
	ErrCodeNilStore ConfigErrorCode = "NIL_STORE"

	// ErrCodeInvalidOption indicates an option value Connect cannot use.
	ErrCodeInvalidOption ConfigErrorCode = "INVALID_OPTION"
)

// ConfigError is returned by Connect for wiring mistakes. It is never
// retried; the caller has to fix the setup.
type ConfigError struct {
	Code    ConfigErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying sentinel, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNavigationFailed indicates history rejected a navigation the
	// bridge asked for.
	ErrCodeNavigationFailed RuntimeErrorCode = "NAVIGATION_FAILED"

	// ErrCodeSyncDepthExceeded indicates nested navigations went deeper
	// than MaxSyncDepth.
	ErrCodeSyncDepthExceeded RuntimeErrorCode = "SYNC_DEPTH_EXCEEDED"
)

// RuntimeError describes a fault while the bridge is active. Runtime errors
// are logged and counted; they are never returned into a store dispatch.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the location path involved, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsNavigationError reports whether err is a failed bridge navigation.
func IsNavigationError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNavigationFailed
	}
	return false
}

// IsSyncDepthError reports whether err is a sync depth violation.
func IsSyncDepthError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSyncDepthExceeded
	}
	return false
}
