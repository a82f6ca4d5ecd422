package core

import (
	"errors"
)

// Sentinel errors, one per failure class the bot distinguishes
var (
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation failed")
	ErrRelay          = errors.New("external relay failed")
	ErrConfiguration  = errors.New("configuration error")
	ErrTransientFetch = errors.New("transient fetch failure")
)

// ErrorClass is the failure taxonomy used in logs and metrics
type ErrorClass string

const (
	ErrorClassNone          ErrorClass = "none"
	ErrorClassAuth          ErrorClass = "auth_failure"
	ErrorClassValidation    ErrorClass = "validation_failure"
	ErrorClassRelay         ErrorClass = "external_relay_failure"
	ErrorClassConfiguration ErrorClass = "configuration_failure"
	ErrorClassFetch         ErrorClass = "transient_fetch_failure"
	ErrorClassNotFound      ErrorClass = "not_found"
	ErrorClassBadRequest    ErrorClass = "bad_request"
	ErrorClassUnknown       ErrorClass = "unknown"
)

// Classify maps an error onto the failure taxonomy
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ErrorClassNone
	case errors.Is(err, ErrUnauthorized):
		return ErrorClassAuth
	case errors.Is(err, ErrValidation):
		return ErrorClassValidation
	case errors.Is(err, ErrRelay):
		return ErrorClassRelay
	case errors.Is(err, ErrConfiguration):
		return ErrorClassConfiguration
	case errors.Is(err, ErrTransientFetch):
		return ErrorClassFetch
	case errors.Is(err, ErrNotFound):
		return ErrorClassNotFound
	case errors.Is(err, ErrBadRequest):
		return ErrorClassBadRequest
	default:
		return ErrorClassUnknown
	}
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
