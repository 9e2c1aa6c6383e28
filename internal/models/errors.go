package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for retry decisions and client responses.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "VALIDATION_ERROR"
	ErrorKindConfiguration     ErrorKind = "CONFIGURATION_ERROR"
	ErrorKindNetwork           ErrorKind = "NETWORK_ERROR"
	ErrorKindSDKDeployment     ErrorKind = "SDK_DEPLOYMENT_ERROR"
	ErrorKindWalletRequirement ErrorKind = "WALLET_REQUIREMENT_ERROR"
	ErrorKindFidRequired       ErrorKind = "FID_REQUIRED"
	ErrorKindWalletCheck       ErrorKind = "WALLET_CHECK_ERROR"
	ErrorKindQueue             ErrorKind = "QUEUE_ERROR"
	ErrorKindUnknown           ErrorKind = "UNKNOWN_ERROR"
)

// AppError is the classified error carried across service boundaries. Code
// holds a machine-readable code from an upstream service when one was
// reported.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a classified error with a formatted message.
func NewAppError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error, preserving it for errors.Is and
// errors.As chains.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AsAppError returns the AppError in err's chain, classifying unrecognized
// errors as ErrorKindUnknown. Returns nil only for a nil error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: ErrorKindUnknown, Message: err.Error(), Cause: err}
}

// KindOf returns the classification of err, ErrorKindUnknown when it carries
// none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsAppError(err).Kind
}

// IsRetryable reports whether a failed deployment attempt with this error
// may be retried. Transport and service faults are transient; everything
// the caller must fix first is terminal.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrorKindNetwork, ErrorKindSDKDeployment, ErrorKindUnknown:
		return true
	default:
		return false
	}
}
