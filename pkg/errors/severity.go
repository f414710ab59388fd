// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// TrackerError is a structured error with context.
type TrackerError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"` // URL, file path or plan name
	Err      error    `json:"-"`
}

func (e *TrackerError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	if e.Subject != "" {
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the run.
func (e *TrackerError) Fatal() bool {
	return e.Severity >= SeverityError
}

// Error codes
const (
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeDecodeFailed     = "DECODE_FAILED"
	ErrCodeReferenceInvalid = "REFERENCE_INVALID"
	ErrCodePlanUnmatched    = "PLAN_UNMATCHED"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeWriteFailed      = "WRITE_FAILED"
)

// NewFetchError creates an error for a failed HTTP request or non-2xx response.
func NewFetchError(url string, err error) *TrackerError {
	return &TrackerError{
		Code:     ErrCodeFetchFailed,
		Message:  "request failed",
		Severity: SeverityFatal,
		Subject:  url,
		Err:      err,
	}
}

// NewDecodeError creates an error for a response body that is not valid JSON.
func NewDecodeError(url string, err error) *TrackerError {
	return &TrackerError{
		Code:     ErrCodeDecodeFailed,
		Message:  "malformed JSON response",
		Severity: SeverityFatal,
		Subject:  url,
		Err:      err,
	}
}

// NewReferenceError creates an error for a missing or malformed reference file.
func NewReferenceError(path, message string, err error) *TrackerError {
	return &TrackerError{
		Code:     ErrCodeReferenceInvalid,
		Message:  message,
		Severity: SeverityFatal,
		Subject:  path,
		Err:      err,
	}
}

// NewUnmatchedPlanError records a reference plan with no API counterpart.
// It is a warning: the plan is still reported, with zero funding.
func NewUnmatchedPlanError(plan string) *TrackerError {
	return &TrackerError{
		Code:     ErrCodePlanUnmatched,
		Message:  "no API plan matches reference plan",
		Severity: SeverityWarning,
		Subject:  plan,
	}
}

// NewConfigError creates an error for an invalid configuration value.
func NewConfigError(field, message string) *TrackerError {
	return &TrackerError{
		Code:     ErrCodeConfigInvalid,
		Message:  message,
		Severity: SeverityFatal,
		Subject:  field,
	}
}

// NewWriteError creates an error for a failed output write.
func NewWriteError(path string, err error) *TrackerError {
	return &TrackerError{
		Code:     ErrCodeWriteFailed,
		Message:  "failed to write output",
		Severity: SeverityFatal,
		Subject:  path,
		Err:      err,
	}
}

// HasCode reports whether err is, or wraps, a TrackerError with the given code.
func HasCode(err error, code string) bool {
	var te *TrackerError
	if stderrors.As(err, &te) {
		return te.Code == code
	}
	return false
}
