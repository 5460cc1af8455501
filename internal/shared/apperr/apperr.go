// Package apperr defines the closed set of failure codes shared by every
// component, with deterministic rendering of coded errors to display text.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure code. The code set is closed;
// collaborating components depend on these exact values.
type Code string

const (
	FatalFailure            Code = "FatalFailure"
	NotReady                Code = "NotReady"
	NotFound                Code = "NotFound"
	NotFoundTargetDeploy    Code = "NotFoundTargetDeploy"
	NotMatchConfDeploy      Code = "NotMatchConfDeploy"
	NotFoundWorkspace       Code = "NotFoundWorkspace"
	NoValidAppType          Code = "NoValidAppType"
	NotAvailablePort        Code = "NotAvailablePort"
	InaccessibleResources   Code = "InaccessibleResources"
	InvalidInternalResource Code = "InvalidInternalResource"
)

// messages maps each code to its display template.
var messages = map[Code]string{
	FatalFailure:            "a fatal failure occurred",
	NotReady:                "the application is not ready",
	NotFound:                "the application could not be found",
	NotFoundTargetDeploy:    "no deployable target was found",
	NotMatchConfDeploy:      "the deploy target does not match the configuration",
	NotFoundWorkspace:       "no workspace location has been set",
	NoValidAppType:          "no valid application type is registered",
	NotAvailablePort:        "the configured port is not available",
	InaccessibleResources:   "required resources are not accessible",
	InvalidInternalResource: "an internal resource is invalid or corrupted",
}

// Error is a coded failure value carrying an optional free-text detail.
type Error struct {
	Code   Code
	Detail string
}

// New returns a coded error with the given detail text.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Newf returns a coded error with a formatted detail text.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Error renders the display text. Resolution is a single deterministic
// lookup: a registered code renders its message, suffixed with the detail
// in parentheses when present; an unregistered code whose detail is itself
// a known code renders that code's message; otherwise the detail is
// rendered verbatim.
func (e *Error) Error() string {
	if msg, ok := messages[e.Code]; ok {
		if e.Detail != "" {
			return fmt.Sprintf("%s (%s)", msg, e.Detail)
		}
		return msg
	}
	if msg, ok := messages[Code(e.Detail)]; ok {
		return msg
	}
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Code)
}

// Is matches any *Error carrying the same code, so callers can test with
// errors.Is(err, apperr.New(apperr.NotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf extracts the code from an error chain. The second return is false
// when the chain carries no coded error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
