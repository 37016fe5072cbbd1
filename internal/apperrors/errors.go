// Package apperrors defines the worker's error taxonomy. Every failure that
// crosses a package boundary is classified by one of the sentinels below so
// callers can branch with errors.Is without inspecting messages.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation        = errors.New("validation error")
	ErrInitialization    = errors.New("initialization error")
	ErrAuthorization     = errors.New("authorization error")
	ErrProvider          = errors.New("provider error")
	ErrTimeout           = errors.New("timeout error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrCountMismatch     = errors.New("count mismatch")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrBilling           = errors.New("billing error")
	ErrStorage           = errors.New("storage error")
	ErrPersistence       = errors.New("persistence error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
)

// Error is a classified error with optional context.
type Error struct {
	Sentinel error  // classification, matched by errors.Is
	Message  string // human-readable message, returned by Error()
	Field    string // offending field for validation errors
	Resource string // resource kind for not-found and conflict errors (job, render, user, charge)
	Op       string // operation that failed
	Cause    error  // underlying error, also matched by errors.Is / errors.As
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Sentinel != nil {
		errs = append(errs, e.Sentinel)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Validation reports a bad inbound payload.
func Validation(field, message string) error {
	return &Error{Sentinel: ErrValidation, Message: message, Field: field}
}

// Initialization reports a failure while creating the job or preparing to submit it.
func Initialization(op string, cause error) error {
	return &Error{Sentinel: ErrInitialization, Message: withCause(op, cause), Op: op, Cause: cause}
}

// Authorization reports a policy rejection of the requesting user.
func Authorization(message string) error {
	return &Error{Sentinel: ErrAuthorization, Message: message}
}

// Provider reports a transport failure or non-success answer from the inference provider.
func Provider(detail string) error {
	if detail == "" {
		detail = "An unexpected error occurred."
	}
	return &Error{Sentinel: ErrProvider, Message: detail}
}

// ProviderCause is Provider with an underlying transport error attached.
func ProviderCause(op string, cause error) error {
	return &Error{Sentinel: ErrProvider, Message: withCause(op, cause), Op: op, Cause: cause}
}

// Timeout reports that the polling budget was exhausted.
func Timeout(elapsed, budget time.Duration) error {
	return &Error{
		Sentinel: ErrTimeout,
		Message:  fmt.Sprintf("Server timeout: maximum wait time exceeded (%s elapsed, budget %s).", elapsed.Round(time.Second), budget),
	}
}

// MalformedResponse reports a provider payload that failed extraction.
func MalformedResponse(message string) error {
	return &Error{Sentinel: ErrMalformedResponse, Message: message}
}

// CountMismatch reports a result URL count that does not match the allocated renders.
func CountMismatch(urls, renders int) error {
	return &Error{
		Sentinel: ErrCountMismatch,
		Message:  fmt.Sprintf("provider returned %d result urls but %d renders were allocated", urls, renders),
	}
}

// UnexpectedStatus reports a provider status outside the agreed vocabulary.
func UnexpectedStatus(status string) error {
	return &Error{Sentinel: ErrUnexpectedStatus, Message: "Unexpected status: " + status}
}

// Billing reports a charge write or balance debit failure.
func Billing(op string, cause error) error {
	return &Error{Sentinel: ErrBilling, Message: withCause(op, cause), Op: op, Cause: cause}
}

// Storage reports an image persistence failure.
func Storage(op string, cause error) error {
	return &Error{Sentinel: ErrStorage, Message: withCause(op, cause), Op: op, Cause: cause}
}

// Persistence reports a generic store I/O failure.
func Persistence(op string, cause error) error {
	return &Error{Sentinel: ErrPersistence, Message: withCause(op, cause), Op: op, Cause: cause}
}

// NotFound reports that an addressed row does not exist.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("No %s found with ID %s", resource, id),
		Resource: resource,
	}
}

// Conflict reports an insert that collided with an existing key.
func Conflict(resource, id string) error {
	return &Error{
		Sentinel: ErrConflict,
		Message:  fmt.Sprintf("%s with ID %s already exists", resource, id),
		Resource: resource,
	}
}

// IsNotFound reports whether err is classified as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// HTTPStatus maps an error to the worker's response code. Only bad input is
// a client error; every other failure is reported as 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func withCause(op string, cause error) string {
	if cause == nil {
		return op
	}
	if op == "" {
		return cause.Error()
	}
	return fmt.Sprintf("%s: %v", op, cause)
}
