package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{name: "validation", err: Validation("jobId", "jobId is required"), sentinel: ErrValidation, status: http.StatusBadRequest},
		{name: "initialization", err: Initialization("create job", cause), sentinel: ErrInitialization, status: http.StatusInternalServerError},
		{name: "authorization", err: Authorization("User is suspended"), sentinel: ErrAuthorization, status: http.StatusInternalServerError},
		{name: "provider", err: Provider("Invalid version"), sentinel: ErrProvider, status: http.StatusInternalServerError},
		{name: "timeout", err: Timeout(9*time.Minute, 8*time.Minute), sentinel: ErrTimeout, status: http.StatusInternalServerError},
		{name: "malformed", err: MalformedResponse("Invalid id"), sentinel: ErrMalformedResponse, status: http.StatusInternalServerError},
		{name: "count mismatch", err: CountMismatch(2, 3), sentinel: ErrCountMismatch, status: http.StatusInternalServerError},
		{name: "unexpected status", err: UnexpectedStatus("queued"), sentinel: ErrUnexpectedStatus, status: http.StatusInternalServerError},
		{name: "billing", err: Billing("debit balance", cause), sentinel: ErrBilling, status: http.StatusInternalServerError},
		{name: "storage", err: Storage("upload", cause), sentinel: ErrStorage, status: http.StatusInternalServerError},
		{name: "persistence", err: Persistence("update job", cause), sentinel: ErrPersistence, status: http.StatusInternalServerError},
		{name: "not found", err: NotFound("job", "abc"), sentinel: ErrNotFound, status: http.StatusInternalServerError},
		{name: "conflict", err: Conflict("job", "abc"), sentinel: ErrConflict, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Fatalf("expected %v to match sentinel %v", tt.err, tt.sentinel)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, got)
			}
		})
	}
}

func TestErrorMatchesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("upload render", cause)
	wrapped := fmt.Errorf("reconcile: %w", err)

	if !errors.Is(wrapped, cause) {
		t.Fatal("expected wrapped error to match its cause")
	}
	if !errors.Is(wrapped, ErrStorage) {
		t.Fatal("expected wrapped error to match ErrStorage")
	}
	var appErr *Error
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find *Error")
	}
	if appErr.Op != "upload render" {
		t.Errorf("expected op %q, got %q", "upload render", appErr.Op)
	}
	if appErr.Error() != "upload render: disk full" {
		t.Errorf("unexpected message %q", appErr.Error())
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("user", "u-1")
	if err.Error() != "No user found with ID u-1" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsNotFound(fmt.Errorf("wrap: %w", err)) {
		t.Error("expected IsNotFound to see through wrapping")
	}
	if IsNotFound(Persistence("read user", errors.New("timeout"))) {
		t.Error("transport failure must not be classified as not found")
	}
}

func TestProviderDefaultsDetail(t *testing.T) {
	if got := Provider("").Error(); got != "An unexpected error occurred." {
		t.Errorf("unexpected default detail %q", got)
	}
	if HTTPStatus(nil) != http.StatusOK {
		t.Error("expected nil error to map to 200")
	}
}
