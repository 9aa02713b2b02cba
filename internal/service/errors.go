package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/campaign-tracker/internal/repository"
)

// ErrInvalidCredentials is returned by sign-in and refresh for any unknown
// email, wrong password or unusable refresh token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports missing or malformed input fields, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthorizationError is returned when the caller's role, ownership or the
// record's state does not permit the operation. It is not worth retrying.
type AuthorizationError struct {
	Op     string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: not allowed: %s", e.Op, e.Reason)
}

// StoreError wraps an unexpected failure of the underlying store. The
// caller may repeat the action.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: store: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func deny(op, reason string) error { return &AuthorizationError{Op: op, Reason: reason} }

// ConflictError is returned when the target is in a state the operation
// cannot apply to. It matches repository.ErrConflict.
type ConflictError struct {
	Op     string
	Reason string
}

func (e *ConflictError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Reason) }

func (e *ConflictError) Unwrap() error { return repository.ErrConflict }

func conflict(op, reason string) error { return &ConflictError{Op: op, Reason: reason} }

// storeErr keeps the repository sentinels visible to callers and wraps
// anything else in a StoreError.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return fmt.Errorf("%s: %w", op, err)
	}
	return &StoreError{Op: op, Err: err}
}

// outcome classifies err for metrics.
func outcome(err error) string {
	var (
		ve *ValidationError
		ae *AuthorizationError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ae), errors.Is(err, ErrInvalidCredentials):
		return "denied"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return "conflict"
	}
	return "error"
}
