// Package common defines shared constants and sentinel errors used across
// the play tracker layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrStorage       = errors.New("storage error")
	ErrDuplicateItem = errors.New("game already in challenge")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Metadata lookup fell back to embedded sample data. Logged only.
	ErrLookupDegraded = errors.New("metadata lookup degraded")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports input that violates a local invariant. Files lists
// the offending upload names, if any.
type ValidationError struct {
	Field  string
	Reason string
	Files  []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Files) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Files, ", "))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageFailure wraps a backend failure so that it matches ErrStorage while
// keeping the original cause reachable through errors.Is / errors.As.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}
