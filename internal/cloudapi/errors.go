package cloudapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the abstract cloud contract. Implementations wrap
// these so callers can classify failures with errors.Is regardless of the
// concrete transport underneath.
var (
	ErrNotFound      = errors.New("cloudapi: not found")
	ErrDuplicateName = errors.New("cloudapi: duplicate name")
	ErrUnauthorized  = errors.New("cloudapi: unauthorized")
	ErrServerError   = errors.New("cloudapi: server error")
	ErrUnknownShape  = errors.New("cloudapi: unrecognized response shape")
)

// DuplicateNameError wraps ErrDuplicateName with the id of the
// already-existing node, allowing CreateDir to be idempotent per spec §6.
type DuplicateNameError struct {
	ExistingID string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("cloudapi: duplicate name, existing id %q", e.ExistingID)
}

func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

// UnknownShapeError wraps ErrUnknownShape with a truncated payload excerpt
// for diagnostics, per spec §7 ("surfaced as a runtime error with a
// truncated payload excerpt").
type UnknownShapeError struct {
	Excerpt string
}

const maxExcerptLen = 256

// NewUnknownShapeError truncates payload to maxExcerptLen before storing it.
func NewUnknownShapeError(payload []byte) *UnknownShapeError {
	excerpt := string(payload)
	if len(excerpt) > maxExcerptLen {
		excerpt = excerpt[:maxExcerptLen] + "..."
	}

	return &UnknownShapeError{Excerpt: excerpt}
}

func (e *UnknownShapeError) Error() string {
	return fmt.Sprintf("cloudapi: unknown response shape: %s", e.Excerpt)
}

func (e *UnknownShapeError) Unwrap() error {
	return ErrUnknownShape
}
