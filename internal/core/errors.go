package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnitNotFound is returned when a unit ID does not resolve.
	ErrUnitNotFound = errors.New("translation unit not found")

	// ErrNotFound is returned by store lookups that find nothing.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when the authorizer rejects the actor.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrImportInProgress is returned by callers that serialize imports per
	// unit when another import already holds the unit.
	ErrImportInProgress = errors.New("import already in progress for this unit")
)

// StructuralReason classifies why a document was rejected as a whole.
type StructuralReason string

const (
	ReasonUnreadable       StructuralReason = "unreadable"
	ReasonIdentityMismatch StructuralReason = "identity_mismatch"
	ReasonHeaderMismatch   StructuralReason = "header_mismatch"
)

// StructuralError rejects an entire document before any row is processed.
type StructuralError struct {
	Reason StructuralReason
	Detail string
	Cause  error
}

func (e *StructuralError) Error() string {
	msg := "invalid spreadsheet: " + string(e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Cause
}

func structuralf(reason StructuralReason, cause error, format string, args ...any) *StructuralError {
	return &StructuralError{Reason: reason, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// IsStructural reports whether err is, or wraps, a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
