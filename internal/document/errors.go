package document

import (
	"errors"
	"fmt"
)

// ErrorKind classifies document-scoped failures. Every kind maps to a Failed
// terminal state at the orchestrator boundary; none aborts the run.
type ErrorKind string

const (
	// KindUnreadable covers files that cannot be opened or are
	// structurally corrupt. Never retried.
	KindUnreadable ErrorKind = "unreadable_document"

	// KindProtected covers password-protected input.
	KindProtected ErrorKind = "protected_document"

	// KindConversion covers pipeline failures on encrypted, corrupt or
	// structurally unsupported documents.
	KindConversion ErrorKind = "conversion_error"

	// KindUnsupportedOrientation covers landscape or otherwise
	// unresolvable page orientation.
	KindUnsupportedOrientation ErrorKind = "unsupported_orientation"
)

// Error is a document-scoped failure with a taxonomy kind.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a document-scoped error. err may be nil.
func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the taxonomy kind from err, or KindConversion if err is
// not a document-scoped error (pipeline internals surface as conversion
// failures at the orchestrator boundary).
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindConversion
}
