package invoice

import (
	"fmt"

	"github.com/invoicing/backend/internal/domain/shared"
)

// ErrInvoiceNotFound is returned when no invoice exists for the given id
var ErrInvoiceNotFound = shared.NewDomainError(shared.CodeNotFound, "invoice not found")

// MalformedOrderSnapshotError reports a snapshot missing a field the builder needs
type MalformedOrderSnapshotError struct {
	Field  string
	Reason string
}

// NewMalformedOrderSnapshotError creates a new malformed snapshot error
func NewMalformedOrderSnapshotError(field, reason string) *MalformedOrderSnapshotError {
	return &MalformedOrderSnapshotError{Field: field, Reason: reason}
}

// Error implements the error interface
func (e *MalformedOrderSnapshotError) Error() string {
	return fmt.Sprintf("malformed order snapshot: %s: %s", e.Field, e.Reason)
}

// Code returns the domain error code
func (e *MalformedOrderSnapshotError) Code() string {
	return shared.CodeMalformedSnapshot
}

// PersistenceWriteError reports that a rebuilt model could not be written back
type PersistenceWriteError struct {
	InvoiceID string
	Cause     error
}

// Error implements the error interface
func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("failed to persist document for invoice %s: %v", e.InvoiceID, e.Cause)
}

// Unwrap returns the underlying error
func (e *PersistenceWriteError) Unwrap() error {
	return e.Cause
}

// Code returns the domain error code
func (e *PersistenceWriteError) Code() string {
	return shared.CodePersistenceWrite
}

// RenderingFailedError reports that the rendering engine could not produce bytes
type RenderingFailedError struct {
	InvoiceID string
	Cause     error
}

// Error implements the error interface
func (e *RenderingFailedError) Error() string {
	return fmt.Sprintf("failed to render invoice %s: %v", e.InvoiceID, e.Cause)
}

// Unwrap returns the underlying error
func (e *RenderingFailedError) Unwrap() error {
	return e.Cause
}

// Code returns the domain error code
func (e *RenderingFailedError) Code() string {
	return shared.CodeRenderingFailed
}
