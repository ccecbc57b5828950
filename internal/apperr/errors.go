// Package apperr defines the sentinel errors shared across service layers.
package apperr

import "errors"

var (
	// ErrNotFound reports an unknown document, section, or node id.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a checksum mismatch on optimistic concurrency.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists reports a create targeting an existing document.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidOp reports a mutation that had no effect: boundary
	// indent/outdent, a reference to a reference, an empty title.
	ErrInvalidOp = errors.New("invalid operation")
	// ErrLastSection reports an attempt to delete a document's only section.
	ErrLastSection = errors.New("cannot remove last section")
)
