// Package common defines shared sentinel errors used across the filevault
// services and transport layers. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Upload validation errors, one per field, reported in check order.
	ErrMissingName = errors.New("missing name")
	ErrMissingType = errors.New("missing type")
	ErrMissingData = errors.New("missing data")

	// Parent resolution errors. A missing parent is a not-found condition,
	// an existing non-folder parent a validation one.
	ErrParentNotFound  = errors.New("parent not found")
	ErrParentNotFolder = errors.New("parent is not a folder")

	// Registration validation errors.
	ErrMissingEmail    = errors.New("missing email")
	ErrMissingPassword = errors.New("missing password")
	ErrAlreadyExists   = errors.New("already exist")

	// Content retrieval errors.
	ErrFolderWithoutContent = errors.New("a folder doesn't have content")
)
