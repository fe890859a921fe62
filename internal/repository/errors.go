// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// dependent records (deleting a lot that still has occupied spots), while
// ErrForbidden indicates the caller is not authorized to touch a resource
// owned by someone else.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot be performed because of
// conflicting state, such as deleting a lot with occupied spots. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
