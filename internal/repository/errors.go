// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrDateConflict signals that a booking's
// date range intersects an existing booking on the same facility.
package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist or
// is outside the caller's visibility scope. Handlers should translate
// this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a create or update cannot be
// performed because of conflicting state, such as attempting a
// second payment on an already paid booking or a duplicate review
// for a booking. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrDateConflict is returned by the booking repository when the
// candidate date range overlaps another booking for the same
// facility. It is a distinct value so handlers can report the
// conflict against the date fields specifically.
var ErrDateConflict = errors.New("date range conflicts with an existing booking")
