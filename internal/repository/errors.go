// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// workflows and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed document does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write cannot be applied because
// the document is no longer in the expected state, e.g. a worker edit racing
// an admin marking the payment done, or a second deletion request on the
// same video. Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email already in use.
var ErrEmailExists = errors.New("email already exists")
