// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or does not
// belong to the parent named in the request.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidPosition indicates a requested order is outside [0, siblingCount].
// Rejected before any writes occur.
var ErrInvalidPosition = errors.New("position out of range")

// ErrOrderingCorruption indicates a duplicate or gap was observed in a
// sibling order set. Fatal by policy: surfaced to operators, never silently
// repaired, since auto-healing could mask a concurrency bug.
var ErrOrderingCorruption = errors.New("ordering corruption detected")

// ErrNoAccess indicates the caller is not authorized to view the project.
// Distinct from ErrNotFound so callers can map it to a 404 without leaking
// existence, and distinct from an empty result set.
var ErrNoAccess = errors.New("no project access")
