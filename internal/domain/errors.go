// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates invalid input. Wrap with details:
// fmt.Errorf("tokens must be non-negative: %w", domain.ErrValidation).
var ErrValidation = errors.New("validation failed")

// ErrRange indicates an invalid or oversized query window. Windows are
// rejected outright, never clamped or swapped.
var ErrRange = errors.New("invalid range")
