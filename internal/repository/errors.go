// Package repository implements MySQL persistence for users, theaters,
// events and bookings.  Sentinel errors defined here are shared across
// repositories so handlers can map failures to HTTP responses; entity
// specific not-found errors live next to their repository.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because of
// dependent records, such as deleting an event that still has confirmed
// bookings.  Handlers translate this into 409.
var ErrConflict = errors.New("conflict")
