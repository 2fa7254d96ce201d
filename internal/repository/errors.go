// Package repository implements the data-access layer of the hostel service:
// a table-agnostic Base repository plus one entity repository per table.
// Sentinel errors defined here let handlers distinguish an absent row from a
// statement failure; only the former is a normal, checkable outcome.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id or conditions matches no row.
// It is an explicit "absent" result, not a statement failure; callers must
// check for it before using the row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// such as a reused admin email or a colliding receipt number.
var ErrDuplicate = errors.New("duplicate record")
