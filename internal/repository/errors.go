// Package repository implements the ledger on MySQL: the reservations,
// feedback and schedule tables plus the participant registry.  Every call
// goes to the database; nothing is cached, so callers always observe the
// current ledger state.
//
// The sentinel values below let higher layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a row addressed by its index does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyResolved is returned when a reservation status update loses
// against an earlier resolution, e.g. two operators deciding on the same
// row at once.
var ErrAlreadyResolved = errors.New("reservation already resolved")
