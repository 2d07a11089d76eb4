// Package store defines the error taxonomy shared by all repositories.
// The presentation layer decides how each kind is rendered; repositories
// only classify.
package store

import "errors"

var (
	// ErrNotFound is returned when a referenced room, game or question row
	// is absent.
	ErrNotFound = errors.New("record not found")

	// ErrWriteFailed is returned when an insert, update or delete is
	// rejected by the database. Already-applied local state is not rolled
	// back; last write wins.
	ErrWriteFailed = errors.New("write failed")

	// ErrInvalid is returned for input that fails validation before any
	// backend call is made.
	ErrInvalid = errors.New("invalid input")
)
