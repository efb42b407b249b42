// Package service implements the application's business operations over
// the store interfaces.
package service

import "errors"

// Common service errors
var (
	// ErrNotOwner is returned when a sharing-administration operation is
	// attempted by someone other than the task's owner.
	ErrNotOwner = errors.New("only the task owner may perform this operation")

	// ErrWriteForbidden is returned when a user who can see a task
	// attempts a mutation their share does not permit.
	ErrWriteForbidden = errors.New("write access to this task is not permitted")

	// ErrPasswordMismatch is returned when a registration's password and
	// confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)
