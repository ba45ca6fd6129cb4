// Package common defines shared constants and sentinel errors used across
// the task manager layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors. ErrorUnauthorized is the single generic failure
	// every client-visible authentication problem collapses to.
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrorValidation    = errors.New("validation error")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrTokenReplayed is an internal signal raised when an already-consumed
	// refresh token is presented again; it must never reach clients as
	// anything other than ErrorUnauthorized.
	ErrTokenReplayed = errors.New("refresh token already consumed")
)
