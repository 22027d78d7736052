// Package errors provides error handling for wkg.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to the user on failure
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrOutputExists) {
//	    // handle existing output
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Sentinel errors for the fetch pipeline. Each stage wraps the sentinel
// matching its failure mode so the top level can classify with errors.Is()
// while the wrapped message carries stage context.
var (
	// ErrInvalidReference indicates a malformed package reference or spec
	ErrInvalidReference = New("invalid package reference")

	// ErrNoReleases indicates version resolution found no usable release
	ErrNoReleases = New("no releases found")

	// ErrRegistry indicates a network or protocol failure from the registry
	ErrRegistry = New("registry error")

	// ErrFetchIncomplete indicates the content stream ended before the full
	// artifact was received
	ErrFetchIncomplete = New("fetch incomplete")

	// ErrDecode indicates component decoding failed
	ErrDecode = New("decode error")

	// ErrOutputExists indicates the destination path is already present and
	// --overwrite was not given
	ErrOutputExists = New("output already exists")
)

// IsInvalidReference checks if an error is or wraps ErrInvalidReference
func IsInvalidReference(err error) bool {
	return err != nil && Is(err, ErrInvalidReference)
}

// IsNoReleases checks if an error is or wraps ErrNoReleases
func IsNoReleases(err error) bool {
	return err != nil && Is(err, ErrNoReleases)
}

// IsOutputExists checks if an error is or wraps ErrOutputExists
func IsOutputExists(err error) bool {
	return err != nil && Is(err, ErrOutputExists)
}

// NewInvalidReference creates an invalid-reference error with a formatted message
func NewInvalidReference(format string, args ...interface{}) error {
	return Wrap(ErrInvalidReference, Newf(format, args...).Error())
}
