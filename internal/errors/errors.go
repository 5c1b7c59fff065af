// Package errors provides error handling for nsntrace.
//
// This package re-exports github.com/cockroachdb/errors so every package
// wraps and inspects errors the same way, and defines the sentinel errors
// that make up the library's failure taxonomy:
//
//	ErrNotFound   unknown context, module, flag or filter
//	ErrExists     duplicate context or module name
//	ErrExhausted  out of context slots, module slots or flag bits
//	ErrInvalid    malformed format, filter, configuration text or argument
//	ErrOverflow   output did not fit the caller's buffer
//
// Every fallible operation returns an error wrapping exactly one sentinel:
//
//	return errors.Wrapf(errors.ErrNotFound, "context %q", name)
//
// and callers check with errors.Is or the Is* helpers below.
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
	Join         = crdb.Join
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
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors. Wrap them with Wrap/Wrapf to add context while keeping
// errors.Is working.
var (
	// ErrNotFound indicates an unknown context, module, flag, filter or id.
	ErrNotFound = New("not found")

	// ErrExists indicates a live context or module already has the name.
	ErrExists = New("already exists")

	// ErrExhausted indicates a fixed pool (context slots, module slots,
	// flags per module, bits per context) has no room left.
	ErrExhausted = New("resources exhausted")

	// ErrInvalid indicates malformed input.
	ErrInvalid = New("invalid argument")

	// ErrOverflow indicates output was truncated to fit a bounded buffer.
	ErrOverflow = New("buffer overflow")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool { return err != nil && Is(err, ErrNotFound) }

// IsExists checks if an error is or wraps ErrExists.
func IsExists(err error) bool { return err != nil && Is(err, ErrExists) }

// IsExhausted checks if an error is or wraps ErrExhausted.
func IsExhausted(err error) bool { return err != nil && Is(err, ErrExhausted) }

// IsInvalid checks if an error is or wraps ErrInvalid.
func IsInvalid(err error) bool { return err != nil && Is(err, ErrInvalid) }

// IsOverflow checks if an error is or wraps ErrOverflow.
func IsOverflow(err error) bool { return err != nil && Is(err, ErrOverflow) }

// Invalidf wraps ErrInvalid with a formatted message naming the offending input.
func Invalidf(format string, args ...interface{}) error {
	return Wrapf(ErrInvalid, format, args...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}
