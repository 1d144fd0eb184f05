package types

import (
	"errors"
	"fmt"
	"strconv"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
//
// Every failure that aborts a reconciliation run matches exactly one of the
// sentinels below through errors.Is. Bad individual cells are never errors;
// they are counted in Diagnostics instead.

var (
	// ErrConfiguration marks a layout that lacks a column or row the requested
	// operation needs. Nothing has been read or written when it is returned.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedFormat marks an input or template that is not an OOXML
	// spreadsheet package.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIO marks a file that could not be read or written, or a damaged
	// archive.
	ErrIO = errors.New("i/o error")
)

// Error carries the failing operation and path along with its kind.
type Error struct {
	// Kind is one of ErrConfiguration, ErrUnsupportedFormat or ErrIO.
	Kind error

	// Op names the step that failed, e.g. "open template".
	Op string

	// Path is the file involved, if any.
	Path string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the error against its kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// UnsupportedFormat builds an ErrUnsupportedFormat error for path.
func UnsupportedFormat(op, path string, err error) error {
	return &Error{Kind: ErrUnsupportedFormat, Op: op, Path: path, Err: err}
}

// IOError builds an ErrIO error for path.
func IOError(op, path string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

// ConfigurationError builds an ErrConfiguration error.
func ConfigurationError(op string, format string, args ...interface{}) error {
	return &Error{Kind: ErrConfiguration, Op: op, Err: fmt.Errorf(format, args...)}
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

// FormatNumber renders f in the shortest decimal form that reads back to the
// same value, without exponent and without a trailing ".0". This is the form
// written into <v> elements and used when a numeric code is turned into text.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
