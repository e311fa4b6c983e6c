package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is, so callers
// can branch on the category without caring about the concrete type.
var (
	// ErrSourceUnavailable means the backing path, file, sheet or database could
	// not be reached when connecting.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotConnected is returned when an operation needs a handle and the
	// adapter has been disconnected.
	ErrNotConnected = errors.New("not connected")

	// ErrCursorNotOpen is returned when a query is issued without an open cursor.
	ErrCursorNotOpen = errors.New("cursor not open: call Open first")

	// ErrUnknownDriver is returned by the dispatcher for unregistered driver names.
	ErrUnknownDriver = errors.New("unknown driver")

	// ErrUnknownField is returned when a mapping insert names a field missing from the header.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidDataShape is returned when bulk rows are neither sequences nor mappings.
	ErrInvalidDataShape = errors.New("invalid data shape")

	// ErrUnsupported is returned when an adapter lacks the requested operation.
	ErrUnsupported = errors.New("operation not supported")

	// ErrNoTable is returned when a relational uniform read has no table configured.
	ErrNoTable = errors.New("no table configured")

	// ErrReadOnly is returned when writing to a source opened read-only.
	ErrReadOnly = errors.New("source opened read-only")

	// ErrEmptySource is returned when a header is requested from a source with no records.
	ErrEmptySource = errors.New("source has no records")
)

// ConnectionError wraps a failure to open a native connection.
type ConnectionError struct {
	Driver string
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: cannot connect to %s: %v", e.Driver, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports ConnectionError as a kind of ErrSourceUnavailable.
func (e *ConnectionError) Is(target error) bool { return target == ErrSourceUnavailable }

// SheetNotFoundError is returned when a workbook has no sheet with the requested name.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found\nAvailable sheets: %s", e.Sheet, strings.Join(e.Available, ", "))
}

// Is reports SheetNotFoundError as a kind of ErrSourceUnavailable.
func (e *SheetNotFoundError) Is(target error) bool { return target == ErrSourceUnavailable }

// UnknownDriverError is returned when an unknown driver name is requested.
type UnknownDriverError struct {
	Driver    string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown driver %q\nAvailable drivers: %v\nHint: Check the driver of your source in storagy.yaml", e.Driver, e.Available)
}

func (e *UnknownDriverError) Is(target error) bool { return target == ErrUnknownDriver }

// UnknownFieldError names the first mapping key absent from the header.
type UnknownFieldError struct {
	Field  string
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("the key %q doesn't exist in the field list %v", e.Field, e.Fields)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// InvalidDataShapeError reports the Go type that could not be written.
type InvalidDataShapeError struct {
	Got string
}

func (e *InvalidDataShapeError) Error() string {
	return fmt.Sprintf("rows must be sequences or mappings, got %s", e.Got)
}

func (e *InvalidDataShapeError) Is(target error) bool { return target == ErrInvalidDataShape }

// UnsupportedError names the operation a driver does not provide.
type UnsupportedError struct {
	Driver    string
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Driver, e.Operation)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }
