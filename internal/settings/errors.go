package settings

import (
	"errors"
	"fmt"
)

// Errors returned by settings operations.
var (
	// ErrNotFound indicates an unknown item name.
	ErrNotFound = errors.New("setting not found")

	// ErrScopeNotFound indicates an unknown scope id.
	ErrScopeNotFound = errors.New("scope not found")

	// ErrParse indicates malformed persisted or user-supplied text.
	ErrParse = errors.New("parse error")

	// ErrIO indicates a file could not be opened, read or written.
	ErrIO = errors.New("i/o error")

	// ErrUnsupported indicates an item refuses the requested change.
	ErrUnsupported = errors.New("unsupported change")
)

// ParseError represents malformed input for a setting item.
type ParseError struct {
	// Path is the file the input came from (empty for change requests).
	Path string
	// Item is the setting item name, if known.
	Item string
	// Message describes the problem.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var where string
	switch {
	case e.Path != "" && e.Item != "":
		where = fmt.Sprintf(" in %s (%s)", e.Path, e.Item)
	case e.Path != "":
		where = " in " + e.Path
	case e.Item != "":
		where = " for " + e.Item
	}

	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("parse error%s: %s", where, msg)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements error matching for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// IOError represents a failed file operation.
type IOError struct {
	Op   string // "read", "write", "mkdir", ...
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is implements error matching for IOError.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NotFound returns an error wrapping ErrNotFound for the given item name.
func NotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// ScopeNotFound returns an error wrapping ErrScopeNotFound for the given id.
func ScopeNotFound(id int) error {
	return fmt.Errorf("%w: %d", ErrScopeNotFound, id)
}

// Unsupported returns an error wrapping ErrUnsupported.
func Unsupported(item string, values []string) error {
	return fmt.Errorf("%w: %s %q", ErrUnsupported, item, values)
}
