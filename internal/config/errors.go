package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration loading.
var (
	// ErrTypeMismatch indicates the value type doesn't match the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed indicates a value is out of range or empty.
	ErrValidationFailed = errors.New("validation failed")
)

// TypeError reports a configuration value of the wrong kind.
type TypeError struct {
	Key    string
	Source Source // layer the value came from
	Want   string
	Got    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("config %s from %s: want %s, got %s", e.Key, e.Source, e.Want, e.Got)
}

// Is matches ErrTypeMismatch.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ValidationError reports a value that decoded but cannot be used.
type ValidationError struct {
	Key    string
	Source Source
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s from %s: %s (got %v)", e.Key, e.Source, e.Reason, e.Value)
}

// Is matches ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// attribute fills in the source layer of a key error.
func attribute(err error, sources map[string]Source) error {
	var te *TypeError
	if errors.As(err, &te) {
		te.Source = sources[te.Key]
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Source = sources[ve.Key]
	}
	return err
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
