// Package schema describes the fields of a settings store.
//
// A Schema is an ordered table of field descriptors. Each descriptor binds an
// item name to the strongly typed reader of that item; stores dispatch every
// get, change, read and write through the table instead of per-field code.
//
//	s := schema.MustNew(
//	    schema.Field(java.Name, detector.Read),
//	    schema.Field(jvm.Name, jvm.Read),
//	)
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/dshills/revlauncher/internal/settings"
)

var (
	// ErrDuplicateField indicates two descriptors share a name.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrInvalidName indicates a field name that cannot be used as a JSON key path.
	ErrInvalidName = errors.New("invalid field name")
)

// Names double as gjson/sjson paths, so they must not contain path syntax.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Descriptor binds an item name to its reader.
type Descriptor struct {
	name string
	read func(json.RawMessage) (settings.Item, error)
}

// Field creates a descriptor for the item type read by read.
func Field[T settings.Item](name string, read settings.Reader[T]) Descriptor {
	return Descriptor{
		name: name,
		read: func(data json.RawMessage) (settings.Item, error) {
			item, err := read(data)
			if err != nil {
				return nil, err
			}
			return item, nil
		},
	}
}

// Name returns the item name.
func (d Descriptor) Name() string { return d.name }

// Read constructs the item from its persisted form, or initializes it when
// data is nil. Errors are annotated with the item name.
func (d Descriptor) Read(data json.RawMessage) (settings.Item, error) {
	item, err := d.read(data)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.name, err)
	}
	return item, nil
}

// Schema is an ordered, indexed set of field descriptors.
type Schema struct {
	fields []Descriptor
	index  map[string]int
}

// New builds a schema. Field order is preserved.
func New(fields ...Descriptor) (*Schema, error) {
	s := &Schema{
		fields: make([]Descriptor, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if !namePattern.MatchString(f.name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, f.name)
		}
		if f.read == nil {
			return nil, fmt.Errorf("field %s: nil reader", f.name)
		}
		if _, exists := s.index[f.name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.name)
		}
		s.index[f.name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew is like New but panics on error.
// Useful for schemas declared at init time.
func MustNew(fields ...Descriptor) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the descriptor at position i.
func (s *Schema) Field(i int) Descriptor { return s.fields[i] }

// Lookup returns the position of the named field, or ErrNotFound.
func (s *Schema) Lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, settings.NotFound(name)
	}
	return i, nil
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}
