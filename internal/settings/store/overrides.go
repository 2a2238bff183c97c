package store

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/settings/schema"
)

// State tells whether a scoped field follows the global store.
type State uint8

const (
	// Inherited fields resolve to the global store's current value.
	Inherited State = iota
	// Overridden fields own an item independent of the global store.
	Overridden
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Inherited:
		return "inherited"
	case Overridden:
		return "overridden"
	default:
		return "unknown"
	}
}

// Field is one scoped field: either Inherited, or Overridden with an item.
type Field struct {
	state State
	item  settings.Item
}

// State returns the field state.
func (f Field) State() State { return f.state }

// Item returns the override, if any.
func (f Field) Item() (settings.Item, bool) {
	return f.item, f.state == Overridden
}

func inherited() Field { return Field{state: Inherited} }

func overridden(item settings.Item) Field { return Field{state: Overridden, item: item} }

// Overrides holds the scoped fields of one workspace.
type Overrides struct {
	schema *schema.Schema
	fields []Field
}

// NewOverrides returns overrides in which every field is inherited.
func NewOverrides(s *schema.Schema) *Overrides {
	o := &Overrides{
		schema: s,
		fields: make([]Field, s.Len()),
	}
	for i := range o.fields {
		o.fields[i] = inherited()
	}
	return o
}

// ReadOverrides decodes a persisted scoped document. Only keys present in doc
// become overrides; a nil doc yields all-inherited overrides.
func ReadOverrides(s *schema.Schema, doc json.RawMessage) (*Overrides, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	o := NewOverrides(s)
	for i := range o.fields {
		f := s.Field(i)
		item, ok, err := settings.ReadOptional(f.Read, fieldData(doc, f.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			o.fields[i] = overridden(item)
		}
	}
	return o, nil
}

// Schema returns the overrides' schema.
func (o *Overrides) Schema() *schema.Schema { return o.schema }

// Field returns the named field.
func (o *Overrides) Field(name string) (Field, error) {
	i, err := o.schema.Lookup(name)
	if err != nil {
		return Field{}, err
	}
	return o.fields[i], nil
}

// Get returns the effective value of the named field: the override's
// projection if present, otherwise the global value.
func (o *Overrides) Get(name string, global *Store) (json.RawMessage, error) {
	i, err := o.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	if item, ok := o.fields[i].Item(); ok {
		return item.Project()
	}
	return global.Get(name)
}

// Change applies a change request to the named field.
//
// An overridden field is changed in place. An inherited field is
// materialized: the global value is copied into a fresh item, the change is
// applied to the copy, and only then does the field become Overridden. The
// global store is never modified, and a failed read or apply leaves the field
// inherited.
func (o *Overrides) Change(name string, values []string, global *Store) error {
	i, err := o.schema.Lookup(name)
	if err != nil {
		return err
	}
	if item, ok := o.fields[i].Item(); ok {
		return item.Apply(values)
	}

	current, err := global.Get(name)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", name, err)
	}
	item, err := o.schema.Field(i).Read(current)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", name, err)
	}
	if err := item.Apply(values); err != nil {
		return err
	}

	o.fields[i] = overridden(item)
	return nil
}

// Reset drops the override for the named field so it follows the global
// store again. It reports whether an override was removed.
func (o *Overrides) Reset(name string) (bool, error) {
	i, err := o.schema.Lookup(name)
	if err != nil {
		return false, err
	}
	was := o.fields[i].state == Overridden
	o.fields[i] = inherited()
	return was, nil
}

// Write returns the persisted document holding only overridden fields.
func (o *Overrides) Write() (json.RawMessage, error) {
	doc := []byte("{}")
	for i, f := range o.fields {
		item, ok := f.Item()
		if !ok {
			continue
		}
		name := o.schema.Field(i).Name()
		raw, err := item.Write()
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		if doc, err = sjson.SetRawBytes(doc, name, raw); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return doc, nil
}

// Resolve returns the effective item for name as its concrete type: the
// override if present, otherwise the global item.
func Resolve[T settings.Item](o *Overrides, name string, global *Store) (T, error) {
	var zero T
	f, err := o.Field(name)
	if err != nil {
		return zero, err
	}
	item, ok := f.Item()
	if !ok {
		return Lookup[T](global, name)
	}
	typed, ok := item.(T)
	if !ok {
		return zero, fmt.Errorf("setting %s is %T, not %T", name, item, zero)
	}
	return typed, nil
}
