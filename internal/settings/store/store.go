// Package store resolves setting items by name.
//
// Store is the global, exhaustive set of items: every schema field always
// holds a value. Overrides is a scoped set in which each field either
// inherits the global value or holds an explicit override.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/settings/schema"
)

// Store holds one item per schema field.
type Store struct {
	schema *schema.Schema
	items  []settings.Item
}

// New initializes every field as on first run.
func New(s *schema.Schema) (*Store, error) {
	return Read(s, nil)
}

// Read decodes a persisted store document. Fields missing from doc (or set
// to null) are initialized as on first run. A nil doc initializes every field.
func Read(s *schema.Schema, doc json.RawMessage) (*Store, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	st := &Store{
		schema: s,
		items:  make([]settings.Item, s.Len()),
	}
	for i := range st.items {
		f := s.Field(i)
		item, err := f.Read(fieldData(doc, f.Name()))
		if err != nil {
			return nil, err
		}
		st.items[i] = item
	}
	return st, nil
}

// Schema returns the store's schema.
func (st *Store) Schema() *schema.Schema { return st.schema }

// Get returns the projected value of the named item.
func (st *Store) Get(name string) (json.RawMessage, error) {
	i, err := st.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	return st.items[i].Project()
}

// Change applies a change request to the named item. The caller is
// responsible for persisting the store afterwards.
func (st *Store) Change(name string, values []string) error {
	i, err := st.schema.Lookup(name)
	if err != nil {
		return err
	}
	return st.items[i].Apply(values)
}

// Write returns the persisted document holding every item.
func (st *Store) Write() (json.RawMessage, error) {
	doc := []byte("{}")
	for i, item := range st.items {
		name := st.schema.Field(i).Name()
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

// Lookup returns the named item as its concrete type.
func Lookup[T settings.Item](st *Store, name string) (T, error) {
	var zero T
	i, err := st.schema.Lookup(name)
	if err != nil {
		return zero, err
	}
	item, ok := st.items[i].(T)
	if !ok {
		return zero, fmt.Errorf("setting %s is %T, not %T", name, st.items[i], zero)
	}
	return item, nil
}

// validateDocument accepts nil or a JSON object.
func validateDocument(doc json.RawMessage) error {
	if doc == nil {
		return nil
	}
	if !gjson.ValidBytes(doc) {
		return &settings.ParseError{Message: "invalid JSON"}
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return &settings.ParseError{Message: "settings document must be a JSON object"}
	}
	return nil
}

// fieldData extracts the raw value stored under name, or nil when the key is
// absent or null.
func fieldData(doc json.RawMessage, name string) json.RawMessage {
	if doc == nil {
		return nil
	}
	r := gjson.GetBytes(doc, name)
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	return json.RawMessage(r.Raw)
}
