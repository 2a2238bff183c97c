package settings

import "encoding/json"

// Item is a single named unit of configuration.
//
// Items are constructed by a Reader: given persisted JSON the reader decodes
// it strictly; given nil it performs first-run initialization, which may
// probe the local environment.
type Item interface {
	// Write returns the persisted form consumed by the item's Reader.
	Write() (json.RawMessage, error)

	// Project returns the externally visible form of the item.
	Project() (json.RawMessage, error)

	// Apply mutates the item from a loosely typed change request.
	// Items that do not support incremental changes return ErrUnsupported.
	Apply(values []string) error
}

// Reader constructs an item from its persisted form, or initializes a
// default when persisted is nil.
type Reader[T Item] func(persisted json.RawMessage) (T, error)

// ReadOptional runs read only when persisted is present. The boolean reports
// whether an item was produced.
func ReadOptional[T Item](read Reader[T], persisted json.RawMessage) (T, bool, error) {
	var zero T
	if persisted == nil {
		return zero, false, nil
	}
	item, err := read(persisted)
	if err != nil {
		return zero, false, err
	}
	return item, true, nil
}
