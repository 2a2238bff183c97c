// Package jvm implements JVM tuning setting items.
package jvm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dshills/revlauncher/internal/settings"
)

// Name is the item name used in settings files.
const Name = "memory"

// Defaults applied on first run.
const (
	DefaultMinMB = 512
	DefaultMaxMB = 4096
)

// Memory bounds the JVM heap in megabytes (-Xms / -Xmx).
type Memory struct {
	MinMB uint32 `json:"min_mb"`
	MaxMB uint32 `json:"max_mb"`
}

// Read decodes a persisted Memory value or returns the defaults when data is
// nil.
func Read(data json.RawMessage) (*Memory, error) {
	if data == nil {
		return &Memory{MinMB: DefaultMinMB, MaxMB: DefaultMaxMB}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Memory
	if err := dec.Decode(&m); err != nil {
		return nil, &settings.ParseError{Item: Name, Err: err}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Write implements settings.Item.
func (m *Memory) Write() (json.RawMessage, error) {
	return json.Marshal(m)
}

// Project implements settings.Item.
func (m *Memory) Project() (json.RawMessage, error) {
	return json.Marshal(m)
}

// Apply implements settings.Item. A single value sets the maximum heap;
// ["min", n] and ["max", n] set either bound.
func (m *Memory) Apply(values []string) error {
	next := *m
	switch {
	case len(values) == 1:
		n, err := parseMB(values[0])
		if err != nil {
			return err
		}
		next.MaxMB = n
	case len(values) == 2 && values[0] == "max":
		n, err := parseMB(values[1])
		if err != nil {
			return err
		}
		next.MaxMB = n
	case len(values) == 2 && values[0] == "min":
		n, err := parseMB(values[1])
		if err != nil {
			return err
		}
		next.MinMB = n
	default:
		return settings.Unsupported(Name, values)
	}

	if err := next.validate(); err != nil {
		return err
	}
	*m = next
	return nil
}

// Args renders the heap bounds as JVM command line flags.
func (m *Memory) Args() []string {
	return []string{
		fmt.Sprintf("-Xms%dM", m.MinMB),
		fmt.Sprintf("-Xmx%dM", m.MaxMB),
	}
}

func (m *Memory) validate() error {
	if m.MaxMB == 0 {
		return &settings.ParseError{Item: Name, Message: "max_mb must be positive"}
	}
	if m.MinMB > m.MaxMB {
		return &settings.ParseError{
			Item:    Name,
			Message: fmt.Sprintf("min_mb %d exceeds max_mb %d", m.MinMB, m.MaxMB),
		}
	}
	return nil
}

func parseMB(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, &settings.ParseError{Item: Name, Err: err}
	}
	return uint32(n), nil
}
