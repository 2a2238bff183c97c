package jvm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revlauncher/internal/settings"
)

func TestRead(t *testing.T) {
	m, err := Read(nil)
	require.NoError(t, err)
	assert.Equal(t, &Memory{MinMB: DefaultMinMB, MaxMB: DefaultMaxMB}, m)

	m, err = Read(json.RawMessage(`{"min_mb":1024,"max_mb":8192}`))
	require.NoError(t, err)
	assert.Equal(t, &Memory{MinMB: 1024, MaxMB: 8192}, m)

	for _, bad := range []string{
		`{"min_mb":1024}`,
		`{"min_mb":4096,"max_mb":1024}`,
		`{"max_mb":-1}`,
		`{"max_mb":1024,"heap":1}`,
		`[]`,
	} {
		_, err := Read(json.RawMessage(bad))
		assert.True(t, errors.Is(err, settings.ErrParse), "%s: got %v", bad, err)
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	for _, x := range []Memory{{MinMB: 0, MaxMB: 1}, {MinMB: 512, MaxMB: 4096}, {MinMB: 2048, MaxMB: 2048}} {
		data, err := x.Write()
		require.NoError(t, err)

		back, err := Read(data)
		require.NoError(t, err)
		assert.Equal(t, x, *back)
	}
}

func TestMemory_Apply(t *testing.T) {
	m, err := Read(nil)
	require.NoError(t, err)

	require.NoError(t, m.Apply([]string{"8192"}))
	assert.Equal(t, uint32(8192), m.MaxMB)

	require.NoError(t, m.Apply([]string{"min", "1024"}))
	require.NoError(t, m.Apply([]string{"max", "6144"}))
	assert.Equal(t, Memory{MinMB: 1024, MaxMB: 6144}, *m)
	assert.Equal(t, []string{"-Xms1024M", "-Xmx6144M"}, m.Args())

	tests := []struct {
		values []string
		target error
	}{
		{[]string{"lots"}, settings.ErrParse},
		{[]string{"512"}, settings.ErrParse},
		{[]string{"min", "9000"}, settings.ErrParse},
		{[]string{"0"}, settings.ErrParse},
		{[]string{"heap", "1"}, settings.ErrUnsupported},
		{nil, settings.ErrUnsupported},
	}
	for _, tt := range tests {
		err := m.Apply(tt.values)
		assert.True(t, errors.Is(err, tt.target), "%q: got %v", tt.values, err)
	}
	assert.Equal(t, Memory{MinMB: 1024, MaxMB: 6144}, *m, "rejected changes leave the item untouched")
}
