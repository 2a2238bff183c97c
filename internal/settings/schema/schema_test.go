package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revlauncher/internal/settings"
)

type flag struct{ On bool }

func (f *flag) Write() (json.RawMessage, error)   { return json.Marshal(f) }
func (f *flag) Project() (json.RawMessage, error) { return json.Marshal(f) }
func (f *flag) Apply([]string) error              { f.On = !f.On; return nil }

func readFlag(data json.RawMessage) (*flag, error) {
	f := &flag{}
	if data == nil {
		return f, nil
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, &settings.ParseError{Item: "flag", Err: err}
	}
	return f, nil
}

func TestNew(t *testing.T) {
	s, err := New(Field("b", readFlag), Field("a", readFlag), Field("c_2", readFlag))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"b", "a", "c_2"}, s.Names())

	i, err := s.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, "a", s.Field(i).Name())

	_, err = s.Lookup("nonexistent")
	assert.True(t, errors.Is(err, settings.ErrNotFound))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(Field("a", readFlag), Field("a", readFlag))
	assert.True(t, errors.Is(err, ErrDuplicateField))

	for _, name := range []string{"", "a.b", "x*", "1st", "with space"} {
		_, err := New(Field(name, readFlag))
		assert.True(t, errors.Is(err, ErrInvalidName), "name %q", name)
	}

	_, err = New(Descriptor{name: "nil"})
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(Field("a", readFlag), Field("a", readFlag)) })
}

func TestDescriptor_Read(t *testing.T) {
	d := Field("flag", readFlag)

	item, err := d.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, &flag{}, item)

	item, err = d.Read(json.RawMessage(`{"On":true}`))
	require.NoError(t, err)
	assert.Equal(t, &flag{On: true}, item)

	_, err = d.Read(json.RawMessage(`{"On":1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, settings.ErrParse))
	assert.Contains(t, err.Error(), "read flag")
}
