package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/settings/java"
	"github.com/dshills/revlauncher/internal/settings/jvm"
	"github.com/dshills/revlauncher/internal/settings/schema"
)

func testDetector() *java.Detector {
	banners := map[string]string{
		"/usr/bin/java":   `openjdk version "17.0.10" 2024-01-16 LTS`,
		"/jdk21/bin/java": `openjdk version "21.0.2" 2024-01-16 LTS`,
	}
	return &java.Detector{
		LookPath: func(string) (string, error) { return "/usr/bin/java", nil },
		Run: func(_ context.Context, path string) (string, error) {
			if b, ok := banners[path]; ok {
				return b, nil
			}
			return "", errors.New("not executable")
		},
	}
}

func testSchema() *schema.Schema {
	return schema.MustNew(
		schema.Field(java.Name, testDetector().Read),
		schema.Field(jvm.Name, jvm.Read),
	)
}

func TestStore_New(t *testing.T) {
	st, err := New(testSchema())
	require.NoError(t, err)

	got, err := st.Get("java")
	require.NoError(t, err)
	assert.JSONEq(t, `{"versions":[{"path":"/usr/bin/java","version":{"major":17,"minor":0,"patch":10,"suffix":"2024-01-16 LTS"}}],"select":0}`, string(got))

	got, err = st.Get("memory")
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_mb":512,"max_mb":4096}`, string(got))
}

func TestStore_ReadMissingKeysInitialize(t *testing.T) {
	st, err := Read(testSchema(), json.RawMessage(`{"memory":{"min_mb":1,"max_mb":2},"java":null,"unknown":1}`))
	require.NoError(t, err)

	mem, err := Lookup[*jvm.Memory](st, "memory")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), mem.MaxMB)

	jv, err := Lookup[*java.Versions](st, "java")
	require.NoError(t, err)
	assert.Len(t, jv.Installations, 1, "null java key triggers detection")
}

func TestStore_ReadErrors(t *testing.T) {
	for _, doc := range []string{`{`, `[]`, `"x"`, `{"memory":{"max_mb":"big"}}`} {
		_, err := Read(testSchema(), json.RawMessage(doc))
		assert.True(t, errors.Is(err, settings.ErrParse), "%s: got %v", doc, err)
	}
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := testSchema()
	st, err := New(s)
	require.NoError(t, err)
	require.NoError(t, st.Change("memory", []string{"min", "1024"}))
	require.NoError(t, st.Change("java", []string{"add", "/jdk8/bin/java", "1.8.0_281"}))

	doc, err := st.Write()
	require.NoError(t, err)

	back, err := Read(s, doc)
	require.NoError(t, err)
	again, err := back.Write()
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(again))
}

func TestStore_GetChangeUnknown(t *testing.T) {
	st, err := New(testSchema())
	require.NoError(t, err)

	_, err = st.Get("nonexistent")
	assert.True(t, errors.Is(err, settings.ErrNotFound))

	err = st.Change("nonexistent", []string{"x"})
	assert.True(t, errors.Is(err, settings.ErrNotFound))

	err = st.Change("memory", []string{"bogus", "verb"})
	assert.True(t, errors.Is(err, settings.ErrUnsupported))
}

func TestLookup_WrongType(t *testing.T) {
	st, err := New(testSchema())
	require.NoError(t, err)

	_, err = Lookup[*jvm.Memory](st, "java")
	assert.Error(t, err)

	_, err = Lookup[*jvm.Memory](st, "nonexistent")
	assert.True(t, errors.Is(err, settings.ErrNotFound))
}

func TestOverrides_InheritUntilFirstChange(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)
	v1, err := global.Get("java")
	require.NoError(t, err)

	scoped := NewOverrides(s)
	got, err := scoped.Get("java", global)
	require.NoError(t, err)
	assert.JSONEq(t, string(v1), string(got))

	// live changes to global are visible while inherited
	require.NoError(t, global.Change("memory", []string{"8192"}))
	got, err = scoped.Get("memory", global)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_mb":512,"max_mb":8192}`, string(got))

	f, err := scoped.Field("memory")
	require.NoError(t, err)
	assert.Equal(t, Inherited, f.State())
}

func TestOverrides_MaterializeOnWrite(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)
	v1, err := global.Get("java")
	require.NoError(t, err)

	scoped := NewOverrides(s)
	require.NoError(t, scoped.Change("java", []string{"/jdk21/bin/java"}, global))

	f, err := scoped.Field("java")
	require.NoError(t, err)
	assert.Equal(t, Overridden, f.State())

	scopedValue, err := scoped.Get("java", global)
	require.NoError(t, err)
	jv, err := Resolve[*java.Versions](scoped, "java", global)
	require.NoError(t, err)
	require.Len(t, jv.Installations, 2)
	assert.Equal(t, "/usr/bin/java", jv.Installations[0].Path, "override starts as a copy of global")
	assert.Equal(t, "/jdk21/bin/java", jv.Installations[1].Path)

	globalValue, err := global.Get("java")
	require.NoError(t, err)
	assert.JSONEq(t, string(v1), string(globalValue), "global unaffected by scoped change")
	assert.NotEqual(t, string(globalValue), string(scopedValue))

	// detached: later global changes no longer show through
	require.NoError(t, global.Change("java", []string{"remove", "/usr/bin/java"}))
	again, err := scoped.Get("java", global)
	require.NoError(t, err)
	assert.JSONEq(t, string(scopedValue), string(again))

	// subsequent scoped changes mutate the override in place
	require.NoError(t, scoped.Change("java", []string{"select", "1"}, global))
	assert.Equal(t, 1, jv.Selected)
}

func TestOverrides_FailedMaterializeStaysInherited(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)
	scoped := NewOverrides(s)

	err = scoped.Change("memory", []string{"not-a-number"}, global)
	assert.True(t, errors.Is(err, settings.ErrParse))

	f, err := scoped.Field("memory")
	require.NoError(t, err)
	assert.Equal(t, Inherited, f.State())

	doc, err := scoped.Write()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(doc))
}

func TestOverrides_Unknown(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)
	scoped := NewOverrides(s)

	_, err = scoped.Get("nonexistent", global)
	assert.True(t, errors.Is(err, settings.ErrNotFound))
	err = scoped.Change("nonexistent", []string{"x"}, global)
	assert.True(t, errors.Is(err, settings.ErrNotFound))
	_, err = scoped.Reset("nonexistent")
	assert.True(t, errors.Is(err, settings.ErrNotFound))
	_, err = scoped.Field("nonexistent")
	assert.True(t, errors.Is(err, settings.ErrNotFound))
}

func TestOverrides_WriteOnlyOverridden(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)

	scoped := NewOverrides(s)
	require.NoError(t, scoped.Change("memory", []string{"2048"}, global))

	doc, err := scoped.Write()
	require.NoError(t, err)
	assert.JSONEq(t, `{"memory":{"min_mb":512,"max_mb":2048}}`, string(doc))

	back, err := ReadOverrides(s, doc)
	require.NoError(t, err)
	f, err := back.Field("java")
	require.NoError(t, err)
	assert.Equal(t, Inherited, f.State())
	f, err = back.Field("memory")
	require.NoError(t, err)
	assert.Equal(t, Overridden, f.State())
}

func TestOverrides_Reset(t *testing.T) {
	s := testSchema()
	global, err := New(s)
	require.NoError(t, err)

	scoped, err := ReadOverrides(s, json.RawMessage(`{"memory":{"min_mb":256,"max_mb":1024}}`))
	require.NoError(t, err)

	removed, err := scoped.Reset("memory")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = scoped.Reset("memory")
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := scoped.Get("memory", global)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_mb":512,"max_mb":4096}`, string(got))
}

func TestReadOverrides_Errors(t *testing.T) {
	s := testSchema()
	_, err := ReadOverrides(s, json.RawMessage(`{"memory":{"min_mb":9,"max_mb":1}}`))
	assert.True(t, errors.Is(err, settings.ErrParse))

	_, err = ReadOverrides(s, json.RawMessage(`not json`))
	assert.True(t, errors.Is(err, settings.ErrParse))

	o, err := ReadOverrides(s, nil)
	require.NoError(t, err)
	doc, err := o.Write()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(doc))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "inherited", Inherited.String())
	assert.Equal(t, "overridden", Overridden.String())
	assert.Equal(t, "unknown", State(9).String())
}
