package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ignore []rune
		want   string
		suffix string
	}{
		{"plain triple", "1.2.3", nil, "1.2.3", ""},
		{"major only", "22", nil, "22", ""},
		{"major minor", "8.0", nil, "8.0", ""},
		{"leading text", "java version 21.0.2", nil, "21.0.2", ""},
		{"suffix after triple", "1.8.0_281", nil, "1.8.0 _281", "_281"},
		{"jdk banner", `openjdk version "17.0.10" 2024-01-16 LTS`, []rune{'"'}, "17.0.10 2024-01-16 LTS", "2024-01-16 LTS"},
		{"ignored runes stripped from suffix", `1.2.3 "beta"`, []rune{'"'}, "1.2.3 beta", "beta"},
		{"fourth component becomes suffix", "1.2.3.4", nil, "1.2.3 .4", ".4"},
		{"trailing text before third component dropped", "22 LTS", nil, "22", ""},
		{"whitespace only suffix", "1.2.3   ", nil, "1.2.3", ""},
		{"ignored rune joins digits", `1"2.3`, []rune{'"'}, "12.3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input, tt.ignore...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())

			suffix, ok := v.Suffix()
			assert.Equal(t, tt.suffix, suffix)
			assert.Equal(t, tt.suffix != "", ok)
		})
	}
}

func TestParse_InvalidUTF8SuffixKept(t *testing.T) {
	v, err := Parse("1.2.3 \xff\xfe beta", '"')
	require.NoError(t, err)

	suffix, ok := v.Suffix()
	assert.True(t, ok)
	assert.Equal(t, "\xff\xfe beta", suffix)
	assert.Equal(t, "1.2.3 \xff\xfe beta", v.String())
}

func TestParse_JDKComponents(t *testing.T) {
	v, err := Parse(`openjdk version "17.0.10" 2024-01-16 LTS`, '"')
	require.NoError(t, err)

	assert.Equal(t, uint32(17), v.Major())
	minor, ok := v.Minor()
	assert.True(t, ok)
	assert.Equal(t, uint32(0), minor)
	patch, ok := v.Patch()
	assert.True(t, ok)
	assert.Equal(t, uint32(10), patch)
	suffix, _ := v.Suffix()
	assert.Equal(t, "2024-01-16 LTS", suffix)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("no digits here")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoNumericComponent))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "no digits here", perr.Input)

	_, err = Parse("")
	assert.True(t, errors.Is(err, ErrNoNumericComponent))

	_, err = Parse(`"""`, '"')
	assert.True(t, errors.Is(err, ErrNoNumericComponent))

	_, err = Parse("99999999999")
	assert.True(t, errors.Is(err, ErrOverflow))
}

func TestParse_NeverPatchWithoutMinor(t *testing.T) {
	for _, input := range []string{"1", "1 x", "x1", "1-", "1.2", "1.2.3"} {
		v := MustParse(input)
		_, hasMinor := v.Minor()
		_, hasPatch := v.Patch()
		if hasPatch {
			assert.True(t, hasMinor, "patch without minor for %q", input)
		}
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("none") })
}

func TestVersion_Compare(t *testing.T) {
	alpha := New(1).WithMinor(0).WithPatch(0).WithSuffix("alpha")

	assert.True(t, alpha.Equal(New(1).WithMinor(0).WithPatch(0)))
	assert.Equal(t, 1, alpha.Compare(New(1).WithPatch(0)))
	assert.True(t, alpha.Less(New(1).WithMinor(0).WithPatch(10)))

	tests := []struct {
		a, b Version
		want int
	}{
		{New(1), New(2), -1},
		{New(2), New(1), 1},
		{New(1), New(1).WithMinor(0), -1},
		{New(1).WithMinor(5), New(1).WithMinor(5).WithPatch(0), -1},
		{New(1).WithMinor(5).WithPatch(2), New(1).WithMinor(5).WithPatch(1), 1},
		{New(1).WithPatch(3), New(1).WithPatch(3), 0},
		{New(1).WithSuffix("a"), New(1).WithSuffix("b"), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b), "%v vs %v", tt.a, tt.b)
		assert.Equal(t, -tt.want, tt.b.Compare(tt.a), "%v vs %v", tt.b, tt.a)
	}
}

func TestVersion_Sort(t *testing.T) {
	vs := []Version{
		MustParse("17.0.10"),
		MustParse("1.8.0_281"),
		MustParse("21"),
		MustParse("17"),
		MustParse("17.0"),
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })

	got := make([]string, len(vs))
	for i, v := range vs {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"1.8.0 _281", "17", "17.0", "17.0.10", "21"}, got)
}

func TestVersion_String(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{New(1).WithMinor(0).WithPatch(0).WithSuffix("alpha"), "1.0.0 alpha"},
		{New(1).WithMinor(0).WithSuffix("alpha"), "1.0 alpha"},
		{New(1).WithPatch(0).WithSuffix("alpha"), "1 alpha"},
		{New(1).WithMinor(0).WithPatch(2), "1.0.2"},
		{Version{}, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestVersion_DisplayParseRoundTrip(t *testing.T) {
	suffixes := []string{"", "alpha", "2024-01-16 LTS", "rc 1"}
	for a := uint32(0); a < 30; a += 7 {
		for b := uint32(0); b < 30; b += 9 {
			for c := uint32(0); c < 300; c += 101 {
				for _, s := range suffixes {
					v := New(a).WithMinor(b).WithPatch(c).WithSuffix(s)
					got, err := Parse(v.String())
					require.NoError(t, err)
					assert.True(t, v.Equal(got), fmt.Sprintf("%v != %v", v, got))

					gotSuffix, _ := got.Suffix()
					assert.Equal(t, s, gotSuffix)
				}
			}
		}
	}
}

func TestVersion_JSON(t *testing.T) {
	v := MustParse(`openjdk version "17.0.10" 2024-01-16 LTS`, '"')

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"major":17,"minor":0,"patch":10,"suffix":"2024-01-16 LTS"}`, string(data))

	var back Version
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)

	data, err = json.Marshal(New(22))
	require.NoError(t, err)
	assert.JSONEq(t, `{"major":22}`, string(data))
}

func TestVersion_UnmarshalJSON(t *testing.T) {
	var v Version
	require.NoError(t, json.Unmarshal([]byte(`"21.0.1 LTS"`), &v))
	assert.Equal(t, "21.0.1 LTS", v.String())

	require.NoError(t, json.Unmarshal([]byte(`{"major":1,"patch":4}`), &v))
	_, hasMinor := v.Minor()
	_, hasPatch := v.Patch()
	assert.False(t, hasMinor)
	assert.True(t, hasPatch)

	assert.Error(t, json.Unmarshal([]byte(`{"minor":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`"beta"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
}
