// Package version parses and orders loosely formatted version strings.
//
// Version strings reported by external tools rarely follow semver. The
// parser extracts up to three numeric components from arbitrary text and
// keeps whatever trails them as a free-form suffix:
//
//	v, err := version.Parse(`openjdk version "17.0.10" 2024-01-16 LTS`, '"')
//	// v.String() == "17.0.10 2024-01-16 LTS"
//
// Equality and ordering only look at the numeric components.
package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors returned by Parse.
var (
	// ErrNoNumericComponent indicates the input contained no digits.
	ErrNoNumericComponent = errors.New("no numeric component")

	// ErrOverflow indicates a numeric component does not fit in 32 bits.
	ErrOverflow = errors.New("numeric component overflows uint32")
)

// ParseError describes a failed parse.
type ParseError struct {
	// Input is the text that failed to parse.
	Input string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse version %q: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Version is a parsed version. The zero value is version 0.
type Version struct {
	major    uint32
	minor    uint32
	patch    uint32
	hasMinor bool
	hasPatch bool
	suffix   string
}

// New returns a version with only a major component.
func New(major uint32) Version {
	return Version{major: major}
}

// WithMinor returns a copy of v with the minor component set.
func (v Version) WithMinor(minor uint32) Version {
	v.minor = minor
	v.hasMinor = true
	return v
}

// WithPatch returns a copy of v with the patch component set.
func (v Version) WithPatch(patch uint32) Version {
	v.patch = patch
	v.hasPatch = true
	return v
}

// WithSuffix returns a copy of v with the suffix set.
// An empty suffix clears it.
func (v Version) WithSuffix(suffix string) Version {
	v.suffix = suffix
	return v
}

// Major returns the major component.
func (v Version) Major() uint32 { return v.major }

// Minor returns the minor component and whether it is present.
func (v Version) Minor() (uint32, bool) { return v.minor, v.hasMinor }

// Patch returns the patch component and whether it is present.
func (v Version) Patch() (uint32, bool) { return v.patch, v.hasPatch }

// Suffix returns the trailing text and whether it is present.
func (v Version) Suffix() (string, bool) { return v.suffix, v.suffix != "" }

// Parse extracts a version from free-form text. Runes listed in ignore are
// skipped entirely, as if they were not part of the input.
func Parse(input string, ignore ...rune) (Version, error) {
	var (
		comps  [3]uint32
		count  int
		inRun  bool
		suffix strings.Builder
	)

	skip := func(r rune) bool {
		for _, c := range ignore {
			if c == r {
				return true
			}
		}
		return false
	}

	for i, r := range input {
		if skip(r) {
			continue
		}

		if r >= '0' && r <= '9' {
			if !inRun {
				count++
				inRun = true
			}
			n := uint64(comps[count-1])*10 + uint64(r-'0')
			if n > uint64(^uint32(0)) {
				return Version{}, &ParseError{Input: input, Err: ErrOverflow}
			}
			comps[count-1] = uint32(n)
			continue
		}

		inRun = false
		if count == len(comps) {
			writeSuffix(&suffix, input[i:], skip)
			break
		}
	}

	if count == 0 {
		return Version{}, &ParseError{Input: input, Err: ErrNoNumericComponent}
	}

	v := New(comps[0])
	if count > 1 {
		v = v.WithMinor(comps[1])
	}
	if count > 2 {
		v = v.WithPatch(comps[2])
	}
	return v.WithSuffix(strings.TrimSpace(suffix.String())), nil
}

// MustParse is like Parse but panics on error.
func MustParse(input string, ignore ...rune) Version {
	v, err := Parse(input, ignore...)
	if err != nil {
		panic(err)
	}
	return v
}

// writeSuffix copies rest into b without ignored runes. Invalid UTF-8 bytes
// are copied unchanged.
func writeSuffix(b *strings.Builder, rest string, skip func(rune) bool) {
	for len(rest) > 0 {
		r, size := utf8.DecodeRuneInString(rest)
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(rest[0])
		} else if !skip(r) {
			b.WriteString(rest[:size])
		}
		rest = rest[size:]
	}
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after other. An absent minor or patch sorts before any present value.
// Suffixes are ignored.
func (v Version) Compare(other Version) int {
	if c := compareUint(v.major, other.major); c != 0 {
		return c
	}
	if c := compareOptional(v.minor, v.hasMinor, other.minor, other.hasMinor); c != 0 {
		return c
	}
	return compareOptional(v.patch, v.hasPatch, other.patch, other.hasPatch)
}

// Equal reports whether v and other have the same numeric components.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func compareOptional(a uint32, hasA bool, b uint32, hasB bool) int {
	switch {
	case hasA && hasB:
		return compareUint(a, b)
	case hasA:
		return 1
	case hasB:
		return -1
	default:
		return 0
	}
}

func compareUint(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the version as major[.minor[.patch]] followed by a space
// and the suffix, if any.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(v.major), 10))
	if v.hasMinor {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(v.minor), 10))
		if v.hasPatch {
			b.WriteByte('.')
			b.WriteString(strconv.FormatUint(uint64(v.patch), 10))
		}
	}
	if v.suffix != "" {
		b.WriteByte(' ')
		b.WriteString(v.suffix)
	}
	return b.String()
}

// jsonVersion is the persisted form of a Version.
type jsonVersion struct {
	Major  *uint32 `json:"major"`
	Minor  *uint32 `json:"minor,omitempty"`
	Patch  *uint32 `json:"patch,omitempty"`
	Suffix string  `json:"suffix,omitempty"`
}

// MarshalJSON encodes the version as an object with absent components omitted.
func (v Version) MarshalJSON() ([]byte, error) {
	out := jsonVersion{Major: &v.major, Suffix: v.suffix}
	if v.hasMinor {
		out.Minor = &v.minor
	}
	if v.hasPatch {
		out.Patch = &v.patch
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes either the object form written by MarshalJSON or a
// plain string, which is run through Parse.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var in jsonVersion
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Major == nil {
		return fmt.Errorf("version: missing major component")
	}

	parsed := New(*in.Major).WithSuffix(in.Suffix)
	if in.Minor != nil {
		parsed = parsed.WithMinor(*in.Minor)
	}
	if in.Patch != nil {
		parsed = parsed.WithPatch(*in.Patch)
	}
	*v = parsed
	return nil
}
