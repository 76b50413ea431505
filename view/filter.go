// Package view keeps a fetched collection, its filter criteria, and the
// derived paginated subset consistent with each other and with a navigable
// URL query string.
package view

import (
	"net/url"
	"strings"
)

// Field describes one filterable field of a collection.
type Field struct {
	Name string

	// Exact selects exact-match semantics (enumerated fields such as role).
	// The default is case-insensitive substring matching.
	Exact bool
}

// Schema is the ordered set of filter fields a collection recognizes.
type Schema []Field

// UserFields is the filter schema for user collections.
var UserFields = Schema{
	{Name: "name"},
	{Name: "email"},
	{Name: "address"},
	{Name: "role", Exact: true},
}

// StoreFields is the filter schema for store collections.
var StoreFields = Schema{
	{Name: "name"},
	{Name: "email"},
	{Name: "address"},
	{Name: "owner"},
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FilterState maps a filter-field name to its current value. An empty or
// absent value means "no constraint".
type FilterState map[string]string

// Applied reports whether at least one field is constrained.
func (f FilterState) Applied() bool {
	for _, v := range f {
		if v != "" {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ParseQuery reconstructs a FilterState from a URL query string. Fields the
// schema does not recognize are dropped, as are empty values, so the result
// always re-encodes to a canonical query.
func (s Schema) ParseQuery(raw string) (FilterState, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}

	state := FilterState{}
	for _, f := range s {
		if v := values.Get(f.Name); v != "" {
			state[f.Name] = v
		}
	}
	return state, nil
}

// EncodeQuery serializes a FilterState to a URL query string, omitting empty
// fields. Encoding a state parsed from a query produced here yields the same
// string (round-trip property).
func (s Schema) EncodeQuery(state FilterState) string {
	values := url.Values{}
	for _, f := range s {
		if v := state[f.Name]; v != "" {
			values.Set(f.Name, v)
		}
	}
	return values.Encode()
}

// Filter returns the records satisfying every constrained field of state,
// in their original order. It is a pure function: identical inputs always
// yield an identical sequence. An empty collection yields an empty result
// regardless of state.
func Filter[T any](records []T, state FilterState, schema Schema, field func(T, string) string) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if Matches(r, state, schema, field) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes every constrained field
// (logical AND).
func Matches[T any](record T, state FilterState, schema Schema, field func(T, string) string) bool {
	for _, f := range schema {
		want := state[f.Name]
		if want == "" {
			continue
		}
		got := field(record, f.Name)
		if f.Exact {
			if got != want {
				return false
			}
			continue
		}
		if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
			return false
		}
	}
	return true
}
