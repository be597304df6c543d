package header

import (
	"net/http"
	"slices"
	"strings"
)

// Map holds request headers keyed by their lower-cased name. Values are kept
// in arrival order. The zero value is an empty, read-only map; use Collect or
// make to obtain a writable one.
//
// Indexing the map directly requires a lower-cased key. The methods accept
// names in any case.
type Map map[string][]string

// Key normalizes a header name into the form used as a Map key.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Collect builds a Map from raw header fields, preserving the order of
// repeated names.
func Collect(fields []Field) Map {
	m := make(Map, len(fields))
	for _, f := range fields {
		m.Add(f.Name, f.Value)
	}
	return m
}

// FromHTTP builds a Map from a net/http header. Values are copied.
func FromHTTP(h http.Header) Map {
	m := make(Map, len(h))
	for name, values := range h {
		k := Key(name)
		m[k] = append(m[k], values...)
	}
	return m
}

// Get returns the first value associated with the name, or an empty string
// if the header is absent.
func (m Map) Get(name string) string {
	if v := m[Key(name)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Lookup returns the first value associated with the name and whether the
// header is present at all. A header that is present without any value
// reports an empty string and true.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[Key(name)]
	if !ok {
		return "", false
	}
	if len(v) == 0 {
		return "", true
	}
	return v[0], true
}

// Values returns all values associated with the name, in arrival order. The
// returned slice is the live backing slice.
func (m Map) Values(name string) []string {
	return m[Key(name)]
}

// Joined returns all values associated with the name joined by ", ", which
// is the equivalent single-line form of a list-valued header.
func (m Map) Joined(name string) (string, bool) {
	v, ok := m[Key(name)]
	if !ok {
		return "", false
	}
	return strings.Join(v, ", "), true
}

// Has reports whether the header is present.
func (m Map) Has(name string) bool {
	_, ok := m[Key(name)]
	return ok
}

// Add appends a value to the header.
func (m Map) Add(name, value string) {
	k := Key(name)
	m[k] = append(m[k], value)
}

// Set replaces all values of the header with a single value.
func (m Map) Set(name, value string) {
	m[Key(name)] = []string{value}
}

// Del removes the header.
func (m Map) Del(name string) {
	delete(m, Key(name))
}

// Names returns the lower-cased names of all present headers, sorted.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
