// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package param resolves query and form parameters for the request adapter.
//
// A Source is supplied from outside the adapter; Values is the stock
// implementation, built from a raw query string, a net/http request or
// fasthttp arguments. The typed helpers in this package never fail for a
// missing parameter and never modify the source.
package param

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Source exposes already decoded request parameters.
type Source interface {
	// Lookup returns the first value of the named parameter and whether it
	// is present.
	Lookup(name string) (string, bool)
	// Values returns all values of the named parameter in order, or nil.
	Values(name string) []string
	// All returns every parameter.
	All() map[string][]string
}

// Values is a Source backed by a map of decoded parameters. Names are
// case-sensitive.
type Values map[string][]string

var _ Source = Values(nil)

// Lookup implements Source.
func (v Values) Lookup(name string) (string, bool) {
	if vs := v[name]; len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

// Values implements Source. The returned slice is a copy.
func (v Values) Values(name string) []string {
	return slices.Clone(v[name])
}

// All implements Source. The returned map and its slices are copies.
func (v Values) All() map[string][]string {
	m := make(map[string][]string, len(v))
	for k, vs := range v {
		m[k] = slices.Clone(vs)
	}
	return m
}

// Parse decodes a raw query string. Malformed pairs are silently discarded
// while the well-formed ones are kept.
func Parse(query string) Values {
	q, _ := url.ParseQuery(query)
	return Values(q)
}

// FromHTTP collects the query parameters of r. If the caller has already
// parsed the request body (r.PostForm is non-nil), the form values are
// appended after the query values. The body is never read here.
func FromHTTP(r *http.Request) Values {
	v := Parse(r.URL.RawQuery)
	if r.PostForm != nil {
		v = Merge(v, Values(r.PostForm))
	}
	return v
}

// Merge combines several sources into a new Values. Values of the same name
// are concatenated in argument order.
func Merge(sources ...Values) Values {
	m := make(Values)
	for _, s := range sources {
		for _, k := range slices.Sorted(maps.Keys(s)) {
			m[k] = append(m[k], s[k]...)
		}
	}
	return m
}

// String returns the named parameter, or def if it is absent.
func String(s Source, name, def string) string {
	if v, ok := s.Lookup(name); ok {
		return v
	}
	return def
}

// Int parses the named parameter as a base-10 integer. It reports false if
// the parameter is absent or not a valid integer.
func Int(s Source, name string) (int, bool) {
	v, ok := s.Lookup(name)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

// IntOr is like Int, but returns def instead of reporting failure.
func IntOr(s Source, name string, def int) int {
	if i, ok := Int(s, name); ok {
		return i
	}
	return def
}

// Bool parses the named parameter as a boolean. Besides the forms accepted
// by strconv.ParseBool, "on", "yes", "off" and "no" are recognized, in any
// case. It reports false as second result if the parameter is absent or
// unrecognized.
func Bool(s Source, name string) (bool, bool) {
	v, ok := s.Lookup(name)
	if !ok {
		return false, false
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "on", "yes":
		return true, true
	case "off", "no":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// BoolOr is like Bool, but returns def instead of reporting failure.
func BoolOr(s Source, name string, def bool) bool {
	if b, ok := Bool(s, name); ok {
		return b
	}
	return def
}
