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

// Package header provides the low-level building blocks for reading HTTP
// request headers as they arrive from a transport.
//
// The package includes helpers for common header-related tasks, such as:
//   - Collecting raw name/value pairs into a case-insensitive Map.
//   - Splitting weighted-preference headers (Accept, Accept-Language, ...)
//     into elements carrying a quality factor and auxiliary parameters.
//   - Deciding whether a token is acceptable under such a header.
//
// Parsing never fails: malformed input degrades to documented defaults.
package header

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Field is a single raw header line as produced by a transport, before any
// normalization. The order of fields in a request is significant.
type Field struct {
	Name  string // Name is the header name exactly as received.
	Value string // Value is the raw header value.
}

// String formats the field as "Name: Value".
func (f Field) String() string {
	return f.Name + ": " + f.Value
}

// Param represents a single key-value pair attached to a header element,
// such as "level=1" in "text/html;level=1".
type Param struct {
	// Key is the parameter's key, always converted to lower-case.
	Key string
	// Value is the parameter's value, stripped of surrounding quotes. It is
	// empty if the parameter is a flag.
	Value string
}

// String formats the parameter back into its standard string representation.
// If the value is empty, it returns only the key.
func (p Param) String() string {
	if p.Value == "" {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// Element is one comma-separated entry of a weighted-preference header.
type Element struct {
	// Value is the primary token, e.g. "text/html" or "en-gb".
	Value string
	// Q is the quality factor in the range [0, 1].
	Q float64
	// Params holds every parameter except the quality factor, in order.
	Params []Param
}

// DefaultQuality is assigned to elements without a (valid) q-factor.
const DefaultQuality = 1.0

// Elements splits a weighted-preference header value into its elements, in
// the order they appear. Empty segments are skipped.
//
// The parameter named "q" (case-insensitive) supplies the quality factor. A
// missing or malformed q-factor yields DefaultQuality; values outside [0, 1]
// are clamped. All other parameters are kept on the element.
func Elements(value string) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for part := range strings.SplitSeq(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !yield(element(part)) {
				return
			}
		}
	}
}

func element(part string) Element {
	value, rest, _ := strings.Cut(part, ";")
	e := Element{
		Value: strings.TrimSpace(value),
		Q:     DefaultQuality,
	}
	for rest != "" {
		var p string
		p, rest, _ = strings.Cut(rest, ";")
		k, v, _ := strings.Cut(p, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		v = unquote(strings.TrimSpace(v))
		if k == "q" {
			e.Q = quality(v)
			continue
		}
		e.Params = append(e.Params, Param{Key: k, Value: v})
	}
	return e
}

// quality parses a q-factor, falling back to DefaultQuality.
func quality(s string) float64 {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(q) {
		return DefaultQuality
	}
	return min(max(q, 0), 1)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Preferences parses a header value with quality factors (e.g., Accept,
// Accept-Language) into an iterator of quality factors (q-value) by key. The
// values are yielded in the order they appear in the header, not sorted by
// quality. Values without an explicit q-factor are assigned a default quality
// of 1.0. Malformed q-factors are also treated as 1.0.
func Preferences(value string) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		for e := range Elements(value) {
			if !yield(e.Value, e.Q) {
				return
			}
		}
	}
}

// Accepts checks if the given key is acceptable under a header value with
// quality factors (e.g., Accept, Accept-Encoding). Keys are compared without
// regard to case.
//
// The most specific matching element decides: an exact match beats a
// partial wildcard ("text/*"), which beats a global wildcard ("*/*" or "*").
// The key is accepted only if that element's quality factor is greater than
// zero.
func Accepts(value, key string) bool {
	key = strings.ToLower(key)
	prefix, _, typed := strings.Cut(key, "/")

	best, q := -1, 0.0
	for k, w := range Preferences(value) {
		k = strings.ToLower(k)
		rank := -1
		switch {
		case k == key:
			rank = 2
		case typed && k == prefix+"/*":
			rank = 1
		case k == "*" || k == "*/*":
			rank = 0
		}
		if rank > best {
			best, q = rank, w
		}
	}
	return best >= 0 && q > 0
}
