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

// Package negotiate resolves client content-negotiation preferences from the
// Accept, Accept-Language, Accept-Charset and Accept-Encoding headers.
//
// Every header is parsed the same way: the comma-separated entries are
// weighted by their q-factor and sorted by descending weight, keeping the
// original left-to-right order among entries of equal weight. A missing
// header yields a single wildcard entry, so callers never see an empty
// preference list for an absent header.
//
// # Usage
//
//	h := header.Collect(fields)
//	for _, v := range negotiate.MediaTypes(h) {
//		fmt.Println(v) // text/html;level=1, text/html;q=0.7, ...
//	}
//	if negotiate.Accepts(h, "application/json") {
//		// ...
//	}
//
// Nothing is cached: each call re-parses the current header value.
package negotiate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/deep-rent/inbound/header"
)

// Wildcards substituted for absent headers.
const (
	Any     = "*"      // Any language, charset or encoding.
	AnyType = "*/*"    // Any media type.
	AnyText = "text/*" // Any textual media type.
)

// Value is a single weighted entry of a preference header.
type Value struct {
	// Value is the primary token as sent by the client.
	Value string
	// Q is the quality factor in the range [0, 1].
	Q float64
	// Params holds the auxiliary parameters, excluding the q-factor.
	Params []header.Param
}

// Param returns the value of the auxiliary parameter with the given key.
func (v Value) Param(key string) (string, bool) {
	return param(v.Params, key)
}

// MediaType interprets the entry as a media range.
func (v Value) MediaType() MediaType {
	return newMediaType(v.Value, v.Params)
}

// String formats the entry in header syntax. The q-factor is only rendered
// if it differs from the default.
func (v Value) String() string {
	var b strings.Builder
	b.WriteString(v.Value)
	writeParams(&b, v.Params)
	if v.Q != header.DefaultQuality {
		b.WriteString(";q=")
		b.WriteString(strconv.FormatFloat(v.Q, 'g', -1, 64))
	}
	return b.String()
}

// List is a ranked sequence of preferences, most preferred first.
type List []Value

// First returns the most preferred entry, if any.
func (l List) First() (Value, bool) {
	if len(l) == 0 {
		return Value{}, false
	}
	return l[0], true
}

// Values returns the primary tokens in ranked order.
func (l List) Values() []string {
	s := make([]string, len(l))
	for i, v := range l {
		s[i] = v.Value
	}
	return s
}

// Strings returns every entry formatted in header syntax, in ranked order.
func (l List) Strings() []string {
	s := make([]string, len(l))
	for i, v := range l {
		s[i] = v.String()
	}
	return s
}

// Rank parses a weighted-preference header value and orders its entries by
// descending q-factor. Entries of equal weight retain their original order.
// Malformed q-factors count as 1.0. Rank never fails; an empty value yields an
// empty list.
func Rank(value string) List {
	var l List
	for e := range header.Elements(value) {
		l = append(l, Value{Value: e.Value, Q: e.Q, Params: e.Params})
	}
	slices.SortStableFunc(l, func(a, b Value) int {
		return cmp.Compare(b.Q, a.Q)
	})
	return l
}

// rank reads and ranks the named header. If the header is absent, the list
// contains the fallback wildcard with full weight.
func rank(h header.Map, name, fallback string) List {
	raw, ok := h.Joined(name)
	if !ok {
		return List{{Value: fallback, Q: header.DefaultQuality}}
	}
	return Rank(raw)
}

func param(params []header.Param, key string) (string, bool) {
	key = strings.ToLower(key)
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func writeParams(b *strings.Builder, params []header.Param) {
	for _, p := range params {
		b.WriteByte(';')
		b.WriteString(p.String())
	}
}
