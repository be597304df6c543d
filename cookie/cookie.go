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

// Package cookie parses the request Cookie header into a name-indexed jar.
//
// Values are kept exactly as sent by the client: no percent-decoding,
// unquoting or signature verification happens here.
package cookie

import "strings"

// Cookie is a single name/value pair sent by the client. Two cookies are
// considered equal if their names are equal.
type Cookie struct {
	Name  string
	Value string
}

// String formats the cookie as "name=value".
func (c Cookie) String() string {
	return c.Name + "=" + c.Value
}

// Jar maps cookie names to cookies. A nil Jar is empty.
type Jar map[string]Cookie

// Parse builds a Jar from the values of one or more Cookie headers. Each
// value is split on ";", every pair is trimmed and split on its first "=".
// Pairs without "=" or with an empty name are skipped. If a name occurs more
// than once, the first occurrence wins.
func Parse(values ...string) Jar {
	jar := make(Jar)
	for _, value := range values {
		for pair := range strings.SplitSeq(value, ";") {
			name, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := jar[name]; dup {
				continue
			}
			jar[name] = Cookie{Name: name, Value: strings.TrimSpace(val)}
		}
	}
	return jar
}

// Get returns the cookie with the given name, or nil if there is none.
// Names are case-sensitive.
func (j Jar) Get(name string) *Cookie {
	c, ok := j[name]
	if !ok {
		return nil
	}
	return &c
}

// Has reports whether a cookie with the given name is present.
func (j Jar) Has(name string) bool {
	_, ok := j[name]
	return ok
}

// Values flattens the jar into a name to value mapping.
func (j Jar) Values() map[string]string {
	m := make(map[string]string, len(j))
	for name, c := range j {
		m[name] = c.Value
	}
	return m
}
