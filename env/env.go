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

// Package env populates configuration structs from environment variables.
//
// Every exported field maps to a variable whose name is the field name in
// upper-case SNAKE_CASE, so TrustForwarded reads TRUST_FORWARDED. Nested
// structs read their fields under a prefix derived from the field name.
// The env struct tag customizes the mapping:
//
//	type Config struct {
//		Addr    string        `env:"HTTP_ADDR,default::8080"`
//		Timeout time.Duration `env:",default:10,unit:s"`
//		Origins []string      `env:",split:';'"`
//		Token   string        `env:",required"`
//		Request request.Config `env:",prefix:REQUEST_"`
//		Ignored int           `env:"-"`
//	}
//
// The first tag value overrides the variable name. The remaining options
// are "default:<value>", "required", "prefix:<prefix>", "split:<sep>" for
// slices (comma by default) and "unit:<ns|us|ms|s|m|h>" for durations given
// as integers. Option values may be wrapped in single or double quotes to
// contain commas. Types implementing Unmarshaler parse themselves.
//
// Variables can also come from dotenv files (see WithFiles). The real
// environment always takes precedence over file contents.
package env

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

// Lookup retrieves the value of a variable and reports whether it is set,
// like os.LookupEnv.
type Lookup func(key string) (string, bool)

// Unmarshaler is implemented by types that parse their own textual form.
type Unmarshaler interface {
	UnmarshalEnv(value string) error
}

type config struct {
	prefix string
	lookup Lookup
	files  []string
}

// Option configures Unmarshal.
type Option func(*config)

// WithPrefix prepends a prefix to every variable name, e.g. "INSPECT_".
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithLookup replaces os.LookupEnv as the variable source. A nil value will
// be ignored.
func WithLookup(lookup Lookup) Option {
	return func(c *config) {
		if lookup != nil {
			c.lookup = lookup
		}
	}
}

// WithFiles consults the given dotenv files for variables missing from the
// primary lookup. Files that do not exist are skipped; malformed files make
// Unmarshal fail. Later files override earlier ones.
func WithFiles(files ...string) Option {
	return func(c *config) {
		c.files = append(c.files, files...)
	}
}

// Unmarshal populates the struct pointed to by v.
//
// A variable that is not set leaves its field untouched, unless the field
// has a default value or is required, in which case Unmarshal fails.
func Unmarshal(v any, opts ...Option) error {
	if err := unmarshal(v, opts...); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}

func unmarshal(v any, opts ...Option) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return errors.New("expected a non-nil pointer to a struct")
	}
	rv := ptr.Elem()
	if kind := rv.Kind(); kind != reflect.Struct {
		return fmt.Errorf("expected a pointer to a struct, but got pointer to %v", kind)
	}
	cfg := config{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&cfg)
	}
	lookup, err := cfg.source()
	if err != nil {
		return err
	}
	return walk(rv, cfg.prefix, lookup)
}

// source combines the primary lookup with the configured dotenv files.
func (c *config) source() (Lookup, error) {
	if len(c.files) == 0 {
		return c.lookup, nil
	}
	vars := make(map[string]string)
	for _, name := range c.files {
		m, err := godotenv.Read(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	primary := c.lookup
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

var (
	typeDuration    = reflect.TypeFor[time.Duration]()
	typeUnmarshaler = reflect.TypeFor[Unmarshaler]()
)

func walk(rv reflect.Value, prefix string, lookup Lookup) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		ft, fv := rt.Field(i), rv.Field(i)
		if !ft.IsExported() {
			continue
		}
		raw := ft.Tag.Get("env")
		if raw == "-" {
			continue
		}
		t, err := parseTag(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", ft.Name, err)
		}
		name := t.name
		if name == "" {
			name = snake(ft.Name)
		}

		if ft.Type.Kind() == reflect.Struct && !unmarshalable(fv) {
			nested := prefix + name + "_"
			if t.prefix != nil {
				nested = prefix + *t.prefix
			}
			if err := walk(fv, nested, lookup); err != nil {
				return err
			}
			continue
		}

		key := prefix + name
		val, ok := lookup(key)
		if !ok {
			switch {
			case t.def != "":
				val = t.def
			case t.required:
				return fmt.Errorf("required variable %q is not set", key)
			default:
				continue
			}
		}
		if err := set(fv, val, t); err != nil {
			return fmt.Errorf("field %q from %q: %w", ft.Name, key, err)
		}
	}
	return nil
}

func set(rv reflect.Value, s string, t tag) error {
	if unmarshalable(rv) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalEnv(s)
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	if rv.Type() == typeDuration {
		d, err := duration(s, t.unit)
		if err != nil {
			return err
		}
		rv.SetInt(int64(d))
		return nil
	}
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.Slice:
		if strings.TrimSpace(s) == "" {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
			return nil
		}
		parts := strings.Split(s, t.split)
		slice := reflect.MakeSlice(rv.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := set(slice.Index(i), strings.TrimSpace(p), t); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		rv.Set(slice)
	default:
		return fmt.Errorf("unsupported type: %v", rv.Type())
	}
	return nil
}

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"μs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
}

// duration parses Go duration syntax, or an integer count of unit.
func duration(s, unit string) (time.Duration, error) {
	if unit == "" {
		return time.ParseDuration(s)
	}
	u, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("invalid duration unit: %q", unit)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(i) * u, nil
}

func unmarshalable(rv reflect.Value) bool {
	return rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(typeUnmarshaler)
}

type tag struct {
	name     string
	prefix   *string
	split    string
	unit     string
	def      string
	required bool
}

// parseTag reads an env tag. Commas inside quoted option values do not
// separate options.
func parseTag(s string) (tag, error) {
	t := tag{split: ","}
	name, rest, _ := strings.Cut(s, ",")
	t.name = strings.TrimSpace(name)
	for _, part := range options(rest) {
		key, val, found := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !found {
			switch key {
			case "required":
				t.required = true
			case "":
			default:
				return t, fmt.Errorf("unknown tag option: %q", key)
			}
			continue
		}
		val = unquote(val)
		switch key {
		case "default":
			t.def = val
		case "prefix":
			t.prefix = &val
		case "split":
			t.split = val
		case "unit":
			t.unit = val
		default:
			return t, fmt.Errorf("unknown tag option: %q", key)
		}
	}
	return t, nil
}

func options(s string) []string {
	var parts []string
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func unquote(s string) string {
	if n := len(s); n >= 2 && (s[0] == '"' || s[0] == '\'') && s[n-1] == s[0] {
		return s[1 : n-1]
	}
	return s
}

// snake converts a Go identifier into upper-case SNAKE_CASE, keeping
// acronyms together: HTTPAddr becomes HTTP_ADDR.
func snake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			next := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			switch {
			case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
				b.WriteByte('_')
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && next:
				b.WriteByte('_')
			case unicode.IsDigit(r) && unicode.IsLetter(prev):
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
