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

// Package log builds slog loggers from functional options or from an
// environment-loaded Config.
//
//	var cfg log.Config
//	if err := env.Unmarshal(&cfg, env.WithPrefix("LOG_")); err != nil {
//		// ...
//	}
//	logger := log.New(cfg.Options()...)
//
// Log output across the module follows a few conventions: attribute keys are
// lower camelCase and spelled out ("error", not "err"), and messages start
// with a capital letter and carry no trailing punctuation.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default configuration values for a new logger.
const (
	DefaultLevel     = slog.LevelInfo
	DefaultAddSource = false
	DefaultFormat    = FormatText
)

// Format selects the handler that renders log records.
type Format uint8

const (
	FormatText Format = iota // slog.TextHandler
	FormatJSON               // slog.JSONHandler
)

// String returns "json" or "text".
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// UnmarshalEnv parses the format from an environment variable.
func (f *Format) UnmarshalEnv(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Config describes a logger in a form that env.Unmarshal can populate.
type Config struct {
	// Level is a level name understood by ParseLevel.
	Level string `env:",default:info"`
	// Format is either "text" or "json".
	Format Format `env:",default:text"`
	// AddSource includes the caller's file and line in every record.
	AddSource bool
}

// Options converts the configuration into logger options.
func (c Config) Options() []Option {
	return []Option{
		WithLevel(c.Level),
		WithFormat(c.Format),
		WithAddSource(c.AddSource),
	}
}

type config struct {
	level     slog.Level
	addSource bool
	format    Format
	w         io.Writer
}

// Option modifies the logger configuration.
type Option func(*config)

// New creates a logger. Without options, it writes plain text at info level
// to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := config{
		level:     DefaultLevel,
		addSource: DefaultAddSource,
		format:    DefaultFormat,
		w:         os.Stdout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	o := &slog.HandlerOptions{Level: c.level, AddSource: c.addSource}
	if c.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(c.w, o))
	}
	return slog.New(slog.NewTextHandler(c.w, o))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithLevel sets the minimum level. It takes a slog.Level or a string
// understood by ParseLevel; anything else, including an unknown name, keeps
// the current level.
func WithLevel(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case slog.Level:
			c.level = t
		case string:
			if l, err := ParseLevel(t); err == nil {
				c.level = l
			}
		}
	}
}

// WithFormat sets the output format. It takes a Format or a string
// understood by ParseFormat; anything else keeps the current format.
func WithFormat(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case Format:
			c.format = t
		case string:
			if f, err := ParseFormat(t); err == nil {
				c.format = f
			}
		}
	}
}

// WithAddSource toggles source positions in the output.
func WithAddSource(add bool) Option {
	return func(c *config) {
		c.addSource = add
	}
}

// WithWriter redirects the output. A nil writer will be ignored.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.w = w
		}
	}
}

// ParseLevel reads a level name such as "debug" or "WARN", optionally with a
// numeric offset like "error-8".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// ParseFormat reads "text" or "json", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	}
	return FormatText, fmt.Errorf("invalid log format %q", s)
}
