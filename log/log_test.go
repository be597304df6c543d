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

package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/inbound/env"
	"github.com/deep-rent/inbound/log"
)

func TestNew(t *testing.T) {
	type test struct {
		name    string
		opts    []log.Option
		debug   bool
		json    bool
		wantSrc bool
	}
	tests := []test{
		{name: "defaults"},
		{name: "level string", opts: []log.Option{log.WithLevel("debug")}, debug: true},
		{name: "level const", opts: []log.Option{log.WithLevel(slog.LevelDebug)}, debug: true},
		{name: "invalid level kept", opts: []log.Option{log.WithLevel("foo")}},
		{name: "unsupported level type", opts: []log.Option{log.WithLevel(3.5)}},
		{name: "format string", opts: []log.Option{log.WithFormat("json")}, json: true},
		{name: "format const", opts: []log.Option{log.WithFormat(log.FormatJSON)}, json: true},
		{name: "invalid format kept", opts: []log.Option{log.WithFormat("bar")}},
		{
			name:    "add source",
			opts:    []log.Option{log.WithFormat("json"), log.WithAddSource(true)},
			json:    true,
			wantSrc: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(append(tc.opts, log.WithWriter(&buf))...)
			logger.Debug("Debug message")
			logger.Info("Info message", slog.String("mediaType", "text/html"))

			out := buf.String()
			assert.Equal(t, tc.debug, bytes.Contains(buf.Bytes(), []byte("Debug message")))
			assert.Contains(t, out, "Info message")

			if tc.json {
				lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
				var rec map[string]any
				require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
				assert.Equal(t, "text/html", rec["mediaType"])
				_, ok := rec[slog.SourceKey]
				assert.Equal(t, tc.wantSrc, ok)
			} else {
				assert.Contains(t, out, "mediaType=text/html")
			}
		})
	}
}

func TestWithNilWriter(t *testing.T) {
	require.NotNil(t, log.New(log.WithWriter(nil)))
}

func TestDiscard(t *testing.T) {
	logger := log.Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestConfig(t *testing.T) {
	var cfg log.Config
	err := env.Unmarshal(&cfg, env.WithLookup(func(k string) (string, bool) {
		switch k {
		case "FORMAT":
			return "JSON", true
		case "ADD_SOURCE":
			return "true", true
		}
		return "", false
	}))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, log.FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)

	var buf bytes.Buffer
	logger := log.New(append(cfg.Options(), log.WithWriter(&buf))...)
	logger.Info("Hello")
	assert.Contains(t, buf.String(), `"msg":"Hello"`)
	assert.Contains(t, buf.String(), `"source"`)
}

func TestConfigInvalidFormat(t *testing.T) {
	var cfg log.Config
	err := env.Unmarshal(&cfg, env.WithLookup(func(k string) (string, bool) {
		return "xml", k == "FORMAT"
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log format "xml"`)
}

func TestParseLevel(t *testing.T) {
	type test struct {
		in      string
		want    slog.Level
		wantErr bool
	}
	tests := []test{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"error-8", slog.LevelInfo, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := log.ParseLevel(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	type test struct {
		in      string
		want    log.Format
		wantErr bool
	}
	tests := []test{
		{"text", log.FormatText, false},
		{"JSON", log.FormatJSON, false},
		{"Json", log.FormatJSON, false},
		{"yaml", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := log.ParseFormat(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in != "text", got.String() == "json")
		})
	}
}
