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

package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deep-rent/inbound/middleware"
	"github.com/deep-rent/inbound/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
})

func TestChain(t *testing.T) {
	t.Run("Chains pipes in correct order", func(t *testing.T) {
		var order []string
		rec := func(id string) middleware.Pipe {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, id)
					next.ServeHTTP(w, r)
				})
			}
		}

		h := middleware.Chain(okHandler, rec("A"), rec("B"), rec("C"))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		exp := "A,B,C"
		act := strings.Join(order, ",")
		assert.Equal(t, exp, act)
	})

	t.Run("Ignores nil pipes", func(t *testing.T) {
		var called bool
		p := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				next.ServeHTTP(w, r)
			})
		}

		h := middleware.Chain(okHandler, nil, p, nil)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		assert.True(t, called)
	})

	t.Run("Returns original handler if no pipes", func(t *testing.T) {
		h := middleware.Chain(okHandler)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
	})
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)
	pipe := middleware.Recover(logger)

	t.Run("Recovers from panic", func(t *testing.T) {
		buf.Reset()
		h := pipe(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("test")
		}))
		req := httptest.NewRequest("GET", "/panic", nil)
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		out := buf.String()
		assert.Contains(t, out, "Panic caught by middleware")
		assert.Contains(t, out, `error=test`)
		assert.Contains(t, out, `url=/panic`)
		assert.Contains(t, out, `stack=`)
	})

	t.Run("Does nothing if no panic", func(t *testing.T) {
		buf.Reset()
		h := pipe(okHandler)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/ok", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		assert.Empty(t, buf.String())
	})
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)
	pipe := middleware.Log(logger)

	t.Run("Logs with non-default status", func(t *testing.T) {
		buf.Reset()
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "Not Found")
		})

		ch := pipe(h)
		req := httptest.NewRequest("POST", "/path?q=1", nil)
		req.RemoteAddr = "1.2.3.4:12345"
		req.Header.Set("User-Agent", "test-agent")

		rr := httptest.NewRecorder()
		ch.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		out := buf.String()
		assert.Contains(t, out, `level=DEBUG msg="HTTP request handled"`)
		assert.Contains(t, out, `method=POST`)
		assert.Contains(t, out, `url="/path?q=1"`)
		assert.Contains(t, out, `remote=1.2.3.4:12345`)
		assert.Contains(t, out, `agent=test-agent`)
		assert.Contains(t, out, `status=404`)
		assert.Contains(t, out, `duration=`)
	})

	t.Run("Logs with default status", func(t *testing.T) {
		buf.Reset()
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		ch := pipe(h)
		rr := httptest.NewRecorder()
		ch.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, buf.String(), `status=200`)
	})
}

func TestLogWithAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	h := middleware.Chain(okHandler, request.Middleware(), middleware.Log(logger))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("Accept", "application/json;q=0.9, text/html")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `remote=203.0.113.7`)
	assert.Contains(t, out, `mediaType=text/html`)
}

func TestIntegration(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := request.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "/int", a.Path())
		w.WriteHeader(http.StatusAccepted)
	})

	h := middleware.Chain(
		final,
		middleware.Recover(logger),
		request.Middleware(request.WithTrustForwarded(false)),
		middleware.Log(logger),
	)

	req := httptest.NewRequest("GET", "/int", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "remote=192.0.2.1")
	assert.Contains(t, out, "status=202")
}
