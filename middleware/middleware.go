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

// Package middleware provides composable net/http middleware.
//
// A Pipe wraps an http.Handler; Chain applies several pipes so that the
// first pipe is the outermost layer:
//
//	h := middleware.Chain(handler,
//		middleware.Recover(logger),
//		request.Middleware(cfg.Request.Options()...),
//		middleware.Log(logger),
//	)
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/deep-rent/inbound/request"
)

// Pipe is a function that wraps an http.Handler with additional behavior.
type Pipe func(http.Handler) http.Handler

// Chain wraps h with the given pipes. The first pipe becomes the outermost
// layer and therefore sees the request first. Nil pipes are skipped.
func Chain(h http.Handler, pipes ...Pipe) http.Handler {
	for i := len(pipes) - 1; i >= 0; i-- {
		if pipes[i] != nil {
			h = pipes[i](h)
		}
	}
	return h
}

// Recover returns a pipe that catches panics raised by downstream handlers,
// logs them together with the stack trace and responds with status 500.
func Recover(logger *slog.Logger) Pipe {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error(
						"Panic caught by middleware",
						slog.Any("error", err),
						slog.String("url", r.URL.String()),
						slog.String("stack", string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// recorder captures the status code written by a handler.
type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Log returns a pipe that logs every handled request at debug level. If a
// request adapter is present in the context (see request.Middleware), the
// remote address honors its forwarded-header policy and the preferred media
// type is logged as well.
func Log(logger *slog.Logger) Pipe {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("url", r.URL.RequestURI()),
				slog.String("remote", r.RemoteAddr),
				slog.String("agent", r.UserAgent()),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			}
			if a, ok := request.FromContext(r.Context()); ok {
				attrs[2] = slog.String("remote", a.RemoteAddress())
				attrs = append(attrs, slog.String("mediaType", a.MediaType().String()))
			}
			logger.LogAttrs(r.Context(), slog.LevelDebug, "HTTP request handled", attrs...)
		})
	}
}
