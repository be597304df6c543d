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

// Package gzip provides an HTTP middleware for compressing response bodies
// using the gzip algorithm.
//
// Compression is negotiated: it only applies if the request carries an
// Accept-Encoding header under which gzip is acceptable (a zero q-factor
// rejects it), the response does not already carry a Content-Encoding, and
// its media type is not excluded. Exclusions are media ranges, so
// "image/*" excludes every image type. Already compressed formats are
// excluded by default.
//
// Example:
//
//	pipe := gzip.New(
//		gzip.WithCompressionLevel(gzip.BestCompression),
//		gzip.WithExcludeMimeTypes("text/event-stream"),
//	)
//	http.ListenAndServe(":8080", middleware.Chain(handler, pipe))
package gzip

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/middleware"
	"github.com/deep-rent/inbound/negotiate"
)

// Mirror constants from the compress/gzip package for easy access without
// requiring an extra import.
const (
	BestCompression    = gzip.BestCompression
	BestSpeed          = gzip.BestSpeed
	DefaultCompression = gzip.DefaultCompression
	NoCompression      = gzip.NoCompression
)

// DefaultExcludeMimeTypes lists the media ranges that are never compressed
// unless overridden.
var DefaultExcludeMimeTypes = []string{
	"image/*",
	"video/*",
	"audio/*",
	"application/pdf",
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/octet-stream",
	"font/woff2",
}

// interceptor wraps an http.ResponseWriter and decides on the first
// WriteHeader call whether to compress the body. It also implements
// http.Hijacker and http.Flusher to support protocol upgrades and streaming.
type interceptor struct {
	http.ResponseWriter
	cfg     *config
	pool    *sync.Pool
	gz      *gzip.Writer
	decided bool
}

// WriteHeader sets the Content-Encoding header and deletes Content-Length
// if the response qualifies for compression, then writes the status code.
// The size of the compressed content is unknown until it's fully written.
func (w *interceptor) WriteHeader(statusCode int) {
	if w.decided {
		return
	}
	w.decided = true
	h := w.Header()
	if statusCode != http.StatusNoContent &&
		statusCode != http.StatusNotModified &&
		h.Get(header.ContentEncoding) == "" &&
		w.cfg.compressible(h.Get(header.ContentType)) {
		w.gz = w.pool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
		h.Set(header.ContentEncoding, "gzip")
		h.Del(header.ContentLength)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write writes the data, compressing it if so decided. If no Content-Type
// has been set, it is sniffed from the first chunk.
func (w *interceptor) Write(b []byte) (int, error) {
	if !w.decided {
		if w.Header().Get(header.ContentType) == "" {
			w.Header().Set(header.ContentType, http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// Close flushes any buffered data, closes the gzip writer, and returns it to
// the pool.
func (w *interceptor) Close() {
	if w.gz != nil {
		w.gz.Close()
		w.gz.Reset(io.Discard)
		w.pool.Put(w.gz)
		w.gz = nil
	}
}

// Hijack implements the http.Hijacker interface, allowing the underlying
// connection to be taken over for protocol upgrades like WebSockets.
func (w *interceptor) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New(
			"http.ResponseWriter does not support hijacking",
		)
	}
	return hijacker.Hijack()
}

// Flush implements the http.Flusher interface, enabling incremental flushing
// of the response body.
func (w *interceptor) Flush() {
	if !w.decided {
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		w.gz.Flush()
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

var _ http.ResponseWriter = (*interceptor)(nil)
var _ http.Hijacker = (*interceptor)(nil)
var _ http.Flusher = (*interceptor)(nil)

// New creates a middleware Pipe that compresses HTTP responses using gzip
// with the specified options. It adds "Vary: Accept-Encoding" to every
// response it considers, to prevent cache poisoning.
func New(opts ...Option) middleware.Pipe {
	cfg := config{level: DefaultCompression}
	WithExcludeMimeTypes(DefaultExcludeMimeTypes...)(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := &sync.Pool{
		New: func() any {
			// Errors only occur with an invalid level, which the option
			// guards against.
			gw, _ := gzip.NewWriterLevel(io.Discard, cfg.level)
			return gw
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := header.FromHTTP(r.Header)
			if !h.Has(header.AcceptEncoding) ||
				!negotiate.AcceptsEncoding(h, "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &interceptor{
				ResponseWriter: w,
				cfg:            &cfg,
				pool:           pool,
			}
			defer gzw.Close()

			gzw.Header().Add(header.Vary, header.AcceptEncoding)
			next.ServeHTTP(gzw, r)
		})
	}
}

// config holds the middleware configuration.
type config struct {
	level    int
	excluded []negotiate.MediaType
}

func (c *config) compressible(contentType string) bool {
	m := negotiate.ParseMediaType(contentType)
	for _, r := range c.excluded {
		if m.Is(r) {
			return false
		}
	}
	return true
}

// Option is a function that configures the middleware.
type Option func(*config)

// WithCompressionLevel sets the compression level. It accepts values ranging
// from BestSpeed (1) to BestCompression (9). For other values, it will fall
// back to DefaultCompression, a good balance between speed and
// compression ratio.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		if level >= BestSpeed && level <= BestCompression {
			c.level = level
		} else {
			c.level = DefaultCompression
		}
	}
}

// WithExcludeMimeTypes replaces the media ranges that are never compressed.
// Wildcard ranges such as "text/*" are supported.
func WithExcludeMimeTypes(types ...string) Option {
	return func(c *config) {
		c.excluded = make([]negotiate.MediaType, 0, len(types))
		for _, t := range types {
			c.excluded = append(c.excluded, negotiate.ParseMediaType(t))
		}
	}
}
