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

// Package router is a thin layer over http.ServeMux whose handlers receive
// an Exchange: the request, viewed through a request.Adapter, together with
// the response writer. Handlers return errors instead of writing error
// responses themselves, and Render picks the response format from the
// Accept header.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/middleware"
	"github.com/deep-rent/inbound/negotiate"
	"github.com/deep-rent/inbound/param"
	"github.com/deep-rent/inbound/request"
)

// Media types that Render can produce, in order of preference.
const (
	MediaJSON = "application/json"
	MediaYAML = "application/yaml"
	MediaText = "text/plain"
)

const (
	// ReasonNotAcceptable indicates that no offered format is acceptable.
	ReasonNotAcceptable = "not_acceptable"
	// ReasonServerError indicates that an unexpected internal error occurred.
	ReasonServerError = "server_error"
)

// Error describes the standard shape of API errors. Errors of any other type
// returned by a handler are reported as internal server errors.
type Error struct {
	// Status is the HTTP status code.
	Status int `json:"status" yaml:"status"`
	// Reason is a short string identifying the error type.
	Reason string `json:"reason" yaml:"reason"`
	// Description is a human-readable explanation.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Cause is the underlying error, if any. It is never rendered.
	Cause error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description == "" {
		return e.Reason
	}
	return e.Description
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Cause }

// String renders the error for text/plain responses.
func (e *Error) String() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Reason, e.Error())
}

// Exchange bundles the request and response of a single call.
type Exchange struct {
	R *http.Request
	W http.ResponseWriter

	opts    []request.Option
	adapter *request.Adapter
}

// Context returns the request's context.
func (e *Exchange) Context() context.Context { return e.R.Context() }

// Method returns the HTTP method of the request.
func (e *Exchange) Method() string { return e.R.Method }

// Path returns the URL path of the request.
func (e *Exchange) Path() string { return e.R.URL.Path }

// Param retrieves a path parameter by name.
func (e *Exchange) Param(name string) string { return e.R.PathValue(name) }

// SetHeader sets a response header.
func (e *Exchange) SetHeader(key, value string) { e.W.Header().Set(key, value) }

// Request returns the adapter for this request. It is taken from the
// context if request.Middleware has stored one there; otherwise it is built
// on first use with the router's request options and cached.
func (e *Exchange) Request() *request.Adapter {
	if e.adapter != nil {
		return e.adapter
	}
	if a, ok := request.FromContext(e.R.Context()); ok {
		e.adapter = a
		return a
	}
	opts := append([]request.Option{request.WithParams(param.FromHTTP(e.R))}, e.opts...)
	e.adapter = request.New(request.FromHTTP(e.R), opts...)
	return e.adapter
}

// Status writes a bodiless response with the given status code.
func (e *Exchange) Status(code int) {
	e.W.WriteHeader(code)
}

// Redirect replies with a redirect to url.
func (e *Exchange) Redirect(url string, code int) error {
	http.Redirect(e.W, e.R, url, code)
	return nil
}

// JSON writes v as JSON.
func (e *Exchange) JSON(status int, v any) error {
	return e.Write(status, MediaJSON, v)
}

// YAML writes v as YAML.
func (e *Exchange) YAML(status int, v any) error {
	return e.Write(status, MediaYAML, v)
}

// Text writes v as plain text. Values implementing fmt.Stringer are written
// through String; any other value is written in YAML notation.
func (e *Exchange) Text(status int, v any) error {
	return e.Write(status, MediaText, v)
}

// Render writes v in the format the client prefers among JSON, YAML and
// plain text. A request without an Accept header gets JSON. If the client
// accepts none of them, an *Error with status 406 is returned and nothing is
// written.
func (e *Exchange) Render(status int, v any) error {
	mime, err := e.Negotiate(MediaJSON, MediaYAML, MediaText)
	if err != nil {
		return err
	}
	return e.Write(status, mime, v)
}

// Negotiate selects one of the offered media types based on the Accept
// header. Without the header, the first offer wins. The response is marked
// to vary by Accept.
func (e *Exchange) Negotiate(offers ...string) (string, error) {
	if vary := e.W.Header().Values(header.Vary); !slices.Contains(vary, header.Accept) {
		e.W.Header().Add(header.Vary, header.Accept)
	}
	h := e.Request().Headers()
	if len(offers) > 0 && !h.Has(header.Accept) {
		return offers[0], nil
	}
	if mime, ok := negotiate.Negotiate(h, offers...); ok {
		return mime, nil
	}
	return "", &Error{
		Status:      http.StatusNotAcceptable,
		Reason:      ReasonNotAcceptable,
		Description: "none of the available formats is acceptable",
	}
}

// Write encodes v in the given media type, which must be one of MediaJSON,
// MediaYAML or MediaText.
func (e *Exchange) Write(status int, mime string, v any) error {
	h := e.W.Header()
	h.Set(header.ContentType, mime+"; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	e.W.WriteHeader(status)
	return Encode(e.W, mime, v)
}

// Encode writes v to w in one of the media types MediaJSON, MediaYAML or
// MediaText.
func Encode(w io.Writer, mime string, v any) error {
	switch mime {
	case MediaJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case MediaText:
		if s, ok := v.(fmt.Stringer); ok {
			_, err := io.WriteString(w, s.String()+"\n")
			return err
		}
		fallthrough
	case MediaYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("router: unsupported media type %q", mime)
}

// Handler handles an exchange. A returned error is converted into an error
// response.
type Handler interface {
	ServeHTTP(e *Exchange) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(e *Exchange) error

// ServeHTTP implements Handler.
func (f HandlerFunc) ServeHTTP(e *Exchange) error { return f(e) }

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for internal errors, slog.Default() by default.
// A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMiddleware adds pipes that wrap every route.
func WithMiddleware(pipes ...middleware.Pipe) Option {
	return func(r *Router) {
		r.mws = append(r.mws, pipes...)
	}
}

// WithRequestOptions sets the options for adapters that Exchange.Request
// builds itself.
func WithRequestOptions(opts ...request.Option) Option {
	return func(r *Router) {
		r.opts = append(r.opts, opts...)
	}
}

// Router dispatches requests to handlers by ServeMux pattern.
type Router struct {
	mux    *http.ServeMux
	mws    []middleware.Pipe
	opts   []request.Option
	logger *slog.Logger
}

var _ http.Handler = (*Router)(nil)

// New creates a Router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handle registers a handler for the pattern. The global middleware wraps
// the route-specific pipes, which wrap the handler.
func (r *Router) Handle(pattern string, handler Handler, pipes ...middleware.Pipe) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		e := &Exchange{R: req, W: w, opts: r.opts}
		if err := handler.ServeHTTP(e); err != nil {
			r.fail(e, err)
		}
	})
	r.mux.Handle(pattern, middleware.Chain(h, slices.Concat(r.mws, pipes)...))
}

// HandleFunc registers a handler function for the pattern.
func (r *Router) HandleFunc(pattern string, fn func(e *Exchange) error, pipes ...middleware.Pipe) {
	r.Handle(pattern, HandlerFunc(fn), pipes...)
}

// Mount registers a plain http.Handler under the pattern, wrapped in the
// global middleware. The path prefix is not stripped.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, middleware.Chain(h, r.mws...))
}

// fail writes the error response. Errors other than *Error are logged and
// hidden behind a generic 500. If the client accepts none of the formats,
// the error is written as JSON.
func (r *Router) fail(e *Exchange, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		r.logger.Error("Handler failed", slog.Any("error", err))
		ae = &Error{
			Status:      http.StatusInternalServerError,
			Reason:      ReasonServerError,
			Description: "internal server error",
			Cause:       err,
		}
	}
	mime, nerr := e.Negotiate(MediaJSON, MediaYAML, MediaText)
	if nerr != nil {
		mime = MediaJSON
	}
	_ = e.Write(ae.Status, mime, ae)
}
