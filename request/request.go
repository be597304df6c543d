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

// Package request adapts a raw, transport-level HTTP request into a uniform,
// read-only view for the rest of a request-processing pipeline.
//
// An Adapter is created once per incoming request from a Raw descriptor,
// which the transport builders FromHTTP and FromFastHTTP produce for net/http
// and fasthttp. All accessors are reads against state that is computed
// lazily on first use and cached for the lifetime of the request:
//
//	a := request.New(request.FromHTTP(r),
//		request.WithParams(param.FromHTTP(r)),
//		request.WithTrustForwarded(false),
//	)
//	if a.Accepts("application/json") {
//		// ...
//	}
//
// Missing data never causes an error. Absent headers, cookies and parameters
// are reported as empty strings, nil pointers or false flags instead. The
// one exception is asking for a parameter while no parameter source was
// configured, which panics.
//
// An Adapter is meant to be used by a single pipeline. Its caches are filled
// without locking on first touch; once filled they may be read concurrently.
// The Data store is safe for concurrent use.
package request

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/deep-rent/inbound/cookie"
	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/negotiate"
	"github.com/deep-rent/inbound/param"
)

// Raw describes a request as parsed by the network transport.
type Raw struct {
	// Method is the request method. It is upper-cased by the adapter.
	Method string
	// Target is the request target exactly as received: path and optional
	// query string, not decoded.
	Target string
	// Proto is the protocol version, e.g. "HTTP/1.1".
	Proto string
	// Header holds the header lines in arrival order.
	Header []header.Field
	// RemoteAddr is the address of the transport peer.
	RemoteAddr netip.AddrPort
	// RemoteHost is the peer's host name if the transport resolved one.
	RemoteHost string
}

// Request is the read-only view of an incoming request.
type Request interface {
	// Method returns the upper-cased request method, e.g. "GET" or "PATCH".
	Method() string
	// URI returns the raw request target, including the query string.
	URI() string
	// Path returns the request target without the query string.
	Path() string
	// Proto returns the protocol version.
	Proto() string
	// Host returns the name of the transport peer, or its IP address.
	Host() string
	// RemoteAddress returns the client address, honoring a trusted
	// forwarded-for header.
	RemoteAddress() string

	// Headers returns the live header map.
	Headers() header.Map
	// Header returns the first value of the named header.
	Header(name string) string
	// Cookies returns the cookies sent by the client.
	Cookies() cookie.Jar
	// Cookie returns the named cookie or nil.
	Cookie(name string) *cookie.Cookie

	// ContentType returns the raw Content-Type header.
	ContentType() string
	// Encoding returns the raw Accept-Encoding header.
	Encoding() string
	// Language returns the raw Accept-Language header.
	Language() string
	// Charset returns the raw Accept-Charset header.
	Charset() string

	// MediaTypes ranks the Accept header.
	MediaTypes() negotiate.List
	// MediaType returns the preferred media range.
	MediaType() negotiate.MediaType
	// Accepts reports whether the client accepts the media type.
	Accepts(mime string) bool
	// Languages ranks the Accept-Language header.
	Languages() []negotiate.Locale
	// Charsets ranks the Accept-Charset header.
	Charsets() negotiate.List
	// Encodings ranks the Accept-Encoding header.
	Encodings() negotiate.List

	// Parameter returns the first value of a query or form parameter.
	Parameter(name string) (string, bool)
	// ParameterOr returns the named parameter or def if it is absent.
	ParameterOr(name, def string) string
	// ParameterValues returns all values of the named parameter.
	ParameterValues(name string) []string
	// Parameters returns all parameters.
	Parameters() map[string][]string
	// ParameterInt returns the named parameter as an integer.
	ParameterInt(name string) (int, bool)
	// ParameterIntOr returns the named parameter as an integer or def.
	ParameterIntOr(name string, def int) int
	// ParameterBool returns the named parameter as a boolean, false if it
	// is absent or unrecognized.
	ParameterBool(name string) bool
	// ParameterBoolOr returns the named parameter as a boolean or def.
	ParameterBoolOr(name string, def bool) bool

	// Data returns the request-scoped scratch store.
	Data() *Data
}

// Adapter implements Request on top of a Raw descriptor.
type Adapter struct {
	raw     Raw
	cfg     config
	headers header.Map
	cookies cookie.Jar
	data    *Data
}

var _ Request = (*Adapter)(nil)

// New creates an Adapter for a single request. The Raw descriptor must not
// be modified afterwards.
func New(raw Raw, opts ...Option) *Adapter {
	cfg := config{
		trust:     DefaultTrustForwarded,
		forwarded: DefaultForwardedHeader,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	raw.Method = strings.ToUpper(raw.Method)
	return &Adapter{
		raw:  raw,
		cfg:  cfg,
		data: NewData(),
	}
}

// Method implements Request. The method is not validated.
func (a *Adapter) Method() string { return a.raw.Method }

// URI implements Request.
func (a *Adapter) URI() string { return a.raw.Target }

// Proto implements Request.
func (a *Adapter) Proto() string { return a.raw.Proto }

// Path implements Request. The path is returned exactly as it appeared in
// the target, without the query or fragment. Absolute-form targets lose
// their scheme and authority. If the target cannot be parsed, the full URI
// is returned instead.
func (a *Adapter) Path() string {
	u, err := url.Parse(a.raw.Target)
	if err != nil {
		return a.URI()
	}
	if u.Opaque != "" {
		return ""
	}
	p := a.raw.Target
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if u.Scheme != "" || u.Host != "" {
		_, rest, _ := strings.Cut(p, "//")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return rest[i:]
		}
		return ""
	}
	return p
}

// Host implements Request. It reflects the connection, never the Host
// header, and does not perform any lookup.
func (a *Adapter) Host() string {
	if a.raw.RemoteHost != "" {
		return a.raw.RemoteHost
	}
	return a.ip()
}

// RemoteAddress implements Request. If forwarded headers are trusted and the
// forwarded header is present, its first value is returned verbatim.
// Otherwise, the result is the peer's IP address, or an empty string if the
// transport did not supply one.
func (a *Adapter) RemoteAddress() string {
	if a.cfg.trust {
		if v, ok := a.Headers().Lookup(a.cfg.forwarded); ok {
			return v
		}
	}
	return a.ip()
}

func (a *Adapter) ip() string {
	if !a.raw.RemoteAddr.IsValid() {
		return ""
	}
	return a.raw.RemoteAddr.Addr().Unmap().String()
}

// Headers implements Request. The map is built on first use and the same map
// is returned on every call. Changes made to it are visible to all other
// accessors of this adapter.
func (a *Adapter) Headers() header.Map {
	if a.headers == nil {
		a.headers = header.Collect(a.raw.Header)
	}
	return a.headers
}

// Header implements Request.
func (a *Adapter) Header(name string) string {
	return a.Headers().Get(name)
}

// Cookies implements Request. The jar is parsed from the Cookie header on
// first use. Without a Cookie header, the jar is empty.
func (a *Adapter) Cookies() cookie.Jar {
	if a.cookies == nil {
		a.cookies = cookie.Parse(a.Headers().Values(header.Cookie)...)
	}
	return a.cookies
}

// Cookie implements Request.
func (a *Adapter) Cookie(name string) *cookie.Cookie {
	return a.Cookies().Get(name)
}

// ContentType implements Request.
func (a *Adapter) ContentType() string { return a.Header(header.ContentType) }

// Encoding implements Request.
func (a *Adapter) Encoding() string { return a.Header(header.AcceptEncoding) }

// Language implements Request.
func (a *Adapter) Language() string { return a.Header(header.AcceptLanguage) }

// Charset implements Request.
func (a *Adapter) Charset() string { return a.Header(header.AcceptCharset) }

// MediaTypes implements Request.
func (a *Adapter) MediaTypes() negotiate.List {
	return negotiate.MediaTypes(a.Headers())
}

// MediaType implements Request.
func (a *Adapter) MediaType() negotiate.MediaType {
	return negotiate.Preferred(a.Headers())
}

// Accepts implements Request.
func (a *Adapter) Accepts(mime string) bool {
	return negotiate.Accepts(a.Headers(), mime)
}

// Languages implements Request.
func (a *Adapter) Languages() []negotiate.Locale {
	return negotiate.Languages(a.Headers())
}

// Charsets implements Request.
func (a *Adapter) Charsets() negotiate.List {
	return negotiate.Charsets(a.Headers())
}

// Encodings implements Request.
func (a *Adapter) Encodings() negotiate.List {
	return negotiate.Encodings(a.Headers())
}

// HasParameters reports whether a parameter source is configured.
func (a *Adapter) HasParameters() bool { return a.cfg.params != nil }

func (a *Adapter) params() param.Source {
	if a.cfg.params == nil {
		panic("request: no parameter source configured")
	}
	return a.cfg.params
}

// Parameter implements Request.
func (a *Adapter) Parameter(name string) (string, bool) {
	return a.params().Lookup(name)
}

// ParameterOr implements Request.
func (a *Adapter) ParameterOr(name, def string) string {
	return param.String(a.params(), name, def)
}

// ParameterValues implements Request.
func (a *Adapter) ParameterValues(name string) []string {
	return a.params().Values(name)
}

// Parameters implements Request.
func (a *Adapter) Parameters() map[string][]string {
	return a.params().All()
}

// ParameterInt implements Request. A value that is not a valid integer is
// treated as absent.
func (a *Adapter) ParameterInt(name string) (int, bool) {
	return param.Int(a.params(), name)
}

// ParameterIntOr implements Request.
func (a *Adapter) ParameterIntOr(name string, def int) int {
	return param.IntOr(a.params(), name, def)
}

// ParameterBool implements Request.
func (a *Adapter) ParameterBool(name string) bool {
	b, _ := param.Bool(a.params(), name)
	return b
}

// ParameterBoolOr implements Request.
func (a *Adapter) ParameterBoolOr(name string, def bool) bool {
	return param.BoolOr(a.params(), name, def)
}

// Data implements Request.
func (a *Adapter) Data() *Data { return a.data }
