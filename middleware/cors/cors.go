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

// Package cors provides a CORS (Cross-Origin Resource Sharing) middleware.
//
// Request headers are read through the request adapter if one is stored in
// the context, so the middleware sees the same header view as the handlers.
// Preflight requests are answered directly with 204 (No Content); the
// requested method and headers are checked against the configured lists
// and the allow headers are omitted if they do not match, which makes the
// browser reject the actual request.
package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/middleware"
	"github.com/deep-rent/inbound/request"
)

// Wildcard allows any origin.
const Wildcard = "*"

// Config configures the middleware. It can be populated with env.Unmarshal.
type Config struct {
	// AllowedOrigins lists the permitted origins. Wildcard permits all.
	AllowedOrigins []string `env:",default:*"`
	// AllowedMethods lists the methods a preflight may ask for.
	AllowedMethods []string `env:",default:'GET,HEAD,OPTIONS'"`
	// AllowedHeaders lists the request headers a preflight may ask for,
	// compared without regard to case. Wildcard permits all.
	AllowedHeaders []string `env:",default:'Accept,Accept-Language,Content-Type'"`
	// ExposedHeaders lists the response headers visible to scripts.
	ExposedHeaders []string
	// AllowCredentials permits cookies and echoes the origin instead of "*".
	AllowCredentials bool
	// MaxAge lets the browser cache preflight results.
	MaxAge time.Duration `env:",default:12h"`
}

type policy struct {
	origins     []string
	anyOrigin   bool
	methods     []string
	headers     []string
	anyHeader   bool
	exposed     string
	credentials bool
	maxAge      string
}

func compile(cfg Config) policy {
	p := policy{
		origins:     cfg.AllowedOrigins,
		anyOrigin:   len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, Wildcard),
		methods:     cfg.AllowedMethods,
		anyHeader:   slices.Contains(cfg.AllowedHeaders, Wildcard),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, h := range cfg.AllowedHeaders {
		p.headers = append(p.headers, header.Key(h))
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.FormatInt(int64(cfg.MaxAge/time.Second), 10)
	}
	return p
}

func (p *policy) allowOrigin(origin string) bool {
	return p.anyOrigin || slices.Contains(p.origins, origin)
}

// allowHeaders reports whether every header named in the comma-separated
// list is permitted.
func (p *policy) allowHeaders(list string) bool {
	if p.anyHeader {
		return true
	}
	for e := range header.Elements(list) {
		if !slices.Contains(p.headers, header.Key(e.Value)) {
			return false
		}
	}
	return true
}

// New creates a CORS middleware.
func New(cfg Config) middleware.Pipe {
	p := compile(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := headers(r)
			origin := h.Get(header.Origin)
			if origin == "" || !p.allowOrigin(origin) {
				next.ServeHTTP(w, r)
				return
			}

			out := w.Header()
			out.Add(header.Vary, header.Origin)
			switch {
			case p.credentials:
				out.Set(header.AccessControlAllowOrigin, origin)
				out.Set(header.AccessControlAllowCredentials, "true")
			case p.anyOrigin:
				out.Set(header.AccessControlAllowOrigin, Wildcard)
			default:
				out.Set(header.AccessControlAllowOrigin, origin)
			}

			method := h.Get(header.AccessControlRequestMethod)
			if r.Method != http.MethodOptions || method == "" {
				if p.exposed != "" {
					out.Set(header.AccessControlExposeHeaders, p.exposed)
				}
				next.ServeHTTP(w, r)
				return
			}

			requested, _ := h.Joined(header.AccessControlRequestHeaders)
			if slices.Contains(p.methods, strings.ToUpper(method)) && p.allowHeaders(requested) {
				out.Set(header.AccessControlAllowMethods, strings.Join(p.methods, ", "))
				if requested != "" {
					out.Set(header.AccessControlAllowHeaders, requested)
				}
				if p.maxAge != "" {
					out.Set(header.AccessControlMaxAge, p.maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func headers(r *http.Request) header.Map {
	if a, ok := request.FromContext(r.Context()); ok {
		return a.Headers()
	}
	return header.FromHTTP(r.Header)
}
