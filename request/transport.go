package request

import (
	"maps"
	"net/http"
	"net/netip"
	"slices"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/param"
)

// FromHTTP describes a net/http server request. The Host header, which
// net/http moves out of the header map, is restored as the first field.
// Because net/http does not retain the relative order of different header
// names, fields are emitted sorted by name; the order of repeated values is
// preserved.
func FromHTTP(r *http.Request) Raw {
	target := r.RequestURI
	if target == "" && r.URL != nil {
		target = r.URL.RequestURI()
	}
	fields := make([]header.Field, 0, len(r.Header)+1)
	if r.Host != "" {
		fields = append(fields, header.Field{Name: "Host", Value: r.Host})
	}
	for _, name := range slices.Sorted(maps.Keys(r.Header)) {
		for _, v := range r.Header[name] {
			fields = append(fields, header.Field{Name: name, Value: v})
		}
	}
	addr, _ := netip.ParseAddrPort(r.RemoteAddr)
	return Raw{
		Method:     r.Method,
		Target:     target,
		Proto:      r.Proto,
		Header:     fields,
		RemoteAddr: addr,
	}
}

// Middleware returns a middleware that creates one Adapter per request, with the
// request's query (and already parsed form) parameters as its source, and
// stores it in the request context. Retrieve it with FromContext.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := New(FromHTTP(r), append(
				[]Option{WithParams(param.FromHTTP(r))}, opts...,
			)...)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), a)))
		})
	}
}
