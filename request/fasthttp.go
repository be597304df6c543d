package request

import (
	"net/netip"

	"github.com/valyala/fasthttp"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/param"
)

// FromFastHTTP describes a fasthttp request. Header fields are emitted in
// the order fasthttp visits them; cookies appear as a single Cookie field.
func FromFastHTTP(ctx *fasthttp.RequestCtx) Raw {
	var fields []header.Field
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		fields = append(fields, header.Field{Name: string(k), Value: string(v)})
	})
	var addr netip.AddrPort
	if ra := ctx.RemoteAddr(); ra != nil {
		addr, _ = netip.ParseAddrPort(ra.String())
	}
	return Raw{
		Method:     string(ctx.Method()),
		Target:     string(ctx.RequestURI()),
		Proto:      string(ctx.Request.Header.Protocol()),
		Header:     fields,
		RemoteAddr: addr,
	}
}

// NewFastHTTP creates an Adapter for a fasthttp request, with the query
// arguments as parameter source. Further options are applied afterwards.
func NewFastHTTP(ctx *fasthttp.RequestCtx, opts ...Option) *Adapter {
	return New(FromFastHTTP(ctx), append(
		[]Option{WithParams(param.FromArgs(ctx.QueryArgs()))}, opts...,
	)...)
}
