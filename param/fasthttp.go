package param

import "github.com/valyala/fasthttp"

// FromArgs collects fasthttp arguments, such as those returned by
// RequestCtx.QueryArgs, into Values.
func FromArgs(args *fasthttp.Args) Values {
	v := make(Values, args.Len())
	args.VisitAll(func(key, value []byte) {
		k := string(key)
		v[k] = append(v[k], string(value))
	})
	return v
}
