package request

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx that carries the adapter.
func NewContext(ctx context.Context, a *Adapter) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the adapter stored in ctx by NewContext or Middleware.
func FromContext(ctx context.Context) (*Adapter, bool) {
	a, ok := ctx.Value(contextKey{}).(*Adapter)
	return a, ok && a != nil
}
