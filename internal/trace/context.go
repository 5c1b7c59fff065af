package trace

import "context"

// ctxKey is the key type for storing a Registry in a context.Context.
type ctxKey struct{}

// FromContext extracts the Registry from ctx.
// If none is attached, returns Global().
func FromContext(ctx context.Context) *Registry {
	if ctx == nil {
		return Global()
	}
	if r, ok := ctx.Value(ctxKey{}).(*Registry); ok && r != nil {
		return r
	}
	return Global()
}

// WithRegistry attaches a Registry to ctx.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, r)
}
