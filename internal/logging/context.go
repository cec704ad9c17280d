package logging

import "context"

type attrsKey struct{}

// ContextWithAttrs returns a copy of ctx carrying key-value pairs that every
// Logger adds to entries logged with that context.
func ContextWithAttrs(ctx context.Context, args ...any) context.Context {
	prev := attrsFrom(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func attrsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(attrsKey{}).([]any)
	return v
}

// withContextAttrs prepends the context's attributes to args.
func withContextAttrs(ctx context.Context, args []any) []any {
	attrs := attrsFrom(ctx)
	if len(attrs) == 0 {
		return args
	}
	out := make([]any, 0, len(attrs)+len(args))
	out = append(out, attrs...)
	return append(out, args...)
}
