package shared

import "context"

// Principal identifies the caller as supplied by the upstream auth layer.
type Principal struct {
	UserID int64
	Role   string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ActorID returns the user id of the principal in ctx, or zero.
func ActorID(ctx context.Context) int64 {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}
