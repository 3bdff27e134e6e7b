package shared

import "context"

type principalIDContextKey struct{}

// ContextWithPrincipalID stores the authenticated principal id in context.
func ContextWithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalIDContextKey{}, id)
}

// PrincipalIDFromContext extracts the authenticated principal id. An empty
// string means the request carried no valid credentials.
func PrincipalIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(principalIDContextKey{}).(string)
	return id
}
