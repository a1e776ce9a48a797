package goPerm

import "context"

type actorContextKey struct{}

// WithActor attaches the identity of the operator performing an edit to ctx.
// It is copied into every audit event emitted for the call.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func actorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}
