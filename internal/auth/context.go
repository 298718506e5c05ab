package auth

import "context"

type ctxKey string

const ctxIdentityKey ctxKey = "identity"

// Identity is the caller as established by a verified session token.
type Identity struct {
	Email string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// IdentityFrom returns the identity stored on ctx. ok is false for anonymous
// requests.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey).(Identity)
	return id, ok
}
