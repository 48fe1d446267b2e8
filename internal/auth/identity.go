// Package auth carries the authenticated caller through a request. The HTTP
// auth middleware resolves a bearer token into an Identity and stores it in
// the request context; handlers read it back and pass the user id to services
// explicitly.
package auth

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uint
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != 0
}
