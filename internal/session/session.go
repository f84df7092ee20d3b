// Package session exposes the current authenticated identity to the
// community repositories. Identity resolution itself (JWT parsing, auth
// callbacks) happens at the transport layer; repositories only ever ask
// "who is calling right now".
package session

import "context"

// Identity is the authenticated user as known to the remote store's auth
// service.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Provider reports the identity performing the current operation, or nil when
// the caller is anonymous. All repository writes require a non-nil identity.
type Provider interface {
	CurrentIdentity(ctx context.Context) *Identity
}

type ctxKey struct{}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the identity carried by ctx, if any.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// ContextProvider resolves the identity from the request context. The HTTP
// layer's auth middleware stores it there after validating the bearer token.
type ContextProvider struct{}

func (ContextProvider) CurrentIdentity(ctx context.Context) *Identity {
	return FromContext(ctx)
}

// StaticProvider always reports the same identity (or anonymous when nil).
// Used by tests and by embedding callers with their own auth handling.
type StaticProvider struct {
	Identity *Identity
}

func (p StaticProvider) CurrentIdentity(context.Context) *Identity {
	return p.Identity
}
