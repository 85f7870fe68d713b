// Package auth provides the in-memory credential store and the
// authenticated identity attached to requests.
package auth

import (
	"context"
)

// Roles known to the gateway.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the authenticated principal derived from a validated
// credential at login time. It is embedded in issued tokens and attached to
// the request context by the auth gate.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	return i.Role == role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}

// identityKey is the context key for the authenticated identity.
type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity attaches an identity to the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the identity from context. The second return
// value reports whether an identity was present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
