// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package auth

import "context"

const (
	// DefaultIdentityID is the identity of token-authenticated callers.
	DefaultIdentityID = "default"

	// AnonymousIdentityID is the identity used when authentication is off.
	AnonymousIdentityID = "anonymous"
)

type contextKey struct{}

var identityKey = contextKey{}

// ContextWithIdentity returns a new context carrying the given identity.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// PrincipalFromContext returns the identity ID carried by ctx, or "" if none.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.ID
	}
	return ""
}

// NewDefaultIdentity returns an Identity with ID "default" and the given auth method.
func NewDefaultIdentity(method string) *Identity {
	return &Identity{
		ID:     DefaultIdentityID,
		Type:   "service",
		Method: method,
	}
}
