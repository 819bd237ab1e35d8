// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jade-signer/jade-signer/internal/util"
)

// AuthScheme is the authentication scheme used in the Authorization header.
// Per RFC 7235, scheme comparison is case-insensitive.
const AuthScheme = "Bearer"

// TokenAuthenticator validates requests using bearer token authentication
type TokenAuthenticator struct {
	expectedToken string
}

// NewTokenAuthenticator creates a new token authenticator
func NewTokenAuthenticator(expectedToken string) *TokenAuthenticator {
	return &TokenAuthenticator{
		expectedToken: expectedToken,
	}
}

// Authenticate validates the Authorization: Bearer <token> header.
func (t *TokenAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, AuthScheme) || token == "" {
		return nil, ErrInvalidCredentials
	}

	if !util.ValidateToken(token, t.expectedToken) {
		return nil, ErrInvalidCredentials
	}

	return NewDefaultIdentity(t.Method()), nil
}

// Method returns the authentication method name
func (t *TokenAuthenticator) Method() string {
	return "bearer-token"
}

var _ Authenticator = (*TokenAuthenticator)(nil)
