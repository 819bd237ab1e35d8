// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package auth authenticates RPC callers and authorizes the methods they
// invoke.
//
// Authentication is optional: a signer bound to loopback may run without a
// token. When a token is configured every request must present it.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// Common authentication errors
var (
	// ErrNoCredentials indicates no authentication credentials were provided
	ErrNoCredentials = errors.New("no authentication credentials provided")

	// ErrInvalidCredentials indicates the provided credentials are invalid
	ErrInvalidCredentials = errors.New("invalid authentication credentials")
)

// Identity represents an authenticated entity
type Identity struct {
	// ID is a unique identifier for this identity
	ID string

	// Type indicates the kind of identity ("service", "anonymous")
	Type string

	// Method is the authentication method used ("bearer-token", "none")
	Method string
}

// Authenticator validates requests and returns the authenticated identity
type Authenticator interface {
	// Authenticate validates the request and returns the identity.
	// Returns ErrNoCredentials if no credentials are present.
	// Returns ErrInvalidCredentials if credentials are invalid.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)

	// Method returns the authentication method name (for logging/debugging)
	Method() string
}

// NoAuth accepts every request as the anonymous identity.
type NoAuth struct{}

func (NoAuth) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	return &Identity{ID: AnonymousIdentityID, Type: "anonymous", Method: "none"}, nil
}

func (NoAuth) Method() string { return "none" }

var _ Authenticator = NoAuth{}
