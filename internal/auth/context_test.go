// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package auth

import (
	"context"
	"testing"
)

func TestContextWithIdentity_RoundTrip(t *testing.T) {
	identity := &Identity{ID: "ops", Type: "service", Method: "bearer-token"}

	ctx := ContextWithIdentity(context.Background(), identity)
	got := IdentityFromContext(ctx)
	if got == nil || got.ID != "ops" {
		t.Fatalf("expected identity ops, got %+v", got)
	}
	if p := PrincipalFromContext(ctx); p != "ops" {
		t.Errorf("PrincipalFromContext = %q", p)
	}
}

func TestIdentityFromContext_EmptyContext(t *testing.T) {
	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("expected nil identity from empty context, got %+v", got)
	}
	if p := PrincipalFromContext(context.Background()); p != "" {
		t.Errorf("expected empty principal, got %q", p)
	}
}
