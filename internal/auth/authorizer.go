// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package auth

import (
	"context"
	"fmt"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// ErrForbidden indicates the method is disabled for this deployment.
var ErrForbidden = errmodel.New(errmodel.Validation, "method disabled")

// Authorizer decides whether an identity may invoke an RPC method.
type Authorizer interface {
	// Authorize returns nil if allowed, ErrForbidden otherwise.
	Authorize(ctx context.Context, identity *Identity, method string) error
}

// MethodAuthorizer denies a fixed set of methods to every identity and
// allows the rest. The zero value allows everything.
type MethodAuthorizer struct {
	disabled map[string]struct{}
}

// NewMethodAuthorizer returns an authorizer denying the given methods.
func NewMethodAuthorizer(disabled []string) *MethodAuthorizer {
	m := &MethodAuthorizer{disabled: make(map[string]struct{}, len(disabled))}
	for _, name := range disabled {
		m.disabled[name] = struct{}{}
	}
	return m
}

// Authorize implements Authorizer.
func (m *MethodAuthorizer) Authorize(ctx context.Context, identity *Identity, method string) error {
	if _, denied := m.disabled[method]; denied {
		return fmt.Errorf("%w: %s", ErrForbidden, method)
	}
	return nil
}

var _ Authorizer = (*MethodAuthorizer)(nil)
