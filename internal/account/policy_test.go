// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package account

import (
	"errors"
	"testing"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

func TestPolicyCheck(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		pass   string
		ok     bool
	}{
		{"empty rejected by zero policy", Policy{}, "", false},
		{"single char passes zero policy", Policy{}, "x", true},
		{"too short", Policy{MinLength: 8}, "short", false},
		{"long enough", Policy{MinLength: 8}, "longenough", true},
		{"counts runes not bytes", Policy{MinLength: 4}, "ééé", false},
		{"one class", Policy{MinClasses: 2}, "alllowercase", false},
		{"two classes", Policy{MinClasses: 2}, "lower123", true},
		{"four classes", Policy{MinLength: 8, MinClasses: 4}, "Abcdef1!", true},
		{"three of four", Policy{MinLength: 8, MinClasses: 4}, "Abcdefg1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Check(tt.pass)
			if tt.ok && err != nil {
				t.Fatalf("Check(%q) = %v, want nil", tt.pass, err)
			}
			if !tt.ok {
				if !errors.Is(err, ErrWeakPassphrase) {
					t.Fatalf("Check(%q) = %v, want ErrWeakPassphrase", tt.pass, err)
				}
				if errmodel.KindOf(err) != errmodel.WeakPassphrase {
					t.Fatalf("kind = %v", errmodel.KindOf(err))
				}
			}
		})
	}
}
