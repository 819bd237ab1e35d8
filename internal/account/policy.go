// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package account

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// ErrWeakPassphrase is returned when a passphrase fails the policy.
var ErrWeakPassphrase = errmodel.New(errmodel.WeakPassphrase, "passphrase does not meet policy")

// Policy is the minimum passphrase strength for new and rekeyed accounts.
type Policy struct {
	// MinLength is the minimum length in characters.
	MinLength int

	// MinClasses is the minimum number of character classes among lower
	// case, upper case, digits and everything else.
	MinClasses int
}

// Check returns ErrWeakPassphrase if p does not satisfy the policy.
func (pol Policy) Check(p string) error {
	minLen := pol.MinLength
	if minLen < 1 {
		minLen = 1
	}
	if n := utf8.RuneCountInString(p); n < minLen {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassphrase, minLen)
	}

	if pol.MinClasses > 0 {
		var lower, upper, digit, other bool
		for _, r := range p {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			default:
				other = true
			}
		}
		classes := 0
		for _, present := range []bool{lower, upper, digit, other} {
			if present {
				classes++
			}
		}
		if classes < pol.MinClasses {
			return fmt.Errorf("%w: at least %d character classes required", ErrWeakPassphrase, pol.MinClasses)
		}
	}
	return nil
}
