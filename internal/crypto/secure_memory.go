// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package crypto

import (
	"crypto/subtle"
	"runtime"
	"sync"
)

// ZeroBytes securely overwrites a byte slice with zeros
// Uses constant-time operation to prevent compiler optimization
func ZeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// SecureBytes holds plaintext key material for the duration of one call.
// Access goes through WithBytes; Destroy zeros the buffer and is safe to
// call more than once.
type SecureBytes struct {
	data []byte
	lock sync.RWMutex
}

// NewSecureBytes takes ownership of b. The caller must not use b afterwards.
func NewSecureBytes(b []byte) *SecureBytes {
	return &SecureBytes{data: b}
}

// WithBytes provides scoped access to the underlying bytes.
//
// The callback must NOT store or leak the slice; it is only valid during
// the callback and is zeroed by Destroy.
func (s *SecureBytes) WithBytes(fn func([]byte) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return fn(s.data)
}

// Destroy securely zeros the data.
func (s *SecureBytes) Destroy() {
	if s == nil {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	ZeroBytes(s.data)
	s.data = nil
}
