// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package crypto

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func TestZeroBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"single byte", []byte{0xFF}},
		{"32 byte key", bytes.Repeat([]byte{0xAB}, 32)},
		{"large buffer 1KB", bytes.Repeat([]byte{0xEF}, 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ZeroBytes(tt.data)
			for i, b := range tt.data {
				if b != 0 {
					t.Errorf("byte at index %d is not zero: got %d", i, b)
				}
			}
		})
	}
}

func TestNewSecureBytes_TakesOwnership(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	sb := NewSecureBytes(buf)
	sb.Destroy()

	for i, b := range buf {
		if b != 0 {
			t.Errorf("owned buffer byte %d not zeroed: %d", i, b)
		}
	}
	_ = sb.WithBytes(func(data []byte) error {
		if data != nil {
			t.Errorf("data after Destroy = %v, want nil", data)
		}
		return nil
	})
}

func TestSecureBytes_WithBytesPropagatesError(t *testing.T) {
	sb := NewSecureBytes([]byte("test"))
	defer sb.Destroy()

	sentinel := errors.New("callback failed")
	if err := sb.WithBytes(func([]byte) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("WithBytes should propagate error: got %v", err)
	}
}

func TestSecureBytes_DestroyZeroesAndIsIdempotent(t *testing.T) {
	sb := NewSecureBytes([]byte("secret-to-destroy"))

	var ref []byte
	_ = sb.WithBytes(func(data []byte) error {
		ref = data
		return nil
	})

	sb.Destroy()
	sb.Destroy()

	for i, b := range ref {
		if b != 0 {
			t.Errorf("byte at index %d not zeroed after Destroy: got %d", i, b)
		}
	}
	_ = sb.WithBytes(func(data []byte) error {
		if len(data) != 0 {
			t.Errorf("len after Destroy = %d, want 0", len(data))
		}
		return nil
	})

	var nilSB *SecureBytes
	nilSB.Destroy()
}

func TestSecureBytes_ConcurrentReadAndDestroy(t *testing.T) {
	for i := 0; i < 100; i++ {
		sb := NewSecureBytes([]byte("test-data"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = sb.WithBytes(func(data []byte) error {
					if data != nil && !bytes.Equal(data, []byte("test-data")) {
						t.Errorf("observed partially destroyed data: %v", data)
					}
					return nil
				})
			}
		}()
		go func() {
			defer wg.Done()
			sb.Destroy()
		}()
		wg.Wait()
	}
}
