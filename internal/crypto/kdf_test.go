// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestParseKdfLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    KdfLevel
		wantErr bool
	}{
		{"low", KdfLow, false},
		{"normal", KdfNormal, false},
		{"", KdfNormal, false},
		{"HIGH", KdfHigh, false},
		{" high ", KdfHigh, false},
		{"extreme", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKdfLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKdfLevel) {
					t.Fatalf("expected ErrUnknownKdfLevel, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseKdfLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKdfLevel_ParamsIncreaseWithLevel(t *testing.T) {
	low, normal, high := KdfLow.Params(), KdfNormal.Params(), KdfHigh.Params()
	if !(low.MemoryKiB < normal.MemoryKiB && normal.MemoryKiB < high.MemoryKiB) {
		t.Errorf("memory cost not increasing: %d %d %d", low.MemoryKiB, normal.MemoryKiB, high.MemoryKiB)
	}
	if high.Time < normal.Time {
		t.Errorf("high time cost %d below normal %d", high.Time, normal.Time)
	}
	for _, p := range []Argon2Params{low, normal, high} {
		if p.KeyLen != DerivedKeyLen {
			t.Errorf("KeyLen = %d, want %d", p.KeyLen, DerivedKeyLen)
		}
	}
	if KdfLevel(42).Params() != normal {
		t.Error("unknown level should fall back to normal parameters")
	}
}

func TestDeriveArgon2id_Deterministic(t *testing.T) {
	params := Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32}
	salt := bytes.Repeat([]byte{0x01}, 16)

	a := DeriveArgon2id([]byte("passphrase"), salt, params)
	b := DeriveArgon2id([]byte("passphrase"), salt, params)
	c := DeriveArgon2id([]byte("passphrase2"), salt, params)

	if !bytes.Equal(a, b) {
		t.Error("same inputs produced different keys")
	}
	if bytes.Equal(a, c) {
		t.Error("different passphrases produced the same key")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}
}

// RFC 7914 section 11 and 12 vectors.
func TestDeriveScryptAndPBKDF2_Vectors(t *testing.T) {
	dk, err := DeriveScrypt([]byte("password"), []byte("NaCl"), 1024, 8, 16, 64)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	want := "fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b3731622eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640"
	if hex.EncodeToString(dk) != want {
		t.Errorf("scrypt = %x, want %s", dk, want)
	}

	dk = DerivePBKDF2([]byte("passwd"), []byte("salt"), 1, 64)
	want = "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc49ca9cccf179b645991664b39d77ef317c71b845b1e30bd509112041d3a19783"
	if hex.EncodeToString(dk) != want {
		t.Errorf("pbkdf2 = %x, want %s", dk, want)
	}

	if _, err := DeriveScrypt([]byte("p"), []byte("s"), 1000, 8, 1, 32); err == nil {
		t.Error("expected error for non power of two N")
	}
}
