// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package keyfile

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAddress(t *testing.T) {
	const canonical = "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"canonical", canonical, false},
		{"no prefix", "2c7536e3605d9c16a7a3d7b1898e529396a65c23", false},
		{"checksum case", "0x2C7536E3605D9c16a7a3D7b1898e529396a65c23", false},
		{"upper prefix", "0X2c7536e3605d9c16a7a3d7b1898e529396a65c23", false},
		{"too short", "0x2c7536e3", true},
		{"too long", canonical + "00", true},
		{"not hex", "0xzz7536e3605d9c16a7a3d7b1898e529396a65c23", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.String() != canonical {
				t.Errorf("String() = %s, want %s", a, canonical)
			}
		})
	}
}

func TestAddress_JSON(t *testing.T) {
	a, _ := ParseAddress("0x2c7536e3605d9c16a7a3d7b1898e529396a65c23")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"` {
		t.Errorf("Marshal = %s", data)
	}
	var back Address
	if err := json.Unmarshal(data, &back); err != nil || back != a {
		t.Errorf("Unmarshal = %v, %v", back, err)
	}
}

func TestPubkeyToAddress_KnownKey(t *testing.T) {
	raw, _ := hex.DecodeString("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	priv, err := ParsePrivateKey(raw)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	defer priv.Zero()

	got := PubkeyToAddress(priv.PubKey())
	if got.String() != "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23" {
		t.Errorf("address = %s", got)
	}
}

func TestParsePrivateKey_Rejects(t *testing.T) {
	order, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	tests := []struct {
		name string
		in   []byte
	}{
		{"short", make([]byte, 31)},
		{"zero", make([]byte, 32)},
		{"curve order", order},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePrivateKey(tt.in); !errors.Is(err, ErrInvalidPrivateKey) {
				t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
			}
		})
	}
}
