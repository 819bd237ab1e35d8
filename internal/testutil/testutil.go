// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package testutil provides reusable test infrastructure and utilities.
package testutil

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"

	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/storage"
)

// Well known keys with published addresses.
const (
	// Web3 documentation key.
	Web3KeyHex  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	Web3KeyAddr = "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"

	// EIP-155 example key, 0x46 repeated.
	EIP155KeyHex  = "4646464646464646464646464646464646464646464646464646464646464646"
	EIP155KeyAddr = "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f"

	// keccak256("cow"), the sender of the EIP-712 Mail example.
	CowKeyHex  = "c85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"
	CowKeyAddr = "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826"
)

// FastKDF keeps argon2id cheap enough for unit tests.
var FastKDF = crypto.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32}

// NewCodec returns a codec using FastKDF.
func NewCodec() *keyfile.Codec {
	return keyfile.NewCodecWithParams(FastKDF, 4, nil)
}

// NewController returns a controller over an in-memory store, closed when
// the test ends.
func NewController(t testing.TB) *storage.Controller {
	t.Helper()
	ctrl := storage.NewControllerWithStore(storage.NewMemoryStore(), nil)
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl
}

// DecodeKey decodes a hex private key.
func DecodeKey(t testing.TB, keyHex string) []byte {
	t.Helper()
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		t.Fatalf("bad test key %q: %v", keyHex, err)
	}
	return b
}

// StoreKey encrypts keyHex under passphrase and puts it into ctrl.
func StoreKey(t testing.TB, ctrl *storage.Controller, codec *keyfile.Codec, keyHex, passphrase string) keyfile.Address {
	t.Helper()
	raw := DecodeKey(t, keyHex)
	defer crypto.ZeroBytes(raw)

	priv, err := keyfile.ParsePrivateKey(raw)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	defer priv.Zero()

	env, err := codec.Encrypt(context.Background(), raw, passphrase)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	kf := &keyfile.Keyfile{
		Version: keyfile.Version,
		ID:      uuid.New(),
		Address: keyfile.PubkeyToAddress(priv.PubKey()),
		Crypto:  env,
	}
	if err := ctrl.Update(func(st storage.KeyfileStore) error { return st.Put(kf) }); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return kf.Address
}

// StoreHardware puts a hardware keyfile for addr into ctrl.
func StoreHardware(t testing.TB, ctrl *storage.Controller, addr keyfile.Address) {
	t.Helper()
	kf := &keyfile.Keyfile{Version: keyfile.Version, ID: uuid.New(), Address: addr, Hardware: true}
	if err := ctrl.Update(func(st storage.KeyfileStore) error { return st.Put(kf) }); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

// MustAddress parses s or fails the test.
func MustAddress(t testing.TB, s string) keyfile.Address {
	t.Helper()
	a, err := keyfile.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return a
}
