// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// ErrAuthFailed is returned when an authentication tag or MAC does not verify.
var ErrAuthFailed = errors.New("authentication failed")

// Nonce and tag sizes for AES-GCM envelopes.
const (
	GCMNonceSize = 12
	GCMTagSize   = 16
)

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SealGCM encrypts plaintext with AES-GCM and returns the ciphertext and the
// authentication tag separately.
func SealGCM(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - gcm.Overhead()
	return sealed[:split], sealed[split:], nil
}

// OpenGCM reverses SealGCM. A wrong key or modified input returns ErrAuthFailed.
func OpenGCM(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return nil, fmt.Errorf("invalid nonce or tag length")
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// AESCTR applies AES in CTR mode. Encryption and decryption are the same
// operation.
func AESCTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("invalid iv length %d", len(iv))
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

// Keccak256 hashes the concatenation of data with legacy Keccak-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
