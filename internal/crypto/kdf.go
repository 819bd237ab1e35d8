// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// KDF identifiers as they appear in keyfile envelopes.
const (
	KdfArgon2id = "argon2id"
	KdfScrypt   = "scrypt"
	KdfPBKDF2   = "pbkdf2"

	// PRFHmacSHA256 is the only pbkdf2 PRF accepted on import.
	PRFHmacSHA256 = "hmac-sha256"

	// DerivedKeyLen is the length of every derived key (AES-256).
	DerivedKeyLen = 32
)

// ErrUnknownKdfLevel is returned by ParseKdfLevel.
var ErrUnknownKdfLevel = errors.New("unknown kdf level")

// KdfLevel selects the cost of the passphrase KDF applied to new and rekeyed
// keyfiles.
type KdfLevel int

const (
	KdfLow KdfLevel = iota
	KdfNormal
	KdfHigh
)

// Argon2Params are the Argon2id cost parameters.
type Argon2Params struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

var levelParams = map[KdfLevel]Argon2Params{
	KdfLow:    {Time: 1, MemoryKiB: 16 * 1024, Threads: 2, KeyLen: DerivedKeyLen},
	KdfNormal: {Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: DerivedKeyLen},
	KdfHigh:   {Time: 3, MemoryKiB: 256 * 1024, Threads: 4, KeyLen: DerivedKeyLen},
}

// ParseKdfLevel parses "low", "normal" or "high". The empty string is normal.
func ParseKdfLevel(s string) (KdfLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return KdfLow, nil
	case "", "normal":
		return KdfNormal, nil
	case "high":
		return KdfHigh, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKdfLevel, s)
}

func (l KdfLevel) String() string {
	switch l {
	case KdfLow:
		return "low"
	case KdfNormal:
		return "normal"
	case KdfHigh:
		return "high"
	}
	return fmt.Sprintf("KdfLevel(%d)", int(l))
}

// Params returns the Argon2id parameters for the level.
func (l KdfLevel) Params() Argon2Params {
	p, ok := levelParams[l]
	if !ok {
		return levelParams[KdfNormal]
	}
	return p
}

// DeriveArgon2id derives a key using Argon2id (memory-hard, GPU-resistant).
// Caller is responsible for zeroing the returned key when done.
func DeriveArgon2id(passphrase, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// DeriveScrypt derives a key using scrypt. Used for Web3 v3 keyfiles.
func DeriveScrypt(passphrase, salt []byte, n, r, p, keyLen int) ([]byte, error) {
	dk, err := scrypt.Key(passphrase, salt, n, r, p, keyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return dk, nil
}

// DerivePBKDF2 derives a key using PBKDF2-HMAC-SHA256.
func DerivePBKDF2(passphrase, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, keyLen, sha256.New)
}
