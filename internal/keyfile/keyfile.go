// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package keyfile defines the encrypted keyfile document and the codec that
// seals and opens the private key it carries.
//
// The document follows the Web3 Secret Storage layout (version 3) with
// display metadata added. Keyfiles written by this package use
// aes-256-gcm under argon2id. Standard aes-128-ctr keyfiles with scrypt or
// pbkdf2 are accepted on import and can be used as-is.
package keyfile

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// Version is the document version written and accepted.
const Version = 3

// Cipher identifiers.
const (
	CipherAES256GCM = "aes-256-gcm"
	CipherAES128CTR = "aes-128-ctr"
)

// Upper bounds on imported KDF cost so an imported document cannot pin a
// worker for minutes.
const (
	maxScryptN         = 1 << 20
	maxScryptR         = 32
	maxScryptP         = 16
	maxScryptWork      = 1 << 30 // 128*n*r*p bytes
	maxPBKDF2Iter      = 10_000_000
	maxArgon2MemoryKiB = 1 << 20
	maxArgon2Time      = 16
)

// ErrInvalidKeyfile is returned when a document fails validation.
var ErrInvalidKeyfile = errmodel.New(errmodel.Validation, "invalid keyfile")

// HexBytes marshals as lower-case hex. Unmarshal accepts an optional 0x prefix.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*h = b
	return nil
}

// CipherParams holds the cipher initialization vector or nonce.
type CipherParams struct {
	IV HexBytes `json:"iv"`
}

// KDFParams holds the parameters of every supported KDF. Only the fields of
// the envelope's KDF are set.
type KDFParams struct {
	DKLen int      `json:"dklen"`
	Salt  HexBytes `json:"salt"`

	// scrypt
	N int `json:"n,omitempty"`
	R int `json:"r,omitempty"`

	// scrypt parallelism, argon2id threads
	P int `json:"p,omitempty"`

	// pbkdf2
	C   int    `json:"c,omitempty"`
	PRF string `json:"prf,omitempty"`

	// argon2id
	T uint32 `json:"t,omitempty"`
	M uint32 `json:"m,omitempty"`
}

// CryptoEnvelope is everything needed to recover the key from a passphrase.
type CryptoEnvelope struct {
	Cipher       string       `json:"cipher"`
	CipherText   HexBytes     `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          HexBytes     `json:"mac"`
}

// Keyfile is the durable record of one account.
type Keyfile struct {
	Version     int             `json:"version"`
	ID          uuid.UUID       `json:"id"`
	Address     Address         `json:"address"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
	Hardware    bool            `json:"hardware,omitempty"`
	Crypto      *CryptoEnvelope `json:"crypto,omitempty"`
}

// Summary is the metadata of a keyfile without its envelope.
type Summary struct {
	Address     Address `json:"address"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Hidden      bool    `json:"hidden"`
	Hardware    bool    `json:"hardware"`
}

// Summary returns the keyfile's metadata.
func (k *Keyfile) Summary() Summary {
	return Summary{
		Address:     k.Address,
		Name:        k.Name,
		Description: k.Description,
		Hidden:      k.Hidden,
		Hardware:    k.Hardware,
	}
}

// Clone returns a deep copy.
func (k *Keyfile) Clone() *Keyfile {
	c := *k
	if k.Crypto != nil {
		env := *k.Crypto
		env.CipherText = append(HexBytes(nil), k.Crypto.CipherText...)
		env.CipherParams.IV = append(HexBytes(nil), k.Crypto.CipherParams.IV...)
		env.KDFParams.Salt = append(HexBytes(nil), k.Crypto.KDFParams.Salt...)
		env.MAC = append(HexBytes(nil), k.Crypto.MAC...)
		c.Crypto = &env
	}
	return &c
}

// Validate checks the structural invariants of a document: known version,
// non-zero address, and a crypto envelope present exactly when the account is
// not a hardware account.
func (k *Keyfile) Validate() error {
	if k.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidKeyfile, k.Version)
	}
	if k.Address.IsZero() {
		return fmt.Errorf("%w: missing address", ErrInvalidKeyfile)
	}
	if k.Hardware {
		if k.Crypto != nil {
			return fmt.Errorf("%w: hardware account carries key material", ErrInvalidKeyfile)
		}
		return nil
	}
	if k.Crypto == nil {
		return fmt.Errorf("%w: missing crypto envelope", ErrInvalidKeyfile)
	}
	return k.Crypto.validate()
}

func (e *CryptoEnvelope) validate() error {
	p := e.KDFParams
	if p.DKLen != crypto.DerivedKeyLen || len(p.Salt) == 0 {
		return fmt.Errorf("%w: bad kdf parameters", ErrInvalidKeyfile)
	}
	switch e.KDF {
	case crypto.KdfArgon2id:
		if p.T == 0 || p.T > maxArgon2Time || p.M == 0 || p.M > maxArgon2MemoryKiB || p.P <= 0 || p.P > 255 {
			return fmt.Errorf("%w: argon2id cost out of range", ErrInvalidKeyfile)
		}
	case crypto.KdfScrypt:
		if p.N <= 1 || p.N > maxScryptN || p.N&(p.N-1) != 0 ||
			p.R <= 0 || p.R > maxScryptR || p.P <= 0 || p.P > maxScryptP {
			return fmt.Errorf("%w: scrypt cost out of range", ErrInvalidKeyfile)
		}
		if 128*uint64(p.N)*uint64(p.R)*uint64(p.P) > maxScryptWork {
			return fmt.Errorf("%w: scrypt cost out of range", ErrInvalidKeyfile)
		}
	case crypto.KdfPBKDF2:
		if p.C <= 0 || p.C > maxPBKDF2Iter || p.PRF != crypto.PRFHmacSHA256 {
			return fmt.Errorf("%w: pbkdf2 parameters unsupported", ErrInvalidKeyfile)
		}
	default:
		return fmt.Errorf("%w: unsupported kdf %q", ErrInvalidKeyfile, e.KDF)
	}

	switch e.Cipher {
	case CipherAES256GCM:
		if e.KDF != crypto.KdfArgon2id || len(e.CipherParams.IV) != crypto.GCMNonceSize || len(e.MAC) != crypto.GCMTagSize {
			return fmt.Errorf("%w: bad aes-256-gcm envelope", ErrInvalidKeyfile)
		}
	case CipherAES128CTR:
		if len(e.CipherParams.IV) != 16 || len(e.MAC) != 32 {
			return fmt.Errorf("%w: bad aes-128-ctr envelope", ErrInvalidKeyfile)
		}
	default:
		return fmt.Errorf("%w: unsupported cipher %q", ErrInvalidKeyfile, e.Cipher)
	}
	if len(e.CipherText) == 0 {
		return fmt.Errorf("%w: empty ciphertext", ErrInvalidKeyfile)
	}
	return nil
}

// Parse decodes and validates a keyfile document.
func Parse(data []byte) (*Keyfile, error) {
	var kf Keyfile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyfile, err)
	}
	if err := kf.Validate(); err != nil {
		return nil, err
	}
	return &kf, nil
}

// Marshal encodes a keyfile document.
func Marshal(kf *Keyfile) ([]byte, error) {
	return json.Marshal(kf)
}
