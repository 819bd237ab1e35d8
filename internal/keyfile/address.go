// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package keyfile

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// AddressLen is the byte length of an account address.
const AddressLen = 20

var (
	// ErrInvalidAddress is returned when an address string does not parse.
	ErrInvalidAddress = errmodel.New(errmodel.Validation, "invalid address")

	// ErrInvalidPrivateKey is returned for key bytes outside the curve order.
	ErrInvalidPrivateKey = errmodel.New(errmodel.Validation, "invalid private key")
)

// Address identifies an account. The text form is 0x followed by 40
// lower-case hex digits.
type Address [AddressLen]byte

// ParseAddress accepts 40 hex digits with or without a 0x prefix, in any case.
func ParseAddress(s string) (Address, error) {
	var a Address
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(h) != 2*AddressLen {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.Decode(a[:], []byte(h)); err != nil {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return a, nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Hex returns the address without the 0x prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// PubkeyToAddress derives the account address of a public key: the last 20
// bytes of the Keccak-256 hash of the uncompressed point without its prefix.
func PubkeyToAddress(pub *btcec.PublicKey) Address {
	var a Address
	h := crypto.Keccak256(pub.SerializeUncompressed()[1:])
	copy(a[:], h[12:])
	return a
}

// ParsePrivateKey validates raw key bytes. The caller owns b and the returned
// key, and must zero both.
func ParsePrivateKey(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPrivateKey, len(b))
	}
	var s btcec.ModNScalar
	overflow := s.SetByteSlice(b)
	defer s.Zero()
	if overflow || s.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return priv, nil
}
