// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package signing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// ErrInvalidTypedData is returned when an EIP-712 document cannot be hashed.
var ErrInvalidTypedData = errmodel.New(errmodel.Validation, "invalid typed data")

// MessageHash returns the EIP-191 personal message digest of msg.
func MessageHash(msg []byte) []byte {
	return accounts.TextHash(msg)
}

// TypedDataHash returns the EIP-712 digest of td.
func TypedDataHash(td apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTypedData, err)
	}
	return hash, nil
}
