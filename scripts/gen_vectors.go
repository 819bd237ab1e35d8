// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

//go:build ignore

// Helper script that signs a sample transaction and message with a given
// key, for building RPC fixtures and checking clients against the signer.
// Usage: go run scripts/gen_vectors.go [private-key-hex]
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/signing"
	"github.com/jade-signer/jade-signer/internal/storage"
)

const passphrase = "vectors"

func main() {
	keyHex := "4646464646464646464646464646464646464646464646464646464646464646"
	if len(os.Args) > 1 {
		keyHex = strings.TrimPrefix(os.Args[1], "0x")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctrl, err := storage.NewController("", storage.TypeMemory, nil)
	if err != nil {
		panic(err)
	}
	defer func() { _ = ctrl.Close() }()

	codec := keyfile.NewCodec(crypto.KdfLow, 1, nil)
	accounts := account.NewService(ctrl, codec, account.Config{}, nil, nil)
	signer := signing.NewService(ctrl, codec, nil, nil)

	from, err := accounts.ImportAccount(ctx, account.ImportRequest{PrivateKey: key, Passphrase: passphrase})
	if err != nil {
		panic(err)
	}

	to, _ := keyfile.ParseAddress("0x3535353535353535353535353535353535353535")
	tx := signing.Transaction{
		From:     from,
		To:       &to,
		Gas:      21000,
		GasPrice: big.NewInt(20_000_000_000),
		Value:    new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		Nonce:    9,
	}
	chainID := uint64(1)
	signedTx, err := signer.SignTransaction(ctx, tx, &chainID, passphrase)
	if err != nil {
		panic(err)
	}

	sig, err := signer.Sign(ctx, from, []byte("hello"), passphrase)
	if err != nil {
		panic(err)
	}

	fmt.Println("=== Account ===")
	fmt.Printf("address: %s\n", from)
	fmt.Println()

	fmt.Println("=== Signed Transaction (EIP-155, chain 1) ===")
	fmt.Printf("signing_hash: %x\n", mustHash(tx))
	fmt.Printf("signed_tx: %s\n", hexutil.Encode(signedTx))
	fmt.Println()

	fmt.Println("=== Personal Message \"hello\" ===")
	fmt.Printf("signature: %s\n", hexutil.Encode(sig))
	fmt.Println()

	fmt.Println("=== Example: signer_signTransaction ===")
	fmt.Println(`curl -X POST http://127.0.0.1:1920/ \
  -H "Content-Type: application/json" \
  -H "Authorization: Bearer YOUR_TOKEN" \
  -d '{"jsonrpc":"2.0","id":1,"method":"signer_signTransaction","params":[
    {"from":"` + from.String() + `","to":"` + to.String() + `","gas":"0x5208",
     "gasPrice":"0x4a817c800","value":"0xde0b6b3a7640000","nonce":"0x9"},
    "YOUR_PASSPHRASE",
    {"chain_id":1}]}'`)
}

func mustHash(tx signing.Transaction) []byte {
	h, err := tx.SigningHash(1)
	if err != nil {
		panic(err)
	}
	return h
}
