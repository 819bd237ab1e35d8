// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"context"
	"encoding/json"

	"github.com/jade-signer/jade-signer/internal/version"
)

// openrpcVersion is the OpenRPC document format served by openrpc_discover.
const openrpcVersion = "1.2.6"

type openrpcDocument struct {
	OpenRPC string          `json:"openrpc"`
	Info    openrpcInfo     `json:"info"`
	Methods []openrpcMethod `json:"methods"`
}

type openrpcInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type openrpcMethod struct {
	Name    string            `json:"name"`
	Summary string            `json:"summary,omitempty"`
	Params  []openrpcParam    `json:"params"`
	Result  openrpcDescriptor `json:"result"`
}

type openrpcParam struct {
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
}

type openrpcDescriptor struct {
	Name string `json:"name"`
}

func param(name string) openrpcParam { return openrpcParam{Name: name, Required: true} }

var additionalParam = openrpcParam{Name: "additional"}

var methodDocs = map[string]openrpcMethod{
	MethodListAccounts:    {Summary: "List accounts", Params: []openrpcParam{additionalParam}, Result: openrpcDescriptor{"accounts"}},
	MethodNewAccount:      {Summary: "Create an account", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"address"}},
	MethodImportAccount:   {Summary: "Import a keyfile or raw key", Params: []openrpcParam{param("keyfile"), additionalParam}, Result: openrpcDescriptor{"address"}},
	MethodExportAccount:   {Summary: "Export the encrypted keyfile", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"keyfile"}},
	MethodUpdateAccount:   {Summary: "Update name and description", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"ok"}},
	MethodHideAccount:     {Summary: "Hide an account", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"ok"}},
	MethodUnhideAccount:   {Summary: "Unhide an account", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"ok"}},
	MethodShakeAccount:    {Summary: "Change the passphrase", Params: []openrpcParam{param("account"), additionalParam}, Result: openrpcDescriptor{"ok"}},
	MethodSignTransaction: {Summary: "Sign a transaction", Params: []openrpcParam{param("transaction"), param("passphrase"), additionalParam}, Result: openrpcDescriptor{"signedTransaction"}},
	MethodSign:            {Summary: "Sign a personal message", Params: []openrpcParam{param("data"), param("address"), param("passphrase"), additionalParam}, Result: openrpcDescriptor{"signature"}},
	MethodSignTypedData:   {Summary: "Sign EIP-712 typed data", Params: []openrpcParam{param("address"), param("typed_data"), param("passphrase"), additionalParam}, Result: openrpcDescriptor{"signature"}},
	MethodListContracts:   {Summary: "List contracts of a chain", Params: []openrpcParam{additionalParam}, Result: openrpcDescriptor{"contracts"}},
	MethodImportContract:  {Summary: "Store a contract for a chain", Params: []openrpcParam{param("contract"), additionalParam}, Result: openrpcDescriptor{"ok"}},
	MethodChains:          {Summary: "List supported chains", Params: []openrpcParam{}, Result: openrpcDescriptor{"chains"}},
	MethodDiscover:        {Summary: "Describe this service", Params: []openrpcParam{}, Result: openrpcDescriptor{"document"}},
}

func (s *Server) discover(ctx context.Context, raw json.RawMessage) (any, error) {
	if _, err := parseChainOnly(raw); err != nil {
		return nil, err
	}
	doc := openrpcDocument{
		OpenRPC: openrpcVersion,
		Info:    openrpcInfo{Title: "jade-signer", Version: version.Version},
	}
	for _, name := range s.Methods() {
		m := methodDocs[name]
		m.Name = name
		if m.Params == nil {
			m.Params = []openrpcParam{}
		}
		doc.Methods = append(doc.Methods, m)
	}
	return doc, nil
}
