// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/auth"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/signing"
	"github.com/jade-signer/jade-signer/internal/storage"
	"github.com/jade-signer/jade-signer/internal/testutil"
)

type testServer struct {
	*httptest.Server
	ctrl  *storage.Controller
	token string
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	ctrl := testutil.NewController(t)
	codec := testutil.NewCodec()

	accounts := account.NewService(ctrl, codec, account.Config{}, nil, nil)
	signer := signing.NewService(ctrl, codec, nil, nil)
	srv := NewServer(accounts, signer, ctrl, cfg, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, ctrl: ctrl}
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

func (ts *testServer) post(t *testing.T, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// call sends one request and decodes the response.
func (ts *testServer) call(t *testing.T, method string, params ...any) rpcResponse {
	t.Helper()
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := ts.post(t, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "2.0", out.JSONRPC)
	return out
}

func (ts *testServer) result(t *testing.T, v any, method string, params ...any) {
	t.Helper()
	resp := ts.call(t, method, params...)
	require.Nil(t, resp.Error, "unexpected error %+v", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, v))
}

func requireRPCError(t *testing.T, resp rpcResponse, code int, category string) {
	t.Helper()
	require.NotNil(t, resp.Error, "expected error, got result %s", resp.Result)
	require.Equal(t, code, resp.Error.Code)
	require.NotNil(t, resp.Error.Data)
	require.Equal(t, category, resp.Error.Data.Category)
}

type obj = map[string]any

func TestScenario_CreateAndSignOnETC(t *testing.T) {
	ts := newTestServer(t, Config{})

	var addr string
	ts.result(t, &addr, MethodNewAccount, obj{"name": "etc", "passphrase": "p1"}, obj{"chain_id": 61})
	require.Len(t, addr, 42)

	var sig string
	ts.result(t, &sig, MethodSign, "hello", addr, "p1", obj{"chain_id": 61})
	require.Len(t, sig, 2+2*signing.SignatureLength)

	resp := ts.call(t, MethodSign, "hello", addr, "wrong", obj{"chain_id": 61})
	requireRPCError(t, resp, -32011, "invalid_passphrase")
	require.Equal(t, "invalid passphrase", resp.Error.Message)
}

func TestScenario_HardwareAccountCannotSign(t *testing.T) {
	ts := newTestServer(t, Config{})
	const addr = "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"

	var got string
	ts.result(t, &got, MethodImportAccount, obj{"version": 3, "address": addr, "hardware": true, "name": "ledger"})
	require.Equal(t, addr, got)

	resp := ts.call(t, MethodSignTransaction,
		obj{"from": addr, "to": addr, "gas": "21000", "gasPrice": "1", "value": "0", "nonce": "0"},
		"any passphrase",
		obj{"chain_id": 1},
	)
	requireRPCError(t, resp, -32014, "hardware_account")
	require.NotEqual(t, -32011, resp.Error.Code)
}

func TestScenario_LegacyListAccounts(t *testing.T) {
	ts := newTestServer(t, Config{})

	var visible, hidden string
	ts.result(t, &visible, MethodNewAccount, obj{"passphrase": "pw"})
	ts.result(t, &hidden, MethodNewAccount, obj{"passphrase": "pw"})

	var ok bool
	ts.result(t, &ok, MethodHideAccount, obj{"address": hidden})
	require.True(t, ok)

	// Legacy shape: no additional object means show_hidden=false and no chain.
	var list []accountInfo
	ts.result(t, &list, MethodListAccounts)
	require.Len(t, list, 1)
	require.Equal(t, visible, list[0].Address)

	ts.result(t, &list, MethodListAccounts, obj{"show_hidden": true})
	require.Len(t, list, 2)

	// Operations that need a chain fail without one.
	resp := ts.call(t, MethodListContracts)
	requireRPCError(t, resp, -32602, "validation")
	require.Contains(t, resp.Error.Message, "missing chain id")

	resp = ts.call(t, MethodSignTransaction, obj{"from": visible, "gas": "21000", "nonce": "0"}, "pw")
	requireRPCError(t, resp, -32602, "validation")
	require.Contains(t, resp.Error.Message, "missing chain id")
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})

	var addr string
	ts.result(t, &addr, MethodImportAccount, obj{
		"private_key": "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		"passphrase":  "old",
		"name":        "imported",
	})
	require.Equal(t, "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23", addr)

	resp := ts.call(t, MethodImportAccount, obj{
		"private_key": "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		"passphrase":  "old",
	})
	requireRPCError(t, resp, -32013, "duplicate_address")

	var ok bool
	ts.result(t, &ok, MethodUpdateAccount, obj{"address": addr, "description": "cold"})
	ts.result(t, &ok, MethodShakeAccount, obj{"address": addr, "old_passphrase": "old", "new_passphrase": "new"})

	resp = ts.call(t, MethodExportAccount, obj{"address": addr, "passphrase": "old"})
	requireRPCError(t, resp, -32011, "invalid_passphrase")

	var doc keyfile.Keyfile
	ts.result(t, &doc, MethodExportAccount, obj{"address": addr, "passphrase": "new"})
	require.Equal(t, addr, doc.Address.String())
	require.Equal(t, "imported", doc.Name)
	require.Equal(t, "cold", doc.Description)
	require.NotNil(t, doc.Crypto)

	resp = ts.call(t, MethodHideAccount, obj{"address": "0x0000000000000000000000000000000000000001"})
	requireRPCError(t, resp, -32010, "not_found")

	resp = ts.call(t, MethodNewAccount, obj{"passphrase": "pw"}, obj{"chain_id": 2})
	requireRPCError(t, resp, -32602, "validation")
}

func TestSignTransaction_OverRPC(t *testing.T) {
	ts := newTestServer(t, Config{})

	var from string
	ts.result(t, &from, MethodImportAccount, obj{
		"private_key": "0x4646464646464646464646464646464646464646464646464646464646464646",
		"passphrase":  "pw",
	})

	var signed string
	ts.result(t, &signed, MethodSignTransaction,
		obj{
			"from":     from,
			"to":       "0x3535353535353535353535353535353535353535",
			"gas":      "0x5208",
			"gasPrice": "0x4a817c800",
			"value":    "0xde0b6b3a7640000",
			"data":     "",
			"nonce":    "0x9",
		},
		"pw",
		obj{"chain_id": "0x1"},
	)
	require.Equal(t, "0xf86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83", signed)
}

func TestContracts(t *testing.T) {
	ts := newTestServer(t, Config{})
	const addr = "0x3535353535353535353535353535353535353535"

	var ok bool
	ts.result(t, &ok, MethodImportContract, obj{"address": addr, "name": "token", "abi": []any{obj{"type": "function", "name": "transfer"}}}, obj{"chain_id": 61})
	require.True(t, ok)

	var list []storage.Contract
	ts.result(t, &list, MethodListContracts, obj{"chain_id": 61})
	require.Len(t, list, 1)
	require.Equal(t, addr, list[0].Address.String())
	require.Equal(t, "token", list[0].Name)

	ts.result(t, &list, MethodListContracts, obj{"chain_id": 1})
	require.Empty(t, list)

	resp := ts.call(t, MethodImportContract, obj{"address": addr, "name": "no abi"}, obj{"chain_id": 61})
	requireRPCError(t, resp, -32602, "validation")
}

func TestDiscoverAndChains(t *testing.T) {
	ts := newTestServer(t, Config{})

	var doc struct {
		OpenRPC string `json:"openrpc"`
		Methods []struct {
			Name string `json:"name"`
		} `json:"methods"`
	}
	ts.result(t, &doc, MethodDiscover)
	require.Equal(t, openrpcVersion, doc.OpenRPC)
	names := make([]string, 0, len(doc.Methods))
	for _, m := range doc.Methods {
		names = append(names, m.Name)
	}
	require.Contains(t, names, MethodSignTypedData)
	require.Contains(t, names, MethodDiscover)

	var chains []struct {
		ID   int    `json:"chain_id"`
		Name string `json:"name"`
	}
	ts.result(t, &chains, MethodChains)
	require.NotEmpty(t, chains)
	require.Equal(t, 1, chains[0].ID)
	require.Equal(t, "eth", chains[0].Name)
}

func TestProtocolErrors(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := ts.call(t, "signer_nope")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	r := ts.post(t, `{"jsonrpc":"2.0","id":1,"method":`)
	var out rpcResponse
	require.NoError(t, json.NewDecoder(r.Body).Decode(&out))
	require.Equal(t, codeParseError, out.Error.Code)

	r = ts.post(t, `{"jsonrpc":"1.0","id":1,"method":"signer_chains"}`)
	require.NoError(t, json.NewDecoder(r.Body).Decode(&out))
	require.Equal(t, codeInvalidRequest, out.Error.Code)

	resp = ts.call(t, MethodListAccounts, obj{}, obj{})
	requireRPCError(t, resp, -32602, "validation")
}

func TestBatchAndNotification(t *testing.T) {
	ts := newTestServer(t, Config{})

	r := ts.post(t, `[
		{"jsonrpc":"2.0","id":1,"method":"signer_chains"},
		{"jsonrpc":"2.0","method":"signer_chains"},
		{"jsonrpc":"2.0","id":"two","method":"signer_listAccounts","params":[]}
	]`)
	require.Equal(t, http.StatusOK, r.StatusCode)
	var out []rpcResponse
	require.NoError(t, json.NewDecoder(r.Body).Decode(&out))
	require.Len(t, out, 2)
	require.JSONEq(t, `1`, string(out[0].ID))
	require.JSONEq(t, `"two"`, string(out[1].ID))
	require.JSONEq(t, `[]`, string(out[1].Result))

	r = ts.post(t, `{"jsonrpc":"2.0","method":"signer_chains"}`)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	r = ts.post(t, `[]`)
	var single rpcResponse
	require.NoError(t, json.NewDecoder(r.Body).Decode(&single))
	require.Equal(t, codeInvalidRequest, single.Error.Code)
}

func TestTokenAuth(t *testing.T) {
	ts := newTestServer(t, Config{Authenticator: auth.NewTokenAuthenticator("secret")})

	r := ts.post(t, `{"jsonrpc":"2.0","id":1,"method":"signer_chains"}`)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)

	ts.token = "wrong"
	r = ts.post(t, `{"jsonrpc":"2.0","id":1,"method":"signer_chains"}`)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)

	ts.token = "secret"
	var chains []any
	ts.result(t, &chains, MethodChains)
	require.NotEmpty(t, chains)

	// Health stays open for probes.
	h, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer h.Body.Close()
	require.Equal(t, http.StatusOK, h.StatusCode)
}

func TestDisabledMethod(t *testing.T) {
	ts := newTestServer(t, Config{Authorizer: auth.NewMethodAuthorizer([]string{MethodExportAccount})})

	resp := ts.call(t, MethodExportAccount, obj{"address": "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23", "passphrase": "pw"})
	requireRPCError(t, resp, -32602, "validation")
	require.Contains(t, resp.Error.Message, "method disabled")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Config{
		CORSOrigins:   []string{"https://wallet.example"},
		Authenticator: auth.NewTokenAuthenticator("secret"),
	})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://wallet.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://wallet.example", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	req, err = http.NewRequest(http.MethodPost, ts.URL+"/", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	resp2, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{Metrics: true})

	var chains []any
	ts.result(t, &chains, MethodChains)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `jadesigner_rpc_requests_total{category="ok",method="signer_chains"} 1`)

	off := newTestServer(t, Config{})
	resp2, err := off.Client().Get(off.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NotEqual(t, http.StatusOK, resp2.StatusCode)
}
