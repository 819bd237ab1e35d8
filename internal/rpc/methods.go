// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/chain"
	"github.com/jade-signer/jade-signer/internal/storage"
)

// Method names.
const (
	MethodListAccounts    = "signer_listAccounts"
	MethodNewAccount      = "signer_newAccount"
	MethodImportAccount   = "signer_importAccount"
	MethodExportAccount   = "signer_exportAccount"
	MethodUpdateAccount   = "signer_updateAccount"
	MethodHideAccount     = "signer_hideAccount"
	MethodUnhideAccount   = "signer_unhideAccount"
	MethodShakeAccount    = "signer_shakeAccount"
	MethodSignTransaction = "signer_signTransaction"
	MethodSign            = "signer_sign"
	MethodSignTypedData   = "signer_signTypedData"
	MethodListContracts   = "signer_listContracts"
	MethodImportContract  = "signer_importContract"
	MethodChains          = "signer_chains"
	MethodDiscover        = "openrpc_discover"
)

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// accountInfo is one entry of the listAccounts result.
type accountInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Hardware    bool   `json:"hardware"`
	IsHidden    bool   `json:"is_hidden"`
}

func (s *Server) registerMethods() {
	s.methods = map[string]handlerFunc{
		MethodListAccounts:    s.listAccounts,
		MethodNewAccount:      s.newAccount,
		MethodImportAccount:   s.importAccount,
		MethodExportAccount:   s.exportAccount,
		MethodUpdateAccount:   s.updateAccount,
		MethodHideAccount:     s.hideAccount,
		MethodUnhideAccount:   s.unhideAccount,
		MethodShakeAccount:    s.shakeAccount,
		MethodSignTransaction: s.signTransaction,
		MethodSign:            s.sign,
		MethodSignTypedData:   s.signTypedData,
		MethodListContracts:   s.listContracts,
		MethodImportContract:  s.importContract,
		MethodChains:          s.chains,
		MethodDiscover:        s.discover,
	}
}

// Methods returns the registered method names in order.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MethodNames returns every method a server registers, sorted.
func MethodNames() []string {
	s := &Server{}
	s.registerMethods()
	return s.Methods()
}

func (s *Server) listAccounts(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseListAccounts(raw)
	if err != nil {
		return nil, err
	}
	list, err := s.accounts.ListAccounts(ctx, account.ListRequest{ChainID: p.ChainID, ShowHidden: p.ShowHidden})
	if err != nil {
		return nil, err
	}
	out := make([]accountInfo, 0, len(list))
	for _, a := range list {
		out = append(out, accountInfo{
			Address:     a.Address.String(),
			Name:        a.Name,
			Description: a.Description,
			Hardware:    a.Hardware,
			IsHidden:    a.Hidden,
		})
	}
	return out, nil
}

func (s *Server) newAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseNewAccount(raw)
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	addr, err := s.accounts.CreateAccount(ctx, account.CreateRequest{
		Name:        p.Name,
		Description: p.Description,
		Passphrase:  p.Passphrase,
	})
	if err != nil {
		return nil, err
	}
	return addr.String(), nil
}

func (s *Server) importAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseImportAccount(raw)
	if err != nil {
		return nil, err
	}
	defer clear(p.PrivateKey)

	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	addr, err := s.accounts.ImportAccount(ctx, account.ImportRequest{
		Keyfile:     p.Keyfile,
		PrivateKey:  p.PrivateKey,
		Name:        p.Name,
		Description: p.Description,
		Passphrase:  p.Passphrase,
	})
	if err != nil {
		return nil, err
	}
	return addr.String(), nil
}

func (s *Server) exportAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseAccount(raw, "passphrase")
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	return s.accounts.ExportAccount(ctx, p.Address, p.Passphrase)
}

func (s *Server) updateAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseAccount(raw, "name", "description")
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateAccount(ctx, p.Address, p.Name, p.Description); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) hideAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseAccount(raw)
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	if err := s.accounts.HideAccount(ctx, p.Address); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) unhideAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseAccount(raw)
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	if err := s.accounts.UnhideAccount(ctx, p.Address); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) shakeAccount(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseAccount(raw, "old_passphrase", "new_passphrase")
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	if err := s.accounts.ShakeAccount(ctx, p.Address, p.OldPassphrase, p.NewPassphrase); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) signTransaction(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseSignTransaction(raw)
	if err != nil {
		return nil, err
	}
	signed, err := s.signer.SignTransaction(ctx, p.Tx, p.ChainID, p.Passphrase)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(signed), nil
}

func (s *Server) sign(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseSign(raw)
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	sig, err := s.signer.Sign(ctx, p.Address, p.Data, p.Passphrase)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(sig), nil
}

func (s *Server) signTypedData(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseSignTypedData(raw)
	if err != nil {
		return nil, err
	}
	if err := optionalChain(p.ChainID); err != nil {
		return nil, err
	}
	sig, err := s.signer.SignTypedData(ctx, p.Address, p.TypedData, p.Passphrase)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(sig), nil
}

func (s *Server) listContracts(ctx context.Context, raw json.RawMessage) (any, error) {
	id, err := parseChainOnly(raw)
	if err != nil {
		return nil, err
	}
	name, _, err := chain.Resolve(id)
	if err != nil {
		return nil, err
	}
	return s.ctrl.Contracts().List(name)
}

func (s *Server) importContract(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := parseImportContract(raw)
	if err != nil {
		return nil, err
	}
	name, _, err := chain.Resolve(p.ChainID)
	if err != nil {
		return nil, err
	}
	err = s.ctrl.Contracts().Put(name, storage.Contract{Address: p.Address, Name: p.Name, ABI: p.ABI})
	if err != nil {
		return nil, err
	}
	s.logger.Info("contract imported", "chain", name, "address", p.Address.String())
	return true, nil
}

func (s *Server) chains(ctx context.Context, raw json.RawMessage) (any, error) {
	if _, err := parseChainOnly(raw); err != nil {
		return nil, err
	}
	return chain.Chains(), nil
}

// optionalChain validates a chain id when one is given. Account records
// are shared by every chain, so the id does not select anything.
func optionalChain(id *uint64) error {
	if id == nil {
		return nil
	}
	_, _, err := chain.Resolve(id)
	return err
}
