// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/chain"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/fsutil"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

type addressArg struct {
	Address string `positional-arg-name:"ADDRESS" required:"yes"`
}

func (a addressArg) parse() (keyfile.Address, error) {
	return keyfile.ParseAddress(a.Address)
}

// withAccount opens the keystore, parses the address argument and runs fn.
func (c *cli) withAccount(arg addressArg, fn func(*account.Service, keyfile.Address) error) error {
	addr, err := arg.parse()
	if err != nil {
		return err
	}
	svc, closeFn, err := c.open()
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc, addr)
}

type listCommand struct {
	c *cli

	All     bool   `long:"all" short:"a" description:"Include hidden accounts"`
	ChainID uint64 `long:"chain-id" description:"Validate against a chain id (accounts are not bound to a chain)"`
}

func (x *listCommand) Execute(_ []string) error {
	svc, closeFn, err := x.c.open()
	if err != nil {
		return err
	}
	defer closeFn()

	req := account.ListRequest{ShowHidden: x.All}
	if x.ChainID != 0 {
		req.ChainID = &x.ChainID
	}
	accounts, err := svc.ListAccounts(context.Background(), req)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(x.c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tFLAGS")
	for _, a := range accounts {
		var flags []string
		if a.Hidden {
			flags = append(flags, "hidden")
		}
		if a.Hardware {
			flags = append(flags, "hardware")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Address, a.Name, strings.Join(flags, ","))
	}
	return tw.Flush()
}

type newCommand struct {
	c *cli

	Name        string `long:"name" description:"Account name"`
	Description string `long:"description" description:"Account description"`
}

func (x *newCommand) Execute(_ []string) error {
	pass, err := x.c.newPassphrase("Passphrase")
	if err != nil {
		return err
	}
	svc, closeFn, err := x.c.open()
	if err != nil {
		return err
	}
	defer closeFn()

	addr, err := svc.CreateAccount(context.Background(), account.CreateRequest{
		Name:        x.Name,
		Description: x.Description,
		Passphrase:  pass,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(x.c.out, addr)
	return nil
}

type importCommand struct {
	c *cli

	Raw         bool   `long:"raw" description:"FILE holds a hex private key instead of a keyfile document"`
	Name        string `long:"name" description:"Account name"`
	Description string `long:"description" description:"Account description"`

	Args struct {
		File string `positional-arg-name:"FILE" required:"yes"`
	} `positional-args:"yes"`
}

func (x *importCommand) Execute(_ []string) error {
	data, err := os.ReadFile(x.Args.File)
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(data)

	req := account.ImportRequest{Name: x.Name, Description: x.Description}
	if x.Raw {
		key, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"))
		if err != nil {
			return fmt.Errorf("private key is not hex: %w", err)
		}
		defer crypto.ZeroBytes(key)
		req.PrivateKey = key
		if req.Passphrase, err = x.c.newPassphrase("Passphrase"); err != nil {
			return err
		}
	} else {
		kf, err := keyfile.Parse(data)
		if err != nil {
			return err
		}
		req.Keyfile = kf
		if !kf.Hardware {
			if req.Passphrase, err = x.c.prompt("Passphrase (empty to skip verification)"); err != nil {
				return err
			}
		}
	}

	svc, closeFn, err := x.c.open()
	if err != nil {
		return err
	}
	defer closeFn()

	addr, err := svc.ImportAccount(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Fprintln(x.c.out, addr)
	return nil
}

type exportCommand struct {
	c *cli

	Out  string     `long:"out" short:"o" description:"Write the keyfile to this path instead of stdout"`
	Args addressArg `positional-args:"yes"`
}

func (x *exportCommand) Execute(_ []string) error {
	return x.c.withAccount(x.Args, func(svc *account.Service, addr keyfile.Address) error {
		pass, err := x.c.prompt("Passphrase")
		if err != nil {
			return err
		}
		kf, err := svc.ExportAccount(context.Background(), addr, pass)
		if err != nil {
			return err
		}
		data, err := keyfile.Marshal(kf)
		if err != nil {
			return err
		}
		if x.Out != "" {
			return fsutil.WriteFileAtomic(x.Out, data)
		}
		_, err = fmt.Fprintln(x.c.out, string(data))
		return err
	})
}

type renameCommand struct {
	c *cli

	Name        string     `long:"name" description:"New name"`
	Description string     `long:"description" description:"New description"`
	Args        addressArg `positional-args:"yes"`
}

func (x *renameCommand) Execute(_ []string) error {
	var name, description *string
	if x.Name != "" {
		name = &x.Name
	}
	if x.Description != "" {
		description = &x.Description
	}
	if name == nil && description == nil {
		return errors.New("nothing to change: set --name or --description")
	}
	return x.c.withAccount(x.Args, func(svc *account.Service, addr keyfile.Address) error {
		return svc.UpdateAccount(context.Background(), addr, name, description)
	})
}

type hideCommand struct {
	c      *cli
	hidden bool

	Args addressArg `positional-args:"yes"`
}

func (x *hideCommand) Execute(_ []string) error {
	return x.c.withAccount(x.Args, func(svc *account.Service, addr keyfile.Address) error {
		if x.hidden {
			return svc.HideAccount(context.Background(), addr)
		}
		return svc.UnhideAccount(context.Background(), addr)
	})
}

type passwdCommand struct {
	c *cli

	Args addressArg `positional-args:"yes"`
}

func (x *passwdCommand) Execute(_ []string) error {
	return x.c.withAccount(x.Args, func(svc *account.Service, addr keyfile.Address) error {
		old, err := x.c.prompt("Current passphrase")
		if err != nil {
			return err
		}
		next, err := x.c.newPassphrase("New passphrase")
		if err != nil {
			return err
		}
		return svc.ShakeAccount(context.Background(), addr, old, next)
	})
}

type deleteCommand struct {
	c *cli

	Yes  bool       `long:"yes" description:"Confirm deletion"`
	Args addressArg `positional-args:"yes"`
}

func (x *deleteCommand) Execute(_ []string) error {
	if !x.Yes {
		return errors.New("refusing to delete without --yes")
	}
	return x.c.withAccount(x.Args, func(svc *account.Service, addr keyfile.Address) error {
		return svc.DeleteAccount(context.Background(), addr)
	})
}

type chainsCommand struct {
	c *cli
}

func (x *chainsCommand) Execute(_ []string) error {
	tw := tabwriter.NewWriter(x.c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAIN ID\tNAME")
	for _, ch := range chain.Chains() {
		fmt.Fprintf(tw, "%d\t%s\n", ch.ID, ch.Name)
	}
	return tw.Flush()
}
