// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jade-signer/jade-signer/internal/crypto"
)

// stdinReader is shared so piped input is not lost between prompts.
var stdinReader *bufio.Reader

// readPassphrase prompts on stderr. On a terminal input is not echoed;
// otherwise one line is read from stdin.
func readPassphrase(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return takePassphrase(b), nil
	}

	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// takePassphrase copies b into a string and zeroes b.
func takePassphrase(b []byte) string {
	s := string(b)
	crypto.ZeroBytes(b)
	return s
}

var errPassphraseMismatch = errors.New("passphrases do not match")

// newPassphrase prompts for a passphrase twice.
func (c *cli) newPassphrase(label string) (string, error) {
	first, err := c.prompt(label)
	if err != nil {
		return "", err
	}
	second, err := c.prompt("Repeat " + strings.ToLower(label[:1]) + label[1:])
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPassphraseMismatch
	}
	return first, nil
}
