// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/testutil"
	"github.com/jade-signer/jade-signer/internal/util"
)

type harness struct {
	dir     string
	out     *bytes.Buffer
	answers []string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	cfg := "storage: fs\nkdf_level: low\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, util.ConfigFileName), []byte(cfg), 0600))
	return &harness{dir: dir, out: &bytes.Buffer{}}
}

// run executes one command with a fresh cli, answering prompts in order.
func (h *harness) run(t *testing.T, answers []string, args ...string) error {
	t.Helper()
	h.out.Reset()
	c := newCLI(h.out)
	c.codec = testutil.NewCodec()
	c.prompt = func(string) (string, error) {
		if len(answers) == 0 {
			return "", errors.New("unexpected prompt")
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	return c.run(append([]string{"-d", h.dir}, args...), flags.HelpFlag)
}

func TestNewListAndHide(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, []string{"pw", "pw"}, "new", "--name", "main"))
	addr := strings.TrimSpace(h.out.String())
	_, err := keyfile.ParseAddress(addr)
	require.NoError(t, err)

	require.NoError(t, h.run(t, nil, "list"))
	require.Contains(t, h.out.String(), addr)
	require.Contains(t, h.out.String(), "main")

	require.NoError(t, h.run(t, nil, "hide", addr))
	require.NoError(t, h.run(t, nil, "list"))
	require.NotContains(t, h.out.String(), addr)

	require.NoError(t, h.run(t, nil, "list", "--all"))
	require.Contains(t, h.out.String(), "hidden")

	require.NoError(t, h.run(t, nil, "unhide", addr))
	require.NoError(t, h.run(t, nil, "list"))
	require.Contains(t, h.out.String(), addr)
}

func TestNewPassphraseMismatch(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, []string{"one", "two"}, "new")
	require.ErrorIs(t, err, errPassphraseMismatch)
}

func TestImportRawExportAndPasswd(t *testing.T) {
	h := newHarness(t)

	keyPath := filepath.Join(h.dir, "key.hex")
	require.NoError(t, os.WriteFile(keyPath, []byte("0x"+testutil.Web3KeyHex+"\n"), 0600))

	require.NoError(t, h.run(t, []string{"old", "old"}, "import", "--raw", "--name", "web3", keyPath))
	require.Equal(t, testutil.Web3KeyAddr, strings.TrimSpace(h.out.String()))

	err := h.run(t, []string{"wrong"}, "export", testutil.Web3KeyAddr)
	require.ErrorIs(t, err, keyfile.ErrInvalidPassphrase)

	require.NoError(t, h.run(t, []string{"old", "new", "new"}, "passwd", testutil.Web3KeyAddr))

	out := filepath.Join(h.dir, "export.json")
	require.NoError(t, h.run(t, []string{"new"}, "export", "-o", out, testutil.Web3KeyAddr))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	kf, err := keyfile.Parse(data)
	require.NoError(t, err)
	require.Equal(t, testutil.Web3KeyAddr, kf.Address.String())
	require.Equal(t, "web3", kf.Name)

	// Re-importing the exported document is a duplicate.
	err = h.run(t, []string{""}, "import", out)
	require.ErrorIs(t, err, account.ErrDuplicateAddress)
}

func TestRenameAndDelete(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, []string{"pw", "pw"}, "new"))
	addr := strings.TrimSpace(h.out.String())

	require.Error(t, h.run(t, nil, "rename", addr))
	require.NoError(t, h.run(t, nil, "rename", "--name", "savings", addr))
	require.NoError(t, h.run(t, nil, "list"))
	require.Contains(t, h.out.String(), "savings")

	require.Error(t, h.run(t, nil, "delete", addr))
	require.NoError(t, h.run(t, nil, "delete", "--yes", addr))
	require.NoError(t, h.run(t, nil, "list"))
	require.NotContains(t, h.out.String(), addr)
}

func TestBadAddressAndChains(t *testing.T) {
	h := newHarness(t)
	require.Error(t, h.run(t, nil, "hide", "0x1234"))

	require.NoError(t, h.run(t, nil, "chains"))
	require.Contains(t, h.out.String(), "etc")
	require.Contains(t, h.out.String(), "61")
}

func TestTakePassphraseZeroesInput(t *testing.T) {
	b := []byte("correct horse")
	require.Equal(t, "correct horse", takePassphrase(b))
	require.Equal(t, make([]byte, len(b)), b)
}
