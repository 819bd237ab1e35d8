// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// keylint scans the key-handling packages for three mistakes:
//
//   - importing math/rand
//   - passing a passphrase or private key to a logger, printer or formatted error
//   - obtaining a private key in a function that never zeroes one
//
// Usage: go run ./analysis/keylint <repo-root>
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var criticalDirs = []string{
	"internal/crypto",
	"internal/keyfile",
	"internal/account",
	"internal/signing",
	"internal/storage",
	"internal/rpc",
	"cmd/jadestore",
}

// sensitiveIdent matches identifiers and field names that hold secrets.
var sensitiveIdent = regexp.MustCompile(`(?i)^(priv|privkey|privatekey|secret|seed|passphrase|oldpassphrase|newpassphrase|password|plaintext|derived|mnemonic)$`)

// sinks are calls whose arguments end up in logs, output or error strings.
var sinks = map[string]bool{
	"Print": true, "Println": true, "Printf": true,
	"Fprint": true, "Fprintln": true, "Fprintf": true,
	"Sprint": true, "Sprintln": true, "Sprintf": true,
	"Errorf": true,
	"Debug": true, "Info": true, "Warn": true, "Error": true,
	"DebugContext": true, "InfoContext": true, "WarnContext": true, "ErrorContext": true,
}

// keySources return a private key the caller must zero. Unlock counts only
// in its three-argument keystore form, not sync.Mutex.Unlock.
var keySources = map[string]bool{
	"Unlock":           true,
	"NewPrivateKey":    true,
	"ParsePrivateKey":  true,
	"PrivKeyFromBytes": true,
}

type finding struct {
	pos    token.Position
	reason string
}

func (f finding) String() string {
	return fmt.Sprintf("%s:%d: %s", f.pos.Filename, f.pos.Line, f.reason)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: keylint <repo-root>")
		os.Exit(2)
	}

	findings, files, err := lint(os.Args[1], criticalDirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Files checked: %d\n", files)
	if len(findings) == 0 {
		fmt.Println("No issues found.")
		return
	}
	for _, f := range findings {
		fmt.Println(f)
	}
	os.Exit(1)
}

// lint checks the non-test Go files under each of dirs relative to root.
// Missing directories are skipped.
func lint(root string, dirs []string) ([]finding, int, error) {
	fset := token.NewFileSet()
	var (
		findings []finding
		files    int
	)
	for _, dir := range dirs {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
			if err != nil {
				return err
			}
			files++
			findings = append(findings, checkFile(fset, file)...)
			return nil
		})
		if err != nil {
			return nil, files, err
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i].pos, findings[j].pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Line < b.Line
	})
	return findings, files, nil
}

func checkFile(fset *token.FileSet, file *ast.File) []finding {
	var out []finding

	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		if path == "math/rand" || path == "math/rand/v2" {
			out = append(out, finding{fset.Position(imp.Pos()), "math/rand imported; use crypto/rand"})
		}
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || !sinks[calleeName(call)] {
			return true
		}
		for _, arg := range call.Args {
			if name := sensitiveIn(arg); name != "" {
				out = append(out, finding{fset.Position(arg.Pos()), fmt.Sprintf("%s passed to %s", name, calleeName(call))})
			}
		}
		return true
	})

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		if pos, ok := unzeroedKey(fn.Body); ok {
			out = append(out, finding{fset.Position(pos), fmt.Sprintf("%s obtains a private key but never zeroes one", fn.Name.Name)})
		}
	}
	return out
}

func calleeName(call *ast.CallExpr) string {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name
	case *ast.SelectorExpr:
		return fn.Sel.Name
	}
	return ""
}

// sensitiveIn returns the first secret-holding name referenced by expr,
// ignoring function literals and method calls on it (priv.PubKey() is fine).
func sensitiveIn(expr ast.Expr) string {
	var found string
	ast.Inspect(expr, func(n ast.Node) bool {
		if found != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.FuncLit, *ast.CallExpr:
			return false
		case *ast.SelectorExpr:
			if sensitiveIdent.MatchString(n.Sel.Name) {
				found = n.Sel.Name
			}
			return false
		case *ast.Ident:
			if sensitiveIdent.MatchString(n.Name) {
				found = n.Name
			}
		}
		return true
	})
	return found
}

// unzeroedKey reports the position of the first key source in body when
// body has no Zero or ZeroBytes call.
func unzeroedKey(body *ast.BlockStmt) (token.Pos, bool) {
	var (
		source token.Pos
		zeroed bool
	)
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch name := calleeName(call); {
		case keySources[name] && (name != "Unlock" || len(call.Args) == 3) && !source.IsValid():
			source = call.Pos()
		case name == "Zero" || name == "ZeroBytes":
			zeroed = true
		}
		return true
	})
	return source, source.IsValid() && !zeroed
}
