// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// configdoc generates markdown documentation from Go struct tags.
// Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md
package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/jade-signer/jade-signer/internal/rpc"
	"github.com/jade-signer/jade-signer/internal/util"
)

type envVar struct {
	Name        string
	Description string
	UsedBy      string
}

var envVars = []envVar{
	{util.DataDirEnv, "Data directory holding config.yaml, used when -d is not given", "jadesignerd, jadestore"},
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		fmt.Println("Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md")
		fmt.Println()
		fmt.Println("Generates markdown documentation from Go struct tags.")
		return
	}
	writeReference(os.Stdout)
}

func writeReference(w io.Writer) {
	fmt.Fprintln(w, "# Configuration Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Auto-generated from Go struct tags. Do not edit manually.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## jadesignerd Configuration")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: `%s` in the data directory (`-d` or `%s`). Relative paths are resolved against the data directory.\n", util.ConfigFileName, util.DataDirEnv)
	fmt.Fprintln(w)
	writeStructTable(w, reflect.TypeOf(util.ServerConfig{}))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Environment Variables")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Variable | Description | Used By |")
	fmt.Fprintln(w, "|----------|-------------|---------|")
	for _, env := range envVars {
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", env.Name, env.Description, env.UsedBy)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## RPC Methods")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Any of these may be listed in `disabled_methods`.")
	fmt.Fprintln(w)
	for _, m := range rpc.MethodNames() {
		fmt.Fprintf(w, "- `%s`\n", m)
	}
}

func writeStructTable(w io.Writer, t reflect.Type) {
	fmt.Fprintln(w, "| Field | Type | Default | Description |")
	fmt.Fprintln(w, "|-------|------|---------|-------------|")

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]

		desc := field.Tag.Get("description")
		if desc == "" {
			desc = "(no description)"
		}

		def := field.Tag.Get("default")
		switch def {
		case "":
			def = "(none)"
		case `""`:
			def = "(empty string)"
		}

		fmt.Fprintf(w, "| `%s` | %s | `%s` | %s |\n", name, formatType(field.Type), def, desc)
	}
}

func formatType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Ptr:
		return "*" + formatType(t.Elem())
	default:
		return t.String()
	}
}
