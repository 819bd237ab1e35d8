// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package version holds build information for the jade-signer binaries.
// Values are injected at build time via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Example: go build -ldflags "-X github.com/jade-signer/jade-signer/internal/version.Version=0.4.0"
var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"

	// GitCommit is the short commit hash.
	GitCommit = "unknown"

	// BuildTime is the build timestamp in RFC3339 format.
	BuildTime = "unknown"
)

// String returns the --version line.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s/%s)",
		Version, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}

// Info is the machine readable form of the build information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
