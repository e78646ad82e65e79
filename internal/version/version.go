// Package version exposes the agentcoord release version.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the current version, with whitespace trimmed.
func Get() string {
	return strings.TrimSpace(versionContent)
}

// String returns the version formatted for display, e.g. "agentcoord version 0.1.0".
func String() string {
	return "agentcoord version " + Get()
}
