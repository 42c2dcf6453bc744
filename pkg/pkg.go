// Package pkg describes the scribe distribution: its name, version, authors,
// and the per-user directories it reads and writes.
//
//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version is embedded from the VERSION file.
//
//go:embed VERSION
var version string

// Version returns the trimmed release version.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the command name and the base of all per-user paths.
	Name = "scribe"
	// Description is the one-line summary shown in help output.
	Description = "Sectioned template compiler and virtual machine"
)

// EnvPrefix is joined by an underscore to flag names to form environment
// variable names, e.g. SCRIBE_LOG_LEVEL.
func EnvPrefix() string { return strings.ToUpper(Name) }

// AuthorInfo identifies one author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
