// Package cmd implements the scribe subcommands. Each command reads templates
// from files or stdin, and evaluates them against the namespace stored in its
// context by [WithGlobals].
package cmd

const (
	// ConfigIdentifier is the kong variable holding the path of the
	// configuration file written by [Init].
	ConfigIdentifier = "config"

	// HistoryIdentifier is the kong variable holding the default path of the
	// [Repl] history file.
	HistoryIdentifier = "history"
)
