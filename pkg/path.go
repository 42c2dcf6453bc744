package pkg

import (
	"os"
	"path/filepath"
	"sync"
)

// userDir joins Name to the directory returned by base. When base fails, the
// home directory joined with fallback is used, and failing that the working
// directory.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		home, herr := os.UserHomeDir()
		switch {
		case herr == nil:
			dir = filepath.Join(home, fallback)
		default:
			if dir, err = os.Getwd(); err != nil {
				dir = "."
			}
		}
	}

	return filepath.Join(dir, Name)
}

// ConfigDir is the directory holding the configuration file.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir is the directory holding transient state such as REPL history.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// ConfigFile returns the default configuration file path.
func ConfigFile() string { return filepath.Join(ConfigDir(), "config.yaml") }

// HistoryFile returns the default REPL history path.
func HistoryFile() string { return filepath.Join(CacheDir(), "history") }
