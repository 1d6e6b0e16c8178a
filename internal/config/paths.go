package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "arcadekeep"

// Config file name.
const configFileName = "config.toml"

// DefaultConfigDir returns the platform-specific directory for config
// files. On Linux, respects XDG_CONFIG_HOME (defaults to
// ~/.config/arcadekeep). On macOS, uses ~/Library/Application
// Support/arcadekeep per Apple guidelines. Other platforms fall back to
// ~/.config/arcadekeep.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultDataDir returns the platform-specific directory for the
// collection itself, used as the default collection root when none is
// configured. On Linux, respects XDG_DATA_HOME (defaults to
// ~/.local/share/arcadekeep). On macOS, uses ~/Library/Application
// Support/arcadekeep (macOS convention collapses config and data into one
// directory).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxDataDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".local", "share", appName)
	}
}

// linuxDataDir returns the XDG-compliant data directory for Linux.
func linuxDataDir(home string) string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".local", "share", appName)
}

// DefaultCacheDir returns the platform-specific directory for scratch
// space used during export and launch. On Linux, respects XDG_CACHE_HOME
// (defaults to ~/.cache/arcadekeep). On macOS, uses
// ~/Library/Caches/arcadekeep per Apple guidelines.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxCacheDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Caches", appName)
	default:
		return filepath.Join(home, ".cache", appName)
	}
}

// linuxCacheDir returns the XDG-compliant cache directory for Linux.
func linuxCacheDir(home string) string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".cache", appName)
}

// DefaultConfigPath returns the full path to the default config file. This
// is used as the fallback when neither COLLMGR_CONFIG nor --config is
// specified.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// databaseFileName is the metadata store's file name under the
// collection root.
const databaseFileName = "db.sqlite"

// credentialsFileName is the file-backed credential cache under the
// config directory.
const credentialsFileName = "credentials.json"

// databasePath returns the metadata store's path for a given collection
// root.
func databasePath(collectionRoot string) string {
	return filepath.Join(collectionRoot, databaseFileName)
}

// scratchRoot returns the directory export and launch pipelines allocate
// per-call subdirectories under.
func scratchRoot() string {
	return filepath.Join(DefaultCacheDir(), "scratch")
}

// credentialsPath returns the file-backed CredentialService's cache file
// path.
func credentialsPath() string {
	return filepath.Join(DefaultConfigDir(), credentialsFileName)
}
