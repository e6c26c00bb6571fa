package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names a config file explicitly
	EnvConfigPath = "NETSYNC_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "netsync.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "netsync"
)

// configCandidates lists the places a config file may live, most specific
// first. Entries whose environment is unset are left out.
func configCandidates() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing file among $NETSYNC_CONFIG,
// ./netsync.yaml, $XDG_CONFIG_HOME/netsync/config.yaml,
// ~/.config/netsync/config.yaml and /etc/netsync/config.yaml, or "" when
// there is none.
func FindConfigPath() string {
	for _, p := range configCandidates() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// EnsureConfigDir creates the parent directory of path, e.g. for the
// database file.
func EnsureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
