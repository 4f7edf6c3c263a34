package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
	"github.com/relloyd/shipetl/constants"
)

// GetConfigHomeDir returns the full path to the directory that stores the default config file.
func GetConfigHomeDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to find home directory: %w", err)
	}
	return path.Join(home, constants.ConfigDir), nil
}

// GetDefaultConfigFile returns the path to the default config file if it exists, else an empty string.
func GetDefaultConfigFile() string {
	dir, err := GetConfigHomeDir()
	if err != nil {
		return ""
	}
	fn := path.Join(dir, constants.ConfigFileName)
	if _, err := os.Stat(fn); err != nil {
		return ""
	}
	return fn
}

// expandPath expands a leading ~ in p.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return homedir.Expand(p)
}
