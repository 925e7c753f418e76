package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".listsel"

// DataDir returns the base data directory for listsel.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// ItemsPath returns the default item file.
func ItemsPath() (string, error) {
	return dataPath("items.txt")
}

// StorePath returns the default selection database.
func StorePath() (string, error) {
	return dataPath("selection.db")
}

// KeybindingsPath returns the default keybinding overrides file.
func KeybindingsPath() (string, error) {
	return dataPath("keybindings.json")
}

// UILogPath returns the log file written by the interactive UI.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}
