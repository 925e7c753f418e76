package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	ModeMultiple = "multiple"
	ModeSingle   = "single"

	defaultListName   = "default"
	defaultDebounceMS = 200
)

type Config struct {
	Selection SelectionConfig `toml:"selection" json:"selection"`
	Source    SourceConfig    `toml:"source" json:"source"`
	Store     StoreConfig     `toml:"store" json:"store"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`
	Metrics   MetricsConfig   `toml:"metrics" json:"metrics"`
	UI        UIConfig        `toml:"ui" json:"ui"`
}

type SelectionConfig struct {
	Mode          string `toml:"mode" json:"mode"`
	ValuePath     string `toml:"value_path" json:"value_path"`
	ReselectStale bool   `toml:"reselect_stale" json:"reselect_stale"`
}

type SourceConfig struct {
	Path       string `toml:"path" json:"path"`
	Watch      *bool  `toml:"watch" json:"watch,omitempty"`
	DebounceMS int    `toml:"debounce_ms" json:"debounce_ms"`
}

type StoreConfig struct {
	Path string `toml:"path" json:"path"`
	List string `toml:"list" json:"list"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type MetricsConfig struct {
	Address string `toml:"address" json:"address"`
}

type UIConfig struct {
	KeybindingsPath string `toml:"keybindings_path" json:"keybindings_path"`
}

func DefaultConfig() Config {
	watch := true
	return Config{
		Selection: SelectionConfig{Mode: ModeMultiple},
		Source:    SourceConfig{Watch: &watch, DebounceMS: defaultDebounceMS},
		Store:     StoreConfig{List: defaultListName},
		Logging:   LoggingConfig{Level: "info"},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c Config) SelectionMode() string {
	switch strings.ToLower(strings.TrimSpace(c.Selection.Mode)) {
	case ModeSingle:
		return ModeSingle
	default:
		return ModeMultiple
	}
}

func (c Config) Multiple() bool {
	return c.SelectionMode() == ModeMultiple
}

func (c Config) ValuePath() string {
	return strings.TrimSpace(c.Selection.ValuePath)
}

func (c Config) ReselectStale() bool {
	return c.Selection.ReselectStale
}

func (c Config) ResolveSourcePath() (string, error) {
	path := strings.TrimSpace(c.Source.Path)
	if path == "" {
		return ItemsPath()
	}
	return resolveConfigPath(path)
}

func (c Config) WatchSource() bool {
	if c.Source.Watch == nil {
		return true
	}
	return *c.Source.Watch
}

func (c Config) Debounce() time.Duration {
	ms := c.Source.DebounceMS
	if ms <= 0 {
		ms = defaultDebounceMS
	}
	return time.Duration(ms) * time.Millisecond
}

func (c Config) ResolveStorePath() (string, error) {
	path := strings.TrimSpace(c.Store.Path)
	if path == "" {
		return StorePath()
	}
	return resolveConfigPath(path)
}

func (c Config) ListName() string {
	name := strings.TrimSpace(c.Store.List)
	if name == "" {
		return defaultListName
	}
	return name
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) MetricsAddress() string {
	addr := strings.TrimSpace(c.Metrics.Address)
	addr = strings.TrimPrefix(addr, "http://")
	return strings.TrimRight(addr, "/")
}

func (c Config) ResolveKeybindingsPath() (string, error) {
	path := strings.TrimSpace(c.UI.KeybindingsPath)
	if path == "" {
		return KeybindingsPath()
	}
	return resolveConfigPath(path)
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
