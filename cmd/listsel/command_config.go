package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"listsel/internal/app"
	"listsel/internal/config"
	"listsel/internal/store"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"

	configScopeCore        = "core"
	configScopeKeybindings = "keybindings"
)

type configOutput struct {
	ConfigPath      string                    `json:"config_path,omitempty" toml:"config_path,omitempty"`
	KeybindingsPath string                    `json:"keybindings_path,omitempty" toml:"keybindings_path,omitempty"`
	Selection       *effectiveSelectionConfig `json:"selection,omitempty" toml:"selection,omitempty"`
	Source          *effectiveSourceConfig    `json:"source,omitempty" toml:"source,omitempty"`
	Store           *effectiveStoreConfig     `json:"store,omitempty" toml:"store,omitempty"`
	Logging         *effectiveLoggingConfig   `json:"logging,omitempty" toml:"logging,omitempty"`
	Metrics         *effectiveMetricsConfig   `json:"metrics,omitempty" toml:"metrics,omitempty"`
	Keybindings     map[string]string         `json:"keybindings,omitempty" toml:"keybindings,omitempty"`
}

type effectiveSelectionConfig struct {
	Mode          string `json:"mode" toml:"mode"`
	ValuePath     string `json:"value_path" toml:"value_path"`
	ReselectStale bool   `json:"reselect_stale" toml:"reselect_stale"`
}

type effectiveSourceConfig struct {
	Path       string `json:"path" toml:"path"`
	Watch      bool   `json:"watch" toml:"watch"`
	DebounceMS int64  `json:"debounce_ms" toml:"debounce_ms"`
}

type effectiveStoreConfig struct {
	Path string `json:"path" toml:"path"`
	List string `json:"list" toml:"list"`
}

type effectiveLoggingConfig struct {
	Level string `json:"level" toml:"level"`
}

type effectiveMetricsConfig struct {
	Address string `json:"address" toml:"address"`
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error)) *ConfigCommand {
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	initKeybindings := fs.Bool("init-keybindings", false, "write the effective keybindings file if it does not exist")
	var scopes stringList
	fs.Var(&scopes, "scope", "scope to print: core|keybindings|all (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	resolvedScopes, err := resolveConfigScopes(scopes)
	if err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	if !*defaults {
		cfg, err = c.loadConfig()
		if err != nil {
			return err
		}
	}
	if *initKeybindings {
		if err := c.writeKeybindings(cfg); err != nil {
			return err
		}
	}
	payload, err := c.buildOutput(cfg, *defaults, resolvedScopes)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, projectedConfigPayload(payload, resolvedScopes))
}

func (c *ConfigCommand) buildOutput(cfg config.Config, defaults bool, scopes map[string]struct{}) (configOutput, error) {
	out := configOutput{}

	if scopeSelected(scopes, configScopeCore) {
		configPath, err := config.ConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		sourcePath, err := cfg.ResolveSourcePath()
		if err != nil {
			return configOutput{}, err
		}
		storePath, err := cfg.ResolveStorePath()
		if err != nil {
			return configOutput{}, err
		}
		out.ConfigPath = configPath
		out.Selection = &effectiveSelectionConfig{
			Mode:          cfg.SelectionMode(),
			ValuePath:     cfg.ValuePath(),
			ReselectStale: cfg.ReselectStale(),
		}
		out.Source = &effectiveSourceConfig{
			Path:       sourcePath,
			Watch:      cfg.WatchSource(),
			DebounceMS: cfg.Debounce().Milliseconds(),
		}
		out.Store = &effectiveStoreConfig{
			Path: storePath,
			List: cfg.ListName(),
		}
		out.Logging = &effectiveLoggingConfig{Level: cfg.LogLevel()}
		out.Metrics = &effectiveMetricsConfig{Address: cfg.MetricsAddress()}
	}

	if scopeSelected(scopes, configScopeKeybindings) {
		keybindingsPath, err := cfg.ResolveKeybindingsPath()
		if err != nil {
			return configOutput{}, err
		}
		out.KeybindingsPath = keybindingsPath
		bindings := app.DefaultKeybindings()
		if !defaults {
			bindings, err = app.LoadKeybindings(context.Background(), store.NewFileKeybindingStore(keybindingsPath))
			if err != nil {
				return configOutput{}, err
			}
		}
		out.Keybindings = bindings.Bindings()
	}

	return out, nil
}

func (c *ConfigCommand) writeKeybindings(cfg config.Config) error {
	path, err := cfg.ResolveKeybindingsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(c.stderr, "keybindings already exist at %s\n", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	ctx := context.Background()
	keybindings := store.NewFileKeybindingStore(path)
	bindings, err := app.LoadKeybindings(ctx, keybindings)
	if err != nil {
		return err
	}
	if err := keybindings.Save(ctx, bindings.Bindings()); err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "wrote keybindings to %s\n", path)
	return nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func projectedConfigPayload(payload configOutput, scopes map[string]struct{}) any {
	if len(scopes) == 1 && scopeSelected(scopes, configScopeKeybindings) {
		if payload.Keybindings == nil {
			return map[string]string{}
		}
		return payload.Keybindings
	}
	return payload
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}

func resolveConfigScopes(values []string) (map[string]struct{}, error) {
	all := map[string]struct{}{
		configScopeCore:        {},
		configScopeKeybindings: {},
	}
	if len(values) == 0 {
		return all, nil
	}
	out := map[string]struct{}{}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			scope, err := normalizeConfigScope(part)
			if err != nil {
				return nil, err
			}
			if scope == "all" {
				return all, nil
			}
			out[scope] = struct{}{}
		}
	}
	return out, nil
}

func normalizeConfigScope(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "all":
		return "all", nil
	case configScopeCore, "selection":
		return configScopeCore, nil
	case configScopeKeybindings, "keys":
		return configScopeKeybindings, nil
	default:
		return "", errors.New("invalid scope: must be core, keybindings, or all")
	}
}

func scopeSelected(scopes map[string]struct{}, scope string) bool {
	_, ok := scopes[scope]
	return ok
}
