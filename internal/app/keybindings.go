package app

import (
	"context"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"

	"listsel/internal/store"
)

const (
	KeyCommandUp             = "ui.up"
	KeyCommandDown           = "ui.down"
	KeyCommandTop            = "ui.top"
	KeyCommandBottom         = "ui.bottom"
	KeyCommandToggle         = "ui.toggle"
	KeyCommandSelectJust     = "ui.selectJust"
	KeyCommandAddItem        = "ui.addItem"
	KeyCommandDeleteItem     = "ui.deleteItem"
	KeyCommandMoveItemUp     = "ui.moveItemUp"
	KeyCommandMoveItemDown   = "ui.moveItemDown"
	KeyCommandToggleMode     = "ui.toggleMode"
	KeyCommandSelectAll      = "ui.selectAll"
	KeyCommandClearSelection = "ui.clearSelection"
	KeyCommandUnselectAll    = "ui.unselectAll" // alias; normalized to ui.clearSelection
	KeyCommandCopySelection  = "ui.copySelection"
	KeyCommandReload         = "ui.reload"
	KeyCommandHelp           = "ui.help"
	KeyCommandQuit           = "ui.quit"
	KeyCommandInputSubmit    = "ui.inputSubmit"
	KeyCommandInputCancel    = "ui.inputCancel"
)

var defaultKeybindingByCommand = map[string]string{
	KeyCommandUp:             "up",
	KeyCommandDown:           "down",
	KeyCommandTop:            "g",
	KeyCommandBottom:         "G",
	KeyCommandToggle:         "space",
	KeyCommandSelectJust:     "enter",
	KeyCommandAddItem:        "a",
	KeyCommandDeleteItem:     "d",
	KeyCommandMoveItemUp:     "K",
	KeyCommandMoveItemDown:   "J",
	KeyCommandToggleMode:     "m",
	KeyCommandSelectAll:      "ctrl+a",
	KeyCommandClearSelection: "c",
	KeyCommandCopySelection:  "y",
	KeyCommandReload:         "r",
	KeyCommandHelp:           "?",
	KeyCommandQuit:           "q",
	KeyCommandInputSubmit:    "enter",
	KeyCommandInputCancel:    "esc",
}

var keybindingDescriptions = map[string]string{
	KeyCommandUp:             "move cursor up",
	KeyCommandDown:           "move cursor down",
	KeyCommandTop:            "jump to first item",
	KeyCommandBottom:         "jump to last item",
	KeyCommandToggle:         "toggle the item under the cursor",
	KeyCommandSelectJust:     "select only the item under the cursor",
	KeyCommandAddItem:        "add an item after the cursor",
	KeyCommandDeleteItem:     "delete the item under the cursor",
	KeyCommandMoveItemUp:     "move the item up",
	KeyCommandMoveItemDown:   "move the item down",
	KeyCommandToggleMode:     "switch between single and multiple selection",
	KeyCommandSelectAll:      "select every selectable item",
	KeyCommandClearSelection: "clear the selection",
	KeyCommandCopySelection:  "copy selected items",
	KeyCommandReload:         "reload the item file",
	KeyCommandHelp:           "toggle this help",
	KeyCommandQuit:           "quit",
	KeyCommandInputSubmit:    "confirm input",
	KeyCommandInputCancel:    "cancel input",
}

type Keybindings struct {
	byCommand map[string]string
	remap     map[string]string
}

func DefaultKeybindings() *Keybindings {
	return NewKeybindings(nil)
}

func NewKeybindings(overrides map[string]string) *Keybindings {
	byCommand := make(map[string]string, len(defaultKeybindingByCommand))
	for command, key := range defaultKeybindingByCommand {
		byCommand[command] = key
	}
	for command, key := range normalizeKeybindingOverrides(overrides) {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := defaultKeybindingByCommand[command]; !ok {
			continue
		}
		byCommand[command] = key
	}
	remap := map[string]string{}
	ambiguous := map[string]struct{}{}
	for _, command := range KnownKeybindingCommands() {
		defaultKey := defaultKeybindingByCommand[command]
		key := byCommand[command]
		if strings.TrimSpace(key) == "" || key == defaultKey {
			continue
		}
		if _, bad := ambiguous[key]; bad {
			continue
		}
		if existing, ok := remap[key]; ok && existing != defaultKey {
			delete(remap, key)
			ambiguous[key] = struct{}{}
			continue
		}
		remap[key] = defaultKey
	}
	return &Keybindings{
		byCommand: byCommand,
		remap:     remap,
	}
}

// LoadKeybindings applies the overrides held by s on top of the defaults.
// A nil store yields the defaults.
func LoadKeybindings(ctx context.Context, s store.KeybindingStore) (*Keybindings, error) {
	if s == nil {
		return DefaultKeybindings(), nil
	}
	overrides, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewKeybindings(overrides), nil
}

func (k *Keybindings) KeyFor(command, fallback string) string {
	command = normalizeKeybindingCommand(command)
	if command == "" {
		return fallback
	}
	if k != nil {
		if key := strings.TrimSpace(k.byCommand[command]); key != "" {
			return key
		}
	}
	if key := strings.TrimSpace(defaultKeybindingByCommand[command]); key != "" {
		return key
	}
	return fallback
}

func (k *Keybindings) Bindings() map[string]string {
	out := make(map[string]string, len(defaultKeybindingByCommand))
	for _, command := range KnownKeybindingCommands() {
		out[command] = k.KeyFor(command, defaultKeybindingByCommand[command])
	}
	return out
}

func (k *Keybindings) Remap(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return key
	}
	if k != nil {
		if canonical, ok := k.remap[key]; ok && canonical != "" {
			return canonical
		}
	}
	return key
}

// Describe returns the help text for a command.
func Describe(command string) string {
	return keybindingDescriptions[normalizeKeybindingCommand(command)]
}

func (m *Model) keyForCommand(command string) string {
	fallback := defaultKeybindingByCommand[command]
	if m == nil || m.keybindings == nil {
		return fallback
	}
	return m.keybindings.KeyFor(command, fallback)
}

// keyMatchesCommand accepts the bound key, and the default key unless it has
// been rebound to another command.
func (m *Model) keyMatchesCommand(msg tea.KeyPressMsg, command string) bool {
	pressed := strings.TrimSpace(msg.String())
	if bound := strings.TrimSpace(m.keyForCommand(command)); bound != "" && pressed == bound {
		return true
	}
	canonical := strings.TrimSpace(defaultKeybindingByCommand[command])
	return canonical != "" && m.keybindings.Remap(pressed) == canonical
}

func normalizeKeybindingCommand(command string) string {
	command = strings.TrimSpace(command)
	switch command {
	case KeyCommandUnselectAll:
		return KeyCommandClearSelection
	default:
		return command
	}
}

func normalizeKeybindingOverrides(overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(overrides))
	for command, key := range overrides {
		command = normalizeKeybindingCommand(command)
		if command == "" {
			continue
		}
		normalized[command] = key
	}
	return normalized
}

func KnownKeybindingCommands() []string {
	keys := make([]string, 0, len(defaultKeybindingByCommand))
	for command := range defaultKeybindingByCommand {
		keys = append(keys, command)
	}
	sort.Strings(keys)
	return keys
}
