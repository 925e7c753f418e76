package app

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"listsel/internal/logging"
	"listsel/internal/selection"
	"listsel/internal/source"
	"listsel/internal/store"
)

const (
	defaultViewWidth  = 80
	defaultViewHeight = 24
	chromeHeight      = 7
	storeTimeout      = 2 * time.Second
)

// Options configures a Model. Repository and Reloads are optional.
type Options struct {
	ItemsPath     string
	ListName      string
	Multiple      bool
	ValuePath     string
	ReselectStale bool
	Keybindings   *Keybindings
	Repository    store.Repository
	Reloads       <-chan source.Reload
	Logger        logging.Logger
	Observer      selection.Observer
}

type Model struct {
	itemsPath   string
	listName    string
	list        *selection.List
	host        *selection.Host
	unsubscribe func()
	keybindings *Keybindings
	repo        store.Repository
	reloads     <-chan source.Reload
	logger      logging.Logger
	now         func() time.Time

	cursor   int
	offset   int
	width    int
	height   int
	loaded   bool
	restored int

	adding bool
	input  textinput.Model

	showHelp bool
	help     viewport.Model
	helpText *helpRenderer

	status      string
	statusLevel statusLevel
	statusUntil time.Time
	lastChange  selection.Change
}

// NewModel builds the selection host over an empty list and restores the
// persisted selection as deferred requests, so it binds when the item file
// arrives.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	keybindings := opts.Keybindings
	if keybindings == nil {
		keybindings = DefaultKeybindings()
	}
	listName := opts.ListName
	if listName == "" {
		listName = "default"
	}

	list := selection.NewList()
	host := selection.NewHost(list, selection.Options{
		Multiple:      opts.Multiple,
		ValuePath:     opts.ValuePath,
		ReselectStale: opts.ReselectStale,
		Logger:        logger,
		Observer:      opts.Observer,
	})
	list.Subscribe(host.HandleChange)

	input := textinput.New()
	input.Placeholder = "label|value"
	input.Prompt = "add › "
	input.CharLimit = 256

	m := &Model{
		itemsPath:   opts.ItemsPath,
		listName:    listName,
		list:        list,
		host:        host,
		keybindings: keybindings,
		repo:        opts.Repository,
		reloads:     opts.Reloads,
		logger:      logger.With(logging.F("list", listName)),
		now:         time.Now,
		width:       defaultViewWidth,
		height:      defaultViewHeight,
		input:       input,
		help:        viewport.New(viewport.WithWidth(defaultViewWidth-4), viewport.WithHeight(defaultViewHeight-chromeHeight)),
		helpText:    newHelpRenderer(),
	}
	m.unsubscribe = host.Subscribe(m.selectionChanged)
	m.reportKeybindingConflicts()
	m.restoreSelection()
	return m
}

// Run drives the model until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	model := NewModel(opts)
	defer model.Close()
	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) Host() *selection.Host {
	return m.host
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(loadItemsCmd(m.itemsPath), m.waitForReloadCmd(), tea.RequestBackgroundColor, statusTickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.BackgroundColorMsg:
		if m.helpText.setDark(msg.IsDark()) && m.showHelp {
			m.refreshHelp()
		}
		return m, nil
	case itemsLoadedMsg:
		m.applyEntries(msg.entries, msg.err, "loaded")
		return m, nil
	case reloadMsg:
		if !msg.ok {
			m.reloads = nil
			return m, nil
		}
		m.applyEntries(msg.reload.Entries, msg.reload.Err, "reloaded")
		return m, m.waitForReloadCmd()
	case itemsSavedMsg:
		if msg.err != nil {
			m.setStatusError("save items: " + msg.err.Error())
			return m, nil
		}
		m.logger.Debug("item file saved", logging.F("count", msg.count))
		return m, nil
	case statusExpiredMsg:
		if m.statusExpired(msg.at) {
			m.clearStatus()
		}
		return m, statusTickCmd()
	case tea.KeyPressMsg:
		return m.reduceKey(msg)
	}
	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyEntries replaces the list contents. The host relocates surviving
// selections and promotes deferred ones during the reset.
func (m *Model) applyEntries(entries []source.Entry, err error, verb string) {
	if err != nil {
		m.setStatusError(verb + " items: " + err.Error())
		return
	}
	items := make([]any, len(entries))
	for i, entry := range entries {
		items[i] = entry
	}
	m.list.Reset(items)
	m.loaded = true
	m.setCursor(m.cursor)
	m.logger.Info("items "+verb,
		logging.F("count", len(entries)),
		logging.F("selected", m.host.SelectedCount()),
		logging.F("deferred", len(m.host.Batch().Deferred())),
	)
	m.setStatusInfo(fmt.Sprintf("%s %d items", verb, len(entries)))
}

func (m *Model) resize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	m.help.SetWidth(max(m.width-4, 10))
	m.help.SetHeight(max(m.height-chromeHeight, 3))
	if m.showHelp {
		m.refreshHelp()
	}
	m.ensureCursorVisible()
}

func (m *Model) rowsVisible() int {
	rows := m.height - chromeHeight
	if m.adding {
		rows -= 3
	}
	return max(rows, 1)
}

func (m *Model) setCursor(index int) {
	n := m.list.Len()
	switch {
	case n == 0:
		index = 0
	case index >= n:
		index = n - 1
	case index < 0:
		index = 0
	}
	m.cursor = index
	m.ensureCursorVisible()
}

func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

func (m *Model) ensureCursorVisible() {
	visible := m.rowsVisible()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) entryAt(index int) (source.Entry, bool) {
	if index < 0 || index >= m.list.Len() {
		return source.Entry{}, false
	}
	entry, ok := m.list.At(index).(source.Entry)
	return entry, ok
}

func (m *Model) entries() []source.Entry {
	out := make([]source.Entry, 0, m.list.Len())
	for i := 0; i < m.list.Len(); i++ {
		if entry, ok := m.entryAt(i); ok {
			out = append(out, entry)
		}
	}
	return out
}

func (m *Model) selectedEntries() []source.Entry {
	items := m.host.SelectedItems().Items()
	out := make([]source.Entry, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(source.Entry); ok {
			out = append(out, entry)
		}
	}
	return out
}

func (m *Model) waitForReloadCmd() tea.Cmd {
	reloads := m.reloads
	if reloads == nil {
		return nil
	}
	return func() tea.Msg {
		reload, ok := <-reloads
		return reloadMsg{reload: reload, ok: ok}
	}
}

func loadItemsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := source.Load(path)
		return itemsLoadedMsg{entries: entries, err: err}
	}
}

func saveItemsCmd(path string, entries []source.Entry) tea.Cmd {
	return func() tea.Msg {
		err := source.Save(path, entries)
		return itemsSavedMsg{count: len(entries), err: err}
	}
}
