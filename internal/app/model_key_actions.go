package app

import (
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"listsel/internal/selection"
	"listsel/internal/source"
)

func (m *Model) reduceKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.adding {
		return m.reduceAddInputKey(msg)
	}
	if m.showHelp {
		return m.reduceHelpKey(msg)
	}
	switch {
	case m.keyMatchesCommand(msg, KeyCommandQuit):
		return m, tea.Quit
	case m.keyMatchesCommand(msg, KeyCommandUp):
		m.moveCursor(-1)
	case m.keyMatchesCommand(msg, KeyCommandDown):
		m.moveCursor(1)
	case m.keyMatchesCommand(msg, KeyCommandTop):
		m.setCursor(0)
	case m.keyMatchesCommand(msg, KeyCommandBottom):
		m.setCursor(m.list.Len() - 1)
	case m.keyMatchesCommand(msg, KeyCommandToggle):
		m.toggleAtCursor()
	case m.keyMatchesCommand(msg, KeyCommandSelectJust):
		m.selectJustAtCursor()
	case m.keyMatchesCommand(msg, KeyCommandAddItem):
		return m, m.enterAddItem()
	case m.keyMatchesCommand(msg, KeyCommandDeleteItem):
		return m, m.deleteAtCursor()
	case m.keyMatchesCommand(msg, KeyCommandMoveItemUp):
		return m, m.moveItem(-1)
	case m.keyMatchesCommand(msg, KeyCommandMoveItemDown):
		return m, m.moveItem(1)
	case m.keyMatchesCommand(msg, KeyCommandToggleMode):
		m.toggleMode()
	case m.keyMatchesCommand(msg, KeyCommandSelectAll):
		m.selectAll()
	case m.keyMatchesCommand(msg, KeyCommandClearSelection):
		m.clearSelection()
	case m.keyMatchesCommand(msg, KeyCommandCopySelection):
		m.copySelection()
	case m.keyMatchesCommand(msg, KeyCommandReload):
		return m, loadItemsCmd(m.itemsPath)
	case m.keyMatchesCommand(msg, KeyCommandHelp):
		m.openHelp()
	}
	return m, nil
}

func (m *Model) reduceHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keyMatchesCommand(msg, KeyCommandHelp), m.keyMatchesCommand(msg, KeyCommandInputCancel):
		m.showHelp = false
		return m, nil
	case m.keyMatchesCommand(msg, KeyCommandQuit):
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m *Model) reduceAddInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keyMatchesCommand(msg, KeyCommandInputCancel):
		m.exitAddItem()
		return m, nil
	case m.keyMatchesCommand(msg, KeyCommandInputSubmit):
		return m, m.submitAddItem()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleAtCursor flips the row flag and lets the host reconcile it, the
// same path a list widget takes when its checkbox is clicked.
func (m *Model) toggleAtCursor() {
	entry, ok := m.entryAt(m.cursor)
	if !ok {
		return
	}
	if entry.IsSeparator() {
		m.setStatusWarning("separators cannot be selected")
		return
	}
	row := m.list.Row(m.cursor)
	row.SetSelectedCurrent(!row.IsSelected())
	if _, handled := m.host.ContainerSelectionChanged(m.cursor); !handled {
		row.SetSelectedCurrent(m.host.IsSelected(m.cursor))
	}
}

func (m *Model) selectJustAtCursor() {
	entry, ok := m.entryAt(m.cursor)
	if !ok {
		return
	}
	if entry.IsSeparator() {
		m.setStatusWarning("separators cannot be selected")
		return
	}
	if _, err := m.host.SetSelectedIndex(m.cursor); err != nil {
		m.setStatusError(err.Error())
	}
}

func (m *Model) enterAddItem() tea.Cmd {
	m.adding = true
	m.input.SetValue("")
	m.ensureCursorVisible()
	return m.input.Focus()
}

func (m *Model) exitAddItem() {
	m.adding = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) submitAddItem() tea.Cmd {
	entry, ok := source.ParseLine(m.input.Value())
	if !ok {
		m.setStatusWarning("item is empty")
		return nil
	}
	index := 0
	if m.list.Len() > 0 {
		index = m.cursor + 1
	}
	if err := m.list.Insert(index, entry); err != nil {
		m.setStatusError("add item: " + err.Error())
		return nil
	}
	m.exitAddItem()
	m.setCursor(index)
	m.setStatusInfo("added " + entry.Label)
	return saveItemsCmd(m.itemsPath, m.entries())
}

func (m *Model) deleteAtCursor() tea.Cmd {
	entry, ok := m.entryAt(m.cursor)
	if !ok {
		return nil
	}
	if err := m.list.RemoveAt(m.cursor); err != nil {
		m.setStatusError("delete item: " + err.Error())
		return nil
	}
	m.setCursor(m.cursor)
	m.setStatusInfo("deleted " + entry.Label)
	return saveItemsCmd(m.itemsPath, m.entries())
}

func (m *Model) moveItem(delta int) tea.Cmd {
	to := m.cursor + delta
	if to < 0 || to >= m.list.Len() {
		return nil
	}
	if err := m.list.Move(m.cursor, to); err != nil {
		m.setStatusError("move item: " + err.Error())
		return nil
	}
	m.setCursor(to)
	return saveItemsCmd(m.itemsPath, m.entries())
}

func (m *Model) toggleMode() {
	multiple := !m.host.Multiple()
	m.host.SetMultiple(multiple)
	m.persistSelection(selection.Change{})
	m.setStatusInfo(m.modeName() + " selection")
}

func (m *Model) selectAll() {
	change, err := m.host.SelectAll()
	if errors.Is(err, selection.ErrSingleSelection) {
		m.setStatusWarning("select all needs multiple selection")
		return
	}
	if err != nil {
		m.setStatusError(err.Error())
		return
	}
	m.setStatusInfo(fmt.Sprintf("selected %d more", len(change.Added)))
}

func (m *Model) clearSelection() {
	change := m.host.UnselectAll()
	if change.Empty() {
		return
	}
	m.setStatusInfo(fmt.Sprintf("cleared %d", len(change.Removed)))
}
