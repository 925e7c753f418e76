package app

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"listsel/internal/selection"
	"listsel/internal/source"
)

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	width := m.width
	if width <= 0 {
		width = defaultViewWidth
	}
	lines := []string{m.renderHeader(), dividerStyle.Render(strings.Repeat("─", width))}
	if m.showHelp {
		lines = append(lines, strings.Split(helpFrameStyle.Render(m.help.View()), "\n")...)
	} else {
		lines = append(lines, m.renderRows(width)...)
	}
	if m.adding {
		lines = append(lines, strings.Split(promptFrameStyle.Render(m.input.View()), "\n")...)
	}
	lines = append(lines,
		dividerStyle.Render(strings.Repeat("─", width)),
		m.renderSelectionLine(),
		m.renderChangeLine(),
		m.renderStatusLine(),
	)
	return padLines(lines, width)
}

func (m *Model) renderHeader() string {
	return fmt.Sprintf("%s %s %s",
		headerStyle.Render("listsel"),
		modeStyle.Render(m.modeName()),
		statusStyle.Render(fmt.Sprintf("%d/%d selected · %s", m.host.SelectedCount(), m.list.Len(), m.listName)),
	)
}

func (m *Model) renderRows(width int) []string {
	visible := m.rowsVisible()
	if m.list.Len() == 0 {
		msg := "loading…"
		if m.loaded {
			msg = "no items in " + m.itemsPath
		}
		return []string{helpStyle.Render(msg)}
	}
	end := min(m.offset+visible, m.list.Len())
	rows := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderRow(i, width))
	}
	return rows
}

func (m *Model) renderRow(index, width int) string {
	entry, _ := m.entryAt(index)
	pointer := "  "
	if index == m.cursor {
		pointer = "› "
	}
	if entry.IsSeparator() {
		return pointer + separatorStyle.Render(strings.Repeat("─", max(width-4, 1)))
	}
	selected := m.list.Row(index).IsSelected()
	label := itemStyle.Render(entry.Label)
	if selected {
		label = itemSelectedStyle.Render(entry.Label)
	}
	line := pointer + m.marker(selected) + " " + label
	if entry.Value != "" && entry.Value != entry.Label {
		line += " " + itemValueStyle.Render(entry.Value)
	}
	if index == m.cursor {
		return cursorStyle.Render(truncateLine(line, width))
	}
	return line
}

func (m *Model) marker(selected bool) string {
	if m.host.Multiple() {
		if selected {
			return "[x]"
		}
		return "[ ]"
	}
	if selected {
		return "(•)"
	}
	return "( )"
}

func (m *Model) renderSelectionLine() string {
	item := "-"
	if selected, ok := m.host.SelectedItem(); ok {
		item = describeItem(selected)
	}
	value := "-"
	if projected, ok := m.host.SelectedValue(); ok {
		value = describeItem(projected)
	}
	line := fmt.Sprintf("index=%d item=%s value=%s", m.host.SelectedIndex(), item, value)
	if deferred := len(m.host.Batch().Deferred()); deferred > 0 {
		line += fmt.Sprintf(" deferred=%d", deferred)
	}
	return statusStyle.Render(line)
}

func (m *Model) renderChangeLine() string {
	if m.lastChange.Empty() {
		return helpStyle.Render(fmt.Sprintf("%s help · %s quit", m.keyForCommand(KeyCommandHelp), m.keyForCommand(KeyCommandQuit)))
	}
	parts := make([]string, 0, len(m.lastChange.Added)+len(m.lastChange.Removed))
	for _, id := range m.lastChange.Removed {
		parts = append(parts, changeRemovedStyle.Render("-"+describeIdentity(id)))
	}
	for _, id := range m.lastChange.Added {
		parts = append(parts, changeAddedStyle.Render("+"+describeIdentity(id)))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderStatusLine() string {
	if m.status == "" {
		return ""
	}
	return statusStyleFor(m.statusLevel).Render(" " + m.status + " ")
}

func describeIdentity(id selection.Identity) string {
	return describeItem(id.Item())
}

func describeItem(item any) string {
	switch v := item.(type) {
	case source.Entry:
		return v.Label
	case nil:
		return "-"
	default:
		return fmt.Sprint(v)
	}
}
