package app

var helpCommandOrder = []string{
	KeyCommandUp,
	KeyCommandDown,
	KeyCommandTop,
	KeyCommandBottom,
	KeyCommandToggle,
	KeyCommandSelectJust,
	KeyCommandSelectAll,
	KeyCommandClearSelection,
	KeyCommandToggleMode,
	KeyCommandAddItem,
	KeyCommandDeleteItem,
	KeyCommandMoveItemUp,
	KeyCommandMoveItemDown,
	KeyCommandCopySelection,
	KeyCommandReload,
	KeyCommandHelp,
	KeyCommandQuit,
}

func (m *Model) openHelp() {
	m.showHelp = true
	m.refreshHelp()
}

func (m *Model) refreshHelp() {
	m.help.SetContent(m.helpText.render(m.keybindings, m.itemsPath, m.help.Width()))
	m.help.GotoTop()
}
