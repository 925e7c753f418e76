package app

import "charm.land/lipgloss/v2"

const (
	helpFramePaddingVertical   = 0
	helpFramePaddingHorizontal = 1
)

var (
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	modeStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	itemStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	itemSelectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true)
	itemValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	cursorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	separatorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	changeAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	changeRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	promptFrameStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69")).
				Padding(0, 1)
	helpFrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(helpFramePaddingVertical, helpFramePaddingHorizontal)
	statusInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	statusWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)
