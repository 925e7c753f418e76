package app

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"listsel/internal/logging"
)

const statusDuration = 4 * time.Second

type statusLevel int

const (
	statusLevelNone statusLevel = iota
	statusLevelInfo
	statusLevelWarning
	statusLevelError
)

func (m *Model) setStatusInfo(message string) {
	m.setStatus(statusLevelInfo, message)
}

func (m *Model) setStatusWarning(message string) {
	m.setStatus(statusLevelWarning, message)
}

func (m *Model) setStatusError(message string) {
	m.setStatus(statusLevelError, message)
	m.logger.Warn("ui status error", logging.F("message", message))
}

func (m *Model) setStatus(level statusLevel, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	m.status = message
	m.statusLevel = level
	m.statusUntil = m.now().Add(statusDuration)
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusLevel = statusLevelNone
	m.statusUntil = time.Time{}
}

func (m *Model) statusExpired(at time.Time) bool {
	return m.status != "" && !m.statusUntil.IsZero() && !at.Before(m.statusUntil)
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(at time.Time) tea.Msg {
		return statusExpiredMsg{at: at}
	})
}

func statusStyleFor(level statusLevel) lipgloss.Style {
	switch level {
	case statusLevelWarning:
		return statusWarningStyle
	case statusLevelError:
		return statusErrorStyle
	case statusLevelInfo:
		return statusInfoStyle
	default:
		return statusStyle
	}
}
