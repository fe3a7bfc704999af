package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/panelkit/panelkit/internal/notify"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("244"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	toastStyles = map[notify.Kind]lipgloss.Style{
		notify.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		notify.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		notify.KindWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		notify.KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	}
)

func toastStyle(kind notify.Kind) lipgloss.Style {
	if style, ok := toastStyles[kind]; ok {
		return style
	}
	return toastStyles[notify.KindInfo]
}
