// Package tui is a terminal observer for a running panelkit server. It
// spins while the server has guarded requests in flight and shows the
// current toast beside the navigation tree.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/panelkit/panelkit/internal/menu"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 250 * time.Millisecond

type statusMsg struct {
	status Status
	err    error
}

type menuMsg struct {
	tree *menu.Tree
	err  error
}

type pollMsg struct{}

// Model is the bubbletea model behind `panelkit watch`.
type Model struct {
	ctx      context.Context
	source   Source
	target   string
	interval time.Duration

	spinner spinner.Model
	status  Status
	polled  bool
	menu    *menu.Tree
	err     error

	width  int
	height int
}

// New returns a model polling source every interval. target labels the
// header.
func New(ctx context.Context, source Source, target string, interval time.Duration) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{
		ctx:      ctx,
		source:   source,
		target:   target,
		interval: interval,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle)),
	}
}

// Init starts polling, loads the menu and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollStatus, m.loadMenu, m.spinner.Tick)
}

func (m Model) pollStatus() tea.Msg {
	st, err := m.source.Status(m.ctx)
	return statusMsg{status: st, err: err}
}

func (m Model) loadMenu() tea.Msg {
	tree, err := m.source.Menu(m.ctx)
	return menuMsg{tree: tree, err: err}
}

func (m Model) dismiss() tea.Msg {
	if err := m.source.Dismiss(m.ctx); err != nil {
		return statusMsg{status: m.status, err: err}
	}
	return m.pollStatus()
}

func (m Model) scheduleNext() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Update handles key presses, poll results and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "d":
			return m, m.dismiss
		case "r":
			return m, tea.Batch(m.pollStatus, m.loadMenu)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case pollMsg:
		return m, m.pollStatus

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.polled = true
		}
		return m, m.scheduleNext()

	case menuMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.menu = msg.tree
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the sidebar next to the status pane.
func (m Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("panelkit")+" "+dimStyle.Render(m.target),
		"",
		m.loadingLine(),
		m.toastLine(),
		"",
		m.errorLine(),
		dimStyle.Render("d dismiss • r refresh • q quit"),
	)

	if m.menu == nil {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(renderSidebar(m.menu)), "  ", main)
}

func (m Model) loadingLine() string {
	switch {
	case !m.polled:
		return dimStyle.Render("connecting…")
	case m.status.Loading.Active:
		return fmt.Sprintf("%s %s", m.spinner.View(),
			busyStyle.Render(fmt.Sprintf("Loading (%d in flight)", m.status.Loading.InFlight)))
	default:
		return idleStyle.Render("● Idle")
	}
}

func (m Model) toastLine() string {
	toast := m.status.Toast
	if !toast.Visible {
		return dimStyle.Render("no notification")
	}
	return toastStyle(toast.Kind).Render(fmt.Sprintf("[%s] %s", toast.Kind, toast.Message))
}

func (m Model) errorLine() string {
	if m.err == nil {
		return ""
	}
	return errorLineStyle.Render("poll failed: " + m.err.Error())
}

func renderSidebar(tree *menu.Tree) string {
	var sb strings.Builder
	_ = tree.Walk(func(parents []string, n menu.Node) error {
		indent := strings.Repeat("  ", len(parents))
		switch n.Kind() {
		case menu.KindHeading:
			sb.WriteString("\n" + headingStyle.Render(strings.ToUpper(n.Label())) + "\n")
		case menu.KindGroup:
			sb.WriteString(indent + "▸ " + n.Label() + "\n")
		default:
			sb.WriteString(indent + "  " + n.Label() + "\n")
		}
		return nil
	})
	return strings.TrimRight(sb.String(), "\n")
}

// Run starts the watcher until the user quits or ctx is cancelled.
func Run(ctx context.Context, source Source, target string, interval time.Duration) error {
	program := tea.NewProgram(New(ctx, source, target, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
