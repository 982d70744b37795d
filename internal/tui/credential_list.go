package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zgate/internal/credential"
)

// credentialListModel displays stored credentials in trial order.
type credentialListModel struct {
	credentials []credential.Credential
	cursor      int
	flash       string
	confirm     bool
}

// addCredentialMsg requests the add form.
type addCredentialMsg struct{}

// deleteCredentialMsg requests deletion of the credential at index.
type deleteCredentialMsg struct {
	index int
}

// moveCredentialMsg requests moving a credential to a new position.
type moveCredentialMsg struct {
	from, to int
}

func newCredentialListModel(creds []credential.Credential) credentialListModel {
	return credentialListModel{credentials: creds}
}

// withCursor places the cursor at i, clamped to the list.
func (m credentialListModel) withCursor(i int) credentialListModel {
	if i >= len(m.credentials) {
		i = len(m.credentials) - 1
	}
	if i < 0 {
		i = 0
	}
	m.cursor = i
	return m
}

func (m credentialListModel) Init() tea.Cmd {
	return nil
}

func (m credentialListModel) Update(msg tea.Msg) (credentialListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m, nil
}

func (m credentialListModel) handleKey(msg tea.KeyMsg) (credentialListModel, tea.Cmd) {
	if m.confirm {
		return m.handleConfirm(msg)
	}

	// reorder keys first; shift+up/down must not fall through to navigation
	switch msg.String() {
	case "K", "shift+up":
		return m.move(-1)
	case "J", "shift+down":
		return m.move(1)
	}

	if key.Matches(msg, zstyle.KeyQuit) {
		return m, tea.Quit
	}

	if key.Matches(msg, zstyle.KeyBack) {
		return m, func() tea.Msg { return navigateMsg{view: viewHome} }
	}

	if key.Matches(msg, zstyle.KeyUp) {
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyDown) {
		if len(m.credentials) > 0 && m.cursor < len(m.credentials)-1 {
			m.cursor++
		}
		return m, nil
	}

	switch msg.String() {
	case "a":
		return m, func() tea.Msg { return addCredentialMsg{} }

	case "d":
		if len(m.credentials) == 0 {
			return m, nil
		}
		m.confirm = true
		return m, nil
	}

	return m, nil
}

func (m credentialListModel) move(delta int) (credentialListModel, tea.Cmd) {
	from := m.cursor
	to := from + delta
	if len(m.credentials) < 2 || to < 0 || to >= len(m.credentials) {
		return m, nil
	}
	return m, func() tea.Msg { return moveCredentialMsg{from: from, to: to} }
}

func (m credentialListModel) handleConfirm(msg tea.KeyMsg) (credentialListModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		i := m.cursor
		m.confirm = false
		return m, func() tea.Msg { return deleteCredentialMsg{index: i} }
	default:
		m.confirm = false
		return m, nil
	}
}

func (m credentialListModel) View() string {
	title := zstyle.Title.Render(fmt.Sprintf("credentials (%d)", len(m.credentials)))
	s := fmt.Sprintf("\n  %s\n", title)
	s += "  " + zstyle.MutedText.Render("tried top to bottom") + "\n\n"

	if len(m.credentials) == 0 {
		s += "  " + zstyle.MutedText.Render("no credentials") + "\n"
		s += "\n"
		if m.flash != "" {
			s += "  " + zstyle.StatusOK.Render(m.flash) + "\n"
		} else {
			s += "\n"
		}
		s += "  " + zstyle.MutedText.Render("a add  esc back  q quit") + "\n"
		return s
	}

	for i, c := range m.credentials {
		line := fmt.Sprintf("%2d  %s", i+1, truncate(c.Username, 40))

		if i == m.cursor {
			s += zstyle.Highlight.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n"

	if m.confirm {
		name := m.credentials[m.cursor].Username
		s += "  " + zstyle.StatusWarn.Render(fmt.Sprintf("delete credential %q? (y/n)", name)) + "\n"
	} else if m.flash != "" {
		s += "  " + zstyle.StatusOK.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	help := "j/k navigate  J/K move  a add  d delete  esc back  q quit"
	s += "  " + zstyle.MutedText.Render(help) + "\n"
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
