package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zgate/internal/credential"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"username",
	"password",
}

// credentialFormModel adds a credential.
type credentialFormModel struct {
	inputs [fieldCount]textinput.Model
	focus  int
	flash  string
}

// saveCredentialMsg requests saving a credential.
type saveCredentialMsg struct {
	credential credential.Credential
}

func newCredentialFormModel() credentialFormModel {
	var inputs [fieldCount]textinput.Model
	for i := range fieldCount {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 40
		ti.Prompt = ""
		inputs[i] = ti
	}

	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '*'

	m := credentialFormModel{inputs: inputs}
	m.inputs[m.focus].Focus()
	return m
}

func (m credentialFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m credentialFormModel) Update(msg tea.Msg) (credentialFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m.updateInput(msg)
}

func (m credentialFormModel) handleKey(msg tea.KeyMsg) (credentialFormModel, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if key.Matches(msg, zstyle.KeyBack) {
		return m, func() tea.Msg { return navigateMsg{view: viewCredentials} }
	}

	switch msg.String() {
	case "tab", "down":
		return m.setFocus((m.focus + 1) % fieldCount), textinput.Blink

	case "shift+tab", "up":
		return m.setFocus((m.focus - 1 + fieldCount) % fieldCount), textinput.Blink
	}

	if key.Matches(msg, zstyle.KeyEnter) {
		// enter on username advances; on password submits
		if m.focus == fieldUsername {
			return m.setFocus(fieldPassword), textinput.Blink
		}
		return m.submit()
	}

	return m.updateInput(msg)
}

func (m credentialFormModel) setFocus(i int) credentialFormModel {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

func (m credentialFormModel) updateInput(msg tea.Msg) (credentialFormModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m credentialFormModel) submit() (credentialFormModel, tea.Cmd) {
	c := credential.Credential{
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Password: m.inputs[fieldPassword].Value(),
	}

	if !c.Valid() || c.Password == "" {
		m.flash = "username and password are required"
		return m, clearFlashAfter()
	}

	return m, func() tea.Msg { return saveCredentialMsg{credential: c} }
}

func (m credentialFormModel) View() string {
	title := zstyle.Title.Render("add credential")
	s := fmt.Sprintf("\n  %s\n\n", title)

	for i := range fieldCount {
		label := zstyle.MutedText.Render(fmt.Sprintf("  %-10s", fieldLabels[i]))
		cursor := "  "
		if i == m.focus {
			cursor = "> "
		}
		s += fmt.Sprintf("  %s%s %s\n", cursor, label, m.inputs[i].View())
	}

	s += "\n"

	if m.flash != "" {
		s += "  " + zstyle.StatusErr.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	help := "tab next  shift+tab prev  enter save  esc cancel"
	s += "  " + zstyle.MutedText.Render(help) + "\n"
	return s
}
