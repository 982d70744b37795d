package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zgate/internal/config"
)

type settingsField int

const (
	setEndpoint settingsField = iota
	setTimeout
	setKeepAlive
	setFieldCount
)

var settingsLabels = [setFieldCount]string{
	"endpoint",
	"timeout",
	"keep-alive",
}

// saveSettingsMsg requests saving portal settings.
type saveSettingsMsg struct {
	config config.Config
}

// settingsModel is the form for the portal endpoint and timings.
type settingsModel struct {
	inputs []textinput.Model
	focus  int
	flash  string
}

func newSettingsModel(cfg config.Config) settingsModel {
	inputs := make([]textinput.Model, setFieldCount)

	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 50
		inputs[i] = ti
	}

	inputs[setEndpoint].Placeholder = config.DefaultEndpoint
	inputs[setEndpoint].SetValue(cfg.Endpoint)

	inputs[setTimeout].Placeholder = config.DefaultTimeout.String()
	inputs[setTimeout].SetValue(cfg.Timeout.String())

	inputs[setKeepAlive].Placeholder = config.DefaultKeepAlive.String()
	inputs[setKeepAlive].SetValue(cfg.KeepAlive.String())

	inputs[0].Focus()

	return settingsModel{inputs: inputs}
}

func (m settingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m settingsModel) Update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if msg.Type == tea.KeyEsc {
			return m, func() tea.Msg { return navigateMsg{view: viewHome} }
		}

		if key.Matches(msg, zstyle.KeyTab) || msg.Type == tea.KeyDown {
			return m.nextField(), nil
		}

		if msg.Type == tea.KeyUp || msg.Type == tea.KeyShiftTab {
			return m.prevField(), nil
		}

		if key.Matches(msg, zstyle.KeyEnter) {
			// enter on last field saves; otherwise advance
			if m.focus == int(setFieldCount)-1 {
				return m.save()
			}
			return m.nextField(), nil
		}

		if msg.String() == "ctrl+s" {
			return m.save()
		}

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m.updateInput(msg)
}

func (m settingsModel) save() (settingsModel, tea.Cmd) {
	cfg, err := m.parse()
	if err != nil {
		m.flash = err.Error()
		return m, clearFlashAfter()
	}

	return m, func() tea.Msg { return saveSettingsMsg{config: cfg} }
}

// parse reads the form into a validated config.
func (m settingsModel) parse() (config.Config, error) {
	timeout, err := time.ParseDuration(strings.TrimSpace(m.inputs[setTimeout].Value()))
	if err != nil {
		return config.Config{}, errors.New("timeout: use a duration like 10s")
	}

	keepAlive, err := time.ParseDuration(strings.TrimSpace(m.inputs[setKeepAlive].Value()))
	if err != nil {
		return config.Config{}, errors.New("keep-alive: use a duration like 2m")
	}

	cfg := config.Config{
		Endpoint:  strings.TrimSpace(m.inputs[setEndpoint].Value()),
		Timeout:   timeout,
		KeepAlive: keepAlive,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (m settingsModel) nextField() settingsModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + 1) % int(setFieldCount)
	m.inputs[m.focus].Focus()
	return m
}

func (m settingsModel) prevField() settingsModel {
	m.inputs[m.focus].Blur()
	m.focus--
	if m.focus < 0 {
		m.focus = int(setFieldCount) - 1
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m settingsModel) updateInput(msg tea.Msg) (settingsModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m settingsModel) View() string {
	accentStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)

	s := "\n"

	for i, input := range m.inputs {
		label := zstyle.MutedText.Render(fmt.Sprintf("  %-12s", settingsLabels[i]))
		if i == m.focus {
			s += accentStyle.Render("▸") + " " + label + input.View() + "\n"
		} else {
			s += "  " + label + input.View() + "\n"
		}
	}

	s += "\n"

	if m.flash != "" {
		s += "  " + zstyle.StatusOK.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	return s
}
