package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zstyle"
)

type action int

const (
	actLogin action = iota
	actLogout
	actRelogin
	actKeepAlive
	actCredentials
	actSettings
	actQuit
)

var homeItems = []string{
	"Login",
	"Logout",
	"Relogin",
	"Keep-alive",
	"Credentials",
	"Settings",
	"Quit",
}

// shortcuts maps single keys to home actions.
var shortcuts = map[string]action{
	"l": actLogin,
	"o": actLogout,
	"r": actRelogin,
	"a": actKeepAlive,
	"c": actCredentials,
	"s": actSettings,
}

// maxLogLines is how many log entries the home view shows.
const maxLogLines = 8

// maxLogEntries caps the in-memory activity log.
const maxLogEntries = 200

type logLevel int

const (
	levelInfo logLevel = iota
	levelOK
	levelErr
)

type logEntry struct {
	at    time.Time
	text  string
	level logLevel
}

// status is what the home view shows besides the menu.
type status struct {
	user      string
	since     time.Time
	now       time.Time
	busy      bool
	keepAlive bool
	interval  time.Duration
	endpoint  string
	creds     int
	log       []logEntry
}

// actionMsg asks the root model to perform a home action.
type actionMsg struct {
	action action
}

// navigateMsg tells the root model to switch views.
type navigateMsg struct {
	view viewID
}

// homeModel is the main view: connection status, actions and activity log.
type homeModel struct {
	cursor  int
	version string
	flash   string
}

func newHomeModel(version string) homeModel {
	return homeModel{version: version}
}

func (m homeModel) Init() tea.Cmd {
	return nil
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, zstyle.KeyQuit) {
			return m, tea.Quit
		}

		if key.Matches(msg, zstyle.KeyUp) {
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		}

		if key.Matches(msg, zstyle.KeyDown) {
			if m.cursor < len(homeItems)-1 {
				m.cursor++
			}
			return m, nil
		}

		if key.Matches(msg, zstyle.KeyEnter) {
			return m, m.selectItem(action(m.cursor))
		}

		if a, ok := shortcuts[msg.String()]; ok {
			m.cursor = int(a)
			return m, m.selectItem(a)
		}

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m, nil
}

func (m homeModel) selectItem(a action) tea.Cmd {
	switch a {
	case actCredentials:
		return func() tea.Msg { return navigateMsg{view: viewCredentials} }
	case actSettings:
		return func() tea.Msg { return navigateMsg{view: viewSettings} }
	case actQuit:
		return tea.Quit
	}
	return func() tea.Msg { return actionMsg{action: a} }
}

func (m homeModel) View(st status) string {
	title := zstyle.Title.Render("zgate")
	ver := zstyle.MutedText.Render(m.version)

	s := fmt.Sprintf("\n  %s %s\n\n", title, ver)
	s += m.renderStatus(st) + "\n"

	for i, item := range homeItems {
		if action(i) == actKeepAlive {
			state := "off"
			if st.keepAlive {
				state = "on, every " + st.interval.String()
			}
			item = fmt.Sprintf("%s (%s)", item, state)
		}

		if m.cursor == i {
			s += zstyle.Highlight.Render(fmt.Sprintf("  > %s", item)) + "\n"
		} else {
			s += fmt.Sprintf("    %s\n", item)
		}
	}

	s += "\n"
	s += renderLog(st.log)
	s += "\n"

	if m.flash != "" {
		s += "  " + zstyle.StatusWarn.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	s += "  " + zstyle.MutedText.Render("j/k navigate  enter select  l/o/r login/logout/relogin  a keep-alive  q quit") + "\n\n"
	return s
}

func (m homeModel) renderStatus(st status) string {
	var line string
	switch {
	case st.busy:
		line = zstyle.StatusWarn.Render("working...")
	case st.user != "":
		line = zstyle.StatusOK.Render("connected as "+st.user) + "  " +
			zstyle.MutedText.Render(formatRunning(st.now.Sub(st.since)))
	default:
		line = zstyle.MutedText.Render("idle")
	}

	s := "  " + line + "\n"
	s += "  " + zstyle.MutedText.Render(fmt.Sprintf("%d credential(s)  %s", st.creds, st.endpoint)) + "\n"
	return s
}

func renderLog(entries []logEntry) string {
	if len(entries) == 0 {
		return "  " + zstyle.MutedText.Render("no activity yet") + "\n"
	}

	start := 0
	if len(entries) > maxLogLines {
		start = len(entries) - maxLogLines
	}

	var b strings.Builder
	for _, e := range entries[start:] {
		stamp := zstyle.MutedText.Render(e.at.Format("15:04:05"))
		text := e.text
		switch e.level {
		case levelOK:
			text = zstyle.StatusOK.Render(text)
		case levelErr:
			text = zstyle.StatusErr.Render(text)
		}
		fmt.Fprintf(&b, "  %s  %s\n", stamp, text)
	}
	return b.String()
}

// formatRunning renders d as hh:mm:ss.
func formatRunning(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	mnt := int(d%time.Hour) / int(time.Minute)
	sec := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, mnt, sec)
}
