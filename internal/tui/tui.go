// Package tui implements the root Bubble Tea model for zgate.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zgate/internal/config"
	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/session"
	"github.com/zarlcorp/zgate/internal/store"
)

var accent = zstyle.ZburnAccent

type viewID int

const (
	viewHome viewID = iota
	viewCredentials
	viewCredentialForm
	viewSettings
)

// Options configures the root model.
type Options struct {
	Version string
	Store   *store.Store
	FS      zfilesystem.ReadWriteFileFS // where config.yaml lives
	Config  config.Config
	// Runner builds a runner for cfg. It is called again after settings change.
	Runner  func(cfg config.Config) Runner
	Context context.Context
	Now     func() time.Time
}

// Model is the root TUI model.
type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.Config
	runner Runner

	active         viewID
	home           homeModel
	credentialList credentialListModel
	credentialForm credentialFormModel
	settings       settingsModel

	// session state
	creds     int // stored credential count
	user      string
	since     time.Time
	clock     time.Time
	busy      bool
	keepAlive bool
	keepGen   int
	signOut   bool // sign the user out once the current run finishes
	log       []logEntry
	run       chan tea.Msg

	// terminal dimensions
	width  int
	height int
}

// flashMsg clears transient messages.
type flashMsg struct{}

func clearFlashAfter() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashMsg{}
	})
}

// New creates the root TUI model.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(opts.Context)

	return Model{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		cfg:    opts.Config,
		runner: opts.Runner(opts.Config),
		active: viewHome,
		home:   newHomeModel(opts.Version),
		clock:  opts.Now(),
		creds:  len(opts.Store.Load()),
	}
}

func (m Model) Init() tea.Cmd {
	return clockTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clockMsg:
		m.clock = time.Time(msg)
		return m, clockTick()

	case navigateMsg:
		return m.navigate(msg.view)

	case actionMsg:
		return m.handleAction(msg.action)

	case attemptStartedMsg:
		m.appendLog(levelInfo, session.Announce(msg.mode, msg.credential))
		return m, waitFor(m.run)

	case attemptMsg:
		m.appendLog(attemptLevel(msg.attempt), session.Describe(msg.attempt))
		return m, waitFor(m.run)

	case loginDoneMsg:
		return m.finishLogin(msg.result)

	case logoutDoneMsg:
		return m.finishLogout(msg.result)

	case keepAliveMsg:
		return m.handleKeepAlive(msg)

	case addCredentialMsg:
		m.credentialForm = newCredentialFormModel()
		m.active = viewCredentialForm
		return m, m.credentialForm.Init()

	case saveCredentialMsg:
		return m.handleSaveCredential(msg.credential)

	case deleteCredentialMsg:
		return m.handleDeleteCredential(msg.index)

	case moveCredentialMsg:
		return m.handleMoveCredential(msg.from, msg.to)

	case saveSettingsMsg:
		return m.handleSaveSettings(msg.config)
	}

	return m.updateActive(msg)
}

func (m Model) View() string {
	// home includes its own title
	if m.active == viewHome {
		return m.home.View(m.status())
	}

	var content string
	switch m.active {
	case viewCredentials:
		content = m.credentialList.View()
	case viewCredentialForm:
		content = m.credentialForm.View()
	case viewSettings:
		content = m.settings.View()
	}

	header := zstyle.RenderHeader("zgate", viewTitle(m.active), accent)
	sep := zstyle.RenderSeparator(m.width)
	footer := zstyle.RenderFooter(helpFor(m.active))

	return "\n" + header + "\n" + sep + "\n" + content + "\n" + footer + "\n"
}

// viewTitle returns the display title for each view.
func viewTitle(id viewID) string {
	switch id {
	case viewCredentials:
		return "Credentials"
	case viewCredentialForm:
		return "Add Credential"
	case viewSettings:
		return "Settings"
	}
	return ""
}

// helpFor returns keybinding pairs for each view's footer.
func helpFor(id viewID) []zstyle.HelpPair {
	switch id {
	case viewCredentials:
		return []zstyle.HelpPair{
			{Key: "j/k", Desc: "navigate"},
			{Key: "J/K", Desc: "move"},
			{Key: "a", Desc: "add"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back"},
			{Key: "q", Desc: "quit"},
		}
	case viewCredentialForm:
		return []zstyle.HelpPair{
			{Key: "tab", Desc: "next"},
			{Key: "shift+tab", Desc: "prev"},
			{Key: "enter", Desc: "save"},
			{Key: "esc", Desc: "cancel"},
		}
	case viewSettings:
		return []zstyle.HelpPair{
			{Key: "tab", Desc: "next"},
			{Key: "ctrl+s", Desc: "save"},
			{Key: "esc", Desc: "back"},
		}
	}
	return nil
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.active {
	case viewHome:
		m.home, cmd = m.home.Update(msg)
	case viewCredentials:
		m.credentialList, cmd = m.credentialList.Update(msg)
	case viewCredentialForm:
		m.credentialForm, cmd = m.credentialForm.Update(msg)
	case viewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}

	return m, cmd
}

func (m Model) navigate(view viewID) (tea.Model, tea.Cmd) {
	switch view {
	case viewHome:
		m.active = viewHome
		return m, tea.ClearScreen

	case viewCredentials:
		creds := m.opts.Store.Load()
		m.creds = len(creds)
		m.credentialList = newCredentialListModel(creds).withCursor(m.credentialList.cursor)
		m.active = viewCredentials
		return m, tea.ClearScreen

	case viewSettings:
		m.settings = newSettingsModel(m.cfg)
		m.active = viewSettings
		return m, tea.Batch(m.settings.Init(), tea.ClearScreen)
	}

	return m, nil
}

func (m Model) status() status {
	return status{
		user:      m.user,
		since:     m.since,
		now:       m.clock,
		busy:      m.busy,
		keepAlive: m.keepAlive,
		interval:  m.cfg.KeepAlive,
		endpoint:  m.cfg.Endpoint,
		creds:     m.creds,
		log:       m.log,
	}
}

func (m *Model) appendLog(level logLevel, text string) {
	m.log = append(m.log, logEntry{at: m.opts.Now(), text: text, level: level})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

func attemptLevel(a session.Attempt) logLevel {
	switch {
	case !a.Outcome.Ok():
		return levelErr
	case a.Class == session.Success:
		return levelOK
	case a.Class == session.Failure:
		return levelErr
	}
	return levelInfo
}

func (m Model) handleAction(a action) (tea.Model, tea.Cmd) {
	if a == actKeepAlive {
		return m.toggleKeepAlive()
	}

	if m.busy {
		m.home.flash = "busy: wait for the current run to finish"
		return m, clearFlashAfter()
	}

	creds := m.opts.Store.Load()
	m.creds = len(creds)
	if len(creds) == 0 {
		m.home.flash = "no credentials stored: press c to add some"
		return m, clearFlashAfter()
	}

	switch a {
	case actLogin:
		return m.startLogin(creds)

	case actLogout:
		return m.startRun(func(observe session.Observer) tea.Msg {
			return logoutDoneMsg{result: m.runner.Logout(m.ctx, creds, observe)}
		})

	case actRelogin:
		current := m.user
		return m.startRun(func(observe session.Observer) tea.Msg {
			return loginDoneMsg{result: m.runner.Relogin(m.ctx, creds, current, observe)}
		})
	}

	return m, nil
}

func (m Model) startLogin(creds []credential.Credential) (Model, tea.Cmd) {
	return m.startRun(func(observe session.Observer) tea.Msg {
		return loginDoneMsg{result: m.runner.Login(m.ctx, creds, observe)}
	})
}

// startRun marks the model busy and streams fn's progress back as messages.
func (m Model) startRun(fn func(observe session.Observer) tea.Msg) (Model, tea.Cmd) {
	m.busy = true
	m.run = make(chan tea.Msg)
	return m, runCmd(m.ctx, m.run, fn)
}

func (m Model) finishLogin(res session.LoginResult) (tea.Model, tea.Cmd) {
	m.busy = false
	m.run = nil

	if !res.OK {
		m.user = ""
		m.signOut = false
		m.appendLog(levelErr, res.Summary())
		return m, nil
	}

	if m.user != res.Username {
		m.since = m.opts.Now()
		m.clock = m.since
	}
	m.user = res.Username
	m.appendLog(levelOK, "Connected as "+res.Username)

	if m.signOut {
		m.signOut = false
		return m.signOutUser()
	}
	return m, nil
}

func (m Model) finishLogout(res session.LogoutResult) (tea.Model, tea.Cmd) {
	m.busy = false
	m.run = nil
	m.user = ""
	m.signOut = false

	level := levelInfo
	if res.LoggedOut > 0 {
		level = levelOK
	}
	m.appendLog(level, res.Summary())
	return m, nil
}

func (m Model) toggleKeepAlive() (tea.Model, tea.Cmd) {
	m.keepGen++

	if m.keepAlive {
		m.keepAlive = false
		m.appendLog(levelInfo, "Keep-alive off")
		if m.busy {
			m.signOut = true
			return m, nil
		}
		return m.signOutUser()
	}

	m.keepAlive = true
	m.signOut = false
	m.appendLog(levelInfo, fmt.Sprintf("Keep-alive on, every %s", m.cfg.KeepAlive))

	next := keepAliveAfter(m.cfg.KeepAlive, m.keepGen)
	creds := m.opts.Store.Load()
	if m.busy || len(creds) == 0 {
		return m, next
	}

	m, run := m.startLogin(creds)
	return m, tea.Batch(run, next)
}

// signOutUser logs out the active user's credential only.
func (m Model) signOutUser() (Model, tea.Cmd) {
	if m.user == "" {
		return m, nil
	}

	one := activeCredential(m.opts.Store.Load(), m.user)
	if one == nil {
		m.appendLog(levelErr, "Cannot sign out "+m.user+": credential no longer stored")
		m.user = ""
		return m, nil
	}

	return m.startRun(func(observe session.Observer) tea.Msg {
		return logoutDoneMsg{result: m.runner.Logout(m.ctx, one, observe)}
	})
}

// activeCredential returns the one-element slice holding user's credential,
// or nil.
func activeCredential(creds []credential.Credential, user string) []credential.Credential {
	i := credential.Find(creds, user)
	if i < 0 {
		return nil
	}
	return creds[i : i+1]
}

func (m Model) handleKeepAlive(msg keepAliveMsg) (tea.Model, tea.Cmd) {
	if !m.keepAlive || msg.gen != m.keepGen {
		return m, nil
	}

	next := keepAliveAfter(m.cfg.KeepAlive, m.keepGen)
	if m.busy {
		return m, next
	}

	creds := m.opts.Store.Load()
	if len(creds) == 0 {
		m.appendLog(levelErr, "Keep-alive: no credentials stored")
		return m, next
	}

	m, run := m.startLogin(creds)
	return m, tea.Batch(run, next)
}

func (m Model) handleSaveCredential(c credential.Credential) (tea.Model, tea.Cmd) {
	creds, err := m.opts.Store.Add(c)
	if err != nil {
		m.credentialForm.flash = "save: " + err.Error()
		return m, clearFlashAfter()
	}

	m.creds = len(creds)
	m.credentialList = newCredentialListModel(creds).withCursor(len(creds) - 1)
	m.credentialList.flash = "added " + c.Username
	m.active = viewCredentials
	return m, clearFlashAfter()
}

func (m Model) handleDeleteCredential(i int) (tea.Model, tea.Cmd) {
	name := ""
	if i >= 0 && i < len(m.credentialList.credentials) {
		name = m.credentialList.credentials[i].Username
	}

	creds, err := m.opts.Store.Remove(i)
	if err != nil {
		m.credentialList.flash = "delete: " + err.Error()
		return m, clearFlashAfter()
	}

	m.creds = len(creds)
	m.credentialList = newCredentialListModel(creds).withCursor(i)
	m.credentialList.flash = "deleted " + name
	return m, clearFlashAfter()
}

func (m Model) handleMoveCredential(from, to int) (tea.Model, tea.Cmd) {
	creds, err := m.opts.Store.Move(from, to)
	if err != nil {
		m.credentialList.flash = "move: " + err.Error()
		return m, clearFlashAfter()
	}

	m.credentialList = newCredentialListModel(creds).withCursor(to)
	return m, nil
}

func (m Model) handleSaveSettings(cfg config.Config) (tea.Model, tea.Cmd) {
	if err := config.Save(m.opts.FS, cfg); err != nil {
		m.settings.flash = "save: " + err.Error()
		return m, clearFlashAfter()
	}

	m.cfg = cfg
	m.runner = m.opts.Runner(cfg)
	m.settings.flash = "saved"
	m.appendLog(levelInfo, "Settings saved, endpoint "+cfg.Endpoint)

	cmds := []tea.Cmd{clearFlashAfter()}

	// restart the keep-alive timer at the new interval
	if m.keepAlive {
		m.keepGen++
		cmds = append(cmds, keepAliveAfter(cfg.KeepAlive, m.keepGen))
	}

	return m, tea.Batch(cmds...)
}

// ActiveUser returns the user currently signed in, or "".
func (m Model) ActiveUser() string {
	return m.user
}

// Shutdown signs the active user out when keep-alive is on. ctx must not be
// the model's own context, which Close cancels. It reports whether a logout was attempted.
func (m Model) Shutdown(ctx context.Context) (session.LogoutResult, bool) {
	if !m.keepAlive || m.user == "" {
		return session.LogoutResult{}, false
	}

	one := activeCredential(m.opts.Store.Load(), m.user)
	if one == nil {
		return session.LogoutResult{}, false
	}
	return m.runner.Logout(ctx, one, nil), true
}

// Close stops any run still in flight. Call after the program exits.
func (m Model) Close() {
	m.cancel()
}
