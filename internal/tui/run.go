package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/portal"
	"github.com/zarlcorp/zgate/internal/session"
)

// Runner performs the portal runs the UI offers.
type Runner interface {
	Login(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LoginResult
	Logout(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LogoutResult
	Relogin(ctx context.Context, creds []credential.Credential, current string, observe session.Observer) session.LoginResult
}

// attemptStartedMsg is sent before a credential is submitted.
type attemptStartedMsg struct {
	mode       portal.Mode
	credential credential.Credential
}

// attemptMsg carries one finished attempt.
type attemptMsg struct {
	attempt session.Attempt
}

// loginDoneMsg ends a login or relogin run.
type loginDoneMsg struct {
	result session.LoginResult
}

// logoutDoneMsg ends a logout run.
type logoutDoneMsg struct {
	result session.LogoutResult
}

// keepAliveMsg fires a scheduled keep-alive login. Ticks from an older
// generation are ignored.
type keepAliveMsg struct {
	gen int
}

// clockMsg refreshes the running time.
type clockMsg time.Time

// chanObserver forwards runner progress to the UI goroutine.
type chanObserver struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (o chanObserver) Started(mode portal.Mode, c credential.Credential) {
	o.send(attemptStartedMsg{mode: mode, credential: c})
}

func (o chanObserver) Finished(a session.Attempt) {
	o.send(attemptMsg{attempt: a})
}

func (o chanObserver) send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	case <-o.ctx.Done():
	}
}

// runCmd starts fn on its own goroutine and returns the first message it
// produces. fn's return value is sent last and the channel is then closed.
// Further messages are read with waitFor.
func runCmd(ctx context.Context, ch chan tea.Msg, fn func(observe session.Observer) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(ch)
			obs := chanObserver{ctx: ctx, ch: ch}
			obs.send(fn(obs))
		}()
		return <-ch
	}
}

// waitFor reads the next message of a run. A closed channel yields nil.
func waitFor(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func keepAliveAfter(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return keepAliveMsg{gen: gen}
	})
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
