// Package session runs sequential login and logout attempts across stored
// credentials. Login stops at the first credential the portal accepts;
// logout is best-effort and tries every credential.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/portal"
)

// Class is the classification of a single portal reply.
type Class int

const (
	Unknown Class = iota
	Success
	Failure
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// ClassifyLogin classifies a login reply. The "Login failed" check is
// case-sensitive; the "signed in" check is not.
func ClassifyLogin(msg string) Class {
	if strings.Contains(msg, "Login failed") {
		return Failure
	}
	if strings.Contains(strings.ToLower(msg), "signed in") {
		return Success
	}
	return Unknown
}

// ClassifyLogout classifies a logout reply.
func ClassifyLogout(msg string) Class {
	if strings.Contains(strings.ToLower(msg), "signed out") {
		return Success
	}
	return Unknown
}

// Submitter sends one form to the portal.
type Submitter interface {
	Submit(ctx context.Context, mode portal.Mode, cred credential.Credential) portal.Outcome
}

// Attempt records one credential tried in a run.
type Attempt struct {
	Mode       portal.Mode
	Credential credential.Credential
	Outcome    portal.Outcome
	Class      Class
}

// Username returns the username of the attempted credential.
func (a Attempt) Username() string { return a.Credential.Username }

// Describe renders a finished attempt as a single status line.
func Describe(a Attempt) string {
	if !a.Outcome.Ok() {
		return "Error: " + a.Outcome.Err.Error()
	}

	if a.Mode == portal.ModeLogout {
		if a.Class == Success {
			return "Logged out " + a.Username()
		}
		return a.Username() + ": " + a.Outcome.Message
	}

	switch a.Class {
	case Success:
		return "Success: " + a.Username()
	case Failure:
		return a.Username() + ": " + a.Outcome.Message
	}
	return "Unknown: " + a.Outcome.Message
}

// Announce renders the line shown before a credential is tried.
func Announce(mode portal.Mode, c credential.Credential) string {
	if mode == portal.ModeLogout {
		return "Logging out " + c.Username + "..."
	}
	return "Trying login for " + c.Username + "..."
}

// Observer receives progress from a run. Started is called before each
// submission and Finished after it, in credential order.
type Observer interface {
	Started(mode portal.Mode, c credential.Credential)
	Finished(a Attempt)
}

// FinishedFunc adapts a function to an Observer that ignores Started.
type FinishedFunc func(Attempt)

func (FinishedFunc) Started(portal.Mode, credential.Credential) {}

func (f FinishedFunc) Finished(a Attempt) { f(a) }

// Printer is an Observer that writes one line per event to W.
type Printer struct {
	W io.Writer
}

func (p Printer) Started(mode portal.Mode, c credential.Credential) {
	fmt.Fprintln(p.W, Announce(mode, c))
}

func (p Printer) Finished(a Attempt) {
	fmt.Fprintln(p.W, Describe(a))
}

// LoginResult summarizes a login run.
type LoginResult struct {
	Attempts []Attempt
	OK       bool
	Username string // set when OK
}

// Summary returns the final line reported to the user.
func (r LoginResult) Summary() string {
	if r.OK {
		return "Success: " + r.Username
	}
	return "All login attempts failed."
}

// LogoutResult summarizes a logout run.
type LogoutResult struct {
	Attempts  []Attempt
	LoggedOut int
	Total     int
}

// Summary returns the tally line reported to the user.
func (r LogoutResult) Summary() string {
	return fmt.Sprintf("Done: %d/%d logged out.", r.LoggedOut, r.Total)
}

// Runner drives attempts through a Submitter.
type Runner struct {
	sub Submitter
	log *slog.Logger
}

// NewRunner creates a runner that submits through sub.
func NewRunner(sub Submitter) *Runner {
	return &Runner{sub: sub, log: slog.Default()}
}

// SetLogger replaces the logger used for attempt records.
func (r *Runner) SetLogger(l *slog.Logger) {
	r.log = l
}

// Login tries creds in order and returns as soon as one is accepted.
// Transport errors, rejections and unrecognized replies move on to the next
// credential. A cancelled context stops the run before the next credential.
func (r *Runner) Login(ctx context.Context, creds []credential.Credential, observe Observer) LoginResult {
	var result LoginResult

	for _, c := range creds {
		if ctx.Err() != nil {
			r.log.Info("login cancelled", "tried", len(result.Attempts), "total", len(creds))
			break
		}

		a := r.attempt(ctx, portal.ModeLogin, c, ClassifyLogin, observe)
		result.Attempts = append(result.Attempts, a)

		if a.Class == Success {
			result.OK = true
			result.Username = c.Username
			return result
		}
	}

	return result
}

// Logout tries every credential in order, whatever the individual outcome,
// and counts how many the portal confirmed as signed out.
func (r *Runner) Logout(ctx context.Context, creds []credential.Credential, observe Observer) LogoutResult {
	result := LogoutResult{Total: len(creds)}

	for _, c := range creds {
		if ctx.Err() != nil {
			r.log.Info("logout cancelled", "tried", len(result.Attempts), "total", len(creds))
			break
		}

		a := r.attempt(ctx, portal.ModeLogout, c, ClassifyLogout, observe)
		result.Attempts = append(result.Attempts, a)

		if a.Class == Success {
			result.LoggedOut++
		}
	}

	return result
}

// Relogin signs current out, if it names a stored credential, and then runs a
// full login. The logout attempt is reported through observe like any other
// but is not part of the returned result.
func (r *Runner) Relogin(ctx context.Context, creds []credential.Credential, current string, observe Observer) LoginResult {
	if i := credential.Find(creds, current); i >= 0 {
		r.attempt(ctx, portal.ModeLogout, creds[i], ClassifyLogout, observe)
	}
	return r.Login(ctx, creds, observe)
}

// KeepAlive runs Login, waits interval from the end of that run, and repeats
// until ctx is done. onResult receives every completed run. The last result
// is returned.
func (r *Runner) KeepAlive(ctx context.Context, creds []credential.Credential, interval time.Duration, observe Observer, onResult func(LoginResult)) LoginResult {
	var last LoginResult

	for {
		res := r.Login(ctx, creds, observe)
		if ctx.Err() != nil {
			return last
		}
		last = res
		if onResult != nil {
			onResult(res)
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
}

// attempt submits one credential. A transport error leaves the class at
// Unknown; callers check Outcome.Ok first.
func (r *Runner) attempt(ctx context.Context, mode portal.Mode, c credential.Credential, classify func(string) Class, observe Observer) Attempt {
	if observe != nil {
		observe.Started(mode, c)
	}

	a := Attempt{Mode: mode, Credential: c, Outcome: r.sub.Submit(ctx, mode, c)}
	if a.Outcome.Ok() {
		a.Class = classify(a.Outcome.Message)
		r.log.Info("portal reply", "mode", mode.String(), "username", c.Username, "class", a.Class.String(), "message", a.Outcome.Message)
	} else {
		r.log.Warn("portal request failed", "mode", mode.String(), "username", c.Username, "err", a.Outcome.Err)
	}

	if observe != nil {
		observe.Finished(a)
	}
	return a
}
