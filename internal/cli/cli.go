// Package cli implements zgate's command-line subcommands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/zarlcorp/zgate/internal/console"
	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/session"
	"github.com/zarlcorp/zgate/internal/store"
	"golang.org/x/term"
)

// ErrLoginFailed is returned by CmdLogin when no credential was accepted.
var ErrLoginFailed = errors.New("all login attempts failed")

// ErrNoCredentials is returned by commands that need at least one credential.
var ErrNoCredentials = errors.New("no credentials stored")

// logoutTimeout bounds the sign-out keepalive performs on shutdown.
const logoutTimeout = 10 * time.Second

// DataDir returns the data directory for zgate. A credentials file next to
// the executable wins over the XDG location.
func DataDir() string {
	if exe, err := os.Executable(); err == nil {
		if dir, ok := portableDir(filepath.Dir(exe)); ok {
			return dir
		}
	}
	return defaultDataDir()
}

func defaultDataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d + "/zgate"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zgate"
	}
	return home + "/.local/share/zgate"
}

// portableDir reports whether dir holds a credentials file.
func portableDir(dir string) (string, bool) {
	info, err := os.Stat(filepath.Join(dir, store.FileName))
	if err != nil || info.IsDir() {
		return "", false
	}
	return dir, true
}

// ReadPassword prompts for a password on w and reads it from stdin without echo.
func ReadPassword(prompt string, w io.Writer) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// saveTerminal captures the stdin terminal state and returns a func that
// restores it. It is a no-op when stdin is not a terminal.
func saveTerminal() func() {
	fd := int(syscall.Stdin)
	st, err := term.GetState(fd)
	if err != nil {
		return func() {}
	}
	return func() { _ = term.Restore(fd, st) }
}

// StdinIsTerminal reports whether stdin is attached to a terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// Runner is the subset of session.Runner the commands need.
type Runner interface {
	Login(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LoginResult
	Logout(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LogoutResult
	KeepAlive(ctx context.Context, creds []credential.Credential, interval time.Duration, observe session.Observer, onResult func(session.LoginResult)) session.LoginResult
}

// Env carries what every command works with.
type Env struct {
	Store    *store.Store
	Runner   Runner
	In       io.Reader
	Out      io.Writer
	Password console.PasswordReader // optional; no-echo reader for the console
	Now      func() time.Time       // optional; defaults to time.Now
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CmdConsole runs the interactive l/o/a/q loop. With a password reader set,
// the terminal state is restored on return.
func CmdConsole(ctx context.Context, env Env) error {
	c := console.New(env.In, env.Out, env.Store, env.Runner)
	if env.Password != nil {
		defer saveTerminal()()
		c.SetPasswordReader(env.Password)
	}
	return c.Run(ctx)
}

// CmdLogin tries the stored credentials once and reports the result.
func CmdLogin(ctx context.Context, env Env) error {
	creds := env.Store.Load()
	if len(creds) == 0 {
		return ErrNoCredentials
	}

	res := env.Runner.Login(ctx, creds, session.Printer{W: env.Out})
	if !res.OK {
		fmt.Fprintln(env.Out, res.Summary())
		return ErrLoginFailed
	}
	return nil
}

// CmdLogout signs out every stored credential.
func CmdLogout(ctx context.Context, env Env) error {
	creds := env.Store.Load()
	if len(creds) == 0 {
		return ErrNoCredentials
	}

	res := env.Runner.Logout(ctx, creds, session.Printer{W: env.Out})
	fmt.Fprintln(env.Out, res.Summary())
	return nil
}

// CmdList prints the stored usernames in trial order. Passwords are never
// printed.
func CmdList(env Env, args []string) error {
	names := credential.Usernames(env.Store.Load())

	if hasFlag(args, "--json") {
		enc := json.NewEncoder(env.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(names); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}

	if len(names) == 0 {
		fmt.Fprintln(env.Out, "no stored credentials")
		return nil
	}

	for i, n := range names {
		fmt.Fprintf(env.Out, "  %2d  %s\n", i+1, n)
	}
	return nil
}

// CmdKeepAlive logs in every interval until ctx is cancelled, then signs out
// the user that last held the session.
func CmdKeepAlive(ctx context.Context, env Env, interval time.Duration) error {
	creds := env.Store.Load()
	if len(creds) == 0 {
		return ErrNoCredentials
	}

	fmt.Fprintf(env.Out, "keep-alive every %s, ctrl+c to stop\n", interval)

	var active string
	env.Runner.KeepAlive(ctx, creds, interval, session.Printer{W: env.Out}, func(res session.LoginResult) {
		stamp := env.now().Format("15:04:05")
		fmt.Fprintf(env.Out, "[%s] %s\n", stamp, res.Summary())
		if res.OK {
			active = res.Username
		}
	})

	i := credential.Find(creds, active)
	if i < 0 {
		return nil
	}

	// ctx is already done; sign out on a fresh one
	lctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()

	res := env.Runner.Logout(lctx, creds[i:i+1], session.Printer{W: env.Out})
	fmt.Fprintln(env.Out, res.Summary())
	return nil
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}
