// Package console implements zgate's line-oriented prompt loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/session"
	"github.com/zarlcorp/zgate/internal/store"
)

const prompt = "[l]ogin, [o]ut, [a]dd, [q]uit: "

// Runner performs login and logout runs.
type Runner interface {
	Login(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LoginResult
	Logout(ctx context.Context, creds []credential.Credential, observe session.Observer) session.LogoutResult
}

// PasswordReader reads a password after printing prompt.
type PasswordReader func(prompt string) (string, error)

// Console is the interactive l/o/a/q loop.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	store    *store.Store
	runner   Runner
	password PasswordReader
}

// New creates a console reading commands from in and writing to out.
// Passwords are read from in as plain lines unless SetPasswordReader is used.
func New(in io.Reader, out io.Writer, st *store.Store, r Runner) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		store:  st,
		runner: r,
	}
}

// SetPasswordReader replaces how passwords are read, e.g. without echo.
func (c *Console) SetPasswordReader(fn PasswordReader) {
	c.password = fn
}

// Run loads the stored credentials and serves commands until q, end of
// input or ctx is cancelled. It returns nil on a normal quit.
func (c *Console) Run(ctx context.Context) error {
	creds := c.store.Load()
	if len(creds) == 0 {
		fmt.Fprintln(c.out, "No credentials stored, let's add some.")
		var err error
		if creds, err = c.add(ctx, creds); err != nil {
			return quitOnCancel(c.out, err)
		}
	}
	fmt.Fprintf(c.out, "You have %d credential(s) stored.\n", len(creds))

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(c.out, prompt)
		line, err := c.await(ctx, c.readLine)
		if err != nil {
			if ctx.Err() != nil {
				return quitOnCancel(c.out, ctx.Err())
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "l":
			c.login(ctx, creds)
		case "o":
			c.logout(ctx, creds)
		case "a":
			if creds, err = c.add(ctx, creds); err != nil {
				return quitOnCancel(c.out, err)
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(c.out, "Invalid option.")
		}
	}
}

func (c *Console) login(ctx context.Context, creds []credential.Credential) {
	res := c.runner.Login(ctx, creds, session.Printer{W: c.out})
	if !res.OK {
		fmt.Fprintln(c.out, res.Summary())
	}
}

func (c *Console) logout(ctx context.Context, creds []credential.Credential) {
	res := c.runner.Logout(ctx, creds, session.Printer{W: c.out})
	fmt.Fprintln(c.out, res.Summary())
}

// add prompts for credentials until a blank username, then saves the list.
// A save failure is reported and the in-memory list is kept. Cancelling ctx
// abandons the entries not yet saved.
func (c *Console) add(ctx context.Context, creds []credential.Credential) ([]credential.Credential, error) {
	fmt.Fprintln(c.out, "Enter new credentials (blank username to stop).")

	for {
		fmt.Fprint(c.out, "Username: ")
		line, err := c.await(ctx, c.readLine)
		if ctx.Err() != nil {
			return creds, ctx.Err()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return creds, fmt.Errorf("read username: %w", err)
		}

		u := strings.TrimSpace(line)
		if u == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
			}
			break
		}

		p, err := c.readPassword(ctx)
		if ctx.Err() != nil {
			return creds, ctx.Err()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return creds, fmt.Errorf("read password: %w", err)
		}

		creds = store.Append(creds, credential.Credential{Username: u, Password: p})
		fmt.Fprintf(c.out, "Added %s\n", u)
	}

	if err := c.store.Save(creds); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return creds, nil
	}
	fmt.Fprintf(c.out, "Stored %d credential(s).\n", len(creds))
	return creds, nil
}

// await runs read in its own goroutine so a blocked read does not hold up
// cancellation. After ctx is done the read is abandoned and the console must
// not be used again.
func (c *Console) await(ctx context.Context, read func() (string, error)) (string, error) {
	type result struct {
		line string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		line, err := read()
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// quitOnCancel turns a cancellation into a normal quit.
func quitOnCancel(w io.Writer, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(w)
		return nil
	}
	return err
}

func (c *Console) readPassword(ctx context.Context) (string, error) {
	if c.password == nil {
		fmt.Fprint(c.out, "Password: ")
		return c.await(ctx, c.readLine)
	}
	return c.await(ctx, func() (string, error) { return c.password("Password: ") })
}

// readLine returns one line without its terminator. A final unterminated line
// is returned without error; the next call reports io.EOF.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line != "" && errors.Is(err, io.EOF) {
		return line, nil
	}
	return line, err
}
