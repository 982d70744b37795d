package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zapp"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/zgate/internal/cli"
	"github.com/zarlcorp/zgate/internal/config"
	"github.com/zarlcorp/zgate/internal/portal"
	"github.com/zarlcorp/zgate/internal/session"
	"github.com/zarlcorp/zgate/internal/store"
	"github.com/zarlcorp/zgate/internal/tui"
	"gopkg.in/natefinch/lumberjack.v2"
)

// version is set at build time via ldflags.
var version = "dev"

// logoutTimeout bounds the sign-out performed when the TUI quits with
// keep-alive on.
const logoutTimeout = 10 * time.Second

func main() {
	app := zapp.New(zapp.WithName("zgate"))

	ctx, cancel := zapp.SignalContext(context.Background())
	defer cancel()

	dataDir := cli.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "zgate: create data dir: %v\n", err)
		os.Exit(1)
	}

	logFile := setupLogging(dataDir)
	defer logFile.Close()

	fsys := zfilesystem.NewOSFileSystem(dataDir)
	cfg, err := config.Load(fsys)
	if err != nil {
		slog.Warn("using default config", "err", err)
	}
	slog.Info("starting", "version", version, "data_dir", dataDir, "endpoint", cfg.Endpoint)

	st := store.New(fsys)

	if len(os.Args) > 1 {
		code := runCLI(ctx, os.Args[1], cli.Env{
			Store:    st,
			Runner:   newRunner(cfg),
			In:       os.Stdin,
			Out:      os.Stdout,
			Password: passwordReader(),
		}, cfg)
		_ = app.Close()
		if code != 0 {
			os.Exit(code)
		}
		return
	}

	if err := runTUI(ctx, st, fsys, cfg); err != nil {
		slog.Error("tui", "err", err)
		_ = app.Close()
		os.Exit(1)
	}

	if err := app.Close(); err != nil {
		slog.Error("shutdown", "err", err)
		os.Exit(1)
	}
}

// setupLogging points the default slog logger at a rotating zgate.log in
// dataDir. The terminal belongs to the UI.
func setupLogging(dataDir string) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "zgate.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}

	level := slog.LevelInfo
	if os.Getenv("ZGATE_DEBUG") != "" {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return w
}

func newRunner(cfg config.Config) *session.Runner {
	c := portal.NewClient(portal.Config{Endpoint: cfg.Endpoint, Timeout: cfg.Timeout})
	c.SetUserAgent("zgate/" + version)
	return session.NewRunner(c)
}

// passwordReader reads without echo when stdin is a terminal; otherwise the
// console reads passwords as plain lines.
func passwordReader() func(string) (string, error) {
	if !cli.StdinIsTerminal() {
		return nil
	}
	return func(prompt string) (string, error) {
		return cli.ReadPassword(prompt, os.Stdout)
	}
}

func runCLI(ctx context.Context, cmd string, env cli.Env, cfg config.Config) int {
	var err error

	switch cmd {
	case "version":
		fmt.Printf("zgate %s\n", version)
	case "console":
		err = cli.CmdConsole(ctx, env)
	case "login":
		err = cli.CmdLogin(ctx, env)
	case "logout":
		err = cli.CmdLogout(ctx, env)
	case "list":
		err = cli.CmdList(env, os.Args[2:])
	case "keepalive":
		err = cli.CmdKeepAlive(ctx, env, cfg.KeepAlive)
	default:
		fmt.Fprintf(os.Stderr, "zgate: unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "usage: zgate [version|console|login|logout|list [--json]|keepalive]")
		return 1
	}

	if err == nil {
		return 0
	}

	slog.Error("command failed", "cmd", cmd, "err", err)
	if !errors.Is(err, cli.ErrLoginFailed) {
		fmt.Fprintf(os.Stderr, "zgate: %v\n", err)
	}
	return 1
}

func runTUI(ctx context.Context, st *store.Store, fsys zfilesystem.ReadWriteFileFS, cfg config.Config) error {
	m := tui.New(tui.Options{
		Version: version,
		Store:   st,
		FS:      fsys,
		Config:  cfg,
		Runner: func(cfg config.Config) tui.Runner {
			return newRunner(cfg)
		},
		Context: ctx,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	if fm, ok := finalModel.(tui.Model); ok {
		slog.Info("tui closed", "active_user", fm.ActiveUser())
		fm.Close()

		sctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if res, ok := fm.Shutdown(sctx); ok {
			slog.Info("keep-alive sign out", "user", fm.ActiveUser(), "result", res.Summary())
		}
	}

	return nil
}
