// Command portalsim serves a local stand-in for the captive portal so zgate
// can be exercised end to end without the campus network.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarlcorp/core/pkg/zapp"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/zgate/internal/credential"
	"github.com/zarlcorp/zgate/internal/portalsim"
	"github.com/zarlcorp/zgate/internal/store"
)

var (
	addr        string
	accountsDir string
	maxSessions int
	users       []string
)

var rootCmd = &cobra.Command{
	Use:   "portalsim",
	Short: "Serve a fake captive portal on a local address",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := loadAccounts()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return errors.New("no accounts: pass --user name:password or --accounts <dir>")
		}

		ctx, cancel := zapp.SignalContext(cmd.Context())
		defer cancel()

		return serve(ctx, portalsim.New(accounts, maxSessions))
	},
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8090", "listen address")
	rootCmd.Flags().StringVar(&accountsDir, "accounts", "", "directory holding a credentials.json to accept")
	rootCmd.Flags().IntVar(&maxSessions, "max-sessions", 1, "concurrent sessions before the limit reply, 0 for unlimited")
	rootCmd.Flags().StringArrayVar(&users, "user", nil, "account as name:password, repeatable")
}

func main() {
	app := zapp.New(zapp.WithName("portalsim"))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	err := rootCmd.Execute()
	_ = app.Close()
	if err != nil {
		os.Exit(1)
	}
}

func loadAccounts() ([]credential.Credential, error) {
	var accounts []credential.Credential

	if accountsDir != "" {
		accounts = store.New(zfilesystem.NewOSFileSystem(accountsDir)).Load()
	}

	for _, u := range users {
		c, err := parseUser(u)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, c)
	}

	return accounts, nil
}

func parseUser(s string) (credential.Credential, error) {
	name, pass, ok := strings.Cut(s, ":")
	c := credential.Credential{Username: name, Password: pass}
	if !ok || !c.Valid() {
		return credential.Credential{}, fmt.Errorf("--user %q: want name:password", s)
	}
	return c, nil
}

func serve(ctx context.Context, sim *portalsim.Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("portalsim listening", "url", "http://"+addr+portalsim.Path, "max_sessions", maxSessions)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("portalsim stopped", "requests", sim.Requests())
	return nil
}
