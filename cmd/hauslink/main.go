// hauslink - real-time sync client for the session dashboard
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ashureev/hauslink/internal/config"
	"github.com/ashureev/hauslink/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "hauslink",
		Short:        "Stay connected to a session dashboard and act on approvals",
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("ephemeral", false, "keep the credential in memory instead of the local database")

	root.AddCommand(
		newWatchCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newDecisionCommand("approve", "Allow a pending approval"),
		newDecisionCommand("deny", "Deny a pending approval"),
		newChoicesCommand(),
		newVersionCommand(),
	)
	return root
}

// setup loads .env and the environment and installs the JSON logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// openStore opens the credential store selected by --ephemeral.
func openStore(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (store.CredentialStore, error) {
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		return store.NewMemory(), nil
	}

	s, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("credential store health check: %w", err)
	}
	return s, nil
}

func closeStore(s store.CredentialStore) {
	if err := s.Close(); err != nil {
		slog.Error("Failed to close credential store", "error", err)
	}
}
