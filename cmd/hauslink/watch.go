package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/hauslink/internal/api"
	"github.com/ashureev/hauslink/internal/client"
	"github.com/ashureev/hauslink/internal/engine"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the dashboard stream and serve the local control surface",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().StringSlice("allow-origin", nil, "browser origins allowed to call the control surface (\"*\" allows any)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore(creds)

	apiClient := client.New(cfg.ServerURL, nil)
	slog.Info("Starting sync client", "server", apiClient.BaseURL(), "local", cfg.IsLocal(), "event_topic", cfg.EventTopic)

	eng, err := engine.New(engine.Deps{
		Config:  cfg,
		Store:   creds,
		Client:  apiClient,
		Logger:  slog.Default(),
		Console: true,
	})
	if err != nil {
		return err
	}

	var srv *http.Server
	if cfg.ListenAddr != "" {
		origins, _ := cmd.Flags().GetStringSlice("allow-origin")
		srv = &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      api.NewRouter(api.NewHandler(eng, slog.Default()), origins),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			slog.Info("Control surface listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Control surface failed", "error", err)
				stop()
			}
		}()
	}

	if err := eng.Run(ctx); err != nil {
		return err
	}

	slog.Info("Shutting down gracefully...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Control surface forced to shutdown", "error", err)
		}
	}

	slog.Info("Stopped")
	return nil
}
