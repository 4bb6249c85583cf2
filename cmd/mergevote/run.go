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

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/mergevote/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/mergevote/internal/adapter/driving/web"
)

func (c *cli) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the repository and serve the dashboard until stopped",
		Long: `Run a decision cycle immediately and then once per poll interval, serving
the JSON API and the HTML dashboard on the listen address. When exit_on_change
is set the process exits with status 3 after a cycle merges or closes a pull
request, so a supervisor can restart it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context())
		},
	}
}

func (c *cli) run(parent context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"repository", cfg.Repository,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"github_username", cfg.GitHub.Username,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := wireServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	apiHandler := httphandler.NewHandler(svc.poll, svc.records, cfg.Repository, slog.Default())
	webHandler, err := webhandler.NewHandler(svc.poll, svc.records, cfg.Repository, slog.Default())
	if err != nil {
		return err
	}
	handler := httphandler.NewServeMux(apiHandler, slog.Default(), func(mux *http.ServeMux) {
		webhandler.RegisterRoutes(mux, webHandler)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Manual cycles block until every request is decided.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("mergevote started",
		"repository", cfg.Repository,
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
		"exit_on_change", cfg.ExitOnChange,
	)

	pollErr := svc.poll.Start(ctx)
	slog.Info("shutting down", "reason", shutdownReason(pollErr))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return pollErr
}

func shutdownReason(err error) string {
	if err == nil {
		return "signal"
	}
	return err.Error()
}
