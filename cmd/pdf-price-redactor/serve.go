package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/pdf-price-redactor/internal/api"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var (
		watch       bool
		keepOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and download web interface",
		Long: `Serve starts the HTTP interface: upload PDFs, trigger processing and
download the redacted files one by one or as a zip archive.

The workspace is cleaned when the server starts and again when it stops,
so uploaded documents do not outlive the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.OutOrStdout(), logJSON)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !keepOnStart {
				if err := a.orch.Cleanup(ctx); err != nil {
					a.log.Error("startup cleanup failed", "error", err)
				}
			}
			defer func() {
				if err := a.orch.Cleanup(context.Background()); err != nil {
					a.log.Error("shutdown cleanup failed", "error", err)
				}
			}()

			srv, err := api.NewServer(a.orch, a.validator, a.log)
			if err != nil {
				return err
			}
			httpServer := &http.Server{
				Addr:         a.cfg.Address(),
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info("starting server", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})
			if watch {
				g.Go(func() error {
					return a.orch.Watch(gctx)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Also redact new files in the input directory as they arrive")
	cmd.Flags().BoolVar(&keepOnStart, "keep", false, "Do not clean the workspace on startup")
	return cmd
}
