package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/tui"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/snapshot"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the configured event log over HTTP together with a headless runtime.
The runtime materializes the tree for /state and feeds /state/stream and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		if cmd.Flags().Changed("listen") {
			settings.Listen = listen
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		captureOnExit, _ := cmd.Flags().GetBool("snapshot-on-exit")

		if !quiet {
			tui.PrintBanner(cmd.ErrOrStderr(), canopy.Version)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		metrics := observability.NewMetrics()
		streams := canopyhttp.NewStreamManager(logger)
		hooks := observability.Combine(
			metrics.Hooks(),
			observability.LoggingHooks(logger),
			domain.LifecycleHooks{
				OnEventApplied: func(_ context.Context, ev domain.Event) { streams.BroadcastEvent(ev) },
			},
		)

		editor, backend, err := openEditor(sigCtx, hooks)
		if err != nil {
			return err
		}
		defer backend.Close()
		defer editor.Close()

		srv := canopyhttp.NewServer(backend.Log, backend.IDs,
			canopyhttp.WithStateView(editor.Runtime()),
			canopyhttp.WithRegistry(editor.Registry()),
			canopyhttp.WithSnapshots(backend.Snapshots),
			canopyhttp.WithMetrics(metrics.Handler()),
			canopyhttp.WithLogger(logger),
		)
		srv.Streams = streams

		httpServer := &http.Server{
			Addr:              settings.Listen,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting canopy server", "address", httpServer.Addr, "backend", settings.Backend, "elements", editor.Runtime().Len())
			serverErrors <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			_ = httpServer.Close()
		}

		if captureOnExit {
			mgr := snapshot.NewManager(backend.Snapshots, snapshot.WithLocker(backend.Locker), snapshot.WithLogger(logger))
			if err := mgr.Capture(ctx, settings.Project, editor.Runtime()); err != nil {
				return fmt.Errorf("failed to capture snapshot: %w", err)
			}
			logger.Info("Snapshot captured", "project", settings.Project)
		}
		logger.Info("Canopy server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	serveCmd.Flags().Bool("snapshot-on-exit", false, "Capture a snapshot of the tree on shutdown")
}
