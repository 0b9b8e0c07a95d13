package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/farwmarth/liveedit/internal/api"
	"github.com/farwmarth/liveedit/internal/journal"
	"github.com/farwmarth/liveedit/internal/ratelimit"
	"github.com/farwmarth/liveedit/internal/watcher"
	"github.com/farwmarth/liveedit/internal/web"
)

func addServeFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().IntVar(&a.port, "port", 3000, "listen port (LIVEEDIT_PORT)")
	cmd.Flags().StringVar(&a.host, "host", "0.0.0.0", "listen host (LIVEEDIT_HOST)")
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web panel and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	addServeFlags(cmd, a)
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	cfg, logger := a.cfg, a.logger

	store, err := a.openStore()
	if err != nil {
		return err
	}
	proxy := a.openProxy()

	j, err := journal.Open(cmd.Context(), cfg.JournalPath, logger)
	if err != nil {
		logger.Error("failed to open change journal", "path", cfg.JournalPath, "error", err)
		return err
	}
	defer j.Close()

	var w *watcher.Watcher
	if cfg.Watch {
		w = watcher.New(store.Path(), logger)
		if err := w.Start(); err != nil {
			// The panel works without live reload.
			logger.Warn("file watcher failed to start", "path", store.Path(), "error", err)
			w = nil
		} else {
			defer w.Stop()
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.WriteLimit > 0 {
		limiter = ratelimit.New(cfg.WriteLimit, time.Minute, cfg.WriteLimitExemptions(), logger)
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		defer stopSweep()
		go limiter.Run(sweepCtx)
	}

	srv := api.New(api.Deps{
		Store:     store,
		Proxy:     proxy,
		Journal:   j,
		Watcher:   w,
		Limiter:   limiter,
		UI:        web.FS(),
		Logger:    logger,
		Version:   version,
		AccessLog: cfg.AccessLog,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// SSE streams stay open, so there is no write timeout.
		IdleTimeout: 60 * time.Second,
	}

	logger.Info("liveedit starting",
		"addr", cfg.ListenAddr(),
		"entries", store.Path(),
		"recorder", proxy.URL(),
		"journal", j.Enabled(),
		"watch", w != nil,
		"write_limit", cfg.WriteLimit,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "\n  liveedit v%s\n  → http://%s\n\n", version, cfg.ListenAddr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server failed", "error", err, "why", "ListenAndServe failed, port may be in use or permission denied")
			return err
		}
		return nil
	case <-stop:
	}

	logger.Info("shutting down gracefully...")
	if w != nil {
		// Close SSE streams first or Shutdown waits on them.
		w.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err, "why", "graceful shutdown timed out, some connections may not have drained")
	}
	logger.Info("goodbye")
	return nil
}
