package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actionsum/ctvtcntr/internal/daemon"
	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/session"
	"github.com/actionsum/ctvtcntr/internal/storage"
	"github.com/actionsum/ctvtcntr/internal/tracker"
	"github.com/actionsum/ctvtcntr/internal/web"
	"github.com/actionsum/ctvtcntr/pkg/detector"

	"github.com/spf13/cobra"
)

type runOptions struct {
	web    bool
	port   int
	dryRun bool

	// daemon holds the PID file for the lifetime of the run when set.
	daemon *daemon.Daemon
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track focus in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track(cmd.Context(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.web, "web", false, "also serve the local web API")
	cmd.Flags().IntVar(&opts.port, "port", 0, "web API port (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "keep usage in memory only")
	return cmd
}

// track runs the tracker until a signal arrives, ctx is done or storage
// fails permanently.
func (a *app) track(parent context.Context, logOut io.Writer, opts runOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	logger := a.logger(logOut)
	logger.Info("starting ctvtcntr", "version", version)
	logger.Debug(cfg.String())

	if opts.daemon != nil {
		if err := opts.daemon.WritePID(); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer opts.daemon.RemovePID()
	}

	target, err := session.TargetFor(cfg.Tracker.Provider, os.Getenv)
	if err != nil {
		if cfg.Session.Required {
			return err
		}
		logger.Warn("no session detected, starting degraded", "error", err)
	} else {
		gate := &session.Gate{
			Target:   target,
			Timeout:  cfg.Session.Timeout,
			Interval: cfg.Session.CheckInterval,
			Logger:   logger,
		}
		if err := gate.Wait(ctx); err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				return nil
			case errors.Is(err, session.ErrTimeout) && !cfg.Session.Required:
				logger.Warn("session not ready, starting degraded", "error", err)
			default:
				return err
			}
		}
	}

	kind := cfg.Tracker.Provider
	if target.Kind != "" {
		kind = target.Kind
	}
	provider, err := detector.New(kind)
	if err != nil {
		return fmt.Errorf("failed to initialize window provider: %w", err)
	}
	defer provider.Close()
	logger.Info("window provider initialized", "provider", provider.Name())

	var store storage.Adapter
	if opts.dryRun {
		store = storage.NewMemory()
		logger.Info("dry run, usage is kept in memory")
	} else {
		store, err = a.openStore()
		if err != nil {
			return err
		}
		logger.Info("storage opened", "backend", cfg.Storage.Backend, "path", cfg.StoragePath())
	}
	defer store.Close()

	t := tracker.New(provider, store, ledger.New(), logger,
		tracker.WithInterval(cfg.Tracker.PollInterval),
		tracker.WithWriteTimeout(cfg.Storage.WriteTimeout),
		tracker.WithSplitAtMidnight(cfg.Tracker.SplitAtMidnight),
		tracker.WithInitialTitle(cfg.Tracker.UseInitialTitle),
	)
	if err := t.Load(ctx); err != nil {
		return err
	}

	if opts.web {
		if opts.port > 0 {
			if err := cfg.SetWebPort(opts.port); err != nil {
				return err
			}
		}
		server := web.NewServer(cfg, store, t, logger, 0)
		logger.Info("web API available", "addr", server.GetAddress())
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("web server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("web server shutdown failed", "error", err)
			}
		}()
	}

	if err := t.Run(ctx); err != nil {
		return err
	}
	logger.Info("tracker stopped")
	return nil
}
