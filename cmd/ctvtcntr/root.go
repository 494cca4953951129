package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/actionsum/ctvtcntr/internal/config"
	"github.com/actionsum/ctvtcntr/internal/datadir"
	"github.com/actionsum/ctvtcntr/internal/storage"

	"github.com/spf13/cobra"
)

// app carries the global flags and the configuration they resolve to.
type app struct {
	configPath string
	dataDir    string
	backend    string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ctvtcntr",
		Short:         "Track how long focus stays on each application window",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "rules" {
				return nil
			}
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ctvtcntr/config.yaml)")
	flags.StringVar(&a.dataDir, "data-dir", "", "data directory (default $XDG_DATA_HOME/ctvtcntr)")
	flags.StringVar(&a.backend, "backend", "", "storage backend: sqlite or csv")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(a),
		newStartCmd(a),
		newServeCmd(a),
		newStopCmd(a),
		newStatusCmd(a),
		newRecordsCmd(a),
		newUsageCmd(a),
		newReportCmd(a),
		newExportCmd(a),
		newClearCmd(a),
		newErrorsCmd(a),
		newRulesCmd(),
		newProbeCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration, applies flag overrides and resolves the data
// directory.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Storage.DataDir = a.dataDir
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir, err := datadir.Resolve(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	cfg.ResolvePaths(dir)
	a.cfg = cfg
	return nil
}

func (a *app) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.cfg.LogLevel()}))
}

func (a *app) openStore() (storage.Adapter, error) {
	store, err := storage.Open(a.cfg.Storage.Backend, a.cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage at %s: %w", a.cfg.Storage.Backend, a.cfg.StoragePath(), err)
	}
	return store, nil
}
