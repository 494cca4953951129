package main

import (
	"fmt"
	"os"

	"github.com/actionsum/ctvtcntr/internal/daemon"

	"github.com/spf13/cobra"
)

func newStartCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start tracking in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startDaemon(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.web, "web", false, "also serve the local web API")
	cmd.Flags().IntVar(&opts.port, "port", 0, "web API port (default from config)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	opts := runOptions{web: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start background tracking with the local web API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startDaemon(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "web API port (default from config)")
	return cmd
}

// startDaemon re-executes the binary detached. In the child it runs the
// tracker with the PID file held.
func (a *app) startDaemon(cmd *cobra.Command, opts runOptions) error {
	dm := daemon.New(a.cfg.Daemon.PIDFile)

	if daemon.IsChild() {
		opts.daemon = dm
		return a.track(cmd.Context(), cmd.ErrOrStderr(), opts)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	pid, err := dm.Start(exe, os.Args[1:], a.cfg.Daemon.LogFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon started (PID: %d)\n", pid)
	if opts.web {
		port := a.cfg.Web.Port
		if opts.port > 0 {
			port = opts.port
		}
		fmt.Fprintf(out, "Web API available at: http://%s:%d\n", a.cfg.Web.Host, port)
	}
	fmt.Fprintf(out, "Logs: %s\n", a.cfg.Daemon.LogFile)
	return nil
}
