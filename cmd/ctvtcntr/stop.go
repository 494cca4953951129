package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/actionsum/ctvtcntr/internal/daemon"

	"github.com/spf13/cobra"
)

func newStopCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background tracker and wait for its final flush",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dm := daemon.New(a.cfg.Daemon.PIDFile)
			out := cmd.OutOrStdout()

			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if !running {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}

			fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(timeout); err != nil && !errors.Is(err, daemon.ErrNotRunning) {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the daemon to exit")
	return cmd
}
