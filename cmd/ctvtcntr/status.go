package main

import (
	"context"
	"fmt"
	"time"

	"github.com/actionsum/ctvtcntr/internal/daemon"
	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/pkg/detector"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and the currently focused window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dm := daemon.New(a.cfg.Daemon.PIDFile)

			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if running {
				fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
			} else {
				fmt.Fprintln(out, "Status: Not running")
			}
			fmt.Fprintf(out, "Poll Interval: %v\n", a.cfg.Tracker.PollInterval)
			fmt.Fprintf(out, "Storage: %s (%s)\n", a.cfg.StoragePath(), a.cfg.Storage.Backend)

			provider, err := detector.New(a.cfg.Tracker.Provider)
			if err != nil {
				fmt.Fprintf(out, "\nCould not detect current window: %v\n", err)
				return nil
			}
			defer provider.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			obs, err := provider.ActiveWindow(ctx)
			switch {
			case err != nil:
				fmt.Fprintf(out, "\nCould not read current window: %v\n", err)
			case obs == nil:
				fmt.Fprintln(out, "\nNo window is focused")
			default:
				id := normalize.Normalize(obs.RawTitle(a.cfg.Tracker.UseInitialTitle), obs.RawClass())
				fmt.Fprintf(out, "\nCurrent Window:\n")
				fmt.Fprintf(out, "  Identity: %s\n", id)
				fmt.Fprintf(out, "  Class: %s\n", obs.RawClass())
				fmt.Fprintf(out, "  Title: %s\n", obs.Title)
				fmt.Fprintf(out, "  Provider: %s\n", provider.Name())
			}
			return nil
		},
	}
}
