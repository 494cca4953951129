package main

import (
	"context"
	"fmt"
	"time"

	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/pkg/detector"
	"github.com/actionsum/ctvtcntr/pkg/window"

	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print raw window observations and their identities without recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Display server: %s\n", detector.DetectDisplayServer())

			provider, err := detector.New(a.cfg.Tracker.Provider)
			if err != nil {
				return err
			}
			defer provider.Close()
			fmt.Fprintf(out, "Provider: %s\n", provider.Name())
			if sp, ok := provider.(interface{ Socket() string }); ok {
				fmt.Fprintf(out, "Socket: %s\n", sp.Socket())
			}

			for i := 0; i < count; i++ {
				if i > 0 {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(interval):
					}
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
				obs, err := window.Require(ctx, provider)
				cancel()
				if err != nil {
					fmt.Fprintf(out, "-- %v\n", err)
					continue
				}
				id := normalize.Normalize(obs.RawTitle(a.cfg.Tracker.UseInitialTitle), obs.RawClass())
				fmt.Fprintf(out, "%s\n  title=%q class=%q initial_title=%q pid=%d\n",
					id, obs.Title, obs.RawClass(), obs.InitialTitle, obs.PID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of observations")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "time between observations")
	return cmd
}
