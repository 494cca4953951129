package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/internal/storage"
	"github.com/actionsum/ctvtcntr/internal/tablefile"

	"github.com/spf13/cobra"
)

func newUsageCmd(a *app) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "usage <identity>",
		Short: "Show the time recorded for one identity on one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := normalize.Identity(strings.TrimSpace(args[0]))
			if id.IsEmpty() {
				return fmt.Errorf("identity must not be empty")
			}

			date := ledger.DateOf(time.Now())
			if day != "" {
				d, err := ledger.ParseDate(day)
				if err != nil {
					return err
				}
				date = d
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			d, found, err := storage.Usage(cmd.Context(), store, date, id)
			if err != nil {
				return fmt.Errorf("failed to look up usage: %w", err)
			}

			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No usage recorded for %s on %s\n", id, date)
				return nil
			}
			fmt.Fprintf(out, "%s on %s: %s\n", id, date, tablefile.FormatDuration(d))
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day to look up as YYYY-MM-DD (default today)")
	return cmd
}
