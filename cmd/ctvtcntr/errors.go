package main

import (
	"fmt"

	"github.com/actionsum/ctvtcntr/internal/storage"

	"github.com/spf13/cobra"
)

func newErrorsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show recent storage write failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			lister, ok := store.(storage.ErrorLister)
			if !ok {
				fmt.Fprintf(out, "The %s backend keeps no error log\n", a.cfg.Storage.Backend)
				return nil
			}

			entries, err := lister.RecentErrors(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No errors recorded")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.RunID, e.ErrorMsg)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}
