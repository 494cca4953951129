package main

import (
	"fmt"

	"github.com/actionsum/ctvtcntr/internal/tablefile"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		outPath string
		legacy  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record as a CSV table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.LoadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load records: %w", err)
			}

			if outPath == "" || outPath == "-" {
				return tablefile.Write(cmd.OutOrStdout(), records, legacy)
			}
			if err := tablefile.WriteFile(outPath, records, legacy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", len(records), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "write durations as HHh:MMm:SSs")
	return cmd
}
