package main

import (
	"encoding/json"
	"fmt"

	"github.com/actionsum/ctvtcntr/internal/reporter"

	"github.com/spf13/cobra"
)

func newRecordsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print every stored usage record",
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

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					Date     string `json:"date"`
					Identity string `json:"identity"`
					Seconds  int64  `json:"seconds"`
				}
				rows := make([]row, 0, len(records))
				for _, r := range records {
					rows = append(rows, row{Date: r.Date.String(), Identity: r.Identity.String(), Seconds: r.Seconds()})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			fmt.Fprint(out, reporter.FormatRecords(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
