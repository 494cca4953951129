package main

import (
	"fmt"

	"github.com/actionsum/ctvtcntr/internal/reporter"

	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "report [day|week|month|all]",
		Short:     "Summarize focus time for a period",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"day", "week", "month", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			periodType := "day"
			if len(args) > 0 {
				periodType = args[0]
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := reporter.New(store).GenerateReport(cmd.Context(), periodType)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				s, err := reporter.FormatReportJSON(report)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
				return nil
			}
			fmt.Fprint(out, reporter.FormatReportText(report))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
