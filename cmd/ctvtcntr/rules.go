package main

import (
	"fmt"

	"github.com/actionsum/ctvtcntr/internal/normalize"

	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules [title] [class]",
		Short: "List the normalization rules, or normalize a title and class",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for i, name := range normalize.New().Rules() {
					fmt.Fprintf(out, "%d. %s\n", i+1, name)
				}
				return nil
			}

			title, class := args[0], ""
			if len(args) > 1 {
				class = args[1]
			}
			fmt.Fprintln(out, normalize.Normalize(title, class))
			return nil
		},
	}
}
