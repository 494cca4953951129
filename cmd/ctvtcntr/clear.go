package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/actionsum/ctvtcntr/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !yes {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("refusing to clear without --yes when stdin is not a terminal")
				}
				fmt.Fprint(out, "This will delete all tracking data. Are you sure? (yes/no): ")
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "yes" && response != "y" {
					fmt.Fprintln(out, "Operation cancelled")
					return nil
				}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(storage.Clearer)
			if !ok {
				return fmt.Errorf("%s storage cannot be cleared", a.cfg.Storage.Backend)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear storage: %w", err)
			}

			fmt.Fprintln(out, "Storage cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
