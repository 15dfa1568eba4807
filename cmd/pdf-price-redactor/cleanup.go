package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the cleanup command
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete input and redacted PDFs and reset the processed record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr(), logText)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.orch.Cleanup(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Workspace cleaned")
			return nil
		},
	}
}
