package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-price-redactor/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Remove prices from Norwegian order and invoice PDFs",
		Long: `pdf-price-redactor finds prices in PDF documents and blanks them out.

It redacts numbers under "Pris" and "Total" column headers, whole
"Kampanje" sections and MVA rows, and writes each result as
Prosessert_<name>.pdf. By default the text under each region is removed
from the page; --apply=fill only paints over it.

Settings come from flags, PDF_REDACTOR_* environment variables and an
optional --config YAML file, in that order of precedence.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.DefineFlags(cmd.PersistentFlags(), config.DefaultConfig())

	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewRedactCmd())
	cmd.AddCommand(NewCleanupCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
