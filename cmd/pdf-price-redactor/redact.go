package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
)

// NewRedactCmd creates the redact command
func NewRedactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redact <input.pdf> [output.pdf]",
		Short: "Redact a single PDF",
		Long: `Redact processes one file outside the input directory workflow. The
output defaults to Prosessert_<name>.pdf next to the input. The
processed-file record is not consulted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr(), logText)
			if err != nil {
				return err
			}
			defer a.Close()

			in := args[0]
			out := filepath.Join(filepath.Dir(in), orchestrator.OutputName(filepath.Base(in)))
			if len(args) == 2 {
				out = args[1]
			}
			if filepath.Clean(in) == filepath.Clean(out) {
				return fmt.Errorf("output must differ from the input file")
			}

			if err := a.validator.Validate(in); err != nil {
				return err
			}
			result, err := a.engine.Process(cmd.Context(), in, out)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d pages, %d skipped, %d regions, %d glyphs removed)\n",
				in, out, len(result.Pages), result.PagesSkipped(), result.Redactions, result.GlyphsRemoved)
			return nil
		},
	}
}
