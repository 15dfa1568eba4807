package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/report"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

// NewProcessCmd creates the process command
func NewProcessCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Redact every new PDF in the input directory once",
		Long: `Process runs a single pass over the input directory. Each PDF that has
not been handled before is redacted into the output directory as
Prosessert_<name>.pdf. A file that fails is reported and skipped; the
pass carries on with the rest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr(), logText)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.orch.ProcessFiles(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)

			if reportPath != "" {
				if err := writeReport(cmd.OutOrStdout(), reportPath, rep); err != nil {
					return err
				}
			}
			if n := rep.Failed(); n > 0 {
				return fmt.Errorf("%d file(s) failed", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Write a Markdown report to this file ('-' for stdout)")
	return cmd
}

func printReport(w io.Writer, rep *orchestrator.Report) {
	if len(rep.Files) == 0 {
		fmt.Fprintf(w, "No new PDF files (%d already handled)\n", len(rep.AlreadyHandled))
		return
	}
	for _, f := range rep.Files {
		if f.Status == store.StatusFailed {
			fmt.Fprintf(w, "FAIL  %s: %s\n", f.Name, f.Error)
			continue
		}
		fmt.Fprintf(w, "OK    %s -> %s (%d pages, %d regions)\n", f.Name, f.Output, f.Pages, f.Redactions)
	}
	fmt.Fprintf(w, "%d processed, %d failed, %d already handled\n",
		rep.Processed(), rep.Failed(), len(rep.AlreadyHandled))
}

func writeReport(stdout io.Writer, path string, rep *orchestrator.Report) error {
	if path == "-" {
		_, err := report.NewMarkdownWriter(stdout).Write(rep)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if _, err := report.NewMarkdownWriter(f).Write(rep); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
