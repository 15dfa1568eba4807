// Package report renders orchestrator passes for humans.
package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

// MarkdownWriter writes a pass report as GitHub-flavored Markdown
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs the report and returns the number of bytes written
func (w *MarkdownWriter) Write(report *orchestrator.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeFiles(md, report)
	w.writeAlreadyHandled(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *orchestrator.Report) {
	md.H1("Price Redaction Report")
	md.PlainText("")

	redactions := 0
	for _, f := range report.Files {
		redactions += f.Redactions
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Processed", strconv.Itoa(report.Processed())},
			{"Failed", strconv.Itoa(report.Failed())},
			{"Already handled", strconv.Itoa(len(report.AlreadyHandled))},
			{"Regions redacted", strconv.Itoa(redactions)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *orchestrator.Report) {
	switch {
	case report.Failed() > 0:
		md.Warningf("%d file(s) could not be redacted and were left out of the output directory.", report.Failed())
	case len(report.Files) == 0:
		md.Note("No new PDF files were found in the input directory.")
	default:
		md.Tip("All files were redacted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *orchestrator.Report) {
	if len(report.Files) == 0 {
		return
	}

	md.H2("Files")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Files))
	for _, f := range report.Files {
		status := "✅ " + string(f.Status)
		output := "`" + f.Output + "`"
		if f.Status == store.StatusFailed {
			status = "❌ " + string(f.Status)
			output = f.Error
		}
		rows = append(rows, []string{
			"`" + f.Name + "`",
			status,
			strconv.Itoa(f.Pages),
			strconv.Itoa(f.Skipped),
			strconv.Itoa(f.Redactions),
			output,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Status", "Pages", "Skipped pages", "Regions", "Output"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlreadyHandled(md *markdown.Markdown, report *orchestrator.Report) {
	if len(report.AlreadyHandled) == 0 {
		return
	}
	md.H2("Already handled")
	md.PlainText("")
	md.BulletList(report.AlreadyHandled...)
	md.PlainText("")
}
