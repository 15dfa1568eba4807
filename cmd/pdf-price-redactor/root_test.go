package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/pdf-price-redactor/internal/pdf/pdftest"
)

func invoice() []pdftest.Text {
	return []pdftest.Text{
		pdftest.At(50, 100, "Vare"),
		pdftest.At(300, 100, "Pris"),
		pdftest.At(50, 120, "Sokker"),
		pdftest.At(305, 120, "450"),
	}
}

// run executes the root command with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type workspace struct {
	root, in, out string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{root: root, in: filepath.Join(root, "in"), out: filepath.Join(root, "out")}
	for _, dir := range []string{ws.in, ws.out} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return ws
}

func (ws workspace) args(cmd string, extra ...string) []string {
	return append([]string{cmd, "--input", ws.in, "--output", ws.out}, extra...)
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "pdf-price-redactor" {
		t.Errorf("expected use 'pdf-price-redactor', got %q", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("expected non-empty version")
	}

	for _, name := range []string{"input", "output", "strategy", "apply", "profile", "store", "port", "column-tolerance"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q", name)
		}
	}

	want := map[string]bool{"process": false, "watch": false, "serve": false, "mcp": false, "redact": false, "cleanup": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "pdf-price-redactor version") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("missing commit line: %s", out)
	}
}

func TestProcessCmd(t *testing.T) {
	ws := newWorkspace(t)
	pdftest.Write(t, ws.in, "a.pdf", invoice())
	pdftest.Write(t, ws.in, "b.pdf", invoice())
	reportPath := filepath.Join(ws.root, "report.md")
	db := filepath.Join(ws.root, "records.db")

	out, err := run(t, ws.args("process", "--store", "sqlite", "--db", db, "--report", reportPath)...)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !strings.Contains(out, "2 processed, 0 failed") {
		t.Errorf("unexpected summary: %s", out)
	}
	for _, name := range []string{"Prosessert_a.pdf", "Prosessert_b.pdf"} {
		if _, err := os.Stat(filepath.Join(ws.out, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(report), "# Price Redaction Report") {
		t.Errorf("unexpected report: %s", report)
	}

	// The sqlite record survives between runs
	out, err = run(t, ws.args("process", "--store", "sqlite", "--db", db)...)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if !strings.Contains(out, "No new PDF files (2 already handled)") {
		t.Errorf("second run should find nothing new, got: %s", out)
	}
}

func TestProcessCmd_Failure(t *testing.T) {
	ws := newWorkspace(t)
	pdftest.Write(t, ws.in, "good.pdf", invoice())
	if err := os.WriteFile(filepath.Join(ws.in, "broken.pdf"), []byte("junk"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, ws.args("process")...)
	if err == nil || !strings.Contains(err.Error(), "1 file(s) failed") {
		t.Fatalf("expected failure count error, got %v", err)
	}
	if !strings.Contains(out, "FAIL  broken.pdf") || !strings.Contains(out, "OK    good.pdf") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(ws.out, "Prosessert_good.pdf")); err != nil {
		t.Errorf("good file should still be processed: %v", err)
	}
}

func TestProcessCmd_InvalidConfig(t *testing.T) {
	ws := newWorkspace(t)
	if _, err := run(t, ws.args("process", "--strategy", "magic")...); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestRedactCmd(t *testing.T) {
	ws := newWorkspace(t)
	in := pdftest.Write(t, ws.root, "faktura.pdf", invoice())

	out, err := run(t, ws.args("redact", in)...)
	if err != nil {
		t.Fatalf("redact failed: %v", err)
	}
	if !strings.Contains(out, "1 regions, 3 glyphs removed") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(ws.root, "Prosessert_faktura.pdf")); err != nil {
		t.Errorf("expected output next to input: %v", err)
	}

	if _, err := run(t, ws.args("redact", in, in)...); err == nil {
		t.Error("expected error when output equals input")
	}
	if _, err := run(t, ws.args("redact")...); err == nil {
		t.Error("expected error without arguments")
	}
}

func TestCleanupCmd(t *testing.T) {
	ws := newWorkspace(t)
	pdftest.Write(t, ws.in, "a.pdf", invoice())
	if _, err := run(t, ws.args("process")...); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	out, err := run(t, ws.args("cleanup")...)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if !strings.Contains(out, "Workspace cleaned") {
		t.Errorf("unexpected output: %s", out)
	}
	for _, dir := range []string{ws.in, ws.out} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("%s should be empty, has %d entries", dir, len(entries))
		}
	}
}
