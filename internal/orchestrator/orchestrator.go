// Package orchestrator runs the redaction engine over an input directory.
//
// A pass visits every PDF in the input directory that the processed-file
// record does not know yet, writes Prosessert_<name> to the output directory
// and records the outcome. Passes are serialized, so the HTTP server, the
// MCP server and the watch loop can share one Orchestrator.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/pdf-price-redactor/internal/pdf"
	pdferrors "github.com/a3tai/pdf-price-redactor/internal/pdf/errors"
	"github.com/a3tai/pdf-price-redactor/internal/redact"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

// OutputPrefix is prepended to the input file name to form the output name
const OutputPrefix = "Prosessert_"

// OutputName returns the output file name for an input file name
func OutputName(name string) string {
	return OutputPrefix + name
}

// Processor redacts one file. *redact.Engine implements it.
type Processor interface {
	Process(ctx context.Context, in, out string) (*redact.Result, error)
}

// Config holds the directories and timings of an Orchestrator
type Config struct {
	InputDir     string
	OutputDir    string
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

const (
	DefaultPollInterval = time.Second
	DefaultErrorBackoff = 5 * time.Second
)

// FileResult is the outcome for one input file
type FileResult struct {
	Name       string        `json:"name"`
	Output     string        `json:"output,omitempty"`
	Status     store.Status  `json:"status"`
	Error      string        `json:"error,omitempty"`
	Pages      int           `json:"pages"`
	Skipped    int           `json:"pages_skipped"`
	Redactions int           `json:"redactions"`
	Duration   time.Duration `json:"duration"`
}

// Report summarizes one directory pass
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Files     []FileResult  `json:"files"`
	// AlreadyHandled lists input files skipped because they were recorded
	// by an earlier pass
	AlreadyHandled []string `json:"already_handled,omitempty"`
}

// Processed counts the files redacted in this pass
func (r *Report) Processed() int {
	return r.count(store.StatusProcessed)
}

// Failed counts the files that could not be redacted in this pass
func (r *Report) Failed() int {
	return r.count(store.StatusFailed)
}

func (r *Report) count(s store.Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Orchestrator owns the processed-file record of one redactor instance
type Orchestrator struct {
	cfg       Config
	engine    Processor
	store     store.Store
	validator *pdf.Validator
	log       *slog.Logger

	mu sync.Mutex
}

// New creates an Orchestrator. validator may be nil to skip pre-checks and
// a nil logger discards output.
func New(cfg Config, engine Processor, st store.Store, validator *pdf.Validator, log *slog.Logger) (*Orchestrator, error) {
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return nil, fmt.Errorf("input and output directories are required")
	}
	if engine == nil || st == nil {
		return nil, fmt.Errorf("orchestrator needs an engine and a store")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{cfg: cfg, engine: engine, store: st, validator: validator, log: log}, nil
}

// InputDir returns the directory scanned for PDFs
func (o *Orchestrator) InputDir() string { return o.cfg.InputDir }

// OutputDir returns the directory redacted files are written to
func (o *Orchestrator) OutputDir() string { return o.cfg.OutputDir }

// ProcessFiles runs one pass over the input directory. A failing file is
// logged and recorded and the pass moves on; the returned error covers only
// problems with the pass itself, such as an unreadable input directory or a
// cancelled context.
func (o *Orchestrator) ProcessFiles(ctx context.Context) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := &Report{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	names, err := o.inputFiles()
	if err != nil {
		return report, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		done, err := o.store.Has(ctx, name)
		if err != nil {
			return report, fmt.Errorf("failed to read processed record: %w", err)
		}
		if done {
			report.AlreadyHandled = append(report.AlreadyHandled, name)
			continue
		}

		res, err := o.processFile(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			o.log.Error("file failed", "file", name, "error", err)
		}
		if res != nil {
			report.Files = append(report.Files, *res)
		}
	}

	if len(report.Files) > 0 {
		o.log.Info("pass complete",
			"processed", report.Processed(),
			"failed", report.Failed(),
			"already_handled", len(report.AlreadyHandled),
		)
	}
	return report, nil
}

// ProcessFile redacts the named file from the input directory whether or
// not it was handled before, and returns the failure to the caller
func (o *Orchestrator) ProcessFile(ctx context.Context, name string) (*FileResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processFile(ctx, name)
}

// processFile expects o.mu to be held. The returned FileResult is nil only
// when nothing was recorded.
func (o *Orchestrator) processFile(ctx context.Context, name string) (*FileResult, error) {
	if name != filepath.Base(name) || !pdf.IsPDFName(name) {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "not a PDF file name").WithFile(name)
	}

	in := filepath.Join(o.cfg.InputDir, name)
	out := filepath.Join(o.cfg.OutputDir, OutputName(name))
	res := &FileResult{Name: name}
	start := time.Now()

	var result *redact.Result
	err := o.checkInput(in)
	if err == nil {
		result, err = o.engine.Process(ctx, in, out)
	}
	res.Duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		res.Status = store.StatusFailed
		res.Error = err.Error()
		if recErr := o.record(ctx, res); recErr != nil {
			return res, errors.Join(err, recErr)
		}
		return res, err
	}

	res.Status = store.StatusProcessed
	res.Output = OutputName(name)
	res.Pages = len(result.Pages)
	res.Skipped = result.PagesSkipped()
	res.Redactions = result.Redactions
	if err := o.record(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

func (o *Orchestrator) checkInput(path string) error {
	if o.validator == nil {
		return nil
	}
	return o.validator.Validate(path)
}

func (o *Orchestrator) record(ctx context.Context, res *FileResult) error {
	err := o.store.Put(ctx, store.Record{
		Name:       res.Name,
		Output:     res.Output,
		Status:     res.Status,
		Error:      res.Error,
		Pages:      res.Pages,
		Redactions: res.Redactions,
	})
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", res.Name, err)
	}
	return nil
}

// inputFiles lists candidate PDFs in the input directory sorted by name.
// Hidden files and earlier outputs are ignored.
func (o *Orchestrator) inputFiles() ([]string, error) {
	entries, err := os.ReadDir(o.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !pdf.IsPDFName(name) {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, OutputPrefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// OutputFiles lists the redacted files in the output directory sorted by
// name
func (o *Orchestrator) OutputFiles() ([]string, error) {
	entries, err := os.ReadDir(o.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), OutputPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Records returns the processed-file record
func (o *Orchestrator) Records(ctx context.Context) ([]store.Record, error) {
	return o.store.List(ctx)
}

// Forget drops the record of an input file and its redacted output, so the
// next pass redacts the file again. Call it when a file is replaced.
func (o *Orchestrator) Forget(ctx context.Context, name string) error {
	if name != filepath.Base(name) || !pdf.IsPDFName(name) {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "not a PDF file name").WithFile(name)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to forget %s: %w", name, err)
	}
	out := filepath.Join(o.cfg.OutputDir, OutputName(name))
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return pdferrors.WrapError(pdferrors.ErrorTypeCleanupFailure, err).WithFile(OutputName(name))
	}
	o.log.Debug("forgot file", "file", name)
	return nil
}

// Cleanup deletes every PDF from the input directory and every redacted
// file from the output directory, then resets the record. Failures are
// logged per file and returned together.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	remove := func(dir string, match func(string) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			o.log.Error("cleanup failed", "dir", dir, "error", err)
			errs = append(errs, pdferrors.WrapError(pdferrors.ErrorTypeCleanupFailure, err).WithFile(dir))
			return
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || !match(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				o.log.Error("cleanup failed", "file", e.Name(), "error", err)
				errs = append(errs, pdferrors.WrapError(pdferrors.ErrorTypeCleanupFailure, err).WithFile(e.Name()))
				continue
			}
			o.log.Debug("removed", "file", e.Name())
		}
	}

	remove(o.cfg.InputDir, pdf.IsPDFName)
	remove(o.cfg.OutputDir, func(name string) bool {
		return strings.HasPrefix(name, OutputPrefix)
	})

	if err := o.store.Reset(ctx); err != nil {
		o.log.Error("cleanup failed", "error", err)
		errs = append(errs, pdferrors.WrapError(pdferrors.ErrorTypeCleanupFailure, err))
	}

	if len(errs) == 0 {
		o.log.Info("workspace cleaned")
	}
	return errors.Join(errs...)
}

// Watch runs ProcessFiles every PollInterval until ctx is cancelled. After
// a failed pass it waits ErrorBackoff instead.
func (o *Orchestrator) Watch(ctx context.Context) error {
	o.log.Info("watching input directory",
		"dir", o.cfg.InputDir,
		"interval", o.cfg.PollInterval.String(),
	)

	for {
		wait := o.cfg.PollInterval
		if _, err := o.ProcessFiles(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			o.log.Error("pass failed", "error", err, "backoff", o.cfg.ErrorBackoff.String())
			wait = o.cfg.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
