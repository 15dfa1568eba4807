package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-price-redactor/internal/classify"
	"github.com/a3tai/pdf-price-redactor/internal/config"
	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/pdf"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/wrapper"
	"github.com/a3tai/pdf-price-redactor/internal/redact"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

// app holds the wired components shared by the subcommands
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	store     store.Store
	validator *pdf.Validator
	engine    *redact.Engine
	orch      *orchestrator.Orchestrator
}

type logFormat int

const (
	logText logFormat = iota
	logJSON
)

// newApp loads the configuration from the command's flags and wires the
// redaction pipeline. Logs go to w.
func newApp(cmd *cobra.Command, w io.Writer, format logFormat) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if version != "" {
		cfg.Version = version
	}

	log := newLogger(w, format, cfg.SlogLevel())
	if cfg.IsDebug() {
		log.Debug("configuration loaded", "config", cfg.String())
	}

	st, err := store.Open(cfg.Store, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	classifier, err := classify.New(cfg.Strategy, cfg.Margins)
	if err != nil {
		st.Close()
		return nil, err
	}

	lib := wrapper.NewLibrary(wrapper.FactoryConfig{MaxFileSize: cfg.MaxFileSize})
	engine, err := redact.NewEngine(lib, classifier, cfg.ApplyMode, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	validator := pdf.NewValidator(cfg.MaxFileSize)
	orch, err := orchestrator.New(orchestrator.Config{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		PollInterval: cfg.PollInterval,
		ErrorBackoff: cfg.ErrorBackoff,
	}, engine, st, validator, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		validator: validator,
		engine:    engine,
		orch:      orch,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func newLogger(w io.Writer, format logFormat, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
