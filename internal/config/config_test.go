package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-price-redactor/internal/classify"
	"github.com/a3tai/pdf-price-redactor/internal/redact"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(fs, DefaultConfig())
	require.NoError(t, fs.Parse(args))
	return fs
}

func workspaceArgs(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	return []string{"--input", filepath.Join(root, "in"), "--output", filepath.Join(root, "out")}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	args := workspaceArgs(t)
	cfg, err := Load(newFlags(t, args...))
	require.NoError(t, err)

	assert.Equal(t, classify.StrategyColumnSection, cfg.Strategy)
	assert.Equal(t, redact.ModeRedact, cfg.ApplyMode)
	assert.Equal(t, classify.DefaultMargins(), cfg.Margins)
	assert.Equal(t, store.KindMemory, cfg.Store)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.ErrorBackoff)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.DirExists(t, cfg.InputDir)
	assert.DirExists(t, cfg.OutputDir)
	assert.Equal(t, args[1], cfg.InputDir)
}

func TestDefaultConfig_UsesXDGDataDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(XDGDataDir(), "input"), cfg.InputDir)
	assert.Equal(t, filepath.Join(XDGDataDir(), "output"), cfg.OutputDir)
	assert.Equal(t, AppName, filepath.Base(XDGDataDir()))
}

func TestLoad_Flags(t *testing.T) {
	args := append(workspaceArgs(t),
		"--strategy", "line-keyword",
		"--apply", "fill",
		"--port", "9000",
		"--poll-interval", "250ms",
		"--column-tolerance", "12.5",
		"--log-level", "debug",
	)
	cfg, err := Load(newFlags(t, args...))
	require.NoError(t, err)

	assert.Equal(t, classify.StrategyLineKeyword, cfg.Strategy)
	assert.Equal(t, redact.ModeFill, cfg.ApplyMode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 12.5, cfg.Margins.ColumnTolerance)
	assert.Equal(t, 50.0, cfg.Margins.HeaderScanDepth)
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, "127.0.0.1:9000", cfg.Address())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PDF_REDACTOR_STRATEGY", "line-keyword")
	t.Setenv("PDF_REDACTOR_MAX_FILE_SIZE", "1024")
	t.Setenv("PDF_REDACTOR_MARGINS_KAMPANJE_BELOW", "45")

	cfg, err := Load(newFlags(t, workspaceArgs(t)...))
	require.NoError(t, err)
	assert.Equal(t, classify.StrategyLineKeyword, cfg.Strategy)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
	assert.Equal(t, 45.0, cfg.Margins.KampanjeBelow)

	// Flags win over the environment
	cfg, err = Load(newFlags(t, append(workspaceArgs(t), "--strategy", "column-section")...))
	require.NoError(t, err)
	assert.Equal(t, classify.StrategyColumnSection, cfg.Strategy)
}

func TestLoad_ConfigFile(t *testing.T) {
	file := writeFile(t, "redactor.yaml", `
apply: fill
store: sqlite
port: 7000
error-backoff: 2s
margins:
  column_tolerance: 40
  mva_pad: 4
`)
	cfg, err := Load(newFlags(t, append(workspaceArgs(t), "--config", file)...))
	require.NoError(t, err)

	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, redact.ModeFill, cfg.ApplyMode)
	assert.Equal(t, store.KindSQLite, cfg.Store)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ErrorBackoff)
	assert.Equal(t, 40.0, cfg.Margins.ColumnTolerance)
	assert.Equal(t, 4.0, cfg.Margins.MVAPad)
	assert.Equal(t, 30.0, cfg.Margins.KampanjeBelow)

	_, err = Load(newFlags(t, append(workspaceArgs(t), "--config", filepath.Join(t.TempDir(), "missing.yaml"))...))
	assert.Error(t, err)
}

func TestLoad_Profile(t *testing.T) {
	profile := writeFile(t, "leverandor.yaml", `
name: leverandor-a
margins:
  column_tolerance: 40
  kampanje_below: 60
`)

	cfg, err := Load(newFlags(t, append(workspaceArgs(t), "--profile", profile)...))
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Margins.ColumnTolerance)
	assert.Equal(t, 60.0, cfg.Margins.KampanjeBelow)
	assert.Equal(t, 5.0, cfg.Margins.KampanjeAbove)

	// An explicit flag beats the profile
	cfg, err = Load(newFlags(t, append(workspaceArgs(t), "--profile", profile, "--column-tolerance", "10")...))
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Margins.ColumnTolerance)
	assert.Equal(t, 60.0, cfg.Margins.KampanjeBelow)
}

func TestLoadProfile_Errors(t *testing.T) {
	base := classify.DefaultMargins()

	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"), base)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = LoadProfile(writeFile(t, "bad.yaml", "margins: [}"), base)
	assert.Error(t, err)

	_, err = LoadProfile(writeFile(t, "neg.yaml", "margins:\n  mva_pad: -1\n"), base)
	assert.ErrorContains(t, err, "mva_pad")
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := DefaultConfig()
		root := t.TempDir()
		cfg.InputDir = filepath.Join(root, "in")
		cfg.OutputDir = filepath.Join(root, "out")
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "strategy", mutate: func(c *Config) { c.Strategy = "magic" }, wantErr: "invalid strategy"},
		{name: "apply mode", mutate: func(c *Config) { c.ApplyMode = "blackout" }, wantErr: "invalid apply mode"},
		{name: "negative margin", mutate: func(c *Config) { c.Margins.ColumnTolerance = -1 }, wantErr: "column_tolerance"},
		{name: "store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: "invalid store"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store = store.KindSQLite; c.DBPath = "" }, wantErr: "database path"},
		{name: "port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port"},
		{name: "file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "file size"},
		{name: "poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: "poll interval"},
		{name: "backoff", mutate: func(c *Config) { c.ErrorBackoff = -time.Second }, wantErr: "backoff"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log level"},
		{name: "empty input", mutate: func(c *Config) { c.InputDir = "" }, wantErr: "directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.DirExists(t, cfg.InputDir)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	for level, want := range map[string]string{"debug": "DEBUG", "info": "INFO", "warn": "WARN", "error": "ERROR"} {
		cfg.LogLevel = level
		assert.Equal(t, want, cfg.SlogLevel().String())
	}
}
