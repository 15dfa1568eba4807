package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-price-redactor/internal/classify"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/security"
	"github.com/a3tai/pdf-price-redactor/internal/redact"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

const (
	AppName   = "pdf-price-redactor"
	EnvPrefix = "PDF_REDACTOR"

	// Default values
	DefaultPort         = 5002
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 16 * 1024 * 1024 // 16MB
	DefaultPollInterval = time.Second
	DefaultErrorBackoff = 5 * time.Second

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the redactor
type Config struct {
	// Workspace
	InputDir  string
	OutputDir string

	// Redaction
	Strategy    classify.Strategy
	ApplyMode   redact.Mode
	Margins     classify.Margins
	ProfilePath string

	// Processed-file record
	Store  store.Kind
	DBPath string

	// HTTP server
	Host string
	Port int

	// Watch loop
	PollInterval time.Duration
	ErrorBackoff time.Duration

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ConfigFile  string
}

// XDGDataDir returns the data directory of the redactor, for example
// ~/.local/share/pdf-price-redactor on Linux
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	data := XDGDataDir()
	return &Config{
		InputDir:     filepath.Join(data, "input"),
		OutputDir:    filepath.Join(data, "output"),
		Strategy:     classify.StrategyColumnSection,
		ApplyMode:    redact.ModeRedact,
		Margins:      classify.DefaultMargins(),
		Store:        store.KindMemory,
		DBPath:       filepath.Join(data, "records.db"),
		Host:         DefaultHost,
		Port:         DefaultPort,
		PollInterval: DefaultPollInterval,
		ErrorBackoff: DefaultErrorBackoff,
		Version:      "1.0.0",
		ServerName:   AppName,
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// marginKeys maps margin flags to their configuration keys
var marginKeys = []struct {
	flag  string
	key   string
	usage string
	field func(*classify.Margins) *float64
}{
	{"column-tolerance", "margins.column_tolerance", "Max x distance from a price column anchor",
		func(m *classify.Margins) *float64 { return &m.ColumnTolerance }},
	{"header-scan-depth", "margins.header_scan_depth", "Depth below a column header scanned for the first amount",
		func(m *classify.Margins) *float64 { return &m.HeaderScanDepth }},
	{"kampanje-above", "margins.kampanje_above", "Kampanje section extent above the label",
		func(m *classify.Margins) *float64 { return &m.KampanjeAbove }},
	{"kampanje-below", "margins.kampanje_below", "Kampanje section extent below the label",
		func(m *classify.Margins) *float64 { return &m.KampanjeBelow }},
	{"section-extend-right", "margins.section_extend_right", "Section extent to the right of its last word",
		func(m *classify.Margins) *float64 { return &m.SectionExtendRight }},
	{"mva-pad", "margins.mva_pad", "Vertical padding around MVA rows",
		func(m *classify.Margins) *float64 { return &m.MVAPad }},
}

// DefineFlags registers the configuration flags on fs
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "YAML configuration file")
	fs.String("input", cfg.InputDir, "Directory scanned for PDF files")
	fs.String("output", cfg.OutputDir, "Directory redacted files are written to")
	fs.String("strategy", string(cfg.Strategy), "Classification strategy (column-section, line-keyword)")
	fs.String("apply", string(cfg.ApplyMode), "Apply mode: 'redact' removes the text, 'fill' only paints over it")
	fs.String("profile", cfg.ProfilePath, "YAML margin profile for a document template")
	fs.String("store", string(cfg.Store), "Processed-file record (memory, sqlite)")
	fs.String("db", cfg.DBPath, "SQLite database path (store=sqlite)")
	fs.String("host", cfg.Host, "HTTP server host address")
	fs.Int("port", cfg.Port, "HTTP server port")
	fs.Duration("poll-interval", cfg.PollInterval, "Watch loop interval")
	fs.Duration("error-backoff", cfg.ErrorBackoff, "Watch loop wait after a failed pass")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	for _, m := range marginKeys {
		fs.Float64(m.flag, *m.field(&cfg.Margins), m.usage)
	}
}

// Load builds the configuration from, in increasing precedence, defaults,
// the --config file, PDF_REDACTOR_* environment variables and the flags in
// fs. Margins from a --profile file override the config file but not
// explicit flags or environment variables.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	if err := bindFlagsToViper(v, fs); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		cfg.ConfigFile = file
	}

	populateConfigFromViper(v, cfg)

	if cfg.ProfilePath != "" {
		margins, err := LoadProfile(cfg.ProfilePath, cfg.Margins)
		if err != nil {
			return nil, err
		}
		for _, m := range marginKeys {
			if !explicit(fs, m.flag, m.key) {
				*m.field(&cfg.Margins) = *m.field(&margins)
			}
		}
	}

	for _, p := range []*string{&cfg.InputDir, &cfg.OutputDir, &cfg.DBPath} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "")
	v.SetDefault("input", cfg.InputDir)
	v.SetDefault("output", cfg.OutputDir)
	v.SetDefault("strategy", string(cfg.Strategy))
	v.SetDefault("apply", string(cfg.ApplyMode))
	v.SetDefault("profile", cfg.ProfilePath)
	v.SetDefault("store", string(cfg.Store))
	v.SetDefault("db", cfg.DBPath)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("poll-interval", cfg.PollInterval)
	v.SetDefault("error-backoff", cfg.ErrorBackoff)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	for _, m := range marginKeys {
		v.SetDefault(m.key, *m.field(&cfg.Margins))
	}
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		for _, m := range marginKeys {
			if m.flag == f.Name {
				key = m.key
			}
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.InputDir = v.GetString("input")
	cfg.OutputDir = v.GetString("output")
	cfg.Strategy = classify.Strategy(v.GetString("strategy"))
	cfg.ApplyMode = redact.Mode(v.GetString("apply"))
	cfg.ProfilePath = v.GetString("profile")
	cfg.Store = store.Kind(v.GetString("store"))
	cfg.DBPath = v.GetString("db")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PollInterval = v.GetDuration("poll-interval")
	cfg.ErrorBackoff = v.GetDuration("error-backoff")
	cfg.LogLevel = v.GetString("log-level")
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	for _, m := range marginKeys {
		*m.field(&cfg.Margins) = v.GetFloat64(m.key)
	}
}

// explicit reports whether a margin was set on the command line or in the
// environment
func explicit(fs *pflag.FlagSet, flag, key string) bool {
	if fs != nil && fs.Changed(flag) {
		return true
	}
	env := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	_, ok := os.LookupEnv(env)
	return ok
}

// Validate checks if the configuration is valid and creates the workspace
// directories
func (c *Config) Validate() error {
	if !contains(classify.Strategies(), c.Strategy) {
		return fmt.Errorf("invalid strategy: %s (must be one of: %s)", c.Strategy, join(classify.Strategies()))
	}
	if !contains(redact.Modes(), c.ApplyMode) {
		return fmt.Errorf("invalid apply mode: %s (must be one of: %s)", c.ApplyMode, join(redact.Modes()))
	}
	if err := c.Margins.Validate(); err != nil {
		return err
	}

	switch c.Store {
	case store.KindMemory:
	case store.KindSQLite:
		if c.DBPath == "" {
			return errors.New("database path cannot be empty with the sqlite store")
		}
	default:
		return fmt.Errorf("invalid store: %s (must be one of: memory, sqlite)", c.Store)
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.ErrorBackoff <= 0 {
		return errors.New("error backoff must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("input and output directories cannot be empty")
	}
	for _, dir := range []string{c.InputDir, c.OutputDir} {
		if err := security.EnsureDirectory(dir); err != nil {
			return err
		}
	}

	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func join[T ~string](list []T) string {
	parts := make([]string, 0, len(list))
	for _, x := range list {
		parts = append(parts, string(x))
	}
	return strings.Join(parts, ", ")
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{InputDir: %s, OutputDir: %s, Strategy: %s, ApplyMode: %s, Store: %s, Host: %s, Port: %d, LogLevel: %s, MaxFileSize: %d}",
		c.InputDir, c.OutputDir, c.Strategy, c.ApplyMode, c.Store, c.Host, c.Port, c.LogLevel, c.MaxFileSize)
}
