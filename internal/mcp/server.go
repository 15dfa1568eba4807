package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-price-redactor/internal/config"
	"github.com/a3tai/pdf-price-redactor/internal/descriptions"
	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/pdf"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/security"
	"github.com/a3tai/pdf-price-redactor/internal/redact"
	"github.com/a3tai/pdf-price-redactor/internal/store"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	orch      *orchestrator.Orchestrator
	engine    *redact.Engine
	validator *pdf.Validator
	paths     *security.PathValidator
	outputs   *security.PathValidator
	mcpServer *server.MCPServer
	log       *slog.Logger
}

// NewServer creates a new MCP server instance. Tool calls may only read
// files inside the orchestrator's input and output directories and only
// write to the output directory. A nil validator checks sizes against
// cfg.MaxFileSize.
func NewServer(cfg *config.Config, orch *orchestrator.Orchestrator, engine *redact.Engine, validator *pdf.Validator, log *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if orch == nil || engine == nil {
		return nil, fmt.Errorf("orchestrator and engine cannot be nil")
	}
	paths, err := security.NewPathValidator(orch.InputDir(), orch.OutputDir())
	if err != nil {
		return nil, err
	}
	outputs, err := security.NewPathValidator(orch.OutputDir())
	if err != nil {
		return nil, err
	}
	if validator == nil {
		validator = pdf.NewValidator(cfg.MaxFileSize)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		orch:      orch,
		engine:    engine,
		validator: validator,
		paths:     paths,
		outputs:   outputs,
		mcpServer: mcpServer,
		log:       log,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	redactTool := mcp.NewTool(
		descriptions.RedactPDF,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.RedactPDF)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, inside the input or output directory"),
		),
		mcp.WithString("output",
			mcp.Description("PDF file name or path inside the output directory (defaults to Prosessert_<name>)"),
		),
	)
	s.mcpServer.AddTool(redactTool, s.handleRedactPDF)

	processTool := mcp.NewTool(
		descriptions.ProcessDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ProcessDirectory)),
	)
	s.mcpServer.AddTool(processTool, s.handleProcessDirectory)

	listTool := mcp.NewTool(
		descriptions.ListProcessed,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ListProcessed)),
	)
	s.mcpServer.AddTool(listTool, s.handleListProcessed)

	cleanupTool := mcp.NewTool(
		descriptions.CleanupWorkspace,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.CleanupWorkspace)),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true"),
		),
	)
	s.mcpServer.AddTool(cleanupTool, s.handleCleanup)

	infoTool := mcp.NewTool(
		descriptions.RedactorInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.RedactorInfo)),
	)
	s.mcpServer.AddTool(infoTool, s.handleInfo)
}

func (s *Server) handleRedactPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := s.resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if check := s.validator.ValidateFile(in); !check.Valid {
		return mcp.NewToolResultError("not a usable PDF: " + check.Message), nil
	}

	out := filepath.Join(s.orch.OutputDir(), orchestrator.OutputName(filepath.Base(in)))
	if o := request.GetString("output", ""); o != "" {
		if out, err = s.resolveOutput(o); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if out == in {
		return mcp.NewToolResultError("output must differ from the input file"), nil
	}

	result, err := s.engine.Process(ctx, in, out)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatResult(result)), nil
}

// resolve makes path absolute, relative paths being taken from the input
// directory, and confines it to the workspace
func (s *Server) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.orch.InputDir(), path)
	}
	path = filepath.Clean(path)
	if err := s.paths.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// resolveOutput confines an output path to the output directory, where the
// next directory pass will not pick it up as an input
func (s *Server) resolveOutput(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.orch.OutputDir(), path)
	}
	path = filepath.Clean(path)
	if !pdf.IsPDFName(path) {
		return "", fmt.Errorf("output must be a .pdf file: %s", filepath.Base(path))
	}
	if err := s.outputs.ValidatePath(path); err != nil {
		return "", fmt.Errorf("output must be inside the output directory: %w", err)
	}
	return path, nil
}

func (s *Server) handleProcessDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	report, err := s.orch.ProcessFiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatReport(report)), nil
}

func (s *Server) handleListProcessed(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	records, err := s.orch.Records(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.orch.OutputFiles()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatListing(records, files)), nil
}

func (s *Server) handleCleanup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm, err := request.RequireBool("confirm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !confirm {
		return mcp.NewToolResultError("cleanup not confirmed"), nil
	}
	if err := s.orch.Cleanup(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Workspace cleaned: input and output PDFs deleted"), nil
}

func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := s.config.Margins
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Strategy: %s\n", s.engine.Strategy())
	fmt.Fprintf(&b, "Apply mode: %s\n", s.engine.Mode())
	fmt.Fprintf(&b, "Input directory: %s\n", s.orch.InputDir())
	fmt.Fprintf(&b, "Output directory: %s\n", s.orch.OutputDir())
	fmt.Fprintf(&b, "Margins: column tolerance %g, header scan depth %g, kampanje %g above / %g below, section extend %g, MVA pad %g\n",
		m.ColumnTolerance, m.HeaderScanDepth, m.KampanjeAbove, m.KampanjeBelow, m.SectionExtendRight, m.MVAPad)
	b.WriteString("\nAvailable tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "  • %s: %s\n", name, descriptions.Summary(name))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers
func formatResult(result *redact.Result) string {
	text := fmt.Sprintf("Redacted %s\n", filepath.Base(result.Input))
	text += fmt.Sprintf("Output: %s\n", result.Output)
	text += fmt.Sprintf("Pages: %d (%d without prices)\n", len(result.Pages), result.PagesSkipped())
	text += fmt.Sprintf("Regions: %d\n", result.Redactions)
	if result.Mode == redact.ModeRedact {
		text += fmt.Sprintf("Glyphs removed: %d\n", result.GlyphsRemoved)
	}
	return text
}

func formatReport(report *orchestrator.Report) string {
	if len(report.Files) == 0 {
		text := "No new PDF files in the input directory"
		if n := len(report.AlreadyHandled); n > 0 {
			text += fmt.Sprintf(" (%d already handled)", n)
		}
		return text
	}

	text := fmt.Sprintf("Processed %d file(s), %d failed\n\n", report.Processed(), report.Failed())
	for i, f := range report.Files {
		if f.Status == store.StatusFailed {
			text += fmt.Sprintf("%d. %s: FAILED: %s\n", i+1, f.Name, f.Error)
			continue
		}
		text += fmt.Sprintf("%d. %s -> %s (%d pages, %d regions)\n", i+1, f.Name, f.Output, f.Pages, f.Redactions)
	}
	return text
}

func formatListing(records []store.Record, files []string) string {
	if len(records) == 0 && len(files) == 0 {
		return "No files have been handled yet"
	}

	text := fmt.Sprintf("Handled input files (%d):\n", len(records))
	for _, r := range records {
		text += fmt.Sprintf("  • %s [%s]", r.Name, r.Status)
		if r.Error != "" {
			text += ": " + r.Error
		}
		text += "\n"
	}
	text += fmt.Sprintf("\nRedacted files (%d):\n", len(files))
	for _, f := range files {
		text += fmt.Sprintf("  • %s\n", f)
	}
	return text
}

// Serve speaks the stdio transport over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("starting MCP server",
		"input", s.orch.InputDir(),
		"output", s.orch.OutputDir(),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
