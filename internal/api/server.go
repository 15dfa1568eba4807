// Package api serves the upload, process and download web interface.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/pdf"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/security"
)

// maxFilesPerUpload bounds the request body of a multi-file upload
const maxFilesPerUpload = 20

// Server is the HTTP front end of the redactor
type Server struct {
	router    chi.Router
	orch      *orchestrator.Orchestrator
	validator *pdf.Validator
	paths     *security.PathValidator
	index     []byte
	log       *slog.Logger
}

// NewServer creates and configures the HTTP server. Uploads are checked
// with validator, whose size limit applies per file.
func NewServer(orch *orchestrator.Orchestrator, validator *pdf.Validator, log *slog.Logger) (*Server, error) {
	paths, err := security.NewPathValidator(orch.InputDir(), orch.OutputDir())
	if err != nil {
		return nil, err
	}
	index, err := renderIndex(validator.MaxFileSize())
	if err != nil {
		return nil, fmt.Errorf("failed to render index page: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		orch:      orch,
		validator: validator,
		paths:     paths,
		index:     index,
		log:       log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Post("/upload", s.handleUpload)
	r.Post("/process", s.handleProcess)
	r.Get("/files", s.handleListFiles)
	r.Get("/download/{filename}", s.handleDownload)
	r.Get("/download-all", s.handleDownloadAll)
	r.Post("/cleanup", s.handleCleanup)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.index)
}

func jsonResponse(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonResponse(w, code, map[string]string{"error": msg})
}
