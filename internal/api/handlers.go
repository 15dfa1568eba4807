package api

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/a3tai/pdf-price-redactor/internal/orchestrator"
	"github.com/a3tai/pdf-price-redactor/internal/pdf"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/security"
)

// ArchiveName is the file name offered for /download-all
const ArchiveName = "prosesserte_filer.zip"

var (
	errNoFile      = errors.New("Ingen fil valgt")
	errInvalidType = errors.New("Ugyldig filtype. Kun PDF-filer er tillatt")
	errTooLarge    = errors.New("Filen er for stor")
)

type uploadError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.validator.MaxFileSize()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit*maxFilesPerUpload+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, errTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, errNoFile.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		jsonError(w, errNoFile.Error(), http.StatusBadRequest)
		return
	}

	var (
		saved  []string
		failed []uploadError
	)
	for _, fh := range headers {
		name, err := s.saveUpload(r.Context(), fh)
		if err != nil {
			s.log.Warn("upload rejected", "file", fh.Filename, "error", err)
			failed = append(failed, uploadError{File: fh.Filename, Error: uploadMessage(err)})
			continue
		}
		s.log.Info("file uploaded", "file", name, "size", fh.Size)
		saved = append(saved, name)
	}

	if len(saved) == 0 {
		code := http.StatusBadRequest
		if failed[0].Error == errTooLarge.Error() {
			code = http.StatusRequestEntityTooLarge
		} else if failed[0].Error == "Feil ved opplasting av fil" {
			code = http.StatusInternalServerError
		}
		jsonResponse(w, code, map[string]any{
			"error":  failed[0].Error,
			"failed": failed,
		})
		return
	}

	msg := "Fil lastet opp"
	if len(saved) > 1 {
		msg = "Filer lastet opp"
	}
	resp := map[string]any{
		"message":  msg,
		"filename": saved[0],
		"files":    saved,
	}
	if len(failed) > 0 {
		resp["failed"] = failed
	}
	jsonResponse(w, http.StatusOK, resp)
}

// uploadMessage maps an upload failure to the message shown to the user
func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errNoFile), errors.Is(err, errInvalidType), errors.Is(err, errTooLarge):
		return err.Error()
	default:
		return "Feil ved opplasting av fil"
	}
}

// saveUpload writes one uploaded file into the input directory. The data
// goes to a hidden temp file first so a concurrent pass never sees a
// partial PDF. A file replacing an earlier upload of the same name loses
// its processed record and stale output.
func (s *Server) saveUpload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	name := security.SanitizeFilename(fh.Filename)
	if name == "" {
		return "", errNoFile
	}
	if !pdf.IsPDFName(name) {
		return "", errInvalidType
	}
	if err := s.validator.ValidateUpload(name, fh.Size); err != nil {
		if fh.Size == 0 {
			return "", errNoFile
		}
		return "", errTooLarge
	}

	dst, err := s.paths.ResolveName(s.orch.InputDir(), name)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.orch.InputDir(), ".upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := s.orch.Forget(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	report, err := s.orch.ProcessFiles(r.Context())
	if err != nil {
		s.log.Error("process failed", "error", err)
		jsonError(w, "Feil ved behandling av filer", http.StatusInternalServerError)
		return
	}
	files, err := s.outputFiles()
	if err != nil {
		s.log.Error("list output failed", "error", err)
		jsonError(w, "Feil ved behandling av filer", http.StatusInternalServerError)
		return
	}

	failures := []orchestrator.FileResult{}
	for _, f := range report.Files {
		if f.Error != "" {
			failures = append(failures, f)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":   "Filer behandlet",
		"files":     files,
		"processed": report.Processed(),
		"failed":    failures,
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.outputFiles()
	if err != nil {
		s.log.Error("list output failed", "error", err)
		jsonError(w, "Feil ved henting av filer", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) outputFiles() ([]string, error) {
	files, err := s.orch.OutputFiles()
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !strings.HasPrefix(name, orchestrator.OutputPrefix) {
		name = orchestrator.OutputName(name)
	}

	path, err := s.paths.ResolveName(s.orch.OutputDir(), name)
	if err != nil {
		jsonError(w, "Fil ikke funnet", http.StatusNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "Fil ikke funnet", http.StatusNotFound)
			return
		}
		s.log.Error("download failed", "file", name, "error", err)
		jsonError(w, "Feil ved nedlasting av fil", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		jsonError(w, "Fil ikke funnet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	files, err := s.orch.OutputFiles()
	if err != nil {
		s.log.Error("list output failed", "error", err)
		jsonError(w, "Feil ved nedlasting av fil", http.StatusInternalServerError)
		return
	}
	if len(files) == 0 {
		jsonError(w, "Ingen behandlede filer", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ArchiveName))

	zw := zip.NewWriter(w)
	for _, name := range files {
		if err := addToArchive(zw, filepath.Join(s.orch.OutputDir(), name), name); err != nil {
			// Headers are already sent; the truncated archive is the signal
			s.log.Error("archive failed", "file", name, "error", err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.log.Error("archive failed", "error", err)
	}
}

func addToArchive(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Cleanup(r.Context()); err != nil {
		s.log.Error("cleanup failed", "error", err)
		jsonError(w, "Feil ved opprydding", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Filer slettet"})
}
