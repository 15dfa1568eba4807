// Package pdf holds the checks applied to PDF files before they enter the
// redaction pipeline.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/pdf-price-redactor/internal/pdf/errors"
)

// headerWindow is how far into a file the %PDF- marker may appear
const headerWindow = 1024

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator. A maxFileSize of zero disables
// the size check.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// MaxFileSize returns the configured size limit in bytes
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// ValidationResult reports the outcome of ValidateFile
type ValidationResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidateFile performs validation on a PDF file and reports the outcome
// instead of failing
func (v *Validator) ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{Path: path}
	pages, err := v.validatePDFFile(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Valid = true
	result.Pages = pages
	return result
}

// Validate returns an InvalidInput error when path is not a usable PDF
func (v *Validator) Validate(path string) error {
	if _, err := v.validatePDFFile(path); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, err).WithFile(filepath.Base(path))
	}
	return nil
}

// validatePDFFile performs detailed validation on a PDF file and returns its
// page count
func (v *Validator) validatePDFFile(filePath string) (int, error) {
	if filePath == "" {
		return 0, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return 0, err
	}
	if err := checkHeader(filePath); err != nil {
		return 0, err
	}
	return openPageCount(filePath)
}

// ValidateFileInfo performs basic validation on file info without opening
// the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return v.ValidateUpload(filePath, fileInfo.Size())
}

// ValidateUpload checks the name and size of a file that is not on disk yet
func (v *Validator) ValidateUpload(name string, size int64) error {
	if !IsPDFName(name) {
		return fmt.Errorf("file is not a PDF: %s", filepath.Base(name))
	}
	if size == 0 {
		return fmt.Errorf("file is empty: %s", filepath.Base(name))
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}
	return nil
}

// IsPDFName reports whether name has a .pdf extension, in any case
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func checkHeader(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("cannot read file: %w", err)
	}
	if !bytes.Contains(buf[:n], []byte("%PDF-")) {
		return fmt.Errorf("missing PDF header: %s", filepath.Base(filePath))
	}
	return nil
}

// openPageCount opens the file with the text extractor, which panics on
// some malformed inputs
func openPageCount(filePath string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid PDF file: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
