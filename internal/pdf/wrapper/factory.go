package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FactoryConfig contains configuration options for the library
type FactoryConfig struct {
	// MaxFileSize limits the size of documents that are opened (in bytes).
	// Zero disables the check.
	MaxFileSize int64 `json:"max_file_size"`
}

// DefaultFactoryConfig returns the stock configuration
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		MaxFileSize: 100 * 1024 * 1024, // 100MB
	}
}

// NewLibrary returns a Library backed by ledongthuc/pdf and pdfcpu
func NewLibrary(config FactoryConfig) *PDFLibrary {
	return &PDFLibrary{config: config}
}

// checkFile examines a PDF file before any backend touches it
func (l *PDFLibrary) checkFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "analyze",
			Err:     fmt.Errorf("cannot access file: %w", err),
		}
	}
	if info.IsDir() {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "analyze",
			Err:     fmt.Errorf("path is a directory: %s", filePath),
		}
	}

	if l.config.MaxFileSize > 0 && info.Size() > l.config.MaxFileSize {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "analyze",
			Err:     fmt.Errorf("%w: %d exceeds maximum %d", ErrFileTooLarge.Err, info.Size(), l.config.MaxFileSize),
		}
	}

	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".pdf" {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "analyze",
			Err:     fmt.Errorf("%w: %q", ErrNotPDF.Err, ext),
		}
	}

	return nil
}
