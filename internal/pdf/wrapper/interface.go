package wrapper

import (
	"fmt"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// Library opens PDF documents for reading positioned text and editing pages
type Library interface {
	Open(path string) (Document, error)
}

// Document is an open PDF. Edits are kept in memory until Save.
type Document interface {
	Path() string
	PageCount() int
	Page(pageNum int) (Page, error)
	Save(path string) error
	Close() error
}

// Page is a single page of an open document. Coordinates are top-down page
// space as described in package layout.
type Page interface {
	Number() int
	Size() PageSize

	// Words returns the positioned words of the page in extraction order
	Words() ([]layout.Word, error)
	// Lines returns the words grouped into text lines
	Lines() ([]layout.Line, error)

	// FillRect paints an opaque rectangle over the page
	FillRect(rect layout.Rect, color Color) error
	// AddRedaction marks a region for removal
	AddRedaction(rect layout.Rect) error
	// ApplyRedactions removes the text shown inside every marked region,
	// paints the regions white and returns the number of glyphs removed.
	ApplyRedactions() (int, error)
}

// LibraryType identifies the PDF backend an error came from
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// PageSize represents the dimensions of a PDF page
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"` // "pt"
}

// Color represents a color value
type Color struct {
	R float64 `json:"r"` // Red component (0-1)
	G float64 `json:"g"` // Green component (0-1)
	B float64 `json:"b"` // Blue component (0-1)
}

// White is the fill used to blank redacted regions
var White = Color{R: 1, G: 1, B: 1}

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed     = &WrapperError{Op: "document", Err: fmt.Errorf("document is closed")}
	ErrInvalidPage        = &WrapperError{Op: "page", Err: fmt.Errorf("invalid page number")}
	ErrMalformedContent   = &WrapperError{Op: "content", Err: fmt.Errorf("malformed page content")}
	ErrUnknownGlyphWidths = &WrapperError{Op: "content", Err: fmt.Errorf("font has no glyph widths")}
	ErrFileTooLarge       = &WrapperError{Op: "open", Err: fmt.Errorf("file too large")}
	ErrNotPDF             = &WrapperError{Op: "open", Err: fmt.Errorf("file does not have .pdf extension")}
)
