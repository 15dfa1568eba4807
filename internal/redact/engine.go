// Package redact applies classification decisions to PDF documents.
package redact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/a3tai/pdf-price-redactor/internal/classify"
	"github.com/a3tai/pdf-price-redactor/internal/layout"
	pdferrors "github.com/a3tai/pdf-price-redactor/internal/pdf/errors"
	"github.com/a3tai/pdf-price-redactor/internal/pdf/wrapper"
)

// Mode selects how redaction regions are applied to a page
type Mode string

const (
	// ModeRedact removes the glyphs inside each region and paints it white
	ModeRedact Mode = "redact"
	// ModeFill paints each region white and leaves the text layer intact
	ModeFill Mode = "fill"
)

// Modes lists the accepted apply modes
func Modes() []Mode {
	return []Mode{ModeRedact, ModeFill}
}

// PageResult describes what happened to one page
type PageResult struct {
	Number        int  `json:"number"`
	Skipped       bool `json:"skipped"`
	Regions       int  `json:"regions"`
	GlyphsRemoved int  `json:"glyphs_removed"`
}

// Result summarizes one processed document
type Result struct {
	Input         string        `json:"input"`
	Output        string        `json:"output"`
	Strategy      string        `json:"strategy"`
	Mode          Mode          `json:"mode"`
	Pages         []PageResult  `json:"pages"`
	Redactions    int           `json:"redactions"`
	GlyphsRemoved int           `json:"glyphs_removed"`
	Duration      time.Duration `json:"duration"`
}

// PagesSkipped counts pages the classifier had nothing to say about
func (r *Result) PagesSkipped() int {
	n := 0
	for _, p := range r.Pages {
		if p.Skipped {
			n++
		}
	}
	return n
}

// Engine runs a classifier over every page of a document and blanks the
// regions it flags
type Engine struct {
	lib        wrapper.Library
	classifier classify.Classifier
	mode       Mode
	log        *slog.Logger
}

// NewEngine creates an engine. An empty mode selects ModeRedact and a nil
// logger discards output.
func NewEngine(lib wrapper.Library, classifier classify.Classifier, mode Mode, log *slog.Logger) (*Engine, error) {
	if lib == nil || classifier == nil {
		return nil, fmt.Errorf("redaction engine needs a PDF library and a classifier")
	}
	switch mode {
	case "":
		mode = ModeRedact
	case ModeRedact, ModeFill:
	default:
		return nil, fmt.Errorf("unknown apply mode %q", mode)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{lib: lib, classifier: classifier, mode: mode, log: log}, nil
}

// Mode returns the apply mode of the engine
func (e *Engine) Mode() Mode {
	return e.mode
}

// Strategy returns the name of the classifier in use
func (e *Engine) Strategy() classify.Strategy {
	return e.classifier.Name()
}

// Process redacts in and writes the result to out. The output file only
// appears once the whole document has been saved.
func (e *Engine) Process(ctx context.Context, in, out string) (*Result, error) {
	start := time.Now()
	result := &Result{
		Input:    in,
		Output:   out,
		Strategy: string(e.classifier.Name()),
		Mode:     e.mode,
	}

	doc, err := e.lib.Open(in)
	if err != nil {
		return nil, openError(err).WithFile(in)
	}
	defer doc.Close()

	for n := 1; n <= doc.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pr, err := e.processPage(doc, n)
		if err != nil {
			return nil, err.WithFile(in).WithPage(n)
		}
		result.Pages = append(result.Pages, pr)
		result.Redactions += pr.Regions
		result.GlyphsRemoved += pr.GlyphsRemoved
	}

	if err := e.save(doc, out); err != nil {
		return nil, err.WithFile(out)
	}

	result.Duration = time.Since(start)
	e.log.Info("file redacted",
		"file", filepath.Base(in),
		"pages", len(result.Pages),
		"skipped", result.PagesSkipped(),
		"redactions", result.Redactions,
		"glyphs_removed", result.GlyphsRemoved,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (e *Engine) processPage(doc wrapper.Document, n int) (PageResult, *pdferrors.PDFError) {
	pr := PageResult{Number: n}

	page, err := doc.Page(n)
	if err != nil {
		return pr, pdferrors.WrapError(pdferrors.ErrorTypeParseFailure, err)
	}
	words, err := page.Words()
	if err != nil {
		if errors.Is(err, wrapper.ErrUnknownGlyphWidths.Err) {
			return pr, pdferrors.WrapError(pdferrors.ErrorTypeUnsupportedFeature, err).
				WithContext("text positions cannot be measured")
		}
		return pr, pdferrors.WrapError(pdferrors.ErrorTypeParseFailure, err)
	}
	lines, err := page.Lines()
	if err != nil {
		return pr, pdferrors.WrapError(pdferrors.ErrorTypeParseFailure, err)
	}

	size := page.Size()
	decision := e.classifier.Classify(&layout.Page{
		Number: n,
		Width:  size.Width,
		Height: size.Height,
		Words:  words,
		Lines:  lines,
	})
	if decision.Skipped {
		pr.Skipped = true
		e.log.Debug("page skipped", "file", filepath.Base(doc.Path()), "page", n, "words", len(words))
		return pr, nil
	}

	regions := decision.Regions()
	pr.Regions = len(regions)
	if len(regions) == 0 {
		return pr, nil
	}

	switch e.mode {
	case ModeFill:
		for _, r := range regions {
			if err := page.FillRect(r, wrapper.White); err != nil {
				return pr, pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
			}
		}
	default:
		for _, r := range regions {
			if err := page.AddRedaction(r); err != nil {
				return pr, pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
			}
		}
		removed, err := page.ApplyRedactions()
		if err != nil {
			if errors.Is(err, wrapper.ErrMalformedContent.Err) {
				return pr, pdferrors.WrapError(pdferrors.ErrorTypeUnsupportedFeature, err).
					WithContext("page content could not be rewritten, apply mode fill still works")
			}
			return pr, pdferrors.WrapError(pdferrors.ErrorTypeParseFailure, err)
		}
		pr.GlyphsRemoved = removed
	}

	e.log.Debug("page redacted",
		"file", filepath.Base(doc.Path()),
		"page", n,
		"columns", decision.Columns.Found(),
		"sections", len(decision.Sections),
		"regions", pr.Regions,
		"glyphs_removed", pr.GlyphsRemoved,
	)
	return pr, nil
}

// save writes the document to a temporary file next to out and renames it
// into place
func (e *Engine) save(doc wrapper.Document, out string) *pdferrors.PDFError {
	dir := filepath.Dir(out)
	tmp, err := os.CreateTemp(dir, ".redact-*.pdf")
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
	}

	if err := doc.Save(tmpName); err != nil {
		_ = os.Remove(tmpName)
		return pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		_ = os.Remove(tmpName)
		return pdferrors.WrapError(pdferrors.ErrorTypeSaveFailure, err)
	}
	return nil
}

func openError(err error) *pdferrors.PDFError {
	if errors.Is(err, wrapper.ErrNotPDF.Err) || errors.Is(err, wrapper.ErrFileTooLarge.Err) || errors.Is(err, os.ErrNotExist) {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, err)
	}
	return pdferrors.WrapError(pdferrors.ErrorTypeParseFailure, err)
}
