package wrapper

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// Word and line segmentation thresholds, as multiples of the font size
const (
	wordGapFactor  = 0.3
	lineGapFactor  = 3.0
	baselineFactor = 0.5
	ascentFactor   = 0.8
	descentFactor  = 0.2
)

// ledongthucText reads page content and font resources with
// ledongthuc/pdf. Glyph positions come from the wrapper's own content
// interpreter.
type ledongthucText struct {
	reader *pdf.Reader
	file   *os.File
}

func openText(path string) (t *ledongthucText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{Library: LibraryLedongthuc, Op: "open_file", Err: fmt.Errorf("%w: %v", ErrMalformedContent.Err, r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}
	return &ledongthucText{reader: reader, file: f}, nil
}

func (t *ledongthucText) close() error {
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

func (t *ledongthucText) page(pageNum int) (pdf.Page, error) {
	if pageNum < 1 || pageNum > t.reader.NumPage() {
		return pdf.Page{}, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "get_page",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage.Err, pageNum, t.reader.NumPage()),
		}
	}
	p := t.reader.Page(pageNum)
	if p.V.IsNull() {
		return pdf.Page{}, &WrapperError{Library: LibraryLedongthuc, Op: "get_page", Err: ErrInvalidPage.Err}
	}
	return p, nil
}

// content returns the decoded content stream of a page, with multiple
// streams joined by a newline.
func (t *ledongthucText) content(pageNum int) (data []byte, err error) {
	p, err := t.page(pageNum)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_content", Err: fmt.Errorf("%w: %v", ErrMalformedContent.Err, r)}
		}
	}()

	contents := p.V.Key("Contents")
	var streams []pdf.Value
	switch contents.Kind() {
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	case pdf.Stream:
		streams = append(streams, contents)
	}

	var out []byte
	for _, s := range streams {
		rc := s.Reader()
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_content", Err: err}
		}
		out = append(out, b...)
		out = append(out, '\n')
	}
	return out, nil
}

// metrics returns glyph widths and decoders for the fonts of a page
func (t *ledongthucText) metrics(pageNum int) (*pageFonts, error) {
	p, err := t.page(pageNum)
	if err != nil {
		return nil, err
	}
	return &pageFonts{page: p, fonts: make(map[string]*fontInfo)}, nil
}

// words interprets a content stream of the page and returns its words
func (t *ledongthucText) words(pageNum int, content []byte, box pageBox) ([]layout.Word, error) {
	fonts, err := t.metrics(pageNum)
	if err != nil {
		return nil, err
	}

	glyphs, zeroWidth, err := extractGlyphs(content, fonts)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "extract_text",
			Err:     errors.Join(ErrMalformedContent.Err, err),
		}
	}
	if len(zeroWidth) > 0 {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "extract_text",
			Err:     fmt.Errorf("%w: %s", ErrUnknownGlyphWidths.Err, strings.Join(zeroWidth, ", ")),
		}
	}
	return segmentWords(glyphs, box), nil
}

// fontInfo caches what the interpreter needs from one font dictionary
type fontInfo struct {
	font    pdf.Font
	enc     pdf.TextEncoding
	codeLen int

	// CID fonts
	cid      bool
	widths   map[int]float64
	defaultW float64
}

// pageFonts implements fontMetrics from a page's font resources
type pageFonts struct {
	page  pdf.Page
	fonts map[string]*fontInfo
}

func (f *pageFonts) font(name string) *fontInfo {
	if info, ok := f.fonts[name]; ok {
		return info
	}
	info := loadFont(f.page.Font(name))
	f.fonts[name] = info
	return info
}

func loadFont(font pdf.Font) (info *fontInfo) {
	info = &fontInfo{font: font, codeLen: 1}
	defer func() {
		if recover() != nil {
			info.enc = nil
		}
	}()

	if font.V.Key("Subtype").Name() == "Type0" {
		info.codeLen = 2
		info.cid = true
		info.defaultW = 1000
		info.widths = make(map[int]float64)

		descendant := font.V.Key("DescendantFonts").Index(0)
		if dw := descendant.Key("DW"); dw.Kind() == pdf.Integer || dw.Kind() == pdf.Real {
			info.defaultW = dw.Float64()
		}
		parseCIDWidths(descendant.Key("W"), info.widths)
	}
	info.enc = font.Encoder()
	return info
}

// parseCIDWidths reads a CIDFont /W array. Entries are either
// "c [w1 w2 ...]" or "cfirst clast w".
func parseCIDWidths(w pdf.Value, into map[int]float64) {
	for i := 0; i+1 < w.Len(); {
		first := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				into[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			return
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < 0x10000; c++ {
			into[c] = width
		}
		i += 3
	}
}

// Width resolves simple fonts through /Widths and CID fonts through /W and
// /DW. Only the Identity CMaps are supported, so a code is its own CID.
func (f *pageFonts) Width(name string, code int) (w float64) {
	info := f.font(name)
	if info.cid {
		if w, ok := info.widths[code]; ok {
			return w
		}
		return info.defaultW
	}
	defer func() {
		if recover() != nil {
			w = 0
		}
	}()
	return info.font.Width(code)
}

func (f *pageFonts) CodeLength(name string) int {
	return f.font(name).codeLen
}

func (f *pageFonts) Decode(name string, code []byte) (text string) {
	info := f.font(name)
	if info.enc == nil {
		return string(code)
	}
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	return info.enc.Decode(string(code))
}

// glyphRun accumulates glyphs of one word in user space
type glyphRun struct {
	text     strings.Builder
	x0, x1   float64
	baseline float64
	size     float64
}

// segmentWords merges glyphs into words. A word ends at whitespace, a
// baseline change, or a horizontal gap wider than wordGapFactor font sizes.
func segmentWords(glyphs []glyph, box pageBox) []layout.Word {
	var words []layout.Word
	var cur *glyphRun

	flush := func() {
		if cur != nil && cur.text.Len() > 0 {
			words = append(words, cur.word(box))
		}
		cur = nil
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.text, unicode.IsSpace) == "" {
			flush()
			continue
		}
		x0, x1 := math.Min(g.x0, g.x1), math.Max(g.x0, g.x1)
		if cur != nil {
			size := math.Max(cur.size, g.size)
			gap := x0 - cur.x1
			sameLine := math.Abs(g.y-cur.baseline) <= baselineFactor*size
			if !sameLine || gap > wordGapFactor*size || gap < -wordGapFactor*size {
				flush()
			}
		}
		if cur == nil {
			cur = &glyphRun{x0: x0, x1: x1, baseline: g.y, size: g.size}
		}
		cur.text.WriteString(g.text)
		cur.x1 = math.Max(cur.x1, x1)
		cur.size = math.Max(cur.size, g.size)
	}
	flush()

	return words
}

func (g *glyphRun) word(box pageBox) layout.Word {
	return layout.Word{
		Text: g.text.String(),
		BBox: layout.Rect{
			X0: g.x0 - box.llx,
			Y0: box.ury - (g.baseline + ascentFactor*g.size),
			X1: g.x1 - box.llx,
			Y1: box.ury - (g.baseline - descentFactor*g.size),
		},
	}
}

// groupLines splits words, in extraction order, into lines. A line breaks
// when the baseline moves, text runs backwards, or the gap exceeds
// lineGapFactor font sizes.
func groupLines(words []layout.Word) []layout.Line {
	var lines []layout.Line
	var cur layout.Line

	for _, w := range words {
		if n := len(cur.Spans); n > 0 {
			prev := cur.Spans[n-1]
			size := math.Max(prev.BBox.Height(), w.BBox.Height())
			gap := w.BBox.X0 - prev.BBox.X1
			sameBaseline := math.Abs(w.BBox.Y1-prev.BBox.Y1) <= baselineFactor*size
			if !sameBaseline || gap < -size || gap > lineGapFactor*size {
				lines = append(lines, cur)
				cur = layout.Line{}
			}
		}
		cur.Spans = append(cur.Spans, w)
	}
	if len(cur.Spans) > 0 {
		lines = append(lines, cur)
	}
	return lines
}
