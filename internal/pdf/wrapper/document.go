package wrapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// PDFLibrary implements Library on top of ledongthuc/pdf for text and
// content decoding and pdfcpu for the page tree and serialization.
type PDFLibrary struct {
	config FactoryConfig
}

// Open opens a PDF file with both backends
func (l *PDFLibrary) Open(path string) (Document, error) {
	if err := l.checkFile(path); err != nil {
		return nil, err
	}

	editor, err := openEditor(path)
	if err != nil {
		return nil, err
	}
	text, err := openText(path)
	if err != nil {
		return nil, err
	}

	if n := text.reader.NumPage(); n != editor.pageCount() {
		text.close()
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("%w: page count mismatch (%d vs %d)", ErrMalformedContent.Err, n, editor.pageCount()),
		}
	}

	return &pdfDocument{
		path:   path,
		text:   text,
		editor: editor,
		pages:  make(map[int]*pdfPage),
	}, nil
}

type pdfDocument struct {
	path   string
	text   *ledongthucText
	editor *pdfcpuEditor
	pages  map[int]*pdfPage
	closed bool
}

func (d *pdfDocument) Path() string {
	return d.path
}

func (d *pdfDocument) PageCount() int {
	return d.editor.pageCount()
}

func (d *pdfDocument) Page(pageNum int) (Page, error) {
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if p, ok := d.pages[pageNum]; ok {
		return p, nil
	}
	if pageNum < 1 || pageNum > d.PageCount() {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "get_page",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage.Err, pageNum, d.PageCount()),
		}
	}

	box, err := d.editor.mediaBox(pageNum)
	if err != nil {
		return nil, err
	}
	p := &pdfPage{doc: d, number: pageNum, box: box}
	d.pages[pageNum] = p
	return p, nil
}

// Save writes the document with all page edits to path
func (d *pdfDocument) Save(path string) error {
	if d.closed {
		return ErrDocumentClosed
	}
	for n := 1; n <= d.PageCount(); n++ {
		p, ok := d.pages[n]
		if !ok {
			continue
		}
		if err := p.flush(); err != nil {
			return err
		}
	}
	return d.editor.write(path)
}

func (d *pdfDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.text.close()
}

type fill struct {
	rect  layout.Rect
	color Color
}

type pdfPage struct {
	doc    *pdfDocument
	number int
	box    pageBox

	words  []layout.Word
	lines  []layout.Line
	loaded bool

	fills      []fill
	redactions []layout.Rect
	rewritten  []byte
	dirty      bool
}

func (p *pdfPage) Number() int {
	return p.number
}

func (p *pdfPage) Size() PageSize {
	return PageSize{Width: p.box.width(), Height: p.box.height(), Unit: "pt"}
}

func (p *pdfPage) load() error {
	if p.loaded {
		return nil
	}
	src := p.rewritten
	if src == nil {
		content, err := p.doc.text.content(p.number)
		if err != nil {
			return err
		}
		src = content
	}
	words, err := p.doc.text.words(p.number, src, p.box)
	if err != nil {
		return err
	}
	p.words = words
	p.lines = groupLines(p.words)
	p.loaded = true
	return nil
}

func (p *pdfPage) Words() ([]layout.Word, error) {
	if p.doc.closed {
		return nil, ErrDocumentClosed
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p.words, nil
}

func (p *pdfPage) Lines() ([]layout.Line, error) {
	if p.doc.closed {
		return nil, ErrDocumentClosed
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p.lines, nil
}

func (p *pdfPage) FillRect(rect layout.Rect, color Color) error {
	if p.doc.closed {
		return ErrDocumentClosed
	}
	if rect.IsEmpty() {
		return nil
	}
	p.fills = append(p.fills, fill{rect: rect, color: color})
	p.dirty = true
	return nil
}

func (p *pdfPage) AddRedaction(rect layout.Rect) error {
	if p.doc.closed {
		return ErrDocumentClosed
	}
	if rect.IsEmpty() {
		return nil
	}
	p.redactions = append(p.redactions, rect)
	return nil
}

func (p *pdfPage) ApplyRedactions() (int, error) {
	if p.doc.closed {
		return 0, ErrDocumentClosed
	}
	if len(p.redactions) == 0 {
		return 0, nil
	}

	src := p.rewritten
	if src == nil {
		content, err := p.doc.text.content(p.number)
		if err != nil {
			return 0, err
		}
		src = content
	}
	metrics, err := p.doc.text.metrics(p.number)
	if err != nil {
		return 0, err
	}

	regions := make([]userRect, 0, len(p.redactions))
	for _, r := range p.redactions {
		regions = append(regions, p.toUser(r))
	}

	out, removed, err := newTextStripper(metrics, regions).strip(src)
	if err != nil {
		return 0, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "apply_redactions",
			Err:     errors.Join(ErrMalformedContent.Err, err),
		}
	}

	p.rewritten = out
	for _, r := range p.redactions {
		p.fills = append(p.fills, fill{rect: r, color: White})
	}
	p.redactions = nil
	p.dirty = true
	return removed, nil
}

func (p *pdfPage) toUser(r layout.Rect) userRect {
	return userRect{
		llx: p.box.llx + r.X0,
		lly: p.box.ury - r.Y1,
		urx: p.box.llx + r.X1,
		ury: p.box.ury - r.Y0,
	}
}

// fillStream paints the pending fills inside their own graphics state
func (p *pdfPage) fillStream() []byte {
	if len(p.fills) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("q\n")
	for _, f := range p.fills {
		u := p.toUser(f.rect)
		fmt.Fprintf(&b, "%s %s %s rg\n%s %s %s %s re\nf\n",
			formatNumber(f.color.R), formatNumber(f.color.G), formatNumber(f.color.B),
			formatNumber(u.llx), formatNumber(u.lly),
			formatNumber(u.urx-u.llx), formatNumber(u.ury-u.lly))
	}
	b.WriteString("Q\n")
	return []byte(b.String())
}

// flush writes pending edits into the page's content stream. The page
// content is wrapped in q/Q so fills are painted in the default state.
func (p *pdfPage) flush() error {
	if !p.dirty {
		return nil
	}

	content := p.rewritten
	if content == nil {
		original, err := p.doc.text.content(p.number)
		if err != nil {
			return err
		}
		content = original
	}
	fills := p.fillStream()

	buf := make([]byte, 0, len(content)+len(fills)+8)
	buf = append(buf, "q\n"...)
	buf = append(buf, content...)
	buf = append(buf, "\nQ\n"...)
	buf = append(buf, fills...)

	if err := p.doc.editor.replaceContents(p.number, buf); err != nil {
		return err
	}
	p.dirty = false
	return nil
}
