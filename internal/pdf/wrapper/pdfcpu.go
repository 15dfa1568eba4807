package wrapper

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pageBox is a page's MediaBox in user space
type pageBox struct {
	llx, lly, urx, ury float64
}

func (b pageBox) width() float64  { return b.urx - b.llx }
func (b pageBox) height() float64 { return b.ury - b.lly }

// defaultBox is used when a page carries no MediaBox (A4)
var defaultBox = pageBox{0, 0, 595.28, 841.89}

// pdfcpuEditor owns the page tree of a document and rewrites page contents
type pdfcpuEditor struct {
	ctx *model.Context
}

func openEditor(path string) (*pdfcpuEditor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open file: %w", err),
		}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &pdfcpuEditor{ctx: ctx}, nil
}

func (e *pdfcpuEditor) pageCount() int {
	return e.ctx.PageCount
}

func (e *pdfcpuEditor) mediaBox(pageNum int) (pageBox, error) {
	_, _, inherited, err := e.ctx.PageDict(pageNum, false)
	if err != nil {
		return pageBox{}, &WrapperError{Library: LibraryPDFCPU, Op: "get_page", Err: err}
	}
	if inherited == nil || inherited.MediaBox == nil {
		return defaultBox, nil
	}
	r := inherited.MediaBox
	return pageBox{llx: r.LL.X, lly: r.LL.Y, urx: r.UR.X, ury: r.UR.Y}, nil
}

// replaceContents swaps the page's content streams for a single new stream
// holding buf.
func (e *pdfcpuEditor) replaceContents(pageNum int, buf []byte) error {
	pageDict, _, _, err := e.ctx.PageDict(pageNum, false)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set_contents", Err: err}
	}
	if pageDict == nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set_contents", Err: ErrInvalidPage.Err}
	}

	sd, err := e.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set_contents", Err: err}
	}
	if err := sd.Encode(); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set_contents", Err: err}
	}
	ir, err := e.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set_contents", Err: err}
	}

	pageDict["Contents"] = *ir
	return nil
}

func (e *pdfcpuEditor) write(path string) error {
	if err := api.WriteContextFile(e.ctx, path); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "save", Err: err}
	}
	return nil
}
