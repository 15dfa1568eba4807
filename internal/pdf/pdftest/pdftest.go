// Package pdftest builds small text-only PDF documents for tests.
//
// Every page is A4 portrait (595 x 842 pt) and uses a single monospaced
// font whose glyphs are all 600 units wide, so a glyph at size 12 is 7.2 pt
// wide. The font is a simple Type1 font by default; BuildWith can use a
// Type0 font with two byte codes instead.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	PageWidth  = 595.0
	PageHeight = 842.0
	GlyphWidth = 600.0
)

// Font selects the font resource of a generated document
type Font int

const (
	// Courier is a simple Type1 font with a /Widths array
	Courier Font = iota
	// CIDCourier is a Type0 font with Identity-H encoding, a CIDFont /W
	// array and a ToUnicode CMap
	CIDCourier
	// BareHelvetica is a standard font without /Widths
	BareHelvetica
)

// Text is a string drawn with its baseline origin at (X, Y) in PDF user
// space (origin bottom-left).
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// At places s so the top of its 12 pt box sits at top in top-down page
// coordinates, matching the word boxes the wrapper reports.
func At(x, top float64, s string) Text {
	const size = 12
	return Text{X: x, Y: PageHeight - top - 0.8*size, Size: size, S: s}
}

// Content renders the content stream for one page
func Content(texts []Text) string {
	return content(Courier, texts)
}

func content(font Font, texts []Text) string {
	var b strings.Builder
	for _, t := range texts {
		size := t.Size
		if size == 0 {
			size = 12
		}
		str := escape(t.S)
		if font == CIDCourier {
			str = hexCodes(t.S)
		}
		fmt.Fprintf(&b, "BT\n/F1 %g Tf\n%g %g Td\n%s Tj\nET\n", size, t.X, t.Y, str)
	}
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// hexCodes encodes s as two byte codes equal to its code points
func hexCodes(s string) string {
	var b strings.Builder
	b.WriteByte('<')
	for _, r := range s {
		fmt.Fprintf(&b, "%04X", r)
	}
	b.WriteByte('>')
	return b.String()
}

// Build returns a complete PDF with one page per entry
func Build(pages ...[]Text) []byte {
	return BuildWith(Courier, pages...)
}

// BuildWith is Build with the given font
func BuildWith(font Font, pages ...[]Text) []byte {
	if len(pages) == 0 {
		pages = [][]Text{nil}
	}

	var objects []string
	// 1 catalog, 2 pages, 3 font, then page/content pairs, then font parts
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(font, 4+2*len(pages)),
	)
	for i, texts := range pages {
		stream := content(font, texts)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				PageWidth, PageHeight, 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		)
	}

	objects = append(objects, fontParts(font)...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// toUnicode maps two byte codes to the same code points
const toUnicode = `begincmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0020> <00FF> <0020>
endbfrange
endcmap
`

// fontObject returns the font dictionary. Objects the font refers to start
// at object number next.
func fontObject(font Font, next int) string {
	switch font {
	case CIDCourier:
		return fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /Courier /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>",
			next, next+1)
	case BareHelvetica:
		return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	}

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprintf("%g", GlyphWidth))
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /FirstChar 32 /LastChar 126 /Widths [%s] /Encoding /WinAnsiEncoding >>",
		strings.Join(widths, " "))
}

// fontParts returns the objects following the pages that fontObject refers to
func fontParts(font Font) []string {
	if font != CIDCourier {
		return nil
	}
	return []string{
		fmt.Sprintf("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /Courier /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW 1000 /W [32 255 %g] >>",
			GlyphWidth),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(toUnicode), toUnicode),
	}
}

// Write stores a generated PDF at dir/name and returns its path
func Write(tb testing.TB, dir, name string, pages ...[]Text) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildWith(Courier, pages...), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteWith is Write with the given font
func WriteWith(tb testing.TB, font Font, dir, name string, pages ...[]Text) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildWith(font, pages...), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
