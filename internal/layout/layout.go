// Package layout holds the positioned-text model shared by the PDF wrapper and
// the classifiers, and groups words into rows.
//
// All coordinates are in top-down page space: the origin is the top-left
// corner of the page's MediaBox and y grows downward, so Y0 is the top edge of
// a box and Y1 its bottom edge.
package layout

import (
	"math"
	"sort"
	"strings"
)

// Rect is an axis-aligned rectangle in top-down page space
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Contains reports whether o lies fully inside r. Bounds are inclusive.
func (r Rect) Contains(o Rect) bool {
	return r.X0 <= o.X0 && o.X1 <= r.X1 && r.Y0 <= o.Y0 && o.Y1 <= r.Y1
}

// Union returns the smallest rectangle covering both r and o
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Word is a contiguous run of text with a single bounding box
type Word struct {
	Text string `json:"text"`
	BBox Rect   `json:"bbox"`
}

// Line is a run of spans the text layer reports as one line of text
type Line struct {
	Spans []Word `json:"spans"`
}

// Text joins the span texts with single spaces
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// BBox returns the union of all span boxes
func (l Line) BBox() Rect {
	if len(l.Spans) == 0 {
		return Rect{}
	}
	box := l.Spans[0].BBox
	for _, s := range l.Spans[1:] {
		box = box.Union(s.BBox)
	}
	return box
}

// Page is the positioned text of a single page
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Words  []Word  `json:"words"`
	Lines  []Line  `json:"lines"`
}

// Row is a group of words sharing a quantized y coordinate, ordered by x0
type Row struct {
	Y     float64
	Words []Word
}

// Text joins the word texts of the row with single spaces
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Words))
	for _, w := range r.Words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// BBox returns the union of the word boxes in the row
func (r Row) BBox() Rect {
	return Line{Spans: r.Words}.BBox()
}

// RowQuantum is the resolution used to decide that two words share a row
const RowQuantum = 0.1

// QuantizeY rounds y to the nearest RowQuantum
func QuantizeY(y float64) float64 {
	return math.Round(y/RowQuantum) * RowQuantum
}

// BuildRows groups words by their quantized top edge. Rows are returned in
// ascending y order; inside a row words are sorted by x0, keeping extraction
// order for equal x0.
func BuildRows(words []Word) []Row {
	if len(words) == 0 {
		return nil
	}

	index := make(map[int64]int)
	var rows []Row
	for _, w := range words {
		key := int64(math.Round(w.BBox.Y0 / RowQuantum))
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{Y: QuantizeY(w.BBox.Y0)})
		}
		rows[i].Words = append(rows[i].Words, w)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Y < rows[j].Y
	})
	for i := range rows {
		ws := rows[i].Words
		sort.SliceStable(ws, func(a, b int) bool {
			return ws[a].BBox.X0 < ws[b].BBox.X0
		})
	}

	return rows
}
