package classify

import (
	"math"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// Column header names, folded
const (
	HeaderPris  = "pris"
	HeaderTotal = "total"
)

// Column is the horizontal anchor of a price header on one page
type Column struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
}

// Columns holds the anchors found on a page. A nil anchor never matches.
type Columns struct {
	Pris  *Column `json:"pris,omitempty"`
	Total *Column `json:"total,omitempty"`
}

// Found reports whether at least one anchor exists
func (c Columns) Found() bool {
	return c.Pris != nil || c.Total != nil
}

// Contains reports whether x lies within tolerance of any anchor
func (c Columns) Contains(x, tolerance float64) bool {
	for _, col := range c.anchors() {
		if math.Abs(x-col.X) <= tolerance {
			return true
		}
	}
	return false
}

func (c Columns) anchors() []*Column {
	out := make([]*Column, 0, 2)
	if c.Pris != nil {
		out = append(out, c.Pris)
	}
	if c.Total != nil {
		out = append(out, c.Total)
	}
	return out
}

// LocateColumns finds the "Pris" and "Total" header anchors of a page and
// snaps each anchor onto the first numeric content found below it.
//
// The header row y is taken from the "pris" header when present, otherwise
// from the "total" header; both headers are assumed to share a row.
func LocateColumns(words []layout.Word, m Margins) Columns {
	var cols Columns
	var prisY, totalY float64

	for _, w := range words {
		switch foldTrim(w.Text) {
		case HeaderPris:
			if cols.Pris == nil {
				cols.Pris = &Column{Name: HeaderPris, X: w.BBox.X0}
				prisY = w.BBox.Y0
			}
		case HeaderTotal:
			if cols.Total == nil {
				cols.Total = &Column{Name: HeaderTotal, X: w.BBox.X0}
				totalY = w.BBox.Y0
			}
		}
	}
	if !cols.Found() {
		return cols
	}

	headerY := totalY
	if cols.Pris != nil {
		headerY = prisY
	}

	for _, w := range words {
		y := w.BBox.Y0
		if y <= headerY || y >= headerY+m.HeaderScanDepth {
			continue
		}
		if !IsNumeric(w.Text) {
			continue
		}
		for _, col := range cols.anchors() {
			if math.Abs(w.BBox.X0-col.X) <= m.ColumnTolerance {
				col.X = w.BBox.X0
			}
		}
	}

	return cols
}
