package classify

import (
	"math"
	"strings"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// SectionKind tells which anchor produced a section
type SectionKind string

const (
	SectionKampanje SectionKind = "kampanje"
	SectionMVA      SectionKind = "mva"
)

// Section is a page region whose contents are always redacted
type Section struct {
	Kind SectionKind `json:"kind"`
	Rect layout.Rect `json:"rect"`
}

// Contains reports whether the word box lies fully inside the section
func (s Section) Contains(w layout.Word) bool {
	return s.Rect.Contains(w.BBox)
}

// FindKampanjeSections returns one section per "kampanje" label, reaching
// from the left page edge to SectionExtendRight past the label and
// KampanjeBelow under it.
func FindKampanjeSections(words []layout.Word, m Margins) []Section {
	var out []Section
	for _, w := range words {
		if foldTrim(w.Text) != "kampanje" {
			continue
		}
		out = append(out, Section{
			Kind: SectionKampanje,
			Rect: layout.Rect{
				X0: 0,
				Y0: w.BBox.Y0 - m.KampanjeAbove,
				X1: w.BBox.X1 + m.SectionExtendRight,
				Y1: w.BBox.Y1 + m.KampanjeBelow,
			},
		})
	}
	return out
}

// IsMVARow reports whether folded row text is a VAT summary line
func IsMVARow(text string) bool {
	t := Fold(text)
	return strings.Contains(t, "herav mva") ||
		(strings.Contains(t, "mva") && strings.Contains(t, "%")) ||
		strings.Contains(t, "totalbeløp uten mva") ||
		strings.Contains(t, "gjennomsnittlig")
}

// FindMVASections returns one section per VAT summary row
func FindMVASections(rows []layout.Row, m Margins) []Section {
	var out []Section
	for _, row := range rows {
		if len(row.Words) == 0 || !IsMVARow(row.Text()) {
			continue
		}
		minY0, maxX1, maxY1 := math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, w := range row.Words {
			minY0 = math.Min(minY0, w.BBox.Y0)
			maxX1 = math.Max(maxX1, w.BBox.X1)
			maxY1 = math.Max(maxY1, w.BBox.Y1)
		}
		out = append(out, Section{
			Kind: SectionMVA,
			Rect: layout.Rect{
				X0: 0,
				Y0: minY0 - m.MVAPad,
				X1: maxX1 + m.SectionExtendRight,
				Y1: maxY1 + m.MVAPad,
			},
		})
	}
	return out
}
