// Package classify decides which words of a page carry price information.
//
// Two strategies are available. ColumnSectionClassifier anchors on "Pris" and
// "Total" header columns and on "Kampanje" and MVA sections.
// LineKeywordClassifier flags whole text lines that contain a price keyword
// or an amount pattern. A word is flagged when any predicate of the chosen
// strategy flags it.
package classify

import (
	"fmt"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

// Strategy names a classifier implementation
type Strategy string

const (
	StrategyColumnSection Strategy = "column-section"
	StrategyLineKeyword   Strategy = "line-keyword"
)

// Strategies lists the accepted strategy names
func Strategies() []Strategy {
	return []Strategy{StrategyColumnSection, StrategyLineKeyword}
}

// Decision is the per-page classification result
type Decision struct {
	Page     int           `json:"page"`
	Columns  Columns       `json:"columns"`
	Sections []Section     `json:"sections,omitempty"`
	Flagged  []layout.Word `json:"flagged,omitempty"`
	Skipped  bool          `json:"skipped"`
}

// Regions returns the rectangles to blank, one per flagged word
func (d Decision) Regions() []layout.Rect {
	out := make([]layout.Rect, 0, len(d.Flagged))
	for _, w := range d.Flagged {
		out = append(out, w.BBox)
	}
	return out
}

// Classifier produces a redaction decision for one page. Implementations are
// stateless; nothing carries from one page to the next.
type Classifier interface {
	Name() Strategy
	Classify(page *layout.Page) Decision
}

// New returns the classifier for the given strategy
func New(strategy Strategy, m Margins) (Classifier, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch strategy {
	case StrategyColumnSection, "":
		return &ColumnSectionClassifier{Margins: m}, nil
	case StrategyLineKeyword:
		return &LineKeywordClassifier{}, nil
	default:
		return nil, fmt.Errorf("unknown classification strategy %q", strategy)
	}
}

// ColumnSectionClassifier redacts numeric words under price columns and
// everything inside Kampanje and MVA sections.
type ColumnSectionClassifier struct {
	Margins Margins
}

// Name returns the strategy name
func (c *ColumnSectionClassifier) Name() Strategy {
	return StrategyColumnSection
}

// Classify evaluates one page
func (c *ColumnSectionClassifier) Classify(page *layout.Page) Decision {
	d := Decision{Page: page.Number}

	d.Columns = LocateColumns(page.Words, c.Margins)
	rows := layout.BuildRows(page.Words)
	d.Sections = append(d.Sections, FindKampanjeSections(page.Words, c.Margins)...)
	d.Sections = append(d.Sections, FindMVASections(rows, c.Margins)...)

	if !d.Columns.Found() && len(d.Sections) == 0 {
		d.Skipped = true
		return d
	}

	for _, row := range rows {
		for _, w := range row.Words {
			if c.redacts(d, w) {
				d.Flagged = append(d.Flagged, w)
			}
		}
	}
	return d
}

func (c *ColumnSectionClassifier) redacts(d Decision, w layout.Word) bool {
	if IsNumeric(w.Text) && d.Columns.Contains(w.BBox.X0, c.Margins.ColumnTolerance) {
		return true
	}
	for _, s := range d.Sections {
		if s.Contains(w) {
			return true
		}
	}
	return false
}

// LineKeywordClassifier redacts every span of a line whose text matches
// MatchesPricePhrase.
type LineKeywordClassifier struct{}

// Name returns the strategy name
func (c *LineKeywordClassifier) Name() Strategy {
	return StrategyLineKeyword
}

// Classify evaluates one page
func (c *LineKeywordClassifier) Classify(page *layout.Page) Decision {
	d := Decision{Page: page.Number}
	for _, line := range page.Lines {
		if len(line.Spans) == 0 || !MatchesPricePhrase(line.Text()) {
			continue
		}
		d.Flagged = append(d.Flagged, line.Spans...)
	}
	d.Skipped = len(d.Flagged) == 0
	return d
}
