package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-price-redactor/internal/layout"
)

func word(text string, x0, y0, x1, y1 float64) layout.Word {
	return layout.Word{Text: text, BBox: layout.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func texts(words []layout.Word) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, w.Text)
	}
	return out
}

func TestKampanjeSectionContainment(t *testing.T) {
	m := DefaultMargins()
	sections := FindKampanjeSections([]layout.Word{word("Kampanje", 5, 98, 60, 110)}, m)
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, SectionKampanje, s.Kind)
	assert.Equal(t, layout.Rect{X0: 0, Y0: 93, X1: 560, Y1: 140}, s.Rect)

	tests := []struct {
		name string
		w    layout.Word
		want bool
	}{
		{"inside", word("Sommer", 10, 100, 40, 112), true},
		{"far below", word("Neste", 10, 200, 40, 212), false},
		{"bottom edge inclusive", word("Kant", 10, 128, 40, 140), true},
		{"just past bottom edge", word("Kant", 10, 128, 40, 140.01), false},
		{"top edge inclusive", word("Topp", 10, 93, 40, 105), true},
		{"above top edge", word("Topp", 10, 92.9, 40, 105), false},
		{"right edge inclusive", word("Hoyre", 500, 100, 560, 112), true},
		{"overlapping right edge", word("Hoyre", 550, 100, 570, 112), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Contains(tt.w))
		})
	}
}

func TestFindKampanjeSections_ExactWordOnly(t *testing.T) {
	sections := FindKampanjeSections([]layout.Word{
		word(" KAMPANJE ", 5, 10, 60, 20),
		word("Kampanjepris", 5, 300, 60, 310),
		word("kampanje", 5, 400, 60, 410),
	}, DefaultMargins())
	require.Len(t, sections, 2)
	assert.Equal(t, 5.0, sections[0].Rect.Y0)
	assert.Equal(t, 395.0, sections[1].Rect.Y0)
}

func TestIsMVARow(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Herav MVA 125,00", true},
		{"MVA 25 %", true},
		{"MVA-nummer NO123", false},
		{"Totalbeløp uten MVA", true},
		{"Gjennomsnittlig rabatt", true},
		{"Leveringsadresse Oslo", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMVARow(tt.text))
		})
	}
}

func TestFindMVASections(t *testing.T) {
	words := []layout.Word{
		word("Herav", 10, 500, 40, 510),
		word("MVA", 45, 500.02, 70, 511),
		word("125,00", 300, 499.98, 330, 510),
		word("Takk", 10, 600, 40, 610),
	}
	sections := FindMVASections(layout.BuildRows(words), DefaultMargins())
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, SectionMVA, s.Kind)
	assert.InDelta(t, 0, s.Rect.X0, 1e-9)
	assert.InDelta(t, 497.98, s.Rect.Y0, 1e-9)
	assert.InDelta(t, 830, s.Rect.X1, 1e-9)
	assert.InDelta(t, 513, s.Rect.Y1, 1e-9)
}

func TestLocateColumns(t *testing.T) {
	m := DefaultMargins()

	t.Run("no headers", func(t *testing.T) {
		cols := LocateColumns([]layout.Word{word("Vare", 10, 10, 40, 20)}, m)
		assert.False(t, cols.Found())
		assert.False(t, cols.Contains(10, m.ColumnTolerance))
	})

	t.Run("first header wins", func(t *testing.T) {
		cols := LocateColumns([]layout.Word{
			word("PRIS", 300, 50, 320, 60),
			word("Pris", 100, 700, 120, 710),
		}, m)
		require.NotNil(t, cols.Pris)
		assert.Nil(t, cols.Total)
		assert.Equal(t, 300.0, cols.Pris.X)
	})

	t.Run("anchor snaps to numeric content below header", func(t *testing.T) {
		cols := LocateColumns([]layout.Word{
			word("Pris", 300, 50, 320, 60),
			word("Total", 400, 50, 430, 60),
			word("1 234,50", 320, 70, 350, 80),
			word("2 469,00", 410, 70, 440, 80),
			word("Sokker", 305, 75, 330, 85),
		}, m)
		require.NotNil(t, cols.Pris)
		require.NotNil(t, cols.Total)
		assert.Equal(t, 320.0, cols.Pris.X)
		assert.Equal(t, 410.0, cols.Total.X)
	})

	t.Run("scan window is exclusive", func(t *testing.T) {
		cols := LocateColumns([]layout.Word{
			word("Pris", 300, 50, 320, 60),
			word("10", 310, 50, 320, 60),
			word("20", 320, 100, 330, 110),
		}, m)
		require.NotNil(t, cols.Pris)
		assert.Equal(t, 300.0, cols.Pris.X)
	})

	t.Run("total header supplies y without pris", func(t *testing.T) {
		cols := LocateColumns([]layout.Word{
			word("Total", 400, 50, 430, 60),
			word("99", 420, 60.5, 430, 70),
		}, m)
		assert.Nil(t, cols.Pris)
		require.NotNil(t, cols.Total)
		assert.Equal(t, 420.0, cols.Total.X)
	})
}

func TestColumnSectionClassifier_ColumnTolerance(t *testing.T) {
	c := &ColumnSectionClassifier{Margins: DefaultMargins()}
	page := &layout.Page{Number: 1, Words: []layout.Word{
		word("Pris", 300, 50, 320, 60),
		word("450", 310, 200, 330, 210),
		word("990", 350, 220, 370, 230),
		word("AB-305", 305, 240, 335, 250),
	}}

	d := c.Classify(page)
	assert.False(t, d.Skipped)
	require.NotNil(t, d.Columns.Pris)
	assert.Equal(t, 300.0, d.Columns.Pris.X)
	assert.Equal(t, []string{"450"}, texts(d.Flagged))
	assert.Equal(t, []layout.Rect{{X0: 310, Y0: 200, X1: 330, Y1: 210}}, d.Regions())
}

func TestColumnSectionClassifier_Sections(t *testing.T) {
	c := &ColumnSectionClassifier{Margins: DefaultMargins()}
	page := &layout.Page{Number: 2, Words: []layout.Word{
		word("Sokker", 10, 40, 50, 50),
		word("Kampanje", 5, 98, 60, 110),
		word("Sommer", 10, 115, 50, 127),
		word("Herav", 10, 500, 40, 510),
		word("MVA", 45, 500, 70, 510),
		word("125,00", 300, 500, 330, 510),
		word("Takk", 10, 600, 40, 610),
	}}

	d := c.Classify(page)
	assert.Equal(t, 2, d.Page)
	assert.False(t, d.Skipped)
	assert.False(t, d.Columns.Found())
	assert.Len(t, d.Sections, 2)
	assert.ElementsMatch(t, []string{"Kampanje", "Sommer", "Herav", "MVA", "125,00"}, texts(d.Flagged))
}

func TestColumnSectionClassifier_SkipsPlainPage(t *testing.T) {
	c := &ColumnSectionClassifier{Margins: DefaultMargins()}
	d := c.Classify(&layout.Page{Number: 1, Words: []layout.Word{
		word("Leveringsadresse", 10, 10, 90, 20),
		word("450", 300, 50, 320, 60),
	}})
	assert.True(t, d.Skipped)
	assert.Empty(t, d.Flagged)
	assert.Empty(t, d.Regions())
}

func TestLineKeywordClassifier(t *testing.T) {
	c := &LineKeywordClassifier{}
	page := &layout.Page{Number: 1, Lines: []layout.Line{
		{Spans: []layout.Word{word("Totalt:", 10, 100, 40, 110), word("1234,50 kr", 45, 100, 90, 110)}},
		{Spans: []layout.Word{word("Leveringsadresse:", 10, 120, 80, 130), word("Oslo", 85, 120, 105, 130)}},
		{},
	}}

	d := c.Classify(page)
	assert.False(t, d.Skipped)
	assert.Equal(t, []string{"Totalt:", "1234,50 kr"}, texts(d.Flagged))

	d = c.Classify(&layout.Page{Number: 1, Lines: page.Lines[1:]})
	assert.True(t, d.Skipped)
}

func TestNew(t *testing.T) {
	c, err := New(StrategyColumnSection, DefaultMargins())
	require.NoError(t, err)
	assert.Equal(t, StrategyColumnSection, c.Name())

	c, err = New("", DefaultMargins())
	require.NoError(t, err)
	assert.Equal(t, StrategyColumnSection, c.Name())

	c, err = New(StrategyLineKeyword, DefaultMargins())
	require.NoError(t, err)
	assert.Equal(t, StrategyLineKeyword, c.Name())

	_, err = New("simple", DefaultMargins())
	assert.Error(t, err)

	bad := DefaultMargins()
	bad.KampanjeBelow = -1
	_, err = New(StrategyColumnSection, bad)
	assert.ErrorContains(t, err, "kampanje_below")
}
