package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fontTable gives each font its own metrics
type fontTable map[string]monoMetrics

func (t fontTable) Width(font string, code int) float64 { return t[font].Width(font, code) }
func (t fontTable) CodeLength(font string) int { return t[font].CodeLength(font) }
func (t fontTable) Decode(font string, code []byte) string {
	return t[font].Decode(font, code)
}

func glyphText(gs []glyph) string {
	var out []rune
	for _, g := range gs {
		out = append(out, []rune(g.text)...)
	}
	return string(out)
}

func TestExtractGlyphs_Positions(t *testing.T) {
	src := []byte("BT /F1 10 Tf 100 200 Td (Ab) Tj 0 -20 Td [(C) -1000 (D)] TJ ET")

	glyphs, zeroWidth, err := extractGlyphs(src, courier)
	require.NoError(t, err)
	assert.Empty(t, zeroWidth)
	require.Equal(t, "AbCD", glyphText(glyphs))

	// 600 units at 10pt is 6pt per glyph
	assert.InDelta(t, 100, glyphs[0].x0, 1e-9)
	assert.InDelta(t, 106, glyphs[0].x1, 1e-9)
	assert.InDelta(t, 106, glyphs[1].x0, 1e-9)
	assert.InDelta(t, 200, glyphs[1].y, 1e-9)

	// Td is relative to the start of the line, the TJ shift moves D by 10pt
	assert.InDelta(t, 100, glyphs[2].x0, 1e-9)
	assert.InDelta(t, 180, glyphs[2].y, 1e-9)
	assert.InDelta(t, 116, glyphs[3].x0, 1e-9)
	assert.InDelta(t, 10, glyphs[3].size, 1e-9)
}

func TestExtractGlyphs_TransformsScaleSize(t *testing.T) {
	src := []byte("q 2 0 0 2 10 10 cm BT /F1 10 Tf 5 5 Td (X) Tj ET Q")

	glyphs, _, err := extractGlyphs(src, courier)
	require.NoError(t, err)
	require.Len(t, glyphs, 1)
	assert.InDelta(t, 20, glyphs[0].x0, 1e-9)
	assert.InDelta(t, 32, glyphs[0].x1, 1e-9)
	assert.InDelta(t, 20, glyphs[0].y, 1e-9)
	assert.InDelta(t, 20, glyphs[0].size, 1e-9)
}

func TestExtractGlyphs_TwoByteCodes(t *testing.T) {
	fonts := fontTable{"F2": {width: 500, codeLen: 2}}
	src := []byte("BT /F2 10 Tf 0 0 Td <00500072006900730020> Tj ET")

	glyphs, _, err := extractGlyphs(src, fonts)
	require.NoError(t, err)
	require.Len(t, glyphs, 5)
	assert.Equal(t, "Pris ", glyphText(glyphs))
	assert.InDelta(t, 15, glyphs[3].x0, 1e-9)
	assert.InDelta(t, 20, glyphs[3].x1, 1e-9)
}

func TestExtractGlyphs_ReportsFontsWithoutWidths(t *testing.T) {
	fonts := fontTable{
		"F1": courier,
		"F2": {width: 0},
		"F3": {width: 0},
	}
	// F3 only shows spaces, which need no width
	src := []byte("BT /F1 10 Tf (ok) Tj /F2 10 Tf (450) Tj /F3 10 Tf (  ) Tj ET")

	glyphs, zeroWidth, err := extractGlyphs(src, fonts)
	require.NoError(t, err)
	assert.Len(t, glyphs, 7)
	assert.Equal(t, []string{"F2"}, zeroWidth)
}

func TestExtractGlyphs_MalformedContent(t *testing.T) {
	_, _, err := extractGlyphs([]byte("BT (unterminated Tj ET"), courier)
	assert.Error(t, err)
}

func TestSegmentWords_FollowsExtractedGlyphs(t *testing.T) {
	src := []byte("BT /F1 12 Tf 50 700 Td (Sokker 450) Tj ET")
	glyphs, _, err := extractGlyphs(src, courier)
	require.NoError(t, err)

	words := segmentWords(glyphs, pageBox{0, 0, 595, 842})
	require.Equal(t, []string{"Sokker", "450"}, wordTexts(words))
	assert.InDelta(t, 100.4, words[1].BBox.X0, 1e-6)
	assert.InDelta(t, 122.0, words[1].BBox.X1, 1e-6)
}
