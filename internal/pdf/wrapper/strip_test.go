package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monoMetrics gives every glyph the same width
type monoMetrics struct {
	width   float64
	codeLen int
}

func (m monoMetrics) Width(string, int) float64 { return m.width }
func (m monoMetrics) CodeLength(string) int {
	if m.codeLen == 0 {
		return 1
	}
	return m.codeLen
}

// Decode reads two byte codes as UTF-16 code units
func (m monoMetrics) Decode(_ string, code []byte) string {
	if len(code) == 2 {
		return string(rune(int(code[0])<<8 | int(code[1])))
	}
	return string(code)
}

var courier = monoMetrics{width: 600}

func TestTextStripper_RemovesGlyphsInRegion(t *testing.T) {
	// "Sokker 450" at 12pt: each glyph is 7.2pt wide, "450" spans 100.4..122
	src := []byte("BT /F1 12 Tf 50 700 Td (Sokker 450) Tj ET")
	region := userRect{llx: 100, lly: 697, urx: 123, ury: 710}

	out, removed, err := newTextStripper(courier, []userRect{region}).strip(src)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, "BT /F1 12 Tf 50 700 Td [(Sokker ) -1800] TJ ET", string(out))
}

func TestTextStripper_KeepsFollowingGlyphsInPlace(t *testing.T) {
	src := []byte("BT /F1 10 Tf 0 0 Td (ab12cd) Tj ET")
	// glyphs are 6pt wide: "12" covers 12..24
	region := userRect{llx: 12, lly: -2, urx: 24, ury: 8}

	out, removed, err := newTextStripper(courier, []userRect{region}).strip(src)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, "BT /F1 10 Tf 0 0 Td [(ab) -1200 (cd)] TJ ET", string(out))
}

func TestTextStripper_LeavesUnrelatedContentUntouched(t *testing.T) {
	src := []byte("q 0.5 g 10 10 50 50 re f Q\nBT /F1 12 Tf 50 700 Td (Lue) Tj ET\n")
	region := userRect{llx: 300, lly: 300, urx: 400, ury: 400}

	out, removed, err := newTextStripper(courier, []userRect{region}).strip(src)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, string(src), string(out))
}

func TestTextStripper_TracksTextAndGraphicsState(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		region  userRect
		removed int
		want    string
	}{
		{
			name:    "cm translation",
			src:     "q 1 0 0 1 100 100 cm BT /F1 10 Tf 0 0 Td (X) Tj ET Q",
			region:  userRect{llx: 99, lly: 99, urx: 107, ury: 109},
			removed: 1,
			want:    "q 1 0 0 1 100 100 cm BT /F1 10 Tf 0 0 Td [-600] TJ ET Q",
		},
		{
			name:    "restored ctm",
			src:     "q 1 0 0 1 100 100 cm Q BT /F1 10 Tf 0 0 Td (X) Tj ET",
			region:  userRect{llx: 99, lly: 99, urx: 107, ury: 109},
			removed: 0,
			want:    "q 1 0 0 1 100 100 cm Q BT /F1 10 Tf 0 0 Td (X) Tj ET",
		},
		{
			name:    "text matrix",
			src:     "BT /F1 10 Tf 1 0 0 1 200 300 Tm (AB) Tj ET",
			region:  userRect{llx: 205, lly: 299, urx: 213, ury: 309},
			removed: 1,
			want:    "BT /F1 10 Tf 1 0 0 1 200 300 Tm [(A) -600] TJ ET",
		},
		{
			name:    "TJ kerning advances",
			src:     "BT /F1 10 Tf 0 0 Td [(A) -1000 (B)] TJ ET",
			region:  userRect{llx: 15, lly: -1, urx: 23, ury: 9},
			removed: 1,
			want:    "BT /F1 10 Tf 0 0 Td [(A) -1000 -600] TJ ET",
		},
		{
			name:    "next line operator",
			src:     "BT /F1 10 Tf 14 TL 0 100 Td (A) Tj (B) ' ET",
			region:  userRect{llx: -1, lly: 85, urx: 7, ury: 95},
			removed: 1,
			want:    "BT /F1 10 Tf 14 TL 0 100 Td (A) Tj T* [-600] TJ ET",
		},
		{
			name:    "two byte codes",
			src:     "BT /F1 10 Tf 0 0 Td <00410042> Tj ET",
			region:  userRect{llx: -1, lly: -1, urx: 7, ury: 9},
			removed: 1,
			want:    "BT /F1 10 Tf 0 0 Td [-600 (\\000B)] TJ ET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := courier
			if tt.name == "two byte codes" {
				metrics = monoMetrics{width: 600, codeLen: 2}
			}
			out, removed, err := newTextStripper(metrics, []userRect{tt.region}).strip([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestTextStripper_SecondPassFindsNothing(t *testing.T) {
	src := []byte("BT /F1 12 Tf 50 700 Td (Sokker 450) Tj ET")
	region := userRect{llx: 100, lly: 697, urx: 123, ury: 710}

	first, removed, err := newTextStripper(courier, []userRect{region}).strip(src)
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	second, removed, err := newTextStripper(courier, []userRect{region}).strip(first)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, string(first), string(second))
}

func TestMatrixMul(t *testing.T) {
	m := translate(10, 20).mul(matrix{2, 0, 0, 2, 0, 0})
	x, y := m.apply(1, 1)
	assert.Equal(t, 22.0, x)
	assert.Equal(t, 42.0, y)
}
