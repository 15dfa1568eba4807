package wrapper

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// fontMetrics supplies glyph widths and text for the fonts named in a
// content stream
type fontMetrics interface {
	// Width returns the glyph width of code in thousandths of text space
	Width(font string, code int) float64
	// CodeLength returns the number of bytes per character code
	CodeLength(font string) int
	// Decode returns the Unicode text of one character code
	Decode(font string, code []byte) string
}

// matrix is a PDF transformation [a b c d e f]
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m followed by n
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

type graphicsState struct {
	ctm   matrix
	font  string
	size  float64
	tc    float64
	tw    float64
	th    float64
	tl    float64
	trise float64
}

// glyph is one shown character code in user space
type glyph struct {
	code []byte
	font string
	text string

	// x0, x1 and y run along the baseline; cx, cy is the point tested
	// against redaction regions
	x0, x1, y float64
	cx, cy    float64
	size      float64
	width     float64 // glyph width in thousandths of text space
	advance   float64 // text space displacement
}

// textInterpreter tracks the graphics and text state of a content stream
type textInterpreter struct {
	metrics fontMetrics

	gs      graphicsState
	stack   []graphicsState
	tm, tlm matrix
}

func newTextInterpreter(metrics fontMetrics) textInterpreter {
	return textInterpreter{
		metrics: metrics,
		gs:      graphicsState{ctm: identity, th: 1},
		tm:      identity,
		tlm:     identity,
	}
}

// step updates the state for op. For text showing operators it returns
// the elements to show and the operators a rebuilt TJ must be prefixed with
// to keep the state changes op made.
func (in *textInterpreter) step(op operation) (elems []operand, prefix string, show bool) {
	args := op.operands
	nums := func(n int) ([]float64, bool) {
		if len(args) < n {
			return nil, false
		}
		out := make([]float64, n)
		for i, a := range args[len(args)-n:] {
			if a.kind != operandNumber {
				return nil, false
			}
			out[i] = a.num
		}
		return out, true
	}

	switch op.operator {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := nums(6); ok {
			in.gs.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(in.gs.ctm)
		}
	case "BT":
		in.tm, in.tlm = identity, identity
	case "Tf":
		if len(args) >= 2 && args[0].kind == operandName && args[1].kind == operandNumber {
			in.gs.font = args[0].name
			in.gs.size = args[1].num
		}
	case "Tc":
		if v, ok := nums(1); ok {
			in.gs.tc = v[0]
		}
	case "Tw":
		if v, ok := nums(1); ok {
			in.gs.tw = v[0]
		}
	case "Tz":
		if v, ok := nums(1); ok {
			in.gs.th = v[0] / 100
		}
	case "TL":
		if v, ok := nums(1); ok {
			in.gs.tl = v[0]
		}
	case "Ts":
		if v, ok := nums(1); ok {
			in.gs.trise = v[0]
		}
	case "Td":
		if v, ok := nums(2); ok {
			in.moveText(v[0], v[1])
		}
	case "TD":
		if v, ok := nums(2); ok {
			in.gs.tl = -v[1]
			in.moveText(v[0], v[1])
		}
	case "Tm":
		if v, ok := nums(6); ok {
			in.tlm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tm = in.tlm
		}
	case "T*":
		in.moveText(0, -in.gs.tl)
	case "Tj":
		if len(args) > 0 && args[len(args)-1].kind == operandString {
			return []operand{args[len(args)-1]}, "", true
		}
	case "'":
		in.moveText(0, -in.gs.tl)
		if len(args) > 0 && args[len(args)-1].kind == operandString {
			return []operand{args[len(args)-1]}, "T* ", true
		}
	case "\"":
		if len(args) >= 3 && args[0].kind == operandNumber && args[1].kind == operandNumber {
			in.gs.tw = args[0].num
			in.gs.tc = args[1].num
			in.moveText(0, -in.gs.tl)
			prefix := formatNumber(args[0].num) + " Tw " + formatNumber(args[1].num) + " Tc T* "
			return []operand{args[2]}, prefix, true
		}
	case "TJ":
		if len(args) > 0 && args[len(args)-1].kind == operandArray {
			return args[len(args)-1].array, "", true
		}
	}
	return nil, "", false
}

func (in *textInterpreter) moveText(tx, ty float64) {
	in.tlm = translate(tx, ty).mul(in.tlm)
	in.tm = in.tlm
}

// walk advances the text matrix over elems, calling onShift for every TJ
// displacement and onGlyph for every character code.
func (in *textInterpreter) walk(elems []operand, onShift func(float64), onGlyph func(glyph)) {
	gs := in.gs
	codeLen := 1
	if in.metrics != nil {
		if n := in.metrics.CodeLength(gs.font); n > 0 {
			codeLen = n
		}
	}

	for _, e := range elems {
		switch e.kind {
		case operandNumber:
			if onShift != nil {
				onShift(e.num)
			}
			tx := -e.num / 1000 * gs.size * gs.th
			in.tm = translate(tx, 0).mul(in.tm)
		case operandString:
			for i := 0; i+codeLen <= len(e.str); i += codeLen {
				code := e.str[i : i+codeLen]
				c := 0
				for _, b := range code {
					c = c<<8 | int(b)
				}
				var w0 float64
				if in.metrics != nil {
					w0 = in.metrics.Width(gs.font, c)
				}

				trm := in.tm.mul(gs.ctm)
				extent := w0 / 1000 * gs.size * gs.th
				g := glyph{code: code, font: gs.font, width: w0}
				g.x0, g.y = trm.apply(0, gs.trise)
				g.x1, _ = trm.apply(extent, gs.trise)
				g.cx, g.cy = trm.apply(extent/2, gs.trise+0.3*gs.size)
				g.size = gs.size * math.Hypot(trm[2], trm[3])

				tx := w0/1000*gs.size + gs.tc
				if codeLen == 1 && c == ' ' {
					tx += gs.tw
				}
				g.advance = tx * gs.th

				if onGlyph != nil {
					onGlyph(g)
				}
				in.tm = translate(g.advance, 0).mul(in.tm)
			}
		}
	}
}

// extractGlyphs interprets a page content stream and returns its glyphs in
// content order with their Unicode text. zeroWidth lists fonts that showed
// visible text without any glyph width, so positions in those fonts cannot
// be trusted.
func extractGlyphs(src []byte, metrics fontMetrics) (glyphs []glyph, zeroWidth []string, err error) {
	ops, err := parseContent(src)
	if err != nil {
		return nil, nil, err
	}

	visible := make(map[string]bool)
	measured := make(map[string]bool)
	in := newTextInterpreter(metrics)
	for _, op := range ops {
		elems, _, show := in.step(op)
		if !show {
			continue
		}
		in.walk(elems, nil, func(g glyph) {
			if metrics != nil {
				g.text = metrics.Decode(g.font, g.code)
			}
			if strings.TrimFunc(g.text, unicode.IsSpace) != "" {
				visible[g.font] = true
				if g.width != 0 {
					measured[g.font] = true
				}
			}
			glyphs = append(glyphs, g)
		})
	}

	for font := range visible {
		if !measured[font] {
			zeroWidth = append(zeroWidth, font)
		}
	}
	sort.Strings(zeroWidth)
	return glyphs, zeroWidth, nil
}
