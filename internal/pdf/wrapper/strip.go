package wrapper

import (
	"bytes"
	"strings"
)

// userRect is a rectangle in PDF user space (origin bottom-left)
type userRect struct {
	llx, lly, urx, ury float64
}

func (r userRect) contains(x, y, tol float64) bool {
	return r.llx-tol <= x && x <= r.urx+tol && r.lly-tol <= y && y <= r.ury+tol
}

// glyphTolerance widens redaction regions when testing glyph centres
const glyphTolerance = 0.5

// textStripper removes glyphs whose centre falls inside any region from a
// page content stream. Removed runs are replaced by TJ displacements so the
// glyphs that stay keep their position.
type textStripper struct {
	textInterpreter
	regions []userRect
	removed int
}

func newTextStripper(metrics fontMetrics, regions []userRect) *textStripper {
	return &textStripper{
		textInterpreter: newTextInterpreter(metrics),
		regions:         regions,
	}
}

// strip rewrites src and reports how many glyphs were removed
func (s *textStripper) strip(src []byte) ([]byte, int, error) {
	ops, err := parseContent(src)
	if err != nil {
		return nil, 0, err
	}

	var out bytes.Buffer
	last := 0
	for _, op := range ops {
		elems, prefix, show := s.step(op)
		if !show {
			continue
		}
		replacement, changed := s.show(elems, prefix)
		if !changed {
			continue
		}
		out.Write(src[last:op.start])
		out.WriteString(replacement)
		last = op.end
	}
	out.Write(src[last:])

	return out.Bytes(), s.removed, nil
}

// tjPart is one element of a rebuilt TJ array
type tjPart struct {
	text  []byte
	shift float64
	isNum bool
}

// show walks the glyphs of a text showing operation. When any glyph lies in a
// region the operation is rebuilt as a TJ array, prefixed by prefix.
func (s *textStripper) show(elems []operand, prefix string) (string, bool) {
	scale := s.gs.size * s.gs.th

	var parts []tjPart
	var gap float64
	dropped := false

	flushGap := func() {
		if gap == 0 {
			return
		}
		if scale != 0 {
			parts = append(parts, tjPart{shift: -gap * 1000 / scale, isNum: true})
		}
		gap = 0
	}
	keep := func(code []byte) {
		flushGap()
		if n := len(parts); n > 0 && !parts[n-1].isNum {
			parts[n-1].text = append(parts[n-1].text, code...)
			return
		}
		parts = append(parts, tjPart{text: append([]byte(nil), code...)})
	}

	s.walk(elems,
		func(shift float64) {
			flushGap()
			parts = append(parts, tjPart{shift: shift, isNum: true})
		},
		func(g glyph) {
			if s.inRegion(g.cx, g.cy) {
				dropped = true
				s.removed++
				gap += g.advance
				return
			}
			keep(g.code)
		},
	)

	if !dropped {
		return "", false
	}
	flushGap()

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('[')
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		if p.isNum {
			b.WriteString(formatNumber(p.shift))
		} else {
			b.WriteString(formatString(p.text))
		}
	}
	b.WriteString("] TJ")
	return b.String(), true
}

func (s *textStripper) inRegion(x, y float64) bool {
	for _, r := range s.regions {
		if r.contains(x, y, glyphTolerance) {
			return true
		}
	}
	return false
}
