package wrapper

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// operandKind classifies a parsed content stream operand
type operandKind int

const (
	operandNumber operandKind = iota
	operandString
	operandName
	operandArray
	operandOther
)

// operand is one argument of a content stream operation
type operand struct {
	kind  operandKind
	num   float64
	str   []byte
	name  string
	array []operand
}

// operation is an operator with its operands and the byte span it occupies
// in the source stream.
type operation struct {
	operator string
	operands []operand
	start    int
	end      int
}

func isWhite(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// contentParser splits a decoded page content stream into operations
type contentParser struct {
	src []byte
	pos int
}

func parseContent(src []byte) ([]operation, error) {
	p := &contentParser{src: src}
	return p.parse()
}

func (p *contentParser) parse() ([]operation, error) {
	var ops []operation
	var stack []operand
	opStart := -1

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		tokStart := p.pos
		if opStart < 0 {
			opStart = tokStart
		}

		c := p.src[p.pos]
		switch {
		case c == '[':
			p.pos++
			arr, err := p.parseArray()
			if err != nil {
				return nil, err
			}
			stack = append(stack, operand{kind: operandArray, array: arr})
		case c == '(' || c == '<' || c == '/' || isNumberStart(c):
			v, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)
		case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
			return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
		default:
			kw := p.readRegular()
			switch kw {
			case "true", "false", "null":
				stack = append(stack, operand{kind: operandOther})
				continue
			case "BI":
				if err := p.skipInlineImage(); err != nil {
					return nil, err
				}
			}
			ops = append(ops, operation{operator: kw, operands: stack, start: opStart, end: p.pos})
			stack = nil
			opStart = -1
		}
	}

	return ops, nil
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'
}

func (p *contentParser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isWhite(c) {
			p.pos++
			continue
		}
		if c == '%' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' && p.src[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		return
	}
}

func (p *contentParser) readRegular() string {
	start := p.pos
	for p.pos < len(p.src) && !isWhite(p.src[p.pos]) && !isDelim(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		// lone delimiter that cannot start a token, consume it
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *contentParser) parseArray() ([]operand, error) {
	var out []operand
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated array")
		}
		switch c := p.src[p.pos]; {
		case c == ']':
			p.pos++
			return out, nil
		case c == '[':
			p.pos++
			inner, err := p.parseArray()
			if err != nil {
				return nil, err
			}
			out = append(out, operand{kind: operandArray, array: inner})
		case c == '(' || c == '<' || c == '/' || isNumberStart(c):
			v, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		default:
			p.readRegular()
			out = append(out, operand{kind: operandOther})
		}
	}
}

func (p *contentParser) parseOperand() (operand, error) {
	c := p.src[p.pos]
	switch {
	case c == '(':
		s, err := p.readLiteralString()
		return operand{kind: operandString, str: s}, err
	case c == '<':
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '<' {
			err := p.skipDict()
			return operand{kind: operandOther}, err
		}
		s, err := p.readHexString()
		return operand{kind: operandString, str: s}, err
	case c == '/':
		p.pos++
		return operand{kind: operandName, name: p.readRegular()}, nil
	default:
		tok := p.readRegular()
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return operand{}, fmt.Errorf("invalid number %q at offset %d", tok, p.pos)
		}
		return operand{kind: operandNumber, num: f}, nil
	}
}

func (p *contentParser) readLiteralString() ([]byte, error) {
	p.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
			buf.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return buf.Bytes(), nil
			}
			buf.WriteByte(c)
		case '\\':
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("unterminated string escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if p.pos < len(p.src) && p.src[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && p.pos < len(p.src); i++ {
						d := p.src[p.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						p.pos++
					}
					buf.WriteByte(byte(v))
				} else {
					buf.WriteByte(e)
				}
			}
		default:
			buf.WriteByte(c)
		}
	}
	return nil, fmt.Errorf("unterminated string")
}

func (p *contentParser) readHexString() ([]byte, error) {
	p.pos++ // <
	var digits []byte
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				out[i] = unhex(digits[2*i])<<4 | unhex(digits[2*i+1])
			}
			return out, nil
		}
		if isWhite(c) {
			continue
		}
		digits = append(digits, c)
	}
	return nil, fmt.Errorf("unterminated hex string")
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func (p *contentParser) skipDict() error {
	depth := 0
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '<' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '<':
			depth++
			p.pos += 2
		case c == '>' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '>':
			depth--
			p.pos += 2
			if depth == 0 {
				return nil
			}
		case c == '(':
			if _, err := p.readLiteralString(); err != nil {
				return err
			}
		case c == '<':
			if _, err := p.readHexString(); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
	return fmt.Errorf("unterminated dictionary")
}

// skipInlineImage advances past the ID ... EI data of an inline image
func (p *contentParser) skipInlineImage() error {
	idx := bytes.Index(p.src[p.pos:], []byte("ID"))
	if idx < 0 {
		return fmt.Errorf("inline image without ID")
	}
	p.pos += idx + 2
	for i := p.pos; i+1 < len(p.src); i++ {
		if p.src[i] != 'E' || p.src[i+1] != 'I' {
			continue
		}
		before := i == 0 || isWhite(p.src[i-1])
		after := i+2 == len(p.src) || isWhite(p.src[i+2])
		if before && after {
			p.pos = i + 2
			return nil
		}
	}
	return fmt.Errorf("inline image without EI")
}

// formatNumber writes a number the way content streams expect it, rounded
// to four decimals
func formatNumber(f float64) string {
	r := math.Round(f*10000) / 10000
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// formatString writes b as a literal string
func formatString(b []byte) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, c := range b {
		switch {
		case c == '(' || c == ')' || c == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&buf, "\\%03o", c)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
	return buf.String()
}
