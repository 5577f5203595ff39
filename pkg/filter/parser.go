package filter

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// Parse converts a Python-style literal filter string into an Expr.
// Accepted shapes are a single conjunction
//
//	[('col', 'op', value), ...]
//
// or a disjunction of conjunctions
//
//	[[('col', 'op', value), ...], ...]
//
// Predicates may be written as tuples or lists. Literal values are
// single- or double-quoted strings, integers, floats, True, False and
// None; set operators take a list or tuple of those scalars. Anything
// else is a parse error.
func Parse(s string) (Expr, error) {
	p := &parser{src: s}

	lit, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf(p.pos, "unexpected trailing input")
	}

	return buildExpr(lit)
}

// literal is a node of the parsed Python literal tree.
type literal struct {
	isSeq  bool
	scalar interface{} // string, int64, float64, bool or nil
	items  []literal
	offset int
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(offset int, format string, args ...interface{}) error {
	err := errors.Newf(errors.ErrorTypeFilter, format, args...)
	return err.WithDetail("offset", offset)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		p.pos++
	}
}

func (p *parser) parseValue() (literal, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return literal{}, p.errorf(p.pos, "unexpected end of filter")
	}

	start := p.pos
	switch c := p.src[p.pos]; {
	case c == '[':
		return p.parseSequence('[', ']')
	case c == '(':
		return p.parseSequence('(', ')')
	case c == '\'' || c == '"':
		s, err := p.parseString()
		if err != nil {
			return literal{}, err
		}
		return literal{scalar: s, offset: start}, nil
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		n, err := p.parseNumber()
		if err != nil {
			return literal{}, err
		}
		return literal{scalar: n, offset: start}, nil
	default:
		name := p.parseName()
		switch name {
		case "True":
			return literal{scalar: true, offset: start}, nil
		case "False":
			return literal{scalar: false, offset: start}, nil
		case "None":
			return literal{scalar: nil, offset: start}, nil
		case "":
			return literal{}, p.errorf(start, "unexpected character %q", rune(c))
		default:
			return literal{}, p.errorf(start, "invalid token %q", name)
		}
	}
}

func (p *parser) parseSequence(open, close byte) (literal, error) {
	start := p.pos
	p.pos++ // consume opener

	seq := literal{isSeq: true, offset: start}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return literal{}, p.errorf(start, "unterminated %q", rune(open))
		}
		if p.src[p.pos] == close {
			p.pos++
			return seq, nil
		}

		item, err := p.parseValue()
		if err != nil {
			return literal{}, err
		}
		seq.items = append(seq.items, item)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return literal{}, p.errorf(start, "unterminated %q", rune(open))
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++ // trailing comma before the closer is fine
		case close:
		default:
			return literal{}, p.errorf(p.pos, "expected ',' or %q, found %q", rune(close), rune(p.src[p.pos]))
		}
	}
}

func (p *parser) parseString() (string, error) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errorf(start, "unterminated string")
			}
			esc := p.src[p.pos]
			switch esc {
			case '\\', '\'', '"':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '0':
				b.WriteByte(0)
			case 'u':
				if p.pos+4 >= len(p.src) {
					return "", p.errorf(p.pos, "truncated \\u escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", p.errorf(p.pos, "invalid \\u escape")
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				return "", p.errorf(p.pos, "unsupported escape \\%c", esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf(start, "unterminated string")
}

func (p *parser) parseNumber() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '+' || c == '-' || c == '.' || c == '_' ||
			(c >= '0' && c <= '9') || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}

	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return nil, p.errorf(start, "invalid number %q", p.src[start:p.pos])
}

func (p *parser) parseName() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

// buildExpr shape-checks a parsed literal tree into an Expr.
func buildExpr(lit literal) (Expr, error) {
	if !lit.isSeq {
		return nil, structureError(lit.offset, "filter must be a list of conditions")
	}
	if len(lit.items) == 0 {
		return nil, structureError(lit.offset, "filter must not be empty")
	}

	// A condition first element means the whole input is one conjunction.
	if isCondition(lit.items[0]) {
		group, err := buildGroup(lit)
		if err != nil {
			return nil, err
		}
		return Expr{group}, nil
	}

	expr := make(Expr, 0, len(lit.items))
	for _, item := range lit.items {
		group, err := buildGroup(item)
		if err != nil {
			return nil, err
		}
		expr = append(expr, group)
	}
	return expr, nil
}

func buildGroup(lit literal) ([]Predicate, error) {
	if !lit.isSeq || len(lit.items) == 0 {
		return nil, structureError(lit.offset, "expected a list of conditions")
	}
	group := make([]Predicate, 0, len(lit.items))
	for _, item := range lit.items {
		pred, err := buildPredicate(item)
		if err != nil {
			return nil, err
		}
		group = append(group, pred)
	}
	return group, nil
}

func isCondition(lit literal) bool {
	if !lit.isSeq || len(lit.items) != 3 {
		return false
	}
	_, ok := lit.items[0].scalar.(string)
	return ok && !lit.items[0].isSeq
}

func buildPredicate(lit literal) (Predicate, error) {
	if !lit.isSeq || len(lit.items) != 3 {
		return Predicate{}, structureError(lit.offset, "conditions must be (column, op, value) triples")
	}

	column, ok := lit.items[0].scalar.(string)
	if !ok || lit.items[0].isSeq {
		return Predicate{}, structureError(lit.items[0].offset, "condition column must be a string")
	}

	opText, ok := lit.items[1].scalar.(string)
	if !ok || lit.items[1].isSeq {
		return Predicate{}, structureError(lit.items[1].offset, "condition operator must be a string")
	}
	op, err := normalizeOp(opText, lit.items[1].offset)
	if err != nil {
		return Predicate{}, err
	}

	value := lit.items[2]
	if op == OpIn || op == OpNotIn {
		if !value.isSeq {
			return Predicate{}, structureError(value.offset, "%q requires a list of values", op)
		}
		set := make([]interface{}, 0, len(value.items))
		for _, item := range value.items {
			if item.isSeq {
				return Predicate{}, structureError(item.offset, "%q values must be scalars", op)
			}
			set = append(set, item.scalar)
		}
		return Predicate{Column: column, Op: op, Value: set}, nil
	}

	if value.isSeq {
		return Predicate{}, structureError(value.offset, "condition value must be a scalar")
	}
	return Predicate{Column: column, Op: op, Value: value.scalar}, nil
}

func normalizeOp(s string, offset int) (Operator, error) {
	switch Operator(strings.Join(strings.Fields(s), " ")) {
	case OpEqual, "=":
		return OpEqual, nil
	case OpNotEqual:
		return OpNotEqual, nil
	case OpLess:
		return OpLess, nil
	case OpGreater:
		return OpGreater, nil
	case OpLessEqual:
		return OpLessEqual, nil
	case OpGreaterEqual:
		return OpGreaterEqual, nil
	case OpIn:
		return OpIn, nil
	case OpNotIn:
		return OpNotIn, nil
	default:
		return "", structureError(offset, "unknown operator %q", s)
	}
}

func structureError(offset int, format string, args ...interface{}) error {
	err := errors.Newf(errors.ErrorTypeFilter, format, args...)
	return err.WithDetail("offset", offset)
}
