package orchestration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evaluateExpression evaluates basic arithmetic (+ - * / ^, parentheses,
// unary minus) without ever touching an interpreter. Anything else is a
// parse error.
func evaluateExpression(input string) (float64, error) {
	parser := &exprParser{input: []rune(strings.TrimSpace(input))}
	if len(parser.input) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	value, err := parser.parseExpression()
	if err != nil {
		return 0, err
	}

	parser.skipSpaces()
	if parser.pos != len(parser.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", parser.input[parser.pos], parser.pos)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("expression result is not a number")
	}

	return value, nil
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) parseExpression() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch p.peek() {
		case '+':
			p.pos++
			term, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += term
		case '-':
			p.pos++
			term, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= term
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch p.peek() {
		case '*':
			p.pos++
			factor, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			value *= factor
		case '/':
			p.pos++
			factor, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if factor == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= factor
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	p.skipSpaces()

	switch p.peek() {
	case '-':
		p.pos++
		value, err := p.parseFactor()
		return -value, err
	case '(':
		p.pos++
		value, err := p.parseExpression()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return p.parseExponent(value)
	}

	value, err := p.parseNumber()
	if err != nil {
		return 0, err
	}
	return p.parseExponent(value)
}

func (p *exprParser) parseExponent(base float64) (float64, error) {
	p.skipSpaces()
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++

	// Right-associative.
	exponent, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exponent), nil
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		if p.pos < len(p.input) {
			return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
		}
		return 0, fmt.Errorf("unexpected end of expression")
	}

	value, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", string(p.input[start:p.pos]))
	}
	return value, nil
}

func (p *exprParser) peek() rune {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}
