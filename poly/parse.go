package poly

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"controlledreduction/errs"
	"controlledreduction/monomial"
)

// Parse reads a polynomial such as "x^3 + y^3 + z^3 - 3*x*y*z". When vars is
// empty the variables must be named x0, x1, ... and their count is the
// largest index plus one.
func Parse(s string, vars []string) (*Poly, error) {
	names := map[string]int{}
	nvars := len(vars)
	for i, v := range vars {
		names[v] = i
	}
	if nvars == 0 {
		nvars = maxIndexedVar(s) + 1
		if nvars < 1 {
			return nil, fmt.Errorf("poly: no variables in %q: %w", s, errs.ErrDomain)
		}
		for i := 0; i < nvars; i++ {
			names["x"+strconv.Itoa(i)] = i
		}
	}
	ps := &parser{src: s, names: names, nvars: nvars}
	terms, err := ps.parse()
	if err != nil {
		return nil, err
	}
	return New(nvars, terms)
}

func maxIndexedVar(s string) int {
	best := -1
	for i := 0; i < len(s); i++ {
		if s[i] != 'x' || (i > 0 && (s[i-1] == '_' || unicode.IsLetter(rune(s[i-1])))) {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i+1 {
			continue
		}
		if j < len(s) && isIdent(rune(s[j])) {
			continue
		}
		if n, err := strconv.Atoi(s[i+1 : j]); err == nil {
			best = max(best, n)
		}
	}
	return best
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	src   string
	pos   int
	names map[string]int
	nvars int
}

func (p *parser) errorf(format string, a ...any) error {
	return fmt.Errorf("poly: parse %q at offset %d: %s: %w", p.src, p.pos, fmt.Sprintf(format, a...), errs.ErrDomain)
}

func (p *parser) skip() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parse() ([]Term, error) {
	var terms []Term
	first := true
	for {
		c := p.peek()
		if c == 0 {
			if first {
				return nil, p.errorf("empty polynomial")
			}
			return terms, nil
		}
		sign := int64(1)
		switch c {
		case '+':
			p.pos++
		case '-':
			sign = -1
			p.pos++
		default:
			if !first {
				return nil, p.errorf("expected + or -")
			}
		}
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		t.Coeff.Mul(t.Coeff, big.NewInt(sign))
		terms = append(terms, t)
		first = false
	}
}

func (p *parser) term() (Term, error) {
	coeff := big.NewInt(1)
	exp := make(monomial.Monomial, p.nvars)
	factors := 0
	for {
		c := p.peek()
		switch {
		case c >= '0' && c <= '9':
			n, err := p.integer()
			if err != nil {
				return Term{}, err
			}
			coeff.Mul(coeff, n)
		case c == '_' || (c < 0x80 && unicode.IsLetter(rune(c))):
			start := p.pos
			for p.pos < len(p.src) && isIdent(rune(p.src[p.pos])) {
				p.pos++
			}
			name := p.src[start:p.pos]
			idx, ok := p.names[name]
			if !ok {
				p.pos = start
				return Term{}, p.errorf("unknown variable %q", name)
			}
			e := 1
			if p.peek() == '^' || strings.HasPrefix(p.src[p.pos:], "**") {
				if p.src[p.pos] == '^' {
					p.pos++
				} else {
					p.pos += 2
				}
				p.skip()
				n, err := p.integer()
				if err != nil {
					return Term{}, err
				}
				if !n.IsInt64() || n.Int64() > 1<<20 {
					return Term{}, p.errorf("exponent %s too large", n)
				}
				e = int(n.Int64())
			}
			exp[idx] += e
		default:
			if factors == 0 {
				return Term{}, p.errorf("expected a coefficient or variable")
			}
			return Term{Exp: exp, Coeff: coeff}, nil
		}
		factors++
		if p.peek() == '*' && !strings.HasPrefix(p.src[p.pos:], "**") {
			p.pos++
			if c := p.peek(); c == 0 || c == '+' || c == '-' || c == '*' {
				return Term{}, p.errorf("dangling *")
			}
		}
	}
}

func (p *parser) integer() (*big.Int, error) {
	p.skip()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return nil, p.errorf("expected an integer")
	}
	n, ok := new(big.Int).SetString(p.src[start:p.pos], 10)
	if !ok {
		return nil, p.errorf("bad integer")
	}
	return n, nil
}
