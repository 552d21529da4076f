// Package poly implements sparse multivariate polynomials with integer
// coefficients. Terms are kept merged, free of zeros and sorted in the
// canonical monomial order, so two equal polynomials have equal term lists.
package poly

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"controlledreduction/errs"
	"controlledreduction/monomial"
)

// Term is a coefficient times a monomial.
type Term struct {
	Exp   monomial.Monomial
	Coeff *big.Int
}

// Poly is a polynomial in NVars variables over Z.
type Poly struct {
	nvars int
	terms []Term
}

// New validates and normalises a list of terms.
func New(nvars int, terms []Term) (*Poly, error) {
	if nvars < 1 {
		return nil, fmt.Errorf("poly: %d variables: %w", nvars, errs.ErrDomain)
	}
	b := newBuilder(nvars)
	for _, t := range terms {
		if len(t.Exp) != nvars {
			return nil, fmt.Errorf("poly: monomial %v has %d exponents, want %d: %w", t.Exp, len(t.Exp), nvars, errs.ErrDimension)
		}
		for _, e := range t.Exp {
			if e < 0 {
				return nil, fmt.Errorf("poly: negative exponent in %v: %w", t.Exp, errs.ErrDomain)
			}
		}
		if t.Coeff == nil {
			return nil, fmt.Errorf("poly: nil coefficient for %v: %w", t.Exp, errs.ErrDomain)
		}
		b.add(t.Exp, t.Coeff)
	}
	return b.poly(), nil
}

// FromInt64 is New with small coefficients given per monomial key order.
func FromInt64(nvars int, coeffs map[string]int64) (*Poly, error) {
	var terms []Term
	for k, c := range coeffs {
		u, err := parseKey(k, nvars)
		if err != nil {
			return nil, err
		}
		terms = append(terms, Term{Exp: u, Coeff: big.NewInt(c)})
	}
	return New(nvars, terms)
}

func parseKey(k string, nvars int) (monomial.Monomial, error) {
	parts := strings.Split(k, ",")
	if len(parts) != nvars {
		return nil, fmt.Errorf("poly: monomial key %q needs %d exponents: %w", k, nvars, errs.ErrDimension)
	}
	u := make(monomial.Monomial, nvars)
	for i, s := range parts {
		if _, err := fmt.Sscan(strings.TrimSpace(s), &u[i]); err != nil || u[i] < 0 {
			return nil, fmt.Errorf("poly: bad exponent %q in %q: %w", s, k, errs.ErrDomain)
		}
	}
	return u, nil
}

// Zero returns the zero polynomial.
func Zero(nvars int) *Poly { return &Poly{nvars: nvars} }

// Constant returns the constant c.
func Constant(nvars int, c *big.Int) *Poly {
	return Single(nvars, make(monomial.Monomial, nvars), c)
}

// Single returns c*x^u.
func Single(nvars int, u monomial.Monomial, c *big.Int) *Poly {
	b := newBuilder(nvars)
	b.add(u, c)
	return b.poly()
}

func (f *Poly) NVars() int { return f.nvars }
func (f *Poly) Len() int   { return len(f.terms) }
func (f *Poly) IsZero() bool {
	return len(f.terms) == 0
}

// Terms returns the terms in canonical order. They must not be modified.
func (f *Poly) Terms() []Term { return f.terms }

// Coeff returns the coefficient of x^u.
func (f *Poly) Coeff(u monomial.Monomial) *big.Int {
	i := sort.Search(len(f.terms), func(i int) bool { return monomial.Compare(f.terms[i].Exp, u) >= 0 })
	if i < len(f.terms) && monomial.Equal(f.terms[i].Exp, u) {
		return new(big.Int).Set(f.terms[i].Coeff)
	}
	return new(big.Int)
}

// Degree is the largest total degree, -1 for zero.
func (f *Poly) Degree() int {
	d := -1
	for _, t := range f.terms {
		d = max(d, t.Exp.Degree())
	}
	return d
}

// IsHomogeneous reports whether all terms share one degree. Zero is homogeneous.
func (f *Poly) IsHomogeneous() bool {
	if len(f.terms) == 0 {
		return true
	}
	d := f.terms[0].Exp.Degree()
	for _, t := range f.terms[1:] {
		if t.Exp.Degree() != d {
			return false
		}
	}
	return true
}

func (f *Poly) Equal(g *Poly) bool {
	if f.nvars != g.nvars || len(f.terms) != len(g.terms) {
		return false
	}
	for i := range f.terms {
		if !monomial.Equal(f.terms[i].Exp, g.terms[i].Exp) || f.terms[i].Coeff.Cmp(g.terms[i].Coeff) != 0 {
			return false
		}
	}
	return true
}

func (f *Poly) String() string { return f.Render() }

// Render writes f with the given variable names, or x0..xn when names is nil.
func (f *Poly) Render(names ...string) string {
	if len(f.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range f.terms {
		c := new(big.Int).Set(t.Coeff)
		switch {
		case c.Sign() < 0:
			b.WriteString(" - ")
			if i == 0 {
				b.Reset()
				b.WriteString("-")
			}
			c.Neg(c)
		case i > 0:
			b.WriteString(" + ")
		}
		mono := t.Exp.Render(names...)
		switch {
		case mono == "1":
			b.WriteString(c.String())
		case c.Cmp(big.NewInt(1)) == 0:
			b.WriteString(mono)
		default:
			b.WriteString(c.String() + "*" + mono)
		}
	}
	return b.String()
}

// builder merges terms keyed by monomial.
type builder struct {
	nvars int
	pos   map[string]int
	terms []Term
}

func newBuilder(nvars int) *builder {
	return &builder{nvars: nvars, pos: map[string]int{}}
}

func (b *builder) add(u monomial.Monomial, c *big.Int) {
	if c.Sign() == 0 {
		return
	}
	k := u.Key()
	if i, ok := b.pos[k]; ok {
		b.terms[i].Coeff.Add(b.terms[i].Coeff, c)
		return
	}
	b.pos[k] = len(b.terms)
	b.terms = append(b.terms, Term{Exp: u.Clone(), Coeff: new(big.Int).Set(c)})
}

func (b *builder) poly() *Poly {
	out := make([]Term, 0, len(b.terms))
	for _, t := range b.terms {
		if t.Coeff.Sign() != 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return monomial.Compare(out[i].Exp, out[j].Exp) < 0 })
	return &Poly{nvars: b.nvars, terms: out}
}
