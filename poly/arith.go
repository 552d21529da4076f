package poly

import (
	"fmt"
	"math/big"

	"controlledreduction/errs"
	"controlledreduction/monomial"
)

func (f *Poly) checkVars(g *Poly) {
	if f.nvars != g.nvars {
		panic(fmt.Sprintf("poly: mixing %d and %d variables", f.nvars, g.nvars))
	}
}

func (f *Poly) Add(g *Poly) *Poly {
	f.checkVars(g)
	b := newBuilder(f.nvars)
	for _, t := range f.terms {
		b.add(t.Exp, t.Coeff)
	}
	for _, t := range g.terms {
		b.add(t.Exp, t.Coeff)
	}
	return b.poly()
}

func (f *Poly) Sub(g *Poly) *Poly { return f.Add(g.Neg()) }

func (f *Poly) Neg() *Poly { return f.ScaleInt(big.NewInt(-1)) }

// ScaleInt multiplies every coefficient by c.
func (f *Poly) ScaleInt(c *big.Int) *Poly {
	b := newBuilder(f.nvars)
	t := new(big.Int)
	for _, term := range f.terms {
		b.add(term.Exp, t.Mul(term.Coeff, c))
	}
	return b.poly()
}

// DivExact divides every coefficient by c, failing unless all are multiples.
func (f *Poly) DivExact(c *big.Int) (*Poly, error) {
	b := newBuilder(f.nvars)
	q, r := new(big.Int), new(big.Int)
	for _, t := range f.terms {
		q.QuoRem(t.Coeff, c, r)
		if r.Sign() != 0 {
			return nil, fmt.Errorf("poly: coefficient %s of %v not divisible by %s: %w", t.Coeff, t.Exp, c, errs.ErrDomain)
		}
		b.add(t.Exp, q)
	}
	return b.poly(), nil
}

func (f *Poly) Mul(g *Poly) *Poly {
	f.checkVars(g)
	b := newBuilder(f.nvars)
	u := make(monomial.Monomial, f.nvars)
	c := new(big.Int)
	for _, s := range f.terms {
		for _, t := range g.terms {
			monomial.Add(u, s.Exp, t.Exp)
			b.add(u, c.Mul(s.Coeff, t.Coeff))
		}
	}
	return b.poly()
}

// Pow returns f^k for k >= 0.
func (f *Poly) Pow(k int) *Poly {
	out := Constant(f.nvars, big.NewInt(1))
	base := f
	for k > 0 {
		if k&1 == 1 {
			out = out.Mul(base)
		}
		k >>= 1
		if k > 0 {
			base = base.Mul(base)
		}
	}
	return out
}

// Mod reduces coefficients into [0, m).
func (f *Poly) Mod(m *big.Int) *Poly {
	b := newBuilder(f.nvars)
	t := new(big.Int)
	for _, term := range f.terms {
		b.add(term.Exp, t.Mod(term.Coeff, m))
	}
	return b.poly()
}

// Derivative returns df/dx_i.
func (f *Poly) Derivative(i int) *Poly {
	b := newBuilder(f.nvars)
	u := make(monomial.Monomial, f.nvars)
	c := new(big.Int)
	for _, t := range f.terms {
		if t.Exp[i] == 0 {
			continue
		}
		copy(u, t.Exp)
		u[i]--
		b.add(u, c.Mul(t.Coeff, big.NewInt(int64(t.Exp[i]))))
	}
	return b.poly()
}

// Theta returns x_i * df/dx_i.
func (f *Poly) Theta(i int) *Poly {
	b := newBuilder(f.nvars)
	c := new(big.Int)
	for _, t := range f.terms {
		if t.Exp[i] == 0 {
			continue
		}
		b.add(t.Exp, c.Mul(t.Coeff, big.NewInt(int64(t.Exp[i]))))
	}
	return b.poly()
}

// PowVars substitutes x_i -> x_i^k, so PowVars(p) is F(x^p).
func (f *Poly) PowVars(k int) *Poly {
	b := newBuilder(f.nvars)
	u := make(monomial.Monomial, f.nvars)
	for _, t := range f.terms {
		monomial.Scale(u, t.Exp, k, nil)
		b.add(u, t.Coeff)
	}
	return b.poly()
}

// MulMonomial returns x^u * f.
func (f *Poly) MulMonomial(u monomial.Monomial) *Poly {
	b := newBuilder(f.nvars)
	v := make(monomial.Monomial, f.nvars)
	for _, t := range f.terms {
		monomial.Add(v, t.Exp, u)
		b.add(v, t.Coeff)
	}
	return b.poly()
}

// EvalMod evaluates f at x modulo m.
func (f *Poly) EvalMod(x []*big.Int, m *big.Int) *big.Int {
	acc := new(big.Int)
	t := new(big.Int)
	for _, term := range f.terms {
		v := new(big.Int).Mod(term.Coeff, m)
		for i, e := range term.Exp {
			if e == 0 {
				continue
			}
			v.Mul(v, t.Exp(x[i], big.NewInt(int64(e)), m))
			v.Mod(v, m)
		}
		acc.Add(acc, v)
	}
	return acc.Mod(acc, m)
}

// EvalUint evaluates f at x modulo a word-sized p.
func (f *Poly) EvalUint(x []uint64, p uint64) uint64 {
	xs := make([]*big.Int, len(x))
	for i, v := range x {
		xs[i] = new(big.Int).SetUint64(v)
	}
	return f.EvalMod(xs, new(big.Int).SetUint64(p)).Uint64()
}
