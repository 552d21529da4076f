// Package upoly implements dense univariate polynomials over Q. It backs the
// exact Riemann-hypothesis check, the Picard bound and the point counts
// derived from a zeta numerator.
package upoly

import (
	"fmt"
	"math/big"
	"strings"
)

// Poly holds coefficients in increasing degree: p[i] is the coefficient of x^i.
// The zero polynomial is the empty slice.
type Poly []*big.Rat

// FromInts builds a polynomial from integer coefficients.
func FromInts(coeffs []*big.Int) Poly {
	out := make(Poly, len(coeffs))
	for i, c := range coeffs {
		out[i] = new(big.Rat).SetInt(c)
	}
	return out.trim()
}

// FromInt64s builds a polynomial from small integer coefficients.
func FromInt64s(coeffs ...int64) Poly {
	out := make(Poly, len(coeffs))
	for i, c := range coeffs {
		out[i] = big.NewRat(c, 1)
	}
	return out.trim()
}

func (p Poly) trim() Poly {
	n := len(p)
	for n > 0 && (p[n-1] == nil || p[n-1].Sign() == 0) {
		n--
	}
	return p[:n]
}

// Degree returns -1 for the zero polynomial.
func (p Poly) Degree() int { return len(p.trim()) - 1 }

func (p Poly) IsZero() bool { return len(p.trim()) == 0 }

// Coeff returns the coefficient of x^i (zero outside the support).
func (p Poly) Coeff(i int) *big.Rat {
	if i < 0 || i >= len(p) || p[i] == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(p[i])
}

// Lead returns the leading coefficient; zero for the zero polynomial.
func (p Poly) Lead() *big.Rat {
	q := p.trim()
	if len(q) == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).Set(q[len(q)-1])
}

func (p Poly) Clone() Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		if c == nil {
			out[i] = new(big.Rat)
			continue
		}
		out[i] = new(big.Rat).Set(c)
	}
	return out
}

func zeros(n int) Poly {
	out := make(Poly, n)
	for i := range out {
		out[i] = new(big.Rat)
	}
	return out
}

func Add(a, b Poly) Poly {
	n := max(len(a), len(b))
	out := zeros(n)
	for i := 0; i < n; i++ {
		out[i].Add(a.Coeff(i), b.Coeff(i))
	}
	return out.trim()
}

func Sub(a, b Poly) Poly {
	n := max(len(a), len(b))
	out := zeros(n)
	for i := 0; i < n; i++ {
		out[i].Sub(a.Coeff(i), b.Coeff(i))
	}
	return out.trim()
}

func Mul(a, b Poly) Poly {
	a, b = a.trim(), b.trim()
	if len(a) == 0 || len(b) == 0 {
		return Poly{}
	}
	out := zeros(len(a) + len(b) - 1)
	t := new(big.Rat)
	for i, x := range a {
		if x.Sign() == 0 {
			continue
		}
		for j, y := range b {
			out[i+j].Add(out[i+j], t.Mul(x, y))
		}
	}
	return out.trim()
}

// Scale multiplies every coefficient by c.
func Scale(a Poly, c *big.Rat) Poly {
	out := a.Clone()
	for _, x := range out {
		x.Mul(x, c)
	}
	return out.trim()
}

// DivMod returns q, r with a = q*b + r and deg r < deg b.
func DivMod(a, b Poly) (Poly, Poly, error) {
	b = b.trim()
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("upoly: division by zero polynomial")
	}
	r := a.trim().Clone()
	if len(r) < len(b) {
		return Poly{}, r, nil
	}
	q := zeros(len(r) - len(b) + 1)
	lead := b[len(b)-1]
	t := new(big.Rat)
	for i := len(r) - 1; i >= len(b)-1; i-- {
		if r[i].Sign() == 0 {
			continue
		}
		c := new(big.Rat).Quo(r[i], lead)
		q[i-len(b)+1] = c
		for j := range b {
			k := i - len(b) + 1 + j
			r[k].Sub(r[k], t.Mul(c, b[j]))
		}
	}
	return q.trim(), r[:len(b)-1].trim(), nil
}

// Monic scales p so its leading coefficient is one.
func Monic(p Poly) Poly {
	p = p.trim()
	if len(p) == 0 {
		return p
	}
	inv := new(big.Rat).Inv(p[len(p)-1])
	return Scale(p, inv)
}

// GCD returns the monic greatest common divisor.
func GCD(a, b Poly) Poly {
	a, b = a.trim().Clone(), b.trim().Clone()
	for len(b) > 0 {
		_, r, _ := DivMod(a, b)
		a, b = b, r
	}
	return Monic(a)
}

func Derivative(p Poly) Poly {
	p = p.trim()
	if len(p) <= 1 {
		return Poly{}
	}
	out := zeros(len(p) - 1)
	for i := 1; i < len(p); i++ {
		out[i-1].Mul(p[i], big.NewRat(int64(i), 1))
	}
	return out.trim()
}

// SquareFree returns p / gcd(p, p').
func SquareFree(p Poly) Poly {
	g := GCD(p, Derivative(p))
	if g.Degree() <= 0 {
		return Monic(p)
	}
	q, _, _ := DivMod(p, g)
	return Monic(q)
}

// Eval evaluates p at x with Horner's rule.
func (p Poly) Eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		if p[i] != nil {
			acc.Add(acc, p[i])
		}
	}
	return acc
}

// Reverse returns x^deg * p(1/x).
func Reverse(p Poly) Poly {
	p = p.trim()
	out := make(Poly, len(p))
	for i := range p {
		out[len(p)-1-i] = new(big.Rat).Set(p[i])
	}
	return out.trim()
}

// ScaleVar returns p(c*x).
func ScaleVar(p Poly, c *big.Rat) Poly {
	out := p.trim().Clone()
	pow := big.NewRat(1, 1)
	for _, x := range out {
		x.Mul(x, pow)
		pow = new(big.Rat).Mul(pow, c)
	}
	return out.trim()
}

// Even returns q with q(x^2) = p(x) when p only has even powers.
func Even(p Poly) (Poly, error) {
	p = p.trim()
	out := zeros((len(p) + 1) / 2)
	for i, c := range p {
		if i%2 == 1 {
			if c.Sign() != 0 {
				return nil, fmt.Errorf("upoly: odd coefficient at degree %d", i)
			}
			continue
		}
		out[i/2].Set(c)
	}
	return out.trim(), nil
}

// Negate returns p(-x).
func Negate(p Poly) Poly {
	return ScaleVar(p, big.NewRat(-1, 1))
}

func (p Poly) String() string {
	p = p.trim()
	if len(p) == 0 {
		return "0"
	}
	var b strings.Builder
	one := big.NewRat(1, 1)
	for i := len(p) - 1; i >= 0; i-- {
		c := new(big.Rat).Set(p[i])
		if c.Sign() == 0 {
			continue
		}
		switch {
		case b.Len() == 0 && c.Sign() < 0:
			b.WriteString("-")
			c.Neg(c)
		case c.Sign() < 0:
			b.WriteString(" - ")
			c.Neg(c)
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		switch {
		case i == 0:
			b.WriteString(c.RatString())
			continue
		case c.Cmp(one) != 0:
			b.WriteString(c.RatString() + "*")
		}
		b.WriteString("x")
		if i > 1 {
			fmt.Fprintf(&b, "^%d", i)
		}
	}
	return b.String()
}
