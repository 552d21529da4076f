// Package ff implements the finite fields GF(p^r) = GF(p)[X]/(chi) in a power
// basis. It backs point counting over extensions of the base field.
package ff

import (
	"fmt"
	"io"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/tuneinsight/lattigo/v4/ring"
	"github.com/tuneinsight/lattigo/v4/utils"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/poly"
)

// Field is GF(p^r) with chi monic irreducible of degree r.
type Field struct {
	p   uint64
	r   int
	chi []uint64
	q   uint64
}

// Elem holds the r coordinates of an element in the power basis.
type Elem []uint64

// New returns GF(p^r) with a modulus found deterministically from (p, r).
func New(p uint64, r int) (*Field, error) {
	if err := check(p, r); err != nil {
		return nil, err
	}
	prng, err := utils.NewKeyedPRNG([]byte("ff/" + strconv.FormatUint(p, 10) + "/" + strconv.Itoa(r)))
	if err != nil {
		return nil, err
	}
	chi, err := FindIrreducible(p, r, prng)
	if err != nil {
		return nil, err
	}
	return NewWithModulus(p, r, chi)
}

// NewWithModulus builds GF(p)[X]/(chi); chi lists coefficients from the
// constant term up and must be monic irreducible of degree r.
func NewWithModulus(p uint64, r int, chi []uint64) (*Field, error) {
	if err := check(p, r); err != nil {
		return nil, err
	}
	if len(chi) != r+1 {
		return nil, fmt.Errorf("ff: modulus of degree %d for GF(%d^%d): %w", len(chi)-1, p, r, errs.ErrDomain)
	}
	c := make([]uint64, len(chi))
	for i, v := range chi {
		c[i] = v % p
	}
	if c[r] != 1 {
		return nil, fmt.Errorf("ff: modulus is not monic: %w", errs.ErrDomain)
	}
	if !isIrreducible(p, c) {
		return nil, fmt.Errorf("ff: modulus is reducible mod %d: %w", p, errs.ErrDomain)
	}
	q := uint64(1)
	for i := 0; i < r; i++ {
		q *= p
	}
	return &Field{p: p, r: r, chi: c, q: q}, nil
}

func check(p uint64, r int) error {
	if p >= algebra.MaxFieldPrime || !algebra.IsPrime(p) || r < 1 {
		return fmt.Errorf("ff: GF(%d^%d): %w", p, r, errs.ErrDomain)
	}
	// Elements are enumerated by a uint64 index.
	if float64(r)*float64(bits.Len64(p)) > 62 {
		return fmt.Errorf("ff: GF(%d^%d) is too large to enumerate: %w", p, r, errs.ErrDomain)
	}
	return nil
}

// FindIrreducible samples monic polynomials of degree r over GF(p) from rnd
// until one is irreducible.
func FindIrreducible(p uint64, r int, rnd io.Reader) ([]uint64, error) {
	if r == 1 {
		return []uint64{0, 1}, nil
	}
	const maxTries = 1 << 16
	for try := 0; try < maxTries; try++ {
		chi := make([]uint64, r+1)
		chi[r] = 1
		for i := 0; i < r; i++ {
			v, err := randU64(rnd)
			if err != nil {
				return nil, err
			}
			chi[i] = v % p
		}
		if chi[0] != 0 && isIrreducible(p, chi) {
			return chi, nil
		}
	}
	return nil, fmt.Errorf("ff: no irreducible polynomial of degree %d over GF(%d) found", r, p)
}

func randU64(rnd io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return 0, fmt.Errorf("ff: reading randomness: %w", err)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func (f *Field) Char() uint64 { return f.p }
func (f *Field) Degree() int { return f.r }

// Order is p^r.
func (f *Field) Order() uint64 { return f.q }

// Modulus returns a copy of chi.
func (f *Field) Modulus() []uint64 { return append([]uint64(nil), f.chi...) }

func (f *Field) Zero() Elem { return make(Elem, f.r) }

func (f *Field) One() Elem {
	e := f.Zero()
	e[0] = 1
	return e
}

// Embed maps an integer into the prime field.
func (f *Field) Embed(v *big.Int) Elem {
	e := f.Zero()
	e[0] = new(big.Int).Mod(v, new(big.Int).SetUint64(f.p)).Uint64()
	return e
}

// At returns the element whose base-p digits are the coordinates of i.
func (f *Field) At(i uint64) Elem {
	e := f.Zero()
	for k := 0; k < f.r; k++ {
		e[k] = i % f.p
		i /= f.p
	}
	return e
}

// Index inverts At.
func (f *Field) Index(e Elem) uint64 {
	var i uint64
	for k := f.r - 1; k >= 0; k-- {
		i = i*f.p + e[k]
	}
	return i
}

func (f *Field) IsZero(a Elem) bool {
	for _, v := range a {
		if v != 0 {
			return false
		}
	}
	return true
}

func (f *Field) Equal(a, b Elem) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (f *Field) Add(a, b Elem) Elem {
	out := f.Zero()
	for i := range out {
		out[i] = addMod(a[i], b[i], f.p)
	}
	return out
}

func (f *Field) Sub(a, b Elem) Elem {
	out := f.Zero()
	for i := range out {
		out[i] = subMod(a[i], b[i], f.p)
	}
	return out
}

// Mul is schoolbook multiplication followed by reduction modulo chi.
func (f *Field) Mul(a, b Elem) Elem {
	r, p := f.r, f.p
	tmp := make([]uint64, 2*r-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			if y != 0 {
				tmp[i+j] = addMod(tmp[i+j], mulMod(x, y, p), p)
			}
		}
	}
	for k := len(tmp) - 1; k >= r; k-- {
		c := tmp[k]
		if c == 0 {
			continue
		}
		tmp[k] = 0
		for j := 0; j < r; j++ {
			tmp[k-r+j] = subMod(tmp[k-r+j], mulMod(c, f.chi[j], p), p)
		}
	}
	return Elem(tmp[:r:r])
}

// Pow returns a^k for k >= 0.
func (f *Field) Pow(a Elem, k uint64) Elem {
	out := f.One()
	base := a
	for k > 0 {
		if k&1 == 1 {
			out = f.Mul(out, base)
		}
		k >>= 1
		if k > 0 {
			base = f.Mul(base, base)
		}
	}
	return out
}

// Inv returns a^(q-2).
func (f *Field) Inv(a Elem) (Elem, error) {
	if f.IsZero(a) {
		return nil, fmt.Errorf("ff: inverse of 0 in GF(%d^%d): %w", f.p, f.r, errs.ErrNotUnit)
	}
	if f.r == 1 {
		return Elem{ring.ModExp(a[0], f.p-2, f.p)}, nil
	}
	return f.Pow(a, f.q-2), nil
}

// Eval evaluates an integer polynomial at a point of GF(p^r)^n.
func (f *Field) Eval(g *poly.Poly, x []Elem) Elem {
	acc := f.Zero()
	for _, t := range g.Terms() {
		c := f.Embed(t.Coeff)
		if f.IsZero(c) {
			continue
		}
		for i, e := range t.Exp {
			if e > 0 {
				c = f.Mul(c, f.Pow(x[i], uint64(e)))
			}
		}
		acc = f.Add(acc, c)
	}
	return acc
}

func (f *Field) String(a Elem) string {
	s := "["
	for i, v := range a {
		if i > 0 {
			s += " "
		}
		s += strconv.FormatUint(v, 10)
	}
	return s + "]"
}

func addMod(a, b, p uint64) uint64 {
	s := a + b
	if s >= p {
		s -= p
	}
	return s
}

func subMod(a, b, p uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + p - b
}

func mulMod(a, b, p uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, p)
}
