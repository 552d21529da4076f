// Package solve decides whether a family of forms has a common projective
// zero over the algebraic closure of GF(p). Forms with no common zero
// generate every monomial of a large enough degree, so the question reduces
// to the rank of one Macaulay matrix over GF(p).
package solve

import (
	"fmt"
	"math/big"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/matrix"
	"controlledreduction/monomial"
	"controlledreduction/poly"
)

// JacobianDegree is (n+1)(d-2)+1, the degree from which the partials of a
// smooth degree-d form in n+1 variables span every monomial.
func JacobianDegree(nvars, d int) int { return nvars*(d-2) + 1 }

// ToricDegree is (n+1)(d-1)+1, the same bound for n+1 forms of degree d.
func ToricDegree(nvars, d int) int { return nvars*(d-1) + 1 }

// GeneratorsCoverDegree reports whether the forms span all monomials of
// degree D modulo p.
func GeneratorsCoverDegree(gens []*poly.Poly, p uint64, D int) (bool, error) {
	if len(gens) == 0 {
		return false, fmt.Errorf("solve: no generators: %w", errs.ErrDomain)
	}
	field, err := algebra.NewPrimeField(p)
	if err != nil {
		return false, err
	}
	nvars := gens[0].NVars()
	cols := monomial.NewIndex(nvars, D)
	if cols.Len() == 0 {
		return true, nil
	}
	pb := new(big.Int).SetUint64(p)
	var rows [][]uint64
	for _, g := range gens {
		g = g.Mod(pb)
		if g.IsZero() {
			continue
		}
		if !g.IsHomogeneous() {
			return false, fmt.Errorf("solve: generator %s is not homogeneous: %w", g, errs.ErrDomain)
		}
		for _, a := range monomial.Enumerate(nvars, D-g.Degree()) {
			row := make([]uint64, cols.Len())
			for _, t := range g.MulMonomial(a).Terms() {
				row[cols.Rank(t.Exp)] = field.FromBig(t.Coeff)
			}
			rows = append(rows, row)
		}
	}
	if len(rows) < cols.Len() {
		return false, nil
	}
	m, err := matrix.FromRows[uint64](field, rows)
	if err != nil {
		return false, err
	}
	rank, err := matrix.Rank(m)
	if err != nil {
		return false, err
	}
	return rank == cols.Len(), nil
}

// Partials returns dF/dx_i for every variable.
func Partials(f *poly.Poly) []*poly.Poly {
	out := make([]*poly.Poly, f.NVars())
	for i := range out {
		out[i] = f.Derivative(i)
	}
	return out
}

// Thetas returns x_i dF/dx_i for every variable.
func Thetas(f *poly.Poly) []*poly.Poly {
	out := make([]*poly.Poly, f.NVars())
	for i := range out {
		out[i] = f.Theta(i)
	}
	return out
}

func checkForm(f *poly.Poly) error {
	if f.IsZero() || !f.IsHomogeneous() {
		return fmt.Errorf("solve: %s is not a non-zero form: %w", f, errs.ErrDomain)
	}
	return nil
}

// JacobianCovers reports whether the partials of f span every monomial of
// degree JacobianDegree modulo p. For p not dividing deg f this is
// equivalent to smoothness.
func JacobianCovers(f *poly.Poly, p uint64) (bool, error) {
	if err := checkForm(f); err != nil {
		return false, err
	}
	return GeneratorsCoverDegree(Partials(f), p, JacobianDegree(f.NVars(), f.Degree()))
}

// HasSingularPoint reports whether V(f) mod p is singular. When p divides
// the degree the Euler relation no longer puts the zeros of the partials on
// V(f), so f joins the generators.
func HasSingularPoint(f *poly.Poly, p uint64) (bool, error) {
	if err := checkForm(f); err != nil {
		return false, err
	}
	d := f.Degree()
	if uint64(d)%p != 0 {
		ok, err := GeneratorsCoverDegree(Partials(f), p, JacobianDegree(f.NVars(), d))
		return !ok, err
	}
	gens := append(Partials(f), f)
	ok, err := GeneratorsCoverDegree(gens, p, ToricDegree(f.NVars(), d))
	return !ok, err
}

// IsNondegenerate reports whether the forms x_i dF/dx_i have no common
// projective zero modulo p.
func IsNondegenerate(f *poly.Poly, p uint64) (bool, error) {
	if err := checkForm(f); err != nil {
		return false, err
	}
	return GeneratorsCoverDegree(Thetas(f), p, ToricDegree(f.NVars(), f.Degree()))
}

// SingularPoints lists up to limit GF(p)-rational singular points of V(f),
// normalised so the first non-zero coordinate is 1. It walks all of
// P^n(GF(p)) and is meant for diagnostics on small inputs.
func SingularPoints(f *poly.Poly, p uint64, limit int) ([][]uint64, error) {
	if err := checkForm(f); err != nil {
		return nil, err
	}
	n := f.NVars()
	forms := append(Partials(f), f)
	var out [][]uint64
	x := make([]uint64, n)
	for lead := 0; lead < n; lead++ {
		for i := range x {
			x[i] = 0
		}
		x[lead] = 1
		for {
			singular := true
			for _, g := range forms {
				if g.EvalUint(x, p) != 0 {
					singular = false
					break
				}
			}
			if singular {
				pt := make([]uint64, n)
				copy(pt, x)
				out = append(out, pt)
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
			if !nextTail(x[lead+1:], p) {
				break
			}
		}
	}
	return out, nil
}

// nextTail advances x as a base-p counter; false once it wraps to zero.
func nextTail(x []uint64, p uint64) bool {
	for i := len(x) - 1; i >= 0; i-- {
		x[i]++
		if x[i] < p {
			return true
		}
		x[i] = 0
	}
	return false
}
