// Package conv moves values between Z, Z/p^N and Q: residues, symmetric
// lifts, rational reconstruction and CRT recomposition.
package conv

import (
	"fmt"
	"math/big"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/matrix"
)

// ToResidue reduces an integer into the ring.
func ToResidue[E any](r algebra.Ring[E], x *big.Int) E {
	return r.FromBig(x)
}

// SymmetricLift maps x mod m to the representative in (-m/2, m/2].
func SymmetricLift(x, m *big.Int) *big.Int {
	out := new(big.Int).Mod(x, m)
	half := new(big.Int).Rsh(m, 1)
	if out.Cmp(half) > 0 {
		out.Sub(out, m)
	}
	return out
}

// Lift returns the symmetric integer representative of a residue.
func Lift[E any](r algebra.PAdic[E], a E) *big.Int {
	return SymmetricLift(r.Lift(a), r.Modulus())
}

// RatToPAdic embeds a rational whose denominator is prime to p.
func RatToPAdic[E any](r algebra.PAdic[E], q *big.Rat) (E, error) {
	den := r.FromBig(q.Denom())
	inv, err := r.Inv(den)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("conv: %s has p=%d in its denominator: %w", q.RatString(), r.Prime(), errs.ErrDomain)
	}
	return r.Mul(r.FromBig(q.Num()), inv), nil
}

// PAdicToRat recovers a/b from x = a/b mod m with |a|, |b| <= sqrt(m/2) by
// the half extended Euclidean algorithm.
func PAdicToRat(x, m *big.Int) (*big.Rat, error) {
	bound := new(big.Int).Rsh(m, 1)
	bound.Sqrt(bound)
	r0, r1 := new(big.Int).Set(m), new(big.Int).Mod(x, m)
	t0, t1 := new(big.Int), big.NewInt(1)
	q, tmp := new(big.Int), new(big.Int)
	for r1.Cmp(bound) > 0 {
		q.Quo(r0, r1)
		tmp.Mul(q, r1)
		r0, r1 = r1, new(big.Int).Sub(r0, tmp)
		tmp.Mul(q, t1)
		t0, t1 = t1, new(big.Int).Sub(t0, tmp)
	}
	if t1.Sign() == 0 || new(big.Int).Abs(t1).Cmp(bound) > 0 {
		return nil, fmt.Errorf("conv: no rational with bounded height is %s mod %s: %w", x, m, errs.ErrDomain)
	}
	if new(big.Int).GCD(nil, nil, new(big.Int).Abs(t1), m).Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("conv: reconstructed denominator shares a factor with %s: %w", m, errs.ErrDomain)
	}
	return new(big.Rat).SetFrac(r1, t1), nil
}

// CRT performs Garner recomposition of residues modulo pairwise coprime
// moduli and returns the representative in [0, prod moduli).
func CRT(residues, moduli []*big.Int) (*big.Int, error) {
	if len(residues) != len(moduli) || len(moduli) == 0 {
		return nil, fmt.Errorf("conv: %d residues for %d moduli: %w", len(residues), len(moduli), errs.ErrDimension)
	}
	x := new(big.Int).Mod(residues[0], moduli[0])
	M := new(big.Int).Set(moduli[0])
	tmp := new(big.Int)
	for i := 1; i < len(residues); i++ {
		t := new(big.Int).Sub(residues[i], x)
		t.Mod(t, moduli[i])
		inv := new(big.Int).ModInverse(new(big.Int).Mod(M, moduli[i]), moduli[i])
		if inv == nil {
			return nil, fmt.Errorf("conv: moduli %s and %s are not coprime: %w", M, moduli[i], errs.ErrDomain)
		}
		t.Mul(t, inv)
		t.Mod(t, moduli[i])
		tmp.Mul(M, t)
		x.Add(x, tmp)
		M.Mul(M, moduli[i])
	}
	return x, nil
}

// MatrixToResidue reduces an integer matrix into the ring.
func MatrixToResidue[E any](r algebra.Ring[E], m *matrix.Dense[*big.Int]) *matrix.Dense[E] {
	out, _ := matrix.New(r, m.Rows(), m.Cols())
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			out.Put(i, j, r.FromBig(m.Get(i, j)))
		}
	}
	return out
}

// MatrixLift lifts every entry symmetrically to Z.
func MatrixLift[E any](r algebra.PAdic[E], m *matrix.Dense[E]) *matrix.Dense[*big.Int] {
	out, _ := matrix.New[*big.Int](algebra.Integers{}, m.Rows(), m.Cols())
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			out.Put(i, j, Lift(r, m.Get(i, j)))
		}
	}
	return out
}
