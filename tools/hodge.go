package tools

import (
	"fmt"
	"math/big"

	"controlledreduction/errs"
	"controlledreduction/upoly"
)

// HodgeNumbers returns the primitive Hodge numbers of a smooth degree-d
// hypersurface in P^n indexed by pole order: entry m-1 is the dimension of the
// forms G*Omega/F^m with deg G = m*d - n - 1 modulo the Jacobian ideal, i.e.
// h^{n-m, m-1}_prim. They are read off ((1 - t^(d-1)) / (1 - t))^(n+1).
func HodgeNumbers(n, d int) ([]int64, error) {
	if n < 1 || d < 1 {
		return nil, fmt.Errorf("hodge numbers (n=%d, d=%d): %w", n, d, errs.ErrDomain)
	}
	out := make([]int64, n)
	if d == 1 {
		return out, nil
	}
	series := []int64{1}
	for i := 0; i <= n; i++ {
		next := make([]int64, len(series)+d-2)
		for a, c := range series {
			for b := 0; b <= d-2; b++ {
				next[a+b] += c
			}
		}
		series = next
	}
	for m := 1; m <= n; m++ {
		e := m*d - n - 1
		if e >= 0 && e < len(series) {
			out[m-1] = series[e]
		}
	}
	return out, nil
}

// PrimitiveBetti is the dimension of the primitive middle cohomology, and so
// the degree of the zeta numerator.
func PrimitiveBetti(n, d int) (int64, error) {
	h, err := HodgeNumbers(n, d)
	if err != nil {
		return 0, err
	}
	var s int64
	for _, x := range h {
		s += x
	}
	return s, nil
}

// HodgePicardBound bounds the Picard number of a lift of a smooth surface in
// P^3 by h^{1,1}.
func HodgePicardBound(n, d int) (int64, error) {
	if n != 3 {
		return 0, fmt.Errorf("picard bound needs a surface in P^3, got P^%d: %w", n, errs.ErrDomain)
	}
	h, err := HodgeNumbers(n, d)
	if err != nil {
		return 0, err
	}
	return h[1] + 1, nil
}

// GeometricPicardBound bounds the geometric Picard number of a surface from
// its zeta numerator P(T) = det(1 - T Frob | H^2_prim): one for the hyperplane
// class plus the number of reciprocal roots alpha with alpha/p^(w/2) a root of
// unity. w must be even.
func GeometricPicardBound(coeffs []*big.Int, p uint64, w int) (int, error) {
	if w%2 != 0 {
		return 0, fmt.Errorf("picard bound needs even weight, got %d: %w", w, errs.ErrDomain)
	}
	if len(coeffs) == 0 || coeffs[0].Cmp(big.NewInt(1)) != 0 {
		return 0, fmt.Errorf("zeta numerator must have constant term 1: %w", errs.ErrDomain)
	}
	// reciprocal roots of P are the roots of x^r P(1/x); normalise them by p^(w/2).
	h := upoly.Reverse(upoly.FromInts(coeffs))
	s := new(big.Int).Exp(new(big.Int).SetUint64(p), big.NewInt(int64(w/2)), nil)
	hn := upoly.Monic(upoly.ScaleVar(h, new(big.Rat).SetInt(s)))
	return 1 + upoly.CyclotomicMultiplicity(hn), nil
}
