package matrix

import (
	"math/big"

	"controlledreduction/upoly"
)

// WeilCheck reports whether every reciprocal root of P has absolute value
// p^(w/2). coeffs are c_0..c_r of P(T) with c_0 = 1. The test is exact: real
// roots +-sqrt(p^w) are divided out, the rest is rewritten in t = x + q/x and
// must have only real roots in [-2 sqrt(q), 2 sqrt(q)], counted with Sturm
// sequences.
func WeilCheck(coeffs []*big.Int, p uint64, w int) bool {
	if len(coeffs) == 0 || coeffs[0].Cmp(big.NewInt(1)) != 0 {
		return false
	}
	pb := new(big.Int).SetUint64(p)
	q := new(big.Int).Exp(pb, big.NewInt(int64(w)), nil)
	qr := new(big.Rat).SetInt(q)
	h := upoly.Reverse(upoly.FromInts(coeffs))
	if coeffs[len(coeffs)-1].Sign() == 0 {
		// a reciprocal root vanishes
		return false
	}
	if w%2 == 0 {
		s := new(big.Rat).SetInt(new(big.Int).Exp(pb, big.NewInt(int64(w/2)), nil))
		for _, root := range []*big.Rat{s, new(big.Rat).Neg(s)} {
			lin := upoly.Poly{new(big.Rat).Neg(root), big.NewRat(1, 1)}
			for h.Degree() > 0 && h.Eval(root).Sign() == 0 {
				h, _, _ = upoly.DivMod(h, lin)
			}
		}
	} else {
		quad := upoly.Poly{new(big.Rat).Neg(qr), new(big.Rat), big.NewRat(1, 1)}
		for h.Degree() >= 2 {
			quo, rem, _ := upoly.DivMod(h, quad)
			if !rem.IsZero() {
				break
			}
			h = quo
		}
	}
	deg := h.Degree()
	if deg%2 != 0 {
		return false
	}
	m := deg / 2
	if m == 0 {
		return true
	}
	// a_{m-k} = q^k a_{m+k}
	qk := big.NewRat(1, 1)
	for k := 1; k <= m; k++ {
		qk.Mul(qk, qr)
		if h.Coeff(m-k).Cmp(new(big.Rat).Mul(qk, h.Coeff(m+k))) != 0 {
			return false
		}
	}
	// g(t) = a_m + sum_k a_{m+k} T_k(t), T_0 = 2, T_1 = t, T_{k+1} = t T_k - q T_{k-1}.
	t := upoly.FromInt64s(0, 1)
	tPrev, tCur := upoly.FromInt64s(2), t
	g := upoly.Poly{h.Coeff(m)}
	for k := 1; k <= m; k++ {
		g = upoly.Add(g, upoly.Scale(tCur, h.Coeff(m+k)))
		tPrev, tCur = tCur, upoly.Sub(upoly.Mul(t, tCur), upoly.Scale(tPrev, qr))
	}
	sf := upoly.SquareFree(g)
	if upoly.RealRoots(sf) != sf.Degree() {
		return false
	}
	k, err := upoly.Even(upoly.Mul(sf, upoly.Negate(sf)))
	if err != nil {
		return false
	}
	bound := new(big.Rat).Mul(big.NewRat(4, 1), qr)
	return upoly.RootsAbove(k, bound) == 0
}
