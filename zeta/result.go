package zeta

import (
	"fmt"
	"math/big"
	"strings"

	"controlledreduction/errs"
	"controlledreduction/tools"
)

// PowerSums returns s_1..s_k, the power sums of the reciprocal roots of P,
// by Newton's identities: s_j = -j c_j - sum_{i=1}^{j-1} c_i s_{j-i}.
func (r *Result) PowerSums(k int) []*big.Int {
	c := func(i int) *big.Int {
		if i < len(r.Coeffs) {
			return r.Coeffs[i]
		}
		return new(big.Int)
	}
	s := make([]*big.Int, k+1)
	for j := 1; j <= k; j++ {
		v := new(big.Int).Mul(big.NewInt(int64(-j)), c(j))
		for i := 1; i < j; i++ {
			v.Sub(v, new(big.Int).Mul(c(i), s[j-i]))
		}
		s[j] = v
	}
	return s[1:]
}

// PointCounts returns #X(GF(p^j)) for j = 1..k:
// sum_{i<n} p^(ij) + (-1)^(n-1) s_j.
func (r *Result) PointCounts(k int) ([]*big.Int, error) {
	if k < 1 {
		return nil, fmt.Errorf("zeta: point counts up to %d: %w", k, errs.ErrDomain)
	}
	s := r.PowerSums(k)
	pb := new(big.Int).SetUint64(r.Prime)
	out := make([]*big.Int, k)
	for j := 1; j <= k; j++ {
		q := new(big.Int).Exp(pb, big.NewInt(int64(j)), nil)
		v := new(big.Int)
		pw := big.NewInt(1)
		for i := 0; i < r.N; i++ {
			v.Add(v, pw)
			pw = new(big.Int).Mul(pw, q)
		}
		if r.N%2 == 0 {
			v.Sub(v, s[j-1])
		} else {
			v.Add(v, s[j-1])
		}
		out[j-1] = v
	}
	return out, nil
}

// Denominator returns the coefficients of prod_{i<n} (1 - p^i T).
func (r *Result) Denominator() []*big.Int {
	out := []*big.Int{big.NewInt(1)}
	pb := new(big.Int).SetUint64(r.Prime)
	for i := 0; i < r.N; i++ {
		f := new(big.Int).Exp(pb, big.NewInt(int64(i)), nil)
		out = mulSeries(out, []*big.Int{big.NewInt(1), f.Neg(f)}, len(out)+1)
	}
	return out
}

// ZetaSeries returns the first k+1 coefficients of Z(X, T).
func (r *Result) ZetaSeries(k int) ([]*big.Int, error) {
	if k < 0 {
		return nil, fmt.Errorf("zeta: series to order %d: %w", k, errs.ErrDomain)
	}
	num, den := r.Coeffs, r.Denominator()
	if r.N%2 == 1 {
		// P sits in the denominator.
		num, den = []*big.Int{big.NewInt(1)}, mulSeries(den, r.Coeffs, len(den)+len(r.Coeffs)-1)
	}
	inv, err := invSeries(den, k+1)
	if err != nil {
		return nil, err
	}
	return mulSeries(num, inv, k+1), nil
}

// PicardBound is the geometric Picard bound for surfaces in P^3, or an
// ErrDomain error in other dimensions.
func (r *Result) PicardBound() (int, error) {
	if r.N != 3 {
		return 0, fmt.Errorf("zeta: picard bound needs a surface, have P^%d: %w", r.N, errs.ErrDomain)
	}
	return tools.GeometricPicardBound(r.Coeffs, r.Prime, r.Weight)
}

// String writes P(T) as a polynomial in T.
func (r *Result) String() string {
	var b strings.Builder
	for i, c := range r.Coeffs {
		if c.Sign() == 0 {
			continue
		}
		a := new(big.Int).Abs(c)
		switch {
		case b.Len() == 0 && c.Sign() < 0:
			b.WriteString("-")
		case b.Len() > 0 && c.Sign() < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		if i == 0 || a.Cmp(big.NewInt(1)) != 0 {
			b.WriteString(a.String())
			if i > 0 {
				b.WriteString("*")
			}
		}
		switch {
		case i == 1:
			b.WriteString("T")
		case i > 1:
			fmt.Fprintf(&b, "T^%d", i)
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

func mulSeries(a, b []*big.Int, n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int)
	}
	t := new(big.Int)
	for i, x := range a {
		if i >= n {
			break
		}
		for j, y := range b {
			if i+j >= n {
				break
			}
			out[i+j].Add(out[i+j], t.Mul(x, y))
		}
	}
	return out
}

// invSeries inverts a power series with constant term 1 to n terms.
func invSeries(a []*big.Int, n int) ([]*big.Int, error) {
	if len(a) == 0 || a[0].Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("zeta: series does not start with 1: %w", errs.ErrDomain)
	}
	out := make([]*big.Int, n)
	for k := range out {
		v := new(big.Int)
		if k == 0 {
			v.SetInt64(1)
		}
		for i := 1; i <= k && i < len(a); i++ {
			v.Sub(v, new(big.Int).Mul(a[i], out[k-i]))
		}
		out[k] = v
	}
	return out, nil
}
