package matrix

import (
	"fmt"
	"math/big"
	"sort"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// FrobeniusInput describes a p-adic approximation of a Frobenius matrix. The
// true matrix is Matrix / p^Scale and is known modulo p^AbsPrecision.
type FrobeniusInput[E any] struct {
	Ring         algebra.PAdic[E]
	Matrix       *Dense[E]
	Scale        int
	AbsPrecision int
	// Twist divides the matrix by p^Twist before taking det(1 - T M).
	Twist int
	// Weight is the weight w of the eigenvalues of M / p^Twist.
	Weight int
}

// FrobeniusPolynomial is an exactly reconstructed characteristic polynomial.
type FrobeniusPolynomial struct {
	// Coeffs are c_0..c_r of det(1 - T M / p^Twist).
	Coeffs []*big.Int
	Weight int
	// Sign is the epsilon of c_{r-i} = epsilon c_i p^(w(r/2-i)).
	Sign int
	// Precisions holds the p-adic precision of each coefficient as computed,
	// before the functional equation filled the upper half.
	Precisions         []int
	FunctionalEquation bool
	RiemannHypothesis  bool
}

// CharPolyFrobenius turns a Frobenius matrix known to finite p-adic precision
// into integer coefficients. The lower half is lifted from its residues when
// the Weil bound makes the lift unique, the upper half comes from the
// functional equation, and the result is checked against the Riemann
// hypothesis. Any failure wraps errs.ErrInsufficientPrecision.
func CharPolyFrobenius[E any](in FrobeniusInput[E]) (*FrobeniusPolynomial, error) {
	m := in.Matrix
	if m.rows != m.cols {
		return nil, fmt.Errorf("matrix: frobenius matrix is %dx%d: %w", m.rows, m.cols, errs.ErrDimension)
	}
	r, w := m.rows, in.Weight
	if r == 0 {
		return &FrobeniusPolynomial{Coeffs: []*big.Int{big.NewInt(1)}, Weight: w, Sign: 1,
			Precisions: []int{in.AbsPrecision}, FunctionalEquation: true, RiemannHypothesis: true}, nil
	}
	if w%2 == 1 && r%2 == 1 {
		return nil, fmt.Errorf("matrix: odd weight %d with odd dimension %d: %w", w, r, errs.ErrDomain)
	}
	ring := in.Ring
	p := ring.Prime()
	pb := new(big.Int).SetUint64(p)
	pow := func(k int) *big.Int { return new(big.Int).Exp(pb, big.NewInt(int64(k)), nil) }

	vmin := in.AbsPrecision
	for _, x := range m.data {
		if ring.IsZero(x) {
			continue
		}
		vmin = min(vmin, ring.Valuation(x)-in.Scale)
	}
	u := max(0, in.Twist-vmin)
	shift := u - in.Twist - in.Scale
	precB := in.AbsPrecision + u - in.Twist
	if precB < 1 {
		return nil, fmt.Errorf("matrix: no digits left for the characteristic polynomial (absolute precision %d): %w",
			in.AbsPrecision, errs.ErrInsufficientPrecision)
	}
	// Column j of B is divisible by p^cols[j]; a principal minor over the
	// columns S then carries sum_S cols - max_S cols extra digits, so c_i
	// gains at least the i-1 smallest of them.
	modB := pow(precB)
	lift := make([]*big.Int, len(m.data))
	cols := make([]int, r)
	for j := range cols {
		cols[j] = precB
	}
	for i, x := range m.data {
		v := ring.Lift(x)
		if shift >= 0 {
			v.Mul(v, pow(shift))
		} else {
			v.Quo(v, pow(-shift))
		}
		lift[i] = v.Mod(v, modB)
		if v.Sign() != 0 {
			cols[i%r] = min(cols[i%r], valuation(v, pb, precB))
		}
	}
	sort.Ints(cols)
	extra := make([]int, r+1)
	for i, c := range cols {
		extra[i+1] = extra[i] + c
	}
	zb, err := algebra.NewZmodBig(p, precB+extra[r])
	if err != nil {
		return nil, err
	}
	b := zero[*big.Int](zb, r, r)
	for i, v := range lift {
		b.data[i] = zb.FromBig(v)
	}
	chi, err := CharPoly(b)
	if err != nil {
		return nil, err
	}

	// c_i = chi_{r-i} / p^(iu), known modulo p^(precB + extra_(i-1) - iu).
	coeffs := make([]*big.Int, r+1)
	precs := make([]int, r+1)
	precs[0] = precB
	for i := 1; i <= r; i++ {
		known := precB + extra[i-1]
		precs[i] = known - i*u
		if precs[i] <= 0 {
			continue
		}
		val := new(big.Int).Mod(chi[r-i], pow(known))
		den := pow(i * u)
		qv, rem := new(big.Int).QuoRem(val, den, new(big.Int))
		if rem.Sign() != 0 {
			return nil, fmt.Errorf("matrix: coefficient %d not divisible by p^%d: %w", i, i*u, errs.ErrInsufficientPrecision)
		}
		coeffs[i] = qv.Mod(qv, pow(precs[i]))
	}
	coeffs[0] = big.NewInt(1)

	for i := 1; 2*i <= r; i++ {
		if precs[i] <= 0 {
			return nil, fmt.Errorf("matrix: coefficient %d has no precision: %w", i, errs.ErrInsufficientPrecision)
		}
		bin := new(big.Int).Binomial(int64(r), int64(i))
		need := new(big.Int).Mul(bin, bin)
		need.Mul(need, big.NewInt(4))
		need.Mul(need, pow(i*w))
		mod := pow(precs[i])
		if new(big.Int).Mul(mod, mod).Cmp(need) <= 0 {
			return nil, fmt.Errorf("matrix: coefficient %d known to p^%d, Weil bound needs more: %w", i, precs[i], errs.ErrInsufficientPrecision)
		}
		coeffs[i] = symmetricLift(coeffs[i], mod)
	}

	candidates := []int{1}
	if w%2 == 0 {
		candidates = []int{1, -1}
		if r%2 == 0 && coeffs[r/2].Sign() != 0 {
			candidates = []int{1}
		}
	}
	var signs []int
	for _, eps := range candidates {
		ok := true
		for j := r/2 + 1; j <= r; j++ {
			if precs[j] <= 0 {
				continue
			}
			pred := predictUpper(coeffs[r-j], eps, pb, w, 2*j-r)
			mod := pow(precs[j])
			if new(big.Int).Mod(pred, mod).Cmp(coeffs[j]) != 0 {
				ok = false
				break
			}
		}
		if ok {
			signs = append(signs, eps)
		}
	}
	if len(signs) != 1 {
		return nil, fmt.Errorf("matrix: functional equation sign undetermined (%d candidates survive): %w", len(signs), errs.ErrInsufficientPrecision)
	}
	eps := signs[0]
	for j := r/2 + 1; j <= r; j++ {
		coeffs[j] = predictUpper(coeffs[r-j], eps, pb, w, 2*j-r)
	}
	out := &FrobeniusPolynomial{
		Coeffs:             coeffs,
		Weight:             w,
		Sign:               eps,
		Precisions:         precs,
		FunctionalEquation: true,
		RiemannHypothesis:  WeilCheck(coeffs, p, w),
	}
	if !out.RiemannHypothesis {
		return out, fmt.Errorf("matrix: reconstructed polynomial violates the Riemann hypothesis: %w", errs.ErrInsufficientPrecision)
	}
	return out, nil
}

// valuation is v_p(x) for x != 0, capped at limit.
func valuation(x, pb *big.Int, limit int) int {
	v := new(big.Int).Set(x)
	q, rem := new(big.Int), new(big.Int)
	k := 0
	for k < limit {
		q.QuoRem(v, pb, rem)
		if rem.Sign() != 0 {
			break
		}
		v, q = q, v
		k++
	}
	return k
}

// predictUpper returns eps * c * p^(w*e/2), e = 2j - r.
func predictUpper(c *big.Int, eps int, pb *big.Int, w, e int) *big.Int {
	out := new(big.Int).Mul(c, new(big.Int).Exp(pb, big.NewInt(int64(w*e/2)), nil))
	if eps < 0 {
		out.Neg(out)
	}
	return out
}

func symmetricLift(x, mod *big.Int) *big.Int {
	v := new(big.Int).Mod(x, mod)
	half := new(big.Int).Rsh(mod, 1)
	if v.Cmp(half) > 0 {
		v.Sub(v, mod)
	}
	return v
}

// CheckFunctionalEquation verifies c_{r-i} = eps c_i p^(w(r/2-i)) for all i.
func CheckFunctionalEquation(coeffs []*big.Int, p uint64, w, eps int) bool {
	r := len(coeffs) - 1
	if (w*r)%2 != 0 {
		return false
	}
	pb := new(big.Int).SetUint64(p)
	for j := (r + 1) / 2; j <= r; j++ {
		if predictUpper(coeffs[r-j], eps, pb, w, 2*j-r).Cmp(coeffs[j]) != 0 {
			return false
		}
	}
	return true
}
