// Package tools collects the exact combinatorial helpers of the reduction
// pipeline: binomials, factorial valuations, Hodge numbers and Picard bounds.
package tools

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"controlledreduction/errs"
)

// Binomial returns C(n, k) as an int64. It fails with errs.ErrDomain when
// k < 0, k > n, or the value does not fit in 64 bits.
func Binomial(n, k int64) (int64, error) {
	if n < 0 || k < 0 || k > n {
		return 0, fmt.Errorf("binomial(%d, %d): %w", n, k, errs.ErrDomain)
	}
	if k > n-k {
		k = n - k
	}
	r := uint64(1)
	for i := int64(1); i <= k; i++ {
		hi, lo := bits.Mul64(r, uint64(n-k+i))
		if hi >= uint64(i) {
			return 0, fmt.Errorf("binomial(%d, %d) overflows int64: %w", n, k, errs.ErrDomain)
		}
		r, _ = bits.Div64(hi, lo, uint64(i))
		if r > math.MaxInt64 {
			return 0, fmt.Errorf("binomial(%d, %d) overflows int64: %w", n, k, errs.ErrDomain)
		}
	}
	return int64(r), nil
}

// BinomialBig returns C(n, k) exactly.
func BinomialBig(n, k int64) (*big.Int, error) {
	if n < 0 || k < 0 || k > n {
		return nil, fmt.Errorf("binomial(%d, %d): %w", n, k, errs.ErrDomain)
	}
	return new(big.Int).Binomial(n, k), nil
}

// BinomialOrZero is C(n, k) with the convention C(n, k) = 0 outside
// 0 <= k <= n. It is the form used by monomial ranking.
func BinomialOrZero(n, k int64) int64 {
	v, err := Binomial(n, k)
	if err != nil {
		return 0
	}
	return v
}

// MultisetCoefficient returns C(k+j-1, j), the coefficient of the
// Frobenius series term j for pole order k. The value is 1 for j = 0 and any k.
func MultisetCoefficient(k, j int64) (*big.Int, error) {
	if j < 0 {
		return nil, fmt.Errorf("multiset coefficient (%d, %d): %w", k, j, errs.ErrDomain)
	}
	if j == 0 {
		return big.NewInt(1), nil
	}
	if k <= 0 {
		return big.NewInt(0), nil
	}
	return BinomialBig(k+j-1, j)
}
