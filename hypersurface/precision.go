package hypersurface

import (
	"math/big"

	"controlledreduction/dr"
	"controlledreduction/tools"
)

// SeriesLength is the number of terms of the Frobenius series kept for a
// basis element at pole order k, for an n-dimensional ambient space and a
// target precision N: the least fixpoint of J = N + n + ceil(n*log_p(k+J)).
// Pole order 0 lifts exactly with a single term.
func SeriesLength(n int, p uint64, N, k int) int {
	if k == 0 {
		return 1
	}
	J := 1
	for {
		next := N + n + logCeilPow(int64(k+J), n, p)
		if next <= J {
			return J
		}
		J = next
	}
}

// logCeilPow is the least e with p^e >= x^n.
func logCeilPow(x int64, n int, p uint64) int {
	target := new(big.Int).Exp(big.NewInt(x), big.NewInt(int64(n)), nil)
	pb := new(big.Int).SetUint64(p)
	pow := big.NewInt(1)
	e := 0
	for pow.Cmp(target) < 0 {
		pow.Mul(pow, pb)
		e++
	}
	return e
}

// TopLevel is the pole order of the last series term of a basis element at
// pole order k.
func TopLevel(n int, p uint64, N, k int) int {
	return int(p) * (k + SeriesLength(n, p, N, k) - 1)
}

// WorkingPrecision is the number of p-adic digits the computation carries
// so that N digits survive the divisions of the reduction:
// N + max_k v_p((p(k+J_k-1)-1)!) + 1 over the pole orders of s.
func WorkingPrecision(s dr.Strategy, p uint64, N int) int {
	n := s.Poly().NVars() - 1
	loss := 0
	for k := s.MinLevel(); k <= s.MaxLevel(); k++ {
		top := TopLevel(n, p, N, k)
		if top < 1 {
			continue
		}
		loss = max(loss, int(tools.ValuationOfFactorial(int64(top-1), p)))
	}
	return N + loss + 1
}
