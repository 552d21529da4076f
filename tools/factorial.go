package tools

import (
	"fmt"
	"math/big"

	"controlledreduction/errs"
)

// ValuationOfFactorial returns v_p(n!) by Legendre's formula.
func ValuationOfFactorial(n int64, p uint64) int64 {
	if n <= 1 || p < 2 {
		return 0
	}
	var v int64
	pp := int64(p)
	for q := n / pp; q > 0; q /= pp {
		v += q
	}
	return v
}

// Valuation returns v_p(n) for n != 0, and -1 for zero.
func Valuation(n int64, p uint64) int64 {
	if n == 0 {
		return -1
	}
	if n < 0 {
		n = -n
	}
	var v int64
	for n%int64(p) == 0 {
		n /= int64(p)
		v++
	}
	return v
}

// FactorialPAdic returns the unit part of n! modulo p^prec together with
// v_p(n!), so that n! = unit * p^v.
func FactorialPAdic(n int64, p uint64, prec int) (*big.Int, int64, error) {
	if n < 0 || p < 2 || prec < 1 {
		return nil, 0, fmt.Errorf("factorial p-adic (n=%d, p=%d, N=%d): %w", n, p, prec, errs.ErrDomain)
	}
	pb := new(big.Int).SetUint64(p)
	mod := new(big.Int).Exp(pb, big.NewInt(int64(prec)), nil)
	unit := big.NewInt(1)
	t := new(big.Int)
	for i := int64(2); i <= n; i++ {
		x := i
		for x%int64(p) == 0 {
			x /= int64(p)
		}
		unit.Mul(unit, t.SetInt64(x))
		unit.Mod(unit, mod)
	}
	return unit, ValuationOfFactorial(n, p), nil
}

// BinomialModPN returns C(n, k) mod p^prec from p-adic factorials.
func BinomialModPN(n, k int64, p uint64, prec int) (*big.Int, error) {
	if n < 0 || k < 0 || k > n {
		return nil, fmt.Errorf("binomial(%d, %d) mod %d^%d: %w", n, k, p, prec, errs.ErrDomain)
	}
	un, vn, err := FactorialPAdic(n, p, prec)
	if err != nil {
		return nil, err
	}
	uk, vk, _ := FactorialPAdic(k, p, prec)
	ur, vr, _ := FactorialPAdic(n-k, p, prec)
	v := vn - vk - vr
	pb := new(big.Int).SetUint64(p)
	mod := new(big.Int).Exp(pb, big.NewInt(int64(prec)), nil)
	if v >= int64(prec) {
		return new(big.Int), nil
	}
	den := new(big.Int).Mul(uk, ur)
	den.Mod(den, mod)
	inv := new(big.Int).ModInverse(den, mod)
	if inv == nil {
		return nil, fmt.Errorf("binomial mod p^N: %w", errs.ErrNotUnit)
	}
	out := new(big.Int).Mul(un, inv)
	out.Mul(out, new(big.Int).Exp(pb, big.NewInt(v), nil))
	return out.Mod(out, mod), nil
}

// LogCeil returns the least e >= 0 with p^e >= x, for x >= 1.
func LogCeil(x int64, p uint64) int64 {
	var e int64
	pow := int64(1)
	for pow < x {
		pow *= int64(p)
		e++
	}
	return e
}

// LogFloor returns the largest e with p^e <= x, for x >= 1.
func LogFloor(x int64, p uint64) int64 {
	var e int64
	for pow := int64(p); pow <= x; pow *= int64(p) {
		e++
	}
	return e
}
