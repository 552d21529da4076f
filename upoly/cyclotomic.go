package upoly

import (
	"math/big"
	"sync"
)

var (
	cycloMu    sync.Mutex
	cycloCache = map[int]Poly{}
)

// Cyclotomic returns the k-th cyclotomic polynomial.
func Cyclotomic(k int) Poly {
	cycloMu.Lock()
	defer cycloMu.Unlock()
	return cyclotomic(k)
}

func cyclotomic(k int) Poly {
	if c, ok := cycloCache[k]; ok {
		return c
	}
	// x^k - 1 divided by every Phi_d with d | k, d < k.
	num := zeros(k + 1)
	num[0].SetInt64(-1)
	num[k].SetInt64(1)
	for d := 1; d < k; d++ {
		if k%d != 0 {
			continue
		}
		num, _, _ = DivMod(num, cyclotomic(d))
	}
	cycloCache[k] = num
	return num
}

// Totient is Euler's phi.
func Totient(k int) int {
	n, out := k, k
	for q := 2; q*q <= n; q++ {
		if n%q != 0 {
			continue
		}
		for n%q == 0 {
			n /= q
		}
		out -= out / q
	}
	if n > 1 {
		out -= out / n
	}
	return out
}

// CyclotomicMultiplicity counts the roots of p that are roots of unity, with
// multiplicity.
func CyclotomicMultiplicity(p Poly) int {
	rest := p.trim()
	count := 0
	deg := rest.Degree()
	if deg <= 0 {
		return 0
	}
	for k := 1; k <= 2*deg*deg+2; k++ {
		phi := Totient(k)
		if phi > rest.Degree() {
			continue
		}
		c := Cyclotomic(k)
		for rest.Degree() >= phi {
			q, r, err := DivMod(rest, c)
			if err != nil || !r.IsZero() {
				break
			}
			rest = q
			count += phi
		}
	}
	return count
}

// IntegerCoeffs reports whether every coefficient is an integer and returns them.
func IntegerCoeffs(p Poly) ([]*big.Int, bool) {
	out := make([]*big.Int, len(p))
	for i, c := range p {
		if !c.IsInt() {
			return nil, false
		}
		out[i] = new(big.Int).Set(c.Num())
	}
	return out, true
}
