// Package algebra defines the ring capability interface behind the generic
// linear-algebra kernel and the reduction engines, and its implementations:
// Z, Q, Z/p^N (word-sized and arbitrary-size residues) and GF(p).
package algebra

import "math/big"

// Ring is the capability set the generic kernels need. Elements are values:
// implementations never mutate their arguments.
type Ring[E any] interface {
	Zero() E
	One() E
	FromInt64(v int64) E
	FromBig(v *big.Int) E
	Add(a, b E) E
	Sub(a, b E) E
	Neg(a E) E
	Mul(a, b E) E
	// Inv returns the inverse of a unit, or an error wrapping errs.ErrNotUnit.
	Inv(a E) (E, error)
	IsZero(a E) bool
	Equal(a, b E) bool
	// IsField reports whether every non-zero element is a unit.
	IsField() bool
	String(a E) string
}

// PAdic is a ring Z/p^N with its p-adic structure exposed.
type PAdic[E any] interface {
	Ring[E]
	Prime() uint64
	// Precision is N.
	Precision() int
	// Modulus is p^N.
	Modulus() *big.Int
	// Valuation returns v_p(a), and N for zero.
	Valuation(a E) int
	// Lift returns the representative in [0, p^N).
	Lift(a E) *big.Int
	// PowP returns p^k reduced mod p^N.
	PowP(k int) E
	// DivPow divides a by p^k exactly; the low k digits of a must vanish. The
	// result is only meaningful modulo p^(N-k).
	DivPow(a E, k int) E
}

// Pow computes a^k by square and multiply.
func Pow[E any](r Ring[E], a E, k int) E {
	out := r.One()
	for k > 0 {
		if k&1 == 1 {
			out = r.Mul(out, a)
		}
		a = r.Mul(a, a)
		k >>= 1
	}
	return out
}

// Dot returns sum a[i]*b[i].
func Dot[E any](r Ring[E], a, b []E) E {
	acc := r.Zero()
	for i := range a {
		acc = r.Add(acc, r.Mul(a[i], b[i]))
	}
	return acc
}

// ZeroVector allocates a vector of n zeros.
func ZeroVector[E any](r Ring[E], n int) []E {
	out := make([]E, n)
	for i := range out {
		out[i] = r.Zero()
	}
	return out
}

// IsPrime reports whether p is prime.
func IsPrime(p uint64) bool {
	return p >= 2 && new(big.Int).SetUint64(p).ProbablyPrime(20)
}
