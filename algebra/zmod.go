package algebra

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"

	"controlledreduction/errs"
)

// ZmodWord is Z/p^N with residues held in a uint64. p^N must stay below 2^63
// so that sums never wrap.
type ZmodWord struct {
	p, q uint64
	n    int
	pows []uint64
	qBig *big.Int
}

// NewZmodWord builds Z/p^n; it fails when p^n does not fit in 63 bits.
func NewZmodWord(p uint64, n int) (*ZmodWord, error) {
	if p < 2 || n < 1 {
		return nil, fmt.Errorf("Z/%d^%d: %w", p, n, errs.ErrDomain)
	}
	pows := make([]uint64, n+1)
	pows[0] = 1
	for i := 1; i <= n; i++ {
		hi, lo := bits.Mul64(pows[i-1], p)
		if hi != 0 || lo > math.MaxInt64 {
			return nil, fmt.Errorf("Z/%d^%d exceeds a machine word: %w", p, n, errs.ErrDomain)
		}
		pows[i] = lo
	}
	q := pows[n]
	return &ZmodWord{p: p, q: q, n: n, pows: pows, qBig: new(big.Int).SetUint64(q)}, nil
}

// FitsWord reports whether Z/p^n can use word residues.
func FitsWord(p uint64, n int) bool {
	_, err := NewZmodWord(p, n)
	return err == nil
}

func (r *ZmodWord) Zero() uint64 { return 0 }
func (r *ZmodWord) One() uint64 { return 1 % r.q }

func (r *ZmodWord) FromInt64(v int64) uint64 {
	if v >= 0 {
		return uint64(v) % r.q
	}
	m := uint64(-(v + 1)) % r.q
	return r.q - 1 - m
}

func (r *ZmodWord) FromBig(v *big.Int) uint64 {
	return new(big.Int).Mod(v, r.qBig).Uint64()
}

func (r *ZmodWord) Add(a, b uint64) uint64 {
	s := a + b
	if s >= r.q {
		s -= r.q
	}
	return s
}

func (r *ZmodWord) Sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + r.q - b
}

func (r *ZmodWord) Neg(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return r.q - a
}

func (r *ZmodWord) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, r.q)
}

func (r *ZmodWord) Inv(a uint64) (uint64, error) {
	if a%r.p == 0 {
		return 0, fmt.Errorf("inverse of %d mod %d: %w", a, r.q, errs.ErrNotUnit)
	}
	inv := new(big.Int).ModInverse(new(big.Int).SetUint64(a), r.qBig)
	return inv.Uint64(), nil
}

func (r *ZmodWord) IsZero(a uint64) bool { return a == 0 }
func (r *ZmodWord) Equal(a, b uint64) bool { return a == b }
func (r *ZmodWord) IsField() bool { return r.n == 1 }
func (r *ZmodWord) String(a uint64) string { return strconv.FormatUint(a, 10) }
func (r *ZmodWord) Prime() uint64 { return r.p }
func (r *ZmodWord) Precision() int { return r.n }
func (r *ZmodWord) Modulus() *big.Int { return new(big.Int).Set(r.qBig) }
func (r *ZmodWord) Lift(a uint64) *big.Int { return new(big.Int).SetUint64(a) }

func (r *ZmodWord) Valuation(a uint64) int {
	if a == 0 {
		return r.n
	}
	v := 0
	for a%r.p == 0 {
		a /= r.p
		v++
	}
	return v
}

func (r *ZmodWord) PowP(k int) uint64 {
	if k >= r.n {
		return 0
	}
	return r.pows[k]
}

func (r *ZmodWord) DivPow(a uint64, k int) uint64 {
	if k <= 0 {
		return a
	}
	if k >= r.n {
		return 0
	}
	return a / r.pows[k]
}

// ZmodBig is Z/p^N with *big.Int residues in [0, p^N).
type ZmodBig struct {
	p    uint64
	n    int
	q    *big.Int
	pows []*big.Int
}

func NewZmodBig(p uint64, n int) (*ZmodBig, error) {
	if p < 2 || n < 1 {
		return nil, fmt.Errorf("Z/%d^%d: %w", p, n, errs.ErrDomain)
	}
	pows := make([]*big.Int, n+1)
	pows[0] = big.NewInt(1)
	pb := new(big.Int).SetUint64(p)
	for i := 1; i <= n; i++ {
		pows[i] = new(big.Int).Mul(pows[i-1], pb)
	}
	return &ZmodBig{p: p, n: n, q: pows[n], pows: pows}, nil
}

func (r *ZmodBig) reduce(v *big.Int) *big.Int { return v.Mod(v, r.q) }

func (r *ZmodBig) Zero() *big.Int { return new(big.Int) }
func (r *ZmodBig) One() *big.Int { return big.NewInt(1) }
func (r *ZmodBig) FromInt64(v int64) *big.Int { return r.reduce(big.NewInt(v)) }
func (r *ZmodBig) FromBig(v *big.Int) *big.Int { return new(big.Int).Mod(v, r.q) }
func (r *ZmodBig) Add(a, b *big.Int) *big.Int { return r.reduce(new(big.Int).Add(a, b)) }
func (r *ZmodBig) Sub(a, b *big.Int) *big.Int { return r.reduce(new(big.Int).Sub(a, b)) }
func (r *ZmodBig) Neg(a *big.Int) *big.Int { return r.reduce(new(big.Int).Neg(a)) }
func (r *ZmodBig) Mul(a, b *big.Int) *big.Int { return r.reduce(new(big.Int).Mul(a, b)) }
func (r *ZmodBig) IsZero(a *big.Int) bool { return a.Sign() == 0 }
func (r *ZmodBig) Equal(a, b *big.Int) bool { return a.Cmp(b) == 0 }
func (r *ZmodBig) IsField() bool { return r.n == 1 }
func (r *ZmodBig) String(a *big.Int) string { return a.String() }
func (r *ZmodBig) Prime() uint64 { return r.p }
func (r *ZmodBig) Precision() int { return r.n }
func (r *ZmodBig) Modulus() *big.Int { return new(big.Int).Set(r.q) }
func (r *ZmodBig) Lift(a *big.Int) *big.Int { return new(big.Int).Set(a) }

func (r *ZmodBig) Inv(a *big.Int) (*big.Int, error) {
	pb := new(big.Int).SetUint64(r.p)
	if new(big.Int).Mod(a, pb).Sign() == 0 {
		return nil, fmt.Errorf("inverse of %s mod %s: %w", a, r.q, errs.ErrNotUnit)
	}
	return new(big.Int).ModInverse(a, r.q), nil
}

func (r *ZmodBig) Valuation(a *big.Int) int {
	if a.Sign() == 0 {
		return r.n
	}
	pb := new(big.Int).SetUint64(r.p)
	x := new(big.Int).Set(a)
	m := new(big.Int)
	v := 0
	for {
		q, rem := new(big.Int).QuoRem(x, pb, m)
		if rem.Sign() != 0 {
			return v
		}
		x = q
		v++
	}
}

func (r *ZmodBig) PowP(k int) *big.Int {
	if k >= r.n {
		return new(big.Int)
	}
	return new(big.Int).Set(r.pows[k])
}

func (r *ZmodBig) DivPow(a *big.Int, k int) *big.Int {
	if k <= 0 {
		return new(big.Int).Set(a)
	}
	if k >= r.n {
		return new(big.Int)
	}
	return new(big.Int).Quo(a, r.pows[k])
}
