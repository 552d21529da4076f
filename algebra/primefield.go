package algebra

import (
	"fmt"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/tuneinsight/lattigo/v4/ring"

	"controlledreduction/errs"
)

// PrimeField is GF(p) for primes below 2^31 with uint64 residues. Inverses
// are Fermat powers through lattigo's Barrett exponentiation.
type PrimeField struct {
	p    uint64
	pBig *big.Int
}

// MaxFieldPrime bounds the characteristic accepted by NewPrimeField.
const MaxFieldPrime = 1 << 31

func NewPrimeField(p uint64) (*PrimeField, error) {
	if p >= MaxFieldPrime || !IsPrime(p) {
		return nil, fmt.Errorf("GF(%d): characteristic must be a prime below 2^31: %w", p, errs.ErrDomain)
	}
	return &PrimeField{p: p, pBig: new(big.Int).SetUint64(p)}, nil
}

func (f *PrimeField) Zero() uint64 { return 0 }
func (f *PrimeField) One() uint64 { return 1 }

func (f *PrimeField) FromInt64(v int64) uint64 {
	m := v % int64(f.p)
	if m < 0 {
		m += int64(f.p)
	}
	return uint64(m)
}

func (f *PrimeField) FromBig(v *big.Int) uint64 {
	return new(big.Int).Mod(v, f.pBig).Uint64()
}

func (f *PrimeField) Add(a, b uint64) uint64 {
	s := a + b
	if s >= f.p {
		s -= f.p
	}
	return s
}

func (f *PrimeField) Sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + f.p - b
}

func (f *PrimeField) Neg(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return f.p - a
}

func (f *PrimeField) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, f.p)
}

func (f *PrimeField) Inv(a uint64) (uint64, error) {
	if a%f.p == 0 {
		return 0, fmt.Errorf("inverse of 0 in GF(%d): %w", f.p, errs.ErrNotUnit)
	}
	return ring.ModExp(a, f.p-2, f.p), nil
}

func (f *PrimeField) IsZero(a uint64) bool { return a == 0 }
func (f *PrimeField) Equal(a, b uint64) bool { return a == b }
func (f *PrimeField) IsField() bool { return true }
func (f *PrimeField) String(a uint64) string { return strconv.FormatUint(a, 10) }
func (f *PrimeField) Prime() uint64 { return f.p }
