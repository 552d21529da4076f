package algebra

import (
	"fmt"
	"math/big"

	"controlledreduction/errs"
)

// Integers is Z with *big.Int elements.
type Integers struct{}

func (Integers) Zero() *big.Int { return new(big.Int) }
func (Integers) One() *big.Int { return big.NewInt(1) }
func (Integers) FromInt64(v int64) *big.Int { return big.NewInt(v) }
func (Integers) FromBig(v *big.Int) *big.Int { return new(big.Int).Set(v) }
func (Integers) Add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }
func (Integers) Sub(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
func (Integers) Neg(a *big.Int) *big.Int { return new(big.Int).Neg(a) }
func (Integers) Mul(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }
func (Integers) IsZero(a *big.Int) bool { return a.Sign() == 0 }
func (Integers) Equal(a, b *big.Int) bool { return a.Cmp(b) == 0 }
func (Integers) IsField() bool { return false }
func (Integers) String(a *big.Int) string { return a.String() }

func (Integers) Inv(a *big.Int) (*big.Int, error) {
	if a.IsInt64() && (a.Int64() == 1 || a.Int64() == -1) {
		return new(big.Int).Set(a), nil
	}
	return nil, fmt.Errorf("inverse of %s in Z: %w", a, errs.ErrNotUnit)
}

// Rationals is Q with *big.Rat elements.
type Rationals struct{}

func (Rationals) Zero() *big.Rat { return new(big.Rat) }
func (Rationals) One() *big.Rat { return big.NewRat(1, 1) }
func (Rationals) FromInt64(v int64) *big.Rat { return big.NewRat(v, 1) }
func (Rationals) FromBig(v *big.Int) *big.Rat { return new(big.Rat).SetInt(v) }
func (Rationals) Add(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func (Rationals) Sub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func (Rationals) Neg(a *big.Rat) *big.Rat { return new(big.Rat).Neg(a) }
func (Rationals) Mul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func (Rationals) IsZero(a *big.Rat) bool { return a.Sign() == 0 }
func (Rationals) Equal(a, b *big.Rat) bool { return a.Cmp(b) == 0 }
func (Rationals) IsField() bool { return true }
func (Rationals) String(a *big.Rat) string { return a.RatString() }

func (Rationals) Inv(a *big.Rat) (*big.Rat, error) {
	if a.Sign() == 0 {
		return nil, fmt.Errorf("inverse of 0 in Q: %w", errs.ErrNotUnit)
	}
	return new(big.Rat).Inv(a), nil
}
