package matrix

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

func bigs(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

// ellipticFrobenius returns p times the companion matrix of x^2 - a x + p,
// multiplied by p^scale.
func ellipticFrobenius(t *testing.T, r *algebra.ZmodWord, p, a int64, scale int) *Dense[uint64] {
	t.Helper()
	s := int64(1)
	for i := 0; i < scale; i++ {
		s *= p
	}
	m, err := FromInt64[uint64](r, [][]int64{{0, -p * p * s}, {p * s, p * a * s}})
	require.NoError(t, err)
	return m
}

func TestCharPolyFrobeniusEllipticCurve(t *testing.T) {
	r, err := algebra.NewZmodWord(5, 8)
	require.NoError(t, err)
	for _, scale := range []int{0, 2} {
		fp, err := CharPolyFrobenius(FrobeniusInput[uint64]{
			Ring: r, Matrix: ellipticFrobenius(t, r, 5, 2, scale), Scale: scale,
			AbsPrecision: 6, Twist: 1, Weight: 1,
		})
		require.NoError(t, err)
		require.Equal(t, bigs(1, -2, 5), fp.Coeffs)
		require.Equal(t, 1, fp.Sign)
		require.True(t, fp.FunctionalEquation)
		require.True(t, fp.RiemannHypothesis)
	}
}

func TestCharPolyFrobeniusInsufficient(t *testing.T) {
	r, err := algebra.NewZmodWord(5, 8)
	require.NoError(t, err)
	_, err = CharPolyFrobenius(FrobeniusInput[uint64]{
		Ring: r, Matrix: ellipticFrobenius(t, r, 5, 2, 0), AbsPrecision: 2, Twist: 1, Weight: 1,
	})
	require.ErrorIs(t, err, errs.ErrInsufficientPrecision)

	_, err = CharPolyFrobenius(FrobeniusInput[uint64]{
		Ring: r, Matrix: ellipticFrobenius(t, r, 5, 2, 0), AbsPrecision: 1, Twist: 1, Weight: 1,
	})
	require.ErrorIs(t, err, errs.ErrInsufficientPrecision)
}

func TestCharPolyFrobeniusQuadricSign(t *testing.T) {
	r, err := algebra.NewZmodWord(3, 6)
	require.NoError(t, err)
	for _, lambda := range []int64{3, -3} {
		m, err := FromInt64[uint64](r, [][]int64{{3 * lambda}})
		require.NoError(t, err)
		fp, err := CharPolyFrobenius(FrobeniusInput[uint64]{Ring: r, Matrix: m, AbsPrecision: 5, Twist: 1, Weight: 2})
		require.NoError(t, err)
		require.Equal(t, bigs(1, -lambda), fp.Coeffs)
		require.True(t, fp.RiemannHypothesis)
	}
	// one digit cannot tell +p from -p.
	m, err := FromInt64[uint64](r, [][]int64{{9}})
	require.NoError(t, err)
	_, err = CharPolyFrobenius(FrobeniusInput[uint64]{Ring: r, Matrix: m, AbsPrecision: 2, Twist: 1, Weight: 2})
	require.ErrorIs(t, err, errs.ErrInsufficientPrecision)
}

func TestCharPolyFrobeniusColumnValuations(t *testing.T) {
	r, err := algebra.NewZmodWord(5, 6)
	require.NoError(t, err)
	// M / p = 5 * swap: every column divisible by p, det(1 - T M/p) = 1 - 25 T^2.
	m, err := FromInt64[uint64](r, [][]int64{{0, 25}, {25, 0}})
	require.NoError(t, err)
	fp, err := CharPolyFrobenius(FrobeniusInput[uint64]{Ring: r, Matrix: m, AbsPrecision: 3, Twist: 1, Weight: 2})
	require.NoError(t, err)
	require.Equal(t, bigs(1, 0, -25), fp.Coeffs)
	require.Equal(t, -1, fp.Sign)
	require.Equal(t, []int{2, 2, 3}, fp.Precisions)

	_, err = CharPolyFrobenius(FrobeniusInput[uint64]{Ring: r, Matrix: m, AbsPrecision: 2, Twist: 1, Weight: 2})
	require.ErrorIs(t, err, errs.ErrInsufficientPrecision)
}

func TestCharPolyFrobeniusEmpty(t *testing.T) {
	r, err := algebra.NewZmodWord(5, 3)
	require.NoError(t, err)
	fp, err := CharPolyFrobenius(FrobeniusInput[uint64]{Ring: r, Matrix: zero[uint64](r, 0, 0), AbsPrecision: 3, Twist: 1})
	require.NoError(t, err)
	require.Equal(t, bigs(1), fp.Coeffs)
}

func TestWeilCheck(t *testing.T) {
	require.True(t, WeilCheck(bigs(1, -2, 5), 5, 1))
	require.True(t, WeilCheck(bigs(1, 0, 5), 5, 1))
	require.True(t, WeilCheck(bigs(1, 0, -5), 5, 1))
	require.False(t, WeilCheck(bigs(1, -5, 5), 5, 1))
	require.True(t, WeilCheck(bigs(1, -3), 3, 2))
	require.True(t, WeilCheck(bigs(1, 3), 3, 2))
	require.False(t, WeilCheck(bigs(1, -2), 3, 2))
	// (1 - 2T + 5T^2)^2
	require.True(t, WeilCheck(bigs(1, -4, 14, -20, 25), 5, 1))
	// supersingular-like: 1 + 9T^2 over p = 3, w = 2 has roots of modulus 1/3.
	require.True(t, WeilCheck(bigs(1, 0, 9), 3, 2))
	require.False(t, WeilCheck(bigs(1, 0, 0), 3, 2))

	require.True(t, CheckFunctionalEquation(bigs(1, -2, 5), 5, 1, 1))
	require.False(t, CheckFunctionalEquation(bigs(1, -2, 4), 5, 1, 1))
	require.True(t, CheckFunctionalEquation(bigs(1, -3), 3, 2, -1))
}
