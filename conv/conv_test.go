package conv

import (
	"math/big"
	"testing"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/matrix"
	"github.com/stretchr/testify/require"
)

func TestSymmetricLift(t *testing.T) {
	m := big.NewInt(125)
	require.Equal(t, int64(62), SymmetricLift(big.NewInt(62), m).Int64())
	require.Equal(t, int64(-62), SymmetricLift(big.NewInt(63), m).Int64())
	require.Equal(t, int64(-1), SymmetricLift(big.NewInt(-1), m).Int64())
	require.Equal(t, int64(3), SymmetricLift(big.NewInt(253), m).Int64())

	r, err := algebra.NewZmodWord(5, 3)
	require.NoError(t, err)
	require.Equal(t, int64(-7), Lift[uint64](r, ToResidue[uint64](r, big.NewInt(-7))).Int64())
}

func TestRatRoundTrip(t *testing.T) {
	r, err := algebra.NewZmodBig(7, 12)
	require.NoError(t, err)
	for _, q := range []*big.Rat{big.NewRat(1, 3), big.NewRat(-22, 5), big.NewRat(100, 1), big.NewRat(0, 1)} {
		x, err := RatToPAdic[*big.Int](r, q)
		require.NoError(t, err)
		back, err := PAdicToRat(r.Lift(x), r.Modulus())
		require.NoError(t, err)
		require.Equal(t, 0, back.Cmp(q), q.RatString())
	}
	_, err = RatToPAdic[*big.Int](r, big.NewRat(1, 14))
	require.ErrorIs(t, err, errs.ErrDomain)
}

func TestCRT(t *testing.T) {
	x, err := CRT(
		[]*big.Int{big.NewInt(2), big.NewInt(3), big.NewInt(2)},
		[]*big.Int{big.NewInt(3), big.NewInt(5), big.NewInt(7)},
	)
	require.NoError(t, err)
	require.Equal(t, int64(23), x.Int64())

	_, err = CRT([]*big.Int{big.NewInt(1), big.NewInt(1)}, []*big.Int{big.NewInt(4), big.NewInt(6)})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = CRT([]*big.Int{big.NewInt(1)}, nil)
	require.ErrorIs(t, err, errs.ErrDimension)
}

func TestMatrixConversions(t *testing.T) {
	r, err := algebra.NewZmodWord(3, 4)
	require.NoError(t, err)
	m, err := matrix.FromInt64[*big.Int](algebra.Integers{}, [][]int64{{1, -2}, {40, -40}})
	require.NoError(t, err)
	res := MatrixToResidue[uint64](r, m)
	require.Equal(t, uint64(79), res.Get(0, 1))
	back := MatrixLift[uint64](r, res)
	require.True(t, back.Equal(m))
}
