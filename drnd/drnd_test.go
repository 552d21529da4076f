package drnd

import (
	"context"
	"testing"

	"controlledreduction/algebra"
	"controlledreduction/dr"
	"controlledreduction/errs"
	"controlledreduction/poly"
	"github.com/stretchr/testify/require"
)

var xyz = []string{"x", "y", "z"}

const hesse = "x^3 + y^3 + z^3 + 5 x y z"

func parse(t *testing.T, s string) *poly.Poly {
	t.Helper()
	f, err := poly.Parse(s, xyz)
	require.NoError(t, err)
	return f
}

func engine(t *testing.T, f *poly.Poly, p uint64, prec int) *dr.Engine[uint64] {
	t.Helper()
	r, err := algebra.NewZmodWord(p, prec)
	require.NoError(t, err)
	e, err := New[uint64](f, r, dr.Options{Threads: 2})
	require.NoError(t, err)
	return e
}

func TestLevels(t *testing.T) {
	e := engine(t, parse(t, hesse), 7, 2)
	require.NoError(t, e.ComputeEverything(context.Background(), 5))
	var dims []int
	for _, l := range e.Levels() {
		dims = append(dims, l.Dim())
	}
	require.Equal(t, []int{1, 9, 1}, dims)

	levels := e.Levels()
	require.Nil(t, levels[0].Down)
	require.NotNil(t, levels[1].Down)
	require.Len(t, levels[1].Pivots, 1)
	require.Equal(t, 0, levels[1].Pivots[0].Gen)
	require.Equal(t, "toric", e.Strategy().Name())
}

func TestDegenerate(t *testing.T) {
	r, err := algebra.NewZmodWord(7, 2)
	require.NoError(t, err)
	_, err = New[uint64](parse(t, "x^3 + y^3 + x y z"), r, dr.Options{})
	require.ErrorIs(t, err, errs.ErrNotSmooth)

	_, err = NewToric(parse(t, "x^3 + y"))
	require.ErrorIs(t, err, errs.ErrDomain)
}

// x^b F^t eta / F^(m+t) is the basis element x^b eta / F^m, down to the torus
// class at pole order 0.
func TestInclusion(t *testing.T) {
	ctx := context.Background()
	f := parse(t, hesse)
	e := engine(t, f, 101, 3)
	require.NoError(t, e.ComputeEverything(ctx, 8))
	for _, l := range e.Levels() {
		for i, b := range l.Basis {
			for k := 0; k <= 2; k++ {
				c, err := e.ReducePoly(ctx, f.Pow(k).MulMonomial(b), l.M+k)
				require.NoError(t, err)
				want := make([]uint64, e.Dim())
				want[e.Offset(l.M)+i] = 1
				require.Equal(t, want, c.Values, "level %d basis %v power %d", l.M, b, k)
				require.Zero(t, c.Scale)
			}
		}
	}
}

// theta_0(A) eta / F^(m-1) equals (m-1) A theta_0 F eta / F^m.
func TestThetaRelation(t *testing.T) {
	ctx := context.Background()
	f := parse(t, hesse)
	e := engine(t, f, 101, 3)
	require.NoError(t, e.ComputeEverything(ctx, 6))
	theta := f.Theta(0)
	for _, m := range []int{2, 3, 5} {
		a := parse(t, "x y^2 + 3 z^3 - x^2 z").Mul(parse(t, "y").Pow(3*m - 6))
		lhs, err := e.ReducePoly(ctx, a.Mul(theta), m)
		require.NoError(t, err)
		rhs, err := e.ReducePoly(ctx, a.Theta(0), m-1)
		require.NoError(t, err)
		for i := range lhs.Values {
			lhs.Values[i] = e.Ring().Mul(lhs.Values[i], uint64(m-1))
		}
		require.Equal(t, rhs.Values, lhs.Values, "pole order %d", m)
	}
}
