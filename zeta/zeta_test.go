package zeta

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v4/utils"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/hypersurface"
	"controlledreduction/matrix"
	"controlledreduction/pointcount"
	"controlledreduction/poly"
	"controlledreduction/prof"
	"controlledreduction/solve"
	"controlledreduction/store"
)

const weierstrass = "y^2 z - x^3 - x z^2 - z^3"

func parse(t *testing.T, s string, vars ...string) *poly.Poly {
	t.Helper()
	if len(vars) == 0 {
		vars = []string{"x", "y", "z"}
	}
	f, err := poly.Parse(s, vars)
	require.NoError(t, err)
	return f
}

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestEllipticCurves(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	f := parse(t, weierstrass)
	for _, p := range []uint64{5, 7, 11, 13} {
		res, err := Compute(ctx, f, p, Options{})
		require.NoError(t, err)
		counts, err := pointcount.Counts(ctx, f, p, 2)
		require.NoError(t, err)
		a := int64(p) + 1 - counts[0]
		require.Equal(t, ints(1, -a, int64(p)), res.Coeffs, "p=%d", p)
		require.Equal(t, 1, res.Weight)
		require.True(t, res.FunctionalEquation)
		require.True(t, res.RiemannHypothesis)
		require.Len(t, res.Attempts, 1)

		got, err := res.PointCounts(2)
		require.NoError(t, err)
		require.Equal(t, ints(counts...), got)
	}
}

func TestQuadricSurfaces(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	vars := []string{"x", "y", "z", "w"}
	cases := []struct {
		name string
		f    string
		want []*big.Int
	}{
		{"split", "x y - z w", ints(1, -3)},
		{"non-split", "x y - z^2 - w^2", ints(1, 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := parse(t, tc.f, vars...)
			res, err := Compute(ctx, f, 3, Options{})
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Coeffs)
			require.Equal(t, 2, res.Weight)

			n, err := pointcount.CountProjective(ctx, f, 3, 1)
			require.NoError(t, err)
			got, err := res.PointCounts(1)
			require.NoError(t, err)
			require.Equal(t, big.NewInt(n), got[0])

			rho, err := res.PicardBound()
			require.NoError(t, err)
			require.Equal(t, 2, rho)
		})
	}
}

func TestConic(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^2 + y^2 - 2 z^2")
	res, err := Compute(ctx, f, 5, Options{})
	require.NoError(t, err)
	require.Equal(t, ints(1), res.Coeffs)
	require.Empty(t, res.Attempts)

	counts, err := res.PointCounts(2)
	require.NoError(t, err)
	require.Equal(t, ints(6, 26), counts)
	direct, err := pointcount.CountProjective(ctx, f, 5, 1)
	require.NoError(t, err)
	require.Equal(t, int64(6), direct)

	series, err := res.ZetaSeries(3)
	require.NoError(t, err)
	require.Equal(t, ints(1, 6, 31, 156), series)
}

func TestHyperplane(t *testing.T) {
	res, err := Compute(context.Background(), parse(t, "x + 2 y + 3 z"), 7, Options{})
	require.NoError(t, err)
	require.Equal(t, ints(1), res.Coeffs)
}

func TestNotSmooth(t *testing.T) {
	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	mark := prof.Mark()
	res, err := Compute(context.Background(), parse(t, "y^2 z - x^3 - x^2 z"), 7, Options{Store: st})
	require.ErrorIs(t, err, errs.ErrNotSmooth)
	require.Contains(t, err.Error(), "x0^2*x2")
	require.Nil(t, res)
	var pe *errs.PrecisionExhaustedError
	require.False(t, errors.As(err, &pe))

	// nothing past the smoothness test ran
	for _, label := range prof.Labels(prof.Totals(prof.Since(mark))) {
		require.False(t, strings.HasPrefix(label, "dr."), label)
		require.False(t, strings.HasPrefix(label, "hypersurface."), label)
	}
	keys, err := st.Keys()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestDegreeDivisibleByCharacteristic(t *testing.T) {
	// smooth mod 3, but the partials share the zero (1:0:0)
	_, err := Compute(context.Background(), parse(t, "y^2 z - x^3 + x z^2"), 3, Options{})
	require.ErrorIs(t, err, errs.ErrDomain)
	require.NotErrorIs(t, err, errs.ErrNotSmooth)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	_, err := Compute(ctx, parse(t, weierstrass), 4, Options{})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = Compute(ctx, parse(t, "x^3 + y"), 7, Options{})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = Compute(ctx, parse(t, "5 x^3 + 10 y^3 + 5 z^3"), 5, Options{})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = Compute(ctx, parse(t, weierstrass), 1<<31+11, Options{})
	require.ErrorIs(t, err, errs.ErrDomain)
}

func TestLowHintRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	res, err := Compute(context.Background(), parse(t, weierstrass), 7, Options{PrecisionHint: 1})
	require.NoError(t, err)
	require.Equal(t, ints(1, -3, 7), res.Coeffs)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, 1, res.Attempts[0].Precision)
	require.NotEmpty(t, res.Attempts[0].Err)
	require.Equal(t, HeuristicPrecision(2, 3, 7), res.Attempts[1].Precision)
	require.Empty(t, res.Attempts[1].Err)
	require.Equal(t, res.Attempts[1].Precision, res.Precision)
}

func TestPrecisionExhausted(t *testing.T) {
	_, err := Compute(context.Background(), parse(t, weierstrass), 7, Options{
		PrecisionHint: 1,
		Retry:         RetryPolicy{Growth: 1.5, MaxRetries: 0},
	})
	require.ErrorIs(t, err, errs.ErrPrecisionExhausted)
	require.ErrorIs(t, err, errs.ErrInsufficientPrecision)
	var pe *errs.PrecisionExhaustedError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, 1, pe.LastPrecision)
	require.Equal(t, 1, pe.Attempts)
}

func TestRegimesAgree(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3 - x y z")
	exact, err := Compute(ctx, f, 5, Options{Regime: hypersurface.Exact})
	require.NoError(t, err)
	word, err := Compute(ctx, f, 5, Options{Regime: hypersurface.Truncated, Threads: 1})
	require.NoError(t, err)
	require.Equal(t, exact.Coeffs, word.Coeffs)
	require.Equal(t, "exact", exact.Attempts[0].Regime)
	require.Equal(t, "truncated", word.Attempts[0].Regime)
}

func TestChangeOfVariablesInvariance(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	f := parse(t, weierstrass)
	prng, err := utils.NewKeyedPRNG([]byte("change of variables"))
	require.NoError(t, err)
	L, err := matrix.RandomSL[*big.Int](algebra.Integers{}, 3, prng, 2)
	require.NoError(t, err)
	rows := make([][]*big.Int, 3)
	for i := range rows {
		rows[i] = L.Row(i)
	}
	g, err := poly.ChangeOfVariables(f, rows)
	require.NoError(t, err)

	a, err := Compute(ctx, f, 7, Options{})
	require.NoError(t, err)
	b, err := Compute(ctx, g, 7, Options{})
	require.NoError(t, err)
	require.Equal(t, a.Coeffs, b.Coeffs)
}

func TestSeriesAndCounts(t *testing.T) {
	res := &Result{Coeffs: ints(1, -3, 7), Prime: 7, N: 2, Weight: 1}
	counts, err := res.PointCounts(2)
	require.NoError(t, err)
	require.Equal(t, ints(5, 55), counts)

	series, err := res.ZetaSeries(2)
	require.NoError(t, err)
	// Z = exp(N1 T + N2 T^2 / 2 + ...)
	require.Equal(t, ints(1, 5, 40), series)
	require.Equal(t, ints(1, -8, 7), res.Denominator())
	require.Equal(t, "1 - 3*T + 7*T^2", res.String())

	_, err = res.PointCounts(0)
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = res.PicardBound()
	require.ErrorIs(t, err, errs.ErrDomain)
}

func TestHeuristicPrecision(t *testing.T) {
	require.Equal(t, 3, HeuristicPrecision(2, 3, 7))
	require.Equal(t, 3, HeuristicPrecision(3, 2, 3))
	require.Equal(t, 1, HeuristicPrecision(2, 2, 5))
	require.Equal(t, 5, HeuristicPrecision(3, 3, 5))
	require.Greater(t, HeuristicPrecision(3, 4, 7), HeuristicPrecision(2, 3, 7))
}

func TestModel(t *testing.T) {
	f := parse(t, weierstrass)
	g, ok, err := Model(f, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotSame(t, f, g)
	require.Equal(t, f.Degree(), g.Degree())
	nd, err := solve.IsNondegenerate(g, 7)
	require.NoError(t, err)
	require.True(t, nd)

	again, _, err := Model(f, 7)
	require.NoError(t, err)
	require.True(t, again.Equal(g))

	h := parse(t, "x^3 + 2 y^3 - z^3 + x y z")
	same, ok, err := Model(h, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, h, same)

	res, err := Compute(context.Background(), f, 7, Options{})
	require.NoError(t, err)
	require.Equal(t, g.String(), res.Model)
}

func TestLargePrimeCurve(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	f := parse(t, "x^3 + 2 y^3 - z^3 + x y z")
	const p = 97
	res, err := Compute(ctx, f, p, Options{})
	require.NoError(t, err)
	require.Empty(t, res.Model)
	counts, err := pointcount.Counts(ctx, f, p, 1)
	require.NoError(t, err)
	a := int64(p) + 1 - counts[0]
	require.Len(t, res.Coeffs, 3)
	for i, want := range ints(1, -a, p) {
		require.Zero(t, want.Cmp(res.Coeffs[i]), "c_%d = %s", i, res.Coeffs[i])
	}
	require.True(t, res.RiemannHypothesis)
}

func TestCubicSurface(t *testing.T) {
	if testing.Short() {
		t.Skip("zeta computation in short mode")
	}
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3 + w^3 + x y z", "x", "y", "z", "w")
	const p = 5
	res, err := Compute(ctx, f, p, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Weight)
	require.Len(t, res.Coeffs, 7)
	require.True(t, res.FunctionalEquation)

	want, err := pointcount.Counts(ctx, f, p, 2)
	require.NoError(t, err)
	got, err := res.PointCounts(2)
	require.NoError(t, err)
	require.Equal(t, ints(want...), got)
}
