package dr

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/poly"
	"controlledreduction/store"
	"controlledreduction/tools"
	"github.com/stretchr/testify/require"
)

var xyz = []string{"x", "y", "z"}

func parse(t *testing.T, s string, vars []string) *poly.Poly {
	t.Helper()
	f, err := poly.Parse(s, vars)
	require.NoError(t, err)
	return f
}

func standardEngine(t *testing.T, f *poly.Poly, p uint64, prec int, opts Options) *Engine[uint64] {
	t.Helper()
	r, err := algebra.NewZmodWord(p, prec)
	require.NoError(t, err)
	s, err := NewStandard(f)
	require.NoError(t, err)
	e, err := New[uint64](s, r, opts)
	require.NoError(t, err)
	return e
}

func TestBasisDimensionsMatchHodgeNumbers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		f    string
		vars []string
		p    uint64
	}{
		{"plane cubic", "y^2 z - x^3 - x z^2 - z^3", xyz, 7},
		{"plane quartic", "x^4 + y^4 + z^4", xyz, 13},
		{"quadric surface", "x y - z w", []string{"x", "y", "z", "w"}, 5},
		{"quartic surface", "x^4 + y^4 + z^4 + w^4", []string{"x", "y", "z", "w"}, 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := parse(t, tc.f, tc.vars)
			e := standardEngine(t, f, tc.p, 2, Options{Threads: 2})
			require.NoError(t, e.ComputeEverything(ctx, e.Strategy().MaxLevel()))
			want, err := tools.HodgeNumbers(f.NVars()-1, f.Degree())
			require.NoError(t, err)
			var got []int64
			for _, l := range e.Levels() {
				got = append(got, int64(l.Dim()))
			}
			require.Equal(t, want, got)
			require.Equal(t, MatrixBuilt, e.State().Phase)
		})
	}
}

func TestOutOfOrder(t *testing.T) {
	ctx := context.Background()
	e := standardEngine(t, parse(t, "x^3 + y^3 + z^3", xyz), 7, 2, Options{})

	_, err := e.GetReductionMatrix(ctx, 1)
	require.ErrorIs(t, err, errs.ErrOutOfOrder)
	require.ErrorIs(t, e.BuildBasis(ctx, 2), errs.ErrOutOfOrder)
	_, err = e.ReducePoly(ctx, parse(t, "x^3", xyz), 2)
	require.ErrorIs(t, err, errs.ErrOutOfOrder)

	require.NoError(t, e.BuildBasis(ctx, 1))
	require.Equal(t, State{Phase: BasisBuilt, Level: 1}, e.State())
	require.ErrorIs(t, e.BuildBasis(ctx, 1), errs.ErrOutOfOrder)
	require.ErrorIs(t, e.BuildBasis(ctx, 2), errs.ErrOutOfOrder)
	_, err = e.GetReductionMatrix(ctx, 2)
	require.ErrorIs(t, err, errs.ErrOutOfOrder)

	l1, err := e.GetReductionMatrix(ctx, 1)
	require.NoError(t, err)
	again, err := e.GetReductionMatrix(ctx, 1)
	require.NoError(t, err)
	require.Same(t, l1, again)

	require.NoError(t, e.BuildBasis(ctx, 2))
	require.NoError(t, e.ComputeEverything(ctx, 3))
	require.Equal(t, Complete, e.State().Phase)
	require.Equal(t, "complete", e.State().String())
}

func TestNotSmooth(t *testing.T) {
	r, err := algebra.NewZmodWord(7, 2)
	require.NoError(t, err)
	s, err := NewStandard(parse(t, "y^2 z - x^3 - x^2 z", xyz))
	require.NoError(t, err)
	_, err = New[uint64](s, r, Options{})
	require.ErrorIs(t, err, errs.ErrNotSmooth)

	_, err = NewStandard(parse(t, "x^2 + y", xyz))
	require.ErrorIs(t, err, errs.ErrDomain)
}

func unit(e *Engine[uint64], i int) []uint64 {
	out := make([]uint64, e.Dim())
	out[i] = 1
	return out
}

// x^b F^t Omega / F^(m+t) is the basis element x^b Omega / F^m.
func TestInclusionReducesToBasisElement(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "y^2 z - x^3 - x z^2 - z^3", xyz)
	e := standardEngine(t, f, 101, 3, Options{Threads: 3})
	require.NoError(t, e.ComputeEverything(ctx, 10))

	for _, l := range e.Levels() {
		for i, b := range l.Basis {
			for k := 0; k <= 3; k++ {
				g := f.Pow(k).MulMonomial(b)
				c, err := e.ReducePoly(ctx, g, l.M+k)
				require.NoError(t, err)
				require.Zero(t, c.Scale)
				require.Equal(t, unit(e, e.Offset(l.M)+i), c.Values, "level %d basis %v power %d", l.M, b, k)
			}
		}
	}
}

// A Jacobian relation at pole order m has the same class as its image one
// pole order lower.
func TestRelationMatchesLowerPole(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3 + 2 x y z", xyz)
	e := standardEngine(t, f, 31, 3, Options{})
	require.NoError(t, e.ComputeEverything(ctx, 8))

	a := parse(t, "x^2 y + 3 z^3", xyz) // A_0, degree 3
	for _, m := range []int{3, 4, 6} {
		// deg A = m*d - n - 1 - (d - 1) = 3m - 5
		A := a.Mul(parse(t, "y", xyz).Pow(3*m - 5 - 3))
		lhs, err := e.ReducePoly(ctx, A.Mul(f.Derivative(0)), m)
		require.NoError(t, err)
		rhs, err := e.ReducePoly(ctx, A.Derivative(0), m-1)
		require.NoError(t, err)
		inv := new(big.Int).ModInverse(big.NewInt(int64(m-1)), big.NewInt(31*31*31))
		for i := range rhs.Values {
			rhs.Values[i] = e.Ring().Mul(rhs.Values[i], inv.Uint64())
		}
		require.Equal(t, rhs.Values, lhs.Values, "pole order %d", m)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "y^2 z - x^3 - x z^2 - z^3", xyz)
	a := standardEngine(t, f, 5, 4, Options{})
	require.NoError(t, a.ComputeEverything(ctx, 6))
	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))
	saved := buf.Bytes()

	b := standardEngine(t, f, 5, 4, Options{})
	require.NoError(t, b.Load(bytes.NewReader(saved)))
	require.Equal(t, Complete, b.State().Phase)
	la, lb := a.Levels(), b.Levels()
	require.Len(t, lb, len(la))
	for i := range la {
		require.Equal(t, la[i].Basis, lb[i].Basis)
		require.True(t, la[i].Coord.Equal(lb[i].Coord))
		if la[i].Down != nil {
			require.True(t, la[i].Down.Equal(lb[i].Down))
		}
	}
	var again bytes.Buffer
	require.NoError(t, b.Save(&again))
	require.Equal(t, saved, again.Bytes())

	g := parse(t, "x^7 y z + 4 y^9", xyz) // degree 9 = e_4
	ca, err := a.ReducePoly(ctx, g, 4)
	require.NoError(t, err)
	cb, err := b.ReducePoly(ctx, g, 4)
	require.NoError(t, err)
	require.Equal(t, ca, cb)

	other := standardEngine(t, f, 5, 3, Options{})
	require.ErrorIs(t, other.Load(bytes.NewReader(saved)), errs.ErrCorrupt)
	require.ErrorIs(t, b.Load(bytes.NewReader(saved)), errs.ErrOutOfOrder)
}

func TestStoreBackedMatrices(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := store.Open(dir, nil)
	require.NoError(t, err)
	f := parse(t, "x^3 + y^3 + z^3", xyz)

	first := standardEngine(t, f, 7, 3, Options{Store: st})
	require.NoError(t, first.ComputeEverything(ctx, 5))
	keys, err := st.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 3)

	second := standardEngine(t, f, 7, 3, Options{Store: st})
	require.NoError(t, second.ComputeEverything(ctx, 5))

	for _, k := range keys {
		path := filepath.Join(dir, k+".entry")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		data[len(data)-3] ^= 1
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	third := standardEngine(t, f, 7, 3, Options{Store: st})
	require.NoError(t, third.ComputeEverything(ctx, 5))

	g := parse(t, "x^4 y^2 + y^3 z^3 + x y z^4", xyz) // degree 6 = e_3
	want, err := first.ReducePoly(ctx, g, 3)
	require.NoError(t, err)
	for _, e := range []*Engine[uint64]{second, third} {
		got, err := e.ReducePoly(ctx, g, 3)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	for _, k := range keys {
		_, err := st.Get(k)
		require.NoError(t, err)
	}
}

func TestBigResiduesAgree(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "y^2 z - x^3 - x z^2 - z^3", xyz)
	small := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, small.ComputeEverything(ctx, 5))

	rb, err := algebra.NewZmodBig(7, 3)
	require.NoError(t, err)
	s, err := NewStandard(f)
	require.NoError(t, err)
	big3, err := New[*big.Int](s, rb, Options{})
	require.NoError(t, err)
	require.NoError(t, big3.ComputeEverything(ctx, 5))

	g := parse(t, "x^6 + 5 y^3 z^3 - x y^2 z^3", xyz) // degree 6 = e_3
	a, err := small.ReducePoly(ctx, g, 3)
	require.NoError(t, err)
	b, err := big3.ReducePoly(ctx, g, 3)
	require.NoError(t, err)
	require.Equal(t, a.Scale, b.Scale)
	for i := range a.Values {
		require.Equal(t, a.Values[i], b.Values[i].Uint64())
	}
}

func TestPrecisionLoss(t *testing.T) {
	e := standardEngine(t, parse(t, "x^3 + y^3 + z^3", xyz), 5, 2, Options{})
	require.Equal(t, 2, e.PrecisionLoss(11))
	require.Equal(t, LossBound(11, 5), e.PrecisionLoss(11))
	require.Equal(t, 0, e.PrecisionLoss(5))
	require.Equal(t, 1, e.PrecisionLoss(6))
	require.Equal(t, 6, LossBound(26, 5))
}
