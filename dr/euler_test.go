package dr

import (
	"bytes"
	"context"
	"testing"

	"controlledreduction/errs"
	"controlledreduction/monomial"
	"github.com/stretchr/testify/require"
)

// sameValue reports whether a / p^sa and b / p^sb agree.
func sameValue(e *Engine[uint64], a []uint64, sa int, b []uint64, sb int) bool {
	r := e.Ring()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !r.Equal(r.Mul(a[i], r.PowP(sb)), r.Mul(b[i], r.PowP(sa))) {
			return false
		}
	}
	return true
}

func TestTermMatchesDense(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3", xyz)
	e := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, e.ComputeEverything(ctx, 8))
	require.Equal(t, 7, e.EulerDegree())
	require.False(t, e.Holds(2))
	require.False(t, e.Holds(3)) // degree 6
	require.True(t, e.Holds(4))

	// x^4 y^4 * (x^2 y^2 z^3 + 5 x z^6) at pole order 6, degree 15.
	tm, err := e.NewTerm(6, monomial.Monomial{4, 4, 0})
	require.NoError(t, err)
	require.NoError(t, e.AddToTerm(tm, monomial.Monomial{2, 2, 3}, 1))
	require.NoError(t, e.AddToTerm(tm, monomial.Monomial{1, 0, 6}, 5))
	g := parse(t, "x^6 y^6 z^3 + 5 x^5 y^4 z^6", xyz)

	want, err := e.VectorOf(g, 6)
	require.NoError(t, err)
	got := e.ExpandTerm(tm)
	require.Equal(t, want.Coeffs, got.Coeffs)

	ref, err := e.ReduceVector(ctx, want)
	require.NoError(t, err)

	s5, err := e.StepTerm(tm, monomial.Monomial{3, 0, 0})
	require.NoError(t, err)
	require.Equal(t, 5, s5.Level)
	require.Equal(t, monomial.Monomial{1, 4, 0}, s5.U)
	s4, err := e.StepTerm(s5, monomial.Monomial{0, 3, 0})
	require.NoError(t, err)
	require.Equal(t, monomial.Monomial{1, 1, 0}, s4.U)

	// Each intermediate form reduces to the same class.
	for _, s := range []*Term[uint64]{s5, s4} {
		c, err := e.ReduceVector(ctx, e.ExpandTerm(s))
		require.NoError(t, err)
		require.True(t, sameValue(e, ref.Values, ref.Scale, c.Values, c.Scale), "pole order %d", s.Level)
	}

	v3, err := e.LowerTerm(s4)
	require.NoError(t, err)
	require.Equal(t, 3, v3.Level)
	c, err := e.ReduceVector(ctx, v3)
	require.NoError(t, err)
	require.True(t, sameValue(e, ref.Values, ref.Scale, c.Values, c.Scale))
}

func TestTermAdd(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3", xyz)
	e := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, e.ComputeEverything(ctx, 8))

	a, err := e.NewTerm(5, monomial.Monomial{0, 5, 0})
	require.NoError(t, err)
	b, err := e.NewTerm(5, monomial.Monomial{0, 5, 0})
	require.NoError(t, err)
	require.NoError(t, e.AddToTerm(a, monomial.Monomial{7, 0, 0}, 2))
	require.NoError(t, e.AddToTerm(b, monomial.Monomial{7, 0, 0}, 3))
	require.NoError(t, e.AddToTerm(b, monomial.Monomial{0, 0, 7}, 1))
	require.NoError(t, a.Add(e.Ring(), b))

	want, err := e.VectorOf(parse(t, "5 x^7 y^5 + y^5 z^7", xyz), 5)
	require.NoError(t, err)
	require.Equal(t, want.Coeffs, e.ExpandTerm(a).Coeffs)

	other, err := e.NewTerm(5, monomial.Monomial{5, 0, 0})
	require.NoError(t, err)
	require.ErrorIs(t, a.Add(e.Ring(), other), errs.ErrDimension)
}

func TestTermErrors(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3", xyz)
	e := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, e.ComputeEverything(ctx, 8))

	_, err := e.NewTerm(3, monomial.Monomial{0, 0, 0})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = e.NewTerm(5, monomial.Monomial{1, 0, 0})
	require.ErrorIs(t, err, errs.ErrDimension)

	tm, err := e.NewTerm(5, monomial.Monomial{2, 3, 0})
	require.NoError(t, err)
	require.ErrorIs(t, e.AddToTerm(tm, monomial.Monomial{1, 0, 0}, 1), errs.ErrDimension)
	_, err = e.StepTerm(tm, monomial.Monomial{0, 0, 3})
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = e.StepTerm(tm, monomial.Monomial{2, 0, 0})
	require.ErrorIs(t, err, errs.ErrDomain)

	low, err := e.NewTerm(4, monomial.Monomial{2, 0, 0})
	require.NoError(t, err)
	_, err = e.StepTerm(low, monomial.Monomial{2, 0, 0})
	require.ErrorIs(t, err, errs.ErrDomain)

	v := e.NewVector(4)
	require.ErrorIs(t, e.AddMonomial(v, monomial.Monomial{1, 0, 0}, 1), errs.ErrDimension)
	require.NoError(t, e.AddMonomial(v, monomial.Monomial{9, 0, 0}, 4))
	require.Equal(t, uint64(4), v.Coeffs[0])
}

// A degenerate form leaves the engine without terms; reduction is unaffected.
func TestDegenerateHasNoTerms(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "y^2 z - x^3 - x z^2 - z^3", xyz)
	e := standardEngine(t, f, 5, 3, Options{})
	require.NoError(t, e.ComputeEverything(ctx, 6))
	require.Equal(t, -1, e.EulerDegree())
	require.False(t, e.Holds(6))
	_, err := e.NewTerm(6, monomial.Monomial{15, 0, 0})
	require.ErrorIs(t, err, errs.ErrDomain)
}

func TestSaveLoadKeepsTerms(t *testing.T) {
	ctx := context.Background()
	f := parse(t, "x^3 + y^3 + z^3", xyz)
	a := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, a.ComputeEverything(ctx, 8))
	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))

	b := standardEngine(t, f, 7, 3, Options{})
	require.NoError(t, b.Load(bytes.NewReader(buf.Bytes())))
	require.Equal(t, a.EulerDegree(), b.EulerDegree())

	ta, err := a.NewTerm(5, monomial.Monomial{2, 3, 0})
	require.NoError(t, err)
	tb, err := b.NewTerm(5, monomial.Monomial{2, 3, 0})
	require.NoError(t, err)
	for _, tm := range []*Term[uint64]{ta, tb} {
		require.NoError(t, a.AddToTerm(tm, monomial.Monomial{1, 2, 4}, 3))
	}
	la, err := a.StepTerm(ta, monomial.Monomial{0, 3, 0})
	require.NoError(t, err)
	lb, err := b.StepTerm(tb, monomial.Monomial{0, 3, 0})
	require.NoError(t, err)
	require.Equal(t, la, lb)
}
