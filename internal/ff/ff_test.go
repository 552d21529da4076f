package ff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"controlledreduction/errs"
)

func TestFieldAxioms(t *testing.T) {
	for _, c := range []struct {
		p uint64
		r int
	}{{2, 1}, {3, 2}, {5, 3}, {7, 2}, {2, 5}} {
		f, err := New(c.p, c.r)
		require.NoError(t, err)
		require.Equal(t, c.r+1, len(f.Modulus()))
		nonzero := 0
		for i := uint64(0); i < f.Order(); i++ {
			a := f.At(i)
			require.Equal(t, i, f.Index(a))
			if f.IsZero(a) {
				continue
			}
			nonzero++
			inv, err := f.Inv(a)
			require.NoError(t, err)
			require.True(t, f.Equal(f.One(), f.Mul(a, inv)), "GF(%d^%d) element %v", c.p, c.r, a)
			// Frobenius fixes every element of GF(p^r) after r steps.
			require.True(t, f.Equal(a, f.Pow(a, f.Order())))
		}
		require.Equal(t, int(f.Order())-1, nonzero)
	}
}

func TestDeterministicModulus(t *testing.T) {
	a, err := New(5, 4)
	require.NoError(t, err)
	b, err := New(5, 4)
	require.NoError(t, err)
	require.Equal(t, a.Modulus(), b.Modulus())
}

func TestRejects(t *testing.T) {
	_, err := New(6, 2)
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = NewWithModulus(3, 2, []uint64{2, 0, 1}) // x^2 - 1
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = NewWithModulus(3, 2, []uint64{1, 0, 1})
	require.NoError(t, err)

	f, err := New(7, 1)
	require.NoError(t, err)
	_, err = f.Inv(f.Zero())
	require.ErrorIs(t, err, errs.ErrNotUnit)
}
