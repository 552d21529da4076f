package monomial

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumerateOrder(t *testing.T) {
	got := Enumerate(3, 2)
	want := []Monomial{{2, 0, 0}, {1, 1, 0}, {1, 0, 1}, {0, 2, 0}, {0, 1, 1}, {0, 0, 2}}
	require.Equal(t, want, got)
	for i := 1; i < len(got); i++ {
		require.Negative(t, Compare(got[i-1], got[i]))
	}
	require.Nil(t, Enumerate(3, -1))
	require.Equal(t, []Monomial{{0, 0}}, Enumerate(2, 0))
}

func TestRankRoundTrip(t *testing.T) {
	for nvars := 1; nvars <= 5; nvars++ {
		for deg := 0; deg <= 7; deg++ {
			ix := NewIndex(nvars, deg)
			all := Enumerate(nvars, deg)
			require.Equal(t, len(all), ix.Len())
			for i, u := range all {
				require.Equal(t, i, ix.Rank(u), "rank of %v", u)
				require.Equal(t, u, ix.At(i))
			}
		}
	}
	ix := NewIndex(3, 2)
	require.Equal(t, 4, ix.Rank(Monomial{0, 1, 1}))
	require.Equal(t, 2, ix.Rank(Monomial{1, 0, 1}))
	require.Equal(t, -1, ix.Rank(Monomial{1, 1, 1}))
	require.Equal(t, -1, ix.Rank(Monomial{1, 1}))
	require.Equal(t, 0, NewIndex(3, -2).Len())
	require.Equal(t, 15, Count(3, 4))
}

func TestSplitAndArithmetic(t *testing.T) {
	u := Monomial{3, 1, 2}
	w, rest := Split(nil, nil, u, 4)
	require.Equal(t, Monomial{1, 1, 2}, w)
	require.Equal(t, Monomial{2, 0, 0}, rest)
	require.Equal(t, u, Add(nil, w, rest))

	d, ok := Diff(nil, u, Monomial{1, 1, 0})
	require.True(t, ok)
	require.Equal(t, Monomial{2, 0, 2}, d)
	_, ok = Diff(nil, u, Monomial{0, 2, 0})
	require.False(t, ok)

	require.True(t, Divides(Monomial{1, 0, 2}, u))
	require.False(t, Divides(Monomial{0, 2, 0}, u))
	require.Equal(t, Monomial{7, 3, 5}, Scale(nil, u, 2, Constant(3, 1)))
	require.Equal(t, "x^3*y*z^2", u.Render("x", "y", "z"))
	require.Equal(t, "x0^3*x1*x2^2", fmt.Sprintf("%s", u))
	require.Equal(t, "1", Monomial{0, 0}.String())
	require.Equal(t, "3,1,2", u.Key())
}
