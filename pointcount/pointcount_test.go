package pointcount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"controlledreduction/errs"
	"controlledreduction/poly"
)

func parse(t *testing.T, s string, vars ...string) *poly.Poly {
	t.Helper()
	f, err := poly.Parse(s, vars)
	require.NoError(t, err)
	return f
}

func TestConicsAndLines(t *testing.T) {
	ctx := context.Background()
	conic := parse(t, "x^2 + y^2 + z^2", "x", "y", "z")
	line := parse(t, "x + 2 y - z", "x", "y", "z")
	for _, p := range []uint64{3, 5, 7} {
		counts, err := Counts(ctx, conic, p, 2)
		require.NoError(t, err)
		require.Equal(t, []int64{int64(p) + 1, int64(p*p) + 1}, counts)

		c, err := CountProjective(ctx, line, p, 2)
		require.NoError(t, err)
		require.Equal(t, int64(p*p)+1, c)
	}
}

func TestEllipticCurve(t *testing.T) {
	ctx := context.Background()
	e := parse(t, "y^2 z - x^3 - x z^2 - z^3", "x", "y", "z")
	// y^2 = x^3 + x + 1 has 4 affine points over GF(7) plus the point at infinity.
	c, err := CountProjective(ctx, e, 7, 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), c)

	// a_7 = 3, so #E(GF(49)) = 49 + 1 - (a^2 - 2*7).
	c, err = CountProjective(ctx, e, 7, 2)
	require.NoError(t, err)
	require.Equal(t, int64(49+1-(9-14)), c)
}

func TestQuadricSurface(t *testing.T) {
	// xy - zw is P^1 x P^1: (q+1)^2 points.
	f := parse(t, "x y - z w", "x", "y", "z", "w")
	c, err := CountProjective(context.Background(), f, 3, 1)
	require.NoError(t, err)
	require.Equal(t, int64(16), c)
}

func TestRejects(t *testing.T) {
	_, err := CountProjective(context.Background(), parse(t, "x^2 + y", "x", "y"), 5, 1)
	require.ErrorIs(t, err, errs.ErrDomain)
	_, err = CountProjective(context.Background(), parse(t, "x + y + z + w + v", "x", "y", "z", "w", "v"), 1000003, 3)
	require.ErrorIs(t, err, errs.ErrDomain)
}
