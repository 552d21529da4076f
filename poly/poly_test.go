package poly

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"controlledreduction/errs"
	"controlledreduction/monomial"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string, vars ...string) *Poly {
	t.Helper()
	f, err := Parse(s, vars)
	require.NoError(t, err)
	return f
}

func TestParse(t *testing.T) {
	f := mustParse(t, "x^3 + y^3 + z^3 - 3*x*y*z", "x", "y", "z")
	require.Equal(t, 3, f.NVars())
	require.Equal(t, 4, f.Len())
	require.Equal(t, 3, f.Degree())
	require.True(t, f.IsHomogeneous())
	require.Equal(t, int64(-3), f.Coeff(monomial.Monomial{1, 1, 1}).Int64())
	require.Equal(t, int64(1), f.Coeff(monomial.Monomial{0, 3, 0}).Int64())

	g := mustParse(t, "2 x0**2 x1 - x1*x2^2 + 5")
	require.Equal(t, 3, g.NVars())
	require.Equal(t, int64(2), g.Coeff(monomial.Monomial{2, 1, 0}).Int64())
	require.Equal(t, int64(5), g.Coeff(monomial.Monomial{0, 0, 0}).Int64())
	require.False(t, g.IsHomogeneous())

	h := mustParse(t, "x*x*y - x^2*y", "x", "y")
	require.True(t, h.IsZero())
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "x +", "x * ", "w^2", "3 ^ 2", "x y z", "x^", "+"} {
		_, err := Parse(s, []string{"x", "y"})
		require.Error(t, err, s)
		require.True(t, errors.Is(err, errs.ErrDomain), s)
	}
}

func TestStringRoundTrip(t *testing.T) {
	f := mustParse(t, "-x0^2*x1 + 7*x1^3 - x2^3 + 3*x0*x1*x2")
	g := mustParse(t, f.String())
	require.True(t, f.Equal(g), f.String())
}

func TestFormatVerbs(t *testing.T) {
	f := mustParse(t, "x^2*y - 3*z^2", "x", "y", "z")
	require.Equal(t, "x^2*y - 3*z^2", f.Render("x", "y", "z"))
	require.Equal(t, "x0^2*x1 - 3*x2^2", fmt.Sprintf("%s", f))
	err := fmt.Errorf("bad form %v", f)
	require.Equal(t, "bad form x0^2*x1 - 3*x2^2", err.Error())
}

func TestArithmetic(t *testing.T) {
	vars := []string{"x", "y"}
	a := mustParse(t, "x + y", vars...)
	b := mustParse(t, "x - y", vars...)
	require.True(t, a.Mul(b).Equal(mustParse(t, "x^2 - y^2", vars...)))
	require.True(t, a.Pow(3).Equal(mustParse(t, "x^3 + 3 x^2 y + 3 x y^2 + y^3", vars...)))
	require.True(t, a.Pow(0).Equal(Constant(2, big.NewInt(1))))
	require.True(t, a.Sub(a).IsZero())
	require.True(t, a.Add(b).Equal(mustParse(t, "2x", vars...)))

	c := mustParse(t, "6x^2 + 9y^2", vars...)
	q, err := c.DivExact(big.NewInt(3))
	require.NoError(t, err)
	require.True(t, q.Equal(mustParse(t, "2x^2 + 3y^2", vars...)))
	_, err = c.DivExact(big.NewInt(4))
	require.ErrorIs(t, err, errs.ErrDomain)

	require.True(t, c.Mod(big.NewInt(5)).Equal(mustParse(t, "x^2 + 4y^2", vars...)))
	require.True(t, a.PowVars(3).Equal(mustParse(t, "x^3 + y^3", vars...)))
	require.True(t, a.MulMonomial(monomial.Monomial{1, 2}).Equal(mustParse(t, "x^2 y^2 + x y^3", vars...)))
}

func TestDerivatives(t *testing.T) {
	vars := []string{"x", "y", "z"}
	f := mustParse(t, "y^2 z - x^3 - x^2 z", vars...)
	require.True(t, f.Derivative(0).Equal(mustParse(t, "-3x^2 - 2x z", vars...)))
	require.True(t, f.Derivative(2).Equal(mustParse(t, "y^2 - x^2", vars...)))
	require.True(t, f.Theta(1).Equal(mustParse(t, "2 y^2 z", vars...)))

	// Euler: sum x_i df/dx_i = deg(f) f
	sum := Zero(3)
	for i := 0; i < 3; i++ {
		sum = sum.Add(f.Theta(i))
	}
	require.True(t, sum.Equal(f.ScaleInt(big.NewInt(3))))
}

func TestEval(t *testing.T) {
	f := mustParse(t, "x^2 + y^2 - z^2", "x", "y", "z")
	require.Equal(t, uint64(0), f.EvalUint([]uint64{3, 4, 5}, 7))
	require.Equal(t, uint64(1), f.EvalUint([]uint64{1, 0, 0}, 7))
	m := big.NewInt(11)
	got := f.EvalMod([]*big.Int{big.NewInt(-1), big.NewInt(2), big.NewInt(0)}, m)
	require.Equal(t, int64(5), got.Int64())
}

func TestChangeOfVariables(t *testing.T) {
	vars := []string{"x", "y"}
	L := [][]*big.Int{
		{big.NewInt(1), big.NewInt(1)},
		{big.NewInt(0), big.NewInt(1)},
	}
	g, err := ChangeOfVariablesMonomial(monomial.Monomial{2, 1}, L)
	require.NoError(t, err)
	require.True(t, g.Equal(mustParse(t, "x^2 y + 2 x y^2 + y^3", vars...)))

	f := mustParse(t, "x^2 - y^2", vars...)
	h, err := ChangeOfVariables(f, L)
	require.NoError(t, err)
	require.True(t, h.Equal(mustParse(t, "x^2 + 2 x y", vars...)))

	_, err = ChangeOfVariables(f, L[:1])
	require.ErrorIs(t, err, errs.ErrDimension)
}

func TestDigest(t *testing.T) {
	f := mustParse(t, "x^3 + y^3 + z^3", "x", "y", "z")
	g := mustParse(t, "z^3 + 8 y^3 + x^3", "x", "y", "z")
	p := big.NewInt(7)
	require.Equal(t, f.Digest(p), g.Digest(p))
	require.NotEqual(t, f.Digest(nil), g.Digest(nil))
	require.NotEqual(t, f.Digest(p), f.Digest(big.NewInt(5)))
	require.Len(t, f.Digest(p), 64)
}

func TestNewValidates(t *testing.T) {
	_, err := New(2, []Term{{Exp: monomial.Monomial{1}, Coeff: big.NewInt(1)}})
	require.ErrorIs(t, err, errs.ErrDimension)
	_, err = New(2, []Term{{Exp: monomial.Monomial{-1, 2}, Coeff: big.NewInt(1)}})
	require.ErrorIs(t, err, errs.ErrDomain)
	f, err := FromInt64(2, map[string]int64{"2,0": 1, "0,2": -1, "1,1": 0})
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
}
