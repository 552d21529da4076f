package main

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"controlledreduction/zeta"
)

func TestHistogram(t *testing.T) {
	labels, counts := histogram([]float64{-1, -0.9, 0, 0.95, 1}, 4)
	require.Equal(t, []string{"-0.75", "-0.25", "0.25", "0.75"}, labels)
	require.Equal(t, []int{2, 0, 1, 2}, counts)
}

func TestSemicircleMass(t *testing.T) {
	var total float64
	for _, d := range semicircle(100, 20) {
		total += d.Value.(float64)
	}
	require.InDelta(t, 100, total, 1e-9)

	for _, nbins := range []int{3, 7, 30} {
		bins := semicircle(1, nbins)
		for i, d := range bins {
			v := d.Value.(float64)
			require.False(t, math.IsNaN(v), "bin %d of %d", i, nbins)
			require.GreaterOrEqual(t, v, 0.0)
		}
		require.InDelta(t, bins[0].Value.(float64), bins[nbins-1].Value.(float64), 1e-9)
	}
}

func TestNormalized(t *testing.T) {
	res := &zeta.Result{Coeffs: []*big.Int{big.NewInt(1), big.NewInt(-3), big.NewInt(7)}, Prime: 7, Weight: 1}
	a, x := normalized(res)
	require.Equal(t, int64(3), a)
	require.InDelta(t, 3/(2*2.6457513110645907), x, 1e-12)
}
