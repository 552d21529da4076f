package zeta

import (
	"math/big"
	"strconv"

	"github.com/tuneinsight/lattigo/v4/utils"

	"controlledreduction/algebra"
	"controlledreduction/matrix"
	"controlledreduction/poly"
	"controlledreduction/solve"
)

// modelTries bounds the number of random changes of variables Model tries.
const modelTries = 16

// Model returns a polynomial defining a hypersurface isomorphic to V(f) over
// GF(p) that is non-degenerate modulo p, so that its Frobenius series can be
// lowered through fixed-degree terms. f itself is returned when it already
// is non-degenerate, and also, with ok false, when no change of variables of
// determinant one drawn from a PRNG keyed by f and p makes it so.
func Model(f *poly.Poly, p uint64) (g *poly.Poly, ok bool, err error) {
	if ok, err := solve.IsNondegenerate(f, p); err != nil || ok {
		return f, ok, err
	}
	prng, err := utils.NewKeyedPRNG([]byte("model/" + strconv.FormatUint(p, 10) + "/" + f.NormalForm(nil)))
	if err != nil {
		return nil, false, err
	}
	n := f.NVars()
	for try := 0; try < modelTries; try++ {
		L, err := matrix.RandomSL[*big.Int](algebra.Integers{}, n, prng, 1+int64(try/4))
		if err != nil {
			return nil, false, err
		}
		rows := make([][]*big.Int, n)
		for i := range rows {
			rows[i] = L.Row(i)
		}
		g, err := poly.ChangeOfVariables(f, rows)
		if err != nil {
			return nil, false, err
		}
		if ok, err := solve.IsNondegenerate(g, p); err != nil {
			return nil, false, err
		} else if ok {
			return g, true, nil
		}
	}
	return f, false, nil
}
