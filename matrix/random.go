package matrix

import (
	"encoding/binary"
	"fmt"

	"github.com/tuneinsight/lattigo/v4/utils"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// RandomSL draws an n x n matrix of determinant one as a product
// L * U * P of a random unit lower triangular, a random unit upper triangular
// and a signed permutation of determinant one. Entries of L and U are drawn
// uniformly from [-bound, bound].
func RandomSL[E any](r algebra.Ring[E], n int, prng utils.PRNG, bound int64) (*Dense[E], error) {
	if n < 0 || bound < 0 {
		return nil, fmt.Errorf("matrix: random SL(%d) with bound %d: %w", n, bound, errs.ErrDomain)
	}
	draw := func() (E, error) {
		v, err := randInt64(prng, 2*bound+1)
		if err != nil {
			var z E
			return z, err
		}
		return r.FromInt64(v - bound), nil
	}
	lower, upper := Identity(r, n), Identity(r, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v, err := draw()
			if err != nil {
				return nil, err
			}
			if i > j {
				lower.Put(i, j, v)
			} else {
				upper.Put(i, j, v)
			}
		}
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sign := 1
	for i := n - 1; i > 0; i-- {
		k, err := randInt64(prng, int64(i+1))
		if err != nil {
			return nil, err
		}
		if int(k) != i {
			perm[i], perm[k] = perm[k], perm[i]
			sign = -sign
		}
	}
	pm := zero(r, n, n)
	for i, j := range perm {
		pm.Put(i, j, r.One())
	}
	if sign < 0 && n > 0 {
		row := pm.Row(0)
		for j := range row {
			row[j] = r.Neg(row[j])
		}
	}
	lu, err := Mul(lower, upper)
	if err != nil {
		return nil, err
	}
	return Mul(lu, pm)
}

// randInt64 returns a value in [0, limit) from the PRNG stream.
func randInt64(prng utils.PRNG, limit int64) (int64, error) {
	if limit <= 1 {
		return 0, nil
	}
	var buf [8]byte
	if _, err := prng.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("matrix: reading PRNG: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) % uint64(limit)), nil
}
