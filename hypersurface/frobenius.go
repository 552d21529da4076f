package hypersurface

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"controlledreduction/algebra"
	"controlledreduction/dr"
	"controlledreduction/matrix"
	"controlledreduction/monomial"
	"controlledreduction/prof"
	"controlledreduction/tools"
)

// FrobeniusMatrix is the matrix of Frobenius on the reduction basis. The
// true matrix is M / p^Scale and is known modulo p^AbsPrecision.
type FrobeniusMatrix[E any] struct {
	Ring         algebra.PAdic[E]
	M            *matrix.Dense[E]
	Scale        int
	AbsPrecision int
	// Weight is the weight of the eigenvalues of M / p.
	Weight int
}

// Input packages the matrix for matrix.CharPolyFrobenius.
func (fm *FrobeniusMatrix[E]) Input() matrix.FrobeniusInput[E] {
	return matrix.FrobeniusInput[E]{
		Ring:         fm.Ring,
		Matrix:       fm.M,
		Scale:        fm.Scale,
		AbsPrecision: fm.AbsPrecision,
		Twist:        1,
		Weight:       fm.Weight,
	}
}

// Lifted returns the entries of M as integers in [0, p^W).
func (fm *FrobeniusMatrix[E]) Lifted() [][]string {
	out := make([][]string, fm.M.Rows())
	for i := range out {
		out[i] = make([]string, fm.M.Cols())
		for j := range out[i] {
			out[i][j] = fm.Ring.Lift(fm.M.Get(i, j)).String()
		}
	}
	return out
}

// bandCoefficients returns p^n D_i mod p^W for i < J, where
// D_i = (-1)^i sum_{j=i}^{J-1} C(k+j-1, j) C(j, i) and C(j-1, j) = 0 for
// j > 0. Expanding Delta^j = ((F^p - F(x^p)) / p)^j in the truncated series
// gives
// Frob(x^beta Omega / F^k) = sum_i p^n D_i x^base F(x^p)^i / F^(p(k+i)).
func (e *Engine[E]) bandCoefficients(k, J int) ([]E, error) {
	r := e.ring
	out := make([]E, J)
	pn := r.PowP(e.n)
	for i := 0; i < J; i++ {
		sum := new(big.Int)
		for j := i; j < J; j++ {
			if k == 0 && j > 0 {
				break
			}
			a := big.NewInt(1)
			if j > 0 {
				var err error
				if a, err = tools.BinomialBig(int64(k+j-1), int64(j)); err != nil {
					return nil, err
				}
			}
			b, err := tools.BinomialBig(int64(j), int64(i))
			if err != nil {
				return nil, err
			}
			sum.Add(sum, a.Mul(a, b))
		}
		if i%2 == 1 {
			sum.Neg(sum)
		}
		out[i] = r.Mul(pn, r.FromBig(sum))
	}
	return out, nil
}

// FrobColumn returns the basis coordinates of Frob(x^beta Omega / F^k). The
// series is summed from its highest pole order downwards: the running form
// is lowered one pole order at a time and the monomials of each band join it
// at their own pole order. The reduction engine must be Complete up to
// TopLevel.
func (e *Engine[E]) FrobColumn(ctx context.Context, k int, beta monomial.Monomial) (*dr.Coordinates[E], error) {
	r := e.ring
	J := SeriesLength(e.n, e.p, e.prec, k)
	coefs, err := e.bandCoefficients(k, J)
	if err != nil {
		return nil, err
	}
	p := int(e.p)
	c := e.newColumn(p*(k+J-1), monomial.Scale(nil, beta, p, e.strat.FrobeniusShift(p)))
	for i := J - 1; i >= 0; i-- {
		if err := c.lowerTo(ctx, p*(k+i)); err != nil {
			return nil, err
		}
		if !r.IsZero(coefs[i]) {
			for _, t := range e.ComputeFpow(i).Terms() {
				x := r.Mul(coefs[i], r.FromBig(t.Coeff))
				if r.IsZero(x) {
					continue
				}
				if err := c.inject(monomial.Scale(nil, t.Exp, p, c.base), x); err != nil {
					return nil, err
				}
			}
		}
		c.direct(i)
	}
	if err := c.lowerTo(ctx, e.strat.MinLevel()-1); err != nil {
		return nil, err
	}
	return c.acc, nil
}

// FrobMatrix computes the Frobenius matrix, one column per basis element in
// parallel. With a store the matrix is loaded when present and published
// otherwise.
func (e *Engine[E]) FrobMatrix(ctx context.Context) (*FrobeniusMatrix[E], error) {
	defer prof.Track(time.Now(), "hypersurface.frobenius")
	key := e.frobKey()
	if e.store != nil {
		fm, err := LoadFrobenius(e.store, key, e.ring)
		if err == nil {
			e.log.Debug("frobenius matrix loaded", "stage", "frobenius", "key", key)
			return fm, nil
		}
		if err = e.store.Recover(key, err); err != nil && !isMissing(err) {
			return nil, err
		}
	}
	if err := e.dr.ComputeEverything(ctx, e.TopLevel()); err != nil {
		return nil, err
	}
	levels := e.dr.Levels()
	J := 1
	for _, l := range levels {
		if l.Dim() > 0 {
			J = max(J, SeriesLength(e.n, e.p, e.prec, l.M))
		}
	}
	e.log.Debug("lifting frobenius", "stage", "frobenius", "terms", J, "top", e.TopLevel(), "euler_degree", e.dr.EulerDegree())

	dim := e.dr.Dim()
	cols := make([]*dr.Coordinates[E], dim)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)
	for _, l := range levels {
		off := e.dr.Offset(l.M)
		for i, beta := range l.Basis {
			beta, k, col := beta, l.M, off+i
			g.Go(func() error {
				c, err := e.FrobColumn(gctx, k, beta)
				if err != nil {
					return fmt.Errorf("hypersurface: column %d: %w", col, err)
				}
				cols[col] = c
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scale := 0
	for _, c := range cols {
		scale = max(scale, c.Scale)
	}
	m, err := matrix.New[E](e.ring, dim, dim)
	if err != nil {
		return nil, err
	}
	for j, c := range cols {
		c.Rescale(e.ring, scale)
		for i, x := range c.Values {
			m.Put(i, j, x)
		}
	}
	fm := &FrobeniusMatrix[E]{
		Ring:         e.ring,
		M:            m,
		Scale:        scale,
		AbsPrecision: min(e.prec, e.ring.Precision()-scale),
		Weight:       e.n - 1,
	}
	e.log.Debug("frobenius matrix built", "stage", "frobenius", "dim", dim, "scale", scale, "precision", fm.AbsPrecision)
	if e.store != nil {
		if err := SaveFrobenius(e.store, key, fm); err != nil {
			e.log.Warn("cannot publish frobenius matrix", "key", key, "err", err)
		}
	}
	return fm, nil
}
