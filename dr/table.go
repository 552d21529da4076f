package dr

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/monomial"
	"controlledreduction/poly"
)

type tableTerm[E any] struct {
	gen   int
	mult  monomial.Monomial
	coeff E
}

// table writes every monomial w of the controlled degree as
// sum c * x^mult * G_gen.
type table[E any] struct {
	degree int
	terms  [][]tableTerm[E]
}

func (t *table[E]) size() int {
	n := 0
	for _, ts := range t.terms {
		n += len(ts)
	}
	return n
}

func notCovered(D, n int) error {
	return fmt.Errorf("dr: generators leave %d monomials of degree %d uncovered: %w", n, D, errs.ErrDomain)
}

func buildTable[E any](ctx context.Context, r algebra.PAdic[E], gens []*poly.Poly, nvars, D int) (*table[E], error) {
	dec, err := decompose(ctx, r, gens, nvars, D, true)
	if err != nil {
		return nil, err
	}
	if len(dec.basis) > 0 {
		return nil, notCovered(D, len(dec.basis))
	}
	nmon := len(dec.pivots)
	t := &table[E]{degree: D, terms: make([][]tableTerm[E], nmon)}
	for w := 0; w < nmon; w++ {
		for k, rel := range dec.pivots {
			c := dec.inv.Get(k, w)
			if r.IsZero(c) {
				continue
			}
			t.terms[w] = append(t.terms[w], tableTerm[E]{gen: rel.Gen, mult: rel.Mult, coeff: c})
		}
	}
	return t, nil
}

// controlledStep lowers a vector above MaxLevel by one pole order: every
// monomial splits as x^w * x^v with deg w the controlled degree, x^w is
// rewritten through the table and the operators act on x^(v+mult).
func (e *Engine[E]) controlledStep(ctx context.Context, v *Vector[E]) (*Vector[E], error) {
	r, s, t := e.ring, e.strat, e.table
	nvars := s.Poly().NVars()
	m := v.Level
	in := monomial.NewIndex(nvars, s.Degree(m))
	out := monomial.NewIndex(nvars, s.Degree(m-1))
	ctl := monomial.NewIndex(nvars, t.degree)

	threads := max(1, e.threads)
	chunk := (len(v.Coeffs) + threads - 1) / threads
	if chunk == 0 {
		chunk = 1
	}
	var bufs [][]E
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(v.Coeffs); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(v.Coeffs))
		buf := algebra.ZeroVector[E](r, out.Len())
		bufs = append(bufs, buf)
		g.Go(func() error {
			w := make(monomial.Monomial, nvars)
			rest := make(monomial.Monomial, nvars)
			z := make(monomial.Monomial, nvars)
			for i := lo; i < hi; i++ {
				c := v.Coeffs[i]
				if r.IsZero(c) {
					continue
				}
				if (i-lo)%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				monomial.Split(w, rest, in.At(i), t.degree)
				for _, term := range t.terms[ctl.Rank(w)] {
					monomial.Add(z, rest, term.mult)
					cc := r.Mul(c, term.coeff)
					s.Apply(m, term.gen, z, func(u monomial.Monomial, k int64) {
						j := out.Rank(u)
						buf[j] = r.Add(buf[j], r.Mul(cc, r.FromInt64(k)))
					})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res := algebra.ZeroVector[E](r, out.Len())
	for _, buf := range bufs {
		for j, x := range buf {
			if !r.IsZero(x) {
				res[j] = r.Add(res[j], x)
			}
		}
	}
	scale, err := divide(r, res, v.Scale, s.Divisor(m))
	if err != nil {
		return nil, err
	}
	return &Vector[E]{Level: m - 1, Coeffs: res, Scale: scale}, nil
}
