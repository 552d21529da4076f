// Package pointcount counts the points of a projective hypersurface over
// GF(p^r) by enumeration. It is the slow cross-check for zeta numerators.
package pointcount

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"controlledreduction/errs"
	"controlledreduction/internal/ff"
	"controlledreduction/poly"
)

// Limit bounds the number of points CountProjective is willing to visit.
const Limit = 1 << 28

// CountProjective returns #V(f)(GF(p^r)). Points are visited once each,
// normalised so that the first non-zero coordinate is 1.
func CountProjective(ctx context.Context, f *poly.Poly, p uint64, r int) (int64, error) {
	if !f.IsHomogeneous() || f.IsZero() {
		return 0, fmt.Errorf("pointcount: %s is not a non-zero form: %w", f, errs.ErrDomain)
	}
	field, err := ff.New(p, r)
	if err != nil {
		return 0, err
	}
	n := f.NVars()
	q := field.Order()
	if math.Pow(float64(q), float64(n-1)) > Limit {
		return 0, fmt.Errorf("pointcount: P^%d(GF(%d^%d)) has too many points: %w", n-1, p, r, errs.ErrDomain)
	}
	counts := make([]int64, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for lead := 0; lead < n; lead++ {
		lead := lead
		g.Go(func() error {
			c, err := countChart(gctx, field, f, lead)
			counts[lead] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return total, nil
}

// countChart counts the zeros with x_i = 0 for i < lead and x_lead = 1.
func countChart(ctx context.Context, field *ff.Field, f *poly.Poly, lead int) (int64, error) {
	n := f.NVars()
	x := make([]ff.Elem, n)
	for i := range x {
		x[i] = field.Zero()
	}
	x[lead] = field.One()
	free := n - lead - 1
	idx := make([]uint64, free)
	q := field.Order()
	var count int64
	for step := 0; ; step++ {
		if step%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		for k, v := range idx {
			x[lead+1+k] = field.At(v)
		}
		if field.IsZero(field.Eval(f, x)) {
			count++
		}
		k := 0
		for ; k < free; k++ {
			idx[k]++
			if idx[k] < q {
				break
			}
			idx[k] = 0
		}
		if k == free {
			return count, nil
		}
	}
}

// Counts returns #V(f)(GF(p^k)) for k = 1..r.
func Counts(ctx context.Context, f *poly.Poly, p uint64, r int) ([]int64, error) {
	out := make([]int64, 0, r)
	for k := 1; k <= r; k++ {
		c, err := CountProjective(ctx, f, p, k)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
