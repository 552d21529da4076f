package dr

import (
	"fmt"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/tools"
)

// Vector is a form at one pole order: Coeffs are indexed by the canonical
// rank of the numerator monomials and the form is Coeffs / p^Scale.
type Vector[E any] struct {
	Level  int
	Coeffs []E
	Scale  int
}

// Coordinates are basis coordinates over all levels, valued Values / p^Scale.
type Coordinates[E any] struct {
	Values []E
	Scale  int
}

func rescale[E any](r algebra.PAdic[E], xs []E, by int) {
	if by <= 0 {
		return
	}
	f := r.PowP(by)
	for i, x := range xs {
		if !r.IsZero(x) {
			xs[i] = r.Mul(x, f)
		}
	}
}

// addScaled adds src/p^srcScale into dst/p^dstScale and returns the new
// scale of dst.
func addScaled[E any](r algebra.PAdic[E], dst []E, dstScale int, src []E, srcScale int) int {
	if srcScale > dstScale {
		rescale(r, dst, srcScale-dstScale)
		dstScale = srcScale
	}
	f := r.PowP(dstScale - srcScale)
	for i, x := range src {
		if r.IsZero(x) {
			continue
		}
		if dstScale != srcScale {
			x = r.Mul(x, f)
		}
		dst[i] = r.Add(dst[i], x)
	}
	return dstScale
}

// divide divides xs/p^scale by c and returns the new scale.
func divide[E any](r algebra.PAdic[E], xs []E, scale int, c int64) (int, error) {
	if c == 0 {
		return 0, fmt.Errorf("dr: division by zero: %w", errs.ErrDomain)
	}
	p := r.Prime()
	t := tools.Valuation(c, p)
	u := c
	for i := int64(0); i < t; i++ {
		u /= int64(p)
	}
	if u == 1 {
		return scale + int(t), nil
	}
	inv, err := r.Inv(r.FromInt64(u))
	if err != nil {
		return 0, err
	}
	for i, x := range xs {
		if !r.IsZero(x) {
			xs[i] = r.Mul(x, inv)
		}
	}
	return scale + int(t), nil
}

// add accumulates vals/p^scale into the slots starting at offset.
func (c *Coordinates[E]) add(r algebra.PAdic[E], offset int, vals []E, scale int) {
	if scale > c.Scale {
		rescale(r, c.Values, scale-c.Scale)
		c.Scale = scale
	}
	addScaled(r, c.Values[offset:offset+len(vals)], c.Scale, vals, scale)
}

// Add accumulates src into v. Both must sit at the same pole order.
func (v *Vector[E]) Add(r algebra.PAdic[E], src *Vector[E]) error {
	if v.Level != src.Level || len(v.Coeffs) != len(src.Coeffs) {
		return fmt.Errorf("dr: adding a form at pole order %d (%d terms) to pole order %d (%d terms): %w",
			src.Level, len(src.Coeffs), v.Level, len(v.Coeffs), errs.ErrDimension)
	}
	v.Scale = addScaled(r, v.Coeffs, v.Scale, src.Coeffs, src.Scale)
	return nil
}

// Rescale rewrites the values over p^scale; scales below the current one
// are ignored.
func (c *Coordinates[E]) Rescale(r algebra.PAdic[E], scale int) {
	if scale <= c.Scale {
		return
	}
	rescale(r, c.Values, scale-c.Scale)
	c.Scale = scale
}
