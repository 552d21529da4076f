// Package hypersurfacend lifts Frobenius on the cohomology of the torus
// complement of a non-degenerate hypersurface.
package hypersurfacend

import (
	"controlledreduction/algebra"
	"controlledreduction/drnd"
	"controlledreduction/hypersurface"
	"controlledreduction/poly"
)

// WorkingPrecision is the precision the ring of New needs for target N.
func WorkingPrecision(f *poly.Poly, p uint64, N int) (int, error) {
	s, err := drnd.NewToric(f)
	if err != nil {
		return 0, err
	}
	return hypersurface.WorkingPrecision(s, p, N), nil
}

// New returns a Frobenius engine over the toric reduction of f.
func New[E any](f *poly.Poly, r algebra.PAdic[E], opts hypersurface.Options) (*hypersurface.Engine[E], error) {
	s, err := drnd.NewToric(f)
	if err != nil {
		return nil, err
	}
	return hypersurface.New[E](s, r, opts)
}
