package matrix

import (
	"fmt"

	"controlledreduction/errs"
)

var (
	// ErrSingular is returned when no unit pivot exists.
	ErrSingular = fmt.Errorf("matrix: singular matrix: %w", errs.ErrNotUnit)

	// ErrNotField is returned by algorithms that need division by any non-zero element.
	ErrNotField = fmt.Errorf("matrix: ring is not a field: %w", errs.ErrDomain)
)

func shapeErr(op string, ar, ac, br, bc int) error {
	return fmt.Errorf("matrix: %s of %dx%d and %dx%d: %w", op, ar, ac, br, bc, errs.ErrDimension)
}
