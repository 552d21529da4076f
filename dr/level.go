package dr

import (
	"context"
	"fmt"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/matrix"
	"controlledreduction/monomial"
	"controlledreduction/poly"
)

// Relation is the numerator x^Mult * G_Gen of one Macaulay column.
type Relation struct {
	Gen  int
	Mult monomial.Monomial
}

// Level holds the reduction data of one pole order m. A numerator x^u of
// degree Degree decomposes as Coord*e_u on the basis plus Down*e_u /
// Divisor(m) at pole order m-1.
type Level[E any] struct {
	M      int
	Degree int
	Basis  []monomial.Monomial
	// Pivots are the relations spanning the complement of the basis.
	Pivots []Relation
	Coord  *matrix.Dense[E]
	// Down is nil when nothing lies below this level.
	Down *matrix.Dense[E]
}

// Dim is the number of basis elements.
func (l *Level[E]) Dim() int { return len(l.Basis) }

// macaulay lists the relations of degree D and their dense expansions over
// the monomials of degree D.
func macaulay[E any](r algebra.PAdic[E], gens []*poly.Poly, nvars, D int) ([]Relation, [][]E) {
	ix := monomial.NewIndex(nvars, D)
	var rels []Relation
	var cols [][]E
	for g, gen := range gens {
		if gen.IsZero() {
			continue
		}
		coeffs := make([]E, gen.Len())
		for i, t := range gen.Terms() {
			coeffs[i] = r.FromBig(t.Coeff)
		}
		u := make(monomial.Monomial, nvars)
		for _, a := range monomial.Enumerate(nvars, D-gen.Degree()) {
			col := algebra.ZeroVector[E](r, ix.Len())
			for i, t := range gen.Terms() {
				monomial.Add(u, a, t.Exp)
				col[ix.Rank(u)] = coeffs[i]
			}
			rels = append(rels, Relation{Gen: g, Mult: a})
			cols = append(cols, col)
		}
	}
	return rels, cols
}

// eliminate walks the monomials in canonical order and gives each one the
// first remaining relation with a unit entry there after eliminating the
// earlier pivots. Monomials left without a relation form the basis.
func eliminate[E any](ctx context.Context, r algebra.PAdic[E], cols [][]E, nmon int) ([]int, error) {
	work := make([][]E, len(cols))
	for i, c := range cols {
		work[i] = append([]E(nil), c...)
	}
	used := make([]bool, len(cols))
	pivotOf := make([]int, nmon)
	for c := 0; c < nmon; c++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pivotOf[c] = -1
		var inv E
		for i := range work {
			if used[i] || r.Valuation(work[i][c]) != 0 {
				continue
			}
			y, err := r.Inv(work[i][c])
			if err != nil {
				continue
			}
			pivotOf[c], inv = i, y
			break
		}
		k := pivotOf[c]
		if k < 0 {
			continue
		}
		used[k] = true
		src := work[k]
		for i := range work {
			if used[i] || r.IsZero(work[i][c]) {
				continue
			}
			f := r.Mul(work[i][c], inv)
			row := work[i]
			for j := c; j < nmon; j++ {
				if !r.IsZero(src[j]) {
					row[j] = r.Sub(row[j], r.Mul(f, src[j]))
				}
			}
		}
	}
	return pivotOf, nil
}

// decomposition is the result of one elimination: the basis, the pivot
// relations and the inverse of [pivot columns | basis unit vectors].
type decomposition[E any] struct {
	basis  []monomial.Monomial
	pivots []Relation
	inv    *matrix.Dense[E]
}

func decompose[E any](ctx context.Context, r algebra.PAdic[E], gens []*poly.Poly, nvars, D int, withInverse bool) (*decomposition[E], error) {
	ix := monomial.NewIndex(nvars, D)
	nmon := ix.Len()
	rels, cols := macaulay(r, gens, nvars, D)
	pivotOf, err := eliminate(ctx, r, cols, nmon)
	if err != nil {
		return nil, err
	}
	out := &decomposition[E]{}
	var pivotCols [][]E
	var basisIdx []int
	for c := 0; c < nmon; c++ {
		if k := pivotOf[c]; k >= 0 {
			out.pivots = append(out.pivots, rels[k])
			pivotCols = append(pivotCols, cols[k])
			continue
		}
		out.basis = append(out.basis, ix.At(c).Clone())
		basisIdx = append(basisIdx, c)
	}
	if !withInverse || nmon == 0 {
		return out, nil
	}
	s, err := matrix.New[E](r, nmon, nmon)
	if err != nil {
		return nil, err
	}
	for k, col := range pivotCols {
		for i, x := range col {
			s.Put(i, k, x)
		}
	}
	for j, c := range basisIdx {
		s.Put(c, len(pivotCols)+j, r.One())
	}
	out.inv, err = matrix.Inverse(s)
	if err != nil {
		return nil, fmt.Errorf("dr: relations at degree %d: %w", D, err)
	}
	return out, nil
}

func subRows[E any](r algebra.Ring[E], m *matrix.Dense[E], lo, hi int) *matrix.Dense[E] {
	rows := make([][]E, 0, hi-lo)
	for i := lo; i < hi; i++ {
		rows = append(rows, append([]E(nil), m.Row(i)...))
	}
	if len(rows) == 0 {
		out, _ := matrix.New(r, 0, m.Cols())
		return out
	}
	out, _ := matrix.FromRows(r, rows)
	return out
}

// opMatrix expands Op_g(x^Mult) of every pivot relation at level m over the
// monomials of degree Degree(m-1).
func opMatrix[E any](r algebra.PAdic[E], s Strategy, m int, pivots []Relation) (*matrix.Dense[E], error) {
	nvars := s.Poly().NVars()
	lower := monomial.NewIndex(nvars, s.Degree(m-1))
	out, err := matrix.New[E](r, lower.Len(), len(pivots))
	if err != nil {
		return nil, err
	}
	var bad error
	for k, rel := range pivots {
		s.Apply(m, rel.Gen, rel.Mult, func(u monomial.Monomial, c int64) {
			i := lower.Rank(u)
			if i < 0 {
				bad = fmt.Errorf("dr: operator image %v outside degree %d: %w", u, lower.Degree(), errs.ErrDimension)
				return
			}
			out.Put(i, k, r.Add(out.Get(i, k), r.FromInt64(c)))
		})
	}
	return out, bad
}
