package dr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/monomial"
	"controlledreduction/poly"
	"controlledreduction/prof"
	"controlledreduction/solve"
)

// Euler is implemented by strategies whose relations above MaxLevel can be
// generated by the forms theta_i F = x_i dF/dx_i. At pole order m the
// numerator x^z * theta_i F is then equivalent to
// (z_i + EulerShift()) x^z / Divisor(m) at pole order m-1, so a numerator
// x^u * G with G of a fixed degree keeps that shape while the pole drops.
type Euler interface {
	Thetas() []*poly.Poly
	EulerShift() int
}

func eulerDegree(s Strategy) int {
	return solve.ToricDegree(s.Poly().NVars(), s.Poly().Degree())
}

type eulerTerm[E any] struct {
	gen   int
	rank  int
	coeff E
	// coeff * (mult[gen] + shift)
	fixed E
}

// eulerTable is a table over the theta forms with every multiplier ranked
// among the monomials of degree D-d.
type eulerTable[E any] struct {
	table  *table[E]
	degree int
	rows   [][]eulerTerm[E]
	ix     *monomial.Index
	low    *monomial.Index
}

func newEulerTable[E any](r algebra.PAdic[E], s Strategy, eu Euler, t *table[E]) *eulerTable[E] {
	nvars, d := s.Poly().NVars(), s.Poly().Degree()
	et := &eulerTable[E]{
		table:  t,
		degree: t.degree,
		rows:   make([][]eulerTerm[E], len(t.terms)),
		ix:     monomial.NewIndex(nvars, t.degree),
		low:    monomial.NewIndex(nvars, t.degree-d),
	}
	shift := int64(eu.EulerShift())
	for w, ts := range t.terms {
		row := make([]eulerTerm[E], len(ts))
		for i, term := range ts {
			row[i] = eulerTerm[E]{
				gen:   term.gen,
				rank:  et.low.Rank(term.mult),
				coeff: term.coeff,
				fixed: r.Mul(term.coeff, r.FromInt64(int64(term.mult[term.gen])+shift)),
			}
		}
		et.rows[w] = row
	}
	return et
}

// sharesTable reports whether the controlled table already is the table of
// the theta forms.
func (e *Engine[E]) sharesTable(eu Euler) bool {
	s := e.strat
	if s.ControlledDegree() != eulerDegree(s) {
		return false
	}
	gens, thetas := s.Generators(s.MaxLevel()+1), eu.Thetas()
	if len(gens) != len(thetas) {
		return false
	}
	for i := range gens {
		if !gens[i].Equal(thetas[i]) {
			return false
		}
	}
	return true
}

// loadOrBuildEuler prepares the theta table. Theta forms that do not cover
// their degree modulo p leave the engine without one; forms above MaxLevel
// are then lowered through the controlled table only.
func (e *Engine[E]) loadOrBuildEuler(ctx context.Context, eu Euler) error {
	if e.table != nil && e.sharesTable(eu) {
		e.euler = newEulerTable(e.ring, e.strat, eu, e.table)
		return nil
	}
	defer prof.Track(time.Now(), "dr.euler")
	gens, D := eu.Thetas(), eulerDegree(e.strat)
	key := e.keyFor("dr-euler")
	if e.store != nil {
		t, err := e.loadTable(key, gens, D)
		if err == nil {
			e.euler = newEulerTable(e.ring, e.strat, eu, t)
			return nil
		}
		if err = e.store.Recover(key, err); err != nil && !isMissing(err) {
			return err
		}
	}
	t, err := buildTable(ctx, e.ring, gens, e.strat.Poly().NVars(), D)
	if errors.Is(err, errs.ErrDomain) {
		e.log.Debug("theta forms do not cover their degree", "stage", "table", "degree", D, "err", err)
		return nil
	}
	if err != nil {
		return err
	}
	e.euler = newEulerTable(e.ring, e.strat, eu, t)
	e.log.Debug("theta table built", "stage", "table", "degree", D, "terms", t.size())
	if e.store != nil {
		if err := e.store.PutJSON(key, e.encodeTable(t)); err != nil {
			e.log.Warn("cannot publish theta table", "key", key, "err", err)
		}
	}
	return nil
}

// EulerDegree is the degree of the G part of a Term, or -1 when the engine
// has no theta table.
func (e *Engine[E]) EulerDegree() int {
	if e.euler == nil {
		return -1
	}
	return e.euler.degree
}

// Holds reports whether forms at pole order m can be carried as a Term.
func (e *Engine[E]) Holds(m int) bool {
	return e.euler != nil && m > e.strat.MaxLevel() && e.strat.Degree(m) >= e.euler.degree
}

// Term is the form x^U * G Omega / F^Level, valued G / p^Scale, where G runs
// over the monomials of EulerDegree. Its size does not depend on the pole
// order.
type Term[E any] struct {
	Level int
	U     monomial.Monomial
	G     []E
	Scale int
}

// NewTerm returns the zero term x^u * 0 at pole order m.
func (e *Engine[E]) NewTerm(m int, u monomial.Monomial) (*Term[E], error) {
	if !e.Holds(m) {
		return nil, fmt.Errorf("dr: no term representation at pole order %d: %w", m, errs.ErrDomain)
	}
	if u.Degree() != e.strat.Degree(m)-e.euler.degree {
		return nil, fmt.Errorf("dr: term prefix %v at pole order %d: %w", u, m, errs.ErrDimension)
	}
	return &Term[E]{Level: m, U: u.Clone(), G: algebra.ZeroVector[E](e.ring, e.euler.ix.Len())}, nil
}

// AddToTerm adds c * x^(U+w) to t.
func (e *Engine[E]) AddToTerm(t *Term[E], w monomial.Monomial, c E) error {
	i := e.euler.ix.Rank(w)
	if i < 0 {
		return fmt.Errorf("dr: %v is not of degree %d: %w", w, e.euler.degree, errs.ErrDimension)
	}
	if t.Scale > 0 {
		c = e.ring.Mul(c, e.ring.PowP(t.Scale))
	}
	t.G[i] = e.ring.Add(t.G[i], c)
	return nil
}

// Add accumulates src into t; both must share the pole order and prefix.
func (t *Term[E]) Add(r algebra.PAdic[E], src *Term[E]) error {
	if t.Level != src.Level || !monomial.Equal(t.U, src.U) || len(t.G) != len(src.G) {
		return fmt.Errorf("dr: adding term %v at pole order %d to %v at %d: %w", src.U, src.Level, t.U, t.Level, errs.ErrDimension)
	}
	t.Scale = addScaled(r, t.G, t.Scale, src.G, src.Scale)
	return nil
}

// eulerReduce rewrites G through the theta table and returns h of degree
// EulerDegree-d with x^U * h / p^scale equivalent to t one pole order down.
func (e *Engine[E]) eulerReduce(t *Term[E]) ([]E, int, error) {
	r, et := e.ring, e.euler
	if len(t.G) != et.ix.Len() {
		return nil, 0, fmt.Errorf("dr: term of length %d, want %d: %w", len(t.G), et.ix.Len(), errs.ErrDimension)
	}
	per := make([][]E, len(t.U))
	h := algebra.ZeroVector[E](r, et.low.Len())
	for w, c := range t.G {
		if r.IsZero(c) {
			continue
		}
		for _, term := range et.rows[w] {
			if per[term.gen] == nil {
				per[term.gen] = algebra.ZeroVector[E](r, et.low.Len())
			}
			row := per[term.gen]
			row[term.rank] = r.Add(row[term.rank], r.Mul(c, term.coeff))
			h[term.rank] = r.Add(h[term.rank], r.Mul(c, term.fixed))
		}
	}
	for i, row := range per {
		if row == nil || t.U[i] == 0 {
			continue
		}
		ui := r.FromInt64(int64(t.U[i]))
		for j, x := range row {
			if !r.IsZero(x) {
				h[j] = r.Add(h[j], r.Mul(ui, x))
			}
		}
	}
	scale, err := divide(r, h, t.Scale, e.strat.Divisor(t.Level))
	if err != nil {
		return nil, 0, err
	}
	return h, scale, nil
}

// StepTerm lowers t by one pole order, moving x^v of degree d from the
// prefix into G. The target pole order must hold terms.
func (e *Engine[E]) StepTerm(t *Term[E], v monomial.Monomial) (*Term[E], error) {
	if !e.Holds(t.Level - 1) {
		return nil, fmt.Errorf("dr: no term representation at pole order %d: %w", t.Level-1, errs.ErrDomain)
	}
	u, ok := monomial.Diff(nil, t.U, v)
	if !ok || v.Degree() != e.strat.Poly().Degree() {
		return nil, fmt.Errorf("dr: cannot move %v out of %v: %w", v, t.U, errs.ErrDomain)
	}
	h, scale, err := e.eulerReduce(t)
	if err != nil {
		return nil, err
	}
	et := e.euler
	g := algebra.ZeroVector[E](e.ring, et.ix.Len())
	z := make(monomial.Monomial, len(v))
	for j, x := range h {
		if e.ring.IsZero(x) {
			continue
		}
		g[et.ix.Rank(monomial.Add(z, et.low.At(j), v))] = x
	}
	return &Term[E]{Level: t.Level - 1, U: u, G: g, Scale: scale}, nil
}

// LowerTerm lowers t by one pole order and expands it into a dense vector.
func (e *Engine[E]) LowerTerm(t *Term[E]) (*Vector[E], error) {
	h, scale, err := e.eulerReduce(t)
	if err != nil {
		return nil, err
	}
	out := e.NewVector(t.Level - 1)
	out.Scale = scale
	ix := monomial.NewIndex(len(t.U), e.strat.Degree(t.Level-1))
	z := make(monomial.Monomial, len(t.U))
	for j, x := range h {
		if e.ring.IsZero(x) {
			continue
		}
		out.Coeffs[ix.Rank(monomial.Add(z, e.euler.low.At(j), t.U))] = x
	}
	return out, nil
}

// ExpandTerm writes t as a dense vector at its own pole order.
func (e *Engine[E]) ExpandTerm(t *Term[E]) *Vector[E] {
	out := e.NewVector(t.Level)
	out.Scale = t.Scale
	ix := monomial.NewIndex(len(t.U), e.strat.Degree(t.Level))
	z := make(monomial.Monomial, len(t.U))
	for w, x := range t.G {
		if !e.ring.IsZero(x) {
			out.Coeffs[ix.Rank(monomial.Add(z, e.euler.ix.At(w), t.U))] = x
		}
	}
	return out
}

// AddMonomial adds c * x^u to v.
func (e *Engine[E]) AddMonomial(v *Vector[E], u monomial.Monomial, c E) error {
	ix := monomial.NewIndex(len(u), e.strat.Degree(v.Level))
	i := ix.Rank(u)
	if i < 0 || i >= len(v.Coeffs) {
		return fmt.Errorf("dr: %v at pole order %d: %w", u, v.Level, errs.ErrDimension)
	}
	if v.Scale > 0 {
		c = e.ring.Mul(c, e.ring.PowP(v.Scale))
	}
	v.Coeffs[i] = e.ring.Add(v.Coeffs[i], c)
	return nil
}
