// Package drnd is the reduction of log forms x^beta eta / F^m on the
// complement of a non-degenerate hypersurface in the torus. It plugs a
// strategy into package dr: pole order 1 reduces through F itself to the
// torus class at pole order 0, higher pole orders through the forms
// theta_i F = x_i dF/dx_i.
package drnd

import (
	"fmt"

	"controlledreduction/algebra"
	"controlledreduction/dr"
	"controlledreduction/errs"
	"controlledreduction/monomial"
	"controlledreduction/poly"
	"controlledreduction/solve"
)

// Toric is the reduction strategy for log forms with deg beta = m*d.
type Toric struct {
	f      *poly.Poly
	d      int
	nvars  int
	self   []*poly.Poly
	thetas []*poly.Poly
}

// NewToric validates f, a form of degree at least 1 in at least two
// variables.
func NewToric(f *poly.Poly) (*Toric, error) {
	switch {
	case f.NVars() < 2:
		return nil, fmt.Errorf("drnd: %d variables, need at least 2: %w", f.NVars(), errs.ErrDomain)
	case f.IsZero() || !f.IsHomogeneous() || f.Degree() < 1:
		return nil, fmt.Errorf("drnd: %s is not a form of positive degree: %w", f, errs.ErrDomain)
	}
	return &Toric{f: f, d: f.Degree(), nvars: f.NVars(), self: []*poly.Poly{f}, thetas: solve.Thetas(f)}, nil
}

// New returns a reduction engine for the torus complement of V(f).
func New[E any](f *poly.Poly, r algebra.PAdic[E], opts dr.Options) (*dr.Engine[E], error) {
	s, err := NewToric(f)
	if err != nil {
		return nil, err
	}
	return dr.New[E](s, r, opts)
}

func (s *Toric) Name() string { return "toric" }
func (s *Toric) Poly() *poly.Poly { return s.f }
func (s *Toric) MinLevel() int { return 0 }
func (s *Toric) MaxLevel() int { return s.nvars - 1 }
func (s *Toric) Degree(m int) int { return m * s.d }
func (s *Toric) ControlledDegree() int { return solve.ToricDegree(s.nvars, s.d) }

func (s *Toric) Generators(m int) []*poly.Poly {
	switch {
	case m <= 0:
		return nil
	case m == 1:
		return s.self
	}
	return s.thetas
}

// Apply is the identity for F at pole order 1 and theta_g elsewhere.
func (s *Toric) Apply(m, g int, u monomial.Monomial, emit func(monomial.Monomial, int64)) {
	if m == 1 {
		emit(u, 1)
		return
	}
	if u[g] != 0 {
		emit(u, int64(u[g]))
	}
}

func (s *Toric) Divisor(m int) int64 {
	if m == 1 {
		return 1
	}
	return int64(m - 1)
}

func (s *Toric) Thetas() []*poly.Poly { return s.thetas }
func (s *Toric) EulerShift() int      { return 0 }

func (s *Toric) FrobeniusShift(int) monomial.Monomial { return make(monomial.Monomial, s.nvars) }

func (s *Toric) Check(p uint64) error {
	ok, err := solve.IsNondegenerate(s.f, p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("drnd: %s is degenerate mod %d: %w", s.f, p, errs.ErrNotSmooth)
	}
	return nil
}
