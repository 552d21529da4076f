package dr

import (
	"fmt"

	"controlledreduction/errs"
	"controlledreduction/monomial"
	"controlledreduction/poly"
	"controlledreduction/solve"
)

// Strategy fixes the shape of a reduction: the pole orders carrying a basis,
// the degree of the numerators at every pole order, the generators of the
// relations and the operator each relation applies when it lowers the pole.
//
// At pole order m a numerator sum_g A_g * G_g is equivalent to
// sum_g Op_g(A_g) / Divisor(m) at pole order m-1.
type Strategy interface {
	Name() string
	Poly() *poly.Poly
	// MinLevel is the lowest pole order; nothing reduces below it.
	MinLevel() int
	// MaxLevel is the highest pole order carrying basis elements.
	MaxLevel() int
	// Degree is the numerator degree at pole order m.
	Degree(m int) int
	// ControlledDegree is a degree at which the generators of the levels
	// above MaxLevel span every monomial.
	ControlledDegree() int
	Generators(m int) []*poly.Poly
	// Apply writes Op_g(x^u) at level m as a list of monomials with
	// coefficients.
	Apply(m, g int, u monomial.Monomial, emit func(monomial.Monomial, int64))
	Divisor(m int) int64
	// FrobeniusShift is the monomial multiplying x^(p*alpha) in the
	// Frobenius lift of a basis element x^alpha.
	FrobeniusShift(p int) monomial.Monomial
	// Check rejects inputs the reduction does not apply to modulo p.
	Check(p uint64) error
}

// Standard is Griffiths-Dwork reduction of forms G Omega / F^m on the
// complement of a smooth projective hypersurface: the relations are
// generated by the partials of F and lower the pole order by differentiation.
type Standard struct {
	f        *poly.Poly
	d, nvars int
	partials []*poly.Poly
	thetas   []*poly.Poly
}

// NewStandard validates f, a form of degree at least 1 in at least two
// variables.
func NewStandard(f *poly.Poly) (*Standard, error) {
	if err := checkForm(f); err != nil {
		return nil, err
	}
	return &Standard{f: f, d: f.Degree(), nvars: f.NVars(), partials: solve.Partials(f), thetas: solve.Thetas(f)}, nil
}

func checkForm(f *poly.Poly) error {
	switch {
	case f.NVars() < 2:
		return fmt.Errorf("dr: %d variables, need at least 2: %w", f.NVars(), errs.ErrDomain)
	case f.IsZero() || !f.IsHomogeneous():
		return fmt.Errorf("dr: %s is not a non-zero form: %w", f, errs.ErrDomain)
	case f.Degree() < 1:
		return fmt.Errorf("dr: constant %s: %w", f, errs.ErrDomain)
	}
	return nil
}

func (s *Standard) Name() string { return "standard" }
func (s *Standard) Poly() *poly.Poly { return s.f }
func (s *Standard) MinLevel() int { return 1 }
func (s *Standard) MaxLevel() int { return s.nvars - 1 }
func (s *Standard) Degree(m int) int { return m*s.d - s.nvars }
func (s *Standard) ControlledDegree() int { return solve.JacobianDegree(s.nvars, s.d) }
func (s *Standard) Divisor(m int) int64 { return int64(m - 1) }

func (s *Standard) Generators(int) []*poly.Poly { return s.partials }

func (s *Standard) Apply(_, g int, u monomial.Monomial, emit func(monomial.Monomial, int64)) {
	if u[g] == 0 {
		return
	}
	v := u.Clone()
	v[g]--
	emit(v, int64(u[g]))
}

// Thetas are x_i dF/dx_i. They span the controlled degree of the torus
// reduction when F is non-degenerate modulo p, which lets pole orders above
// MaxLevel drop with numerators of a fixed degree.
func (s *Standard) Thetas() []*poly.Poly { return s.thetas }

// EulerShift is 1: d/dx_i (x_i x^z) = (z_i + 1) x^z.
func (s *Standard) EulerShift() int { return 1 }

func (s *Standard) FrobeniusShift(p int) monomial.Monomial {
	return monomial.Constant(s.nvars, p-1)
}

func (s *Standard) Check(p uint64) error {
	singular, err := solve.Default().HasSingularPoint(s.f, p)
	if err != nil {
		return err
	}
	if singular {
		return fmt.Errorf("dr: V(%s) mod %d: %w", s.f, p, errs.ErrNotSmooth)
	}
	covers, err := solve.JacobianCovers(s.f, p)
	if err != nil {
		return err
	}
	if !covers {
		return fmt.Errorf("dr: partials of %s share a zero mod %d, which divides the degree: %w", s.f, p, errs.ErrDomain)
	}
	return nil
}
