package poly

import (
	"fmt"
	"math/big"

	"controlledreduction/errs"
	"controlledreduction/monomial"
)

// ChangeOfVariablesMonomial expands x^u under x_i -> sum_j L[i][j] x_j.
func ChangeOfVariablesMonomial(u monomial.Monomial, L [][]*big.Int) (*Poly, error) {
	n := len(u)
	if len(L) != n {
		return nil, fmt.Errorf("poly: substitution has %d rows for %d variables: %w", len(L), n, errs.ErrDimension)
	}
	out := Constant(n, big.NewInt(1))
	for i, e := range u {
		if e == 0 {
			continue
		}
		if len(L[i]) != n {
			return nil, fmt.Errorf("poly: substitution row %d has %d entries: %w", i, len(L[i]), errs.ErrDimension)
		}
		var terms []Term
		for j, c := range L[i] {
			if c.Sign() != 0 {
				terms = append(terms, Term{Exp: monomial.Unit(n, j), Coeff: c})
			}
		}
		lin, err := New(n, terms)
		if err != nil {
			return nil, err
		}
		out = out.Mul(lin.Pow(e))
	}
	return out, nil
}

// ChangeOfVariables applies x_i -> sum_j L[i][j] x_j to every term of f.
func ChangeOfVariables(f *Poly, L [][]*big.Int) (*Poly, error) {
	out := Zero(f.nvars)
	for _, t := range f.terms {
		g, err := ChangeOfVariablesMonomial(t.Exp, L)
		if err != nil {
			return nil, err
		}
		out = out.Add(g.ScaleInt(t.Coeff))
	}
	return out, nil
}
