package hypersurface

import (
	"fmt"
	"strings"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// Regime selects the residue representation of Z/p^W.
type Regime int

const (
	// Auto uses word residues when p^W fits a machine word.
	Auto Regime = iota
	// Exact uses arbitrary-size residues.
	Exact
	// Truncated uses word residues and requires p^W < 2^63.
	Truncated
)

func (r Regime) String() string {
	switch r {
	case Auto:
		return "auto"
	case Exact:
		return "exact"
	case Truncated:
		return "truncated"
	}
	return fmt.Sprintf("regime(%d)", int(r))
}

// ParseRegime reads auto, exact or truncated.
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "exact":
		return Exact, nil
	case "truncated":
		return Truncated, nil
	}
	return Auto, fmt.Errorf("hypersurface: unknown regime %q: %w", s, errs.ErrDomain)
}

// Resolve picks the concrete regime for Z/p^W.
func (r Regime) Resolve(p uint64, W int) (Regime, error) {
	switch r {
	case Auto:
		if algebra.FitsWord(p, W) {
			return Truncated, nil
		}
		return Exact, nil
	case Exact:
		return Exact, nil
	case Truncated:
		if !algebra.FitsWord(p, W) {
			return r, fmt.Errorf("hypersurface: %d^%d does not fit a machine word: %w", p, W, errs.ErrDomain)
		}
		return Truncated, nil
	}
	return r, fmt.Errorf("hypersurface: %s: %w", r, errs.ErrDomain)
}

func (r Regime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Regime) UnmarshalText(b []byte) error {
	v, err := ParseRegime(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
