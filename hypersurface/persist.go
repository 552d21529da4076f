package hypersurface

import (
	"errors"
	"fmt"
	"math/big"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/matrix"
	"controlledreduction/store"
)

type frobeniusJSON struct {
	Prime        uint64   `json:"prime"`
	Precision    int      `json:"precision"`
	Rows         int      `json:"rows"`
	Cols         int      `json:"cols"`
	Data         []string `json:"data"`
	Scale        int      `json:"scale"`
	AbsPrecision int      `json:"abs_precision"`
	Weight       int      `json:"weight"`
}

func isMissing(err error) bool { return errors.Is(err, errs.ErrNotFound) }

// SaveFrobenius publishes fm under key.
func SaveFrobenius[E any](st *store.Store, key string, fm *FrobeniusMatrix[E]) error {
	j := frobeniusJSON{
		Prime:        fm.Ring.Prime(),
		Precision:    fm.Ring.Precision(),
		Rows:         fm.M.Rows(),
		Cols:         fm.M.Cols(),
		Scale:        fm.Scale,
		AbsPrecision: fm.AbsPrecision,
		Weight:       fm.Weight,
	}
	for i := 0; i < fm.M.Rows(); i++ {
		for _, x := range fm.M.Row(i) {
			j.Data = append(j.Data, fm.Ring.Lift(x).String())
		}
	}
	return st.PutJSON(key, j)
}

// LoadFrobenius reads the matrix under key into ring r. Entries that do not
// match r or the recorded shape are reported as errs.ErrCorrupt.
func LoadFrobenius[E any](st *store.Store, key string, r algebra.PAdic[E]) (*FrobeniusMatrix[E], error) {
	var j frobeniusJSON
	if err := st.GetJSON(key, &j); err != nil {
		return nil, err
	}
	switch {
	case j.Prime != r.Prime() || j.Precision != r.Precision():
		return nil, fmt.Errorf("hypersurface: entry %s is over Z/%d^%d: %w", key, j.Prime, j.Precision, errs.ErrCorrupt)
	case j.Rows != j.Cols || j.Rows < 0 || len(j.Data) != j.Rows*j.Cols:
		return nil, fmt.Errorf("hypersurface: entry %s has shape %dx%d with %d entries: %w", key, j.Rows, j.Cols, len(j.Data), errs.ErrCorrupt)
	case j.Scale < 0 || j.AbsPrecision > j.Precision:
		return nil, fmt.Errorf("hypersurface: entry %s has scale %d and precision %d: %w", key, j.Scale, j.AbsPrecision, errs.ErrCorrupt)
	}
	m, err := matrix.New[E](r, j.Rows, j.Cols)
	if err != nil {
		return nil, err
	}
	mod := r.Modulus()
	for k, s := range j.Data {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 || v.Cmp(mod) >= 0 {
			return nil, fmt.Errorf("hypersurface: entry %s: bad residue %q: %w", key, s, errs.ErrCorrupt)
		}
		m.Put(k/j.Cols, k%j.Cols, r.FromBig(v))
	}
	return &FrobeniusMatrix[E]{Ring: r, M: m, Scale: j.Scale, AbsPrecision: j.AbsPrecision, Weight: j.Weight}, nil
}
