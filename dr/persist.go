package dr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"controlledreduction/errs"
	"controlledreduction/matrix"
	"controlledreduction/monomial"
	"controlledreduction/poly"
)

type matrixJSON struct {
	Rows int      `json:"rows"`
	Cols int      `json:"cols"`
	Data []string `json:"data"`
}

type levelJSON struct {
	Level  int                 `json:"level"`
	Degree int                 `json:"degree"`
	Basis  []monomial.Monomial `json:"basis"`
	Pivots []Relation          `json:"pivots"`
	Coord  matrixJSON          `json:"coord"`
	Down   *matrixJSON         `json:"down,omitempty"`
}

type termJSON struct {
	Gen   int               `json:"gen"`
	Mult  monomial.Monomial `json:"mult"`
	Coeff string            `json:"coeff"`
}

type tableJSON struct {
	Degree int          `json:"degree"`
	Terms  [][]termJSON `json:"terms"`
}

type engineJSON struct {
	Strategy  string      `json:"strategy"`
	Poly      string      `json:"poly"`
	Prime     uint64      `json:"prime"`
	Precision int         `json:"precision"`
	Levels    []levelJSON `json:"levels"`
	Table     *tableJSON  `json:"table,omitempty"`
	Euler     *tableJSON  `json:"euler,omitempty"`
}

func isMissing(err error) bool { return errors.Is(err, errs.ErrNotFound) }

func corrupt(format string, a ...any) error {
	return fmt.Errorf("dr: "+format+": %w", append(a, errs.ErrCorrupt)...)
}

func (e *Engine[E]) encodeMatrix(m *matrix.Dense[E]) matrixJSON {
	out := matrixJSON{Rows: m.Rows(), Cols: m.Cols(), Data: make([]string, 0, m.Rows()*m.Cols())}
	for i := 0; i < m.Rows(); i++ {
		for _, x := range m.Row(i) {
			out.Data = append(out.Data, e.encodeElem(x))
		}
	}
	return out
}

func (e *Engine[E]) decodeMatrix(j matrixJSON, rows, cols int) (*matrix.Dense[E], error) {
	if j.Rows != rows || j.Cols != cols || len(j.Data) != rows*cols {
		return nil, corrupt("matrix is %dx%d with %d entries, want %dx%d", j.Rows, j.Cols, len(j.Data), rows, cols)
	}
	m, err := matrix.New[E](e.ring, rows, cols)
	if err != nil {
		return nil, err
	}
	for k, s := range j.Data {
		x, err := e.decodeElem(s)
		if err != nil {
			return nil, err
		}
		m.Put(k/max(cols, 1), k%max(cols, 1), x)
	}
	return m, nil
}

func (e *Engine[E]) encodeLevel(l *Level[E]) levelJSON {
	out := levelJSON{Level: l.M, Degree: l.Degree, Basis: l.Basis, Pivots: l.Pivots, Coord: e.encodeMatrix(l.Coord)}
	if l.Down != nil {
		d := e.encodeMatrix(l.Down)
		out.Down = &d
	}
	if out.Basis == nil {
		out.Basis = []monomial.Monomial{}
	}
	return out
}

// decodeLevel checks j against the shapes the strategy implies. When want
// is non-nil its basis must match too.
func (e *Engine[E]) decodeLevel(j levelJSON, want *Level[E]) (*Level[E], error) {
	s := e.strat
	nvars := s.Poly().NVars()
	if j.Level < s.MinLevel() || j.Level > s.MaxLevel() || j.Degree != s.Degree(j.Level) {
		return nil, corrupt("level %d of degree %d", j.Level, j.Degree)
	}
	if want != nil {
		if j.Level != want.M || len(j.Basis) != len(want.Basis) {
			return nil, corrupt("level %d basis does not match", j.Level)
		}
		for i := range j.Basis {
			if !monomial.Equal(j.Basis[i], want.Basis[i]) {
				return nil, corrupt("level %d basis element %d does not match", j.Level, i)
			}
		}
	}
	nmon := monomial.Count(nvars, j.Degree)
	if len(j.Basis)+len(j.Pivots) != nmon {
		return nil, corrupt("level %d has %d basis elements and %d relations for %d monomials", j.Level, len(j.Basis), len(j.Pivots), nmon)
	}
	ix := monomial.NewIndex(nvars, j.Degree)
	for _, b := range j.Basis {
		if ix.Rank(b) < 0 {
			return nil, corrupt("basis monomial %v", b)
		}
	}
	l := &Level[E]{M: j.Level, Degree: j.Degree, Basis: j.Basis, Pivots: j.Pivots}
	var err error
	if l.Coord, err = e.decodeMatrix(j.Coord, len(j.Basis), nmon); err != nil {
		return nil, err
	}
	hasDown := j.Level > s.MinLevel() && s.Degree(j.Level-1) >= 0 && len(j.Pivots) > 0
	if hasDown != (j.Down != nil) {
		return nil, corrupt("level %d reduction matrix presence", j.Level)
	}
	if j.Down != nil {
		if l.Down, err = e.decodeMatrix(*j.Down, monomial.Count(nvars, s.Degree(j.Level-1)), nmon); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (e *Engine[E]) loadLevel(key string, want *Level[E]) (*Level[E], error) {
	var j levelJSON
	if err := e.store.GetJSON(key, &j); err != nil {
		return nil, err
	}
	return e.decodeLevel(j, want)
}

func (e *Engine[E]) encodeTable(t *table[E]) tableJSON {
	out := tableJSON{Degree: t.degree, Terms: make([][]termJSON, len(t.terms))}
	for w, ts := range t.terms {
		out.Terms[w] = make([]termJSON, len(ts))
		for i, term := range ts {
			out.Terms[w][i] = termJSON{Gen: term.gen, Mult: term.mult, Coeff: e.encodeElem(term.coeff)}
		}
	}
	return out
}

func (e *Engine[E]) decodeTable(j tableJSON, gens []*poly.Poly, degree int) (*table[E], error) {
	nvars := e.strat.Poly().NVars()
	if j.Degree != degree || len(j.Terms) != monomial.Count(nvars, j.Degree) {
		return nil, corrupt("controlled table of degree %d with %d rows", j.Degree, len(j.Terms))
	}
	t := &table[E]{degree: j.Degree, terms: make([][]tableTerm[E], len(j.Terms))}
	for w, ts := range j.Terms {
		for _, tj := range ts {
			if tj.Gen < 0 || tj.Gen >= len(gens) || len(tj.Mult) != nvars || tj.Mult.Degree() != j.Degree-gens[tj.Gen].Degree() {
				return nil, corrupt("controlled table term %+v", tj)
			}
			c, err := e.decodeElem(tj.Coeff)
			if err != nil {
				return nil, err
			}
			t.terms[w] = append(t.terms[w], tableTerm[E]{gen: tj.Gen, mult: tj.Mult, coeff: c})
		}
	}
	return t, nil
}

func (e *Engine[E]) loadTable(key string, gens []*poly.Poly, degree int) (*table[E], error) {
	var j tableJSON
	if err := e.store.GetJSON(key, &j); err != nil {
		return nil, err
	}
	return e.decodeTable(j, gens, degree)
}

// Save writes every built level and the controlled table as JSON with
// decimal residues.
func (e *Engine[E]) Save(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := engineJSON{
		Strategy:  e.strat.Name(),
		Poly:      e.strat.Poly().NormalForm(nil),
		Prime:     e.ring.Prime(),
		Precision: e.ring.Precision(),
	}
	for m := e.strat.MinLevel(); m <= e.strat.MaxLevel(); m++ {
		l, ok := e.levels[m]
		if !ok || l.Coord == nil {
			break
		}
		out.Levels = append(out.Levels, e.encodeLevel(l))
	}
	if e.table != nil {
		t := e.encodeTable(e.table)
		out.Table = &t
	}
	if e.euler != nil && e.euler.table != e.table {
		t := e.encodeTable(e.euler.table)
		out.Euler = &t
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

// Load restores what Save wrote into an Initialized engine over the same
// polynomial, prime and precision.
func (e *Engine[E]) Load(r io.Reader) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != Initialized {
		return e.outOfOrder("Load", 0)
	}
	var j engineJSON
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return corrupt("decode: %v", err)
	}
	if j.Strategy != e.strat.Name() || j.Poly != e.strat.Poly().NormalForm(nil) ||
		j.Prime != e.ring.Prime() || j.Precision != e.ring.Precision() {
		return corrupt("saved %s engine for %s mod %d^%d does not match", j.Strategy, j.Poly, j.Prime, j.Precision)
	}
	levels := map[int]*Level[E]{}
	next := e.strat.MinLevel()
	for _, lj := range j.Levels {
		if lj.Level != next {
			return corrupt("level %d out of sequence", lj.Level)
		}
		l, err := e.decodeLevel(lj, nil)
		if err != nil {
			return err
		}
		levels[l.M] = l
		next++
	}
	var t *table[E]
	if j.Table != nil {
		var err error
		if t, err = e.decodeTable(*j.Table, e.strat.Generators(e.strat.MaxLevel()+1), e.strat.ControlledDegree()); err != nil {
			return err
		}
	}
	e.levels, e.table, e.euler = levels, t, nil
	if eu, ok := e.strat.(Euler); ok {
		switch {
		case j.Euler != nil:
			et, err := e.decodeTable(*j.Euler, eu.Thetas(), eulerDegree(e.strat))
			if err != nil {
				return err
			}
			e.euler = newEulerTable(e.ring, e.strat, eu, et)
		case t != nil && e.sharesTable(eu):
			e.euler = newEulerTable(e.ring, e.strat, eu, t)
		}
	}
	switch {
	case len(levels) == 0:
	case next > e.strat.MaxLevel() && (t != nil || e.strat.ControlledDegree() < 0):
		e.computeOffsets()
		e.state = State{Phase: Complete}
	default:
		e.state = State{Phase: MatrixBuilt, Level: next - 1}
	}
	return nil
}
