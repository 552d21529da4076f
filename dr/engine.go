// Package dr reduces differential forms G Omega / F^m on the complement of a
// hypersurface to a fixed cohomology basis. Pole orders MinLevel..MaxLevel
// carry a basis and a reduction matrix each; higher pole orders are lowered
// one at a time through a single table at the controlled degree.
package dr

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"runtime"
	"strconv"
	"sync"
	"time"

	"controlledreduction/algebra"
	"controlledreduction/errs"
	"controlledreduction/internal/logging"
	"controlledreduction/matrix"
	"controlledreduction/monomial"
	"controlledreduction/poly"
	"controlledreduction/prof"
	"controlledreduction/store"
	"controlledreduction/tools"
)

// Options configure an Engine. The zero value uses every CPU, no store and
// no logging.
type Options struct {
	Threads int
	Store   *store.Store
	Logger  *slog.Logger
}

// Phase is a step of the construction state machine.
type Phase int

const (
	Initialized Phase = iota
	BasisBuilt
	MatrixBuilt
	Complete
)

func (p Phase) String() string {
	switch p {
	case Initialized:
		return "initialized"
	case BasisBuilt:
		return "basis-built"
	case MatrixBuilt:
		return "matrix-built"
	case Complete:
		return "complete"
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// State is the phase together with the level it refers to.
type State struct {
	Phase Phase
	Level int
}

func (s State) String() string {
	if s.Phase == Initialized || s.Phase == Complete {
		return s.Phase.String()
	}
	return fmt.Sprintf("%s(%d)", s.Phase, s.Level)
}

// Engine owns the reduction data of one polynomial over one p-adic ring.
// Construction methods run in level order; reductions are safe for
// concurrent use once the engine is Complete.
type Engine[E any] struct {
	strat   Strategy
	ring    algebra.PAdic[E]
	threads int
	store   *store.Store
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	levels  map[int]*Level[E]
	table   *table[E]
	euler   *eulerTable[E]
	offsets map[int]int
}

// New checks the polynomial against the strategy's gate and returns an
// Initialized engine.
func New[E any](s Strategy, r algebra.PAdic[E], opts Options) (*Engine[E], error) {
	defer prof.Track(time.Now(), "dr.init")
	if err := s.Check(r.Prime()); err != nil {
		return nil, err
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Engine[E]{
		strat:   s,
		ring:    r,
		threads: threads,
		store:   opts.Store,
		log:     logging.Or(opts.Logger).With("strategy", s.Name()),
		state:   State{Phase: Initialized},
		levels:  map[int]*Level[E]{},
	}, nil
}

func (e *Engine[E]) Strategy() Strategy { return e.strat }
func (e *Engine[E]) Ring() algebra.PAdic[E] { return e.ring }
func (e *Engine[E]) Threads() int { return e.threads }
func (e *Engine[E]) Logger() *slog.Logger { return e.log }

func (e *Engine[E]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine[E]) outOfOrder(op string, m int) error {
	return fmt.Errorf("dr: %s(%d) in state %s: %w", op, m, e.state, errs.ErrOutOfOrder)
}

// BuildBasis chooses the basis at pole order m. It needs the reduction
// matrix of m-1, or an Initialized engine for the lowest level.
func (e *Engine[E]) BuildBasis(ctx context.Context, m int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildBasis(ctx, m)
}

func (e *Engine[E]) buildBasis(ctx context.Context, m int) error {
	s := e.strat
	switch {
	case m < s.MinLevel() || m > s.MaxLevel():
		return fmt.Errorf("dr: level %d outside %d..%d: %w", m, s.MinLevel(), s.MaxLevel(), errs.ErrDomain)
	case m == s.MinLevel() && e.state.Phase != Initialized:
		return e.outOfOrder("BuildBasis", m)
	case m > s.MinLevel() && e.state != (State{Phase: MatrixBuilt, Level: m - 1}):
		return e.outOfOrder("BuildBasis", m)
	}
	defer prof.Track(time.Now(), "dr.basis")
	dec, err := decompose(ctx, e.ring, s.Generators(m), s.Poly().NVars(), s.Degree(m), false)
	if err != nil {
		return err
	}
	e.levels[m] = &Level[E]{M: m, Degree: s.Degree(m), Basis: dec.basis, Pivots: dec.pivots}
	e.state = State{Phase: BasisBuilt, Level: m}
	e.log.Debug("basis built", "stage", "basis", "level", m, "dim", len(dec.basis))
	return nil
}

// GetReductionMatrix returns the reduction data of level m, building it on
// first use. It needs BasisBuilt(m) unless the matrix already exists. With a
// store the matrices are loaded when present and published otherwise.
func (e *Engine[E]) GetReductionMatrix(ctx context.Context, m int) (*Level[E], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getReductionMatrix(ctx, m)
}

func (e *Engine[E]) getReductionMatrix(ctx context.Context, m int) (*Level[E], error) {
	if l, ok := e.levels[m]; ok && l.Coord != nil {
		return l, nil
	}
	if e.state != (State{Phase: BasisBuilt, Level: m}) {
		return nil, e.outOfOrder("GetReductionMatrix", m)
	}
	defer prof.Track(time.Now(), "dr.matrix")
	l := e.levels[m]
	key := e.levelKey(m)
	if e.store != nil {
		loaded, err := e.loadLevel(key, l)
		if err == nil {
			e.levels[m] = loaded
			e.state = State{Phase: MatrixBuilt, Level: m}
			e.log.Debug("reduction matrix loaded", "stage", "matrix", "level", m, "key", key)
			return loaded, nil
		}
		if err = e.store.Recover(key, err); err != nil && !isMissing(err) {
			return nil, err
		}
	}
	if err := e.buildMatrices(ctx, l); err != nil {
		return nil, err
	}
	if e.store != nil {
		if err := e.store.PutJSON(key, e.encodeLevel(l)); err != nil {
			e.log.Warn("cannot publish reduction matrix", "key", key, "err", err)
		}
	}
	e.state = State{Phase: MatrixBuilt, Level: m}
	e.log.Debug("reduction matrix built", "stage", "matrix", "level", m, "dim", l.Dim())
	return l, nil
}

func (e *Engine[E]) buildMatrices(ctx context.Context, l *Level[E]) error {
	r, s := e.ring, e.strat
	nvars := s.Poly().NVars()
	dec, err := decompose(ctx, r, s.Generators(l.M), nvars, l.Degree, true)
	if err != nil {
		return err
	}
	nmon := monomial.Count(nvars, l.Degree)
	np := len(dec.pivots)
	if dec.inv == nil {
		l.Coord, _ = matrix.New[E](r, len(l.Basis), nmon)
		return nil
	}
	l.Coord = subRows[E](r, dec.inv, np, nmon)
	if l.M == s.MinLevel() || s.Degree(l.M-1) < 0 || np == 0 {
		return nil
	}
	op, err := opMatrix(r, s, l.M, dec.pivots)
	if err != nil {
		return err
	}
	l.Down, err = matrix.MulParallel(ctx, op, subRows[E](r, dec.inv, 0, np), e.threads)
	return err
}

// ComputeEverything builds every level up to min(upTo, MaxLevel) and, when
// upTo exceeds MaxLevel, the controlled table. The engine is Complete once
// all of them exist.
func (e *Engine[E]) ComputeEverything(ctx context.Context, upTo int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase == Complete {
		return nil
	}
	s := e.strat
	for m := s.MinLevel(); m <= min(upTo, s.MaxLevel()); m++ {
		if l, ok := e.levels[m]; ok && l.Coord != nil {
			continue
		}
		if e.state != (State{Phase: BasisBuilt, Level: m}) {
			if err := e.buildBasis(ctx, m); err != nil {
				return err
			}
		}
		if _, err := e.getReductionMatrix(ctx, m); err != nil {
			return err
		}
	}
	if upTo <= s.MaxLevel() {
		return nil
	}
	if e.table == nil && s.ControlledDegree() >= 0 {
		if err := e.loadOrBuildTable(ctx); err != nil {
			return err
		}
	}
	if eu, ok := s.(Euler); ok && e.euler == nil {
		if err := e.loadOrBuildEuler(ctx, eu); err != nil {
			return err
		}
	}
	dim := e.computeOffsets()
	e.state = State{Phase: Complete}
	e.log.Info("reduction data ready", "stage", "dr", "dim", dim, "p", e.ring.Prime(), "precision", e.ring.Precision())
	return nil
}

func (e *Engine[E]) computeOffsets() int {
	e.offsets = map[int]int{}
	off := 0
	for m := e.strat.MinLevel(); m <= e.strat.MaxLevel(); m++ {
		e.offsets[m] = off
		off += e.levels[m].Dim()
	}
	return off
}

func (e *Engine[E]) loadOrBuildTable(ctx context.Context) error {
	defer prof.Track(time.Now(), "dr.table")
	key := e.tableKey()
	s := e.strat
	gens := s.Generators(s.MaxLevel() + 1)
	if e.store != nil {
		t, err := e.loadTable(key, gens, s.ControlledDegree())
		if err == nil {
			e.table = t
			return nil
		}
		if err = e.store.Recover(key, err); err != nil && !isMissing(err) {
			return err
		}
	}
	t, err := buildTable(ctx, e.ring, gens, s.Poly().NVars(), s.ControlledDegree())
	if err != nil {
		return err
	}
	e.table = t
	e.log.Debug("controlled table built", "stage", "table", "degree", t.degree, "terms", t.size())
	if e.store != nil {
		if err := e.store.PutJSON(key, e.encodeTable(t)); err != nil {
			e.log.Warn("cannot publish controlled table", "key", key, "err", err)
		}
	}
	return nil
}

func (e *Engine[E]) complete(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != Complete {
		return e.outOfOrder(op, 0)
	}
	return nil
}

// Levels returns the built levels in increasing order.
func (e *Engine[E]) Levels() []*Level[E] {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Level[E]
	for m := e.strat.MinLevel(); m <= e.strat.MaxLevel(); m++ {
		if l, ok := e.levels[m]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Dim is the total number of basis elements over all levels.
func (e *Engine[E]) Dim() int {
	n := 0
	for _, l := range e.Levels() {
		n += l.Dim()
	}
	return n
}

// NewVector returns the zero form at pole order m.
func (e *Engine[E]) NewVector(m int) *Vector[E] {
	n := monomial.Count(e.strat.Poly().NVars(), e.strat.Degree(m))
	return &Vector[E]{Level: m, Coeffs: algebra.ZeroVector[E](e.ring, n)}
}

// NewCoordinates returns zero coordinates over the whole basis.
func (e *Engine[E]) NewCoordinates() *Coordinates[E] {
	return &Coordinates[E]{Values: algebra.ZeroVector[E](e.ring, e.Dim())}
}

// Descend lowers v by one pole order. At basis levels the basis part is
// added to acc; the returned vector is nil once nothing is left below.
func (e *Engine[E]) Descend(ctx context.Context, v *Vector[E], acc *Coordinates[E]) (*Vector[E], error) {
	s := e.strat
	if v.Level > s.MaxLevel() {
		if e.table == nil {
			return nil, fmt.Errorf("dr: no controlled table for pole order %d: %w", v.Level, errs.ErrOutOfOrder)
		}
		return e.controlledStep(ctx, v)
	}
	if v.Level < s.MinLevel() {
		return nil, nil
	}
	l := e.levels[v.Level]
	coords, err := matrix.MulVec(l.Coord, v.Coeffs)
	if err != nil {
		return nil, err
	}
	acc.add(e.ring, e.offsets[v.Level], coords, v.Scale)
	if l.Down == nil {
		return nil, nil
	}
	lower, err := matrix.MulVec(l.Down, v.Coeffs)
	if err != nil {
		return nil, err
	}
	scale, err := divide(e.ring, lower, v.Scale, s.Divisor(v.Level))
	if err != nil {
		return nil, err
	}
	return &Vector[E]{Level: v.Level - 1, Coeffs: lower, Scale: scale}, nil
}

// ReduceVector reduces v all the way to basis coordinates.
func (e *Engine[E]) ReduceVector(ctx context.Context, v *Vector[E]) (*Coordinates[E], error) {
	if err := e.complete("ReduceVector"); err != nil {
		return nil, err
	}
	want := monomial.Count(e.strat.Poly().NVars(), e.strat.Degree(v.Level))
	if len(v.Coeffs) != want {
		return nil, fmt.Errorf("dr: vector of length %d at pole order %d, want %d: %w", len(v.Coeffs), v.Level, want, errs.ErrDimension)
	}
	acc := e.NewCoordinates()
	cur := &Vector[E]{Level: v.Level, Coeffs: append([]E(nil), v.Coeffs...), Scale: v.Scale}
	for cur != nil {
		var err error
		if cur, err = e.Descend(ctx, cur, acc); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// ReducePoly reduces g Omega / F^m, with g homogeneous of degree Degree(m).
func (e *Engine[E]) ReducePoly(ctx context.Context, g *poly.Poly, m int) (*Coordinates[E], error) {
	v, err := e.VectorOf(g, m)
	if err != nil {
		return nil, err
	}
	return e.ReduceVector(ctx, v)
}

// VectorOf expands g over the monomials of degree Degree(m).
func (e *Engine[E]) VectorOf(g *poly.Poly, m int) (*Vector[E], error) {
	deg := e.strat.Degree(m)
	if g.NVars() != e.strat.Poly().NVars() {
		return nil, fmt.Errorf("dr: numerator in %d variables: %w", g.NVars(), errs.ErrDimension)
	}
	v := e.NewVector(m)
	ix := monomial.NewIndex(g.NVars(), deg)
	for _, t := range g.Terms() {
		i := ix.Rank(t.Exp)
		if i < 0 {
			return nil, fmt.Errorf("dr: numerator term %v does not have degree %d: %w", t.Exp, deg, errs.ErrDomain)
		}
		v.Coeffs[i] = e.ring.FromBig(t.Coeff)
	}
	return v, nil
}

// PrecisionLoss is the number of p-adic digits the divisions lose when a
// form descends from pole order m to the bottom.
func (e *Engine[E]) PrecisionLoss(m int) int {
	p := e.ring.Prime()
	loss := 0
	for l := m; l > e.strat.MinLevel(); l-- {
		if c := e.strat.Divisor(l); c != 0 {
			loss += int(tools.Valuation(c, p))
		}
	}
	return loss
}

// LossBound is v_p((m-1)!), the loss budget callers size precision with.
func LossBound(m int, p uint64) int {
	return int(tools.ValuationOfFactorial(int64(m-1), p))
}

// Offset is the position of level m's first basis element in coordinates.
func (e *Engine[E]) Offset(m int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offsets[m]
}

func (e *Engine[E]) levelKey(m int) string {
	return store.Key("dr-level", e.strat.Name(), e.strat.Poly().NormalForm(nil),
		strconv.FormatUint(e.ring.Prime(), 10), strconv.Itoa(e.ring.Precision()), strconv.Itoa(m))
}

func (e *Engine[E]) tableKey() string {
	return e.keyFor("dr-table")
}

func (e *Engine[E]) keyFor(kind string) string {
	return store.Key(kind, e.strat.Name(), e.strat.Poly().NormalForm(nil),
		strconv.FormatUint(e.ring.Prime(), 10), strconv.Itoa(e.ring.Precision()))
}

func (e *Engine[E]) encodeElem(x E) string { return e.ring.Lift(x).String() }

func (e *Engine[E]) decodeElem(s string) (E, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		var zero E
		return zero, fmt.Errorf("dr: bad element %q: %w", s, errs.ErrCorrupt)
	}
	return e.ring.FromBig(v), nil
}
