// Package hypersurface computes the matrix of Frobenius on the middle
// cohomology of a hypersurface complement. Every basis element is lifted
// through the Frobenius series, reduced pole order by pole order with the
// reduction data of package dr and written back on the basis.
package hypersurface

import (
	"fmt"
	"log/slog"
	"math/big"
	"runtime"
	"strconv"
	"sync"

	"controlledreduction/algebra"
	"controlledreduction/dr"
	"controlledreduction/errs"
	"controlledreduction/internal/logging"
	"controlledreduction/poly"
	"controlledreduction/store"
)

// Options configure an Engine.
type Options struct {
	// Precision is the absolute p-adic precision N wanted for the matrix.
	Precision int
	Threads   int
	Store     *store.Store
	Logger    *slog.Logger
	// Dense lowers every pole order through dense vectors, even where the
	// fixed-degree terms of package dr apply.
	Dense bool
}

// Engine lifts Frobenius for one polynomial over Z/p^W.
type Engine[E any] struct {
	dr      *dr.Engine[E]
	strat   dr.Strategy
	ring    algebra.PAdic[E]
	f       *poly.Poly
	p       uint64
	n       int
	prec    int
	threads int
	store   *store.Store
	log     *slog.Logger

	dense bool

	mu      sync.Mutex
	fpow    map[int]*poly.Poly
	support map[int]map[string]bool
	delta   *poly.Poly
}

// New builds the reduction engine for s over r. The precision of r must be
// at least WorkingPrecision(s, p, opts.Precision).
func New[E any](s dr.Strategy, r algebra.PAdic[E], opts Options) (*Engine[E], error) {
	if opts.Precision < 1 {
		return nil, fmt.Errorf("hypersurface: precision %d: %w", opts.Precision, errs.ErrDomain)
	}
	p := r.Prime()
	if W := WorkingPrecision(s, p, opts.Precision); r.Precision() < W {
		return nil, fmt.Errorf("hypersurface: ring Z/%d^%d below working precision %d: %w", p, r.Precision(), W, errs.ErrDomain)
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	log := logging.Or(opts.Logger)
	d, err := dr.New(s, r, dr.Options{Threads: threads, Store: opts.Store, Logger: log})
	if err != nil {
		return nil, err
	}
	return &Engine[E]{
		dr:      d,
		strat:   s,
		ring:    r,
		f:       s.Poly(),
		p:       p,
		n:       s.Poly().NVars() - 1,
		prec:    opts.Precision,
		threads: threads,
		store:   opts.Store,
		log:     log.With("strategy", s.Name()),
		dense:   opts.Dense,
		fpow:    map[int]*poly.Poly{},
		support: map[int]map[string]bool{},
	}, nil
}

func (e *Engine[E]) DR() *dr.Engine[E] { return e.dr }
func (e *Engine[E]) Ring() algebra.PAdic[E] { return e.ring }
func (e *Engine[E]) Precision() int { return e.prec }

// TopLevel is the highest pole order any series term reaches.
func (e *Engine[E]) TopLevel() int {
	top := e.strat.MaxLevel() + 1
	for k := e.strat.MinLevel(); k <= e.strat.MaxLevel(); k++ {
		top = max(top, TopLevel(e.n, e.p, e.prec, k))
	}
	return top
}

// ComputeFpow returns F^k over Z, memoized.
func (e *Engine[E]) ComputeFpow(k int) *poly.Poly {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fpowLocked(k)
}

func (e *Engine[E]) fpowLocked(k int) *poly.Poly {
	if g, ok := e.fpow[k]; ok {
		return g
	}
	g := e.f.Pow(k)
	e.fpow[k] = g
	return g
}

// Support returns the exponents of F^k as map keys.
func (e *Engine[E]) Support(k int) map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.support[k]; ok {
		return s
	}
	g := e.fpowLocked(k)
	s := make(map[string]bool, g.Len())
	for _, t := range g.Terms() {
		s[t.Exp.Key()] = true
	}
	e.support[k] = s
	return s
}

// Delta returns (F^p - F(x^p)) / p, which has integer coefficients.
func (e *Engine[E]) Delta() (*poly.Poly, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deltaLocked()
}

func (e *Engine[E]) deltaLocked() (*poly.Poly, error) {
	if e.delta != nil {
		return e.delta, nil
	}
	p := int(e.p)
	diff := e.fpowLocked(p).Sub(e.f.PowVars(p))
	d, err := diff.DivExact(new(big.Int).SetUint64(e.p))
	if err != nil {
		return nil, fmt.Errorf("hypersurface: delta: %w", err)
	}
	e.delta = d
	return d, nil
}

func (e *Engine[E]) frobKey() string {
	return store.Key("frobenius", e.strat.Name(), e.f.NormalForm(nil),
		strconv.FormatUint(e.p, 10), strconv.Itoa(e.prec), strconv.Itoa(e.ring.Precision()))
}
