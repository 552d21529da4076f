// Package zeta computes the zeta function of a smooth projective hypersurface
// over a prime field. Compute runs the stages in order: validation, the
// smoothness test, reduction data, the Frobenius matrix and the exact
// reconstruction of its characteristic polynomial, restarting with more
// p-adic precision when the reconstruction is not conclusive.
package zeta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"controlledreduction/algebra"
	"controlledreduction/dr"
	"controlledreduction/errs"
	"controlledreduction/hypersurface"
	"controlledreduction/internal/logging"
	"controlledreduction/matrix"
	"controlledreduction/poly"
	"controlledreduction/prof"
	"controlledreduction/solve"
	"controlledreduction/tools"
)

// Attempt records one run of the pipeline.
type Attempt struct {
	Precision        int           `json:"precision"`
	WorkingPrecision int           `json:"working_precision"`
	Regime           string        `json:"regime"`
	Duration         time.Duration `json:"duration"`
	Err              string        `json:"error,omitempty"`
}

// Result is the zeta numerator P(T) = det(1 - T Frob | H^(n-1)_prim) with
// its diagnostics. Z(X, T) = P(T)^((-1)^n) / prod_{i<n} (1 - p^i T).
type Result struct {
	Coeffs []*big.Int `json:"coeffs"`
	Prime  uint64     `json:"prime"`
	// N is the dimension of the ambient projective space.
	N      int `json:"n"`
	Weight int `json:"weight"`
	// Precision is the p-adic precision of the successful attempt.
	Precision int  `json:"precision"`
	Smooth    bool `json:"smooth"`
	// Model is the polynomial the reduction ran on when a change of
	// variables replaced the input.
	Model string `json:"model,omitempty"`

	FunctionalEquation bool                     `json:"functional_equation"`
	RiemannHypothesis  bool                     `json:"riemann_hypothesis"`
	Sign               int                      `json:"sign"`
	Attempts           []Attempt                `json:"attempts"`
	Timings            map[string]time.Duration `json:"timings,omitempty"`
}

// Compute returns the zeta numerator of V(f) over GF(p).
//
// A singular V(f) is refused with errs.ErrNotSmooth before any reduction
// data is built. When p divides deg f a smooth V(f) can still have partials
// with a common zero. The reduction needs the partials alone to span the
// Jacobian degree, so such input is refused with an error wrapping
// errs.ErrDomain.
func Compute(ctx context.Context, f *poly.Poly, p uint64, opts Options) (*Result, error) {
	log := logging.Or(opts.Logger).With("p", p)
	mark := prof.Mark()
	if err := validate(f, p); err != nil {
		return nil, err
	}
	singular, err := solve.Default().HasSingularPoint(f, p)
	if err != nil {
		return nil, err
	}
	if singular {
		return nil, fmt.Errorf("zeta: V(%s) mod %d: %w", f, p, errs.ErrNotSmooth)
	}
	n, d := f.NVars()-1, f.Degree()
	res := &Result{Prime: p, N: n, Weight: n - 1, Smooth: true, Sign: 1}
	r, err := tools.PrimitiveBetti(n, d)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		res.Coeffs = []*big.Int{big.NewInt(1)}
		res.FunctionalEquation, res.RiemannHypothesis = true, true
		log.Info("no primitive middle cohomology", "stage", "zeta", "degree", d)
		return res, nil
	}
	model, nondegenerate, err := Model(f, p)
	if err != nil {
		return nil, err
	}
	if model != f {
		res.Model = model.String()
	}
	log.Debug("model chosen", "stage", "zeta", "nondegenerate", nondegenerate, "changed", model != f)
	s, err := dr.NewStandard(model)
	if err != nil {
		return nil, err
	}

	policy := opts.retry()
	heuristic := HeuristicPrecision(n, d, p)
	N := opts.PrecisionHint
	if N <= 0 {
		N = heuristic
	}
	var last error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		start := time.Now()
		W := hypersurface.WorkingPrecision(s, p, N)
		rec := Attempt{Precision: N, WorkingPrecision: W}
		log.Info("attempt", "stage", "zeta", "attempt", attempt+1, "precision", N, "working_precision", W)
		cp, regime, err := run(ctx, s, p, N, W, opts)
		rec.Regime = regime.String()
		rec.Duration = time.Since(start)
		if err == nil {
			res.Attempts = append(res.Attempts, rec)
			res.Coeffs = cp.Coeffs
			res.Precision = N
			res.Sign = cp.Sign
			res.FunctionalEquation = cp.FunctionalEquation
			res.RiemannHypothesis = cp.RiemannHypothesis
			res.Timings = prof.Totals(prof.Since(mark))
			return res, nil
		}
		rec.Err = err.Error()
		res.Attempts = append(res.Attempts, rec)
		if !errors.Is(err, errs.ErrInsufficientPrecision) {
			return nil, err
		}
		last = err
		log.Warn("precision insufficient", "stage", "zeta", "attempt", attempt+1, "precision", N, "err", err)
		N = max(int(math.Ceil(float64(N)*policy.Growth)), N+1, heuristic)
	}
	return nil, &errs.PrecisionExhaustedError{
		LastPrecision: res.Attempts[len(res.Attempts)-1].Precision,
		Attempts:      len(res.Attempts),
		Last:          last,
	}
}

func validate(f *poly.Poly, p uint64) error {
	switch {
	case p >= algebra.MaxFieldPrime || !algebra.IsPrime(p):
		return fmt.Errorf("zeta: %d is not a prime below 2^31: %w", p, errs.ErrDomain)
	case f.NVars() < 2:
		return fmt.Errorf("zeta: %d variables, need at least 2: %w", f.NVars(), errs.ErrDomain)
	case f.IsZero() || !f.IsHomogeneous():
		return fmt.Errorf("zeta: %s is not a non-zero form: %w", f, errs.ErrDomain)
	case f.Degree() < 1:
		return fmt.Errorf("zeta: constant %s: %w", f, errs.ErrDomain)
	}
	if f.Mod(new(big.Int).SetUint64(p)).IsZero() {
		return fmt.Errorf("zeta: %s vanishes mod %d: %w", f, p, errs.ErrDomain)
	}
	return nil
}

// run is one pass of the pipeline at precision N over Z/p^W.
func run(ctx context.Context, s dr.Strategy, p uint64, N, W int, opts Options) (*matrix.FrobeniusPolynomial, hypersurface.Regime, error) {
	regime, err := opts.Regime.Resolve(p, W)
	if err != nil {
		return nil, regime, err
	}
	if regime == hypersurface.Truncated {
		r, err := algebra.NewZmodWord(p, W)
		if err != nil {
			return nil, regime, err
		}
		cp, err := pipeline[uint64](ctx, s, r, N, opts)
		return cp, regime, err
	}
	r, err := algebra.NewZmodBig(p, W)
	if err != nil {
		return nil, regime, err
	}
	cp, err := pipeline[*big.Int](ctx, s, r, N, opts)
	return cp, regime, err
}

func pipeline[E any](ctx context.Context, s dr.Strategy, r algebra.PAdic[E], N int, opts Options) (*matrix.FrobeniusPolynomial, error) {
	e, err := hypersurface.New[E](s, r, hypersurface.Options{
		Precision: N,
		Threads:   opts.Threads,
		Store:     opts.Store,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := e.DR().ComputeEverything(ctx, e.TopLevel()); err != nil {
		return nil, err
	}
	fm, err := e.FrobMatrix(ctx)
	if err != nil {
		return nil, err
	}
	defer prof.Track(time.Now(), "zeta.charpoly")
	return matrix.CharPolyFrobenius(fm.Input())
}

// HeuristicPrecision is the precision at which the Weil bounds make the
// lift of every coefficient c_i, i <= r/2, unique, plus the digit the twist
// by p consumes. For even weight it also covers the sign of the functional
// equation. Basis elements at pole order m are expected to map into
// p^(n-m) times the lattice, which gives c_i the i-1 smallest of those
// valuations for free.
func HeuristicPrecision(n, d int, p uint64) int {
	h, err := tools.HodgeNumbers(n, d)
	if err != nil {
		return 1
	}
	var slopes []int
	for m := n; m >= 1; m-- {
		for c := int64(0); c < h[m-1]; c++ {
			slopes = append(slopes, n-m)
		}
	}
	r := int64(len(slopes))
	if r == 0 {
		return 1
	}
	free := func(i int64) int {
		s := 0
		for _, v := range slopes[:i-1] {
			s += v
		}
		return s
	}
	w := n - 1
	pb := new(big.Int).SetUint64(p)
	// least e with p^e > bound
	digits := func(bound *big.Int) int {
		e := 0
		for pw := big.NewInt(1); pw.Cmp(bound) <= 0; pw.Mul(pw, pb) {
			e++
		}
		return e
	}
	need := 1
	for i := int64(1); 2*i <= r; i++ {
		// p^(2e) > 4 C(r,i)^2 p^(i w) iff p^e > 2 C(r,i) p^(i w / 2)
		b := new(big.Int).Binomial(r, i)
		b.Mul(b, b)
		b.Mul(b, big.NewInt(4))
		b.Mul(b, new(big.Int).Exp(pb, big.NewInt(i*int64(w)), nil))
		e := (digits(b) + 1) / 2
		need = max(need, e-free(i))
	}
	if w%2 == 0 {
		j := (r + 2) / 2
		b := new(big.Int).Binomial(r, j)
		b.Mul(b, big.NewInt(2))
		b.Mul(b, new(big.Int).Exp(pb, big.NewInt(j*int64(w)/2), nil))
		need = max(need, digits(b)-free(j))
	}
	return need + 1
}
