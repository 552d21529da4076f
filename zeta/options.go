package zeta

import (
	"log/slog"

	"controlledreduction/hypersurface"
	"controlledreduction/store"
)

// RetryPolicy controls how the precision grows after an attempt that could
// not pin down the integer coefficients.
type RetryPolicy struct {
	// Growth multiplies the precision between attempts.
	Growth float64
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
}

// Options configure Compute. The zero value is usable: it picks the
// precision heuristically, retries DefaultRetry and runs on every CPU.
type Options struct {
	// PrecisionHint is the first precision N tried; 0 uses the Weil-bound
	// heuristic.
	PrecisionHint int
	Retry         RetryPolicy
	Regime        hypersurface.Regime
	Threads       int
	// Store caches reduction and Frobenius matrices across runs.
	Store  *store.Store
	Logger *slog.Logger
}

// DefaultRetry doubles the precision up to four times.
var DefaultRetry = RetryPolicy{Growth: 2, MaxRetries: 4}

func (o Options) retry() RetryPolicy {
	r := o.Retry
	if r == (RetryPolicy{}) {
		return DefaultRetry
	}
	if r.Growth <= 1 {
		r.Growth = DefaultRetry.Growth
	}
	r.MaxRetries = max(r.MaxRetries, 0)
	return r
}
