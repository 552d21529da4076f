// Package errs holds the error taxonomy shared by every stage of the zeta
// pipeline. Callers test with errors.Is and errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSmooth means the defining polynomial has a singular point. It is
	// fatal and never retried.
	ErrNotSmooth = errors.New("zeta: hypersurface is not smooth")

	// ErrDomain reports malformed input or an arithmetic request outside the
	// domain of the operation.
	ErrDomain = errors.New("zeta: domain error")

	// ErrDimension reports a shape mismatch between operands.
	ErrDimension = errors.New("zeta: dimension mismatch")

	// ErrNotUnit is returned when dividing by a non-unit of Z/p^N.
	ErrNotUnit = fmt.Errorf("%w: division by a non-unit", ErrDomain)

	// ErrInsufficientPrecision is raised when p-adic data cannot pin down an
	// integer answer. The orchestrator retries on it.
	ErrInsufficientPrecision = errors.New("zeta: insufficient p-adic precision")

	// ErrPrecisionExhausted is the sentinel behind PrecisionExhaustedError.
	ErrPrecisionExhausted = errors.New("zeta: precision retries exhausted")

	// ErrOutOfOrder reports a reduction level requested before its
	// prerequisites were built.
	ErrOutOfOrder = errors.New("zeta: reduction levels built out of order")

	// ErrCorrupt marks a cache entry that failed its checksum or shape check.
	ErrCorrupt = errors.New("zeta: corrupt cache entry")

	// ErrNotFound is returned by the store for a missing key.
	ErrNotFound = errors.New("zeta: cache entry not found")
)

// PrecisionExhaustedError carries the last precision tried so a caller can
// retry manually with a larger hint.
type PrecisionExhaustedError struct {
	LastPrecision int
	Attempts      int
	Last          error
}

func (e *PrecisionExhaustedError) Error() string {
	msg := fmt.Sprintf("zeta: precision retries exhausted after %d attempts (last precision %d)", e.Attempts, e.LastPrecision)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrPrecisionExhausted and the cause.
func (e *PrecisionExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrPrecisionExhausted}
	}
	return []error{ErrPrecisionExhausted, e.Last}
}
