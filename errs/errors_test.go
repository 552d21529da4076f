package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotUnitIsDomain(t *testing.T) {
	err := fmt.Errorf("inverse of 5 mod 25: %w", ErrNotUnit)
	require.ErrorIs(t, err, ErrDomain)
	require.ErrorIs(t, err, ErrNotUnit)
}

func TestPrecisionExhaustedUnwrap(t *testing.T) {
	var err error = &PrecisionExhaustedError{LastPrecision: 7, Attempts: 3, Last: ErrInsufficientPrecision}
	require.ErrorIs(t, err, ErrPrecisionExhausted)
	require.ErrorIs(t, err, ErrInsufficientPrecision)

	var pe *PrecisionExhaustedError
	require.True(t, errors.As(fmt.Errorf("compute: %w", err), &pe))
	require.Equal(t, 7, pe.LastPrecision)
	require.Contains(t, pe.Error(), "last precision 7")
}
