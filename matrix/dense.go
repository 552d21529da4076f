// Package matrix is the generic dense linear-algebra kernel. Every routine is
// parameterised by the element type and an algebra.Ring, so the same code
// runs over Z, Q, Z/p^N and GF(p).
package matrix

import (
	"fmt"
	"strings"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// Dense is a row-major matrix over a ring.
type Dense[E any] struct {
	ring       algebra.Ring[E]
	rows, cols int
	data       []E
}

// New returns a zero rows x cols matrix.
func New[E any](r algebra.Ring[E], rows, cols int) (*Dense[E], error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("matrix: shape %dx%d: %w", rows, cols, errs.ErrDimension)
	}
	return &Dense[E]{ring: r, rows: rows, cols: cols, data: algebra.ZeroVector(r, rows*cols)}, nil
}

func zero[E any](r algebra.Ring[E], rows, cols int) *Dense[E] {
	return &Dense[E]{ring: r, rows: rows, cols: cols, data: algebra.ZeroVector(r, rows*cols)}
}

// Identity returns the n x n identity.
func Identity[E any](r algebra.Ring[E], n int) *Dense[E] {
	m := zero(r, n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = r.One()
	}
	return m
}

// FromRows copies a rectangular slice of rows.
func FromRows[E any](r algebra.Ring[E], rows [][]E) (*Dense[E], error) {
	if len(rows) == 0 {
		return zero(r, 0, 0), nil
	}
	cols := len(rows[0])
	m := zero(r, len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix: ragged row %d has %d entries, want %d: %w", i, len(row), cols, errs.ErrDimension)
		}
		copy(m.data[i*cols:], row)
	}
	return m, nil
}

// FromInt64 builds a matrix from small integer rows.
func FromInt64[E any](r algebra.Ring[E], rows [][]int64) (*Dense[E], error) {
	conv := make([][]E, len(rows))
	for i, row := range rows {
		conv[i] = make([]E, len(row))
		for j, v := range row {
			conv[i][j] = r.FromInt64(v)
		}
	}
	return FromRows(r, conv)
}

func (m *Dense[E]) Rows() int { return m.rows }
func (m *Dense[E]) Cols() int { return m.cols }
func (m *Dense[E]) Ring() algebra.Ring[E] { return m.ring }
func (m *Dense[E]) Get(i, j int) E { return m.data[i*m.cols+j] }
func (m *Dense[E]) Put(i, j int, v E) { m.data[i*m.cols+j] = v }
func (m *Dense[E]) Row(i int) []E { return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols] }
func (m *Dense[E]) inRange(i, j int) bool { return i >= 0 && i < m.rows && j >= 0 && j < m.cols }

// At returns the entry (i, j) with bounds checking.
func (m *Dense[E]) At(i, j int) (E, error) {
	if !m.inRange(i, j) {
		var z E
		return z, fmt.Errorf("matrix: index (%d,%d) outside %dx%d: %w", i, j, m.rows, m.cols, errs.ErrDimension)
	}
	return m.data[i*m.cols+j], nil
}

// Set writes the entry (i, j) with bounds checking.
func (m *Dense[E]) Set(i, j int, v E) error {
	if !m.inRange(i, j) {
		return fmt.Errorf("matrix: index (%d,%d) outside %dx%d: %w", i, j, m.rows, m.cols, errs.ErrDimension)
	}
	m.data[i*m.cols+j] = v
	return nil
}

// Col copies column j.
func (m *Dense[E]) Col(j int) []E {
	out := make([]E, m.rows)
	for i := range out {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

func (m *Dense[E]) Clone() *Dense[E] {
	out := &Dense[E]{ring: m.ring, rows: m.rows, cols: m.cols, data: make([]E, len(m.data))}
	copy(out.data, m.data)
	return out
}

func (m *Dense[E]) Transpose() *Dense[E] {
	out := zero(m.ring, m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// Equal compares shapes and entries.
func (m *Dense[E]) Equal(o *Dense[E]) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if !m.ring.Equal(m.data[i], o.data[i]) {
			return false
		}
	}
	return true
}

func (m *Dense[E]) IsZero() bool {
	for _, v := range m.data {
		if !m.ring.IsZero(v) {
			return false
		}
	}
	return true
}

func (m *Dense[E]) String() string {
	var b strings.Builder
	for i := 0; i < m.rows; i++ {
		b.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(m.ring.String(m.Get(i, j)))
		}
		b.WriteString("]\n")
	}
	return b.String()
}

// SwapRows exchanges rows i and k in place.
func (m *Dense[E]) SwapRows(i, k int) {
	if i == k {
		return
	}
	ri, rk := m.Row(i), m.Row(k)
	for j := range ri {
		ri[j], rk[j] = rk[j], ri[j]
	}
}
