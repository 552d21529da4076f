package matrix

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// Mul returns a*b.
func Mul[E any](a, b *Dense[E]) (*Dense[E], error) {
	if a.cols != b.rows {
		return nil, shapeErr("product", a.rows, a.cols, b.rows, b.cols)
	}
	out := zero(a.ring, a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		mulRow(a, b, out, i)
	}
	return out, nil
}

func mulRow[E any](a, b, out *Dense[E], i int) {
	r := a.ring
	dst := out.Row(i)
	for k, x := range a.Row(i) {
		if r.IsZero(x) {
			continue
		}
		bk := b.Row(k)
		for j := range dst {
			dst[j] = r.Add(dst[j], r.Mul(x, bk[j]))
		}
	}
}

// MulParallel returns a*b with rows spread over at most threads goroutines.
func MulParallel[E any](ctx context.Context, a, b *Dense[E], threads int) (*Dense[E], error) {
	if a.cols != b.rows {
		return nil, shapeErr("product", a.rows, a.cols, b.rows, b.cols)
	}
	if threads <= 1 || a.rows < 2 {
		return Mul(a, b)
	}
	out := zero(a.ring, a.rows, b.cols)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	chunk := (a.rows + threads - 1) / threads
	for lo := 0; lo < a.rows; lo += chunk {
		lo, hi := lo, min(lo+chunk, a.rows)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				mulRow(a, b, out, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TransposeMul returns aᵗ*b without materialising aᵗ.
func TransposeMul[E any](a, b *Dense[E]) (*Dense[E], error) {
	if a.rows != b.rows {
		return nil, shapeErr("transpose product", a.cols, a.rows, b.rows, b.cols)
	}
	r := a.ring
	out := zero(r, a.cols, b.cols)
	for k := 0; k < a.rows; k++ {
		ak, bk := a.Row(k), b.Row(k)
		for i, x := range ak {
			if r.IsZero(x) {
				continue
			}
			dst := out.Row(i)
			for j := range dst {
				dst[j] = r.Add(dst[j], r.Mul(x, bk[j]))
			}
		}
	}
	return out, nil
}

// MulTranspose returns a*bᵗ.
func MulTranspose[E any](a, b *Dense[E]) (*Dense[E], error) {
	if a.cols != b.cols {
		return nil, shapeErr("product with transpose", a.rows, a.cols, b.cols, b.rows)
	}
	r := a.ring
	out := zero(r, a.rows, b.rows)
	for i := 0; i < a.rows; i++ {
		ai := a.Row(i)
		for j := 0; j < b.rows; j++ {
			out.Put(i, j, algebra.Dot(r, ai, b.Row(j)))
		}
	}
	return out, nil
}

// TransposeMulTranspose returns aᵗ*bᵗ = (b*a)ᵗ.
func TransposeMulTranspose[E any](a, b *Dense[E]) (*Dense[E], error) {
	if a.rows != b.cols {
		return nil, shapeErr("transposed product", a.cols, a.rows, b.cols, b.rows)
	}
	r := a.ring
	out := zero(r, a.cols, b.rows)
	for j := 0; j < b.rows; j++ {
		bj := b.Row(j)
		for t, y := range bj {
			if r.IsZero(y) {
				continue
			}
			at := a.Row(t)
			for i, x := range at {
				out.data[i*out.cols+j] = r.Add(out.data[i*out.cols+j], r.Mul(x, y))
			}
		}
	}
	return out, nil
}

// MulVec returns m*v.
func MulVec[E any](m *Dense[E], v []E) ([]E, error) {
	if len(v) != m.cols {
		return nil, shapeErr("matrix-vector product", m.rows, m.cols, len(v), 1)
	}
	out := make([]E, m.rows)
	for i := range out {
		out[i] = algebra.Dot(m.ring, m.Row(i), v)
	}
	return out, nil
}

// Add returns a+b.
func Add[E any](a, b *Dense[E]) (*Dense[E], error) {
	if a.rows != b.rows || a.cols != b.cols {
		return nil, shapeErr("sum", a.rows, a.cols, b.rows, b.cols)
	}
	out := zero(a.ring, a.rows, a.cols)
	for i := range out.data {
		out.data[i] = a.ring.Add(a.data[i], b.data[i])
	}
	return out, nil
}

// Scale returns c*m.
func Scale[E any](m *Dense[E], c E) *Dense[E] {
	out := zero(m.ring, m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = m.ring.Mul(c, v)
	}
	return out
}

// Trace sums the diagonal of a square matrix.
func Trace[E any](m *Dense[E]) (E, error) {
	if m.rows != m.cols {
		var z E
		return z, fmt.Errorf("matrix: trace of %dx%d: %w", m.rows, m.cols, errs.ErrDimension)
	}
	acc := m.ring.Zero()
	for i := 0; i < m.rows; i++ {
		acc = m.ring.Add(acc, m.Get(i, i))
	}
	return acc, nil
}

// Inverse inverts a square matrix by Gauss-Jordan elimination with unit
// pivots. Over Z/p^N a matrix is invertible iff its reduction mod p is.
func Inverse[E any](m *Dense[E]) (*Dense[E], error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("matrix: inverse of %dx%d: %w", m.rows, m.cols, errs.ErrDimension)
	}
	r := m.ring
	n := m.rows
	a := m.Clone()
	inv := Identity(r, n)
	for c := 0; c < n; c++ {
		piv, pinv := -1, r.Zero()
		for i := c; i < n; i++ {
			x := a.Get(i, c)
			if r.IsZero(x) {
				continue
			}
			if y, err := r.Inv(x); err == nil {
				piv, pinv = i, y
				break
			}
		}
		if piv < 0 {
			return nil, fmt.Errorf("matrix: no unit pivot in column %d: %w", c, ErrSingular)
		}
		a.SwapRows(c, piv)
		inv.SwapRows(c, piv)
		scaleRow(a.Row(c), pinv, r)
		scaleRow(inv.Row(c), pinv, r)
		for i := 0; i < n; i++ {
			if i == c {
				continue
			}
			f := a.Get(i, c)
			if r.IsZero(f) {
				continue
			}
			axpy(a.Row(i), a.Row(c), f, r)
			axpy(inv.Row(i), inv.Row(c), f, r)
		}
	}
	return inv, nil
}

func scaleRow[E any](row []E, c E, r algebra.Ring[E]) {
	for j := range row {
		row[j] = r.Mul(row[j], c)
	}
}

// axpy sets dst -= f*src.
func axpy[E any](dst, src []E, f E, r algebra.Ring[E]) {
	for j, s := range src {
		if r.IsZero(s) {
			continue
		}
		dst[j] = r.Sub(dst[j], r.Mul(f, s))
	}
}

// Rank returns the rank over a field.
func Rank[E any](m *Dense[E]) (int, error) {
	r := m.ring
	if !r.IsField() {
		return 0, ErrNotField
	}
	a := m.Clone()
	rank := 0
	for c := 0; c < a.cols && rank < a.rows; c++ {
		piv := -1
		for i := rank; i < a.rows; i++ {
			if !r.IsZero(a.Get(i, c)) {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		a.SwapRows(rank, piv)
		pinv, err := r.Inv(a.Get(rank, c))
		if err != nil {
			return 0, err
		}
		scaleRow(a.Row(rank), pinv, r)
		for i := rank + 1; i < a.rows; i++ {
			f := a.Get(i, c)
			if !r.IsZero(f) {
				axpy(a.Row(i), a.Row(rank), f, r)
			}
		}
		rank++
	}
	return rank, nil
}
