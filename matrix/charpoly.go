package matrix

import (
	"fmt"

	"controlledreduction/algebra"
	"controlledreduction/errs"
)

// CharPoly returns det(xI - m) with coefficients in increasing degree
// (c[n] = 1). It uses Berkowitz's division-free algorithm, so over Z/p^N no
// digits are lost.
func CharPoly[E any](m *Dense[E]) ([]E, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("matrix: characteristic polynomial of %dx%d: %w", m.rows, m.cols, errs.ErrDimension)
	}
	r := m.ring
	n := m.rows
	// c holds the characteristic polynomial of the leading r x r block in
	// decreasing degree.
	c := []E{r.One()}
	for k := 0; k < n; k++ {
		q := make([]E, k+2)
		q[0] = r.One()
		q[1] = r.Neg(m.Get(k, k))
		// v runs through A_k^j * S where S is column k above the diagonal.
		v := make([]E, k)
		for i := 0; i < k; i++ {
			v[i] = m.Get(i, k)
		}
		for j := 0; j < k; j++ {
			acc := r.Zero()
			for i := 0; i < k; i++ {
				acc = r.Add(acc, r.Mul(m.Get(k, i), v[i]))
			}
			q[j+2] = r.Neg(acc)
			if j+1 < k {
				next := make([]E, k)
				for i := 0; i < k; i++ {
					s := r.Zero()
					for t := 0; t < k; t++ {
						s = r.Add(s, r.Mul(m.Get(i, t), v[t]))
					}
					next[i] = s
				}
				v = next
			}
		}
		nc := make([]E, k+2)
		for i := 0; i <= k+1; i++ {
			acc := r.Zero()
			for j := 0; j <= min(i, k); j++ {
				acc = r.Add(acc, r.Mul(q[i-j], c[j]))
			}
			nc[i] = acc
		}
		c = nc
	}
	out := make([]E, n+1)
	for i := range c {
		out[n-i] = c[i]
	}
	return out, nil
}

// CharPolyHessenberg computes det(xI - m) over a field by reduction to upper
// Hessenberg form. Coefficients are in increasing degree.
func CharPolyHessenberg[E any](m *Dense[E]) ([]E, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("matrix: characteristic polynomial of %dx%d: %w", m.rows, m.cols, errs.ErrDimension)
	}
	r := m.ring
	if !r.IsField() {
		return nil, ErrNotField
	}
	n := m.rows
	h := m.Clone()
	for j := 0; j+2 < n; j++ {
		piv := -1
		for i := j + 1; i < n; i++ {
			if !r.IsZero(h.Get(i, j)) {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		if piv != j+1 {
			h.SwapRows(piv, j+1)
			for i := 0; i < n; i++ {
				a, b := h.Get(i, piv), h.Get(i, j+1)
				h.Put(i, piv, b)
				h.Put(i, j+1, a)
			}
		}
		inv, err := r.Inv(h.Get(j+1, j))
		if err != nil {
			return nil, err
		}
		for k := j + 2; k < n; k++ {
			u := r.Mul(h.Get(k, j), inv)
			if r.IsZero(u) {
				continue
			}
			axpy(h.Row(k), h.Row(j+1), u, r)
			for i := 0; i < n; i++ {
				h.Put(i, j+1, r.Add(h.Get(i, j+1), r.Mul(u, h.Get(i, k))))
			}
		}
	}
	// p[k] is the characteristic polynomial of the leading k x k block.
	p := make([][]E, n+1)
	p[0] = []E{r.One()}
	for k := 0; k < n; k++ {
		next := algebra.ZeroVector(r, k+2)
		for i, c := range p[k] {
			next[i+1] = r.Add(next[i+1], c)
			next[i] = r.Sub(next[i], r.Mul(h.Get(k, k), c))
		}
		prod := r.One()
		for i := k - 1; i >= 0; i-- {
			prod = r.Mul(prod, h.Get(i+1, i))
			f := r.Mul(h.Get(i, k), prod)
			if r.IsZero(f) {
				continue
			}
			for t, c := range p[i] {
				next[t] = r.Sub(next[t], r.Mul(f, c))
			}
		}
		p[k+1] = next
	}
	return p[n], nil
}

// Det returns the determinant through the characteristic polynomial.
func Det[E any](m *Dense[E]) (E, error) {
	c, err := CharPoly(m)
	if err != nil {
		var z E
		return z, err
	}
	d := c[0]
	if m.rows%2 == 1 {
		d = m.ring.Neg(d)
	}
	return d, nil
}
