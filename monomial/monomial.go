// Package monomial provides exponent vectors over the homogeneous coordinates
// x0..xn, their canonical order and dense rank/unrank tables.
//
// The canonical order is lexicographically descending: x0^d comes first and
// xn^d last. Every basis and every dense vector in the pipeline is indexed in
// this order.
package monomial

import (
	"strconv"
	"strings"
)

// Monomial is an exponent vector; its length is the number of variables.
type Monomial []int

// Degree is the total degree.
func (u Monomial) Degree() int {
	s := 0
	for _, e := range u {
		s += e
	}
	return s
}

func (u Monomial) Clone() Monomial {
	out := make(Monomial, len(u))
	copy(out, u)
	return out
}

// Key is a compact map key.
func (u Monomial) Key() string {
	var b strings.Builder
	for i, e := range u {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

func (u Monomial) String() string { return u.Render() }

// Render writes u as a product of powers of the given variable names, or of
// x0..xn when names is nil.
func (u Monomial) Render(names ...string) string {
	var parts []string
	for i, e := range u {
		if e == 0 {
			continue
		}
		name := "x" + strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		if e == 1 {
			parts = append(parts, name)
		} else {
			parts = append(parts, name+"^"+strconv.Itoa(e))
		}
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, "*")
}

// Compare orders a and b canonically: negative when a comes first.
func Compare(a, b Monomial) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func Equal(a, b Monomial) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Add writes a+b into dst and returns it. dst may alias a or b; nil allocates.
func Add(dst, a, b Monomial) Monomial {
	if dst == nil {
		dst = make(Monomial, len(a))
	}
	for i := range a {
		dst[i] = a[i] + b[i]
	}
	return dst
}

// Diff returns a-b and whether every exponent stayed non-negative.
func Diff(dst, a, b Monomial) (Monomial, bool) {
	if dst == nil {
		dst = make(Monomial, len(a))
	}
	ok := true
	for i := range a {
		dst[i] = a[i] - b[i]
		if dst[i] < 0 {
			ok = false
		}
	}
	return dst, ok
}

// Divides reports whether x^a divides x^b.
func Divides(a, b Monomial) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

// Scale writes k*u + shift into dst; shift may be nil.
func Scale(dst, u Monomial, k int, shift Monomial) Monomial {
	if dst == nil {
		dst = make(Monomial, len(u))
	}
	for i := range u {
		dst[i] = k * u[i]
		if shift != nil {
			dst[i] += shift[i]
		}
	}
	return dst
}

// Split takes the canonical degree-k part w of u greedily from the last
// variable and returns w and the rest u-w. deg u must be at least k.
func Split(w, rest, u Monomial, k int) (Monomial, Monomial) {
	if w == nil {
		w = make(Monomial, len(u))
	}
	if rest == nil {
		rest = make(Monomial, len(u))
	}
	for i := len(u) - 1; i >= 0; i-- {
		t := min(u[i], k)
		w[i] = t
		rest[i] = u[i] - t
		k -= t
	}
	return w, rest
}

// Unit returns the exponent vector of x_i.
func Unit(nvars, i int) Monomial {
	u := make(Monomial, nvars)
	u[i] = 1
	return u
}

// Constant returns the ones vector (1,...,1), the exponent of x0*...*xn.
func Constant(nvars, c int) Monomial {
	u := make(Monomial, nvars)
	for i := range u {
		u[i] = c
	}
	return u
}
