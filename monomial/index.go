package monomial

import (
	"fmt"
	"sync"
)

// Index is the dense table of all monomials of one degree in canonical
// order. Rank and At are O(nvars).
type Index struct {
	nvars  int
	degree int
	flat   []int
	binom  [][]int
}

var (
	indexMu    sync.Mutex
	indexCache = map[[2]int]*Index{}
)

// NewIndex returns the shared index for (nvars, degree). A negative degree
// yields an empty index.
func NewIndex(nvars, degree int) *Index {
	if nvars < 1 {
		panic(fmt.Sprintf("monomial: index over %d variables", nvars))
	}
	indexMu.Lock()
	defer indexMu.Unlock()
	key := [2]int{nvars, degree}
	if ix, ok := indexCache[key]; ok {
		return ix
	}
	ix := &Index{nvars: nvars, degree: degree}
	if degree >= 0 {
		ix.binom = pascal(degree+nvars, nvars)
		for _, u := range Enumerate(nvars, degree) {
			ix.flat = append(ix.flat, u...)
		}
	}
	indexCache[key] = ix
	return ix
}

func pascal(rows, cols int) [][]int {
	t := make([][]int, rows+1)
	for a := range t {
		t[a] = make([]int, cols+1)
		t[a][0] = 1
		for b := 1; b <= cols && b <= a; b++ {
			t[a][b] = t[a-1][b-1]
			if b <= a-1 {
				t[a][b] += t[a-1][b]
			}
		}
	}
	return t
}

func (ix *Index) binomial(a, b int) int {
	if a < 0 || b < 0 || b > a {
		return 0
	}
	return ix.binom[a][b]
}

func (ix *Index) NVars() int { return ix.nvars }
func (ix *Index) Degree() int { return ix.degree }

// Len is the number of monomials of this degree.
func (ix *Index) Len() int {
	if ix.degree < 0 {
		return 0
	}
	return len(ix.flat) / ix.nvars
}

// At returns the monomial of rank i. The slice aliases the table and must not
// be modified.
func (ix *Index) At(i int) Monomial {
	return Monomial(ix.flat[i*ix.nvars : (i+1)*ix.nvars : (i+1)*ix.nvars])
}

// Rank returns the position of u, or -1 when u has the wrong shape or degree.
func (ix *Index) Rank(u Monomial) int {
	if len(u) != ix.nvars || ix.degree < 0 {
		return -1
	}
	n := ix.nvars - 1
	r := ix.degree
	rank := 0
	for i := 0; i < n; i++ {
		if u[i] < 0 || u[i] > r {
			return -1
		}
		rank += ix.binomial(r-u[i]-1+n-i, n-i)
		r -= u[i]
	}
	if u[n] != r {
		return -1
	}
	return rank
}

// Enumerate lists all exponent vectors of the given degree in canonical order.
func Enumerate(nvars, degree int) []Monomial {
	if degree < 0 || nvars < 1 {
		return nil
	}
	var out []Monomial
	cur := make(Monomial, nvars)
	var rec func(i, left int)
	rec = func(i, left int) {
		if i == nvars-1 {
			cur[i] = left
			out = append(out, cur.Clone())
			return
		}
		for e := left; e >= 0; e-- {
			cur[i] = e
			rec(i+1, left-e)
		}
	}
	rec(0, degree)
	return out
}

// Count is the number of monomials of the given degree, C(degree+nvars-1, nvars-1).
func Count(nvars, degree int) int {
	if degree < 0 {
		return 0
	}
	return NewIndex(nvars, degree).Len()
}
