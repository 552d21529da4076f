package upoly

import "math/big"

// Sturm returns the Sturm sequence of a square-free polynomial.
func Sturm(p Poly) []Poly {
	p = p.trim()
	seq := []Poly{p}
	if p.Degree() <= 0 {
		return seq
	}
	seq = append(seq, Derivative(p))
	for {
		a, b := seq[len(seq)-2], seq[len(seq)-1]
		if b.Degree() <= 0 {
			break
		}
		_, r, _ := DivMod(a, b)
		if r.IsZero() {
			break
		}
		seq = append(seq, Scale(r, big.NewRat(-1, 1)))
	}
	return seq
}

func variations(signs []int) int {
	n, last := 0, 0
	for _, s := range signs {
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			n++
		}
		last = s
	}
	return n
}

func signsAt(seq []Poly, x *big.Rat) []int {
	out := make([]int, len(seq))
	for i, q := range seq {
		out[i] = q.Eval(x).Sign()
	}
	return out
}

func signsAtInf(seq []Poly, neg bool) []int {
	out := make([]int, len(seq))
	for i, q := range seq {
		s := q.Lead().Sign()
		if neg && q.Degree()%2 == 1 {
			s = -s
		}
		out[i] = s
	}
	return out
}

// RealRoots counts the distinct real roots of p.
func RealRoots(p Poly) int {
	sf := SquareFree(p)
	if sf.Degree() <= 0 {
		return 0
	}
	seq := Sturm(sf)
	return variations(signsAtInf(seq, true)) - variations(signsAtInf(seq, false))
}

// RootsAbove counts the distinct real roots of p strictly greater than a.
func RootsAbove(p Poly, a *big.Rat) int {
	sf := SquareFree(p)
	if sf.Degree() <= 0 {
		return 0
	}
	n := 0
	if sf.Eval(a).Sign() == 0 {
		var err error
		sf, _, err = DivMod(sf, Poly{new(big.Rat).Neg(a), big.NewRat(1, 1)})
		if err != nil || sf.Degree() <= 0 {
			return 0
		}
	}
	seq := Sturm(sf)
	n += variations(signsAt(seq, a)) - variations(signsAtInf(seq, false))
	return n
}
