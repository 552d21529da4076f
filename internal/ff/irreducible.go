package ff

// Dense polynomials over GF(p), constant term first, used to test moduli.
type upoly []uint64

func trim(a upoly) upoly {
	n := len(a)
	for n > 1 && a[n-1] == 0 {
		n--
	}
	if n == 0 {
		return upoly{0}
	}
	return a[:n]
}

func isZeroPoly(a upoly) bool { return len(a) == 1 && a[0] == 0 }

func polySub(a, b upoly, p uint64) upoly {
	out := make(upoly, max(len(a), len(b)))
	for i := range out {
		var x, y uint64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = subMod(x, y, p)
	}
	return trim(out)
}

func polyMul(a, b upoly, p uint64) upoly {
	out := make(upoly, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			if y != 0 {
				out[i+j] = addMod(out[i+j], mulMod(x, y, p), p)
			}
		}
	}
	return trim(out)
}

// polyMod reduces a modulo the non-zero polynomial b.
func polyMod(a, b upoly, p uint64) upoly {
	a, b = trim(append(upoly(nil), a...)), trim(b)
	db := len(b) - 1
	inv := powMod(b[db], p-2, p)
	for len(a)-1 >= db && !isZeroPoly(a) {
		da := len(a) - 1
		c := mulMod(a[da], inv, p)
		for j := 0; j <= db; j++ {
			a[da-db+j] = subMod(a[da-db+j], mulMod(c, b[j], p), p)
		}
		a = trim(a[:da])
		if db == 0 {
			return upoly{0}
		}
	}
	return a
}

func polyGCD(a, b upoly, p uint64) upoly {
	a, b = trim(a), trim(b)
	for !isZeroPoly(b) {
		a, b = b, polyMod(a, b, p)
	}
	return a
}

func polyPowMod(base upoly, e uint64, m upoly, p uint64) upoly {
	out := upoly{1}
	b := polyMod(base, m, p)
	for e > 0 {
		if e&1 == 1 {
			out = polyMod(polyMul(out, b, p), m, p)
		}
		e >>= 1
		if e > 0 {
			b = polyMod(polyMul(b, b, p), m, p)
		}
	}
	return out
}

func powMod(a, e, p uint64) uint64 {
	out := uint64(1)
	a %= p
	for e > 0 {
		if e&1 == 1 {
			out = mulMod(out, a, p)
		}
		e >>= 1
		a = mulMod(a, a, p)
	}
	return out
}

// isIrreducible is Ben-Or's test: f of degree n is irreducible iff
// gcd(X^(p^i) - X, f) = 1 for i <= n/2 and X^(p^n) = X mod f.
func isIrreducible(p uint64, f upoly) bool {
	f = trim(append(upoly(nil), f...))
	n := len(f) - 1
	if n < 1 {
		return false
	}
	if n == 1 {
		return true
	}
	x := upoly{0, 1}
	xp := x
	for i := 1; i <= n/2; i++ {
		xp = polyPowMod(xp, p, f, p)
		if g := polyGCD(polySub(xp, x, p), f, p); len(g) > 1 {
			return false
		}
	}
	for i := n / 2; i < n; i++ {
		xp = polyPowMod(xp, p, f, p)
	}
	return isZeroPoly(polySub(xp, x, p))
}
