package poly

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// NormalForm is a canonical textual form of f with coefficients reduced into
// [0, m) (m nil keeps them as they are). Equal polynomials over Z/m share it.
func (f *Poly) NormalForm(m *big.Int) string {
	g := f
	if m != nil {
		g = f.Mod(m)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "n=%d", g.nvars)
	if m != nil {
		fmt.Fprintf(&b, ";m=%s", m)
	}
	for _, t := range g.terms {
		fmt.Fprintf(&b, ";%s:%s", t.Exp.Key(), t.Coeff.String())
	}
	return b.String()
}

// Digest is the hex SHA3-256 of the normal form modulo m.
func (f *Poly) Digest(m *big.Int) string {
	sum := sha3.Sum256([]byte(f.NormalForm(m)))
	return hex.EncodeToString(sum[:])
}
