package hypersurface

import (
	"context"
	"sort"

	"controlledreduction/dr"
	"controlledreduction/monomial"
)

// lane is one fixed-degree term together with the monomial of F it moves
// out of the prefix on every step of the current band.
type lane[E any] struct {
	t   *dr.Term[E]
	dir monomial.Monomial
}

// column carries one Frobenius column down the pole orders. Above the dense
// range the form is a set of terms keyed by prefix; below it, and wherever
// the engine has no theta table, it is a single dense vector.
type column[E any] struct {
	e     *Engine[E]
	level int
	base  monomial.Monomial
	// wBase is the common G part of every injected monomial when it exists,
	// so that prefixes coincide band after band.
	wBase monomial.Monomial
	lanes map[string]*lane[E]
	dense *dr.Vector[E]
	acc   *dr.Coordinates[E]
}

func (e *Engine[E]) newColumn(top int, base monomial.Monomial) *column[E] {
	c := &column[E]{
		e:     e,
		level: top,
		base:  base,
		lanes: map[string]*lane[E]{},
		acc:   e.dr.NewCoordinates(),
	}
	if D := e.dr.EulerDegree(); D >= 0 && base.Degree() >= D {
		c.wBase, _ = monomial.Split(nil, nil, base, D)
	}
	return c
}

func (c *column[E]) holds(m int) bool { return !c.e.dense && c.e.dr.Holds(m) }

// inject adds x * x^u at the current pole order.
func (c *column[E]) inject(u monomial.Monomial, x E) error {
	d := c.e.dr
	if !c.holds(c.level) {
		if c.dense == nil {
			c.dense = d.NewVector(c.level)
		}
		return d.AddMonomial(c.dense, u, x)
	}
	w := c.wBase
	if w == nil || !monomial.Divides(w, u) {
		w, _ = monomial.Split(nil, nil, u, d.EulerDegree())
	}
	prefix, _ := monomial.Diff(nil, u, w)
	key := prefix.Key()
	ln, ok := c.lanes[key]
	if !ok {
		t, err := d.NewTerm(c.level, prefix)
		if err != nil {
			return err
		}
		ln = &lane[E]{t: t}
		c.lanes[key] = ln
	}
	return d.AddToTerm(ln.t, w, x)
}

// direct picks the step direction of every lane for band i: a monomial v of
// F with gamma - v in the support of F^(i-1), where x^(p*gamma) is the part
// of the prefix the band contributed. Lanes then land on the prefixes of the
// next band. Below the last band directions are picked step by step.
func (c *column[E]) direct(i int) {
	if i == 0 || c.wBase == nil {
		for _, ln := range c.lanes {
			ln.dir = nil
		}
		return
	}
	p := int(c.e.p)
	next := c.e.Support(i - 1)
	gamma := make(monomial.Monomial, len(c.base))
	rest := make(monomial.Monomial, len(c.base))
	for _, ln := range c.lanes {
		ln.dir = nil
		ok := true
		for j := range gamma {
			g := ln.t.U[j] + c.wBase[j] - c.base[j]
			if g < 0 || g%p != 0 {
				ok = false
				break
			}
			gamma[j] = g / p
		}
		if !ok {
			continue
		}
		for _, t := range c.e.f.Terms() {
			if _, fits := monomial.Diff(rest, gamma, t.Exp); !fits {
				continue
			}
			if ln.dir == nil {
				ln.dir = t.Exp
			}
			if next[rest.Key()] {
				ln.dir = t.Exp
				break
			}
		}
	}
}

// lower moves the column one pole order down.
func (c *column[E]) lower(ctx context.Context) error {
	d, r := c.e.dr, c.e.ring
	if c.dense != nil {
		v, err := d.Descend(ctx, c.dense, c.acc)
		if err != nil {
			return err
		}
		c.dense = v
	}
	keys := make([]string, 0, len(c.lanes))
	for k := range c.lanes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	next := make(map[string]*lane[E], len(c.lanes))
	deg := c.e.f.Degree()
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		ln := c.lanes[k]
		if !c.holds(c.level - 1) {
			v, err := d.LowerTerm(ln.t)
			if err != nil {
				return err
			}
			if c.dense == nil {
				c.dense = v
			} else if err := c.dense.Add(r, v); err != nil {
				return err
			}
			continue
		}
		dir := ln.dir
		if dir == nil || !monomial.Divides(dir, ln.t.U) {
			dir, _ = monomial.Split(nil, nil, ln.t.U, deg)
		}
		t, err := d.StepTerm(ln.t, dir)
		if err != nil {
			return err
		}
		key := t.U.Key()
		if prev, ok := next[key]; ok {
			if err := prev.t.Add(r, t); err != nil {
				return err
			}
			continue
		}
		next[key] = &lane[E]{t: t, dir: ln.dir}
	}
	c.lanes = next
	c.level--
	return nil
}

// lowerTo lowers the column until it sits at pole order m.
func (c *column[E]) lowerTo(ctx context.Context, m int) error {
	for c.level > m {
		if c.dense == nil && len(c.lanes) == 0 {
			c.level = m
			return nil
		}
		if err := c.lower(ctx); err != nil {
			return err
		}
	}
	return nil
}
