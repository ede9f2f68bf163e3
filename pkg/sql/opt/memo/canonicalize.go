// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// maxCanonicalizeIterations bounds the rewrite loop of
// CanonicalizeEquivalences. Each iteration either merges classes or shrinks
// their members, so the loop converges well before the bound in practice.
const maxCanonicalizeIterations = 32

// CanonicalizeEquivalences returns the canonical form of a list of
// equivalence classes:
//
//   - classes that share an expression are merged;
//   - subexpressions of each member are replaced by the representative of
//     their class (see Canonicalizer);
//   - each class is sorted and deduplicated, classes with fewer than two
//     members are dropped, and the classes are sorted.
//
// The input is not modified.
func CanonicalizeEquivalences(equivalences [][]tree.ScalarExpr) [][]tree.ScalarExpr {
	classes := make([][]tree.ScalarExpr, 0, len(equivalences))
	for _, class := range equivalences {
		classes = append(classes, append([]tree.ScalarExpr(nil), class...))
	}
	for i := 0; i < maxCanonicalizeIterations; i++ {
		next := mergeClasses(classes)
		c := NewCanonicalizer(next)
		for _, class := range next {
			for j := range class {
				class[j] = c.canonicalizeChildren(class[j])
			}
		}
		next = normalizeClasses(next)
		if classesEqual(classes, next) {
			return next
		}
		classes = next
	}
	return classes
}

// mergeClasses merges classes that have an expression in common. Each
// resulting class is sorted and deduplicated.
func mergeClasses(classes [][]tree.ScalarExpr) [][]tree.ScalarExpr {
	var res [][]tree.ScalarExpr
	for _, class := range classes {
		merged := append([]tree.ScalarExpr(nil), class...)
		kept := res[:0]
		for _, other := range res {
			if intersects(merged, other) {
				merged = append(merged, other...)
			} else {
				kept = append(kept, other)
			}
		}
		res = append(kept, tree.SortAndDedup(merged))
	}
	// A class merged late may now overlap one that was kept earlier.
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(res) && !changed; i++ {
			for j := i + 1; j < len(res); j++ {
				if intersects(res[i], res[j]) {
					res[i] = tree.SortAndDedup(append(res[i], res[j]...))
					res = append(res[:j], res[j+1:]...)
					changed = true
					break
				}
			}
		}
	}
	return res
}

func normalizeClasses(classes [][]tree.ScalarExpr) [][]tree.ScalarExpr {
	res := classes[:0]
	for _, class := range classes {
		class = tree.SortAndDedup(class)
		if len(class) >= 2 {
			res = append(res, class)
		}
	}
	return tree.SortAndDedupLists(res)
}

func intersects(a, b []tree.ScalarExpr) bool {
	for _, e := range a {
		if tree.Contains(b, e) {
			return true
		}
	}
	return false
}

func classesEqual(a, b [][]tree.ScalarExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !tree.ListsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Canonicalizer replaces expressions by the representative of their
// equivalence class. The representative is a literal if the class has one,
// otherwise the smallest expression, ties broken by tree.Compare.
type Canonicalizer struct {
	repr map[string]tree.ScalarExpr
}

// NewCanonicalizer returns a canonicalizer for the given classes, which
// should not overlap.
func NewCanonicalizer(equivalences [][]tree.ScalarExpr) *Canonicalizer {
	c := &Canonicalizer{repr: make(map[string]tree.ScalarExpr)}
	for _, class := range equivalences {
		if len(class) == 0 {
			continue
		}
		best := class[0]
		for _, e := range class[1:] {
			if betterRepresentative(e, best) {
				best = e
			}
		}
		for _, e := range class {
			if !tree.Equal(e, best) {
				c.repr[e.String()] = best
			}
		}
	}
	return c
}

func betterRepresentative(a, b tree.ScalarExpr) bool {
	if la, lb := tree.IsLiteral(a), tree.IsLiteral(b); la != lb {
		return la
	}
	if sa, sb := tree.Size(a), tree.Size(b); sa != sb {
		return sa < sb
	}
	return tree.Compare(a, b) < 0
}

// Canonicalize replaces e, and otherwise its largest subexpressions, by their
// class representatives.
func (c *Canonicalizer) Canonicalize(e tree.ScalarExpr) tree.ScalarExpr {
	if len(c.repr) == 0 {
		return e
	}
	return tree.ReplacePreOrder(e, c.lookup)
}

// canonicalizeChildren is like Canonicalize but leaves e itself in place, so
// that a class member is not rewritten into its own representative.
func (c *Canonicalizer) canonicalizeChildren(e tree.ScalarExpr) tree.ScalarExpr {
	if len(c.repr) == 0 {
		return e
	}
	root := true
	return tree.ReplacePreOrder(e, func(sub tree.ScalarExpr) (tree.ScalarExpr, bool) {
		if root {
			root = false
			return nil, false
		}
		return c.lookup(sub)
	})
}

func (c *Canonicalizer) lookup(e tree.ScalarExpr) (tree.ScalarExpr, bool) {
	r, ok := c.repr[e.String()]
	return r, ok
}
