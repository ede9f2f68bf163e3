// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import "github.com/streamdb/streamdb/pkg/util/intsets"

// Walk calls fn on e and its descendants in pre-order. If fn returns false,
// the children of that expression are skipped.
func Walk(e ScalarExpr, fn func(ScalarExpr) bool) {
	if !fn(e) {
		return
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		Walk(e.Child(i), fn)
	}
}

// ReplacePostOrder rebuilds e bottom-up, replacing every expression with the
// result of fn applied after its children have been replaced. Subtrees that
// fn leaves unchanged are shared with the original.
func ReplacePostOrder(e ScalarExpr, fn func(ScalarExpr) ScalarExpr) ScalarExpr {
	n := e.ChildCount()
	if n > 0 {
		var children []ScalarExpr
		for i := 0; i < n; i++ {
			child := e.Child(i)
			newChild := ReplacePostOrder(child, fn)
			if newChild != child && children == nil {
				children = make([]ScalarExpr, n)
				for j := 0; j < i; j++ {
					children[j] = e.Child(j)
				}
			}
			if children != nil {
				children[i] = newChild
			}
		}
		if children != nil {
			e = e.withChildren(children)
		}
	}
	return fn(e)
}

// ReplacePreOrder rebuilds e top-down. fn is called on each expression before
// its children; if it reports that it replaced the expression, the
// replacement is used as is and its children are not visited.
func ReplacePreOrder(e ScalarExpr, fn func(ScalarExpr) (ScalarExpr, bool)) ScalarExpr {
	if r, ok := fn(e); ok {
		return r
	}
	n := e.ChildCount()
	if n == 0 {
		return e
	}
	var children []ScalarExpr
	for i := 0; i < n; i++ {
		child := e.Child(i)
		newChild := ReplacePreOrder(child, fn)
		if newChild != child && children == nil {
			children = make([]ScalarExpr, n)
			for j := 0; j < i; j++ {
				children[j] = e.Child(j)
			}
		}
		if children != nil {
			children[i] = newChild
		}
	}
	if children == nil {
		return e
	}
	return e.withChildren(children)
}

// Support returns the set of columns referenced by e.
func Support(e ScalarExpr) intsets.Fast {
	var s intsets.Fast
	Walk(e, func(e ScalarExpr) bool {
		if c, ok := e.(*Column); ok {
			s.Add(c.Idx)
		}
		return true
	})
	return s
}

// SupportOf returns the union of the columns referenced by exprs.
func SupportOf(exprs []ScalarExpr) intsets.Fast {
	var s intsets.Fast
	for _, e := range exprs {
		s.UnionWith(Support(e))
	}
	return s
}

// IsSupportedBy returns true if every column referenced by e is in cols.
func IsSupportedBy(e ScalarExpr, cols intsets.Fast) bool {
	return Support(e).SubsetOf(cols)
}

// Permute returns e with every column reference #i replaced by #perm[i].
func Permute(e ScalarExpr, perm []int) ScalarExpr {
	return ReplacePostOrder(e, func(e ScalarExpr) ScalarExpr {
		if c, ok := e.(*Column); ok {
			return NewColumn(perm[c.Idx])
		}
		return e
	})
}

// PermuteMap returns e with every column reference #i replaced by #m[i].
// Columns missing from m are left unchanged.
func PermuteMap(e ScalarExpr, m map[int]int) ScalarExpr {
	return ReplacePostOrder(e, func(e ScalarExpr) ScalarExpr {
		if c, ok := e.(*Column); ok {
			if to, ok := m[c.Idx]; ok {
				return NewColumn(to)
			}
		}
		return e
	})
}

// ShiftColumns returns e with delta added to every column reference.
func ShiftColumns(e ScalarExpr, delta int) ScalarExpr {
	if delta == 0 {
		return e
	}
	return ReplacePostOrder(e, func(e ScalarExpr) ScalarExpr {
		if c, ok := e.(*Column); ok {
			return NewColumn(c.Idx + delta)
		}
		return e
	})
}

// SubstituteColumns returns e with every column reference #i for which
// subst[i] is non-nil replaced by subst[i].
func SubstituteColumns(e ScalarExpr, subst func(col int) ScalarExpr) ScalarExpr {
	return ReplacePostOrder(e, func(e ScalarExpr) ScalarExpr {
		if c, ok := e.(*Column); ok {
			if r := subst(c.Idx); r != nil {
				return r
			}
		}
		return e
	})
}

// Size returns the number of nodes in e.
func Size(e ScalarExpr) int {
	n := 0
	Walk(e, func(ScalarExpr) bool {
		n++
		return true
	})
	return n
}
