// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"sort"

	"github.com/streamdb/streamdb/pkg/sql/types"
)

// Compare totally orders scalar expressions. Columns sort before literals,
// which sort before function calls; expressions of the same kind compare
// field by field, children left to right.
func Compare(a, b ScalarExpr) int {
	if a == b {
		return 0
	}
	if ka, kb := a.kind(), b.kind(); ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch t := a.(type) {
	case *Column:
		return compareInts(t.Idx, b.(*Column).Idx)
	case *Literal:
		o := b.(*Literal)
		if c := t.Datum.Compare(o.Datum); c != 0 {
			return c
		}
		return compareTypes(t.Typ, o.Typ)
	case *CallUnary:
		o := b.(*CallUnary)
		if c := compareInts(int(t.Func), int(o.Func)); c != 0 {
			return c
		}
	case *CallBinary:
		o := b.(*CallBinary)
		if c := compareInts(int(t.Func), int(o.Func)); c != 0 {
			return c
		}
	case *CallVariadic:
		o := b.(*CallVariadic)
		if c := compareInts(int(t.Func), int(o.Func)); c != 0 {
			return c
		}
	}
	na, nb := a.ChildCount(), b.ChildCount()
	for i := 0; i < na && i < nb; i++ {
		if c := Compare(a.Child(i), b.Child(i)); c != 0 {
			return c
		}
	}
	return compareInts(na, nb)
}

// Equal returns true if a and b are structurally identical.
func Equal(a, b ScalarExpr) bool {
	return Compare(a, b) == 0
}

// CompareLists compares two expression lists lexicographically.
func CompareLists(a, b []ScalarExpr) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInts(len(a), len(b))
}

// ListsEqual returns true if the two lists have pairwise equal elements.
func ListsEqual(a, b []ScalarExpr) bool {
	return CompareLists(a, b) == 0
}

// SortAndDedup sorts exprs in place and removes duplicates, returning the
// shortened slice.
func SortAndDedup(exprs []ScalarExpr) []ScalarExpr {
	if len(exprs) < 2 {
		return exprs
	}
	sort.SliceStable(exprs, func(i, j int) bool {
		return Compare(exprs[i], exprs[j]) < 0
	})
	out := exprs[:1]
	for _, e := range exprs[1:] {
		if !Equal(out[len(out)-1], e) {
			out = append(out, e)
		}
	}
	return out
}

// SortAndDedupLists sorts a list of expression lists and removes duplicates.
func SortAndDedupLists(lists [][]ScalarExpr) [][]ScalarExpr {
	if len(lists) < 2 {
		return lists
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return CompareLists(lists[i], lists[j]) < 0
	})
	out := lists[:1]
	for _, l := range lists[1:] {
		if !ListsEqual(out[len(out)-1], l) {
			out = append(out, l)
		}
	}
	return out
}

// Contains returns true if exprs contains an expression equal to e.
func Contains(exprs []ScalarExpr, e ScalarExpr) bool {
	for _, x := range exprs {
		if Equal(x, e) {
			return true
		}
	}
	return false
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTypes(a, b types.T) int {
	return compareInts(int(a), int(b))
}
