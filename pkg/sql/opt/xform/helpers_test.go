// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

// testIndexes maps collections to the keys of their indexes.
type testIndexes map[opt.GlobalID][][]string

func (t testIndexes) IndexesOn(id opt.GlobalID) []cat.Index {
	var res []cat.Index
	for i, key := range t[id] {
		res = append(res, cat.Index{ID: cat.IndexID(i + 1), Key: scalars(key...)})
	}
	return res
}

type testStats map[opt.GlobalID]uint64

func (s testStats) CardinalityOf(id opt.GlobalID) (uint64, bool) {
	c, ok := s[id]
	return c, ok
}

// get returns a Get of a global collection of non-null ints.
func get(id opt.GlobalID, arity int, keys ...[]int) *memo.GetExpr {
	typ := props.RelationType{ColumnTypes: make([]types.ColumnType, arity)}
	for i := range typ.ColumnTypes {
		typ.ColumnTypes[i] = types.NotNull(types.Int)
	}
	for _, k := range keys {
		typ.AddKey(k)
	}
	return &memo.GetExpr{ID: opt.MakeGlobalID(id), Typ: typ}
}

func scalars(s ...string) []tree.ScalarExpr {
	res := make([]tree.ScalarExpr, len(s))
	for i := range s {
		res[i] = tree.MustParseScalar(s[i])
	}
	return res
}

func classes(c ...[]string) [][]tree.ScalarExpr {
	res := make([][]tree.ScalarExpr, len(c))
	for i := range c {
		res[i] = scalars(c[i]...)
	}
	return res
}

// chainJoin returns the join of the given two-column collections u1, u2, ...
// where the second column of each equals the first column of the next.
func chainJoin(n int) *memo.JoinExpr {
	join := &memo.JoinExpr{}
	for i := 0; i < n; i++ {
		join.Inputs = append(join.Inputs, get(opt.GlobalID(i+1), 2))
	}
	for i := 0; i+1 < n; i++ {
		join.Equivalences = append(join.Equivalences, []tree.ScalarExpr{
			tree.NewColumn(2*i + 1), tree.NewColumn(2*i + 2),
		})
	}
	return join
}

// findJoin returns the first join in e, in pre-order.
func findJoin(e memo.RelExpr) *memo.JoinExpr {
	if j, ok := e.(*memo.JoinExpr); ok {
		return j
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if j := findJoin(e.Child(i)); j != nil {
			return j
		}
	}
	return nil
}

func format(e memo.RelExpr) string {
	return memo.FormatExpr(e, memo.ExprFmtHideAll)
}

func formatWithCharacteristics(e memo.RelExpr) string {
	return memo.FormatExpr(e, memo.ExprFmtHideTypes)
}
