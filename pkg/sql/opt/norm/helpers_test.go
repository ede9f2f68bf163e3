// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

func relType(cols []types.ColumnType, keys ...[]int) props.RelationType {
	typ := props.RelationType{ColumnTypes: cols}
	for _, k := range keys {
		typ.AddKey(k)
	}
	return typ
}

func ints(n int) []types.ColumnType {
	res := make([]types.ColumnType, n)
	for i := range res {
		res[i] = types.NotNull(types.Int)
	}
	return res
}

func global(id opt.GlobalID, typ props.RelationType) *memo.GetExpr {
	return &memo.GetExpr{ID: opt.MakeGlobalID(id), Typ: typ}
}

func local(id opt.LocalID, typ props.RelationType) *memo.GetExpr {
	return &memo.GetExpr{ID: opt.MakeLocalID(id), Typ: typ}
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

func format(e memo.RelExpr) string {
	return memo.FormatExpr(e, memo.ExprFmtHideAll)
}
