// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

// testGet returns a Get of a global collection with arity non-null int
// columns and the given unique keys.
func testGet(id opt.GlobalID, arity int, keys ...[]int) *GetExpr {
	typ := props.RelationType{ColumnTypes: make([]types.ColumnType, arity)}
	for i := range typ.ColumnTypes {
		typ.ColumnTypes[i] = types.NotNull(types.Int)
	}
	for _, k := range keys {
		typ.AddKey(k)
	}
	return &GetExpr{ID: opt.MakeGlobalID(id), Typ: typ}
}

func scalars(s ...string) []tree.ScalarExpr {
	res := make([]tree.ScalarExpr, len(s))
	for i := range s {
		res[i] = tree.MustParseScalar(s[i])
	}
	return res
}

type testStats map[opt.GlobalID]uint64

func (s testStats) CardinalityOf(id opt.GlobalID) (uint64, bool) {
	c, ok := s[id]
	return c, ok
}
