// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import "github.com/streamdb/streamdb/pkg/sql/types"

// TypeOf returns the column type of e evaluated over an input with the given
// column types.
func TypeOf(e ScalarExpr, cols []types.ColumnType) types.ColumnType {
	switch t := e.(type) {
	case *Column:
		return cols[t.Idx]

	case *Literal:
		return types.ColumnType{Typ: t.Typ, Nullable: t.Datum == DNull}

	case *CallUnary:
		in := TypeOf(t.Expr, cols)
		switch t.Func {
		case IsNullFunc, IsTrue, IsFalse:
			return types.NotNull(types.Bool)
		case Not:
			return types.ColumnType{Typ: types.Bool, Nullable: in.Nullable}
		default:
			return in
		}

	case *CallBinary:
		l, r := TypeOf(t.Left, cols), TypeOf(t.Right, cols)
		nullable := l.Nullable || r.Nullable
		switch t.Func {
		case Plus, Minus, Mult:
			typ := l.Typ
			if typ == types.Unknown {
				typ = r.Typ
			}
			return types.ColumnType{Typ: typ, Nullable: nullable}
		default:
			return types.ColumnType{Typ: types.Bool, Nullable: nullable}
		}

	case *CallVariadic:
		switch t.Func {
		case Coalesce:
			res := types.ColumnType{Typ: types.Unknown, Nullable: true}
			for _, x := range t.Exprs {
				xt := TypeOf(x, cols)
				if res.Typ == types.Unknown {
					res.Typ = xt.Typ
				}
				if !xt.Nullable {
					res.Nullable = false
				}
			}
			return res
		default:
			nullable := false
			for _, x := range t.Exprs {
				nullable = nullable || TypeOf(x, cols).Nullable
			}
			return types.ColumnType{Typ: types.Bool, Nullable: nullable}
		}
	}
	return types.Nullable(types.Unknown)
}
