// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

// Arity returns the number of columns produced by e.
func Arity(e RelExpr) int {
	switch t := e.(type) {
	case *ConstantExpr:
		return t.Typ.Arity()
	case *GetExpr:
		return t.Typ.Arity()
	case *LetExpr:
		return Arity(t.Body)
	case *LetRecExpr:
		return Arity(t.Body)
	case *ProjectExpr:
		return len(t.Outputs)
	case *MapExpr:
		return Arity(t.Input) + len(t.Scalars)
	case *JoinExpr:
		n := 0
		for _, in := range t.Inputs {
			n += Arity(in)
		}
		return n
	case *ReduceExpr:
		return len(t.GroupKey) + len(t.Aggregates)
	case *UnionExpr:
		return Arity(t.Inputs[0])
	case *FilterExpr, *ArrangeByExpr, *NegateExpr, *ThresholdExpr:
		return Arity(e.Child(0))
	}
	panic(errors.AssertionFailedf("unhandled operator %s", e.Op()))
}

// Type derives the column types and unique keys of e. It panics with an
// assertion failure if e is ill-typed.
func Type(e RelExpr) props.RelationType {
	switch t := e.(type) {
	case *ConstantExpr:
		return t.Typ.Copy()

	case *GetExpr:
		return t.Typ.Copy()

	case *LetExpr:
		return Type(t.Body)

	case *LetRecExpr:
		return Type(t.Body)

	case *ProjectExpr:
		in := Type(t.Input)
		res := props.RelationType{ColumnTypes: make([]types.ColumnType, len(t.Outputs))}
		pos := make(map[int]int, len(t.Outputs))
		for i, c := range t.Outputs {
			if c >= in.Arity() {
				panic(errors.AssertionFailedf("project column %d out of range for arity %d", c, in.Arity()))
			}
			res.ColumnTypes[i] = in.ColumnTypes[c]
			if _, ok := pos[c]; !ok {
				pos[c] = i
			}
		}
		for _, key := range in.Keys {
			mapped := make([]int, 0, len(key))
			for _, c := range key {
				if p, ok := pos[c]; ok {
					mapped = append(mapped, p)
				}
			}
			if len(mapped) == len(key) {
				res.AddKey(mapped)
			}
		}
		return res

	case *MapExpr:
		res := Type(t.Input)
		for _, s := range t.Scalars {
			res.ColumnTypes = append(res.ColumnTypes, tree.TypeOf(s, res.ColumnTypes))
		}
		return res

	case *FilterExpr:
		res := Type(t.Input)
		for _, p := range t.Predicates {
			for _, conj := range tree.Conjuncts(p) {
				if c, ok := tree.AsIsNotNullColumn(conj); ok && c < res.Arity() {
					res.ColumnTypes[c].Nullable = false
				}
			}
		}
		return res

	case *JoinExpr:
		var res props.RelationType
		localKeys := make([][][]int, len(t.Inputs))
		arities := make([]int, len(t.Inputs))
		for i, in := range t.Inputs {
			typ := Type(in)
			res.ColumnTypes = append(res.ColumnTypes, typ.ColumnTypes...)
			localKeys[i] = typ.Keys
			arities[i] = typ.Arity()
		}
		mapper := MakeJoinInputMapper(arities)
		for _, key := range mapper.GlobalKeys(localKeys, t.Equivalences) {
			res.AddKey(key)
		}
		return res

	case *ReduceExpr:
		in := Type(t.Input)
		var res props.RelationType
		for _, k := range t.GroupKey {
			res.ColumnTypes = append(res.ColumnTypes, tree.TypeOf(k, in.ColumnTypes))
		}
		for _, a := range t.Aggregates {
			argType := tree.TypeOf(a.Expr, in.ColumnTypes)
			switch a.Func {
			case CountAgg:
				res.ColumnTypes = append(res.ColumnTypes, types.NotNull(types.Int))
			default:
				// A global aggregation produces a row even without input.
				argType.Nullable = argType.Nullable || len(t.GroupKey) == 0
				res.ColumnTypes = append(res.ColumnTypes, argType)
			}
		}
		key := make([]int, len(t.GroupKey))
		for i := range key {
			key[i] = i
		}
		res.AddKey(key)
		return res

	case *ArrangeByExpr:
		return Type(t.Input)

	case *UnionExpr:
		res := Type(t.Inputs[0])
		res.Keys = nil
		for _, in := range t.Inputs[1:] {
			typ := Type(in)
			if typ.Arity() != res.Arity() {
				panic(errors.AssertionFailedf(
					"union inputs have different arities %d and %d", res.Arity(), typ.Arity(),
				))
			}
			for i := range res.ColumnTypes {
				u, err := res.ColumnTypes[i].Union(typ.ColumnTypes[i])
				if err != nil {
					panic(err)
				}
				res.ColumnTypes[i] = u
			}
		}
		return res

	case *NegateExpr:
		res := Type(t.Input)
		res.Keys = nil
		return res

	case *ThresholdExpr:
		return Type(t.Input)
	}
	panic(errors.AssertionFailedf("unhandled operator %s", e.Op()))
}
