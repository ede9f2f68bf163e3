// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// BuildProject returns input projected onto cols. Identity projections are
// omitted and nested projections are merged.
func BuildProject(input RelExpr, cols []int) RelExpr {
	if isIdentityProjection(cols, Arity(input)) {
		return input
	}
	if p, ok := input.(*ProjectExpr); ok {
		merged := make([]int, len(cols))
		for i, c := range cols {
			merged[i] = p.Outputs[c]
		}
		return BuildProject(p.Input, merged)
	}
	return &ProjectExpr{Input: input, Outputs: append([]int(nil), cols...)}
}

// BuildMap returns input with the scalars appended. An empty map is omitted
// and nested maps are merged.
func BuildMap(input RelExpr, scalars []tree.ScalarExpr) RelExpr {
	if len(scalars) == 0 {
		return input
	}
	if m, ok := input.(*MapExpr); ok {
		return &MapExpr{
			Input:   m.Input,
			Scalars: append(append([]tree.ScalarExpr(nil), m.Scalars...), scalars...),
		}
	}
	return &MapExpr{Input: input, Scalars: append([]tree.ScalarExpr(nil), scalars...)}
}

// BuildFilter returns input filtered by the predicates. Predicates that are
// literally true are dropped, the rest are merged with an existing filter,
// sorted and deduplicated. An empty filter is omitted.
func BuildFilter(input RelExpr, predicates []tree.ScalarExpr) RelExpr {
	var preds []tree.ScalarExpr
	if f, ok := input.(*FilterExpr); ok {
		input = f.Input
		preds = append(preds, f.Predicates...)
	}
	for _, p := range predicates {
		if !tree.IsLiteralTrue(p) {
			preds = append(preds, p)
		}
	}
	if len(preds) == 0 {
		return input
	}
	return &FilterExpr{Input: input, Predicates: tree.SortAndDedup(preds)}
}

// BuildArrangeBy returns input arranged by the given keys, merged with the
// keys of an existing ArrangeBy. Keys are sorted and deduplicated.
func BuildArrangeBy(input RelExpr, keys [][]tree.ScalarExpr) RelExpr {
	var all [][]tree.ScalarExpr
	if a, ok := input.(*ArrangeByExpr); ok {
		input = a.Input
		all = append(all, a.Keys...)
	}
	for _, k := range keys {
		all = append(all, append([]tree.ScalarExpr(nil), k...))
	}
	if len(all) == 0 {
		return input
	}
	return &ArrangeByExpr{Input: input, Keys: tree.SortAndDedupLists(all)}
}

func isIdentityProjection(cols []int, arity int) bool {
	if len(cols) != arity {
		return false
	}
	for i, c := range cols {
		if c != i {
			return false
		}
	}
	return true
}

// CopyExpr returns a deep copy of e. Scalar expressions are immutable and are
// shared; every slice that the planner may modify in place is copied.
func CopyExpr(e RelExpr) RelExpr {
	switch t := e.(type) {
	case *ConstantExpr:
		res := &ConstantExpr{Typ: t.Typ.Copy()}
		for _, row := range t.Rows {
			res.Rows = append(res.Rows, append([]tree.Datum(nil), row...))
		}
		return res
	case *GetExpr:
		return &GetExpr{ID: t.ID, Typ: t.Typ.Copy()}
	case *LetExpr:
		return &LetExpr{ID: t.ID, Value: CopyExpr(t.Value), Body: CopyExpr(t.Body)}
	case *LetRecExpr:
		res := &LetRecExpr{Body: CopyExpr(t.Body)}
		res.IDs = append(res.IDs, t.IDs...)
		for _, v := range t.Values {
			res.Values = append(res.Values, CopyExpr(v))
		}
		return res
	case *ProjectExpr:
		return &ProjectExpr{Input: CopyExpr(t.Input), Outputs: append([]int(nil), t.Outputs...)}
	case *MapExpr:
		return &MapExpr{Input: CopyExpr(t.Input), Scalars: append([]tree.ScalarExpr(nil), t.Scalars...)}
	case *FilterExpr:
		return &FilterExpr{
			Input:      CopyExpr(t.Input),
			Predicates: append([]tree.ScalarExpr(nil), t.Predicates...),
		}
	case *JoinExpr:
		res := &JoinExpr{Implementation: t.Implementation.Copy()}
		for _, in := range t.Inputs {
			res.Inputs = append(res.Inputs, CopyExpr(in))
		}
		for _, class := range t.Equivalences {
			res.Equivalences = append(res.Equivalences, append([]tree.ScalarExpr(nil), class...))
		}
		return res
	case *ReduceExpr:
		return &ReduceExpr{
			Input:      CopyExpr(t.Input),
			GroupKey:   append([]tree.ScalarExpr(nil), t.GroupKey...),
			Aggregates: append([]AggregateExpr(nil), t.Aggregates...),
		}
	case *ArrangeByExpr:
		res := &ArrangeByExpr{Input: CopyExpr(t.Input)}
		for _, k := range t.Keys {
			res.Keys = append(res.Keys, append([]tree.ScalarExpr(nil), k...))
		}
		return res
	case *UnionExpr:
		res := &UnionExpr{}
		for _, in := range t.Inputs {
			res.Inputs = append(res.Inputs, CopyExpr(in))
		}
		return res
	case *NegateExpr:
		return &NegateExpr{Input: CopyExpr(t.Input)}
	case *ThresholdExpr:
		return &ThresholdExpr{Input: CopyExpr(t.Input)}
	}
	return e
}
