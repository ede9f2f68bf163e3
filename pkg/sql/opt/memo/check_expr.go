// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

//go:build race

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// CheckExpr does sanity checking on a relational expression. This code is
// called in race builds (which gives us test/CI coverage but elides this code
// in regular builds). It panics with an assertion failure on the first
// inconsistency found.
func CheckExpr(e RelExpr) {
	// Typing panics on ill-formed expressions.
	_ = Type(e)

	switch t := e.(type) {
	case *JoinExpr:
		checkJoin(t)

	case *ArrangeByExpr:
		arity := Arity(t.Input)
		for _, key := range t.Keys {
			for _, k := range key {
				checkSupport(k, arity, "arrangement key")
			}
		}

	case *MapExpr:
		arity := Arity(t.Input)
		for i, s := range t.Scalars {
			checkSupport(s, arity+i, "map expression")
		}

	case *FilterExpr:
		arity := Arity(t.Input)
		for _, p := range t.Predicates {
			checkSupport(p, arity, "filter predicate")
		}
		if len(t.Predicates) == 0 {
			panic(errors.AssertionFailedf("filter without predicates"))
		}

	case *LetRecExpr:
		if len(t.IDs) != len(t.Values) {
			panic(errors.AssertionFailedf(
				"let-rec has %d ids and %d values", len(t.IDs), len(t.Values),
			))
		}
	}

	for i, n := 0, e.ChildCount(); i < n; i++ {
		CheckExpr(e.Child(i))
	}
}

func checkJoin(j *JoinExpr) {
	mapper := MakeJoinInputMapperForInputs(j.Inputs)
	for _, class := range j.Equivalences {
		for _, e := range class {
			checkSupport(e, mapper.TotalColumns(), "equivalence")
		}
	}
	n := len(j.Inputs)
	checkOrder := func(start int, order []JoinStep) {
		seen := make([]bool, n)
		seen[start] = true
		for _, step := range order {
			if step.Input < 0 || step.Input >= n || seen[step.Input] {
				panic(errors.AssertionFailedf("invalid join order %s", j.Implementation.String()))
			}
			seen[step.Input] = true
		}
		if len(order) != n-1 {
			panic(errors.AssertionFailedf("incomplete join order %s", j.Implementation.String()))
		}
	}
	switch j.Implementation.Kind {
	case Differential:
		checkOrder(j.Implementation.Start.Input, j.Implementation.Order)
	case DeltaQuery:
		if len(j.Implementation.Orders) != n {
			panic(errors.AssertionFailedf(
				"delta join with %d inputs has %d orders", n, len(j.Implementation.Orders),
			))
		}
		for i, order := range j.Implementation.Orders {
			checkOrder(i, order)
		}
	}
}

func checkSupport(e tree.ScalarExpr, arity int, what string) {
	if s := tree.Support(e); !s.Empty() {
		ordered := s.Ordered()
		if last := ordered[len(ordered)-1]; last >= arity {
			panic(errors.AssertionFailedf(
				"%s %s refers to column %d of a relation of arity %d", what, e, last, arity,
			))
		}
	}
}
