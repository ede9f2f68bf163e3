// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/buildutil"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func implementJoins(t *testing.T, e *memo.RelExpr, tc *TransformCtx) {
	t.Helper()
	var j JoinImplementation
	require.NoError(t, j.Transform(context.Background(), e, tc))
}

func TestJoinImplementationEagerDelta(t *testing.T) {
	defer log.Scope(t).Close(t)

	// Indexes exist on the join columns of the second and third inputs.
	tc := &TransformCtx{
		Indexes:  testIndexes{2: {{"#0"}}, 3: {{"#0"}}},
		Features: opt.Features{EagerDeltaJoins: true},
	}
	var e memo.RelExpr = chainJoin(3)
	implementJoins(t, &e, tc)

	expected := `join
 ├── equivalences: [[#1, #2], [#3, #4]]
 ├── implementation: delta %0 » 1[#0] » 2[#0] %1 » 2[#0] » 0[#1] %2 » 1[#1] » 0[#1]
 ├── arrange-by keys=[[#1]]
 │    └── get u1
 ├── arrange-by keys=[[#0], [#1]]
 │    └── get u2
 └── arrange-by keys=[[#0]]
      └── get u3
`
	require.Equal(t, expected, format(e))

	// Delta queries are final.
	implementJoins(t, &e, tc)
	require.Equal(t, expected, format(e))
}

func TestJoinImplementationDifferential(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := &TransformCtx{Indexes: testIndexes{2: {{"#0"}}, 3: {{"#0"}}}}
	var e memo.RelExpr = chainJoin(3)
	implementJoins(t, &e, tc)

	expected := `join
 ├── equivalences: [[#1, #2], [#3, #4]]
 ├── implementation: differential 0[#1] » 1[#0] » 2[#0]
 ├── arrange-by keys=[[#1]]
 │    └── get u1
 ├── arrange-by keys=[[#0]]
 │    └── get u2
 └── arrange-by keys=[[#0]]
      └── get u3
`
	require.Equal(t, expected, format(e))

	// A delta query would still need an arrangement of the second input by
	// its second column, so the differential join is kept.
	implementJoins(t, &e, tc)
	require.Equal(t, expected, format(e))
}

func TestJoinImplementationDifferentialToDelta(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := &TransformCtx{Indexes: testIndexes{
		1: {{"#1"}},
		2: {{"#0"}, {"#1"}},
		3: {{"#0"}},
	}}
	var e memo.RelExpr = chainJoin(3)

	// The first plan is differential even though every arrangement exists.
	implementJoins(t, &e, tc)
	require.Equal(t, memo.Differential, findJoin(e).Implementation.Kind)

	implementJoins(t, &e, tc)
	require.Equal(t, memo.DeltaQuery, findJoin(e).Implementation.Kind)
	for _, order := range findJoin(e).Implementation.Orders {
		for _, step := range order {
			require.True(t, step.Characteristics.Arranged, "%s", step)
		}
	}

	before := format(e)
	implementJoins(t, &e, tc)
	require.Equal(t, before, format(e))
}

func TestJoinImplementationBinaryJoinsAreDifferential(t *testing.T) {
	defer log.Scope(t).Close(t)

	for _, eager := range []bool{false, true} {
		tc := &TransformCtx{
			Indexes:  testIndexes{1: {{"#1"}}, 2: {{"#0"}}},
			Features: opt.Features{EagerDeltaJoins: eager},
		}
		var e memo.RelExpr = chainJoin(2)
		for i := 0; i < 3; i++ {
			implementJoins(t, &e, tc)
			require.Equal(t, memo.Differential, findJoin(e).Implementation.Kind)
		}
	}
}

func TestJoinImplementationLeavesPlannedJoins(t *testing.T) {
	defer log.Scope(t).Close(t)

	// An eagerly planned differential join is not revisited.
	join := chainJoin(3)
	join.Implementation = memo.JoinImplementation{
		Kind:  memo.Differential,
		Start: memo.JoinStep{Input: 0, Key: scalars("#1")},
		Order: []memo.JoinStep{{Input: 1, Key: scalars("#0")}, {Input: 2, Key: scalars("#0")}},
	}
	var e memo.RelExpr = join
	before := format(e)
	implementJoins(t, &e, &TransformCtx{Features: opt.Features{EagerDeltaJoins: true}})
	require.Equal(t, before, format(e))

	// Indexed filters are planned elsewhere.
	join = chainJoin(2)
	join.Implementation = memo.JoinImplementation{
		Kind:       memo.IndexedFilter,
		Collection: 1,
		Key:        scalars("#0"),
		Values:     [][]tree.Datum{{tree.DInt(5)}},
	}
	e = join
	before = format(e)
	implementJoins(t, &e, &TransformCtx{})
	require.Equal(t, before, format(e))
}

func TestJoinImplementationReplansInconsistentDifferential(t *testing.T) {
	defer log.Scope(t).Close(t)
	if buildutil.Invariants {
		t.Skip("soft assertions panic in invariants builds")
	}

	join := chainJoin(3)
	join.Implementation = memo.JoinImplementation{
		Kind:  memo.Differential,
		Start: memo.JoinStep{Input: 0, Key: scalars("#1")},
		Order: []memo.JoinStep{{Input: 1, Key: scalars("#0")}},
	}
	var e memo.RelExpr = join
	implementJoins(t, &e, &TransformCtx{})
	impl := findJoin(e).Implementation
	require.Equal(t, memo.Differential, impl.Kind)
	require.Len(t, impl.Order, 2)
}

func TestJoinImplementationLetArrangements(t *testing.T) {
	defer log.Scope(t).Close(t)

	arranged := &memo.ArrangeByExpr{Input: get(1, 2), Keys: [][]tree.ScalarExpr{scalars("#0")}}
	var e memo.RelExpr = &memo.LetExpr{
		ID:    0,
		Value: arranged,
		Body: &memo.JoinExpr{
			Inputs: []memo.RelExpr{
				&memo.GetExpr{ID: opt.MakeLocalID(0), Typ: memo.Type(arranged)},
				get(2, 2),
			},
			Equivalences: classes([]string{"#0", "#2"}),
		},
	}
	implementJoins(t, &e, &TransformCtx{})

	expected := `let l0
 ├── arrange-by keys=[[#0]]
 │    └── get u1
 └── join
      ├── equivalences: [[#0, #2]]
      ├── implementation: differential 0[#0]KA » 1[#0]K
      ├── arrange-by keys=[[#0]]
      │    └── get l0
      └── arrange-by keys=[[#0]]
           └── get u2
`
	require.Equal(t, expected, formatWithCharacteristics(e))
}

func TestJoinImplementationLiftsFilters(t *testing.T) {
	defer log.Scope(t).Close(t)

	var e memo.RelExpr = &memo.JoinExpr{
		Inputs: []memo.RelExpr{
			&memo.FilterExpr{Input: get(1, 2), Predicates: scalars("eq(#1, 5)")},
			get(2, 2),
		},
		Equivalences: classes([]string{"#0", "#2"}),
	}
	implementJoins(t, &e, &TransformCtx{Indexes: testIndexes{1: {{"#0"}}}})

	// The index on the first input is used directly; its filter is applied
	// after the join.
	expected := `filter [eq(#1, 5)]
 └── join
      ├── equivalences: [[#0, #2]]
      ├── implementation: differential 0[#0]KAef » 1[#0]Kef
      ├── arrange-by keys=[[#0]]
      │    └── get u1
      └── arrange-by keys=[[#0]]
           └── get u2
`
	require.Equal(t, expected, formatWithCharacteristics(e))
}

func TestJoinImplementationCardinality(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := &TransformCtx{Stats: testStats{1: 1000, 2: 10}}
	var e memo.RelExpr = chainJoin(2)
	implementJoins(t, &e, tc)
	require.Equal(t, "differential 0[#1]K » 1[#0]K", findJoin(e).Implementation.String())

	// With estimates the smaller input starts.
	tc.Features.CardinalityEstimates = true
	e = chainJoin(2)
	implementJoins(t, &e, tc)
	require.Equal(t, "differential 1[#0]K|10| » 0[#1]K|1000|", findJoin(e).Implementation.String())
}

func TestJoinImplementationRecursionLimit(t *testing.T) {
	defer log.Scope(t).Close(t)

	var e memo.RelExpr = get(1, 1)
	for i := 0; i < 10; i++ {
		e = &memo.NegateExpr{Input: e}
	}
	j := JoinImplementation{guard: opt.MakeRecursionGuard(5)}
	err := j.Transform(context.Background(), &e, &TransformCtx{})
	require.True(t, errors.Is(err, opt.ErrRecursionLimitExceeded), "%v", err)
}
