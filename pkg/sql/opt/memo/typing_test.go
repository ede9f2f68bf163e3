// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	nullableGet := &GetExpr{
		ID: testGet(2, 0).ID,
		Typ: props.RelationType{ColumnTypes: []types.ColumnType{
			types.Nullable(types.Int), types.NotNull(types.String),
		}},
	}

	testCases := []struct {
		e        RelExpr
		expected string
	}{
		{e: testGet(1, 3, []int{1}), expected: "(int, int, int) key=[1]"},
		{e: &ProjectExpr{Input: testGet(1, 3, []int{1}), Outputs: []int{1, 0}}, expected: "(int, int) key=[0]"},
		{e: &ProjectExpr{Input: testGet(1, 3, []int{1}), Outputs: []int{0, 2}}, expected: "(int, int)"},
		{
			e:        &MapExpr{Input: nullableGet, Scalars: scalars("plus(#0, 1)", "isnull(#2)")},
			expected: "(int?, string, int?, bool)",
		},
		{
			e:        &FilterExpr{Input: nullableGet, Predicates: scalars("not(isnull(#0))")},
			expected: "(int, string)",
		},
		{
			e: &FilterExpr{
				Input:      nullableGet,
				Predicates: scalars("and(not(isnull(#0)), eq(#1, 'a'))"),
			},
			expected: "(int, string)",
		},
		{
			e: &ReduceExpr{
				Input:    nullableGet,
				GroupKey: scalars("#1"),
				Aggregates: []AggregateExpr{
					{Func: CountAgg, Expr: tree.MustParseScalar("#0")},
					{Func: SumAgg, Expr: tree.MustParseScalar("#0")},
				},
			},
			expected: "(string, int, int?) key=[0]",
		},
		{
			e: &ReduceExpr{
				Input:      testGet(1, 1),
				Aggregates: []AggregateExpr{{Func: MaxAgg, Expr: tree.MustParseScalar("#0")}},
			},
			expected: "(int?) key=[]",
		},
		{
			e:        &UnionExpr{Inputs: []RelExpr{testGet(1, 2, []int{0}), nullableGet}},
			expected: "",
		},
		{
			e:        &UnionExpr{Inputs: []RelExpr{testGet(1, 1, []int{0}), &NegateExpr{Input: testGet(3, 1, []int{0})}}},
			expected: "(int)",
		},
		{
			e:        &ThresholdExpr{Input: testGet(1, 1, []int{0})},
			expected: "(int) key=[0]",
		},
		{
			e: &LetExpr{
				ID:    0,
				Value: testGet(1, 1),
				Body:  &ArrangeByExpr{Input: testGet(2, 2, []int{0, 1}), Keys: [][]tree.ScalarExpr{scalars("#0")}},
			},
			expected: "(int, int) key=[0, 1]",
		},
	}
	for _, tc := range testCases {
		if tc.expected == "" {
			require.Panics(t, func() { Type(tc.e) })
			continue
		}
		typ := Type(tc.e)
		require.Equal(t, tc.expected, typ.String())
		require.Equal(t, typ.Arity(), Arity(tc.e))
	}
}
