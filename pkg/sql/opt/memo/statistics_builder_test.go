// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

func TestEstimateCardinality(t *testing.T) {
	stats := testStats{1: 1000, 2: 50}
	testCases := []struct {
		e     RelExpr
		card  uint64
		known bool
	}{
		{e: testGet(1, 2), card: 1000, known: true},
		{e: testGet(3, 2)},
		{e: &GetExpr{ID: opt.MakeLocalID(1)}},
		{e: &FilterExpr{Input: testGet(1, 2), Predicates: scalars("eq(#0, 5)")}, card: 100, known: true},
		{e: &FilterExpr{Input: testGet(1, 2), Predicates: scalars("lt(#0, 5)")}, card: 330, known: true},
		{e: &ProjectExpr{Input: testGet(2, 2), Outputs: []int{1}}, card: 50, known: true},
		{e: &UnionExpr{Inputs: []RelExpr{testGet(1, 1), testGet(2, 1)}}, card: 1050, known: true},
		{e: &UnionExpr{Inputs: []RelExpr{testGet(1, 1), testGet(3, 1)}}},
		{e: &ConstantExpr{Rows: [][]tree.Datum{{tree.DInt(1)}, {tree.DInt(2)}}}, card: 2, known: true},
		{e: &JoinExpr{Inputs: []RelExpr{testGet(1, 1), testGet(2, 1)}}},
	}
	for _, tc := range testCases {
		card, ok := EstimateCardinality(tc.e, stats)
		require.Equal(t, tc.known, ok, FormatExpr(tc.e, ExprFmtHideAll))
		require.Equal(t, tc.card, card, FormatExpr(tc.e, ExprFmtHideAll))
	}
}
