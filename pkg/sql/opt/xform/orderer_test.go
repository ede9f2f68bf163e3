// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"container/heap"
	"fmt"
	"sort"
	"testing"

	"github.com/kr/pretty"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func formatOrders(orders [][]memo.JoinStep) [][]string {
	res := make([][]string, len(orders))
	for i, order := range orders {
		for _, s := range order {
			res[i] = append(res[i], s.String())
		}
	}
	return res
}

func TestJoinOrders(t *testing.T) {
	defer log.Scope(t).Close(t)

	testCases := []struct {
		name     string
		indexes  testIndexes
		expected [][]string
	}{
		{
			name: "no indexes",
			expected: [][]string{
				{"0[#1]K", "1[#0]K", "2[#0]K"},
				{"1[#0]K", "0[#1]K", "2[#0]K"},
				{"2[#0]K", "1[#1]K", "0[#1]K"},
			},
		},
		{
			name:    "indexes on the second and third inputs",
			indexes: testIndexes{2: {{"#0"}}, 3: {{"#0"}}},
			expected: [][]string{
				{"0[#1]K", "1[#0]KA", "2[#0]KA"},
				{"1[#1]K", "2[#0]KA", "0[#1]K"},
				{"2[#0]KA", "1[#1]K", "0[#1]K"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders, err := JoinOrders(chainJoin(3), &TransformCtx{Indexes: tc.indexes})
			require.NoError(t, err)
			actual := formatOrders(orders)
			require.Equal(t, tc.expected, actual, "%s", pretty.Diff(tc.expected, actual))
		})
	}
}

// TestJoinOrdersArePermutations checks that order i starts with input i and
// contains every input exactly once.
func TestJoinOrdersArePermutations(t *testing.T) {
	defer log.Scope(t).Close(t)

	indexSets := []testIndexes{
		nil,
		{1: {{"#0"}, {"#1"}}},
		{2: {{"#0"}}, 4: {{"#1"}, {"#0"}}},
		{1: {{}}, 3: {{"#0", "#1"}}},
	}
	for n := 1; n <= 5; n++ {
		for i, indexes := range indexSets {
			t.Run(fmt.Sprintf("inputs=%d/indexes=%d", n, i), func(t *testing.T) {
				orders, err := JoinOrders(chainJoin(n), &TransformCtx{Indexes: indexes})
				require.NoError(t, err)
				require.Len(t, orders, n)
				for start, order := range orders {
					require.Equal(t, start, order[0].Input)
					var inputs []int
					for _, s := range order {
						inputs = append(inputs, s.Input)
					}
					sort.Ints(inputs)
					for k := range inputs {
						require.Equal(t, k, inputs[k], "order %d: %v", start, order)
					}
				}
			})
		}
	}
}

// TestJoinOrdersCrossJoin checks that inputs without equivalences are still
// ordered, as cross joins.
func TestJoinOrdersCrossJoin(t *testing.T) {
	defer log.Scope(t).Close(t)

	join := &memo.JoinExpr{Inputs: []memo.RelExpr{get(1, 1), get(2, 1, []int{})}}
	orders, err := JoinOrders(join, &TransformCtx{Indexes: testIndexes{2: {{}}}})
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"0[]", "1[]UA"},
		{"1[]UA", "0[]"},
	}, formatOrders(orders))
}

func TestJoinOrdersFeatures(t *testing.T) {
	defer log.Scope(t).Close(t)

	// The first input is large, the other two are small.
	tc := &TransformCtx{Stats: testStats{1: 1000, 2: 10, 3: 10}}

	orders, err := JoinOrders(chainJoin(3), tc)
	require.NoError(t, err)
	require.Equal(t, []string{"1[#0]K", "0[#1]K", "2[#0]K"}, formatOrders(orders)[1])

	// With estimates, the smaller input is joined first.
	tc.Features = opt.Features{CardinalityEstimates: true}
	orders, err = JoinOrders(chainJoin(3), tc)
	require.NoError(t, err)
	require.Equal(t, []string{"1[#1]K|10|", "2[#0]K|10|", "0[#1]K|1000|"}, formatOrders(orders)[1])

	// The first input is unique on its join column; the third input has an
	// index on its join column.
	join := chainJoin(3)
	join.Inputs[0] = get(1, 2, []int{1})
	tc = &TransformCtx{Indexes: testIndexes{3: {{"#0"}}}}
	orders, err = JoinOrders(join, tc)
	require.NoError(t, err)
	require.Equal(t, []string{"1[#0]K", "0[#1]UK", "2[#0]KA"}, formatOrders(orders)[1])

	tc.Features = opt.Features{JoinPrioritizeArranged: true}
	orders, err = JoinOrders(join, tc)
	require.NoError(t, err)
	require.Equal(t, []string{"1[#1]K", "2[#0]KA", "0[#1]UK"}, formatOrders(orders)[1])
}

func TestCandidateHeapUnknownCardinalityCycle(t *testing.T) {
	defer log.Scope(t).Close(t)

	// a outranks c by cardinality, c outranks b by filters, and b outranks a
	// by filters, since b's cardinality is unknown. With no consistent best
	// candidate the heap pops in an order fixed by the order of pushes.
	features := &opt.Features{JoinPrioritizeCardinality: true}
	small, large := uint64(10), uint64(100)
	a := memo.NewJoinInputCharacteristics(false, 1, false, &small, memo.FilterCharacteristics{}, 0, features)
	b := memo.NewJoinInputCharacteristics(false, 1, false, nil, memo.FilterCharacteristics{AnyFilter: true}, 1, features)
	c := memo.NewJoinInputCharacteristics(false, 1, false, &large, memo.FilterCharacteristics{LiteralEquality: true}, 2, features)

	var h candidateHeap
	for _, ch := range []memo.JoinInputCharacteristics{a, b, c} {
		heap.Push(&h, orderEntry{characteristics: ch, key: scalars("#0"), input: ch.Input})
	}
	var popped []int
	for h.Len() > 0 {
		popped = append(popped, heap.Pop(&h).(orderEntry).input)
	}
	require.Equal(t, []int{2, 1, 0}, popped)
}
