// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/stretchr/testify/require"
)

func TestFilterCharacteristicsOf(t *testing.T) {
	testCases := []struct {
		preds   []string
		explain string
		factor  float64
	}{
		{preds: nil, explain: "", factor: 1},
		{preds: []string{"eq(#0, 5)"}, explain: "ef", factor: 0.1},
		{preds: []string{"eq(#0, #1)"}, explain: "f", factor: 0.9},
		{preds: []string{"not(isnull(#0))"}, explain: "", factor: 1},
		{preds: []string{"isnull(#0)"}, explain: "nf", factor: 0.1},
		{preds: []string{"not(eq(#0, 5))"}, explain: "f", factor: 0.9},
		{preds: []string{"like(#1, 'a%')"}, explain: "lf", factor: 0.9},
		{preds: []string{"lt(#0, 5)"}, explain: "if", factor: 0.33},
		{preds: []string{"lt(#0, 5)", "gt(#0, 1)"}, explain: "iif", factor: 0.25},
		{preds: []string{"and(lt(#0, 5), gt(#0, 1))"}, explain: "if", factor: 0.33},
	}
	for _, tc := range testCases {
		f := FilterCharacteristicsOf(scalars(tc.preds...))
		require.Equal(t, tc.explain, f.Explain(), "%v", tc.preds)
		require.InDelta(t, tc.factor, f.WorstCaseScalingFactor(), 1e-9, "%v", tc.preds)
	}
}

func TestFilterCharacteristicsCompare(t *testing.T) {
	eq := FilterCharacteristics{LiteralEquality: true}
	like := FilterCharacteristics{Like: true}
	ineq := FilterCharacteristics{LiteralInequality: 2}
	require.Equal(t, 1, eq.Compare(like))
	require.Equal(t, -1, ineq.Compare(like))
	require.Equal(t, 0, eq.Compare(eq))

	or := like.Or(ineq).Or(FilterCharacteristics{LiteralInequality: 1})
	require.Equal(t, "liii", or.Explain())
	require.False(t, or.IsEmpty())
	require.True(t, FilterCharacteristics{}.IsEmpty())
}

func TestJoinInputCharacteristicsCompare(t *testing.T) {
	card := func(c uint64) *uint64 { return &c }
	var features opt.Features
	mk := func(unique bool, keyLen int, arranged bool, c *uint64, f FilterCharacteristics, input int) JoinInputCharacteristics {
		return NewJoinInputCharacteristics(unique, keyLen, arranged, c, f, input, &features)
	}
	better := func(a, b JoinInputCharacteristics) {
		t.Helper()
		require.Equal(t, 1, a.Compare(&b), "%s vs %s", a.Explain(), b.Explain())
		require.Equal(t, -1, b.Compare(&a), "%s vs %s", b.Explain(), a.Explain())
	}
	none := FilterCharacteristics{}
	eq := FilterCharacteristics{LiteralEquality: true}

	// Unique beats a longer key, which beats arranged.
	better(mk(true, 1, false, nil, none, 3), mk(false, 2, true, nil, none, 0))
	better(mk(false, 2, false, nil, none, 3), mk(false, 1, true, nil, none, 0))
	better(mk(false, 1, true, nil, none, 3), mk(false, 1, false, nil, none, 0))

	// Filters come before cardinality unless cardinality is prioritized.
	better(mk(false, 1, false, card(1000), eq, 3), mk(false, 1, false, card(10), none, 0))
	// Unknown cardinality is neutral.
	better(mk(false, 1, false, nil, none, 0), mk(false, 1, false, card(10), none, 3))
	better(mk(false, 1, false, card(10), none, 3), mk(false, 1, false, card(1000), none, 0))
	// Smaller inputs win ties.
	better(mk(false, 0, false, nil, none, 0), mk(false, 0, false, nil, none, 1))

	features = opt.Features{JoinPrioritizeArranged: true, JoinPrioritizeCardinality: true}
	better(mk(false, 1, true, nil, none, 3), mk(true, 2, false, nil, none, 0))
	better(mk(false, 1, false, card(10), none, 3), mk(false, 1, false, card(1000), eq, 0))

	c := mk(true, 2, true, card(100), eq, 0)
	require.Equal(t, "UKKA|100|e", c.Explain())
}

// mixedCardinalities returns characteristics where a outranks c by
// cardinality, c outranks b by filters, and b outranks a by filters.
func mixedCardinalities() (a, b, c JoinInputCharacteristics) {
	features := &opt.Features{JoinPrioritizeCardinality: true}
	small, large := uint64(10), uint64(100)
	a = NewJoinInputCharacteristics(false, 1, false, &small, FilterCharacteristics{}, 0, features)
	b = NewJoinInputCharacteristics(false, 1, false, nil, FilterCharacteristics{AnyFilter: true}, 1, features)
	c = NewJoinInputCharacteristics(false, 1, false, &large, FilterCharacteristics{LiteralEquality: true}, 2, features)
	return a, b, c
}

func TestJoinInputCharacteristicsUnknownCardinalityCycle(t *testing.T) {
	a, b, c := mixedCardinalities()
	require.Equal(t, 1, a.Compare(&c))
	require.Equal(t, 1, c.Compare(&b))
	require.Equal(t, 1, b.Compare(&a))
}
