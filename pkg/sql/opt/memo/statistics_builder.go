// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"math"

	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
)

// EstimateCardinality returns an estimate of the number of rows produced by
// e, if one can be derived from the statistics oracle. The estimates are
// worst-case: filters only scale by the factor of their characteristics, and
// operators that cannot increase the row count pass the estimate of their
// input through.
func EstimateCardinality(e RelExpr, stats cat.StatisticsOracle) (uint64, bool) {
	switch t := e.(type) {
	case *ConstantExpr:
		return uint64(len(t.Rows)), true

	case *GetExpr:
		id, ok := t.ID.Global()
		if !ok {
			return 0, false
		}
		return stats.CardinalityOf(id)

	case *LetExpr:
		return EstimateCardinality(t.Body, stats)

	case *LetRecExpr:
		return EstimateCardinality(t.Body, stats)

	case *FilterExpr:
		card, ok := EstimateCardinality(t.Input, stats)
		if !ok {
			return 0, false
		}
		factor := FilterCharacteristicsOf(t.Predicates).WorstCaseScalingFactor()
		return uint64(math.Round(float64(card) * factor)), true

	case *UnionExpr:
		var sum uint64
		for _, in := range t.Inputs {
			card, ok := EstimateCardinality(in, stats)
			if !ok {
				return 0, false
			}
			sum += card
		}
		return sum, true

	case *ProjectExpr, *MapExpr, *ReduceExpr, *ArrangeByExpr, *NegateExpr, *ThresholdExpr:
		return EstimateCardinality(e.Child(0), stats)
	}
	return 0, false
}
