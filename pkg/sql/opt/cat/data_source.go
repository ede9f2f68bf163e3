// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cat contains the interfaces through which the join planner consults
// the catalog: which arrangements exist for a collection, and how large the
// collection is estimated to be. Both are read-only.
package cat

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// IndexID identifies an index (an arrangement maintained by the catalog).
type IndexID uint64

// Index is an arrangement of a global collection. Key expressions refer to
// the columns of the collection.
type Index struct {
	ID  IndexID
	Key []tree.ScalarExpr
}

// IndexOracle reports the indexes available on global collections.
type IndexOracle interface {
	// IndexesOn returns the indexes of the collection, in a deterministic
	// order. It returns nil for unknown collections.
	IndexesOn(id opt.GlobalID) []Index
}

// StatisticsOracle reports cardinality estimates for global collections.
type StatisticsOracle interface {
	// CardinalityOf returns the estimated number of rows of the collection.
	// The second result is false if no estimate is available.
	CardinalityOf(id opt.GlobalID) (uint64, bool)
}

// EmptyIndexOracle reports no indexes.
type EmptyIndexOracle struct{}

var _ IndexOracle = EmptyIndexOracle{}

// IndexesOn is part of the IndexOracle interface.
func (EmptyIndexOracle) IndexesOn(opt.GlobalID) []Index { return nil }

// EmptyStatisticsOracle has no estimates.
type EmptyStatisticsOracle struct{}

var _ StatisticsOracle = EmptyStatisticsOracle{}

// CardinalityOf is part of the StatisticsOracle interface.
func (EmptyStatisticsOracle) CardinalityOf(opt.GlobalID) (uint64, bool) { return 0, false }
