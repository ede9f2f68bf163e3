// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/optbuilder"
)

// BuildQuery builds the expression described by input, failing the test on
// error.
func BuildQuery(t testing.TB, catalog cat.Catalog, input string) memo.RelExpr {
	t.Helper()
	e, err := optbuilder.Build(catalog, input)
	if err != nil {
		t.Fatalf("%s: %v", input, err)
	}
	return e
}

// FindJoin returns the first join of e in pre-order, or nil if there is none.
func FindJoin(e memo.RelExpr) *memo.JoinExpr {
	if j, ok := e.(*memo.JoinExpr); ok {
		return j
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if j := FindJoin(e.Child(i)); j != nil {
			return j
		}
	}
	return nil
}
