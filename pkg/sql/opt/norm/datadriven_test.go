// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm_test

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils/testcat"
	"github.com/streamdb/streamdb/pkg/util/log"
)

// TestNormRules runs the data-driven tests in testdata. Each file starts with an
// empty catalog.
func TestNormRules(t *testing.T) {
	defer log.Scope(t).Close(t)

	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		catalog := testcat.New()
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			tester := testutils.NewOptTester(catalog, d.Input)
			return tester.RunCommand(t, d)
		})
	})
}
