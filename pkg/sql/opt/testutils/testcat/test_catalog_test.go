// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testcat

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestExecuteDDL(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := New()
	out, err := tc.ExecuteDDL(`
- id: u1
  name: orders
  columns: [int, "int?"]
  keys: [[0]]
  indexes: ["[#0]", "[#1, #0]"]
  cardinality: 1000
- id: u2
  columns: [string]
`)
	require.NoError(t, err)
	require.Equal(t, `u1 orders (int, int?) key=[0]
 ├── index 1: [#0]
 ├── index 2: [#1, #0]
 └── cardinality: 1000
u2 (string)
 └── cardinality: unknown
`, out)

	id, err := tc.Resolve("orders")
	require.NoError(t, err)
	require.Equal(t, opt.GlobalID(1), id)
	id, err = tc.Resolve("u2")
	require.NoError(t, err)
	require.Equal(t, opt.GlobalID(2), id)

	indexes := tc.IndexesOn(1)
	require.Len(t, indexes, 2)
	require.Equal(t, "#1", indexes[1].Key[0].String())
	require.Empty(t, tc.IndexesOn(2))
	require.Empty(t, tc.IndexesOn(3))

	c, ok := tc.CardinalityOf(1)
	require.True(t, ok)
	require.Equal(t, uint64(1000), c)
	_, ok = tc.CardinalityOf(2)
	require.False(t, ok)
}

func TestExecuteDDLNullableColumns(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := New()
	out, err := tc.ExecuteDDL(`
- id: u1
  columns: ["int?", string]
- id: u2
  columns:
    - int
    - bool?
`)
	require.NoError(t, err)
	require.Equal(t, `u1 (int?, string)
 └── cardinality: unknown
u2 (int, bool?)
 └── cardinality: unknown
`, out)

	_, typ, err := tc.ResolveCollection("u2")
	require.NoError(t, err)
	require.Equal(t, "(int, bool?)", typ.String())
}

func TestExecuteDDLErrors(t *testing.T) {
	defer log.Scope(t).Close(t)

	testCases := []struct {
		ddl string
		err string
	}{
		{ddl: "- id: l1\n  columns: [int]", err: "collection id l1 is not global"},
		{ddl: "- id: u1\n  columns: [integer]", err: `unknown type "integer"`},
		{ddl: "- id: u1\n  columns: [int]\n  keys: [[1]]", err: "beyond arity 1"},
		{ddl: "- id: u1\n  columns: [int]\n  indexes: [\"[#2]\"]", err: "beyond arity 1"},
		{ddl: "- id: u1\n  columns: [int]\n- id: u1\n  columns: [int]", err: "u1 already exists"},
		{ddl: "- id: u1\n  colums: [int]", err: "parsing collection definitions"},
	}
	for _, tc := range testCases {
		t.Run(tc.err, func(t *testing.T) {
			_, err := New().ExecuteDDL(tc.ddl)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	defer log.Scope(t).Close(t)

	tc := New()
	_, err := tc.Resolve("u1")
	require.EqualError(t, err, "unknown collection u1")
	_, err = tc.Resolve("l1")
	require.EqualError(t, err, "l1 is not a global collection")
	_, err = tc.Resolve("orders")
	require.EqualError(t, err, `unknown collection "orders"`)
}
