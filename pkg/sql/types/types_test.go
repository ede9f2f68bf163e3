// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnTypeUnion(t *testing.T) {
	c, err := NotNull(Int).Union(Nullable(Int))
	require.NoError(t, err)
	require.Equal(t, Nullable(Int), c)

	c, err = Nullable(Unknown).Union(NotNull(String))
	require.NoError(t, err)
	require.Equal(t, Nullable(String), c)

	_, err = NotNull(Int).Union(NotNull(String))
	require.Error(t, err)
}

func TestParseColumnType(t *testing.T) {
	for _, s := range []string{"int", "int?", "string", "bool?", "float", "unknown?"} {
		c, err := ParseColumnType(s)
		require.NoError(t, err)
		require.Equal(t, s, c.String())
	}
	_, err := ParseColumnType("blob")
	require.Error(t, err)
}
