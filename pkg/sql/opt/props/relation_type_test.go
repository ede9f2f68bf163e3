// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestRelationType(t *testing.T) {
	r := RelationType{ColumnTypes: []types.ColumnType{
		types.NotNull(types.Int), types.Nullable(types.String), types.NotNull(types.Int),
	}}
	r.AddKey([]int{2, 0, 2})
	r.AddKey([]int{0, 2})
	require.Equal(t, [][]int{{0, 2}}, r.Keys)
	require.Equal(t, "(int, string?, int) key=[0, 2]", r.String())
	require.Equal(t, 3, r.Arity())

	require.True(t, r.HasKeyWithin(func(c int) bool { return c != 1 }))
	require.False(t, r.HasKeyWithin(func(c int) bool { return c == 0 }))

	c := r.Copy()
	c.Keys[0][0] = 7
	require.Equal(t, 0, r.Keys[0][0])
}
