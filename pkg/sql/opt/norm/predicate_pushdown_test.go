// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"testing"

	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

func TestPushFiltersThroughMap(t *testing.T) {
	pushed := PushFiltersThroughMap(
		scalars("plus(#0, 1)", "mult(#2, 2)"),
		scalars("eq(#3, 10)", "gt(#1, 0)"),
		2,
	)
	require.Equal(t, "[eq(mult(plus(#0, 1), 2), 10), gt(#1, 0)]", tree.FormatList(pushed))
}

func TestPushFiltersThroughJoin(t *testing.T) {
	mapper := memo.MakeJoinInputMapper([]int{2, 2})
	retained, pushDowns := PushFiltersThroughJoin(
		&mapper,
		classes([]string{"#0", "#2"}),
		scalars(
			"eq(#0, 5)",
			"or(eq(#1, 1), eq(#3, 2))",
			"and(lt(#1, 3), gt(#2, #3))",
			"gt(#1, #3)",
		),
	)
	require.Equal(t, "[or(eq(#1, 1), eq(#3, 2)), and(lt(#1, 3), gt(#2, #3)), gt(#1, #3)]",
		tree.FormatList(retained))
	require.Len(t, pushDowns, 2)
	require.Equal(t, "[eq(#0, 5), lt(#1, 3)]", tree.FormatList(pushDowns[0]))
	require.Equal(t, "[eq(#0, 5), gt(#0, #1)]", tree.FormatList(pushDowns[1]))
}
