// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

func TestExtractFromExpr(t *testing.T) {
	get := testGet(1, 2)
	e := &ProjectExpr{
		Input: &FilterExpr{
			Input:      &MapExpr{Input: get, Scalars: scalars("plus(#0, #1)")},
			Predicates: scalars("eq(#0, 5)"),
		},
		Outputs: []int{2, 0},
	}
	mfp, inner := ExtractFromExpr(e)
	require.Equal(t, RelExpr(get), inner)
	require.Equal(t, 2, mfp.InputArity)
	require.Equal(t, "[plus(#0, #1)]", tree.FormatList(mfp.Expressions))
	require.Equal(t, "[eq(#0, 5)]", tree.FormatList(mfp.Predicates))
	require.Equal(t, []int{2, 0}, mfp.Projection, pretty.Sprint(mfp))
	require.Equal(t, 2, mfp.OutputArity())

	rebuilt := mfp.Apply(get)
	require.Equal(t, FormatExpr(e, ExprFmtHideAll), FormatExpr(rebuilt, ExprFmtHideAll))
}

func TestMapFilterProjectBuilders(t *testing.T) {
	// Expressions and predicates refer to the current output columns.
	mfp := MakeMapFilterProject(3).
		Project([]int{2}).
		Map(scalars("plus(#0, 1)")).
		Filter(scalars("gt(#1, 10)"))
	require.Equal(t, "[plus(#2, 1)]", tree.FormatList(mfp.Expressions))
	require.Equal(t, "[gt(#3, 10)]", tree.FormatList(mfp.Predicates))
	require.Equal(t, []int{2, 3}, mfp.Projection)

	// A map may refer to the columns appended before it.
	mfp = MakeMapFilterProject(1).Map(scalars("neg(#0)", "plus(#1, #0)"))
	require.Equal(t, "[neg(#0), plus(#1, #0)]", tree.FormatList(mfp.Expressions))
	require.Equal(t, []int{0, 1, 2}, mfp.Projection)
}

func TestMapFilterProjectIdentity(t *testing.T) {
	mfp := MakeMapFilterProject(2)
	require.True(t, mfp.IsIdentity())
	require.False(t, mfp.Project([]int{1, 0}).IsIdentity())
	require.False(t, mfp.Filter(scalars("isnull(#0)")).IsIdentity())

	get := testGet(1, 2)
	require.Equal(t, RelExpr(get), mfp.Apply(get))
}

func TestMapFilterProjectPermute(t *testing.T) {
	mfp := MakeMapFilterProject(2).
		Map(scalars("plus(#0, #1)")).
		Filter(scalars("eq(#0, 5)")).
		Project([]int{2, 0})
	permuted := mfp.Permute(func(c int) int { return c + 3 }, 5)
	require.Equal(t, 5, permuted.InputArity)
	require.Equal(t, "[plus(#3, #4)]", tree.FormatList(permuted.Expressions))
	require.Equal(t, "[eq(#3, 5)]", tree.FormatList(permuted.Predicates))
	require.Equal(t, []int{5, 3}, permuted.Projection)

	// The original is unchanged.
	require.Equal(t, "[plus(#0, #1)]", tree.FormatList(mfp.Expressions))
	require.Equal(t, []int{2, 0}, mfp.Projection)
}

func TestLiftFromExpr(t *testing.T) {
	get := testGet(1, 3)
	var e RelExpr = &FilterExpr{
		Input:      &ProjectExpr{Input: get, Outputs: []int{1}},
		Predicates: scalars("isnull(#0)"),
	}
	mfp := LiftFromExpr(&e)
	require.Equal(t, RelExpr(get), e)
	require.Equal(t, "[isnull(#1)]", tree.FormatList(mfp.Predicates))
	require.Equal(t, []int{1}, mfp.Projection)

	// Extracting through a slot leaves the tree intact.
	var f RelExpr = &ProjectExpr{Input: get, Outputs: []int{0}}
	_, ref := ExtractFromExprRef(&f)
	require.Equal(t, RelExpr(get), *ref)
	require.IsType(t, &ProjectExpr{}, f)
}
