// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

// TestOptimizerConverges runs the default pipeline on chains of joins and
// checks that a second run finds nothing left to do.
func TestOptimizerConverges(t *testing.T) {
	defer log.Scope(t).Close(t)

	indexSets := []testIndexes{
		nil,
		{2: {{"#0"}}, 3: {{"#0"}}},
		{1: {{"#1"}}, 2: {{"#0"}, {"#1"}}, 3: {{"#0"}, {"#1"}}, 4: {{"#0"}}},
	}
	for _, n := range []int{2, 3, 4} {
		for i, indexes := range indexSets {
			for _, eager := range []bool{false, true} {
				t.Run(fmt.Sprintf("inputs=%d/indexes=%d/eager=%t", n, i, eager), func(t *testing.T) {
					o := NewOptimizer(TransformCtx{
						Indexes:  indexes,
						Stats:    testStats{1: 100, 2: 10},
						Features: opt.Features{EagerDeltaJoins: eager, CardinalityEstimates: true},
					})
					var e memo.RelExpr = chainJoin(n)
					require.NoError(t, o.Optimize(context.Background(), &e))

					kind := findJoin(e).Implementation.Kind
					if n <= 2 {
						require.Equal(t, memo.Differential, kind)
					} else {
						require.Contains(t, []memo.JoinImplementationKind{memo.Differential, memo.DeltaQuery}, kind)
					}

					before := memo.FormatExpr(e, memo.ExprFmtShowAll)
					require.NoError(t, o.Optimize(context.Background(), &e))
					require.Equal(t, before, memo.FormatExpr(e, memo.ExprFmtShowAll))
				})
			}
		}
	}
}

// negateEverything wraps the expression in another negation every time it
// runs, so it never reaches a fixpoint.
type negateEverything struct{}

func (negateEverything) Name() string { return "negate" }

func (negateEverything) Transform(_ context.Context, e *memo.RelExpr, _ *TransformCtx) error {
	*e = &memo.NegateExpr{Input: *e}
	return nil
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Transform(context.Context, *memo.RelExpr, *TransformCtx) error {
	return errors.New("boom")
}

func TestFixpoint(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()

	t.Run("limit", func(t *testing.T) {
		f := Fixpoint{Name: "test", Transforms: []Transform{negateEverything{}}, Limit: 3}
		var e memo.RelExpr = get(1, 1)
		err := f.Apply(ctx, &e, &TransformCtx{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "fixpoint test did not converge after 3 passes")
		require.True(t, errors.HasAssertionFailure(err))
	})

	t.Run("error", func(t *testing.T) {
		f := Fixpoint{Name: "test", Transforms: []Transform{&JoinImplementation{}, failing{}}}
		var e memo.RelExpr = chainJoin(2)
		err := f.Apply(ctx, &e, &TransformCtx{})
		require.EqualError(t, err, "failing: boom")
	})

	t.Run("no transforms", func(t *testing.T) {
		var f Fixpoint
		var e memo.RelExpr = get(1, 1)
		require.NoError(t, f.Apply(ctx, &e, &TransformCtx{}))
	})
}
