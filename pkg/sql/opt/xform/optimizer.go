// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/norm"
	"github.com/streamdb/streamdb/pkg/util/log"
)

// TransformCtx holds what transforms may consult about the environment of
// the expression they rewrite. A nil oracle knows nothing.
type TransformCtx struct {
	Indexes  cat.IndexOracle
	Stats    cat.StatisticsOracle
	Features opt.Features
}

func (tc *TransformCtx) statistics() cat.StatisticsOracle {
	if tc.Stats == nil {
		return cat.EmptyStatisticsOracle{}
	}
	return tc.Stats
}

// Transform rewrites a relational expression in place.
type Transform interface {
	// Name identifies the transform in logs and errors.
	Name() string

	// Transform rewrites *e. On error, *e is left in a valid state, though it
	// may be partially rewritten.
	Transform(ctx context.Context, e *memo.RelExpr, tc *TransformCtx) error
}

// SemijoinIdempotence adapts norm.SemijoinIdempotence to the Transform
// interface.
type SemijoinIdempotence struct {
	norm.SemijoinIdempotence
}

var _ Transform = &SemijoinIdempotence{}

// Transform is part of the Transform interface.
func (s *SemijoinIdempotence) Transform(ctx context.Context, e *memo.RelExpr, _ *TransformCtx) error {
	return s.Apply(ctx, e)
}

// Fixpoint applies a sequence of transforms repeatedly until a pass leaves
// the expression unchanged.
type Fixpoint struct {
	Name       string
	Transforms []Transform
	// Limit is the maximum number of passes. Zero means
	// opt.DefaultFixpointLimit.
	Limit int
}

// Apply runs the fixpoint loop on *e. It fails if the expression is still
// changing after Limit passes.
func (f *Fixpoint) Apply(ctx context.Context, e *memo.RelExpr, tc *TransformCtx) error {
	limit := f.Limit
	if limit == 0 {
		limit = opt.DefaultFixpointLimit
	}
	ctx = logtags.AddTag(ctx, "fixpoint", f.Name)
	prev := memo.FormatExpr(*e, memo.ExprFmtShowAll)
	for pass := 1; pass <= limit; pass++ {
		for _, t := range f.Transforms {
			if err := t.Transform(ctx, e, tc); err != nil {
				return errors.Wrapf(err, "%s", redact.Safe(t.Name()))
			}
			memo.CheckExpr(*e)
		}
		cur := memo.FormatExpr(*e, memo.ExprFmtShowAll)
		if cur == prev {
			log.VEventf(ctx, 1, "converged after %d passes", pass)
			return nil
		}
		if log.V(3) {
			log.Infof(ctx, "after pass %d:\n%s", pass, cur)
		}
		prev = cur
	}
	return errors.AssertionFailedf(
		"fixpoint %s did not converge after %d passes", redact.Safe(f.Name), limit,
	)
}

// Optimizer plans the joins of relational expressions.
type Optimizer struct {
	tc       TransformCtx
	pipeline Fixpoint
}

// DefaultTransforms returns the transforms of the join planning pipeline, in
// the order they are applied on each pass.
func DefaultTransforms() []Transform {
	return []Transform{
		&SemijoinIdempotence{},
		&JoinImplementation{},
	}
}

// NewOptimizer returns an optimizer that runs semijoin idempotence and join
// implementation to a fixpoint.
func NewOptimizer(tc TransformCtx) *Optimizer {
	return &Optimizer{
		tc: tc,
		pipeline: Fixpoint{
			Name:       "join planning",
			Transforms: DefaultTransforms(),
		},
	}
}

// Optimize rewrites *e in place. Internal errors raised as panics are
// returned as errors.
func (o *Optimizer) Optimize(ctx context.Context, e *memo.RelExpr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// This code allows us to propagate internal errors without having
			// to add error checks everywhere throughout the code. This is only
			// possible because the code does not update shared state and does
			// not manipulate locks.
			err = opt.CatchOptimizerError(r)
		}
	}()
	return o.pipeline.Apply(ctx, e, &o.tc)
}
