// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils"
	"github.com/streamdb/streamdb/pkg/sql/opt/xform"
	"github.com/streamdb/streamdb/pkg/util/log"
	"golang.org/x/sync/errgroup"
)

func makePlanCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <scenario>...",
		Short: "Plan the joins of one or more scenarios.",
		Long: `Plan the joins of one or more scenarios and print the rewritten expressions.

Scenarios are planned concurrently and printed in the order given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), cmd.Flags(), cfg, args)
		},
	}
}

func makeSemijoinCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "semijoin <scenario>",
		Short: "Apply semijoin idempotence to a scenario.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out, err := planScenario(ctx, cmd.Flags(), cfg, args[0], func(
				ctx context.Context, e *memo.RelExpr, tc *xform.TransformCtx,
			) error {
				var s xform.SemijoinIdempotence
				return s.Transform(ctx, e, tc)
			})
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func runPlan(
	ctx context.Context, w io.Writer, fs *pflag.FlagSet, cfg *config, paths []string,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i := range paths {
		i := i
		g.Go(func() error {
			out, err := planScenario(ctx, fs, cfg, paths[i], func(
				ctx context.Context, e *memo.RelExpr, tc *xform.TransformCtx,
			) error {
				return xform.NewOptimizer(*tc).Optimize(ctx, e)
			})
			results[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, out := range results {
		if len(paths) > 1 {
			if _, err := fmt.Fprintf(w, "-- %s\n", paths[i]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}

// planScenario loads the scenario at path, rewrites its expression with fn
// and returns the formatted result.
func planScenario(
	ctx context.Context,
	fs *pflag.FlagSet,
	cfg *config,
	path string,
	fn func(ctx context.Context, e *memo.RelExpr, tc *xform.TransformCtx) error,
) (string, error) {
	ctx = logtags.AddTag(ctx, "scenario", path)
	s, err := testutils.LoadScenario(path)
	if err != nil {
		return "", err
	}
	features, err := cfg.features(fs, s.Features)
	if err != nil {
		return "", err
	}
	flags, err := cfg.exprFormat()
	if err != nil {
		return "", err
	}
	catalog, e, err := s.Build()
	if err != nil {
		return "", errors.Wrapf(err, "%s", path)
	}
	tc := &xform.TransformCtx{Indexes: catalog, Stats: catalog, Features: features}
	if err := fn(ctx, &e, tc); err != nil {
		return "", errors.Wrapf(err, "%s", path)
	}
	log.VEventf(ctx, 1, "planned")
	return memo.FormatExpr(e, flags), nil
}
