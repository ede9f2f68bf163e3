// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/optbuilder"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils/testcat"
	"github.com/streamdb/streamdb/pkg/sql/opt/xform"
)

// OptTester is a helper for testing the various join planner components. It
// contains the boiler-plate code for the following useful tasks:
//   - Build an expression tree from its textual form
//   - Run single transforms on it
//   - Run the full planning pipeline on it
//   - Show the changes made by each transform, step-by-step
//   - Show the join orders considered for a join
//
// The OptTester is used by tests in various sub-packages of the opt package.
type OptTester struct {
	Flags OptTesterFlags

	catalog *testcat.Catalog
	input   string
	ctx     context.Context

	builder strings.Builder
}

// OptTesterFlags are control knobs for tests. Note that specific testcases can
// override these defaults.
type OptTesterFlags struct {
	// ExprFormat controls the output detail of expression directives.
	ExprFormat memo.ExprFmtFlags

	// Features are the feature flags passed to the transforms.
	Features opt.Features

	// Verbose indicates whether verbose test debugging information will be
	// output to stdout when commands run. Only certain commands support this.
	Verbose bool
}

// NewOptTester constructs a new instance of the OptTester for the given
// expression text. Global collections are resolved in the catalog.
func NewOptTester(catalog *testcat.Catalog, input string) *OptTester {
	return &OptTester{
		Flags:   OptTesterFlags{ExprFormat: memo.ExprFmtHideTypes},
		catalog: catalog,
		input:   input,
		ctx:     context.Background(),
	}
}

// RunCommand implements commands that are used by most tests:
//
//   - exec-ddl
//
//     Adds the collections defined by the YAML input to the catalog.
//
//   - build [flags]
//
//     Builds an expression tree and outputs it without any transforms
//     applied to it.
//
//   - semijoin [flags]
//
//     Applies a single pass of semijoin idempotence.
//
//   - implement [flags] [passes=N]
//
//     Applies N passes (default 1) of join implementation.
//
//   - opt [flags]
//
//     Runs the full planning pipeline to a fixpoint.
//
//   - optsteps [flags]
//
//     Outputs the expression after each transform of the planning pipeline
//     that changed it, using the standard unified diff format.
//
//   - orders [flags]
//
//     Outputs the join orders considered for the first join of the
//     expression, one per starting input.
//
// Supported flags:
//
//   - format: controls the formatting of expressions. Possible values:
//     show-all, hide-all, or any combination of hide-types and
//     hide-characteristics. For example:
//     build format=(hide-types,hide-characteristics)
//
//   - eager, cardinality, prioritize-arranged, prioritize-cardinality: turn
//     on the corresponding feature.
func (ot *OptTester) RunCommand(tb testing.TB, d *datadriven.TestData) string {
	// Allow testcases to override the flags.
	passes := 1
	for _, a := range d.CmdArgs {
		if a.Key == "passes" {
			if len(a.Vals) != 1 {
				d.Fatalf(tb, "passes requires a single value")
			}
			if _, err := fmt.Sscan(a.Vals[0], &passes); err != nil {
				d.Fatalf(tb, "%v", err)
			}
			continue
		}
		if err := ot.Flags.Set(a); err != nil {
			d.Fatalf(tb, "%s", err)
		}
	}

	ot.Flags.Verbose = testing.Verbose()

	switch d.Cmd {
	case "exec-ddl":
		s, err := ot.catalog.ExecuteDDL(d.Input)
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return s

	case "build":
		e, err := ot.Build()
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "semijoin":
		e, err := ot.Apply(&xform.SemijoinIdempotence{})
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "implement":
		var ts []xform.Transform
		for i := 0; i < passes; i++ {
			ts = append(ts, &xform.JoinImplementation{})
		}
		e, err := ot.Apply(ts...)
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "opt":
		e, err := ot.Optimize()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "optsteps":
		result, err := ot.OptSteps()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return result

	case "orders":
		result, err := ot.Orders()
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return result

	default:
		d.Fatalf(tb, "unsupported command: %s", d.Cmd)
		return ""
	}
}

// Set parses an argument that refers to a flag.
// See OptTester.RunCommand for supported flags.
func (f *OptTesterFlags) Set(arg datadriven.CmdArg) error {
	switch arg.Key {
	case "format":
		flags, err := ParseExprFmtFlags(arg.Vals)
		if err != nil {
			return err
		}
		f.ExprFormat = flags

	case "eager":
		f.Features.EagerDeltaJoins = true

	case "cardinality":
		f.Features.CardinalityEstimates = true

	case "prioritize-arranged":
		f.Features.JoinPrioritizeArranged = true

	case "prioritize-cardinality":
		f.Features.JoinPrioritizeCardinality = true

	default:
		return errors.Newf("unknown argument: %s", arg.Key)
	}
	return nil
}

// Build builds the expression without applying any transforms.
func (ot *OptTester) Build() (memo.RelExpr, error) {
	return optbuilder.Build(ot.catalog, ot.input)
}

// Apply builds the expression and applies the given transforms to it once,
// in order.
func (ot *OptTester) Apply(transforms ...xform.Transform) (memo.RelExpr, error) {
	e, err := ot.Build()
	if err != nil {
		return nil, err
	}
	tc := ot.transformCtx()
	for _, t := range transforms {
		if err := t.Transform(ot.ctx, &e, tc); err != nil {
			return nil, errors.Wrapf(err, "%s", t.Name())
		}
	}
	return e, nil
}

// Optimize builds the expression and runs the planning pipeline on it.
func (ot *OptTester) Optimize() (memo.RelExpr, error) {
	e, err := ot.Build()
	if err != nil {
		return nil, err
	}
	if err := xform.NewOptimizer(*ot.transformCtx()).Optimize(ot.ctx, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// OptSteps steps through the transforms of the planning pipeline, pass by
// pass. The output shows the starting expression, the changes made by each
// transform that changed the expression, and the final expression.
func (ot *OptTester) OptSteps() (string, error) {
	ot.builder.Reset()
	e, err := ot.Build()
	if err != nil {
		return "", err
	}
	tc := ot.transformCtx()
	transforms := xform.DefaultTransforms()

	prev := memo.FormatExpr(e, ot.Flags.ExprFormat)
	ot.header("Initial expression")
	ot.indent(prev)

	for pass := 1; ; pass++ {
		if pass > opt.DefaultFixpointLimit {
			return "", errors.Newf("no fixpoint after %d passes", opt.DefaultFixpointLimit)
		}
		changed := false
		for _, t := range transforms {
			if err := t.Transform(ot.ctx, &e, tc); err != nil {
				return "", errors.Wrapf(err, "%s", t.Name())
			}
			next := memo.FormatExpr(e, ot.Flags.ExprFormat)
			if next == prev {
				continue
			}
			changed = true
			ot.header(fmt.Sprintf("%s (pass %d)", t.Name(), pass))
			ot.diff(prev, next)
			prev = next
		}
		if !changed {
			break
		}
	}

	ot.header("Final expression")
	ot.indent(prev)
	return ot.builder.String(), nil
}

// Orders returns the join orders considered for the first join of the
// expression.
func (ot *OptTester) Orders() (string, error) {
	e, err := ot.Build()
	if err != nil {
		return "", err
	}
	join := FindJoin(e)
	if join == nil {
		return "", errors.New("expression has no join")
	}
	orders, err := xform.JoinOrders(join, ot.transformCtx())
	if err != nil {
		return "", err
	}
	return FormatOrders(orders), nil
}

func (ot *OptTester) transformCtx() *xform.TransformCtx {
	return &xform.TransformCtx{
		Indexes:  ot.catalog,
		Stats:    ot.catalog,
		Features: ot.Flags.Features,
	}
}

func (ot *OptTester) diff(before, after string) {
	diff := difflib.UnifiedDiff{
		A:       difflib.SplitLines(before),
		B:       difflib.SplitLines(after),
		Context: 100,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	// Skip the "@@ ... @@" header (first line).
	text = strings.SplitN(text, "\n", 2)[1]
	ot.indent(text)
}

func (ot *OptTester) output(format string, args ...interface{}) {
	fmt.Fprintf(&ot.builder, format, args...)
	if ot.Flags.Verbose {
		fmt.Printf(format, args...)
	}
}

func (ot *OptTester) header(title string) {
	ot.separator("=")
	ot.output("%s\n", title)
	ot.separator("=")
}

func (ot *OptTester) separator(sep string) {
	ot.output("%s\n", strings.Repeat(sep, 80))
}

func (ot *OptTester) indent(str string) {
	str = strings.TrimRight(str, " \n\t\r")
	lines := strings.Split(str, "\n")
	for _, line := range lines {
		ot.output("  %s\n", line)
	}
}
