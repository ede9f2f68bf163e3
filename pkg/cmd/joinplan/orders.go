// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils"
	"github.com/streamdb/streamdb/pkg/sql/opt/xform"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

func makeOrdersCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "orders <scenario>",
		Short: "Print the join orders considered for the first join of a scenario.",
		Long: `Print the join orders considered for the first join of a scenario.

There is one order per join input, starting with that input. Each step shows
the lookup key and the characteristics that ranked it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrders(cmd.OutOrStdout(), cmd.Flags(), cfg, args[0])
		},
	}
}

func runOrders(w io.Writer, fs *pflag.FlagSet, cfg *config, path string) error {
	s, err := testutils.LoadScenario(path)
	if err != nil {
		return err
	}
	features, err := cfg.features(fs, s.Features)
	if err != nil {
		return err
	}
	catalog, e, err := s.Build()
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	join := testutils.FindJoin(e)
	if join == nil {
		return errors.Newf("%s: expression has no join", path)
	}
	orders, err := xform.JoinOrders(join, &xform.TransformCtx{
		Indexes: catalog, Stats: catalog, Features: features,
	})
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	writeOrders(w, join, orders)
	return nil
}

// writeOrders renders the orders as a table with one row per step.
func writeOrders(w io.Writer, join *memo.JoinExpr, orders [][]memo.JoinStep) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"order", "step", "input", "key", "characteristics", "rows"})
	for i, order := range orders {
		for j, step := range order {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				describeInput(join, step.Input),
				tree.FormatList(step.Key),
			}
			if c := step.Characteristics; c != nil {
				rows := "?"
				if c.HasCardinality {
					rows = humanize.Comma(int64(c.Cardinality))
				}
				row = append(row, c.Explain(), rows)
			} else {
				row = append(row, "", "")
			}
			table.Append(row)
		}
	}
	table.Render()
	fmt.Fprintf(w, "(%d orders)\n", len(orders))
}

// describeInput names a join input by the collection it reads, if it is a
// plain Get.
func describeInput(join *memo.JoinExpr, input int) string {
	if g, ok := join.Inputs[input].(*memo.GetExpr); ok {
		return fmt.Sprintf("%d (%s)", input, g.ID)
	}
	return fmt.Sprintf("%d (%s)", input, join.Inputs[input].Op())
}
