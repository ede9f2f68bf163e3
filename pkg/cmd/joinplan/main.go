// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// joinplan plans the joins of scenario files and prints the result. A
// scenario is a YAML file holding feature flags, a catalog of collections,
// and an expression; see testutils.Scenario.
package main

import (
	"fmt"
	"os"

	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/spf13/cobra"
)

func makeJoinPlanCommand() *cobra.Command {
	var cfg config
	command := &cobra.Command{
		Use:   "joinplan [command] (flags)",
		Short: "joinplan plans the joins of relational expressions.",
		Long: `joinplan plans the joins of relational expressions described by scenario files.

Typical usage:
    joinplan plan a.yaml b.yaml --eager
        Plan both scenarios and print the rewritten expressions.

    joinplan orders a.yaml --cardinality
        Print the join orders considered for the first join of the scenario.

    joinplan semijoin a.yaml
        Apply only semijoin idempotence.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg.addFlags(command)

	command.AddCommand(makePlanCommand(&cfg))
	command.AddCommand(makeOrdersCommand(&cfg))
	command.AddCommand(makeSemijoinCommand(&cfg))
	return command
}

func (cfg *config) addFlags(command *cobra.Command) {
	fs := command.PersistentFlags()
	fs.StringVar(&cfg.featuresPath, "features", "", "YAML file with feature flags, replacing those of the scenario")
	fs.BoolVar(&cfg.eager, "eager", false, "plan delta joins eagerly")
	fs.BoolVar(&cfg.cardinality, "cardinality", false, "use cardinality estimates when ordering joins")
	fs.BoolVar(&cfg.prioritizeArranged, "prioritize-arranged", false, "prefer already arranged inputs above all else")
	fs.BoolVar(&cfg.prioritizeCardinality, "prioritize-cardinality", false, "compare cardinalities before filters")
	fs.StringSliceVar(&cfg.format, "format", []string{"hide-types"}, "expression format: show-all, hide-all, hide-types, hide-characteristics")
	log.AddFlags(fs)
}

func main() {
	if err := makeJoinPlanCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
