// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"github.com/spf13/pflag"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils"
)

// config holds the values of the command line flags shared by all commands.
type config struct {
	featuresPath          string
	eager                 bool
	cardinality           bool
	prioritizeArranged    bool
	prioritizeCardinality bool
	format                []string
}

// features returns the feature flags to plan a scenario with. The --features
// file replaces the flags of the scenario, and individual flags given on the
// command line override both.
func (cfg *config) features(fs *pflag.FlagSet, scenario opt.Features) (opt.Features, error) {
	f := scenario
	if cfg.featuresPath != "" {
		var err error
		if f, err = opt.LoadFeatures(cfg.featuresPath); err != nil {
			return opt.Features{}, err
		}
	}
	if fs.Changed("eager") {
		f.EagerDeltaJoins = cfg.eager
	}
	if fs.Changed("cardinality") {
		f.CardinalityEstimates = cfg.cardinality
	}
	if fs.Changed("prioritize-arranged") {
		f.JoinPrioritizeArranged = cfg.prioritizeArranged
	}
	if fs.Changed("prioritize-cardinality") {
		f.JoinPrioritizeCardinality = cfg.prioritizeCardinality
	}
	return f, nil
}

func (cfg *config) exprFormat() (memo.ExprFmtFlags, error) {
	return testutils.ParseExprFmtFlags(cfg.format)
}
