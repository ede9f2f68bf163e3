// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import "github.com/spf13/pflag"

// verbosityValue adapts the global verbosity to a pflag.Value.
type verbosityValue struct{}

var _ pflag.Value = verbosityValue{}

func (verbosityValue) String() string {
	return levelString(Level(verbosity.Load()))
}

func (verbosityValue) Set(s string) error {
	l, err := parseLevel(s)
	if err != nil {
		return err
	}
	SetVerbosity(l)
	return nil
}

func (verbosityValue) Type() string { return "level" }

// AddFlags registers the logging flags (currently only --v) on the given flag
// set.
func AddFlags(fs *pflag.FlagSet) {
	fs.Var(verbosityValue{}, "v", "log verbosity level for optimizer events")
}
