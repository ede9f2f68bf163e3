// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/optbuilder"
	"github.com/streamdb/streamdb/pkg/sql/opt/testutils/testcat"
	"gopkg.in/yaml.v2"
)

// Scenario is a self-contained planning problem: the feature flags, the
// catalog, and the expression to plan.
//
//	features:
//	  eager_delta_joins: true
//	catalog:
//	  - id: u1
//	    columns: [int, int]
//	    indexes: ["[#1]"]
//	expr: |
//	  join [#1, #2]
//	    get u1
//	    get u1
type Scenario struct {
	Features opt.Features           `yaml:"features"`
	Catalog  []testcat.CollectionDef `yaml:"catalog"`
	Expr     string                  `yaml:"expr"`
}

// ParseScenario decodes a scenario from YAML. Unknown keys are an error.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, "parsing scenario")
	}
	if s.Expr == "" {
		return nil, errors.New("scenario has no expression")
	}
	return &s, nil
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return s, nil
}

// Build creates the catalog of the scenario and builds its expression
// against it.
func (s *Scenario) Build() (*testcat.Catalog, memo.RelExpr, error) {
	catalog := testcat.New()
	if err := catalog.AddDefs(s.Catalog); err != nil {
		return nil, nil, err
	}
	e, err := optbuilder.Build(catalog, s.Expr)
	if err != nil {
		return nil, nil, err
	}
	return catalog, e, nil
}
