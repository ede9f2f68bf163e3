// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"
)

// Features are the boolean switches that influence join planning.
type Features struct {
	// EagerDeltaJoins plans delta joins on the first visit of a join with
	// more than two inputs, whenever they need no more new arrangements than
	// the differential plan.
	EagerDeltaJoins bool `yaml:"eager_delta_joins"`

	// CardinalityEstimates enables the use of the statistics oracle when
	// ranking join inputs.
	CardinalityEstimates bool `yaml:"cardinality_estimates"`

	// JoinPrioritizeArranged makes "already arranged" the most significant
	// factor when ranking join inputs.
	JoinPrioritizeArranged bool `yaml:"join_prioritize_arranged"`

	// JoinPrioritizeCardinality compares cardinality estimates before filter
	// characteristics when ranking join inputs.
	JoinPrioritizeCardinality bool `yaml:"join_prioritize_cardinality"`
}

// ParseFeatures decodes features from YAML. Unknown keys are an error.
func ParseFeatures(data []byte) (Features, error) {
	var f Features
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return Features{}, errors.Wrap(err, "parsing features")
	}
	return f, nil
}

// LoadFeatures reads features from a YAML file.
func LoadFeatures(path string) (Features, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Features{}, errors.Wrapf(err, "reading features from %s", path)
	}
	return ParseFeatures(data)
}
