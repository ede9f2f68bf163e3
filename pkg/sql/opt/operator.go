// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package opt contains the definitions shared by the join planner: relational
// operators, collection identifiers, feature flags, and the recursion guard.
package opt

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Operator describes the type of operation that a relational expression
// performs.
type Operator uint8

const (
	// UnknownOp is not a valid operator.
	UnknownOp Operator = iota

	// ConstantOp is a literal collection of rows.
	ConstantOp

	// GetOp reads a collection, either global or bound by an enclosing Let.
	GetOp

	// LetOp binds a value to a local identifier for use in its body.
	LetOp

	// LetRecOp binds a sequence of mutually recursive values.
	LetRecOp

	// ProjectOp selects and reorders columns of its input.
	ProjectOp

	// MapOp appends computed scalar columns to its input.
	MapOp

	// FilterOp retains rows satisfying all of its predicates.
	FilterOp

	// JoinOp is a multi-way equi-join over equivalence classes.
	JoinOp

	// ReduceOp groups its input by a key and computes aggregates.
	ReduceOp

	// ArrangeByOp materializes its input under one or more keys.
	ArrangeByOp

	// UnionOp concatenates its inputs.
	UnionOp

	// NegateOp negates the multiplicity of its input rows.
	NegateOp

	// ThresholdOp retains rows with positive multiplicity.
	ThresholdOp

	// NumOperators tracks the total count of operators.
	NumOperators
)

var operatorNames = [NumOperators]string{
	UnknownOp:   "unknown",
	ConstantOp:  "constant",
	GetOp:       "get",
	LetOp:       "let",
	LetRecOp:    "let-rec",
	ProjectOp:   "project",
	MapOp:       "map",
	FilterOp:    "filter",
	JoinOp:      "join",
	ReduceOp:    "reduce",
	ArrangeByOp: "arrange-by",
	UnionOp:     "union",
	NegateOp:    "negate",
	ThresholdOp: "threshold",
}

func (op Operator) String() string {
	if op >= NumOperators {
		panic(fmt.Sprintf("operator %d out of range", op))
	}
	return operatorNames[op]
}

// SafeFormat implements redact.SafeFormatter.
func (op Operator) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(op.String()))
}

// ParseOperator returns the operator with the given name, or UnknownOp.
func ParseOperator(name string) Operator {
	for i, n := range operatorNames {
		if n == name {
			return Operator(i)
		}
	}
	return UnknownOp
}

// PreservesColumns returns true if the operator passes its (first) input's
// columns through unchanged, in the same positions.
func (op Operator) PreservesColumns() bool {
	switch op {
	case FilterOp, ArrangeByOp, NegateOp, ThresholdOp, MapOp:
		return true
	}
	return false
}
