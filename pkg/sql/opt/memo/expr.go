// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package memo defines the relational IR rewritten by the join planner: the
// expression tree itself, relation typing, the column mapper for joins, the
// map-filter-project combinator, join input characteristics, and formatting.
//
// A relational expression tree owns its children. Collections bound by Let and
// LetRec are referenced by identifier from Get nodes, never by pointer; the
// traversal that needs to resolve them keeps its own scope.
package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// RelExpr is a relational expression.
type RelExpr interface {
	// Op returns the operator of the expression.
	Op() opt.Operator

	// ChildCount returns the number of relational children.
	ChildCount() int

	// Child returns the nth relational child.
	Child(nth int) RelExpr

	// ChildRef returns a pointer to the slot that owns the nth child, so that
	// the child can be replaced in place.
	ChildRef(nth int) *RelExpr
}

// ConstantExpr is a literal collection of rows.
type ConstantExpr struct {
	Rows [][]tree.Datum
	Typ  props.RelationType
}

// GetExpr reads the collection identified by ID. Typ is the type of the
// collection, recorded when the expression is built.
type GetExpr struct {
	ID  opt.ID
	Typ props.RelationType
}

// LetExpr binds Value to ID within Body.
type LetExpr struct {
	ID    opt.LocalID
	Value RelExpr
	Body  RelExpr
}

// LetRecExpr binds Values to IDs, which may refer to each other, within Body.
type LetRecExpr struct {
	IDs    []opt.LocalID
	Values []RelExpr
	Body   RelExpr
}

// ProjectExpr outputs the given columns of its input, in order.
type ProjectExpr struct {
	Input   RelExpr
	Outputs []int
}

// MapExpr appends one column per scalar to its input. Each scalar may refer
// to the input columns and to the columns appended before it.
type MapExpr struct {
	Input   RelExpr
	Scalars []tree.ScalarExpr
}

// FilterExpr retains the rows of its input for which every predicate is
// true.
type FilterExpr struct {
	Input      RelExpr
	Predicates []tree.ScalarExpr
}

// JoinExpr is a multi-way equi-join. The columns of the result are the
// concatenation of the columns of the inputs; the expressions in each
// equivalence class refer to this global column space and are equal on every
// result row.
type JoinExpr struct {
	Inputs         []RelExpr
	Equivalences   [][]tree.ScalarExpr
	Implementation JoinImplementation
}

// AggregateFunc identifies an aggregate function.
type AggregateFunc uint8

// Aggregate functions.
const (
	CountAgg AggregateFunc = iota
	SumAgg
	MinAgg
	MaxAgg
	numAggregateFuncs
)

var aggregateFuncNames = [numAggregateFuncs]string{
	CountAgg: "count",
	SumAgg:   "sum",
	MinAgg:   "min",
	MaxAgg:   "max",
}

func (f AggregateFunc) String() string {
	return aggregateFuncNames[f]
}

// SafeFormat implements redact.SafeFormatter.
func (f AggregateFunc) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// ParseAggregateFunc returns the aggregate function with the given name.
func ParseAggregateFunc(name string) (AggregateFunc, error) {
	for i, n := range aggregateFuncNames {
		if n == name {
			return AggregateFunc(i), nil
		}
	}
	return 0, errors.Newf("unknown aggregate function %q", name)
}

// AggregateExpr is an aggregate computed by a Reduce.
type AggregateExpr struct {
	Func     AggregateFunc
	Expr     tree.ScalarExpr
	Distinct bool
}

// ReduceExpr groups its input by GroupKey and computes Aggregates for each
// group. The output has the group key columns followed by one column per
// aggregate.
type ReduceExpr struct {
	Input      RelExpr
	GroupKey   []tree.ScalarExpr
	Aggregates []AggregateExpr
}

// ArrangeByExpr materializes its input indexed by each of Keys.
type ArrangeByExpr struct {
	Input RelExpr
	Keys  [][]tree.ScalarExpr
}

// UnionExpr concatenates its inputs, which must have the same arity.
type UnionExpr struct {
	Inputs []RelExpr
}

// NegateExpr negates the multiplicity of each row of its input.
type NegateExpr struct {
	Input RelExpr
}

// ThresholdExpr retains the rows of its input with positive multiplicity.
type ThresholdExpr struct {
	Input RelExpr
}

var _ RelExpr = &ConstantExpr{}
var _ RelExpr = &GetExpr{}
var _ RelExpr = &LetExpr{}
var _ RelExpr = &LetRecExpr{}
var _ RelExpr = &ProjectExpr{}
var _ RelExpr = &MapExpr{}
var _ RelExpr = &FilterExpr{}
var _ RelExpr = &JoinExpr{}
var _ RelExpr = &ReduceExpr{}
var _ RelExpr = &ArrangeByExpr{}
var _ RelExpr = &UnionExpr{}
var _ RelExpr = &NegateExpr{}
var _ RelExpr = &ThresholdExpr{}

// Op is part of the RelExpr interface.
func (*ConstantExpr) Op() opt.Operator { return opt.ConstantOp }

// Op is part of the RelExpr interface.
func (*GetExpr) Op() opt.Operator { return opt.GetOp }

// Op is part of the RelExpr interface.
func (*LetExpr) Op() opt.Operator { return opt.LetOp }

// Op is part of the RelExpr interface.
func (*LetRecExpr) Op() opt.Operator { return opt.LetRecOp }

// Op is part of the RelExpr interface.
func (*ProjectExpr) Op() opt.Operator { return opt.ProjectOp }

// Op is part of the RelExpr interface.
func (*MapExpr) Op() opt.Operator { return opt.MapOp }

// Op is part of the RelExpr interface.
func (*FilterExpr) Op() opt.Operator { return opt.FilterOp }

// Op is part of the RelExpr interface.
func (*JoinExpr) Op() opt.Operator { return opt.JoinOp }

// Op is part of the RelExpr interface.
func (*ReduceExpr) Op() opt.Operator { return opt.ReduceOp }

// Op is part of the RelExpr interface.
func (*ArrangeByExpr) Op() opt.Operator { return opt.ArrangeByOp }

// Op is part of the RelExpr interface.
func (*UnionExpr) Op() opt.Operator { return opt.UnionOp }

// Op is part of the RelExpr interface.
func (*NegateExpr) Op() opt.Operator { return opt.NegateOp }

// Op is part of the RelExpr interface.
func (*ThresholdExpr) Op() opt.Operator { return opt.ThresholdOp }

// ChildCount is part of the RelExpr interface.
func (*ConstantExpr) ChildCount() int { return 0 }

// ChildCount is part of the RelExpr interface.
func (*GetExpr) ChildCount() int { return 0 }

// ChildCount is part of the RelExpr interface.
func (*LetExpr) ChildCount() int { return 2 }

// ChildCount is part of the RelExpr interface.
func (e *LetRecExpr) ChildCount() int { return len(e.Values) + 1 }

// ChildCount is part of the RelExpr interface.
func (*ProjectExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (*MapExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (*FilterExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (e *JoinExpr) ChildCount() int { return len(e.Inputs) }

// ChildCount is part of the RelExpr interface.
func (*ReduceExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (*ArrangeByExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (e *UnionExpr) ChildCount() int { return len(e.Inputs) }

// ChildCount is part of the RelExpr interface.
func (*NegateExpr) ChildCount() int { return 1 }

// ChildCount is part of the RelExpr interface.
func (*ThresholdExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *ConstantExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *GetExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *LetExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *LetRecExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *ProjectExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *MapExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *FilterExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *JoinExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *ReduceExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *ArrangeByExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *UnionExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *NegateExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

// Child is part of the RelExpr interface.
func (e *ThresholdExpr) Child(nth int) RelExpr { return *e.ChildRef(nth) }

func badChild(op opt.Operator, nth int) *RelExpr {
	panic(errors.AssertionFailedf("%s has no child %d", op, redact.Safe(nth)))
}

// ChildRef is part of the RelExpr interface.
func (e *ConstantExpr) ChildRef(nth int) *RelExpr { return badChild(e.Op(), nth) }

// ChildRef is part of the RelExpr interface.
func (e *GetExpr) ChildRef(nth int) *RelExpr { return badChild(e.Op(), nth) }

// ChildRef is part of the RelExpr interface.
func (e *LetExpr) ChildRef(nth int) *RelExpr {
	switch nth {
	case 0:
		return &e.Value
	case 1:
		return &e.Body
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *LetRecExpr) ChildRef(nth int) *RelExpr {
	switch {
	case nth >= 0 && nth < len(e.Values):
		return &e.Values[nth]
	case nth == len(e.Values):
		return &e.Body
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *ProjectExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *MapExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *FilterExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *JoinExpr) ChildRef(nth int) *RelExpr {
	if nth >= 0 && nth < len(e.Inputs) {
		return &e.Inputs[nth]
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *ReduceExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *ArrangeByExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *UnionExpr) ChildRef(nth int) *RelExpr {
	if nth >= 0 && nth < len(e.Inputs) {
		return &e.Inputs[nth]
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *NegateExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}

// ChildRef is part of the RelExpr interface.
func (e *ThresholdExpr) ChildRef(nth int) *RelExpr {
	if nth == 0 {
		return &e.Input
	}
	return badChild(e.Op(), nth)
}
