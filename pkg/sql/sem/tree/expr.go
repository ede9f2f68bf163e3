// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package tree implements the scalar expression language of the relational IR.
//
// Scalar expressions are immutable once constructed: functions that "rewrite"
// an expression build a new tree and share the unchanged subtrees. Column
// references are positional; whether a column index is relative to a single
// input or to the whole join is tracked by the caller.
package tree

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

// ScalarExpr is a scalar expression.
type ScalarExpr interface {
	// ChildCount returns the number of scalar children.
	ChildCount() int

	// Child returns the nth child.
	Child(nth int) ScalarExpr

	// String formats the expression in the syntax accepted by ParseScalar.
	String() string

	// withChildren returns a copy of the expression with the given children.
	withChildren(children []ScalarExpr) ScalarExpr

	kind() exprKind
}

// exprKind orders the expression variants in Compare.
type exprKind uint8

const (
	columnKind exprKind = iota
	literalKind
	unaryKind
	binaryKind
	variadicKind
)

// Column is a reference to the column at position Idx of the input.
type Column struct {
	Idx int
}

// Literal is a constant value of type Typ. For non-NULL values Typ is the
// datum's type; a NULL literal may carry any type.
type Literal struct {
	Datum Datum
	Typ   types.T
}

// CallUnary is the application of a unary function.
type CallUnary struct {
	Func UnaryFunc
	Expr ScalarExpr
}

// CallBinary is the application of a binary function.
type CallBinary struct {
	Func  BinaryFunc
	Left  ScalarExpr
	Right ScalarExpr
}

// CallVariadic is the application of a variadic function.
type CallVariadic struct {
	Func  VariadicFunc
	Exprs []ScalarExpr
}

var _ ScalarExpr = &Column{}
var _ ScalarExpr = &Literal{}
var _ ScalarExpr = &CallUnary{}
var _ ScalarExpr = &CallBinary{}
var _ ScalarExpr = &CallVariadic{}

func (*Column) kind() exprKind       { return columnKind }
func (*Literal) kind() exprKind      { return literalKind }
func (*CallUnary) kind() exprKind    { return unaryKind }
func (*CallBinary) kind() exprKind   { return binaryKind }
func (*CallVariadic) kind() exprKind { return variadicKind }

// ChildCount is part of the ScalarExpr interface.
func (*Column) ChildCount() int { return 0 }

// ChildCount is part of the ScalarExpr interface.
func (*Literal) ChildCount() int { return 0 }

// ChildCount is part of the ScalarExpr interface.
func (*CallUnary) ChildCount() int { return 1 }

// ChildCount is part of the ScalarExpr interface.
func (*CallBinary) ChildCount() int { return 2 }

// ChildCount is part of the ScalarExpr interface.
func (e *CallVariadic) ChildCount() int { return len(e.Exprs) }

// Child is part of the ScalarExpr interface.
func (e *Column) Child(nth int) ScalarExpr {
	panic(errors.AssertionFailedf("child index %d out of range", redact.Safe(nth)))
}

// Child is part of the ScalarExpr interface.
func (e *Literal) Child(nth int) ScalarExpr {
	panic(errors.AssertionFailedf("child index %d out of range", redact.Safe(nth)))
}

// Child is part of the ScalarExpr interface.
func (e *CallUnary) Child(nth int) ScalarExpr {
	if nth == 0 {
		return e.Expr
	}
	panic(errors.AssertionFailedf("child index %d out of range", redact.Safe(nth)))
}

// Child is part of the ScalarExpr interface.
func (e *CallBinary) Child(nth int) ScalarExpr {
	switch nth {
	case 0:
		return e.Left
	case 1:
		return e.Right
	}
	panic(errors.AssertionFailedf("child index %d out of range", redact.Safe(nth)))
}

// Child is part of the ScalarExpr interface.
func (e *CallVariadic) Child(nth int) ScalarExpr {
	return e.Exprs[nth]
}

func (e *Column) withChildren([]ScalarExpr) ScalarExpr  { return e }
func (e *Literal) withChildren([]ScalarExpr) ScalarExpr { return e }

func (e *CallUnary) withChildren(c []ScalarExpr) ScalarExpr {
	return &CallUnary{Func: e.Func, Expr: c[0]}
}

func (e *CallBinary) withChildren(c []ScalarExpr) ScalarExpr {
	return &CallBinary{Func: e.Func, Left: c[0], Right: c[1]}
}

func (e *CallVariadic) withChildren(c []ScalarExpr) ScalarExpr {
	return &CallVariadic{Func: e.Func, Exprs: c}
}

// NewColumn returns a reference to column idx.
func NewColumn(idx int) *Column {
	return &Column{Idx: idx}
}

// NewLiteral returns a literal holding d.
func NewLiteral(d Datum) *Literal {
	return &Literal{Datum: d, Typ: d.ResolvedType()}
}

// NewNullLiteral returns a NULL of the given type.
func NewNullLiteral(typ types.T) *Literal {
	return &Literal{Datum: DNull, Typ: typ}
}

// NewUnary returns f(e).
func NewUnary(f UnaryFunc, e ScalarExpr) *CallUnary {
	return &CallUnary{Func: f, Expr: e}
}

// NewBinary returns f(left, right).
func NewBinary(f BinaryFunc, left, right ScalarExpr) *CallBinary {
	return &CallBinary{Func: f, Left: left, Right: right}
}

// NewVariadic returns f(exprs...).
func NewVariadic(f VariadicFunc, exprs ...ScalarExpr) *CallVariadic {
	return &CallVariadic{Func: f, Exprs: exprs}
}
