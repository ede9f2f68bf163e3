// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import "github.com/cockroachdb/redact"

// UnaryFunc identifies a function of one argument.
type UnaryFunc uint8

// Unary functions.
const (
	Not UnaryFunc = iota
	IsNullFunc
	IsTrue
	IsFalse
	Neg
	numUnaryFuncs
)

var unaryFuncNames = [numUnaryFuncs]string{
	Not:        "not",
	IsNullFunc: "isnull",
	IsTrue:     "istrue",
	IsFalse:    "isfalse",
	Neg:        "neg",
}

// BinaryFunc identifies a function of two arguments.
type BinaryFunc uint8

// Binary functions.
const (
	Eq BinaryFunc = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
	Like
	Plus
	Minus
	Mult
	numBinaryFuncs
)

var binaryFuncNames = [numBinaryFuncs]string{
	Eq:    "eq",
	NotEq: "ne",
	Lt:    "lt",
	Lte:   "le",
	Gt:    "gt",
	Gte:   "ge",
	Like:  "like",
	Plus:  "plus",
	Minus: "minus",
	Mult:  "mult",
}

// VariadicFunc identifies a function of any number of arguments.
type VariadicFunc uint8

// Variadic functions.
const (
	AndFunc VariadicFunc = iota
	OrFunc
	Coalesce
	numVariadicFuncs
)

var variadicFuncNames = [numVariadicFuncs]string{
	AndFunc:  "and",
	OrFunc:   "or",
	Coalesce: "coalesce",
}

func (f UnaryFunc) String() string    { return unaryFuncNames[f] }
func (f BinaryFunc) String() string   { return binaryFuncNames[f] }
func (f VariadicFunc) String() string { return variadicFuncNames[f] }

// SafeFormat implements redact.SafeFormatter.
func (f UnaryFunc) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// SafeFormat implements redact.SafeFormatter.
func (f BinaryFunc) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// SafeFormat implements redact.SafeFormatter.
func (f VariadicFunc) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// IsInequality returns true for the ordering comparisons lt, le, gt and ge.
func (f BinaryFunc) IsInequality() bool {
	switch f {
	case Lt, Lte, Gt, Gte:
		return true
	}
	return false
}

// IsComparison returns true if the function compares its arguments and
// produces a boolean.
func (f BinaryFunc) IsComparison() bool {
	return f == Eq || f == NotEq || f.IsInequality()
}

// lookupFunc resolves a function name to one of the three function kinds.
// Exactly one of the returned flags is set on success.
func lookupFunc(name string) (u UnaryFunc, b BinaryFunc, v VariadicFunc, arity int, ok bool) {
	for i, n := range unaryFuncNames {
		if n == name {
			return UnaryFunc(i), 0, 0, 1, true
		}
	}
	for i, n := range binaryFuncNames {
		if n == name {
			return 0, BinaryFunc(i), 0, 2, true
		}
	}
	for i, n := range variadicFuncNames {
		if n == name {
			return 0, 0, VariadicFunc(i), -1, true
		}
	}
	return 0, 0, 0, 0, false
}
