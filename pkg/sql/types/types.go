// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types defines the scalar and column types of the relational IR.
package types

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// T is a scalar type.
type T uint8

const (
	// Unknown is the type of an untyped NULL.
	Unknown T = iota
	// Bool is the boolean type.
	Bool
	// Int is the 64-bit signed integer type.
	Int
	// Float is the 64-bit floating point type.
	Float
	// String is the variable-length string type.
	String
)

var typeNames = [...]string{
	Unknown: "unknown",
	Bool:    "bool",
	Int:     "int",
	Float:   "float",
	String:  "string",
}

func (t T) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// SafeFormat implements redact.SafeFormatter.
func (t T) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}

// ParseT returns the type with the given name.
func ParseT(name string) (T, error) {
	for i, n := range typeNames {
		if n == name {
			return T(i), nil
		}
	}
	return Unknown, errors.Newf("unknown type %q", name)
}

// ColumnType is the type of a column: a scalar type plus nullability.
type ColumnType struct {
	Typ      T
	Nullable bool
}

// Nullable returns a nullable column of type t.
func Nullable(t T) ColumnType {
	return ColumnType{Typ: t, Nullable: true}
}

// NotNull returns a non-nullable column of type t.
func NotNull(t T) ColumnType {
	return ColumnType{Typ: t}
}

// Union returns the type that can hold the values of both c and other. The
// scalar types must agree, except that Unknown unifies with anything.
func (c ColumnType) Union(other ColumnType) (ColumnType, error) {
	typ := c.Typ
	switch {
	case c.Typ == other.Typ:
	case c.Typ == Unknown:
		typ = other.Typ
	case other.Typ == Unknown:
	default:
		return ColumnType{}, errors.AssertionFailedf(
			"can't union column types %s and %s", c.Typ, other.Typ,
		)
	}
	return ColumnType{Typ: typ, Nullable: c.Nullable || other.Nullable}, nil
}

func (c ColumnType) String() string {
	if c.Nullable {
		return c.Typ.String() + "?"
	}
	return c.Typ.String()
}

// ParseColumnType parses the output of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	nullable := false
	if n := len(s); n > 0 && s[n-1] == '?' {
		nullable = true
		s = s[:n-1]
	}
	t, err := ParseT(s)
	if err != nil {
		return ColumnType{}, err
	}
	return ColumnType{Typ: t, Nullable: nullable}, nil
}
