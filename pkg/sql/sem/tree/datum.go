// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"math"
	"strconv"
	"strings"

	"github.com/streamdb/streamdb/pkg/sql/types"
)

// Datum represents a constant value.
type Datum interface {
	// ResolvedType returns the scalar type of the datum. NULL reports
	// types.Unknown.
	ResolvedType() types.T

	// Compare returns -1 if the receiver is less than other, 0 if they are
	// equal and +1 if the receiver is greater. Datums of different types are
	// ordered by their type, with NULL first.
	Compare(other Datum) int

	// String formats the datum in the syntax accepted by ParseScalar.
	String() string

	datum()
}

// DBool is the boolean Datum.
type DBool bool

// DInt is the integer Datum.
type DInt int64

// DFloat is the float Datum.
type DFloat float64

// DString is the string Datum.
type DString string

type dNull struct{}

// DNull is the NULL Datum.
var DNull Datum = dNull{}

// DBoolTrue and DBoolFalse are the two boolean datums.
var (
	DBoolTrue  Datum = DBool(true)
	DBoolFalse Datum = DBool(false)
)

func (DBool) datum()   {}
func (DInt) datum()    {}
func (DFloat) datum()  {}
func (DString) datum() {}
func (dNull) datum()   {}

// ResolvedType implements the Datum interface.
func (DBool) ResolvedType() types.T { return types.Bool }

// ResolvedType implements the Datum interface.
func (DInt) ResolvedType() types.T { return types.Int }

// ResolvedType implements the Datum interface.
func (DFloat) ResolvedType() types.T { return types.Float }

// ResolvedType implements the Datum interface.
func (DString) ResolvedType() types.T { return types.String }

// ResolvedType implements the Datum interface.
func (dNull) ResolvedType() types.T { return types.Unknown }

func compareDatumTypes(a, b Datum) int {
	ta, tb := a.ResolvedType(), b.ResolvedType()
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	}
	return 0
}

// Compare implements the Datum interface.
func (d DBool) Compare(other Datum) int {
	if c := compareDatumTypes(d, other); c != 0 {
		return c
	}
	o := other.(DBool)
	switch {
	case d == o:
		return 0
	case !bool(d):
		return -1
	}
	return 1
}

// Compare implements the Datum interface.
func (d DInt) Compare(other Datum) int {
	if c := compareDatumTypes(d, other); c != 0 {
		return c
	}
	o := other.(DInt)
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

// Compare implements the Datum interface. NaN sorts before all other values so
// that the ordering is total.
func (d DFloat) Compare(other Datum) int {
	if c := compareDatumTypes(d, other); c != 0 {
		return c
	}
	a, b := float64(d), float64(other.(DFloat))
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	case math.IsNaN(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare implements the Datum interface.
func (d DString) Compare(other Datum) int {
	if c := compareDatumTypes(d, other); c != 0 {
		return c
	}
	return strings.Compare(string(d), string(other.(DString)))
}

// Compare implements the Datum interface.
func (dNull) Compare(other Datum) int {
	if other == DNull {
		return 0
	}
	return -1
}

func (d DBool) String() string {
	return strconv.FormatBool(bool(d))
}

func (d DInt) String() string {
	return strconv.FormatInt(int64(d), 10)
}

func (d DFloat) String() string {
	s := strconv.FormatFloat(float64(d), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

func (d DString) String() string {
	return "'" + strings.ReplaceAll(string(d), "'", "''") + "'"
}

func (dNull) String() string {
	return "null"
}
