// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/redact"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// JoinImplementationKind is the physical strategy chosen for a join.
type JoinImplementationKind uint8

const (
	// Unimplemented joins have not been planned yet.
	Unimplemented JoinImplementationKind = iota

	// Differential joins are linear: the start input is joined with each
	// subsequent input in turn, arranging every intermediate result.
	Differential

	// DeltaQuery joins have one order per input; each order looks up every
	// other input in an existing arrangement.
	DeltaQuery

	// IndexedFilter joins implement a literal equality filter as a lookup into
	// an index of a global collection. They are created elsewhere and left
	// alone by join planning.
	IndexedFilter
)

var joinImplementationKindNames = [...]string{
	Unimplemented: "unimplemented",
	Differential:  "differential",
	DeltaQuery:    "delta",
	IndexedFilter: "indexed-filter",
}

func (k JoinImplementationKind) String() string {
	return joinImplementationKindNames[k]
}

// SafeFormat implements redact.SafeFormatter.
func (k JoinImplementationKind) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(k.String()))
}

// JoinStep is one element of a join order: the input that is joined, the key
// (local to that input) under which it is looked up, and the characteristics
// that ranked it.
type JoinStep struct {
	Input           int
	Key             []tree.ScalarExpr
	Characteristics *JoinInputCharacteristics
}

// JoinImplementation describes how a join is executed. Only the fields of the
// current Kind are meaningful.
type JoinImplementation struct {
	Kind JoinImplementationKind

	// Start and Order describe a Differential join. Start is the first input
	// and the key of its arrangement; Order lists the remaining inputs.
	Start JoinStep
	Order []JoinStep

	// Orders describe a DeltaQuery join. Orders[i] starts at input i and lists
	// the remaining inputs; the start input itself is not included.
	Orders [][]JoinStep

	// Collection, Key and Values describe an IndexedFilter join: rows of the
	// collection whose Key matches one of the Values.
	Collection opt.GlobalID
	Key        []tree.ScalarExpr
	Values     [][]tree.Datum
}

// IsUnimplemented returns true if the join has not been planned.
func (j *JoinImplementation) IsUnimplemented() bool {
	return j.Kind == Unimplemented
}

// Copy returns a deep copy of the implementation.
func (j *JoinImplementation) Copy() JoinImplementation {
	res := JoinImplementation{
		Kind:       j.Kind,
		Start:      j.Start.copy(),
		Collection: j.Collection,
		Key:        append([]tree.ScalarExpr(nil), j.Key...),
	}
	for _, s := range j.Order {
		res.Order = append(res.Order, s.copy())
	}
	for _, o := range j.Orders {
		var order []JoinStep
		for _, s := range o {
			order = append(order, s.copy())
		}
		res.Orders = append(res.Orders, order)
	}
	for _, v := range j.Values {
		res.Values = append(res.Values, append([]tree.Datum(nil), v...))
	}
	return res
}

func (s JoinStep) copy() JoinStep {
	res := JoinStep{Input: s.Input, Key: append([]tree.ScalarExpr(nil), s.Key...)}
	if s.Characteristics != nil {
		c := *s.Characteristics
		res.Characteristics = &c
	}
	return res
}

// String formats a step as "1[#0]UKA": the input, its key and the
// characteristics that ranked it.
func (s JoinStep) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.Input))
	b.WriteString(tree.FormatList(s.Key))
	if s.Characteristics != nil {
		b.WriteString(s.Characteristics.Explain())
	}
	return b.String()
}

func (j *JoinImplementation) String() string {
	var b strings.Builder
	b.WriteString(j.Kind.String())
	switch j.Kind {
	case Differential:
		b.WriteByte(' ')
		b.WriteString(j.Start.String())
		for _, s := range j.Order {
			b.WriteString(" » ")
			b.WriteString(s.String())
		}
	case DeltaQuery:
		for i, o := range j.Orders {
			b.WriteString(" %")
			b.WriteString(strconv.Itoa(i))
			for _, s := range o {
				b.WriteString(" » ")
				b.WriteString(s.String())
			}
		}
	case IndexedFilter:
		b.WriteByte(' ')
		b.WriteString(j.Collection.String())
		b.WriteString(tree.FormatList(j.Key))
		b.WriteString(" values=(")
		for i, row := range j.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			for k, d := range row {
				if k > 0 {
					b.WriteString(", ")
				}
				b.WriteString(d.String())
			}
			b.WriteByte(')')
		}
		b.WriteByte(')')
	}
	return b.String()
}
