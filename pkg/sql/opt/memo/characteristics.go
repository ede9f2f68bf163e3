// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"
	"strings"

	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// FilterCharacteristics summarizes the filters applied to a join input, as a
// rough proxy for their selectivity. Characteristics compare field by field in
// declaration order; greater means more selective.
type FilterCharacteristics struct {
	// LiteralEquality is set if some filter equates an expression with a
	// literal.
	LiteralEquality bool
	// Like is set if some filter is a LIKE pattern match.
	Like bool
	// IsNull is set if some filter requires an expression to be NULL.
	IsNull bool
	// LiteralInequality counts the filters that compare an expression with a
	// literal using <, <=, > or >=.
	LiteralInequality int
	// AnyFilter is set if there is some filter other than IS NOT NULL.
	AnyFilter bool
}

// Or combines the characteristics of two filter sets applied together.
func (f FilterCharacteristics) Or(o FilterCharacteristics) FilterCharacteristics {
	return FilterCharacteristics{
		LiteralEquality:   f.LiteralEquality || o.LiteralEquality,
		Like:              f.Like || o.Like,
		IsNull:            f.IsNull || o.IsNull,
		LiteralInequality: f.LiteralInequality + o.LiteralInequality,
		AnyFilter:         f.AnyFilter || o.AnyFilter,
	}
}

// AddLiteralEquality records a literal equality filter.
func (f *FilterCharacteristics) AddLiteralEquality() {
	f.LiteralEquality = true
}

// IsEmpty returns true if no filter is recorded.
func (f FilterCharacteristics) IsEmpty() bool {
	return f == FilterCharacteristics{}
}

// Compare returns -1, 0 or +1 as f is less, equally or more selective than o.
func (f FilterCharacteristics) Compare(o FilterCharacteristics) int {
	if c := compareBools(f.LiteralEquality, o.LiteralEquality); c != 0 {
		return c
	}
	if c := compareBools(f.Like, o.Like); c != 0 {
		return c
	}
	if c := compareBools(f.IsNull, o.IsNull); c != 0 {
		return c
	}
	if c := compareInts(f.LiteralInequality, o.LiteralInequality); c != 0 {
		return c
	}
	return compareBools(f.AnyFilter, o.AnyFilter)
}

// WorstCaseScalingFactor returns a pessimistic estimate of the fraction of
// rows that survive the filters.
func (f FilterCharacteristics) WorstCaseScalingFactor() float64 {
	factor := 1.0
	if f.LiteralEquality {
		factor *= 0.1
	}
	if f.IsNull {
		factor *= 0.1
	}
	if f.LiteralInequality >= 2 {
		factor *= 0.25
	} else if f.LiteralInequality == 1 {
		factor *= 0.33
	}
	if !(f.LiteralEquality || f.IsNull || f.LiteralInequality > 0) && f.AnyFilter {
		factor *= 0.9
	}
	return factor
}

// Explain returns a compact code for the characteristics: "e" for a literal
// equality, "l" for LIKE, "n" for IS NULL, one "i" per literal inequality,
// and "f" for any other filter.
func (f FilterCharacteristics) Explain() string {
	var b strings.Builder
	if f.LiteralEquality {
		b.WriteByte('e')
	}
	if f.Like {
		b.WriteByte('l')
	}
	if f.IsNull {
		b.WriteByte('n')
	}
	for i := 0; i < f.LiteralInequality; i++ {
		b.WriteByte('i')
	}
	if f.AnyFilter {
		b.WriteByte('f')
	}
	return b.String()
}

// FilterCharacteristicsOf derives the characteristics of a list of
// predicates. Subexpressions beneath a NOT do not count as equalities, LIKE
// matches or NULL tests.
func FilterCharacteristicsOf(predicates []tree.ScalarExpr) FilterCharacteristics {
	var res FilterCharacteristics
	for _, p := range predicates {
		inequality := false
		var visit func(e tree.ScalarExpr, negated bool)
		visit = func(e tree.ScalarExpr, negated bool) {
			switch t := e.(type) {
			case *tree.CallUnary:
				if t.Func == tree.Not {
					visit(t.Expr, true)
					return
				}
				if t.Func == tree.IsNullFunc && !negated {
					res.IsNull = true
				}
			case *tree.CallBinary:
				isLit := tree.IsLiteral(t.Left) != tree.IsLiteral(t.Right)
				switch {
				case t.Func == tree.Eq && isLit && !negated:
					res.LiteralEquality = true
				case t.Func == tree.Like && !negated:
					res.Like = true
				case t.Func.IsInequality() && isLit:
					inequality = true
				}
			}
			for i, n := 0, e.ChildCount(); i < n; i++ {
				visit(e.Child(i), negated)
			}
		}
		visit(p, false)
		if inequality {
			res.LiteralInequality++
		}
		if _, ok := tree.AsIsNotNullColumn(p); !ok {
			res.AnyFilter = true
		}
	}
	return res
}

// JoinInputCharacteristics ranks a candidate next input during join ordering.
// Greater characteristics are preferred; see Compare for the precedence of the
// fields.
type JoinInputCharacteristics struct {
	// UniqueKey is set if the lookup key contains a unique key of the input.
	UniqueKey bool
	// KeyLength is the number of key expressions.
	KeyLength int
	// Arranged is set if an arrangement with the key already exists.
	Arranged bool
	// Cardinality is the estimated number of rows of the input, if
	// HasCardinality is set.
	Cardinality    uint64
	HasCardinality bool
	// Filters summarizes the filters applied to the input (and, after
	// accumulation, to the inputs placed before it).
	Filters FilterCharacteristics
	// Input is the index of the join input.
	Input int

	// PrioritizeArranged makes Arranged the most significant field.
	PrioritizeArranged bool
	// PrioritizeCardinality compares Cardinality before Filters.
	PrioritizeCardinality bool
}

// NewJoinInputCharacteristics returns characteristics with the tie-break
// policies taken from the feature flags. A nil cardinality is unknown.
func NewJoinInputCharacteristics(
	uniqueKey bool,
	keyLength int,
	arranged bool,
	cardinality *uint64,
	filters FilterCharacteristics,
	input int,
	features *opt.Features,
) JoinInputCharacteristics {
	c := JoinInputCharacteristics{
		UniqueKey:             uniqueKey,
		KeyLength:             keyLength,
		Arranged:              arranged,
		Filters:               filters,
		Input:                 input,
		PrioritizeArranged:    features.JoinPrioritizeArranged,
		PrioritizeCardinality: features.JoinPrioritizeCardinality,
	}
	if cardinality != nil {
		c.Cardinality, c.HasCardinality = *cardinality, true
	}
	return c
}

// Compare returns +1 if c ranks higher than o, -1 if lower and 0 if they are
// equivalent. The fields are compared in this order:
//
//  1. Arranged, if PrioritizeArranged is set;
//  2. UniqueKey;
//  3. KeyLength, longer first;
//  4. Arranged;
//  5. Cardinality, smaller first, only if both are known;
//  6. Filters, more selective first;
//  7. Input, smaller first.
//
// If PrioritizeCardinality is not set, 6 is compared before 5.
//
// Since an unknown cardinality compares as neutral, Compare is not transitive
// when known and unknown estimates mix: a may rank above b by cardinality
// while c ranks above a and below b by a later field. A priority queue of
// such candidates then yields an order that depends on insertion order.
func (c *JoinInputCharacteristics) Compare(o *JoinInputCharacteristics) int {
	if c.PrioritizeArranged {
		if r := compareBools(c.Arranged, o.Arranged); r != 0 {
			return r
		}
	}
	if r := compareBools(c.UniqueKey, o.UniqueKey); r != 0 {
		return r
	}
	if r := compareInts(c.KeyLength, o.KeyLength); r != 0 {
		return r
	}
	if r := compareBools(c.Arranged, o.Arranged); r != 0 {
		return r
	}
	cardinality := func() int {
		if !c.HasCardinality || !o.HasCardinality {
			return 0
		}
		switch {
		case c.Cardinality < o.Cardinality:
			return 1
		case c.Cardinality > o.Cardinality:
			return -1
		}
		return 0
	}
	if c.PrioritizeCardinality {
		if r := cardinality(); r != 0 {
			return r
		}
		if r := c.Filters.Compare(o.Filters); r != 0 {
			return r
		}
	} else {
		if r := c.Filters.Compare(o.Filters); r != 0 {
			return r
		}
		if r := cardinality(); r != 0 {
			return r
		}
	}
	return -compareInts(c.Input, o.Input)
}

// Explain returns a compact code for the characteristics, e.g. "UKKA|100|e":
// "U" for a unique key, one "K" per key expression, "A" if arranged, the
// cardinality between bars, and the filter code.
func (c *JoinInputCharacteristics) Explain() string {
	var b strings.Builder
	if c.UniqueKey {
		b.WriteByte('U')
	}
	for i := 0; i < c.KeyLength; i++ {
		b.WriteByte('K')
	}
	if c.Arranged {
		b.WriteByte('A')
	}
	if c.HasCardinality {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(c.Cardinality, 10))
		b.WriteByte('|')
	}
	b.WriteString(c.Filters.Explain())
	return b.String()
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
