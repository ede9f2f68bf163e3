// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// MapFilterProject is a sequence of a map, a filter and a project applied to
// rows of InputArity columns:
//
//   - Expressions are appended as new columns, in order. Each may refer to
//     the input columns and to earlier expressions (column InputArity+i is
//     the result of Expressions[i]).
//   - Predicates are evaluated over the input and mapped columns; rows for
//     which any predicate is not true are discarded.
//   - Projection lists the input and mapped columns that are output.
type MapFilterProject struct {
	InputArity  int
	Expressions []tree.ScalarExpr
	Predicates  []tree.ScalarExpr
	Projection  []int
}

// MakeMapFilterProject returns the identity on rows of the given arity.
func MakeMapFilterProject(inputArity int) MapFilterProject {
	proj := make([]int, inputArity)
	for i := range proj {
		proj[i] = i
	}
	return MapFilterProject{InputArity: inputArity, Projection: proj}
}

// Map appends columns computed by exprs. The expressions refer to the current
// output columns, each possibly to the ones appended before it.
func (m MapFilterProject) Map(exprs []tree.ScalarExpr) MapFilterProject {
	for _, e := range exprs {
		e = tree.Permute(e, m.Projection)
		m.Expressions = append(m.Expressions[:len(m.Expressions):len(m.Expressions)], e)
		m.Projection = append(
			m.Projection[:len(m.Projection):len(m.Projection)], m.InputArity+len(m.Expressions)-1,
		)
	}
	return m
}

// Filter adds predicates over the current output columns.
func (m MapFilterProject) Filter(predicates []tree.ScalarExpr) MapFilterProject {
	for _, p := range predicates {
		p = tree.Permute(p, m.Projection)
		m.Predicates = append(m.Predicates[:len(m.Predicates):len(m.Predicates)], p)
	}
	return m
}

// Project retains the given current output columns, in the given order.
func (m MapFilterProject) Project(cols []int) MapFilterProject {
	proj := make([]int, len(cols))
	for i, c := range cols {
		proj[i] = m.Projection[c]
	}
	m.Projection = proj
	return m
}

// OutputArity returns the number of columns produced.
func (m MapFilterProject) OutputArity() int {
	return len(m.Projection)
}

// IsIdentity returns true if the MFP outputs its input unchanged.
func (m MapFilterProject) IsIdentity() bool {
	if len(m.Expressions) > 0 || len(m.Predicates) > 0 || len(m.Projection) != m.InputArity {
		return false
	}
	for i, c := range m.Projection {
		if c != i {
			return false
		}
	}
	return true
}

// AsMapFilterProject returns the three parts of the MFP: the map expressions,
// the predicates (over the input and mapped columns), and the projection.
// Applying them in that order is equivalent to applying the MFP.
func (m MapFilterProject) AsMapFilterProject() (
	mapExprs []tree.ScalarExpr,
	predicates []tree.ScalarExpr,
	projection []int,
) {
	return append([]tree.ScalarExpr(nil), m.Expressions...),
		append([]tree.ScalarExpr(nil), m.Predicates...),
		append([]int(nil), m.Projection...)
}

// Permute renumbers the MFP for a new input: input column c becomes
// colMap(c), and mapped columns are moved to start at newInputArity.
func (m MapFilterProject) Permute(colMap func(c int) int, newInputArity int) MapFilterProject {
	remap := func(c int) int {
		if c < m.InputArity {
			return colMap(c)
		}
		return c - m.InputArity + newInputArity
	}
	remapExpr := func(e tree.ScalarExpr) tree.ScalarExpr {
		return tree.SubstituteColumns(e, func(c int) tree.ScalarExpr {
			return tree.NewColumn(remap(c))
		})
	}
	res := MapFilterProject{InputArity: newInputArity}
	for _, e := range m.Expressions {
		res.Expressions = append(res.Expressions, remapExpr(e))
	}
	for _, p := range m.Predicates {
		res.Predicates = append(res.Predicates, remapExpr(p))
	}
	for _, c := range m.Projection {
		res.Projection = append(res.Projection, remap(c))
	}
	return res
}

// ExtractFromExpr peels the Map, Filter and Project operators off the top of
// e and returns them as an MFP together with the expression beneath them.
func ExtractFromExpr(e RelExpr) (MapFilterProject, RelExpr) {
	switch t := e.(type) {
	case *MapExpr:
		mfp, input := ExtractFromExpr(t.Input)
		return mfp.Map(t.Scalars), input
	case *FilterExpr:
		mfp, input := ExtractFromExpr(t.Input)
		return mfp.Filter(t.Predicates), input
	case *ProjectExpr:
		mfp, input := ExtractFromExpr(t.Input)
		return mfp.Project(t.Outputs), input
	}
	return MakeMapFilterProject(Arity(e)), e
}

// ExtractFromExprRef is like ExtractFromExpr but returns the slot holding the
// expression beneath the MFP, so that the caller can modify it in place.
func ExtractFromExprRef(ref *RelExpr) (MapFilterProject, *RelExpr) {
	switch t := (*ref).(type) {
	case *MapExpr:
		mfp, input := ExtractFromExprRef(&t.Input)
		return mfp.Map(t.Scalars), input
	case *FilterExpr:
		mfp, input := ExtractFromExprRef(&t.Input)
		return mfp.Filter(t.Predicates), input
	case *ProjectExpr:
		mfp, input := ExtractFromExprRef(&t.Input)
		return mfp.Project(t.Outputs), input
	}
	return MakeMapFilterProject(Arity(*ref)), ref
}

// LiftFromExpr is like ExtractFromExpr but also replaces *ref with the
// expression beneath the MFP.
func LiftFromExpr(ref *RelExpr) MapFilterProject {
	mfp, input := ExtractFromExpr(*ref)
	*ref = input
	return mfp
}

// Apply wraps input in the Map, Filter and Project operators of the MFP,
// omitting those that would have no effect.
func (m MapFilterProject) Apply(input RelExpr) RelExpr {
	mapExprs, predicates, projection := m.AsMapFilterProject()
	return BuildProject(BuildFilter(BuildMap(input, mapExprs), predicates), projection)
}
