// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/intsets"
)

// JoinInputMapper translates columns and expressions between the global
// column space of a join (the concatenation of the inputs' columns) and the
// local column space of each input.
//
// Methods that take equivalences are only guaranteed to give correct answers
// if the equivalences are canonical (see CanonicalizeEquivalences).
type JoinInputMapper struct {
	// arities holds the number of columns of each input. The other fields are
	// derived from it.
	arities []int
	// inputOf maps each global column to its input.
	inputOf []int
	// priorArities holds, for each input, the sum of the arities of the inputs
	// before it.
	priorArities []int
}

// MakeJoinInputMapper returns a mapper for inputs with the given arities.
func MakeJoinInputMapper(arities []int) JoinInputMapper {
	m := JoinInputMapper{
		arities:      append([]int(nil), arities...),
		priorArities: make([]int, len(arities)),
	}
	offset := 0
	for i, a := range arities {
		m.priorArities[i] = offset
		offset += a
		for j := 0; j < a; j++ {
			m.inputOf = append(m.inputOf, i)
		}
	}
	return m
}

// MakeJoinInputMapperForInputs returns a mapper for the given join inputs.
func MakeJoinInputMapperForInputs(inputs []RelExpr) JoinInputMapper {
	arities := make([]int, len(inputs))
	for i, in := range inputs {
		arities[i] = Arity(in)
	}
	return MakeJoinInputMapper(arities)
}

// TotalColumns returns the number of columns of the join.
func (m *JoinInputMapper) TotalColumns() int {
	return len(m.inputOf)
}

// TotalInputs returns the number of inputs of the join.
func (m *JoinInputMapper) TotalInputs() int {
	return len(m.arities)
}

// InputArity returns the number of columns of the given input.
func (m *JoinInputMapper) InputArity(input int) int {
	return m.arities[input]
}

// LocalColumns returns the local column numbers of the given input, in order.
func (m *JoinInputMapper) LocalColumns(input int) []int {
	res := make([]int, m.arities[input])
	for i := range res {
		res[i] = i
	}
	return res
}

// GlobalColumns returns the global column numbers of the given input, in
// order.
func (m *JoinInputMapper) GlobalColumns(input int) []int {
	res := make([]int, m.arities[input])
	for i := range res {
		res[i] = m.priorArities[input] + i
	}
	return res
}

// MapColumnToLocal returns the local column number of the given global column
// and the input it belongs to.
func (m *JoinInputMapper) MapColumnToLocal(col int) (localCol, input int) {
	input = m.inputOf[col]
	return col - m.priorArities[input], input
}

// MapColumnToGlobal returns the global column number of a local column of the
// given input.
func (m *JoinInputMapper) MapColumnToGlobal(col, input int) int {
	return col + m.priorArities[input]
}

// MapExprToLocal rewrites an expression over global columns into the local
// context of its input. All the columns of e must belong to the same input.
func (m *JoinInputMapper) MapExprToLocal(e tree.ScalarExpr) tree.ScalarExpr {
	return tree.ReplacePostOrder(e, func(e tree.ScalarExpr) tree.ScalarExpr {
		if c, ok := e.(*tree.Column); ok {
			return tree.NewColumn(c.Idx - m.priorArities[m.inputOf[c.Idx]])
		}
		return e
	})
}

// MapExprToGlobal rewrites an expression local to the given input into the
// global context.
func (m *JoinInputMapper) MapExprToGlobal(e tree.ScalarExpr, input int) tree.ScalarExpr {
	return tree.ShiftColumns(e, m.priorArities[input])
}

// SplitColumnSetByInput splits a set of global columns into one set of local
// columns per input.
func (m *JoinInputMapper) SplitColumnSetByInput(cols intsets.Fast) []intsets.Fast {
	res := make([]intsets.Fast, m.TotalInputs())
	cols.ForEach(func(c int) {
		local, input := m.MapColumnToLocal(c)
		res[input].Add(local)
	})
	return res
}

// LookupInputs returns the sorted, deduplicated inputs referenced by e.
func (m *JoinInputMapper) LookupInputs(e tree.ScalarExpr) []int {
	var inputs intsets.Fast
	tree.Support(e).ForEach(func(c int) {
		inputs.Add(m.inputOf[c])
	})
	return inputs.Ordered()
}

// SingleInput returns the input referenced by e if e references exactly one
// input.
func (m *JoinInputMapper) SingleInput(e tree.ScalarExpr) (int, bool) {
	inputs := m.LookupInputs(e)
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return 0, false
}

// IsLocalized returns true if e refers to columns of the given input only
// (and to at least one of them).
func (m *JoinInputMapper) IsLocalized(e tree.ScalarExpr, input int) bool {
	single, ok := m.SingleInput(e)
	return ok && single == input
}

// FindBoundExpr looks for the equivalence class containing e and returns the
// first expression of that class whose columns all belong to the allowed
// inputs. Both e and the result are in the global context.
func (m *JoinInputMapper) FindBoundExpr(
	e tree.ScalarExpr, allowed []int, equivalences [][]tree.ScalarExpr,
) (tree.ScalarExpr, bool) {
	for _, class := range equivalences {
		if !tree.Contains(class, e) {
			continue
		}
		for _, candidate := range class {
			if allInputsIn(m.LookupInputs(candidate), allowed) {
				return candidate, true
			}
		}
		return nil, false
	}
	return nil, false
}

// TryLocalizeToInputWithBoundExpr tries to rewrite *e, an expression over
// global columns, so that it only refers to columns of the given input, by
// replacing subexpressions with equivalent expressions from that input. The
// rewrite is pre-order: once a subexpression is replaced or already local,
// its children are not visited.
//
// If it returns true, *e has been rewritten into the local context of the
// input. If it returns false, *e is still in the global context, although
// some of its subexpressions may have been replaced.
func (m *JoinInputMapper) TryLocalizeToInputWithBoundExpr(
	e *tree.ScalarExpr, input int, equivalences [][]tree.ScalarExpr,
) bool {
	*e = tree.ReplacePreOrder(*e, func(sub tree.ScalarExpr) (tree.ScalarExpr, bool) {
		if inputs := m.LookupInputs(sub); len(inputs) == 1 && inputs[0] == input {
			return sub, true
		}
		if bound, ok := m.FindBoundExpr(sub, []int{input}, equivalences); ok {
			return bound, true
		}
		return nil, false
	})
	if m.IsLocalized(*e, input) {
		*e = m.MapExprToLocal(*e)
		return true
	}
	return false
}

// ConsequenceForInput tries to find a predicate c over the columns of the
// given input that is implied by the global predicate e: if c does not hold
// on a row of the input, then e cannot hold on any join result built from
// that row. c is a necessary condition only, so e must still be evaluated
// after the join.
//
// For example, for (#0 = 3 AND #2 = 4) OR (#0 = 5 AND #2 = 6) with #0 in the
// first input and #2 in the second, the consequence for the first input is
// #0 = 3 OR #0 = 5.
//
// An OR yields a consequence only if every arm does; an AND yields the
// conjunction of the consequences of the arms that have one. The result is in
// the local context of the input. TryLocalizeToInputWithBoundExpr should be
// applied to e first.
func (m *JoinInputMapper) ConsequenceForInput(
	e tree.ScalarExpr, input int,
) (tree.ScalarExpr, bool) {
	if m.IsLocalized(e, input) {
		return m.MapExprToLocal(e), true
	}
	v, ok := e.(*tree.CallVariadic)
	if !ok {
		return nil, false
	}
	switch v.Func {
	case tree.OrFunc:
		arms := make([]tree.ScalarExpr, 0, len(v.Exprs))
		for _, arm := range v.Exprs {
			c, ok := m.ConsequenceForInput(arm, input)
			if !ok {
				return nil, false
			}
			arms = append(arms, c)
		}
		return tree.NewOr(arms...), true

	case tree.AndFunc:
		var arms []tree.ScalarExpr
		for _, arm := range v.Exprs {
			if c, ok := m.ConsequenceForInput(arm, input); ok {
				arms = append(arms, c)
			}
		}
		if len(arms) == 0 {
			return nil, false
		}
		return tree.NewAnd(arms...), true
	}
	return nil, false
}

// GlobalKeys derives unique keys of the join from the unique keys of its
// inputs (localKeys[i] holds the keys of input i, in local columns). Only the
// keys of the first input are considered, and only the input order is tried:
// they are keys of the join if every later input has a unique key whose
// columns are all equated with expressions over strictly earlier inputs. The
// derivation is best-effort; a nil result does not mean the join has no key.
func (m *JoinInputMapper) GlobalKeys(
	localKeys [][][]int, equivalences [][]tree.ScalarExpr,
) [][]int {
	n := m.TotalInputs()
	if n == 0 {
		return nil
	}
	// boundByPrior[i-1] holds the local columns of input i that appear in an
	// equivalence class together with an expression over earlier inputs.
	boundByPrior := make([]intsets.Fast, n-1)
	for _, class := range equivalences {
		minBound := -1
		for _, e := range class {
			inputs := m.LookupInputs(e)
			if len(inputs) == 0 {
				continue
			}
			if maxInput := inputs[len(inputs)-1]; minBound == -1 || maxInput < minBound {
				minBound = maxInput
			}
		}
		if minBound == -1 {
			continue
		}
		for _, e := range class {
			if c, ok := tree.AsColumn(e); ok {
				local, input := m.MapColumnToLocal(c)
				if input > minBound {
					boundByPrior[input-1].Add(local)
				}
			}
		}
	}

	for i := 1; i < n; i++ {
		found := false
		for _, key := range localKeys[i] {
			if intsets.MakeFast(key...).SubsetOf(boundByPrior[i-1]) {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	res := make([][]int, len(localKeys[0]))
	for i, key := range localKeys[0] {
		res[i] = append([]int(nil), key...)
	}
	return res
}

func allInputsIn(inputs, allowed []int) bool {
	for _, i := range inputs {
		found := false
		for _, a := range allowed {
			if a == i {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
