// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"context"
	"slices"

	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/log"
	"golang.org/x/exp/maps"
)

// SemijoinIdempotence removes semijoins that are applied repeatedly to no
// further effect.
//
// It looks for binary joins A ⋈ B where:
//
//  1. A is a (possibly filtered) Get of some collection X;
//  2. the join equates columns of A to all the columns of B;
//  3. B has at most one copy of each record, by a unique key among the
//     equated columns;
//  4. B is itself, up to projection, a semijoin of X with some other
//     collection C on the same columns.
//
// B is then replaced by C, projected to B's column order, with the filters
// of A's occurrence of X transferred onto it. Candidates for B are found by
// descending through Get, Project, Reduce and ArrangeBy operators, including
// through Let bindings.
type SemijoinIdempotence struct {
	guard opt.RecursionGuard
}

// Name returns the name of the transform.
func (s *SemijoinIdempotence) Name() string {
	return "SemijoinIdempotence"
}

// Apply rewrites the expression in place.
func (s *SemijoinIdempotence) Apply(ctx context.Context, e *memo.RelExpr) error {
	// Expirations rely on bindings being numbered in definition order.
	if err := RenumberBindings(e); err != nil {
		return err
	}
	st := semijoinState{
		ctx:             ctx,
		letReplacements: make(map[opt.LocalID][]replacement),
		getsBehindGets:  make(map[opt.LocalID][]filteredGet),
	}
	return s.action(&st, e)
}

type semijoinState struct {
	ctx context.Context
	// letReplacements holds the replacements offered by let-bound values.
	letReplacements map[opt.LocalID][]replacement
	// getsBehindGets holds the filtered Gets that let-bound values are.
	getsBehindGets map[opt.LocalID][]filteredGet
}

// replacement records that the offering expression, projected onto the
// offering columns, equals the semijoin of collection id with expr on the
// source and replacement columns.
type replacement struct {
	id      opt.ID
	columns []replacementColumn
	expr    memo.RelExpr
}

type replacementColumn struct {
	// source is a column of the collection.
	source int
	// offering is the corresponding column of the offering expression.
	offering int
	// replacement is the corresponding column of expr.
	replacement int
}

func (r replacement) copy() replacement {
	return replacement{id: r.id, columns: append([]replacementColumn(nil), r.columns...), expr: r.expr}
}

// filteredGet is an interpretation of an expression as a Get with filters.
type filteredGet struct {
	id         opt.ID
	predicates []tree.ScalarExpr
}

func (s *SemijoinIdempotence) action(st *semijoinState, ref *memo.RelExpr) error {
	return s.guard.CheckedRecur(func() error {
		switch t := (*ref).(type) {
		case *memo.LetExpr:
			st.letReplacements[t.ID] = st.listReplacements(t.Value)
			st.getsBehindGets[t.ID] = st.asFilteredGet(t.Value)
			if err := s.action(st, &t.Value); err != nil {
				return err
			}
			return s.action(st, &t.Body)

		case *memo.LetRecExpr:
			// Expirations are local to one LetRec, since a binding can't refer
			// to a binding of an inner LetRec.
			expirations := make(map[opt.LocalID][]opt.LocalID)
			for i, id := range t.IDs {
				// Recurse first, in case the binding refers to itself.
				if err := s.action(st, &t.Values[i]); err != nil {
					return err
				}
				value := t.Values[i]
				repls := st.listReplacements(value)
				st.letReplacements[id] = repls
				gets := st.asFilteredGet(value)
				st.getsBehindGets[id] = gets

				for _, r := range repls {
					collectExpirations(id, r.expr, expirations)
				}
				for _, g := range gets {
					if lid, ok := g.id.Local(); ok && lid >= id {
						expirations[lid] = append(expirations[lid], id)
					}
				}
				for _, expired := range expirations[id] {
					delete(st.letReplacements, expired)
					delete(st.getsBehindGets, expired)
				}
			}
			return s.action(st, &t.Body)

		case *memo.JoinExpr:
			st.attemptJoinSimplification(t)
			for i := range t.Inputs {
				if err := s.action(st, &t.Inputs[i]); err != nil {
					return err
				}
			}
			return nil
		}
		e := *ref
		for i, n := 0, e.ChildCount(); i < n; i++ {
			if err := s.action(st, e.ChildRef(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// collectExpirations records that the information derived for binding id
// expires when any binding with an id at least as large, referenced by e, is
// redefined.
func collectExpirations(
	id opt.LocalID, e memo.RelExpr, expirations map[opt.LocalID][]opt.LocalID,
) {
	if g, ok := e.(*memo.GetExpr); ok {
		if lid, ok := g.ID.Local(); ok && lid >= id {
			expirations[lid] = append(expirations[lid], id)
		}
		return
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		collectExpirations(id, e.Child(i), expirations)
	}
}

// attemptJoinSimplification replaces one input of a binary semijoin, if a
// suitable replacement is offered. At most one input is replaced.
func (st *semijoinState) attemptJoinSimplification(join *memo.JoinExpr) {
	ltr, rtl, ok := semijoinBijection(join.Inputs, join.Equivalences)
	if !ok {
		return
	}
	mapper := memo.MakeJoinInputMapperForInputs(join.Inputs)

	ids := func(e memo.RelExpr) []opt.ID {
		var res []opt.ID
		for _, g := range st.asFilteredGet(e) {
			res = append(res, g.id)
		}
		return res
	}
	ids0, ids1 := ids(join.Inputs[0]), ids(join.Inputs[1])
	typ0, typ1 := memo.Type(join.Inputs[0]), memo.Type(join.Inputs[1])

	// try replaces input `replaced` for the benefit of input `retained`.
	try := func(
		replaced, retained int,
		typReplaced, typRetained props.RelationType,
		toReplaced, fromReplaced map[int]int,
		retainedIDs []opt.ID,
	) bool {
		if !distinctOnKeysOf(&typReplaced, fromReplaced) ||
			mapper.InputArity(replaced) != len(join.Equivalences) {
			return false
		}
		for _, candidate := range st.listReplacements(join.Inputs[replaced]) {
			if !containsID(retainedIDs, candidate.id) {
				continue
			}
			perm, ok := validateReplacement(toReplaced, &candidate)
			if !ok {
				continue
			}
			log.VEventf(st.ctx, 2, "replacing join input %d with a semijoin of %s", replaced, candidate.id)
			join.Inputs[replaced] = memo.BuildProject(memo.CopyExpr(candidate.expr), perm)
			join.Implementation = memo.JoinImplementation{}

			// Reinstate the null rejection that the replaced input performed,
			// so that the retained input matches its other occurrences.
			var isNotNulls []tree.ScalarExpr
			for _, c := range sortedKeys(toReplaced) {
				if !typReplaced.ColumnTypes[toReplaced[c]].Nullable && typRetained.ColumnTypes[c].Nullable {
					isNotNulls = append(isNotNulls, tree.NewIsNotNull(tree.NewColumn(c)))
				}
			}
			if len(isNotNulls) > 0 {
				join.Inputs[retained] = memo.BuildFilter(join.Inputs[retained], tree.SortAndDedup(isNotNulls))
			}
			return true
		}
		return false
	}

	if try(1, 0, typ1, typ0, ltr, rtl, ids0) {
		return
	}
	try(0, 1, typ0, typ1, rtl, ltr, ids1)
}

// validateReplacement checks that the candidate's columns correspond exactly
// to the semijoin's column map, which maps columns of the retained input to
// columns of the replaced one. It returns the projection that puts the
// candidate's replacement in the column order of the replaced input.
func validateReplacement(m map[int]int, candidate *replacement) ([]int, bool) {
	if len(candidate.columns) != len(m) {
		return nil, false
	}
	for _, c := range candidate.columns {
		if to, ok := m[c.source]; !ok || to != c.offering {
			return nil, false
		}
	}
	slices.SortFunc(candidate.columns, func(a, b replacementColumn) int {
		return a.offering - b.offering
	})
	perm := make([]int, len(candidate.columns))
	for i, c := range candidate.columns {
		perm[i] = c.replacement
	}
	return perm, true
}

// listReplacements returns the semijoin replacements offered by e.
func (st *semijoinState) listReplacements(e memo.RelExpr) []replacement {
	switch t := e.(type) {
	case *memo.GetExpr:
		if lid, ok := t.ID.Local(); ok {
			var res []replacement
			for _, r := range st.letReplacements[lid] {
				res = append(res, r.copy())
			}
			return res
		}

	case *memo.JoinExpr:
		return st.listJoinReplacements(t)

	case *memo.ProjectExpr:
		return remapOffering(st.listReplacements(t.Input), func(c int) (int, bool) {
			return position(len(t.Outputs), func(i int) bool { return t.Outputs[i] == c })
		})

	case *memo.ReduceExpr:
		return remapOffering(st.listReplacements(t.Input), func(c int) (int, bool) {
			return position(len(t.GroupKey), func(i int) bool {
				col, ok := tree.AsColumn(t.GroupKey[i])
				return ok && col == c
			})
		})

	case *memo.ArrangeByExpr:
		return st.listReplacements(t.Input)
	}
	return nil
}

// remapOffering renumbers the offering columns of the replacements, dropping
// the replacements that lose a column.
func remapOffering(repls []replacement, remap func(c int) (int, bool)) []replacement {
	res := repls[:0]
	for _, r := range repls {
		cols := make([]replacementColumn, 0, len(r.columns))
		for _, c := range r.columns {
			if to, ok := remap(c.offering); ok {
				cols = append(cols, replacementColumn{source: c.source, offering: to, replacement: c.replacement})
			}
		}
		if len(cols) == len(r.columns) {
			r.columns = cols
			res = append(res, r)
		}
	}
	return res
}

// listJoinReplacements returns the replacements offered by a binary semijoin
// of a filtered Get with an input that is unique on the equated columns.
func (st *semijoinState) listJoinReplacements(join *memo.JoinExpr) []replacement {
	ltr, rtl, ok := semijoinBijection(join.Inputs, join.Equivalences)
	if !ok {
		return nil
	}
	var res []replacement
	offer := func(get, other int, toOther map[int]int, columns []replacementColumn) {
		for _, g := range st.asFilteredGet(join.Inputs[get]) {
			if !supportedByKeys(g.predicates, toOther) {
				continue
			}
			preds := make([]tree.ScalarExpr, len(g.predicates))
			for i, p := range g.predicates {
				preds[i] = tree.PermuteMap(p, toOther)
			}
			res = append(res, replacement{
				id:      g.id,
				columns: append([]replacementColumn(nil), columns...),
				expr:    memo.BuildFilter(memo.CopyExpr(join.Inputs[other]), preds),
			})
		}
	}

	typ1 := memo.Type(join.Inputs[1])
	if distinctOnKeysOf(&typ1, rtl) {
		var columns []replacementColumn
		for _, k0 := range sortedKeys(ltr) {
			columns = append(columns, replacementColumn{source: k0, offering: k0, replacement: ltr[k0]})
		}
		offer(0, 1, ltr, columns)
	}
	typ0 := memo.Type(join.Inputs[0])
	if distinctOnKeysOf(&typ0, ltr) {
		var columns []replacementColumn
		for _, k0 := range sortedKeys(ltr) {
			columns = append(columns, replacementColumn{source: ltr[k0], offering: k0, replacement: k0})
		}
		offer(1, 0, rtl, columns)
	}
	return res
}

// asFilteredGet interprets e as filters applied to a Get. Gets of let-bound
// values that are themselves filtered Gets yield one interpretation per
// binding, followed by the direct interpretation.
func (st *semijoinState) asFilteredGet(e memo.RelExpr) []filteredGet {
	var preds []tree.ScalarExpr
	for {
		f, ok := e.(*memo.FilterExpr)
		if !ok {
			break
		}
		preds = append(preds, f.Predicates...)
		e = f.Input
	}
	get, ok := e.(*memo.GetExpr)
	if !ok {
		return nil
	}
	var res []filteredGet
	if lid, ok := get.ID.Local(); ok {
		for _, bound := range st.getsBehindGets[lid] {
			combined := append(append([]tree.ScalarExpr(nil), bound.predicates...), preds...)
			res = append(res, filteredGet{id: bound.id, predicates: combined})
		}
	}
	return append(res, filteredGet{id: get.ID, predicates: preds})
}

// semijoinBijection returns the maps between the equated columns of a binary
// join whose equivalence classes each equate exactly one column of each
// input: ltr maps columns of the first input to columns of the second, rtl
// the reverse.
func semijoinBijection(
	inputs []memo.RelExpr, equivalences [][]tree.ScalarExpr,
) (ltr, rtl map[int]int, ok bool) {
	if len(inputs) != 2 {
		return nil, nil, false
	}
	mapper := memo.MakeJoinInputMapperForInputs(inputs)
	ltr, rtl = make(map[int]int), make(map[int]int)
	pairs := 0
	for _, class := range equivalences {
		if len(class) != 2 {
			continue
		}
		i0, ok0 := mapper.SingleInput(class[0])
		i1, ok1 := mapper.SingleInput(class[1])
		if !ok0 || !ok1 || i0 == i1 {
			continue
		}
		e0, e1 := class[0], class[1]
		if i0 == 1 {
			e0, e1 = e1, e0
		}
		c0, isCol0 := tree.AsColumn(mapper.MapExprToLocal(e0))
		c1, isCol1 := tree.AsColumn(mapper.MapExprToLocal(e1))
		if isCol0 && isCol1 {
			ltr[c0] = c1
			rtl[c1] = c0
			pairs++
		}
	}
	if pairs != len(equivalences) || len(ltr) != pairs || len(rtl) != pairs {
		return nil, nil, false
	}
	return ltr, rtl, true
}

// distinctOnKeysOf returns true if some unique key of typ consists of keys of
// m only.
func distinctOnKeysOf(typ *props.RelationType, m map[int]int) bool {
	return typ.HasKeyWithin(func(c int) bool {
		_, ok := m[c]
		return ok
	})
}

func supportedByKeys(predicates []tree.ScalarExpr, m map[int]int) bool {
	for _, p := range predicates {
		supported := true
		tree.Support(p).ForEach(func(c int) {
			if _, ok := m[c]; !ok {
				supported = false
			}
		})
		if !supported {
			return false
		}
	}
	return true
}

func containsID(ids []opt.ID, id opt.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func position(n int, match func(i int) bool) (int, bool) {
	for i := 0; i < n; i++ {
		if match(i) {
			return i, true
		}
	}
	return 0, false
}

func sortedKeys(m map[int]int) []int {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
