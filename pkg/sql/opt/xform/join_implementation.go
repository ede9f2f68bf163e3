// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/norm"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/errorutil"
	"github.com/streamdb/streamdb/pkg/util/log"
)

// JoinImplementation chooses the implementation of join operators: a linear
// differential join or a delta query, together with the arrangements of the
// inputs that the implementation looks up.
//
// It is meant to run in a fixpoint loop. A join moves from Unimplemented to
// Differential or DeltaQuery, and possibly once more from Differential to
// DeltaQuery when the arrangements installed for the differential plan make
// a delta query free. DeltaQuery and IndexedFilter joins are left alone.
type JoinImplementation struct {
	guard opt.RecursionGuard
}

var _ Transform = &JoinImplementation{}

// Name is part of the Transform interface.
func (*JoinImplementation) Name() string {
	return "JoinImplementation"
}

// Transform is part of the Transform interface.
func (j *JoinImplementation) Transform(
	ctx context.Context, e *memo.RelExpr, tc *TransformCtx,
) error {
	return j.actionRecursive(ctx, e, NewIndexMap(tc.Indexes), tc.statistics(), &tc.Features)
}

// actionRecursive visits the expression pre-order, tracking the arrangements
// of Let-bound collections so that joins in the body can use them.
func (j *JoinImplementation) actionRecursive(
	ctx context.Context,
	ref *memo.RelExpr,
	indexes *IndexMap,
	stats cat.StatisticsOracle,
	features *opt.Features,
) error {
	return j.guard.CheckedRecur(func() error {
		if let, ok := (*ref).(*memo.LetExpr); ok {
			if err := j.actionRecursive(ctx, &let.Value, indexes, stats, features); err != nil {
				return err
			}
			switch v := let.Value.(type) {
			case *memo.ArrangeByExpr:
				for _, key := range v.Keys {
					indexes.AddLocal(let.ID, key)
				}
			case *memo.ReduceExpr:
				indexes.AddLocal(let.ID, columnKey(len(v.GroupKey)))
			}
			err := j.actionRecursive(ctx, &let.Body, indexes, stats, features)
			indexes.RemoveLocal(let.ID)
			return err
		}

		mfp, input := memo.ExtractFromExprRef(ref)
		for i, n := 0, (*input).ChildCount(); i < n; i++ {
			if err := j.actionRecursive(ctx, (*input).ChildRef(i), indexes, stats, features); err != nil {
				return err
			}
		}
		return j.action(ctx, input, mfp, indexes, stats, features)
	})
}

// action plans the join in *ref, if it is one. mfpAbove holds the map,
// filter and project operators directly above the join; its predicates
// inform the ranking of the inputs but are not moved.
func (j *JoinImplementation) action(
	ctx context.Context,
	ref *memo.RelExpr,
	mfpAbove memo.MapFilterProject,
	indexes *IndexMap,
	stats cat.StatisticsOracle,
	features *opt.Features,
) error {
	join, ok := (*ref).(*memo.JoinExpr)
	if !ok {
		return nil
	}
	old := join.Implementation.Kind
	if old != memo.Unimplemented && old != memo.Differential {
		return nil
	}
	if old == memo.Differential && len(join.Implementation.Order)+1 != len(join.Inputs) {
		errorutil.SoftAssertf(ctx, "differential join over %d inputs has %d steps",
			len(join.Inputs), len(join.Implementation.Order)+1)
		join.Implementation = memo.JoinImplementation{}
		old = memo.Unimplemented
	}
	// Eager planning settles on the first visit; a delta query that the
	// differential plan's arrangements could enable would have been chosen
	// then.
	if features.EagerDeltaJoins && old != memo.Unimplemented {
		log.VEventf(ctx, 2, "keeping %s join planned eagerly", old)
		return nil
	}

	// Canonicalizing may change the equivalences even when they are already
	// canonical, which would invalidate a plan that is kept.
	if old == memo.Unimplemented {
		join.Equivalences = memo.CanonicalizeEquivalences(join.Equivalences)
	}
	in := makePlanningInputs(join, mfpAbove, indexes, stats, features)
	n := len(join.Inputs)

	if old == memo.Differential {
		if n <= 2 {
			return nil
		}
		plan, newArrangements, err := planDelta(join, in, features)
		if err == nil && newArrangements == 0 {
			log.VEventf(ctx, 2, "replacing differential join with delta query")
			*ref = plan
		}
		return nil
	}

	differential, differentialNew, err := planDifferential(join, in, features)
	if err != nil {
		return errors.Wrap(err, "planning differential join")
	}
	// Binary joins are always differential; a single input join is a filter
	// over an arrangement.
	if n <= 2 || !features.EagerDeltaJoins {
		log.VEventf(ctx, 2, "planned differential join creating %d arrangements", differentialNew)
		*ref = differential
		return nil
	}

	delta, deltaNew, err := planDelta(join, in, features)
	if err != nil {
		log.Warningf(ctx, "delta query planning failed, keeping differential join: %v", err)
		*ref = differential
		return nil
	}
	log.VEventf(ctx, 2, "delta query creates %d arrangements, differential join %d",
		deltaNew, differentialNew)
	if deltaNew <= differentialNew {
		*ref = delta
	} else {
		*ref = differential
	}
	return nil
}

// makePlanningInputs gathers the arrangements, unique keys, cardinality
// estimates and filter characteristics of the inputs of the join.
func makePlanningInputs(
	join *memo.JoinExpr,
	mfpAbove memo.MapFilterProject,
	indexes *IndexMap,
	stats cat.StatisticsOracle,
	features *opt.Features,
) *planningInputs {
	n := len(join.Inputs)
	in := &planningInputs{
		mapper:        memo.MakeJoinInputMapperForInputs(join.Inputs),
		available:     make([][][]tree.ScalarExpr, n),
		uniqueKeys:    make([][][]int, n),
		cardinalities: make([]*uint64, n),
		filters:       make([]memo.FilterCharacteristics, n),
	}

	// Predicates above the join that could be applied to an input count
	// towards its filters.
	mapExprs, predicates, _ := mfpAbove.AsMapFilterProject()
	pushed := norm.PushFiltersThroughMap(mapExprs, predicates, mfpAbove.InputArity)
	_, pushDowns := norm.PushFiltersThroughJoin(&in.mapper, join.Equivalences, pushed)

	for i, input := range join.Inputs {
		typ := memo.Type(input)
		in.uniqueKeys[i] = typ.Keys

		// The operators above an input can be lifted into the join, so the
		// input is judged by what is beneath them.
		mfp, inner := memo.ExtractFromExpr(input)
		_, filters, project := mfp.AsMapFilterProject()

		characteristics := memo.FilterCharacteristicsOf(filters)
		if isIndexedFilter(inner) {
			characteristics.AddLiteralEquality()
		}
		if a, ok := inner.(*memo.ArrangeByExpr); ok {
			arrangedMFP, arranged := memo.ExtractFromExpr(a.Input)
			_, arrangedFilters, _ := arrangedMFP.AsMapFilterProject()
			characteristics = characteristics.Or(memo.FilterCharacteristicsOf(arrangedFilters))
			if isIndexedFilter(arranged) {
				characteristics.AddLiteralEquality()
			}
		}
		pushDown := memo.FilterCharacteristicsOf(pushDowns[i])
		characteristics = characteristics.Or(pushDown)
		in.filters[i] = characteristics

		if features.CardinalityEstimates {
			if estimate, ok := memo.EstimateCardinality(inner, stats); ok {
				scaled := uint64(math.Round(float64(estimate) * pushDown.WorstCaseScalingFactor()))
				in.cardinalities[i] = &scaled
			}
		}

		in.available[i] = availableArrangements(inner, project, indexes)
		// Only keys all of whose expressions take part in the join are usable.
		usable := in.available[i][:0]
		for _, key := range in.available[i] {
			if keyInEquivalences(&in.mapper, i, key, join.Equivalences) {
				usable = append(usable, key)
			}
		}
		in.available[i] = usable
	}
	return in
}

// availableArrangements returns the arrangement keys that exist for the
// expression beneath the MFP of a join input, translated to the columns of
// the input. Keys that refer to columns projected away are dropped.
func availableArrangements(
	inner memo.RelExpr, project []int, indexes *IndexMap,
) [][]tree.ScalarExpr {
	var keys [][]tree.ScalarExpr
	switch t := inner.(type) {
	case *memo.GetExpr:
		keys = append(keys, indexes.Get(t.ID)...)
	case *memo.ArrangeByExpr:
		keys = append(keys, t.Keys...)
		if g, ok := t.Input.(*memo.GetExpr); ok {
			keys = append(keys, indexes.Get(g.ID)...)
		}
	case *memo.ReduceExpr:
		keys = append(keys, columnKey(len(t.GroupKey)))
	case *memo.JoinExpr:
		if t.Implementation.Kind == memo.IndexedFilter {
			keys = append(keys, indexes.Get(opt.MakeGlobalID(t.Implementation.Collection))...)
		}
	}
	keys = tree.SortAndDedupLists(keys)

	reverse := make(map[int]int, len(project))
	for i, c := range project {
		reverse[c] = i
	}
	var res [][]tree.ScalarExpr
	for _, key := range keys {
		projected := true
		for _, k := range key {
			tree.Support(k).ForEach(func(c int) {
				if _, ok := reverse[c]; !ok {
					projected = false
				}
			})
		}
		if !projected {
			continue
		}
		permuted := make([]tree.ScalarExpr, len(key))
		for j, k := range key {
			permuted[j] = tree.PermuteMap(k, reverse)
		}
		res = append(res, permuted)
	}
	return res
}

func keyInEquivalences(
	mapper *memo.JoinInputMapper, input int, key []tree.ScalarExpr, equivalences [][]tree.ScalarExpr,
) bool {
	for _, k := range key {
		global := mapper.MapExprToGlobal(k, input)
		found := false
		for _, class := range equivalences {
			if tree.Contains(class, global) {
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

func isIndexedFilter(e memo.RelExpr) bool {
	j, ok := e.(*memo.JoinExpr)
	return ok && j.Implementation.Kind == memo.IndexedFilter
}

// columnKey returns the key made of the first n columns.
func columnKey(n int) []tree.ScalarExpr {
	key := make([]tree.ScalarExpr, n)
	for i := range key {
		key[i] = tree.NewColumn(i)
	}
	return key
}

// JoinOrders returns the order the planner would consider starting from each
// input of the join, with the arrangements of the catalog and the filters
// beneath each input taken into account. The join is not modified. Order i
// starts with input i.
func JoinOrders(join *memo.JoinExpr, tc *TransformCtx) ([][]memo.JoinStep, error) {
	join = memo.CopyExpr(join).(*memo.JoinExpr)
	join.Equivalences = memo.CanonicalizeEquivalences(join.Equivalences)
	in := makePlanningInputs(
		join, memo.MakeMapFilterProject(memo.Arity(join)), NewIndexMap(tc.Indexes),
		tc.statistics(), &tc.Features,
	)
	orders, err := optimizeOrders(join.Equivalences, in, &tc.Features)
	if err != nil {
		return nil, err
	}
	res := make([][]memo.JoinStep, len(orders))
	for i, order := range orders {
		for j := range order {
			res[i] = append(res[i], order[j].step())
		}
	}
	return res, nil
}
