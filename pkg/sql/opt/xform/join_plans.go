// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// planDifferential plans the join as a linear differential join. It returns
// the planned expression, which is the join possibly beneath lifted map,
// filter and project operators, and the number of arrangements the plan
// creates.
func planDifferential(
	join *memo.JoinExpr, in *planningInputs, features *opt.Features,
) (memo.RelExpr, int, error) {
	newJoin := memo.CopyExpr(join).(*memo.JoinExpr)
	orders, err := optimizeOrders(newJoin.Equivalences, in, features)
	if err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return nil, 0, errors.AssertionFailedf("differential plan for a join with no inputs")
	}

	newInputArrangements := make([]int, len(orders))
	for i, order := range orders {
		newInputArrangements[i] = countNewArrangements(order)
	}

	// A filter applied at one step of an order also reduces every later step.
	for _, order := range orders {
		var sum memo.FilterCharacteristics
		for i := range order {
			order[i].characteristics.Filters = order[i].characteristics.Filters.Or(sum)
			sum = order[i].characteristics.Filters
		}
	}

	best := minimaxOrder(orders)

	steps := make([]memo.JoinStep, len(orders[best]))
	for i := range orders[best] {
		steps[i] = orders[best][i].step()
	}
	start := steps[0].Input
	newArrangements := newInputArrangements[start]
	if n := len(newJoin.Inputs); n > 2 {
		newArrangements += n - 2
	}

	lifted, liftedProjections := implementArrangements(newJoin.Inputs, in.available, steps)
	permuteSteps(steps, liftedProjections)
	newJoin.Implementation = memo.JoinImplementation{
		Kind:  memo.Differential,
		Start: steps[0],
		Order: steps[1:],
	}
	return installLiftedMFP(newJoin, lifted), newArrangements, nil
}

// planDelta plans the join as a delta query, with one order per input. It
// returns the planned expression and the number of arrangements the plan
// creates.
func planDelta(
	join *memo.JoinExpr, in *planningInputs, features *opt.Features,
) (memo.RelExpr, int, error) {
	newJoin := memo.CopyExpr(join).(*memo.JoinExpr)
	orders, err := optimizeOrders(newJoin.Equivalences, in, features)
	if err != nil {
		return nil, 0, err
	}

	// The start of each order streams its updates; every other input is
	// looked up and needs an arrangement.
	seen := make(map[string]struct{})
	deltaOrders := make([][]memo.JoinStep, len(orders))
	var needed []memo.JoinStep
	for i, order := range orders {
		for j := 1; j < len(order); j++ {
			if !order[j].characteristics.Arranged {
				seen[arrangementKey(order[j].input, order[j].key)] = struct{}{}
			}
			step := order[j].step()
			deltaOrders[i] = append(deltaOrders[i], step)
			needed = append(needed, step)
		}
	}

	lifted, liftedProjections := implementArrangements(newJoin.Inputs, in.available, needed)
	for _, order := range deltaOrders {
		permuteSteps(order, liftedProjections)
	}
	newJoin.Implementation = memo.JoinImplementation{
		Kind:   memo.DeltaQuery,
		Orders: deltaOrders,
	}
	return installLiftedMFP(newJoin, lifted), len(seen), nil
}

// countNewArrangements returns the number of distinct unarranged (input, key)
// pairs in the order.
func countNewArrangements(order []orderEntry) int {
	seen := make(map[string]struct{})
	for i := range order {
		if !order[i].characteristics.Arranged {
			seen[arrangementKey(order[i].input, order[i].key)] = struct{}{}
		}
	}
	return len(seen)
}

func arrangementKey(input int, key []tree.ScalarExpr) string {
	return strconv.Itoa(input) + tree.FormatList(key)
}

// minimaxOrder returns the index of the order whose worst step is best.
// Among orders with equally ranked worst steps it prefers the one that ranks
// best step by step, and the later one on a full tie.
func minimaxOrder(orders [][]orderEntry) int {
	best := 0
	bestWorst := worstCharacteristics(orders[0])
	for i := 1; i < len(orders); i++ {
		worst := worstCharacteristics(orders[i])
		c := worst.Compare(bestWorst)
		if c == 0 {
			c = compareOrders(orders[i], orders[best])
		}
		if c >= 0 {
			best, bestWorst = i, worst
		}
	}
	return best
}

// worstCharacteristics returns the lowest ranked characteristics of a
// non-empty order. Keys play no part in the ranking.
func worstCharacteristics(order []orderEntry) *memo.JoinInputCharacteristics {
	worst := &order[0].characteristics
	for i := 1; i < len(order); i++ {
		if order[i].characteristics.Compare(worst) < 0 {
			worst = &order[i].characteristics
		}
	}
	return worst
}

// compareOrders compares the characteristics of two orders step by step.
func compareOrders(a, b []orderEntry) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].characteristics.Compare(&b[i].characteristics); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// implementArrangements rewrites the inputs so that each is arranged by
// exactly the keys the steps look it up by. If all the keys an input needs
// already exist beneath its map, filter and project operators, those
// operators are lifted off the input so that the existing arrangements can be
// used directly.
//
// It returns the lifted operators combined into one MFP over the columns of
// the rewritten join, and for each input whose operators were lifted, the
// lifted projection (nil for the other inputs). The keys of the steps still
// refer to the columns of the original inputs; permuteSteps translates them.
func implementArrangements(
	inputs []memo.RelExpr, available [][][]tree.ScalarExpr, steps []memo.JoinStep,
) (memo.MapFilterProject, [][]int) {
	needed := make([][][]tree.ScalarExpr, len(inputs))
	for _, s := range steps {
		needed[s.Input] = append(needed[s.Input], s.Key)
	}

	liftedMFPs := make([]*memo.MapFilterProject, len(inputs))
	liftedProjections := make([][]int, len(inputs))
	for i := range inputs {
		keys := tree.SortAndDedupLists(needed[i])
		if len(keys) > 0 && allAvailable(keys, available[i]) {
			mfp := memo.LiftFromExpr(&inputs[i])
			liftedMFPs[i] = &mfp
		}
		for {
			a, ok := inputs[i].(*memo.ArrangeByExpr)
			if !ok {
				break
			}
			inputs[i] = a.Input
		}
		if liftedMFPs[i] != nil {
			_, _, project := liftedMFPs[i].AsMapFilterProject()
			keys = permuteKeys(keys, project)
			liftedProjections[i] = project
		}
		if len(keys) > 0 {
			inputs[i] = memo.BuildArrangeBy(inputs[i], keys)
		}
	}

	mapper := memo.MakeJoinInputMapperForInputs(inputs)
	arity := mapper.TotalColumns()
	combined := memo.MakeMapFilterProject(arity)
	var mapExprs, predicates []tree.ScalarExpr
	var projection []int
	for i, lifted := range liftedMFPs {
		global := mapper.GlobalColumns(i)
		if lifted == nil {
			projection = append(projection, global...)
			continue
		}
		// Input columns become join columns; mapped columns go after all the
		// columns mapped so far.
		m, f, p := lifted.Permute(func(c int) int { return global[c] }, arity).AsMapFilterProject()
		arity += len(m)
		mapExprs = append(mapExprs, m...)
		predicates = append(predicates, f...)
		projection = append(projection, p...)
	}
	return combined.Map(mapExprs).Filter(predicates).Project(projection), liftedProjections
}

func allAvailable(keys, available [][]tree.ScalarExpr) bool {
	for _, key := range keys {
		found := false
		for _, a := range available {
			if tree.ListsEqual(key, a) {
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

func permuteKeys(keys [][]tree.ScalarExpr, project []int) [][]tree.ScalarExpr {
	res := make([][]tree.ScalarExpr, len(keys))
	for i, key := range keys {
		res[i] = make([]tree.ScalarExpr, len(key))
		for j, k := range key {
			res[i][j] = tree.Permute(k, project)
		}
	}
	return res
}

// permuteSteps translates the keys of the steps through the projections
// lifted off their inputs.
func permuteSteps(steps []memo.JoinStep, liftedProjections [][]int) {
	for i := range steps {
		if project := liftedProjections[steps[i].Input]; project != nil {
			steps[i].Key = permuteKeys([][]tree.ScalarExpr{steps[i].Key}, project)[0]
		}
	}
}

// installLiftedMFP places the MFP lifted off the inputs above the join. The
// equivalences, which refer to the columns of the original inputs, are
// translated through the MFP's projection, with references to mapped columns
// replaced by the mapped expressions. The map expressions and predicates are
// then canonicalized against the equivalences, so that predicates lifted from
// different inputs that are equal under the join collapse into one.
func installLiftedMFP(join *memo.JoinExpr, mfp memo.MapFilterProject) memo.RelExpr {
	if mfp.IsIdentity() {
		return join
	}
	mapExprs, predicates, project := mfp.AsMapFilterProject()

	var inline func(e tree.ScalarExpr) tree.ScalarExpr
	inline = func(e tree.ScalarExpr) tree.ScalarExpr {
		return tree.SubstituteColumns(e, func(c int) tree.ScalarExpr {
			if c >= mfp.InputArity {
				return inline(mapExprs[c-mfp.InputArity])
			}
			return tree.NewColumn(c)
		})
	}
	for _, class := range join.Equivalences {
		for i := range class {
			class[i] = inline(tree.Permute(class[i], project))
		}
	}

	c := memo.NewCanonicalizer(join.Equivalences)
	for i := range mapExprs {
		mapExprs[i] = c.Canonicalize(mapExprs[i])
	}
	for i := range predicates {
		predicates[i] = c.Canonicalize(predicates[i])
	}
	return memo.BuildProject(memo.BuildFilter(memo.BuildMap(join, mapExprs), predicates), project)
}
