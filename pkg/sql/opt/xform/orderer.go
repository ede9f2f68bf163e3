// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"container/heap"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/intsets"
)

// orderEntry is one step of a join order under construction: the input, the
// key (local to the input) under which it is looked up, and its ranking.
type orderEntry struct {
	characteristics memo.JoinInputCharacteristics
	key             []tree.ScalarExpr
	input           int
}

// compare orders entries by characteristics, then by key, then by input.
func (e *orderEntry) compare(o *orderEntry) int {
	if c := e.characteristics.Compare(&o.characteristics); c != 0 {
		return c
	}
	if c := tree.CompareLists(e.key, o.key); c != 0 {
		return c
	}
	switch {
	case e.input < o.input:
		return -1
	case e.input > o.input:
		return 1
	}
	return 0
}

func (e *orderEntry) step() memo.JoinStep {
	c := e.characteristics
	return memo.JoinStep{Input: e.input, Key: e.key, Characteristics: &c}
}

// candidateHeap is a max-heap of candidate order entries.
type candidateHeap []orderEntry

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].compare(&h[j]) > 0 }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	// Push and Pop use pointer receivers because they modify the slice's length,
	// not just its contents.
	*h = append(*h, x.(orderEntry))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// equivalenceMember identifies an expression in the equivalence classes of a
// join.
type equivalenceMember struct {
	class, member int
}

// planningInputs holds what the join planners know about each input of a
// join. All slices are indexed by input.
type planningInputs struct {
	mapper memo.JoinInputMapper
	// available holds the keys of the arrangements that exist for each input,
	// local to the input.
	available [][][]tree.ScalarExpr
	// uniqueKeys holds the unique keys of each input.
	uniqueKeys [][][]int
	// cardinalities holds the estimated row count of each input, or nil.
	cardinalities []*uint64
	// filters summarizes the filters known to apply to each input.
	filters []memo.FilterCharacteristics
}

// orderer greedily builds join orders. Its search state is reset at the start
// of each search, so one orderer serves every start input of a join.
type orderer struct {
	equivalences [][]tree.ScalarExpr
	in           *planningInputs
	features     *opt.Features

	// reverseEquivalences lists, per input, the equivalence class members
	// that reference it.
	reverseEquivalences [][]equivalenceMember
	// uniqueArrangement records, per input and arrangement, whether the
	// arrangement key contains a unique key of the input.
	uniqueArrangement [][]bool

	order              []orderEntry
	placed             []bool
	bound              [][]tree.ScalarExpr
	equivalencesActive []bool
	arrangementActive  []intsets.Fast
	queue              candidateHeap
}

func newOrderer(
	equivalences [][]tree.ScalarExpr, in *planningInputs, features *opt.Features,
) *orderer {
	n := len(in.available)
	o := &orderer{
		equivalences:        equivalences,
		in:                  in,
		features:            features,
		reverseEquivalences: make([][]equivalenceMember, n),
		uniqueArrangement:   make([][]bool, n),
		placed:              make([]bool, n),
		bound:               make([][]tree.ScalarExpr, n),
		equivalencesActive:  make([]bool, len(equivalences)),
		arrangementActive:   make([]intsets.Fast, n),
	}
	for class, equivalence := range equivalences {
		for member, e := range equivalence {
			for _, input := range in.mapper.LookupInputs(e) {
				o.reverseEquivalences[input] = append(
					o.reverseEquivalences[input], equivalenceMember{class: class, member: member},
				)
			}
		}
	}
	for input, keys := range in.available {
		for _, key := range keys {
			o.uniqueArrangement[input] = append(
				o.uniqueArrangement[input], containsUniqueKey(in.uniqueKeys[input], key),
			)
		}
	}
	return o
}

// containsUniqueKey returns true if every column of one of the unique keys
// appears as a plain column reference in exprs.
func containsUniqueKey(uniqueKeys [][]int, exprs []tree.ScalarExpr) bool {
	for _, cols := range uniqueKeys {
		all := true
		for _, c := range cols {
			if !tree.Contains(exprs, tree.NewColumn(c)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (o *orderer) characteristics(
	unique bool, keyLength int, arranged bool, input int,
) memo.JoinInputCharacteristics {
	return memo.NewJoinInputCharacteristics(
		unique, keyLength, arranged, o.in.cardinalities[input], o.in.filters[input], input, o.features,
	)
}

func (o *orderer) reset() {
	o.order = nil
	o.queue = o.queue[:0]
	for input := range o.placed {
		o.placed[input] = false
		o.bound[input] = nil
		o.arrangementActive[input] = intsets.Fast{}
	}
	for i := range o.equivalencesActive {
		o.equivalencesActive[i] = false
	}
}

// optimizeOrders returns one order per input of the join; the ith order
// starts with input i and contains every input exactly once.
func optimizeOrders(
	equivalences [][]tree.ScalarExpr, in *planningInputs, features *opt.Features,
) ([][]orderEntry, error) {
	o := newOrderer(equivalences, in, features)
	orders := make([][]orderEntry, len(in.available))
	for start := range orders {
		order, err := o.optimizeOrderFor(start)
		if err != nil {
			return nil, err
		}
		orders[start] = order
	}
	return orders, nil
}

// optimizeOrderFor returns the greedy order that starts with the given input.
func (o *orderer) optimizeOrderFor(start int) ([]orderEntry, error) {
	o.reset()
	n := len(o.placed)

	// Every input can always be cross joined.
	for input := 0; input < n; input++ {
		unique := false
		for _, cols := range o.in.uniqueKeys[input] {
			if len(cols) == 0 {
				unique = true
			}
		}
		arranged := false
		for pos, key := range o.in.available[input] {
			if len(key) == 0 {
				o.arrangementActive[input].Add(pos)
				arranged = true
				break
			}
		}
		heap.Push(&o.queue, orderEntry{
			characteristics: o.characteristics(unique, 0, arranged, input),
			input:           input,
		})
	}

	if n > 1 {
		o.orderInput(start)
		for len(o.order) < n-1 {
			next := heap.Pop(&o.queue).(orderEntry)
			if !o.placed[next.input] {
				o.order = append(o.order, next)
				o.orderInput(next.input)
			}
		}
	}

	// The start input is looked up by the key the second input expects, read
	// in the start input's columns.
	first := orderEntry{
		characteristics: o.characteristics(false, 0, false, start),
		input:           start,
	}
	if len(o.order) > 0 {
		second := &o.order[0]
		var startKey []tree.ScalarExpr
		for _, k := range second.key {
			global := o.in.mapper.MapExprToGlobal(k, second.input)
			if bound, ok := o.in.mapper.FindBoundExpr(global, []int{start}, o.equivalences); ok {
				startKey = append(startKey, o.in.mapper.MapExprToLocal(bound))
			}
		}
		if len(startKey) != len(second.key) {
			return nil, errors.AssertionFailedf(
				"join order starting at input %d: key %s of input %d is not bound by the start",
				start, tree.FormatList(second.key), second.input,
			)
		}
		arranged := false
		for _, key := range o.in.available[start] {
			if tree.ListsEqual(key, startKey) {
				arranged = true
				break
			}
		}
		first = orderEntry{
			characteristics: o.characteristics(
				containsUniqueKey(o.in.uniqueKeys[start], startKey), len(startKey), arranged, start,
			),
			key:   startKey,
			input: start,
		}
	}
	order := append([]orderEntry{first}, o.order...)
	o.order = nil
	return order, nil
}

// orderInput places the input and queues the candidates that become possible:
// every equivalence class that the placed inputs now fully determine binds
// expressions of other inputs, making arrangements on them usable.
func (o *orderer) orderInput(input int) {
	o.placed[input] = true
	for _, ref := range o.reverseEquivalences[input] {
		if o.equivalencesActive[ref.class] {
			continue
		}
		if !o.allPlaced(o.in.mapper.LookupInputs(o.equivalences[ref.class][ref.member])) {
			continue
		}
		o.equivalencesActive[ref.class] = true
		for _, e := range o.equivalences[ref.class] {
			// Literals and expressions over several inputs bind nothing.
			rel, ok := o.in.mapper.SingleInput(e)
			if !ok {
				continue
			}
			o.bound[rel] = append(o.bound[rel], o.in.mapper.MapExprToLocal(e))
			slices.SortStableFunc(o.bound[rel], tree.Compare)

			for pos, key := range o.in.available[rel] {
				if o.arrangementActive[rel].Contains(pos) || !o.allBound(rel, key) {
					continue
				}
				o.arrangementActive[rel].Add(pos)
				heap.Push(&o.queue, orderEntry{
					characteristics: o.characteristics(o.uniqueArrangement[rel][pos], len(key), true, rel),
					key:             key,
					input:           rel,
				})
			}

			heap.Push(&o.queue, orderEntry{
				characteristics: o.characteristics(
					containsUniqueKey(o.in.uniqueKeys[rel], o.bound[rel]), len(o.bound[rel]), false, rel,
				),
				key:   append([]tree.ScalarExpr(nil), o.bound[rel]...),
				input: rel,
			})
		}
	}
}

func (o *orderer) allPlaced(inputs []int) bool {
	for _, i := range inputs {
		if !o.placed[i] {
			return false
		}
	}
	return true
}

func (o *orderer) allBound(input int, key []tree.ScalarExpr) bool {
	for _, k := range key {
		if !tree.Contains(o.bound[input], k) {
			return false
		}
	}
	return true
}
