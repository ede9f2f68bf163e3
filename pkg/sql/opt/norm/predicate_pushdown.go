// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// PushFiltersThroughMap rewrites predicates over the output of a map with the
// given expressions so that they only refer to the map's input columns, by
// inlining the mapped expressions.
func PushFiltersThroughMap(
	mapExprs []tree.ScalarExpr, predicates []tree.ScalarExpr, inputArity int,
) []tree.ScalarExpr {
	var inline func(e tree.ScalarExpr) tree.ScalarExpr
	inline = func(e tree.ScalarExpr) tree.ScalarExpr {
		return tree.SubstituteColumns(e, func(c int) tree.ScalarExpr {
			if c >= inputArity {
				// Mapped expressions only refer to the columns before them.
				return inline(mapExprs[c-inputArity])
			}
			return tree.NewColumn(c)
		})
	}
	pushed := make([]tree.ScalarExpr, 0, len(predicates))
	for _, p := range predicates {
		pushed = append(pushed, inline(p))
	}
	return pushed
}

// PushFiltersThroughJoin determines which predicates over the output of a
// join could be applied to its inputs. A predicate that can be rewritten in
// terms of a single input using the equivalences is pushed to every such
// input; otherwise its necessary consequences are pushed to the inputs that
// have one, and the predicate itself is retained.
//
// The pushed predicates are in the local column context of their input.
func PushFiltersThroughJoin(
	mapper *memo.JoinInputMapper, equivalences [][]tree.ScalarExpr, predicates []tree.ScalarExpr,
) (retained []tree.ScalarExpr, pushDowns [][]tree.ScalarExpr) {
	pushDowns = make([][]tree.ScalarExpr, mapper.TotalInputs())
	for _, p := range predicates {
		pushed := false
		for input := range pushDowns {
			localized := p
			if mapper.TryLocalizeToInputWithBoundExpr(&localized, input, equivalences) {
				pushDowns[input] = append(pushDowns[input], localized)
				pushed = true
			} else if c, ok := mapper.ConsequenceForInput(localized, input); ok {
				pushDowns[input] = append(pushDowns[input], c)
			}
		}
		if !pushed {
			retained = append(retained, p)
		}
	}
	return retained, pushDowns
}
