// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// ErrRecursionLimitExceeded is returned (wrapped) when a traversal nests
// deeper than its RecursionGuard allows. Test for it with errors.Is.
var ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")

// RecursionGuard bounds the depth of a recursive traversal. The zero value
// uses RecursionLimit.
type RecursionGuard struct {
	depth int
	limit int
}

// MakeRecursionGuard returns a guard with the given limit.
func MakeRecursionGuard(limit int) RecursionGuard {
	return RecursionGuard{limit: limit}
}

// CheckedRecur runs fn one level deeper, failing without calling fn if the
// limit would be exceeded.
func (g *RecursionGuard) CheckedRecur(fn func() error) error {
	limit := g.limit
	if limit == 0 {
		limit = RecursionLimit
	}
	if g.depth >= limit {
		return errors.Wrapf(ErrRecursionLimitExceeded, "exceeded limit of %d", redact.Safe(limit))
	}
	g.depth++
	defer func() { g.depth-- }()
	return fn()
}

// Depth returns the current nesting depth.
func (g *RecursionGuard) Depth() int {
	return g.depth
}
