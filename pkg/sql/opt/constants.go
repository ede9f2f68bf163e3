// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

// RecursionLimit is the maximum depth of relational expression nesting that
// the planner will descend into before giving up.
const RecursionLimit = 2048

// DefaultFixpointLimit is the default number of iterations a fixpoint loop
// may run before it is considered to oscillate.
const DefaultFixpointLimit = 100
