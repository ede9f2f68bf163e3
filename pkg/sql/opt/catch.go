// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import "github.com/streamdb/streamdb/pkg/util/errorutil"

// CatchOptimizerError converts the result of recover() from a panicking
// optimizer function into an error. This allows the optimizer to propagate
// errors internally as panics without adding error checks everywhere. This is
// only possible because the optimizer code does not update shared state and
// does not manipulate locks.
//
// Usage:
//
//	defer func() {
//	  if r := recover(); r != nil {
//	    err = opt.CatchOptimizerError(r)
//	  }
//	}()
func CatchOptimizerError(r interface{}) error {
	ok, err := errorutil.ShouldCatch(r)
	if !ok {
		// Not an error object. For serious internal errors e.g. in the scheduler,
		// bad goroutine state, allocator problem etc, the go runtime throws a
		// string which does not implement error. So in this case we suspect we are
		// not able to recover, and must crash.
		panic(r)
	}
	return err
}
