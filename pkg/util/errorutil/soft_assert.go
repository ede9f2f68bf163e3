// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package errorutil contains helpers for reporting unexpected conditions.
package errorutil

import (
	"context"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/util/buildutil"
	"github.com/streamdb/streamdb/pkg/util/log"
)

var softAssertLogLimiter = log.Every(10 * time.Second)

// SoftAssertf reports a condition that should never happen but that the
// caller can recover from. In test builds (invariants or race) it panics with
// an assertion failure; otherwise it logs a rate-limited warning and returns.
func SoftAssertf(ctx context.Context, format string, args ...interface{}) {
	err := errors.AssertionFailedWithDepthf(1, format, args...)
	if buildutil.Invariants {
		panic(err)
	}
	if softAssertLogLimiter.ShouldLog() {
		log.Warningf(ctx, "%v", err)
	}
}

// ShouldCatch is used for catching errors thrown as panics. Its argument is the
// object returned by recover(); it succeeds if the object is an error. If the
// error is a runtime.Error, it is converted to an internal error.
func ShouldCatch(obj interface{}) (ok bool, err error) {
	err, ok = obj.(error)
	if ok {
		if errors.HasInterface(err, (*runtime.Error)(nil)) {
			// Convert runtime errors to internal errors, which display the stack.
			err = errors.HandleAsAssertionFailure(err)
		}
	}
	return ok, err
}
