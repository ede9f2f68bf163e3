// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

func levelString(l Level) string {
	return strconv.Itoa(int(l))
}

func parseLevel(s string) (Level, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid verbosity %q", s)
	}
	if v < 0 {
		return 0, errors.Newf("verbosity must be non-negative, got %d", v)
	}
	return Level(v), nil
}
