// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package errorutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/util/buildutil"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestSoftAssertf(t *testing.T) {
	ctx := context.Background()
	if buildutil.Invariants {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			require.True(t, errors.HasAssertionFailure(err))
		}()
		SoftAssertf(ctx, "unexpected %d", 1)
		return
	}
	var buf bytes.Buffer
	defer log.SetOutput(&buf)()
	SoftAssertf(ctx, "unexpected %d", 1)
	require.Contains(t, buf.String(), "unexpected 1")
}

func TestShouldCatch(t *testing.T) {
	ok, err := ShouldCatch(errors.New("boom"))
	require.True(t, ok)
	require.EqualError(t, err, "boom")
	require.False(t, errors.HasAssertionFailure(err))

	func() {
		defer func() {
			ok, err := ShouldCatch(recover())
			require.True(t, ok)
			require.True(t, errors.HasAssertionFailure(err))
		}()
		var s []int
		_ = s[3]
	}()

	ok, _ = ShouldCatch("not an error")
	require.False(t, ok)
}
