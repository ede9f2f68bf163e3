// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/stretchr/testify/require"
)

func TestFormatWithContextTags(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "hello 3", FormatWithContextTags(ctx, "hello %d", 3))

	ctx = logtags.AddTag(ctx, "join", 3)
	ctx = logtags.AddTag(ctx, "eager", nil)
	require.Equal(t, "[join=3,eager] planning", FormatWithContextTags(ctx, "planning"))
}

func TestVerbosity(t *testing.T) {
	defer SetVerbosity(SetVerbosity(0))
	require.False(t, V(1))
	SetVerbosity(2)
	require.True(t, V(1))
	require.True(t, V(2))
	require.False(t, V(3))
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()
	defer SetVerbosity(SetVerbosity(0))

	ctx := logtags.AddTag(context.Background(), "n", 1)
	Warningf(ctx, "delta planning failed: %s", "boom")
	VEventf(ctx, 1, "not shown")
	require.Contains(t, buf.String(), "[n=1] delta planning failed: boom")
	require.Contains(t, buf.String(), "WRN")
	require.NotContains(t, buf.String(), "not shown")
}

func TestSetOutputRestores(t *testing.T) {
	var outer, inner bytes.Buffer
	defer SetOutput(&outer)()
	ctx := context.Background()

	restore := SetOutput(&inner)
	Warningf(ctx, "to inner")
	restore()
	Warningf(ctx, "to outer")

	require.Contains(t, inner.String(), "to inner")
	require.NotContains(t, inner.String(), "to outer")
	require.Contains(t, outer.String(), "to outer")
	require.NotContains(t, outer.String(), "to inner")
}

func TestEveryN(t *testing.T) {
	defer SetVerbosity(SetVerbosity(0))
	e := Every(time.Minute)
	now := time.Now()
	require.True(t, e.shouldLog(now))
	require.False(t, e.shouldLog(now.Add(time.Second)))
	require.True(t, e.shouldLog(now.Add(2*time.Minute)))
}

func TestParseLevel(t *testing.T) {
	l, err := parseLevel("3")
	require.NoError(t, err)
	require.Equal(t, Level(3), l)
	_, err = parseLevel("x")
	require.Error(t, err)
	_, err = parseLevel("-1")
	require.Error(t, err)
}
