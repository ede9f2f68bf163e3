// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"strings"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	var buf strings.Builder
	formatTags(ctx, &buf)
	buf.WriteString(redact.Sprintf(format, args...).StripMarkers())
	return buf.String()
}

// formatTags writes the logtags of ctx as a bracketed prefix, e.g.
// "[join=3,start=0] ". Nothing is written if there are no tags.
func formatTags(ctx context.Context, buf *strings.Builder) {
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return
	}
	buf.WriteByte('[')
	for i, t := range tags.Get() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t.Key())
		if v := t.ValueStr(); v != "" {
			buf.WriteByte('=')
			buf.WriteString(v)
		}
	}
	buf.WriteString("] ")
}

// addStructured creates a structured log entry and writes it to the main
// logger. The depth argument is kept for parity with callers that wrap the
// logging functions.
func addStructured(
	ctx context.Context, sev Severity, depth int, format string, args []interface{},
) {
	_ = depth
	msg := FormatWithContextTags(ctx, format, args...)
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	mainLog.logger.WithLevel(sev.zerologLevel()).Msg(msg)
}
