// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements leveled, context-aware logging for the optimizer.
//
// Messages are formatted with redact so that values implementing
// redact.SafeFormatter render the same way in logs and in errors, and are
// annotated with the logtags found in the context. The output is produced by
// a zerolog logger.
package log

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Severity identifies the severity of a log entry.
type Severity int8

// Severity levels, in increasing order.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) zerologLevel() zerolog.Level {
	switch s {
	case SeverityWarning:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Level is the verbosity level used by V and VEventf.
type Level int32

var verbosity atomic.Int32

var mainLog struct {
	mu     sync.Mutex
	out    io.Writer
	logger zerolog.Logger
}

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects all log output to w and returns a function that
// restores the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	prev := mainLog.out
	setOutputLocked(w)
	return func() {
		mainLog.mu.Lock()
		defer mainLog.mu.Unlock()
		setOutputLocked(prev)
	}
}

func setOutputLocked(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mainLog.out = w
	mainLog.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "060102 15:04:05.000000",
	}).With().Timestamp().Logger()
}

// SetVerbosity sets the global verbosity level for V and VEventf. It returns
// the previous level.
func SetVerbosity(level Level) Level {
	return Level(verbosity.Swap(int32(level)))
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level Level) bool {
	return Level(verbosity.Load()) >= level
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityInfo, 1, format, args)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityWarning, 1, format, args)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityError, 1, format, args)
}

// VEventf logs an INFO message if the verbosity is at least the given level.
func VEventf(ctx context.Context, level Level, format string, args ...interface{}) {
	if V(level) {
		addStructured(ctx, SeverityInfo, 1, format, args)
	}
}
