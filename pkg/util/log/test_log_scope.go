// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"strings"
	"testing"
)

// TestLogScope represents the lifetime of a logging output redirection for a
// test. Log output produced while the scope is active goes to t.Log, so that
// it is only shown for failing tests or with -v.
type TestLogScope struct {
	verbosity     Level
	restoreOutput func()
}

// tbWriter forwards writes to a testing.TB.
type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Scope redirects the log output to the given test. It must be closed with
// Close at the end of the test:
//
//	defer log.Scope(t).Close(t)
func Scope(t testing.TB) *TestLogScope {
	restore := SetOutput(tbWriter{t: t})
	return &TestLogScope{verbosity: Level(verbosity.Load()), restoreOutput: restore}
}

// Close restores the log output and verbosity in effect when the scope was
// created.
func (s *TestLogScope) Close(t testing.TB) {
	t.Helper()
	s.restoreOutput()
	SetVerbosity(s.verbosity)
}
