// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"sync"
	"time"
)

// EveryN rate limits a log message that a planner may hit once per join,
// such as a soft assertion inside a fixpoint loop.
type EveryN struct {
	// N is the minimum interval between two logged events.
	N time.Duration

	mu   sync.Mutex
	last time.Time
}

// Every returns an EveryN that lets one event through per interval n.
func Every(n time.Duration) *EveryN {
	return &EveryN{N: n}
}

// ShouldLog reports whether the event should be logged now. It always does
// at verbosity 2 and above.
func (e *EveryN) ShouldLog() bool {
	return e.shouldLog(time.Now())
}

func (e *EveryN) shouldLog(now time.Time) bool {
	if V(2) {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if now.Sub(e.last) < e.N {
		return false
	}
	e.last = now
	return true
}
