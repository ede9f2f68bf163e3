// Copyright 2023 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

//go:build invariants || race

package buildutil

// Invariants is enabled when built with the invariants or race build tags. It
// turns soft assertions in the optimizer (see errorutil.SoftAssertf) into
// panics, so that plan-consistency warnings fail tests instead of only being
// logged.
const Invariants = true
