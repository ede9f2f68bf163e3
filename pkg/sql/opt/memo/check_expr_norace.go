// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

//go:build !race

package memo

// CheckExpr is a no-op in non-race builds.
func CheckExpr(e RelExpr) {}
