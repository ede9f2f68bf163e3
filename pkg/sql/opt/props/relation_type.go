// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package props contains the logical properties derived for relational
// expressions.
package props

import (
	"sort"
	"strconv"
	"strings"

	"github.com/streamdb/streamdb/pkg/sql/types"
)

// RelationType describes the columns of a relation and the sets of columns
// known to be unique keys. A key is a sorted list of column indexes; the
// empty key means the relation has at most one row.
type RelationType struct {
	ColumnTypes []types.ColumnType
	Keys        [][]int
}

// Arity returns the number of columns.
func (r *RelationType) Arity() int {
	return len(r.ColumnTypes)
}

// AddKey records a unique key. The key is sorted and deduplicated, and
// ignored if already present.
func (r *RelationType) AddKey(key []int) {
	k := append([]int(nil), key...)
	sort.Ints(k)
	out := k[:0]
	for i, c := range k {
		if i == 0 || c != k[i-1] {
			out = append(out, c)
		}
	}
	for _, existing := range r.Keys {
		if intsEqual(existing, out) {
			return
		}
	}
	r.Keys = append(r.Keys, out)
}

// HasKeyWithin returns true if some unique key consists only of columns in
// cols.
func (r *RelationType) HasKeyWithin(cols func(int) bool) bool {
	for _, key := range r.Keys {
		ok := true
		for _, c := range key {
			if !cols(c) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Copy returns a deep copy.
func (r *RelationType) Copy() RelationType {
	res := RelationType{ColumnTypes: append([]types.ColumnType(nil), r.ColumnTypes...)}
	for _, k := range r.Keys {
		res.Keys = append(res.Keys, append([]int(nil), k...))
	}
	return res
}

func (r *RelationType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range r.ColumnTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	for _, k := range r.Keys {
		b.WriteString(" key=")
		b.WriteString(FormatKey(k))
	}
	return b.String()
}

// FormatKey formats a column list as "[0, 2]".
func FormatKey(key []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(c))
	}
	b.WriteByte(']')
	return b.String()
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
