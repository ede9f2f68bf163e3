// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package intsets provides sets of small non-negative integers, used by the
// optimizer for column and input sets.
package intsets

import (
	"bytes"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Fast is a set of non-negative integers backed by a bitmap. The zero value is
// an empty set ready for use.
//
// Fast values share their backing storage when assigned; use Copy before
// mutating a set that is also referenced elsewhere.
type Fast struct {
	bits bitset.BitSet
}

// MakeFast returns a set initialized with the given values.
func MakeFast(vals ...int) Fast {
	var s Fast
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add adds a value to the set. Panics on negative values.
func (s *Fast) Add(i int) {
	if i < 0 {
		panic(fmt.Sprintf("intsets: negative value %d", i))
	}
	s.bits.Set(uint(i))
}

// AddRange adds values 'from' up to 'to' (inclusively) to the set.
func (s *Fast) AddRange(from, to int) {
	for i := from; i <= to; i++ {
		s.Add(i)
	}
}

// Remove removes a value from the set. No-op if the value is not in the set.
func (s *Fast) Remove(i int) {
	if i >= 0 {
		s.bits.Clear(uint(i))
	}
}

// Contains returns true if the set contains the value.
func (s Fast) Contains(i int) bool {
	return i >= 0 && s.bits.Test(uint(i))
}

// Empty returns true if the set is empty.
func (s Fast) Empty() bool {
	return s.bits.None()
}

// Len returns the number of values in the set.
func (s Fast) Len() int {
	return int(s.bits.Count())
}

// Next returns the first value in the set which is >= startVal. If there is
// no such value, the second return value is false.
func (s Fast) Next(startVal int) (int, bool) {
	if startVal < 0 {
		startVal = 0
	}
	i, ok := s.bits.NextSet(uint(startVal))
	return int(i), ok
}

// ForEach calls a function for each value in the set (in increasing order).
func (s Fast) ForEach(f func(i int)) {
	for i, ok := s.Next(0); ok; i, ok = s.Next(i + 1) {
		f(i)
	}
}

// Ordered returns a slice with all the values in the set, in increasing order.
func (s Fast) Ordered() []int {
	if s.Empty() {
		return nil
	}
	res := make([]int, 0, s.Len())
	s.ForEach(func(i int) {
		res = append(res, i)
	})
	return res
}

// Copy returns a copy of s which can be modified independently.
func (s Fast) Copy() Fast {
	return Fast{bits: *s.bits.Clone()}
}

// UnionWith adds all the values from rhs to this set.
func (s *Fast) UnionWith(rhs Fast) {
	s.bits.InPlaceUnion(&rhs.bits)
}

// Union returns the union of s and rhs as a new set.
func (s Fast) Union(rhs Fast) Fast {
	r := s.Copy()
	r.UnionWith(rhs)
	return r
}

// Equals returns true if the two sets are identical.
func (s Fast) Equals(rhs Fast) bool {
	return s.SubsetOf(rhs) && rhs.SubsetOf(s)
}

// SubsetOf returns true if rhs contains all the elements in s.
func (s Fast) SubsetOf(rhs Fast) bool {
	subset := true
	s.ForEach(func(i int) {
		if subset && !rhs.Contains(i) {
			subset = false
		}
	})
	return subset
}

// Intersects returns true if s has any elements in common with rhs.
func (s Fast) Intersects(rhs Fast) bool {
	return s.bits.IntersectionCardinality(&rhs.bits) > 0
}

// String returns a list representation of elements. Sequential runs of
// positive numbers are shown as ranges, e.g. (1-3,5).
func (s Fast) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	appendRange := func(start, end int) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if start == end {
			fmt.Fprintf(&buf, "%d", start)
		} else if start+1 == end {
			fmt.Fprintf(&buf, "%d,%d", start, end)
		} else {
			fmt.Fprintf(&buf, "%d-%d", start, end)
		}
	}
	rangeStart, rangeEnd := -1, -1
	s.ForEach(func(i int) {
		if rangeStart != -1 && rangeEnd == i-1 {
			rangeEnd = i
			return
		}
		if rangeStart != -1 {
			appendRange(rangeStart, rangeEnd)
		}
		rangeStart, rangeEnd = i, i
	})
	if rangeStart != -1 {
		appendRange(rangeStart, rangeEnd)
	}
	buf.WriteByte(')')
	return buf.String()
}
