// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package intsets

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestFast(t *testing.T) {
	for _, m := range []int{1, 8, 30, 64, 130} {
		rng := rand.New(rand.NewSource(int64(m)))
		in := make([]bool, m)
		var s Fast
		for i := 0; i < 500; i++ {
			v := rng.Intn(m)
			if rng.Intn(2) == 0 {
				in[v] = true
				s.Add(v)
			} else {
				in[v] = false
				s.Remove(v)
			}
			empty := true
			count := 0
			for j := 0; j < m; j++ {
				if in[j] {
					empty = false
					count++
				}
				if in[j] != s.Contains(j) {
					t.Fatalf("incorrect result for Contains(%d), expected %t", j, in[j])
				}
			}
			if empty != s.Empty() {
				t.Fatalf("incorrect result for Empty(), expected %t", empty)
			}
			if count != s.Len() {
				t.Fatalf("incorrect result for Len(), expected %d, got %d", count, s.Len())
			}
			var vals []int
			for i, ok := s.Next(0); ok; i, ok = s.Next(i + 1) {
				vals = append(vals, i)
			}
			if o := s.Ordered(); !reflect.DeepEqual(vals, o) {
				t.Fatalf("set built with Next doesn't match Ordered: %v vs %v", vals, o)
			}
			c := s.Copy()
			if !c.Equals(s) {
				t.Fatalf("expected equality: %v, %v", s, c)
			}
			if col, ok := c.Next(0); ok {
				c.Remove(col)
				if c.Equals(s) {
					t.Fatalf("unexpected equality: %v, %v", s, c)
				}
				if !s.Contains(col) {
					t.Fatalf("copy aliases original set")
				}
			}
		}
	}
}

func TestFastString(t *testing.T) {
	testCases := []struct {
		vals []int
		exp  string
	}{
		{nil, "()"},
		{[]int{3}, "(3)"},
		{[]int{1, 2}, "(1,2)"},
		{[]int{1, 2, 3, 5, 7, 8, 9}, "(1-3,5,7-9)"},
	}
	for _, tc := range testCases {
		if s := MakeFast(tc.vals...).String(); s != tc.exp {
			t.Errorf("expected %s, got %s", tc.exp, s)
		}
	}
}

func TestFastSubsetUnion(t *testing.T) {
	a := MakeFast(1, 2)
	b := MakeFast(1, 2, 3)
	if !a.SubsetOf(b) || b.SubsetOf(a) {
		t.Fatalf("unexpected subset result for %s, %s", a, b)
	}
	if !a.Intersects(b) || a.Intersects(MakeFast(4)) {
		t.Fatalf("unexpected intersection result")
	}
	u := a.Union(MakeFast(7))
	if u.String() != "(1,2,7)" || a.String() != "(1,2)" {
		t.Fatalf("unexpected union %s (original %s)", u, a)
	}
}
