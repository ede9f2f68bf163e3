// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
)

// RenumberBindings assigns new ids to all Let and LetRec bindings of the
// expression, in the order in which they are defined, and rewrites the local
// Gets that refer to them. After renumbering, a binding of a LetRec can only
// refer to a binding with a greater or equal id if it refers forward (or to
// itself).
//
// Gets of local ids that are not bound within the expression are left
// unchanged.
func RenumberBindings(e *memo.RelExpr) error {
	r := renumberer{remap: make(map[opt.LocalID]opt.LocalID)}
	return r.renumber(*e)
}

type renumberer struct {
	guard opt.RecursionGuard
	next  opt.LocalID
	remap map[opt.LocalID]opt.LocalID
}

// bind maps id to a fresh id and returns a function restoring the previous
// mapping.
func (r *renumberer) bind(id opt.LocalID) (opt.LocalID, func()) {
	newID := r.next
	r.next++
	old, had := r.remap[id]
	r.remap[id] = newID
	return newID, func() {
		if had {
			r.remap[id] = old
		} else {
			delete(r.remap, id)
		}
	}
}

func (r *renumberer) renumber(e memo.RelExpr) error {
	return r.guard.CheckedRecur(func() error {
		switch t := e.(type) {
		case *memo.GetExpr:
			if id, ok := t.ID.Local(); ok {
				if newID, ok := r.remap[id]; ok {
					t.ID = opt.MakeLocalID(newID)
				}
			}
			return nil

		case *memo.LetExpr:
			if err := r.renumber(t.Value); err != nil {
				return err
			}
			newID, restore := r.bind(t.ID)
			defer restore()
			t.ID = newID
			return r.renumber(t.Body)

		case *memo.LetRecExpr:
			restores := make([]func(), len(t.IDs))
			for i, id := range t.IDs {
				t.IDs[i], restores[i] = r.bind(id)
			}
			defer func() {
				for i := len(restores) - 1; i >= 0; i-- {
					restores[i]()
				}
			}()
			for _, v := range t.Values {
				if err := r.renumber(v); err != nil {
					return err
				}
			}
			return r.renumber(t.Body)
		}
		for i, n := 0, e.ChildCount(); i < n; i++ {
			if err := r.renumber(e.Child(i)); err != nil {
				return err
			}
		}
		return nil
	})
}
