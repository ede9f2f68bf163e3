// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/google/btree"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// IndexMap tracks the arrangements available while descending an expression:
// the indexes reported by the catalog for global collections, and the
// arrangements of Let-bound collections in scope.
type IndexMap struct {
	local  *btree.BTree
	global cat.IndexOracle
}

// localArrangements is the btree item holding the keys arranged for one
// Let-bound collection.
type localArrangements struct {
	id   opt.LocalID
	keys [][]tree.ScalarExpr
}

// Less implements btree.Item.
func (l *localArrangements) Less(than btree.Item) bool {
	return l.id < than.(*localArrangements).id
}

// NewIndexMap returns an index map with no local arrangements, backed by the
// given catalog indexes.
func NewIndexMap(global cat.IndexOracle) *IndexMap {
	if global == nil {
		global = cat.EmptyIndexOracle{}
	}
	return &IndexMap{local: btree.New(8), global: global}
}

// AddLocal records an arrangement of the Let-bound collection with the given
// key.
func (m *IndexMap) AddLocal(id opt.LocalID, key []tree.ScalarExpr) {
	if item := m.local.Get(&localArrangements{id: id}); item != nil {
		l := item.(*localArrangements)
		l.keys = append(l.keys, key)
		return
	}
	m.local.ReplaceOrInsert(&localArrangements{id: id, keys: [][]tree.ScalarExpr{key}})
}

// RemoveLocal forgets all arrangements of the Let-bound collection.
func (m *IndexMap) RemoveLocal(id opt.LocalID) {
	m.local.Delete(&localArrangements{id: id})
}

// Get returns the keys of the arrangements available for the collection, in
// the order they were reported or added.
func (m *IndexMap) Get(id opt.ID) [][]tree.ScalarExpr {
	if g, ok := id.Global(); ok {
		indexes := m.global.IndexesOn(g)
		keys := make([][]tree.ScalarExpr, len(indexes))
		for i := range indexes {
			keys[i] = indexes[i].Key
		}
		return keys
	}
	l, _ := id.Local()
	item := m.local.Get(&localArrangements{id: l})
	if item == nil {
		return nil
	}
	return item.(*localArrangements).keys
}

// LocalIDs returns the Let-bound collections that currently have
// arrangements, in increasing order.
func (m *IndexMap) LocalIDs() []opt.LocalID {
	var ids []opt.LocalID
	m.local.Ascend(func(i btree.Item) bool {
		ids = append(ids, i.(*localArrangements).id)
		return true
	})
	return ids
}
