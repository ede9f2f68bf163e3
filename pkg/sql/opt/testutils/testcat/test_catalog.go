// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package testcat implements an in-memory catalog of global collections for
// tests and tools. It serves as both the index oracle and the statistics
// oracle of the join planner.
package testcat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
)

// Collection describes a global collection.
type Collection struct {
	ID   opt.GlobalID
	Name string
	Typ  props.RelationType

	// Indexes are the keys of the arrangements maintained for the collection,
	// in terms of its columns.
	Indexes [][]tree.ScalarExpr

	// Cardinality is the estimated number of rows, or nil if unknown.
	Cardinality *uint64
}

func (c *Collection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", c.ID)
	if c.Name != "" {
		fmt.Fprintf(&b, " %s", c.Name)
	}
	fmt.Fprintf(&b, " %s\n", c.Typ.String())
	for i, key := range c.Indexes {
		fmt.Fprintf(&b, " ├── index %d: %s\n", i+1, tree.FormatList(key))
	}
	if c.Cardinality != nil {
		fmt.Fprintf(&b, " └── cardinality: %d\n", *c.Cardinality)
	} else {
		b.WriteString(" └── cardinality: unknown\n")
	}
	return b.String()
}

// Catalog is a set of global collections.
type Catalog struct {
	collections map[opt.GlobalID]*Collection
	names       map[string]opt.GlobalID
}

var _ cat.IndexOracle = &Catalog{}
var _ cat.StatisticsOracle = &Catalog{}

// New creates a new empty instance of the test catalog.
func New() *Catalog {
	return &Catalog{
		collections: make(map[opt.GlobalID]*Collection),
		names:       make(map[string]opt.GlobalID),
	}
}

// AddCollection adds c to the catalog. Ids and names must be unique.
func (tc *Catalog) AddCollection(c *Collection) error {
	if _, ok := tc.collections[c.ID]; ok {
		return errors.Newf("collection %s already exists", c.ID)
	}
	if c.Name != "" {
		if _, ok := tc.names[c.Name]; ok {
			return errors.Newf("collection %q already exists", c.Name)
		}
		tc.names[c.Name] = c.ID
	}
	arity := c.Typ.Arity()
	for _, key := range c.Indexes {
		cols := tree.SupportOf(key).Ordered()
		if n := len(cols); n > 0 && cols[n-1] >= arity {
			return errors.Newf(
				"index key %s of %s refers to column #%d beyond arity %d",
				tree.FormatList(key), c.ID, cols[n-1], arity,
			)
		}
	}
	tc.collections[c.ID] = c
	return nil
}

// Collection returns the collection with the given id.
func (tc *Catalog) Collection(id opt.GlobalID) (*Collection, bool) {
	c, ok := tc.collections[id]
	return c, ok
}

// Resolve returns the id of the collection referenced by s, which is either
// an id such as "u3" or a collection name.
func (tc *Catalog) Resolve(s string) (opt.GlobalID, error) {
	if id, ok := tc.names[s]; ok {
		return id, nil
	}
	id, err := opt.ParseID(s)
	if err != nil {
		return 0, errors.Newf("unknown collection %q", s)
	}
	g, ok := id.Global()
	if !ok {
		return 0, errors.Newf("%s is not a global collection", s)
	}
	if _, ok := tc.collections[g]; !ok {
		return 0, errors.Newf("unknown collection %s", g)
	}
	return g, nil
}

// Collections returns the collections ordered by id.
func (tc *Catalog) Collections() []*Collection {
	res := make([]*Collection, 0, len(tc.collections))
	for _, c := range tc.collections {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// IndexesOn is part of the cat.IndexOracle interface.
func (tc *Catalog) IndexesOn(id opt.GlobalID) []cat.Index {
	c, ok := tc.collections[id]
	if !ok {
		return nil
	}
	res := make([]cat.Index, len(c.Indexes))
	for i, key := range c.Indexes {
		res[i] = cat.Index{ID: cat.IndexID(i + 1), Key: key}
	}
	return res
}

// CardinalityOf is part of the cat.StatisticsOracle interface.
func (tc *Catalog) CardinalityOf(id opt.GlobalID) (uint64, bool) {
	c, ok := tc.collections[id]
	if !ok || c.Cardinality == nil {
		return 0, false
	}
	return *c.Cardinality, true
}

func (tc *Catalog) String() string {
	var b strings.Builder
	for _, c := range tc.Collections() {
		b.WriteString(c.String())
	}
	return b.String()
}

var _ cat.Catalog = &Catalog{}

// ResolveCollection is part of the cat.Catalog interface.
func (tc *Catalog) ResolveCollection(name string) (opt.GlobalID, props.RelationType, error) {
	id, err := tc.Resolve(name)
	if err != nil {
		return 0, props.RelationType{}, err
	}
	return id, tc.collections[id].Typ.Copy(), nil
}
