// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testcat

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
	"gopkg.in/yaml.v2"
)

// CollectionDef is the YAML definition of a collection:
//
//	- id: u1
//	  name: orders
//	  columns: [int, "int?"]
//	  keys: [[0]]
//	  indexes: ["[#0]", "[#1, #0]"]
//	  cardinality: 1000
//
// A nullable type ends in "?", which YAML only accepts inside a flow sequence
// when quoted.
type CollectionDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name,omitempty"`
	Columns     []string `yaml:"columns"`
	Keys        [][]int  `yaml:"keys,omitempty"`
	Indexes     []string `yaml:"indexes,omitempty"`
	Cardinality *uint64  `yaml:"cardinality,omitempty"`
}

// Build converts the definition into a collection.
func (d *CollectionDef) Build() (*Collection, error) {
	id, err := opt.ParseID(d.ID)
	if err != nil {
		return nil, err
	}
	g, ok := id.Global()
	if !ok {
		return nil, errors.Newf("collection id %s is not global", id)
	}
	c := &Collection{ID: g, Name: d.Name, Cardinality: d.Cardinality}
	for _, col := range d.Columns {
		typ, err := types.ParseColumnType(strings.TrimSpace(col))
		if err != nil {
			return nil, errors.Wrapf(err, "collection %s", g)
		}
		c.Typ.ColumnTypes = append(c.Typ.ColumnTypes, typ)
	}
	for _, key := range d.Keys {
		for _, col := range key {
			if col < 0 || col >= len(d.Columns) {
				return nil, errors.Newf(
					"key %s of %s refers to column %d beyond arity %d",
					props.FormatKey(key), g, col, len(d.Columns),
				)
			}
		}
		c.Typ.AddKey(key)
	}
	for _, idx := range d.Indexes {
		key, err := tree.ParseScalarList(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "index %s of %s", idx, g)
		}
		c.Indexes = append(c.Indexes, key)
	}
	return c, nil
}

// AddDefs adds the collections described by defs.
func (tc *Catalog) AddDefs(defs []CollectionDef) error {
	for i := range defs {
		c, err := defs[i].Build()
		if err != nil {
			return err
		}
		if err := tc.AddCollection(c); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteDDL adds the collections defined by a YAML list of CollectionDef
// and returns a description of them.
func (tc *Catalog) ExecuteDDL(input string) (string, error) {
	var defs []CollectionDef
	if err := yaml.UnmarshalStrict([]byte(input), &defs); err != nil {
		return "", errors.Wrap(err, "parsing collection definitions")
	}
	if err := tc.AddDefs(defs); err != nil {
		return "", err
	}
	var b strings.Builder
	for i := range defs {
		id, err := tc.Resolve(defs[i].ID)
		if err != nil {
			return "", err
		}
		c, _ := tc.Collection(id)
		b.WriteString(c.String())
	}
	return b.String(), nil
}
