// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cat

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
)

// Catalog resolves references to global collections while an expression is
// being built.
type Catalog interface {
	// ResolveCollection returns the id and type of the collection referenced
	// by name, which is either a collection id such as "u3" or a collection
	// name.
	ResolveCollection(name string) (opt.GlobalID, props.RelationType, error)
}
