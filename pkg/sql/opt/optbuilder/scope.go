// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package optbuilder

import (
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
)

// scope is used for the build process and maintains the local bindings
// visible at a point in the expression. Bindings of the parent scope are also
// visible in this scope, unless shadowed. The nil scope binds nothing.
type scope struct {
	parent *scope
	id     opt.LocalID
	// typ is nil while the value of a recursive binding is being built and
	// its type is not yet known.
	typ *props.RelationType
}

// push returns a child scope that binds id.
func (s *scope) push(id opt.LocalID, typ *props.RelationType) *scope {
	return &scope{parent: s, id: id, typ: typ}
}

// resolve finds the innermost binding of id. The type is nil if the binding
// is recursive and still being built.
func (s *scope) resolve(id opt.LocalID) (typ *props.RelationType, ok bool) {
	for ; s != nil; s = s.parent {
		if s.id == id {
			return s.typ, true
		}
	}
	return nil, false
}
