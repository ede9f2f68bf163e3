// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"strconv"
	"strings"

	"github.com/streamdb/streamdb/pkg/sql/types"
)

func (e *Column) String() string {
	return "#" + strconv.Itoa(e.Idx)
}

func (e *Literal) String() string {
	if e.Datum == DNull && e.Typ != types.Unknown {
		return "null::" + e.Typ.String()
	}
	return e.Datum.String()
}

func (e *CallUnary) String() string {
	return formatCall(e.Func.String(), e)
}

func (e *CallBinary) String() string {
	return formatCall(e.Func.String(), e)
}

func (e *CallVariadic) String() string {
	return formatCall(e.Func.String(), e)
}

func formatCall(name string, e ScalarExpr) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Child(i).String())
	}
	b.WriteByte(')')
	return b.String()
}

// FormatList formats a list of expressions as "[a, b, c]".
func FormatList(exprs []ScalarExpr) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}
