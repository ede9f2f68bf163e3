// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/treeprinter"
)

// ExprFmtFlags controls which properties of the expression are shown in
// formatted output.
type ExprFmtFlags int

const (
	// ExprFmtShowAll shows all properties of the expression.
	ExprFmtShowAll ExprFmtFlags = 0

	// ExprFmtHideTypes does not show the relation type of Get and Constant
	// operators.
	ExprFmtHideTypes ExprFmtFlags = 1 << (iota - 1)

	// ExprFmtHideCharacteristics does not show the characteristics of the
	// steps of planned joins.
	ExprFmtHideCharacteristics

	// ExprFmtHideAll shows only the basic structure of the expression.
	ExprFmtHideAll ExprFmtFlags = (1 << (iota - 1)) - 1
)

// HasFlags tests whether the given flags are all set.
func (f ExprFmtFlags) HasFlags(subset ExprFmtFlags) bool {
	return f&subset == subset
}

// FormatExpr returns a string representation of the given expression,
// formatted according to the specified flags.
func FormatExpr(e RelExpr, flags ExprFmtFlags) string {
	f := MakeExprFmtCtx(flags)
	f.FormatExpr(e)
	return f.Buffer.String()
}

// ExprFmtCtx is passed as context to expression formatting functions.
type ExprFmtCtx struct {
	Buffer *bytes.Buffer

	// Flags controls how the expression is formatted.
	Flags ExprFmtFlags
}

// MakeExprFmtCtx creates an expression formatting context from a new buffer.
func MakeExprFmtCtx(flags ExprFmtFlags) ExprFmtCtx {
	return ExprFmtCtx{Buffer: &bytes.Buffer{}, Flags: flags}
}

// HasFlags tests whether the given flags are all set.
func (f *ExprFmtCtx) HasFlags(subset ExprFmtFlags) bool {
	return f.Flags.HasFlags(subset)
}

// FormatExpr constructs a treeprinter view of the given expression.
func (f *ExprFmtCtx) FormatExpr(e RelExpr) {
	tp := treeprinter.New()
	f.formatRelational(e, &tp)
	f.Buffer.Reset()
	f.Buffer.WriteString(tp.String())
}

func (f *ExprFmtCtx) formatRelational(e RelExpr, tp *treeprinter.Node) {
	var children []RelExpr
	var node *treeprinter.Node
	switch t := e.(type) {
	case *ConstantExpr:
		rows := make([]string, len(t.Rows))
		for i, row := range t.Rows {
			vals := make([]string, len(row))
			for j, d := range row {
				vals[j] = d.String()
			}
			rows[i] = "(" + strings.Join(vals, ", ") + ")"
		}
		node = tp.Childf("constant rows=(%s)%s", strings.Join(rows, ", "), f.typeSuffix(t))

	case *GetExpr:
		node = tp.Childf("get %s%s", t.ID, f.typeSuffix(t))

	case *LetExpr:
		node = tp.Childf("let %s", t.ID)
		children = []RelExpr{t.Value, t.Body}

	case *LetRecExpr:
		ids := make([]string, len(t.IDs))
		for i, id := range t.IDs {
			ids[i] = id.String()
		}
		node = tp.Childf("let-rec %s", strings.Join(ids, ", "))
		children = append(append(children, t.Values...), t.Body)

	case *ProjectExpr:
		node = tp.Childf("project %s", formatInts(t.Outputs))
		children = []RelExpr{t.Input}

	case *MapExpr:
		node = tp.Childf("map %s", tree.FormatList(t.Scalars))
		children = []RelExpr{t.Input}

	case *FilterExpr:
		node = tp.Childf("filter %s", tree.FormatList(t.Predicates))
		children = []RelExpr{t.Input}

	case *JoinExpr:
		node = tp.Child("join")
		node.Childf("equivalences: %s", formatLists(t.Equivalences))
		impl := t.Implementation
		if f.HasFlags(ExprFmtHideCharacteristics) {
			impl = stripCharacteristics(impl)
		}
		node.Childf("implementation: %s", impl.String())
		children = t.Inputs

	case *ReduceExpr:
		aggs := make([]string, len(t.Aggregates))
		for i := range t.Aggregates {
			aggs[i] = t.Aggregates[i].String()
		}
		node = tp.Childf(
			"reduce group=%s aggregates=[%s]", tree.FormatList(t.GroupKey), strings.Join(aggs, ", "),
		)
		children = []RelExpr{t.Input}

	case *ArrangeByExpr:
		node = tp.Childf("arrange-by keys=%s", formatLists(t.Keys))
		children = []RelExpr{t.Input}

	default:
		node = tp.Child(e.Op().String())
		for i, n := 0, e.ChildCount(); i < n; i++ {
			children = append(children, e.Child(i))
		}
	}
	for _, child := range children {
		f.formatRelational(child, node)
	}
}

func (f *ExprFmtCtx) typeSuffix(e RelExpr) string {
	if f.HasFlags(ExprFmtHideTypes) {
		return ""
	}
	switch t := e.(type) {
	case *GetExpr:
		return " " + t.Typ.String()
	case *ConstantExpr:
		return " " + t.Typ.String()
	}
	return ""
}

func stripCharacteristics(impl JoinImplementation) JoinImplementation {
	impl = impl.Copy()
	impl.Start.Characteristics = nil
	for i := range impl.Order {
		impl.Order[i].Characteristics = nil
	}
	for _, order := range impl.Orders {
		for i := range order {
			order[i].Characteristics = nil
		}
	}
	return impl
}

func (a *AggregateExpr) String() string {
	if a.Distinct {
		return fmt.Sprintf("%s(distinct %s)", a.Func, a.Expr)
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Expr)
}

func formatInts(ints []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range ints {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteByte(']')
	return b.String()
}

func formatLists(lists [][]tree.ScalarExpr) string {
	parts := make([]string, len(lists))
	for i, l := range lists {
		parts[i] = tree.FormatList(l)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
