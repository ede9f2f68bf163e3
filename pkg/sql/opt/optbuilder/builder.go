// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package optbuilder builds relational expressions from their textual form.
// Each line holds one operator followed by its arguments; the inputs of an
// operator are the lines below it indented by more spaces:
//
//	let l0
//	  arrange-by [#0]
//	    get orders
//	  join [#0, #2] [#3, #4]
//	    get l0
//	    filter [eq(#1, 5)]
//	      get u2
//	    project [1, 0]
//	      get u3
//
// The operators and their arguments are:
//
//	constant [int, string?] [1, 'a'] [2, null]
//	get <collection> [<column types>]
//	let <local id>
//	let-rec <local id>...
//	project [<column>, ...]
//	map [<scalar>, ...]
//	filter [<predicate>, ...]
//	join [<equivalence class>]...
//	reduce [<group key>] <aggregate>...
//	arrange-by [<key>]...
//	union
//	negate
//	threshold
//
// A collection is a global collection known to the catalog, by id or name, or
// a local id bound by an enclosing let. Lines starting with "--" are
// comments.
package optbuilder

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt"
	"github.com/streamdb/streamdb/pkg/sql/opt/cat"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
	"github.com/streamdb/streamdb/pkg/sql/opt/props"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/sql/types"
	"github.com/streamdb/streamdb/pkg/util/errorutil"
)

// builderError is used to wrap errors returned by various external APIs that
// occur during the build process. It exists for us to be able to panic on
// these errors and then catch them inside Builder.Build.
type builderError struct {
	error
}

// Builder holds the context needed for building a relational expression from
// its textual form.
type Builder struct {
	catalog cat.Catalog
	input   string
}

// New creates a new Builder structure initialized with the given input text.
func New(catalog cat.Catalog, input string) *Builder {
	return &Builder{catalog: catalog, input: input}
}

// Build parses the input and returns the expression it describes. The
// expression is checked to be well typed.
func (b *Builder) Build() (_ memo.RelExpr, err error) {
	defer func() {
		if r := recover(); r != nil {
			// This code allows us to propagate builder errors without adding
			// lots of checks for `if err != nil` throughout the code. This is
			// only possible because the code does not update shared state and
			// does not manipulate locks.
			if bldErr, ok := r.(builderError); ok {
				err = bldErr.error
			} else if ok, e := errorutil.ShouldCatch(r); ok {
				err = e
			} else {
				panic(r)
			}
		}
	}()

	root := parseLines(b.input)
	e := b.buildRelational(root, nil /* inScope */)
	// Derive the type to reject ill-typed expressions up front.
	_ = memo.Type(e)
	return e, nil
}

// Build is a shorthand for New(catalog, input).Build().
func Build(catalog cat.Catalog, input string) (memo.RelExpr, error) {
	return New(catalog, input).Build()
}

// node is a parsed line of the input along with the lines nested under it.
type node struct {
	line     int
	indent   int
	op       string
	args     []string
	children []*node
}

func (n *node) errorf(format string, args ...interface{}) builderError {
	return builderError{errors.Wrapf(errors.Newf(format, args...), "line %d", n.line)}
}

// parseLines builds the tree of nodes described by the indentation of the
// input. There must be exactly one root.
func parseLines(input string) *node {
	var root *node
	var stack []*node
	for i, line := range strings.Split(input, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimLeft(line, " ")
		if strings.TrimSpace(trimmed) == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if strings.HasPrefix(trimmed, "\t") {
			panic(builderError{errors.Newf("line %d: tabs are not allowed in indentation", lineNum)})
		}
		fields := splitArgs(strings.TrimSpace(trimmed))
		n := &node{
			line:   lineNum,
			indent: len(line) - len(trimmed),
			op:     fields[0],
			args:   fields[1:],
		}
		for len(stack) > 0 && stack[len(stack)-1].indent >= n.indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if root != nil {
				panic(n.errorf("expected a single root expression"))
			}
			root = n
		} else {
			parent := stack[len(stack)-1]
			if len(parent.children) > 0 && parent.children[0].indent != n.indent {
				panic(n.errorf("inconsistent indentation"))
			}
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}
	if root == nil {
		panic(builderError{errors.New("empty expression")})
	}
	return root
}

// splitArgs splits s on spaces that are not nested in brackets, parentheses
// or string literals.
func splitArgs(s string) []string {
	var res []string
	depth := 0
	inString := false
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == ' ' {
				continue
			}
			start = i
		}
		switch {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ' ' && depth == 0:
			res = append(res, s[start:i])
			start = -1
		}
	}
	if start != -1 {
		res = append(res, s[start:])
	}
	return res
}

func (b *Builder) buildRelational(n *node, inScope *scope) memo.RelExpr {
	switch n.op {
	case "constant":
		return b.buildConstant(n)

	case "get":
		return b.buildGet(n, inScope)

	case "let":
		n.expectArgs(1)
		n.expectChildren(2)
		id := n.localID(n.args[0])
		value := b.buildRelational(n.children[0], inScope)
		typ := memo.Type(value)
		body := b.buildRelational(n.children[1], inScope.push(id, &typ))
		return &memo.LetExpr{ID: id, Value: value, Body: body}

	case "let-rec":
		return b.buildLetRec(n, inScope)

	case "project":
		n.expectArgs(1)
		n.expectChildren(1)
		return &memo.ProjectExpr{
			Input:   b.buildRelational(n.children[0], inScope),
			Outputs: n.ints(n.args[0]),
		}

	case "map":
		n.expectArgs(1)
		n.expectChildren(1)
		return &memo.MapExpr{
			Input:   b.buildRelational(n.children[0], inScope),
			Scalars: n.scalars(n.args[0]),
		}

	case "filter":
		n.expectArgs(1)
		n.expectChildren(1)
		return &memo.FilterExpr{
			Input:      b.buildRelational(n.children[0], inScope),
			Predicates: n.scalars(n.args[0]),
		}

	case "join":
		if len(n.children) == 0 {
			panic(n.errorf("join expects at least one input"))
		}
		join := &memo.JoinExpr{}
		for _, arg := range n.args {
			join.Equivalences = append(join.Equivalences, n.scalars(arg))
		}
		for _, child := range n.children {
			join.Inputs = append(join.Inputs, b.buildRelational(child, inScope))
		}
		return join

	case "reduce":
		if len(n.args) == 0 {
			panic(n.errorf("reduce expects a group key"))
		}
		n.expectChildren(1)
		reduce := &memo.ReduceExpr{
			Input:    b.buildRelational(n.children[0], inScope),
			GroupKey: n.scalars(n.args[0]),
		}
		for _, arg := range n.args[1:] {
			reduce.Aggregates = append(reduce.Aggregates, n.aggregate(arg))
		}
		return reduce

	case "arrange-by":
		n.expectChildren(1)
		arrange := &memo.ArrangeByExpr{Input: b.buildRelational(n.children[0], inScope)}
		for _, arg := range n.args {
			arrange.Keys = append(arrange.Keys, n.scalars(arg))
		}
		return arrange

	case "union":
		n.expectArgs(0)
		if len(n.children) == 0 {
			panic(n.errorf("union expects at least one input"))
		}
		union := &memo.UnionExpr{}
		for _, child := range n.children {
			union.Inputs = append(union.Inputs, b.buildRelational(child, inScope))
		}
		return union

	case "negate":
		n.expectArgs(0)
		n.expectChildren(1)
		return &memo.NegateExpr{Input: b.buildRelational(n.children[0], inScope)}

	case "threshold":
		n.expectArgs(0)
		n.expectChildren(1)
		return &memo.ThresholdExpr{Input: b.buildRelational(n.children[0], inScope)}
	}
	panic(n.errorf("unknown operator %q", n.op))
}

func (b *Builder) buildConstant(n *node) memo.RelExpr {
	n.expectChildren(0)
	if len(n.args) == 0 {
		panic(n.errorf("constant expects column types"))
	}
	c := &memo.ConstantExpr{Typ: props.RelationType{ColumnTypes: n.columnTypes(n.args[0])}}
	for _, arg := range n.args[1:] {
		vals := n.scalars(arg)
		if len(vals) != c.Typ.Arity() {
			panic(n.errorf("row %s does not have %d columns", arg, c.Typ.Arity()))
		}
		row := make([]tree.Datum, len(vals))
		for i, v := range vals {
			lit, ok := v.(*tree.Literal)
			if !ok {
				panic(n.errorf("constant row value %s is not a literal", v))
			}
			row[i] = lit.Datum
		}
		c.Rows = append(c.Rows, row)
	}
	return c
}

func (b *Builder) buildGet(n *node, inScope *scope) memo.RelExpr {
	n.expectChildren(0)
	if len(n.args) != 1 && len(n.args) != 2 {
		panic(n.errorf("get expects a collection and optionally its column types"))
	}
	var explicit *props.RelationType
	if len(n.args) == 2 {
		explicit = &props.RelationType{ColumnTypes: n.columnTypes(n.args[1])}
	}

	if id, err := opt.ParseID(n.args[0]); err == nil {
		if local, ok := id.Local(); ok {
			typ, ok := inScope.resolve(local)
			if !ok {
				panic(n.errorf("%s is not bound", local))
			}
			switch {
			case explicit != nil:
				typ = explicit
			case typ == nil:
				panic(n.errorf("the type of recursive binding %s must be given", local))
			}
			return &memo.GetExpr{ID: id, Typ: typ.Copy()}
		}
	}

	id, typ, err := b.catalog.ResolveCollection(n.args[0])
	if err != nil {
		panic(builderError{errors.Wrapf(err, "line %d", n.line)})
	}
	if explicit != nil {
		typ = *explicit
	}
	return &memo.GetExpr{ID: opt.MakeGlobalID(id), Typ: typ}
}

func (b *Builder) buildLetRec(n *node, inScope *scope) memo.RelExpr {
	if len(n.args) == 0 {
		panic(n.errorf("let-rec expects at least one binding"))
	}
	n.expectChildren(len(n.args) + 1)
	ids := make([]opt.LocalID, len(n.args))
	typs := make([]*props.RelationType, len(n.args))
	for i, arg := range n.args {
		ids[i] = n.localID(arg)
	}
	// Bindings are visible to every value. Values built so far have known
	// types; the others must be referenced with explicit types.
	scopeFor := func() *scope {
		s := inScope
		for i, id := range ids {
			s = s.push(id, typs[i])
		}
		return s
	}
	letRec := &memo.LetRecExpr{IDs: ids}
	for i := range ids {
		value := b.buildRelational(n.children[i], scopeFor())
		typ := memo.Type(value)
		typs[i] = &typ
		letRec.Values = append(letRec.Values, value)
	}
	letRec.Body = b.buildRelational(n.children[len(ids)], scopeFor())
	return letRec
}

func (n *node) expectArgs(count int) {
	if len(n.args) != count {
		panic(n.errorf("%s expects %d arguments, found %d", n.op, count, len(n.args)))
	}
}

func (n *node) expectChildren(count int) {
	if len(n.children) != count {
		panic(n.errorf("%s expects %d inputs, found %d", n.op, count, len(n.children)))
	}
}

func (n *node) localID(s string) opt.LocalID {
	id, err := opt.ParseID(s)
	if err != nil {
		panic(builderError{errors.Wrapf(err, "line %d", n.line)})
	}
	local, ok := id.Local()
	if !ok {
		panic(n.errorf("%s is not a local id", s))
	}
	return local
}

func (n *node) scalars(s string) []tree.ScalarExpr {
	res, err := tree.ParseScalarList(s)
	if err != nil {
		panic(builderError{errors.Wrapf(err, "line %d", n.line)})
	}
	return res
}

// bracketed returns the comma-separated elements of a "[a, b]" list.
func (n *node) bracketed(s string) []string {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		panic(n.errorf("expected a bracketed list, found %q", s))
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (n *node) ints(s string) []int {
	parts := n.bracketed(s)
	res := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			panic(n.errorf("invalid column %q", p))
		}
		res[i] = v
	}
	return res
}

func (n *node) columnTypes(s string) []types.ColumnType {
	parts := n.bracketed(s)
	res := make([]types.ColumnType, len(parts))
	for i, p := range parts {
		typ, err := types.ParseColumnType(p)
		if err != nil {
			panic(builderError{errors.Wrapf(err, "line %d", n.line)})
		}
		res[i] = typ
	}
	return res
}

// aggregate parses "sum(#1)" or "count(distinct #0)".
func (n *node) aggregate(s string) memo.AggregateExpr {
	open := strings.IndexByte(s, '(')
	if open == -1 || s[len(s)-1] != ')' {
		panic(n.errorf("invalid aggregate %q", s))
	}
	f, err := memo.ParseAggregateFunc(s[:open])
	if err != nil {
		panic(builderError{errors.Wrapf(err, "line %d", n.line)})
	}
	arg := strings.TrimSpace(s[open+1 : len(s)-1])
	agg := memo.AggregateExpr{Func: f}
	if rest := strings.TrimPrefix(arg, "distinct "); rest != arg {
		agg.Distinct = true
		arg = strings.TrimSpace(rest)
	}
	agg.Expr, err = tree.ParseScalar(arg)
	if err != nil {
		panic(builderError{errors.Wrapf(err, "line %d", n.line)})
	}
	return agg
}
