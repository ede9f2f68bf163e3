// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/streamdb/streamdb/pkg/sql/sem/tree"
	"github.com/streamdb/streamdb/pkg/util/intsets"
	"github.com/streamdb/streamdb/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestJoinInputMapperColumnRoundTrip(t *testing.T) {
	for _, arities := range [][]int{{1}, {2, 3, 1}, {0, 4, 0, 2}, {5, 5}} {
		m := MakeJoinInputMapper(arities)
		for g := 0; g < m.TotalColumns(); g++ {
			local, input := m.MapColumnToLocal(g)
			require.Less(t, local, m.InputArity(input))
			require.Equal(t, g, m.MapColumnToGlobal(local, input))
		}
		total := 0
		for i := 0; i < m.TotalInputs(); i++ {
			require.Len(t, m.GlobalColumns(i), m.InputArity(i))
			total += m.InputArity(i)
		}
		require.Equal(t, total, m.TotalColumns())
	}
}

func TestJoinInputMapperExprRoundTrip(t *testing.T) {
	m := MakeJoinInputMapper([]int{2, 3, 1})
	exprs := []string{"#0", "eq(#1, plus(#2, 1))", "and(isnull(#0), like(#1, 'a%'))", "5"}
	for _, s := range exprs {
		e := tree.MustParseScalar(s)
		for i := 0; i < m.TotalInputs(); i++ {
			if !tree.IsSupportedBy(e, intsets.MakeFast(m.LocalColumns(i)...)) {
				continue
			}
			global := m.MapExprToGlobal(e, i)
			if !tree.Support(e).Empty() {
				require.True(t, m.IsLocalized(global, i), "%s in input %d", s, i)
			}
			require.True(t, tree.Equal(e, m.MapExprToLocal(global)), "%s in input %d", s, i)
		}
	}
}

func TestJoinInputMapperSplitColumnSet(t *testing.T) {
	m := MakeJoinInputMapper([]int{2, 3, 1})
	split := m.SplitColumnSetByInput(intsets.MakeFast(1, 2, 4, 5))
	require.Len(t, split, 3)
	require.Equal(t, "(1)", split[0].String())
	require.Equal(t, "(0,2)", split[1].String())
	require.Equal(t, "(0)", split[2].String())
}

func TestGlobalKeys(t *testing.T) {
	// t1(a, k) with key [0], t2(k, b) with key [0], joined on t1.k = t2.k.
	m := MakeJoinInputMapper([]int{2, 2})
	localKeys := [][][]int{{{0}}, {{0}}}

	eqs := [][]tree.ScalarExpr{scalars("#1", "#2")}
	require.Equal(t, [][]int{{0}}, m.GlobalKeys(localKeys, eqs))

	// Equating the key of t2 with one of its own columns does not bind it.
	eqs = [][]tree.ScalarExpr{scalars("#2", "#3")}
	require.Nil(t, m.GlobalKeys(localKeys, eqs))

	// Without a key on t2 nothing is derived.
	require.Nil(t, m.GlobalKeys([][][]int{{{0}}, nil}, [][]tree.ScalarExpr{scalars("#1", "#2")}))

	// The derived keys are those of the join's result type.
	join := &JoinExpr{
		Inputs:       []RelExpr{testGet(1, 2, []int{0}), testGet(2, 2, []int{0})},
		Equivalences: [][]tree.ScalarExpr{scalars("#1", "#2")},
	}
	typ := Type(join)
	require.Equal(t, [][]int{{0}}, typ.Keys)
}

func TestJoinInputMapperData(t *testing.T) {
	defer log.Scope(t).Close(t)

	var m JoinInputMapper
	datadriven.RunTest(t, "testdata/join_input_mapper", func(t *testing.T, d *datadriven.TestData) string {
		var classes [][]tree.ScalarExpr
		var expr tree.ScalarExpr
		for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case strings.HasPrefix(line, "class "):
				class, err := tree.ParseScalarList(strings.TrimPrefix(line, "class "))
				if err != nil {
					d.Fatalf(t, "%v", err)
				}
				classes = append(classes, class)
			default:
				e, err := tree.ParseScalar(line)
				if err != nil {
					d.Fatalf(t, "%v", err)
				}
				expr = e
			}
		}
		input := -1
		if d.HasArg("input") {
			d.ScanArgs(t, "input", &input)
		}

		switch d.Cmd {
		case "mapper":
			var arities []int
			for _, arg := range d.CmdArgs {
				if arg.Key != "arities" {
					continue
				}
				for _, v := range arg.Vals {
					a, err := strconv.Atoi(v)
					if err != nil {
						d.Fatalf(t, "%v", err)
					}
					arities = append(arities, a)
				}
			}
			m = MakeJoinInputMapper(arities)
			var b strings.Builder
			fmt.Fprintf(&b, "inputs=%d columns=%d\n", m.TotalInputs(), m.TotalColumns())
			for i := 0; i < m.TotalInputs(); i++ {
				fmt.Fprintf(&b, "input %d: local=%s global=%s\n",
					i, formatInts(m.LocalColumns(i)), formatInts(m.GlobalColumns(i)))
			}
			return b.String()

		case "to-local":
			i, ok := m.SingleInput(expr)
			if !ok {
				return "not local\n"
			}
			return fmt.Sprintf("input %d: %s\n", i, m.MapExprToLocal(expr))

		case "to-global":
			return fmt.Sprintf("%s\n", m.MapExprToGlobal(expr, input))

		case "lookup-inputs":
			return formatInts(m.LookupInputs(expr)) + "\n"

		case "localize":
			if m.TryLocalizeToInputWithBoundExpr(&expr, input, classes) {
				return fmt.Sprintf("localized: %s\n", expr)
			}
			return fmt.Sprintf("not localized: %s\n", expr)

		case "consequence":
			c, ok := m.ConsequenceForInput(expr, input)
			if !ok {
				return "none\n"
			}
			return fmt.Sprintf("%s\n", c)

		default:
			d.Fatalf(t, "unsupported command: %s", d.Cmd)
			return ""
		}
	})
}
