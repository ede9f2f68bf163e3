// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/opt/memo"
)

// FormatOrders formats one join order per line, in the style of the orders
// of a delta query:
//
//	%0: 0[#1]K » 1[#0]KA » 2[#0]KA
func FormatOrders(orders [][]memo.JoinStep) string {
	var b strings.Builder
	for i, order := range orders {
		b.WriteString("%")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(":")
		for j, s := range order {
			if j > 0 {
				b.WriteString(" »")
			}
			b.WriteByte(' ')
			b.WriteString(s.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseExprFmtFlags parses a list of format names: show-all, hide-all,
// hide-types and hide-characteristics.
func ParseExprFmtFlags(names []string) (memo.ExprFmtFlags, error) {
	flags := memo.ExprFmtShowAll
	for _, name := range names {
		switch name {
		case "show-all":
			flags = memo.ExprFmtShowAll
		case "hide-all":
			flags = memo.ExprFmtHideAll
		case "hide-types":
			flags |= memo.ExprFmtHideTypes
		case "hide-characteristics":
			flags |= memo.ExprFmtHideCharacteristics
		default:
			return 0, errors.Newf("unknown format %q", name)
		}
	}
	return flags, nil
}
