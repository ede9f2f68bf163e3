// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package treeprinter renders hierarchical data as an indented tree, e.g.:
//
//	join
//	 ├── get u1
//	 └── get u2
package treeprinter

import (
	"fmt"
	"strings"
)

const (
	edgeLink = " ├── "
	edgeLast = " └── "
	vertical = " │   "
	space    = "     "
)

// Node is a handle associated with a specific depth in a tree.
type Node struct {
	text     string
	children []*Node
}

// New creates a tree printer and returns a sentinel node reference which
// should be used to add the root. Only one root may be added.
func New() Node {
	return Node{}
}

// Child adds a node as a child of the given node and returns it.
func (n *Node) Child(text string) *Node {
	c := &Node{text: text}
	n.children = append(n.children, c)
	return c
}

// Childf adds a node as a child of the given node.
func (n *Node) Childf(format string, args ...interface{}) *Node {
	return n.Child(fmt.Sprintf(format, args...))
}

// String returns the rendered tree, one line per node, with a trailing
// newline.
func (n *Node) String() string {
	var sb strings.Builder
	for _, root := range n.children {
		sb.WriteString(root.text)
		sb.WriteByte('\n')
		root.render(&sb, "")
	}
	return sb.String()
}

func (n *Node) render(sb *strings.Builder, prefix string) {
	for i, c := range n.children {
		last := i == len(n.children)-1
		sb.WriteString(prefix)
		if last {
			sb.WriteString(edgeLast)
		} else {
			sb.WriteString(edgeLink)
		}
		sb.WriteString(c.text)
		sb.WriteByte('\n')
		if last {
			c.render(sb, prefix+space)
		} else {
			c.render(sb, prefix+vertical)
		}
	}
}
