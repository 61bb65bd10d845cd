package tree

import (
	"io"
	"strings"

	"sprout/internal/symbols"
)

const nullTree = "(NULL)"

// ToString renders the visible tree of n as an S-expression:
//
//	(expression (identifier) (plus))
//
// The root is always rendered, hidden or not. Hidden descendants contribute
// only their visible descendants. Error nodes render as (ERROR 'c') or
// (ERROR <EOF>). A nil tree renders as (NULL).
//
// The length is measured first and the result is written into a buffer of
// exactly that size.
func ToString(n *Node, names symbols.Names) string {
	var counter countingSink
	writeTree(&counter, n, names)

	var sb strings.Builder
	sb.Grow(counter.n)
	writeTree(&sb, n, names)
	return sb.String()
}

// countingSink measures output without storing it.
type countingSink struct{ n int }

func (c *countingSink) WriteString(s string) (int, error) {
	c.n += len(s)
	return len(s), nil
}

type writeFrame struct {
	node  *Node
	root  bool
	close bool
}

func writeTree(w io.StringWriter, n *Node, names symbols.Names) {
	stack := []writeFrame{{node: n, root: true}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.close {
			_, _ = w.WriteString(")")
			continue
		}
		if f.node == nil {
			_, _ = w.WriteString(nullTree)
			continue
		}

		visible := f.root || f.node.IsVisible()
		if visible {
			if !f.root {
				_, _ = w.WriteString(" ")
			}
			_, _ = w.WriteString("(")
			if f.node.IsError() {
				_, _ = w.WriteString("ERROR ")
				_, _ = w.WriteString(lookaheadString(f.node.lookahead))
			} else {
				_, _ = w.WriteString(names.Name(f.node.symbol))
			}
			stack = append(stack, writeFrame{close: true})
		}

		for i := len(f.node.children) - 1; i >= 0; i-- {
			stack = append(stack, writeFrame{node: f.node.children[i]})
		}
	}
}

func lookaheadString(r rune) string {
	if r == LookaheadEOF {
		return "<EOF>"
	}
	return "'" + string(r) + "'"
}
