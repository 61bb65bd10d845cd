package sexp

import (
	"strconv"
	"strings"

	"sprout/internal/symbols"
	"sprout/internal/tree"
)

// Flags is the symbol information Describe needs: names and the default
// visibility of each symbol. *symbols.Table implements it.
type Flags interface {
	symbols.Names
	Hidden(sym symbols.Symbol) bool
}

// Describe writes the full derivation of n, extents included, in the
// description format. Visibility flags are emitted only where the node
// differs from the symbol's default. A nil tree describes as "".
func Describe(n *tree.Node, flags Flags) string {
	type frame struct {
		node  *tree.Node
		close bool
		depth int
	}

	if n == nil {
		return ""
	}
	var sb strings.Builder
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.close {
			sb.WriteByte(')')
			continue
		}
		if f.depth > 0 {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat("  ", f.depth))
		}
		sb.WriteByte('(')
		if f.node.IsError() {
			sb.WriteString("ERROR ")
			sb.WriteString(quoteLookahead(f.node.Lookahead()))
		} else {
			sb.WriteString(QuoteName(flags.Name(f.node.Symbol())))
			writeVisibility(&sb, f.node, flags)
		}

		if f.node.IsLeaf() {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatUint(uint64(f.node.Size()), 10))
			if f.node.Padding() > 0 {
				sb.WriteByte(' ')
				sb.WriteString(strconv.FormatUint(uint64(f.node.Padding()), 10))
			}
			sb.WriteByte(')')
			continue
		}

		stack = append(stack, frame{close: true})
		children := f.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: f.depth + 1})
		}
	}
	return sb.String()
}

func writeVisibility(sb *strings.Builder, n *tree.Node, flags Flags) {
	def := flags.Hidden(n.Symbol())
	switch {
	case n.IsWrapper():
		// скрытость обёртки выводится заново при сборке
	case n.IsHidden() && !def:
		sb.WriteString(" :hidden")
	case !n.IsHidden() && def:
		sb.WriteString(" :visible")
	}
}

func quoteLookahead(r rune) string {
	switch r {
	case tree.LookaheadEOF:
		return "<EOF>"
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\r':
		return `'\r'`
	case '\\':
		return `'\\'`
	case '\'':
		return `'\''`
	default:
		return "'" + string(r) + "'"
	}
}
