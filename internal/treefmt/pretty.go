// Package treefmt renders the visible tree as an indented listing with
// absolute byte ranges:
//
//	expression  [0..5)
//	  identifier  [0..3)
//	  plus        [4..5)
//
// Positions come from the visible-children caches; hidden nodes are never
// visited.
package treefmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"sprout/internal/symbols"
	"sprout/internal/tree"
)

// PrettyOpts controls rendering.
type PrettyOpts struct {
	Color  bool
	Indent int    // пробелов на уровень; 2 по умолчанию
	Base   uint32 // absolute offset of the root's leading trivia
}

type line struct {
	label string
	depth int
	start uint32
	end   uint32
	kind  lineKind
}

type lineKind uint8

const (
	lineNormal lineKind = iota
	lineError
	lineHiddenRoot
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	hiddenStyle = lipgloss.NewStyle().Faint(true)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	rangeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Pretty writes the listing of root to w.
func Pretty(w io.Writer, root *tree.Node, names symbols.Names, opts PrettyOpts) error {
	if root == nil {
		_, err := io.WriteString(w, "(NULL)\n")
		return err
	}
	if opts.Indent <= 0 {
		opts.Indent = 2
	}

	lines := collect(root, names, opts.Base)

	width := 0
	for _, l := range lines {
		if lw := l.depth*opts.Indent + runewidth.StringWidth(l.label); lw > width {
			width = lw
		}
	}

	var sb strings.Builder
	for _, l := range lines {
		indent := strings.Repeat(" ", l.depth*opts.Indent)
		gap := strings.Repeat(" ", width-len(indent)-runewidth.StringWidth(l.label)+2)
		label := l.label
		span := fmt.Sprintf("[%d..%d)", l.start, l.end)
		if opts.Color {
			label = styleFor(l.kind).Render(label)
			span = rangeStyle.Render(span)
		}
		sb.WriteString(indent)
		sb.WriteString(label)
		sb.WriteString(gap)
		sb.WriteString(span)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String is Pretty into a string without color.
func String(root *tree.Node, names symbols.Names) string {
	var sb strings.Builder
	_ = Pretty(&sb, root, names, PrettyOpts{})
	return sb.String()
}

func styleFor(kind lineKind) lipgloss.Style {
	switch kind {
	case lineError:
		return errorStyle
	case lineHiddenRoot:
		return hiddenStyle
	default:
		return nameStyle
	}
}

func label(n *tree.Node, names symbols.Names) string {
	if n.IsError() {
		if n.Lookahead() == tree.LookaheadEOF {
			return "ERROR <EOF>"
		}
		return fmt.Sprintf("ERROR %q", n.Lookahead())
	}
	return names.Name(n.Symbol())
}

func collect(root *tree.Node, names symbols.Names, base uint32) []line {
	type frame struct {
		node  *tree.Node
		start uint32
		depth int
	}

	var lines []line
	stack := []frame{{node: root, start: base + root.Padding()}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kind := lineNormal
		switch {
		case f.node.IsError():
			kind = lineError
		case f.depth == 0 && f.node.IsHidden():
			kind = lineHiddenRoot
		}
		lines = append(lines, line{
			label: label(f.node, names),
			depth: f.depth,
			start: f.start,
			end:   f.start + f.node.Size(),
			kind:  kind,
		})

		vis := f.node.VisibleChildren()
		for i := len(vis) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:  vis[i].Node,
				start: f.start + vis[i].Offset,
				depth: f.depth + 1,
			})
		}
	}
	return lines
}
