package tree

import (
	"sync/atomic"

	"sprout/internal/symbols"
)

// Options is a bit set of node flags.
type Options uint8

const (
	// Hidden excludes the node from the visible tree.
	Hidden Options = 1 << iota
	// Wrapper marks a node that only hosts a single visible or wrapper child.
	Wrapper
)

func (o Options) String() string {
	switch o {
	case 0:
		return "visible"
	case Hidden:
		return "hidden"
	case Wrapper:
		return "wrapper"
	case Hidden | Wrapper:
		return "hidden|wrapper"
	default:
		return "invalid"
	}
}

// LookaheadEOF is the lookahead of an error node raised at end of input.
const LookaheadEOF rune = 0

// Child is an entry of the visible-children cache.
type Child struct {
	Node   *Node
	Offset uint32 // от начала содержимого родителя, без его padding
}

// Node is one grammar-rule application or token.
type Node struct {
	refs      atomic.Int32
	symbol    symbols.Symbol
	options   Options
	lookahead rune
	size      uint32
	padding   uint32
	children  []*Node
	visible   []Child
}

// Symbol returns the grammar symbol of the node.
func (n *Node) Symbol() symbols.Symbol { return n.symbol }

// Size returns the byte length of the node's content, leading trivia excluded.
func (n *Node) Size() uint32 { return n.size }

// Padding returns the byte length of the leading trivia.
func (n *Node) Padding() uint32 { return n.padding }

// TotalSize returns Padding() + Size().
func (n *Node) TotalSize() uint32 { return n.padding + n.size }

// Lookahead returns the rejected input character of an error node, or
// LookaheadEOF. It is zero for every other node.
func (n *Node) Lookahead() rune { return n.lookahead }

// Options returns the node flags.
func (n *Node) Options() Options { return n.options }

// IsHidden reports whether the node is excluded from the visible tree.
func (n *Node) IsHidden() bool { return n.options&Hidden != 0 }

// IsVisible reports whether the node appears in the visible tree.
func (n *Node) IsVisible() bool { return n.options&Hidden == 0 }

// IsWrapper reports whether the node was collapsed as a pass-through rule.
func (n *Node) IsWrapper() bool { return n.options&Wrapper != 0 }

// IsError reports whether the node represents a syntax error.
func (n *Node) IsError() bool { return n.symbol == symbols.Error }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Children returns the full derivation. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns len(Children()).
func (n *Node) ChildCount() int { return len(n.children) }

// VisibleChildren returns the flattened visible descendants. The slice must
// not be modified, and its nodes are only valid while n is retained.
func (n *Node) VisibleChildren() []Child { return n.visible }

// VisibleChildCount returns len(VisibleChildren()).
func (n *Node) VisibleChildCount() int { return len(n.visible) }

// RefCount returns the number of outstanding owners.
func (n *Node) RefCount() int32 { return n.refs.Load() }
