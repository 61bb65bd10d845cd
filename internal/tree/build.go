package tree

import "sprout/internal/symbols"

// MakeLeaf builds a token node.
func MakeLeaf(sym symbols.Symbol, size, padding uint32, hidden bool) *Node {
	n := &Node{
		symbol:  sym,
		size:    size,
		padding: padding,
	}
	if hidden {
		n.options = Hidden
	}
	n.refs.Store(1)
	return n
}

// MakeError builds a visible error leaf recording the rejected lookahead
// character, or LookaheadEOF at end of input.
func MakeError(size, padding uint32, lookahead rune) *Node {
	n := MakeLeaf(symbols.Error, size, padding, false)
	n.lookahead = lookahead
	return n
}

// MakeNode builds an internal node over children, retaining each of them.
// The slice is owned by the node afterwards; the caller must not modify it.
// children must not be empty.
func MakeNode(sym symbols.Symbol, children []*Node, hidden bool) *Node {
	if len(children) == 0 {
		panic("tree: MakeNode requires at least one child")
	}

	var size, padding uint32
	visibleCount := 0
	for i, child := range children {
		Retain(child)

		if i == 0 {
			padding = child.padding
			size = child.size
		} else {
			size += child.padding + child.size
		}

		if child.IsVisible() {
			visibleCount++
		} else {
			visibleCount += len(child.visible)
		}
	}

	var options Options
	if hidden {
		options |= Hidden
	}
	if len(children) == 1 && (children[0].IsVisible() || children[0].IsWrapper()) {
		options |= Wrapper | Hidden
	}

	n := &Node{
		symbol:   sym,
		options:  options,
		size:     size,
		padding:  padding,
		children: children,
		visible:  make([]Child, 0, visibleCount),
	}
	n.refs.Store(1)

	var offset uint32
	for i, child := range children {
		if i > 0 {
			offset += child.padding
		}
		if child.IsVisible() {
			n.visible = append(n.visible, Child{Node: child, Offset: offset})
		} else {
			// скрытый ребёнок уже хранит плоский список своих видимых потомков
			for _, grandchild := range child.visible {
				n.visible = append(n.visible, Child{
					Node:   grandchild.Node,
					Offset: offset + grandchild.Offset,
				})
			}
		}
		offset += child.size
	}

	return n
}
