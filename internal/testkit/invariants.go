package testkit

import (
	"fmt"

	"sprout/internal/tree"
)

// CheckTree verifies the structural invariants of every node reachable from
// root through the full derivation:
// 1) TotalSize == Padding + Size
// 2) internal nodes take the first child's padding and cover the rest
// 3) the visible cache matches a fresh flattening of the children
// 4) single visible/wrapper children make the parent a hidden wrapper
// 5) leaves have no visible cache
// Shared subtrees are checked once. The first violation is returned.
func CheckTree(root *tree.Node) error {
	if root == nil {
		return fmt.Errorf("nil tree")
	}
	seen := make(map[*tree.Node]struct{})
	stack := []*tree.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}

		if err := checkNode(n); err != nil {
			return fmt.Errorf("node %v (refs=%d): %w", n.Symbol(), n.RefCount(), err)
		}
		stack = append(stack, n.Children()...)
	}
	return nil
}

func checkNode(n *tree.Node) error {
	if n.RefCount() <= 0 {
		return fmt.Errorf("reachable node has no owners")
	}
	if n.TotalSize() != n.Padding()+n.Size() {
		return fmt.Errorf("total size %d != padding %d + size %d", n.TotalSize(), n.Padding(), n.Size())
	}

	children := n.Children()
	if len(children) == 0 {
		if n.VisibleChildCount() != 0 {
			return fmt.Errorf("leaf has %d visible children", n.VisibleChildCount())
		}
		if n.IsWrapper() {
			return fmt.Errorf("leaf marked as wrapper")
		}
		return nil
	}

	// 2) extents
	padding := children[0].Padding()
	size := children[0].Size()
	for _, child := range children[1:] {
		size += child.Padding() + child.Size()
	}
	if n.Padding() != padding {
		return fmt.Errorf("padding %d, want first child padding %d", n.Padding(), padding)
	}
	if n.Size() != size {
		return fmt.Errorf("size %d, want %d", n.Size(), size)
	}

	// 3) visible cache
	want := flatten(children)
	got := n.VisibleChildren()
	if len(got) != len(want) {
		return fmt.Errorf("visible child count %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Node != want[i].Node {
			return fmt.Errorf("visible[%d] is %v, want %v", i, got[i].Node.Symbol(), want[i].Node.Symbol())
		}
		if got[i].Offset != want[i].Offset {
			return fmt.Errorf("visible[%d] offset %d, want %d", i, got[i].Offset, want[i].Offset)
		}
	}
	for i, c := range got {
		if c.Offset+c.Node.Size() > size {
			return fmt.Errorf("visible[%d] ends at %d beyond node size %d", i, c.Offset+c.Node.Size(), size)
		}
	}

	// 4) wrapper collapse
	if len(children) == 1 && (children[0].IsVisible() || children[0].IsWrapper()) {
		if !n.IsWrapper() || !n.IsHidden() {
			return fmt.Errorf("single-child pass-through not collapsed: %v", n.Options())
		}
	} else if n.IsWrapper() {
		return fmt.Errorf("wrapper flag on a node with %d children", len(children))
	}
	return nil
}

// flatten recomputes the visible cache without using the children's caches.
func flatten(children []*tree.Node) []tree.Child {
	var out []tree.Child
	var offset uint32
	for i, child := range children {
		if i > 0 {
			offset += child.Padding()
		}
		if child.IsVisible() {
			out = append(out, tree.Child{Node: child, Offset: offset})
		} else if child.ChildCount() > 0 {
			for _, gc := range flatten(child.Children()) {
				out = append(out, tree.Child{Node: gc.Node, Offset: offset + gc.Offset})
			}
		}
		offset += child.Size()
	}
	return out
}
