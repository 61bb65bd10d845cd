package tree

// Retain registers one more owner of n.
func Retain(n *Node) {
	n.refs.Add(1)
}

// Release drops one owner of n. When the last owner is gone the node
// releases its children and drops its storage. The visible cache holds
// borrowed references and is never released.
//
// Work is proportional to the size of the subtree that becomes unowned. The
// walk uses an explicit stack, so depth is not limited by the goroutine
// stack. Releasing more times than retained panics.
func Release(n *Node) {
	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		left := top.refs.Add(-1)
		if left > 0 {
			continue
		}
		if left < 0 {
			panic("tree: release of a node without owners")
		}
		stack = append(stack, top.children...)
		top.children = nil
		top.visible = nil
	}
}
