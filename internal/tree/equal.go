package tree

// Equal reports whether a and b have the same derivation: symbols,
// lookahead characters, child counts and visible child counts match at every
// position of the full tree. Size and padding are not compared.
func Equal(a, b *Node) bool {
	type pair struct{ a, b *Node }

	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a == p.b {
			continue
		}
		if p.a == nil || p.b == nil {
			return false
		}
		if p.a.symbol != p.b.symbol ||
			p.a.lookahead != p.b.lookahead ||
			len(p.a.children) != len(p.b.children) ||
			len(p.a.visible) != len(p.b.visible) {
			return false
		}
		for i := len(p.a.children) - 1; i >= 0; i-- {
			stack = append(stack, pair{p.a.children[i], p.b.children[i]})
		}
	}
	return true
}
