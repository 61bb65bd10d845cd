package reuse

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"sprout/internal/tree"
)

// shapeHash hashes exactly the properties tree.Equal compares, so equal
// trees always collide. Shared subtrees are hashed once.
func shapeHash(root *tree.Node) uint64 {
	type frame struct {
		node     *tree.Node
		expanded bool
	}

	memo := make(map[*tree.Node]uint64)
	stack := []frame{{node: root}}
	var buf [16]byte
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := memo[f.node]; done {
			continue
		}
		if !f.expanded {
			stack = append(stack, frame{node: f.node, expanded: true})
			for _, child := range f.node.Children() {
				stack = append(stack, frame{node: child})
			}
			continue
		}

		d := xxhash.New()
		binary.LittleEndian.PutUint16(buf[0:], uint16(f.node.Symbol()))
		binary.LittleEndian.PutUint32(buf[2:], uint32(f.node.Lookahead()))
		binary.LittleEndian.PutUint32(buf[6:], uint32(f.node.ChildCount()))
		binary.LittleEndian.PutUint32(buf[10:], uint32(f.node.VisibleChildCount()))
		_, _ = d.Write(buf[:14])
		for _, child := range f.node.Children() {
			binary.LittleEndian.PutUint64(buf[:8], memo[child])
			_, _ = d.Write(buf[:8])
		}
		memo[f.node] = d.Sum64()
	}
	return memo[root]
}

// sameExtents reports whether two trees of equal shape also cover identical
// byte extents at every node.
func sameExtents(a, b *tree.Node) bool {
	type pair struct{ a, b *tree.Node }

	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a == p.b {
			continue
		}
		if p.a.Size() != p.b.Size() || p.a.Padding() != p.b.Padding() || p.a.ChildCount() != p.b.ChildCount() {
			return false
		}
		ac, bc := p.a.Children(), p.b.Children()
		for i := range ac {
			stack = append(stack, pair{ac[i], bc[i]})
		}
	}
	return true
}
