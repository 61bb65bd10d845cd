package tree_test

import (
	"strings"
	"sync"
	"testing"

	"sprout/internal/symbols"
	"sprout/internal/testkit"
	"sprout/internal/tree"
)

const (
	symIdent = symbols.FirstUser + iota
	symPlus
	symExpr
	symStmt
	symParen
	symOperand
)

var names = symbols.NameList{
	symbols.Error: "ERROR",
	symbols.End:   "END",
	symIdent:      "identifier",
	symPlus:       "plus",
	symExpr:       "expression",
	symStmt:       "statement",
	symParen:      "parenthesized",
	symOperand:    "_operand",
}

func makeExpr(t *testing.T) (n, a, b *tree.Node) {
	t.Helper()
	a = tree.MakeLeaf(symIdent, 3, 0, false)
	b = tree.MakeLeaf(symPlus, 1, 1, false)
	n = tree.MakeNode(symExpr, []*tree.Node{a, b}, false)
	return n, a, b
}

func TestMakeNodeComputesExtentsAndOffsets(t *testing.T) {
	n, a, b := makeExpr(t)

	if n.Padding() != 0 || n.Size() != 5 || n.TotalSize() != 5 {
		t.Fatalf("extents: padding=%d size=%d total=%d", n.Padding(), n.Size(), n.TotalSize())
	}
	if n.VisibleChildCount() != 2 {
		t.Fatalf("visible child count = %d", n.VisibleChildCount())
	}
	want := []tree.Child{{Node: a, Offset: 0}, {Node: b, Offset: 4}}
	for i, got := range n.VisibleChildren() {
		if got != want[i] {
			t.Errorf("visible[%d] = %v@%d, want %v@%d", i, got.Node.Symbol(), got.Offset, want[i].Node.Symbol(), want[i].Offset)
		}
	}
	if err := testkit.CheckTree(n); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestMakeNodeHoistsFirstPadding(t *testing.T) {
	a := tree.MakeLeaf(symIdent, 3, 2, false)
	b := tree.MakeLeaf(symPlus, 1, 1, false)
	c := tree.MakeLeaf(symIdent, 4, 3, false)
	n := tree.MakeNode(symExpr, []*tree.Node{a, b, c}, false)

	if n.Padding() != 2 {
		t.Fatalf("padding = %d, want 2", n.Padding())
	}
	if n.Size() != 3+(1+1)+(3+4) {
		t.Fatalf("size = %d", n.Size())
	}
	offsets := []uint32{0, 4, 12}
	for i, child := range n.VisibleChildren() {
		if child.Offset != offsets[i] {
			t.Errorf("offset[%d] = %d, want %d", i, child.Offset, offsets[i])
		}
	}
}

func TestToString(t *testing.T) {
	n, _, _ := makeExpr(t)
	if got := tree.ToString(n, names); got != "(expression (identifier) (plus))" {
		t.Fatalf("ToString = %q", got)
	}
}

func TestToStringErrorNodes(t *testing.T) {
	tests := []struct {
		name      string
		lookahead rune
		want      string
	}{
		{"char", 'x', "(ERROR 'x')"},
		{"eof", tree.LookaheadEOF, "(ERROR <EOF>)"},
		{"multibyte", 'ж', "(ERROR 'ж')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tree.MakeError(0, 2, tt.lookahead)
			if !n.IsError() || !n.IsVisible() {
				t.Fatalf("error node must be visible and flagged")
			}
			if got := tree.ToString(n, names); got != tt.want {
				t.Fatalf("ToString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToStringNil(t *testing.T) {
	if got := tree.ToString(nil, names); got != "(NULL)" {
		t.Fatalf("ToString(nil) = %q", got)
	}
}

func TestToStringRendersHiddenRoot(t *testing.T) {
	a := tree.MakeLeaf(symIdent, 1, 0, false)
	b := tree.MakeLeaf(symIdent, 1, 0, false)
	root := tree.MakeNode(symOperand, []*tree.Node{a, b}, true)
	if got := tree.ToString(root, names); got != "(_operand (identifier) (identifier))" {
		t.Fatalf("ToString = %q", got)
	}
}

func TestToStringSplicesHiddenChildren(t *testing.T) {
	a := tree.MakeLeaf(symIdent, 1, 0, false)
	op := tree.MakeLeaf(symPlus, 1, 0, true)
	b := tree.MakeLeaf(symIdent, 1, 0, false)
	inner := tree.MakeNode(symOperand, []*tree.Node{op, b}, true)
	root := tree.MakeNode(symExpr, []*tree.Node{a, inner}, false)
	if got := tree.ToString(root, names); got != "(expression (identifier) (identifier))" {
		t.Fatalf("ToString = %q", got)
	}
}

func TestWrapperCollapse(t *testing.T) {
	x := tree.MakeLeaf(symIdent, 3, 0, false)
	y := tree.MakeLeaf(symIdent, 2, 1, false)
	inner := tree.MakeNode(symExpr, []*tree.Node{x, y}, false)
	// одиночный видимый ребёнок: обёртка схлопывается
	wrapper := tree.MakeNode(symParen, []*tree.Node{inner}, false)
	if !wrapper.IsWrapper() || !wrapper.IsHidden() {
		t.Fatalf("single visible child must make a wrapper, got %v", wrapper.Options())
	}
	// обёртка над обёрткой тоже обёртка
	outerWrapper := tree.MakeNode(symOperand, []*tree.Node{wrapper}, false)
	if !outerWrapper.IsWrapper() {
		t.Fatalf("wrapper of wrapper must collapse, got %v", outerWrapper.Options())
	}

	lead := tree.MakeLeaf(symPlus, 1, 0, false)
	grand := tree.MakeNode(symStmt, []*tree.Node{lead, outerWrapper}, false)

	vis := grand.VisibleChildren()
	if len(vis) != 2 {
		t.Fatalf("visible child count = %d, want 2", len(vis))
	}
	if vis[0].Node != lead || vis[0].Offset != 0 {
		t.Fatalf("visible[0] = %v@%d", vis[0].Node.Symbol(), vis[0].Offset)
	}
	if vis[1].Node != inner || vis[1].Offset != 1 {
		t.Fatalf("visible[1] = %v@%d, want inner@1", vis[1].Node.Symbol(), vis[1].Offset)
	}
	if got := tree.ToString(grand, names); got != "(statement (plus) (expression (identifier) (identifier)))" {
		t.Fatalf("ToString = %q", got)
	}
	if err := testkit.CheckTree(grand); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestSingleHiddenChildIsNotWrapper(t *testing.T) {
	h := tree.MakeLeaf(symPlus, 1, 0, true)
	n := tree.MakeNode(symExpr, []*tree.Node{h}, false)
	if n.IsWrapper() || n.IsHidden() {
		t.Fatalf("node over a hidden non-wrapper leaf must stay visible, got %v", n.Options())
	}
	if n.VisibleChildCount() != 0 {
		t.Fatalf("visible child count = %d", n.VisibleChildCount())
	}
}

func TestHiddenSpliceShiftsOffsets(t *testing.T) {
	a := tree.MakeLeaf(symIdent, 2, 0, false)
	b := tree.MakeLeaf(symIdent, 3, 1, false)
	hidden := tree.MakeNode(symOperand, []*tree.Node{a, b}, true)
	lead := tree.MakeLeaf(symPlus, 1, 4, false)
	root := tree.MakeNode(symExpr, []*tree.Node{lead, hidden}, false)

	// hidden начинается с 1 + padding(a)=0
	want := []tree.Child{{Node: lead, Offset: 0}, {Node: a, Offset: 1}, {Node: b, Offset: 1 + 3}}
	got := root.VisibleChildren()
	if len(got) != len(want) {
		t.Fatalf("visible child count = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visible[%d] offset=%d, want %d", i, got[i].Offset, want[i].Offset)
		}
	}
}

func TestLeafHasNoChildren(t *testing.T) {
	leaf := tree.MakeLeaf(symIdent, 5, 1, true)
	if !leaf.IsLeaf() || leaf.ChildCount() != 0 || leaf.VisibleChildCount() != 0 {
		t.Fatalf("leaf must be empty")
	}
	if !leaf.IsHidden() || leaf.IsWrapper() {
		t.Fatalf("leaf options = %v", leaf.Options())
	}
	if leaf.TotalSize() != 6 {
		t.Fatalf("total size = %d", leaf.TotalSize())
	}
}

func TestMakeNodePanicsOnEmptyChildren(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	tree.MakeNode(symExpr, nil, false)
}

func TestEqual(t *testing.T) {
	n1, _, _ := makeExpr(t)
	n2, _, _ := makeExpr(t)

	if !tree.Equal(n1, n1) {
		t.Fatalf("Equal must be reflexive")
	}
	if !tree.Equal(n1, n2) || !tree.Equal(n2, n1) {
		t.Fatalf("identical derivations must be equal both ways")
	}

	wide := tree.MakeNode(symExpr, []*tree.Node{
		tree.MakeLeaf(symIdent, 30, 7, false),
		tree.MakeLeaf(symPlus, 10, 2, false),
	}, false)
	if !tree.Equal(n1, wide) {
		t.Fatalf("Equal must ignore size and padding")
	}

	other := tree.MakeNode(symExpr, []*tree.Node{
		tree.MakeLeaf(symIdent, 3, 0, false),
		tree.MakeLeaf(symIdent, 1, 1, false),
	}, false)
	if tree.Equal(n1, other) {
		t.Fatalf("different child symbols must not be equal")
	}
}

func TestEqualLeaves(t *testing.T) {
	tests := []struct {
		name string
		a, b *tree.Node
		want bool
	}{
		{"extents ignored", tree.MakeLeaf(symIdent, 1, 0, false), tree.MakeLeaf(symIdent, 9, 4, false), true},
		{"symbol differs", tree.MakeLeaf(symIdent, 1, 0, false), tree.MakeLeaf(symPlus, 1, 0, false), false},
		{"lookahead differs", tree.MakeError(0, 0, 'a'), tree.MakeError(0, 0, 'b'), false},
		{"lookahead matches", tree.MakeError(1, 0, 'a'), tree.MakeError(0, 3, 'a'), true},
		{"nil vs leaf", nil, tree.MakeLeaf(symIdent, 1, 0, false), false},
		{"nil vs nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal = %v, want %v", got, tt.want)
			}
			if got := tree.Equal(tt.b, tt.a); got != tt.want {
				t.Fatalf("Equal is not symmetric")
			}
		})
	}
}

func TestEqualComparesVisibleChildCount(t *testing.T) {
	// одинаковые символы, но разная видимость листа
	a := tree.MakeNode(symExpr, []*tree.Node{tree.MakeLeaf(symIdent, 1, 0, false), tree.MakeLeaf(symPlus, 1, 0, false)}, false)
	b := tree.MakeNode(symExpr, []*tree.Node{tree.MakeLeaf(symIdent, 1, 0, false), tree.MakeLeaf(symPlus, 1, 0, true)}, false)
	if tree.Equal(a, b) {
		t.Fatalf("different visible child counts must not be equal")
	}
}

func TestRetainRelease(t *testing.T) {
	n, a, b := makeExpr(t)
	if n.RefCount() != 1 || a.RefCount() != 2 || b.RefCount() != 2 {
		t.Fatalf("refcounts: n=%d a=%d b=%d", n.RefCount(), a.RefCount(), b.RefCount())
	}
	tree.Retain(n)
	tree.Release(n)
	if n.RefCount() != 1 || n.ChildCount() != 2 {
		t.Fatalf("release of a shared node must not free it")
	}

	tree.Release(n)
	if n.RefCount() != 0 || n.ChildCount() != 0 || n.VisibleChildCount() != 0 {
		t.Fatalf("last release must free the node")
	}
	if a.RefCount() != 1 || b.RefCount() != 1 {
		t.Fatalf("children keep the constructor's reference: a=%d b=%d", a.RefCount(), b.RefCount())
	}
	tree.Release(a)
	tree.Release(b)
	if a.RefCount() != 0 || b.RefCount() != 0 {
		t.Fatalf("leaves must be freed")
	}
}

func TestSharedChildSurvivesParent(t *testing.T) {
	shared := tree.MakeLeaf(symIdent, 3, 0, false)
	p1 := tree.MakeNode(symExpr, []*tree.Node{shared, tree.MakeLeaf(symPlus, 1, 0, false)}, false)
	p2 := tree.MakeNode(symStmt, []*tree.Node{tree.MakeLeaf(symPlus, 1, 0, false), shared}, false)
	tree.Release(shared) // отдаём ссылку конструктора

	tree.Release(p1)
	if shared.RefCount() != 1 {
		t.Fatalf("shared refcount = %d, want 1", shared.RefCount())
	}
	if got := tree.ToString(p2, names); got != "(statement (plus) (identifier))" {
		t.Fatalf("surviving parent = %q", got)
	}
	tree.Release(p2)
	if shared.RefCount() != 0 {
		t.Fatalf("shared child must be freed with its last parent")
	}
}

func TestOverReleasePanics(t *testing.T) {
	leaf := tree.MakeLeaf(symIdent, 1, 0, false)
	tree.Release(leaf)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	tree.Release(leaf)
}

func TestDeepTrees(t *testing.T) {
	const depth = 200_000
	n := tree.MakeLeaf(symIdent, 1, 0, false)
	for i := 0; i < depth; i++ {
		next := tree.MakeNode(symExpr, []*tree.Node{n, tree.MakeLeaf(symPlus, 1, 1, false)}, false)
		tree.Release(n)
		n = next
	}
	m := tree.MakeLeaf(symIdent, 2, 0, false)
	for i := 0; i < depth; i++ {
		next := tree.MakeNode(symExpr, []*tree.Node{m, tree.MakeLeaf(symPlus, 1, 0, false)}, false)
		tree.Release(m)
		m = next
	}

	if !tree.Equal(n, m) {
		t.Fatalf("deep trees must compare equal")
	}
	out := tree.ToString(n, names)
	if !strings.HasPrefix(out, "(expression (expression") || strings.Count(out, "(plus)") != depth {
		t.Fatalf("unexpected deep rendering prefix %q", out[:40])
	}
	tree.Release(n)
	tree.Release(m)
	if n.RefCount() != 0 || m.RefCount() != 0 {
		t.Fatalf("deep trees must be freed")
	}
}

func TestConcurrentRetainRelease(t *testing.T) {
	shared, a, b := makeExpr(t)
	tree.Release(a)
	tree.Release(b)
	root := tree.MakeNode(symStmt, []*tree.Node{shared}, false)
	defer tree.Release(root)

	start := shared.RefCount()
	const workers, rounds = 8, 1000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				tree.Retain(shared)
				// родитель на каждом круге: ещё одна ссылка и её снятие
				parent := tree.MakeNode(symParen, []*tree.Node{shared}, false)
				tree.Release(parent)
				tree.Release(shared)
			}
		}()
	}
	wg.Wait()

	if got := shared.RefCount(); got != start {
		t.Fatalf("refcount = %d after concurrent use, want %d", got, start)
	}
	if a.RefCount() != 1 || b.RefCount() != 1 {
		t.Fatalf("children refcounts changed: %d %d", a.RefCount(), b.RefCount())
	}
	if got := tree.ToString(root, names); got != "(statement (expression (identifier) (plus)))" {
		t.Fatalf("ToString = %q", got)
	}
}
