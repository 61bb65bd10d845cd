// Package snapshot persists syntax trees in msgpack.
//
// Nodes are written once each in post-order, children referring to earlier
// records by index, so subtrees shared by several parents stay shared after
// decoding. Decoding rebuilds every node through the tree constructors;
// visible caches are never stored.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"sprout/internal/symbols"
	"sprout/internal/tree"
)

// SchemaVersion is bumped whenever the record layout changes.
const SchemaVersion uint16 = 1

var (
	// ErrSchema is returned for payloads written with another schema.
	ErrSchema = errors.New("snapshot schema mismatch")
	// ErrCorrupt is returned for structurally invalid payloads.
	ErrCorrupt = errors.New("corrupt snapshot")
)

type record struct {
	Symbol    uint16   `msgpack:"s"`
	Size      uint32   `msgpack:"z"`
	Padding   uint32   `msgpack:"p"`
	Lookahead int32    `msgpack:"l,omitempty"`
	Hidden    bool     `msgpack:"h,omitempty"`
	Children  []uint32 `msgpack:"c,omitempty"`
}

type payload struct {
	Schema uint16   `msgpack:"schema"`
	Names  []string `msgpack:"names"`
	Nodes  []record `msgpack:"nodes"`
	Root   uint32   `msgpack:"root"`
}

// Snapshot is a decoded tree together with the symbol names it was written
// with.
type Snapshot struct {
	Root  *tree.Node
	Names symbols.NameList
	// Nodes is the number of distinct nodes in the payload.
	Nodes int
}

// Release drops the snapshot's reference to its root.
func (s *Snapshot) Release() {
	if s.Root != nil {
		tree.Release(s.Root)
		s.Root = nil
	}
}

// Encode writes root and the given symbol names to w.
func Encode(w io.Writer, root *tree.Node, names symbols.NameList) error {
	if root == nil {
		return fmt.Errorf("snapshot: nil tree")
	}
	p, err := flatten(root)
	if err != nil {
		return err
	}
	p.Names = names
	if err := msgpack.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

func flatten(root *tree.Node) (*payload, error) {
	type frame struct {
		node     *tree.Node
		expanded bool
	}

	index := make(map[*tree.Node]uint32)
	p := &payload{Schema: SchemaVersion}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := index[f.node]; done {
			continue
		}
		if !f.expanded {
			stack = append(stack, frame{node: f.node, expanded: true})
			children := f.node.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: children[i]})
			}
			continue
		}

		rec := record{
			Symbol:    uint16(f.node.Symbol()),
			Size:      f.node.Size(),
			Padding:   f.node.Padding(),
			Lookahead: f.node.Lookahead(),
			Hidden:    f.node.IsHidden(),
		}
		if f.node.ChildCount() > 0 {
			rec.Children = make([]uint32, 0, f.node.ChildCount())
			for _, child := range f.node.Children() {
				rec.Children = append(rec.Children, index[child])
			}
		}
		id, err := safecast.Conv[uint32](len(p.Nodes))
		if err != nil {
			return nil, fmt.Errorf("snapshot: too many nodes: %w", err)
		}
		index[f.node] = id
		p.Nodes = append(p.Nodes, rec)
	}
	p.Root = index[root]
	return p, nil
}

// Decode reads a tree written by Encode. The returned root is owned by the
// caller.
func Decode(r io.Reader) (*Snapshot, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, p.Schema, SchemaVersion)
	}
	if len(p.Nodes) == 0 || int(p.Root) >= len(p.Nodes) {
		return nil, fmt.Errorf("%w: root %d of %d nodes", ErrCorrupt, p.Root, len(p.Nodes))
	}

	nodes := make([]*tree.Node, 0, len(p.Nodes))
	// на выходе у декодера остаётся одна ссылка на каждый узел
	releaseAll := func() {
		for _, n := range nodes {
			tree.Release(n)
		}
	}

	for i, rec := range p.Nodes {
		n, err := rebuild(i, rec, nodes)
		if err != nil {
			releaseAll()
			return nil, err
		}
		nodes = append(nodes, n)
	}

	root := nodes[p.Root]
	tree.Retain(root)
	releaseAll()
	return &Snapshot{Root: root, Names: p.Names, Nodes: len(p.Nodes)}, nil
}

func rebuild(i int, rec record, built []*tree.Node) (*tree.Node, error) {
	sym := symbols.Symbol(rec.Symbol)
	if len(rec.Children) == 0 {
		if sym == symbols.Error {
			return tree.MakeError(rec.Size, rec.Padding, rec.Lookahead), nil
		}
		return tree.MakeLeaf(sym, rec.Size, rec.Padding, rec.Hidden), nil
	}

	children := make([]*tree.Node, len(rec.Children))
	for j, ref := range rec.Children {
		if int(ref) >= i {
			return nil, fmt.Errorf("%w: node %d refers forward to %d", ErrCorrupt, i, ref)
		}
		children[j] = built[ref]
	}
	n := tree.MakeNode(sym, children, rec.Hidden)
	if n.Size() != rec.Size || n.Padding() != rec.Padding {
		tree.Release(n)
		return nil, fmt.Errorf("%w: node %d extents %d/%d, stored %d/%d",
			ErrCorrupt, i, n.Size(), n.Padding(), rec.Size, rec.Padding)
	}
	return n, nil
}

// WriteFile encodes root into path, replacing it atomically.
func WriteFile(path string, root *tree.Node, names symbols.NameList) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()

	if err := Encode(f, root, names); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(tmp, path)
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	snap, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
