// Package reuse keeps completed subtrees addressable by stable integer
// handles and finds previously built subtrees by content.
//
// The store owns one reference to every subtree it holds. Lookups return
// nodes retained on behalf of the caller, who releases them as usual.
package reuse

import (
	"sprout/internal/tree"
)

// ID is a handle of a stored subtree.
type ID uint32

// NoID marks the absence of a stored subtree.
const NoID ID = 0

// IsValid reports whether the handle refers to a stored subtree.
func (id ID) IsValid() bool { return id != NoID }

type entry struct {
	node *tree.Node
}

// Store interns subtrees. It is not safe for concurrent use.
type Store struct {
	entries *Arena[entry]
	buckets map[uint64][]ID
}

// NewStore creates an empty store sized for capHint subtrees.
func NewStore(capHint uint) *Store {
	return &Store{
		entries: NewArena[entry](capHint),
		buckets: make(map[uint64][]ID, capHint),
	}
}

// Intern returns the stored subtree identical to n: same derivation per
// tree.Equal and the same extents at every node. When none is stored, n
// itself becomes the canonical subtree. The returned node is retained for
// the caller; the caller's reference to n is left untouched.
func (s *Store) Intern(n *tree.Node) (ID, *tree.Node) {
	h := shapeHash(n)
	for _, id := range s.buckets[h] {
		e := s.entries.Get(uint32(id))
		if tree.Equal(e.node, n) && sameExtents(e.node, n) {
			tree.Retain(e.node)
			return id, e.node
		}
	}

	tree.Retain(n) // ссылка хранилища
	id := ID(s.entries.Allocate(entry{node: n}))
	s.buckets[h] = append(s.buckets[h], id)
	tree.Retain(n)
	return id, n
}

// FindEqual returns a stored subtree with the same derivation as n per
// tree.Equal, regardless of extents. Candidates whose extents also match are
// preferred. The returned node is retained for the caller.
func (s *Store) FindEqual(n *tree.Node) (ID, *tree.Node, bool) {
	var (
		match   ID
		matched *tree.Node
	)
	for _, id := range s.buckets[shapeHash(n)] {
		e := s.entries.Get(uint32(id))
		if !tree.Equal(e.node, n) {
			continue
		}
		if sameExtents(e.node, n) {
			match, matched = id, e.node
			break
		}
		if matched == nil {
			match, matched = id, e.node
		}
	}
	if matched == nil {
		return NoID, nil, false
	}
	tree.Retain(matched)
	return match, matched, true
}

// Get returns the subtree behind id without retaining it, or nil.
func (s *Store) Get(id ID) *tree.Node {
	e := s.entries.Get(uint32(id))
	if e == nil {
		return nil
	}
	return e.node
}

// Len returns the number of stored subtrees.
func (s *Store) Len() int {
	return int(s.entries.Len())
}

// Close releases every stored subtree. The store is empty afterwards.
func (s *Store) Close() {
	for _, e := range s.entries.Slice() {
		tree.Release(e.node)
	}
	s.entries.Reset()
	clear(s.buckets)
}
