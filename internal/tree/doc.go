// Package tree implements the immutable, reference-counted syntax tree built
// by the parser.
//
// Every Node keeps two views of its subtree:
//   - Children is the full derivation, hidden and wrapper rules included. The
//     node owns these references.
//   - VisibleChildren is a flattened cache of the visible descendants with
//     byte offsets relative to the node's content start. The references are
//     borrowed from the Children ownership tree.
//
// Invariants:
//   - TotalSize() == Padding() + Size().
//   - An internal node takes the padding of its first child; every later
//     child's padding is part of the parent's size.
//   - VisibleChildCount() counts visible direct children as one and hidden
//     direct children by their own VisibleChildCount().
//   - A node with a single visible or wrapper child is Hidden|Wrapper.
//   - Nodes never change after construction except for the reference count.
//
// Syntax errors are nodes carrying the Error symbol and the rejected
// lookahead character. They are never returned as Go errors.
package tree
