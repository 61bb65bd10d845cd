// Package sexp reads and writes a textual description of syntax trees.
//
//	; comments run to the end of the line
//	(expression
//	  (identifier 3)        ; leaf: size
//	  (plus 1 1)            ; leaf: size padding
//	  (_operand
//	    (number :visible 2 1)))
//	(ERROR 'x' 0 2)         ; error leaf: lookahead size [padding]
//	(ERROR <EOF> 0)
//
// A node whose items are integers is a leaf, a node with child nodes is an
// internal node; mixing both is an error. Visibility comes from the symbol
// table and can be overridden with the :hidden and :visible flags. Names made
// of anything but letters, digits, '_', '-' and '.' are written in double
// quotes, as in ("+" 1 1); '"' and '\' are escaped with a backslash inside.
//
// Describe produces text that reads back into an equal tree with the same
// extents.
package sexp
