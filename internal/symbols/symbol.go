// Package symbols defines grammar symbol identifiers and the table that maps
// them to display names.
//
// Two identifiers are builtin and exist in every table:
//   - Error marks a syntax-error node produced during recovery.
//   - End marks the end of input.
//
// Grammar symbols are allocated from FirstUser upward in definition order.
package symbols

import "strconv"

// Symbol identifies a grammar rule or token kind.
type Symbol uint16

const (
	// Error is the reserved symbol of syntax-error nodes.
	Error Symbol = iota
	// End is the reserved end-of-input symbol.
	End
	// FirstUser is the first identifier handed out to grammar symbols.
	FirstUser
)

// IsBuiltin reports whether the symbol is one of the reserved identifiers.
func (s Symbol) IsBuiltin() bool { return s < FirstUser }

func (s Symbol) String() string {
	switch s {
	case Error:
		return "ERROR"
	case End:
		return "END"
	default:
		return "sym#" + strconv.Itoa(int(s))
	}
}

// Names maps symbols to their display names. It is the only view of the
// symbol space that tree serialization needs.
type Names interface {
	Name(sym Symbol) string
}

// NameList is a Names backed by a slice indexed by symbol.
type NameList []string

// Name returns the display name of sym or its numeric fallback.
func (l NameList) Name(sym Symbol) string {
	if int(sym) < len(l) && l[sym] != "" {
		return l[sym]
	}
	return sym.String()
}
