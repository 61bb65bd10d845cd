package symbols

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownSymbol is returned by strict lookups of undefined names.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Info describes a defined symbol.
type Info struct {
	Name   string
	Hidden bool // правило скрыто из видимого дерева
}

// Table assigns identifiers to symbol names. Builtin symbols are always
// present. A Table is not safe for concurrent mutation.
type Table struct {
	infos []Info
	index map[string]Symbol
}

// NewTable returns a table holding only the builtin symbols.
func NewTable() *Table {
	t := &Table{
		infos: make([]Info, 0, 16),
		index: make(map[string]Symbol, 16),
	}
	t.infos = append(t.infos, Info{Name: Error.String()}, Info{Name: End.String()})
	t.index[Error.String()] = Error
	t.index[End.String()] = End
	return t
}

// HiddenByName reports whether a rule name follows the hidden-rule naming
// convention (leading underscore).
func HiddenByName(name string) bool {
	return strings.HasPrefix(name, "_")
}

func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Define registers name and returns its symbol. Defining an existing name
// returns the existing symbol and leaves its flags untouched.
func (t *Table) Define(name string, hidden bool) (Symbol, error) {
	name = normalizeName(name)
	if name == "" {
		return 0, fmt.Errorf("empty symbol name")
	}
	if sym, ok := t.index[name]; ok {
		return sym, nil
	}
	next, err := safecast.Conv[uint16](len(t.infos))
	if err != nil {
		return 0, fmt.Errorf("symbol table overflow at %q: %w", name, err)
	}
	sym := Symbol(next)
	t.infos = append(t.infos, Info{Name: name, Hidden: hidden})
	t.index[name] = sym
	return sym, nil
}

// MustDefine is Define for statically known names; it panics on error.
func (t *Table) MustDefine(name string, hidden bool) Symbol {
	sym, err := t.Define(name, hidden)
	if err != nil {
		panic(err)
	}
	return sym
}

// Lookup returns the symbol registered under name, normalized as in Define.
func (t *Table) Lookup(name string) (Symbol, bool) {
	sym, ok := t.index[normalizeName(name)]
	return sym, ok
}

// Resolve is a strict Lookup returning ErrUnknownSymbol for undefined names.
func (t *Table) Resolve(name string) (Symbol, error) {
	sym, ok := t.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, name)
	}
	return sym, nil
}

// Info returns the definition of sym.
func (t *Table) Info(sym Symbol) (Info, bool) {
	if int(sym) >= len(t.infos) {
		return Info{}, false
	}
	return t.infos[sym], true
}

// Name implements Names.
func (t *Table) Name(sym Symbol) string {
	if info, ok := t.Info(sym); ok {
		return info.Name
	}
	return sym.String()
}

// Hidden reports whether sym was defined as a hidden rule.
func (t *Table) Hidden(sym Symbol) bool {
	info, ok := t.Info(sym)
	return ok && info.Hidden
}

// Len returns the number of symbols, builtins included.
func (t *Table) Len() int {
	return len(t.infos)
}

// NameList returns a copy of all display names indexed by symbol.
func (t *Table) NameList() NameList {
	names := make(NameList, len(t.infos))
	for i, info := range t.infos {
		names[i] = info.Name
	}
	return names
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		infos: slices.Clone(t.infos),
		index: make(map[string]Symbol, len(t.index)),
	}
	for name, sym := range t.index {
		c.index[name] = sym
	}
	return c
}
