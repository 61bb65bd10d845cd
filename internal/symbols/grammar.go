package symbols

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type grammarFile struct {
	Name    string          `toml:"name"`
	Symbols []grammarSymbol `toml:"symbol"`
}

type grammarSymbol struct {
	Name   string `toml:"name"`
	Hidden *bool  `toml:"hidden"`
}

// Grammar is a named symbol table loaded from a grammar file.
type Grammar struct {
	Name  string
	Table *Table
}

// LoadGrammar reads a TOML grammar description:
//
//	name = "arith"
//
//	[[symbol]]
//	name = "expression"
//
//	[[symbol]]
//	name = "_operand"   # hidden by naming convention
//
//	[[symbol]]
//	name = "plus"
//	hidden = true
//
// Symbols are numbered in file order starting at FirstUser.
func LoadGrammar(path string) (*Grammar, error) {
	var gf grammarFile
	if _, err := toml.DecodeFile(path, &gf); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	g, err := buildGrammar(gf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGrammar is LoadGrammar over in-memory TOML text.
func ParseGrammar(text string) (*Grammar, error) {
	var gf grammarFile
	if _, err := toml.Decode(text, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return buildGrammar(gf)
}

func buildGrammar(gf grammarFile) (*Grammar, error) {
	table := NewTable()
	for i, s := range gf.Symbols {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("symbol[%d]: missing name", i)
		}
		if sym, dup := table.Lookup(name); dup {
			if sym.IsBuiltin() {
				return nil, fmt.Errorf("symbol[%d]: %q is a reserved name", i, name)
			}
			return nil, fmt.Errorf("symbol[%d]: duplicate name %q", i, name)
		}
		hidden := HiddenByName(name)
		if s.Hidden != nil {
			hidden = *s.Hidden
		}
		if _, err := table.Define(name, hidden); err != nil {
			return nil, fmt.Errorf("symbol[%d]: %w", i, err)
		}
	}
	return &Grammar{Name: gf.Name, Table: table}, nil
}
