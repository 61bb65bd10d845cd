package sexp

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"sprout/internal/symbols"
	"sprout/internal/tree"
)

// Resolver maps node names to symbols. *symbols.Table and
// *symbols.SyncTable implement it.
type Resolver interface {
	Define(name string, hidden bool) (symbols.Symbol, error)
	Resolve(name string) (symbols.Symbol, error)
	Hidden(sym symbols.Symbol) bool
	Name(sym symbols.Symbol) string
}

// Options controls name resolution.
type Options struct {
	// Table resolves node names. A fresh table is used when nil.
	Table Resolver
	// Strict rejects names missing from Table instead of defining them.
	Strict bool
}

type visibility uint8

const (
	visDefault visibility = iota
	visHidden
	visVisible
)

// frame is an open '(' whose closing paren has not been read yet.
type frame struct {
	pos       Pos
	sym       symbols.Symbol
	isError   bool
	lookahead rune
	hasLook   bool
	vis       visibility
	children  []*tree.Node
	ints      []uint32
}

type parser struct {
	lx    *lexer
	opts  Options
	stack []*frame
	out   []*tree.Node
}

// ParseAll reads every tree in src. Returned nodes are owned by the caller.
// On error nothing is returned and every partially built node is released.
func ParseAll(src []byte, opts Options) ([]*tree.Node, error) {
	if opts.Table == nil {
		opts.Table = symbols.NewTable()
	}
	p := &parser{lx: newLexer(src), opts: opts}
	if err := p.run(); err != nil {
		p.discard()
		return nil, err
	}
	return p.out, nil
}

// Parse reads exactly one tree from src.
func Parse(src []byte, opts Options) (*tree.Node, error) {
	nodes, err := ParseAll(src, opts)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		for _, n := range nodes {
			tree.Release(n)
		}
		return nil, &Error{Pos: Pos{Line: 1, Col: 1}, Msg: fmt.Sprintf("expected exactly one tree, got %d", len(nodes))}
	}
	return nodes[0], nil
}

// ParseString is Parse over a string.
func ParseString(src string, opts Options) (*tree.Node, error) {
	return Parse([]byte(src), opts)
}

func (p *parser) discard() {
	for _, f := range p.stack {
		for _, c := range f.children {
			tree.Release(c)
		}
	}
	for _, n := range p.out {
		tree.Release(n)
	}
	p.stack = nil
	p.out = nil
}

func (p *parser) run() error {
	for {
		tok, err := p.lx.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokEOF:
			if len(p.stack) > 0 {
				return errorf(p.stack[len(p.stack)-1].pos, "unclosed node")
			}
			return nil
		case tokLParen:
			if err := p.open(tok.pos); err != nil {
				return err
			}
		case tokRParen:
			if err := p.close(tok.pos); err != nil {
				return err
			}
		default:
			if len(p.stack) == 0 {
				return errorf(tok.pos, "unexpected %s outside of a node", tok.kind)
			}
			if err := p.item(p.stack[len(p.stack)-1], tok); err != nil {
				return err
			}
		}
	}
}

func (p *parser) open(pos Pos) error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokName {
		return errorf(tok.pos, "expected node name, got %s", tok.kind)
	}
	f := &frame{pos: pos}
	if tok.text == symbols.Error.String() {
		f.isError = true
		f.sym = symbols.Error
	} else {
		sym, err := p.resolve(tok)
		if err != nil {
			return err
		}
		f.sym = sym
	}
	p.stack = append(p.stack, f)
	return nil
}

func (p *parser) resolve(tok token) (symbols.Symbol, error) {
	table := p.opts.Table
	if p.opts.Strict {
		sym, err := table.Resolve(tok.text)
		if err != nil {
			return 0, &Error{Pos: tok.pos, Msg: "unresolved node name", Err: err}
		}
		return sym, nil
	}
	sym, err := table.Define(tok.text, symbols.HiddenByName(tok.text))
	if err != nil {
		return 0, &Error{Pos: tok.pos, Msg: "cannot define node name", Err: err}
	}
	return sym, nil
}

func (p *parser) item(f *frame, tok token) error {
	switch tok.kind {
	case tokFlag:
		if f.isError {
			return errorf(tok.pos, "error nodes take no flags")
		}
		if f.vis != visDefault {
			return errorf(tok.pos, "visibility flag given twice")
		}
		switch tok.text {
		case "hidden":
			f.vis = visHidden
		case "visible":
			f.vis = visVisible
		default:
			return errorf(tok.pos, "unknown flag :%s", tok.text)
		}
	case tokChar, tokEndMarker:
		if !f.isError || f.hasLook || len(f.ints) > 0 {
			return errorf(tok.pos, "unexpected %s", tok.kind)
		}
		f.hasLook = true
		if tok.kind == tokChar {
			f.lookahead = tok.char
		} else {
			f.lookahead = tree.LookaheadEOF
		}
	case tokInt:
		if len(f.children) > 0 {
			return errorf(tok.pos, "extents are only allowed on leaves")
		}
		if f.isError && !f.hasLook {
			return errorf(tok.pos, "error node needs a lookahead before its extents")
		}
		if len(f.ints) == 2 {
			return errorf(tok.pos, "a leaf takes at most size and padding")
		}
		v, err := parseExtent(tok)
		if err != nil {
			return err
		}
		f.ints = append(f.ints, v)
	case tokName:
		return errorf(tok.pos, "unexpected name %q, nodes start with '('", tok.text)
	default:
		return errorf(tok.pos, "unexpected %s", tok.kind)
	}
	return nil
}

func parseExtent(tok token) (uint32, error) {
	raw, err := strconv.ParseUint(tok.text, 10, 64)
	if err != nil {
		return 0, &Error{Pos: tok.pos, Msg: fmt.Sprintf("invalid integer %q", tok.text), Err: err}
	}
	v, err := safecast.Conv[uint32](raw)
	if err != nil {
		return 0, &Error{Pos: tok.pos, Msg: "extent out of range", Err: err}
	}
	return v, nil
}

func (p *parser) close(pos Pos) error {
	if len(p.stack) == 0 {
		return errorf(pos, "unbalanced ')'")
	}
	f := p.stack[len(p.stack)-1]

	n, err := p.build(f, pos)
	if err != nil {
		return err
	}
	p.stack = p.stack[:len(p.stack)-1]
	if len(p.stack) == 0 {
		p.out = append(p.out, n)
		return nil
	}
	parent := p.stack[len(p.stack)-1]
	if parent.isError {
		tree.Release(n)
		return errorf(f.pos, "error nodes have no children")
	}
	if len(parent.ints) > 0 {
		tree.Release(n)
		return errorf(f.pos, "extents are only allowed on leaves")
	}
	parent.children = append(parent.children, n)
	return nil
}

func (p *parser) hidden(f *frame) bool {
	switch f.vis {
	case visHidden:
		return true
	case visVisible:
		return false
	default:
		return p.opts.Table.Hidden(f.sym)
	}
}

func (p *parser) build(f *frame, pos Pos) (*tree.Node, error) {
	var size, padding uint32
	if len(f.ints) > 0 {
		size = f.ints[0]
	}
	if len(f.ints) > 1 {
		padding = f.ints[1]
	}

	switch {
	case f.isError:
		if !f.hasLook {
			return nil, errorf(pos, "error node needs a lookahead")
		}
		if len(f.ints) == 0 {
			return nil, errorf(pos, "error node needs a size")
		}
		return tree.MakeError(size, padding, f.lookahead), nil
	case len(f.children) > 0:
		n := tree.MakeNode(f.sym, f.children, p.hidden(f))
		// MakeNode взял свои ссылки; снимаем ссылки парсера
		for _, c := range f.children {
			tree.Release(c)
		}
		f.children = nil
		return n, nil
	case len(f.ints) > 0:
		return tree.MakeLeaf(f.sym, size, padding, p.hidden(f)), nil
	default:
		return nil, errorf(f.pos, "node %q has neither children nor extents", p.opts.Table.Name(f.sym))
	}
}
