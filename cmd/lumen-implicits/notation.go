package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/funvibe/lumen/internal/types"
)

// The scenario files use a compact type notation:
//
//	Show[Int]                       applied type
//	Int => String                   single-parameter method
//	[T](using => Show[T]) Show[List[T]]   poly with an implicit by-name list
//	(Int, Int) => Int               two-parameter method
//
// Names resolve against the scenario's class table, except that the names
// listed in a poly's [..] binder are its parameters inside its body.
// Any other unknown name is an error.

type notationParser struct {
	src    string
	pos    int
	world  *world
	bound  map[string]bool // poly parameters in scope
}

func parseType(src string, w *world) (types.Type, error) {
	p := &notationParser{src: src, world: w, bound: make(map[string]bool)}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: trailing input at %d", src, p.pos)
	}
	return t, nil
}

func (p *notationParser) parse() (types.Type, error) {
	p.skipSpace()
	if p.peek('[') {
		return p.parsePoly()
	}
	if p.peek('(') {
		return p.parseMethod()
	}
	if p.eat("=>") {
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &types.ByName{Elem: elem}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.eat("=>") {
		res, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &types.MethodType{ParamNames: []string{"x"}, Params: []types.Type{atom}, Res: res}, nil
	}
	return atom, nil
}

func (p *notationParser) parsePoly() (types.Type, error) {
	p.expect('[')
	var params []string
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		params = append(params, name)
		p.skipSpace()
		if !p.eat(",") {
			break
		}
	}
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	outer := p.bound
	p.bound = make(map[string]bool, len(outer)+len(params))
	for k := range outer {
		p.bound[k] = true
	}
	for _, name := range params {
		p.bound[name] = true
	}
	res, err := p.parse()
	p.bound = outer
	if err != nil {
		return nil, err
	}
	return &types.PolyType{Params: params, Res: res}, nil
}

func (p *notationParser) parseMethod() (types.Type, error) {
	p.expect('(')
	p.skipSpace()
	implicit := p.eat("using")
	var params []types.Type
	var names []string
	p.skipSpace()
	if !p.peek(')') {
		for i := 0; ; i++ {
			param, err := p.parse()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			names = append(names, fmt.Sprintf("x%d", i))
			p.skipSpace()
			if !p.eat(",") {
				break
			}
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	p.eat("=>") // the arrow between a parameter list and its result is optional
	res, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &types.MethodType{ParamNames: names, Params: params, Res: res, Implicit: implicit}, nil
}

func (p *notationParser) parseAtom() (types.Type, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	var args []types.Type
	p.skipSpace()
	if p.peek('[') {
		p.expect('[')
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if !p.eat(",") {
				break
			}
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
	}
	if p.bound[name] {
		if len(args) > 0 {
			return nil, fmt.Errorf("type parameter %s cannot be applied", name)
		}
		return &types.TypeVar{Name: name}, nil
	}
	sym := p.world.typeSymbol(name)
	if sym == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	if len(sym.TypeParams) != len(args) {
		return nil, fmt.Errorf("%s expects %d type arguments, got %d", name, len(sym.TypeParams), len(args))
	}
	return types.NewApplied(sym, args...), nil
}

func (p *notationParser) parseName() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("type %q: name expected at %d", p.src, start)
	}
	return p.src[start:p.pos], nil
}

func (p *notationParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *notationParser) peek(c byte) bool {
	p.skipSpace()
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func (p *notationParser) eat(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		// Keywords must not swallow a name prefix.
		end := p.pos + len(tok)
		if isWordTok(tok) && end < len(p.src) && isWordByte(p.src[end]) {
			return false
		}
		p.pos = end
		return true
	}
	return false
}

func (p *notationParser) expect(c byte) error {
	if !p.peek(c) {
		return fmt.Errorf("type %q: %q expected at %d", p.src, string(c), p.pos)
	}
	p.pos++
	return nil
}

func isWordTok(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if !isWordByte(tok[i]) {
			return false
		}
	}
	return len(tok) > 0
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
