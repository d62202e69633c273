package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/lumen/internal/implicits"
	"github.com/funvibe/lumen/internal/types"
)

// Scenario is the YAML description of a resolution world and one query.
type Scenario struct {
	Classes []ClassSpec `yaml:"classes"`
	Aliases []AliasSpec `yaml:"aliases"`
	Scopes  []ScopeSpec `yaml:"scopes"`
	Query   QuerySpec   `yaml:"query"`
	Legacy  bool        `yaml:"legacy"`
	Trace   int         `yaml:"trace"`
}

type ClassSpec struct {
	Name       string       `yaml:"name"`
	TypeParams []string     `yaml:"typeParams"`
	Extends    []string     `yaml:"extends"`
	Companion  []MemberSpec `yaml:"companion"`
	Members    []MemberSpec `yaml:"members"`
}

type AliasSpec struct {
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	Opaque    bool         `yaml:"opaque"`
	Companion []MemberSpec `yaml:"companion"`
}

type MemberSpec struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Implicit  *bool  `yaml:"implicit"` // companion members default to implicit
	Extension bool   `yaml:"extension"`
}

// ScopeSpec opens one nested lexical scope, innermost last.
type ScopeSpec struct {
	Defs []DefSpec `yaml:"defs"`
}

type DefSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Implicit *bool  `yaml:"implicit"` // defaults to true
}

type QuerySpec struct {
	For  string    `yaml:"for"`
	View *ViewSpec `yaml:"view"`
}

type ViewSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// world holds the scenario's symbols while types are being wired up.
type world struct {
	classes map[string]*types.TypeSymbol
}

func (w *world) typeSymbol(name string) *types.TypeSymbol {
	if sym, ok := w.classes[name]; ok {
		return sym
	}
	switch name {
	case "Any":
		return types.AnyClass
	case "Nothing":
		return types.NothingClass
	case "Unit":
		return types.UnitClass
	case "Object":
		return types.ObjectClass
	case "Conversion":
		return types.ConversionClass
	case "Function1":
		return types.Function1Class
	case "Not":
		return types.NotClass
	case "CanEqual":
		return types.CanEqualClass
	}
	return nil
}

// build wires the scenario into a resolution context and the query type.
func (sc *Scenario) build(ctx *implicits.Context) (*implicits.Context, *world, error) {
	w := &world{classes: make(map[string]*types.TypeSymbol)}

	// First pass: allocate class symbols so types may refer to each other.
	for _, cs := range sc.Classes {
		w.classes[cs.Name] = &types.TypeSymbol{Name: cs.Name, TypeParams: cs.TypeParams}
	}
	for _, as := range sc.Aliases {
		w.classes[as.Name] = &types.TypeSymbol{Name: as.Name, Opaque: as.Opaque}
	}

	// Second pass: parents, members, companions.
	for _, cs := range sc.Classes {
		cls := w.classes[cs.Name]
		for _, parent := range cs.Extends {
			t, err := parseTypeBound(parent, w, cls.TypeParams)
			if err != nil {
				return nil, nil, err
			}
			cls.Parents = append(cls.Parents, t)
		}
		for _, ms := range cs.Members {
			m, err := buildMember(ms, cls, w, false)
			if err != nil {
				return nil, nil, err
			}
			cls.Members = append(cls.Members, m)
		}
		if len(cs.Companion) > 0 {
			companion, err := buildCompanion(cs.Name, cs.Companion, w)
			if err != nil {
				return nil, nil, err
			}
			cls.Companion = companion
		}
	}
	for _, as := range sc.Aliases {
		cls := w.classes[as.Name]
		t, err := parseType(as.Type, w)
		if err != nil {
			return nil, nil, err
		}
		cls.Alias = t
		if len(as.Companion) > 0 {
			companion, err := buildCompanion(as.Name, as.Companion, w)
			if err != nil {
				return nil, nil, err
			}
			cls.Companion = companion
		}
	}

	// Scopes nest innermost-last.
	for i, scope := range sc.Scopes {
		owner := types.NewSymbol(fmt.Sprintf("scope%d", i), nil, 0, nil)
		ctx = ctx.Fresh(owner)
		for _, def := range scope.Defs {
			t, err := parseType(def.Type, w)
			if err != nil {
				return nil, nil, err
			}
			flags := types.Flags(0)
			if def.Implicit == nil || *def.Implicit {
				flags |= types.Implicit
			}
			ctx.WithBinding(types.NewSymbol(def.Name, nil, flags, t))
		}
	}
	return ctx, w, nil
}

func buildCompanion(name string, members []MemberSpec, w *world) (*types.Symbol, error) {
	moduleCls := &types.TypeSymbol{Name: name + "$"}
	for _, ms := range members {
		m, err := buildMember(ms, moduleCls, w, true)
		if err != nil {
			return nil, err
		}
		moduleCls.Members = append(moduleCls.Members, m)
	}
	return types.NewSymbol(name, nil, types.Module, types.NewNamed(moduleCls)), nil
}

func buildMember(ms MemberSpec, owner *types.TypeSymbol, w *world, companion bool) (*types.Symbol, error) {
	t, err := parseTypeBound(ms.Type, w, owner.TypeParams)
	if err != nil {
		return nil, err
	}
	var flags types.Flags
	if ms.Implicit != nil && *ms.Implicit || ms.Implicit == nil && companion {
		flags |= types.Implicit
	}
	if ms.Extension {
		flags |= types.Extension
	}
	if _, ok := t.(*types.MethodType); ok {
		flags |= types.Method
	}
	if _, ok := t.(*types.PolyType); ok {
		flags |= types.Method
	}
	return types.NewSymbol(ms.Name, owner, flags, t), nil
}

// parseTypeBound parses with the owner's type parameters in scope.
func parseTypeBound(src string, w *world, params []string) (types.Type, error) {
	p := &notationParser{src: src, world: w, bound: make(map[string]bool, len(params))}
	for _, name := range params {
		p.bound[name] = true
	}
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
