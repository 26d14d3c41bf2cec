// Package tenv implements the type environment: the named-type registry
// (interfaces, classes, aliases, enums), a stack of type-parameter scopes
// for generic bodies, and resolution of Reference type terms including
// recursion guards.
package tenv

import (
	"fmt"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/subst"
	"github.com/lunac-lang/lunac/internal/types"
)

// NamedType is one entry of the registry: its declared shape plus any
// generic parameters it takes.
type NamedType struct {
	Name       source.ID
	TypeParams []*types.TypeParam
	Body       types.Type
	DeclSpan   source.Span
}

// Env is the session-scoped type environment: one instance seeded by the
// standard-library loader, then extended per module as declarations hoist.
type Env struct {
	named     map[source.ID]*NamedType
	tparams   []map[string]*types.TypeParam // stack of generic scopes
	resolving map[source.ID]int             // reference name -> active resolution depth
	sink      diag.Sink
	interner  *source.Interner
	maxLazyDepth int
}

// New creates an empty environment. maxLazyDepth bounds re-entrant
// Reference resolution (spec default 10; see internal/config).
func New(sink diag.Sink, interner *source.Interner, maxLazyDepth int) *Env {
	if maxLazyDepth <= 0 {
		maxLazyDepth = 10
	}
	return &Env{
		named:        make(map[source.ID]*NamedType),
		resolving:    make(map[source.ID]int),
		sink:         sink,
		interner:     interner,
		maxLazyDepth: maxLazyDepth,
	}
}

// Interner returns the identifier interner this environment was built
// with, so collaborators (stdlib loader, inference visitor) can intern
// names before calling RegisterType/Resolve.
func (e *Env) Interner() *source.Interner { return e.interner }

func (e *Env) name(id source.ID) string {
	if e.interner == nil {
		return fmt.Sprintf("#%d", id)
	}
	return e.interner.Lookup(id)
}

func (e *Env) report(kind diag.Kind, span source.Span, msg string) {
	if e.sink != nil {
		e.sink.Report(diag.New(kind, span, msg))
	}
}

// isEmptyForwardDecl reports whether nt is the shape the merge rule
// permits to be replaced later: an Interface with no type parameters, no
// extends clause, and no members.
func isEmptyForwardDecl(nt *NamedType) bool {
	if len(nt.TypeParams) != 0 {
		return false
	}
	iface, ok := nt.Body.(*types.InterfaceType)
	return ok && iface.IsForwardDeclaration()
}

// RegisterType adds name to the registry. A duplicate registration fails
// with DuplicateDeclaration unless either one is an empty interface forward
// declaration: an empty existing entry is replaced by the incoming
// declaration, and an empty incoming declaration is ignored.
func (e *Env) RegisterType(name source.ID, typeParams []*types.TypeParam, body types.Type, span source.Span) {
	existing, exists := e.named[name]
	if exists {
		incoming := &NamedType{Name: name, TypeParams: typeParams, Body: body, DeclSpan: span}
		if isEmptyForwardDecl(existing) {
			e.named[name] = incoming
			return
		}
		if isEmptyForwardDecl(incoming) {
			// A second, emptier forward declaration changes nothing.
			return
		}
		e.report(diag.KindDuplicateDeclaration, span, fmt.Sprintf("type %q is already declared", e.name(name)))
		return
	}
	e.named[name] = &NamedType{Name: name, TypeParams: typeParams, Body: body, DeclSpan: span}
}

// ReplaceType overwrites an already-registered name's body and type
// parameters unconditionally, bypassing RegisterType's duplicate check.
// The hoisting pass uses this to fill in a class's full member shape
// once its body has been visited, after first registering an empty
// placeholder under the same name so other top-level declarations can
// forward-reference it.
func (e *Env) ReplaceType(name source.ID, typeParams []*types.TypeParam, body types.Type, span source.Span) {
	e.named[name] = &NamedType{Name: name, TypeParams: typeParams, Body: body, DeclSpan: span}
}

// LookupType returns the registered named type, if any.
func (e *Env) LookupType(name source.ID) (*NamedType, bool) {
	nt, ok := e.named[name]
	return nt, ok
}

// PushTypeParamScope opens a generic scope; params become resolvable by
// their textual name via LookupTypeParam for the scope's lifetime.
func (e *Env) PushTypeParamScope(params []*types.TypeParam) {
	frame := make(map[string]*types.TypeParam, len(params))
	for _, p := range params {
		frame[p.Name] = p
	}
	e.tparams = append(e.tparams, frame)
}

// PopTypeParamScope closes the innermost generic scope.
func (e *Env) PopTypeParamScope() {
	e.tparams = e.tparams[:len(e.tparams)-1]
}

// LookupTypeParam walks the generic-scope stack outward by name.
func (e *Env) LookupTypeParam(name string) (*types.TypeParam, bool) {
	for i := len(e.tparams) - 1; i >= 0; i-- {
		if p, ok := e.tparams[i][name]; ok {
			return p, true
		}
	}
	return nil, false
}

// Resolve looks up ref's name, substitutes its type arguments, and returns
// a ground type. Re-entering the same named reference beyond maxLazyDepth
// (a recursive alias/interface chain) degrades to `unknown` with a
// TypeCheckRecursionLimit diagnostic rather than looping forever.
func (e *Env) Resolve(ref *types.Reference) types.Type {
	if tp, ok := e.LookupTypeParam(e.name(ref.Name)); ok {
		return tp
	}
	nt, ok := e.named[ref.Name]
	if !ok {
		e.report(diag.KindUnknownType, ref.Span(), fmt.Sprintf("unknown type %q", e.name(ref.Name)))
		return types.Unknown
	}

	depth := e.resolving[ref.Name]
	if depth >= e.maxLazyDepth {
		e.report(diag.KindTypeCheckRecursionLim, ref.Span(),
			fmt.Sprintf("type %q exceeded the resolution recursion limit", e.name(ref.Name)))
		return types.Unknown
	}
	e.resolving[ref.Name] = depth + 1
	defer func() { e.resolving[ref.Name] = depth }()

	if len(nt.TypeParams) == 0 {
		return nt.Body
	}
	m := subst.Build(nt.TypeParams, ref.TypeArgs)
	return subst.Apply(nt.Body, m)
}

// AllNamed returns every registered name, used by diagnostics that need to
// enumerate the environment (e.g. suggesting a near-miss spelling is left
// to the driver; core only needs enumeration for exhaustiveness-adjacent
// checks).
func (e *Env) AllNamed() []*NamedType {
	out := make([]*NamedType, 0, len(e.named))
	for _, nt := range e.named {
		out = append(out, nt)
	}
	return out
}
