// Package symbols implements the lexical scope stack: symbol kinds,
// declaration rules (including the overload-group exception for
// functions), and the module-top-level shadowed-export warning.
package symbols

import (
	"fmt"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/types"
)

// Kind enumerates the categories a Symbol can belong to.
type Kind int

const (
	Variable Kind = iota
	Const
	Function
	Parameter
	TypeAlias
	Interface
	Class
	Enum
	Module
	Namespace
	Property
	Method
	TypeParameter
)

// Visibility mirrors export visibility on a top-level declaration.
type Visibility int

const (
	Unexported Visibility = iota
	Exported
)

// Symbol is one named binding: its kind, static type, declaring span, and
// export visibility, plus the spans of every place it was referenced (used
// by the UnusedSymbol check).
type Symbol struct {
	Name            source.ID
	Kind            Kind
	Type            types.Type
	DeclSpan        source.Span
	ExportVisibility Visibility
	RefSpans        []source.Span
}

// MarkReferenced records a use site, for the later unused-symbol sweep.
func (s *Symbol) MarkReferenced(span source.Span) {
	s.RefSpans = append(s.RefSpans, span)
}

// scopeKind distinguishes the module top level (where shadowing warns) from
// every nested block/function scope (where shadowing is silent).
type scopeKind int

const (
	scopeBlock scopeKind = iota
	scopeModuleTop
)

type frame struct {
	id      int
	kind    scopeKind
	symbols map[source.ID]*Symbol
	// overloads tracks, per name, the call signatures seen so far for a
	// Function-kind overload group, so a later declare() can check that a
	// new signature is actually distinguishable from its siblings.
	overloads map[source.ID][]*Symbol
}

func newFrame(id int, kind scopeKind) *frame {
	return &frame{
		id:        id,
		kind:      kind,
		symbols:   make(map[source.ID]*Symbol),
		overloads: make(map[source.ID][]*Symbol),
	}
}

// Table is a stack of scope frames. The bottom frame (index 0) is always
// the module top level.
type Table struct {
	frames  []*frame
	nextID  int
	sink    diag.Sink
	interns *source.Interner
}

// NewTable creates a table with its module-top-level frame already pushed.
func NewTable(sink diag.Sink, interner *source.Interner) *Table {
	t := &Table{sink: sink, interns: interner}
	t.frames = append(t.frames, newFrame(t.nextID, scopeModuleTop))
	t.nextID++
	return t
}

// EnterScope pushes a fresh block-scoped frame.
func (t *Table) EnterScope() {
	t.frames = append(t.frames, newFrame(t.nextID, scopeBlock))
	t.nextID++
}

// ExitScope pops the top frame. The popped frame's symbols are no longer
// visible to Lookup and are returned to the caller.
func (t *Table) ExitScope() []*Symbol {
	top := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	out := make([]*Symbol, 0, len(top.symbols))
	for _, s := range top.symbols {
		out = append(out, s)
	}
	return out
}

// CurrentScopeID returns the id of the innermost active frame.
func (t *Table) CurrentScopeID() int {
	return t.frames[len(t.frames)-1].id
}

func (t *Table) top() *frame { return t.frames[len(t.frames)-1] }

// signaturesDistinguishable reports whether two function types could not be
// confused by a caller — different arity, or some positional parameter
// type differs.
func signaturesDistinguishable(a, b types.Type) bool {
	fa, aok := a.(*types.FuncType)
	fb, bok := b.(*types.FuncType)
	if !aok || !bok {
		return true
	}
	if len(fa.Params) != len(fb.Params) {
		return true
	}
	for i := range fa.Params {
		if !fa.Params[i].Type.Equals(fb.Params[i].Type) {
			return true
		}
	}
	return false
}

// Declare adds sym to the innermost scope. Two Function symbols may share a
// name provided their signatures are pairwise distinguishable (an overload
// group); any other same-scope collision is a DuplicateDeclaration.
// Declare never reports ShadowedExport: shadowing a binding of an outer
// scope is silent, and export shadowing is reported through
// ReportShadowedExport.
func (t *Table) Declare(sym *Symbol) {
	f := t.top()
	existing, exists := f.symbols[sym.Name]

	if exists {
		if sym.Kind == Function && existing.Kind == Function {
			group := f.overloads[sym.Name]
			if len(group) == 0 {
				group = append(group, existing)
			}
			for _, other := range group {
				if !signaturesDistinguishable(sym.Type, other.Type) {
					t.report(diag.KindDuplicateDeclaration, sym.DeclSpan,
						fmt.Sprintf("overload for %q is not distinguishable from a previous declaration", t.name(sym.Name)))
					return
				}
			}
			f.overloads[sym.Name] = append(group, sym)
			// Keep the most recent symbol reachable by plain lookup; callers
			// needing the full overload set use Overloads.
			f.symbols[sym.Name] = sym
			return
		}
		t.report(diag.KindDuplicateDeclaration, sym.DeclSpan,
			fmt.Sprintf("%q is already declared in this scope", t.name(sym.Name)))
		return
	}

	// Shadowing a name visible from an outer scope is silent everywhere
	// except when this declaration is itself at module top level and an
	// identical-named export already exists from elsewhere (callers doing
	// cross-module wiring route that case through ShadowedExport directly;
	// here we only handle the lexical case: a nested scope occluding an
	// outer binding, which is always allowed).
	f.symbols[sym.Name] = sym
}

// UpdateType overwrites the Type of an already-declared top-level symbol
// in place, without running Declare's duplicate-declaration check. The
// hoisting pass uses this to fill in a function/class's full inferred
// type once its body has been visited, after first registering a
// forward-reference placeholder under the same name.
func (t *Table) UpdateType(name source.ID, typ types.Type) {
	if sym, ok := t.frames[0].symbols[name]; ok {
		sym.Type = typ
	}
}

// ReportShadowedExport lets the module engine flag an export name that
// shadows another module's re-exported name of the same local identifier,
// a case Declare cannot see on its own because it is not a scope collision.
func (t *Table) ReportShadowedExport(name source.ID, span source.Span) {
	t.report(diag.KindShadowedExport, span, fmt.Sprintf("export %q shadows a previous export of the same name", t.name(name)))
}

// Lookup walks outward from the innermost frame, returning the nearest
// binding for name.
func (t *Table) Lookup(name source.ID) (*Symbol, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if s, ok := t.frames[i].symbols[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// Overloads returns every signature declared for name's overload group in
// the innermost frame that defines it, or nil if name is not an overload
// group (including the common case of a single, non-overloaded function).
func (t *Table) Overloads(name source.ID) []*Symbol {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if group, ok := t.frames[i].overloads[name]; ok {
			return group
		}
		if _, ok := t.frames[i].symbols[name]; ok {
			return nil
		}
	}
	return nil
}

// AllVisible returns every symbol reachable from the current scope,
// innermost frame's bindings taking precedence over outer ones of the same
// name.
func (t *Table) AllVisible() []*Symbol {
	seen := make(map[source.ID]bool)
	var out []*Symbol
	for i := len(t.frames) - 1; i >= 0; i-- {
		for name, sym := range t.frames[i].symbols {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, sym)
		}
	}
	return out
}

func (t *Table) name(id source.ID) string {
	if t.interns == nil {
		return fmt.Sprintf("#%d", id)
	}
	return t.interns.Lookup(id)
}

func (t *Table) report(kind diag.Kind, span source.Span, msg string) {
	if t.sink != nil {
		t.sink.Report(diag.New(kind, span, msg))
	}
}
