// Package narrow implements control-flow type narrowing (spec.md §4.7):
// deriving a refined type for a variable or member path on each branch of
// a guard expression, composing guards through logical and/or/not, and
// checking `switch` type discrimination for exhaustiveness.
package narrow

import (
	"strings"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/types"
)

// Context maps a narrowable path to its currently refined type. A key
// absent from the map means "no narrowing has been applied on this path
// yet" — callers fall back to the path's declared type, not to `never`.
type Context map[string]types.Type

// Clone returns an independent copy so a branch can be narrowed without
// mutating the context the other branch continues from.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Join merges two contexts at a control-flow join point (e.g. after an
// if/else). A path narrowed in both branches is widened to the union of
// the two refinements; a path narrowed in only one branch reverts to
// unconstrained, since the other branch reached the join point without
// that refinement holding.
func Join(a, b Context) Context {
	out := make(Context)
	for k, av := range a {
		if bv, ok := b[k]; ok {
			out[k] = types.Union([]types.Type{av, bv}, source.Span{})
		}
	}
	return out
}

// Key derives the stable narrowing key for an expression: a bare
// identifier, or a chain of `.property` accesses rooted at one. Returns
// false for any other expression shape (calls, indexing, literals), which
// cannot be tracked across statements.
func Key(interner *source.Interner, e surface.Expr) (string, bool) {
	switch v := e.(type) {
	case *surface.Ident:
		return interner.Lookup(v.Name), true
	case *surface.MemberExpr:
		base, ok := Key(interner, v.Object)
		if !ok {
			return "", false
		}
		return base + "." + v.Property, true
	default:
		return "", false
	}
}

// Engine narrows guard expressions against the type lattice, using the
// assignability checker to decide which union members a type-based guard
// rules in or out.
type Engine struct {
	checker  *assign.Checker
	interner *source.Interner
}

// New creates an Engine sharing the session's checker and interner.
func New(checker *assign.Checker, interner *source.Interner) *Engine {
	return &Engine{checker: checker, interner: interner}
}

// TypeOf resolves an expression's current static type: its narrowed type
// if ctx has one under its Key, otherwise the type the inference visitor
// assigned it originally.
type TypeOf func(e surface.Expr) types.Type

// ResolveTypeExpr resolves a surface type annotation (the right-hand side
// of `x is T`) to its checked Type. This is supplied by the inference
// visitor, which owns name resolution and generic instantiation.
type ResolveTypeExpr func(te surface.TypeExpr) types.Type

// Narrow splits ctx into the context that holds when guard evaluates
// truthy and the context that holds when it evaluates falsy.
func (e *Engine) Narrow(guard surface.Expr, ctx Context, typeOf TypeOf, resolveType ResolveTypeExpr) (trueCtx, falseCtx Context) {
	switch g := guard.(type) {
	case *surface.UnaryExpr:
		if g.Op == "not" {
			t, f := e.Narrow(g.Operand, ctx, typeOf, resolveType)
			return f, t
		}
	case *surface.IsExpr:
		return e.narrowIs(g, ctx, typeOf, resolveType)
	case *surface.BinaryExpr:
		switch g.Op {
		case "and":
			lt, lf := e.Narrow(g.Left, ctx, typeOf, resolveType)
			rt, rf := e.Narrow(g.Right, lt, typeOf, resolveType)
			return rt, Join(lf, rf)
		case "or":
			lt, lf := e.Narrow(g.Left, ctx, typeOf, resolveType)
			rt, rf := e.Narrow(g.Right, lf, typeOf, resolveType)
			return Join(lt, rt), rf
		case "==", "~=":
			return e.narrowEquality(g, ctx, typeOf)
		}
	}
	return ctx.Clone(), ctx.Clone()
}

// narrowIs handles the `x is T` user-defined type-predicate guard form.
func (e *Engine) narrowIs(g *surface.IsExpr, ctx Context, typeOf TypeOf, resolveType ResolveTypeExpr) (Context, Context) {
	key, ok := Key(e.interner, g.Subject)
	if !ok {
		return ctx.Clone(), ctx.Clone()
	}
	target := resolveType(g.Target)
	base := currentType(ctx, key, typeOf, g.Subject)

	t, f := ctx.Clone(), ctx.Clone()
	t[key] = e.narrowTo(base, target)
	f[key] = e.subtract(base, target)
	return t, f
}

// narrowEquality handles `x == literal`/`x ~= literal`, `x == nil`/
// `x ~= nil`, and the `type(x) == "tag"` runtime-tag guard form.
func (e *Engine) narrowEquality(g *surface.BinaryExpr, ctx Context, typeOf TypeOf) (Context, Context) {
	subject, other, ok := splitGuardOperands(g.Left, g.Right)
	if !ok {
		return ctx.Clone(), ctx.Clone()
	}

	if tagExpr, tag, ok := asTypeofTag(e.interner, subject, other); ok {
		key, ok := Key(e.interner, tagExpr)
		if !ok {
			return ctx.Clone(), ctx.Clone()
		}
		base := currentType(ctx, key, typeOf, tagExpr)
		matchT, matchF := filterUnionByTag(base, tag, true), filterUnionByTag(base, tag, false)
		if g.Op == "~=" {
			matchT, matchF = matchF, matchT
		}
		t, f := ctx.Clone(), ctx.Clone()
		t[key] = matchT
		f[key] = matchF
		return t, f
	}

	key, ok := Key(e.interner, subject)
	if !ok {
		return ctx.Clone(), ctx.Clone()
	}
	base := currentType(ctx, key, typeOf, subject)

	if _, isNil := other.(*surface.NilLit); isNil {
		eqT, eqF := filterUnionByTag(base, types.PrimNil, true), filterUnionByTag(base, types.PrimNil, false)
		if g.Op == "~=" {
			eqT, eqF = eqF, eqT
		}
		t, f := ctx.Clone(), ctx.Clone()
		t[key] = eqT
		f[key] = eqF
		return t, f
	}

	lit, ok := literalOf(other)
	if !ok {
		return ctx.Clone(), ctx.Clone()
	}
	eqT := e.filterByLiteral(base, lit, true)
	eqF := e.filterByLiteral(base, lit, false)
	if g.Op == "~=" {
		eqT, eqF = eqF, eqT
	}
	t, f := ctx.Clone(), ctx.Clone()
	t[key] = eqT
	f[key] = eqF
	return t, f
}

// splitGuardOperands identifies which side of an equality is the
// narrowable subject and which is the comparison operand, accepting
// either order (`x == nil` or `nil == x`).
func splitGuardOperands(l, r surface.Expr) (subject, other surface.Expr, ok bool) {
	if isComparisonOperand(r) {
		return l, r, true
	}
	if isComparisonOperand(l) {
		return r, l, true
	}
	return nil, nil, false
}

func isComparisonOperand(e surface.Expr) bool {
	switch e.(type) {
	case *surface.NilLit, *surface.NumberLit, *surface.StringLit, *surface.BoolLit:
		return true
	default:
		return false
	}
}

// asTypeofTag recognizes `type(x) == "tag"` (in either operand order,
// already split by splitGuardOperands into subject/other) and returns the
// narrowed identifier expression plus the primitive tag named.
func asTypeofTag(interner *source.Interner, subject, other surface.Expr) (surface.Expr, types.PrimitiveTag, bool) {
	call, ok := subject.(*surface.CallExpr)
	if !ok || len(call.Args) != 1 {
		return nil, "", false
	}
	callee, ok := call.Callee.(*surface.Ident)
	if !ok || interner.Lookup(callee.Name) != "type" {
		return nil, "", false
	}
	lit, ok := other.(*surface.StringLit)
	if !ok {
		return nil, "", false
	}
	tag, ok := runtimeTag(lit.Value)
	if !ok {
		return nil, "", false
	}
	return call.Args[0], tag, true
}

func runtimeTag(name string) (types.PrimitiveTag, bool) {
	switch strings.ToLower(name) {
	case "nil":
		return types.PrimNil, true
	case "boolean":
		return types.PrimBool, true
	case "number":
		return types.PrimNumber, true
	case "string":
		return types.PrimString, true
	default:
		// "table"/"function" runtime tags cannot be reduced to a single
		// primitive member; such guards are accepted syntactically but do
		// not narrow (both branches keep the unconstrained base type).
		return "", false
	}
}

func literalOf(e surface.Expr) (types.Type, bool) {
	switch v := e.(type) {
	case *surface.NumberLit:
		return types.NewLiteral(types.LiteralNumber, v.Value, source.Span{}), true
	case *surface.StringLit:
		return types.NewLiteral(types.LiteralString, v.Value, source.Span{}), true
	case *surface.BoolLit:
		return types.NewLiteral(types.LiteralBoolean, v.Value, source.Span{}), true
	default:
		return nil, false
	}
}

// currentType resolves a narrowing key's type: whatever ctx has already
// refined it to, or else the base type the caller's typeOf callback
// reports for the originating expression.
func currentType(ctx Context, key string, typeOf TypeOf, e surface.Expr) types.Type {
	if t, ok := ctx[key]; ok {
		return t
	}
	if typeOf != nil {
		return typeOf(e)
	}
	return types.Unknown
}

// narrowTo restricts base to the members compatible with target: union
// members assignable to target pass through unchanged (gradual typing
// does not further narrow a structural member that already fits), a
// non-union base narrows entirely to target when compatible, and falls
// back to target itself when base offers no tighter information (e.g.
// base is `any` or `unknown`).
func (e *Engine) narrowTo(base, target types.Type) types.Type {
	if u, ok := base.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if e.checker.IsAssignable(m, target).OK {
				kept = append(kept, m)
			} else if e.checker.IsAssignable(target, m).OK {
				kept = append(kept, target)
			}
		}
		return types.Union(kept, base.Span())
	}
	if !types.IsPrimitive(base, types.PrimAny) && e.checker.IsAssignable(base, target).OK {
		return base
	}
	if e.checker.IsAssignable(target, base).OK {
		return target
	}
	return target
}

// subtract removes the members of base assignable to target, used for the
// false branch of an `x is T` guard and by CheckSwitchExhaustiveness to
// remove each case's pattern type.
func (e *Engine) subtract(base, target types.Type) types.Type {
	if u, ok := base.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if !e.checker.IsAssignable(m, target).OK {
				kept = append(kept, m)
			}
		}
		return types.Union(kept, base.Span())
	}
	if e.checker.IsAssignable(base, target).OK {
		return types.Never
	}
	return base
}

// filterByLiteral narrows base toward (keep=true) or away from
// (keep=false) a single literal value.
func (e *Engine) filterByLiteral(base, lit types.Type, keep bool) types.Type {
	if u, ok := base.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if keep {
				if e.checker.IsAssignable(lit, m).OK {
					kept = append(kept, lit)
				}
			} else if !m.Equals(lit) {
				kept = append(kept, m)
			}
		}
		return types.Union(kept, base.Span())
	}
	if keep {
		if e.checker.IsAssignable(lit, base).OK {
			return lit
		}
		return types.Never
	}
	if base.Equals(lit) {
		return types.Never
	}
	return base
}

// filterUnionByTag narrows t toward (keep=true) or away from (keep=false)
// members matching a runtime primitive tag, used for both `type(x) ==
// "..."` and `x == nil`/`x ~= nil` guards.
func filterUnionByTag(t types.Type, tag types.PrimitiveTag, keep bool) types.Type {
	if u, ok := t.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if memberMatchesTag(m, tag) == keep {
				kept = append(kept, m)
			}
		}
		return types.Union(kept, t.Span())
	}
	matches := memberMatchesTag(t, tag)
	switch {
	case keep && matches:
		return t
	case keep && !matches:
		return types.Never
	case !keep && matches:
		return types.Never
	default:
		return t
	}
}

func memberMatchesTag(m types.Type, tag types.PrimitiveTag) bool {
	switch v := m.(type) {
	case *types.Primitive:
		return v.Tag == tag
	case *types.Literal:
		return types.WidenLiteral(v).Tag == tag
	default:
		return false
	}
}

// ExhaustivenessResult reports whether a switch over type patterns
// accounted for every member of the subject's union, and the type that
// remains unmatched when it did not.
type ExhaustivenessResult struct {
	Exhaustive bool
	Remaining  types.Type
}

// CheckSwitchExhaustiveness narrows subject down across each case's
// pattern type in source order and reports whether the default case (if
// any) is reachable with a non-`never` remaining type, or whether a
// default-less switch left members unhandled.
func (e *Engine) CheckSwitchExhaustiveness(subject types.Type, patternTypes []types.Type, hasDefault bool) ExhaustivenessResult {
	remaining := subject
	for _, pt := range patternTypes {
		remaining = e.subtract(remaining, pt)
	}
	exhaustive := types.IsPrimitive(remaining, types.PrimNever)
	if hasDefault {
		exhaustive = true
	}
	return ExhaustivenessResult{Exhaustive: exhaustive, Remaining: remaining}
}

// Report emits a NonExhaustiveMatch diagnostic for a switch whose cases
// did not cover every member of the subject's type, naming the remaining
// uncovered type in the message.
func (r ExhaustivenessResult) Report(sink diag.Sink, span source.Span) {
	if r.Exhaustive {
		return
	}
	d := diag.New(diag.KindNonExhaustiveMatch, span, "switch does not handle all members of "+r.Remaining.String())
	d.WithData("remaining", r.Remaining.String())
	sink.Report(d)
}
