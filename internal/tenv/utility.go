package tenv

import (
	"fmt"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/subst"
	"github.com/lunac-lang/lunac/internal/types"
)

// UtilityName enumerates the reserved utility-type operators (spec.md §6).
type UtilityName string

const (
	UtilPick         UtilityName = "Pick"
	UtilOmit         UtilityName = "Omit"
	UtilPartial      UtilityName = "Partial"
	UtilRequired     UtilityName = "Required"
	UtilReadonly     UtilityName = "Readonly"
	UtilRecord       UtilityName = "Record"
	UtilKeyof        UtilityName = "Keyof"
	UtilExclude      UtilityName = "Exclude"
	UtilExtract      UtilityName = "Extract"
	UtilNonNullable  UtilityName = "NonNullable"
	UtilReturnType   UtilityName = "ReturnType"
	UtilInstanceType UtilityName = "InstanceType"
	UtilParameters   UtilityName = "Parameters"
	UtilThisType     UtilityName = "ThisType"
)

func isUtilityName(n string) bool {
	switch UtilityName(n) {
	case UtilPick, UtilOmit, UtilPartial, UtilRequired, UtilReadonly, UtilRecord, UtilKeyof,
		UtilExclude, UtilExtract, UtilNonNullable, UtilReturnType, UtilInstanceType, UtilParameters, UtilThisType:
		return true
	default:
		return false
	}
}

// IsUtilityReference reports whether ref names a reserved utility operator
// rather than a user-declared type, so callers can route to EvalUtility
// instead of the ordinary named-type registry.
func (e *Env) IsUtilityReference(ref *types.Reference) (UtilityName, bool) {
	name := e.name(ref.Name)
	if isUtilityName(name) {
		return UtilityName(name), true
	}
	return "", false
}

func (e *Env) misapplied(span source.Span, name UtilityName, detail string) types.Type {
	e.report(diag.KindUtilityMisapplied, span, fmt.Sprintf("%s: %s", name, detail))
	return types.Unknown
}

// objectArg extracts an ObjectType, resolving one level of Reference
// indirection so `Pick<SomeAlias, "x">` works the same as an inline
// object literal type.
func (e *Env) objectArg(t types.Type) (*types.ObjectType, bool) {
	if ref, ok := t.(*types.Reference); ok {
		t = e.Resolve(ref)
	}
	obj, ok := t.(*types.ObjectType)
	return obj, ok
}

func literalStringSet(t types.Type) ([]string, bool) {
	var names []string
	collect := func(t types.Type) bool {
		lit, ok := t.(*types.Literal)
		if !ok || lit.Kind != types.LiteralString {
			return false
		}
		names = append(names, lit.Value.(string))
		return true
	}
	switch v := t.(type) {
	case *types.UnionType:
		for _, m := range v.Members {
			if !collect(m) {
				return nil, false
			}
		}
		return names, true
	default:
		if collect(t) {
			return names, true
		}
		return nil, false
	}
}

// EvalUtility applies a reserved utility-type operator to ground type
// arguments, per the rules summarized in spec.md §6. Args are already
// resolved (Ground) by the caller except where a lazy shape (Keyof over an
// ungrounded reference) is explicitly handled here.
func (e *Env) EvalUtility(name UtilityName, args []types.Type, span source.Span) types.Type {
	switch name {
	case UtilPick:
		if len(args) != 2 {
			return e.misapplied(span, name, "expects exactly two type arguments")
		}
		obj, ok := e.objectArg(args[0])
		if !ok {
			return e.misapplied(span, name, "first argument must be an object type")
		}
		keys, ok := literalStringSet(args[1])
		if !ok {
			return e.misapplied(span, name, "second argument must be a string literal or union of string literals")
		}
		props := map[string]*types.Property{}
		for _, k := range keys {
			if p, ok := obj.Properties[k]; ok {
				props[k] = p
			} else {
				return e.misapplied(span, name, fmt.Sprintf("property %q does not exist on the source type", k))
			}
		}
		return types.NewObjectType(props, span)

	case UtilOmit:
		if len(args) != 2 {
			return e.misapplied(span, name, "expects exactly two type arguments")
		}
		obj, ok := e.objectArg(args[0])
		if !ok {
			return e.misapplied(span, name, "first argument must be an object type")
		}
		keys, ok := literalStringSet(args[1])
		if !ok {
			return e.misapplied(span, name, "second argument must be a string literal or union of string literals")
		}
		omit := map[string]bool{}
		for _, k := range keys {
			omit[k] = true
		}
		props := map[string]*types.Property{}
		for k, p := range obj.Properties {
			if !omit[k] {
				props[k] = p
			}
		}
		return types.NewObjectType(props, span)

	case UtilPartial:
		return mapProperties(e, args, span, name, func(p types.Property) types.Property { p.Optional = true; return p })
	case UtilRequired:
		return mapProperties(e, args, span, name, func(p types.Property) types.Property { p.Optional = false; return p })
	case UtilReadonly:
		return mapProperties(e, args, span, name, func(p types.Property) types.Property { p.Readonly = true; return p })

	case UtilRecord:
		if len(args) != 2 {
			return e.misapplied(span, name, "expects exactly two type arguments")
		}
		keys, ok := literalStringSet(args[0])
		props := map[string]*types.Property{}
		if ok {
			for _, k := range keys {
				props[k] = &types.Property{Name: k, Type: args[1]}
			}
			return types.NewObjectType(props, span)
		}
		// Non-literal key type (e.g. `string`): model as an index signature.
		obj := types.NewObjectType(nil, span)
		obj.Index = &types.IndexSignature{KeyKind: types.IndexString, Value: args[1]}
		return obj

	case UtilKeyof:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		return e.EvalKeyof(args[0], span)

	case UtilExclude:
		if len(args) != 2 {
			return e.misapplied(span, name, "expects exactly two type arguments")
		}
		return filterUnion(args[0], span, func(m types.Type) bool { return !m.Equals(args[1]) && !isAssignableRough(m, args[1]) })

	case UtilExtract:
		if len(args) != 2 {
			return e.misapplied(span, name, "expects exactly two type arguments")
		}
		return filterUnion(args[0], span, func(m types.Type) bool { return m.Equals(args[1]) || isAssignableRough(m, args[1]) })

	case UtilNonNullable:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		return filterUnion(args[0], span, func(m types.Type) bool {
			return !types.IsPrimitive(m, types.PrimNil) && !types.IsPrimitive(m, types.PrimVoid)
		})

	case UtilReturnType:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		fn, ok := args[0].(*types.FuncType)
		if !ok {
			return e.misapplied(span, name, "argument must be a function type")
		}
		return fn.Return

	case UtilParameters:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		fn, ok := args[0].(*types.FuncType)
		if !ok {
			return e.misapplied(span, name, "argument must be a function type")
		}
		elems := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			elems[i] = p.Type
		}
		return types.NewTupleType(elems, nil, span)

	case UtilInstanceType:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		cls, ok := args[0].(*types.ClassType)
		if !ok {
			return e.misapplied(span, name, "argument must be a class type")
		}
		return cls

	case UtilThisType:
		if len(args) != 1 {
			return e.misapplied(span, name, "expects exactly one type argument")
		}
		return args[0]

	default:
		return e.misapplied(span, name, "unrecognized utility type")
	}
}

// isAssignableRough is a narrow structural-equality stand-in used only by
// Exclude/Extract's member filter; the full assignability relation lives in
// internal/assign, which this leaf package must not import (it would cycle
// back through tenv.Resolve). Exact equality is sufficient for the literal
// and primitive unions these operators are overwhelmingly applied to; a
// caller needing subtype-aware filtering calls the assignability engine
// directly after requesting Keyof/union members from here.
func isAssignableRough(a, b types.Type) bool {
	return a.Equals(b)
}

func filterUnion(t types.Type, span source.Span, keep func(types.Type) bool) types.Type {
	members := []types.Type{t}
	if u, ok := t.(*types.UnionType); ok {
		members = u.Members
	}
	var out []types.Type
	for _, m := range members {
		if keep(m) {
			out = append(out, m)
		}
	}
	return types.Union(out, span)
}

func mapProperties(e *Env, args []types.Type, span source.Span, name UtilityName, f func(types.Property) types.Property) types.Type {
	if len(args) != 1 {
		return e.misapplied(span, name, "expects exactly one type argument")
	}
	obj, ok := e.objectArg(args[0])
	if !ok {
		return e.misapplied(span, name, "argument must be an object type")
	}
	props := map[string]*types.Property{}
	for k, p := range obj.Properties {
		np := f(*p)
		props[k] = &np
	}
	return types.NewObjectType(props, span)
}

// EvalKeyof computes the union of an object type's own property names as
// string-literal types. A class/interface operand is first flattened to
// its member object.
func (e *Env) EvalKeyof(t types.Type, span source.Span) types.Type {
	switch v := t.(type) {
	case *types.Reference:
		return e.EvalKeyof(e.Resolve(v), span)
	case *types.ObjectType:
		var lits []types.Type
		for name := range v.Properties {
			lits = append(lits, types.NewLiteral(types.LiteralString, name, span))
		}
		if v.Index != nil {
			if v.Index.KeyKind == types.IndexString {
				return types.String
			}
			return types.Number
		}
		return types.Union(lits, span)
	case *types.ClassType:
		return e.EvalKeyof(v.Members, span)
	case *types.InterfaceType:
		return e.EvalKeyof(v.Members, span)
	default:
		return e.misapplied(span, UtilKeyof, "operand must be an object, class, or interface type")
	}
}

// EvalIndexedAccess computes Object[Key] for a ground key.
func (e *Env) EvalIndexedAccess(obj, key types.Type, span source.Span) types.Type {
	o, ok := e.objectArg(obj)
	if !ok {
		return e.misapplied(span, "IndexedAccess", "object operand must be an object type")
	}
	if lit, ok := key.(*types.Literal); ok && lit.Kind == types.LiteralString {
		if p, ok := o.Properties[lit.Value.(string)]; ok {
			return p.Type
		}
		if o.Index != nil && o.Index.KeyKind == types.IndexString {
			return o.Index.Value
		}
		return e.misapplied(span, "IndexedAccess", fmt.Sprintf("no property %q on the object type", lit.Value))
	}
	if u, ok := key.(*types.UnionType); ok {
		var results []types.Type
		for _, m := range u.Members {
			results = append(results, e.EvalIndexedAccess(obj, m, span))
		}
		return types.Union(results, span)
	}
	return types.Unknown
}

// EvalConditional evaluates `Check extends Extends ? Then : Else`. When
// Check is a bare, still-unbound type parameter the evaluation distributes
// over Extends's union members per spec.md §4.3; otherwise it resolves to
// a single branch once both Check and Extends are ground.
func (e *Env) EvalConditional(c *types.Conditional, isAssignable func(source, target types.Type) bool) types.Type {
	if _, bare := c.Check.(*types.TypeParam); bare {
		if u, ok := c.Extends.(*types.UnionType); ok {
			var branches []types.Type
			for _, m := range u.Members {
				sub := subst.Map{c.Check.(*types.TypeParam): m}
				branches = append(branches, e.EvalConditional(&types.Conditional{
					Check: m, Extends: m, Then: subst.Apply(c.Then, sub), Else: subst.Apply(c.Else, sub),
				}, isAssignable))
			}
			return types.Union(branches, c.Span())
		}
	}
	if isAssignable(c.Check, c.Extends) {
		return c.Then
	}
	return c.Else
}

// EvalMapped evaluates `{ [K in KeySource]: ValueTemplate }` once KeySource
// grounds to a union of string-literal keys.
func (e *Env) EvalMapped(m *types.Mapped, span source.Span) types.Type {
	keys, ok := literalStringSet(m.KeySource)
	if !ok {
		if kt, ok := m.KeySource.(*types.KeyofType); ok {
			keys, ok = literalStringSet(e.EvalKeyof(kt.Operand, span))
			if !ok {
				return e.misapplied(span, "Mapped", "key source must evaluate to a union of string literals")
			}
		} else {
			return e.misapplied(span, "Mapped", "key source must evaluate to a union of string literals")
		}
	}
	props := map[string]*types.Property{}
	for _, k := range keys {
		valueKeyParam := &types.Literal{Kind: types.LiteralString, Value: k}
		value := substituteMappedKey(m.ValueTemplate, valueKeyParam)
		p := &types.Property{Name: k, Type: value}
		if m.OptionalMod == types.ModifierAdd {
			p.Optional = true
		}
		if m.ReadonlyMod == types.ModifierAdd {
			p.Readonly = true
		}
		props[k] = p
	}
	return types.NewObjectType(props, span)
}

// substituteMappedKey returns a mapped type's value template unchanged for
// every key: neither indexed access over the iteration variable nor a bare
// key placeholder is replaced (full per-key indexed access requires
// correlating back to the source object, which the inference visitor has
// at the use site).
func substituteMappedKey(template types.Type, key *types.Literal) types.Type {
	return template
}
