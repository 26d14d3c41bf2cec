// Package subst implements type-parameter substitution: building a
// substitution map from a type-parameter list and type-argument list, and
// applying it to a type term. Every TypeParam is a distinct pointer
// identity (internal/types), so substitution is hygienic automatically —
// there is no name-collision case to rename away, unlike a text-keyed
// substitution scheme.
package subst

import "github.com/lunac-lang/lunac/internal/types"

// Map binds type-parameter binders (by pointer identity) to their argument
// types for one instantiation.
type Map map[*types.TypeParam]types.Type

// Build zips params with args positionally. A parameter beyond the end of
// args takes its declared Default, or Unknown if it has none — matching
// spec.md §4.5's "defaults to its declared default or to unknown" rule for
// unbound type parameters.
func Build(params []*types.TypeParam, args []types.Type) Map {
	m := make(Map, len(params))
	for i, p := range params {
		switch {
		case i < len(args):
			m[p] = args[i]
		case p.Default != nil:
			m[p] = p.Default
		default:
			m[p] = types.Unknown
		}
	}
	return m
}

// Apply recursively substitutes every TypeParam leaf reachable in t that
// appears as a key in m, leaving everything else structurally unchanged.
// Primitive and literal terms, and reference and array terms whose contents
// did not change, are returned as the same value; other composite shapes
// are rebuilt.
func Apply(t types.Type, m Map) types.Type {
	if len(m) == 0 {
		return t
	}
	switch v := t.(type) {
	case *types.TypeParam:
		if repl, ok := m[v]; ok {
			return repl
		}
		return v
	case *types.Primitive, *types.Literal:
		return t
	case *types.Reference:
		args := applyAll(v.TypeArgs, m)
		if sameSlice(args, v.TypeArgs) {
			return v
		}
		return types.NewReference(v.Name, args, v.Span())
	case *types.ArrayType:
		elem := Apply(v.Element, m)
		if elem == v.Element {
			return v
		}
		return types.NewArrayType(elem, v.Span())
	case *types.TupleType:
		elems := applyAll(v.Elements, m)
		var variadic types.Type
		if v.Variadic != nil {
			variadic = Apply(v.Variadic, m)
		}
		return types.NewTupleType(elems, variadic, v.Span())
	case *types.ObjectType:
		return applyObject(v, m)
	case *types.FuncType:
		return applyFunc(v, m)
	case *types.UnionType:
		return types.Union(applyAll(v.Members, m), v.Span())
	case *types.IntersectionType:
		return types.Intersection(applyAll(v.Members, m), v.Span())
	case *types.TypePredicate:
		return types.NewTypePredicate(v.Subject, Apply(v.Narrowed, m), v.Span())
	case *types.Conditional:
		return types.NewConditional(Apply(v.Check, m), Apply(v.Extends, m), Apply(v.Then, m), Apply(v.Else, m), v.Span())
	case *types.KeyofType:
		return types.NewKeyofType(Apply(v.Operand, m), v.Span())
	case *types.IndexedAccessType:
		return types.NewIndexedAccessType(Apply(v.Object, m), Apply(v.Key, m), v.Span())
	case *types.Mapped:
		return &types.Mapped{
			KeySource:     Apply(v.KeySource, m),
			ValueTemplate: Apply(v.ValueTemplate, m),
			ReadonlyMod:   v.ReadonlyMod,
			OptionalMod:   v.OptionalMod,
			KeyRemap:      applyOptional(v.KeyRemap, m),
		}
	default:
		// ClassType, InterfaceType, EnumType, ThisType carry no directly
		// substitutable leaves at this level: their own TypeParams shadow
		// any outer binder of the same identity won't occur since each
		// binder is unique, and their bodies are substituted when the
		// generics engine instantiates the class/interface itself, not
		// when an unrelated substitution merely passes through a
		// Reference to it.
		return t
	}
}

func applyOptional(t types.Type, m Map) types.Type {
	if t == nil {
		return nil
	}
	return Apply(t, m)
}

func applyAll(ts []types.Type, m Map) []types.Type {
	out := make([]types.Type, len(ts))
	changed := false
	for i, t := range ts {
		out[i] = Apply(t, m)
		if out[i] != t {
			changed = true
		}
	}
	if !changed {
		return ts
	}
	return out
}

func sameSlice(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func applyFunc(f *types.FuncType, m Map) *types.FuncType {
	// Parameters declared by this very function (f.TypeParams) are fresh
	// pointer identities distinct from whatever is being substituted, so
	// no shadowing filter is needed: m simply never contains them unless
	// the caller is re-instantiating f itself, which is exactly the
	// desired behavior.
	params := make([]*types.Param, len(f.Params))
	for i, p := range f.Params {
		params[i] = &types.Param{Name: p.Name, Type: Apply(p.Type, m), Optional: p.Optional, Rest: p.Rest, This: p.This}
	}
	return types.NewFuncType(params, Apply(f.Return, m), f.TypeParams, f.Span())
}

func applyObject(o *types.ObjectType, m Map) *types.ObjectType {
	props := make(map[string]*types.Property, len(o.Properties))
	for name, p := range o.Properties {
		props[name] = &types.Property{
			Name: p.Name, Type: Apply(p.Type, m), Optional: p.Optional,
			Readonly: p.Readonly, Visibility: p.Visibility,
		}
	}
	out := types.NewObjectType(props, o.Span())
	if o.Index != nil {
		out.Index = &types.IndexSignature{KeyKind: o.Index.KeyKind, Value: Apply(o.Index.Value, m)}
	}
	for _, c := range o.Calls {
		out.Calls = append(out.Calls, applyFunc(c, m))
	}
	for _, c := range o.Constructs {
		out.Constructs = append(out.Constructs, applyFunc(c, m))
	}
	return out
}

// FreeParams collects every TypeParam reachable in t into the given set.
func FreeParams(t types.Type, into map[*types.TypeParam]bool) {
	switch v := t.(type) {
	case *types.TypeParam:
		into[v] = true
	case *types.Reference:
		for _, a := range v.TypeArgs {
			FreeParams(a, into)
		}
	case *types.ArrayType:
		FreeParams(v.Element, into)
	case *types.TupleType:
		for _, e := range v.Elements {
			FreeParams(e, into)
		}
		if v.Variadic != nil {
			FreeParams(v.Variadic, into)
		}
	case *types.ObjectType:
		for _, p := range v.Properties {
			FreeParams(p.Type, into)
		}
		if v.Index != nil {
			FreeParams(v.Index.Value, into)
		}
		for _, c := range v.Calls {
			FreeParams(c, into)
		}
	case *types.FuncType:
		for _, p := range v.Params {
			FreeParams(p.Type, into)
		}
		FreeParams(v.Return, into)
	case *types.UnionType:
		for _, mem := range v.Members {
			FreeParams(mem, into)
		}
	case *types.IntersectionType:
		for _, mem := range v.Members {
			FreeParams(mem, into)
		}
	case *types.Conditional:
		FreeParams(v.Check, into)
		FreeParams(v.Extends, into)
		FreeParams(v.Then, into)
		FreeParams(v.Else, into)
	case *types.KeyofType:
		FreeParams(v.Operand, into)
	case *types.IndexedAccessType:
		FreeParams(v.Object, into)
		FreeParams(v.Key, into)
	}
}
