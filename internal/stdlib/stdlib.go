// Package stdlib seeds a fresh type environment with the dialect's
// ambient, predeclared types (spec.md §6's "standard-library loader":
// "seeds the type environment with a fixed catalogue of named types at
// session start; errors here abort the session").
package stdlib

import (
	"fmt"

	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

// Load registers the ambient catalogue into env. It only fails if env was
// built without an interner, which indicates a caller bug rather than a
// recoverable condition — matching spec.md §7's framing of stdlib load
// failure as the one fatal, session-aborting error.
func Load(env *tenv.Env) error {
	in := env.Interner()
	if in == nil {
		return fmt.Errorf("stdlib: type environment has no interner")
	}

	registerError(env, in)
	registerIterable(env, in)
	registerPrintable(env, in)
	registerJSONValue(env, in)
	return nil
}

func prop(name string, t types.Type, opts ...func(*types.Property)) *types.Property {
	p := &types.Property{Name: name, Type: t}
	for _, o := range opts {
		o(p)
	}
	return p
}

func optional(p *types.Property) { p.Optional = true }

// registerError seeds the `Error` interface every thrown/caught value is
// expected to satisfy: a required message and an optional stack trace.
func registerError(env *tenv.Env, in *source.Interner) {
	obj := types.NewObjectType(map[string]*types.Property{
		"message": prop("message", types.String),
		"stack":   prop("stack", types.String, optional),
	}, source.Span{})
	iface := &types.InterfaceType{Name: "Error", Members: obj}
	env.RegisterType(in.Intern("Error"), nil, iface, source.Span{})
}

// registerIterable seeds the generic `Iterable<T>` interface, the
// ambient shape a `for ... in` loop target is checked against.
func registerIterable(env *tenv.Env, in *source.Interner) {
	t := types.NewTypeParam("T", nil, nil, source.Span{})
	nextReturn := types.Union([]types.Type{t, types.Nil}, source.Span{})
	next := types.NewFuncType(nil, nextReturn, nil, source.Span{})
	obj := types.NewObjectType(map[string]*types.Property{
		"next": prop("next", next),
	}, source.Span{})
	iface := &types.InterfaceType{Name: "Iterable", TypeParams: []*types.TypeParam{t}, Members: obj}
	env.RegisterType(in.Intern("Iterable"), []*types.TypeParam{t}, iface, source.Span{})
}

// registerPrintable seeds the ambient shape `print`/string-coercion
// contexts expect: a zero-argument `toString(): string` method.
func registerPrintable(env *tenv.Env, in *source.Interner) {
	toString := types.NewFuncType(nil, types.String, nil, source.Span{})
	obj := types.NewObjectType(map[string]*types.Property{
		"toString": prop("toString", toString),
	}, source.Span{})
	iface := &types.InterfaceType{Name: "Printable", Members: obj}
	env.RegisterType(in.Intern("Printable"), nil, iface, source.Span{})
}

// registerJSONValue seeds `JSONValue`, the recursive union every JSON
// decode/encode boundary uses: primitives, an array of itself, or an
// object of itself. The self-reference goes through a Reference back to
// the named type, matching spec.md §9's "avoid raw pointer cycles by
// keeping named types behind the Type Environment" design note.
func registerJSONValue(env *tenv.Env, in *source.Interner) {
	name := in.Intern("JSONValue")
	self := types.NewReference(name, nil, source.Span{})
	objShape := types.NewObjectType(map[string]*types.Property{}, source.Span{})
	objShape.Index = &types.IndexSignature{KeyKind: types.IndexString, Value: self}
	value := types.Union([]types.Type{
		types.Nil, types.Bool, types.Number, types.String,
		types.NewArrayType(self, source.Span{}),
		objShape,
	}, source.Span{})
	env.RegisterType(name, nil, value, source.Span{})
}
