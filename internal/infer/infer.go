// Package infer implements the bidirectional inference visitor (spec.md
// §4.6): `infer(expr) -> Type` and `check(expr, expected)` over
// expressions, plus the statement rules (declarations, assignment,
// function/class bodies, control flow, return, import/export) that drive
// them in source order while the narrowing engine maintains flow-sensitive
// types.
package infer

import (
	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/generics"
	"github.com/lunac-lang/lunac/internal/narrow"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/subst"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/symbols"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

// Visitor bundles every collaborator the inference pass consults: the
// type environment and assignability/generics engines for type
// judgments, the symbol table for name resolution, the narrowing engine
// for flow-sensitive refinement, and the shared diagnostics sink.
type Visitor struct {
	Env      *tenv.Env
	Checker  *assign.Checker
	Generics *generics.Engine
	Symbols  *symbols.Table
	Narrow   *narrow.Engine
	Sink     diag.Sink
	Interner *source.Interner

	returnStack []*returnFrame
}

// returnFrame tracks one function body's return-type bookkeeping: the
// declared return type (nil if the function body must have it inferred),
// every returned expression's type (for inferred-return functions), and
// whether at least one return statement was seen.
type returnFrame struct {
	declared  types.Type
	collected []types.Type
	sawReturn bool
}

// New creates a Visitor sharing one check session's collaborators.
func New(env *tenv.Env, checker *assign.Checker, gen *generics.Engine, symTable *symbols.Table, narrowEngine *narrow.Engine, sink diag.Sink, interner *source.Interner) *Visitor {
	return &Visitor{Env: env, Checker: checker, Generics: gen, Symbols: symTable, Narrow: narrowEngine, Sink: sink, Interner: interner}
}

func (v *Visitor) report(kind diag.Kind, span source.Span, msg string) {
	if v.Sink != nil {
		v.Sink.Report(diag.New(kind, span, msg))
	}
}

func (v *Visitor) intern(name string) source.ID { return v.Interner.Intern(name) }

// --- Type-expression resolution ---

var primitiveNames = map[string]*types.Primitive{
	"nil": types.Nil, "boolean": types.Bool, "number": types.Number,
	"string": types.String, "any": types.Any, "unknown": types.Unknown,
	"void": types.Void, "never": types.Never,
}

// ResolveTypeExpr converts a syntactic type annotation into a checked
// Type, resolving named references through the type environment
// (including the reserved utility-type operators) and recursing through
// every composite syntactic shape.
func (v *Visitor) ResolveTypeExpr(te surface.TypeExpr) types.Type {
	if te == nil {
		return types.Unknown
	}
	switch t := te.(type) {
	case *surface.TypeRef:
		return v.resolveTypeRef(t)
	case *surface.UnionTypeExpr:
		members := make([]types.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = v.ResolveTypeExpr(m)
		}
		return types.Union(members, t.Span())
	case *surface.IntersectionTypeExpr:
		members := make([]types.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = v.ResolveTypeExpr(m)
		}
		return types.Intersection(members, t.Span())
	case *surface.ArrayTypeExpr:
		return types.NewArrayType(v.ResolveTypeExpr(t.Element), t.Span())
	case *surface.TupleTypeExpr:
		elems := make([]types.Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = v.ResolveTypeExpr(e)
		}
		var variadic types.Type
		if t.Variadic != nil {
			variadic = v.ResolveTypeExpr(t.Variadic)
		}
		return types.NewTupleType(elems, variadic, t.Span())
	case *surface.ObjectTypeExpr:
		return v.resolveObjectTypeExpr(t)
	case *surface.FuncTypeExpr:
		return v.resolveFuncTypeExpr(t)
	case *surface.LiteralTypeExpr:
		switch t.Kind {
		case "number":
			return types.NewLiteral(types.LiteralNumber, t.Value, t.Span())
		case "string":
			return types.NewLiteral(types.LiteralString, t.Value, t.Span())
		default:
			return types.NewLiteral(types.LiteralBoolean, t.Value, t.Span())
		}
	case *surface.TypePredicateExpr:
		return types.NewTypePredicate(t.Subject, v.ResolveTypeExpr(t.Narrowed), t.Span())
	case *surface.ConditionalTypeExpr:
		cond := types.NewConditional(v.ResolveTypeExpr(t.Check), v.ResolveTypeExpr(t.Extends),
			v.ResolveTypeExpr(t.Then), v.ResolveTypeExpr(t.Else), t.Span())
		return v.Env.EvalConditional(cond, func(s, tgt types.Type) bool { return v.Checker.IsAssignable(s, tgt).OK })
	case *surface.MappedTypeExpr:
		return v.resolveMappedTypeExpr(t)
	case *surface.KeyofTypeExpr:
		return v.Env.EvalKeyof(v.ResolveTypeExpr(t.Operand), t.Span())
	case *surface.IndexedAccessTypeExpr:
		return v.Env.EvalIndexedAccess(v.ResolveTypeExpr(t.Object), v.ResolveTypeExpr(t.Key), t.Span())
	case *surface.ThisTypeExpr:
		return types.NewThisType(t.Span())
	default:
		return types.Unknown
	}
}

func (v *Visitor) resolveTypeRef(t *surface.TypeRef) types.Type {
	if prim, ok := primitiveNames[t.Name]; ok && len(t.TypeArgs) == 0 {
		return prim
	}
	args := make([]types.Type, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		args[i] = v.ResolveTypeExpr(a)
	}
	ref := types.NewReference(v.intern(t.Name), args, t.Span())

	if name, ok := v.Env.IsUtilityReference(ref); ok {
		if name == tenv.UtilKeyof && len(args) == 1 {
			return v.Env.EvalKeyof(args[0], t.Span())
		}
		return v.Env.EvalUtility(name, args, t.Span())
	}
	if tp, ok := v.Env.LookupTypeParam(t.Name); ok {
		return tp
	}
	return v.Env.Resolve(ref)
}

func (v *Visitor) resolveObjectTypeExpr(t *surface.ObjectTypeExpr) types.Type {
	props := make(map[string]*types.Property, len(t.Fields))
	for _, f := range t.Fields {
		props[f.Name] = &types.Property{
			Name: f.Name, Type: v.ResolveTypeExpr(f.Type), Optional: f.Optional, Readonly: f.Readonly,
		}
	}
	obj := types.NewObjectType(props, t.Span())
	if t.Index != nil {
		kind := types.IndexString
		if t.Index.KeyKind == "number" {
			kind = types.IndexNumber
		}
		obj.Index = &types.IndexSignature{KeyKind: kind, Value: v.ResolveTypeExpr(t.Index.Value)}
	}
	return obj
}

func (v *Visitor) resolveFuncTypeExpr(t *surface.FuncTypeExpr) types.Type {
	tparams := v.resolveTypeParams(t.TypeParams)
	if len(tparams) > 0 {
		v.Env.PushTypeParamScope(tparams)
		defer v.Env.PopTypeParamScope()
	}
	params := v.resolveParams(t.Params)
	return types.NewFuncType(params, v.ResolveTypeExpr(t.Return), tparams, t.Span())
}

func (v *Visitor) resolveMappedTypeExpr(t *surface.MappedTypeExpr) types.Type {
	keySource := v.ResolveTypeExpr(t.KeySource)
	template := v.ResolveTypeExpr(t.ValueTemplate)
	var keyRemap types.Type
	if t.KeyRemap != nil {
		keyRemap = v.ResolveTypeExpr(t.KeyRemap)
	}
	mapped := types.NewMapped(keySource, template, types.MappedModifier(t.ReadonlyMod), types.MappedModifier(t.OptionalMod), keyRemap, t.Span())
	return v.Env.EvalMapped(mapped, t.Span())
}

func (v *Visitor) resolveTypeParams(decls []*surface.TypeParamDecl) []*types.TypeParam {
	out := make([]*types.TypeParam, len(decls))
	for i, d := range decls {
		var constraint, def types.Type
		if d.Constraint != nil {
			constraint = v.ResolveTypeExpr(d.Constraint)
		}
		if d.Default != nil {
			def = v.ResolveTypeExpr(d.Default)
		}
		out[i] = types.NewTypeParam(d.Name, constraint, def, d.Span())
	}
	return out
}

func (v *Visitor) resolveParams(decls []*surface.ParamDecl) []*types.Param {
	out := make([]*types.Param, len(decls))
	for i, d := range decls {
		var t types.Type = types.Unknown
		if d.Type != nil {
			t = v.ResolveTypeExpr(d.Type)
		}
		out[i] = &types.Param{Name: v.Interner.Lookup(d.Name), Type: t, Optional: d.Optional, Rest: d.Rest, This: d.This}
	}
	return out
}

// --- Expressions ---

// typeOfFor builds a narrow.TypeOf closure bound to one fixed context,
// for handing to the narrowing engine while visiting a guard.
func (v *Visitor) typeOfFor(ctx narrow.Context) narrow.TypeOf {
	return func(e surface.Expr) types.Type { return v.InferExpr(e, ctx) }
}

func (v *Visitor) resolveTypeExprFor() narrow.ResolveTypeExpr {
	return func(te surface.TypeExpr) types.Type { return v.ResolveTypeExpr(te) }
}

// InferExpr computes e's static type without a contextual expectation.
func (v *Visitor) InferExpr(e surface.Expr, ctx narrow.Context) types.Type {
	switch x := e.(type) {
	case *surface.NumberLit:
		return types.NewLiteral(types.LiteralNumber, x.Value, x.Span())
	case *surface.StringLit:
		return types.NewLiteral(types.LiteralString, x.Value, x.Span())
	case *surface.BoolLit:
		return types.NewLiteral(types.LiteralBoolean, x.Value, x.Span())
	case *surface.NilLit:
		return types.Nil
	case *surface.Ident:
		return v.inferIdent(x, ctx)
	case *surface.BinaryExpr:
		return v.inferBinary(x, ctx)
	case *surface.UnaryExpr:
		return v.inferUnary(x, ctx)
	case *surface.IsExpr:
		return types.Bool
	case *surface.CallExpr:
		return v.inferCall(x, ctx)
	case *surface.MemberExpr:
		return v.inferMember(x, ctx)
	case *surface.IndexExpr:
		return v.inferIndex(x, ctx)
	case *surface.ObjectLit:
		return v.inferObjectLit(x, ctx)
	case *surface.ArrayLit:
		return v.inferArrayLit(x, ctx)
	case *surface.FuncLit:
		return v.inferFuncLit(x, nil, ctx)
	default:
		return types.Unknown
	}
}

// CheckExpr checks e against expected, pushing it as a contextual type
// that influences object-literal excess-property checks, function-literal
// parameter types, and generic argument inference.
func (v *Visitor) CheckExpr(e surface.Expr, expected types.Type, ctx narrow.Context) types.Type {
	switch x := e.(type) {
	case *surface.ObjectLit:
		return v.checkObjectLitAgainst(x, expected, ctx)
	case *surface.FuncLit:
		return v.inferFuncLit(x, expected, ctx)
	default:
		actual := v.InferExpr(e, ctx)
		if r := v.Checker.IsAssignable(actual, expected); !r.OK {
			v.report(diag.KindTypeMismatch, e.Span(), actual.String()+" is not assignable to "+expected.String())
		}
		return actual
	}
}

func (v *Visitor) inferIdent(x *surface.Ident, ctx narrow.Context) types.Type {
	if key, ok := narrow.Key(v.Interner, x); ok {
		if t, ok := ctx[key]; ok {
			return t
		}
	}
	sym, ok := v.Symbols.Lookup(x.Name)
	if !ok {
		v.report(diag.KindUnknownSymbol, x.Span(), "unknown symbol")
		return types.Unknown
	}
	sym.MarkReferenced(x.Span())
	return sym.Type
}

func (v *Visitor) inferUnary(x *surface.UnaryExpr, ctx narrow.Context) types.Type {
	switch x.Op {
	case "not":
		return types.Bool
	case "-":
		v.CheckExpr(x.Operand, types.Number, ctx)
		return types.Number
	default:
		return v.InferExpr(x.Operand, ctx)
	}
}

func (v *Visitor) inferBinary(x *surface.BinaryExpr, ctx narrow.Context) types.Type {
	switch x.Op {
	case "+", "-", "*", "/", "%", "^":
		v.CheckExpr(x.Left, types.Number, ctx)
		v.CheckExpr(x.Right, types.Number, ctx)
		return types.Number
	case "..":
		left := v.InferExpr(x.Left, ctx)
		right := v.InferExpr(x.Right, ctx)
		v.checkConcatOperand(x.Left.Span(), left)
		v.checkConcatOperand(x.Right.Span(), right)
		return types.String
	case "==", "~=", "<", "<=", ">", ">=":
		v.InferExpr(x.Left, ctx)
		v.InferExpr(x.Right, ctx)
		return types.Bool
	case "and":
		trueCtx, _ := v.Narrow.Narrow(x.Left, ctx, v.typeOfFor(ctx), v.resolveTypeExprFor())
		b := v.InferExpr(x.Right, trueCtx)
		return types.Union([]types.Type{types.Bool, b}, x.Span())
	case "or":
		_, falseCtx := v.Narrow.Narrow(x.Left, ctx, v.typeOfFor(ctx), v.resolveTypeExprFor())
		b := v.InferExpr(x.Right, falseCtx)
		return types.Union([]types.Type{types.Bool, b}, x.Span())
	default:
		return types.Unknown
	}
}

func (v *Visitor) checkConcatOperand(span source.Span, t types.Type) {
	ok := v.Checker.IsAssignable(t, types.String).OK || v.Checker.IsAssignable(t, types.Number).OK
	if !ok {
		v.report(diag.KindTypeMismatch, span, "operand of .. must be string or number, got "+t.String())
	}
}

func (v *Visitor) inferMember(x *surface.MemberExpr, ctx narrow.Context) types.Type {
	obj := v.InferExpr(x.Object, ctx)
	t, vis := lookupMember(obj, x.Property)
	if t == nil {
		if types.IsPrimitive(obj, types.PrimAny) || types.IsPrimitive(obj, types.PrimUnknown) {
			return types.Any
		}
		v.report(diag.KindUnknownMember, x.Span(), "unknown member "+x.Property)
		return types.Unknown
	}
	if vis == types.Private {
		v.report(diag.KindAccessViolation, x.Span(), "member "+x.Property+" is private")
	}
	return t
}

// lookupMember resolves a named property through the structural shapes
// that carry one: Object, Class (including static/instance), Interface.
func lookupMember(obj types.Type, name string) (types.Type, types.Visibility) {
	switch o := obj.(type) {
	case *types.ObjectType:
		if p, ok := o.Properties[name]; ok {
			return p.Type, p.Visibility
		}
		if o.Index != nil {
			return o.Index.Value, types.Public
		}
	case *types.ClassType:
		if o.Members != nil {
			if p, ok := o.Members.Properties[name]; ok {
				return p.Type, p.Visibility
			}
		}
	case *types.InterfaceType:
		if o.Members != nil {
			if p, ok := o.Members.Properties[name]; ok {
				return p.Type, p.Visibility
			}
		}
	case *types.UnionType:
		// A member access on a union is only well-typed if every member
		// carries it: nil if any member lacks it, otherwise the first
		// member's property type.
		var result types.Type
		for _, m := range o.Members {
			t, _ := lookupMember(m, name)
			if t == nil {
				return nil, types.Public
			}
			if result == nil {
				result = t
			}
		}
		return result, types.Public
	}
	return nil, types.Public
}

func (v *Visitor) inferIndex(x *surface.IndexExpr, ctx narrow.Context) types.Type {
	obj := v.InferExpr(x.Object, ctx)
	v.InferExpr(x.Index, ctx)
	switch o := obj.(type) {
	case *types.ArrayType:
		return o.Element
	case *types.TupleType:
		if lit, ok := x.Index.(*surface.NumberLit); ok {
			i := int(lit.Value)
			if i >= 0 && i < len(o.Elements) {
				return o.Elements[i]
			}
		}
		if o.Variadic != nil {
			return o.Variadic
		}
	case *types.ObjectType:
		if o.Index != nil {
			return o.Index.Value
		}
	}
	return types.Unknown
}

func (v *Visitor) inferObjectLit(x *surface.ObjectLit, ctx narrow.Context) types.Type {
	props := make(map[string]*types.Property, len(x.Fields))
	for _, f := range x.Fields {
		props[f.Name] = &types.Property{Name: f.Name, Type: widenLiteral(v.InferExpr(f.Value, ctx))}
	}
	return types.NewObjectType(props, x.Span())
}

// checkObjectLitAgainst checks an object literal against a contextual
// object-shaped expected type, flagging excess properties per spec.md
// rule 8 (a literal in a checked position, not a variable already typed).
func (v *Visitor) checkObjectLitAgainst(x *surface.ObjectLit, expected types.Type, ctx narrow.Context) types.Type {
	target, ok := expected.(*types.ObjectType)
	if !ok {
		return v.inferObjectLit(x, ctx)
	}
	props := make(map[string]*types.Property, len(x.Fields))
	for _, f := range x.Fields {
		var fieldExpected types.Type
		if tp, ok := target.Properties[f.Name]; ok {
			fieldExpected = tp.Type
		}
		var t types.Type
		if fieldExpected != nil {
			t = v.CheckExpr(f.Value, fieldExpected, ctx)
		} else {
			t = widenLiteral(v.InferExpr(f.Value, ctx))
			v.report(diag.KindTypeMismatch, f.Value.Span(), "excess property "+f.Name+" not present on "+expected.String())
		}
		props[f.Name] = &types.Property{Name: f.Name, Type: t}
	}
	return types.NewObjectType(props, x.Span())
}

func (v *Visitor) inferArrayLit(x *surface.ArrayLit, ctx narrow.Context) types.Type {
	if len(x.Elements) == 0 {
		return types.NewArrayType(types.Unknown, x.Span())
	}
	members := make([]types.Type, len(x.Elements))
	for i, e := range x.Elements {
		members[i] = widenLiteral(v.InferExpr(e, ctx))
	}
	return types.NewArrayType(types.Union(members, x.Span()), x.Span())
}

func (v *Visitor) inferFuncLit(x *surface.FuncLit, expected types.Type, ctx narrow.Context) types.Type {
	tparams := v.resolveTypeParams(x.TypeParams)
	if len(tparams) > 0 {
		v.Env.PushTypeParamScope(tparams)
		defer v.Env.PopTypeParamScope()
	}
	expectedFunc, _ := expected.(*types.FuncType)
	params := make([]*types.Param, len(x.Params))
	v.Symbols.EnterScope()
	for i, p := range x.Params {
		var t types.Type = types.Unknown
		switch {
		case p.Type != nil:
			t = v.ResolveTypeExpr(p.Type)
		case expectedFunc != nil && i < len(expectedFunc.Params):
			t = expectedFunc.Params[i].Type
		}
		params[i] = &types.Param{Name: v.Interner.Lookup(p.Name), Type: t, Optional: p.Optional, Rest: p.Rest, This: p.This}
		v.Symbols.Declare(&symbols.Symbol{Name: p.Name, Kind: symbols.Parameter, Type: t, DeclSpan: x.Span()})
	}

	var declaredReturn types.Type
	if x.ReturnType != nil {
		declaredReturn = v.ResolveTypeExpr(x.ReturnType)
	}
	v.returnStack = append(v.returnStack, &returnFrame{declared: declaredReturn})
	bodyCtx := narrow.Context{}
	v.VisitBlock(x.Body, bodyCtx)
	frame := v.returnStack[len(v.returnStack)-1]
	v.returnStack = v.returnStack[:len(v.returnStack)-1]
	v.Symbols.ExitScope()
	if declaredReturn != nil && !frame.sawReturn && !types.IsPrimitive(declaredReturn, types.PrimVoid) &&
		!v.Checker.IsAssignable(types.Nil, declaredReturn).OK {
		v.report(diag.KindMissingReturn, x.Span(), "function does not return on every path")
	}

	ret := declaredReturn
	if ret == nil {
		if len(frame.collected) == 0 {
			ret = types.Void
		} else {
			ret = types.Union(frame.collected, x.Span())
		}
	}
	return types.NewFuncType(params, ret, tparams, x.Span())
}

// widenLiteral applies spec.md §4.6's "literal types widen to their
// primitive unless the binding is const" rule at inference sites that
// always widen (object/array literal members, non-const locals).
func widenLiteral(t types.Type) types.Type {
	if lit, ok := t.(*types.Literal); ok {
		return types.WidenLiteral(lit)
	}
	return t
}

func (v *Visitor) inferCall(x *surface.CallExpr, ctx narrow.Context) types.Type {
	callee := v.InferExpr(x.Callee, ctx)
	fn, ok := callee.(*types.FuncType)
	if !ok {
		v.report(diag.KindTypeMismatch, x.Span(), "cannot call a value of type "+callee.String())
		for _, a := range x.Args {
			v.InferExpr(a, ctx)
		}
		return types.Unknown
	}

	argTypes := make([]types.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = v.InferExpr(a, ctx)
	}

	target := fn
	if len(fn.TypeParams) > 0 {
		var m subst.Map
		if len(x.TypeArgs) > 0 {
			args := make([]types.Type, len(x.TypeArgs))
			for i, te := range x.TypeArgs {
				args[i] = v.ResolveTypeExpr(te)
			}
			m = v.Generics.BuildSubstitution(fn.TypeParams, args)
		} else {
			paramTypes := make([]types.Type, len(fn.Params))
			for i, p := range fn.Params {
				paramTypes[i] = p.Type
			}
			m = v.Generics.Infer(fn.TypeParams, paramTypes, argTypes)
		}
		for _, d := range v.Generics.CheckConstraints(m, fn.TypeParams) {
			_ = d // already reported to the sink by CheckConstraints
		}
		instantiated := v.Generics.Instantiate(fn, m)
		target, _ = instantiated.(*types.FuncType)
		if target == nil {
			target = fn
		}
	}

	for i, a := range x.Args {
		if i >= len(target.Params) {
			if len(target.Params) > 0 && target.Params[len(target.Params)-1].Rest {
				continue
			}
			break
		}
		if r := v.Checker.IsAssignable(argTypes[i], target.Params[i].Type); !r.OK {
			v.report(diag.KindTypeMismatch, a.Span(), "argument "+a.String()+" not assignable to parameter type "+target.Params[i].Type.String())
		}
	}
	return target.Return
}

// --- Statements ---

// VisitBlock runs VisitStmt over a statement list, threading the
// narrowing context from one statement to the next.
func (v *Visitor) VisitBlock(stmts []surface.Stmt, ctx narrow.Context) narrow.Context {
	for _, s := range stmts {
		ctx = v.VisitStmt(s, ctx)
	}
	return ctx
}

// VisitStmt checks one statement and returns the narrowing context that
// holds immediately after it.
func (v *Visitor) VisitStmt(s surface.Stmt, ctx narrow.Context) narrow.Context {
	switch st := s.(type) {
	case *surface.LocalDecl:
		return v.visitLocalDecl(st, ctx)
	case *surface.AssignStmt:
		return v.visitAssign(st, ctx)
	case *surface.ExprStmt:
		v.InferExpr(st.X, ctx)
		return ctx
	case *surface.ReturnStmt:
		return v.visitReturn(st, ctx)
	case *surface.IfStmt:
		return v.visitIf(st, ctx)
	case *surface.WhileStmt:
		return v.visitWhile(st, ctx)
	case *surface.RepeatStmt:
		return v.visitRepeat(st, ctx)
	case *surface.ForStmt:
		return v.visitFor(st, ctx)
	case *surface.SwitchStmt:
		return v.visitSwitch(st, ctx)
	case *surface.FuncDecl:
		v.visitFuncDecl(st, ctx)
		return ctx
	case *surface.ClassDecl:
		v.visitClassDecl(st, ctx)
		return ctx
	default:
		// InterfaceDecl/TypeAliasDecl/EnumDecl are fully handled during
		// declaration hoisting (internal/phase); nothing left to check here.
		return ctx
	}
}

func (v *Visitor) visitLocalDecl(st *surface.LocalDecl, ctx narrow.Context) narrow.Context {
	var t types.Type
	if st.Annotation != nil {
		declared := v.ResolveTypeExpr(st.Annotation)
		if st.Value != nil {
			v.CheckExpr(st.Value, declared, ctx)
		}
		t = declared
	} else if st.Value != nil {
		t = v.InferExpr(st.Value, ctx)
		if !st.Const {
			t = widenLiteral(t)
		}
	} else {
		t = types.Unknown
	}
	kind := symbols.Variable
	if st.Const {
		kind = symbols.Const
	}
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: kind, Type: t, DeclSpan: st.Span()})
	if key, ok := narrow.Key(v.Interner, &surface.Ident{Name: st.Name}); ok {
		ctx = ctx.Clone()
		delete(ctx, key)
	}
	return ctx
}

func (v *Visitor) visitAssign(st *surface.AssignStmt, ctx narrow.Context) narrow.Context {
	declared := v.InferExpr(st.Target, ctx)
	v.CheckExpr(st.Value, declared, ctx)
	if key, ok := narrow.Key(v.Interner, st.Target); ok {
		ctx = ctx.Clone()
		delete(ctx, key)
	}
	return ctx
}

func (v *Visitor) visitReturn(st *surface.ReturnStmt, ctx narrow.Context) narrow.Context {
	if len(v.returnStack) == 0 {
		return ctx
	}
	frame := v.returnStack[len(v.returnStack)-1]
	frame.sawReturn = true
	if st.Value == nil {
		frame.collected = append(frame.collected, types.Void)
		return ctx
	}
	if frame.declared != nil {
		v.CheckExpr(st.Value, frame.declared, ctx)
		return ctx
	}
	frame.collected = append(frame.collected, widenLiteral(v.InferExpr(st.Value, ctx)))
	return ctx
}

func (v *Visitor) visitIf(st *surface.IfStmt, ctx narrow.Context) narrow.Context {
	trueCtx, falseCtx := v.Narrow.Narrow(st.Cond, ctx, v.typeOfFor(ctx), v.resolveTypeExprFor())
	v.InferExpr(st.Cond, ctx)
	afterThen := v.VisitBlock(st.Then, trueCtx)
	afterElse := falseCtx
	if st.Else != nil {
		afterElse = v.VisitBlock(st.Else, falseCtx)
	}
	return narrow.Join(afterThen, afterElse)
}

func (v *Visitor) visitWhile(st *surface.WhileStmt, ctx narrow.Context) narrow.Context {
	trueCtx, falseCtx := v.Narrow.Narrow(st.Cond, ctx, v.typeOfFor(ctx), v.resolveTypeExprFor())
	v.InferExpr(st.Cond, ctx)
	v.VisitBlock(st.Body, trueCtx)
	return falseCtx
}

func (v *Visitor) visitRepeat(st *surface.RepeatStmt, ctx narrow.Context) narrow.Context {
	bodyCtx := v.VisitBlock(st.Body, ctx)
	_, falseCtx := v.Narrow.Narrow(st.Cond, bodyCtx, v.typeOfFor(bodyCtx), v.resolveTypeExprFor())
	v.InferExpr(st.Cond, bodyCtx)
	return falseCtx
}

func (v *Visitor) visitFor(st *surface.ForStmt, ctx narrow.Context) narrow.Context {
	v.CheckExpr(st.Start, types.Number, ctx)
	v.CheckExpr(st.Stop, types.Number, ctx)
	if st.Step != nil {
		v.CheckExpr(st.Step, types.Number, ctx)
	}
	v.Symbols.EnterScope()
	v.Symbols.Declare(&symbols.Symbol{Name: st.Var, Kind: symbols.Variable, Type: types.Number, DeclSpan: st.Span()})
	v.VisitBlock(st.Body, ctx.Clone())
	v.Symbols.ExitScope()
	return ctx
}

func (v *Visitor) visitSwitch(st *surface.SwitchStmt, ctx narrow.Context) narrow.Context {
	subject := v.InferExpr(st.Subject, ctx)
	var patternTypes []types.Type
	hasDefault := false
	var joined narrow.Context

	for _, c := range st.Cases {
		caseCtx := ctx.Clone()
		if c.Pattern == nil {
			hasDefault = true
		} else if tp, ok := c.Pattern.(*surface.TypePattern); ok {
			pt := v.ResolveTypeExpr(tp.Type)
			patternTypes = append(patternTypes, pt)
			if key, ok := narrow.Key(v.Interner, st.Subject); ok {
				caseCtx[key] = pt
			}
		}
		after := v.VisitBlock(c.Body, caseCtx)
		if joined == nil {
			joined = after
		} else {
			joined = narrow.Join(joined, after)
		}
	}

	result := v.Narrow.CheckSwitchExhaustiveness(subject, patternTypes, hasDefault)
	result.Report(v.Sink, st.Span())
	if joined == nil {
		joined = ctx
	}
	return joined
}

func (v *Visitor) visitFuncDecl(st *surface.FuncDecl, ctx narrow.Context) {
	fnType := v.InferExpr(&surface.FuncLit{
		Params: st.Params, ReturnType: st.ReturnType, TypeParams: st.TypeParams, Body: st.Body,
	}, ctx)
	if _, hoisted := v.Symbols.Lookup(st.Name); hoisted {
		v.Symbols.UpdateType(st.Name, fnType)
		return
	}
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.Function, Type: fnType, DeclSpan: st.Span(),
		ExportVisibility: exportVisibility(st.Exported)})
}

func exportVisibility(exported bool) symbols.Visibility {
	if exported {
		return symbols.Exported
	}
	return symbols.Unexported
}

func (v *Visitor) visitClassDecl(st *surface.ClassDecl, ctx narrow.Context) {
	tparams := v.resolveTypeParams(st.TypeParams)
	if len(tparams) > 0 {
		v.Env.PushTypeParamScope(tparams)
		defer v.Env.PopTypeParamScope()
	}

	members := make(map[string]*types.Property, len(st.Fields)+len(st.Methods))
	for _, f := range st.Fields {
		members[f.Name] = &types.Property{
			Name: f.Name, Type: v.ResolveTypeExpr(f.Type), Optional: f.Optional,
			Readonly: f.Readonly, Visibility: visibilityOf(f.Visibility),
		}
	}
	for _, m := range st.Methods {
		params := v.resolveParams(m.Params)
		var ret types.Type = types.Void
		if m.ReturnType != nil {
			ret = v.ResolveTypeExpr(m.ReturnType)
		}
		methodTParams := v.resolveTypeParams(m.TypeParams)
		members[m.Name] = &types.Property{
			Name: m.Name, Type: types.NewFuncType(params, ret, methodTParams, m.Span()),
			Visibility: visibilityOf(m.Visibility),
		}
	}

	var base *types.Reference
	if st.Base != nil {
		base = types.NewReference(v.intern(st.Base.Name), nil, st.Base.Span())
	}
	implements := make([]*types.Reference, len(st.Implements))
	for i, iface := range st.Implements {
		implements[i] = types.NewReference(v.intern(iface.Name), nil, iface.Span())
	}

	cls := &types.ClassType{
		Name: v.Interner.Lookup(st.Name), TypeParams: tparams, Base: base, Implements: implements,
		Members: types.NewObjectType(members, st.Span()),
	}
	if _, hoistedType := v.Env.LookupType(st.Name); hoistedType {
		v.Env.ReplaceType(st.Name, tparams, cls, st.Span())
	} else {
		v.Env.RegisterType(st.Name, tparams, cls, st.Span())
	}
	if _, hoisted := v.Symbols.Lookup(st.Name); hoisted {
		v.Symbols.UpdateType(st.Name, cls)
	} else {
		v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.Class, Type: cls, DeclSpan: st.Span(),
			ExportVisibility: exportVisibility(st.Exported)})
	}

	v.checkCircularInheritance(cls, st.Span())
	v.checkImplementsClauses(cls, st.Span())

	v.Symbols.EnterScope()
	for _, m := range st.Methods {
		v.checkMethodBody(m)
	}
	v.Symbols.ExitScope()
}

func visibilityOf(s string) types.Visibility {
	switch s {
	case "protected":
		return types.Protected
	case "private":
		return types.Private
	default:
		return types.Public
	}
}

func (v *Visitor) checkMethodBody(m *surface.MethodDecl) {
	var declaredReturn types.Type = types.Void
	if m.ReturnType != nil {
		declaredReturn = v.ResolveTypeExpr(m.ReturnType)
	}
	v.Symbols.EnterScope()
	v.returnStack = append(v.returnStack, &returnFrame{declared: declaredReturn})
	for _, p := range m.Params {
		var t types.Type = types.Unknown
		if p.Type != nil {
			t = v.ResolveTypeExpr(p.Type)
		}
		v.Symbols.Declare(&symbols.Symbol{Name: p.Name, Kind: symbols.Parameter, Type: t, DeclSpan: m.Span()})
	}
	v.VisitBlock(m.Body, narrow.Context{})
	frame := v.returnStack[len(v.returnStack)-1]
	v.returnStack = v.returnStack[:len(v.returnStack)-1]
	v.Symbols.ExitScope()

	if !frame.sawReturn && !types.IsPrimitive(declaredReturn, types.PrimVoid) &&
		!v.Checker.IsAssignable(types.Nil, declaredReturn).OK {
		v.report(diag.KindMissingReturn, m.Span(), "method "+m.Name+" does not return on every path")
	}
}

// checkCircularInheritance walks the base-class chain, reporting
// CircularInheritance if it ever revisits cls itself.
func (v *Visitor) checkCircularInheritance(cls *types.ClassType, span source.Span) {
	seen := map[string]bool{cls.Name: true}
	cur := cls.Base
	for depth := 0; cur != nil && depth < 64; depth++ {
		resolved := v.Env.Resolve(cur)
		base, ok := resolved.(*types.ClassType)
		if !ok {
			return
		}
		if seen[base.Name] {
			v.report(diag.KindCircularInheritance, span, "circular inheritance involving "+base.Name)
			return
		}
		seen[base.Name] = true
		cur = base.Base
	}
}

// --- Hoisting (spec.md §4.8 Phase 1) ---

// HoistClassPlaceholder registers an empty class shape and an
// Unknown-typed symbol for st, so sibling declarations earlier in the
// same file can reference a class declared later in source order. Phase
// 2's visitClassDecl replaces both once the full member shape is known.
func (v *Visitor) HoistClassPlaceholder(st *surface.ClassDecl) {
	placeholder := &types.ClassType{Name: v.Interner.Lookup(st.Name), Members: types.NewObjectType(nil, st.Span())}
	v.Env.RegisterType(st.Name, nil, placeholder, st.Span())
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.Class, Type: types.Unknown, DeclSpan: st.Span(),
		ExportVisibility: exportVisibility(st.Exported)})
}

// HoistFuncPlaceholder declares an Unknown-typed symbol for st ahead of
// Phase 2, so calls that appear earlier in the file than the declaration
// they target still resolve a name instead of raising UnknownSymbol.
func (v *Visitor) HoistFuncPlaceholder(st *surface.FuncDecl) {
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.Function, Type: types.Unknown, DeclSpan: st.Span(),
		ExportVisibility: exportVisibility(st.Exported)})
}

// HoistInterface fully resolves and registers an interface declaration.
// Interfaces are hoisted before classes and functions because
// implements/extends clauses and field annotations need the named shape
// to already exist; tenv's RegisterType already merges a fuller body
// into an earlier empty forward declaration of the same name.
func (v *Visitor) HoistInterface(st *surface.InterfaceDecl) {
	tparams := v.resolveTypeParams(st.TypeParams)
	if len(tparams) > 0 {
		v.Env.PushTypeParamScope(tparams)
		defer v.Env.PopTypeParamScope()
	}
	props := make(map[string]*types.Property, len(st.Members))
	for _, m := range st.Members {
		props[m.Name] = &types.Property{Name: m.Name, Type: v.ResolveTypeExpr(m.Type), Optional: m.Optional, Readonly: m.Readonly}
	}
	extends := make([]*types.Reference, len(st.Extends))
	for i, ref := range st.Extends {
		extends[i] = types.NewReference(v.intern(ref.Name), nil, ref.Span())
	}
	iface := &types.InterfaceType{Name: v.Interner.Lookup(st.Name), TypeParams: tparams, Extends: extends, Members: types.NewObjectType(props, st.Span())}
	v.Env.RegisterType(st.Name, tparams, iface, st.Span())
}

// HoistTypeAlias resolves and registers a type alias's named binding.
func (v *Visitor) HoistTypeAlias(st *surface.TypeAliasDecl) {
	tparams := v.resolveTypeParams(st.TypeParams)
	if len(tparams) > 0 {
		v.Env.PushTypeParamScope(tparams)
		defer v.Env.PopTypeParamScope()
	}
	v.Env.RegisterType(st.Name, tparams, v.ResolveTypeExpr(st.Value), st.Span())
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.TypeAlias, Type: types.Unknown, DeclSpan: st.Span(),
		ExportVisibility: exportVisibility(st.Exported)})
}

// HoistEnum builds and registers an enum's member set, auto-incrementing
// unset numeric members the way a Lua-like dialect's `enum` block does.
func (v *Visitor) HoistEnum(st *surface.EnumDecl) {
	members := make([]types.EnumMember, len(st.Members))
	next := int64(0)
	for i, m := range st.Members {
		switch val := v.constEnumValue(m.Value, st.IsString).(type) {
		case nil:
			members[i] = types.EnumMember{Name: m.Name, Value: next}
			next++
		case int64:
			members[i] = types.EnumMember{Name: m.Name, Value: val}
			next = val + 1
		default:
			members[i] = types.EnumMember{Name: m.Name, Value: val}
		}
	}
	enum := &types.EnumType{Name: v.Interner.Lookup(st.Name), Members: members}
	v.Env.RegisterType(st.Name, nil, enum, st.Span())
	v.Symbols.Declare(&symbols.Symbol{Name: st.Name, Kind: symbols.Enum, Type: enum, DeclSpan: st.Span(),
		ExportVisibility: exportVisibility(st.Exported)})
}

// constEnumValue extracts an enum member's literal initializer, or nil
// for an auto-incrementing numeric member.
func (v *Visitor) constEnumValue(e surface.Expr, isString bool) any {
	switch lit := e.(type) {
	case *surface.NumberLit:
		return int64(lit.Value)
	case *surface.StringLit:
		return lit.Value
	default:
		return nil
	}
}

// checkImplementsClauses verifies each listed interface is structurally
// satisfied by the class's member shape.
func (v *Visitor) checkImplementsClauses(cls *types.ClassType, span source.Span) {
	for _, ref := range cls.Implements {
		resolved := v.Env.Resolve(ref)
		iface, ok := resolved.(*types.InterfaceType)
		if !ok {
			continue
		}
		if r := v.Checker.IsAssignable(cls, iface); !r.OK {
			v.report(diag.KindTypeMismatch, span, "class "+cls.Name+" does not satisfy interface "+iface.Name)
		}
	}
}
