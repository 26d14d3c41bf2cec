package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/generics"
	"github.com/lunac-lang/lunac/internal/narrow"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/symbols"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

func newTestVisitor() (*Visitor, *source.Interner, *diag.CollectingSink) {
	in := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	env := tenv.New(sink, in, 10)
	checker := assign.New(env)
	gen := generics.New(env, checker, sink)
	symTable := symbols.NewTable(sink, in)
	narrowEngine := narrow.New(checker, in)
	return New(env, checker, gen, symTable, narrowEngine, sink, in), in, sink
}

func ident(in *source.Interner, name string) *surface.Ident {
	return &surface.Ident{Name: in.Intern(name)}
}

func numberLit(v float64) *surface.NumberLit { return &surface.NumberLit{Value: v} }
func stringLit(v string) *surface.StringLit  { return &surface.StringLit{Value: v} }

func TestInferLiteralsHaveLiteralTypes(t *testing.T) {
	v, _, _ := newTestVisitor()
	lit := v.InferExpr(numberLit(42), narrow.Context{})
	num, ok := lit.(*types.Literal)
	require.True(t, ok)
	assert.Equal(t, types.LiteralNumber, num.Kind)
}

func TestInferArithmeticRequiresNumberOperands(t *testing.T) {
	v, _, sink := newTestVisitor()
	expr := &surface.BinaryExpr{Op: "+", Left: numberLit(1), Right: stringLit("x")}
	result := v.InferExpr(expr, narrow.Context{})
	assert.True(t, types.IsPrimitive(result, types.PrimNumber))
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestInferConcatAcceptsStringAndNumber(t *testing.T) {
	v, _, sink := newTestVisitor()
	expr := &surface.BinaryExpr{Op: "..", Left: stringLit("x"), Right: numberLit(1)}
	result := v.InferExpr(expr, narrow.Context{})
	assert.True(t, types.IsPrimitive(result, types.PrimString))
	assert.Empty(t, sink.Diagnostics())
}

func TestInferAndIsBoolUnionOfRight(t *testing.T) {
	v, in, _ := newTestVisitor()
	v.Symbols.Declare(&symbols.Symbol{Name: in.Intern("x"), Kind: symbols.Variable, Type: types.Bool})
	expr := &surface.BinaryExpr{Op: "and", Left: ident(in, "x"), Right: numberLit(1)}
	result := v.InferExpr(expr, narrow.Context{})
	union, ok := result.(*types.UnionType)
	require.True(t, ok)
	assert.Len(t, union.Members, 2)
}

func TestResolveTypeExprPrimitives(t *testing.T) {
	v, _, _ := newTestVisitor()
	assert.Equal(t, types.String, v.ResolveTypeExpr(&surface.TypeRef{Name: "string"}))
	assert.Equal(t, types.Number, v.ResolveTypeExpr(&surface.TypeRef{Name: "number"}))
}

func TestResolveTypeExprUnion(t *testing.T) {
	v, _, _ := newTestVisitor()
	te := &surface.UnionTypeExpr{Members: []surface.TypeExpr{
		&surface.TypeRef{Name: "string"}, &surface.TypeRef{Name: "number"},
	}}
	result := v.ResolveTypeExpr(te)
	union, ok := result.(*types.UnionType)
	require.True(t, ok)
	assert.Len(t, union.Members, 2)
}

func TestResolveTypeExprArray(t *testing.T) {
	v, _, _ := newTestVisitor()
	te := &surface.ArrayTypeExpr{Element: &surface.TypeRef{Name: "number"}}
	result := v.ResolveTypeExpr(te)
	arr, ok := result.(*types.ArrayType)
	require.True(t, ok)
	assert.Equal(t, types.Number, arr.Element)
}

func TestResolveTypeExprKeyofObjectYieldsLiteralUnion(t *testing.T) {
	v, _, _ := newTestVisitor()
	obj := &surface.ObjectTypeExpr{Fields: []surface.ObjectTypeField{
		{Name: "a", Type: &surface.TypeRef{Name: "number"}},
		{Name: "b", Type: &surface.TypeRef{Name: "string"}},
	}}
	te := &surface.KeyofTypeExpr{Operand: obj}
	result := v.ResolveTypeExpr(te)
	union, ok := result.(*types.UnionType)
	require.True(t, ok)
	assert.Len(t, union.Members, 2)
}

func TestVisitLocalDeclWidensNonConstLiteral(t *testing.T) {
	v, in, _ := newTestVisitor()
	decl := &surface.LocalDecl{Name: in.Intern("x"), Value: numberLit(5), Const: false}
	v.VisitStmt(decl, narrow.Context{})
	sym, ok := v.Symbols.Lookup(in.Intern("x"))
	require.True(t, ok)
	assert.True(t, types.IsPrimitive(sym.Type, types.PrimNumber))
}

func TestVisitLocalDeclKeepsConstLiteral(t *testing.T) {
	v, in, _ := newTestVisitor()
	decl := &surface.LocalDecl{Name: in.Intern("x"), Value: numberLit(5), Const: true}
	v.VisitStmt(decl, narrow.Context{})
	sym, ok := v.Symbols.Lookup(in.Intern("x"))
	require.True(t, ok)
	_, isLiteral := sym.Type.(*types.Literal)
	assert.True(t, isLiteral)
}

func TestVisitLocalDeclChecksAnnotationMismatch(t *testing.T) {
	v, in, sink := newTestVisitor()
	decl := &surface.LocalDecl{Name: in.Intern("x"), Annotation: &surface.TypeRef{Name: "string"}, Value: numberLit(5)}
	v.VisitStmt(decl, narrow.Context{})
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestVisitIfJoinsBranchContexts(t *testing.T) {
	v, in, _ := newTestVisitor()
	v.Symbols.Declare(&symbols.Symbol{Name: in.Intern("x"), Kind: symbols.Variable,
		Type: types.Union([]types.Type{types.String, types.Nil}, source.Span{})})

	guard := &surface.BinaryExpr{Op: "~=", Left: ident(in, "x"), Right: &surface.NilLit{}}
	ifStmt := &surface.IfStmt{Cond: guard, Then: nil, Else: nil}
	after := v.VisitStmt(ifStmt, narrow.Context{})
	assert.NotNil(t, after)
}

func TestInferCallReportsNonCallable(t *testing.T) {
	v, in, sink := newTestVisitor()
	v.Symbols.Declare(&symbols.Symbol{Name: in.Intern("x"), Kind: symbols.Variable, Type: types.Number})
	call := &surface.CallExpr{Callee: ident(in, "x")}
	result := v.InferExpr(call, narrow.Context{})
	assert.Equal(t, types.Unknown, result)
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestInferCallChecksArgumentTypes(t *testing.T) {
	v, in, sink := newTestVisitor()
	fn := types.NewFuncType([]*types.Param{{Name: "n", Type: types.Number}}, types.String, nil, source.Span{})
	v.Symbols.Declare(&symbols.Symbol{Name: in.Intern("f"), Kind: symbols.Function, Type: fn})
	call := &surface.CallExpr{Callee: ident(in, "f"), Args: []surface.Expr{stringLit("bad")}}
	result := v.InferExpr(call, narrow.Context{})
	assert.Equal(t, types.String, result)
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestInferObjectLitFlagsExcessProperty(t *testing.T) {
	v, _, sink := newTestVisitor()
	expected := types.NewObjectType(map[string]*types.Property{
		"a": {Name: "a", Type: types.Number},
	}, source.Span{})
	lit := &surface.ObjectLit{Fields: []surface.ObjectField{
		{Name: "a", Value: numberLit(1)},
		{Name: "b", Value: stringLit("extra")},
	}}
	v.CheckExpr(lit, expected, narrow.Context{})
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestCheckMethodBodyFlagsMissingReturn(t *testing.T) {
	v, _, sink := newTestVisitor()
	m := &surface.MethodDecl{Name: "f", ReturnType: &surface.TypeRef{Name: "number"}, Body: nil}
	v.checkMethodBody(m)
	assert.NotEmpty(t, sink.Diagnostics())
}

func TestVisitSwitchReportsNonExhaustiveMatch(t *testing.T) {
	v, in, sink := newTestVisitor()
	subject := &surface.Ident{Name: in.Intern("x")}
	v.Symbols.Declare(&symbols.Symbol{Name: in.Intern("x"), Kind: symbols.Variable,
		Type: types.Union([]types.Type{types.String, types.Number}, source.Span{})})
	sw := &surface.SwitchStmt{
		Subject: subject,
		Cases: []surface.SwitchCase{
			{Pattern: &surface.TypePattern{Type: &surface.TypeRef{Name: "string"}}, Body: nil},
		},
	}
	v.VisitStmt(sw, narrow.Context{})
	assert.NotEmpty(t, sink.Diagnostics())
}
