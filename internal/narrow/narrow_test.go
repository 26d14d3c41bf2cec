package narrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

func newTestEngine() (*Engine, *source.Interner) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	env := tenv.New(sink, interner, 10)
	checker := assign.New(env)
	return New(checker, interner), interner
}

func ident(interner *source.Interner, name string) *surface.Ident {
	return &surface.Ident{Name: interner.Intern(name)}
}

func TestKeyForIdentifier(t *testing.T) {
	interner := source.NewInterner()
	x := ident(interner, "x")
	key, ok := Key(interner, x)
	require.True(t, ok)
	assert.Equal(t, "x", key)
}

func TestKeyForMemberChain(t *testing.T) {
	interner := source.NewInterner()
	x := ident(interner, "x")
	member := &surface.MemberExpr{Object: x, Property: "name"}
	key, ok := Key(interner, member)
	require.True(t, ok)
	assert.Equal(t, "x.name", key)
}

func TestNarrowNilEquality(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	base := types.Union([]types.Type{types.String, types.Nil}, source.Span{})
	typeOf := func(surface.Expr) types.Type { return base }

	guard := &surface.BinaryExpr{Op: "==", Left: x, Right: &surface.NilLit{}}
	trueCtx, falseCtx := e.Narrow(guard, Context{}, typeOf, nil)

	assert.True(t, types.IsPrimitive(trueCtx["x"], types.PrimNil))
	assert.True(t, trueCtx["x"].Equals(types.Nil))
	assert.True(t, falseCtx["x"].Equals(types.String))
}

func TestNarrowNotNilEquality(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	base := types.Union([]types.Type{types.String, types.Nil}, source.Span{})
	typeOf := func(surface.Expr) types.Type { return base }

	guard := &surface.BinaryExpr{Op: "~=", Left: x, Right: &surface.NilLit{}}
	trueCtx, falseCtx := e.Narrow(guard, Context{}, typeOf, nil)

	assert.True(t, trueCtx["x"].Equals(types.String))
	assert.True(t, falseCtx["x"].Equals(types.Nil))
}

func TestNarrowTypeofTag(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	base := types.Union([]types.Type{types.String, types.Number}, source.Span{})
	typeOf := func(surface.Expr) types.Type { return base }

	typeofCall := &surface.CallExpr{Callee: ident(interner, "type"), Args: []surface.Expr{x}}
	guard := &surface.BinaryExpr{Op: "==", Left: typeofCall, Right: &surface.StringLit{Value: "string"}}
	trueCtx, falseCtx := e.Narrow(guard, Context{}, typeOf, nil)

	assert.True(t, trueCtx["x"].Equals(types.String))
	assert.True(t, falseCtx["x"].Equals(types.Number))
}

func TestNarrowIsExpression(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	base := types.Union([]types.Type{types.String, types.Number}, source.Span{})
	typeOf := func(surface.Expr) types.Type { return base }
	resolveType := func(surface.TypeExpr) types.Type { return types.String }

	guard := &surface.IsExpr{Subject: x, Target: &surface.TypeRef{Name: "string"}}
	trueCtx, falseCtx := e.Narrow(guard, Context{}, typeOf, resolveType)

	assert.True(t, trueCtx["x"].Equals(types.String))
	assert.True(t, falseCtx["x"].Equals(types.Number))
}

func TestNarrowNotInvertsBranches(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	base := types.Union([]types.Type{types.String, types.Nil}, source.Span{})
	typeOf := func(surface.Expr) types.Type { return base }

	inner := &surface.BinaryExpr{Op: "==", Left: x, Right: &surface.NilLit{}}
	guard := &surface.UnaryExpr{Op: "not", Operand: inner}
	trueCtx, falseCtx := e.Narrow(guard, Context{}, typeOf, nil)

	assert.True(t, trueCtx["x"].Equals(types.String))
	assert.True(t, falseCtx["x"].Equals(types.Nil))
}

func TestNarrowLogicalAndComposesSequentially(t *testing.T) {
	e, interner := newTestEngine()
	x := ident(interner, "x")
	y := ident(interner, "y")
	xBase := types.Union([]types.Type{types.String, types.Nil}, source.Span{})
	yBase := types.Union([]types.Type{types.Number, types.Nil}, source.Span{})
	typeOf := func(expr surface.Expr) types.Type {
		if id, ok := expr.(*surface.Ident); ok && id.Name == x.Name {
			return xBase
		}
		return yBase
	}

	left := &surface.BinaryExpr{Op: "~=", Left: x, Right: &surface.NilLit{}}
	right := &surface.BinaryExpr{Op: "~=", Left: y, Right: &surface.NilLit{}}
	guard := &surface.BinaryExpr{Op: "and", Left: left, Right: right}

	trueCtx, _ := e.Narrow(guard, Context{}, typeOf, nil)
	assert.True(t, trueCtx["x"].Equals(types.String))
	assert.True(t, trueCtx["y"].Equals(types.Number))
}

func TestExhaustivenessDetectsMissingCase(t *testing.T) {
	e, _ := newTestEngine()
	subject := types.Union([]types.Type{types.String, types.Number, types.Bool}, source.Span{})
	result := e.CheckSwitchExhaustiveness(subject, []types.Type{types.String, types.Number}, false)
	assert.False(t, result.Exhaustive)
	assert.True(t, result.Remaining.Equals(types.Bool))
}

func TestExhaustivenessSatisfiedByAllMembers(t *testing.T) {
	e, _ := newTestEngine()
	subject := types.Union([]types.Type{types.String, types.Number}, source.Span{})
	result := e.CheckSwitchExhaustiveness(subject, []types.Type{types.String, types.Number}, false)
	assert.True(t, result.Exhaustive)
}

func TestExhaustivenessSatisfiedByDefault(t *testing.T) {
	e, _ := newTestEngine()
	subject := types.Union([]types.Type{types.String, types.Number, types.Bool}, source.Span{})
	result := e.CheckSwitchExhaustiveness(subject, []types.Type{types.String}, true)
	assert.True(t, result.Exhaustive)
}

func TestJoinWidensPathsNarrowedInBothBranches(t *testing.T) {
	a := Context{"x": types.String}
	b := Context{"x": types.Number}
	joined := Join(a, b)
	union, ok := joined["x"].(*types.UnionType)
	require.True(t, ok)
	assert.Len(t, union.Members, 2)
}

func TestJoinDropsPathsNarrowedInOnlyOneBranch(t *testing.T) {
	a := Context{"x": types.String}
	b := Context{}
	joined := Join(a, b)
	_, ok := joined["x"]
	assert.False(t, ok)
}
