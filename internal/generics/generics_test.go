package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/subst"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

func newEngine() (*Engine, *diag.CollectingSink) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	env := tenv.New(sink, interner, 10)
	checker := assign.New(env)
	return New(env, checker, sink), sink
}

func TestInferIdentityFunction(t *testing.T) {
	g, _ := newEngine()
	tp := types.NewTypeParam("T", nil, nil, source.Span{})
	m := g.Infer([]*types.TypeParam{tp}, []types.Type{tp}, []types.Type{types.Number})
	assert.Same(t, types.Number, m[tp])
}

func TestInferDefaultsToUnknownWhenUnbound(t *testing.T) {
	g, _ := newEngine()
	tp := types.NewTypeParam("T", nil, nil, source.Span{})
	m := g.Infer([]*types.TypeParam{tp}, nil, nil)
	assert.Same(t, types.Unknown, m[tp])
}

func TestInferUsesDeclaredDefault(t *testing.T) {
	g, _ := newEngine()
	tp := types.NewTypeParam("T", nil, types.String, source.Span{})
	m := g.Infer([]*types.TypeParam{tp}, nil, nil)
	assert.Same(t, types.String, m[tp])
}

func TestInferJoinsMultipleCovariantCandidates(t *testing.T) {
	g, _ := newEngine()
	tp := types.NewTypeParam("T", nil, nil, source.Span{})
	arrTp := types.NewArrayType(tp, source.Span{})
	m := g.Infer([]*types.TypeParam{tp},
		[]types.Type{arrTp, tp},
		[]types.Type{types.NewArrayType(types.Number, source.Span{}), types.String})
	union, ok := m[tp].(*types.UnionType)
	require.True(t, ok)
	assert.Len(t, union.Members, 2)
}

func TestCheckConstraintsReportsViolation(t *testing.T) {
	g, sink := newEngine()
	tp := types.NewTypeParam("T", types.Number, nil, source.Span{})
	m := subst.Map{tp: types.String}
	diags := g.CheckConstraints(m, []*types.TypeParam{tp})
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindGenericConstraintViol, diags[0].Kind)
	assert.Equal(t, 1, sink.ErrorCount())
}

func TestCheckConstraintsPassesWhenSatisfied(t *testing.T) {
	g, sink := newEngine()
	tp := types.NewTypeParam("T", types.Number, nil, source.Span{})
	lit := types.NewLiteral(types.LiteralNumber, float64(1), source.Span{})
	m := subst.Map{tp: lit}
	diags := g.CheckConstraints(m, []*types.TypeParam{tp})
	assert.Empty(t, diags)
	assert.Equal(t, 0, sink.ErrorCount())
}

func TestInstantiateSubstitutesObjectProperty(t *testing.T) {
	g, _ := newEngine()
	tp := types.NewTypeParam("T", nil, nil, source.Span{})
	obj := types.NewObjectType(map[string]*types.Property{"value": {Name: "value", Type: tp}}, source.Span{})
	m := subst.Map{tp: types.Number}

	result := g.Instantiate(obj, m)
	resultObj := result.(*types.ObjectType)
	assert.Same(t, types.Number, resultObj.Properties["value"].Type)
}
