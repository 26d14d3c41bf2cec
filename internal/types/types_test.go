package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/source"
)

func TestPrimitiveSingletons(t *testing.T) {
	tests := []struct {
		name string
		t    *Primitive
		want string
	}{
		{"nil", Nil, "nil"},
		{"boolean", Bool, "boolean"},
		{"number", Number, "number"},
		{"string", String, "string"},
		{"any", Any, "any"},
		{"unknown", Unknown, "unknown"},
		{"void", Void, "void"},
		{"never", Never, "never"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.t.String())
			assert.True(t, tt.t.Equals(tt.t))
		})
	}
}

func TestLiteralWidening(t *testing.T) {
	lit := NewLiteral(LiteralNumber, float64(42), source.Span{})
	require.Equal(t, "42", lit.String())
	assert.Same(t, Number, WidenLiteral(lit))

	str := NewLiteral(LiteralString, "hi", source.Span{})
	assert.Equal(t, `"hi"`, str.String())
	assert.Same(t, String, WidenLiteral(str))
}

func TestLiteralEquality(t *testing.T) {
	a := NewLiteral(LiteralNumber, float64(1), source.Span{})
	b := NewLiteral(LiteralNumber, float64(1), source.Span{})
	c := NewLiteral(LiteralNumber, float64(2), source.Span{})
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestObjectTypeEquality(t *testing.T) {
	mk := func() *ObjectType {
		return NewObjectType(map[string]*Property{
			"x": {Name: "x", Type: Number},
			"y": {Name: "y", Type: String, Optional: true},
		}, source.Span{})
	}
	a, b := mk(), mk()
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())

	b.Properties["y"].Optional = false
	assert.False(t, a.Equals(b))
}

func TestArrayAndTuple(t *testing.T) {
	arr := NewArrayType(Number, source.Span{})
	assert.Equal(t, "number[]", arr.String())

	tup := NewTupleType([]Type{Number, String}, nil, source.Span{})
	assert.Equal(t, "[number, string]", tup.String())

	variadic := NewTupleType([]Type{Number}, String, source.Span{})
	assert.Equal(t, "[number, ...string]", variadic.String())
}

func TestUnionCanonicalization(t *testing.T) {
	u := Union([]Type{Number, Number, String}, source.Span{})
	ut, ok := u.(*UnionType)
	require.True(t, ok)
	assert.Len(t, ut.Members, 2, "duplicate members collapse")

	assert.Same(t, Number, Union([]Type{Number}, source.Span{}), "singleton union is its member")
	assert.Same(t, Any, Union([]Type{Number, Any}, source.Span{}), "any absorbs the union")
	assert.Same(t, Number, Union([]Type{Number, Never}, source.Span{}), "never does not contribute a possibility")

	nested := Union([]Type{Union([]Type{Number, String}, source.Span{}), Bool}, source.Span{})
	nt, ok := nested.(*UnionType)
	require.True(t, ok)
	assert.Len(t, nt.Members, 3, "nested unions flatten")
}

func TestIntersectionCanonicalization(t *testing.T) {
	assert.Same(t, Never, Intersection([]Type{Number, Never}, source.Span{}), "never collapses the intersection")
	assert.Same(t, Any, Intersection([]Type{Number, Any}, source.Span{}))
	assert.Same(t, Number, Intersection([]Type{Number, Number}, source.Span{}))
}

func TestUnionOrderIndependentHash(t *testing.T) {
	u1 := &UnionType{Members: []Type{Number, String}}
	u2 := &UnionType{Members: []Type{String, Number}}
	assert.Equal(t, u1.Hash(), u2.Hash())
	assert.True(t, u1.Equals(u2))
}

func TestFuncTypeEquality(t *testing.T) {
	f1 := NewFuncType([]*Param{{Name: "a", Type: Number}}, String, nil, source.Span{})
	f2 := NewFuncType([]*Param{{Name: "b", Type: Number}}, String, nil, source.Span{})
	assert.True(t, f1.Equals(f2), "parameter names must not affect equality")

	f3 := NewFuncType([]*Param{{Name: "a", Type: Bool}}, String, nil, source.Span{})
	assert.False(t, f1.Equals(f3))
}

func TestTypeParamIdentity(t *testing.T) {
	tp1 := NewTypeParam("T", nil, nil, source.Span{})
	tp2 := NewTypeParam("T", nil, nil, source.Span{})
	assert.False(t, tp1.Equals(tp2), "distinct binders with the same name are not equal")
	assert.True(t, tp1.Equals(tp1))
}

func TestClassIdentity(t *testing.T) {
	c1 := &ClassType{Name: "Animal"}
	c2 := &ClassType{Name: "Animal"}
	assert.False(t, c1.Equals(c2), "classes compare nominally by identity, not by name")
	assert.True(t, c1.Equals(c1))
}

func TestInterfaceForwardDeclaration(t *testing.T) {
	fwd := &InterfaceType{Name: "Shape", Members: NewObjectType(nil, source.Span{})}
	assert.True(t, fwd.IsForwardDeclaration())

	nonEmpty := &InterfaceType{Name: "Shape", Members: NewObjectType(map[string]*Property{
		"area": {Name: "area", Type: Number},
	}, source.Span{})}
	assert.False(t, nonEmpty.IsForwardDeclaration())

	withTypeParams := &InterfaceType{Name: "Box", TypeParams: []*TypeParam{NewTypeParam("T", nil, nil, source.Span{})}, Members: NewObjectType(nil, source.Span{})}
	assert.False(t, withTypeParams.IsForwardDeclaration())
}
