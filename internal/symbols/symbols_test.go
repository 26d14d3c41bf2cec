package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/types"
)

func TestDeclareAndLookup(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	x := interner.Intern("x")
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.Number})

	sym, ok := table.Lookup(x)
	require.True(t, ok)
	assert.Equal(t, Variable, sym.Kind)
	assert.Equal(t, 0, sink.ErrorCount())
}

func TestDuplicateDeclarationFails(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	x := interner.Intern("x")
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.Number})
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.String})

	assert.Equal(t, 1, sink.ErrorCount())
	assert.Equal(t, diag.KindDuplicateDeclaration, sink.Diagnostics()[0].Kind)
}

func TestFunctionOverloadsAllowedWhenDistinguishable(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	f := interner.Intern("f")
	sigA := types.NewFuncType([]*types.Param{{Name: "a", Type: types.Number}}, types.Void, nil, source.Span{})
	sigB := types.NewFuncType([]*types.Param{{Name: "a", Type: types.String}}, types.Void, nil, source.Span{})

	table.Declare(&Symbol{Name: f, Kind: Function, Type: sigA})
	table.Declare(&Symbol{Name: f, Kind: Function, Type: sigB})

	assert.Equal(t, 0, sink.ErrorCount())
	assert.Len(t, table.Overloads(f), 2)
}

func TestFunctionOverloadIndistinguishableFails(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	f := interner.Intern("f")
	sigA := types.NewFuncType([]*types.Param{{Name: "a", Type: types.Number}}, types.Void, nil, source.Span{})
	sigB := types.NewFuncType([]*types.Param{{Name: "b", Type: types.Number}}, types.String, nil, source.Span{})

	table.Declare(&Symbol{Name: f, Kind: Function, Type: sigA})
	table.Declare(&Symbol{Name: f, Kind: Function, Type: sigB})

	assert.Equal(t, 1, sink.ErrorCount())
	assert.Equal(t, diag.KindDuplicateDeclaration, sink.Diagnostics()[0].Kind)
}

func TestShadowingInNestedScopeIsSilent(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	x := interner.Intern("x")
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.Number})

	table.EnterScope()
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.String})
	inner, _ := table.Lookup(x)
	assert.True(t, inner.Type.Equals(types.String))
	table.ExitScope()

	outer, _ := table.Lookup(x)
	assert.True(t, outer.Type.Equals(types.Number))
	assert.Equal(t, 0, sink.ErrorCount())
}

func TestExitScopeReturnsDroppedSymbols(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	table.EnterScope()
	y := interner.Intern("y")
	table.Declare(&Symbol{Name: y, Kind: Variable, Type: types.Bool})
	dropped := table.ExitScope()

	require.Len(t, dropped, 1)
	assert.Equal(t, y, dropped[0].Name)
	_, ok := table.Lookup(y)
	assert.False(t, ok, "symbol must not be visible after its scope exits")
}

func TestAllVisiblePrefersInnermost(t *testing.T) {
	interner := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	table := NewTable(sink, interner)

	x := interner.Intern("x")
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.Number})
	table.EnterScope()
	table.Declare(&Symbol{Name: x, Kind: Variable, Type: types.Bool})

	var found *Symbol
	for _, s := range table.AllVisible() {
		if s.Name == x {
			found = s
		}
	}
	require.NotNil(t, found)
	assert.True(t, found.Type.Equals(types.Bool))
}
