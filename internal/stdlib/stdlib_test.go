package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

func newEnv() (*tenv.Env, *source.Interner) {
	in := source.NewInterner()
	sink := diag.NewCollectingSink(0)
	return tenv.New(sink, in, 10), in
}

func TestLoadRegistersErrorInterface(t *testing.T) {
	env, in := newEnv()
	require.NoError(t, Load(env))

	nt, ok := env.LookupType(in.Intern("Error"))
	require.True(t, ok)
	iface, ok := nt.Body.(*types.InterfaceType)
	require.True(t, ok)
	assert.Contains(t, iface.Members.Properties, "message")
}

func TestLoadRegistersGenericIterable(t *testing.T) {
	env, in := newEnv()
	require.NoError(t, Load(env))

	nt, ok := env.LookupType(in.Intern("Iterable"))
	require.True(t, ok)
	assert.Len(t, nt.TypeParams, 1)
}

func TestLoadRegistersRecursiveJSONValue(t *testing.T) {
	env, in := newEnv()
	require.NoError(t, Load(env))

	nt, ok := env.LookupType(in.Intern("JSONValue"))
	require.True(t, ok)
	union, ok := nt.Body.(*types.UnionType)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(union.Members), 5)
}

func TestLoadFailsWithoutInterner(t *testing.T) {
	sink := diag.NewCollectingSink(0)
	env := tenv.New(sink, nil, 10)
	assert.Error(t, Load(env))
}
