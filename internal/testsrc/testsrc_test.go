package testsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
)

func TestFileSystemReadsRegisteredFile(t *testing.T) {
	fs := NewFileSystem().WithFile("/proj/main.luna", "function f() end")
	assert.True(t, fs.Exists("/proj/main.luna"))
	body, err := fs.Read("/proj/main.luna")
	require.NoError(t, err)
	assert.Equal(t, "function f() end", string(body))
}

func TestFileSystemMissingFileErrors(t *testing.T) {
	fs := NewFileSystem()
	assert.False(t, fs.Exists("/proj/missing.luna"))
	_, err := fs.Read("/proj/missing.luna")
	assert.Error(t, err)
}

func TestFileSystemCanonicalizeCleansPath(t *testing.T) {
	fs := NewFileSystem()
	assert.Equal(t, "/proj/main.luna", fs.Canonicalize("/proj/./sub/../main.luna"))
}

func TestParserReturnsRegisteredFixture(t *testing.T) {
	in := source.NewInterner()
	fixture := File(Func(in, "answer", nil, true))
	p := NewParser().WithFile("/proj/main.luna", fixture)

	got, diags := p.Parse("/proj/main.luna", nil, in)
	require.Empty(t, diags)
	assert.Same(t, fixture, got)
	assert.Equal(t, "/proj/main.luna", got.Path)
}

func TestParserMissingFixtureReportsModuleNotFound(t *testing.T) {
	in := source.NewInterner()
	p := NewParser()
	_, diags := p.Parse("/proj/missing.luna", nil, in)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindModuleNotFound, diags[0].Kind)
}

func TestFuncBuildsExportedDeclaration(t *testing.T) {
	in := source.NewInterner()
	decl := Func(in, "answer", []surface.Stmt{&surface.ReturnStmt{Value: Number(42)}}, true)
	assert.True(t, decl.Exported)
	assert.Equal(t, in.Intern("answer"), decl.Name)
}
