package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/config"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/modresolve"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/testsrc"
)

func setup(in *source.Interner, fs *testsrc.FileSystem, parser *testsrc.Parser) (*Orchestrator, *diag.CollectingSink) {
	reg := modresolve.NewRegistry()
	resolver := modresolve.NewResolver(fs, nil)
	sink := diag.NewCollectingSink(0)
	o := New(reg, resolver, fs, parser, config.Default(), sink, in)
	return o, sink
}

func TestDiscoverAndCheckSingleModule(t *testing.T) {
	in := source.NewInterner()
	file := testsrc.File(testsrc.Func(in, "answer", []surface.Stmt{
		&surface.ReturnStmt{Value: testsrc.Number(42)},
	}, true))
	fs := testsrc.NewFileSystem().WithFile("/proj/main.luna", "")
	parser := testsrc.NewParser().WithFile("/proj/main.luna", file)

	o, sink := setup(in, fs, parser)
	entryID, err := o.Discover("/proj/main.luna")
	require.NoError(t, err)

	d := o.CheckAll()
	assert.Nil(t, d)
	assert.True(t, o.Registry.IsChecked(entryID))
	assert.Empty(t, sink.Diagnostics())
}

func TestCheckModuleFlagsUnreachableCode(t *testing.T) {
	in := source.NewInterner()
	file := testsrc.File(testsrc.Func(in, "f", []surface.Stmt{
		&surface.ReturnStmt{Value: testsrc.Number(1)},
		&surface.ExprStmt{X: testsrc.Number(2)},
	}, false))
	fs := testsrc.NewFileSystem().WithFile("/proj/main.luna", "")
	parser := testsrc.NewParser().WithFile("/proj/main.luna", file)

	o, sink := setup(in, fs, parser)
	_, err := o.Discover("/proj/main.luna")
	require.NoError(t, err)
	o.CheckAll()

	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diag.KindUnreachableCode {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckModuleFlagsUnusedSymbol(t *testing.T) {
	in := source.NewInterner()
	file := testsrc.File(&surface.LocalDecl{Name: in.Intern("x"), Value: testsrc.Number(1), Const: true})
	fs := testsrc.NewFileSystem().WithFile("/proj/main.luna", "")
	parser := testsrc.NewParser().WithFile("/proj/main.luna", file)

	o, sink := setup(in, fs, parser)
	_, err := o.Discover("/proj/main.luna")
	require.NoError(t, err)
	o.CheckAll()

	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diag.KindUnusedSymbol {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckAllOrdersDependenciesBeforeDependents(t *testing.T) {
	in := source.NewInterner()
	libFile := testsrc.File(testsrc.Func(in, "helper", []surface.Stmt{
		&surface.ReturnStmt{Value: testsrc.Number(1)},
	}, true))
	libFile.Exports = []*surface.ExportDecl{
		{Kind: surface.ExportLocal, LocalName: in.Intern("helper"), ExportedName: "helper"},
	}
	mainFile := testsrc.File(&surface.ExprStmt{X: testsrc.Ident(in, "helper")})
	mainFile.Imports = []*surface.ImportDecl{
		{ModulePath: "./lib", Specifiers: []*surface.ImportSpecifier{
			{ImportedName: "helper", LocalName: in.Intern("helper")},
		}},
	}

	fs := testsrc.NewFileSystem().WithFile("/proj/main.luna", "").WithFile("/proj/lib.luna", "")
	parser := testsrc.NewParser().WithFile("/proj/main.luna", mainFile).WithFile("/proj/lib.luna", libFile)

	o, sink := setup(in, fs, parser)
	entryID, err := o.Discover("/proj/main.luna")
	require.NoError(t, err)

	d := o.CheckAll()
	assert.Nil(t, d)
	assert.True(t, o.Registry.IsChecked(entryID))
	libMod, ok := o.Registry.GetByPath("/proj/lib.luna")
	require.True(t, ok)
	assert.True(t, o.Registry.IsChecked(libMod.ID))
	for _, diagnostic := range sink.Diagnostics() {
		assert.NotEqual(t, diag.KindModuleNotFound, diagnostic.Kind)
	}
}

func TestCheckAllReportsCircularValueDependency(t *testing.T) {
	in := source.NewInterner()
	aFile := testsrc.File(testsrc.Func(in, "a", nil, true))
	aFile.Imports = []*surface.ImportDecl{
		{ModulePath: "./b", Specifiers: []*surface.ImportSpecifier{{ImportedName: "b", LocalName: in.Intern("b")}}},
	}
	aFile.Exports = []*surface.ExportDecl{
		{Kind: surface.ExportLocal, LocalName: in.Intern("a"), ExportedName: "a"},
	}
	bFile := testsrc.File(testsrc.Func(in, "b", nil, true))
	bFile.Imports = []*surface.ImportDecl{
		{ModulePath: "./a", Specifiers: []*surface.ImportSpecifier{{ImportedName: "a", LocalName: in.Intern("a")}}},
	}
	bFile.Exports = []*surface.ExportDecl{
		{Kind: surface.ExportLocal, LocalName: in.Intern("b"), ExportedName: "b"},
	}

	fs := testsrc.NewFileSystem().WithFile("/proj/a.luna", "").WithFile("/proj/b.luna", "")
	parser := testsrc.NewParser().WithFile("/proj/a.luna", aFile).WithFile("/proj/b.luna", bFile)

	o, _ := setup(in, fs, parser)
	_, err := o.Discover("/proj/a.luna")
	require.NoError(t, err)

	d := o.CheckAll()
	require.NotNil(t, d)
	assert.Equal(t, diag.KindCircularValueDep, d.Kind)
}
