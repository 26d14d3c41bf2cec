// Package testsrc provides an in-memory astiface.FileSystem and a fake
// astiface.Parser that hands back pre-built surface.File fixtures instead
// of running a real grammar, plus small AST-construction helpers. It
// exists so internal/phase and internal/infer can be exercised end to
// end without the external parser spec.md §6 leaves out of scope,
// grounded on the teacher's own simplified parseExpr test helper
// (internal/types/inference_test.go) that stubs parsing for unit tests.
package testsrc

import (
	"errors"
	"path"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
)

// FileSystem is an in-memory astiface.FileSystem backed by a fixed set of
// canonical paths, each holding arbitrary fixture bytes (the Parser never
// actually lexes them; their presence only drives Exists/Resolve).
type FileSystem struct {
	files map[string][]byte
}

// NewFileSystem creates an empty in-memory file system.
func NewFileSystem() *FileSystem {
	return &FileSystem{files: make(map[string][]byte)}
}

// WithFile registers path with body, returning the receiver for chaining.
func (f *FileSystem) WithFile(path string, body string) *FileSystem {
	f.files[path] = []byte(body)
	return f
}

func (f *FileSystem) Read(p string) ([]byte, error) {
	body, ok := f.files[p]
	if !ok {
		return nil, errors.New("testsrc: no such file: " + p)
	}
	return body, nil
}

func (f *FileSystem) Exists(p string) bool { _, ok := f.files[p]; return ok }

func (f *FileSystem) Canonicalize(p string) string { return path.Clean(p) }

// Parser is an in-memory astiface.Parser backed by pre-built surface.File
// fixtures keyed by canonical path, for driving internal/phase without a
// real lexer/grammar.
type Parser struct {
	files map[string]*surface.File
}

// NewParser creates an empty fixture parser.
func NewParser() *Parser {
	return &Parser{files: make(map[string]*surface.File)}
}

// WithFile registers file under path, returning the receiver for chaining.
func (p *Parser) WithFile(path string, file *surface.File) *Parser {
	file.Path = path
	p.files[path] = file
	return p
}

// Parse ignores text and interner, returning the fixture registered for
// path, or a ModuleNotFound diagnostic if none was registered.
func (p *Parser) Parse(path string, text []byte, interner *source.Interner) (*surface.File, []*diag.Diagnostic) {
	file, ok := p.files[path]
	if !ok {
		return nil, []*diag.Diagnostic{diag.New(diag.KindModuleNotFound, source.Span{}, "testsrc: no fixture registered for "+path)}
	}
	return file, nil
}

// --- AST construction helpers ---

// Ident builds an identifier expression, interning name.
func Ident(in *source.Interner, name string) *surface.Ident {
	return &surface.Ident{Name: in.Intern(name)}
}

// Number builds a numeric literal expression.
func Number(v float64) *surface.NumberLit { return &surface.NumberLit{Value: v} }

// String builds a string literal expression.
func String(v string) *surface.StringLit { return &surface.StringLit{Value: v} }

// Func builds a top-level function declaration with the given body,
// defaulting its return type to `number` (callers needing a different
// shape build a *surface.FuncDecl directly).
func Func(in *source.Interner, name string, body []surface.Stmt, exported bool) *surface.FuncDecl {
	return &surface.FuncDecl{
		Name:       in.Intern(name),
		ReturnType: &surface.TypeRef{Name: "number"},
		Body:       body,
		Exported:   exported,
	}
}

// File builds a surface.File with the given top-level statements and no
// imports/exports, for the common single-module fixture case.
func File(stmts ...surface.Stmt) *surface.File {
	return &surface.File{Statements: stmts}
}
