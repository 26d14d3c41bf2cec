// Package astiface declares the capability interfaces the core depends on
// but does not implement: the source parser, the file-system façade, and
// the standard-library loader (spec.md §6, §9's "dynamic dispatch across
// components" design note). The core programs against these interfaces so
// it composes without knowing the driver's concrete choices.
package astiface

import (
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/tenv"
)

// Parser consumes source text and an interner and returns a mutable AST
// plus any parse-time diagnostics. Implementations own tokenizing and
// grammar; the core only requires the surface.File shape they produce.
type Parser interface {
	Parse(path string, text []byte, interner *source.Interner) (*surface.File, []*diag.Diagnostic)
}

// FileSystem is the module loader's façade over storage. It must be
// deterministic for a fixed underlying filesystem state: repeated calls
// with the same arguments return the same results within one session.
type FileSystem interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
	Canonicalize(path string) string
}

// StdlibLoader seeds the type environment with a fixed catalogue of named
// types at session start. A loader error aborts the session (spec.md §7:
// "standard-library failing to load" is the one fatal condition).
type StdlibLoader interface {
	Load(env *tenv.Env) error
}
