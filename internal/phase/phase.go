// Package phase implements the three-phase per-module orchestrator
// (spec.md §4.8): discover every reachable module and its dependency
// edges, order modules by the Module Engine's dependency graph, then run
// hoist/infer/validate over each module's body in that order, checking
// an imported module through the Module Engine's bounded lazy callback
// whenever an import reaches it before its turn in that order.
package phase

import (
	"sort"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/astiface"
	"github.com/lunac-lang/lunac/internal/config"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/generics"
	"github.com/lunac-lang/lunac/internal/infer"
	"github.com/lunac-lang/lunac/internal/modresolve"
	"github.com/lunac-lang/lunac/internal/narrow"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/symbols"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

// Orchestrator drives module discovery and the hoist/infer/validate
// pipeline over the registry's modules, sharing one type environment
// (and therefore one named-type namespace) across the whole session.
type Orchestrator struct {
	Registry *modresolve.Registry
	Resolver *modresolve.Resolver
	FS       astiface.FileSystem
	Parser   astiface.Parser
	Config   config.Options
	Sink     diag.Sink
	Interner *source.Interner

	env      *tenv.Env
	checker  *assign.Checker
	generics *generics.Engine
	narrow   *narrow.Engine
}

// New wires a fresh Orchestrator. Call Bootstrap before Discover to seed
// the ambient standard library.
func New(reg *modresolve.Registry, resolver *modresolve.Resolver, fs astiface.FileSystem, parser astiface.Parser, cfg config.Options, sink diag.Sink, interner *source.Interner) *Orchestrator {
	env := tenv.New(sink, interner, cfg.MaxLazyDepth)
	checker := assign.New(env)
	o := &Orchestrator{
		Registry: reg, Resolver: resolver, FS: fs, Parser: parser, Config: cfg, Sink: sink, Interner: interner,
		env: env, checker: checker, generics: generics.New(env, checker, sink), narrow: narrow.New(checker, interner),
	}
	return o
}

// Bootstrap seeds the shared type environment with the ambient standard
// library, per spec.md §6's "loader errors abort the session" contract.
func (o *Orchestrator) Bootstrap(loader astiface.StdlibLoader) error {
	if o.Config.NoStdlib {
		return nil
	}
	return loader.Load(o.env)
}

// Discover parses entryPath and every module transitively reachable from
// its imports and re-exports, registering each in o.Registry with Value
// or TypeOnly edges, and returns the entry module's id.
func (o *Orchestrator) Discover(entryPath string) (int, error) {
	entry := o.FS.Canonicalize(entryPath)
	queue := []string{entry}
	seen := map[string]bool{entry: true}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		m := o.Registry.GetOrCreate(path)
		if m.File != nil {
			continue
		}
		text, err := o.FS.Read(path)
		if err != nil {
			o.report(diag.KindModuleNotFound, source.Span{}, "cannot read module: "+path)
			continue
		}
		file, diags := o.Parser.Parse(path, text, o.Interner)
		for _, d := range diags {
			o.Sink.Report(d)
		}
		m.File = file
		if file == nil {
			continue
		}

		for _, imp := range file.Imports {
			target, d := o.Resolver.Resolve(path, imp.ModulePath, imp.Span())
			if d != nil {
				o.Sink.Report(d)
				continue
			}
			kind := modresolve.TypeOnly
			for _, spec := range imp.Specifiers {
				if !spec.EffectiveTypeOnly(imp.ClauseTypeOnly) {
					kind = modresolve.Value
					break
				}
			}
			targetMod := o.Registry.GetOrCreate(target)
			m.Edges = append(m.Edges, modresolve.Edge{Source: m.ID, Target: targetMod.ID, Kind: kind})
			if !seen[target] {
				seen[target] = true
				queue = append(queue, target)
			}
		}

		for _, exp := range file.Exports {
			if exp.Kind == surface.ExportLocal {
				continue
			}
			target, d := o.Resolver.Resolve(path, exp.SourceModule, exp.Span())
			if d != nil {
				o.Sink.Report(d)
				continue
			}
			kind := modresolve.Value
			if exp.TypeOnly {
				kind = modresolve.TypeOnly
			}
			targetMod := o.Registry.GetOrCreate(target)
			m.Edges = append(m.Edges, modresolve.Edge{Source: m.ID, Target: targetMod.ID, Kind: kind})
			if !seen[target] {
				seen[target] = true
				queue = append(queue, target)
			}
		}
	}

	entryMod, _ := o.Registry.GetByPath(entry)
	return entryMod.ID, nil
}

// CheckAll computes the deterministic dependency order and runs the
// three-phase pipeline over every discovered module in that order.
func (o *Orchestrator) CheckAll() *diag.Diagnostic {
	graph := modresolve.BuildDepGraph(o.Registry)
	order, d := graph.BuildOrder()
	if d != nil {
		o.Sink.Report(d)
		return d
	}
	for _, id := range order {
		o.CheckModule(id, 0)
	}
	return nil
}

// CheckModule hoists, infers, and validates one module's body, skipping
// modules already checked (reached twice via diamond imports) or whose
// depth exceeds the session's lazy recursion bound.
func (o *Orchestrator) CheckModule(id int, depth int) {
	m := o.Registry.Get(id)
	if m == nil || m.File == nil || o.Registry.IsChecked(id) || m.State == modresolve.InProgress {
		return
	}
	if depth > o.Config.MaxLazyDepth {
		o.report(diag.KindTypeCheckRecursionLim, source.Span{}, "module check recursion limit exceeded")
		return
	}
	m.ResolutionDepth = depth
	o.Registry.MarkInProgress(id)

	symTable := symbols.NewTable(o.Sink, o.Interner)
	visitor := infer.New(o.env, o.checker, o.generics, symTable, o.narrow, o.Sink, o.Interner)

	o.bindImports(m, symTable, depth)
	hoistFile(visitor, m.File)

	ctx := narrow.Context{}
	for _, stmt := range m.File.Statements {
		ctx = visitor.VisitStmt(stmt, ctx)
	}
	checkUnreachable(m.File.Statements, o.Sink)
	reportUnused(symTable, o.Sink)

	bindExports(m, symTable)
	o.Registry.MarkChecked(id)
}

// bindImports resolves each import specifier against the Module Engine
// and declares a local symbol for it, recursing into an unchecked source
// module via the lazy callback when needed.
func (o *Orchestrator) bindImports(m *modresolve.Module, symTable *symbols.Table, depth int) {
	for _, imp := range m.File.Imports {
		target, d := o.Resolver.Resolve(m.Path, imp.ModulePath, imp.Span())
		if d != nil {
			o.Sink.Report(d)
			continue
		}
		targetMod, ok := o.Registry.GetByPath(target)
		if !ok {
			continue
		}
		if !o.Registry.IsChecked(targetMod.ID) {
			check := func(id int) error { o.CheckModule(id, depth+1); return nil }
			if d := modresolve.ResolveLazyType(o.Registry, targetMod.ID, depth+1, o.Config.MaxLazyDepth, check, imp.Span()); d != nil {
				o.Sink.Report(d)
				continue
			}
		}
		for _, spec := range imp.Specifiers {
			exp, d := modresolve.ResolveExport(o.Registry, targetMod.ID, spec.ImportedName, o.Config.MaxReexportDepth, spec.Span())
			if d != nil {
				o.Sink.Report(d)
				continue
			}
			if d := modresolve.ClassifyImportError(spec.EffectiveTypeOnly(imp.ClauseTypeOnly), exp, spec.Span(), spec.ImportedName); d != nil {
				o.Sink.Report(d)
			}
			symType := types.Unknown
			kind := symbols.Variable
			if exp.Symbol != nil {
				symType = exp.Symbol.Type
				kind = exp.Symbol.Kind
			}
			symTable.Declare(&symbols.Symbol{Name: spec.LocalName, Kind: kind, Type: symType, DeclSpan: spec.Span()})
		}
	}
}

// bindExports populates m.Exports from the file's export declarations,
// resolving local exports against the just-checked symbol table and
// leaving re-export/wildcard entries for ResolveExport to chase lazily.
func bindExports(m *modresolve.Module, symTable *symbols.Table) {
	for _, exp := range m.File.Exports {
		switch exp.Kind {
		case surface.ExportLocal:
			sym, ok := symTable.Lookup(exp.LocalName)
			if !ok {
				continue
			}
			m.Exports[exp.ExportedName] = &modresolve.ExportedSymbol{
				LocalName: exp.LocalName, Symbol: sym, IsTypeOnly: exp.TypeOnly, Kind: modresolve.ExportedLocal,
			}
		case surface.ExportReExportNamed:
			m.Exports[exp.ExportedName] = &modresolve.ExportedSymbol{
				IsTypeOnly: exp.TypeOnly, Kind: modresolve.ExportedReExport,
				SourceModule: exp.SourceModule, SourceName: exp.SourceName,
			}
		case surface.ExportReExportWildcard:
			m.Exports["*"+exp.SourceModule] = &modresolve.ExportedSymbol{
				IsTypeOnly: exp.TypeOnly, Kind: modresolve.ExportedWildcard, SourceModule: exp.SourceModule,
			}
		}
	}
}

// hoistFile runs spec.md §4.8 Phase 1 over one file's top-level
// declarations: interfaces first (so implements/extends targets exist),
// then class and function placeholders, then type aliases and enums.
func hoistFile(v *infer.Visitor, file *surface.File) {
	for _, stmt := range file.Statements {
		if d, ok := stmt.(*surface.InterfaceDecl); ok {
			v.HoistInterface(d)
		}
	}
	for _, stmt := range file.Statements {
		switch d := stmt.(type) {
		case *surface.ClassDecl:
			v.HoistClassPlaceholder(d)
		case *surface.FuncDecl:
			v.HoistFuncPlaceholder(d)
		}
	}
	for _, stmt := range file.Statements {
		switch d := stmt.(type) {
		case *surface.TypeAliasDecl:
			v.HoistTypeAlias(d)
		case *surface.EnumDecl:
			v.HoistEnum(d)
		}
	}
}

// checkUnreachable flags statements following a ReturnStmt within the
// same block, recursing into if/while/repeat/for/switch bodies and
// function/method bodies reachable from top-level declarations.
func checkUnreachable(stmts []surface.Stmt, sink diag.Sink) {
	sawReturn := false
	for _, s := range stmts {
		if sawReturn {
			sink.Report(diag.New(diag.KindUnreachableCode, s.Span(), "unreachable code"))
		}
		switch st := s.(type) {
		case *surface.ReturnStmt:
			sawReturn = true
		case *surface.IfStmt:
			checkUnreachable(st.Then, sink)
			checkUnreachable(st.Else, sink)
		case *surface.WhileStmt:
			checkUnreachable(st.Body, sink)
		case *surface.RepeatStmt:
			checkUnreachable(st.Body, sink)
		case *surface.ForStmt:
			checkUnreachable(st.Body, sink)
		case *surface.SwitchStmt:
			for _, c := range st.Cases {
				checkUnreachable(c.Body, sink)
			}
		case *surface.FuncDecl:
			checkUnreachable(st.Body, sink)
		case *surface.ClassDecl:
			for _, m := range st.Methods {
				checkUnreachable(m.Body, sink)
			}
		}
	}
}

// reportUnused flags top-level symbols that were never referenced and
// are not part of the module's export surface, skipping the check
// entirely when strict mode is off would be the caller's choice; here it
// always runs since it is diagnostic-only and does not block checking.
func reportUnused(symTable *symbols.Table, sink diag.Sink) {
	visible := symTable.AllVisible()
	sort.Slice(visible, func(i, j int) bool { return visible[i].DeclSpan.Start.Offset < visible[j].DeclSpan.Start.Offset })
	for _, sym := range visible {
		if len(sym.RefSpans) == 0 && sym.ExportVisibility != symbols.Exported {
			sink.Report(diag.New(diag.KindUnusedSymbol, sym.DeclSpan, "unused declaration"))
		}
	}
}

func (o *Orchestrator) report(kind diag.Kind, span source.Span, msg string) {
	if o.Sink != nil {
		o.Sink.Report(diag.New(kind, span, msg))
	}
}
