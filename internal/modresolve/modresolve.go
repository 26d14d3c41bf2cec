// Package modresolve implements the cross-module engine (spec.md §4.10):
// path resolution, a monotonic module registry, a Value/TypeOnly
// dependency graph with deterministic topological ordering and cycle
// detection, a bounded lazy type-check callback, and re-export chain
// resolution.
package modresolve

import (
	"path"
	"sort"
	"strings"

	"github.com/lunac-lang/lunac/internal/astiface"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/surface"
	"github.com/lunac-lang/lunac/internal/symbols"
)

// CheckState is a module's position in the hoist/infer/validate pipeline.
type CheckState int

const (
	Unchecked CheckState = iota
	InProgress
	Checked
	Failed
)

// EdgeKind distinguishes a runtime dependency from a type-only one; only
// Value edges participate in cycle detection and build ordering.
type EdgeKind int

const (
	Value EdgeKind = iota
	TypeOnly
)

// Edge is one directed module dependency.
type Edge struct {
	Source, Target int
	Kind           EdgeKind
}

// ExportKind distinguishes a locally defined export from the two
// re-export shapes (spec.md §3's ExportedSymbol variant).
type ExportKind int

const (
	ExportedLocal ExportKind = iota
	ExportedReExport
	ExportedWildcard
)

// ExportedSymbol is one entry of a module's export table.
type ExportedSymbol struct {
	LocalName    source.ID
	Symbol       *symbols.Symbol
	IsTypeOnly   bool
	Kind         ExportKind
	SourceModule string // canonical path, for ReExport/Wildcard
	SourceName   string // for ReExport only
}

// Module is one registered compilation unit.
type Module struct {
	ID              int
	Path            string
	File            *surface.File
	Exports         map[string]*ExportedSymbol
	Edges           []Edge
	State           CheckState
	ResolutionDepth int
}

// Registry assigns monotonic numeric ids to canonical module paths and
// tracks each module's check state and export table.
type Registry struct {
	byPath map[string]*Module
	byID   []*Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]*Module)}
}

// GetOrCreate returns the Module for path, registering a fresh Unchecked
// one with the next monotonic id on first sight.
func (r *Registry) GetOrCreate(canonicalPath string) *Module {
	if m, ok := r.byPath[canonicalPath]; ok {
		return m
	}
	m := &Module{ID: len(r.byID), Path: canonicalPath, Exports: make(map[string]*ExportedSymbol)}
	r.byPath[canonicalPath] = m
	r.byID = append(r.byID, m)
	return m
}

// Get looks up a module by id. Returns nil if id is out of range.
func (r *Registry) Get(id int) *Module {
	if id < 0 || id >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

// GetByPath looks up a module by canonical path, if already registered.
func (r *Registry) GetByPath(canonicalPath string) (*Module, bool) {
	m, ok := r.byPath[canonicalPath]
	return m, ok
}

// Count returns the number of registered modules.
func (r *Registry) Count() int { return len(r.byID) }

// GetExports returns module id's export table, or nil if unregistered.
func (r *Registry) GetExports(id int) map[string]*ExportedSymbol {
	m := r.Get(id)
	if m == nil {
		return nil
	}
	return m.Exports
}

// IsChecked reports whether module id has finished validation.
func (r *Registry) IsChecked(id int) bool {
	m := r.Get(id)
	return m != nil && m.State == Checked
}

// MarkInProgress transitions a module to InProgress.
func (r *Registry) MarkInProgress(id int) {
	if m := r.Get(id); m != nil {
		m.State = InProgress
	}
}

// MarkChecked transitions a module to Checked.
func (r *Registry) MarkChecked(id int) {
	if m := r.Get(id); m != nil {
		m.State = Checked
	}
}

// MarkFailed transitions a module to Failed; dependents still receive
// `unknown` for its exports rather than aborting the whole session
// (spec.md §7's per-module isolation rule).
func (r *Registry) MarkFailed(id int) {
	if m := r.Get(id); m != nil {
		m.State = Failed
	}
}

// Resolver maps an import specifier plus the importing module's canonical
// path to a canonical target path, trying exact relative resolution, then
// each known source extension, then an index file inside a directory.
type Resolver struct {
	fs         astiface.FileSystem
	extensions []string
	indexName  string
}

// NewResolver creates a Resolver over fs. extensions defaults to
// {".luna"} and the index file name to "index.luna" when nil/empty.
func NewResolver(fs astiface.FileSystem, extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = []string{".luna"}
	}
	return &Resolver{fs: fs, extensions: extensions, indexName: "index" + extensions[0]}
}

// Resolve resolves importPath as seen from fromPath's directory.
func (r *Resolver) Resolve(fromPath, importPath string, span source.Span) (string, *diag.Diagnostic) {
	joined := importPath
	if strings.HasPrefix(importPath, ".") {
		joined = path.Join(path.Dir(fromPath), importPath)
	}
	joined = r.fs.Canonicalize(joined)

	if r.fs.Exists(joined) {
		return joined, nil
	}
	for _, ext := range r.extensions {
		candidate := r.fs.Canonicalize(joined + ext)
		if r.fs.Exists(candidate) {
			return candidate, nil
		}
	}
	indexCandidate := r.fs.Canonicalize(path.Join(joined, r.indexName))
	if r.fs.Exists(indexCandidate) {
		return indexCandidate, nil
	}

	d := diag.New(diag.KindModuleNotFound, span, "module not found: "+importPath)
	d.WithData("from", fromPath).WithData("specifier", importPath)
	return "", d
}

// DepGraph is the Value/TypeOnly dependency graph over registered module
// ids, built from each Module's Edges.
type DepGraph struct {
	moduleCount int
	valueEdges  map[int][]int // source -> targets, Value edges only
}

// BuildDepGraph collects every module's Edges into one graph.
func BuildDepGraph(reg *Registry) *DepGraph {
	g := &DepGraph{moduleCount: reg.Count(), valueEdges: make(map[int][]int)}
	for i := 0; i < reg.Count(); i++ {
		m := reg.Get(i)
		for _, e := range m.Edges {
			if e.Kind == Value {
				g.valueEdges[e.Source] = append(g.valueEdges[e.Source], e.Target)
			}
		}
	}
	return g
}

// BuildOrder performs a deterministic topological sort over Value edges
// (ties broken by ascending module id), so every Value edge points from
// an earlier to a later position in the result. Returns an error
// diagnostic naming the cycle if the Value subgraph is not a DAG.
func (g *DepGraph) BuildOrder() ([]int, *diag.Diagnostic) {
	indegree := make([]int, g.moduleCount)
	for _, targets := range g.valueEdges {
		for _, t := range targets {
			indegree[t]++
		}
	}

	var ready []int
	for i := 0; i < g.moduleCount; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Ints(ready)

	var order []int
	for len(ready) > 0 {
		sort.Ints(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		targets := append([]int(nil), g.valueEdges[n]...)
		sort.Ints(targets)
		for _, t := range targets {
			indegree[t]--
			if indegree[t] == 0 {
				ready = append(ready, t)
			}
		}
	}

	if len(order) != g.moduleCount {
		cycles := g.DetectValueCycles()
		d := diag.New(diag.KindCircularValueDep, source.Span{}, "circular value dependency among modules")
		d.WithData("cycles", cycles)
		return nil, d
	}
	return order, nil
}

// DetectValueCycles returns every strongly connected component (size > 1,
// or a single self-loop) reachable entirely via Value edges, using
// Tarjan's algorithm. An empty result means the Value subgraph is a DAG.
func (g *DepGraph) DetectValueCycles() [][]int {
	index := make([]int, g.moduleCount)
	lowlink := make([]int, g.moduleCount)
	onStack := make([]bool, g.moduleCount)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var sccs [][]int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		targets := append([]int(nil), g.valueEdges[v]...)
		sort.Ints(targets)
		for _, w := range targets {
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var component []int
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			isCycle := len(component) > 1
			if len(component) == 1 {
				for _, t := range g.valueEdges[component[0]] {
					if t == component[0] {
						isCycle = true
					}
				}
			}
			if isCycle {
				sort.Ints(component)
				sccs = append(sccs, component)
			}
		}
	}

	for i := 0; i < g.moduleCount; i++ {
		if index[i] == -1 {
			strongconnect(i)
		}
	}
	return sccs
}

// LazyChecker invokes the full checker on a module on demand, used when a
// type-only resolution reaches an Unchecked module.
type LazyChecker func(moduleID int) error

// ResolveLazyType runs check on targetID if depth is within maxDepth,
// degrading to `unknown` (reported as TypeCheckRecursionLimit) past the
// bound rather than aborting, per spec.md §4.10.
func ResolveLazyType(reg *Registry, targetID int, depth, maxDepth int, check LazyChecker, span source.Span) *diag.Diagnostic {
	if reg.IsChecked(targetID) {
		return nil
	}
	if depth > maxDepth {
		d := diag.New(diag.KindTypeCheckRecursionLim, span, "lazy type-check recursion limit exceeded")
		d.WithData("module", targetID).WithData("depth", depth)
		return d
	}
	if m := reg.Get(targetID); m != nil && m.State == InProgress {
		// Already being checked further up the call stack; check marks
		// progress itself, so marking it here would make check skip it.
		return nil
	}
	if err := check(targetID); err != nil {
		reg.MarkFailed(targetID)
		return nil
	}
	reg.MarkChecked(targetID)
	return nil
}

type reExportKey struct {
	module int
	name   string
}

// ResolveExport follows re-export and wildcard chains to find the
// concrete ExportedSymbol backing (moduleID, name), bounded by maxDepth
// and a visited set keyed by (module id, name) to catch cycles.
func ResolveExport(reg *Registry, moduleID int, name string, maxDepth int, span source.Span) (*ExportedSymbol, *diag.Diagnostic) {
	visited := make(map[reExportKey]bool)
	return resolveExportDepth(reg, moduleID, name, 0, maxDepth, visited, span)
}

func resolveExportDepth(reg *Registry, moduleID int, name string, depth, maxDepth int, visited map[reExportKey]bool, span source.Span) (*ExportedSymbol, *diag.Diagnostic) {
	key := reExportKey{moduleID, name}
	if visited[key] {
		d := diag.New(diag.KindCircularReExport, span, "circular re-export chain for "+name)
		d.WithData("module", moduleID).WithData("name", name)
		return nil, d
	}
	if depth > maxDepth {
		d := diag.New(diag.KindReExportChainTooDeep, span, "re-export chain for "+name+" exceeds depth limit")
		d.WithData("module", moduleID).WithData("name", name).WithData("depth", depth)
		return nil, d
	}
	visited[key] = true

	m := reg.Get(moduleID)
	if m == nil {
		d := diag.New(diag.KindModuleNotFound, span, "module not registered")
		return nil, d
	}

	exp, ok := m.Exports[name]
	if !ok {
		// Wildcard re-exports: search every wildcard source module for name,
		// in a deterministic (source-module-path) order.
		var wildcards []*ExportedSymbol
		for _, e := range m.Exports {
			if e.Kind == ExportedWildcard {
				wildcards = append(wildcards, e)
			}
		}
		sort.Slice(wildcards, func(i, j int) bool { return wildcards[i].SourceModule < wildcards[j].SourceModule })
		for _, e := range wildcards {
			srcMod, ok := reg.GetByPath(e.SourceModule)
			if !ok {
				continue
			}
			if found, d := resolveExportDepth(reg, srcMod.ID, name, depth+1, maxDepth, visited, span); found != nil {
				return found, nil
			} else if d != nil && d.Kind != diag.KindExportNotFound {
				return nil, d
			}
		}
		d := diag.New(diag.KindExportNotFound, span, "export not found: "+name)
		d.WithData("module", moduleID).WithData("name", name)
		return nil, d
	}

	switch exp.Kind {
	case ExportedLocal:
		return exp, nil
	case ExportedReExport:
		srcMod, ok := reg.GetByPath(exp.SourceModule)
		if !ok {
			d := diag.New(diag.KindModuleNotFound, span, "re-export source module not found: "+exp.SourceModule)
			return nil, d
		}
		return resolveExportDepth(reg, srcMod.ID, exp.SourceName, depth+1, maxDepth, visited, span)
	default:
		return exp, nil
	}
}

// ClassifyImportError reports RuntimeImportOfTypeOnly when a value
// (non-type-only) import specifier targets an export that is itself
// type-only (a TypeAlias or Interface export, or one explicitly marked
// type-only). A type-only import of any export always produces only a
// type binding and is never an error.
func ClassifyImportError(specTypeOnly bool, target *ExportedSymbol, span source.Span, name string) *diag.Diagnostic {
	if specTypeOnly {
		return nil
	}
	if !target.IsTypeOnly {
		return nil
	}
	d := diag.New(diag.KindRuntimeImportOfTypeOnl, span, "value import of type-only export: "+name)
	d.WithData("name", name)
	return d
}
