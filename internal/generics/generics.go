// Package generics implements generic instantiation: building and
// applying substitutions (on top of internal/subst), checking type-
// parameter constraints, and bidirectional inference of type arguments
// from a call's actual parameters.
package generics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunac-lang/lunac/internal/assign"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/subst"
	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

// Engine bundles the collaborators generic instantiation needs: the type
// environment (for constraint lookups and Reference resolution) and the
// assignability checker (for constraint satisfaction).
type Engine struct {
	env        *tenv.Env
	checker    *assign.Checker
	sink       diag.Sink
	inProgress map[string]bool // instantiation cycle guard, keyed like the surge-derived pattern below
}

// New creates an Engine. checker and env are typically shared with the
// rest of one check session.
func New(env *tenv.Env, checker *assign.Checker, sink diag.Sink) *Engine {
	return &Engine{env: env, checker: checker, sink: sink, inProgress: make(map[string]bool)}
}

// BuildSubstitution zips type parameters with type arguments (spec.md
// §4.5's `build_substitution`).
func (g *Engine) BuildSubstitution(params []*types.TypeParam, args []types.Type) subst.Map {
	return subst.Build(params, args)
}

// CheckConstraints verifies that, for every parameter T with a declared
// constraint C, the substituted binding is assignable to C. Violations are
// reported to the sink and also returned so a caller that wants to react
// (e.g. fall back to `unknown`) can do so without re-querying the sink.
func (g *Engine) CheckConstraints(m subst.Map, params []*types.TypeParam) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, p := range params {
		if p.Constraint == nil {
			continue
		}
		bound, ok := m[p]
		if !ok {
			continue
		}
		constraint := subst.Apply(p.Constraint, m)
		if r := g.checker.IsAssignable(bound, constraint); !r.OK {
			d := diag.New(diag.KindGenericConstraintViol, p.Span(),
				fmt.Sprintf("type parameter %s bound to %s does not satisfy constraint %s", p.Name, bound, constraint))
			d.WithData("parameter", p.Name).WithData("bound", bound.String()).WithData("constraint", constraint.String())
			out = append(out, d)
			if g.sink != nil {
				g.sink.Report(d)
			}
		}
	}
	return out
}

// instantiationKey builds a deterministic cache/cycle key for (type
// identity, substitution). Type identity is approximated by the type's
// Hash, which is sufficient since structurally distinct types never
// collide in practice for this purpose (a false-positive cycle report
// would only occur for a genuine structural hash collision, which FNV-1a
// over these small terms does not produce in realistic programs).
func instantiationKey(t types.Type, m subst.Map) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", t.Hash())
	keys := make([]*types.TypeParam, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Hash() < keys[j].Hash() })
	for _, k := range keys {
		fmt.Fprintf(&b, "%p=%d;", k, m[k].Hash())
	}
	return b.String()
}

// Instantiate applies m to t, guarding against unbounded recursive
// instantiation (e.g. `class Box<T> { next: Box<T> }`). A cycle degrades
// to returning t unsubstituted rather than looping forever, mirroring the
// module engine's own "degrade rather than abort" philosophy for bounded
// recursion (spec.md §4.10).
func (g *Engine) Instantiate(t types.Type, m subst.Map) types.Type {
	key := instantiationKey(t, m)
	if g.inProgress[key] {
		return t
	}
	g.inProgress[key] = true
	defer delete(g.inProgress, key)
	return subst.Apply(t, m)
}

// variance tracks whether the current structural position is read
// (covariant, e.g. a return type or array element) or write (contravariant,
// e.g. a function parameter), used by Infer to decide whether multiple
// candidate bindings for the same parameter join as a union or meet as an
// intersection.
type variance int

const (
	covariant variance = iota
	contravariant
)

// Infer performs local bidirectional type-parameter inference: walking
// declared parameter types against actual argument types, collecting
// candidate bindings per type parameter, then joining covariant
// candidates into a union and contravariant candidates into an
// intersection. A parameter with no candidates at all defaults to its
// declared default, or `unknown`.
func (g *Engine) Infer(typeParams []*types.TypeParam, paramTypes []types.Type, argTypes []types.Type) subst.Map {
	candidates := make(map[*types.TypeParam][]candidate)
	bound := make(map[*types.TypeParam]bool)
	for _, p := range typeParams {
		bound[p] = true
	}

	n := len(paramTypes)
	if len(argTypes) < n {
		n = len(argTypes)
	}
	for i := 0; i < n; i++ {
		collect(paramTypes[i], argTypes[i], covariant, bound, candidates)
	}

	m := make(subst.Map, len(typeParams))
	for _, p := range typeParams {
		cands := candidates[p]
		switch {
		case len(cands) == 0 && p.Default != nil:
			m[p] = p.Default
		case len(cands) == 0:
			m[p] = types.Unknown
		default:
			m[p] = joinCandidates(cands)
		}
	}
	return m
}

// candidate is one observed binding for a type parameter, tagged with the
// structural position (variance) it was observed at.
type candidate struct {
	typ types.Type
	v   variance
}

// joinCandidates combines every observed candidate for one parameter:
// covariant observations (return positions, array/object reads) join by
// union; contravariant observations (function-parameter positions) join by
// intersection; when both kinds were observed, the two results are
// intersected together as the most conservative combination.
func joinCandidates(cands []candidate) types.Type {
	var covs, contras []types.Type
	for _, c := range cands {
		if c.v == covariant {
			covs = append(covs, c.typ)
		} else {
			contras = append(contras, c.typ)
		}
	}
	switch {
	case len(covs) > 0 && len(contras) > 0:
		return types.Intersection([]types.Type{types.Union(covs, source.Span{}), types.Intersection(contras, source.Span{})}, source.Span{})
	case len(covs) > 0:
		return types.Union(covs, source.Span{})
	default:
		return types.Intersection(contras, source.Span{})
	}
}

// collect walks declared against actual, recording a candidate binding
// whenever declared bottoms out at a still-unbound type parameter.
func collect(declared, actual types.Type, v variance, bound map[*types.TypeParam]bool, out map[*types.TypeParam][]candidate) {
	if tp, ok := declared.(*types.TypeParam); ok && bound[tp] {
		out[tp] = append(out[tp], candidate{typ: actual, v: v})
		return
	}
	switch d := declared.(type) {
	case *types.ArrayType:
		if a, ok := actual.(*types.ArrayType); ok {
			collect(d.Element, a.Element, v, bound, out)
		}
	case *types.TupleType:
		if a, ok := actual.(*types.TupleType); ok {
			for i := 0; i < len(d.Elements) && i < len(a.Elements); i++ {
				collect(d.Elements[i], a.Elements[i], v, bound, out)
			}
		}
	case *types.FuncType:
		if a, ok := actual.(*types.FuncType); ok {
			for i := 0; i < len(d.Params) && i < len(a.Params); i++ {
				collect(d.Params[i].Type, a.Params[i].Type, flip(v), bound, out)
			}
			collect(d.Return, a.Return, v, bound, out)
		}
	case *types.ObjectType:
		if a, ok := actual.(*types.ObjectType); ok {
			for name, dp := range d.Properties {
				if ap, ok := a.Properties[name]; ok {
					collect(dp.Type, ap.Type, v, bound, out)
				}
			}
		}
	case *types.Reference:
		if a, ok := actual.(*types.Reference); ok {
			for i := 0; i < len(d.TypeArgs) && i < len(a.TypeArgs); i++ {
				collect(d.TypeArgs[i], a.TypeArgs[i], v, bound, out)
			}
		}
	}
}

func flip(v variance) variance {
	if v == covariant {
		return contravariant
	}
	return covariant
}
