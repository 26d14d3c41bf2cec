// Package assign implements the assignability (subtyping) relation: the
// single question every other engine asks when it needs to know whether a
// value of one type may stand in for another. The algorithm is
// co-inductive, memoizing in-progress (source, target) pairs so recursive
// structural types terminate.
package assign

import (
	"fmt"

	"github.com/lunac-lang/lunac/internal/tenv"
	"github.com/lunac-lang/lunac/internal/types"
)

// Step is one entry of a failure path: the property or index that failed,
// the sub-source and sub-target types compared there, and why.
type Step struct {
	PropertyOrIndex string
	SubSource       types.Type
	SubTarget       types.Type
	Reason          string
}

// Result is the outcome of an assignability query.
type Result struct {
	OK   bool
	Path []Step // empty when OK; a direct top-level mismatch yields one step carrying only the reason
}

func ok() Result  { return Result{OK: true} }
func fail(reason string) Result {
	return Result{OK: false, Path: []Step{{Reason: reason}}}
}
func failAt(step Step) Result {
	return Result{OK: false, Path: []Step{step}}
}
func prepend(step Step, r Result) Result {
	if r.OK {
		return r
	}
	return Result{OK: false, Path: append([]Step{step}, r.Path...)}
}

// pairKey identifies an in-progress (source, target) comparison for the
// co-inductive memoization table.
type pairKey struct {
	src uint64
	dst uint64
}

// Checker holds the assignability engine's state: the type environment it
// consults for Reference resolution, and the in-flight memoization set.
// A Checker is cheap to create; callers typically keep one per check
// session (it is not safe for concurrent use, matching the rest of the
// single-threaded core).
//
// The co-induction is optimistic-in-flight only: a pair assumed true while
// recursing is never revisited once its IsAssignable call returns, even if
// that call ultimately fails. This is sound for the regular (non-cyclic)
// types the checker sees in practice; a pair only recurs into itself
// through a genuine structural cycle, and in that case the assumption is
// exactly the fixed point the co-induction is meant to find.
type Checker struct {
	env      *tenv.Env
	inFlight map[pairKey]bool
}

// New creates a Checker bound to env.
func New(env *tenv.Env) *Checker {
	return &Checker{
		env:      env,
		inFlight: make(map[pairKey]bool),
	}
}

// IsAssignable reports whether a value of type source may be used where
// target is expected, per the ordered rules of spec.md §4.4.
func (c *Checker) IsAssignable(source, target types.Type) Result {
	key := pairKey{src: source.Hash(), dst: target.Hash()}
	if c.inFlight[key] {
		// Co-inductive hypothesis: assume true while recursing through the
		// same (source, target) pair.
		return ok()
	}
	c.inFlight[key] = true
	defer delete(c.inFlight, key)

	return c.check(source, target)
}

func (c *Checker) check(source, target types.Type) Result {
	// Rule 1: any/unknown/never.
	if types.IsPrimitive(source, types.PrimAny) || types.IsPrimitive(target, types.PrimAny) {
		return ok()
	}
	if types.IsPrimitive(target, types.PrimUnknown) {
		return ok()
	}
	if types.IsPrimitive(target, types.PrimNever) {
		if types.IsPrimitive(source, types.PrimNever) {
			return ok()
		}
		return fail("only `never` is assignable to `never`")
	}
	if types.IsPrimitive(source, types.PrimNever) {
		return ok()
	}

	// Rule 2: structural equality.
	if source.Equals(target) {
		return ok()
	}

	// Rule 3: union/intersection distribution.
	_, sourceIsUnion := source.(*types.UnionType)
	if tu, ok2 := target.(*types.UnionType); ok2 && !sourceIsUnion {
		for _, m := range tu.Members {
			if c.IsAssignable(source, m).OK {
				return ok()
			}
		}
		return fail(fmt.Sprintf("%s is not assignable to any member of %s", source, target))
	}
	if su, ok2 := source.(*types.UnionType); ok2 {
		for _, m := range su.Members {
			if r := c.IsAssignable(m, target); !r.OK {
				return fail(fmt.Sprintf("union member %s is not assignable to %s", m, target))
			}
		}
		return ok()
	}
	if ti, ok2 := target.(*types.IntersectionType); ok2 {
		for _, m := range ti.Members {
			if r := c.IsAssignable(source, m); !r.OK {
				return fail(fmt.Sprintf("%s is not assignable to intersection member %s", source, m))
			}
		}
		return ok()
	}
	if si, ok2 := source.(*types.IntersectionType); ok2 {
		for _, m := range si.Members {
			if c.IsAssignable(m, target).OK {
				return ok()
			}
		}
		return fail(fmt.Sprintf("no member of intersection %s is assignable to %s", source, target))
	}

	// Rule 4: primitive vs primitive, with literal widening.
	if sp, ok2 := source.(*types.Primitive); ok2 {
		if tp, ok3 := target.(*types.Primitive); ok3 {
			if sp.Tag == tp.Tag {
				return ok()
			}
			return fail(fmt.Sprintf("%s is not %s", sp, tp))
		}
	}
	if sl, ok2 := source.(*types.Literal); ok2 {
		if tp, ok3 := target.(*types.Primitive); ok3 {
			if types.WidenLiteral(sl).Tag == tp.Tag {
				return ok()
			}
			return fail(fmt.Sprintf("literal %s does not widen to %s", sl, tp))
		}
		if tl, ok3 := target.(*types.Literal); ok3 {
			if sl.Equals(tl) {
				return ok()
			}
			return fail(fmt.Sprintf("literal %s is not literal %s", sl, tl))
		}
	}

	// Rule 5: array covariance.
	if sa, ok2 := source.(*types.ArrayType); ok2 {
		if ta, ok3 := target.(*types.ArrayType); ok3 {
			return prepend(Step{PropertyOrIndex: "[]", SubSource: sa.Element, SubTarget: ta.Element}, c.IsAssignable(sa.Element, ta.Element))
		}
	}

	// Rule 6: tuple assignability.
	if st, ok2 := source.(*types.TupleType); ok2 {
		if tt, ok3 := target.(*types.TupleType); ok3 {
			return c.checkTuple(st, tt)
		}
	}

	// Rule 7: function assignability.
	if sf, ok2 := source.(*types.FuncType); ok2 {
		if tf, ok3 := target.(*types.FuncType); ok3 {
			return c.checkFunc(sf, tf)
		}
	}

	// Rule 9 (checked before rule 8 so two classes compare nominally
	// rather than falling into structural comparison of their members):
	// Class ↔ Class is nominal, walking the base-class chain and the
	// implements list.
	if sc, ok2 := source.(*types.ClassType); ok2 {
		if tc, ok3 := target.(*types.ClassType); ok3 {
			return c.checkClass(sc, tc)
		}
	}

	// Rule 8: structural object assignability. Classes/interfaces fall
	// through to their member object here — this is how a class satisfies
	// an Interface or Object target, and how two unrelated interfaces
	// compare.
	if so, ok2 := asObject(source); ok2 {
		if to, ok3 := asObject(target); ok3 {
			return c.checkObject(so, to)
		}
	}

	// Rule 10: Reference resolution.
	if sr, ok2 := source.(*types.Reference); ok2 {
		return c.IsAssignable(c.env.Resolve(sr), target)
	}
	if tr, ok2 := target.(*types.Reference); ok2 {
		return c.IsAssignable(source, c.env.Resolve(tr))
	}

	// Rule 11: type parameters.
	if stp, ok2 := source.(*types.TypeParam); ok2 {
		if ttp, ok3 := target.(*types.TypeParam); ok3 {
			if stp == ttp {
				return ok()
			}
			return fail("distinct type parameters are assignable only when they share identity")
		}
		if stp.Constraint != nil {
			return c.IsAssignable(stp.Constraint, target)
		}
		return fail(fmt.Sprintf("unconstrained type parameter %s is not assignable to %s", stp, target))
	}

	// Rule 12: lazy operators compared syntactically when not fully ground.
	if isLazy(source) || isLazy(target) {
		if source.Equals(target) {
			return ok()
		}
		return fail(fmt.Sprintf("%s and %s cannot be compared without full grounding", source, target))
	}

	return fail(fmt.Sprintf("%s is not assignable to %s", source, target))
}

func isLazy(t types.Type) bool {
	switch t.(type) {
	case *types.Conditional, *types.Mapped, *types.KeyofType, *types.IndexedAccessType:
		return true
	default:
		return false
	}
}

// asObject views t structurally as an ObjectType: object types directly,
// and classes/interfaces via their member object, so rule 8 can apply
// uniformly before the more specific nominal rule 9 is tried.
func asObject(t types.Type) (*types.ObjectType, bool) {
	switch v := t.(type) {
	case *types.ObjectType:
		return v, true
	case *types.InterfaceType:
		return v.Members, true
	case *types.ClassType:
		return v.Members, true
	default:
		return nil, false
	}
}

func (c *Checker) checkTuple(s, t *types.TupleType) Result {
	if t.Variadic == nil {
		if len(s.Elements) != len(t.Elements) {
			return fail(fmt.Sprintf("tuple length %d does not match %d", len(s.Elements), len(t.Elements)))
		}
	} else if len(s.Elements) < len(t.Elements) {
		return fail(fmt.Sprintf("tuple of length %d cannot satisfy a variadic tuple requiring at least %d", len(s.Elements), len(t.Elements)))
	}
	for i, te := range t.Elements {
		if r := c.IsAssignable(s.Elements[i], te); !r.OK {
			return prepend(Step{PropertyOrIndex: fmt.Sprintf("[%d]", i), SubSource: s.Elements[i], SubTarget: te}, r)
		}
	}
	if t.Variadic != nil {
		for i := len(t.Elements); i < len(s.Elements); i++ {
			if r := c.IsAssignable(s.Elements[i], t.Variadic); !r.OK {
				return prepend(Step{PropertyOrIndex: fmt.Sprintf("[%d]", i), SubSource: s.Elements[i], SubTarget: t.Variadic}, r)
			}
		}
	}
	return ok()
}

func (c *Checker) checkFunc(s, t *types.FuncType) Result {
	required := 0
	for _, p := range s.Params {
		if !p.Optional && !p.Rest {
			required++
		}
	}
	targetHasRest := len(t.Params) > 0 && t.Params[len(t.Params)-1].Rest
	if required > len(t.Params) && !targetHasRest {
		return fail(fmt.Sprintf("function requiring %d parameters cannot satisfy a target supplying only %d", required, len(t.Params)))
	}
	// Contravariant parameters: each target parameter's type must be
	// assignable TO the corresponding source parameter's type.
	for i, tp := range t.Params {
		if i >= len(s.Params) {
			break
		}
		sp := s.Params[i]
		if sp.This != tp.This {
			continue // `this` parameters are compared separately below
		}
		if r := c.IsAssignable(tp.Type, sp.Type); !r.OK {
			return prepend(Step{PropertyOrIndex: fmt.Sprintf("param[%d]", i), SubSource: tp.Type, SubTarget: sp.Type, Reason: "parameters are contravariant"}, r)
		}
	}
	// Covariant return.
	if r := c.IsAssignable(s.Return, t.Return); !r.OK {
		return prepend(Step{PropertyOrIndex: "return", SubSource: s.Return, SubTarget: t.Return}, r)
	}
	if len(s.TypeParams) != len(t.TypeParams) {
		return fail(fmt.Sprintf("generic arity %d does not match %d", len(s.TypeParams), len(t.TypeParams)))
	}
	return ok()
}

// checkObject decides structural width subtyping: every property t
// requires must be present and assignable on s. Excess properties on s are
// always allowed here — rejecting an object literal's excess properties is
// a separate, checked-position-only rule enforced by the inference layer
// (infer.checkObjectLitAgainst), not part of general assignability.
func (c *Checker) checkObject(s, t *types.ObjectType) Result {
	for name, tp := range t.Properties {
		sp, found := s.Properties[name]
		if !found {
			if s.Index != nil && compatibleIndexKey(name, s.Index.KeyKind) {
				if r := c.IsAssignable(s.Index.Value, tp.Type); !r.OK {
					return prepend(Step{PropertyOrIndex: name, SubSource: s.Index.Value, SubTarget: tp.Type}, r)
				}
				continue
			}
			if tp.Optional {
				continue
			}
			return failAt(Step{PropertyOrIndex: name, Reason: fmt.Sprintf("missing required property %q", name)})
		}
		if sp.Readonly && !tp.Readonly {
			// readonly source into a mutable target: the target view would
			// allow writes the source forbids, so this is rejected below.
		}
		if tp.Readonly && !sp.Readonly {
			// target demands readonly; a mutable source property still
			// satisfies it (readonly is a promise about the target view).
		}
		if !tp.Readonly && sp.Readonly {
			return failAt(Step{PropertyOrIndex: name, Reason: fmt.Sprintf("property %q is readonly but the target expects a mutable property", name)})
		}
		if r := c.IsAssignable(sp.Type, tp.Type); !r.OK {
			return prepend(Step{PropertyOrIndex: name, SubSource: sp.Type, SubTarget: tp.Type}, r)
		}
	}
	return ok()
}

func compatibleIndexKey(name string, kind types.IndexKeyKind) bool {
	if kind == types.IndexString {
		return true
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(name) > 0
}

// checkClass decides Class-to-Class assignability nominally: s must be t
// itself or a transitive subclass of it, walking the base-class chain.
// Class-to-Interface compatibility is structural and handled by the
// caller's fallback to asObject/checkObject, not here.
func (c *Checker) checkClass(s, t *types.ClassType) Result {
	for cur := s; cur != nil; {
		if cur == t {
			return ok()
		}
		if cur.Base == nil {
			break
		}
		resolved := c.env.Resolve(cur.Base)
		next, ok2 := resolved.(*types.ClassType)
		if !ok2 {
			break
		}
		cur = next
	}
	return fail(fmt.Sprintf("class %s is not %s nor a subclass of it", s.Name, t.Name))
}
