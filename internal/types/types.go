// Package types is the algebraic type representation: one struct per
// variant, each implementing String/Equals/Hash, plus smart constructors
// that keep unions, intersections, and other composite shapes canonical.
// Constructors never fail — malformed shapes only surface once consumed by
// the assignability engine.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunac-lang/lunac/internal/source"
)

// Type is the closed interface implemented by every type-term variant.
type Type interface {
	// String renders the type the way it is shown verbatim in diagnostics.
	String() string
	// Equals is structural equality ignoring source spans.
	Equals(other Type) bool
	// Hash is a deterministic structural hash, used by the assignability
	// engine's memoization table and by union/intersection deduplication.
	Hash() uint64
	// Span returns the type term's originating source span, if any.
	Span() source.Span
}

// PrimitiveTag enumerates the built-in primitive kinds.
type PrimitiveTag string

const (
	PrimNil     PrimitiveTag = "nil"
	PrimBool    PrimitiveTag = "boolean"
	PrimNumber  PrimitiveTag = "number"
	PrimString  PrimitiveTag = "string"
	PrimAny     PrimitiveTag = "any"
	PrimUnknown PrimitiveTag = "unknown"
	PrimVoid    PrimitiveTag = "void"
	PrimNever   PrimitiveTag = "never"
)

// Primitive is one of the eight built-in atomic types.
type Primitive struct {
	Tag  PrimitiveTag
	span source.Span
}

func NewPrimitive(tag PrimitiveTag, span source.Span) *Primitive { return &Primitive{Tag: tag, span: span} }

func (p *Primitive) String() string     { return string(p.Tag) }
func (p *Primitive) Span() source.Span  { return p.span }
func (p *Primitive) Hash() uint64       { return hashString("prim:" + string(p.Tag)) }
func (p *Primitive) Equals(o Type) bool { op, ok := o.(*Primitive); return ok && op.Tag == p.Tag }

// Singleton instances for the primitives that carry no position of their
// own (used pervasively by the engines below); call NewPrimitive when a
// span matters, e.g. when echoing a user-written annotation.
var (
	Nil     = NewPrimitive(PrimNil, source.Span{})
	Bool    = NewPrimitive(PrimBool, source.Span{})
	Number  = NewPrimitive(PrimNumber, source.Span{})
	String  = NewPrimitive(PrimString, source.Span{})
	Any     = NewPrimitive(PrimAny, source.Span{})
	Unknown = NewPrimitive(PrimUnknown, source.Span{})
	Void    = NewPrimitive(PrimVoid, source.Span{})
	Never   = NewPrimitive(PrimNever, source.Span{})
)

// IsPrimitive reports whether t is the Primitive with the given tag.
func IsPrimitive(t Type, tag PrimitiveTag) bool {
	p, ok := t.(*Primitive)
	return ok && p.Tag == tag
}

// LiteralKind enumerates the value kinds a Literal type can wrap.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
)

// Literal is a singleton type over exactly one primitive value.
type Literal struct {
	Kind  LiteralKind
	Value any // float64, string, or bool matching Kind
	span  source.Span
}

func NewLiteral(kind LiteralKind, value any, span source.Span) *Literal {
	return &Literal{Kind: kind, Value: value, span: span}
}

func (l *Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return fmt.Sprintf("%q", l.Value)
	default:
		return fmt.Sprintf("%v", l.Value)
	}
}
func (l *Literal) Span() source.Span { return l.span }
func (l *Literal) Hash() uint64      { return hashString(fmt.Sprintf("lit:%d:%v", l.Kind, l.Value)) }
func (l *Literal) Equals(o Type) bool {
	ol, ok := o.(*Literal)
	return ok && ol.Kind == l.Kind && ol.Value == l.Value
}

// WidenLiteral returns the primitive a literal type widens to.
func WidenLiteral(l *Literal) *Primitive {
	switch l.Kind {
	case LiteralNumber:
		return Number
	case LiteralString:
		return String
	default:
		return Bool
	}
}

// Reference is a named-type lookup, resolved later by the type environment.
type Reference struct {
	Name     source.ID
	TypeArgs []Type
	span     source.Span
}

func NewReference(name source.ID, args []Type, span source.Span) *Reference {
	return &Reference{Name: name, TypeArgs: args, span: span}
}

func (r *Reference) String() string {
	if len(r.TypeArgs) == 0 {
		return fmt.Sprintf("ref#%d", r.Name)
	}
	parts := make([]string, len(r.TypeArgs))
	for i, a := range r.TypeArgs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("ref#%d<%s>", r.Name, strings.Join(parts, ", "))
}
func (r *Reference) Span() source.Span { return r.span }
func (r *Reference) Hash() uint64 {
	h := hashString(fmt.Sprintf("ref:%d", r.Name))
	for _, a := range r.TypeArgs {
		h = combineHash(h, a.Hash())
	}
	return h
}
func (r *Reference) Equals(o Type) bool {
	or, ok := o.(*Reference)
	if !ok || or.Name != r.Name || len(or.TypeArgs) != len(r.TypeArgs) {
		return false
	}
	for i := range r.TypeArgs {
		if !r.TypeArgs[i].Equals(or.TypeArgs[i]) {
			return false
		}
	}
	return true
}

// Visibility controls where an Object/Class member may be accessed from.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// Property describes one member of an Object type.
type Property struct {
	Name       string
	Type       Type
	Optional   bool
	Readonly   bool
	Visibility Visibility
}

// IndexKeyKind is the key type of an index signature.
type IndexKeyKind int

const (
	IndexString IndexKeyKind = iota
	IndexNumber
)

// IndexSignature describes `[key: string]: V` style catch-all members.
type IndexSignature struct {
	KeyKind IndexKeyKind
	Value   Type
}

// ObjectType is a structural record of named properties plus optional index
// and call/construct signatures.
type ObjectType struct {
	Properties  map[string]*Property
	Index       *IndexSignature
	Calls       []*FuncType
	Constructs  []*FuncType
	span        source.Span
}

func NewObjectType(props map[string]*Property, span source.Span) *ObjectType {
	if props == nil {
		props = map[string]*Property{}
	}
	return &ObjectType{Properties: props, span: span}
}

func (o *ObjectType) sortedNames() []string {
	names := make([]string, 0, len(o.Properties))
	for n := range o.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (o *ObjectType) String() string {
	var parts []string
	for _, name := range o.sortedNames() {
		p := o.Properties[name]
		opt := ""
		if p.Optional {
			opt = "?"
		}
		ro := ""
		if p.Readonly {
			ro = "readonly "
		}
		parts = append(parts, fmt.Sprintf("%s%s%s: %s", ro, name, opt, p.Type.String()))
	}
	if o.Index != nil {
		keyTy := "string"
		if o.Index.KeyKind == IndexNumber {
			keyTy = "number"
		}
		parts = append(parts, fmt.Sprintf("[key: %s]: %s", keyTy, o.Index.Value.String()))
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, "; "))
}
func (o *ObjectType) Span() source.Span { return o.span }

func (o *ObjectType) Hash() uint64 {
	h := hashString("obj")
	for _, name := range o.sortedNames() {
		p := o.Properties[name]
		h = combineHash(h, hashString(fmt.Sprintf("%s:%v:%v:%v", name, p.Optional, p.Readonly, p.Visibility)))
		h = combineHash(h, p.Type.Hash())
	}
	if o.Index != nil {
		h = combineHash(h, hashString(fmt.Sprintf("idx:%v", o.Index.KeyKind)))
		h = combineHash(h, o.Index.Value.Hash())
	}
	for _, c := range o.Calls {
		h = combineHash(h, c.Hash())
	}
	for _, c := range o.Constructs {
		h = combineHash(h, combineHash(c.Hash(), 1))
	}
	return h
}

func (o *ObjectType) Equals(other Type) bool {
	oo, ok := other.(*ObjectType)
	if !ok || len(oo.Properties) != len(o.Properties) {
		return false
	}
	for name, p := range o.Properties {
		op, ok := oo.Properties[name]
		if !ok || p.Optional != op.Optional || p.Readonly != op.Readonly || p.Visibility != op.Visibility {
			return false
		}
		if !p.Type.Equals(op.Type) {
			return false
		}
	}
	if (o.Index == nil) != (oo.Index == nil) {
		return false
	}
	if o.Index != nil && (o.Index.KeyKind != oo.Index.KeyKind || !o.Index.Value.Equals(oo.Index.Value)) {
		return false
	}
	if len(o.Calls) != len(oo.Calls) || len(o.Constructs) != len(oo.Constructs) {
		return false
	}
	for i := range o.Calls {
		if !o.Calls[i].Equals(oo.Calls[i]) {
			return false
		}
	}
	for i := range o.Constructs {
		if !o.Constructs[i].Equals(oo.Constructs[i]) {
			return false
		}
	}
	return true
}

// ArrayType is a homogeneous list type.
type ArrayType struct {
	Element Type
	span    source.Span
}

func NewArrayType(elem Type, span source.Span) *ArrayType { return &ArrayType{Element: elem, span: span} }

func (a *ArrayType) String() string     { return fmt.Sprintf("%s[]", a.Element.String()) }
func (a *ArrayType) Span() source.Span  { return a.span }
func (a *ArrayType) Hash() uint64       { return combineHash(hashString("array"), a.Element.Hash()) }
func (a *ArrayType) Equals(o Type) bool { oa, ok := o.(*ArrayType); return ok && a.Element.Equals(oa.Element) }

// TupleType is a fixed-arity sequence, with an optional trailing variadic
// element (spec.md §4.4 rule 6).
type TupleType struct {
	Elements  []Type
	Variadic  Type // nil if the tuple has no trailing rest element
	span      source.Span
}

func NewTupleType(elems []Type, variadic Type, span source.Span) *TupleType {
	return &TupleType{Elements: elems, Variadic: variadic, span: span}
}

func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	if t.Variadic != nil {
		parts = append(parts, "..."+t.Variadic.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
func (t *TupleType) Span() source.Span { return t.span }
func (t *TupleType) Hash() uint64 {
	h := hashString("tuple")
	for _, e := range t.Elements {
		h = combineHash(h, e.Hash())
	}
	if t.Variadic != nil {
		h = combineHash(h, combineHash(hashString("variadic"), t.Variadic.Hash()))
	}
	return h
}
func (t *TupleType) Equals(o Type) bool {
	ot, ok := o.(*TupleType)
	if !ok || len(ot.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if !t.Elements[i].Equals(ot.Elements[i]) {
			return false
		}
	}
	if (t.Variadic == nil) != (ot.Variadic == nil) {
		return false
	}
	return t.Variadic == nil || t.Variadic.Equals(ot.Variadic)
}

// Param is one entry in a function's parameter list.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool
	This     bool // true for an explicit `this` parameter (contravariant, spec.md rule 7)
}

// TypeParam is both the declaration-site binder and, by pointer identity,
// every reference to that binder inside its scope — matching spec.md's "a
// class symbol and its instance type share identity" invariant extended to
// type parameters.
type TypeParam struct {
	Name       string
	Constraint Type // nil if unconstrained
	Default    Type // nil if no default
	span       source.Span
}

func NewTypeParam(name string, constraint, def Type, span source.Span) *TypeParam {
	return &TypeParam{Name: name, Constraint: constraint, Default: def, span: span}
}

func (t *TypeParam) String() string     { return t.Name }
func (t *TypeParam) Span() source.Span  { return t.span }
func (t *TypeParam) Hash() uint64       { return hashString(fmt.Sprintf("tparam:%p", t)) }
func (t *TypeParam) Equals(o Type) bool { ot, ok := o.(*TypeParam); return ok && ot == t }

// FuncType is a function signature: parameters, return type, and its own
// generic parameter list (empty for non-generic functions).
type FuncType struct {
	Params     []*Param
	Return     Type
	TypeParams []*TypeParam
	span       source.Span
}

func NewFuncType(params []*Param, ret Type, typeParams []*TypeParam, span source.Span) *FuncType {
	return &FuncType{Params: params, Return: ret, TypeParams: typeParams, span: span}
}

func (f *FuncType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := p.Name
		if p.Rest {
			name = "..." + name
		}
		opt := ""
		if p.Optional {
			opt = "?"
		}
		parts[i] = fmt.Sprintf("%s%s: %s", name, opt, p.Type.String())
	}
	tp := ""
	if len(f.TypeParams) > 0 {
		names := make([]string, len(f.TypeParams))
		for i, t := range f.TypeParams {
			names[i] = t.Name
		}
		tp = fmt.Sprintf("<%s>", strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s(%s) => %s", tp, strings.Join(parts, ", "), f.Return.String())
}
func (f *FuncType) Span() source.Span { return f.span }
func (f *FuncType) Hash() uint64 {
	h := hashString(fmt.Sprintf("func:%d:%d", len(f.Params), len(f.TypeParams)))
	for _, p := range f.Params {
		h = combineHash(h, combineHash(hashString(fmt.Sprintf("%v:%v:%v", p.Optional, p.Rest, p.This)), p.Type.Hash()))
	}
	return combineHash(h, f.Return.Hash())
}
func (f *FuncType) Equals(o Type) bool {
	of, ok := o.(*FuncType)
	if !ok || len(of.Params) != len(f.Params) || len(of.TypeParams) != len(f.TypeParams) {
		return false
	}
	for i := range f.Params {
		a, b := f.Params[i], of.Params[i]
		if a.Optional != b.Optional || a.Rest != b.Rest || a.This != b.This || !a.Type.Equals(b.Type) {
			return false
		}
	}
	return f.Return.Equals(of.Return)
}

// UnionType is a canonical (flattened, deduplicated, ≥2-member) union.
// Use the Union smart constructor rather than this literal in most code.
type UnionType struct {
	Members []Type
	span    source.Span
}

func (u *UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (u *UnionType) Span() source.Span { return u.span }
func (u *UnionType) Hash() uint64 {
	// Order-independent: sum hashes so canonicalization order never matters.
	var sum uint64
	for _, m := range u.Members {
		sum += m.Hash()
	}
	return combineHash(hashString("union"), sum)
}
func (u *UnionType) Equals(o Type) bool {
	ou, ok := o.(*UnionType)
	if !ok || len(ou.Members) != len(u.Members) {
		return false
	}
	return sameMemberSet(u.Members, ou.Members)
}

// IntersectionType is a canonical (flattened, deduplicated, ≥2-member)
// intersection. Use the Intersection smart constructor elsewhere.
type IntersectionType struct {
	Members []Type
	span    source.Span
}

func (i *IntersectionType) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (i *IntersectionType) Span() source.Span { return i.span }
func (i *IntersectionType) Hash() uint64 {
	var sum uint64
	for _, m := range i.Members {
		sum += m.Hash()
	}
	return combineHash(hashString("isect"), sum)
}
func (i *IntersectionType) Equals(o Type) bool {
	oi, ok := o.(*IntersectionType)
	if !ok || len(oi.Members) != len(i.Members) {
		return false
	}
	return sameMemberSet(i.Members, oi.Members)
}

// Union builds a canonical union: flattens nested unions, deduplicates
// members under structural equivalence, drops `never` (it never
// contributes possibilities), collapses to `any` if any member is `any`,
// and collapses a singleton result to its one member.
func Union(members []Type, span source.Span) Type {
	flat := flattenUnion(members)
	var deduped []Type
	for _, m := range flat {
		if IsPrimitive(m, PrimAny) {
			return Any
		}
		if IsPrimitive(m, PrimNever) {
			continue
		}
		if !containsEqual(deduped, m) {
			deduped = append(deduped, m)
		}
	}
	switch len(deduped) {
	case 0:
		return Never
	case 1:
		return deduped[0]
	default:
		return &UnionType{Members: deduped, span: span}
	}
}

func flattenUnion(members []Type) []Type {
	var out []Type
	for _, m := range members {
		if u, ok := m.(*UnionType); ok {
			out = append(out, flattenUnion(u.Members)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

// Intersection builds a canonical intersection: flattens nested
// intersections, deduplicates members, collapses to `never` if any member
// is `never`, collapses to `any` if any member is `any`, and collapses a
// singleton result to its one member.
func Intersection(members []Type, span source.Span) Type {
	flat := flattenIntersection(members)
	var deduped []Type
	sawAny := false
	for _, m := range flat {
		if IsPrimitive(m, PrimNever) {
			return Never
		}
		if IsPrimitive(m, PrimAny) {
			sawAny = true
			continue
		}
		if !containsEqual(deduped, m) {
			deduped = append(deduped, m)
		}
	}
	if sawAny {
		return Any
	}
	switch len(deduped) {
	case 0:
		return Any
	case 1:
		return deduped[0]
	default:
		return &IntersectionType{Members: deduped, span: span}
	}
}

func flattenIntersection(members []Type) []Type {
	var out []Type
	for _, m := range members {
		if i, ok := m.(*IntersectionType); ok {
			out = append(out, flattenIntersection(i.Members)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

func containsEqual(xs []Type, t Type) bool {
	for _, x := range xs {
		if x.Equals(t) {
			return true
		}
	}
	return false
}

func sameMemberSet(a, b []Type) bool {
	used := make([]bool, len(b))
	for _, m := range a {
		found := false
		for j, o := range b {
			if !used[j] && m.Equals(o) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TypePredicate is the return type of a user-defined type guard:
// `function f(x: T): x is U`.
type TypePredicate struct {
	Subject  string
	Narrowed Type
	span     source.Span
}

func NewTypePredicate(subject string, narrowed Type, span source.Span) *TypePredicate {
	return &TypePredicate{Subject: subject, Narrowed: narrowed, span: span}
}

func (t *TypePredicate) String() string { return fmt.Sprintf("%s is %s", t.Subject, t.Narrowed.String()) }
func (t *TypePredicate) Span() source.Span { return t.span }
func (t *TypePredicate) Hash() uint64 {
	return combineHash(hashString("predicate:"+t.Subject), t.Narrowed.Hash())
}
func (t *TypePredicate) Equals(o Type) bool {
	ot, ok := o.(*TypePredicate)
	return ok && ot.Subject == t.Subject && ot.Narrowed.Equals(t.Narrowed)
}

// Conditional is `Check extends Extends ? Then : Else`.
type Conditional struct {
	Check   Type
	Extends Type
	Then    Type
	Else    Type
	span    source.Span
}

func NewConditional(check, extends, then, els Type, span source.Span) *Conditional {
	return &Conditional{Check: check, Extends: extends, Then: then, Else: els, span: span}
}

func (c *Conditional) String() string {
	return fmt.Sprintf("%s extends %s ? %s : %s", c.Check, c.Extends, c.Then, c.Else)
}
func (c *Conditional) Span() source.Span { return c.span }
func (c *Conditional) Hash() uint64 {
	h := hashString("cond")
	for _, t := range []Type{c.Check, c.Extends, c.Then, c.Else} {
		h = combineHash(h, t.Hash())
	}
	return h
}
func (c *Conditional) Equals(o Type) bool {
	oc, ok := o.(*Conditional)
	return ok && c.Check.Equals(oc.Check) && c.Extends.Equals(oc.Extends) &&
		c.Then.Equals(oc.Then) && c.Else.Equals(oc.Else)
}

// MappedModifier tracks a ±readonly or ±optional modifier on a Mapped type.
type MappedModifier int

const (
	ModifierNone MappedModifier = iota
	ModifierAdd
	ModifierRemove
)

// Mapped is `{ [K in KeySource as KeyRemap?]: ValueTemplate }` with
// optional readonly/optional modifiers.
type Mapped struct {
	KeySource       Type
	ValueTemplate   Type
	ReadonlyMod     MappedModifier
	OptionalMod     MappedModifier
	KeyRemap        Type // nil if no `as` clause
	span            source.Span
}

func NewMapped(keySource, valueTemplate Type, readonlyMod, optionalMod MappedModifier, keyRemap Type, span source.Span) *Mapped {
	return &Mapped{KeySource: keySource, ValueTemplate: valueTemplate, ReadonlyMod: readonlyMod, OptionalMod: optionalMod, KeyRemap: keyRemap, span: span}
}

func (m *Mapped) String() string {
	return fmt.Sprintf("{ [K in %s]: %s }", m.KeySource.String(), m.ValueTemplate.String())
}
func (m *Mapped) Span() source.Span { return m.span }
func (m *Mapped) Hash() uint64 {
	h := hashString(fmt.Sprintf("mapped:%d:%d", m.ReadonlyMod, m.OptionalMod))
	h = combineHash(h, m.KeySource.Hash())
	h = combineHash(h, m.ValueTemplate.Hash())
	if m.KeyRemap != nil {
		h = combineHash(h, m.KeyRemap.Hash())
	}
	return h
}
func (m *Mapped) Equals(o Type) bool {
	om, ok := o.(*Mapped)
	if !ok || m.ReadonlyMod != om.ReadonlyMod || m.OptionalMod != om.OptionalMod {
		return false
	}
	if !m.KeySource.Equals(om.KeySource) || !m.ValueTemplate.Equals(om.ValueTemplate) {
		return false
	}
	if (m.KeyRemap == nil) != (om.KeyRemap == nil) {
		return false
	}
	return m.KeyRemap == nil || m.KeyRemap.Equals(om.KeyRemap)
}

// KeyofType is `keyof Operand`, evaluated lazily by the type environment.
type KeyofType struct {
	Operand Type
	span    source.Span
}

func NewKeyofType(operand Type, span source.Span) *KeyofType { return &KeyofType{Operand: operand, span: span} }

func (k *KeyofType) String() string     { return fmt.Sprintf("keyof %s", k.Operand.String()) }
func (k *KeyofType) Span() source.Span  { return k.span }
func (k *KeyofType) Hash() uint64       { return combineHash(hashString("keyof"), k.Operand.Hash()) }
func (k *KeyofType) Equals(o Type) bool { ok2, ok := o.(*KeyofType); return ok && k.Operand.Equals(ok2.Operand) }

// IndexedAccessType is `Object[Key]`, evaluated lazily.
type IndexedAccessType struct {
	Object Type
	Key    Type
	span   source.Span
}

func NewIndexedAccessType(obj, key Type, span source.Span) *IndexedAccessType {
	return &IndexedAccessType{Object: obj, Key: key, span: span}
}

func (i *IndexedAccessType) String() string { return fmt.Sprintf("%s[%s]", i.Object.String(), i.Key.String()) }
func (i *IndexedAccessType) Span() source.Span { return i.span }
func (i *IndexedAccessType) Hash() uint64 {
	return combineHash(combineHash(hashString("idxaccess"), i.Object.Hash()), i.Key.Hash())
}
func (i *IndexedAccessType) Equals(o Type) bool {
	oi, ok := o.(*IndexedAccessType)
	return ok && i.Object.Equals(oi.Object) && i.Key.Equals(oi.Key)
}

// ClassType is a nominal class: its instance type and its symbol share
// identity via pointer equality, satisfying spec.md's class-identity
// invariant without a separate registry lookup on every comparison.
type ClassType struct {
	Name          string
	TypeParams    []*TypeParam
	Base          *Reference // nil if no base class
	Implements    []*Reference
	Members       *ObjectType
	StaticMembers *ObjectType
	span          source.Span
}

func (c *ClassType) String() string     { return c.Name }
func (c *ClassType) Span() source.Span  { return c.span }
func (c *ClassType) Hash() uint64       { return hashString(fmt.Sprintf("class:%p", c)) }
func (c *ClassType) Equals(o Type) bool { oc, ok := o.(*ClassType); return ok && oc == c }

// InterfaceType is a structural contract; two interfaces with identical
// shape but different declared names are still distinct Reference targets,
// but assignability treats them structurally (spec.md rule 8).
type InterfaceType struct {
	Name       string
	TypeParams []*TypeParam
	Extends    []*Reference
	Members    *ObjectType
	span       source.Span
}

func (i *InterfaceType) String() string     { return i.Name }
func (i *InterfaceType) Span() source.Span  { return i.span }
func (i *InterfaceType) Hash() uint64       { return hashString(fmt.Sprintf("iface:%p", i)) }
func (i *InterfaceType) Equals(o Type) bool { oi, ok := o.(*InterfaceType); return ok && oi == i }

// IsForwardDeclaration reports whether i is an empty body with no type
// parameters and no extends clause — the only shape the type environment
// permits to later merge with a non-empty body (spec.md §4.3).
func (i *InterfaceType) IsForwardDeclaration() bool {
	return len(i.TypeParams) == 0 && len(i.Extends) == 0 && i.Members != nil && len(i.Members.Properties) == 0 &&
		i.Members.Index == nil && len(i.Members.Calls) == 0 && len(i.Members.Constructs) == 0
}

// EnumMember is one named entry of an Enum.
type EnumMember struct {
	Name  string
	Value any // int64 or string
}

// EnumType is an ordered set of named numeric or string constants.
type EnumType struct {
	Name    string
	Members []EnumMember
	span    source.Span
}

func (e *EnumType) String() string     { return e.Name }
func (e *EnumType) Span() source.Span  { return e.span }
func (e *EnumType) Hash() uint64       { return hashString(fmt.Sprintf("enum:%p", e)) }
func (e *EnumType) Equals(o Type) bool { oe, ok := o.(*EnumType); return ok && oe == e }

// ThisType is the polymorphic receiver marker used in method signatures.
type ThisType struct {
	span source.Span
}

func NewThisType(span source.Span) *ThisType { return &ThisType{span: span} }

func (t *ThisType) String() string     { return "this" }
func (t *ThisType) Span() source.Span  { return t.span }
func (t *ThisType) Hash() uint64       { return hashString("this") }
func (t *ThisType) Equals(o Type) bool { _, ok := o.(*ThisType); return ok }

// hashString and combineHash implement FNV-1a, giving every type variant a
// deterministic structural hash without pulling in a hashing library the
// corpus never uses for this purpose.
func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func combineHash(a, b uint64) uint64 {
	return (a * 1099511628211) ^ b
}
