// Package surface defines the mutable AST the external parser contract
// (out of scope for this module — see spec.md §6) is expected to produce:
// source-spanned nodes distinguishing expressions, statements, type
// expressions, and patterns, with explicit markers for type-only import/
// export clauses and forward-declared interfaces.
package surface

import (
	"fmt"
	"strings"

	"github.com/lunac-lang/lunac/internal/source"
)

// Node is the base interface every AST node implements.
type Node interface {
	String() string
	Span() source.Span
}

// Expr is a value-producing AST node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement AST node.
type Stmt interface {
	Node
	stmtNode()
}

// TypeExpr is a syntactic type annotation, not yet resolved to a
// internal/types.Type (that is the inference visitor's job).
type TypeExpr interface {
	Node
	typeExprNode()
}

// Pattern is a destructuring/matching pattern, used by `switch` arms and
// (optionally) by declaration left-hand sides.
type Pattern interface {
	Node
	patternNode()
}

// File is a parsed module: its import/export clauses plus top-level
// statements in source order.
type File struct {
	Path       string
	Imports    []*ImportDecl
	Exports    []*ExportDecl
	Statements []Stmt
	span       source.Span
}

func (f *File) String() string { return fmt.Sprintf("file %s", f.Path) }
func (f *File) Span() source.Span { return f.span }

// --- Expressions ---

type Ident struct {
	Name source.ID
	span source.Span
}

func (i *Ident) exprNode()        {}
func (i *Ident) String() string   { return fmt.Sprintf("ident#%d", i.Name) }
func (i *Ident) Span() source.Span { return i.span }

type NumberLit struct {
	Value float64
	span  source.Span
}

func (n *NumberLit) exprNode()        {}
func (n *NumberLit) String() string   { return fmt.Sprintf("%v", n.Value) }
func (n *NumberLit) Span() source.Span { return n.span }

type StringLit struct {
	Value string
	span  source.Span
}

func (s *StringLit) exprNode()        {}
func (s *StringLit) String() string   { return fmt.Sprintf("%q", s.Value) }
func (s *StringLit) Span() source.Span { return s.span }

type BoolLit struct {
	Value bool
	span  source.Span
}

func (b *BoolLit) exprNode()        {}
func (b *BoolLit) String() string   { return fmt.Sprintf("%v", b.Value) }
func (b *BoolLit) Span() source.Span { return b.span }

type NilLit struct{ span source.Span }

func (n *NilLit) exprNode()        {}
func (n *NilLit) String() string   { return "nil" }
func (n *NilLit) Span() source.Span { return n.span }

// BinaryExpr covers arithmetic, string concat (`..`), equality, and
// logical `and`/`or`.
type BinaryExpr struct {
	Op        string
	Left, Right Expr
	span      source.Span
}

func (b *BinaryExpr) exprNode()        {}
func (b *BinaryExpr) String() string   { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (b *BinaryExpr) Span() source.Span { return b.span }

// UnaryExpr covers `not` and unary minus; `not` is the only unary form the
// narrowing engine treats as a guard (a `type(x)` guard is a CallExpr).
type UnaryExpr struct {
	Op      string
	Operand Expr
	span    source.Span
}

func (u *UnaryExpr) exprNode()        {}
func (u *UnaryExpr) String() string   { return fmt.Sprintf("(%s %s)", u.Op, u.Operand) }
func (u *UnaryExpr) Span() source.Span { return u.span }

// IsExpr is the `x is T` user-defined type-predicate test used as a guard.
type IsExpr struct {
	Subject Expr
	Target  TypeExpr
	span    source.Span
}

func (i *IsExpr) exprNode()        {}
func (i *IsExpr) String() string   { return fmt.Sprintf("(%s is %s)", i.Subject, i.Target) }
func (i *IsExpr) Span() source.Span { return i.span }

type CallExpr struct {
	Callee   Expr
	Args     []Expr
	TypeArgs []TypeExpr // explicit generic instantiation, e.g. id<number>(42)
	span     source.Span
}

func (c *CallExpr) exprNode()        {}
func (c *CallExpr) String() string   { return fmt.Sprintf("%s(...)", c.Callee) }
func (c *CallExpr) Span() source.Span { return c.span }

type MemberExpr struct {
	Object   Expr
	Property string
	Optional bool // `?.` chaining
	span     source.Span
}

func (m *MemberExpr) exprNode()        {}
func (m *MemberExpr) String() string   { return fmt.Sprintf("%s.%s", m.Object, m.Property) }
func (m *MemberExpr) Span() source.Span { return m.span }

type IndexExpr struct {
	Object Expr
	Index  Expr
	span   source.Span
}

func (i *IndexExpr) exprNode()        {}
func (i *IndexExpr) String() string   { return fmt.Sprintf("%s[%s]", i.Object, i.Index) }
func (i *IndexExpr) Span() source.Span { return i.span }

type ObjectLit struct {
	Fields []ObjectField
	span   source.Span
}

type ObjectField struct {
	Name  string
	Value Expr
}

func (o *ObjectLit) exprNode()        {}
func (o *ObjectLit) String() string   { return "{ ... }" }
func (o *ObjectLit) Span() source.Span { return o.span }

type ArrayLit struct {
	Elements []Expr
	span     source.Span
}

func (a *ArrayLit) exprNode()        {}
func (a *ArrayLit) String() string   { return "[ ... ]" }
func (a *ArrayLit) Span() source.Span { return a.span }

type FuncLit struct {
	Params     []*ParamDecl
	ReturnType TypeExpr // nil if inferred
	TypeParams []*TypeParamDecl
	Body       []Stmt
	span       source.Span
}

func (f *FuncLit) exprNode()        {}
func (f *FuncLit) String() string   { return "function(...)" }
func (f *FuncLit) Span() source.Span { return f.span }

type ParamDecl struct {
	Name     source.ID
	Type     TypeExpr // nil if inferred from a default/context
	Optional bool
	Rest     bool
	This     bool
	Default  Expr
}

type TypeParamDecl struct {
	Name       string
	Constraint TypeExpr
	Default    TypeExpr
	span       source.Span
}

func (t *TypeParamDecl) String() string   { return t.Name }
func (t *TypeParamDecl) Span() source.Span { return t.span }

// --- Statements ---

type LocalDecl struct {
	Name       source.ID
	Annotation TypeExpr // nil if uninferred from the right-hand side
	Value      Expr
	Const      bool
	span       source.Span
}

func (l *LocalDecl) stmtNode()        {}
func (l *LocalDecl) String() string   { return fmt.Sprintf("local #%d = %s", l.Name, l.Value) }
func (l *LocalDecl) Span() source.Span { return l.span }

type AssignStmt struct {
	Target Expr
	Value  Expr
	span   source.Span
}

func (a *AssignStmt) stmtNode()        {}
func (a *AssignStmt) String() string   { return fmt.Sprintf("%s = %s", a.Target, a.Value) }
func (a *AssignStmt) Span() source.Span { return a.span }

type ExprStmt struct {
	X    Expr
	span source.Span
}

func (e *ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string   { return e.X.String() }
func (e *ExprStmt) Span() source.Span { return e.span }

type ReturnStmt struct {
	Value Expr // nil for a bare `return`
	span  source.Span
}

func (r *ReturnStmt) stmtNode()        {}
func (r *ReturnStmt) String() string   { return "return" }
func (r *ReturnStmt) Span() source.Span { return r.span }

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if there is no else clause
	span source.Span
}

func (i *IfStmt) stmtNode()        {}
func (i *IfStmt) String() string   { return fmt.Sprintf("if %s ...", i.Cond) }
func (i *IfStmt) Span() source.Span { return i.span }

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	span source.Span
}

func (w *WhileStmt) stmtNode()        {}
func (w *WhileStmt) String() string   { return fmt.Sprintf("while %s ...", w.Cond) }
func (w *WhileStmt) Span() source.Span { return w.span }

// RepeatStmt is `repeat ... until cond` — the guard is checked after the
// body, so the narrowing engine evaluates it with the body's bindings
// still in scope.
type RepeatStmt struct {
	Body []Stmt
	Cond Expr
	span source.Span
}

func (r *RepeatStmt) stmtNode()        {}
func (r *RepeatStmt) String() string   { return "repeat ... until ..." }
func (r *RepeatStmt) Span() source.Span { return r.span }

type ForStmt struct {
	Var   source.ID
	Start Expr
	Stop  Expr
	Step  Expr // nil if implicitly 1
	Body  []Stmt
	span  source.Span
}

func (f *ForStmt) stmtNode()        {}
func (f *ForStmt) String() string   { return "for ... do ... end" }
func (f *ForStmt) Span() source.Span { return f.span }

type SwitchCase struct {
	Pattern Pattern // nil for the default/fallthrough case
	Body    []Stmt
}

type SwitchStmt struct {
	Subject Expr
	Cases   []SwitchCase
	span    source.Span
}

func (s *SwitchStmt) stmtNode()        {}
func (s *SwitchStmt) String() string   { return fmt.Sprintf("switch %s ...", s.Subject) }
func (s *SwitchStmt) Span() source.Span { return s.span }

type FuncDecl struct {
	Name       source.ID
	Params     []*ParamDecl
	ReturnType TypeExpr
	TypeParams []*TypeParamDecl
	Body       []Stmt
	Exported   bool
	span       source.Span
}

func (f *FuncDecl) stmtNode()        {}
func (f *FuncDecl) String() string   { return fmt.Sprintf("function #%d(...)", f.Name) }
func (f *FuncDecl) Span() source.Span { return f.span }

// FieldDecl is one class field with its visibility and optional default.
type FieldDecl struct {
	Name       string
	Type       TypeExpr
	Visibility string // "public", "protected", "private"
	Readonly   bool
	Optional   bool
	Default    Expr
	Static     bool
}

// MethodDecl is one class method, including constructors (Name == "constructor").
type MethodDecl struct {
	Name       string
	Params     []*ParamDecl
	ReturnType TypeExpr
	TypeParams []*TypeParamDecl
	Body       []Stmt
	Visibility string
	Static     bool
	Override   bool
	span       source.Span
}

func (m *MethodDecl) Span() source.Span { return m.span }

type ClassDecl struct {
	Name       source.ID
	TypeParams []*TypeParamDecl
	Base       *TypeRef // nil if no base class
	Implements []*TypeRef
	Fields     []*FieldDecl
	Methods    []*MethodDecl
	Exported   bool
	span       source.Span
}

func (c *ClassDecl) stmtNode()        {}
func (c *ClassDecl) String() string   { return fmt.Sprintf("class #%d", c.Name) }
func (c *ClassDecl) Span() source.Span { return c.span }

type InterfaceDecl struct {
	Name       source.ID
	TypeParams []*TypeParamDecl
	Extends    []*TypeRef
	Members    []*FieldDecl
	// ForwardDeclaration is set by the parser when the interface body is
	// syntactically empty (`interface Foo {}`), matching spec.md §6's
	// "empty interface bodies are marked as forward declarations" contract.
	ForwardDeclaration bool
	Exported           bool
	span               source.Span
}

func (i *InterfaceDecl) stmtNode()        {}
func (i *InterfaceDecl) String() string   { return fmt.Sprintf("interface #%d", i.Name) }
func (i *InterfaceDecl) Span() source.Span { return i.span }

type TypeAliasDecl struct {
	Name       source.ID
	TypeParams []*TypeParamDecl
	Value      TypeExpr
	Exported   bool
	span       source.Span
}

func (t *TypeAliasDecl) stmtNode()        {}
func (t *TypeAliasDecl) String() string   { return fmt.Sprintf("type #%d = %s", t.Name, t.Value) }
func (t *TypeAliasDecl) Span() source.Span { return t.span }

type EnumMemberDecl struct {
	Name  string
	Value Expr // nil for auto-increment members
}

type EnumDecl struct {
	Name     source.ID
	Members  []EnumMemberDecl
	IsString bool // true for a string enum, false for numeric auto-increment
	Exported bool
	span     source.Span
}

func (e *EnumDecl) stmtNode()        {}
func (e *EnumDecl) String() string   { return fmt.Sprintf("enum #%d", e.Name) }
func (e *EnumDecl) Span() source.Span { return e.span }

// --- Import/Export ---

// ImportSpecifier is one named binding in an import clause.
type ImportSpecifier struct {
	ImportedName string
	LocalName    source.ID
	// TypeOnly, when set, overrides the clause-level marker for this one
	// specifier (spec.md §4.10: "specifiers without a marker inherit the
	// clause's marker").
	TypeOnly *bool
	span     source.Span
}

func (s *ImportSpecifier) Span() source.Span { return s.span }

type ImportDecl struct {
	ModulePath string
	Specifiers []*ImportSpecifier
	// ClauseTypeOnly is true for `import type { ... } from "m"`.
	ClauseTypeOnly bool
	span           source.Span
}

func (i *ImportDecl) String() string   { return fmt.Sprintf("import ... from %q", i.ModulePath) }
func (i *ImportDecl) Span() source.Span { return i.span }

// EffectiveTypeOnly resolves whether one specifier is a type-only binding,
// applying the clause/specifier inheritance rule.
func (s *ImportSpecifier) EffectiveTypeOnly(clauseTypeOnly bool) bool {
	if s.TypeOnly != nil {
		return *s.TypeOnly
	}
	return clauseTypeOnly
}

// ExportKind distinguishes a local export from the two re-export shapes.
type ExportKind int

const (
	ExportLocal ExportKind = iota
	ExportReExportNamed
	ExportReExportWildcard
)

type ExportDecl struct {
	Kind         ExportKind
	LocalName    source.ID   // for ExportLocal
	ExportedName string      // external name (defaults to LocalName's text)
	SourceModule string      // for re-export kinds
	SourceName   string      // for ExportReExportNamed
	TypeOnly     bool
	span         source.Span
}

func (e *ExportDecl) String() string   { return fmt.Sprintf("export ... kind=%d", e.Kind) }
func (e *ExportDecl) Span() source.Span { return e.span }

// --- Type expressions ---

type TypeRef struct {
	Name     string
	TypeArgs []TypeExpr
	span     source.Span
}

func (t *TypeRef) typeExprNode()      {}
func (t *TypeRef) String() string     { return t.Name }
func (t *TypeRef) Span() source.Span  { return t.span }

type UnionTypeExpr struct {
	Members []TypeExpr
	span    source.Span
}

func (u *UnionTypeExpr) typeExprNode()     {}
func (u *UnionTypeExpr) Span() source.Span { return u.span }
func (u *UnionTypeExpr) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

type IntersectionTypeExpr struct {
	Members []TypeExpr
	span    source.Span
}

func (i *IntersectionTypeExpr) typeExprNode()     {}
func (i *IntersectionTypeExpr) Span() source.Span { return i.span }
func (i *IntersectionTypeExpr) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}

type ArrayTypeExpr struct {
	Element TypeExpr
	span    source.Span
}

func (a *ArrayTypeExpr) typeExprNode()      {}
func (a *ArrayTypeExpr) String() string     { return a.Element.String() + "[]" }
func (a *ArrayTypeExpr) Span() source.Span  { return a.span }

type TupleTypeExpr struct {
	Elements []TypeExpr
	Variadic TypeExpr
	span     source.Span
}

func (t *TupleTypeExpr) typeExprNode()     {}
func (t *TupleTypeExpr) String() string    { return "[...]" }
func (t *TupleTypeExpr) Span() source.Span { return t.span }

type ObjectTypeExpr struct {
	Fields []ObjectTypeField
	Index  *IndexSigExpr
	span   source.Span
}

type ObjectTypeField struct {
	Name       string
	Type       TypeExpr
	Optional   bool
	Readonly   bool
	Visibility string
}

type IndexSigExpr struct {
	KeyKind string // "string" or "number"
	Value   TypeExpr
}

func (o *ObjectTypeExpr) typeExprNode()     {}
func (o *ObjectTypeExpr) String() string    { return "{ ... }" }
func (o *ObjectTypeExpr) Span() source.Span { return o.span }

type FuncTypeExpr struct {
	Params     []*ParamDecl
	Return     TypeExpr
	TypeParams []*TypeParamDecl
	span       source.Span
}

func (f *FuncTypeExpr) typeExprNode()     {}
func (f *FuncTypeExpr) String() string    { return "(...) => ..." }
func (f *FuncTypeExpr) Span() source.Span { return f.span }

type LiteralTypeExpr struct {
	Kind  string // "number", "string", "boolean"
	Value any
	span  source.Span
}

func (l *LiteralTypeExpr) typeExprNode()     {}
func (l *LiteralTypeExpr) String() string    { return fmt.Sprintf("%v", l.Value) }
func (l *LiteralTypeExpr) Span() source.Span { return l.span }

// TypePredicateExpr is the `x is T` return-type annotation of a
// user-defined type guard function.
type TypePredicateExpr struct {
	Subject  string
	Narrowed TypeExpr
	span     source.Span
}

func (t *TypePredicateExpr) typeExprNode()     {}
func (t *TypePredicateExpr) String() string    { return fmt.Sprintf("%s is %s", t.Subject, t.Narrowed) }
func (t *TypePredicateExpr) Span() source.Span { return t.span }

type ConditionalTypeExpr struct {
	Check, Extends, Then, Else TypeExpr
	span                       source.Span
}

func (c *ConditionalTypeExpr) typeExprNode()     {}
func (c *ConditionalTypeExpr) String() string    { return "... extends ... ? ... : ..." }
func (c *ConditionalTypeExpr) Span() source.Span { return c.span }

type MappedTypeExpr struct {
	ParamName     string
	KeySource     TypeExpr
	ValueTemplate TypeExpr
	ReadonlyMod   int // 0 none, 1 add, 2 remove — mirrors types.MappedModifier
	OptionalMod   int
	KeyRemap      TypeExpr
	span          source.Span
}

func (m *MappedTypeExpr) typeExprNode()     {}
func (m *MappedTypeExpr) String() string    { return fmt.Sprintf("{ [%s in ...]: ... }", m.ParamName) }
func (m *MappedTypeExpr) Span() source.Span { return m.span }

type KeyofTypeExpr struct {
	Operand TypeExpr
	span    source.Span
}

func (k *KeyofTypeExpr) typeExprNode()     {}
func (k *KeyofTypeExpr) String() string    { return "keyof " + k.Operand.String() }
func (k *KeyofTypeExpr) Span() source.Span { return k.span }

type IndexedAccessTypeExpr struct {
	Object TypeExpr
	Key    TypeExpr
	span   source.Span
}

func (i *IndexedAccessTypeExpr) typeExprNode()     {}
func (i *IndexedAccessTypeExpr) String() string    { return i.Object.String() + "[" + i.Key.String() + "]" }
func (i *IndexedAccessTypeExpr) Span() source.Span { return i.span }

type ThisTypeExpr struct{ span source.Span }

func (t *ThisTypeExpr) typeExprNode()     {}
func (t *ThisTypeExpr) String() string    { return "this" }
func (t *ThisTypeExpr) Span() source.Span { return t.span }

// --- Patterns ---

// LiteralPattern matches a single literal value in a switch case.
type LiteralPattern struct {
	Value Expr
	span  source.Span
}

func (l *LiteralPattern) patternNode()     {}
func (l *LiteralPattern) String() string   { return l.Value.String() }
func (l *LiteralPattern) Span() source.Span { return l.span }

// TypePattern matches `case T:` over a discriminated union member.
type TypePattern struct {
	Type TypeExpr
	span source.Span
}

func (t *TypePattern) patternNode()     {}
func (t *TypePattern) String() string   { return t.Type.String() }
func (t *TypePattern) Span() source.Span { return t.span }

// BindingPattern binds the narrowed subject to a fresh name within the
// case body, used by `switch` discrimination on a tagged property.
type BindingPattern struct {
	Name source.ID
	Type TypeExpr
	span source.Span
}

func (b *BindingPattern) patternNode()     {}
func (b *BindingPattern) String() string   { return fmt.Sprintf("#%d: %s", b.Name, b.Type) }
func (b *BindingPattern) Span() source.Span { return b.span }
