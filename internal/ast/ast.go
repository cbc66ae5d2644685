// Package ast defines the typed, span-carrying syntax tree produced by the
// parser (spec §3 "AST").
package ast

import "github.com/skepa-lang/skepa/internal/diag"

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the parsed contents of a single source file: its import
// declarations, export declarations, struct/impl/function declarations,
// and top-level globals, each in source order.
type Program struct {
	Imports   []*Import
	Exports   []*Export
	Structs   []*StructDecl
	Impls     []*ImplDecl
	Functions []*FuncDecl
	Globals   []*LetStmt

	SpanValue diag.Span
}

func (p *Program) Span() diag.Span { return p.SpanValue }

// ---- Types ----------------------------------------------------------------

// TypeKind discriminates TypeName variants.
type TypeKind int

const (
	TyInt TypeKind = iota
	TyFloat
	TyBool
	TyString
	TyVoid
	TyNamed
	TyArray
	TyFn
	TyUnknown
)

// TypeName is the AST-level (unresolved) representation of a type
// annotation: a primitive, a user-defined (possibly dotted/qualified)
// name, a fixed-size array, or an arrow function type.
type TypeName struct {
	Kind TypeKind

	Named string // TyNamed: "Counter" or "utils.Counter"

	Elem *TypeName // TyArray
	Size int       // TyArray: fixed size

	Params []*TypeName // TyFn
	Ret    *TypeName   // TyFn

	SpanValue diag.Span
}

func (t *TypeName) Span() diag.Span { return t.SpanValue }

func (t *TypeName) String() string {
	switch t.Kind {
	case TyInt:
		return "Int"
	case TyFloat:
		return "Float"
	case TyBool:
		return "Bool"
	case TyString:
		return "String"
	case TyVoid:
		return "Void"
	case TyNamed:
		return t.Named
	case TyArray:
		return "[" + t.Elem.String() + "]"
	case TyFn:
		s := "("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.Ret.String()
	default:
		return "?"
	}
}

// ---- Imports / Exports ------------------------------------------------------

// ImportKind discriminates the three import forms of spec §4.2.
type ImportKind int

const (
	// ImportNamespace is `import a.b.c;` or `import a.b.c as alias;`.
	ImportNamespace ImportKind = iota
	// ImportFrom is `from a.b.c import x, y as z, ...;`.
	ImportFrom
	// ImportFromWildcard is `from a.b.c import *;`.
	ImportFromWildcard
)

// ImportItem is one named binding in a `from ... import` list.
type ImportItem struct {
	Name  string
	Alias string // "" if no alias
}

// Import is a single import declaration.
type Import struct {
	Kind ImportKind

	Path []string // dotted path components, e.g. ["utils","math"]

	// ImportNamespace only.
	Alias string // "" => local namespace is Path[0]

	// ImportFrom only.
	Items []ImportItem

	SpanValue diag.Span
}

func (i *Import) Span() diag.Span { return i.SpanValue }

// ExportKind discriminates the three export forms of spec §4.2.
type ExportKind int

const (
	// ExportLocal is `export { a, b as c };`.
	ExportLocal ExportKind = iota
	// ExportReexport is `export { x, y } from path;`.
	ExportReexport
	// ExportReexportWildcard is `export * from path;`.
	ExportReexportWildcard
)

// ExportItem is one `name` or `name as alias` entry in an export list.
type ExportItem struct {
	Name  string
	Alias string // "" if no alias
}

// Export is a single export declaration.
type Export struct {
	Kind  ExportKind
	Items []ExportItem
	From  []string // dotted path, set for ExportReexport/ExportReexportWildcard

	SpanValue diag.Span
}

func (e *Export) Span() diag.Span { return e.SpanValue }

// ---- Structs / Impls --------------------------------------------------------

// Field is one struct field declaration.
type Field struct {
	Name string
	Type *TypeName
}

// StructDecl declares a struct type and its fields, in declaration order.
type StructDecl struct {
	Name      string
	Fields    []Field
	SpanValue diag.Span
}

func (s *StructDecl) Span() diag.Span { return s.SpanValue }

// ImplDecl declares the methods attached to a struct (possibly an
// imported struct; spec §4.3 "impls of imported structs").
type ImplDecl struct {
	Target    string
	Methods   []*FuncDecl
	SpanValue diag.Span
}

func (i *ImplDecl) Span() diag.Span { return i.SpanValue }

// ---- Functions ---------------------------------------------------------------

// Param is one function/method parameter.
type Param struct {
	Name string
	Type *TypeName
}

// FuncDecl is a top-level function or (inside an ImplDecl) a method. The
// first parameter of a method is always named "self".
type FuncDecl struct {
	Name      string
	Params    []Param
	Ret       *TypeName // nil => Void
	Body      *Block
	SpanValue diag.Span
}

func (f *FuncDecl) Span() diag.Span { return f.SpanValue }

// Block is an ordered list of statements delimited by braces.
type Block struct {
	Stmts     []Stmt
	SpanValue diag.Span
}

func (b *Block) Span() diag.Span { return b.SpanValue }
