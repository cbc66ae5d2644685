package ast

import "github.com/skepa-lang/skepa/internal/diag"

func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*Ident) exprNode()       {}
func (*QualifiedExpr) exprNode() {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*CallExpr) exprNode()    {}
func (*FieldExpr) exprNode()   {}
func (*IndexExpr) exprNode()   {}
func (*GroupExpr) exprNode()   {}
func (*ArrayLit) exprNode()    {}
func (*ArrayRepeatExpr) exprNode() {}
func (*StructLit) exprNode()   {}
func (*FuncLit) exprNode()     {}

// IntLit is an integer literal.
type IntLit struct {
	Value     int64
	SpanValue diag.Span
}

func (e *IntLit) Span() diag.Span { return e.SpanValue }

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value     float64
	SpanValue diag.Span
}

func (e *FloatLit) Span() diag.Span { return e.SpanValue }

// StringLit is a string literal with escapes already decoded (spec §4.1).
type StringLit struct {
	Value     string
	SpanValue diag.Span
}

func (e *StringLit) Span() diag.Span { return e.SpanValue }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value     bool
	SpanValue diag.Span
}

func (e *BoolLit) Span() diag.Span { return e.SpanValue }

// Ident is a bare identifier reference: a local, global, function, or
// imported namespace alias.
type Ident struct {
	Name      string
	SpanValue diag.Span
}

func (e *Ident) Span() diag.Span { return e.SpanValue }

// QualifiedExpr is a dotted path `ns.a.b` used to reach into an imported
// namespace or a builtin package (spec §4.2, §4.3). Parsed as a flat
// list of segments; the checker decides whether it denotes a namespace
// member, a builtin call target, or (after the first segment) a chain of
// field accesses once resolution bottoms out at a value.
type QualifiedExpr struct {
	Segments  []string
	SpanValue diag.Span
}

func (e *QualifiedExpr) Span() diag.Span { return e.SpanValue }

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryPos
	UnaryNot
)

// UnaryExpr is `op x`.
type UnaryExpr struct {
	Op        UnaryOp
	X         Expr
	SpanValue diag.Span
}

func (e *UnaryExpr) Span() diag.Span { return e.SpanValue }

// BinaryOp enumerates binary operators, ordered low-to-high by the
// precedence table in spec §4.1.
type BinaryOp int

const (
	BinOr BinaryOp = iota
	BinAnd
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
)

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Op        BinaryOp
	Left      Expr
	Right     Expr
	SpanValue diag.Span
}

func (e *BinaryExpr) Span() diag.Span { return e.SpanValue }

// CallExpr is `callee(args...)`. Callee is an Ident (local/global/imported
// function), a QualifiedExpr (namespace or builtin package call), or a
// FieldExpr (method call on a receiver expression).
type CallExpr struct {
	Callee    Expr
	Args      []Expr
	SpanValue diag.Span
}

func (e *CallExpr) Span() diag.Span { return e.SpanValue }

// FieldExpr is `x.name`: a struct field read, or (when followed by a
// call) the callee of a method call.
type FieldExpr struct {
	X         Expr
	Name      string
	SpanValue diag.Span
}

func (e *FieldExpr) Span() diag.Span { return e.SpanValue }

// IndexExpr is `x[index]`.
type IndexExpr struct {
	X         Expr
	Index     Expr
	SpanValue diag.Span
}

func (e *IndexExpr) Span() diag.Span { return e.SpanValue }

// GroupExpr is a parenthesized sub-expression, kept distinct so later
// passes never need to special-case losing the parens.
type GroupExpr struct {
	X         Expr
	SpanValue diag.Span
}

func (e *GroupExpr) Span() diag.Span { return e.SpanValue }

// ArrayLit is `[e1, e2, ...]`. Empty array literals are rejected by the
// parser or checker (spec §4.3: "use [value; size]").
type ArrayLit struct {
	Elems     []Expr
	SpanValue diag.Span
}

func (e *ArrayLit) Span() diag.Span { return e.SpanValue }

// ArrayRepeatExpr is `[value; size]`.
type ArrayRepeatExpr struct {
	Value     Expr
	Size      Expr
	SpanValue diag.Span
}

func (e *ArrayRepeatExpr) Span() diag.Span { return e.SpanValue }

// StructFieldInit is one `name: value` entry in a StructLit.
type StructFieldInit struct {
	Name  string
	Value Expr
}

// StructLit is `Name { field: value, ... }`.
type StructLit struct {
	Name      string
	Fields    []StructFieldInit
	SpanValue diag.Span
}

func (e *StructLit) Span() diag.Span { return e.SpanValue }

// FuncLit is an anonymous, non-capturing function literal (spec §4.3,
// §9 "Closures"): `fn(params) -> ret { body }`.
type FuncLit struct {
	Params    []Param
	Ret       *TypeName
	Body      *Block
	SpanValue diag.Span
}

func (e *FuncLit) Span() diag.Span { return e.SpanValue }
