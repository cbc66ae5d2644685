// Package types implements the whole-program semantic analyzer: a
// per-module Checker that type-checks structs, impls, functions, and
// globals against local and externally-supplied (cross-module) context
// (spec §4.3).
package types

import "fmt"

// Kind discriminates the variants of a resolved TypeInfo.
type Kind int

const (
	KInt Kind = iota
	KFloat
	KBool
	KString
	KVoid
	KNamed
	KArray
	KFn
	KVec
	KUnknown
)

// Type is a resolved type, as opposed to ast.TypeName which is the
// unresolved syntactic annotation (spec §3 "TypeInfo"). Unknown
// propagates silently to suppress cascading diagnostics once one error
// has already been reported for an expression.
type Type struct {
	Kind Kind

	Named string // KNamed: struct name, the declaring module's local name or the name as annotated

	Elem *Type // KArray
	Size int   // KArray

	Params []*Type // KFn
	Ret    *Type   // KFn
}

var (
	Int     = &Type{Kind: KInt}
	Float   = &Type{Kind: KFloat}
	Bool    = &Type{Kind: KBool}
	String  = &Type{Kind: KString}
	Void    = &Type{Kind: KVoid}
	Vec     = &Type{Kind: KVec}
	Unknown = &Type{Kind: KUnknown}
)

// Array builds an [elem; size] array type.
func Array(elem *Type, size int) *Type { return &Type{Kind: KArray, Elem: elem, Size: size} }

// Named builds a reference to a user struct by name. Struct literals and
// method receivers use the struct's local name in its declaring module;
// a type annotation keeps the name as written. No module-id prefix is
// added.
func Named(name string) *Type { return &Type{Kind: KNamed, Named: name} }

// Fn builds a function-value type.
func Fn(params []*Type, ret *Type) *Type { return &Type{Kind: KFn, Params: params, Ret: ret} }

// Equal reports structural equality. Unknown is never equal to anything
// (including itself) through this method; callers that want to permit
// Unknown to suppress a cascade check for it explicitly (spec §4.3).
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind == KUnknown || b.Kind == KUnknown {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNamed:
		return a.Named == b.Named
	case KArray:
		return a.Size == b.Size && Equal(a.Elem, b.Elem)
	case KFn:
		if len(a.Params) != len(b.Params) || !Equal(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsUnknown reports whether t suppresses cascade checks.
func IsUnknown(t *Type) bool { return t == nil || t.Kind == KUnknown }

// IsNumeric reports whether t is Int or Float.
func IsNumeric(t *Type) bool { return t != nil && (t.Kind == KInt || t.Kind == KFloat) }

func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KBool:
		return "Bool"
	case KString:
		return "String"
	case KVoid:
		return "Void"
	case KVec:
		return "Vec"
	case KNamed:
		return t.Named
	case KArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Size)
	case KFn:
		s := "("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.Ret.String()
	default:
		return "Unknown"
	}
}
