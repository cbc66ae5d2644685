// Package bytecode defines the lowered representation the semantic
// analyzer's output is compiled into: a tagged Value model, an
// instruction set, per-function chunks, and a binary codec for persisting
// a compiled module (spec §4.4, §4.6). The lowering pass from AST to
// chunks lives in internal/lowering.
package bytecode

import "fmt"

// ValueKind discriminates the variants of a Value (spec §3 "Values
// carried on the VM stack").
type ValueKind byte

const (
	VInt ValueKind = iota
	VFloat
	VBool
	VString
	VArray
	VStruct
	VFunction
	VVecHandle
	VUnit
)

// StructShape is the reference-counted identity+layout shared by every
// Struct value of the same type; Value.Struct instances sharing a Shape
// pointer compare structurally equal without re-walking field names.
type StructShape struct {
	Name       string
	FieldNames []string
}

// Value is a single VM stack slot (spec §3). Arrays and Structs are
// immutable from the bytecode's point of view; ArraySet/StructSetPath
// allocate fresh copies rather than mutating in place (spec §5 "value
// semantic").
type Value struct {
	Kind ValueKind

	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Arr    []Value
	Shape  *StructShape
	Fields []Value
	FnName string
	VecID  uint64
}

func Int64(v int64) Value      { return Value{Kind: VInt, Int: v} }
func Float64(v float64) Value  { return Value{Kind: VFloat, Float: v} }
func Bool_(v bool) Value       { return Value{Kind: VBool, Bool: v} }
func Str_(v string) Value      { return Value{Kind: VString, Str: v} }
func Array_(v []Value) Value   { return Value{Kind: VArray, Arr: v} }
func Function(name string) Value { return Value{Kind: VFunction, FnName: name} }
func VecHandle(id uint64) Value { return Value{Kind: VVecHandle, VecID: id} }

var Unit = Value{Kind: VUnit}

// Struct builds a Struct value; fields must already be in shape order.
func Struct(shape *StructShape, fields []Value) Value {
	return Value{Kind: VStruct, Shape: shape, Fields: fields}
}

func (v Value) String() string {
	switch v.Kind {
	case VInt:
		return fmt.Sprintf("%d", v.Int)
	case VFloat:
		return fmt.Sprintf("%g", v.Float)
	case VBool:
		return fmt.Sprintf("%t", v.Bool)
	case VString:
		return v.Str
	case VArray:
		return fmt.Sprintf("%v", v.Arr)
	case VStruct:
		return fmt.Sprintf("%s%v", v.Shape.Name, v.Fields)
	case VFunction:
		return "fn:" + v.FnName
	case VVecHandle:
		return fmt.Sprintf("vec#%d", v.VecID)
	case VUnit:
		return "()"
	default:
		return "?"
	}
}

// Equal reports value equality (spec §4.4 "Eq/Neq forbid Function
// operands" is enforced by the VM before calling Equal, not here).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VInt:
		return a.Int == b.Int
	case VFloat:
		return a.Float == b.Float
	case VBool:
		return a.Bool == b.Bool
	case VString:
		return a.Str == b.Str
	case VUnit:
		return true
	case VVecHandle:
		return a.VecID == b.VecID
	case VArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case VStruct:
		if a.Shape.Name != b.Shape.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case VFunction:
		return a.FnName == b.FnName
	default:
		return false
	}
}

// CloneArraySet returns a fresh array equal to arr with index idx
// replaced by v, leaving arr untouched (spec §5 "structural sharing").
func CloneArraySet(arr []Value, idx int, v Value) []Value {
	out := make([]Value, len(arr))
	copy(out, arr)
	out[idx] = v
	return out
}

// CloneStructSet returns a fresh Struct equal to s with field idx
// replaced by v.
func CloneStructSet(s Value, idx int, v Value) Value {
	fields := make([]Value, len(s.Fields))
	copy(fields, s.Fields)
	fields[idx] = v
	return Value{Kind: VStruct, Shape: s.Shape, Fields: fields}
}
