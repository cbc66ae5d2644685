package types

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/module"
)

// StructInfo describes one struct's field shape.
type StructInfo struct {
	ModuleID module.Id
	Name     string // local name in its declaring module
	Fields   []FieldInfo
}

// FieldInfo is one struct field's name and resolved type.
type FieldInfo struct {
	Name string
	Type *Type
}

// FieldIndex returns the declaration-order index of a field, or -1.
func (s *StructInfo) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FuncSig is a top-level function's signature.
type FuncSig struct {
	ModuleID module.Id
	Name     string
	Params   []*Type
	Ret      *Type
}

// MethodSig is one method's signature, Params excluding the implicit self.
type MethodSig struct {
	ModuleID module.Id
	Struct   string // local struct name in the declaring module
	Name     string
	Params   []*Type
	Ret      *Type
}

// LocalInfo is everything a Checker pre-populates from a single module's
// own AST, before any cross-module context is applied (spec §4.3).
type LocalInfo struct {
	Structs map[string]*StructInfo
	Funcs   map[string]*FuncSig
	Methods map[string]map[string]*MethodSig // struct name -> method name -> sig
	Globals map[string]*Type
}

// buildLocalInfo scans u's own declarations. Type annotations are
// resolved structurally; Named references are left as bare names here
// and validated against the full (local+external) struct set during
// body checking.
func buildLocalInfo(u *module.Unit) *LocalInfo {
	li := &LocalInfo{
		Structs: map[string]*StructInfo{},
		Funcs:   map[string]*FuncSig{},
		Methods: map[string]map[string]*MethodSig{},
		Globals: map[string]*Type{},
	}

	for _, s := range u.Program.Structs {
		info := &StructInfo{ModuleID: u.ID, Name: s.Name}
		for _, f := range s.Fields {
			info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: resolveTypeName(f.Type)})
		}
		li.Structs[s.Name] = info
	}

	for _, f := range u.Program.Functions {
		li.Funcs[f.Name] = &FuncSig{ModuleID: u.ID, Name: f.Name, Params: paramTypes(f.Params), Ret: retType(f.Ret)}
	}

	for _, impl := range u.Program.Impls {
		methods := li.Methods[impl.Target]
		if methods == nil {
			methods = map[string]*MethodSig{}
			li.Methods[impl.Target] = methods
		}
		for _, m := range impl.Methods {
			params := m.Params
			if len(params) > 0 {
				params = params[1:] // drop self
			}
			methods[m.Name] = &MethodSig{ModuleID: u.ID, Struct: impl.Target, Name: m.Name, Params: paramTypes(params), Ret: retType(m.Ret)}
		}
	}

	for _, g := range u.Program.Globals {
		// Global type is inferred from its initializer by the checker on
		// first visit; default to Unknown until then.
		t := Unknown
		if g.Type != nil {
			t = resolveTypeName(g.Type)
		}
		li.Globals[g.Name] = t
	}

	return li
}

func paramTypes(params []ast.Param) []*Type {
	out := make([]*Type, len(params))
	for i, p := range params {
		out[i] = resolveTypeName(p.Type)
	}
	return out
}

func retType(t *ast.TypeName) *Type {
	if t == nil {
		return Void
	}
	return resolveTypeName(t)
}

// resolveTypeName converts an AST type annotation into a resolved Type.
// Named types are not validated for existence here; that happens where
// they're used (struct literal, field access, method receiver), once the
// full local+external struct set is available.
func resolveTypeName(t *ast.TypeName) *Type {
	if t == nil {
		return Unknown
	}
	switch t.Kind {
	case ast.TyInt:
		return Int
	case ast.TyFloat:
		return Float
	case ast.TyBool:
		return Bool
	case ast.TyString:
		return String
	case ast.TyVoid:
		return Void
	case ast.TyNamed:
		if t.Named == "Vec" {
			return Vec
		}
		return Named(t.Named)
	case ast.TyArray:
		return Array(resolveTypeName(t.Elem), t.Size)
	case ast.TyFn:
		params := make([]*Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = resolveTypeName(p)
		}
		return Fn(params, resolveTypeName(t.Ret))
	default:
		return Unknown
	}
}
