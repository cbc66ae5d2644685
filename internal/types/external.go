package types

import "github.com/skepa-lang/skepa/internal/module"

// ExternalContext is the cross-module context a Checker pre-populates
// for one module from its resolved import bindings (spec §4.3 "External
// context"): imported function signatures, imported struct field maps,
// imported globals, and namespace aliases for qualified calls.
type ExternalContext struct {
	Funcs      map[string]*FuncSig
	Structs    map[string]*StructInfo
	Globals    map[string]*Type
	Namespaces map[string]module.Id

	// Origin maps every imported local binding to its true origin, used
	// by bytecode lowering to rewrite local references to mangled
	// origin names (spec §9 "Cross-module symbol identity").
	Origin map[string]module.SymbolRef
}

func buildExternalContext(b *module.Bindings, locals map[module.Id]*LocalInfo) *ExternalContext {
	ext := &ExternalContext{
		Funcs:      map[string]*FuncSig{},
		Structs:    map[string]*StructInfo{},
		Globals:    map[string]*Type{},
		Namespaces: map[string]module.Id{},
		Origin:     map[string]module.SymbolRef{},
	}

	for alias, modID := range b.Namespaces {
		ext.Namespaces[alias] = modID
	}

	for localName, ref := range b.Names {
		ext.Origin[localName] = ref
		origin, ok := locals[ref.Module]
		if !ok {
			continue
		}
		switch ref.Kind {
		case module.SymFn:
			if sig, ok := origin.Funcs[ref.Local]; ok {
				ext.Funcs[localName] = sig
			}
		case module.SymStruct:
			if info, ok := origin.Structs[ref.Local]; ok {
				ext.Structs[localName] = info
				// Also index by the struct's own declaring-module name, so
				// a Named type value (which always carries that origin
				// name, spec §4.3 "impls of imported structs") resolves
				// correctly even when this module imported it under an
				// alias.
				ext.Structs[info.Name] = info
			}
		case module.SymGlobalLet:
			if t, ok := origin.Globals[ref.Local]; ok {
				ext.Globals[localName] = t
			}
		}
	}

	return ext
}
