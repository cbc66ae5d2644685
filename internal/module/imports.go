package module

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/errcode"
)

// Bindings is the resolved import surface of one module: namespace
// aliases (for `import a.b.c [as alias]`) and direct name bindings (for
// `from a.b.c import x [as y]`/`import *`), each pointing at the true
// origin SymbolRef.
type Bindings struct {
	// Namespaces maps a local namespace name to the module id it denotes.
	Namespaces map[string]Id

	// Names maps a local binding name to its origin symbol.
	Names map[string]SymbolRef
}

// ResolveBindings computes u's import bindings against the graph's
// export maps (spec §4.2 import forms).
func ResolveBindings(u *Unit, exports map[Id]ExportMap) (*Bindings, []*errcode.CodedError) {
	b := &Bindings{Namespaces: map[string]Id{}, Names: map[string]SymbolRef{}}

	for _, imp := range u.Imports {
		switch imp.Kind {
		case ast.ImportNamespace:
			targetID := joinDotted(imp.Path)
			local := imp.Alias
			if local == "" {
				local = imp.Path[0]
			}
			b.Namespaces[local] = targetID

		case ast.ImportFromWildcard:
			targetID := joinDotted(imp.Path)
			for name, ref := range exports[targetID] {
				b.Names[name] = ref
			}

		case ast.ImportFrom:
			targetID := joinDotted(imp.Path)
			fromMap := exports[targetID]
			for _, item := range imp.Items {
				ref, ok := fromMap[item.Name]
				if !ok {
					return nil, []*errcode.CodedError{errcode.New(errcode.EModNotFound,
						"module %q has no exported name %q", targetID, item.Name)}
				}
				local := item.Name
				if item.Alias != "" {
					local = item.Alias
				}
				if prev, dup := b.Names[local]; dup && prev != ref {
					return nil, []*errcode.CodedError{errcode.New(errcode.EModDup,
						"duplicate imported binding %q in module %q", local, u.ID)}
				}
				b.Names[local] = ref
			}
		}
	}

	return b, nil
}
