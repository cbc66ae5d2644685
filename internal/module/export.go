package module

import (
	"fmt"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/errcode"
)

// SymbolKind classifies what a SymbolRef denotes.
type SymbolKind int

const (
	SymFn SymbolKind = iota
	SymStruct
	SymGlobalLet
	SymNamespace
)

// SymbolRef identifies a symbol by its true origin: the module that
// declares it and its local name there. Re-exports are flattened so that
// two distinct import paths reaching the same origin compare equal
// (spec §3 "Export map", §8 "Re-exports preserve origin identity").
type SymbolRef struct {
	Module Id
	Local  string
	Kind   SymbolKind
}

// ExportMap is a module's fully resolved export table: exported name ->
// origin SymbolRef.
type ExportMap map[string]SymbolRef

// localDecl is one name a module declares itself (not via import/export).
type localDecl struct {
	name string
	kind SymbolKind
}

func localDecls(u *Unit) map[string]localDecl {
	decls := make(map[string]localDecl)
	for _, f := range u.Program.Functions {
		decls[f.Name] = localDecl{f.Name, SymFn}
	}
	for _, s := range u.Program.Structs {
		decls[s.Name] = localDecl{s.Name, SymStruct}
	}
	for _, g := range u.Program.Globals {
		decls[g.Name] = localDecl{g.Name, SymGlobalLet}
	}
	return decls
}

// BuildExportMaps computes the fixed point of every module's export
// table (spec §4.2). Modules are visited in sorted id order, and each one
// first resolves the modules it re-exports from, so a re-export always
// resolves against an already-computed origin. A re-export cycle is
// reported as E-MOD-CYCLE.
func BuildExportMaps(units map[Id]*Unit) (map[Id]ExportMap, []*errcode.CodedError) {
	order := SortedIDs(units)
	decls := make(map[Id]map[string]localDecl, len(units))
	for _, id := range order {
		decls[id] = localDecls(units[id])
	}

	// Resolve every "from" dependency of a module before the module itself:
	// a memoized depth-first walk, with done marking finished modules and
	// visiting marking the current path.
	result := make(map[Id]ExportMap, len(units))
	done := make(map[Id]bool, len(units))

	var resolveModule func(id Id, visiting map[Id]bool) []*errcode.CodedError
	resolveModule = func(id Id, visiting map[Id]bool) []*errcode.CodedError {
		if done[id] {
			return nil
		}
		if visiting[id] {
			return []*errcode.CodedError{errcode.New(errcode.EModCycle, "re-export cycle involving module %q", id)}
		}
		visiting[id] = true
		defer delete(visiting, id)

		u := units[id]
		out := make(ExportMap)

		for _, exp := range u.Program.Exports {
			switch exp.Kind {
			case ast.ExportLocal:
				for _, item := range exp.Items {
					d, ok := decls[id][item.Name]
					if !ok {
						return []*errcode.CodedError{errcode.New(errcode.EModNotFound,
							"module %q exports undeclared name %q", id, item.Name)}
					}
					name := item.Name
					if item.Alias != "" {
						name = item.Alias
					}
					if prev, dup := out[name]; dup && prev != (SymbolRef{Module: id, Local: item.Name, Kind: d.kind}) {
						return []*errcode.CodedError{errcode.New(errcode.EModDup, "duplicate exported name %q in module %q", name, id)}
					}
					out[name] = SymbolRef{Module: id, Local: item.Name, Kind: d.kind}
				}

			case ast.ExportReexport, ast.ExportReexportWildcard:
				fromID, ferr := idFromDottedPath(units, exp.From)
				if ferr != nil {
					return []*errcode.CodedError{ferr}
				}
				if errs := resolveModule(fromID, visiting); len(errs) > 0 {
					return errs
				}
				fromMap := result[fromID]

				if exp.Kind == ast.ExportReexportWildcard {
					for name, ref := range fromMap {
						if prev, dup := out[name]; dup && prev != ref {
							return []*errcode.CodedError{errcode.New(errcode.EModDup,
								"duplicate exported name %q re-exported from %q into %q", name, fromID, id)}
						}
						out[name] = ref
					}
					continue
				}

				for _, item := range exp.Items {
					ref, ok := fromMap[item.Name]
					if !ok {
						return []*errcode.CodedError{errcode.New(errcode.EModNotFound,
							"module %q has no exported name %q to re-export from %q", fromID, item.Name, fromID)}
					}
					name := item.Name
					if item.Alias != "" {
						name = item.Alias
					}
					if prev, dup := out[name]; dup && prev != ref {
						return []*errcode.CodedError{errcode.New(errcode.EModDup, "duplicate exported name %q in module %q", name, id)}
					}
					out[name] = ref
				}
			}
		}

		result[id] = out
		done[id] = true
		return nil
	}

	for _, id := range order {
		if errs := resolveModule(id, map[Id]bool{}); len(errs) > 0 {
			return nil, errs
		}
	}
	return result, nil
}

func idFromDottedPath(units map[Id]*Unit, path []string) (Id, *errcode.CodedError) {
	id := joinDotted(path)
	if _, ok := units[id]; !ok {
		return "", errcode.New(errcode.EModNotFound, "re-export source module %q not found", id)
	}
	return id, nil
}

func joinDotted(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

func (k SymbolKind) String() string {
	switch k {
	case SymFn:
		return "fn"
	case SymStruct:
		return "struct"
	case SymGlobalLet:
		return "global"
	case SymNamespace:
		return "namespace"
	default:
		return fmt.Sprintf("SymbolKind(%d)", int(k))
	}
}
