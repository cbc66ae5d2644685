package types

import (
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/module"
)

// StructKey identifies a struct by its true declaring origin, independent
// of which module's `impl` block or import alias is being examined.
type StructKey struct {
	Module module.Id
	Name   string
}

// ModuleInfo is one module's fully resolved semantic picture, handed to
// bytecode lowering once CheckAll returns with no errors.
type ModuleInfo struct {
	Local    *LocalInfo
	External *ExternalContext
}

// ResolveStructKey finds the true origin of a struct referenced by
// localName inside module id, looking first at locally declared structs
// and then at imported ones. Returns ok=false if localName names no
// known struct from id's point of view.
func ResolveStructKey(localName string, local *LocalInfo, ext *ExternalContext) (StructKey, bool) {
	if info, ok := local.Structs[localName]; ok {
		return StructKey{Module: info.ModuleID, Name: info.Name}, true
	}
	if info, ok := ext.Structs[localName]; ok {
		return StructKey{Module: info.ModuleID, Name: info.Name}, true
	}
	return StructKey{}, false
}

// CheckAll type-checks every module in g, in dependency order, and returns
// the per-module semantic info used by bytecode lowering (spec §4.3).
//
// Method dispatch is resolved against a single program-wide registry keyed
// by struct origin rather than per-module, so that `impl Counter { ... }`
// blocks written in a module that merely imports Counter are visible to
// every other module holding a Counter value (spec §4.3 "impls of
// imported structs").
func CheckAll(g *module.Graph, bindings map[module.Id]*module.Bindings) (map[module.Id]*ModuleInfo, *diag.Bag) {
	bag := diag.NewBag()

	locals := make(map[module.Id]*LocalInfo, len(g.Units))
	for id, u := range g.Units {
		locals[id] = buildLocalInfo(u)
	}

	externals := make(map[module.Id]*ExternalContext, len(g.Units))
	for id, b := range bindings {
		externals[id] = buildExternalContext(b, locals)
	}

	methods := make(map[StructKey]map[string]*MethodSig)
	for id, u := range g.Units {
		local, ext := locals[id], externals[id]
		for _, impl := range u.Program.Impls {
			key, ok := ResolveStructKey(impl.Target, local, ext)
			if !ok {
				bag.Errorf(errcode.ESema, impl.Span(), "impl of undeclared struct %q", impl.Target)
				continue
			}
			bucket := methods[key]
			if bucket == nil {
				bucket = map[string]*MethodSig{}
				methods[key] = bucket
			}
			for name, sig := range local.Methods[impl.Target] {
				bucket[name] = sig
			}
		}
	}

	result := make(map[module.Id]*ModuleInfo, len(g.Units))
	for _, id := range g.Order {
		u := g.Units[id]
		c := newChecker(u, locals[id], externals[id], locals, methods, bag)
		c.checkUnit()
		result[id] = &ModuleInfo{Local: locals[id], External: externals[id]}
	}

	return result, bag
}
