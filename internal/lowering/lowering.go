package lowering

import (
	"fmt"
	"sort"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/module"
	"github.com/skepa-lang/skepa/internal/types"
)

// Lower compiles every module in g into one linked bytecode.Module (spec
// §4.4). infos must be the per-module semantic picture CheckAll produced
// for g with no errors; calling Lower over a module graph that failed
// type-checking is a caller error.
func Lower(g *module.Graph, infos map[module.Id]*types.ModuleInfo) (*bytecode.Module, error) {
	chunks := map[string]*bytecode.FunctionChunk{}
	globalSlots := map[string]int{}

	for _, id := range g.Order {
		u, ok := g.Units[id]
		if !ok {
			return nil, fmt.Errorf("lowering: module %q missing from graph", id)
		}
		info, ok := infos[id]
		if !ok {
			return nil, fmt.Errorf("lowering: module %q has no semantic info", id)
		}
		mc := newModuleCompiler(id, u, info, infos)
		if err := mc.compileModule(chunks); err != nil {
			return nil, err
		}
		globalSlots[string(id)] = len(info.Local.Globals)
	}

	giChunk := buildProgramGlobalsInit(g, chunks)
	chunks[giChunk.Name] = giChunk
	chunks[bytecode.MainChunk] = buildMain(g.Entry)

	mod := bytecode.NewModule(chunks, globalSlots)
	rewriteCallsToIdx(mod)
	return mod, nil
}

// buildProgramGlobalsInit emits the driver-synthesized chunk that calls
// every module's own globals initializer, in sorted module-id order
// (spec §5 "globals-init executes before main and in sorted module
// order").
func buildProgramGlobalsInit(g *module.Graph, chunks map[string]*bytecode.FunctionChunk) *bytecode.FunctionChunk {
	ids := make([]string, 0, len(g.Units))
	for id := range g.Units {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var code []bytecode.Instr
	for _, id := range ids {
		name := bytecode.GlobalsInit(id)
		if _, ok := chunks[name]; !ok {
			continue
		}
		code = append(code,
			bytecode.Instr{Op: bytecode.OpCall, Str: name, Int: 0},
			bytecode.Instr{Op: bytecode.OpPop},
		)
	}
	code = append(code,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	return &bytecode.FunctionChunk{Name: bytecode.ProgramGlobalsInit, Code: code}
}

// buildMain emits the synthetic entry chunk that calls <entry>::main and
// returns its result.
func buildMain(entry module.Id) *bytecode.FunctionChunk {
	mangled := bytecode.MangleFunc(string(entry), "main")
	code := []bytecode.Instr{
		{Op: bytecode.OpCall, Str: mangled, Int: 0},
		{Op: bytecode.OpReturn},
	}
	return &bytecode.FunctionChunk{Name: bytecode.MainChunk, Code: code}
}

// rewriteCallsToIdx is the post-pass that replaces Call{name,argc} with
// CallIdx{idx,argc} wherever name resolves within the linked module's
// dense function table (spec §4.4); unresolved names are left as Call
// and fail at runtime.
func rewriteCallsToIdx(mod *bytecode.Module) {
	for _, chunk := range mod.Functions {
		for i := range chunk.Code {
			instr := &chunk.Code[i]
			if instr.Op != bytecode.OpCall {
				continue
			}
			if idx, ok := mod.IndexOf(instr.Str); ok {
				instr.Op = bytecode.OpCallIdx
				instr.Int2 = instr.Int
				instr.Int = idx
			}
		}
	}
}
