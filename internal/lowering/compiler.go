// Package lowering compiles a type-checked module graph into a linked
// bytecode.Module (spec §4.4). It is a separate package from bytecode
// itself so that the instruction/value model stays free of any
// dependency on the AST, module graph, or semantic analyzer.
package lowering

import (
	"fmt"
	"sort"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/module"
	"github.com/skepa-lang/skepa/internal/types"
)

// moduleCompiler lowers a single module's functions, methods, and global
// initializers into function chunks. One is created per module by Lower.
type moduleCompiler struct {
	id    module.Id
	unit  *module.Unit
	local *types.LocalInfo
	ext   *types.ExternalContext
	infos map[module.Id]*types.ModuleInfo

	// chunks accumulates chunks this compiler produces beyond the plain
	// per-FuncDecl ones: lifted function-literal bodies.
	chunks map[string]*bytecode.FunctionChunk

	litCounter int
}

func newModuleCompiler(id module.Id, u *module.Unit, info *types.ModuleInfo, infos map[module.Id]*types.ModuleInfo) *moduleCompiler {
	return &moduleCompiler{
		id:     id,
		unit:   u,
		local:  info.Local,
		ext:    info.External,
		infos:  infos,
		chunks: map[string]*bytecode.FunctionChunk{},
	}
}

// resolveStruct finds a struct's info by the name as referenced from
// this module (either locally declared or imported), mirroring the
// semantic analyzer's own two-map lookup.
func (mc *moduleCompiler) resolveStruct(name string) (*types.StructInfo, bool) {
	if info, ok := mc.local.Structs[name]; ok {
		return info, true
	}
	if info, ok := mc.ext.Structs[name]; ok {
		return info, true
	}
	return nil, false
}

// sortedGlobalNames returns a module's own declared global names in
// sorted order, the deterministic basis for that module's global slot
// numbering (spec §4.4 "module global slot k").
func sortedGlobalNames(li *types.LocalInfo) []string {
	names := make([]string, 0, len(li.Globals))
	for name := range li.Globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// globalSlotOf returns the slot index a global is assigned within its
// own module, by sorted-name position. Any module compiling a reference
// to it (locally or via a namespace/import binding) derives the same
// index independently, without needing the owning module's compiled
// chunks.
func globalSlotOf(li *types.LocalInfo, name string) (int, bool) {
	if _, ok := li.Globals[name]; !ok {
		return 0, false
	}
	for i, n := range sortedGlobalNames(li) {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// fnCtx tracks one function/method/function-literal body's local slot
// assignments and enclosing loop addresses while it is being compiled.
// Slots are never reused across sibling blocks: LocalsCount is simply
// the total number of declarations seen, trading a little frame space
// for a compiler with no lifetime analysis to get wrong.
type fnCtx struct {
	scopes []map[string]int
	count  int
	loops  []*loopCtx
}

// loopCtx records the fixed addresses a break/continue inside a loop
// body resolve against, and the list of break-jump instruction indices
// still needing their target patched once the loop's end address is
// known.
type loopCtx struct {
	continueAddr int
	breakAt      []int
}

func newFnCtx() *fnCtx {
	return &fnCtx{scopes: []map[string]int{{}}}
}

func (f *fnCtx) pushScope() { f.scopes = append(f.scopes, map[string]int{}) }
func (f *fnCtx) popScope()  { f.scopes = f.scopes[:len(f.scopes)-1] }

func (f *fnCtx) declare(name string) int {
	slot := f.count
	f.count++
	f.scopes[len(f.scopes)-1][name] = slot
	return slot
}

func (f *fnCtx) lookup(name string) (int, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if slot, ok := f.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (f *fnCtx) pushLoop() *loopCtx {
	lc := &loopCtx{}
	f.loops = append(f.loops, lc)
	return lc
}

func (f *fnCtx) popLoop() {
	f.loops = f.loops[:len(f.loops)-1]
}

func (f *fnCtx) currentLoop() (*loopCtx, error) {
	if len(f.loops) == 0 {
		return nil, fmt.Errorf("break/continue outside of a loop")
	}
	return f.loops[len(f.loops)-1], nil
}

// compileFunc lowers one function or method body to a chunk named name.
func (mc *moduleCompiler) compileFunc(f *ast.FuncDecl, name string) (*bytecode.FunctionChunk, error) {
	ctx := newFnCtx()
	for _, p := range f.Params {
		ctx.declare(p.Name)
	}

	var code []bytecode.Instr
	if err := mc.compileBlock(f.Body, ctx, &code); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	// Fallthrough off the end of a Void function's body: return Unit.
	code = append(code,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit},
		bytecode.Instr{Op: bytecode.OpReturn},
	)

	return &bytecode.FunctionChunk{
		Name:        name,
		ModuleID:    string(mc.id),
		LocalsCount: ctx.count,
		ParamCount:  len(f.Params),
		Code:        code,
	}, nil
}

// compileGlobalsInit lowers a module's top-level `let` globals into its
// <module_id>::__globals_init chunk: each initializer runs in source
// order but stores into the slot its name is assigned by sorted
// position (spec §4.4).
func (mc *moduleCompiler) compileGlobalsInit() (*bytecode.FunctionChunk, error) {
	ctx := newFnCtx()
	var code []bytecode.Instr
	for _, g := range mc.unit.Program.Globals {
		if err := mc.compileExpr(g.Value, ctx, &code); err != nil {
			return nil, fmt.Errorf("%s: %w", bytecode.GlobalsInit(string(mc.id)), err)
		}
		slot, ok := globalSlotOf(mc.local, g.Name)
		if !ok {
			return nil, fmt.Errorf("global %q has no assigned slot", g.Name)
		}
		code = append(code, bytecode.Instr{Op: bytecode.OpStoreGlobal, Int: slot})
	}
	code = append(code,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	return &bytecode.FunctionChunk{
		Name:        bytecode.GlobalsInit(string(mc.id)),
		ModuleID:    string(mc.id),
		LocalsCount: ctx.count,
		ParamCount:  0,
		Code:        code,
	}, nil
}

// compileModule lowers every function, method, and (if present) the
// globals initializer of one module, merging lifted function-literal
// chunks produced along the way.
func (mc *moduleCompiler) compileModule(out map[string]*bytecode.FunctionChunk) error {
	for _, f := range mc.unit.Program.Functions {
		chunk, err := mc.compileFunc(f, bytecode.MangleFunc(string(mc.id), f.Name))
		if err != nil {
			return err
		}
		out[chunk.Name] = chunk
	}

	for _, impl := range mc.unit.Program.Impls {
		structName := impl.Target
		if key, ok := types.ResolveStructKey(impl.Target, mc.local, mc.ext); ok {
			structName = key.Name
		}
		for _, m := range impl.Methods {
			chunk, err := mc.compileFunc(m, bytecode.MangleMethod(structName, m.Name))
			if err != nil {
				return err
			}
			out[chunk.Name] = chunk
		}
	}

	if len(mc.unit.Program.Globals) > 0 {
		chunk, err := mc.compileGlobalsInit()
		if err != nil {
			return err
		}
		out[chunk.Name] = chunk
	}

	for name, chunk := range mc.chunks {
		out[name] = chunk
	}
	return nil
}

// liftFuncLit compiles a non-capturing function literal into its own
// top-level chunk (spec §4.4 "Function literals are lifted into
// uniquely named top-level chunks") and returns its mangled name.
func (mc *moduleCompiler) liftFuncLit(x *ast.FuncLit) (string, error) {
	name := bytecode.MangleFuncLit(string(mc.id), mc.litCounter)
	mc.litCounter++

	ctx := newFnCtx()
	for _, p := range x.Params {
		ctx.declare(p.Name)
	}
	var code []bytecode.Instr
	if err := mc.compileBlock(x.Body, ctx, &code); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	code = append(code,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	mc.chunks[name] = &bytecode.FunctionChunk{
		Name:        name,
		ModuleID:    string(mc.id),
		LocalsCount: ctx.count,
		ParamCount:  len(x.Params),
		Code:        code,
	}
	return name, nil
}
