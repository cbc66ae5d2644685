package bytecode

import "sort"

// FunctionChunk is one compiled function or method (spec §4.4 "the
// lowering pass emits chunks for each top-level function and method").
// ModuleID is the declaring module, empty for the two driver-synthesized
// chunks (__globals_init and main); LoadGlobal/StoreGlobal inside a
// chunk's code index into that module's own global slot array.
type FunctionChunk struct {
	Name        string
	ModuleID    string
	LocalsCount int
	ParamCount  int
	Code        []Instr
}

// Module is a whole program's compiled, linked bytecode: every function
// chunk by mangled name, plus a dense index assigned in sorted-name order
// so that Call can be rewritten to CallIdx (spec §4.4 "a post-pass
// replaces Call{name,argc} with CallIdx{idx,argc}"), plus each module's
// global slot count so the VM can size its per-module global arrays.
type Module struct {
	Functions   []*FunctionChunk
	GlobalSlots map[string]int
	indexByName map[string]int
}

// NewModule builds a Module from an unordered set of chunks, assigning
// dense indices in sorted-name order.
func NewModule(chunks map[string]*FunctionChunk, globalSlots map[string]int) *Module {
	names := make([]string, 0, len(chunks))
	for name := range chunks {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &Module{
		Functions:   make([]*FunctionChunk, len(names)),
		GlobalSlots: globalSlots,
		indexByName: make(map[string]int, len(names)),
	}
	for i, name := range names {
		m.Functions[i] = chunks[name]
		m.indexByName[name] = i
	}
	return m
}

// IndexOf returns the dense index of a mangled function name, if present.
func (m *Module) IndexOf(name string) (int, bool) {
	i, ok := m.indexByName[name]
	return i, ok
}

// Chunk returns a function chunk by mangled name.
func (m *Module) Chunk(name string) (*FunctionChunk, bool) {
	i, ok := m.indexByName[name]
	if !ok {
		return nil, false
	}
	return m.Functions[i], true
}

// ChunkAt returns the function chunk at a dense index.
func (m *Module) ChunkAt(idx int) (*FunctionChunk, bool) {
	if idx < 0 || idx >= len(m.Functions) {
		return nil, false
	}
	return m.Functions[idx], true
}
