package bytecode

import "fmt"

// MangleFunc names a top-level function's chunk (spec §4.4 "Local
// functions and methods are mangled with a module prefix").
func MangleFunc(moduleID, name string) string {
	return moduleID + "::" + name
}

// MangleMethod names a method's chunk using the struct's true declaring
// origin, which may differ from the module the impl block is physically
// written in (spec §4.4, §4.5 "__impl_<struct_name>__<method>").
func MangleMethod(structName, method string) string {
	return "__impl_" + structName + "__" + method
}

// MangleFuncLit names a lifted function literal's chunk. Literals are
// numbered per module so the generated name is globally unique.
func MangleFuncLit(moduleID string, n int) string {
	return fmt.Sprintf("%s::__fn_lit_%d", moduleID, n)
}

// GlobalsInit names a module's globals-initializer chunk.
func GlobalsInit(moduleID string) string {
	return moduleID + "::__globals_init"
}

// MangleStruct names a struct by its declaring module, for diagnostics
// and disassembly; runtime struct identity is carried on the Value's
// StructShape rather than this mangled form.
func MangleStruct(moduleID, name string) string {
	return moduleID + "::" + name
}

// ProgramGlobalsInit and Main name the two driver-synthesized chunks
// that tie every module's init together and enter the program.
const (
	ProgramGlobalsInit = "__globals_init"
	MainChunk          = "main"
)
