// Package errcode centralizes the stable ASCII error codes used across the
// skepa toolchain (spec §7), mirroring the phase/category/description
// registry shape of a typical multi-stage compiler's error taxonomy.
package errcode

const (
	// Parser errors.
	EParse = "E-PARSE"

	// Semantic analyzer errors.
	ESema = "E-SEMA"

	// Resolver (module graph) errors.
	EModNotFound  = "E-MOD-NOT-FOUND"
	EModAmbiguous = "E-MOD-AMBIGUOUS"
	EModDup       = "E-MOD-DUP"
	EModCycle     = "E-MOD-CYCLE"
	EModIO        = "E-MOD-IO"
	EModNonUTF8   = "E-MOD-NONUTF8"
	ECodegen      = "E-CODEGEN"

	// VM errors.
	EVMUnknownFunction = "E-VM-UNKNOWN-FUNCTION"
	EVMArity           = "E-VM-ARITY"
	EVMStackUnderflow  = "E-VM-STACK-UNDERFLOW"
	EVMStackOverflow   = "E-VM-STACK-OVERFLOW"
	EVMType            = "E-VM-TYPE"
	EVMInvalidLocal    = "E-VM-INVALID-LOCAL"
	EVMDivZero         = "E-VM-DIV-ZERO"
	EVMUnknownBuiltin  = "E-VM-UNKNOWN-BUILTIN"
	EVMHost            = "E-VM-HOST"
	EVMIndexOOB        = "E-VM-INDEX-OOB"
	EVMOverflow        = "E-VM-OVERFLOW"

	// Bytecode codec errors.
	ECodecMagic   = "E-CODEC-MAGIC"
	ECodecVersion = "E-CODEC-VERSION"
	ECodecTag     = "E-CODEC-TAG"
	ECodecLength  = "E-CODEC-LENGTH"
	ECodecUTF8    = "E-CODEC-UTF8"
)

// Info describes one registered error code: which stage it belongs to, a
// short category, and a human description used for documentation (never
// for exact-string testing — spec §9 keeps message text unstable).
type Info struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// Registry maps every known code to its Info. New codes may be added over
// time (spec §9: "the taxonomy is open"); existing codes are stable.
var Registry = map[string]Info{
	EParse: {EParse, "parser", "syntax", "Unexpected token or malformed construct"},
	ESema:  {ESema, "sema", "type", "Type, arity, or control-flow violation"},

	EModNotFound:  {EModNotFound, "resolver", "resolution", "Import target does not exist"},
	EModAmbiguous: {EModAmbiguous, "resolver", "resolution", "Import target matches more than one candidate"},
	EModDup:       {EModDup, "resolver", "identity", "Same module id reached via two distinct paths"},
	EModCycle:     {EModCycle, "resolver", "dependency", "Import graph contains a cycle"},
	EModIO:        {EModIO, "resolver", "io", "Filesystem error while reading a module"},
	EModNonUTF8:   {EModNonUTF8, "resolver", "io", "Module path contains non-UTF-8 components"},
	ECodegen:      {ECodegen, "lowering", "codegen", "Bytecode lowering could not emit a valid module"},

	EVMUnknownFunction: {EVMUnknownFunction, "vm", "link", "Call target has no matching chunk"},
	EVMArity:           {EVMArity, "vm", "call", "Call argument count does not match the callee"},
	EVMStackUnderflow:  {EVMStackUnderflow, "vm", "stack", "Operand stack popped below empty"},
	EVMStackOverflow:   {EVMStackOverflow, "vm", "stack", "Call depth exceeded max_call_depth"},
	EVMType:            {EVMType, "vm", "type", "Operand type does not match instruction"},
	EVMInvalidLocal:    {EVMInvalidLocal, "vm", "frame", "Local slot index out of range"},
	EVMDivZero:         {EVMDivZero, "vm", "arithmetic", "Integer division or modulo by zero"},
	EVMUnknownBuiltin:  {EVMUnknownBuiltin, "vm", "builtin", "No builtin registered for (package, name)"},
	EVMHost:            {EVMHost, "vm", "host", "Host-side operation failed"},
	EVMIndexOOB:        {EVMIndexOOB, "vm", "bounds", "Array index out of bounds"},
	EVMOverflow:        {EVMOverflow, "vm", "arithmetic", "Checked integer arithmetic overflowed"},

	ECodecMagic:   {ECodecMagic, "codec", "format", "Input does not start with the SKBC magic header"},
	ECodecVersion: {ECodecVersion, "codec", "format", "Bytecode format version is not supported by this build"},
	ECodecTag:     {ECodecTag, "codec", "format", "Unknown value or instruction tag"},
	ECodecLength:  {ECodecLength, "codec", "format", "Length-prefixed field exceeds remaining input"},
	ECodecUTF8:    {ECodecUTF8, "codec", "format", "String field is not valid UTF-8"},
}

// Lookup returns the Info for a code, if registered.
func Lookup(code string) (Info, bool) {
	info, ok := Registry[code]
	return info, ok
}

// IsVMError reports whether code belongs to the VM phase.
func IsVMError(code string) bool {
	info, ok := Lookup(code)
	return ok && info.Phase == "vm"
}

// IsResolverError reports whether code belongs to the resolver phase.
func IsResolverError(code string) bool {
	info, ok := Lookup(code)
	return ok && info.Phase == "resolver"
}
