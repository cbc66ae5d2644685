package disasm

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

func testModule() *bytecode.Module {
	main := &bytecode.FunctionChunk{
		Name: "m::main", ModuleID: "m", LocalsCount: 1, ParamCount: 0,
		Code: []bytecode.Instr{
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(41)},
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
			{Op: bytecode.OpAdd},
			{Op: bytecode.OpStoreLocal, Int: 0},
			{Op: bytecode.OpCallBuiltin, Str2: "io", Str: "println", Int: 1},
			{Op: bytecode.OpReturn},
		},
	}
	return bytecode.NewModule(map[string]*bytecode.FunctionChunk{"m::main": main}, nil)
}

func TestFunction_RendersHeaderAndInstructions(t *testing.T) {
	out := Function(testModule().Functions[0])
	if !strings.HasPrefix(out, "fn m::main (params=0, locals=1)\n") {
		t.Fatalf("Function output missing header: %q", out)
	}
	if !strings.Contains(out, "0000 LoadConst Int(41)") {
		t.Errorf("expected a LoadConst line, got:\n%s", out)
	}
	if !strings.Contains(out, "CallBuiltin io.println argc=1") {
		t.Errorf("expected a CallBuiltin line, got:\n%s", out)
	}
}

func TestModule_SortsFunctionsByName(t *testing.T) {
	helper := &bytecode.FunctionChunk{Name: "a::helper", ModuleID: "a", Code: []bytecode.Instr{{Op: bytecode.OpReturn}}}
	main := &bytecode.FunctionChunk{Name: "m::main", ModuleID: "m", Code: []bytecode.Instr{{Op: bytecode.OpReturn}}}
	mod := bytecode.NewModule(map[string]*bytecode.FunctionChunk{"a::helper": helper, "m::main": main}, nil)

	out := Module(mod)
	if strings.Index(out, "a::helper") > strings.Index(out, "m::main") {
		t.Errorf("expected a::helper to be disassembled before m::main, got:\n%s", out)
	}
}

func TestInstruction_UnknownOpcodeRendersPlaceholder(t *testing.T) {
	got := Instruction(bytecode.Instr{Op: bytecode.Op(255)})
	if got != "Unknown" {
		t.Errorf("Instruction = %q, want %q", got, "Unknown")
	}
}

// PrettyInstruction must degrade to the exact text Instruction produces
// once color is disabled (the same no-color fallback a non-tty sink gets).
func TestPrettyInstruction_MatchesPlainWithColorDisabled(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	i := bytecode.Instr{Op: bytecode.OpCallBuiltin, Str2: "io", Str: "println", Int: 1}
	if got, want := PrettyInstruction(i), Instruction(i); got != want {
		t.Errorf("PrettyInstruction = %q, want %q (color disabled)", got, want)
	}
}

func TestPrettyFunction_ContainsSameInstructionTextAsFunction(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	f := testModule().Functions[0]
	if got, want := PrettyFunction(f), Function(f); got != want {
		t.Errorf("PrettyFunction with color disabled = %q, want %q", got, want)
	}
}
