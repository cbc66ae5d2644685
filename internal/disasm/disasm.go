// Package disasm renders a linked bytecode.Module as human-readable text,
// one function per block with its instructions listed by instruction
// pointer, for debugging a compiled .sk program (spec §4.6 "tooling").
package disasm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

// Color functions for the terminal-facing Pretty variants below; fatih/color
// auto-detects a non-tty sink (pipe, file) and no-ops in that case, so
// Pretty output degrades to plain text the same as Module/Function do.
var (
	opName   = color.New(color.FgCyan).SprintFunc()
	operand  = color.New(color.FgYellow).SprintFunc()
	fnHeader = color.New(color.Bold, color.FgGreen).SprintFunc()
	ipCol    = color.New(color.Faint).SprintFunc()
)

// Module disassembles every function chunk in m, sorted by mangled name,
// matching the order bytecode.NewModule assigns dense indices in.
func Module(m *bytecode.Module) string {
	var out strings.Builder
	names := make([]string, len(m.Functions))
	byName := make(map[string]*bytecode.FunctionChunk, len(m.Functions))
	for _, fn := range m.Functions {
		byName[fn.Name] = fn
	}
	i := 0
	for name := range byName {
		names[i] = name
		i++
	}
	sort.Strings(names)

	for _, name := range names {
		out.WriteString(Function(byName[name]))
	}
	return out.String()
}

// Function disassembles a single chunk.
func Function(f *bytecode.FunctionChunk) string {
	var out strings.Builder
	fmt.Fprintf(&out, "fn %s (params=%d, locals=%d)\n", f.Name, f.ParamCount, f.LocalsCount)
	for ip, instr := range f.Code {
		fmt.Fprintf(&out, "  %04d %s\n", ip, Instruction(instr))
	}
	return out.String()
}

// Instruction renders one instruction the way Function renders each line
// of a chunk's code, exposed standalone for single-step tracing.
func Instruction(i bytecode.Instr) string {
	switch i.Op {
	case bytecode.OpLoadConst:
		return "LoadConst " + formatValue(i.Const)
	case bytecode.OpLoadLocal:
		return "LoadLocal " + strconv.Itoa(i.Int)
	case bytecode.OpStoreLocal:
		return "StoreLocal " + strconv.Itoa(i.Int)
	case bytecode.OpLoadGlobal:
		return "LoadGlobal " + globalRef(i)
	case bytecode.OpStoreGlobal:
		return "StoreGlobal " + globalRef(i)
	case bytecode.OpPop:
		return "Pop"
	case bytecode.OpNegInt:
		return "NegInt"
	case bytecode.OpAdd:
		return "Add"
	case bytecode.OpSubInt:
		return "SubInt"
	case bytecode.OpMulInt:
		return "MulInt"
	case bytecode.OpDivInt:
		return "DivInt"
	case bytecode.OpModInt:
		return "ModInt"
	case bytecode.OpEq:
		return "Eq"
	case bytecode.OpNeq:
		return "Neq"
	case bytecode.OpLtInt:
		return "LtInt"
	case bytecode.OpLteInt:
		return "LteInt"
	case bytecode.OpGtInt:
		return "GtInt"
	case bytecode.OpGteInt:
		return "GteInt"
	case bytecode.OpNotBool:
		return "NotBool"
	case bytecode.OpAndBool:
		return "AndBool"
	case bytecode.OpOrBool:
		return "OrBool"
	case bytecode.OpJump:
		return "Jump " + strconv.Itoa(i.Int)
	case bytecode.OpJumpIfFalse:
		return "JumpIfFalse " + strconv.Itoa(i.Int)
	case bytecode.OpJumpIfTrue:
		return "JumpIfTrue " + strconv.Itoa(i.Int)
	case bytecode.OpCall:
		return fmt.Sprintf("Call %s argc=%d", i.Str, i.Int)
	case bytecode.OpCallIdx:
		return fmt.Sprintf("CallIdx %d argc=%d", i.Int, i.Int2)
	case bytecode.OpCallValue:
		return fmt.Sprintf("CallValue argc=%d", i.Int)
	case bytecode.OpCallMethod:
		return fmt.Sprintf("CallMethod %s argc=%d", i.Str, i.Int)
	case bytecode.OpCallBuiltin:
		return fmt.Sprintf("CallBuiltin %s.%s argc=%d", i.Str2, i.Str, i.Int)
	case bytecode.OpMakeArray:
		return "MakeArray " + strconv.Itoa(i.Int)
	case bytecode.OpMakeArrayRepeat:
		return "MakeArrayRepeat " + strconv.Itoa(i.Int)
	case bytecode.OpArrayGet:
		return "ArrayGet"
	case bytecode.OpArraySet:
		return "ArraySet"
	case bytecode.OpArraySetChain:
		return "ArraySetChain " + strconv.Itoa(i.Int)
	case bytecode.OpArrayLen:
		return "ArrayLen"
	case bytecode.OpMakeStruct:
		return fmt.Sprintf("MakeStruct %s fields=%s", i.Str, strings.Join(i.Path, ","))
	case bytecode.OpStructGet:
		return "StructGet " + i.Str
	case bytecode.OpStructSetPath:
		return "StructSetPath " + strings.Join(i.Path, ".")
	case bytecode.OpReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// PrettyModule is Module's colorized counterpart, for a developer's
// terminal rather than a diff or a log file.
func PrettyModule(m *bytecode.Module) string {
	var out strings.Builder
	names := make([]string, len(m.Functions))
	byName := make(map[string]*bytecode.FunctionChunk, len(m.Functions))
	for _, fn := range m.Functions {
		byName[fn.Name] = fn
	}
	i := 0
	for name := range byName {
		names[i] = name
		i++
	}
	sort.Strings(names)

	for _, name := range names {
		out.WriteString(PrettyFunction(byName[name]))
	}
	return out.String()
}

// PrettyFunction is Function's colorized counterpart.
func PrettyFunction(f *bytecode.FunctionChunk) string {
	var out strings.Builder
	fmt.Fprintf(&out, "%s\n", fnHeader(fmt.Sprintf("fn %s (params=%d, locals=%d)", f.Name, f.ParamCount, f.LocalsCount)))
	for ip, instr := range f.Code {
		fmt.Fprintf(&out, "  %s %s\n", ipCol(fmt.Sprintf("%04d", ip)), PrettyInstruction(instr))
	}
	return out.String()
}

// PrettyInstruction is Instruction's colorized counterpart: the opcode
// mnemonic in one color, its operands in another.
func PrettyInstruction(i bytecode.Instr) string {
	line := Instruction(i)
	op, rest, found := strings.Cut(line, " ")
	if !found {
		return opName(op)
	}
	return opName(op) + " " + operand(rest)
}

func globalRef(i bytecode.Instr) string {
	if i.Str == "" {
		return strconv.Itoa(i.Int)
	}
	return fmt.Sprintf("%s:%d", i.Str, i.Int)
}

func formatValue(v bytecode.Value) string {
	switch v.Kind {
	case bytecode.VInt:
		return fmt.Sprintf("Int(%d)", v.Int)
	case bytecode.VFloat:
		return fmt.Sprintf("Float(%g)", v.Float)
	case bytecode.VBool:
		return fmt.Sprintf("Bool(%t)", v.Bool)
	case bytecode.VString:
		return fmt.Sprintf("String(%q)", v.Str)
	case bytecode.VArray:
		return fmt.Sprintf("Array(len=%d)", len(v.Arr))
	case bytecode.VVecHandle:
		return fmt.Sprintf("VecHandle(%d)", v.VecID)
	case bytecode.VFunction:
		return fmt.Sprintf("Function(%s)", v.FnName)
	case bytecode.VStruct:
		return fmt.Sprintf("Struct(%s, fields=%d)", v.Shape.Name, len(v.Fields))
	case bytecode.VUnit:
		return "Unit"
	default:
		return "?"
	}
}
