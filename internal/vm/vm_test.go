package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/errcode"
)

func chunk(name string, locals, params int, code ...bytecode.Instr) *bytecode.FunctionChunk {
	return &bytecode.FunctionChunk{Name: name, ModuleID: "m", LocalsCount: locals, ParamCount: params, Code: code}
}

func newTestVM(t *testing.T, chunks map[string]*bytecode.FunctionChunk, globalSlots map[string]int) (*VM, *fakeHost) {
	t.Helper()
	mod := bytecode.NewModule(chunks, globalSlots)
	host := newFakeHost()
	return New(mod, host, NewRegistry(), 0), host
}

func TestVM_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		code []bytecode.Instr
		want bytecode.Value
	}{
		{"int add", []bytecode.Instr{
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(2)},
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(3)},
			{Op: bytecode.OpAdd},
			{Op: bytecode.OpReturn},
		}, bytecode.Int64(5)},
		{"float mul", []bytecode.Instr{
			{Op: bytecode.OpLoadConst, Const: bytecode.Float64(1.5)},
			{Op: bytecode.OpLoadConst, Const: bytecode.Float64(2.0)},
			{Op: bytecode.OpMulInt},
			{Op: bytecode.OpReturn},
		}, bytecode.Float64(3.0)},
		{"string concat", []bytecode.Instr{
			{Op: bytecode.OpLoadConst, Const: bytecode.Str_("ab")},
			{Op: bytecode.OpLoadConst, Const: bytecode.Str_("cd")},
			{Op: bytecode.OpAdd},
			{Op: bytecode.OpReturn},
		}, bytecode.Str_("abcd")},
		{"int div truncates", []bytecode.Instr{
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(7)},
			{Op: bytecode.OpLoadConst, Const: bytecode.Int64(2)},
			{Op: bytecode.OpDivInt},
			{Op: bytecode.OpReturn},
		}, bytecode.Int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{
				"m::main": chunk("m::main", 0, 0, tt.code...),
			}, nil)
			got, err := m.Run("m::main")
			require.NoError(t, err)
			assert.Truef(t, bytecode.Equal(got, tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestVM_DivByZeroRaisesDivZero(t *testing.T) {
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{
		"m::main": chunk("m::main", 0, 0,
			bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
			bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(0)},
			bytecode.Instr{Op: bytecode.OpDivInt},
			bytecode.Instr{Op: bytecode.OpReturn},
		),
	}, nil)
	_, err := m.Run("m::main")
	assertCode(t, err, "E-VM-DIV-ZERO")
}

func TestVM_CallAndLocals(t *testing.T) {
	// main: loads 10, calls add1(x) -> x+1, returns result.
	addOne := chunk("m::add1", 1, 1,
		bytecode.Instr{Op: bytecode.OpLoadLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
		bytecode.Instr{Op: bytecode.OpAdd},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(10)},
		bytecode.Instr{Op: bytecode.OpCall, Str: "m::add1", Int: 1},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{
		"m::main": main, "m::add1": addOne,
	}, nil)
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Int64(11)), "got %v, want 11", got)
}

func TestVM_GlobalsCrossModule(t *testing.T) {
	other := chunk("other::set", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(42)},
		bytecode.Instr{Op: bytecode.OpStoreGlobal, Int: 0, Str: ""},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	other.ModuleID = "other"
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpCall, Str: "other::set", Int: 0},
		bytecode.Instr{Op: bytecode.OpPop},
		bytecode.Instr{Op: bytecode.OpLoadGlobal, Int: 0, Str: "other"},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{
		"m::main": main, "other::set": other,
	}, map[string]int{"other": 1})
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Int64(42)), "got %v, want 42", got)
}

func TestVM_ArraySetIsValueSemantic(t *testing.T) {
	// locals[0] = [1,2,3]; locals[1] = locals[0]; locals[0][0] = 99;
	// return locals[1] (must still read 1, not 99).
	main := chunk("m::main", 2, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(2)},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(3)},
		bytecode.Instr{Op: bytecode.OpMakeArray, Int: 3},
		bytecode.Instr{Op: bytecode.OpStoreLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpLoadLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpStoreLocal, Int: 1},
		bytecode.Instr{Op: bytecode.OpLoadLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(0)},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(99)},
		bytecode.Instr{Op: bytecode.OpArraySet},
		bytecode.Instr{Op: bytecode.OpStoreLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpLoadLocal, Int: 1},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(0)},
		bytecode.Instr{Op: bytecode.OpArrayGet},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{"m::main": main}, nil)
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Int64(1)), "got %v, want 1 (array mutation leaked through alias)", got)
}

func TestVM_StructMakeAndGet(t *testing.T) {
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(3)},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(4)},
		bytecode.Instr{Op: bytecode.OpMakeStruct, Str: "Point", Path: []string{"x", "y"}},
		bytecode.Instr{Op: bytecode.OpStructGet, Str: "y"},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{"m::main": main}, nil)
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Int64(4)), "got %v, want 4", got)
}

func TestVM_CallMethodDispatchesOnReceiverShape(t *testing.T) {
	tick := chunk("__impl_Counter__tick", 1, 1,
		bytecode.Instr{Op: bytecode.OpLoadLocal, Int: 0},
		bytecode.Instr{Op: bytecode.OpStructGet, Str: "n"},
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
		bytecode.Instr{Op: bytecode.OpAdd},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(5)},
		bytecode.Instr{Op: bytecode.OpMakeStruct, Str: "Counter", Path: []string{"n"}},
		bytecode.Instr{Op: bytecode.OpCallMethod, Str: "tick", Int: 0},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{
		"m::main": main, "__impl_Counter__tick": tick,
	}, nil)
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Int64(6)), "got %v, want 6", got)
}

func TestVM_CallBuiltinDispatchesThroughRegistry(t *testing.T) {
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Str_("hi")},
		bytecode.Instr{Op: bytecode.OpCallBuiltin, Str2: "str", Str: "toUpper", Int: 1},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{"m::main": main}, nil)
	got, err := m.Run("m::main")
	require.NoError(t, err)
	assert.True(t, bytecode.Equal(got, bytecode.Str_("HI")), "got %v, want HI", got)
}

func TestVM_StackOverflowBeforeFrameAllocation(t *testing.T) {
	// m::loop calls itself unconditionally with no base case.
	loop := chunk("m::loop", 0, 0,
		bytecode.Instr{Op: bytecode.OpCall, Str: "m::loop", Int: 0},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	mod := bytecode.NewModule(map[string]*bytecode.FunctionChunk{"m::loop": loop}, nil)
	m := New(mod, newFakeHost(), NewRegistry(), 8)
	_, err := m.Run("m::loop")
	assertCode(t, err, "E-VM-STACK-OVERFLOW")
}

func TestVM_UnknownBuiltinSurfacesError(t *testing.T) {
	main := chunk("m::main", 0, 0,
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(1)},
		bytecode.Instr{Op: bytecode.OpCallBuiltin, Str2: "nope", Str: "nothing", Int: 1},
		bytecode.Instr{Op: bytecode.OpReturn},
	)
	m, _ := newTestVM(t, map[string]*bytecode.FunctionChunk{"m::main": main}, nil)
	_, err := m.Run("m::main")
	assertCode(t, err, "E-VM-UNKNOWN-BUILTIN")
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	var ce *errcode.CodedError
	require.ErrorAsf(t, err, &ce, "expected a *errcode.CodedError, got %T (%v)", err, err)
	assert.Equalf(t, want, ce.Code, "error code mismatch (err: %v)", err)
}
