package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skepa-lang/skepa/internal/errcode"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	chunks := map[string]*FunctionChunk{
		"m::main": {
			Name: "m::main", ModuleID: "m", LocalsCount: 2, ParamCount: 0,
			Code: []Instr{
				{Op: OpLoadConst, Const: Int64(41)},
				{Op: OpLoadConst, Const: Float64(1.5)},
				{Op: OpLoadConst, Const: Bool_(true)},
				{Op: OpLoadConst, Const: Str_("hi")},
				{Op: OpLoadConst, Const: Unit},
				{Op: OpLoadConst, Const: Function("m::helper")},
				{Op: OpLoadConst, Const: VecHandle(7)},
				{Op: OpLoadConst, Const: Array_([]Value{Int64(1), Int64(2)})},
				{Op: OpLoadConst, Const: Struct(&StructShape{Name: "Point", FieldNames: []string{"x", "y"}}, []Value{Int64(1), Int64(2)})},
				{Op: OpStoreLocal, Int: 0},
				{Op: OpLoadLocal, Int: 0},
				{Op: OpLoadGlobal, Int: 1, Str: "other"},
				{Op: OpStoreGlobal, Int: 1, Str: ""},
				{Op: OpJump, Int: 0},
				{Op: OpJumpIfFalse, Int: 0},
				{Op: OpJumpIfTrue, Int: 0},
				{Op: OpCall, Str: "m::helper", Int: 2},
				{Op: OpCallIdx, Int: 3, Int2: 2},
				{Op: OpCallValue, Int: 1},
				{Op: OpCallMethod, Str: "tick", Int: 0},
				{Op: OpCallBuiltin, Str2: "io", Str: "println", Int: 1},
				{Op: OpMakeArray, Int: 2},
				{Op: OpMakeArrayRepeat, Int: 3},
				{Op: OpArraySetChain, Int: 2},
				{Op: OpMakeStruct, Str: "Point", Path: []string{"x", "y"}},
				{Op: OpStructGet, Str: "x"},
				{Op: OpStructSetPath, Path: []string{"x"}},
				{Op: OpPop},
				{Op: OpAdd},
				{Op: OpEq},
				{Op: OpNotBool},
				{Op: OpReturn},
			},
		},
		"m::helper": {Name: "m::helper", ModuleID: "m", LocalsCount: 0, ParamCount: 2, Code: []Instr{{Op: OpReturn}}},
	}
	mod := NewModule(chunks, map[string]int{"m": 2})

	data := Encode(mod)
	require.GreaterOrEqual(t, len(data), 4)
	require.Equalf(t, "SKBC", string(data[:4]), "encoded data missing SKBC magic: %v", data[:4])

	got, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(mod.Functions, got.Functions); diff != "" {
		t.Errorf("round-tripped functions differ (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(mod.GlobalSlots, got.GlobalSlots); diff != "" {
		t.Errorf("round-tripped global slots differ (-want +got):\n%s", diff)
	}
	idx, ok := got.IndexOf("m::helper")
	assert.True(t, ok, "decoded module lost index for m::helper")
	assert.GreaterOrEqual(t, idx, 0)
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("XXXX"))
	require.Error(t, err)
	assertCode(t, err, "E-CODEC-MAGIC")
}

func TestDecode_RejectsUnknownVersion(t *testing.T) {
	data := append([]byte("SKBC"), 99, 0, 0, 0)
	_, err := Decode(data)
	assertCode(t, err, "E-CODEC-VERSION")
}

func TestDecode_RejectsTruncatedInput(t *testing.T) {
	mod := NewModule(map[string]*FunctionChunk{
		"m::main": {Name: "m::main", Code: []Instr{{Op: OpReturn}}},
	}, nil)
	data := Encode(mod)
	_, err := Decode(data[:len(data)-1])
	assertCode(t, err, "E-CODEC-LENGTH")
}

func TestDecode_RejectsUnknownInstructionTag(t *testing.T) {
	mod := NewModule(map[string]*FunctionChunk{
		"m::main": {Name: "m::main", Code: []Instr{{Op: OpReturn}}},
	}, nil)
	data := Encode(mod)
	// The last byte of the encoding is the operand-less Return
	// instruction's tag; smashing it to an unused value must surface as
	// ECodecTag rather than misreading operands.
	data[len(data)-1] = 0xFE
	_, err := Decode(data)
	assertCode(t, err, "E-CODEC-TAG")
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	var ce *errcode.CodedError
	require.ErrorAsf(t, err, &ce, "expected a *errcode.CodedError, got %T (%v)", err, err)
	assert.Equalf(t, want, ce.Code, "error code mismatch (err: %v)", err)
}
