package bytecode

import (
	"encoding/binary"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/skepa-lang/skepa/internal/errcode"
)

// magic identifies a compiled skepa module on disk (spec §4.6, §6 "the
// 4-byte magic is the identifier by which a file is recognized as a
// compiled module").
var magic = [4]byte{'S', 'K', 'B', 'C'}

const codecVersion uint32 = 1

// value tags, extended beyond the original six (Int, Float, Bool, String,
// Array, Unit) to cover Function, Struct, and VecHandle as the value
// model grew (spec §4.6 "extended to cover Function/Struct as they are
// added").
const (
	tagInt byte = iota
	tagFloat
	tagBool
	tagString
	tagArray
	tagUnit
	tagFunction
	tagStruct
	tagVecHandle
)

// instruction tags. Values are fixed once assigned; new opcodes are
// appended rather than renumbering existing ones, so an older decoder
// fails on ECodecTag rather than silently misreading operands.
const (
	iLoadConst byte = iota
	iLoadLocal
	iStoreLocal
	iLoadGlobal
	iStoreGlobal
	iPop
	iNegInt
	iAdd
	iSubInt
	iMulInt
	iDivInt
	iModInt
	iEq
	iNeq
	iLtInt
	iLteInt
	iGtInt
	iGteInt
	iNotBool
	iAndBool
	iOrBool
	iJump
	iJumpIfFalse
	iJumpIfTrue
	iCall
	iCallIdx
	iCallValue
	iCallMethod
	iCallBuiltin
	iMakeArray
	iMakeArrayRepeat
	iArrayGet
	iArraySet
	iArraySetChain
	iArrayLen
	iMakeStruct
	iStructGet
	iStructSetPath
	iReturn
)

var opToTag = map[Op]byte{
	OpLoadConst: iLoadConst, OpLoadLocal: iLoadLocal, OpStoreLocal: iStoreLocal,
	OpLoadGlobal: iLoadGlobal, OpStoreGlobal: iStoreGlobal, OpPop: iPop,
	OpNegInt: iNegInt, OpAdd: iAdd, OpSubInt: iSubInt, OpMulInt: iMulInt,
	OpDivInt: iDivInt, OpModInt: iModInt,
	OpEq: iEq, OpNeq: iNeq, OpLtInt: iLtInt, OpLteInt: iLteInt,
	OpGtInt: iGtInt, OpGteInt: iGteInt,
	OpNotBool: iNotBool, OpAndBool: iAndBool, OpOrBool: iOrBool,
	OpJump: iJump, OpJumpIfFalse: iJumpIfFalse, OpJumpIfTrue: iJumpIfTrue,
	OpCall: iCall, OpCallIdx: iCallIdx, OpCallValue: iCallValue,
	OpCallMethod: iCallMethod, OpCallBuiltin: iCallBuiltin,
	OpMakeArray: iMakeArray, OpMakeArrayRepeat: iMakeArrayRepeat,
	OpArrayGet: iArrayGet, OpArraySet: iArraySet, OpArraySetChain: iArraySetChain,
	OpArrayLen: iArrayLen,
	OpMakeStruct: iMakeStruct, OpStructGet: iStructGet, OpStructSetPath: iStructSetPath,
	OpReturn: iReturn,
}

var tagToOp = func() map[byte]Op {
	out := make(map[byte]Op, len(opToTag))
	for op, tag := range opToTag {
		out[tag] = op
	}
	return out
}()

// Encode serializes m to the versioned binary format described in spec
// §4.6: a 4-byte magic, a u32 version, each module's declared global slot
// count, then every function chunk in sorted-name order (the order
// NewModule already assigned m.Functions in).
func Encode(m *Module) []byte {
	var out []byte
	out = append(out, magic[:]...)
	out = writeU32(out, codecVersion)

	modIDs := make([]string, 0, len(m.GlobalSlots))
	for id := range m.GlobalSlots {
		modIDs = append(modIDs, id)
	}
	sort.Strings(modIDs)
	out = writeU32(out, uint32(len(modIDs)))
	for _, id := range modIDs {
		out = writeStr(out, id)
		out = writeU32(out, uint32(m.GlobalSlots[id]))
	}

	out = writeU32(out, uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		out = writeStr(out, fn.Name)
		out = writeStr(out, fn.ModuleID)
		out = writeU32(out, uint32(fn.LocalsCount))
		out = writeU32(out, uint32(fn.ParamCount))
		out = writeU32(out, uint32(len(fn.Code)))
		for _, instr := range fn.Code {
			out = encodeInstr(out, instr)
		}
	}
	return out
}

// Decode parses the binary format Encode produces back into a linked
// Module. Any structural problem is reported as an *errcode.CodedError
// with a codec-phase code, never a bare fmt error, so callers can branch
// on Code rather than on message text (spec §4.6 "decoding rejects with a
// stable error").
func Decode(data []byte) (*Module, error) {
	rd := &reader{data: data}

	gotMagic, err := rd.bytes(4)
	if err != nil {
		return nil, err
	}
	if gotMagic[0] != magic[0] || gotMagic[1] != magic[1] || gotMagic[2] != magic[2] || gotMagic[3] != magic[3] {
		return nil, errcode.New(errcode.ECodecMagic, "input does not start with the SKBC magic header")
	}

	version, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if version != codecVersion {
		return nil, errcode.New(errcode.ECodecVersion, "unsupported bytecode version %d", version)
	}

	modCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	globalSlots := make(map[string]int, modCount)
	for i := uint32(0); i < modCount; i++ {
		id, err := rd.str()
		if err != nil {
			return nil, err
		}
		n, err := rd.u32()
		if err != nil {
			return nil, err
		}
		globalSlots[id] = int(n)
	}

	fnCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	chunks := make(map[string]*FunctionChunk, fnCount)
	for i := uint32(0); i < fnCount; i++ {
		name, err := rd.str()
		if err != nil {
			return nil, err
		}
		modID, err := rd.str()
		if err != nil {
			return nil, err
		}
		locals, err := rd.u32()
		if err != nil {
			return nil, err
		}
		params, err := rd.u32()
		if err != nil {
			return nil, err
		}
		codeLen, err := rd.u32()
		if err != nil {
			return nil, err
		}
		code := make([]Instr, 0, codeLen)
		for j := uint32(0); j < codeLen; j++ {
			instr, err := decodeInstr(rd)
			if err != nil {
				return nil, err
			}
			code = append(code, instr)
		}
		chunks[name] = &FunctionChunk{
			Name: name, ModuleID: modID,
			LocalsCount: int(locals), ParamCount: int(params), Code: code,
		}
	}

	return NewModule(chunks, globalSlots), nil
}

func encodeInstr(out []byte, i Instr) []byte {
	tag, ok := opToTag[i.Op]
	if !ok {
		tag = iPop // unreachable for any Instr produced by this package's own lowering
	}
	out = append(out, tag)
	switch i.Op {
	case OpLoadConst:
		out = encodeValue(out, i.Const)
	case OpLoadLocal, OpStoreLocal:
		out = writeU32(out, uint32(i.Int))
	case OpLoadGlobal, OpStoreGlobal:
		out = writeU32(out, uint32(i.Int))
		out = writeStr(out, i.Str)
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		out = writeU32(out, uint32(i.Int))
	case OpCall:
		out = writeStr(out, i.Str)
		out = writeU32(out, uint32(i.Int))
	case OpCallIdx:
		out = writeU32(out, uint32(i.Int))
		out = writeU32(out, uint32(i.Int2))
	case OpCallValue:
		out = writeU32(out, uint32(i.Int))
	case OpCallMethod:
		out = writeStr(out, i.Str)
		out = writeU32(out, uint32(i.Int))
	case OpCallBuiltin:
		out = writeStr(out, i.Str2)
		out = writeStr(out, i.Str)
		out = writeU32(out, uint32(i.Int))
	case OpMakeArray, OpMakeArrayRepeat, OpArraySetChain:
		out = writeU32(out, uint32(i.Int))
	case OpMakeStruct:
		out = writeStr(out, i.Str)
		out = writeU32(out, uint32(len(i.Path)))
		for _, f := range i.Path {
			out = writeStr(out, f)
		}
	case OpStructGet:
		out = writeStr(out, i.Str)
	case OpStructSetPath:
		out = writeU32(out, uint32(len(i.Path)))
		for _, f := range i.Path {
			out = writeStr(out, f)
		}
	}
	return out
}

func decodeInstr(rd *reader) (Instr, error) {
	tag, err := rd.u8()
	if err != nil {
		return Instr{}, err
	}
	op, ok := tagToOp[tag]
	if !ok {
		return Instr{}, errcode.New(errcode.ECodecTag, "unknown instruction tag %d", tag)
	}

	instr := Instr{Op: op}
	switch op {
	case OpLoadConst:
		v, err := decodeValue(rd)
		if err != nil {
			return Instr{}, err
		}
		instr.Const = v
	case OpLoadLocal, OpStoreLocal:
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Int = int(n)
	case OpLoadGlobal, OpStoreGlobal:
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		s, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		instr.Int, instr.Str = int(n), s
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Int = int(n)
	case OpCall:
		s, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Str, instr.Int = s, int(n)
	case OpCallIdx:
		idx, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		argc, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Int, instr.Int2 = int(idx), int(argc)
	case OpCallValue:
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Int = int(n)
	case OpCallMethod:
		s, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Str, instr.Int = s, int(n)
	case OpCallBuiltin:
		pkg, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		name, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Str2, instr.Str, instr.Int = pkg, name, int(n)
	case OpMakeArray, OpMakeArrayRepeat, OpArraySetChain:
		n, err := rd.u32()
		if err != nil {
			return Instr{}, err
		}
		instr.Int = int(n)
	case OpMakeStruct:
		s, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		path, err := decodeStrList(rd)
		if err != nil {
			return Instr{}, err
		}
		instr.Str, instr.Path = s, path
	case OpStructGet:
		s, err := rd.str()
		if err != nil {
			return Instr{}, err
		}
		instr.Str = s
	case OpStructSetPath:
		path, err := decodeStrList(rd)
		if err != nil {
			return Instr{}, err
		}
		instr.Path = path
	}
	return instr, nil
}

func decodeStrList(rd *reader) ([]string, error) {
	n, err := rd.u32()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := rd.str()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func encodeValue(out []byte, v Value) []byte {
	switch v.Kind {
	case VInt:
		out = append(out, tagInt)
		out = writeU64(out, uint64(v.Int))
	case VFloat:
		out = append(out, tagFloat)
		out = writeU64(out, math.Float64bits(v.Float))
	case VBool:
		out = append(out, tagBool)
		if v.Bool {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	case VString:
		out = append(out, tagString)
		out = writeStr(out, v.Str)
	case VArray:
		out = append(out, tagArray)
		out = writeU32(out, uint32(len(v.Arr)))
		for _, el := range v.Arr {
			out = encodeValue(out, el)
		}
	case VStruct:
		out = append(out, tagStruct)
		out = writeStr(out, v.Shape.Name)
		out = writeU32(out, uint32(len(v.Shape.FieldNames)))
		for _, n := range v.Shape.FieldNames {
			out = writeStr(out, n)
		}
		out = writeU32(out, uint32(len(v.Fields)))
		for _, f := range v.Fields {
			out = encodeValue(out, f)
		}
	case VFunction:
		out = append(out, tagFunction)
		out = writeStr(out, v.FnName)
	case VVecHandle:
		out = append(out, tagVecHandle)
		out = writeU64(out, v.VecID)
	case VUnit:
		out = append(out, tagUnit)
	}
	return out
}

func decodeValue(rd *reader) (Value, error) {
	tag, err := rd.u8()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagInt:
		n, err := rd.u64()
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(n)), nil
	case tagFloat:
		n, err := rd.u64()
		if err != nil {
			return Value{}, err
		}
		return Float64(math.Float64frombits(n)), nil
	case tagBool:
		b, err := rd.u8()
		if err != nil {
			return Value{}, err
		}
		return Bool_(b != 0), nil
	case tagString:
		s, err := rd.str()
		if err != nil {
			return Value{}, err
		}
		return Str_(s), nil
	case tagArray:
		n, err := rd.u32()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, n)
		for i := range items {
			v, err := decodeValue(rd)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array_(items), nil
	case tagStruct:
		name, err := rd.str()
		if err != nil {
			return Value{}, err
		}
		fieldNames, err := decodeStrList(rd)
		if err != nil {
			return Value{}, err
		}
		n, err := rd.u32()
		if err != nil {
			return Value{}, err
		}
		fields := make([]Value, n)
		for i := range fields {
			v, err := decodeValue(rd)
			if err != nil {
				return Value{}, err
			}
			fields[i] = v
		}
		return Struct(&StructShape{Name: name, FieldNames: fieldNames}, fields), nil
	case tagFunction:
		s, err := rd.str()
		if err != nil {
			return Value{}, err
		}
		return Function(s), nil
	case tagVecHandle:
		n, err := rd.u64()
		if err != nil {
			return Value{}, err
		}
		return VecHandle(n), nil
	case tagUnit:
		return Unit, nil
	default:
		return Value{}, errcode.New(errcode.ECodecTag, "unknown value tag %d", tag)
	}
}

// reader walks data front-to-back, rejecting any read that would run past
// the end of input (spec §4.6 "a length exceeds remaining input").
type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errcode.New(errcode.ECodecLength, "need %d bytes at offset %d, only %d remain", n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errcode.New(errcode.ECodecUTF8, "string field at offset %d is not valid UTF-8", r.pos-int(n))
	}
	return string(b), nil
}

func writeU32(out []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(out, buf[:]...)
}

func writeU64(out []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(out, buf[:]...)
}

func writeStr(out []byte, s string) []byte {
	out = writeU32(out, uint32(len(s)))
	return append(out, s...)
}

