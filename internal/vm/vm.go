package vm

import "github.com/skepa-lang/skepa/internal/bytecode"

// DefaultMaxCallDepth bounds recursive Call/CallIdx/CallValue/CallMethod
// nesting when a VM is built without an explicit override (spec §4.5
// "max_call_depth defaults to 128").
const DefaultMaxCallDepth = 128

// VM executes a linked bytecode.Module. Each Call recurses through the
// host Go stack rather than maintaining an explicit frame array, mirroring
// the recursive interpreter this package is grounded on; MaxCallDepth is
// VM's own bookkeeping against runaway recursion (spec §4.5).
type VM struct {
	mod      *bytecode.Module
	host     Host
	registry *Registry
	globals  map[string][]bytecode.Value
	maxDepth int
}

// New builds a VM over a linked module. maxCallDepth <= 0 selects
// DefaultMaxCallDepth.
func New(mod *bytecode.Module, host Host, registry *Registry, maxCallDepth int) *VM {
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	globals := make(map[string][]bytecode.Value, len(mod.GlobalSlots))
	for id, n := range mod.GlobalSlots {
		slots := make([]bytecode.Value, n)
		for i := range slots {
			slots[i] = bytecode.Unit
		}
		globals[id] = slots
	}
	return &VM{mod: mod, host: host, registry: registry, globals: globals, maxDepth: maxCallDepth}
}

// Run invokes the named chunk (typically the driver-synthesized "main")
// with no arguments and returns its result.
func (vm *VM) Run(entry string) (bytecode.Value, error) {
	return vm.callByName(entry, nil, 0)
}

// Call invokes a chunk by its mangled name with the given arguments, for
// embedders that want to call into a compiled module directly (tests,
// a REPL, host-initiated re-entry).
func (vm *VM) Call(name string, args []bytecode.Value) (bytecode.Value, error) {
	return vm.callByName(name, args, 0)
}

func (vm *VM) callByName(name string, args []bytecode.Value, depth int) (bytecode.Value, error) {
	chunk, ok := vm.mod.Chunk(name)
	if !ok {
		return bytecode.Value{}, unknownFunction(name)
	}
	return vm.callChunk(chunk, args, depth)
}

func (vm *VM) callChunk(chunk *bytecode.FunctionChunk, args []bytecode.Value, depth int) (bytecode.Value, error) {
	// The depth check runs before a new frame is allocated at all, so a
	// module whose deepest recursion lands exactly on the limit never
	// pays for the frame it is about to be refused (spec §4.5).
	if depth >= vm.maxDepth {
		return bytecode.Value{}, stackOverflow(depth, vm.maxDepth)
	}
	locals := make([]bytecode.Value, chunk.LocalsCount)
	for i := range locals {
		locals[i] = bytecode.Unit
	}
	for i := 0; i < chunk.ParamCount && i < len(args); i++ {
		locals[i] = args[i]
	}
	return vm.runFrame(chunk, locals, depth+1)
}

// frame is the mutable state of one chunk's execution: its fixed-size
// locals array, its operand stack, and the instruction pointer.
type frame struct {
	chunk  *bytecode.FunctionChunk
	locals []bytecode.Value
	stack  []bytecode.Value
	ip     int
}

func (f *frame) push(v bytecode.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop(op string) (bytecode.Value, error) {
	if len(f.stack) == 0 {
		return bytecode.Value{}, stackUnderflow(op)
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

// popN pops n values, returning them in their original push order.
func (f *frame) popN(op string, n int) ([]bytecode.Value, error) {
	if len(f.stack) < n {
		return nil, stackUnderflow(op)
	}
	out := make([]bytecode.Value, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out, nil
}

func (vm *VM) runFrame(chunk *bytecode.FunctionChunk, locals []bytecode.Value, depth int) (bytecode.Value, error) {
	f := &frame{chunk: chunk, locals: locals, stack: make([]bytecode.Value, 0, 8)}
	code := chunk.Code

	for {
		if f.ip < 0 || f.ip >= len(code) {
			return bytecode.Value{}, newErr("E-VM-TYPE", "instruction pointer %d out of range for %q", f.ip, chunk.Name)
		}
		instr := code[f.ip]

		switch instr.Op {
		case bytecode.OpLoadConst:
			f.push(instr.Const)
			f.ip++

		case bytecode.OpLoadLocal:
			if instr.Int < 0 || instr.Int >= len(f.locals) {
				return bytecode.Value{}, invalidLocal(instr.Int, len(f.locals))
			}
			f.push(f.locals[instr.Int])
			f.ip++

		case bytecode.OpStoreLocal:
			v, err := f.pop("StoreLocal")
			if err != nil {
				return bytecode.Value{}, err
			}
			if instr.Int < 0 || instr.Int >= len(f.locals) {
				return bytecode.Value{}, invalidLocal(instr.Int, len(f.locals))
			}
			f.locals[instr.Int] = v
			f.ip++

		case bytecode.OpLoadGlobal:
			slots, err := vm.globalSlots(chunk, instr.Str)
			if err != nil {
				return bytecode.Value{}, err
			}
			if instr.Int < 0 || instr.Int >= len(slots) {
				return bytecode.Value{}, invalidLocal(instr.Int, len(slots))
			}
			f.push(slots[instr.Int])
			f.ip++

		case bytecode.OpStoreGlobal:
			v, err := f.pop("StoreGlobal")
			if err != nil {
				return bytecode.Value{}, err
			}
			slots, err := vm.globalSlots(chunk, instr.Str)
			if err != nil {
				return bytecode.Value{}, err
			}
			if instr.Int < 0 || instr.Int >= len(slots) {
				return bytecode.Value{}, invalidLocal(instr.Int, len(slots))
			}
			slots[instr.Int] = v
			f.ip++

		case bytecode.OpPop:
			if _, err := f.pop("Pop"); err != nil {
				return bytecode.Value{}, err
			}
			f.ip++

		case bytecode.OpNegInt:
			v, err := f.pop("NegInt")
			if err != nil {
				return bytecode.Value{}, err
			}
			switch v.Kind {
			case bytecode.VInt:
				f.push(bytecode.Int64(-v.Int))
			case bytecode.VFloat:
				f.push(bytecode.Float64(-v.Float))
			default:
				return bytecode.Value{}, typeErr("NegInt", v)
			}
			f.ip++

		case bytecode.OpAdd, bytecode.OpSubInt, bytecode.OpMulInt, bytecode.OpDivInt, bytecode.OpModInt:
			if err := vm.runArith(f, instr.Op); err != nil {
				return bytecode.Value{}, err
			}
			f.ip++

		case bytecode.OpEq, bytecode.OpNeq:
			b, err := f.pop("Eq")
			if err != nil {
				return bytecode.Value{}, err
			}
			a, err := f.pop("Eq")
			if err != nil {
				return bytecode.Value{}, err
			}
			if a.Kind == bytecode.VFunction || b.Kind == bytecode.VFunction {
				return bytecode.Value{}, typeErr("Eq", "Function operands are not comparable")
			}
			eq := bytecode.Equal(a, b)
			if instr.Op == bytecode.OpNeq {
				eq = !eq
			}
			f.push(bytecode.Bool_(eq))
			f.ip++

		case bytecode.OpLtInt, bytecode.OpLteInt, bytecode.OpGtInt, bytecode.OpGteInt:
			if err := vm.runCompare(f, instr.Op); err != nil {
				return bytecode.Value{}, err
			}
			f.ip++

		case bytecode.OpNotBool:
			v, err := f.pop("NotBool")
			if err != nil {
				return bytecode.Value{}, err
			}
			if v.Kind != bytecode.VBool {
				return bytecode.Value{}, typeErr("NotBool", v)
			}
			f.push(bytecode.Bool_(!v.Bool))
			f.ip++

		case bytecode.OpAndBool, bytecode.OpOrBool:
			b, err := f.pop("AndOrBool")
			if err != nil {
				return bytecode.Value{}, err
			}
			a, err := f.pop("AndOrBool")
			if err != nil {
				return bytecode.Value{}, err
			}
			if a.Kind != bytecode.VBool || b.Kind != bytecode.VBool {
				return bytecode.Value{}, typeErr("AndOrBool", a)
			}
			if instr.Op == bytecode.OpAndBool {
				f.push(bytecode.Bool_(a.Bool && b.Bool))
			} else {
				f.push(bytecode.Bool_(a.Bool || b.Bool))
			}
			f.ip++

		case bytecode.OpJump:
			f.ip = instr.Int

		case bytecode.OpJumpIfFalse:
			v, err := f.pop("JumpIfFalse")
			if err != nil {
				return bytecode.Value{}, err
			}
			if v.Kind != bytecode.VBool {
				return bytecode.Value{}, typeErr("JumpIfFalse", v)
			}
			if !v.Bool {
				f.ip = instr.Int
			} else {
				f.ip++
			}

		case bytecode.OpJumpIfTrue:
			v, err := f.pop("JumpIfTrue")
			if err != nil {
				return bytecode.Value{}, err
			}
			if v.Kind != bytecode.VBool {
				return bytecode.Value{}, typeErr("JumpIfTrue", v)
			}
			if v.Bool {
				f.ip = instr.Int
			} else {
				f.ip++
			}

		case bytecode.OpCall:
			args, err := f.popN("Call", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			result, err := vm.callByName(instr.Str, args, depth)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(result)
			f.ip++

		case bytecode.OpCallIdx:
			args, err := f.popN("CallIdx", instr.Int2)
			if err != nil {
				return bytecode.Value{}, err
			}
			chunkAt, ok := vm.mod.ChunkAt(instr.Int)
			if !ok {
				return bytecode.Value{}, unknownFunction("<bad index>")
			}
			result, err := vm.callChunk(chunkAt, args, depth)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(result)
			f.ip++

		case bytecode.OpCallValue:
			args, err := f.popN("CallValue", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			fnVal, err := f.pop("CallValue")
			if err != nil {
				return bytecode.Value{}, err
			}
			if fnVal.Kind != bytecode.VFunction {
				return bytecode.Value{}, typeErr("CallValue", fnVal)
			}
			result, err := vm.callByName(fnVal.FnName, args, depth)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(result)
			f.ip++

		case bytecode.OpCallMethod:
			args, err := f.popN("CallMethod", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			recv, err := f.pop("CallMethod")
			if err != nil {
				return bytecode.Value{}, err
			}
			if recv.Kind != bytecode.VStruct {
				return bytecode.Value{}, typeErr("CallMethod", recv)
			}
			mangled := bytecode.MangleMethod(recv.Shape.Name, instr.Str)
			if _, ok := vm.mod.Chunk(mangled); !ok {
				return bytecode.Value{}, unknownFunction(recv.Shape.Name + "." + instr.Str)
			}
			callArgs := make([]bytecode.Value, 0, len(args)+1)
			callArgs = append(callArgs, recv)
			callArgs = append(callArgs, args...)
			result, err := vm.callByName(mangled, callArgs, depth)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(result)
			f.ip++

		case bytecode.OpCallBuiltin:
			args, err := f.popN("CallBuiltin", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			result, err := vm.registry.call(vm.host, instr.Str2, instr.Str, args)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(result)
			f.ip++

		case bytecode.OpMakeArray:
			elems, err := f.popN("MakeArray", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(bytecode.Array_(elems))
			f.ip++

		case bytecode.OpMakeArrayRepeat:
			v, err := f.pop("MakeArrayRepeat")
			if err != nil {
				return bytecode.Value{}, err
			}
			if instr.Int < 0 {
				return bytecode.Value{}, typeErr("MakeArrayRepeat", v)
			}
			elems := make([]bytecode.Value, instr.Int)
			for i := range elems {
				elems[i] = v
			}
			f.push(bytecode.Array_(elems))
			f.ip++

		case bytecode.OpArrayGet:
			idx, err := f.pop("ArrayGet")
			if err != nil {
				return bytecode.Value{}, err
			}
			arr, err := f.pop("ArrayGet")
			if err != nil {
				return bytecode.Value{}, err
			}
			if arr.Kind != bytecode.VArray || idx.Kind != bytecode.VInt {
				return bytecode.Value{}, typeErr("ArrayGet", arr)
			}
			if idx.Int < 0 || idx.Int >= int64(len(arr.Arr)) {
				return bytecode.Value{}, indexOOB("ArrayGet", int(idx.Int), len(arr.Arr))
			}
			f.push(arr.Arr[idx.Int])
			f.ip++

		case bytecode.OpArrayLen:
			arr, err := f.pop("ArrayLen")
			if err != nil {
				return bytecode.Value{}, err
			}
			if arr.Kind != bytecode.VArray {
				return bytecode.Value{}, typeErr("ArrayLen", arr)
			}
			f.push(bytecode.Int64(int64(len(arr.Arr))))
			f.ip++

		case bytecode.OpArraySet:
			v, err := f.pop("ArraySet")
			if err != nil {
				return bytecode.Value{}, err
			}
			idx, err := f.pop("ArraySet")
			if err != nil {
				return bytecode.Value{}, err
			}
			arr, err := f.pop("ArraySet")
			if err != nil {
				return bytecode.Value{}, err
			}
			if arr.Kind != bytecode.VArray || idx.Kind != bytecode.VInt {
				return bytecode.Value{}, typeErr("ArraySet", arr)
			}
			if idx.Int < 0 || idx.Int >= int64(len(arr.Arr)) {
				return bytecode.Value{}, indexOOB("ArraySet", int(idx.Int), len(arr.Arr))
			}
			f.push(bytecode.Array_(bytecode.CloneArraySet(arr.Arr, int(idx.Int), v)))
			f.ip++

		case bytecode.OpArraySetChain:
			v, err := f.pop("ArraySetChain")
			if err != nil {
				return bytecode.Value{}, err
			}
			idxVals, err := f.popN("ArraySetChain", instr.Int)
			if err != nil {
				return bytecode.Value{}, err
			}
			arr, err := f.pop("ArraySetChain")
			if err != nil {
				return bytecode.Value{}, err
			}
			indices := make([]int64, len(idxVals))
			for i, iv := range idxVals {
				if iv.Kind != bytecode.VInt {
					return bytecode.Value{}, typeErr("ArraySetChain", iv)
				}
				indices[i] = iv.Int
			}
			newArr, err := arraySetChain(arr, indices, v)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(newArr)
			f.ip++

		case bytecode.OpMakeStruct:
			fields, err := f.popN("MakeStruct", len(instr.Path))
			if err != nil {
				return bytecode.Value{}, err
			}
			shape := &bytecode.StructShape{Name: instr.Str, FieldNames: instr.Path}
			f.push(bytecode.Struct(shape, fields))
			f.ip++

		case bytecode.OpStructGet:
			s, err := f.pop("StructGet")
			if err != nil {
				return bytecode.Value{}, err
			}
			if s.Kind != bytecode.VStruct {
				return bytecode.Value{}, typeErr("StructGet", s)
			}
			idx := fieldIndex(s.Shape, instr.Str)
			if idx < 0 {
				return bytecode.Value{}, typeErr("StructGet", s)
			}
			f.push(s.Fields[idx])
			f.ip++

		case bytecode.OpStructSetPath:
			v, err := f.pop("StructSetPath")
			if err != nil {
				return bytecode.Value{}, err
			}
			s, err := f.pop("StructSetPath")
			if err != nil {
				return bytecode.Value{}, err
			}
			newS, err := structSetPath(s, instr.Path, v)
			if err != nil {
				return bytecode.Value{}, err
			}
			f.push(newS)
			f.ip++

		case bytecode.OpReturn:
			return f.pop("Return")

		default:
			return bytecode.Value{}, newErr("E-VM-TYPE", "unimplemented opcode %s", instr.Op)
		}
	}
}

func (vm *VM) globalSlots(owner *bytecode.FunctionChunk, override string) ([]bytecode.Value, error) {
	id := override
	if id == "" {
		id = owner.ModuleID
	}
	slots, ok := vm.globals[id]
	if !ok {
		return nil, newErr("E-VM-TYPE", "no global slots registered for module %q", id)
	}
	return slots, nil
}

func (vm *VM) runArith(f *frame, op bytecode.Op) error {
	b, err := f.pop("arith")
	if err != nil {
		return err
	}
	a, err := f.pop("arith")
	if err != nil {
		return err
	}
	if op == bytecode.OpAdd && a.Kind == bytecode.VString && b.Kind == bytecode.VString {
		f.push(bytecode.Str_(a.Str + b.Str))
		return nil
	}
	if a.Kind == bytecode.VInt && b.Kind == bytecode.VInt {
		switch op {
		case bytecode.OpAdd:
			f.push(bytecode.Int64(a.Int + b.Int))
		case bytecode.OpSubInt:
			f.push(bytecode.Int64(a.Int - b.Int))
		case bytecode.OpMulInt:
			f.push(bytecode.Int64(a.Int * b.Int))
		case bytecode.OpDivInt:
			if b.Int == 0 {
				return divZero("DivInt")
			}
			f.push(bytecode.Int64(a.Int / b.Int))
		case bytecode.OpModInt:
			if b.Int == 0 {
				return divZero("ModInt")
			}
			f.push(bytecode.Int64(a.Int % b.Int))
		}
		return nil
	}
	if a.Kind == bytecode.VFloat && b.Kind == bytecode.VFloat {
		switch op {
		case bytecode.OpAdd:
			f.push(bytecode.Float64(a.Float + b.Float))
		case bytecode.OpSubInt:
			f.push(bytecode.Float64(a.Float - b.Float))
		case bytecode.OpMulInt:
			f.push(bytecode.Float64(a.Float * b.Float))
		case bytecode.OpDivInt:
			if b.Float == 0 {
				return divZero("DivInt")
			}
			f.push(bytecode.Float64(a.Float / b.Float))
		case bytecode.OpModInt:
			return typeErr("ModInt", a)
		}
		return nil
	}
	return typeErr(op.String(), a)
}

func (vm *VM) runCompare(f *frame, op bytecode.Op) error {
	b, err := f.pop("compare")
	if err != nil {
		return err
	}
	a, err := f.pop("compare")
	if err != nil {
		return err
	}
	var lt, eq bool
	switch {
	case a.Kind == bytecode.VInt && b.Kind == bytecode.VInt:
		lt, eq = a.Int < b.Int, a.Int == b.Int
	case a.Kind == bytecode.VFloat && b.Kind == bytecode.VFloat:
		lt, eq = a.Float < b.Float, a.Float == b.Float
	default:
		return typeErr(op.String(), a)
	}
	var result bool
	switch op {
	case bytecode.OpLtInt:
		result = lt
	case bytecode.OpLteInt:
		result = lt || eq
	case bytecode.OpGtInt:
		result = !lt && !eq
	case bytecode.OpGteInt:
		result = !lt
	}
	f.push(bytecode.Bool_(result))
	return nil
}

// arraySetChain replaces the value at arr[indices[0]][indices[1]]...
// with v, cloning the spine along the path so outer aliases of arr keep
// seeing the old value (spec §5 "value semantic").
func arraySetChain(arr bytecode.Value, indices []int64, v bytecode.Value) (bytecode.Value, error) {
	if arr.Kind != bytecode.VArray {
		return bytecode.Value{}, typeErr("ArraySetChain", arr)
	}
	idx := indices[0]
	if idx < 0 || idx >= int64(len(arr.Arr)) {
		return bytecode.Value{}, indexOOB("ArraySetChain", int(idx), len(arr.Arr))
	}
	if len(indices) == 1 {
		return bytecode.Array_(bytecode.CloneArraySet(arr.Arr, int(idx), v)), nil
	}
	child, err := arraySetChain(arr.Arr[idx], indices[1:], v)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.Array_(bytecode.CloneArraySet(arr.Arr, int(idx), child)), nil
}

// structSetPath replaces the field named path[0] (recursing into nested
// structs for the rest of path) with v, cloning each struct along the
// way (spec §5 "value semantic").
func structSetPath(s bytecode.Value, path []string, v bytecode.Value) (bytecode.Value, error) {
	if s.Kind != bytecode.VStruct {
		return bytecode.Value{}, typeErr("StructSetPath", s)
	}
	idx := fieldIndex(s.Shape, path[0])
	if idx < 0 {
		return bytecode.Value{}, typeErr("StructSetPath", s)
	}
	if len(path) == 1 {
		return bytecode.CloneStructSet(s, idx, v), nil
	}
	child, err := structSetPath(s.Fields[idx], path[1:], v)
	if err != nil {
		return bytecode.Value{}, err
	}
	return bytecode.CloneStructSet(s, idx, child), nil
}

func fieldIndex(shape *bytecode.StructShape, name string) int {
	for i, n := range shape.FieldNames {
		if n == name {
			return i
		}
	}
	return -1
}
