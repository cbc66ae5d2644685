package lowering

import (
	"fmt"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/bytecode"
)

func (mc *moduleCompiler) compileExpr(e ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	switch x := e.(type) {
	case *ast.IntLit:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Int64(x.Value)})
		return nil
	case *ast.FloatLit:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Float64(x.Value)})
		return nil
	case *ast.StringLit:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Str_(x.Value)})
		return nil
	case *ast.BoolLit:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Bool_(x.Value)})
		return nil
	case *ast.GroupExpr:
		return mc.compileExpr(x.X, ctx, code)
	case *ast.Ident:
		return mc.compileIdentLoad(x.Name, ctx, code)
	case *ast.QualifiedExpr:
		return mc.compileQualifiedLoad(x.Segments, ctx, code)
	case *ast.UnaryExpr:
		return mc.compileUnary(x, ctx, code)
	case *ast.BinaryExpr:
		return mc.compileBinary(x, ctx, code)
	case *ast.CallExpr:
		return mc.compileCall(x, ctx, code)
	case *ast.FieldExpr:
		if err := mc.compileExpr(x.X, ctx, code); err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpStructGet, Str: x.Name})
		return nil
	case *ast.IndexExpr:
		if err := mc.compileExpr(x.X, ctx, code); err != nil {
			return err
		}
		if err := mc.compileExpr(x.Index, ctx, code); err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpArrayGet})
		return nil
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			if err := mc.compileExpr(el, ctx, code); err != nil {
				return err
			}
		}
		emit(code, bytecode.OpMakeArray, len(x.Elems))
		return nil
	case *ast.ArrayRepeatExpr:
		if err := mc.compileExpr(x.Value, ctx, code); err != nil {
			return err
		}
		lit, ok := x.Size.(*ast.IntLit)
		if !ok {
			return fmt.Errorf("lowering: array repeat size is not a literal")
		}
		emit(code, bytecode.OpMakeArrayRepeat, int(lit.Value))
		return nil
	case *ast.StructLit:
		return mc.compileStructLit(x, ctx, code)
	case *ast.FuncLit:
		name, err := mc.liftFuncLit(x)
		if err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Function(name)})
		return nil
	default:
		return fmt.Errorf("lowering: unsupported expression %T", e)
	}
}

// compileIdentLoad loads a bare identifier: a function-local, this
// module's own global, or (via the import binding's origin) another
// module's global.
func (mc *moduleCompiler) compileIdentLoad(name string, ctx *fnCtx, code *[]bytecode.Instr) error {
	if slot, ok := ctx.lookup(name); ok {
		emit(code, bytecode.OpLoadLocal, slot)
		return nil
	}
	if _, ok := mc.local.Globals[name]; ok {
		slot, _ := globalSlotOf(mc.local, name)
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadGlobal, Int: slot})
		return nil
	}
	if ref, ok := mc.ext.Origin[name]; ok {
		if originLocal, ok := mc.infos[ref.Module]; ok {
			if slot, ok := globalSlotOf(originLocal.Local, ref.Local); ok {
				*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadGlobal, Int: slot, Str: string(ref.Module)})
				return nil
			}
		}
	}
	if sig, ok := mc.local.Funcs[name]; ok {
		mangled := bytecode.MangleFunc(string(sig.ModuleID), sig.Name)
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Function(mangled)})
		return nil
	}
	if sig, ok := mc.ext.Funcs[name]; ok {
		mangled := bytecode.MangleFunc(string(sig.ModuleID), sig.Name)
		*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Function(mangled)})
		return nil
	}
	return fmt.Errorf("lowering: undefined name %q", name)
}

// compileQualifiedLoad loads a standalone (non-call) dotted reference:
// either a namespace member (an imported module's global or function)
// or a field-access chain rooted at an ordinary value, mirroring the
// checker's own resolveQualifiedChain (spec §3 "QualifiedExpr").
func (mc *moduleCompiler) compileQualifiedLoad(segs []string, ctx *fnCtx, code *[]bytecode.Instr) error {
	start := 1
	if modID, ok := mc.ext.Namespaces[segs[0]]; ok {
		target, ok := mc.infos[modID]
		if !ok {
			return fmt.Errorf("lowering: module %q not resolved", modID)
		}
		name := segs[1]
		if _, ok := target.Local.Globals[name]; ok {
			slot, _ := globalSlotOf(target.Local, name)
			*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadGlobal, Int: slot, Str: string(modID)})
		} else if sig, ok := target.Local.Funcs[name]; ok {
			mangled := bytecode.MangleFunc(string(modID), sig.Name)
			*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Function(mangled)})
		} else {
			return fmt.Errorf("lowering: namespace %q has no member %q", segs[0], name)
		}
		start = 2
	} else if err := mc.compileIdentLoad(segs[0], ctx, code); err != nil {
		return err
	}

	for i := start; i < len(segs); i++ {
		*code = append(*code, bytecode.Instr{Op: bytecode.OpStructGet, Str: segs[i]})
	}
	return nil
}

func (mc *moduleCompiler) compileUnary(x *ast.UnaryExpr, ctx *fnCtx, code *[]bytecode.Instr) error {
	if err := mc.compileExpr(x.X, ctx, code); err != nil {
		return err
	}
	switch x.Op {
	case ast.UnaryNeg:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpNegInt})
	case ast.UnaryNot:
		*code = append(*code, bytecode.Instr{Op: bytecode.OpNotBool})
	case ast.UnaryPos:
		// no-op: unary + is identity
	}
	return nil
}

// compileBinary lowers binary operators; `&&`/`||` short-circuit via
// branching instead of a boolean instruction so the right-hand side is
// never evaluated when the outcome is already fixed (spec §4.4).
func (mc *moduleCompiler) compileBinary(x *ast.BinaryExpr, ctx *fnCtx, code *[]bytecode.Instr) error {
	switch x.Op {
	case ast.BinAnd:
		return mc.compileShortCircuit(x, ctx, code, bytecode.OpJumpIfFalse, false)
	case ast.BinOr:
		return mc.compileShortCircuit(x, ctx, code, bytecode.OpJumpIfTrue, true)
	}

	if err := mc.compileExpr(x.Left, ctx, code); err != nil {
		return err
	}
	if err := mc.compileExpr(x.Right, ctx, code); err != nil {
		return err
	}

	var op bytecode.Op
	switch x.Op {
	case ast.BinEq:
		op = bytecode.OpEq
	case ast.BinNeq:
		op = bytecode.OpNeq
	case ast.BinLt:
		op = bytecode.OpLtInt
	case ast.BinLte:
		op = bytecode.OpLteInt
	case ast.BinGt:
		op = bytecode.OpGtInt
	case ast.BinGte:
		op = bytecode.OpGteInt
	case ast.BinAdd:
		op = bytecode.OpAdd
	case ast.BinSub:
		op = bytecode.OpSubInt
	case ast.BinMul:
		op = bytecode.OpMulInt
	case ast.BinDiv:
		op = bytecode.OpDivInt
	case ast.BinMod:
		op = bytecode.OpModInt
	default:
		return fmt.Errorf("lowering: unsupported binary operator")
	}
	*code = append(*code, bytecode.Instr{Op: op})
	return nil
}

// compileShortCircuit lowers `left && right` / `left || right`. shortOp
// is the branch instruction that, taken on left's value, means the
// result is already decided (JumpIfFalse for &&, JumpIfTrue for ||);
// shortResult is the boolean the expression evaluates to in that case.
func (mc *moduleCompiler) compileShortCircuit(x *ast.BinaryExpr, ctx *fnCtx, code *[]bytecode.Instr, shortOp bytecode.Op, shortResult bool) error {
	if err := mc.compileExpr(x.Left, ctx, code); err != nil {
		return err
	}
	*code = append(*code, bytecode.Instr{Op: shortOp})
	shortJump := len(*code) - 1

	if err := mc.compileExpr(x.Right, ctx, code); err != nil {
		return err
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
	doneJump := len(*code) - 1

	(*code)[shortJump].Int = len(*code)
	*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Bool_(shortResult)})

	(*code)[doneJump].Int = len(*code)
	return nil
}

func (mc *moduleCompiler) compileStructLit(x *ast.StructLit, ctx *fnCtx, code *[]bytecode.Instr) error {
	info, ok := mc.resolveStruct(x.Name)
	if !ok {
		return fmt.Errorf("lowering: unknown struct %q", x.Name)
	}
	byName := make(map[string]ast.Expr, len(x.Fields))
	for _, f := range x.Fields {
		byName[f.Name] = f.Value
	}

	// Declared field order, not literal order, so every construction
	// site of a struct lays its fields out identically at runtime.
	names := make([]string, len(info.Fields))
	for i, f := range info.Fields {
		val, ok := byName[f.Name]
		if !ok {
			return fmt.Errorf("lowering: struct literal %q missing field %q", x.Name, f.Name)
		}
		if err := mc.compileExpr(val, ctx, code); err != nil {
			return err
		}
		names[i] = f.Name
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpMakeStruct, Str: info.Name, Path: names})
	return nil
}
