package lowering

import (
	"fmt"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/types"
)

// compileCall dispatches on the callee's syntactic form, mirroring the
// checker's own classification (spec §4.3 "Calls", §4.4 "Name and
// symbol strategy"): a QualifiedExpr is a builtin call, a namespace call,
// or a method call on a chain; a FieldExpr is a method call on its
// receiver; an Ident is a local/global/imported function or a
// Fn-valued local; anything else must evaluate to a Function value.
func (mc *moduleCompiler) compileCall(x *ast.CallExpr, ctx *fnCtx, code *[]bytecode.Instr) error {
	switch callee := x.Callee.(type) {
	case *ast.QualifiedExpr:
		return mc.compileQualifiedCall(callee, x.Args, ctx, code)
	case *ast.FieldExpr:
		return mc.compileMethodCall(callee, x.Args, ctx, code)
	case *ast.Ident:
		return mc.compilePlainCall(callee, x.Args, ctx, code)
	default:
		if err := mc.compileExpr(x.Callee, ctx, code); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := mc.compileExpr(a, ctx, code); err != nil {
				return err
			}
		}
		emit(code, bytecode.OpCallValue, len(x.Args))
		return nil
	}
}

func (mc *moduleCompiler) compilePlainCall(callee *ast.Ident, args []ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	if slot, ok := ctx.lookup(callee.Name); ok {
		emit(code, bytecode.OpLoadLocal, slot)
		for _, a := range args {
			if err := mc.compileExpr(a, ctx, code); err != nil {
				return err
			}
		}
		emit(code, bytecode.OpCallValue, len(args))
		return nil
	}

	var sig *types.FuncSig
	if s, ok := mc.local.Funcs[callee.Name]; ok {
		sig = s
	} else if s, ok := mc.ext.Funcs[callee.Name]; ok {
		sig = s
	} else {
		return fmt.Errorf("lowering: call to undefined function %q", callee.Name)
	}

	for _, a := range args {
		if err := mc.compileExpr(a, ctx, code); err != nil {
			return err
		}
	}
	mangled := bytecode.MangleFunc(string(sig.ModuleID), sig.Name)
	*code = append(*code, bytecode.Instr{Op: bytecode.OpCall, Str: mangled, Int: len(args)})
	return nil
}

// compileMethodCall loads the receiver, compiles each argument, then
// emits CallMethod{name, argc}; the receiver's runtime struct shape is
// what resolves the mangled target, not anything known here at compile
// time (spec §4.4 "at runtime the receiver's struct name combined with
// the method name yields the mangled target").
func (mc *moduleCompiler) compileMethodCall(callee *ast.FieldExpr, args []ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	if err := mc.compileExpr(callee.X, ctx, code); err != nil {
		return err
	}
	for _, a := range args {
		if err := mc.compileExpr(a, ctx, code); err != nil {
			return err
		}
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpCallMethod, Str: callee.Name, Int: len(args)})
	return nil
}

// compileQualifiedCall handles a call whose callee is a flat dotted
// chain: exactly two segments where the first names a builtin package
// or an imported namespace dispatch directly; anything else is a method
// call where every segment but the last resolves a receiver value
// (spec §4.3 "checkQualifiedCall").
func (mc *moduleCompiler) compileQualifiedCall(callee *ast.QualifiedExpr, args []ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	segs := callee.Segments
	if len(segs) == 2 {
		pkg, name := segs[0], segs[1]
		if types.IsBuiltinPackage(pkg) {
			for _, a := range args {
				if err := mc.compileExpr(a, ctx, code); err != nil {
					return err
				}
			}
			*code = append(*code, bytecode.Instr{Op: bytecode.OpCallBuiltin, Str: name, Str2: pkg, Int: len(args)})
			return nil
		}
		if modID, ok := mc.ext.Namespaces[pkg]; ok {
			target, ok := mc.infos[modID]
			if !ok {
				return fmt.Errorf("lowering: module %q not resolved", modID)
			}
			sig, ok := target.Local.Funcs[name]
			if !ok {
				return fmt.Errorf("lowering: module %q has no function %q", modID, name)
			}
			for _, a := range args {
				if err := mc.compileExpr(a, ctx, code); err != nil {
					return err
				}
			}
			mangled := bytecode.MangleFunc(string(modID), sig.Name)
			*code = append(*code, bytecode.Instr{Op: bytecode.OpCall, Str: mangled, Int: len(args)})
			return nil
		}
	}

	recvSegs := segs[:len(segs)-1]
	methodName := segs[len(segs)-1]
	if err := mc.compileQualifiedLoad(recvSegs, ctx, code); err != nil {
		return err
	}
	for _, a := range args {
		if err := mc.compileExpr(a, ctx, code); err != nil {
			return err
		}
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpCallMethod, Str: methodName, Int: len(args)})
	return nil
}
