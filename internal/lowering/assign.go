package lowering

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/bytecode"
)

// lvOp is one step of an assignment target's path, rooted at a plain
// variable: either a struct field name or an array index expression.
type lvOp struct {
	field   string
	index   ast.Expr
	isField bool
}

// flattenLValue walks an assignment target down to the plain variable it
// is ultimately rooted at, collecting the field/index steps along the
// way. The parser's dotted-chain folding means a field-access chain
// rooted at a bare identifier arrives as a *ast.QualifiedExpr tagged
// ast.AssignIdent, not ast.AssignField (spec §3 "QualifiedExpr") --
// handled here the same way as any other root, rather than in the
// statement dispatch. A chain rooted at an imported namespace (`ns.g =
// v;`) has no single mutable slot to flatten to and reports ok=false.
func (mc *moduleCompiler) flattenLValue(e ast.Expr) (root *ast.Ident, ops []lvOp, ok bool) {
	switch x := e.(type) {
	case *ast.Ident:
		return x, nil, true

	case *ast.QualifiedExpr:
		if _, isNS := mc.ext.Namespaces[x.Segments[0]]; isNS {
			return nil, nil, false
		}
		fieldOps := make([]lvOp, 0, len(x.Segments)-1)
		for _, s := range x.Segments[1:] {
			fieldOps = append(fieldOps, lvOp{field: s, isField: true})
		}
		return &ast.Ident{Name: x.Segments[0], SpanValue: x.SpanValue}, fieldOps, true

	case *ast.FieldExpr:
		root, ops, ok := mc.flattenLValue(x.X)
		if !ok {
			return nil, nil, false
		}
		return root, append(ops, lvOp{field: x.Name, isField: true}), true

	case *ast.IndexExpr:
		root, ops, ok := mc.flattenLValue(x.X)
		if !ok {
			return nil, nil, false
		}
		return root, append(ops, lvOp{index: x.Index, isField: false}), true

	default:
		return nil, nil, false
	}
}

// resolveAssignRoot locates the storage an lvalue's root variable denotes:
// a function-local slot, this module's own global slot, or (through the
// import binding's origin) another module's global slot.
func (mc *moduleCompiler) resolveAssignRoot(name string, ctx *fnCtx) (slot int, isLocal bool, moduleID string, ok bool) {
	if s, found := ctx.lookup(name); found {
		return s, true, "", true
	}
	if _, found := mc.local.Globals[name]; found {
		s, _ := globalSlotOf(mc.local, name)
		return s, false, "", true
	}
	if ref, found := mc.ext.Origin[name]; found {
		if originInfo, found2 := mc.infos[ref.Module]; found2 {
			if s, found3 := globalSlotOf(originInfo.Local, ref.Local); found3 {
				return s, false, string(ref.Module), true
			}
		}
	}
	return 0, false, "", false
}

// compileAssign lowers one assignment statement's target and value.
// Pure field-path chains emit StructSetPath; pure index chains emit
// ArraySet/ArraySetChain; a root that resolves to nothing mutable, or a
// chain mixing field and index steps (no single instruction mutates
// through both in one step), still evaluates the value expression for
// its side effects and discards it rather than emitting broken code.
func (mc *moduleCompiler) compileAssign(target, value ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	root, ops, ok := mc.flattenLValue(target)
	if !ok {
		return mc.compileAndDrop(value, ctx, code)
	}

	slot, isLocal, moduleID, ok := mc.resolveAssignRoot(root.Name, ctx)
	if !ok {
		return mc.compileAndDrop(value, ctx, code)
	}

	load := func() {
		if isLocal {
			emit(code, bytecode.OpLoadLocal, slot)
		} else {
			*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadGlobal, Int: slot, Str: moduleID})
		}
	}
	store := func() {
		if isLocal {
			emit(code, bytecode.OpStoreLocal, slot)
		} else {
			*code = append(*code, bytecode.Instr{Op: bytecode.OpStoreGlobal, Int: slot, Str: moduleID})
		}
	}

	if len(ops) == 0 {
		if err := mc.compileExpr(value, ctx, code); err != nil {
			return err
		}
		store()
		return nil
	}

	allFields, allIndex := true, true
	for _, op := range ops {
		if op.isField {
			allIndex = false
		} else {
			allFields = false
		}
	}

	switch {
	case allFields:
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = op.field
		}
		load()
		if err := mc.compileExpr(value, ctx, code); err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpStructSetPath, Path: names})
		store()

	case allIndex:
		load()
		for _, op := range ops {
			if err := mc.compileExpr(op.index, ctx, code); err != nil {
				return err
			}
		}
		if err := mc.compileExpr(value, ctx, code); err != nil {
			return err
		}
		if len(ops) == 1 {
			*code = append(*code, bytecode.Instr{Op: bytecode.OpArraySet})
		} else {
			emit(code, bytecode.OpArraySetChain, len(ops))
		}
		store()

	default:
		return mc.compileAndDrop(value, ctx, code)
	}
	return nil
}

func (mc *moduleCompiler) compileAndDrop(value ast.Expr, ctx *fnCtx, code *[]bytecode.Instr) error {
	if err := mc.compileExpr(value, ctx, code); err != nil {
		return err
	}
	emit(code, bytecode.OpPop, 0)
	return nil
}
