package lowering

import (
	"fmt"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/bytecode"
)

func (mc *moduleCompiler) compileBlock(b *ast.Block, ctx *fnCtx, code *[]bytecode.Instr) error {
	ctx.pushScope()
	defer ctx.popScope()
	for _, s := range b.Stmts {
		if err := mc.compileStmt(s, ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (mc *moduleCompiler) compileStmt(s ast.Stmt, ctx *fnCtx, code *[]bytecode.Instr) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		if err := mc.compileExpr(st.Value, ctx, code); err != nil {
			return err
		}
		slot := ctx.declare(st.Name)
		emit(code, bytecode.OpStoreLocal, slot)
		return nil

	case *ast.AssignStmt:
		return mc.compileAssign(st.Target, st.Value, ctx, code)

	case *ast.ExprStmt:
		if err := mc.compileExpr(st.X, ctx, code); err != nil {
			return err
		}
		emit(code, bytecode.OpPop, 0)
		return nil

	case *ast.IfStmt:
		return mc.compileIf(st, ctx, code)

	case *ast.WhileStmt:
		return mc.compileWhile(st, ctx, code)

	case *ast.ForStmt:
		return mc.compileFor(st, ctx, code)

	case *ast.BreakStmt:
		lc, err := ctx.currentLoop()
		if err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
		lc.breakAt = append(lc.breakAt, len(*code)-1)
		return nil

	case *ast.ContinueStmt:
		lc, err := ctx.currentLoop()
		if err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJump, Int: lc.continueAddr})
		return nil

	case *ast.ReturnStmt:
		if st.Value != nil {
			if err := mc.compileExpr(st.Value, ctx, code); err != nil {
				return err
			}
		} else {
			*code = append(*code, bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.Unit})
		}
		emit(code, bytecode.OpReturn, 0)
		return nil

	case *ast.MatchStmt:
		return mc.compileMatch(st, ctx, code)

	default:
		return fmt.Errorf("lowering: unsupported statement %T", s)
	}
}

func emit(code *[]bytecode.Instr, op bytecode.Op, i int) {
	*code = append(*code, bytecode.Instr{Op: op, Int: i})
}

func (mc *moduleCompiler) compileIf(st *ast.IfStmt, ctx *fnCtx, code *[]bytecode.Instr) error {
	if err := mc.compileExpr(st.Cond, ctx, code); err != nil {
		return err
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJumpIfFalse})
	jumpToElse := len(*code) - 1

	if err := mc.compileBlock(st.Then, ctx, code); err != nil {
		return err
	}

	if st.Else == nil {
		(*code)[jumpToElse].Int = len(*code)
		return nil
	}

	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
	jumpToEnd := len(*code) - 1
	(*code)[jumpToElse].Int = len(*code)

	if err := mc.compileBlock(st.Else, ctx, code); err != nil {
		return err
	}
	(*code)[jumpToEnd].Int = len(*code)
	return nil
}

// compileWhile lowers `while (cond) body`; continue jumps back to the
// condition test (spec §4.4 "While-loop continue jumps back to the
// condition test").
func (mc *moduleCompiler) compileWhile(st *ast.WhileStmt, ctx *fnCtx, code *[]bytecode.Instr) error {
	condStart := len(*code)
	if err := mc.compileExpr(st.Cond, ctx, code); err != nil {
		return err
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJumpIfFalse})
	jumpToEnd := len(*code) - 1

	lc := ctx.pushLoop()
	lc.continueAddr = condStart
	if err := mc.compileBlock(st.Body, ctx, code); err != nil {
		return err
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump, Int: condStart})

	end := len(*code)
	(*code)[jumpToEnd].Int = end
	for _, idx := range lc.breakAt {
		(*code)[idx].Int = end
	}
	ctx.popLoop()
	return nil
}

// compileFor lowers `for (init; cond; step) body` with the step block
// placed before the body, at a fixed address `continue` always targets,
// so that after the body falls through into the step it jumps back to
// re-test cond (spec §4.4).
func (mc *moduleCompiler) compileFor(st *ast.ForStmt, ctx *fnCtx, code *[]bytecode.Instr) error {
	ctx.pushScope()
	defer ctx.popScope()

	if st.Init != nil {
		if err := mc.compileStmt(st.Init, ctx, code); err != nil {
			return err
		}
	}

	condStart := len(*code)
	var jumpToEnd int
	hasCond := st.Cond != nil
	if hasCond {
		if err := mc.compileExpr(st.Cond, ctx, code); err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJumpIfFalse})
		jumpToEnd = len(*code) - 1
	}

	// Skip over the step block on first entry; continue/fallthrough
	// target it directly.
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
	jumpToBody := len(*code) - 1

	stepStart := len(*code)
	if st.Step != nil {
		if err := mc.compileStmt(st.Step, ctx, code); err != nil {
			return err
		}
	}
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump, Int: condStart})

	bodyStart := len(*code)
	(*code)[jumpToBody].Int = bodyStart

	lc := ctx.pushLoop()
	lc.continueAddr = stepStart
	if err := mc.compileBlock(st.Body, ctx, code); err != nil {
		return err
	}
	// Fall through into the step block.
	*code = append(*code, bytecode.Instr{Op: bytecode.OpJump, Int: stepStart})

	end := len(*code)
	if hasCond {
		(*code)[jumpToEnd].Int = end
	}
	for _, idx := range lc.breakAt {
		(*code)[idx].Int = end
	}
	ctx.popLoop()
	return nil
}

// compileMatch lowers a linear chain of typed equality tests against the
// subject, evaluated once and cached in a synthetic local slot; `Or`
// patterns short-circuit on the first matching sub-pattern, and
// `wildcard` unconditionally matches (spec §4.9).
func (mc *moduleCompiler) compileMatch(st *ast.MatchStmt, ctx *fnCtx, code *[]bytecode.Instr) error {
	if err := mc.compileExpr(st.Subject, ctx, code); err != nil {
		return err
	}
	subjSlot := ctx.declare("")
	emit(code, bytecode.OpStoreLocal, subjSlot)

	var endJumps []int
	for _, arm := range st.Arms {
		if arm.Pattern.Kind == ast.PatternWildcard {
			if err := mc.compileBlock(arm.Body, ctx, code); err != nil {
				return err
			}
			*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
			endJumps = append(endJumps, len(*code)-1)
			continue
		}

		matchJumps, err := mc.compilePatternTest(arm.Pattern, subjSlot, ctx, code)
		if err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
		skipArm := len(*code) - 1
		for _, idx := range matchJumps {
			(*code)[idx].Int = len(*code)
		}
		if err := mc.compileBlock(arm.Body, ctx, code); err != nil {
			return err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJump})
		endJumps = append(endJumps, len(*code)-1)
		(*code)[skipArm].Int = len(*code)
	}

	end := len(*code)
	for _, idx := range endJumps {
		(*code)[idx].Int = end
	}
	return nil
}

// compilePatternTest emits the equality test(s) for one non-wildcard
// pattern and returns the indices of the JumpIfTrue instructions that
// jump to the arm's body once patched.
func (mc *moduleCompiler) compilePatternTest(p *ast.Pattern, subjSlot int, ctx *fnCtx, code *[]bytecode.Instr) ([]int, error) {
	switch p.Kind {
	case ast.PatternLiteral:
		emit(code, bytecode.OpLoadLocal, subjSlot)
		if err := mc.compileExpr(p.Literal, ctx, code); err != nil {
			return nil, err
		}
		*code = append(*code, bytecode.Instr{Op: bytecode.OpEq})
		*code = append(*code, bytecode.Instr{Op: bytecode.OpJumpIfTrue})
		return []int{len(*code) - 1}, nil

	case ast.PatternOr:
		var matches []int
		for _, sub := range p.Sub {
			m, err := mc.compilePatternTest(sub, subjSlot, ctx, code)
			if err != nil {
				return nil, err
			}
			matches = append(matches, m...)
		}
		return matches, nil

	default:
		return nil, fmt.Errorf("lowering: unsupported match pattern")
	}
}
