package types

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
)

func (c *Checker) resolveStruct(name string) (*StructInfo, bool) {
	if info, ok := c.local.Structs[name]; ok {
		return info, true
	}
	if info, ok := c.ext.Structs[name]; ok {
		return info, true
	}
	return nil, false
}

func (c *Checker) checkExpr(e ast.Expr) *Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return Int
	case *ast.FloatLit:
		return Float
	case *ast.StringLit:
		return String
	case *ast.BoolLit:
		return Bool
	case *ast.GroupExpr:
		return c.checkExpr(x.X)
	case *ast.Ident:
		return c.checkIdent(x)
	case *ast.QualifiedExpr:
		return c.checkQualified(x)
	case *ast.UnaryExpr:
		return c.checkUnary(x)
	case *ast.BinaryExpr:
		return c.checkBinary(x)
	case *ast.CallExpr:
		return c.checkCall(x)
	case *ast.FieldExpr:
		return c.checkField(x)
	case *ast.IndexExpr:
		return c.checkIndex(x)
	case *ast.ArrayLit:
		return c.checkArrayLit(x)
	case *ast.ArrayRepeatExpr:
		return c.checkArrayRepeat(x)
	case *ast.StructLit:
		return c.checkStructLit(x)
	case *ast.FuncLit:
		return c.checkFuncLit(x)
	default:
		c.err(e.Span(), "unsupported expression")
		return Unknown
	}
}

func (c *Checker) checkIdent(x *ast.Ident) *Type {
	if t, ok := c.lookupLocal(x.Name); ok {
		return t
	}
	if sig, ok := c.local.Funcs[x.Name]; ok {
		return Fn(sig.Params, sig.Ret)
	}
	if sig, ok := c.ext.Funcs[x.Name]; ok {
		return Fn(sig.Params, sig.Ret)
	}
	if t, ok := c.local.Globals[x.Name]; ok {
		return t
	}
	if t, ok := c.ext.Globals[x.Name]; ok {
		return t
	}
	c.err(x.SpanValue, "undefined name %q", x.Name)
	return Unknown
}

// checkQualified type-checks a standalone (non-call) dotted reference. The
// parser folds every bare `a.b.c...` chain into one flat QualifiedExpr
// regardless of whether `a` is an imported namespace or a plain receiver
// variable (spec §3 "QualifiedExpr"), so resolution happens here: the
// first segment is either a namespace alias (then the second segment
// names one of its exported globals/functions) or an ordinary value
// (local, global, or function), and every further segment is a field
// access on the result.
func (c *Checker) checkQualified(x *ast.QualifiedExpr) *Type {
	if len(x.Segments) < 2 {
		c.err(x.SpanValue, "malformed qualified name")
		return Unknown
	}
	return c.resolveQualifiedChain(x.Segments, x.SpanValue)
}

// resolveQualifiedChain resolves segs as described by checkQualified and
// returns the type reached after walking every segment.
func (c *Checker) resolveQualifiedChain(segs []string, span diag.Span) *Type {
	if len(segs) == 0 {
		return Unknown
	}

	var cur *Type
	start := 1

	if modID, ok := c.ext.Namespaces[segs[0]]; ok {
		target, ok := c.allLocals[modID]
		if !ok {
			c.err(span, "module %q not resolved", modID)
			return Unknown
		}
		if len(segs) < 2 {
			c.err(span, "namespace %q used without a member", segs[0])
			return Unknown
		}
		name := segs[1]
		if t, ok := target.Globals[name]; ok {
			cur = t
		} else if sig, ok := target.Funcs[name]; ok {
			cur = Fn(sig.Params, sig.Ret)
		} else {
			c.err(span, "namespace %q has no member %q", segs[0], name)
			return Unknown
		}
		start = 2
	} else {
		cur = c.checkIdent(&ast.Ident{Name: segs[0], SpanValue: span})
	}

	for i := start; i < len(segs); i++ {
		if IsUnknown(cur) {
			return Unknown
		}
		if cur.Kind != KNamed {
			c.err(span, "field access on non-struct type %s", cur)
			return Unknown
		}
		info, ok := c.resolveStruct(cur.Named)
		if !ok {
			c.err(span, "unknown struct %q", cur.Named)
			return Unknown
		}
		idx := info.FieldIndex(segs[i])
		if idx < 0 {
			c.err(span, "struct %q has no field %q", cur.Named, segs[i])
			return Unknown
		}
		cur = info.Fields[idx].Type
	}
	return cur
}

func (c *Checker) checkUnary(x *ast.UnaryExpr) *Type {
	xt := c.checkExpr(x.X)
	if IsUnknown(xt) {
		return Unknown
	}
	switch x.Op {
	case ast.UnaryNeg, ast.UnaryPos:
		if !IsNumeric(xt) {
			c.err(x.SpanValue, "unary %s requires Int or Float, got %s", unaryOpName(x.Op), xt)
			return Unknown
		}
		return xt
	case ast.UnaryNot:
		if xt.Kind != KBool {
			c.err(x.SpanValue, "unary ! requires Bool, got %s", xt)
			return Unknown
		}
		return Bool
	}
	return Unknown
}

func unaryOpName(op ast.UnaryOp) string {
	if op == ast.UnaryNeg {
		return "-"
	}
	return "+"
}

func (c *Checker) checkBinary(x *ast.BinaryExpr) *Type {
	lt := c.checkExpr(x.Left)
	rt := c.checkExpr(x.Right)
	if IsUnknown(lt) || IsUnknown(rt) {
		return Unknown
	}

	switch x.Op {
	case ast.BinAnd, ast.BinOr:
		if lt.Kind != KBool || rt.Kind != KBool {
			c.err(x.SpanValue, "logical operator requires Bool operands, got %s and %s", lt, rt)
			return Unknown
		}
		return Bool

	case ast.BinEq, ast.BinNeq:
		if !Equal(lt, rt) {
			c.err(x.SpanValue, "cannot compare %s and %s", lt, rt)
			return Unknown
		}
		return Bool

	case ast.BinLt, ast.BinLte, ast.BinGt, ast.BinGte:
		if !IsNumeric(lt) || !IsNumeric(rt) || !Equal(lt, rt) {
			c.err(x.SpanValue, "comparison requires matching Int or Float operands, got %s and %s", lt, rt)
			return Unknown
		}
		return Bool

	case ast.BinAdd:
		if lt.Kind == KString && rt.Kind == KString {
			return String
		}
		if IsNumeric(lt) && Equal(lt, rt) {
			return lt
		}
		c.err(x.SpanValue, "+ requires matching Int, Float, or String operands, got %s and %s", lt, rt)
		return Unknown

	case ast.BinSub, ast.BinMul, ast.BinDiv, ast.BinMod:
		if !IsNumeric(lt) || !Equal(lt, rt) {
			c.err(x.SpanValue, "arithmetic requires matching Int or Float operands, got %s and %s", lt, rt)
			return Unknown
		}
		return lt
	}
	return Unknown
}

// checkCall dispatches on the callee's syntactic form (spec §4.3 "Calls"):
// an Ident names a local/global/imported function, a FieldExpr is a
// method call on its receiver's Named type, and a QualifiedExpr is either
// a builtin-package call or a namespace-qualified function call.
func (c *Checker) checkCall(x *ast.CallExpr) *Type {
	switch callee := x.Callee.(type) {
	case *ast.QualifiedExpr:
		return c.checkQualifiedCall(callee, x.Args)
	case *ast.FieldExpr:
		return c.checkMethodCall(callee, x.Args)
	case *ast.Ident:
		return c.checkPlainCall(callee, x.Args)
	default:
		fnTy := c.checkExpr(x.Callee)
		for _, a := range x.Args {
			c.checkExpr(a)
		}
		if IsUnknown(fnTy) {
			return Unknown
		}
		if fnTy.Kind != KFn {
			c.err(x.SpanValue, "call target is not callable")
			return Unknown
		}
		if len(fnTy.Params) != len(x.Args) {
			c.err(x.SpanValue, "expected %d argument(s), got %d", len(fnTy.Params), len(x.Args))
		}
		return fnTy.Ret
	}
}

func (c *Checker) checkPlainCall(callee *ast.Ident, args []ast.Expr) *Type {
	if t, ok := c.lookupLocal(callee.Name); ok {
		for _, a := range args {
			c.checkExpr(a)
		}
		if IsUnknown(t) {
			return Unknown
		}
		if t.Kind != KFn {
			c.err(callee.SpanValue, "%q is not callable", callee.Name)
			return Unknown
		}
		if len(t.Params) != len(args) {
			c.err(callee.SpanValue, "%q expects %d argument(s), got %d", callee.Name, len(t.Params), len(args))
		}
		return t.Ret
	}

	var sig *FuncSig
	if s, ok := c.local.Funcs[callee.Name]; ok {
		sig = s
	} else if s, ok := c.ext.Funcs[callee.Name]; ok {
		sig = s
	} else {
		c.err(callee.SpanValue, "call to undefined function %q", callee.Name)
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}
	c.checkArity(callee.Name, sig.Params, args, callee.SpanValue)
	return sig.Ret
}

// checkMethodCall resolves a method call `recv.method(args)` against the
// program-wide method registry keyed by the receiver's struct origin
// (spec §4.3 "a call recv.method(...) looks up the method on the
// receiver's Named type").
func (c *Checker) checkMethodCall(callee *ast.FieldExpr, args []ast.Expr) *Type {
	recvTy := c.checkExpr(callee.X)
	return c.dispatchMethod(recvTy, callee.Name, args, callee.SpanValue)
}

// dispatchMethod looks up methodName on recvTy in the program-wide method
// registry keyed by struct origin (spec §4.3 "a call recv.method(...)
// looks up the method on the receiver's Named type").
func (c *Checker) dispatchMethod(recvTy *Type, methodName string, args []ast.Expr, span diag.Span) *Type {
	if IsUnknown(recvTy) {
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}
	if recvTy.Kind != KNamed {
		c.err(span, "method call on non-struct type %s", recvTy)
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}

	key, ok := ResolveStructKey(recvTy.Named, c.local, c.ext)
	if !ok {
		c.err(span, "unknown struct %q", recvTy.Named)
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}
	sig, ok := c.methods[key][methodName]
	if !ok {
		c.err(span, "struct %q has no method %q", recvTy.Named, methodName)
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}
	c.checkArity(methodName, sig.Params, args, span)
	return sig.Ret
}

// checkQualifiedCall handles a CallExpr whose callee is a flat dotted
// chain. Exactly two segments where the first names a builtin package or
// an imported namespace dispatch directly (`io.println(...)`,
// `utils.helper(...)`); anything else is a method call, where every
// segment but the last resolves a receiver value and the last segment is
// the method name (`c.add(5)`, `cfg.inner.start()`).
func (c *Checker) checkQualifiedCall(callee *ast.QualifiedExpr, args []ast.Expr) *Type {
	segs := callee.Segments
	if len(segs) == 2 {
		pkg, name := segs[0], segs[1]
		if isBuiltinPackage(pkg) {
			return c.checkBuiltinCall(pkg, name, args, callee.SpanValue)
		}
		if modID, ok := c.ext.Namespaces[pkg]; ok {
			target, ok := c.allLocals[modID]
			if !ok {
				c.err(callee.SpanValue, "module %q not resolved", modID)
				return Unknown
			}
			sig, ok := target.Funcs[name]
			if !ok {
				c.err(callee.SpanValue, "module %q has no function %q", modID, name)
				for _, a := range args {
					c.checkExpr(a)
				}
				return Unknown
			}
			c.checkArity(pkg+"."+name, sig.Params, args, callee.SpanValue)
			return sig.Ret
		}
	}

	recvTy := c.resolveQualifiedChain(segs[:len(segs)-1], callee.SpanValue)
	methodName := segs[len(segs)-1]
	return c.dispatchMethod(recvTy, methodName, args, callee.SpanValue)
}

func (c *Checker) checkArity(name string, params []*Type, args []ast.Expr, span diag.Span) {
	if len(params) != len(args) {
		c.err(span, "%q expects %d argument(s), got %d", name, len(params), len(args))
	}
	for i, a := range args {
		got := c.checkExpr(a)
		if i >= len(params) {
			continue
		}
		if !IsUnknown(got) && !Equal(got, params[i]) {
			c.err(span, "%q argument %d expects %s, got %s", name, i+1, params[i], got)
		}
	}
}

func (c *Checker) checkField(x *ast.FieldExpr) *Type {
	xt := c.checkExpr(x.X)
	if IsUnknown(xt) {
		return Unknown
	}
	if xt.Kind != KNamed {
		c.err(x.SpanValue, "field access on non-struct type %s", xt)
		return Unknown
	}
	info, ok := c.resolveStruct(xt.Named)
	if !ok {
		c.err(x.SpanValue, "unknown struct %q", xt.Named)
		return Unknown
	}
	idx := info.FieldIndex(x.Name)
	if idx < 0 {
		c.err(x.SpanValue, "struct %q has no field %q", xt.Named, x.Name)
		return Unknown
	}
	return info.Fields[idx].Type
}

func (c *Checker) checkIndex(x *ast.IndexExpr) *Type {
	xt := c.checkExpr(x.X)
	it := c.checkExpr(x.Index)
	if !IsUnknown(it) && it.Kind != KInt {
		c.err(x.SpanValue, "array index must be Int, got %s", it)
	}
	if IsUnknown(xt) {
		return Unknown
	}
	if xt.Kind != KArray {
		c.err(x.SpanValue, "cannot index non-array type %s", xt)
		return Unknown
	}
	return xt.Elem
}

func (c *Checker) checkArrayLit(x *ast.ArrayLit) *Type {
	if len(x.Elems) == 0 {
		c.err(x.SpanValue, "empty array literal is not allowed; use [value; size]")
		return Unknown
	}
	first := c.checkExpr(x.Elems[0])
	for _, e := range x.Elems[1:] {
		t := c.checkExpr(e)
		if !IsUnknown(first) && !IsUnknown(t) && !Equal(first, t) {
			c.err(e.Span(), "array element expects %s, got %s", first, t)
		}
	}
	return Array(first, len(x.Elems))
}

func (c *Checker) checkArrayRepeat(x *ast.ArrayRepeatExpr) *Type {
	elemTy := c.checkExpr(x.Value)
	sizeTy := c.checkExpr(x.Size)
	if !IsUnknown(sizeTy) && sizeTy.Kind != KInt {
		c.err(x.SpanValue, "array repeat size must be Int, got %s", sizeTy)
	}
	lit, ok := x.Size.(*ast.IntLit)
	if !ok {
		c.err(x.SpanValue, "array repeat size must be a compile-time Int literal")
		return Array(elemTy, 0)
	}
	if lit.Value < 0 {
		c.err(x.SpanValue, "array repeat size must be non-negative")
		return Array(elemTy, 0)
	}
	return Array(elemTy, int(lit.Value))
}

func (c *Checker) checkStructLit(x *ast.StructLit) *Type {
	info, ok := c.resolveStruct(x.Name)
	if !ok {
		c.err(x.SpanValue, "unknown struct %q", x.Name)
		for _, f := range x.Fields {
			c.checkExpr(f.Value)
		}
		return Unknown
	}

	seen := make(map[string]bool, len(x.Fields))
	for _, f := range x.Fields {
		valTy := c.checkExpr(f.Value)
		idx := info.FieldIndex(f.Name)
		if idx < 0 {
			c.err(x.SpanValue, "struct %q has no field %q", x.Name, f.Name)
			continue
		}
		if seen[f.Name] {
			c.err(x.SpanValue, "duplicate field %q in struct literal", f.Name)
			continue
		}
		seen[f.Name] = true
		if !IsUnknown(valTy) && !Equal(valTy, info.Fields[idx].Type) {
			c.err(x.SpanValue, "field %q expects %s, got %s", f.Name, info.Fields[idx].Type, valTy)
		}
	}
	for _, f := range info.Fields {
		if !seen[f.Name] {
			c.err(x.SpanValue, "struct literal %q is missing field %q", x.Name, f.Name)
		}
	}

	return Named(info.Name)
}

// checkFuncLit type-checks a non-capturing function literal (spec §9
// "Closures"): its body sees only its own parameters, never the
// enclosing function's locals.
func (c *Checker) checkFuncLit(x *ast.FuncLit) *Type {
	c.pushScope()
	prevFloor := c.scopeFloor
	c.scopeFloor = len(c.scopes) - 1

	params := make([]*Type, len(x.Params))
	for i, p := range x.Params {
		params[i] = resolveTypeName(p.Type)
		c.declare(p.Name, params[i])
	}

	prevRet := c.currentRet
	c.currentRet = retType(x.Ret)
	ret := c.currentRet

	c.checkBlock(x.Body)

	if !IsUnknown(ret) && ret.Kind != KVoid && !blockAlwaysReturns(x.Body) {
		c.err(x.SpanValue, "function literal does not return a value on every path")
	}

	c.currentRet = prevRet
	c.scopeFloor = prevFloor
	c.popScope()

	return Fn(params, ret)
}
