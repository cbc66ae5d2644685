package types

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
)

// checkBuiltinCall dispatches `pkg.name(args)` against the builtin
// signature table (spec §6). ArrayOps builtins derive their real
// signature from the first argument's element type; everything else is
// checked structurally from its registered BuiltinSig.
func (c *Checker) checkBuiltinCall(pkg, name string, args []ast.Expr, span diag.Span) *Type {
	sig, ok := lookupBuiltin(pkg, name)
	if !ok {
		c.err(span, "unknown builtin %s.%s", pkg, name)
		for _, a := range args {
			c.checkExpr(a)
		}
		return Unknown
	}

	if pkg == "vec" {
		switch name {
		case "push", "get", "set", "delete":
			return c.checkVecBuiltin(name, args, span)
		}
	}

	switch sig.Kind {
	case FixedArity:
		return c.checkFixedArityBuiltin(pkg, name, sig, args, span)
	case FormatVariadic:
		return c.checkFormatVariadicBuiltin(pkg, name, sig, args, span)
	case ArrayOps:
		return c.checkArrayOpsBuiltin(name, args, span)
	}
	return Unknown
}

// checkVecBuiltin type-checks vec.push/get/set/delete. The VM's Vec store
// is untyped (spec §5 "VecHandle ... opaque to bytecode"), so only the
// handle and index positions are constrained.
func (c *Checker) checkVecBuiltin(name string, args []ast.Expr, span diag.Span) *Type {
	want := map[string]int{"push": 2, "get": 2, "set": 3, "delete": 2}[name]
	if len(args) != want {
		c.err(span, "vec.%s expects %d argument(s), got %d", name, want, len(args))
		for _, a := range args {
			c.checkExpr(a)
		}
		if name == "push" || name == "set" {
			return Void
		}
		return Unknown
	}

	vecTy := c.checkExpr(args[0])
	if !IsUnknown(vecTy) && vecTy.Kind != KVec {
		c.err(span, "vec.%s argument 1 expects Vec, got %s", name, vecTy)
	}

	if name == "push" {
		c.checkExpr(args[1])
		return Void
	}

	idxTy := c.checkExpr(args[1])
	if !IsUnknown(idxTy) && idxTy.Kind != KInt {
		c.err(span, "vec.%s argument 2 expects Int, got %s", name, idxTy)
	}

	if name == "set" {
		c.checkExpr(args[2])
		return Void
	}
	return Unknown
}

func (c *Checker) checkFixedArityBuiltin(pkg, name string, sig *BuiltinSig, args []ast.Expr, span diag.Span) *Type {
	if len(sig.Params) != len(args) {
		c.err(span, "%s.%s expects %d argument(s), got %d", pkg, name, len(sig.Params), len(args))
		for _, a := range args {
			c.checkExpr(a)
		}
		return sig.Ret
	}
	for i, a := range args {
		got := c.checkExpr(a)
		expected := sig.Params[i]
		if expected.Kind == KVec {
			if !IsUnknown(got) && got.Kind != KVec {
				c.err(span, "%s.%s argument %d expects Vec, got %s", pkg, name, i+1, got)
			}
			continue
		}
		if !IsUnknown(got) && !Equal(got, expected) {
			c.err(span, "%s.%s argument %d expects %s, got %s", pkg, name, i+1, expected, got)
		}
	}
	return sig.Ret
}

// checkFormatVariadicBuiltin validates io.format/io.printf: a leading
// String format argument, followed by one value per %d/%f/%s/%b
// specifier (spec §6 "variable-arity for format-style builtins").
func (c *Checker) checkFormatVariadicBuiltin(pkg, name string, sig *BuiltinSig, args []ast.Expr, span diag.Span) *Type {
	if len(args) == 0 {
		c.err(span, "%s.%s expects at least 1 argument", pkg, name)
		return sig.Ret
	}
	fmtTy := c.checkExpr(args[0])
	if !IsUnknown(fmtTy) && fmtTy.Kind != KString {
		c.err(span, "%s.%s argument 1 expects String, got %s", pkg, name, fmtTy)
	}

	lit, isLit := args[0].(*ast.StringLit)
	if !isLit {
		for _, a := range args[1:] {
			c.checkExpr(a)
		}
		return sig.Ret
	}

	specs, err := parseFormatSpecifiers(lit.Value)
	if err != nil {
		c.err(span, "%s.%s format error: %s", pkg, name, err)
		return sig.Ret
	}
	if len(specs) != len(args)-1 {
		c.err(span, "%s.%s format expects %d value argument(s), got %d", pkg, name, len(specs), len(args)-1)
	}
	for i, a := range args[1:] {
		got := c.checkExpr(a)
		if i >= len(specs) {
			continue
		}
		expected := formatSpecType(specs[i])
		if !IsUnknown(got) && !IsUnknown(expected) && !Equal(got, expected) {
			c.err(span, "%s.%s argument %d expects %s for %%%c, got %s", pkg, name, i+2, expected, specs[i], got)
		}
	}
	return sig.Ret
}

func formatSpecType(spec byte) *Type {
	switch spec {
	case 'd':
		return Int
	case 'f':
		return Float
	case 's':
		return String
	case 'b':
		return Bool
	default:
		return Unknown
	}
}

// parseFormatSpecifiers scans a format string for %d, %f, %s, %b, and the
// %% escape, returning one entry per value-consuming specifier in order.
func parseFormatSpecifiers(fmtStr string) ([]byte, error) {
	var specs []byte
	for i := 0; i < len(fmtStr); i++ {
		if fmtStr[i] != '%' {
			continue
		}
		if i+1 >= len(fmtStr) {
			return nil, errFormatTrailingPercent
		}
		switch fmtStr[i+1] {
		case '%':
			i++
		case 'd', 'f', 's', 'b':
			specs = append(specs, fmtStr[i+1])
			i++
		default:
			return nil, errFormatUnknownSpecifier
		}
	}
	return specs, nil
}

type formatError string

func (e formatError) Error() string { return string(e) }

const (
	errFormatTrailingPercent  = formatError("trailing `%` with no specifier")
	errFormatUnknownSpecifier = formatError("unknown format specifier")
)

// checkArrayOpsBuiltin implements the arr.* element-dependent signatures
// (spec §6 arr.* table).
func (c *Checker) checkArrayOpsBuiltin(name string, args []ast.Expr, span diag.Span) *Type {
	switch name {
	case "len", "isEmpty", "sum", "first", "last", "reverse", "min", "max", "sort":
		if len(args) != 1 {
			c.err(span, "arr.%s expects 1 argument(s), got %d", name, len(args))
			for _, a := range args {
				c.checkExpr(a)
			}
			return Unknown
		}
		arrTy := c.checkExpr(args[0])
		if IsUnknown(arrTy) {
			return Unknown
		}
		if arrTy.Kind != KArray {
			c.err(span, "arr.%s argument 1 expects Array, got %s", name, arrTy)
			return Unknown
		}
		switch name {
		case "len":
			return Int
		case "isEmpty":
			return Bool
		case "reverse", "sort":
			return arrTy
		case "first", "last", "sum", "min", "max":
			return arrTy.Elem
		}

	case "contains", "indexOf", "count":
		if len(args) != 2 {
			c.err(span, "arr.%s expects 2 argument(s), got %d", name, len(args))
			for _, a := range args {
				c.checkExpr(a)
			}
			return Unknown
		}
		arrTy := c.checkExpr(args[0])
		needleTy := c.checkExpr(args[1])
		if !IsUnknown(arrTy) && arrTy.Kind != KArray {
			c.err(span, "arr.%s argument 1 expects Array, got %s", name, arrTy)
			return Unknown
		}
		if !IsUnknown(arrTy) && !IsUnknown(needleTy) && !Equal(arrTy.Elem, needleTy) {
			c.err(span, "arr.%s argument 2 expects %s, got %s", name, arrTy.Elem, needleTy)
		}
		if name == "contains" {
			return Bool
		}
		return Int

	case "join":
		if len(args) != 2 {
			c.err(span, "arr.join expects 2 argument(s), got %d", len(args))
			for _, a := range args {
				c.checkExpr(a)
			}
			return Unknown
		}
		arrTy := c.checkExpr(args[0])
		sepTy := c.checkExpr(args[1])
		if !IsUnknown(sepTy) && sepTy.Kind != KString {
			c.err(span, "arr.join argument 2 expects String, got %s", sepTy)
		}
		if !IsUnknown(arrTy) {
			if arrTy.Kind != KArray {
				c.err(span, "arr.join argument 1 expects Array, got %s", arrTy)
				return Unknown
			}
			if !IsUnknown(arrTy.Elem) && arrTy.Elem.Kind != KString {
				c.err(span, "arr.join argument 1 expects Array[String], got %s", arrTy)
				return Unknown
			}
		}
		return String

	case "slice":
		if len(args) != 3 {
			c.err(span, "arr.slice expects 3 argument(s), got %d", len(args))
			for _, a := range args {
				c.checkExpr(a)
			}
			return Unknown
		}
		arrTy := c.checkExpr(args[0])
		startTy := c.checkExpr(args[1])
		endTy := c.checkExpr(args[2])
		if !IsUnknown(startTy) && startTy.Kind != KInt {
			c.err(span, "arr.slice argument 2 expects Int, got %s", startTy)
		}
		if !IsUnknown(endTy) && endTy.Kind != KInt {
			c.err(span, "arr.slice argument 3 expects Int, got %s", endTy)
		}
		if IsUnknown(arrTy) {
			return Unknown
		}
		if arrTy.Kind != KArray {
			c.err(span, "arr.slice argument 1 expects Array, got %s", arrTy)
			return Unknown
		}
		startLit, startOK := args[1].(*ast.IntLit)
		endLit, endOK := args[2].(*ast.IntLit)
		if !startOK || !endOK || startLit.Value < 0 || endLit.Value < 0 {
			c.err(span, "arr.slice bounds must be non-negative Int literals for static arrays")
			return Unknown
		}
		start, end := int(startLit.Value), int(endLit.Value)
		if start > end || end > arrTy.Size {
			c.err(span, "arr.slice bounds out of range at compile time: start=%d, end=%d, len=%d", start, end, arrTy.Size)
			return Unknown
		}
		return Array(arrTy.Elem, end-start)
	}

	c.err(span, "unsupported array builtin arr.%s", name)
	for _, a := range args {
		c.checkExpr(a)
	}
	return Unknown
}
