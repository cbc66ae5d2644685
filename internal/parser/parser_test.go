package parser

import (
	"testing"

	"github.com/skepa-lang/skepa/internal/ast"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, bag := ParseSource(src)
	if bag.HasErrors() {
		t.Fatalf("ParseSource(%q): unexpected errors: %v", src, bag.Items())
	}
	return prog
}

func TestParseSource_FuncDeclWithParamsAndReturnType(t *testing.T) {
	prog := parse(t, `
fn add(a: Int, b: Int) -> Int {
    return a + b;
}
`)
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	f := prog.Functions[0]
	if f.Name != "add" {
		t.Errorf("Name = %q, want %q", f.Name, "add")
	}
	if len(f.Params) != 2 || f.Params[0].Name != "a" || f.Params[1].Name != "b" {
		t.Errorf("Params = %+v, want [a b]", f.Params)
	}
	if f.Ret == nil || f.Ret.Kind != ast.TyInt {
		t.Errorf("Ret = %+v, want TyInt", f.Ret)
	}
	if len(f.Body.Stmts) != 1 {
		t.Fatalf("got %d body statements, want 1", len(f.Body.Stmts))
	}
	ret, ok := f.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body statement = %T, want *ast.ReturnStmt", f.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.BinAdd {
		t.Errorf("return value = %#v, want a BinAdd BinaryExpr", ret.Value)
	}
}

func TestParseSource_StructDecl(t *testing.T) {
	prog := parse(t, `
struct Point {
    x: Int,
    y: Int,
}
`)
	if len(prog.Structs) != 1 {
		t.Fatalf("got %d structs, want 1", len(prog.Structs))
	}
	s := prog.Structs[0]
	if s.Name != "Point" {
		t.Errorf("Name = %q, want %q", s.Name, "Point")
	}
	if len(s.Fields) != 2 || s.Fields[0].Name != "x" || s.Fields[1].Name != "y" {
		t.Errorf("Fields = %+v, want [x y]", s.Fields)
	}
}

func TestParseSource_ImplDecl(t *testing.T) {
	prog := parse(t, `
impl Point {
    fn sum(self) -> Int {
        return 0;
    }
}
`)
	if len(prog.Impls) != 1 {
		t.Fatalf("got %d impls, want 1", len(prog.Impls))
	}
	if prog.Impls[0].Target != "Point" {
		t.Errorf("Target = %q, want %q", prog.Impls[0].Target, "Point")
	}
	if len(prog.Impls[0].Methods) != 1 || prog.Impls[0].Methods[0].Name != "sum" {
		t.Errorf("Methods = %+v, want [sum]", prog.Impls[0].Methods)
	}
}

func TestParseSource_LetWithInferredAndExplicitType(t *testing.T) {
	prog := parse(t, `
fn main() -> Int {
    let x = 1;
    let y: Float = 2.5;
    return 0;
}
`)
	body := prog.Functions[0].Body.Stmts
	x, ok := body[0].(*ast.LetStmt)
	if !ok || x.Name != "x" || x.Type != nil {
		t.Errorf("first let = %+v, want untyped let x", x)
	}
	y, ok := body[1].(*ast.LetStmt)
	if !ok || y.Name != "y" || y.Type == nil || y.Type.Kind != ast.TyFloat {
		t.Errorf("second let = %+v, want typed let y: Float", y)
	}
}

func TestParseSource_IfElseAndWhile(t *testing.T) {
	prog := parse(t, `
fn main() -> Int {
    if (true) {
        return 1;
    } else {
        return 2;
    }
    while (false) {
        break;
    }
    return 0;
}
`)
	stmts := prog.Functions[0].Body.Stmts
	ifStmt, ok := stmts[0].(*ast.IfStmt)
	if !ok || ifStmt.Else == nil {
		t.Fatalf("first statement = %#v, want an IfStmt with an Else branch", stmts[0])
	}
	whileStmt, ok := stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("second statement = %#v, want a WhileStmt", stmts[1])
	}
	if _, ok := whileStmt.Body.Stmts[0].(*ast.BreakStmt); !ok {
		t.Errorf("while body = %#v, want a BreakStmt", whileStmt.Body.Stmts[0])
	}
}

func TestParseSource_QualifiedCallForBuiltin(t *testing.T) {
	prog := parse(t, `
fn main() -> Int {
    io.println("hi");
    return 0;
}
`)
	exprStmt, ok := prog.Functions[0].Body.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("statement = %#v, want *ast.ExprStmt", prog.Functions[0].Body.Stmts[0])
	}
	call, ok := exprStmt.X.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.CallExpr", exprStmt.X)
	}
	q, ok := call.Callee.(*ast.QualifiedExpr)
	if !ok || len(q.Segments) != 2 || q.Segments[0] != "io" || q.Segments[1] != "println" {
		t.Errorf("callee = %#v, want io.println", call.Callee)
	}
}

func TestParseSource_ImportAndExport(t *testing.T) {
	prog := parse(t, `
import math.vector as vector;
fn main() -> Int {
    return 0;
}
export { main };
`)
	if len(prog.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(prog.Imports))
	}
	if len(prog.Exports) != 1 {
		t.Fatalf("got %d exports, want 1", len(prog.Exports))
	}
}

func TestParseSource_UnterminatedBlockRecordsError(t *testing.T) {
	_, bag := ParseSource(`
fn main() -> Int {
    return 0;
`)
	if !bag.HasErrors() {
		t.Error("expected a parse error for an unterminated function body")
	}
}
