package types

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/module"
)

// Checker type-checks one module's body against its local declarations
// and the cross-module context resolved from its imports (spec §4.3).
type Checker struct {
	unit *module.Unit
	local *LocalInfo
	ext   *ExternalContext

	allLocals map[module.Id]*LocalInfo
	methods   map[StructKey]map[string]*MethodSig

	bag *diag.Bag

	scopes     []map[string]*Type
	scopeFloor int // lookups never cross below this index (non-capturing func literals)
	currentRet *Type
	loopDepth  int
}

func newChecker(u *module.Unit, local *LocalInfo, ext *ExternalContext, allLocals map[module.Id]*LocalInfo, methods map[StructKey]map[string]*MethodSig, bag *diag.Bag) *Checker {
	return &Checker{unit: u, local: local, ext: ext, allLocals: allLocals, methods: methods, bag: bag}
}

func (c *Checker) err(span diag.Span, format string, args ...interface{}) {
	c.bag.Errorf(errcode.ESema, span, format, args...)
}

// ---- scope management -------------------------------------------------------

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]*Type{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, t *Type) {
	c.scopes[len(c.scopes)-1][name] = t
}

// lookupLocal searches the live scope stack from innermost out to the
// current capture floor; it never looks below it, so a function literal
// cannot see an enclosing function's locals (spec §9 "Closures": function
// literals cannot capture outer variables).
func (c *Checker) lookupLocal(name string) (*Type, bool) {
	for i := len(c.scopes) - 1; i >= c.scopeFloor; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// ---- unit entry point --------------------------------------------------------

func (c *Checker) checkUnit() {
	for _, s := range c.unit.Program.Structs {
		c.checkStructDecl(s)
	}

	c.pushScope()
	for _, g := range c.unit.Program.Globals {
		c.checkGlobal(g)
	}

	for _, f := range c.unit.Program.Functions {
		c.checkFunc(f, nil)
	}

	for _, impl := range c.unit.Program.Impls {
		key, ok := ResolveStructKey(impl.Target, c.local, c.ext)
		var self *Type
		if ok {
			self = &Type{Kind: KNamed, Named: key.Name}
		}
		for _, m := range impl.Methods {
			c.checkFunc(m, self)
		}
	}
	c.popScope()
}

func (c *Checker) checkStructDecl(s *ast.StructDecl) {
	for _, f := range s.Fields {
		if f.Type != nil && f.Type.Kind == ast.TyNamed && f.Type.Named != "Vec" {
			if _, ok := c.resolveStruct(f.Type.Named); !ok {
				c.err(s.SpanValue, "struct %q field %q has unknown type %q", s.Name, f.Name, f.Type.Named)
			}
		}
	}
}

func (c *Checker) checkGlobal(g *ast.LetStmt) {
	valTy := c.checkExpr(g.Value)
	declared := c.local.Globals[g.Name]
	if g.Type == nil || IsUnknown(declared) {
		c.local.Globals[g.Name] = valTy
		declared = valTy
	} else if !IsUnknown(valTy) && !Equal(declared, valTy) {
		c.err(g.SpanValue, "global %q declared as %s but initialized with %s", g.Name, declared, valTy)
	}
	c.declare(g.Name, declared)
}

// checkFunc type-checks one function or method body. self is non-nil for
// methods, giving the bound type of the implicit first "self" parameter.
func (c *Checker) checkFunc(f *ast.FuncDecl, self *Type) {
	c.pushScope()
	floor := len(c.scopes) - 1
	prevFloor := c.scopeFloor
	c.scopeFloor = floor

	for i, p := range f.Params {
		if i == 0 && self != nil {
			c.declare(p.Name, self)
			continue
		}
		c.declare(p.Name, resolveTypeName(p.Type))
	}

	prevRet := c.currentRet
	c.currentRet = retType(f.Ret)

	c.checkBlock(f.Body)

	if !IsUnknown(c.currentRet) && c.currentRet.Kind != KVoid && !blockAlwaysReturns(f.Body) {
		c.err(f.SpanValue, "function %q does not return a value on every path", f.Name)
	}

	c.currentRet = prevRet
	c.scopeFloor = prevFloor
	c.popScope()
}

// blockAlwaysReturns is a structural return-path analysis (spec §4.3): a
// block always returns if its last statement always returns, where an if
// with both an else and both branches returning always returns.
func blockAlwaysReturns(b *ast.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.IfStmt:
		return st.Else != nil && blockAlwaysReturns(st.Then) && blockAlwaysReturns(st.Else)
	case *ast.MatchStmt:
		if len(st.Arms) == 0 {
			return false
		}
		hasWildcard := false
		for _, arm := range st.Arms {
			if !blockAlwaysReturns(arm.Body) {
				return false
			}
			if arm.Pattern.Kind == ast.PatternWildcard {
				hasWildcard = true
			}
		}
		return hasWildcard
	default:
		return false
	}
}

// ---- statements --------------------------------------------------------------

func (c *Checker) checkBlock(b *ast.Block) {
	c.pushScope()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	c.popScope()
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		valTy := c.checkExpr(st.Value)
		declared := valTy
		if st.Type != nil {
			declared = resolveTypeName(st.Type)
			if !IsUnknown(valTy) && !Equal(declared, valTy) {
				c.err(st.SpanValue, "let %q declared as %s but initialized with %s", st.Name, declared, valTy)
			}
		}
		c.declare(st.Name, declared)

	case *ast.AssignStmt:
		targetTy := c.checkExpr(st.Target)
		valTy := c.checkExpr(st.Value)
		if !IsUnknown(targetTy) && !IsUnknown(valTy) && !Equal(targetTy, valTy) {
			c.err(st.SpanValue, "assignment expects %s, got %s", targetTy, valTy)
		}

	case *ast.ExprStmt:
		c.checkExpr(st.X)

	case *ast.IfStmt:
		condTy := c.checkExpr(st.Cond)
		if !IsUnknown(condTy) && condTy.Kind != KBool {
			c.err(st.SpanValue, "if condition must be Bool, got %s", condTy)
		}
		c.checkBlock(st.Then)
		if st.Else != nil {
			c.checkBlock(st.Else)
		}

	case *ast.WhileStmt:
		condTy := c.checkExpr(st.Cond)
		if !IsUnknown(condTy) && condTy.Kind != KBool {
			c.err(st.SpanValue, "while condition must be Bool, got %s", condTy)
		}
		c.loopDepth++
		c.checkBlock(st.Body)
		c.loopDepth--

	case *ast.ForStmt:
		c.pushScope()
		if st.Init != nil {
			c.checkStmt(st.Init)
		}
		if st.Cond != nil {
			condTy := c.checkExpr(st.Cond)
			if !IsUnknown(condTy) && condTy.Kind != KBool {
				c.err(st.SpanValue, "for condition must be Bool, got %s", condTy)
			}
		}
		if st.Step != nil {
			c.checkStmt(st.Step)
		}
		c.loopDepth++
		c.checkBlock(st.Body)
		c.loopDepth--
		c.popScope()

	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.err(st.SpanValue, "break outside of a loop")
		}

	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.err(st.SpanValue, "continue outside of a loop")
		}

	case *ast.ReturnStmt:
		var got *Type = Void
		if st.Value != nil {
			got = c.checkExpr(st.Value)
		}
		if !IsUnknown(got) && !IsUnknown(c.currentRet) && !Equal(got, c.currentRet) {
			c.err(st.SpanValue, "return expects %s, got %s", c.currentRet, got)
		}

	case *ast.MatchStmt:
		subjTy := c.checkExpr(st.Subject)
		for _, arm := range st.Arms {
			c.checkPattern(arm.Pattern, subjTy)
			c.checkBlock(arm.Body)
		}

	default:
		c.err(s.Span(), "unsupported statement")
	}
}

func (c *Checker) checkPattern(p *ast.Pattern, subjTy *Type) {
	switch p.Kind {
	case ast.PatternWildcard:
		return
	case ast.PatternLiteral:
		litTy := c.checkExpr(p.Literal)
		if !IsUnknown(subjTy) && !IsUnknown(litTy) && !Equal(subjTy, litTy) {
			c.err(p.SpanValue, "match pattern expects %s, got %s", subjTy, litTy)
		}
	case ast.PatternOr:
		for _, sub := range p.Sub {
			c.checkPattern(sub, subjTy)
		}
	}
}
