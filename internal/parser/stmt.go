package parser

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/token"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur().Span
	if _, ok := p.expect(token.LBRACE); !ok {
		return &ast.Block{SpanValue: start}
	}
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	end := p.cur().Span
	p.expect(token.RBRACE)
	return &ast.Block{Stmts: stmts, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.BREAK:
		start := p.advance().Span
		p.consumeSemi()
		return &ast.BreakStmt{SpanValue: start}
	case token.CONTINUE:
		start := p.advance().Span
		p.consumeSemi()
		return &ast.ContinueStmt{SpanValue: start}
	case token.RETURN:
		return p.parseReturn()
	case token.MATCH:
		return p.parseMatch()
	default:
		return p.parseSimpleOrExprStmt()
	}
}

func (p *Parser) parseLet() *ast.LetStmt {
	start := p.cur().Span
	p.advance() // `let`
	name, ok := p.expect(token.IDENT)
	if !ok {
		p.syncStatement()
		return nil
	}
	var ty *ast.TypeName
	if p.at(token.COLON) {
		p.advance()
		ty = p.parseTypeName()
	}
	if _, ok := p.expect(token.ASSIGN); !ok {
		p.syncStatement()
		return nil
	}
	val := p.parseExpr()
	p.consumeSemi()
	return &ast.LetStmt{Name: name.Literal, Type: ty, Value: val, SpanValue: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) parseIf() *ast.IfStmt {
	start := p.cur().Span
	p.advance() // `if`
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock()
	var els *ast.Block
	if p.at(token.ELSE) {
		p.advance()
		if p.at(token.IF) {
			nested := p.parseIf()
			els = &ast.Block{Stmts: []ast.Stmt{nested}, SpanValue: nested.SpanValue}
		} else {
			els = p.parseBlock()
		}
	}
	end := then.SpanValue
	if els != nil {
		end = els.SpanValue
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseWhile() *ast.WhileStmt {
	start := p.cur().Span
	p.advance() // `while`
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, SpanValue: diag.Merge(start, body.SpanValue)}
}

func (p *Parser) parseFor() *ast.ForStmt {
	start := p.cur().Span
	p.advance() // `for`
	p.expect(token.LPAREN)

	var init ast.Stmt
	if !p.at(token.SEMI) {
		init = p.parseForClauseStmt()
	} else {
		p.advance()
	}

	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var step ast.Stmt
	if !p.at(token.RPAREN) {
		step = p.parseForClauseStmtNoSemi()
	}
	p.expect(token.RPAREN)

	body := p.parseBlock()
	return &ast.ForStmt{Init: init, Cond: cond, Step: step, Body: body, SpanValue: diag.Merge(start, body.SpanValue)}
}

// parseForClauseStmt parses a let/assign/expr statement terminated by the
// `;` that separates for-loop clauses.
func (p *Parser) parseForClauseStmt() ast.Stmt {
	if p.at(token.LET) {
		return p.parseLet()
	}
	return p.parseSimpleOrExprStmt()
}

// parseForClauseStmtNoSemi parses the step clause, which is terminated by
// `)` rather than `;`.
func (p *Parser) parseForClauseStmtNoSemi() ast.Stmt {
	start := p.cur().Span
	e := p.parseExpr()
	if p.at(token.ASSIGN) {
		p.advance()
		val := p.parseExpr()
		return &ast.AssignStmt{TargetKind: assignKindOf(e), Target: e, Value: val, SpanValue: diag.Merge(start, p.cur().Span)}
	}
	return &ast.ExprStmt{X: e, SpanValue: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	start := p.advance().Span // `return`
	var val ast.Expr
	if !p.at(token.SEMI) {
		val = p.parseExpr()
	}
	p.consumeSemi()
	return &ast.ReturnStmt{Value: val, SpanValue: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) parseMatch() *ast.MatchStmt {
	start := p.advance().Span // `match`
	p.expect(token.LPAREN)
	subject := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)

	var arms []*ast.MatchArm
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		armStart := p.cur().Span
		pat := p.parsePattern()
		p.expect(token.FARROW)
		body := p.parseBlock()
		if p.at(token.COMMA) {
			p.advance()
		}
		arms = append(arms, &ast.MatchArm{Pattern: pat, Body: body, SpanValue: diag.Merge(armStart, body.SpanValue)})
	}
	end := p.cur().Span
	p.expect(token.RBRACE)
	return &ast.MatchStmt{Subject: subject, Arms: arms, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parsePattern() *ast.Pattern {
	start := p.cur().Span
	first := p.parsePatternAtom()
	if !p.at(token.PIPE) {
		return first
	}
	sub := []*ast.Pattern{first}
	for p.at(token.PIPE) {
		p.advance()
		sub = append(sub, p.parsePatternAtom())
	}
	return &ast.Pattern{Kind: ast.PatternOr, Sub: sub, SpanValue: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) parsePatternAtom() *ast.Pattern {
	start := p.cur().Span
	if p.at(token.WILDCARD) {
		p.advance()
		return &ast.Pattern{Kind: ast.PatternWildcard, SpanValue: start}
	}
	lit := p.parseUnary()
	return &ast.Pattern{Kind: ast.PatternLiteral, Literal: lit, SpanValue: diag.Merge(start, p.cur().Span)}
}

// parseSimpleOrExprStmt parses an assignment or a bare expression
// statement, both terminated by `;`.
func (p *Parser) parseSimpleOrExprStmt() ast.Stmt {
	start := p.cur().Span
	e := p.parseExpr()
	if p.at(token.ASSIGN) {
		p.advance()
		val := p.parseExpr()
		p.consumeSemi()
		return &ast.AssignStmt{TargetKind: assignKindOf(e), Target: e, Value: val, SpanValue: diag.Merge(start, p.cur().Span)}
	}
	p.consumeSemi()
	return &ast.ExprStmt{X: e, SpanValue: diag.Merge(start, p.cur().Span)}
}

func assignKindOf(e ast.Expr) ast.AssignTargetKind {
	switch e.(type) {
	case *ast.IndexExpr:
		return ast.AssignIndex
	case *ast.FieldExpr:
		return ast.AssignField
	default:
		return ast.AssignIdent
	}
}
