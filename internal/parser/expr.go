package parser

import (
	"strconv"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/token"
)

func parseIntLiteral(lit string) int {
	n, _ := strconv.Atoi(lit)
	return n
}

// parseExpr is the entry point for the full precedence chain (spec §4.1:
// logical-or, logical-and, equality, comparison, additive, multiplicative,
// unary, postfix, primary — low to high, left-associative).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(token.OROR) {
		start := left.Span()
		op := p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{Op: ast.BinOr, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
		_ = op
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.at(token.ANDAND) {
		start := left.Span()
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{Op: ast.BinAnd, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.at(token.EQ) || p.at(token.NEQ) {
		op := ast.BinEq
		if p.at(token.NEQ) {
			op = ast.BinNeq
		}
		start := left.Span()
		p.advance()
		right := p.parseComparison()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.LT:
			op = ast.BinLt
		case token.LTE:
			op = ast.BinLte
		case token.GT:
			op = ast.BinGt
		case token.GTE:
			op = ast.BinGte
		default:
			return left
		}
		start := left.Span()
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := ast.BinAdd
		if p.at(token.MINUS) {
			op = ast.BinSub
		}
		start := left.Span()
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.STAR:
			op = ast.BinMul
		case token.SLASH:
			op = ast.BinDiv
		case token.PERCENT:
			op = ast.BinMod
		default:
			return left
		}
		start := left.Span()
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanValue: diag.Merge(start, right.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.MINUS:
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.UnaryNeg, X: x, SpanValue: diag.Merge(start, x.Span())}
	case token.PLUS:
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.UnaryPos, X: x, SpanValue: diag.Merge(start, x.Span())}
	case token.BANG:
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.UnaryNot, X: x, SpanValue: diag.Merge(start, x.Span())}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		start := x.Span()
		switch p.cur().Kind {
		case token.LPAREN:
			p.advance()
			var args []ast.Expr
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				args = append(args, p.parseExpr())
				if p.at(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			end := p.cur().Span
			p.expect(token.RPAREN)
			x = &ast.CallExpr{Callee: x, Args: args, SpanValue: diag.Merge(start, end)}
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			end := p.cur().Span
			p.expect(token.RBRACKET)
			x = &ast.IndexExpr{X: x, Index: idx, SpanValue: diag.Merge(start, end)}
		case token.DOT:
			p.advance()
			name, ok := p.expect(token.IDENT)
			if !ok {
				return x
			}
			x = &ast.FieldExpr{X: x, Name: name.Literal, SpanValue: diag.Merge(start, name.Span)}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.INT:
		p.advance()
		n, _ := strconv.ParseInt(t.Literal, 10, 64)
		return &ast.IntLit{Value: n, SpanValue: t.Span}
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.FloatLit{Value: f, SpanValue: t.Span}
	case token.STRING:
		p.advance()
		return &ast.StringLit{Value: t.Literal, SpanValue: t.Span}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, SpanValue: t.Span}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, SpanValue: t.Span}
	case token.IDENT:
		return p.parseIdentOrQualified()
	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		end := p.cur().Span
		p.expect(token.RPAREN)
		return &ast.GroupExpr{X: x, SpanValue: diag.Merge(t.Span, end)}
	case token.LBRACKET:
		return p.parseArrayLitOrRepeat()
	case token.FN:
		return p.parseFuncLit()
	default:
		p.errorf("expected an expression, found %s %q", t.Kind, t.Literal)
		p.advance() // always make progress to avoid stalling the recursive descent
		return &ast.Ident{Name: "", SpanValue: t.Span}
	}
}

// parseIdentOrQualified disambiguates a bare identifier, a struct literal
// (`Name { ... }`), and a dotted qualified path (`ns.a.b`).
func (p *Parser) parseIdentOrQualified() ast.Expr {
	start := p.cur()
	name := start.Literal
	p.advance()

	if p.at(token.LBRACE) && startsStructLit(name) {
		return p.parseStructLitBody(name, start.Span)
	}

	if !p.at(token.DOT) {
		return &ast.Ident{Name: name, SpanValue: start.Span}
	}

	segs := []string{name}
	end := start.Span
	for p.at(token.DOT) && p.peekAt(1).Kind == token.IDENT {
		p.advance()
		id := p.advance()
		segs = append(segs, id.Literal)
		end = id.Span
	}
	return &ast.QualifiedExpr{Segments: segs, SpanValue: diag.Merge(start.Span, end)}
}

// startsStructLit applies the conventional capitalized-identifier rule to
// tell a struct literal `Point { ... }` apart from a block that happens to
// follow an identifier in statement position (e.g. `if (x) { ... }` never
// reaches here because `x` isn't followed directly by `{` in that
// context's grammar position; this heuristic only fires inside expression
// parsing, where only struct literals use `Ident {`).
func startsStructLit(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func (p *Parser) parseStructLitBody(name string, start diag.Span) ast.Expr {
	p.advance() // `{`
	var fields []ast.StructFieldInit
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		fname, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		p.expect(token.COLON)
		val := p.parseExpr()
		fields = append(fields, ast.StructFieldInit{Name: fname.Literal, Value: val})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Span
	p.expect(token.RBRACE)
	return &ast.StructLit{Name: name, Fields: fields, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseArrayLitOrRepeat() ast.Expr {
	start := p.cur().Span
	p.advance() // `[`
	if p.at(token.RBRACKET) {
		end := p.cur().Span
		p.advance()
		p.errorf("empty array literal is not allowed; use [value; size]")
		return &ast.ArrayLit{SpanValue: diag.Merge(start, end)}
	}
	first := p.parseExpr()
	if p.at(token.SEMI) {
		p.advance()
		size := p.parseExpr()
		end := p.cur().Span
		p.expect(token.RBRACKET)
		return &ast.ArrayRepeatExpr{Value: first, Size: size, SpanValue: diag.Merge(start, end)}
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	end := p.cur().Span
	p.expect(token.RBRACKET)
	return &ast.ArrayLit{Elems: elems, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseFuncLit() ast.Expr {
	start := p.cur().Span
	p.advance() // `fn`
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		pname, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		var ty *ast.TypeName
		if p.at(token.COLON) {
			p.advance()
			ty = p.parseTypeName()
		}
		params = append(params, ast.Param{Name: pname.Literal, Type: ty})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	var ret *ast.TypeName
	if p.at(token.ARROW) {
		p.advance()
		ret = p.parseTypeName()
	}
	body := p.parseBlock()
	return &ast.FuncLit{Params: params, Ret: ret, Body: body, SpanValue: diag.Merge(start, body.SpanValue)}
}
