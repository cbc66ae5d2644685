package parser

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/token"
)

func (p *Parser) parseStruct() *ast.StructDecl {
	start := p.cur().Span
	p.advance() // `struct`
	name, ok := p.expect(token.IDENT)
	if !ok {
		p.syncTopLevel()
		return nil
	}
	if _, ok := p.expect(token.LBRACE); !ok {
		p.syncTopLevel()
		return nil
	}
	var fields []ast.Field
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		fname, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		if _, ok := p.expect(token.COLON); !ok {
			break
		}
		ty := p.parseTypeName()
		fields = append(fields, ast.Field{Name: fname.Literal, Type: ty})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Span
	p.expect(token.RBRACE)
	if p.at(token.SEMI) {
		p.advance()
	}
	return &ast.StructDecl{Name: name.Literal, Fields: fields, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseImpl() *ast.ImplDecl {
	start := p.cur().Span
	p.advance() // `impl`
	target, ok := p.expect(token.IDENT)
	if !ok {
		p.syncTopLevel()
		return nil
	}
	if _, ok := p.expect(token.LBRACE); !ok {
		p.syncTopLevel()
		return nil
	}
	var methods []*ast.FuncDecl
	for p.at(token.FN) {
		if m := p.parseFunc(); m != nil {
			methods = append(methods, m)
		}
	}
	end := p.cur().Span
	p.expect(token.RBRACE)
	return &ast.ImplDecl{Target: target.Literal, Methods: methods, SpanValue: diag.Merge(start, end)}
}

func (p *Parser) parseFunc() *ast.FuncDecl {
	start := p.cur().Span
	p.advance() // `fn`
	name, ok := p.expect(token.IDENT)
	if !ok {
		p.syncTopLevel()
		return nil
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		p.syncTopLevel()
		return nil
	}
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
	end := body.SpanValue
	return &ast.FuncDecl{Name: name.Literal, Params: params, Ret: ret, Body: body, SpanValue: diag.Merge(start, end)}
}

// parseTypeName parses a TypeName (spec §3): primitive, dotted Named,
// fixed-size Array, or arrow Fn type.
func (p *Parser) parseTypeName() *ast.TypeName {
	start := p.cur().Span

	switch p.cur().Kind {
	case token.TY_INT:
		p.advance()
		return &ast.TypeName{Kind: ast.TyInt, SpanValue: start}
	case token.TY_FLOAT:
		p.advance()
		return &ast.TypeName{Kind: ast.TyFloat, SpanValue: start}
	case token.TY_BOOL:
		p.advance()
		return &ast.TypeName{Kind: ast.TyBool, SpanValue: start}
	case token.TY_STRING:
		p.advance()
		return &ast.TypeName{Kind: ast.TyString, SpanValue: start}
	case token.TY_VOID:
		p.advance()
		return &ast.TypeName{Kind: ast.TyVoid, SpanValue: start}
	case token.IDENT:
		segs := p.parseDottedPath()
		name := segs[0]
		for _, s := range segs[1:] {
			name += "." + s
		}
		return &ast.TypeName{Kind: ast.TyNamed, Named: name, SpanValue: diag.Merge(start, p.cur().Span)}
	case token.LBRACKET:
		p.advance()
		elem := p.parseTypeName()
		if _, ok := p.expect(token.SEMI); !ok {
			p.syncStatement()
			return &ast.TypeName{Kind: ast.TyUnknown, SpanValue: start}
		}
		sizeTok, _ := p.expect(token.INT)
		size := parseIntLiteral(sizeTok.Literal)
		end := p.cur().Span
		p.expect(token.RBRACKET)
		return &ast.TypeName{Kind: ast.TyArray, Elem: elem, Size: size, SpanValue: diag.Merge(start, end)}
	case token.LPAREN:
		p.advance()
		var params []*ast.TypeName
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			params = append(params, p.parseTypeName())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
		p.expect(token.ARROW)
		ret := p.parseTypeName()
		return &ast.TypeName{Kind: ast.TyFn, Params: params, Ret: ret, SpanValue: diag.Merge(start, p.cur().Span)}
	default:
		p.errorf("expected a type, found %s %q", p.cur().Kind, p.cur().Literal)
		return &ast.TypeName{Kind: ast.TyUnknown, SpanValue: start}
	}
}
