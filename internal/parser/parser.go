// Package parser implements the skepa recursive-descent, Pratt-precedence
// parser (spec §4.1). Parsing never panics: malformed input is recovered
// from at statement or top-level granularity and accumulated as
// diagnostics alongside a best-effort AST.
package parser

import (
	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/lexer"
	"github.com/skepa-lang/skepa/internal/token"
)

// Parser consumes a pre-scanned token stream and builds a *ast.Program.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diag.Bag
}

// ParseSource tokenizes and parses src, returning a best-effort AST and
// every diagnostic raised by the lexer and parser combined.
func ParseSource(src string) (*ast.Program, *diag.Bag) {
	toks, lexDiags := lexer.Tokenize(src)
	p := &Parser{toks: toks, diags: diag.NewBag()}
	p.diags.Merge(lexDiags)
	prog := p.parseProgram()
	return prog, p.diags
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches kind, otherwise emits
// exactly one diagnostic (spec §4.1) and returns the current token
// without advancing, so callers can still make forward progress.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	cur := p.cur()
	p.diags.Errorf(errcode.EParse, cur.Span, "expected %s, found %s %q", k, cur.Kind, cur.Literal)
	return cur, false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags.Errorf(errcode.EParse, p.cur().Span, format, args...)
}

// ---- Top level --------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	start := p.cur().Span
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.IMPORT, token.FROM:
			if imp := p.parseImport(); imp != nil {
				prog.Imports = append(prog.Imports, imp)
			}
		case token.EXPORT:
			if exp := p.parseExport(); exp != nil {
				prog.Exports = append(prog.Exports, exp)
			}
		case token.STRUCT:
			if s := p.parseStruct(); s != nil {
				prog.Structs = append(prog.Structs, s)
			}
		case token.IMPL:
			if i := p.parseImpl(); i != nil {
				prog.Impls = append(prog.Impls, i)
			}
		case token.FN:
			if f := p.parseFunc(); f != nil {
				prog.Functions = append(prog.Functions, f)
			}
		case token.LET:
			if g := p.parseLet(); g != nil {
				prog.Globals = append(prog.Globals, g)
			}
		default:
			p.errorf("expected a top-level declaration, found %s %q", p.cur().Kind, p.cur().Literal)
			p.syncTopLevel()
		}
	}
	prog.SpanValue = diag.Merge(start, p.cur().Span)
	return prog
}

// syncTopLevel implements spec §4.1's top-level error recovery: skip
// until the next plausible declaration start.
func (p *Parser) syncTopLevel() {
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.IMPORT, token.FROM, token.EXPORT, token.FN, token.STRUCT, token.IMPL, token.LET:
			return
		}
		p.advance()
	}
}

// syncStatement implements spec §4.1's statement-level error recovery:
// skip to the next `;`, `}`, or a clear statement-start keyword.
func (p *Parser) syncStatement() {
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.SEMI:
			p.advance()
			return
		case token.RBRACE:
			return
		case token.LET, token.IF, token.WHILE, token.FOR, token.RETURN,
			token.BREAK, token.CONTINUE, token.MATCH:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseDottedPath() []string {
	var segs []string
	if name, ok := p.expect(token.IDENT); ok {
		segs = append(segs, name.Literal)
	}
	for p.at(token.DOT) {
		p.advance()
		if name, ok := p.expect(token.IDENT); ok {
			segs = append(segs, name.Literal)
		}
	}
	return segs
}

func (p *Parser) parseImport() *ast.Import {
	start := p.cur().Span
	if p.at(token.FROM) {
		p.advance()
		path := p.parseDottedPath()
		if _, ok := p.expect(token.IMPORT); !ok {
			p.syncTopLevel()
			return nil
		}
		if p.at(token.STAR) {
			p.advance()
			p.consumeSemi()
			return &ast.Import{Kind: ast.ImportFromWildcard, Path: path, SpanValue: diag.Merge(start, p.cur().Span)}
		}
		var items []ast.ImportItem
		for {
			name, ok := p.expect(token.IDENT)
			if !ok {
				break
			}
			item := ast.ImportItem{Name: name.Literal}
			if p.at(token.AS) {
				p.advance()
				if alias, ok := p.expect(token.IDENT); ok {
					item.Alias = alias.Literal
				}
			}
			items = append(items, item)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.consumeSemi()
		return &ast.Import{Kind: ast.ImportFrom, Path: path, Items: items, SpanValue: diag.Merge(start, p.cur().Span)}
	}

	// import a.b.c [as alias];
	p.advance() // `import`
	path := p.parseDottedPath()
	alias := ""
	if p.at(token.AS) {
		p.advance()
		if a, ok := p.expect(token.IDENT); ok {
			alias = a.Literal
		}
	}
	p.consumeSemi()
	return &ast.Import{Kind: ast.ImportNamespace, Path: path, Alias: alias, SpanValue: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) consumeSemi() {
	if p.at(token.SEMI) {
		p.advance()
		return
	}
	p.errorf("expected ';', found %s %q", p.cur().Kind, p.cur().Literal)
}

func (p *Parser) parseExport() *ast.Export {
	start := p.cur().Span
	p.advance() // `export`

	if p.at(token.STAR) {
		p.advance()
		if _, ok := p.expect(token.FROM); !ok {
			p.syncTopLevel()
			return nil
		}
		path := p.parseDottedPath()
		p.consumeSemi()
		return &ast.Export{Kind: ast.ExportReexportWildcard, From: path, SpanValue: diag.Merge(start, p.cur().Span)}
	}

	if _, ok := p.expect(token.LBRACE); !ok {
		p.syncTopLevel()
		return nil
	}
	var items []ast.ExportItem
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		name, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		item := ast.ExportItem{Name: name.Literal}
		if p.at(token.AS) {
			p.advance()
			if alias, ok := p.expect(token.IDENT); ok {
				item.Alias = alias.Literal
			}
		}
		items = append(items, item)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)

	if p.at(token.FROM) {
		p.advance()
		path := p.parseDottedPath()
		p.consumeSemi()
		return &ast.Export{Kind: ast.ExportReexport, Items: items, From: path, SpanValue: diag.Merge(start, p.cur().Span)}
	}
	p.consumeSemi()
	return &ast.Export{Kind: ast.ExportLocal, Items: items, SpanValue: diag.Merge(start, p.cur().Span)}
}
