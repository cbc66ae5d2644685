package lexer

import (
	"testing"

	"github.com/skepa-lang/skepa/internal/token"
)

func kinds(src string) []token.Kind {
	l := New(src)
	var ks []token.Kind
	for {
		tok := l.Next()
		ks = append(ks, tok.Kind)
		if tok.Kind == token.EOF {
			return ks
		}
	}
}

func TestNext_Keywords(t *testing.T) {
	got := kinds("fn struct impl let if else while for break continue return match true false")
	want := []token.Kind{
		token.FN, token.STRUCT, token.IMPL, token.LET, token.IF, token.ELSE,
		token.WHILE, token.FOR, token.BREAK, token.CONTINUE, token.RETURN,
		token.MATCH, token.TRUE, token.FALSE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("token %d = %v, want %v", i, got[i], k)
		}
	}
}

func TestNext_IdentVsKeyword(t *testing.T) {
	l := New("fnName")
	tok := l.Next()
	if tok.Kind != token.IDENT || tok.Literal != "fnName" {
		t.Errorf("got %v %q, want IDENT \"fnName\"", tok.Kind, tok.Literal)
	}
}

func TestNext_IntAndFloatLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
		lit  string
	}{
		{"42", token.INT, "42"},
		{"3.14", token.FLOAT, "3.14"},
		{"0", token.INT, "0"},
	}
	for _, tt := range tests {
		l := New(tt.src)
		tok := l.Next()
		if tok.Kind != tt.kind || tok.Literal != tt.lit {
			t.Errorf("lexing %q: got %v %q, want %v %q", tt.src, tok.Kind, tok.Literal, tt.kind, tt.lit)
		}
	}
}

func TestNext_StringLiteralUnescapes(t *testing.T) {
	l := New(`"hello\nworld"`)
	tok := l.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("kind = %v, want STRING", tok.Kind)
	}
	if tok.Literal != "hello\nworld" {
		t.Errorf("literal = %q, want %q", tok.Literal, "hello\nworld")
	}
}

func TestNext_UnterminatedStringRecordsDiagnostic(t *testing.T) {
	l := New(`"unterminated`)
	l.Next()
	if l.Diagnostics().Len() == 0 {
		t.Error("expected a diagnostic for an unterminated string literal")
	}
}

func TestNext_TwoCharOperators(t *testing.T) {
	got := kinds("== != <= >= && ||")
	want := []token.Kind{
		token.EQ, token.NEQ, token.LTE, token.GTE, token.ANDAND, token.OROR, token.EOF,
	}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("token %d = %v, want %v", i, got[i], k)
		}
	}
}

func TestNext_SkipsCommentsAndWhitespace(t *testing.T) {
	got := kinds("let // a comment\n  x = 1;")
	want := []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.INT, token.SEMI, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("token %d = %v, want %v", i, got[i], k)
		}
	}
}

func TestNext_TracksLineAndColumn(t *testing.T) {
	l := New("x\ny")
	first := l.Next()
	second := l.Next()
	if first.Span.Line != 1 {
		t.Errorf("first.Line = %d, want 1", first.Span.Line)
	}
	if second.Span.Line != 2 {
		t.Errorf("second.Line = %d, want 2", second.Span.Line)
	}
	if first.Span.Col != 1 {
		t.Errorf("first.Col = %d, want 1", first.Span.Col)
	}
	if second.Span.Col != 1 {
		t.Errorf("second.Col = %d, want 1", second.Span.Col)
	}
}
