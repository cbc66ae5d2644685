// Package token defines the lexical token kinds recognized by the skepa
// lexer (spec §3, §6).
package token

import "github.com/skepa-lang/skepa/internal/diag"

// Kind identifies the class of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	// Literal classes.
	IDENT
	INT
	FLOAT
	STRING

	// Keywords.
	IMPORT
	FROM
	AS
	EXPORT
	FN
	STRUCT
	IMPL
	LET
	IF
	ELSE
	WHILE
	FOR
	BREAK
	CONTINUE
	RETURN
	MATCH
	TRUE
	FALSE

	// Type names.
	TY_INT
	TY_FLOAT
	TY_BOOL
	TY_STRING
	TY_VOID

	// Operators.
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NEQ
	LT
	LTE
	GT
	GTE
	ANDAND
	OROR
	BANG
	ASSIGN
	ARROW  // ->
	FARROW // =>
	PIPE   // |

	// Punctuation.
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	DOT
	COLON
	SEMI
	WILDCARD // _
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "identifier", INT: "int literal", FLOAT: "float literal", STRING: "string literal",

	IMPORT: "import", FROM: "from", AS: "as", EXPORT: "export", FN: "fn",
	STRUCT: "struct", IMPL: "impl", LET: "let", IF: "if", ELSE: "else",
	WHILE: "while", FOR: "for", BREAK: "break", CONTINUE: "continue",
	RETURN: "return", MATCH: "match", TRUE: "true", FALSE: "false",

	TY_INT: "Int", TY_FLOAT: "Float", TY_BOOL: "Bool", TY_STRING: "String", TY_VOID: "Void",

	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQ: "==", NEQ: "!=", LT: "<", LTE: "<=", GT: ">", GTE: ">=",
	ANDAND: "&&", OROR: "||", BANG: "!", ASSIGN: "=", ARROW: "->", FARROW: "=>", PIPE: "|",

	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", COMMA: ",", DOT: ".", COLON: ":", SEMI: ";",
	WILDCARD: "_",
}

// Keywords maps keyword lexemes to their Kind; used by the lexer to
// distinguish identifiers from reserved words, and primitive type names
// from user struct names.
var Keywords = map[string]Kind{
	"import": IMPORT, "from": FROM, "as": AS, "export": EXPORT, "fn": FN,
	"struct": STRUCT, "impl": IMPL, "let": LET, "if": IF, "else": ELSE,
	"while": WHILE, "for": FOR, "break": BREAK, "continue": CONTINUE,
	"return": RETURN, "match": MATCH, "true": TRUE, "false": FALSE,
	"Int": TY_INT, "Float": TY_FLOAT, "Bool": TY_BOOL, "String": TY_STRING, "Void": TY_VOID,
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Token is one lexical unit: its kind, decoded literal text, and source span.
type Token struct {
	Kind    Kind
	Literal string
	Span    diag.Span
}
