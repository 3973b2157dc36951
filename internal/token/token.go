// Package token defines the lexical tokens of the script language.
package token

type Type string

type Token struct {
	Type    Type
	Literal string
	Line    int
	Column  int
}

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER" // decimal integer literal, underscores stripped, hex normalized
	FLOAT  Type = "FLOAT"
	TEXT   Type = "TEXT" // unescaped string contents; may hold raw bytes from \xx escapes

	ASSIGN    Type = "="
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACKET  Type = "["
	RBRACKET  Type = "]"
	LBRACE    Type = "{"
	RBRACE    Type = "}"
	QUESTION  Type = "?"
	SEMICOLON Type = ";"
	COMMA     Type = ","
	DOT       Type = "."
	COLON     Type = ":"
	ARROW     Type = "->"
	PLUS      Type = "+"
	MINUS     Type = "-"

	EQ     Type = "=="
	SUBEQ  Type = "~="
	NOT_EQ Type = "!="

	NULL      Type = "NULL"
	OPT       Type = "OPT"
	VEC       Type = "VEC"
	RECORD    Type = "RECORD"
	VARIANT   Type = "VARIANT"
	BLOB      Type = "BLOB"
	PRINCIPAL Type = "PRINCIPAL"
	SERVICE   Type = "SERVICE"
	FUNC      Type = "FUNC"
	TRUE      Type = "TRUE"
	FALSE     Type = "FALSE"

	CALL     Type = "CALL"
	PAR_CALL Type = "PAR_CALL"
	ENCODE   Type = "ENCODE"
	DECODE   Type = "DECODE"
	AS       Type = "AS"

	LET      Type = "LET"
	ASSERT   Type = "ASSERT"
	FUNCTION Type = "FUNCTION"
	IF       Type = "IF"
	ELSE     Type = "ELSE"
	WHILE    Type = "WHILE"
	IMPORT   Type = "IMPORT"
	LOAD     Type = "LOAD"
	EXPORT   Type = "EXPORT"
	CONFIG   Type = "CONFIG"
)

var keywords = map[string]Type{
	"null":      NULL,
	"opt":       OPT,
	"vec":       VEC,
	"record":    RECORD,
	"variant":   VARIANT,
	"blob":      BLOB,
	"principal": PRINCIPAL,
	"service":   SERVICE,
	"func":      FUNC,
	"true":      TRUE,
	"false":     FALSE,
	"call":      CALL,
	"par_call":  PAR_CALL,
	"encode":    ENCODE,
	"decode":    DECODE,
	"as":        AS,
	"let":       LET,
	"assert":    ASSERT,
	"function":  FUNCTION,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"import":    IMPORT,
	"load":      LOAD,
	"export":    EXPORT,
	"config":    CONFIG,
}

// LookupIdent maps identifier text to its keyword token type, or IDENT.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
