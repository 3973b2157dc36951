package lexer

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dialscript/dial/internal/token"
)

// Lexer tokenizes dial source text rune by rune.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
	err          error
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Err reports the first lexical error encountered, if any.
func (l *Lexer) Err() error { return l.err }

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line, column := l.line, l.column

	var tok token.Token
	switch l.ch {
	case 0:
		tok = token.Token{Type: token.EOF, Literal: "", Line: line, Column: column}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "==", Line: line, Column: column}
		} else {
			tok = token.Token{Type: token.ASSIGN, Literal: "=", Line: line, Column: column}
		}
	case '~':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.SUBEQ, Literal: "~=", Line: line, Column: column}
		} else {
			tok = l.illegal(line, column)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "!=", Line: line, Column: column}
		} else {
			tok = l.illegal(line, column)
		}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = token.Token{Type: token.ARROW, Literal: "->", Line: line, Column: column}
		} else {
			tok = token.Token{Type: token.MINUS, Literal: "-", Line: line, Column: column}
		}
	case '+':
		tok = token.Token{Type: token.PLUS, Literal: "+", Line: line, Column: column}
	case '(':
		tok = token.Token{Type: token.LPAREN, Literal: "(", Line: line, Column: column}
	case ')':
		tok = token.Token{Type: token.RPAREN, Literal: ")", Line: line, Column: column}
	case '[':
		tok = token.Token{Type: token.LBRACKET, Literal: "[", Line: line, Column: column}
	case ']':
		tok = token.Token{Type: token.RBRACKET, Literal: "]", Line: line, Column: column}
	case '{':
		tok = token.Token{Type: token.LBRACE, Literal: "{", Line: line, Column: column}
	case '}':
		tok = token.Token{Type: token.RBRACE, Literal: "}", Line: line, Column: column}
	case '?':
		tok = token.Token{Type: token.QUESTION, Literal: "?", Line: line, Column: column}
	case ';':
		tok = token.Token{Type: token.SEMICOLON, Literal: ";", Line: line, Column: column}
	case ',':
		tok = token.Token{Type: token.COMMA, Literal: ",", Line: line, Column: column}
	case '.':
		tok = token.Token{Type: token.DOT, Literal: ".", Line: line, Column: column}
	case ':':
		tok = token.Token{Type: token.COLON, Literal: ":", Line: line, Column: column}
	case '"':
		lit := l.readString()
		return token.Token{Type: token.TEXT, Literal: lit, Line: line, Column: column}
	default:
		if isIdentStart(l.ch) {
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(lit), Literal: lit, Line: line, Column: column}
		}
		if isDigit(l.ch) {
			typ, lit := l.readNumber()
			return token.Token{Type: typ, Literal: lit, Line: line, Column: column}
		}
		tok = l.illegal(line, column)
	}

	l.readChar()
	return tok
}

func (l *Lexer) illegal(line, column int) token.Token {
	lit := string(l.ch)
	l.setErrf("unexpected character %q", lit)
	return token.Token{Type: token.ILLEGAL, Literal: lit, Line: line, Column: column}
}

func (l *Lexer) setErrf(format string, args ...interface{}) {
	if l.err == nil {
		l.err = fmt.Errorf("%d:%d: %s", l.line, l.column, fmt.Sprintf(format, args...))
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			depth := 1
			for depth > 0 {
				if l.ch == 0 {
					l.setErrf("unclosed block comment")
					return
				}
				if l.ch == '/' && l.peekChar() == '*' {
					l.readChar()
					depth++
				} else if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					depth--
				}
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber scans integer and float literals. Hex literals are
// normalized to decimal text so the value layer only ever sees decimal.
// Underscores are separators and get stripped.
func (l *Lexer) readNumber() (token.Type, string) {
	start := l.position
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		hexStart := l.position
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		hex := strings.ReplaceAll(l.input[hexStart:l.position], "_", "")
		if hex == "" {
			l.setErrf("malformed hex literal")
			return token.ILLEGAL, l.input[start:l.position]
		}
		n, ok := new(big.Int).SetString(hex, 16)
		if !ok {
			l.setErrf("malformed hex literal %q", hex)
			return token.ILLEGAL, l.input[start:l.position]
		}
		return token.NUMBER, n.String()
	}

	isFloat := false
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	lit := strings.ReplaceAll(l.input[start:l.position], "_", "")
	if isFloat {
		return token.FLOAT, lit
	}
	return token.NUMBER, lit
}

// readString consumes a double-quoted literal, resolving escapes. The
// returned literal holds the already-unescaped text; \xx escapes insert
// raw bytes, so blob literals can carry arbitrary byte values.
func (l *Lexer) readString() string {
	var sb strings.Builder
	l.readChar() // opening quote
	for l.ch != '"' {
		if l.ch == 0 {
			l.setErrf("unterminated string literal")
			return sb.String()
		}
		if l.ch != '\\' {
			sb.WriteRune(l.ch)
			l.readChar()
			continue
		}
		l.readChar()
		switch l.ch {
		case 'n':
			sb.WriteByte('\n')
			l.readChar()
		case 'r':
			sb.WriteByte('\r')
			l.readChar()
		case 't':
			sb.WriteByte('\t')
			l.readChar()
		case '\\':
			sb.WriteByte('\\')
			l.readChar()
		case '"':
			sb.WriteByte('"')
			l.readChar()
		case '\'':
			sb.WriteByte('\'')
			l.readChar()
		case 'u':
			l.readChar()
			if l.ch != '{' {
				l.setErrf("expected '{' after \\u")
				return sb.String()
			}
			l.readChar()
			hexStart := l.position
			for isHexDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
			hex := strings.ReplaceAll(l.input[hexStart:l.position], "_", "")
			if l.ch != '}' || hex == "" {
				l.setErrf("malformed unicode escape")
				return sb.String()
			}
			l.readChar()
			n, ok := new(big.Int).SetString(hex, 16)
			if !ok || !n.IsInt64() || !utf8.ValidRune(rune(n.Int64())) {
				l.setErrf("invalid unicode escape \\u{%s}", hex)
				return sb.String()
			}
			sb.WriteRune(rune(n.Int64()))
		default:
			hi, ok1 := hexVal(l.ch)
			lo, ok2 := hexVal(l.peekChar())
			if !ok1 || !ok2 {
				l.setErrf("unknown escape \\%c", l.ch)
				return sb.String()
			}
			sb.WriteByte(byte(hi<<4 | lo))
			l.readChar()
			l.readChar()
		}
	}
	l.readChar() // closing quote
	return sb.String()
}

func hexVal(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	_, ok := hexVal(r)
	return ok
}
