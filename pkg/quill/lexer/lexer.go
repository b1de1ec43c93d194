// Package lexer turns Quill source text into tokens.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE

	// Identifiers and literals
	IDENT    // bare word: each, foo, build-string, ...
	INT      // 1343456
	FLOAT    // 3.14159
	STRING   // "foobar" or 'foobar'
	VARIABLE // $x, $it, $true
	INTERP   // $"text (expr) text"
	FLAG     // -n, -o

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	BANG     // !
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	EQ       // ==
	NOT_EQ   // !=
	PIPE     // |
	DOT      // .
	DOTDOT   // ..
	DOTDOTLT // ..<
	ELLIPSIS // ...

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]

	// Keywords
	LET
	DEF
	ALIAS
	MODULE
	EXPORT
	USE
	HIDE
	IF
	ELSE
	FOR
	IN
	NOT_IN
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", NEWLINE: "NEWLINE",
	IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT", STRING: "STRING",
	VARIABLE: "VARIABLE", INTERP: "INTERP", FLAG: "FLAG",
	ASSIGN: "=", PLUS: "+", MINUS: "-", ASTERISK: "*", SLASH: "/",
	PERCENT: "%", BANG: "!", LT: "<", GT: ">", LTE: "<=", GTE: ">=",
	EQ: "==", NOT_EQ: "!=", PIPE: "|", DOT: ".", DOTDOT: "..",
	DOTDOTLT: "..<", ELLIPSIS: "...",
	COMMA: ",", SEMICOLON: ";", LPAREN: "(", RPAREN: ")",
	LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	LET: "let", DEF: "def", ALIAS: "alias", MODULE: "module",
	EXPORT: "export", USE: "use", HIDE: "hide", IF: "if", ELSE: "else",
	FOR: "for", IN: "in", NOT_IN: "not-in",
}

// String returns a readable name for the token type.
func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return "UNKNOWN"
}

var keywords = map[string]TokenType{
	"let":    LET,
	"def":    DEF,
	"alias":  ALIAS,
	"module": MODULE,
	"export": EXPORT,
	"use":    USE,
	"hide":   HIDE,
	"if":     IF,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"not-in": NOT_IN,
}

// Token represents a single token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based
	Column  int // 1-based
}

// Lexer holds the scanning state.
type Lexer struct {
	input   string
	pos     int  // current position (points to current rune)
	readPos int  // next reading position
	ch      rune // current rune
	line    int
	column  int
}

// New creates a lexer for the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readRune()
	return l
}

func (l *Lexer) readRune() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += w
	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekRune() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) peekRuneAt(offset int) rune {
	pos := l.readPos
	for i := 0; i < offset; i++ {
		if pos >= len(l.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readRune()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readRune()
	}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '-' || ch == '?'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	for l.ch == '#' {
		l.skipComment()
		l.skipWhitespace()
	}

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		tok.Type = EOF
		return tok
	case '\n':
		tok.Type = NEWLINE
		tok.Literal = "\n"
		l.readRune()
		return tok
	case '=':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = EQ, "=="
		} else {
			tok.Type, tok.Literal = ASSIGN, "="
		}
	case '+':
		tok.Type, tok.Literal = PLUS, "+"
	case '-':
		peek := l.peekRune()
		if isIdentStart(peek) {
			// A leading-dash word is a flag argument.
			l.readRune()
			start := l.pos
			for isIdentPart(l.ch) {
				l.readRune()
			}
			tok.Type = FLAG
			tok.Literal = l.input[start:l.pos]
			return tok
		}
		tok.Type, tok.Literal = MINUS, "-"
	case '*':
		tok.Type, tok.Literal = ASTERISK, "*"
	case '/':
		tok.Type, tok.Literal = SLASH, "/"
	case '%':
		tok.Type, tok.Literal = PERCENT, "%"
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = NOT_EQ, "!="
		} else {
			tok.Type, tok.Literal = BANG, "!"
		}
	case '<':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = LTE, "<="
		} else {
			tok.Type, tok.Literal = LT, "<"
		}
	case '>':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = GTE, ">="
		} else {
			tok.Type, tok.Literal = GT, ">"
		}
	case '|':
		tok.Type, tok.Literal = PIPE, "|"
	case ',':
		tok.Type, tok.Literal = COMMA, ","
	case ';':
		tok.Type, tok.Literal = SEMICOLON, ";"
	case '(':
		tok.Type, tok.Literal = LPAREN, "("
	case ')':
		tok.Type, tok.Literal = RPAREN, ")"
	case '{':
		tok.Type, tok.Literal = LBRACE, "{"
	case '}':
		tok.Type, tok.Literal = RBRACE, "}"
	case '[':
		tok.Type, tok.Literal = LBRACKET, "["
	case ']':
		tok.Type, tok.Literal = RBRACKET, "]"
	case '.':
		if l.peekRune() == '.' {
			if l.peekRuneAt(1) == '.' {
				l.readRune()
				l.readRune()
				tok.Type, tok.Literal = ELLIPSIS, "..."
			} else if l.peekRuneAt(1) == '<' {
				l.readRune()
				l.readRune()
				tok.Type, tok.Literal = DOTDOTLT, "..<"
			} else {
				l.readRune()
				tok.Type, tok.Literal = DOTDOT, ".."
			}
		} else {
			tok.Type, tok.Literal = DOT, "."
		}
	case '\'':
		tok.Type = STRING
		tok.Literal = l.readRawString()
		return tok
	case '"':
		tok.Type = STRING
		tok.Literal = l.readString()
		return tok
	case '$':
		peek := l.peekRune()
		if peek == '"' {
			l.readRune() // consume '$'
			tok.Type = INTERP
			tok.Literal = l.readString()
			return tok
		}
		if isIdentStart(peek) {
			l.readRune() // consume '$'
			start := l.pos
			for isIdentPart(l.ch) {
				l.readRune()
			}
			tok.Type = VARIABLE
			tok.Literal = l.input[start:l.pos]
			return tok
		}
		tok.Type, tok.Literal = ILLEGAL, "$"
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if isIdentStart(l.ch) {
			start := l.pos
			for isIdentPart(l.ch) {
				l.readRune()
			}
			word := l.input[start:l.pos]
			tok.Literal = word
			if kw, ok := keywords[word]; ok {
				tok.Type = kw
			} else {
				tok.Type = IDENT
			}
			return tok
		}
		tok.Type = ILLEGAL
		tok.Literal = string(l.ch)
	}

	l.readRune()
	return tok
}

// readNumber scans an INT or FLOAT. A '.' followed by another '.' is a
// range operator, not a decimal point.
func (l *Lexer) readNumber() Token {
	tok := Token{Line: l.line, Column: l.column}
	start := l.pos
	for isDigit(l.ch) {
		l.readRune()
	}
	tok.Type = INT
	if l.ch == '.' && isDigit(l.peekRune()) {
		l.readRune() // consume '.'
		for isDigit(l.ch) {
			l.readRune()
		}
		tok.Type = FLOAT
	}
	tok.Literal = l.input[start:l.pos]
	return tok
}

// readRawString scans a single-quoted string with no escape handling.
func (l *Lexer) readRawString() string {
	l.readRune() // consume opening quote
	start := l.pos
	for l.ch != '\'' && l.ch != 0 {
		l.readRune()
	}
	s := l.input[start:l.pos]
	if l.ch == '\'' {
		l.readRune() // consume closing quote
	}
	return s
}

// readString scans a double-quoted string with backslash escapes.
func (l *Lexer) readString() string {
	l.readRune() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			switch l.peekRune() {
			case 'n':
				sb.WriteRune('\n')
				l.readRune()
			case 't':
				sb.WriteRune('\t')
				l.readRune()
			case '"':
				sb.WriteRune('"')
				l.readRune()
			case '\\':
				sb.WriteRune('\\')
				l.readRune()
			default:
				sb.WriteRune(l.ch)
			}
		} else {
			sb.WriteRune(l.ch)
		}
		l.readRune()
	}
	if l.ch == '"' {
		l.readRune() // consume closing quote
	}
	return sb.String()
}
