package lexer

import (
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `let x = 5;
let y = 10.5
[1, 2, 3] | each { |it| $it + 1 }
1..5
0..<3
def "foo bar" [...rest] { $rest }
$"hi ($x)"
-n
'raw'
a != b
`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "5"},
		{SEMICOLON, ";"},
		{NEWLINE, "\n"},
		{LET, "let"},
		{IDENT, "y"},
		{ASSIGN, "="},
		{FLOAT, "10.5"},
		{NEWLINE, "\n"},
		{LBRACKET, "["},
		{INT, "1"},
		{COMMA, ","},
		{INT, "2"},
		{COMMA, ","},
		{INT, "3"},
		{RBRACKET, "]"},
		{PIPE, "|"},
		{IDENT, "each"},
		{LBRACE, "{"},
		{PIPE, "|"},
		{IDENT, "it"},
		{PIPE, "|"},
		{VARIABLE, "it"},
		{PLUS, "+"},
		{INT, "1"},
		{RBRACE, "}"},
		{NEWLINE, "\n"},
		{INT, "1"},
		{DOTDOT, ".."},
		{INT, "5"},
		{NEWLINE, "\n"},
		{INT, "0"},
		{DOTDOTLT, "..<"},
		{INT, "3"},
		{NEWLINE, "\n"},
		{DEF, "def"},
		{STRING, "foo bar"},
		{LBRACKET, "["},
		{ELLIPSIS, "..."},
		{IDENT, "rest"},
		{RBRACKET, "]"},
		{LBRACE, "{"},
		{VARIABLE, "rest"},
		{RBRACE, "}"},
		{NEWLINE, "\n"},
		{INTERP, "hi ($x)"},
		{NEWLINE, "\n"},
		{FLAG, "n"},
		{NEWLINE, "\n"},
		{STRING, "raw"},
		{NEWLINE, "\n"},
		{IDENT, "a"},
		{NOT_EQ, "!="},
		{IDENT, "b"},
		{NEWLINE, "\n"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"let", LET},
		{"def", DEF},
		{"alias", ALIAS},
		{"module", MODULE},
		{"export", EXPORT},
		{"use", USE},
		{"hide", HIDE},
		{"if", IF},
		{"else", ELSE},
		{"for", FOR},
		{"in", IN},
		{"not-in", NOT_IN},
		{"inward", IDENT},
		{"form", IDENT},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expected {
			t.Errorf("keyword %q: expected %q, got %q", tt.input, tt.expected, tok.Type)
		}
	}
}

func TestMinusVersusFlag(t *testing.T) {
	l := New("3 - 4")
	expected := []TokenType{INT, MINUS, INT, EOF}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tokens[%d]: expected %q, got %q", i, want, tok.Type)
		}
	}

	l = New("each -n { 1 }")
	tok := l.NextToken()
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %q", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != FLAG || tok.Literal != "n" {
		t.Fatalf("expected FLAG n, got %q %q", tok.Type, tok.Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"say \"hi\""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`'no \n escapes'`, `no \n escapes`},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Errorf("input %q: expected STRING, got %q", tt.input, tok.Type)
			continue
		}
		if tok.Literal != tt.expected {
			t.Errorf("input %q: expected literal %q, got %q", tt.input, tt.expected, tok.Literal)
		}
	}
}

func TestComments(t *testing.T) {
	l := New("1 # a comment\n2")
	expected := []struct {
		typ     TokenType
		literal string
	}{
		{INT, "1"},
		{NEWLINE, "\n"},
		{INT, "2"},
		{EOF, ""},
	}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Literal != want.literal {
			t.Fatalf("tokens[%d]: expected %q %q, got %q %q",
				i, want.typ, want.literal, tok.Type, tok.Literal)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	l := New("let x = 1\nlet y = 2")

	tok := l.NextToken()
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("let: expected 1:1, got %d:%d", tok.Line, tok.Column)
	}
	tok = l.NextToken()
	if tok.Line != 1 || tok.Column != 5 {
		t.Errorf("x: expected 1:5, got %d:%d", tok.Line, tok.Column)
	}

	for tok.Type != NEWLINE {
		tok = l.NextToken()
	}
	tok = l.NextToken()
	if tok.Line != 2 || tok.Column != 1 {
		t.Errorf("second let: expected 2:1, got %d:%d", tok.Line, tok.Column)
	}
}

func TestIllegalDollar(t *testing.T) {
	l := New("$ ")
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Errorf("expected ILLEGAL, got %q", tok.Type)
	}
}
