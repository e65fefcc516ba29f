package compiler

import "testing"

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{"42", []TokenType{TokenNumber, TokenEOF}},
		{"3.5", []TokenType{TokenNumber, TokenEOF}},
		{`"hi"`, []TokenType{TokenString, TokenEOF}},
		{"foo", []TokenType{TokenName, TokenEOF}},
		{"x:", []TokenType{TokenField, TokenEOF}},
		{"_", []TokenType{TokenName, TokenEOF}},
		{"a == b != c", []TokenType{TokenName, TokenEqual, TokenName, TokenNotEqual, TokenName, TokenEOF}},
		{"< <= > >=", []TokenType{TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual, TokenEOF}},
		{"+ - * /", []TokenType{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEOF}},
		{"var x = 1", []TokenType{TokenVar, TokenName, TokenAssign, TokenNumber, TokenEOF}},
		{"(a, b)", []TokenType{TokenLParen, TokenName, TokenComma, TokenName, TokenRParen, TokenEOF}},
		{"if then else end", []TokenType{TokenIf, TokenThen, TokenElse, TokenEnd, TokenEOF}},
		{"match case do catch", []TokenType{TokenMatch, TokenCase, TokenDo, TokenCatch, TokenEOF}},
		{"def return throw is", []TokenType{TokenDef, TokenReturn, TokenThrow, TokenIs, TokenEOF}},
		{"and or not", []TokenType{TokenAnd, TokenOr, TokenNot, TokenEOF}},
		{"true false nothing", []TokenType{TokenTrue, TokenFalse, TokenNothing, TokenEOF}},
		{"#", []TokenType{TokenError, TokenEOF}},
	}

	for _, tt := range tests {
		got := tokenTypes(Tokenize(tt.input))
		if len(got) != len(tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Tokenize(%q)[%d] = %s, want %s", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLexerLines(t *testing.T) {
	input := "\n\na // comment\n\n\nb\n"
	want := []TokenType{TokenName, TokenLine, TokenName, TokenLine, TokenEOF}

	got := tokenTypes(Tokenize(input))
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerNewlinesInsideParens(t *testing.T) {
	input := "(a,\n b)\nc"
	want := []TokenType{
		TokenLParen, TokenName, TokenComma, TokenName, TokenRParen,
		TokenLine, TokenName, TokenEOF,
	}

	got := tokenTypes(Tokenize(input))
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tokens := Tokenize(`"a\"b\n"`)
	if tokens[0].Type != TokenString {
		t.Fatalf("type = %s, want STRING", tokens[0].Type)
	}
	if tokens[0].Literal != "a\"b\n" {
		t.Errorf("literal = %q, want %q", tokens[0].Literal, "a\"b\n")
	}

	if tok := Tokenize(`"open`)[0]; tok.Type != TokenError {
		t.Errorf("unterminated string type = %s, want ERROR", tok.Type)
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := Tokenize("a\n  bc")
	if p := tokens[0].Pos; p.Line != 1 || p.Column != 1 {
		t.Errorf("a at %d:%d, want 1:1", p.Line, p.Column)
	}
	if p := tokens[2].Pos; p.Line != 2 || p.Column != 3 {
		t.Errorf("bc at %d:%d, want 2:3", p.Line, p.Column)
	}
}
