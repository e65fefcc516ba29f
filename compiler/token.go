package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Magpie lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenLine // end of a line outside parentheses

	// Literals
	TokenNumber // 42, 3.14
	TokenString // "hello"
	TokenName   // foo, Num
	TokenField  // foo: (record field label)

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,
	TokenAssign // =

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Reserved words
	TokenAnd
	TokenCase
	TokenCatch
	TokenDef
	TokenDo
	TokenElse
	TokenEnd
	TokenFalse
	TokenIf
	TokenIs
	TokenMatch
	TokenNot
	TokenNothing
	TokenOr
	TokenReturn
	TokenThen
	TokenThrow
	TokenTrue
	TokenVar
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenError:        "ERROR",
	TokenLine:         "LINE",
	TokenNumber:       "NUMBER",
	TokenString:       "STRING",
	TokenName:         "NAME",
	TokenField:        "FIELD",
	TokenLParen:       "(",
	TokenRParen:       ")",
	TokenComma:        ",",
	TokenAssign:       "=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenAnd:          "and",
	TokenCase:         "case",
	TokenCatch:        "catch",
	TokenDef:          "def",
	TokenDo:           "do",
	TokenElse:         "else",
	TokenEnd:          "end",
	TokenFalse:        "false",
	TokenIf:           "if",
	TokenIs:           "is",
	TokenMatch:        "match",
	TokenNot:          "not",
	TokenNothing:      "nothing",
	TokenOr:           "or",
	TokenReturn:       "return",
	TokenThen:         "then",
	TokenThrow:        "throw",
	TokenTrue:         "true",
	TokenVar:          "var",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text, or the decoded value for strings
	Pos     Position // start position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenLine:
		return "LINE"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"and":     TokenAnd,
	"case":    TokenCase,
	"catch":   TokenCatch,
	"def":     TokenDef,
	"do":      TokenDo,
	"else":    TokenElse,
	"end":     TokenEnd,
	"false":   TokenFalse,
	"if":      TokenIf,
	"is":      TokenIs,
	"match":   TokenMatch,
	"not":     TokenNot,
	"nothing": TokenNothing,
	"or":      TokenOr,
	"return":  TokenReturn,
	"then":    TokenThen,
	"throw":   TokenThrow,
	"true":    TokenTrue,
	"var":     TokenVar,
}
