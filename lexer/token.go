package lexer

import "fmt"

// TokenKind classifies a lexical token.
type TokenKind int

const (
	Illegal TokenKind = iota
	Eof
	Newline

	Ident
	Int
	String
	Char

	Assign
	Equal
	NotEqual
	Plus
	Minus
	Asterisk
	ForwardSlash
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual

	Let
	If
	Else
	While
	Return

	LParen
	RParen
	LBrace
	RBrace
	SemiColon
	Comma
)

// Token is one lexical token; Lit carries the text of identifiers and
// literals.
type Token struct {
	Kind TokenKind
	Lit  string
}

var kindNames = map[TokenKind]string{
	Illegal:          "<Illegal>",
	Eof:              "EoF",
	Newline:          `\n`,
	Assign:           "=",
	Equal:            "==",
	NotEqual:         "!=",
	Plus:             "+",
	Minus:            "-",
	Asterisk:         "*",
	ForwardSlash:     "/",
	LessThan:         "<",
	LessThanEqual:    "<=",
	GreaterThan:      ">",
	GreaterThanEqual: ">=",
	Let:              "let",
	If:               "if",
	Else:             "else",
	While:            "while",
	Return:           "return",
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	SemiColon:        ";",
	Comma:            ",",
}

func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("Ident(%s)", t.Lit)
	case Int:
		return fmt.Sprintf("Integer(%s)", t.Lit)
	case String:
		return fmt.Sprintf("String(%s)", t.Lit)
	case Char:
		return fmt.Sprintf("Char(%s)", t.Lit)
	default:
		return kindNames[t.Kind]
	}
}

// KindString renders the bare display form of a kind, used in
// "expected: '...'" diagnostics.
func KindString(k TokenKind) string {
	return kindNames[k]
}

var keywords = map[string]TokenKind{
	"let":    Let,
	"if":     If,
	"else":   Else,
	"while":  While,
	"return": Return,
}
