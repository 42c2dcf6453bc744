package lang

import "strconv"

// TokenKind classifies a lexeme.
type TokenKind uint8

const (
	TokenString     TokenKind = iota // literal text or quoted string
	TokenIdentifier                  // name
	TokenNumber                      // 12, 1.5, -3

	TokenNull
	TokenTrue
	TokenFalse
	TokenAnd
	TokenOr

	TokenEqualEqual
	TokenBangEqual
	TokenGreater
	TokenGreaterEqual
	TokenLess
	TokenLessEqual

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercentage
	TokenUpArrow
	TokenBang

	TokenDot
	TokenComma
	TokenQuestionMark
	TokenColon
	TokenLeftParen
	TokenRightParen
	TokenLeftBrace
	TokenRightBrace

	TokenSection // #<digits>; the lexeme holds the digits
	TokenError   // the lexeme holds the message
	TokenEOF
)

var tokenName = [...]string{
	TokenString:       "String",
	TokenIdentifier:   "Identifier",
	TokenNumber:       "Number",
	TokenNull:         "null",
	TokenTrue:         "true",
	TokenFalse:        "false",
	TokenAnd:          "and",
	TokenOr:           "or",
	TokenEqualEqual:   "==",
	TokenBangEqual:    "!=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercentage:   "%",
	TokenUpArrow:      "^",
	TokenBang:         "!",
	TokenDot:          ".",
	TokenComma:        ",",
	TokenQuestionMark: "?",
	TokenColon:        ":",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenSection:      "Section",
	TokenError:        "Error",
	TokenEOF:          "EOF",
}

// String returns the operator spelling, keyword, or class name of k.
func (k TokenKind) String() string {
	if int(k) < len(tokenName) {
		return tokenName[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one lexeme. Start and End are byte offsets into the source with
// End exclusive. Line is 1-based and Column is the 0-based byte column of
// the last character consumed.
type Token struct {
	Kind       TokenKind
	Lexeme     string
	Start, End int
	Line       int
	Column     int
	// Char is the last byte consumed, or 0 at end of input.
	Char byte
}

var keywords = map[string]TokenKind{
	"null":  TokenNull,
	"true":  TokenTrue,
	"false": TokenFalse,
	"and":   TokenAnd,
	"or":    TokenOr,
}
