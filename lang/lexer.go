package lang

import "iter"

// Lexer splits a template into tokens. Outside braces it produces literal
// text runs, section markers and '{'; inside braces it produces expression
// tokens until the matching '}'.
type Lexer struct {
	src     string
	start   int
	current int
	line    int
	column  int
	depth   int
	ch      byte
	tok     Token
}

// NewLexer returns a lexer positioned before the first token of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: -1, tok: Token{Kind: TokenEOF}}
}

// Token returns the token produced by the last call to Next.
func (l *Lexer) Token() Token { return l.tok }

// Depth returns the current brace nesting depth.
func (l *Lexer) Depth() int { return l.depth }

// Next scans and returns the next token. At end of input it returns
// TokenEOF on every call.
func (l *Lexer) Next() Token {
	if l.depth > 0 {
		l.skipWhitespace()
	}

	l.start = l.current

	if l.atEnd() {
		l.tok = Token{
			Kind:   TokenEOF,
			Start:  l.current,
			End:    l.current,
			Line:   l.line,
			Column: l.column,
		}

		return l.tok
	}

	if l.depth > 0 {
		l.tok = l.expression()
	} else {
		l.tok = l.text()
	}

	return l.tok
}

// All yields tokens up to and including the first TokenEOF.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			t := l.Next()
			if !yield(t) || t.Kind == TokenEOF {
				return
			}
		}
	}
}

func (l *Lexer) text() Token {
	switch l.advance() {
	case '{':
		l.depth++

		return l.make(TokenLeftBrace, "{")

	case '#':
		return l.section()
	}

	for !l.atEnd() && l.peek() != '{' && l.peek() != '#' {
		l.advance()
	}

	return l.make(TokenString, l.src[l.start:l.current])
}

func (l *Lexer) expression() Token {
	c := l.advance()

	switch {
	case isDigit(c):
		return l.number()
	case c == '-' && isDigit(l.peek()) && !l.afterOperand():
		return l.number()
	case isAlpha(c):
		return l.identifier()
	}

	switch c {
	case '"', '\'':
		return l.quoted(c)
	case '#':
		return l.section()
	case '{':
		l.depth++

		return l.make(TokenLeftBrace, "{")
	case '}':
		l.depth--

		return l.make(TokenRightBrace, "}")
	case '=':
		if l.match('=') {
			return l.make(TokenEqualEqual, "==")
		}
	case '!':
		if l.match('=') {
			return l.make(TokenBangEqual, "!=")
		}

		return l.make(TokenBang, "!")
	case '>':
		if l.match('=') {
			return l.make(TokenGreaterEqual, ">=")
		}

		return l.make(TokenGreater, ">")
	case '<':
		if l.match('=') {
			return l.make(TokenLessEqual, "<=")
		}

		return l.make(TokenLess, "<")
	case '+':
		return l.make(TokenPlus, "+")
	case '-':
		return l.make(TokenMinus, "-")
	case '*':
		return l.make(TokenStar, "*")
	case '/':
		return l.make(TokenSlash, "/")
	case '%':
		return l.make(TokenPercentage, "%")
	case '^':
		return l.make(TokenUpArrow, "^")
	case '.':
		return l.make(TokenDot, ".")
	case ',':
		return l.make(TokenComma, ",")
	case '?':
		return l.make(TokenQuestionMark, "?")
	case ':':
		return l.make(TokenColon, ":")
	case '(':
		return l.make(TokenLeftParen, "(")
	case ')':
		return l.make(TokenRightParen, ")")
	}

	return l.make(TokenError, "Unexpected character.")
}

// afterOperand reports whether the previous token completes an operand, in
// which case a following '-' is subtraction rather than a sign.
func (l *Lexer) afterOperand() bool {
	switch l.tok.Kind {
	case TokenIdentifier, TokenNumber, TokenString, TokenNull, TokenTrue,
		TokenFalse, TokenRightParen, TokenRightBrace:
		return true
	default:
		return false
	}
}

func (l *Lexer) section() Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	return l.make(TokenSection, l.src[l.start+1:l.current])
}

func (l *Lexer) number() Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()

		for isDigit(l.peek()) {
			l.advance()
		}
	}

	return l.make(TokenNumber, l.src[l.start:l.current])
}

func (l *Lexer) identifier() Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}

	text := l.src[l.start:l.current]
	if kind, ok := keywords[text]; ok {
		return l.make(kind, text)
	}

	return l.make(TokenIdentifier, text)
}

func (l *Lexer) quoted(quote byte) Token {
	for !l.atEnd() && l.peek() != quote {
		l.advance()
	}

	if l.atEnd() {
		return l.make(TokenError, "Unterminated string.")
	}

	l.advance()

	return l.make(TokenString, l.src[l.start+1:l.current-1])
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) make(kind TokenKind, lexeme string) Token {
	return Token{
		Kind:   kind,
		Lexeme: lexeme,
		Start:  l.start,
		End:    l.current,
		Line:   l.line,
		Column: l.column,
		Char:   l.ch,
	}
}

// advance consumes one byte. Line and column describe the byte just
// consumed, so a newline belongs to the line it terminates.
func (l *Lexer) advance() byte {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}

	l.ch = l.src[l.current]
	l.current++

	return l.ch
}

func (l *Lexer) match(expected byte) bool {
	if l.atEnd() || l.src[l.current] != expected {
		return false
	}

	l.advance()

	return true
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}

	return l.src[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.src) {
		return 0
	}

	return l.src[l.current+1]
}

func (l *Lexer) atEnd() bool { return l.current >= len(l.src) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
