package lang

import (
	"context"
	"log/slog"
	"math"
	"strconv"
)

// MaxSectionIndex is the largest section index a template may use.
const MaxSectionIndex = math.MaxUint8

// MaxArgs is the largest number of arguments a call may pass.
const MaxArgs = math.MaxUint8

// Result holds everything one parse produced: the statements that parsed
// cleanly and a diagnostic for each statement that did not.
type Result struct {
	Source string
	Exprs  []Expr
	Errors []Diagnostic
}

// HasErrors reports whether any diagnostic was recorded.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// Err returns a *ParseError describing every diagnostic, or nil.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}

	return &ParseError{Diagnostics: r.Errors, Source: r.Source}
}

// Parse parses a template. It never fails outright: syntax errors are
// collected in the result and parsing resumes after the enclosing braces.
func Parse(ctx context.Context, src string, opts ...Option) *Result {
	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(ctx, "parse start", slog.Int("source_bytes", len(src)))

	p := &parser{lex: NewLexer(src), result: &Result{Source: src}}
	p.parse()

	cfg.logger.TraceContext(ctx, "parse done",
		slog.Int("statements", len(p.result.Exprs)),
		slog.Int("errors", len(p.result.Errors)),
	)

	return p.result
}

// bailout unwinds the parser to the statement loop.
type bailout struct{ diag Diagnostic }

type parser struct {
	lex        *Lexer
	prev, cur  Token
	blockDepth int
	result     *Result
}

func (p *parser) parse() {
	p.advance()

	for !p.check(TokenEOF) {
		mark := p.cur.Start

		expr, diag := p.guardedStatement()
		if diag == nil {
			p.result.Exprs = append(p.result.Exprs, expr)

			continue
		}

		p.result.Errors = append(p.result.Errors, *diag)
		p.synchronize(mark)
	}
}

func (p *parser) guardedStatement() (expr Expr, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}

			diag = &b.diag
		}
	}()

	return p.statement(), nil
}

// synchronize skips tokens until the brace depth returns to zero. An error
// raised outside any braces resumes at the next token.
func (p *parser) synchronize(mark int) {
	if p.blockDepth <= 0 {
		p.blockDepth = 0

		if p.cur.Start == mark && !p.check(TokenEOF) {
			p.advance()
		}

		return
	}

	for !p.check(TokenEOF) {
		switch p.cur.Kind {
		case TokenLeftBrace:
			p.blockDepth++
		case TokenRightBrace:
			p.blockDepth--
			if p.blockDepth <= 0 {
				p.blockDepth = 0
				p.advance()

				return
			}
		}

		p.advance()
	}

	p.blockDepth = 0
}

func (p *parser) statement() Expr {
	if !p.match(TokenSection) {
		return p.expression()
	}

	marker := p.prev
	if marker.Lexeme == "" {
		p.fail(nil, "Expected section index.")
	}

	index, err := strconv.Atoi(marker.Lexeme)
	if err != nil {
		index = math.MaxInt
	}

	var inner Expr
	if !p.check(TokenEOF) && !p.check(TokenSection) {
		inner = p.expression()
	}

	sec := &SectionExpr{Span: Span{marker.Start, p.prev.End}, Index: index, Inner: inner}
	if index > MaxSectionIndex {
		p.fail(sec, "Section index cannot be larger than 255.")
	}

	return sec
}

func (p *parser) expression() Expr { return p.conditional() }

func (p *parser) conditional() Expr {
	expr := p.or()

	if p.match(TokenQuestionMark) {
		then := p.statement()
		p.consume(TokenColon, "Expected ':' after first part of condition.",
			&ConditionalExpr{Span: p.spanFrom(expr), Cond: expr, Then: then})

		els := p.statement()
		expr = &ConditionalExpr{Span: p.spanFrom(expr), Cond: expr, Then: then, Else: els}
	}

	return expr
}

func (p *parser) or() Expr {
	expr := p.and()

	for p.match(TokenOr) {
		right := p.and()
		expr = &LogicalExpr{Span: p.spanFrom(expr), Left: expr, Op: TokenOr, Right: right}
	}

	return expr
}

func (p *parser) and() Expr {
	expr := p.equality()

	for p.match(TokenAnd) {
		right := p.equality()
		expr = &LogicalExpr{Span: p.spanFrom(expr), Left: expr, Op: TokenAnd, Right: right}
	}

	return expr
}

func (p *parser) equality() Expr {
	return p.binary(p.comparison, TokenEqualEqual, TokenBangEqual)
}

func (p *parser) comparison() Expr {
	return p.binary(p.term, TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual)
}

func (p *parser) term() Expr {
	return p.binary(p.factor, TokenPlus, TokenMinus)
}

func (p *parser) factor() Expr {
	return p.binary(p.unary, TokenStar, TokenSlash, TokenPercentage, TokenUpArrow)
}

// binary parses a left-associative chain of operand separated by ops.
func (p *parser) binary(operand func() Expr, ops ...TokenKind) Expr {
	expr := operand()

	for p.match(ops...) {
		op := p.prev.Kind
		right := operand()
		expr = &BinaryExpr{Span: p.spanFrom(expr), Left: expr, Op: op, Right: right}
	}

	return expr
}

func (p *parser) unary() Expr {
	if p.match(TokenBang, TokenMinus) {
		op := p.prev
		right := p.unary()

		return &UnaryExpr{Span: Span{op.Start, p.prev.End}, Op: op.Kind, Right: right}
	}

	return p.call()
}

func (p *parser) call() Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(TokenLeftParen):
			expr = p.finishCall(expr)

		case p.match(TokenDot):
			if !p.check(TokenIdentifier) {
				p.fail(&GetExpr{Span: p.spanFrom(expr), Object: expr},
					"Expected field name after '.'.")
			}

			p.advance()
			expr = &GetExpr{Span: p.spanFrom(expr), Object: expr, Name: p.prev.Lexeme}

		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee Expr) Expr {
	var args []Expr

	if !p.check(TokenRightParen) {
		for {
			if len(args) == MaxArgs {
				p.fail(&CallExpr{Span: p.spanFrom(callee), Callee: callee, Args: args},
					"Cannot have more than 255 arguments.")
			}

			args = append(args, p.expression())

			if !p.match(TokenComma) {
				break
			}
		}
	}

	p.consume(TokenRightParen, "Expected ')' after function arguments.",
		&CallExpr{Span: p.spanFrom(callee), Callee: callee, Args: args})

	return &CallExpr{Span: p.spanFrom(callee), Callee: callee, Args: args}
}

func (p *parser) primary() Expr {
	switch {
	case p.match(TokenNull):
		return &NullExpr{Span: p.prevSpan()}

	case p.match(TokenTrue, TokenFalse):
		return &BoolExpr{Span: p.prevSpan(), Value: p.prev.Kind == TokenTrue}

	case p.match(TokenNumber):
		n, _ := strconv.ParseFloat(p.prev.Lexeme, 64)

		return &NumberExpr{Span: p.prevSpan(), Value: n}

	case p.match(TokenString):
		return &StringExpr{Span: p.prevSpan(), Value: p.prev.Lexeme}

	case p.match(TokenIdentifier):
		return &VariableExpr{Span: p.prevSpan(), Name: p.prev.Lexeme}

	case p.match(TokenLeftParen):
		start := p.prev.Start
		inner := p.statement()
		p.consume(TokenRightParen, "Expected ')' after expression.",
			&GroupExpr{Span: Span{start, p.prev.End}, Inner: inner})

		return &GroupExpr{Span: Span{start, p.prev.End}, Inner: inner}

	case p.blockDepth == 0 && p.match(TokenLeftBrace):
		return p.block()
	}

	p.fail(nil, "Expected expression.")

	return nil
}

func (p *parser) block() Expr {
	start := p.prev.Start
	p.blockDepth++

	inner := p.blockBody(start)

	p.consume(TokenRightBrace, "Expected '}' after expression.",
		&BlockExpr{Span: Span{start, p.prev.End}, Inner: inner})
	p.blockDepth--

	return &BlockExpr{Span: Span{start, p.prev.End}, Inner: inner}
}

// blockBody parses the statement inside braces. A failure with no partial
// expression is reported against an empty block so that completion can
// offer the whole namespace.
func (p *parser) blockBody(start int) Expr {
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(bailout); ok && b.diag.Expr == nil {
				b.diag.Expr = &BlockExpr{Span: Span{start, max(p.prev.End, p.cur.Start)}}
				r = b
			}

			panic(r)
		}
	}()

	return p.statement()
}

func (p *parser) spanFrom(e Expr) Span { return Span{e.Bounds().Start, p.prev.End} }

func (p *parser) prevSpan() Span { return Span{p.prev.Start, p.prev.End} }

func (p *parser) advance() {
	p.prev = p.cur
	p.cur = p.lex.Next()
}

func (p *parser) check(kind TokenKind) bool { return p.cur.Kind == kind }

func (p *parser) match(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()

			return true
		}
	}

	return false
}

func (p *parser) consume(kind TokenKind, msg string, partial Expr) {
	if !p.check(kind) {
		p.fail(partial, msg)
	}

	p.advance()
}

// fail records a diagnostic at the current token and unwinds to the
// statement loop. A lexical error token reports its own message.
func (p *parser) fail(partial Expr, msg string) {
	tok := p.cur
	if tok.Kind == TokenError {
		msg = tok.Lexeme
	}

	panic(bailout{diag: Diagnostic{
		Line:    tok.Line,
		Column:  tok.Column,
		Char:    tok.Char,
		Message: msg,
		Expr:    partial,
	}})
}
