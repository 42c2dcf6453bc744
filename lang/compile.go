package lang

import (
	"context"
	"log/slog"
)

// Compile translates a clean parse result to bytecode. A result with
// diagnostics yields its *ParseError.
func Compile(ctx context.Context, res *Result, opts ...Option) (*Program, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}

	return CompileExprs(ctx, res.Exprs, opts...)
}

// CompileString parses and compiles src.
func CompileString(ctx context.Context, src string, opts ...Option) (*Program, error) {
	return Compile(ctx, Parse(ctx, src, opts...), opts...)
}

// CompileExprs compiles template statements. Each statement renders into the
// output; the program ends with End.
func CompileExprs(ctx context.Context, exprs []Expr, opts ...Option) (*Program, error) {
	cfg := makeConfig(opts...)

	c := &compiler{prog: &Program{}, specialize: cfg.specialize}

	for _, e := range exprs {
		c.appendExpr(e)
	}

	c.prog.emit(OpEnd)

	if c.err != nil {
		cfg.logger.TraceContext(ctx, "compile failed", slog.Any("error", c.err))

		return nil, ErrCompile.Wrap(c.err)
	}

	cfg.logger.TraceContext(ctx, "compile done",
		slog.Int("code_bytes", len(c.prog.Code)),
		slog.Int("constants", len(c.prog.Constants)),
		slog.Bool("specialize", cfg.specialize),
	)

	return c.prog, nil
}

// compiler keeps the first error and ignores emission afterwards.
type compiler struct {
	prog       *Program
	specialize bool
	err        error
}

func (c *compiler) check(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *compiler) emit(op OpCode, operands ...byte) {
	if c.err == nil {
		c.prog.emit(op, operands...)
	}
}

func (c *compiler) emitConstant(op OpCode, values ...Value) {
	if c.err == nil {
		c.check(c.prog.emitConstant(op, values...))
	}
}

func (c *compiler) emitJump(op OpCode) int {
	if c.err != nil {
		return 0
	}

	return c.prog.emitJump(op)
}

func (c *compiler) patchJump(pos int) {
	if c.err == nil {
		c.check(c.prog.patchJump(pos))
	}
}

// literal returns the constant value of a literal expression.
func literal(e Expr) (Value, bool) {
	switch e := e.(type) {
	case *NullExpr:
		return Null, true
	case *BoolExpr:
		return Bool(e.Value), true
	case *NumberExpr:
		return Number(e.Value), true
	case *StringExpr:
		return String(e.Value), true
	default:
		return Null, false
	}
}

// appendExpr emits code that writes the text of e to the output and leaves
// the stack unchanged.
func (c *compiler) appendExpr(e Expr) {
	switch e := e.(type) {
	case *BlockExpr:
		if e.Inner != nil {
			c.appendExpr(e.Inner)
		}

		return

	case *GroupExpr:
		c.appendExpr(e.Inner)

		return

	case *SectionExpr:
		c.emit(OpSection, c.sectionIndex(e))

		if e.Inner != nil {
			c.appendExpr(e.Inner)
		}

		return
	}

	if !c.specialize {
		c.valueExpr(e)
		c.emit(OpAppend)

		return
	}

	if v, ok := literal(e); ok {
		c.emitConstant(OpConstantAppend, v)

		return
	}

	switch e := e.(type) {
	case *VariableExpr:
		c.emitConstant(OpVariableAppend, String(e.Name))

	case *GetExpr:
		if v, ok := e.Object.(*VariableExpr); ok {
			c.emitConstant(OpVariableGetAppend, String(v.Name), String(e.Name))

			return
		}

		c.valueExpr(e.Object)
		c.emitConstant(OpGetAppend, String(e.Name))

	case *CallExpr:
		c.callArgs(e)
		c.emit(OpCallAppend, c.argCount(e))

	case *ConditionalExpr:
		c.conditional(e, c.appendExpr)

	default:
		c.valueExpr(e)
		c.emit(OpAppend)
	}
}

// valueExpr emits code that pushes the value of e.
func (c *compiler) valueExpr(e Expr) {
	switch e := e.(type) {
	case *NullExpr:
		c.emit(OpNull)

	case *BoolExpr:
		if e.Value {
			c.emit(OpTrue)
		} else {
			c.emit(OpFalse)
		}

	case *NumberExpr:
		c.emitConstant(OpConstant, Number(e.Value))

	case *StringExpr:
		c.emitConstant(OpConstant, String(e.Value))

	case *VariableExpr:
		c.emitConstant(OpVariable, String(e.Name))

	case *GetExpr:
		if v, ok := e.Object.(*VariableExpr); ok && c.specialize {
			c.emitConstant(OpVariableGet, String(v.Name), String(e.Name))

			return
		}

		c.valueExpr(e.Object)
		c.emitConstant(OpGet, String(e.Name))

	case *CallExpr:
		c.callArgs(e)
		c.emit(OpCall, c.argCount(e))

	case *UnaryExpr:
		c.valueExpr(e.Right)

		if e.Op == TokenBang {
			c.emit(OpNot)
		} else {
			c.emit(OpNegate)
		}

	case *BinaryExpr:
		c.binary(e)

	case *LogicalExpr:
		c.valueExpr(e.Left)

		op := OpJumpIfFalse
		if e.Op == TokenOr {
			op = OpJumpIfTrue
		}

		end := c.emitJump(op)
		c.emit(OpPop)
		c.valueExpr(e.Right)
		c.patchJump(end)

	case *ConditionalExpr:
		c.conditional(e, c.valueExpr)

	case *GroupExpr:
		c.valueExpr(e.Inner)

	case *BlockExpr:
		if e.Inner == nil {
			c.emit(OpNull)
		} else {
			c.valueExpr(e.Inner)
		}

	case *SectionExpr:
		c.emit(OpSection, c.sectionIndex(e))

		if e.Inner == nil {
			c.emit(OpNull)
		} else {
			c.valueExpr(e.Inner)
		}
	}
}

var binaryOp = map[TokenKind]OpCode{
	TokenPlus:         OpAdd,
	TokenMinus:        OpSubtract,
	TokenStar:         OpMultiply,
	TokenSlash:        OpDivide,
	TokenPercentage:   OpModulo,
	TokenUpArrow:      OpPower,
	TokenEqualEqual:   OpEquals,
	TokenBangEqual:    OpNotEquals,
	TokenGreater:      OpGreater,
	TokenGreaterEqual: OpGreaterEqual,
	TokenLess:         OpLess,
	TokenLessEqual:    OpLessEqual,
}

func (c *compiler) binary(e *BinaryExpr) {
	c.valueExpr(e.Left)

	if e.Op == TokenPlus && c.specialize {
		if v, ok := literal(e.Right); ok && (v.IsString() || v.IsNumber()) {
			c.emitConstant(OpAddConstant, v)

			return
		}
	}

	c.valueExpr(e.Right)
	c.emit(binaryOp[e.Op])
}

// sectionIndex and argCount validate trees built without Parse, which
// enforces the same limits as diagnostics.
func (c *compiler) sectionIndex(e *SectionExpr) byte {
	if e.Index < 0 || e.Index > MaxSectionIndex {
		c.check(ErrSectionIndex.With(slog.Int("index", e.Index)))

		return 0
	}

	return byte(e.Index)
}

func (c *compiler) argCount(e *CallExpr) byte {
	if len(e.Args) > MaxArgs {
		c.check(ErrArgCount.With(slog.Int("args", len(e.Args))))

		return 0
	}

	return byte(len(e.Args))
}

func (c *compiler) callArgs(e *CallExpr) {
	c.valueExpr(e.Callee)

	for _, a := range e.Args {
		c.valueExpr(a)
	}
}

// conditional emits cond ? then : else, generating both branches with
// branch. The condition is popped on either path.
func (c *compiler) conditional(e *ConditionalExpr, branch func(Expr)) {
	c.valueExpr(e.Cond)

	elseJump := c.emitJump(OpJumpIfFalse)
	c.emit(OpPop)
	branch(e.Then)

	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emit(OpPop)
	branch(e.Else)
	c.patchJump(endJump)
}
