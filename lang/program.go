package lang

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"strconv"
)

// MaxConstants is the capacity of a program's constant pool.
const MaxConstants = math.MaxUint8 + 1

// Program is compiled bytecode: a code stream and the constant pool its
// operands index. A Program is not modified after compilation and may be
// run concurrently.
type Program struct {
	Code      []byte
	Constants []Value
}

// Instruction is one decoded instruction.
type Instruction struct {
	Offset   int
	Op       OpCode
	Operands []byte
}

// Next returns the offset of the instruction that follows i.
func (i Instruction) Next() int { return i.Offset + 1 + len(i.Operands) }

// Jump returns the signed relative offset of a jump instruction.
func (i Instruction) Jump() int {
	if len(i.Operands) < 2 {
		return 0
	}

	return int(int16(uint16(i.Operands[0])<<8 | uint16(i.Operands[1])))
}

// Target returns the absolute destination of a jump instruction.
func (i Instruction) Target() int { return i.Next() + i.Jump() }

// Instructions decodes the code stream in order. Decoding stops at a
// truncated instruction.
func (p *Program) Instructions() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		for off := 0; off < len(p.Code); {
			op := OpCode(p.Code[off])

			end := off + 1 + op.Width()
			if end > len(p.Code) {
				return
			}

			if !yield(Instruction{Offset: off, Op: op, Operands: p.Code[off+1 : end]}) {
				return
			}

			off = end
		}
	}
}

func (p *Program) emit(op OpCode, operands ...byte) {
	p.Code = append(p.Code, byte(op))
	p.Code = append(p.Code, operands...)
}

// constant returns the pool index of v, appending it when no equal value
// is pooled yet.
func (p *Program) constant(v Value) (byte, error) {
	for i, c := range p.Constants {
		if c.Equal(v) {
			return byte(i), nil
		}
	}

	if len(p.Constants) >= MaxConstants {
		return 0, ErrConstantPool.With(slog.Int("limit", MaxConstants))
	}

	p.Constants = append(p.Constants, v)

	return byte(len(p.Constants) - 1), nil
}

// emitConstant emits op with the pool index of each value as operands.
func (p *Program) emitConstant(op OpCode, values ...Value) error {
	operands := make([]byte, len(values))

	for i, v := range values {
		idx, err := p.constant(v)
		if err != nil {
			return err
		}

		operands[i] = idx
	}

	p.emit(op, operands...)

	return nil
}

// emitJump emits op with a placeholder offset and returns the position of
// the placeholder for patchJump.
func (p *Program) emitJump(op OpCode) int {
	p.emit(op, 0, 0)

	return len(p.Code) - 2
}

// patchJump points the placeholder at pos to the end of the code stream.
func (p *Program) patchJump(pos int) error {
	jump := len(p.Code) - pos - 2
	if jump > math.MaxInt16 {
		return ErrJumpRange.With(slog.Int("offset", jump), slog.Int("at", pos))
	}

	p.Code[pos] = byte(uint16(jump) >> 8)
	p.Code[pos+1] = byte(jump)

	return nil
}

// Disassemble writes one line per instruction.
func (p *Program) Disassemble(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for in := range p.Instructions() {
		fmt.Fprintf(bw, "%04d %-18s%s\n", in.Offset, in.Op, p.describe(in))
	}

	return bw.Flush()
}

// describe renders the operands of in.
func (p *Program) describe(in Instruction) string {
	switch {
	case in.Op.IsJump():
		return fmt.Sprintf(" %d -> %d", in.Jump(), in.Target())

	case in.Op == OpCall || in.Op == OpCallAppend:
		n := int(in.Operands[0])
		if n == 1 {
			return " 1 argument"
		}

		return " " + strconv.Itoa(n) + " arguments"

	case in.Op == OpSection:
		return " #" + strconv.Itoa(int(in.Operands[0]))

	case in.Op == OpVariableGet || in.Op == OpVariableGetAppend:
		return fmt.Sprintf(" %d %d '%s.%s'", in.Operands[0], in.Operands[1],
			p.constantText(in.Operands[0]), p.constantText(in.Operands[1]))

	case in.Op.usesConstant():
		return fmt.Sprintf(" %d '%s'", in.Operands[0], p.constantText(in.Operands[0]))
	}

	return ""
}

func (p *Program) constantText(idx byte) string {
	if int(idx) >= len(p.Constants) {
		return "<invalid>"
	}

	return p.Constants[idx].String()
}
