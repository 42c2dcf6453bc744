package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Sentinel errors. Use [errors.Is] to classify an error returned by this
// package; the concrete message and attributes are carried by a wrapper.
var (
	ErrParse        = NewError("parse error")
	ErrCompile      = NewError("compile error")
	ErrRuntime      = NewError("runtime error")
	ErrConstantPool = NewError("constant pool overflow")
	ErrJumpRange    = NewError("jump offset out of range")
	ErrArgCount     = NewError("too many call arguments")
	ErrSectionIndex = NewError("section index out of range")
	ErrConversion   = NewError("unsupported native value")
	ErrCanceled     = NewError("run canceled")
	ErrReadInput    = NewError("failed to read input")
)

// Error is an error with structured logging attributes.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a sentinel error with message msg.
func NewError(msg string) *Error { return &Error{msg: msg} }

// WrapError converts err to an *Error, returning err itself when it already
// is one.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

// Error formats as "msg: cause", omitting whichever part is empty.
func (e *Error) Error() string {
	switch {
	case e.msg == "" && e.err == nil:
		return ""
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t == e || (t.err == nil && t.msg != "" && t.msg == e.msg)
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the attributes attached with [Error.With].
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap returns a copy of e with cause err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// Wrapf returns a copy of e whose cause is a formatted message.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged}
}

// Diagnostic is one syntax error recorded by the parser.
type Diagnostic struct {
	// Line is 1-based; Column is the 0-based byte column within the line.
	Line, Column int
	// Char is the offending character, or 0 at end of input.
	Char    byte
	Message string
	// Expr is the expression under construction when the error was raised,
	// or nil.
	Expr Expr
}

func (d Diagnostic) Error() string {
	return "line " + strconv.Itoa(d.Line) + ", column " +
		strconv.Itoa(d.Column) + ": " + d.Message
}

// ParseError reports every diagnostic of one source text.
type ParseError struct {
	Diagnostics []Diagnostic
	Source      string
}

func (e *ParseError) Error() string {
	if len(e.Diagnostics) == 0 {
		return ErrParse.msg
	}

	var b strings.Builder

	b.WriteString(ErrParse.msg)

	if len(e.Diagnostics) > 1 {
		b.WriteString(" (" + strconv.Itoa(len(e.Diagnostics)) + " errors)")
	}

	b.WriteString(":")

	lines := strings.Split(e.Source, "\n")

	for _, d := range e.Diagnostics {
		b.WriteString("\n" + d.Error())
		writeSnippet(&b, lines, d.Line, d.Column)
	}

	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// writeSnippet appends the source line and a caret under column.
func writeSnippet(b *strings.Builder, lines []string, line, column int) {
	if line < 1 || line > len(lines) {
		return
	}

	num := strconv.Itoa(line)
	text := strings.TrimRight(lines[line-1], "\r")

	b.WriteString("\n  " + num + " | " + text + "\n")

	if column < 0 {
		column = 0
	}

	if column > len(text) {
		column = len(text)
	}

	pad := make([]byte, 0, len(num)+5+column)
	for range len(num) + 5 {
		pad = append(pad, ' ')
	}

	for i := range column {
		if text[i] == '\t' {
			pad = append(pad, '\t')
		} else {
			pad = append(pad, ' ')
		}
	}

	b.Write(pad)
	b.WriteString("^")
}
