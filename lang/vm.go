package lang

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Runtime executes programs against a host namespace. The namespace is read,
// never written, by running programs; suppliers are evaluated at each lookup.
// A Runtime may be shared by concurrent goroutines: every run gets its own
// [VM].
type Runtime struct {
	globals *Map
	opts    []Option
	cfg     config
}

// NewRuntime returns a runtime over globals. A nil map is replaced with an
// empty one.
func NewRuntime(globals *Map, opts ...Option) *Runtime {
	if globals == nil {
		globals = NewMap()
	}

	return &Runtime{globals: globals, opts: opts, cfg: makeConfig(opts...)}
}

// Globals returns the namespace programs resolve variables in.
func (r *Runtime) Globals() *Map { return r.globals }

// Run executes prog and returns its output sections. On failure no output is
// returned.
func (r *Runtime) Run(ctx context.Context, prog *Program) (*Section, error) {
	vm := &VM{
		ctx:      ctx,
		globals:  r.globals,
		prog:     prog,
		interval: r.cfg.checkInterval,
		stack:    make([]Value, 0, 16),
	}

	r.cfg.logger.TraceContext(ctx, "run start", slog.Int("code_bytes", len(prog.Code)))

	out, err := vm.run()
	if err != nil {
		r.cfg.logger.TraceContext(ctx, "run failed", slog.Any("error", err))

		return nil, err
	}

	r.cfg.logger.TraceContext(ctx, "run done",
		slog.Int("sections", out.Len()),
		slog.Int("steps", vm.steps),
	)

	return out, nil
}

// Eval compiles src through the program cache and runs it.
func (r *Runtime) Eval(ctx context.Context, src string) (*Section, error) {
	prog, err := CompileCached(ctx, src, r.opts...)
	if err != nil {
		return nil, err
	}

	return r.Run(ctx, prog)
}

// Complete returns completion candidates for the cursor at pos in src.
func (r *Runtime) Complete(ctx context.Context, src string, pos int) []Completion {
	return Complete(Parse(ctx, src, r.opts...), pos, r.globals)
}

// VM is the state of a single run: instruction pointer, operand stack, and
// output under construction. Callables receive the VM to pop their arguments.
type VM struct {
	ctx      context.Context
	globals  *Map
	prog     *Program
	ip       int
	op       OpCode
	steps    int
	interval int
	stack    []Value

	text    strings.Builder
	index   uint8
	started bool
	head    *Section
	tail    *Section
}

// stackFault is raised by Pop on an empty stack and recovered by run.
type stackFault struct{}

// Context returns the context of the run.
func (vm *VM) Context() context.Context { return vm.ctx }

// Globals returns the namespace of the run.
func (vm *VM) Globals() *Map { return vm.globals }

// Push pushes v onto the operand stack.
func (vm *VM) Push(v Value) { vm.stack = append(vm.stack, v) }

// Pop removes and returns the top of the stack. Popping an empty stack fails
// the run.
func (vm *VM) Pop() Value {
	n := len(vm.stack)
	if n == 0 {
		panic(stackFault{})
	}

	v := vm.stack[n-1]
	vm.stack[n-1] = Null
	vm.stack = vm.stack[:n-1]

	return v
}

// Peek returns the top of the stack.
func (vm *VM) Peek() Value { return vm.PeekAt(0) }

// PeekAt returns the value offset slots below the top of the stack.
func (vm *VM) PeekAt(offset int) Value {
	i := len(vm.stack) - 1 - offset
	if i < 0 || offset < 0 {
		panic(stackFault{})
	}

	return vm.stack[i]
}

// StackLen returns the operand stack depth.
func (vm *VM) StackLen() int { return len(vm.stack) }

// PopBool pops a boolean, failing with msg for any other type.
func (vm *VM) PopBool(msg string) (bool, error) {
	v := vm.Pop()
	if !v.IsBool() {
		return false, vm.Errorf("%s", msg)
	}

	return v.AsBool(), nil
}

// PopNumber pops a number, failing with msg for any other type.
func (vm *VM) PopNumber(msg string) (float64, error) {
	v := vm.Pop()
	if !v.IsNumber() {
		return 0, vm.Errorf("%s", msg)
	}

	return v.AsNumber(), nil
}

// PopString pops a string, failing with msg for any other type.
func (vm *VM) PopString(msg string) (string, error) {
	v := vm.Pop()
	if !v.IsString() {
		return "", vm.Errorf("%s", msg)
	}

	return v.AsString(), nil
}

// Errorf returns a run-time error located at the current instruction.
func (vm *VM) Errorf(format string, args ...any) error {
	return ErrRuntime.Wrap(fmt.Errorf(format, args...)).With(
		slog.Int("ip", vm.ip),
		slog.String("op", vm.op.String()),
	)
}

func (vm *VM) run() (out *Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackFault); !ok {
				panic(r)
			}

			out, err = nil, vm.Errorf("Stack underflow.")
		}
	}()

	code := vm.prog.Code

	for {
		if vm.steps%vm.interval == 0 && vm.ctx != nil {
			if cerr := context.Cause(vm.ctx); cerr != nil {
				return nil, ErrCanceled.Wrap(cerr).With(slog.Int("ip", vm.ip))
			}
		}

		vm.steps++

		if vm.ip < 0 || vm.ip >= len(code) {
			return nil, vm.Errorf("Instruction pointer %d outside program.", vm.ip)
		}

		vm.op = OpCode(code[vm.ip])
		vm.ip++

		if vm.ip+vm.op.Width() > len(code) {
			return nil, vm.Errorf("Truncated instruction.")
		}

		switch vm.op {
		case OpConstant:
			c, err := vm.readConstant()
			if err != nil {
				return nil, err
			}

			vm.Push(c)

		case OpNull:
			vm.Push(Null)

		case OpTrue:
			vm.Push(True)

		case OpFalse:
			vm.Push(False)

		case OpAdd:
			b, a := vm.Pop(), vm.Pop()

			v, err := vm.add(a, b)
			if err != nil {
				return nil, err
			}

			vm.Push(v)

		case OpAddConstant:
			b, err := vm.readConstant()
			if err != nil {
				return nil, err
			}

			v, err := vm.add(vm.Pop(), b)
			if err != nil {
				return nil, err
			}

			vm.Push(v)

		case OpSubtract, OpMultiply, OpDivide, OpModulo, OpPower:
			if err := vm.arithmetic(vm.op); err != nil {
				return nil, err
			}

		case OpPop:
			vm.Pop()

		case OpNot:
			vm.Push(Bool(!vm.Pop().Truthy()))

		case OpNegate:
			n, err := vm.PopNumber("This operation requires a number.")
			if err != nil {
				return nil, err
			}

			vm.Push(Number(-n))

		case OpEquals:
			b, a := vm.Pop(), vm.Pop()
			vm.Push(Bool(a.Equal(b)))

		case OpNotEquals:
			b, a := vm.Pop(), vm.Pop()
			vm.Push(Bool(!a.Equal(b)))

		case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
			if err := vm.compare(vm.op); err != nil {
				return nil, err
			}

		case OpVariable:
			name, err := vm.readName()
			if err != nil {
				return nil, err
			}

			vm.Push(vm.global(name))

		case OpGet:
			name, err := vm.readName()
			if err != nil {
				return nil, err
			}

			vm.Push(field(vm.Pop(), name))

		case OpCall:
			v, err := vm.call()
			if err != nil {
				return nil, err
			}

			vm.Push(v)

		case OpJump:
			vm.ip += vm.readShort()

		case OpJumpIfTrue:
			off := vm.readShort()
			if vm.Peek().Truthy() {
				vm.ip += off
			}

		case OpJumpIfFalse:
			off := vm.readShort()
			if !vm.Peek().Truthy() {
				vm.ip += off
			}

		case OpSection:
			index := vm.readByte()
			if vm.started || vm.text.Len() > 0 {
				vm.flush()
			}

			vm.started = true
			vm.index = index

		case OpAppend:
			vm.text.WriteString(vm.Pop().String())

		case OpConstantAppend:
			c, err := vm.readConstant()
			if err != nil {
				return nil, err
			}

			vm.text.WriteString(c.String())

		case OpVariableAppend:
			name, err := vm.readName()
			if err != nil {
				return nil, err
			}

			vm.text.WriteString(vm.global(name).String())

		case OpGetAppend:
			name, err := vm.readName()
			if err != nil {
				return nil, err
			}

			vm.text.WriteString(field(vm.Pop(), name).String())

		case OpCallAppend:
			v, err := vm.call()
			if err != nil {
				return nil, err
			}

			vm.text.WriteString(v.String())

		case OpVariableGet, OpVariableGetAppend:
			name, err := vm.readName()
			if err != nil {
				return nil, err
			}

			key, err := vm.readName()
			if err != nil {
				return nil, err
			}

			v := field(vm.global(name), key)
			if vm.op == OpVariableGet {
				vm.Push(v)
			} else {
				vm.text.WriteString(v.String())
			}

		case OpEnd:
			vm.flush()

			return vm.head, nil

		default:
			return nil, vm.Errorf("Unknown instruction %d.", byte(vm.op))
		}
	}
}

// flush closes the text accumulated so far into a section node.
func (vm *VM) flush() {
	s := &Section{Index: vm.index, Text: vm.text.String()}
	if vm.tail == nil {
		vm.head = s
	} else {
		vm.tail.Next = s
	}

	vm.tail = s
	vm.text.Reset()
}

func (vm *VM) readByte() byte {
	b := vm.prog.Code[vm.ip]
	vm.ip++

	return b
}

// readShort decodes a big-endian signed 16-bit operand.
func (vm *VM) readShort() int {
	hi, lo := vm.readByte(), vm.readByte()

	return int(int16(uint16(hi)<<8 | uint16(lo)))
}

func (vm *VM) readConstant() (Value, error) {
	idx := int(vm.readByte())
	if idx >= len(vm.prog.Constants) {
		return Null, vm.Errorf("Constant %d outside pool of %d.", idx, len(vm.prog.Constants))
	}

	return vm.prog.Constants[idx], nil
}

func (vm *VM) readName() (string, error) {
	c, err := vm.readConstant()
	if err != nil {
		return "", err
	}

	return c.String(), nil
}

func (vm *VM) global(name string) Value {
	v, _ := vm.globals.Lookup(name)

	return v
}

// field reads name from a map value; anything else yields null.
func field(v Value, name string) Value {
	if !v.IsMap() {
		return Null
	}

	f, _ := v.AsMap().Lookup(name)

	return f
}

func (vm *VM) call() (Value, error) {
	argc := int(vm.readByte())

	callee := vm.PeekAt(argc)
	if !callee.IsFunction() {
		return Null, vm.Errorf("Tried to call a %s, can only call functions.", callee.Type())
	}

	base := len(vm.stack) - argc - 1

	result, err := callee.AsFunction().Call(vm, argc)
	if err != nil {
		return Null, WrapRuntime(err)
	}

	if len(vm.stack) <= base {
		return Null, vm.Errorf("Function popped more than its %d arguments.", argc)
	}

	clear(vm.stack[base:])
	vm.stack = vm.stack[:base]

	return result, nil
}

// WrapRuntime classifies err as a run-time error unless it already is one.
func WrapRuntime(err error) error {
	if e, ok := err.(*Error); ok && e.Is(ErrRuntime) {
		return e
	}

	return ErrRuntime.Wrap(err)
}

func (vm *VM) add(a, b Value) (Value, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		return Number(a.AsNumber() + b.AsNumber()), nil
	case a.IsString():
		return String(a.AsString() + b.String()), nil
	default:
		return Null, vm.Errorf("Can only add 2 numbers or 1 string and other value.")
	}
}

var arithmeticName = map[OpCode]string{
	OpSubtract: "subtract",
	OpMultiply: "multiply",
	OpDivide:   "divide",
	OpModulo:   "modulo",
	OpPower:    "power",
}

func (vm *VM) arithmetic(op OpCode) error {
	b, a := vm.Pop(), vm.Pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.Errorf("Can only %s 2 numbers.", arithmeticName[op])
	}

	x, y := a.AsNumber(), b.AsNumber()

	var r float64

	switch op {
	case OpSubtract:
		r = x - y
	case OpMultiply:
		r = x * y
	case OpDivide:
		r = x / y
	case OpModulo:
		r = math.Mod(x, y)
	case OpPower:
		r = math.Pow(x, y)
	}

	vm.Push(Number(r))

	return nil
}

func (vm *VM) compare(op OpCode) error {
	b, a := vm.Pop(), vm.Pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.Errorf("This operation requires 2 numbers.")
	}

	x, y := a.AsNumber(), b.AsNumber()

	var r bool

	switch op {
	case OpGreater:
		r = x > y
	case OpGreaterEqual:
		r = x >= y
	case OpLess:
		r = x < y
	case OpLessEqual:
		r = x <= y
	}

	vm.Push(Bool(r))

	return nil
}
