package lang

import "strconv"

// OpCode is a single VM instruction. Operands follow the opcode byte in the
// code stream; see [OpCode.Width].
type OpCode byte

const (
	OpConstant OpCode = iota // const:u8          push constants[const]
	OpNull                   //                   push null
	OpTrue                   //                   push true
	OpFalse                  //                   push false

	OpAdd      // a b -> a+b
	OpSubtract // a b -> a-b
	OpMultiply // a b -> a*b
	OpDivide   // a b -> a/b
	OpModulo   // a b -> a%b
	OpPower    // a b -> a^b

	OpAddConstant // const:u8  a -> a+constants[const]

	OpPop    // a ->
	OpNot    // a -> !a
	OpNegate // a -> -a

	OpEquals       // a b -> a==b
	OpNotEquals    // a b -> a!=b
	OpGreater      // a b -> a>b
	OpGreaterEqual // a b -> a>=b
	OpLess         // a b -> a<b
	OpLessEqual    // a b -> a<=b

	OpVariable // name:u8          push globals[name]
	OpGet      // name:u8          m -> m[name]
	OpCall     // argc:u8          fn args... -> result

	OpJump        // off:i16
	OpJumpIfTrue  // off:i16   jump when top is truthy; does not pop
	OpJumpIfFalse // off:i16   jump when top is falsy; does not pop

	OpSection // index:u8    flush text and switch output channel

	OpAppend         //                   a -> (text += a)
	OpConstantAppend // const:u8
	OpVariableAppend // name:u8
	OpGetAppend      // name:u8          m -> (text += m[name])
	OpCallAppend     // argc:u8          fn args... -> (text += result)

	OpVariableGet       // name:u8 field:u8  push globals[name][field]
	OpVariableGetAppend // name:u8 field:u8

	OpEnd // flush text and stop
)

var opName = [...]string{
	OpConstant:          "Constant",
	OpNull:              "Null",
	OpTrue:              "True",
	OpFalse:             "False",
	OpAdd:               "Add",
	OpSubtract:          "Subtract",
	OpMultiply:          "Multiply",
	OpDivide:            "Divide",
	OpModulo:            "Modulo",
	OpPower:             "Power",
	OpAddConstant:       "AddConstant",
	OpPop:               "Pop",
	OpNot:               "Not",
	OpNegate:            "Negate",
	OpEquals:            "Equals",
	OpNotEquals:         "NotEquals",
	OpGreater:           "Greater",
	OpGreaterEqual:      "GreaterEqual",
	OpLess:              "Less",
	OpLessEqual:         "LessEqual",
	OpVariable:          "Variable",
	OpGet:               "Get",
	OpCall:              "Call",
	OpJump:              "Jump",
	OpJumpIfTrue:        "JumpIfTrue",
	OpJumpIfFalse:       "JumpIfFalse",
	OpSection:           "Section",
	OpAppend:            "Append",
	OpConstantAppend:    "ConstantAppend",
	OpVariableAppend:    "VariableAppend",
	OpGetAppend:         "GetAppend",
	OpCallAppend:        "CallAppend",
	OpVariableGet:       "VariableGet",
	OpVariableGetAppend: "VariableGetAppend",
	OpEnd:               "End",
}

func (op OpCode) String() string {
	if int(op) < len(opName) {
		return opName[op]
	}

	return "OpCode(" + strconv.Itoa(int(op)) + ")"
}

// Width returns the number of operand bytes following op.
func (op OpCode) Width() int {
	switch op {
	case OpConstant, OpAddConstant, OpVariable, OpGet, OpCall, OpSection,
		OpConstantAppend, OpVariableAppend, OpGetAppend, OpCallAppend:
		return 1
	case OpJump, OpJumpIfTrue, OpJumpIfFalse, OpVariableGet, OpVariableGetAppend:
		return 2
	default:
		return 0
	}
}

// IsJump reports whether op carries a relative jump offset.
func (op OpCode) IsJump() bool {
	return op == OpJump || op == OpJumpIfTrue || op == OpJumpIfFalse
}

// usesConstant reports whether the first operand of op indexes the
// constant pool.
func (op OpCode) usesConstant() bool {
	switch op {
	case OpConstant, OpAddConstant, OpVariable, OpGet, OpConstantAppend,
		OpVariableAppend, OpGetAppend, OpVariableGet, OpVariableGetAppend:
		return true
	default:
		return false
	}
}
