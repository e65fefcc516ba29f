package vm

import "fmt"

// OpCode identifies an instruction. It occupies the low byte of an
// Instruction.
//
// Operand notation used below:
//
//	R(x)  operand x is a register
//	C(x)  operand x is an index into the method's constant pool
//	RC(x) operand x is a constant if its high bit is set, a register otherwise
type OpCode uint8

const (
	// OpMove copies R(A) into R(B).
	OpMove OpCode = 0x01

	// OpConstant loads C(A) into R(B).
	OpConstant OpCode = 0x02

	// OpBuiltIn loads the built-in value A (see BuiltIn) into R(B).
	OpBuiltIn OpCode = 0x03

	// OpRecord creates a record from the fields in R(A), R(A+1), ... whose
	// shape is record type B, storing the record in R(C).
	OpRecord OpCode = 0x04

	// OpDefMethod defines a top-level method. A is the index of the method in
	// the containing method's list; B is its index in the method table.
	OpDefMethod OpCode = 0x05

	// OpGetField destructures field symbol B from the record in R(A) into
	// R(C). Raises NoMatchError if R(A) is not a record or lacks the field.
	OpGetField OpCode = 0x06

	// OpTestField is OpGetField without the error: on failure execution
	// continues at the following instruction, which must be an OpJump to the
	// failure target; on success that jump is skipped.
	OpTestField OpCode = 0x07

	// OpGetModule loads export B of import A into R(C).
	OpGetModule OpCode = 0x08

	OpAdd         OpCode = 0x09 // R(C) = RC(A) + RC(B)
	OpSubtract    OpCode = 0x0a // R(C) = RC(A) - RC(B)
	OpMultiply    OpCode = 0x0b // R(C) = RC(A) * RC(B)
	OpDivide      OpCode = 0x0c // R(C) = RC(A) / RC(B)
	OpEqual       OpCode = 0x0d // R(C) = RC(A) == RC(B)
	OpLessThan    OpCode = 0x0e // R(C) = RC(A) < RC(B)
	OpGreaterThan OpCode = 0x0f // R(C) = RC(A) > RC(B)
	OpNot         OpCode = 0x10 // R(A) = not R(A)

	// OpIs stores whether R(A) is an instance of the type in R(B) into R(C).
	OpIs OpCode = 0x11

	OpJump        OpCode = 0x12 // pc += A
	OpJumpIfFalse OpCode = 0x13 // if not R(A): pc += B
	OpJumpIfTrue  OpCode = 0x14 // if R(A): pc += B

	// OpCall invokes method-table entry A with the argument in R(B) and
	// stores the result in R(C).
	OpCall OpCode = 0x15

	// OpReturn exits the current method with R(A).
	OpReturn OpCode = 0x16

	// OpThrow throws the error object in R(A).
	OpThrow OpCode = 0x17

	// OpEnterTry installs a catch handler at the position of this
	// instruction + 1 + A. When an error is caught it is stored in R(B).
	OpEnterTry OpCode = 0x18

	// OpExitTry discards the innermost handler of the current method.
	OpExitTry OpCode = 0x19

	// OpTestMatch raises NoMatchError if R(A) is false.
	OpTestMatch OpCode = 0x1a
)

var opNames = map[OpCode]string{
	OpMove:        "MOVE",
	OpConstant:    "CONSTANT",
	OpBuiltIn:     "BUILT_IN",
	OpRecord:      "RECORD",
	OpDefMethod:   "DEF_METHOD",
	OpGetField:    "GET_FIELD",
	OpTestField:   "TEST_FIELD",
	OpGetModule:   "GET_MODULE",
	OpAdd:         "ADD",
	OpSubtract:    "SUBTRACT",
	OpMultiply:    "MULTIPLY",
	OpDivide:      "DIVIDE",
	OpEqual:       "EQUAL",
	OpLessThan:    "LESS_THAN",
	OpGreaterThan: "GREATER_THAN",
	OpNot:         "NOT",
	OpIs:          "IS",
	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpJumpIfTrue:  "JUMP_IF_TRUE",
	OpCall:        "CALL",
	OpReturn:      "RETURN",
	OpThrow:       "THROW",
	OpEnterTry:    "ENTER_TRY",
	OpExitTry:     "EXIT_TRY",
	OpTestMatch:   "TEST_MATCH",
}

// String returns the mnemonic for the opcode.
func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%02X", uint8(op))
}

// BuiltIn indexes the singleton values loaded by OpBuiltIn.
type BuiltIn int

const (
	BuiltInFalse   BuiltIn = 0
	BuiltInTrue    BuiltIn = 1
	BuiltInNothing BuiltIn = 2
)

func (b BuiltIn) String() string {
	switch b {
	case BuiltInFalse:
		return "false"
	case BuiltInTrue:
		return "true"
	case BuiltInNothing:
		return "nothing"
	default:
		return fmt.Sprintf("BuiltIn(%d)", int(b))
	}
}
