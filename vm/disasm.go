package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a method.
func Disassemble(m *Method) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; === %s ===\n", m.Name))
	if m.Signature != "" && m.Signature != m.Name {
		sb.WriteString(fmt.Sprintf("; Signature: %q\n", m.Signature))
	}
	sb.WriteString(fmt.Sprintf("; Registers: %d\n", m.NumRegisters))

	if len(m.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range m.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, formatConstant(c)))
		}
	}

	for pc, ins := range m.Code {
		sb.WriteString(fmt.Sprintf("%04d  %s\n", pc, FormatInstruction(ins, pc)))
	}
	return sb.String()
}

// DisassembleLines returns one formatted line per instruction.
func DisassembleLines(m *Method) []string {
	lines := make([]string, len(m.Code))
	for pc, ins := range m.Code {
		lines[pc] = FormatInstruction(ins, pc)
	}
	return lines
}

func formatConstant(v Value) string {
	if s, ok := v.(String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

func rc(operand int) string {
	if IsConstant(operand) {
		return fmt.Sprintf("c%d", ConstantIndex(operand))
	}
	return fmt.Sprintf("r%d", operand)
}

// FormatInstruction renders a single instruction located at pc. Jump
// targets are shown as absolute positions.
func FormatInstruction(ins Instruction, pc int) string {
	op := ins.Op()
	a, b, c := ins.A(), ins.B(), ins.C()

	switch op {
	case OpMove:
		return fmt.Sprintf("%-13s r%d -> r%d", op, a, b)
	case OpConstant:
		return fmt.Sprintf("%-13s c%d -> r%d", op, a, b)
	case OpBuiltIn:
		return fmt.Sprintf("%-13s %s -> r%d", op, BuiltIn(a), b)
	case OpRecord:
		return fmt.Sprintf("%-13s r%d type %d -> r%d", op, a, b, c)
	case OpDefMethod:
		return fmt.Sprintf("%-13s %d method %d", op, a, b)
	case OpGetField, OpTestField:
		return fmt.Sprintf("%-13s r%d field %d -> r%d", op, a, b, c)
	case OpGetModule:
		return fmt.Sprintf("%-13s import %d export %d -> r%d", op, a, b, c)
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpEqual, OpLessThan, OpGreaterThan:
		return fmt.Sprintf("%-13s %s %s -> r%d", op, rc(a), rc(b), c)
	case OpIs:
		return fmt.Sprintf("%-13s r%d r%d -> r%d", op, a, b, c)
	case OpJump:
		return fmt.Sprintf("%-13s +%d (-> %d)", op, a, pc+1+a)
	case OpJumpIfFalse, OpJumpIfTrue:
		return fmt.Sprintf("%-13s r%d +%d (-> %d)", op, a, b, pc+1+b)
	case OpCall:
		return fmt.Sprintf("%-13s method %d r%d -> r%d", op, a, b, c)
	case OpNot, OpReturn, OpThrow, OpTestMatch:
		return fmt.Sprintf("%-13s r%d", op, a)
	case OpEnterTry:
		return fmt.Sprintf("%-13s +%d (-> %d) catch -> r%d", op, a, pc+1+a, b)
	case OpExitTry:
		return op.String()
	default:
		return fmt.Sprintf("%-13s %d %d %d", op, a, b, c)
	}
}
