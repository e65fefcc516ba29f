package vm

// ---------------------------------------------------------------------------
// Instruction encoding
// ---------------------------------------------------------------------------

// Instruction is a 32-bit instruction word. The low byte holds the opcode.
// In ABC form the upper three bytes hold operands A, B and C; in AxC form
// the upper 16 bits hold Ax and the second byte holds C.
//
//	ABC: [ A:8 | B:8 | C:8 | op:8 ]
//	AxC: [   Ax:16   | C:8 | op:8 ]
type Instruction uint32

// constantBit marks an RC operand as a constant-pool index.
const constantBit = 0x80

// MaxRCIndex is the largest index an RC operand can address in either space.
const MaxRCIndex = 0x7f

// MakeABC encodes an instruction in ABC form. Operands are truncated to
// eight bits; callers are responsible for range checks.
func MakeABC(op OpCode, a, b, c int) Instruction {
	return Instruction(uint32(a&0xff)<<24 | uint32(b&0xff)<<16 | uint32(c&0xff)<<8 | uint32(op))
}

// MakeAxC encodes an instruction in AxC form.
func MakeAxC(op OpCode, ax, c int) Instruction {
	return Instruction(uint32(ax&0xffff)<<16 | uint32(c&0xff)<<8 | uint32(op))
}

// Op returns the opcode.
func (i Instruction) Op() OpCode { return OpCode(i & 0xff) }

// A returns operand A.
func (i Instruction) A() int { return int((i >> 24) & 0xff) }

// B returns operand B.
func (i Instruction) B() int { return int((i >> 16) & 0xff) }

// C returns operand C.
func (i Instruction) C() int { return int((i >> 8) & 0xff) }

// Ax returns the 16-bit operand of an AxC instruction.
func (i Instruction) Ax() int { return int((i >> 16) & 0xffff) }

// IsConstant reports whether an RC operand refers to the constant pool.
func IsConstant(operand int) bool { return operand&constantBit == constantBit }

// IsRegister reports whether an RC operand refers to a register.
func IsRegister(operand int) bool { return operand&constantBit == 0 }

// MakeConstant marks a constant-pool index as an RC operand.
func MakeConstant(index int) int { return index | constantBit }

// ConstantIndex extracts the constant-pool index from an RC operand.
func ConstantIndex(operand int) int { return operand & MaxRCIndex }
