package vm

import (
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Method: Compiled code plus its constant pool
// ---------------------------------------------------------------------------

// NativeFunc implements a method in Go. It receives the single argument
// register's value.
type NativeFunc func(interp *Interpreter, arg Value) (Value, error)

// Method is a compiled method body. It is created once per definition and
// treated as immutable after SetCode.
type Method struct {
	Name      string
	Signature string
	Module    *Module

	Code      []Instruction
	Constants []Value

	// NumRegisters is the size of the register window an invocation needs.
	NumRegisters int

	// Native is set for methods implemented in Go; Code is empty for them.
	Native NativeFunc
}

// NewMethod creates an empty method owned by module.
func NewMethod(module *Module, name string) *Method {
	return &Method{Name: name, Module: module}
}

// NewNativeMethod creates a method implemented by fn.
func NewNativeMethod(signature string, fn NativeFunc) *Method {
	return &Method{Name: signature, Signature: signature, Native: fn, NumRegisters: 1}
}

// AddConstant appends a value to the constant pool and returns its index.
// Constants are not deduplicated.
func (m *Method) AddConstant(v Value) int {
	m.Constants = append(m.Constants, v)
	return len(m.Constants) - 1
}

// SetCode installs the finished instruction stream.
func (m *Method) SetCode(code []Instruction, numRegisters int) {
	m.Code = code
	m.NumRegisters = numRegisters
}

// IsNative reports whether the method is implemented in Go.
func (m *Method) IsNative() bool { return m.Native != nil }

// ---------------------------------------------------------------------------
// Module: A compiled source unit
// ---------------------------------------------------------------------------

// Module owns its import list (index = import slot used by OpGetModule),
// its exported top-level values and the method holding its top-level code.
type Module struct {
	ID   uuid.UUID
	Name string

	Imports []*Module

	exportNames []string
	exports     []Value

	Body *Method
}

// NewModule creates an empty module with a fresh ID.
func NewModule(name string) *Module {
	return &Module{ID: uuid.New(), Name: name}
}

// AddImport appends an imported module and returns its import slot.
func (m *Module) AddImport(imported *Module) int {
	m.Imports = append(m.Imports, imported)
	return len(m.Imports) - 1
}

// AddExport appends an exported value and returns its export slot.
func (m *Module) AddExport(name string, value Value) int {
	m.exportNames = append(m.exportNames, name)
	m.exports = append(m.exports, value)
	return len(m.exports) - 1
}

// FindExport returns the export slot for name, or -1.
func (m *Module) FindExport(name string) int {
	for i, n := range m.exportNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Export returns the value in an export slot.
func (m *Module) Export(slot int) Value {
	return m.exports[slot]
}

// ExportName returns the name of an export slot.
func (m *Module) ExportName(slot int) string {
	return m.exportNames[slot]
}

// NumExports returns the number of exports.
func (m *Module) NumExports() int { return len(m.exports) }

// BindBody installs the compiled top-level code.
func (m *Module) BindBody(body *Method) {
	m.Body = body
}
