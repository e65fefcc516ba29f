package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Runtime: Tables shared by every compilation unit of a run
// ---------------------------------------------------------------------------

// CoreModuleName is the name of the module implicitly imported at slot 0.
const CoreModuleName = "core"

// Runtime bundles the process-wide, append-only tables the compiler reads
// and extends: symbols, record shapes and the method table, plus the core
// module. It is passed explicitly to the compiler and the interpreter so that
// separate runs (and tests) never share state.
type Runtime struct {
	Symbols     *SymbolTable
	RecordTypes *RecordTypes
	Methods     *MethodTable

	core *Module
}

// NewRuntime creates a runtime with the core module and the native methods
// already installed.
func NewRuntime() *Runtime {
	symbols := NewSymbolTable()
	rt := &Runtime{
		Symbols:     symbols,
		RecordTypes: NewRecordTypes(symbols),
		Methods:     NewMethodTable(),
	}
	rt.core = newCoreModule()
	rt.defineNatives()
	return rt
}

func newCoreModule() *Module {
	core := NewModule(CoreModuleName)
	for _, t := range []*Type{
		TypeBool, TypeNum, TypeString, TypeNothing, TypeRecord,
		TypeType, TypeError, TypeNoMatchError,
	} {
		core.AddExport(t.Name, t)
	}
	return core
}

func (rt *Runtime) defineNatives() {
	rt.Methods.Define("print 0:", NewNativeMethod("print 0:", func(interp *Interpreter, arg Value) (Value, error) {
		if _, err := fmt.Fprintln(interp.Out, arg.String()); err != nil {
			return nil, err
		}
		return arg, nil
	}))
	rt.Methods.Define("0: string", NewNativeMethod("0: string", func(interp *Interpreter, arg Value) (Value, error) {
		return String(arg.String()), nil
	}))
}

// CoreModule returns the module every compiled module imports at slot 0.
func (rt *Runtime) CoreModule() *Module {
	return rt.core
}

// AddSymbol interns a field name.
func (rt *Runtime) AddSymbol(name string) int {
	return rt.Symbols.Intern(name)
}

// AddRecordType interns a record shape from its ordered field symbols.
func (rt *Runtime) AddRecordType(fields []int) int {
	return rt.RecordTypes.Intern(fields)
}
