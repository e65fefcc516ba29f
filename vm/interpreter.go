package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ---------------------------------------------------------------------------
// Interpreter: Reference executor for compiled methods
// ---------------------------------------------------------------------------

// DefaultMaxDepth bounds nested calls before the interpreter gives up.
const DefaultMaxDepth = 4096

// RuntimeError is a guest error that escaped every handler.
type RuntimeError struct {
	Value Value
}

func (e *RuntimeError) Error() string {
	return "uncaught error: " + e.Value.String()
}

// IsNoMatch reports whether err is an uncaught NoMatchError.
func IsNoMatch(err error) bool {
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		return false
	}
	return IsInstance(rerr.Value, TypeNoMatchError)
}

// handler is an installed catch block.
type handler struct {
	pc       int // first instruction of the catch block
	register int // receives the caught value
}

// frame is the execution state of one method invocation.
type frame struct {
	method   *Method
	regs     []Value
	pc       int
	handlers []handler
}

// Interpreter executes methods against a Runtime.
type Interpreter struct {
	Runtime  *Runtime
	Out      io.Writer
	MaxDepth int

	depth int
}

// NewInterpreter creates an interpreter that prints to stdout.
func NewInterpreter(rt *Runtime) *Interpreter {
	return &Interpreter{
		Runtime:  rt,
		Out:      os.Stdout,
		MaxDepth: DefaultMaxDepth,
	}
}

// RunModule executes a module's top-level body.
func (i *Interpreter) RunModule(m *Module) (Value, error) {
	if m.Body == nil {
		return nil, fmt.Errorf("vm: module %s has no body", m.Name)
	}
	return i.Call(m.Body, Nothing)
}

// Call invokes a method with a single argument.
func (i *Interpreter) Call(m *Method, arg Value) (Value, error) {
	if m.IsNative() {
		v, err := m.Native(i, arg)
		if err != nil {
			var rerr *RuntimeError
			if errors.As(err, &rerr) {
				return nil, err
			}
			return nil, &RuntimeError{Value: &ErrorObject{Type: TypeError, Message: err.Error()}}
		}
		return v, nil
	}

	if i.depth >= i.MaxDepth {
		return nil, &RuntimeError{Value: &ErrorObject{Type: TypeError, Message: "call stack exhausted"}}
	}
	i.depth++
	defer func() { i.depth-- }()

	size := m.NumRegisters
	if size < 1 {
		size = 1
	}
	f := &frame{method: m, regs: make([]Value, size)}
	for r := range f.regs {
		f.regs[r] = Nothing
	}
	f.regs[0] = arg
	return i.run(f)
}

// noMatch builds the value raised by failed must-succeed patterns.
func noMatch(format string, args ...any) Value {
	return &ErrorObject{Type: TypeNoMatchError, Message: fmt.Sprintf(format, args...)}
}

func typeError(format string, args ...any) Value {
	return &ErrorObject{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

func (i *Interpreter) run(f *frame) (Value, error) {
	code := f.method.Code
	for {
		if f.pc >= len(code) {
			return nil, fmt.Errorf("vm: %s: fell off the end of the code", f.method.Name)
		}
		ins := code[f.pc]
		f.pc++

		var raised Value
		switch ins.Op() {
		case OpMove:
			f.regs[ins.B()] = f.regs[ins.A()]

		case OpConstant:
			f.regs[ins.B()] = f.method.Constants[ins.A()]

		case OpBuiltIn:
			switch BuiltIn(ins.A()) {
			case BuiltInFalse:
				f.regs[ins.B()] = Bool(false)
			case BuiltInTrue:
				f.regs[ins.B()] = Bool(true)
			default:
				f.regs[ins.B()] = Nothing
			}

		case OpRecord:
			shape := i.Runtime.RecordTypes.Get(ins.B())
			if shape == nil {
				return nil, fmt.Errorf("vm: unknown record type %d", ins.B())
			}
			fields := make([]Value, len(shape.Fields))
			copy(fields, f.regs[ins.A():ins.A()+len(fields)])
			f.regs[ins.C()] = &Record{Shape: shape, Fields: fields}

		case OpGetField, OpTestField:
			var field Value
			rec, ok := f.regs[ins.A()].(*Record)
			if ok {
				field, ok = rec.Field(ins.B())
			}
			switch {
			case ok:
				f.regs[ins.C()] = field
				if ins.Op() == OpTestField {
					f.pc++ // skip the failure jump
				}
			case ins.Op() == OpGetField:
				raised = noMatch("no field %q in %s", i.Runtime.Symbols.Name(ins.B()), f.regs[ins.A()])
			}

		case OpGetModule:
			imports := f.method.Module.Imports
			if ins.A() >= len(imports) {
				return nil, fmt.Errorf("vm: import slot %d out of range", ins.A())
			}
			f.regs[ins.C()] = imports[ins.A()].Export(ins.B())

		case OpAdd, OpSubtract, OpMultiply, OpDivide, OpEqual, OpLessThan, OpGreaterThan:
			a := i.operand(f, ins.A())
			b := i.operand(f, ins.B())
			var result Value
			result, raised = arithmetic(ins.Op(), a, b)
			if raised == nil {
				f.regs[ins.C()] = result
			}

		case OpNot:
			f.regs[ins.A()] = Bool(!Truthy(f.regs[ins.A()]))

		case OpIs:
			t, ok := f.regs[ins.B()].(*Type)
			if !ok {
				raised = typeError("%s is not a type", f.regs[ins.B()])
				break
			}
			f.regs[ins.C()] = Bool(IsInstance(f.regs[ins.A()], t))

		case OpJump:
			f.pc += ins.A()

		case OpJumpIfFalse:
			if !Truthy(f.regs[ins.A()]) {
				f.pc += ins.B()
			}

		case OpJumpIfTrue:
			if Truthy(f.regs[ins.A()]) {
				f.pc += ins.B()
			}

		case OpCall:
			callee, err := i.Runtime.Methods.Get(ins.A())
			if err != nil {
				return nil, fmt.Errorf("vm: %w", err)
			}
			result, err := i.Call(callee, f.regs[ins.B()])
			if err != nil {
				var rerr *RuntimeError
				if !errors.As(err, &rerr) {
					return nil, err
				}
				raised = rerr.Value
				break
			}
			f.regs[ins.C()] = result

		case OpReturn:
			return f.regs[ins.A()], nil

		case OpThrow:
			raised = f.regs[ins.A()]

		case OpEnterTry:
			f.handlers = append(f.handlers, handler{pc: f.pc + ins.A(), register: ins.B()})

		case OpExitTry:
			if len(f.handlers) == 0 {
				return nil, fmt.Errorf("vm: EXIT_TRY without a handler")
			}
			f.handlers = f.handlers[:len(f.handlers)-1]

		case OpTestMatch:
			if !Truthy(f.regs[ins.A()]) {
				raised = noMatch("pattern did not match")
			}

		default:
			return nil, fmt.Errorf("vm: unsupported instruction %s at %d", ins.Op(), f.pc-1)
		}

		if raised != nil {
			if len(f.handlers) == 0 {
				return nil, &RuntimeError{Value: raised}
			}
			h := f.handlers[len(f.handlers)-1]
			f.handlers = f.handlers[:len(f.handlers)-1]
			f.regs[h.register] = raised
			f.pc = h.pc
		}
	}
}

// operand reads an RC operand.
func (i *Interpreter) operand(f *frame, rc int) Value {
	if IsConstant(rc) {
		return f.method.Constants[ConstantIndex(rc)]
	}
	return f.regs[rc]
}

func arithmetic(op OpCode, a, b Value) (Value, Value) {
	if op == OpEqual {
		return Bool(Equal(a, b)), nil
	}

	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		if !ok {
			break
		}
		switch op {
		case OpAdd:
			return x + y, nil
		case OpSubtract:
			return x - y, nil
		case OpMultiply:
			return x * y, nil
		case OpDivide:
			if y == 0 {
				return nil, typeError("division by zero")
			}
			return x / y, nil
		case OpLessThan:
			return Bool(x < y), nil
		case OpGreaterThan:
			return Bool(x > y), nil
		}
	case String:
		y, ok := b.(String)
		if !ok {
			break
		}
		switch op {
		case OpAdd:
			return x + y, nil
		case OpLessThan:
			return Bool(x < y), nil
		case OpGreaterThan:
			return Bool(x > y), nil
		}
	}
	return nil, typeError("cannot apply %s to %s and %s", op, TypeOf(a), TypeOf(b))
}
