package compiler

import (
	"fmt"

	"github.com/chazu/magpie/vm"
)

// ---------------------------------------------------------------------------
// Codegen: Compile resolved expressions to register bytecode
// ---------------------------------------------------------------------------

// returnSlotName names register 0, which receives the argument and holds
// the result. It cannot collide with a source identifier.
const returnSlotName = "(return)"

// Compiler generates code for one method. Expressions compile into a
// destination register chosen by their parent.
type Compiler struct {
	rt       *vm.Runtime
	module   *vm.Module
	method   *vm.Method
	reporter Reporter

	resolution *Resolution
	regs       *registerAllocator
	code       []vm.Instruction
}

// NewCompiler creates a compiler that emits into method. The resolution
// must come from a Resolver run over the same method.
func NewCompiler(rt *vm.Runtime, method *vm.Method, resolution *Resolution, reporter Reporter) *Compiler {
	return &Compiler{
		rt:         rt,
		module:     method.Module,
		method:     method,
		reporter:   reporter,
		resolution: resolution,
		regs:       newRegisterAllocator(),
	}
}

// CompileMethod generates the method's code: the parameter pattern is
// matched against register 0, the body is compiled into register 0 and
// returned.
func (c *Compiler) CompileMethod(param Pattern, body Expr) *vm.Method {
	c.scoped(func() {
		if slot := c.regs.declareLocal(returnSlotName, nil); slot != 0 {
			panic(fmt.Sprintf("compiler: return slot is %d, not 0", slot))
		}

		reservePattern(c, param)
		if param != nil {
			c.compilePattern(param, 0, nil)
		}

		c.compile(body, 0)
		c.write(vm.OpReturn, 0, 0, 0)
	})

	c.method.SetCode(c.code, c.regs.maxRegisters())
	return c.method
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

// write appends an ABC instruction. Operands must fit in a byte; anything
// else is a bug in the compiler.
func (c *Compiler) write(op vm.OpCode, a, b, cc int) {
	c.code = append(c.code, encodeABC(op, a, b, cc))
}

func encodeABC(op vm.OpCode, a, b, c int) vm.Instruction {
	checkOperand(op, "A", a)
	checkOperand(op, "B", b)
	checkOperand(op, "C", c)
	return vm.MakeABC(op, a, b, c)
}

func checkOperand(op vm.OpCode, name string, v int) {
	if v < 0 || v > 0xff {
		panic(fmt.Sprintf("compiler: %s operand %s out of range: %d", op, name, v))
	}
}

// constant adds a value to the constant pool and returns its index.
func (c *Compiler) constant(v vm.Value) int {
	index := c.method.AddConstant(v)
	if index > 0xff {
		panic(fmt.Sprintf("compiler: too many constants in %s", c.method.Name))
	}
	return index
}

// ---------------------------------------------------------------------------
// Jumps and backpatching
// ---------------------------------------------------------------------------

// jumpShape says how a placeholder is rewritten once its target is known.
type jumpShape interface {
	encode(offset int) vm.Instruction
}

// plainJump is an unconditional JUMP; the offset goes in A.
type plainJump struct{}

func (plainJump) encode(offset int) vm.Instruction {
	return encodeABC(vm.OpJump, offset, 0xff, 0xff)
}

// testJump is JUMP_IF_FALSE or JUMP_IF_TRUE on reg; the offset goes in B.
type testJump struct {
	op  vm.OpCode
	reg int
}

func (j testJump) encode(offset int) vm.Instruction {
	return encodeABC(j.op, j.reg, offset, 0xff)
}

// handlerJump is ENTER_TRY; the offset to the catch code goes in A and the
// register receiving the thrown value in B.
type handlerJump struct {
	reg int
}

func (j handlerJump) encode(offset int) vm.Instruction {
	return encodeABC(vm.OpEnterTry, offset, j.reg, 0xff)
}

// jumpPatch is a placeholder waiting for its target.
type jumpPatch struct {
	at    int
	shape jumpShape
}

// startJump emits a placeholder. It is a TEST_MATCH on register 0 until
// patched, so an unpatched jump is obvious in a listing.
func (c *Compiler) startJump(shape jumpShape) jumpPatch {
	c.write(vm.OpTestMatch, 0, 0xff, 0xff)
	return jumpPatch{at: len(c.code) - 1, shape: shape}
}

// patchJump points a placeholder at the next instruction to be emitted.
func (c *Compiler) patchJump(j jumpPatch) {
	offset := len(c.code) - j.at - 1
	c.code[j.at] = j.shape.encode(offset)
}

// ---------------------------------------------------------------------------
// Registers and scopes
// ---------------------------------------------------------------------------

func (c *Compiler) makeTemp() int {
	return c.regs.makeTemp()
}

func (c *Compiler) releaseTemp() {
	c.regs.releaseTemp()
}

// scoped runs fn inside a nested scope that is closed on every exit path.
func (c *Compiler) scoped(fn func()) {
	c.regs.openScope()
	defer c.closeScope()
	fn()
}

// hoisted runs fn inside a scope in which bindings already own slots, so
// that fn may allocate temporaries ahead of their declarations.
func (c *Compiler) hoisted(bindings []*VariablePattern, fn func()) {
	c.regs.openScope()
	defer c.closeScope()
	c.regs.hoistLocals(bindings)
	fn()
}

// closeScope ends a scope opened by scoped or hoisted. A panic from inside
// the scope is re-raised unchanged, skipping the live-temporary check.
func (c *Compiler) closeScope() {
	if r := recover(); r != nil {
		panic(r)
	}
	c.regs.closeScope()
}

// declareBinding implements patternReserver.
func (c *Compiler) declareBinding(p *VariablePattern) {
	slot := c.regs.declareLocal(p.Name, p)
	if want, ok := c.resolution.Bindings[p]; !ok || want != slot {
		panic(fmt.Sprintf("compiler: variable %s is in slot %d but was resolved to %d", p.Name, slot, want))
	}
}

// hoistBindings implements patternReserver.
func (c *Compiler) hoistBindings(bindings []*VariablePattern) {
	c.regs.hoistLocals(bindings)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) compile(e Expr, dest int) {
	switch n := e.(type) {
	case *AndExpr:
		c.scoped(func() { c.compileShortCircuit(n.Left, n.Right, vm.OpJumpIfFalse, dest) })

	case *OrExpr:
		c.scoped(func() { c.compileShortCircuit(n.Left, n.Right, vm.OpJumpIfTrue, dest) })

	case *BinaryOpExpr:
		c.compileBinaryOp(n, dest)

	case *BoolExpr:
		if n.Value {
			c.write(vm.OpBuiltIn, int(vm.BuiltInTrue), dest, 0)
		} else {
			c.write(vm.OpBuiltIn, int(vm.BuiltInFalse), dest, 0)
		}

	case *CallExpr:
		c.compileCall(n, dest)

	case *CatchExpr:
		c.compileCatch(n, dest)

	case *DoExpr:
		c.scoped(func() { c.compile(n.Body, dest) })

	case *IfExpr:
		c.compileIf(n, dest)

	case *IsExpr:
		c.scoped(func() {
			c.compile(n.Value, dest)
			c.hoisted(collectBindings(n.Type), func() {
				t := c.makeTemp()
				c.compile(n.Type, t)
				c.write(vm.OpIs, dest, t, dest)
				c.releaseTemp()
			})
		})

	case *MatchExpr:
		c.scoped(func() { c.compileMatch(n, dest) })

	case *NameExpr:
		res := c.resolution.Name(n)
		switch res.Kind {
		case ResolvedLocal:
			c.write(vm.OpMove, res.Slot, dest, 0)
		case ResolvedModule:
			c.write(vm.OpGetModule, res.Import, res.Export, dest)
		default:
			c.write(vm.OpBuiltIn, int(vm.BuiltInNothing), dest, 0)
		}

	case *NotExpr:
		c.scoped(func() { c.compile(n.Value, dest) })
		c.write(vm.OpNot, dest, 0, 0)

	case *NothingExpr:
		c.write(vm.OpBuiltIn, int(vm.BuiltInNothing), dest, 0)

	case *NumberExpr:
		c.write(vm.OpConstant, c.constant(vm.Number(n.Value)), dest, 0)

	case *RecordExpr:
		c.compileRecord(n, dest)

	case *ReturnExpr:
		if n.Value != nil {
			c.scoped(func() { c.compile(n.Value, dest) })
		} else {
			c.write(vm.OpBuiltIn, int(vm.BuiltInNothing), dest, 0)
		}
		c.write(vm.OpReturn, dest, 0, 0)

	case *SequenceExpr:
		if len(n.Exprs) == 0 {
			c.write(vm.OpBuiltIn, int(vm.BuiltInNothing), dest, 0)
		}
		for _, item := range n.Exprs {
			c.compile(item, dest)
		}

	case *StringExpr:
		c.write(vm.OpConstant, c.constant(vm.String(n.Value)), dest, 0)

	case *ThrowExpr:
		c.scoped(func() { c.compile(n.Value, dest) })
		c.write(vm.OpThrow, dest, 0, 0)

	case *VariableExpr:
		c.compileVariable(n, dest)

	default:
		panic(fmt.Sprintf("compiler: unknown expression %T", e))
	}
}

func (c *Compiler) compileShortCircuit(left, right Expr, op vm.OpCode, dest int) {
	c.compile(left, dest)
	jump := c.startJump(testJump{op: op, reg: dest})
	c.compile(right, dest)
	c.patchJump(jump)
}

var binaryOps = map[BinaryOperator]struct {
	op     vm.OpCode
	negate bool
}{
	BinaryAdd:          {vm.OpAdd, false},
	BinarySubtract:     {vm.OpSubtract, false},
	BinaryMultiply:     {vm.OpMultiply, false},
	BinaryDivide:       {vm.OpDivide, false},
	BinaryEqual:        {vm.OpEqual, false},
	BinaryNotEqual:     {vm.OpEqual, true},
	BinaryLess:         {vm.OpLessThan, false},
	BinaryLessEqual:    {vm.OpGreaterThan, true},
	BinaryGreater:      {vm.OpGreaterThan, false},
	BinaryGreaterEqual: {vm.OpLessThan, true},
}

func (c *Compiler) compileBinaryOp(n *BinaryOpExpr, dest int) {
	info, ok := binaryOps[n.Op]
	if !ok {
		panic(fmt.Sprintf("compiler: unknown binary operator %d", n.Op))
	}

	c.hoisted(collectBindings(n.Left, n.Right), func() {
		left, leftTemp := c.compileExpressionOrConstant(n.Left)
		right, rightTemp := c.compileExpressionOrConstant(n.Right)
		c.write(info.op, left, right, dest)
		if rightTemp {
			c.releaseTemp()
		}
		if leftTemp {
			c.releaseTemp()
		}
	})

	if info.negate {
		c.write(vm.OpNot, dest, 0, 0)
	}
}

// compileExpressionOrConstant returns an RC operand for e. Number and
// string literals go straight into the constant pool; anything else is
// compiled into a new temporary, which the caller releases when temp is
// true.
func (c *Compiler) compileExpressionOrConstant(e Expr) (operand int, temp bool) {
	var value vm.Value
	switch n := e.(type) {
	case *NumberExpr:
		value = vm.Number(n.Value)
	case *StringExpr:
		value = vm.String(n.Value)
	}
	if value != nil {
		index := c.constant(value)
		if index <= vm.MaxRCIndex {
			return vm.MakeConstant(index), false
		}
		// Past the RC range the constant is loaded through a register.
		t := c.makeTemp()
		c.write(vm.OpConstant, index, t, 0)
		return rcRegister(t), true
	}

	t := c.makeTemp()
	c.compile(e, t)
	return rcRegister(t), true
}

// rcRegister checks that a register can be named by an RC operand.
func rcRegister(reg int) int {
	if reg > vm.MaxRCIndex {
		panic(fmt.Sprintf("compiler: register %d does not fit in an RC operand", reg))
	}
	return reg
}

func (c *Compiler) compileCall(n *CallExpr, dest int) {
	signature := CallSignature(n)
	slot := c.rt.Methods.Find(signature)
	if slot < 0 {
		c.reporter.Error(n.Span().Start, "could not find a method with signature '%s'", signature)
		slot = 0
	}

	if arg := callArgument(n); arg != nil {
		c.scoped(func() { c.compile(arg, dest) })
	}
	c.write(vm.OpCall, slot, dest, dest)
}

func (c *Compiler) compileCatch(n *CatchExpr, dest int) {
	enter := c.startJump(handlerJump{reg: dest})
	c.scoped(func() { c.compile(n.Body, dest) })
	c.write(vm.OpExitTry, 0, 0, 0)
	skip := c.startJump(plainJump{})

	c.patchJump(enter)
	if len(n.Catches) == 0 {
		c.write(vm.OpThrow, dest, 0, 0)
	} else {
		clause := n.Catches[0]
		c.scoped(func() {
			reservePattern(c, clause.Pattern)
			c.compilePattern(clause.Pattern, dest, nil)
			c.compile(clause.Body, dest)
		})
	}
	c.patchJump(skip)
}

func (c *Compiler) compileIf(n *IfExpr, dest int) {
	c.scoped(func() {
		c.compile(n.Condition, dest)
		toElse := c.startJump(testJump{op: vm.OpJumpIfFalse, reg: dest})

		c.scoped(func() { c.compile(n.Then, dest) })
		toEnd := c.startJump(plainJump{})

		c.patchJump(toElse)
		c.scoped(func() {
			if n.Else != nil {
				c.compile(n.Else, dest)
			} else {
				c.write(vm.OpBuiltIn, int(vm.BuiltInNothing), dest, 0)
			}
		})
		c.patchJump(toEnd)
	})
}

func (c *Compiler) compileMatch(n *MatchExpr, dest int) {
	c.compile(n.Value, dest)

	var toEnd []jumpPatch
	for i, clause := range n.Cases {
		last := i == len(n.Cases)-1
		c.scoped(func() {
			// Variables first, so the pattern's temporaries land above them.
			reservePattern(c, clause.Pattern)

			var failures *[]jumpPatch
			if !last {
				failures = new([]jumpPatch)
			}
			c.compilePattern(clause.Pattern, dest, failures)
			c.compile(clause.Body, dest)

			if !last {
				toEnd = append(toEnd, c.startJump(plainJump{}))
				for _, j := range *failures {
					c.patchJump(j)
				}
			}
		})
	}

	for _, j := range toEnd {
		c.patchJump(j)
	}
}

func (c *Compiler) compileRecord(n *RecordExpr, dest int) {
	values := make([]Expr, len(n.Fields))
	fields := make([]int, len(n.Fields))
	for i, f := range n.Fields {
		values[i] = f.Value
		fields[i] = c.rt.AddSymbol(f.Name)
	}

	c.hoisted(collectBindings(values...), func() {
		first := -1
		for _, v := range values {
			t := c.makeTemp()
			if first < 0 {
				first = t
			}
			c.compile(v, t)
		}
		if first < 0 {
			first = c.regs.slots + c.regs.temps
		}

		shape := c.rt.AddRecordType(fields)
		c.write(vm.OpRecord, first, shape, dest)

		for range values {
			c.releaseTemp()
		}
	})
}

func (c *Compiler) compileVariable(n *VariableExpr, dest int) {
	reservePattern(c, n.Pattern)

	c.hoisted(collectBindings(n.Value), func() {
		t := c.makeTemp()
		c.compile(n.Value, t)
		c.compilePattern(n.Pattern, t, nil)
		c.write(vm.OpMove, t, dest, 0)
		c.releaseTemp()
	})
}
