package compiler

import (
	"fmt"

	"github.com/chazu/magpie/vm"
)

// ---------------------------------------------------------------------------
// Pattern compiler: Destructuring and tests against a register
// ---------------------------------------------------------------------------

// patternCompiler compiles one pattern against the value in a register.
//
// In fallthrough mode every failed test jumps to a placeholder that the
// caller patches to the next case. In must-succeed mode failed tests raise
// NoMatchError at run time and nothing needs patching.
type patternCompiler struct {
	c        *Compiler
	jumps    []jumpPatch
	mustPass bool
}

// newPatternCompiler creates a pattern compiler. jumpOnFailure selects
// fallthrough mode.
func newPatternCompiler(c *Compiler, jumpOnFailure bool) *patternCompiler {
	return &patternCompiler{c: c, mustPass: !jumpOnFailure}
}

// compilePattern runs a pattern compiler. A nil failures selects
// must-succeed mode; otherwise the failure placeholders are appended to it.
func (c *Compiler) compilePattern(p Pattern, value int, failures *[]jumpPatch) {
	pc := newPatternCompiler(c, failures != nil)
	pc.compile(p, value)
	if failures != nil {
		*failures = append(*failures, pc.jumps...)
	}
}

func (pc *patternCompiler) compile(p Pattern, value int) {
	c := pc.c
	switch n := p.(type) {
	case *RecordPattern:
		for _, f := range n.Fields {
			symbol := c.rt.AddSymbol(f.Name)
			field := c.makeTemp()
			if pc.mustPass {
				c.write(vm.OpGetField, value, symbol, field)
			} else {
				c.write(vm.OpTestField, value, symbol, field)
				pc.jumps = append(pc.jumps, c.startJump(plainJump{}))
			}
			pc.compile(f.Pattern, field)
			c.releaseTemp()
		}

	case *TypePattern:
		expected := c.makeTemp()
		c.compile(n.Type, expected)
		c.write(vm.OpIs, value, expected, expected)
		pc.test(expected)
		c.releaseTemp()

	case *ValuePattern:
		expected := c.makeTemp()
		c.compile(n.Value, expected)
		c.write(vm.OpEqual, rcRegister(value), rcRegister(expected), expected)
		pc.test(expected)
		c.releaseTemp()

	case *VariablePattern:
		slot, ok := c.regs.slotOf(n)
		if !ok {
			panic(fmt.Sprintf("compiler: variable %s was not reserved", n.Name))
		}
		c.write(vm.OpMove, value, slot, 0)
		if n.Pattern != nil {
			pc.compile(n.Pattern, value)
		}

	case *WildcardPattern:

	default:
		panic(fmt.Sprintf("compiler: unknown pattern %T", p))
	}
}

// test checks the boolean in reg.
func (pc *patternCompiler) test(reg int) {
	if pc.mustPass {
		pc.c.write(vm.OpTestMatch, reg, 0, 0)
		return
	}
	pc.jumps = append(pc.jumps, pc.c.startJump(testJump{op: vm.OpJumpIfFalse, reg: reg}))
}
