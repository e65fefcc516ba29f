package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Local variable scopes and the register window
// ---------------------------------------------------------------------------
//
// Registers of a method are laid out as
//
//	[ locals ... | temporaries ... ]
//
// Locals take the low registers in declaration order. Temporaries sit
// directly above the live locals and are allocated and released LIFO.
// Closing a scope truncates the locals declared in it, so sibling scopes
// reuse the same registers for different variables.
//
// Variables declared inside an expression that is compiled into a
// temporary would otherwise land above that temporary. They are hoisted
// instead: their slots are reserved before the temporary exists, and the
// later declaration binds the name to the reserved slot.
//
// The resolver and the code generator drive identical localStack operation
// sequences, so the slots the resolver records are the registers the code
// generator uses.

// local is a name visible in some scope.
type local struct {
	name    string
	slot    int
	binding *VariablePattern // nil for the implicit return slot
}

// scopeFrame is the restore point captured when a scope opens.
type scopeFrame struct {
	names int // len(names) at open
	slots int // slot count at open
	temps int // live temporaries at open
}

// localStack tracks visible names and the local slots in use.
type localStack struct {
	names   []local
	slots   int
	hoisted map[*VariablePattern]int
	frames  []scopeFrame

	// onSlots is called whenever the slot count grows.
	onSlots func()
}

func newLocalStack() localStack {
	return localStack{hoisted: make(map[*VariablePattern]int)}
}

// open pushes a new scope. temps is the live temporary count, recorded so
// close can verify the scope released what it allocated.
func (s *localStack) open(temps int) {
	s.frames = append(s.frames, scopeFrame{names: len(s.names), slots: s.slots, temps: temps})
}

// close pops the innermost scope, freeing its locals and hoisted slots.
func (s *localStack) close() scopeFrame {
	if len(s.frames) == 0 {
		panic("compiler: closing a scope that is not open")
	}
	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	s.names = s.names[:frame.names]
	s.slots = frame.slots
	for binding, slot := range s.hoisted {
		if slot >= frame.slots {
			delete(s.hoisted, binding)
		}
	}
	return frame
}

// depth returns the number of open scopes.
func (s *localStack) depth() int {
	return len(s.frames)
}

// declare makes name visible in the innermost scope and returns its slot.
// duplicate is true if the innermost scope already has a variable with
// this name; the new variable still shadows the old one.
func (s *localStack) declare(name string, binding *VariablePattern) (slot int, duplicate bool) {
	start := 0
	if len(s.frames) > 0 {
		start = s.frames[len(s.frames)-1].names
	}
	for i := start; i < len(s.names); i++ {
		if s.names[i].name == name {
			duplicate = true
			break
		}
	}

	if hoisted, ok := s.hoisted[binding]; ok && binding != nil {
		slot = hoisted
	} else {
		slot = s.grow()
	}
	s.names = append(s.names, local{name: name, slot: slot, binding: binding})
	return slot, duplicate
}

// hoist reserves slots for bindings that are not already reserved and
// reports how many new slots it took.
func (s *localStack) hoist(bindings []*VariablePattern) int {
	added := 0
	for _, b := range bindings {
		if _, ok := s.hoisted[b]; ok {
			continue
		}
		s.hoisted[b] = s.grow()
		added++
	}
	return added
}

func (s *localStack) grow() int {
	slot := s.slots
	s.slots++
	if s.onSlots != nil {
		s.onSlots()
	}
	return slot
}

// lookup finds the innermost visible variable called name.
func (s *localStack) lookup(name string) (local, bool) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i].name == name {
			return s.names[i], true
		}
	}
	return local{}, false
}

// slotOf finds the slot declared for a binding that is still visible.
func (s *localStack) slotOf(binding *VariablePattern) (int, bool) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i].binding == binding {
			return s.names[i].slot, true
		}
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// registerAllocator: locals plus LIFO temporaries for code generation
// ---------------------------------------------------------------------------

type registerAllocator struct {
	localStack
	temps int
	max   int
}

func newRegisterAllocator() *registerAllocator {
	r := &registerAllocator{localStack: newLocalStack()}
	r.onSlots = r.updateMax
	return r
}

func (r *registerAllocator) updateMax() {
	if n := r.slots + r.temps; n > r.max {
		r.max = n
	}
}

// openScope starts a nested scope.
func (r *registerAllocator) openScope() {
	r.open(r.temps)
}

// closeScope ends the innermost scope. Every temporary allocated inside it
// must have been released.
func (r *registerAllocator) closeScope() {
	if len(r.frames) > 0 && r.frames[len(r.frames)-1].temps != r.temps {
		panic(fmt.Sprintf("compiler: closing a scope with %d live temporaries",
			r.temps-r.frames[len(r.frames)-1].temps))
	}
	r.close()
}

// declareLocal declares a variable. A new slot may only be taken while no
// temporaries are live; hoisted bindings reuse their reserved slot.
func (r *registerAllocator) declareLocal(name string, binding *VariablePattern) int {
	if _, ok := r.hoisted[binding]; (!ok || binding == nil) && r.temps > 0 {
		panic(fmt.Sprintf("compiler: cannot declare local %q while %d temporaries are live", name, r.temps))
	}
	slot, _ := r.declare(name, binding)
	return slot
}

// hoistLocals reserves slots for bindings ahead of allocating temporaries.
func (r *registerAllocator) hoistLocals(bindings []*VariablePattern) {
	live := r.temps
	if added := r.hoist(bindings); added > 0 && live > 0 {
		panic("compiler: cannot hoist locals while temporaries are live")
	}
}

// makeTemp allocates the next temporary register.
func (r *registerAllocator) makeTemp() int {
	r.temps++
	r.updateMax()
	return r.slots + r.temps - 1
}

// releaseTemp frees the most recently allocated temporary.
func (r *registerAllocator) releaseTemp() {
	if r.temps == 0 {
		panic("compiler: no temporary to release")
	}
	r.temps--
}

// maxRegisters is the peak number of registers live at once.
func (r *registerAllocator) maxRegisters() int {
	return r.max
}
