package vm

import (
	"fmt"
	"sync"
)

// MethodTable maps canonical signatures to method slots.
//
// Definitions go through two phases: Declare reserves a slot for every
// signature in a module before any body is compiled, then Define attaches
// the compiled body. Calls compiled in between can already refer to the
// slot, which is what lets sibling definitions be mutually recursive.
//
// The table is append-only.
type MethodTable struct {
	mu      sync.RWMutex
	byName  map[string]int // signature -> slot
	methods []*Method      // slot -> method (nil while only declared)
	names   []string       // slot -> signature
}

// NewMethodTable creates an empty method table.
func NewMethodTable() *MethodTable {
	return &MethodTable{
		byName: make(map[string]int),
	}
}

// Declare reserves a slot for signature and returns it. Declaring an
// existing signature returns the existing slot.
func (mt *MethodTable) Declare(signature string) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.declareLocked(signature)
}

func (mt *MethodTable) declareLocked(signature string) int {
	if slot, ok := mt.byName[signature]; ok {
		return slot
	}
	slot := len(mt.methods)
	mt.byName[signature] = slot
	mt.methods = append(mt.methods, nil)
	mt.names = append(mt.names, signature)
	return slot
}

// Define attaches a method body to signature, declaring it first if needed.
// It returns the previous body, if any.
func (mt *MethodTable) Define(signature string, method *Method) (slot int, previous *Method) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	slot = mt.declareLocked(signature)
	previous = mt.methods[slot]
	method.Signature = signature
	mt.methods[slot] = method
	return slot, previous
}

// Find returns the slot for signature, or -1 if it was never declared.
func (mt *MethodTable) Find(signature string) int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	if slot, ok := mt.byName[signature]; ok {
		return slot
	}
	return -1
}

// Get returns the method in slot, or an error if the slot is out of range
// or was declared but never defined.
func (mt *MethodTable) Get(slot int) (*Method, error) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	if slot < 0 || slot >= len(mt.methods) {
		return nil, fmt.Errorf("method slot %d out of range", slot)
	}
	if mt.methods[slot] == nil {
		return nil, fmt.Errorf("method %q declared but not defined", mt.names[slot])
	}
	return mt.methods[slot], nil
}

// Signature returns the signature in slot, or "" if invalid.
func (mt *MethodTable) Signature(slot int) string {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	if slot < 0 || slot >= len(mt.names) {
		return ""
	}
	return mt.names[slot]
}

// Len returns the number of declared slots.
func (mt *MethodTable) Len() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return len(mt.methods)
}

// All returns all signatures in slot order.
func (mt *MethodTable) All() []string {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	result := make([]string, len(mt.names))
	copy(result, mt.names)
	return result
}
