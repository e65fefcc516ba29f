package vm

import (
	"strconv"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// SymbolTable: Interned field names
// ---------------------------------------------------------------------------

// SymbolTable interns record field names to small dense IDs.
// The table is append-only and shared by every module compiled against the
// same Runtime.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]int // name -> ID
	byID   []string       // ID -> name
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]int),
		byID:   make([]string, 0, 64),
	}
}

// Intern returns the ID for a symbol, creating a new one if needed.
func (st *SymbolTable) Intern(name string) int {
	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byName[name]; ok {
		return id
	}

	id := len(st.byID)
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Lookup returns the ID for a symbol, or -1 if it was never interned.
func (st *SymbolTable) Lookup(name string) int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if id, ok := st.byName[name]; ok {
		return id
	}
	return -1
}

// Name returns the symbol name for an ID, or "" if invalid.
func (st *SymbolTable) Name(id int) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if id < 0 || id >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned symbols.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// ---------------------------------------------------------------------------
// RecordTypes: Interned record shapes
// ---------------------------------------------------------------------------

// RecordType is a record shape: an ordered list of field symbols.
type RecordType struct {
	ID     int
	Fields []int    // field symbols in declaration order
	Names  []string // field names, parallel to Fields
}

// RecordTypes interns ordered field-symbol lists to record type IDs.
//
// Field order is significant: (x: 1, y: 2) and (y: 2, x: 1) intern to
// different shapes.
type RecordTypes struct {
	symbols *SymbolTable

	mu    sync.RWMutex
	byKey map[string]int
	byID  []*RecordType
}

// NewRecordTypes creates an empty shape table whose field names are
// resolved through symbols.
func NewRecordTypes(symbols *SymbolTable) *RecordTypes {
	return &RecordTypes{
		symbols: symbols,
		byKey:   make(map[string]int),
	}
}

func shapeKey(fields []int) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(f))
	}
	return b.String()
}

// Intern returns the type ID for the given field symbols, creating a new
// shape if needed.
func (rt *RecordTypes) Intern(fields []int) int {
	key := shapeKey(fields)

	rt.mu.RLock()
	if id, ok := rt.byKey[key]; ok {
		rt.mu.RUnlock()
		return id
	}
	rt.mu.RUnlock()

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if id, ok := rt.byKey[key]; ok {
		return id
	}

	shape := &RecordType{
		ID:     len(rt.byID),
		Fields: append([]int(nil), fields...),
		Names:  make([]string, len(fields)),
	}
	for i, f := range fields {
		shape.Names[i] = rt.symbols.Name(f)
	}
	rt.byKey[key] = shape.ID
	rt.byID = append(rt.byID, shape)
	return shape.ID
}

// Get returns the shape with the given ID, or nil.
func (rt *RecordTypes) Get(id int) *RecordType {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if id < 0 || id >= len(rt.byID) {
		return nil
	}
	return rt.byID[id]
}

// Len returns the number of interned shapes.
func (rt *RecordTypes) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.byID)
}
