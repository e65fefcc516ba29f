package vm

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// Value is a run-time value held in a register or the constant pool.
type Value interface {
	String() string
}

// Number is the guest language's only numeric type.
type Number float64

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// String is an immutable guest string.
type String string

func (s String) String() string { return string(s) }

// Bool is a guest boolean.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

type nothingValue struct{}

func (nothingValue) String() string { return "nothing" }

// Nothing is the unit value.
var Nothing Value = nothingValue{}

// Record is an instance of a record shape.
type Record struct {
	Shape  *RecordType
	Fields []Value
}

// Field returns the value of the field with the given symbol.
func (r *Record) Field(symbol int) (Value, bool) {
	for i, s := range r.Shape.Fields {
		if s == symbol {
			return r.Fields[i], true
		}
	}
	return nil, false
}

func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range r.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.Shape.Names[i])
		b.WriteString(": ")
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Type is a class object that values can be tested against with OpIs.
type Type struct {
	Name   string
	Parent *Type
}

func (t *Type) String() string { return t.Name }

// ErrorObject is an error raised by the run-time itself.
type ErrorObject struct {
	Type    *Type
	Message string
}

func (e *ErrorObject) String() string {
	if e.Message == "" {
		return e.Type.Name
	}
	return e.Type.Name + ": " + e.Message
}

// Core types. They are exported by the core module.
var (
	TypeBool         = &Type{Name: "Bool"}
	TypeNum          = &Type{Name: "Num"}
	TypeString       = &Type{Name: "String"}
	TypeNothing      = &Type{Name: "Nothing"}
	TypeRecord       = &Type{Name: "Record"}
	TypeType         = &Type{Name: "Type"}
	TypeError        = &Type{Name: "Error"}
	TypeNoMatchError = &Type{Name: "NoMatchError", Parent: TypeError}
)

// TypeOf returns the class object of a value.
func TypeOf(v Value) *Type {
	switch v := v.(type) {
	case Bool:
		return TypeBool
	case Number:
		return TypeNum
	case String:
		return TypeString
	case *Record:
		return TypeRecord
	case *Type:
		return TypeType
	case *ErrorObject:
		return v.Type
	default:
		return TypeNothing
	}
}

// IsInstance reports whether v is an instance of t or one of its subtypes.
func IsInstance(v Value, t *Type) bool {
	for vt := TypeOf(v); vt != nil; vt = vt.Parent {
		if vt == t {
			return true
		}
	}
	return false
}

// Truthy reports whether a value counts as true for conditional jumps.
// Only false and nothing are falsey.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case nothingValue:
		return false
	}
	return v != nil
}

// Equal compares two values. Records compare structurally.
func Equal(a, b Value) bool {
	ra, aok := a.(*Record)
	rb, bok := b.(*Record)
	if aok && bok {
		if ra.Shape != rb.Shape {
			return false
		}
		for i := range ra.Fields {
			if !Equal(ra.Fields[i], rb.Fields[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
