package compiler

import (
	"errors"
	"fmt"
)

// Reporter receives user-facing compile errors. Reporting never stops
// compilation; every pass substitutes a placeholder and carries on so that
// one run surfaces as many independent errors as possible.
type Reporter interface {
	Error(pos Position, format string, args ...any)
}

// Diagnostic is a single reported error.
type Diagnostic struct {
	File    string
	Pos     Position
	Message string
}

// String formats the diagnostic as `[file line L col C] Error: message`.
func (d Diagnostic) String() string {
	file := d.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("[%s line %d col %d] Error: %s", file, d.Pos.Line, d.Pos.Column, d.Message)
}

// Diagnostics is a Reporter that collects everything it is given.
type Diagnostics struct {
	File string
	list []Diagnostic
}

// NewDiagnostics creates an empty collector for the named file.
func NewDiagnostics(file string) *Diagnostics {
	return &Diagnostics{File: file}
}

// Error records a diagnostic.
func (d *Diagnostics) Error(pos Position, format string, args ...any) {
	d.list = append(d.list, Diagnostic{
		File:    d.File,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// List returns the diagnostics in report order.
func (d *Diagnostics) List() []Diagnostic {
	return d.list
}

// Len returns the number of diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.list)
}

// HasErrors reports whether anything was reported.
func (d *Diagnostics) HasErrors() bool {
	return len(d.list) > 0
}

// Err joins every diagnostic into one error, or returns nil.
func (d *Diagnostics) Err() error {
	if len(d.list) == 0 {
		return nil
	}
	errs := make([]error, len(d.list))
	for i, diag := range d.list {
		errs[i] = errors.New(diag.String())
	}
	return errors.Join(errs...)
}
