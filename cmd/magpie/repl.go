package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/magpie/compiler"
	"github.com/chazu/magpie/vm"
)

// runREPL starts an interactive read-eval-print loop on stdin.
func runREPL(rt *vm.Runtime, out *reporter) {
	fmt.Println("Magpie REPL (type 'exit' to quit, ':help' for commands)")
	fmt.Println()
	repl(rt, os.Stdin, os.Stdout, out)
	fmt.Println()
}

// repl reads input until it forms complete expressions, then compiles and
// runs it. Definitions persist in rt between inputs; variables do not.
func repl(rt *vm.Runtime, in io.Reader, w io.Writer, out *reporter) {
	interp := vm.NewInterpreter(rt)
	interp.Out = w

	scanner := bufio.NewScanner(in)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			fmt.Fprint(w, ">> ")
		} else {
			fmt.Fprint(w, ".. ")
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if buffer.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "exit" || trimmed == "quit" {
				break
			}
			if strings.HasPrefix(trimmed, ":") {
				handleREPLCommand(rt, w, trimmed)
				continue
			}
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		input := buffer.String()
		if openBlocks(input) > 0 {
			continue
		}
		buffer.Reset()
		if strings.TrimSpace(input) != "" {
			evalAndPrint(rt, interp, w, out, input)
		}
	}
}

// handleREPLCommand handles REPL meta-commands.
func handleREPLCommand(rt *vm.Runtime, w io.Writer, cmd string) {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Fprintln(w, "REPL Commands:")
		fmt.Fprintln(w, "  :help, :h, :?     Show this help")
		fmt.Fprintln(w, "  :methods          List defined method signatures")
		fmt.Fprintln(w, "  :disasm SIG       Show the bytecode of a method")
		fmt.Fprintln(w, "  exit, quit        Exit REPL")
	case ":methods":
		for _, sig := range rt.Methods.All() {
			fmt.Fprintln(w, sig)
		}
	case ":disasm":
		sig := strings.TrimSpace(strings.TrimPrefix(cmd, fields[0]))
		method, err := rt.Methods.Get(rt.Methods.Find(sig))
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		if method.IsNative() {
			fmt.Fprintf(w, "%q is native\n", sig)
			return
		}
		fmt.Fprint(w, vm.Disassemble(method))
	default:
		fmt.Fprintf(w, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// evalAndPrint compiles input as a module, runs its body and prints the
// result unless it is nothing.
func evalAndPrint(rt *vm.Runtime, interp *vm.Interpreter, w io.Writer, out *reporter, input string) {
	diags := compiler.NewDiagnostics("repl")
	module := compiler.CompileSource(rt, "repl", input, diags)
	if diags.HasErrors() {
		out.Report(diags.List())
		return
	}

	result, err := interp.RunModule(module)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	if result != vm.Nothing {
		fmt.Fprintln(w, result.String())
	}
}

// openBlocks counts block keywords still waiting for their `end`.
func openBlocks(input string) int {
	depth := 0
	for _, tok := range compiler.Tokenize(input) {
		switch tok.Type {
		case compiler.TokenDef, compiler.TokenIf, compiler.TokenMatch, compiler.TokenDo:
			depth++
		case compiler.TokenEnd:
			depth--
		}
	}
	return depth
}
