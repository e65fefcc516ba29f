// Magpie CLI - compiles .mag files to register bytecode and optionally runs them
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/magpie/compiler"
	"github.com/chazu/magpie/manifest"
	"github.com/chazu/magpie/server"
	"github.com/chazu/magpie/vm"
)

var log = commonlog.GetLogger("magpie.cli")

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return fmt.Sprint(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(string) error {
	*v++
	return nil
}

// options collects everything main needs after flag parsing.
type options struct {
	run         bool
	disassemble bool
	dump        string
	color       string
	maxErrors   int
	interactive bool
}

func main() {
	var verbose verbosity
	flag.Var(&verbose, "v", "Verbose logging (repeat for more)")
	run := flag.Bool("run", false, "Run the top-level code of each compiled file")
	disasm := flag.Bool("disasm", false, "Print a bytecode listing of every compiled method")
	dump := flag.String("dump", "", "Write a YAML listing of every compiled method to this file ('-' for stdout)")
	color := flag.String("color", "", "Color diagnostics: auto, always or never (overrides magpie.toml)")
	maxErrors := flag.Int("max-errors", -1, "Stop printing diagnostics after this many (0 = unlimited)")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: magpie [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles .mag files. Without files, compiles the entry (or every source file)\n")
		fmt.Fprintf(os.Stderr, "of the project described by the nearest %s.\n\n", manifest.FileName)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  magpie main.mag -run          # Compile and run main.mag\n")
		fmt.Fprintf(os.Stderr, "  magpie -disasm main.mag       # Print bytecode listings\n")
		fmt.Fprintf(os.Stderr, "  magpie -dump out.yaml         # Dump the project's methods as YAML\n")
		fmt.Fprintf(os.Stderr, "  magpie -i                     # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  magpie -lsp                   # Start language server\n")
	}
	flag.Parse()

	commonlog.Configure(int(verbose), nil)

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default(cwd)
	} else {
		log.Infof("using %s in %s", manifest.FileName, m.Dir)
	}

	opts := options{
		run:         *run,
		disassemble: *disasm || m.Compiler.Disassemble,
		dump:        *dump,
		color:       m.Output.Color,
		maxErrors:   m.Compiler.MaxErrors,
		interactive: *interactive,
	}
	if *color != "" {
		opts.color = *color
	}
	if *maxErrors >= 0 {
		opts.maxErrors = *maxErrors
	}

	paths := flag.Args()
	if len(paths) == 0 && !opts.interactive {
		paths, err = projectFiles(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(paths) == 0 {
			flag.Usage()
			os.Exit(2)
		}
	}

	out := newReporter(os.Stderr, useColor(opts.color, os.Stderr), opts.maxErrors)
	rt := vm.NewRuntime()

	modules, ok := compileFiles(rt, paths, out)
	out.Summary()

	if opts.disassemble {
		for _, module := range modules {
			fmt.Print(listing(rt, module))
		}
	}

	if opts.dump != "" {
		if err := writeDump(opts.dump, rt, modules); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !ok {
		os.Exit(1)
	}

	if opts.run {
		interp := vm.NewInterpreter(rt)
		for _, module := range modules {
			if _, err := interp.RunModule(module); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if opts.interactive {
		runREPL(rt, out)
	}
}

// projectFiles picks the files to compile when none are given: the
// manifest's entry if it names one, otherwise every source file.
func projectFiles(m *manifest.Manifest) ([]string, error) {
	if entry := m.EntryPath(); entry != "" {
		return []string{entry}, nil
	}
	return m.SourceFiles()
}

// compileFiles compiles each file into rt in order. Later files can call
// methods defined by earlier ones. Returns false if any file had errors.
func compileFiles(rt *vm.Runtime, paths []string, out *reporter) ([]*vm.Module, bool) {
	ok := true
	var modules []*vm.Module
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			ok = false
			continue
		}

		diags := compiler.NewDiagnostics(path)
		module := compiler.CompileSource(rt, moduleName(path), string(content), diags)
		out.Report(diags.List())
		if diags.HasErrors() {
			ok = false
		}
		log.Debugf("compiled %s: %d diagnostics", path, diags.Len())
		modules = append(modules, module)
	}
	return modules, ok
}

// moduleName derives a module name from a file path.
func moduleName(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, manifest.SourceExt)
}

// listing renders the body and every method of a module.
func listing(rt *vm.Runtime, module *vm.Module) string {
	var sb strings.Builder
	for _, method := range moduleMethods(rt, module) {
		sb.WriteString(vm.Disassemble(method))
		if fp, err := vm.Fingerprint(method); err == nil {
			sb.WriteString(fmt.Sprintf("; Fingerprint: %s\n", fp[:12]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// moduleMethods returns the methods module defined, in slot order,
// followed by its body.
func moduleMethods(rt *vm.Runtime, module *vm.Module) []*vm.Method {
	var methods []*vm.Method
	for slot := range rt.Methods.Len() {
		method, err := rt.Methods.Get(slot)
		if err != nil || method.IsNative() || method.Module != module {
			continue
		}
		methods = append(methods, method)
	}
	if module.Body != nil {
		methods = append(methods, module.Body)
	}
	return methods
}
