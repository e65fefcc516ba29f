package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/magpie/vm"
)

type moduleDump struct {
	Name    string       `yaml:"name"`
	ID      string       `yaml:"id"`
	Methods []methodDump `yaml:"methods"`
}

type methodDump struct {
	Name        string   `yaml:"name"`
	Signature   string   `yaml:"signature,omitempty"`
	Registers   int      `yaml:"registers"`
	Constants   []string `yaml:"constants,omitempty"`
	Code        []string `yaml:"code"`
	Fingerprint string   `yaml:"fingerprint"`
}

// dumpModules builds the YAML view of compiled modules.
func dumpModules(rt *vm.Runtime, modules []*vm.Module) ([]moduleDump, error) {
	result := make([]moduleDump, 0, len(modules))
	for _, module := range modules {
		md := moduleDump{Name: module.Name, ID: module.ID.String()}
		for _, method := range moduleMethods(rt, module) {
			fp, err := vm.Fingerprint(method)
			if err != nil {
				return nil, err
			}
			d := methodDump{
				Name:        method.Name,
				Signature:   method.Signature,
				Registers:   method.NumRegisters,
				Code:        vm.DisassembleLines(method),
				Fingerprint: fp,
			}
			for _, c := range method.Constants {
				d.Constants = append(d.Constants, fmt.Sprintf("%s %s", vm.TypeOf(c).Name, c.String()))
			}
			md.Methods = append(md.Methods, d)
		}
		result = append(result, md)
	}
	return result, nil
}

// writeDump writes the YAML listing to path, or to stdout for "-".
func writeDump(path string, rt *vm.Runtime, modules []*vm.Module) error {
	dump, err := dumpModules(rt, modules)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(dump)
	if err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}
