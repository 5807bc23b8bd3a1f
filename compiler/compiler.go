// Package compiler wires the front end together: lex, parse, build the
// symbol table, resolve names, and generate code.
package compiler

import (
	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/codegen"
	"github.com/unworried/flip/diagnostics"
	"github.com/unworried/flip/lexer"
	"github.com/unworried/flip/parser"
	"github.com/unworried/flip/source"
	"github.com/unworried/flip/symbols"
	"github.com/unworried/flip/vm"
)

// Result carries everything the front half produced, whether or not
// code generation is possible.
type Result struct {
	Source      *source.Source
	Program     *ast.Program
	Table       *symbols.Table
	Functions   symbols.FunctionTable
	Diagnostics *diagnostics.Bag
}

// DiagnosticsError signals that errors were reported; the caller renders
// them from the bag.
type DiagnosticsError struct {
	Result *Result
}

func (e *DiagnosticsError) Error() string {
	return "compilation failed with diagnostics"
}

// Check runs the analysis passes without emitting code.
func Check(input string) *Result {
	bag := diagnostics.NewBag()
	p := parser.New(lexer.New(input), bag)
	program := p.Parse()

	table, functions := symbols.BuildSymbolTable(program, bag)
	symbols.ResolveNames(program, table, functions, bag)

	return &Result{
		Source:      source.New(input),
		Program:     program,
		Table:       table,
		Functions:   functions,
		Diagnostics: bag,
	}
}

// Compile checks the input and lowers it to instructions placed at the
// given byte offset. Diagnosed errors refuse emission; warnings do not.
func Compile(input string, offset uint32) ([]vm.Instruction, *Result, error) {
	res := Check(input)
	if res.Diagnostics.HasErrors() {
		return nil, res, &DiagnosticsError{Result: res}
	}

	instructions, err := codegen.Generate(res.Program, res.Table, res.Functions, offset)
	if err != nil {
		return nil, res, err
	}
	return instructions, res, nil
}

// Encode flattens instructions to little-endian bytecode.
func Encode(instructions []vm.Instruction) []byte {
	out := make([]byte, 0, len(instructions)*2)
	for _, ins := range instructions {
		w := ins.Encode()
		out = append(out, byte(w), byte(w>>8))
	}
	return out
}
