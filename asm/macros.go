package asm

import (
	"fmt"
	"os"
	"strings"

	"github.com/unworried/flip/vm"
)

// installBuiltinMacros registers the directive set every source can use:
//
//	.defvar NAME VALUE
//	.include PATH
//	.defmacro NAME BODY / BODY / ...
//	.offsetPC N
func installBuiltinMacros(pp *PreProcessor) {
	pp.DefineMacro("defvar", defvarMacro)
	pp.DefineMacro("include", includeMacro)
	pp.DefineMacro("defmacro", defmacroMacro)
	pp.DefineMacro("offsetPC", offsetPCMacro)
}

func defvarMacro(pp *PreProcessor, args []string) ([]string, error) {
	if len(args) != 2 {
		return nil, &BadMacroFormatError{Usage: ".defvar <name> <value>"}
	}
	pp.DefineVariable(args[0], args[1])
	return nil, nil
}

func includeMacro(_ *PreProcessor, args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, &BadMacroFormatError{Usage: ".include <path>"}
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return nil, &IOError{Msg: fmt.Sprintf("failed to open %q: %v", args[0], err)}
	}
	return strings.Split(string(content), "\n"), nil
}

func defmacroMacro(pp *PreProcessor, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, &BadMacroFormatError{Usage: ".defmacro <name> <body>"}
	}

	name := args[0]
	var lines []string
	var current []string
	for _, tok := range args[1:] {
		if tok == "/" {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	pp.DefineSubstMacro(name, lines)
	return nil, nil
}

func offsetPCMacro(pp *PreProcessor, args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, &BadMacroFormatError{Usage: ".offsetPC <offset>"}
	}
	offset, err := vm.ParseNumber(args[0])
	if err != nil {
		return nil, &BadMacroFormatError{Usage: fmt.Sprintf("failed to parse number: %v", err)}
	}
	pp.SetInstructionCount(offset)
	return nil, nil
}
