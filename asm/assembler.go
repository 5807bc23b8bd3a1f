package asm

import (
	"fmt"
	"strings"

	"github.com/unworried/flip/vm"
)

// Assemble translates assembly source into little-endian bytecode. The
// program offset shifts label addresses by that many instruction words,
// for images loaded somewhere other than address zero. Every
// non-directive, non-comment, non-label line emits exactly two bytes.
func Assemble(input string, programOffset uint32) ([]byte, error) {
	pp := NewPreProcessor()
	pp.SetInstructionCount(programOffset)

	lines, err := pp.Resolve(input)
	if err != nil {
		return nil, err
	}

	var out []byte
	for _, line := range lines {
		resolved, err := line.Resolve(pp)
		if err != nil {
			return nil, &LineError{Line: line.LineNumber(), Err: err}
		}
		resolved = strings.TrimSpace(resolved)
		if resolved == "" || strings.HasPrefix(resolved, ";") {
			continue
		}

		ins, err := vm.Parse(resolved)
		if err != nil {
			return nil, &LineError{Line: line.LineNumber(), Text: resolved, Err: err}
		}
		w := ins.Encode()
		out = append(out, byte(w), byte(w>>8))
	}
	return out, nil
}

// Preprocess runs only the first pass and returns the resolved lines
// prefixed with their instruction slots, for inspection.
func Preprocess(input string) ([]string, error) {
	pp := NewPreProcessor()
	lines, err := pp.Resolve(input)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		resolved, err := line.Resolve(pp)
		if err != nil {
			return nil, &LineError{Line: line.LineNumber(), Err: err}
		}
		out = append(out, fmt.Sprintf("%d: %s", line.LineNumber(), resolved))
	}
	return out, nil
}

// Disassemble renders bytecode as one mnemonic line per word.
func Disassemble(program []byte) ([]string, error) {
	if len(program)%2 != 0 {
		return nil, fmt.Errorf("program length %d is not word aligned", len(program))
	}
	lines := make([]string, 0, len(program)/2)
	for i := 0; i < len(program); i += 2 {
		w := uint16(program[i]) | uint16(program[i+1])<<8
		ins, err := vm.Decode(w)
		if err != nil {
			return nil, fmt.Errorf("word %d (0x%04X): %w", i/2, w, err)
		}
		lines = append(lines, ins.String())
	}
	return lines, nil
}
