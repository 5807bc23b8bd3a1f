package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/unworried/flip/asm"
	"github.com/unworried/flip/vm"
)

// onceValue rejects a flag passed more than once, including via an
// alias.
type onceValue struct {
	value string
	set   bool
}

func (v *onceValue) String() string { return v.value }

func (v *onceValue) Set(s string) error {
	if v.set {
		return errors.New("flag provided more than once")
	}
	v.value = s
	v.set = true
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "asm: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs.Output()) }

	var output onceValue
	var offset onceValue
	preprocessOnly := fs.Bool("p", false, "print preprocessed source instead of assembling")
	fs.Var(&output, "o", "output file (default: stdout)")
	fs.Var(&output, "output", "output file (default: stdout)")
	fs.Var(&offset, "x", "program offset in instruction words")
	fs.Var(&offset, "program-offset", "program offset in instruction words")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		printUsage(os.Stderr)
		return errors.New("expected exactly one input file")
	}

	input, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	var programOffset uint32
	if offset.set {
		programOffset, err = vm.ParseNumber(offset.value)
		if err != nil {
			return fmt.Errorf("invalid program offset: %w", err)
		}
	}

	var out []byte
	if *preprocessOnly {
		lines, err := asm.Preprocess(string(input))
		if err != nil {
			return err
		}
		for _, line := range lines {
			out = append(out, line...)
			out = append(out, '\n')
		}
	} else {
		out, err = asm.Assemble(string(input), programOffset)
		if err != nil {
			return err
		}
	}

	return writeOutput(output.value, out)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	return data, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: asm [options] <input>

Assembles mnemonic source into flat bytecode. An input of - reads stdin.

Options:
  -h, --help                Show this help message
  -o, --output FILE         Output file (default: stdout)
  -x, --program-offset N    Program offset in instruction words
  -p                        Print preprocessed source and exit
`)
}
