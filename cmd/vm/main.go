package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/unworried/flip/asm"
	"github.com/unworried/flip/config"
	"github.com/unworried/flip/debugger"
	"github.com/unworried/flip/loader"
	"github.com/unworried/flip/vm"
)

func main() {
	var (
		verbose     = flag.Bool("verbose", false, "print machine state before every step")
		disassemble = flag.Bool("d", false, "disassemble the program and exit")
		debug       = flag.Bool("debug", false, "run under the TUI debugger")
		maxSteps    = flag.Int("max-steps", 0, "step limit before aborting (default from config)")
	)
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *verbose, *disassemble, *debug, *maxSteps); err != nil {
		fmt.Fprintf(os.Stderr, "vm: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, verbose, disassemble, debug bool, maxSteps int) error {
	program, err := readInput(path)
	if err != nil {
		return err
	}

	if disassemble {
		lines, err := asm.Disassemble(program)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if maxSteps == 0 {
		maxSteps = cfg.Execution.MaxSteps
	}

	machine, err := loader.Load(program)
	if err != nil {
		return err
	}

	if debug {
		return debugger.RunTUI(debugger.New(machine, program, maxSteps))
	}

	for !machine.Halt {
		if maxSteps <= 0 {
			return fmt.Errorf("step limit exceeded")
		}
		if verbose {
			fmt.Println(machine.State())
		}
		if err := machine.Step(); err != nil {
			return fmt.Errorf("at PC=0x%04X: %w", machine.GetRegister(vm.PC), err)
		}
		maxSteps--
	}

	fmt.Printf("A = %d\n", machine.GetRegister(vm.A))
	return nil
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

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: vm [options] <input>

Runs a bytecode image: the program is mapped at address 0 with RAM above
it, and execution continues until the program raises the halt signal.
An input of - reads stdin.

Options:
  -verbose        Print machine state before every step
  -d              Disassemble the program and exit
  -debug          Run under the TUI debugger
  -max-steps N    Step limit before aborting
`)
}
