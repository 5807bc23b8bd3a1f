// Package debugger single-steps a machine interactively, with
// breakpoints and register, disassembly and memory inspection. The TUI
// front end lives in tui.go.
package debugger

import (
	"fmt"
	"strings"

	"github.com/unworried/flip/vm"
)

// State describes why execution is paused.
type State int

const (
	StatePaused State = iota
	StateRunning
	StateBreakpoint
	StateHalted
	StateError
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	case StateBreakpoint:
		return "breakpoint"
	case StateHalted:
		return "halted"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Debugger wraps a machine with execution control.
type Debugger struct {
	Machine *vm.Machine

	program     []byte
	maxSteps    int
	stepsTaken  int
	breakpoints *BreakpointSet

	State   State
	LastErr error
}

// New creates a debugger over a loaded machine. The program image is
// retained for disassembly.
func New(machine *vm.Machine, program []byte, maxSteps int) *Debugger {
	return &Debugger{
		Machine:     machine,
		program:     program,
		maxSteps:    maxSteps,
		breakpoints: NewBreakpointSet(),
	}
}

// Breakpoints exposes the breakpoint set.
func (d *Debugger) Breakpoints() *BreakpointSet {
	return d.breakpoints
}

// Step executes one instruction.
func (d *Debugger) Step() error {
	if d.Machine.Halt {
		d.State = StateHalted
		return nil
	}
	if d.maxSteps > 0 && d.stepsTaken >= d.maxSteps {
		d.State = StateError
		d.LastErr = fmt.Errorf("step limit exceeded (%d steps)", d.maxSteps)
		return d.LastErr
	}

	if err := d.Machine.Step(); err != nil {
		d.State = StateError
		d.LastErr = err
		return err
	}
	d.stepsTaken++

	if d.Machine.Halt {
		d.State = StateHalted
	} else {
		d.State = StatePaused
	}
	return nil
}

// Continue runs until a breakpoint, halt, error or the step limit.
func (d *Debugger) Continue() error {
	d.State = StateRunning
	for {
		if err := d.Step(); err != nil {
			return err
		}
		if d.Machine.Halt {
			d.State = StateHalted
			return nil
		}
		if d.breakpoints.Has(d.Machine.GetRegister(vm.PC)) {
			d.State = StateBreakpoint
			return nil
		}
	}
}

// RegisterDump renders all registers and the paused state.
func (d *Debugger) RegisterDump() string {
	var sb strings.Builder
	regs := []vm.Register{vm.A, vm.B, vm.C, vm.M, vm.SP, vm.PC, vm.BP}
	for _, r := range regs {
		fmt.Fprintf(&sb, "%-4s 0x%04X  %5d\n", r, d.Machine.GetRegister(r), d.Machine.GetRegister(r))
	}
	fmt.Fprintf(&sb, "\nstate: %s\n", d.State)
	fmt.Fprintf(&sb, "steps: %d\n", d.stepsTaken)
	if d.LastErr != nil {
		fmt.Fprintf(&sb, "error: %v\n", d.LastErr)
	}
	return sb.String()
}

// Disassembly renders the program with the current PC and breakpoints
// marked.
func (d *Debugger) Disassembly() string {
	pc := d.Machine.GetRegister(vm.PC)
	var sb strings.Builder
	for addr := 0; addr+1 < len(d.program); addr += 2 {
		w := uint16(d.program[addr]) | uint16(d.program[addr+1])<<8
		text := "???"
		if ins, err := vm.Decode(w); err == nil {
			text = ins.String()
		}

		marker := "  "
		if uint16(addr) == pc {
			marker = "=>"
		}
		bp := " "
		if d.breakpoints.Has(uint16(addr)) {
			bp = "*"
		}
		fmt.Fprintf(&sb, "%s%s 0x%04X  %s\n", marker, bp, addr, text)
	}
	return sb.String()
}

// MemoryDump renders words around the stack pointer.
func (d *Debugger) MemoryDump(words int) string {
	sp := d.Machine.GetRegister(vm.SP)
	var sb strings.Builder
	start := int(sp) - words*2
	if start < 0 {
		start = 0
	}
	for addr := start; addr < int(sp)+words; addr += 2 {
		v, err := d.Machine.Memory.ReadWord(uint32(addr))
		if err != nil {
			continue
		}
		marker := "  "
		if addr == int(sp) {
			marker = "SP"
		}
		fmt.Fprintf(&sb, "%s 0x%04X  0x%04X %6d\n", marker, addr, v, v)
	}
	return sb.String()
}
