// Package loader prepares a machine for a bytecode image: the program
// at address zero, general-purpose RAM above it, and the conventional
// halt signal installed.
package loader

import (
	"fmt"

	"github.com/unworried/flip/vm"
)

// Runtime layout constants.
const (
	RAMStart = 0x1000
	RAMSize  = 0x8000

	// SignalHalt is the signal number the program prologue raises when
	// main returns.
	SignalHalt = 0xf0
)

// SignalHaltHandler sets the halt latch.
func SignalHaltHandler(m *vm.Machine, _ uint16) error {
	m.Halt = true
	return nil
}

// Load maps the program image and RAM into a fresh machine, points SP
// at the base of RAM and installs the halt handler.
func Load(program []byte) (*vm.Machine, error) {
	if len(program) == 0 {
		return nil, fmt.Errorf("empty program")
	}
	if len(program)%2 != 0 {
		return nil, fmt.Errorf("program length %d is not word aligned", len(program))
	}

	m := vm.NewMachine()
	if err := m.Map(RAMStart, RAMSize, vm.NewLinearMemory(RAMSize)); err != nil {
		return nil, fmt.Errorf("mapping RAM: %w", err)
	}
	if err := m.Map(0, uint32(len(program)), vm.NewBufferMemory(program)); err != nil {
		return nil, fmt.Errorf("mapping program: %w", err)
	}

	m.SetRegister(vm.SP, RAMStart)
	m.DefineHandler(SignalHalt, SignalHaltHandler)
	return m, nil
}
