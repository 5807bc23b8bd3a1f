package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unworried/flip/vm"
)

func words(instructions ...vm.Instruction) []byte {
	out := make([]byte, 0, len(instructions)*2)
	for _, ins := range instructions {
		w := ins.Encode()
		out = append(out, byte(w), byte(w>>8))
	}
	return out
}

func TestLoadRunsToHalt(t *testing.T) {
	lit, err := vm.NewLiteral12Bit(0xf0)
	require.NoError(t, err)
	n, err := vm.NewNibble(0)
	require.NoError(t, err)

	program := words(
		vm.Imm(vm.C, lit),
		vm.System(vm.C, vm.Zero, n),
	)

	machine, err := Load(program)
	require.NoError(t, err)
	assert.Equal(t, uint16(RAMStart), machine.GetRegister(vm.SP))

	require.NoError(t, machine.Run(100))
	assert.True(t, machine.Halt)
}

func TestLoadMapsRAMAboveProgram(t *testing.T) {
	program := words(vm.Invalid())
	machine, err := Load(program)
	require.NoError(t, err)

	// program image readable at 0
	w, err := machine.Memory.ReadWord(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), w)

	// RAM writable at its base
	require.NoError(t, machine.Memory.WriteWord(RAMStart, 0xabcd))
	got, err := machine.Memory.ReadWord(RAMStart)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xabcd), got)
}

func TestLoadRejectsBadImages(t *testing.T) {
	_, err := Load(nil)
	assert.Error(t, err)

	_, err = Load([]byte{0x01})
	assert.Error(t, err)
}
