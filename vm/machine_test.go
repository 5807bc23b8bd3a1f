package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sigHalt is the signal number the test fixtures bind to the halt handler.
const sigHalt = 0x01

func haltHandler(m *Machine, _ uint16) error {
	m.Halt = true
	return nil
}

func initVM(t *testing.T, memSize int) *Machine {
	t.Helper()
	m := NewMachine()
	require.NoError(t, m.Map(0, uint32(memSize), NewLinearMemory(memSize)))
	return m
}

// runProgram encodes the program at address 0, appends a halt trap, and
// steps the machine until it halts.
func runProgram(t *testing.T, m *Machine, program []Instruction) {
	t.Helper()
	program = append(program, System(Zero, Zero, nib(t, sigHalt)))

	bytes := make([]byte, 0, len(program)*2)
	for _, ins := range program {
		w := ins.Encode()
		bytes = append(bytes, byte(w), byte(w>>8))
	}
	require.NoError(t, Load(m.Memory, bytes, 0))

	m.SetRegister(SP, 1024*3)
	m.DefineHandler(sigHalt, haltHandler)
	for !m.Halt {
		require.NoError(t, m.Step())
	}
}

func TestAddRegisters(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 11)),
		Imm(B, lit12(t, 15)),
		Add(A, B, C),
	})
	assert.Equal(t, uint16(26), m.GetRegister(C))
}

func TestSubRegisters(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 20)),
		Imm(B, lit12(t, 31)),
		Sub(A, B, C),
	})
	a, b := uint16(20), uint16(31)
	assert.Equal(t, a-b, m.GetRegister(C))
}

func TestAddImmSignedToZero(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(C, lit12(t, 21)),
		AddImmSigned(C, lit7s(t, -21)),
	})
	assert.Equal(t, uint16(0), m.GetRegister(C))
}

func TestShifts(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 0x1)),
		ShiftLeft(A, B, nib(t, 4)),
		ShiftRightLogical(B, C, nib(t, 2)),
	})
	assert.Equal(t, uint16(0x10), m.GetRegister(B))
	assert.Equal(t, uint16(0x4), m.GetRegister(C))
}

func TestShiftRightArithmeticKeepsSign(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 0)),
		AddImmSigned(A, lit7s(t, -32)),
		ShiftRightArithmetic(A, B, nib(t, 2)),
	})
	assert.Equal(t, int16(-8), int16(m.GetRegister(B)))
}

func TestZeroRegisterDiscardsWrites(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(Zero, lit12(t, 999)),
		Add(Zero, Zero, A),
	})
	assert.Equal(t, uint16(0), m.GetRegister(Zero))
	assert.Equal(t, uint16(0), m.GetRegister(A))
}

func TestJumpAndLink(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(B, lit12(t, 4)),
		SetAndSave(PC, B, C),
	})
	assert.Equal(t, uint16(2), m.GetRegister(C))
}

func TestAddAndSaveLinks(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(B, lit12(t, 2)),
		AddAndSave(PC, B, C),
	})
	// old PC saved, then PC = old + 2 lands on the halt trap
	assert.Equal(t, uint16(2), m.GetRegister(C))
}

func TestJumpOffsetSkips(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		JumpOffset(lit10(t, 4)),
		Imm(A, lit12(t, 0xbad)),
		Imm(B, lit12(t, 7)),
	})
	assert.Equal(t, uint16(0), m.GetRegister(A))
	assert.Equal(t, uint16(7), m.GetRegister(B))
}

func TestCompareFlagLocality(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 444)),
		Imm(B, lit12(t, 444)),
		Test(A, B, TestEq),
	})
	assert.True(t, m.TestFlag(FlagCompare))
	// Test must not leave any other flag set
	assert.Equal(t, uint16(FlagCompare), m.flags)
}

func TestTestOperations(t *testing.T) {
	cases := []struct {
		name string
		a, b uint16
		op   TestOp
		want bool
	}{
		{"eq set", 444, 444, TestEq, true},
		{"eq unset", 123, 567, TestEq, false},
		{"neq set", 123, 567, TestNeq, true},
		{"neq unset", 444, 444, TestNeq, false},
		{"lt set", 44, 55, TestLt, true},
		{"lt unset", 88, 44, TestLt, false},
		{"lte set", 55, 55, TestLte, true},
		{"lte unset", 88, 44, TestLte, false},
		{"gt set", 88, 44, TestGt, true},
		{"gt unset", 44, 55, TestGt, false},
		{"gte set", 55, 55, TestGte, true},
		{"gte unset", 44, 88, TestGte, false},
		{"both zero set", 0, 0, TestBothZero, true},
		{"both zero unset", 44, 0, TestBothZero, false},
		{"either nonzero set", 44, 0, TestEitherNonZero, true},
		{"either nonzero unset", 0, 0, TestEitherNonZero, false},
		{"both nonzero set", 1, 2, TestBothNonZero, true},
		{"both nonzero unset", 44, 0, TestBothNonZero, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := initVM(t, 1024*4)
			runProgram(t, m, []Instruction{
				Imm(A, lit12(t, tc.a)),
				Imm(B, lit12(t, tc.b)),
				Test(A, B, tc.op),
			})
			assert.Equal(t, tc.want, m.TestFlag(FlagCompare))
		})
	}
}

func TestAddIfFiresAndClearsCompare(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Test(Zero, Zero, TestBothZero),
		AddIf(A, Zero, nib(t, 3)),
	})
	assert.Equal(t, uint16(6), m.GetRegister(A))
	assert.False(t, m.TestFlag(FlagCompare))
}

func TestAddIfNoEffectWithoutCompare(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		AddIf(A, Zero, nib(t, 3)),
	})
	assert.Equal(t, uint16(0), m.GetRegister(A))
}

func TestLoadStoreWord(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 0x100)),
		Imm(C, lit12(t, 0x99)),
		StoreWord(A, Zero, C),
		LoadWord(B, A, Zero),
	})
	assert.Equal(t, uint16(0x99), m.GetRegister(B))

	w, err := m.Memory.ReadWord(0x100)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x99), w)
}

func TestLoadStoreByte(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{
		Imm(A, lit12(t, 0x100)),
		Imm(C, lit12(t, 0x1ff)),
		StoreByte(A, Zero, C),
		LoadByte(B, A, Zero),
	})
	assert.Equal(t, uint16(0xff), m.GetRegister(B))
}

func TestSystemSignalFromRegister(t *testing.T) {
	m := initVM(t, 1024*4)
	got := uint16(0)
	m.DefineHandler(0xf0, func(machine *Machine, arg uint16) error {
		got = arg
		machine.Halt = true
		return nil
	})
	runProgram(t, m, []Instruction{
		Imm(C, lit12(t, 0xf0)),
		System(C, Zero, nib(t, 5)),
	})
	assert.True(t, m.Halt)
	assert.Equal(t, uint16(5), got)
}

func TestSystemUnknownSignal(t *testing.T) {
	m := initVM(t, 1024*4)
	program := []Instruction{System(Zero, Zero, nib(t, 0xe))}
	bytes := make([]byte, 0, 2)
	w := program[0].Encode()
	bytes = append(bytes, byte(w), byte(w>>8))
	require.NoError(t, Load(m.Memory, bytes, 0))

	err := m.Step()
	var unknown *UnknownSignalError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint16(0xe), unknown.Signal)
}

func TestInvalidInstructionFailsStep(t *testing.T) {
	m := initVM(t, 1024*4)
	err := m.Step()
	assert.ErrorIs(t, err, ErrInvalidInstruction)
}

func TestHaltIsTerminal(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, nil)
	assert.True(t, m.Halt)
	require.NoError(t, m.Run(100))
	assert.True(t, m.Halt)
}

func TestRunStepLimit(t *testing.T) {
	m := initVM(t, 1024*4)
	// JumpOffset 0 loops forever
	w := JumpOffset(lit10(t, 0)).Encode()
	require.NoError(t, Load(m.Memory, []byte{byte(w), byte(w >> 8)}, 0))
	err := m.Run(50)
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	m := initVM(t, 1024*4)
	runProgram(t, m, []Instruction{Imm(A, lit12(t, 11))})
	m.Reset()
	assert.False(t, m.Halt)
	assert.Equal(t, uint16(0), m.GetRegister(A))
	assert.Equal(t, uint16(0), m.GetRegister(PC))
}
