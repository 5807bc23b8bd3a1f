package vm

import (
	"fmt"
)

// SignalFunc handles a System trap. Handlers run synchronously and may
// mutate any machine state, including setting Halt.
type SignalFunc func(m *Machine, arg uint16) error

// Machine is the virtual machine: eight 16-bit registers, a flags word,
// a halt latch, a signal handler table and a mapped address space.
type Machine struct {
	registers [registerCount]uint16
	flags     uint16
	handlers  map[uint8]SignalFunc

	Halt   bool
	Memory *MemoryMapper
}

// NewMachine creates a machine with zeroed registers, the halt latch
// clear, no signal handlers and an empty address space.
func NewMachine() *Machine {
	return &Machine{
		handlers: make(map[uint8]SignalFunc),
		Memory:   NewMemoryMapper(),
	}
}

// Map adds a memory region to the machine's address space.
func (m *Machine) Map(start, size uint32, region Addressable) error {
	return m.Memory.Map(start, size, region)
}

// Reset zeroes memory, registers and flags and clears the halt latch.
func (m *Machine) Reset() {
	_ = m.Memory.ZeroAll()
	m.registers = [registerCount]uint16{}
	m.flags = 0
	m.Halt = false
}

// GetRegister reads a register; Zero always reads 0.
func (m *Machine) GetRegister(r Register) uint16 {
	if r == Zero {
		return 0
	}
	return m.registers[r]
}

// SetRegister writes a register. Writes to Zero are discarded; writes to
// PC additionally set the has-jumped flag so Step skips the automatic
// increment.
func (m *Machine) SetRegister(r Register, v uint16) {
	if r == Zero {
		return
	}
	m.registers[r] = v
	if r == PC {
		m.setFlag(FlagHasJumped, true)
	}
}

// DefineHandler installs a signal handler for the given signal number.
func (m *Machine) DefineHandler(signal uint8, fn SignalFunc) {
	m.handlers[signal] = fn
}

// TestFlag reports whether the given flag bit is set.
func (m *Machine) TestFlag(f Flag) bool {
	return m.flags&uint16(f) != 0
}

func (m *Machine) setFlag(f Flag, state bool) {
	if state {
		m.flags |= uint16(f)
	} else {
		m.flags &^= uint16(f)
	}
}

// State renders a one-line register dump.
func (m *Machine) State() string {
	return fmt.Sprintf(
		"A: %d | B: %d | C: %d | M: %d | SP: %d | PC: %d | BP: %d | Flags: %016b",
		m.GetRegister(A), m.GetRegister(B), m.GetRegister(C), m.GetRegister(M),
		m.GetRegister(SP), m.GetRegister(PC), m.GetRegister(BP), m.flags,
	)
}

func (m *Machine) pop(sp Register) (uint16, error) {
	top := m.GetRegister(sp) - 2
	v, err := m.Memory.ReadWord(uint32(top))
	if err != nil {
		return 0, err
	}
	m.SetRegister(sp, top)
	return v, nil
}

func (m *Machine) peek(sp Register) (uint16, error) {
	return m.Memory.ReadWord(uint32(m.GetRegister(sp) - 2))
}

func (m *Machine) push(sp Register, v uint16) error {
	top := m.GetRegister(sp)
	m.SetRegister(sp, top+2)
	return m.Memory.WriteWord(uint32(top), v)
}

// Step fetches, decodes and executes one instruction. PC advances by two
// unless the instruction wrote PC.
func (m *Machine) Step() error {
	pc := m.GetRegister(PC)
	word, err := m.Memory.ReadWord(uint32(pc))
	if err != nil {
		return fmt.Errorf("fetch at PC=0x%04X: %w", pc, err)
	}

	m.setFlag(FlagHasJumped, false)

	ins, err := Decode(word)
	if err != nil {
		return fmt.Errorf("decode at PC=0x%04X: %w", pc, err)
	}

	if err := m.execute(ins); err != nil {
		return err
	}

	if !m.TestFlag(FlagHasJumped) {
		m.SetRegister(PC, pc+2)
		m.setFlag(FlagHasJumped, false)
	}
	return nil
}

// Run steps until halt or error, bounded by maxSteps when positive.
func (m *Machine) Run(maxSteps int) error {
	steps := 0
	for !m.Halt {
		if maxSteps > 0 && steps >= maxSteps {
			return fmt.Errorf("step limit exceeded (%d steps)", maxSteps)
		}
		if err := m.Step(); err != nil {
			return err
		}
		steps++
	}
	return nil
}

func (m *Machine) execute(ins Instruction) error {
	switch ins.Op {
	case OpInvalid:
		return ErrInvalidInstruction

	case OpImm:
		m.SetRegister(ins.RA, ins.Lit)

	case OpAdd:
		m.SetRegister(ins.RC, m.GetRegister(ins.RA)+m.GetRegister(ins.RB))

	case OpSub:
		m.SetRegister(ins.RC, m.GetRegister(ins.RA)-m.GetRegister(ins.RB))

	case OpAddImm:
		m.SetRegister(ins.RA, m.GetRegister(ins.RA)+ins.Lit)

	case OpAddImmSigned:
		v := int16(m.GetRegister(ins.RA)) + int16(Literal7Bit(ins.Lit).Signed())
		m.SetRegister(ins.RA, uint16(v))

	case OpShiftLeft:
		m.SetRegister(ins.RB, m.GetRegister(ins.RA)<<ins.Nib)

	case OpShiftRightLogical:
		m.SetRegister(ins.RB, m.GetRegister(ins.RA)>>ins.Nib)

	case OpShiftRightArithmetic:
		m.SetRegister(ins.RB, uint16(int16(m.GetRegister(ins.RA))>>ins.Nib))

	case OpLoadWord:
		addr := pageAddr(m.GetRegister(ins.RB), m.GetRegister(ins.RC))
		w, err := m.Memory.ReadWord(addr)
		if err != nil {
			return err
		}
		m.SetRegister(ins.RA, w)

	case OpStoreWord:
		addr := pageAddr(m.GetRegister(ins.RA), m.GetRegister(ins.RB))
		return m.Memory.WriteWord(addr, m.GetRegister(ins.RC))

	case OpLoadByte:
		addr := pageAddr(m.GetRegister(ins.RB), m.GetRegister(ins.RC))
		b, err := m.Memory.Read(addr)
		if err != nil {
			return err
		}
		m.SetRegister(ins.RA, uint16(b))

	case OpStoreByte:
		addr := pageAddr(m.GetRegister(ins.RA), m.GetRegister(ins.RB))
		return m.Memory.Write(addr, byte(m.GetRegister(ins.RC)))

	case OpJumpOffset:
		m.SetRegister(PC, m.GetRegister(PC)+ins.Lit)

	case OpSetAndSave:
		v := m.GetRegister(ins.RB)
		m.SetRegister(ins.RC, m.GetRegister(ins.RA))
		m.SetRegister(ins.RA, v)

	case OpAddAndSave:
		v := m.GetRegister(ins.RA)
		m.SetRegister(ins.RC, v)
		m.SetRegister(ins.RA, v+m.GetRegister(ins.RB))

	case OpTest:
		v0 := m.GetRegister(ins.RA)
		v1 := m.GetRegister(ins.RB)
		var res bool
		switch ins.Test {
		case TestEq:
			res = v0 == v1
		case TestNeq:
			res = v0 != v1
		case TestLt:
			res = v0 < v1
		case TestLte:
			res = v0 <= v1
		case TestGt:
			res = v0 > v1
		case TestGte:
			res = v0 >= v1
		case TestBothZero:
			res = v0 == 0 && v1 == 0
		case TestEitherNonZero:
			res = v0 != 0 || v1 != 0
		case TestBothNonZero:
			res = v0 != 0 && v1 != 0
		}
		m.setFlag(FlagCompare, res)

	case OpAddIf:
		if m.TestFlag(FlagCompare) {
			m.SetRegister(ins.RA, m.GetRegister(ins.RB)+2*uint16(ins.Nib))
			m.setFlag(FlagCompare, false)
		}

	case OpStack:
		return m.executeStack(ins)

	case OpLoadStackOffset:
		addr := m.GetRegister(ins.RB) - 2*uint16(ins.Nib)
		w, err := m.Memory.ReadWord(uint32(addr))
		if err != nil {
			return err
		}
		m.SetRegister(ins.RA, w)

	case OpSystem:
		return m.executeSystem(ins)

	default:
		return &UnknownOpcodeError{Opcode: uint8(ins.Op)}
	}
	return nil
}

// pageAddr forms a 32-bit address from a 16-bit base and a 16-bit page.
func pageAddr(base, page uint16) uint32 {
	return uint32(base) | uint32(page)<<16
}

func (m *Machine) executeStack(ins Instruction) error {
	r, sp := ins.RA, ins.RB
	switch ins.Stk {
	case StackPush:
		return m.push(sp, m.GetRegister(r))
	case StackPop:
		v, err := m.pop(sp)
		if err != nil {
			return err
		}
		m.SetRegister(r, v)
	case StackPeek:
		v, err := m.peek(sp)
		if err != nil {
			return err
		}
		m.SetRegister(r, v)
	case StackDup:
		v, err := m.peek(sp)
		if err != nil {
			return err
		}
		return m.push(sp, v)
	case StackSwap:
		a, err := m.pop(sp)
		if err != nil {
			return err
		}
		b, err := m.pop(sp)
		if err != nil {
			return err
		}
		if err := m.push(sp, a); err != nil {
			return err
		}
		return m.push(sp, b)
	case StackRotate:
		a, err := m.pop(sp)
		if err != nil {
			return err
		}
		b, err := m.pop(sp)
		if err != nil {
			return err
		}
		c, err := m.pop(sp)
		if err != nil {
			return err
		}
		if err := m.push(sp, a); err != nil {
			return err
		}
		if err := m.push(sp, c); err != nil {
			return err
		}
		return m.push(sp, b)
	case StackAdd:
		a, err := m.pop(sp)
		if err != nil {
			return err
		}
		b, err := m.pop(sp)
		if err != nil {
			return err
		}
		return m.push(sp, a+b)
	case StackSub:
		a, err := m.pop(sp)
		if err != nil {
			return err
		}
		b, err := m.pop(sp)
		if err != nil {
			return err
		}
		return m.push(sp, a-b)
	}
	return nil
}

func (m *Machine) executeSystem(ins Instruction) error {
	if ins.RA == Zero {
		fn, ok := m.handlers[uint8(ins.Nib)]
		if !ok {
			return &UnknownSignalError{Signal: uint16(ins.Nib)}
		}
		return fn(m, m.GetRegister(ins.RB))
	}

	sig := m.GetRegister(ins.RA)
	if sig > 0xff {
		return &UnknownSignalError{Signal: sig}
	}
	fn, ok := m.handlers[uint8(sig)]
	if !ok {
		return &UnknownSignalError{Signal: sig}
	}
	return fn(m, uint16(ins.Nib))
}
