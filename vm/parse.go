package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber accepts assembler numeric literals: $ff (hex), %1010
// (binary), 0x1f (hex) or plain decimal.
func ParseNumber(s string) (uint32, error) {
	digits, base := splitNumber(s)
	if digits == "" {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return uint32(v), nil
}

func splitNumber(s string) (digits string, base int) {
	switch {
	case strings.HasPrefix(s, "$"):
		return s[1:], 16
	case strings.HasPrefix(s, "%"):
		return s[1:], 2
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return s[2:], 16
	default:
		return s, 10
	}
}

func parseTestOp(s string) (TestOp, error) {
	for i, n := range testOpNames {
		if n == s {
			return TestOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown test operation: %s", s)
}

func parseStackOp(s string) (StackOp, error) {
	for i, n := range stackOpNames {
		if n == s {
			return StackOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stack operation: %s", s)
}

var mnemonics = map[string]Opcode{
	"Invalid":              OpInvalid,
	"Imm":                  OpImm,
	"Add":                  OpAdd,
	"Sub":                  OpSub,
	"AddImm":               OpAddImm,
	"AddImmSigned":         OpAddImmSigned,
	"ShiftLeft":            OpShiftLeft,
	"ShiftRightLogical":    OpShiftRightLogical,
	"ShiftRightArithmetic": OpShiftRightArithmetic,
	"LoadWord":             OpLoadWord,
	"StoreWord":            OpStoreWord,
	"LoadByte":             OpLoadByte,
	"StoreByte":            OpStoreByte,
	"JumpOffset":           OpJumpOffset,
	"SetAndSave":           OpSetAndSave,
	"AddAndSave":           OpAddAndSave,
	"Test":                 OpTest,
	"AddIf":                OpAddIf,
	"Stack":                OpStack,
	"LoadStackOffset":      OpLoadStackOffset,
	"System":               OpSystem,
}

var opcodeMnemonics = func() map[Opcode]string {
	m := make(map[Opcode]string, len(mnemonics))
	for name, op := range mnemonics {
		m[op] = name
	}
	return m
}()

// Parse reads one textual instruction of the form "Mnemonic arg0 arg1 ...".
// An empty line yields ErrNoContent.
func Parse(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, ErrNoContent
	}

	op, ok := mnemonics[fields[0]]
	if !ok {
		return Instruction{}, fmt.Errorf("unknown mnemonic: %s", fields[0])
	}
	args := fields[1:]

	switch op {
	case OpInvalid:
		return Invalid(), nil
	case OpImm:
		r, v, err := regLit(args, 0xfff)
		if err != nil {
			return Instruction{}, err
		}
		return Imm(r, Literal12Bit(v)), nil
	case OpAddImm, OpAddImmSigned:
		r, v, err := regLit(args, 0x7f)
		if err != nil {
			return Instruction{}, err
		}
		i := Instruction{Op: op, RA: r, Lit: uint16(v)}
		return i, nil
	case OpJumpOffset:
		if err := arity(args, 1); err != nil {
			return Instruction{}, err
		}
		v, err := boundedNumber(args[0], 0x3ff)
		if err != nil {
			return Instruction{}, err
		}
		return JumpOffset(Literal10Bit(v)), nil
	case OpTest:
		r0, r1, err := twoRegs(args, 3)
		if err != nil {
			return Instruction{}, err
		}
		t, err := parseTestOp(args[2])
		if err != nil {
			return Instruction{}, err
		}
		return Test(r0, r1, t), nil
	case OpStack:
		r0, r1, err := twoRegs(args, 3)
		if err != nil {
			return Instruction{}, err
		}
		s, err := parseStackOp(args[2])
		if err != nil {
			return Instruction{}, err
		}
		return Stack(r0, r1, s), nil
	case OpShiftLeft, OpShiftRightLogical, OpShiftRightArithmetic,
		OpAddIf, OpLoadStackOffset, OpSystem:
		r0, r1, err := twoRegs(args, 3)
		if err != nil {
			return Instruction{}, err
		}
		v, err := boundedNumber(args[2], 0xf)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, RA: r0, RB: r1, Nib: Nibble(v)}, nil
	default:
		// three-register shapes
		if err := arity(args, 3); err != nil {
			return Instruction{}, err
		}
		r0, err := RegisterFromName(args[0])
		if err != nil {
			return Instruction{}, err
		}
		r1, err := RegisterFromName(args[1])
		if err != nil {
			return Instruction{}, err
		}
		r2, err := RegisterFromName(args[2])
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, RA: r0, RB: r1, RC: r2}, nil
	}
}

func arity(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d operands, got %d", n, len(args))
	}
	return nil
}

func twoRegs(args []string, n int) (Register, Register, error) {
	if err := arity(args, n); err != nil {
		return 0, 0, err
	}
	r0, err := RegisterFromName(args[0])
	if err != nil {
		return 0, 0, err
	}
	r1, err := RegisterFromName(args[1])
	if err != nil {
		return 0, 0, err
	}
	return r0, r1, nil
}

func regLit(args []string, max uint32) (Register, uint32, error) {
	if err := arity(args, 2); err != nil {
		return 0, 0, err
	}
	r, err := RegisterFromName(args[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := boundedNumber(args[1], max)
	if err != nil {
		return 0, 0, err
	}
	return r, v, nil
}

func boundedNumber(s string, max uint32) (uint32, error) {
	v, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, &LiteralOutOfRangeError{Value: int(v), Bits: bitWidth(max)}
	}
	return v, nil
}

func bitWidth(max uint32) int {
	bits := 0
	for max > 0 {
		bits++
		max >>= 1
	}
	return bits
}

// String renders the mnemonic form accepted by Parse, so disassembly
// round-trips through the assembler.
func (i Instruction) String() string {
	name := opcodeMnemonics[i.Op]
	switch i.Op {
	case OpInvalid:
		return "Invalid"
	case OpImm:
		return fmt.Sprintf("%s %s %d", name, i.RA, i.Lit)
	case OpAddImm, OpAddImmSigned:
		return fmt.Sprintf("%s %s %d", name, i.RA, i.Lit)
	case OpJumpOffset:
		return fmt.Sprintf("%s %d", name, i.Lit)
	case OpTest:
		return fmt.Sprintf("%s %s %s %s", name, i.RA, i.RB, i.Test)
	case OpStack:
		return fmt.Sprintf("%s %s %s %s", name, i.RA, i.RB, i.Stk)
	case OpShiftLeft, OpShiftRightLogical, OpShiftRightArithmetic,
		OpAddIf, OpLoadStackOffset, OpSystem:
		return fmt.Sprintf("%s %s %s %d", name, i.RA, i.RB, i.Nib)
	default:
		return fmt.Sprintf("%s %s %s %s", name, i.RA, i.RB, i.RC)
	}
}
