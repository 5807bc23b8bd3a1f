package vm

import "fmt"

// Register identifies one of the eight machine registers. Registers are
// encoded in three bits inside an instruction word.
type Register uint8

const (
	Zero Register = iota // hardwired zero; writes are discarded
	A
	B
	C
	M
	SP
	PC
	BP
)

const registerCount = 8

var registerNames = [registerCount]string{"Zero", "A", "B", "C", "M", "SP", "PC", "BP"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// RegisterFromName resolves an assembler register token.
func RegisterFromName(name string) (Register, error) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), nil
		}
	}
	return 0, &UnknownRegisterError{Name: name}
}

func registerFromBits(v uint16) Register {
	return Register(v & 0x7)
}

// Flag is a bit in the machine flags word.
type Flag uint16

const (
	// FlagCompare is set by Test and consumed (and cleared) by AddIf.
	FlagCompare Flag = 1 << 0
	// FlagHasJumped marks that PC was written during the current step,
	// suppressing the automatic increment.
	FlagHasJumped Flag = 1 << 1
)
