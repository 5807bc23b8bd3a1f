// Package codegen lowers the AST to instruction sequences. Forward
// references are emitted as placeholder words and back-patched when
// their labels resolve.
package codegen

import (
	"fmt"

	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/symbols"
	"github.com/unworried/flip/vm"
)

// futureKind selects how a pending reference is patched once its label
// is known.
type futureKind int

const (
	futureImm futureKind = iota
	futureAddImm
)

// pendingRef is a placeholder instruction awaiting a label offset.
type pendingRef struct {
	index    int
	kind     futureKind
	register vm.Register
	label    string
}

// Generator emits instructions while walking the tree. The first error
// latches and aborts the remaining walk.
type Generator struct {
	initialOffset uint32
	currentOffset uint32

	instructions []vm.Instruction

	table        *symbols.Table
	functions    symbols.FunctionTable
	maxScope     int
	currentScope int

	labels  map[string]uint32
	pending []pendingRef

	err error
}

// Generate lowers the program, placing the first instruction at
// initialOffset bytes. The returned sequence contains no unresolved
// placeholders; any leftover pending reference is an error.
func Generate(program *ast.Program, table *symbols.Table, functions symbols.FunctionTable, initialOffset uint32) ([]vm.Instruction, error) {
	g := &Generator{
		initialOffset: initialOffset,
		currentOffset: initialOffset,
		table:         table,
		functions:     functions,
		labels:        make(map[string]uint32),
	}

	g.emitInit()
	ast.WalkProgram(g, program)

	if g.err != nil {
		return nil, g.err
	}
	if len(g.pending) != 0 {
		return nil, fmt.Errorf("unresolved label: %s", g.pending[0].label)
	}
	return g.instructions, nil
}

func (g *Generator) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *Generator) emit(ins vm.Instruction) {
	g.instructions = append(g.instructions, ins)
	g.currentOffset += 2
}

// emitInit is the program prologue: build the root frame, call main,
// and halt once it returns.
func (g *Generator) emitInit() {
	g.emit(vm.Imm(vm.SP, g.lit12(0x3ff)))
	g.emit(vm.ShiftLeft(vm.SP, vm.SP, g.nib(4)))
	g.emit(vm.Stack(vm.BP, vm.SP, vm.StackPush))
	g.emit(vm.Stack(vm.PC, vm.SP, vm.StackPush))
	g.emit(vm.Add(vm.SP, vm.Zero, vm.BP))
	g.immFuture(vm.PC, "main")

	g.emit(vm.Imm(vm.C, g.lit12(0xf0)))
	g.emit(vm.System(vm.C, vm.Zero, g.nib(0)))
}

// emitCompare materializes a Test result as a truthy value on the stack.
func (g *Generator) emitCompare(comp vm.Instruction) {
	g.emit(vm.Stack(vm.B, vm.SP, vm.StackPop))
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPop))
	g.emit(comp)
	g.emit(vm.Add(vm.Zero, vm.Zero, vm.C))
	g.emit(vm.AddIf(vm.C, vm.Zero, g.nib(1)))
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
}

// emitFunctionExit restores the caller's frame and jumps past the call
// sequence. The saved PC sits at BP-2 and the saved BP at BP-4; the +6
// skips the three caller words between the saved PC and the resume
// point.
func (g *Generator) emitFunctionExit() {
	g.emit(vm.LoadStackOffset(vm.C, vm.BP, g.nib(1)))
	g.emit(vm.Add(vm.BP, vm.Zero, vm.SP))
	g.emit(vm.AddImmSigned(vm.SP, g.lit7s(-2)))
	g.emit(vm.LoadStackOffset(vm.BP, vm.BP, g.nib(2)))
	g.emit(vm.AddImm(vm.C, g.lit7(6)))
	g.emit(vm.Add(vm.C, vm.Zero, vm.PC))
}

// immFuture emits Imm(r, @label), deferring when the label is undefined.
func (g *Generator) immFuture(r vm.Register, label string) {
	if offset, ok := g.labels[label]; ok {
		lit, err := vm.NewLiteral12Bit(uint16(offset))
		if err != nil {
			g.fail(fmt.Errorf("label %s: %w", label, err))
			return
		}
		g.emit(vm.Imm(r, lit))
		return
	}
	g.pending = append(g.pending, pendingRef{
		index:    len(g.instructions),
		kind:     futureImm,
		register: r,
		label:    label,
	})
	g.emit(vm.Invalid()) // placeholder patched on label definition
}

// addImmFuture emits AddImm(r, @label) with the same deferral rules.
func (g *Generator) addImmFuture(r vm.Register, label string) {
	if offset, ok := g.labels[label]; ok {
		lit, err := vm.NewLiteral7Bit(uint8(offset))
		if err != nil {
			g.fail(fmt.Errorf("label %s: %w", label, err))
			return
		}
		g.emit(vm.AddImm(r, lit))
		return
	}
	g.pending = append(g.pending, pendingRef{
		index:    len(g.instructions),
		kind:     futureAddImm,
		register: r,
		label:    label,
	})
	g.emit(vm.Invalid())
}

func (g *Generator) defineLabel(label string) {
	g.defineLabelOffset(label, g.currentOffset)
}

// defineLabelOffset records the label and patches every pending
// reference to it in place.
func (g *Generator) defineLabelOffset(label string, offset uint32) {
	g.labels[label] = offset

	remaining := g.pending[:0]
	for _, ref := range g.pending {
		if ref.label != label {
			remaining = append(remaining, ref)
			continue
		}
		switch ref.kind {
		case futureImm:
			lit, err := vm.NewLiteral12Bit(uint16(offset))
			if err != nil {
				g.fail(fmt.Errorf("label %s: %w", label, err))
				continue
			}
			g.instructions[ref.index] = vm.Imm(ref.register, lit)
		case futureAddImm:
			lit, err := vm.NewLiteral7Bit(uint8(offset))
			if err != nil {
				g.fail(fmt.Errorf("label %s: %w", label, err))
				continue
			}
			g.instructions[ref.index] = vm.AddImm(ref.register, lit)
		}
	}
	g.pending = remaining
}

func (g *Generator) enterScope() {
	g.maxScope++
	g.currentScope = g.maxScope
}

func (g *Generator) exitScope() {
	g.currentScope = g.table.Scope(g.currentScope).Parent
}

// checked literal helpers; values here are produced by the generator
// itself, so failures latch as build errors.

func (g *Generator) lit12(v uint16) vm.Literal12Bit {
	l, err := vm.NewLiteral12Bit(v)
	if err != nil {
		g.fail(err)
	}
	return l
}

func (g *Generator) lit7(v uint8) vm.Literal7Bit {
	l, err := vm.NewLiteral7Bit(v)
	if err != nil {
		g.fail(err)
	}
	return l
}

func (g *Generator) lit7s(v int8) vm.Literal7Bit {
	l, err := vm.NewLiteral7BitSigned(v)
	if err != nil {
		g.fail(err)
	}
	return l
}

func (g *Generator) nib(v uint8) vm.Nibble {
	n, err := vm.NewNibble(v)
	if err != nil {
		g.fail(err)
	}
	return n
}
