package codegen

import (
	"fmt"

	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/symbols"
	"github.com/unworried/flip/vm"
)

func (g *Generator) VisitFunction(fn *ast.Function) {
	if g.err != nil {
		return
	}
	g.defineLabel(fn.Pattern.Name)

	// Local space is not known until the body has been walked; reserve
	// through a forward offset resolved at function exit.
	localOffsetLabel := fmt.Sprintf("__internal_%s_local_offset", fn.Pattern.Name)
	g.addImmFuture(vm.SP, localOffsetLabel)

	g.enterScope()
	ast.WalkFunction(g, fn)
	g.exitScope()

	g.emitFunctionExit()

	locals := 0
	if info, ok := g.functions[fn.Pattern.Name]; ok {
		locals = info.Locals
	}
	g.defineLabelOffset(localOffsetLabel, uint32(locals)*2)
}

func (g *Generator) VisitReturn(ret *ast.Return) {
	if g.err != nil {
		return
	}
	ast.WalkReturn(g, ret)
	g.emit(vm.Stack(vm.A, vm.SP, vm.StackPop))
	g.emitFunctionExit()
}

func (g *Generator) VisitCall(call *ast.Call) {
	if g.err != nil {
		return
	}
	// Arguments are evaluated right to left so the first declared
	// argument lands nearest the saved frame.
	for i := len(call.Arguments) - 1; i >= 0; i-- {
		call.Arguments[i].Accept(g)
	}

	g.emit(vm.Stack(vm.BP, vm.SP, vm.StackPush))
	g.emit(vm.Stack(vm.PC, vm.SP, vm.StackPush))
	g.emit(vm.Add(vm.SP, vm.Zero, vm.BP))
	g.immFuture(vm.PC, call.Pattern.Name)

	// The call is an rvalue; its result rides the stack.
	g.emit(vm.Stack(vm.A, vm.SP, vm.StackPush))
}

func (g *Generator) VisitIf(node *ast.If) {
	if g.err != nil {
		return
	}
	blockID := fmt.Sprintf("%d%d", node.Sp.Start, node.Sp.End)
	trueLabel := fmt.Sprintf("lbl_%s_if_true", blockID)
	outLabel := fmt.Sprintf("lbl_%s_if_out", blockID)

	node.Condition.Accept(g)

	// test cond == false
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPop))
	g.emit(vm.Test(vm.C, vm.Zero, vm.TestBothZero))
	g.emit(vm.AddIf(vm.PC, vm.PC, g.nib(2)))
	g.immFuture(vm.PC, trueLabel)

	g.immFuture(vm.PC, outLabel)

	g.defineLabel(trueLabel)
	g.enterScope()
	node.Then.Accept(g)
	g.exitScope()

	g.immFuture(vm.PC, outLabel)
	g.defineLabel(outLabel)
}

func (g *Generator) VisitWhile(node *ast.While) {
	if g.err != nil {
		return
	}
	blockID := fmt.Sprintf("%d%d", node.Sp.Start, node.Sp.End)
	condLabel := fmt.Sprintf("lbl_%s_while_cond", blockID)
	outLabel := fmt.Sprintf("lbl_%s_while_out", blockID)

	g.defineLabel(condLabel)
	node.Condition.Accept(g)

	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPop))
	g.emit(vm.Test(vm.C, vm.Zero, vm.TestEitherNonZero))
	g.emit(vm.AddIf(vm.PC, vm.PC, g.nib(2)))
	g.immFuture(vm.PC, outLabel)

	g.enterScope()
	node.Then.Accept(g)
	g.exitScope()

	g.immFuture(vm.PC, condLabel)
	g.defineLabel(outLabel)
}

// storeLocal pops the value on top of the stack into the local's frame
// slot at BP + 2*idx.
func (g *Generator) storeLocal(idx int) {
	addr := idx * 2
	if addr > 0x7f {
		g.fail(fmt.Errorf("local offset %d exceeds addressable frame", addr))
		return
	}
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPop))
	g.emit(vm.Add(vm.BP, vm.Zero, vm.B))
	g.emit(vm.AddImm(vm.B, g.lit7(uint8(addr))))
	g.emit(vm.StoreWord(vm.B, vm.Zero, vm.C))
}

func (g *Generator) VisitDefinition(def *ast.Definition) {
	if g.err != nil {
		return
	}
	def.Value.Accept(g)

	info := g.table.LookupSymbol(def.Pattern.Name, g.currentScope)
	if info == nil {
		g.fail(fmt.Errorf("symbol %s missing from table", def.Pattern.Name))
		return
	}
	g.storeLocal(info.SymbolIdx)
}

func (g *Generator) VisitAssignment(assign *ast.Assignment) {
	if g.err != nil {
		return
	}
	assign.Value.Accept(g)

	info := g.table.LookupSymbol(assign.Pattern.Name, g.currentScope)
	if info == nil {
		g.fail(fmt.Errorf("symbol %s missing from table", assign.Pattern.Name))
		return
	}
	g.storeLocal(info.SymbolIdx)
}

func (g *Generator) VisitVariable(v *ast.Variable) {
	if g.err != nil {
		return
	}
	info := g.table.LookupSymbol(v.Name, g.currentScope)
	if info == nil {
		g.fail(fmt.Errorf("symbol %s missing from table", v.Name))
		return
	}

	switch info.DefType {
	case symbols.Local:
		addr := info.SymbolIdx * 2
		if addr > 0x7f {
			g.fail(fmt.Errorf("local offset %d exceeds addressable frame", addr))
			return
		}
		g.emit(vm.Add(vm.BP, vm.Zero, vm.C))
		g.emit(vm.AddImm(vm.C, g.lit7(uint8(addr))))
		g.emit(vm.LoadWord(vm.C, vm.C, vm.Zero))
		g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
	case symbols.Argument:
		// Arguments sit below the saved PC/BP pair.
		offset := info.SymbolIdx + 3
		if offset > 0xf {
			g.fail(fmt.Errorf("argument offset %d exceeds addressable frame", offset))
			return
		}
		g.emit(vm.LoadStackOffset(vm.C, vm.BP, g.nib(uint8(offset))))
		g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
	}
}

func (g *Generator) VisitBinary(bin *ast.Binary) {
	if g.err != nil {
		return
	}
	// Right first, so the left operand ends up on top of the stack.
	bin.Right.Accept(g)
	bin.Left.Accept(g)

	switch bin.Op {
	case ast.OpAdd:
		g.emit(vm.Stack(vm.Zero, vm.SP, vm.StackAdd))
	case ast.OpSub:
		g.emit(vm.Stack(vm.Zero, vm.SP, vm.StackSub))
	case ast.OpMul, ast.OpDiv:
		g.fail(fmt.Errorf("operator %s is not supported", bin.Op))
	case ast.OpEq:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestEq))
	case ast.OpNotEq:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestNeq))
	case ast.OpLessThan:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestLt))
	case ast.OpLessThanEq:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestLte))
	case ast.OpGreaterThan:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestGt))
	case ast.OpGreaterThanEq:
		g.emitCompare(vm.Test(vm.B, vm.C, vm.TestGte))
	}
}

func (g *Generator) VisitUnary(u *ast.Unary) {
	if g.err != nil {
		return
	}
	u.Operand.Accept(g)

	// negation: 0 - operand
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPop))
	g.emit(vm.Sub(vm.Zero, vm.C, vm.C))
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
}

func (g *Generator) VisitLiteral(lit *ast.Literal) {
	if g.err != nil {
		return
	}
	switch lit.Kind {
	case ast.LitInt:
		g.emitIntLiteral(lit.Int)
	case ast.LitChar:
		code := uint16(0)
		if len(lit.Str) > 0 {
			code = uint16(lit.Str[0])
		}
		g.emit(vm.Imm(vm.C, g.lit12(code)))
		g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
	case ast.LitString:
		g.fail(fmt.Errorf("string literals are not supported"))
	}
}

// emitIntLiteral loads v into C and pushes it. Values above 12 bits are
// assembled with a shift; values above 16 bits are unsupported.
func (g *Generator) emitIntLiteral(v uint64) {
	switch {
	case v <= 0xfff:
		g.emit(vm.Imm(vm.C, g.lit12(uint16(v))))
	case v <= 0xffff && v&0xf == 0:
		g.emit(vm.Imm(vm.C, g.lit12(uint16(v>>4))))
		g.emit(vm.ShiftLeft(vm.C, vm.C, g.nib(4)))
	case v <= 0xffff:
		g.emit(vm.Imm(vm.C, g.lit12(uint16(v>>4))))
		g.emit(vm.ShiftLeft(vm.C, vm.C, g.nib(4)))
		g.emit(vm.AddImm(vm.C, g.lit7(uint8(v&0xf))))
	default:
		g.fail(fmt.Errorf("integer literal %d does not fit in a word", v))
		return
	}
	g.emit(vm.Stack(vm.C, vm.SP, vm.StackPush))
}

func (g *Generator) VisitSequence(seq *ast.Sequence) {
	if g.err != nil {
		return
	}
	ast.WalkSequence(g, seq)
}
