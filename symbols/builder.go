package symbols

import (
	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/diagnostics"
	"github.com/unworried/flip/source"
)

// Builder populates the symbol and function tables. Scopes are created
// for each function body, if body and while body, in walk order.
type Builder struct {
	table        *Table
	maxScope     int
	currentScope int

	functions   FunctionTable
	currentFn   *FunctionInfo
	localIdx    int
	argumentIdx int

	diagnostics *diagnostics.Bag
}

// BuildSymbolTable walks the program and returns the populated tables.
// A missing main function is reported to the bag.
func BuildSymbolTable(program *ast.Program, bag *diagnostics.Bag) (*Table, FunctionTable) {
	b := &Builder{
		table:       NewTable(),
		functions:   make(FunctionTable),
		diagnostics: bag,
	}
	ast.WalkProgram(b, program)

	if main, ok := b.functions["main"]; ok {
		main.Uses++
	} else {
		bag.MainNotFound()
	}

	return b.table, b.functions
}

func (b *Builder) enterScope() {
	b.table.InsertScope(b.currentScope)
	b.maxScope++
	b.currentScope = b.maxScope
}

func (b *Builder) exitScope() {
	b.currentScope = b.table.Scope(b.currentScope).Parent
}

func (b *Builder) defineVariable(pattern ast.Pattern, span source.Span, ty ast.Type, defType DefinitionType) {
	if b.table.IsShadowing(pattern.Name, b.currentScope) {
		b.diagnostics.SymbolAlreadyDeclared(pattern.Name, pattern.Sp)
		return
	}

	var idx int
	if defType == Local {
		idx = b.localIdx
		b.localIdx++
		if b.currentFn != nil {
			b.currentFn.Locals = b.localIdx
		}
	} else {
		idx = b.argumentIdx
		b.argumentIdx++
	}

	b.table.InsertSymbol(pattern.Name, b.currentScope, &SymbolInfo{
		Type:      ty,
		DefType:   defType,
		SymbolIdx: idx,
		Span:      span,
	})
}

func (b *Builder) VisitFunction(fn *ast.Function) {
	if _, exists := b.functions[fn.Pattern.Name]; exists {
		b.diagnostics.FunctionAlreadyDeclared(fn.Pattern.Name, fn.Pattern.Sp)
		b.currentFn = nil
	} else {
		info := &FunctionInfo{
			ReturnType: fn.ReturnType,
			LocalIdx:   len(b.functions),
			Span:       fn.Sp,
		}
		b.functions[fn.Pattern.Name] = info
		b.currentFn = info
	}

	b.localIdx = 0
	b.argumentIdx = 0

	b.enterScope()
	for _, param := range fn.Parameters {
		b.defineVariable(param, param.Sp, ast.TypeUnresolved, Argument)
	}
	ast.WalkFunction(b, fn)
	b.exitScope()
}

func (b *Builder) VisitIf(node *ast.If) {
	node.Condition.Accept(b)
	b.enterScope()
	node.Then.Accept(b)
	b.exitScope()
}

func (b *Builder) VisitWhile(node *ast.While) {
	node.Condition.Accept(b)
	b.enterScope()
	node.Then.Accept(b)
	b.exitScope()
}

func (b *Builder) VisitDefinition(def *ast.Definition) {
	b.defineVariable(def.Pattern, def.Sp, ast.TypeOf(def.Value), Local)
	def.Value.Accept(b)
}

func (b *Builder) VisitSequence(seq *ast.Sequence) { ast.WalkSequence(b, seq) }
func (b *Builder) VisitAssignment(a *ast.Assignment) {
	ast.WalkAssignment(b, a)
}
func (b *Builder) VisitReturn(r *ast.Return)     { ast.WalkReturn(b, r) }
func (b *Builder) VisitCall(c *ast.Call)         { ast.WalkCall(b, c) }
func (b *Builder) VisitBinary(bin *ast.Binary)   { ast.WalkBinary(b, bin) }
func (b *Builder) VisitUnary(u *ast.Unary)       { ast.WalkUnary(b, u) }
func (b *Builder) VisitLiteral(*ast.Literal)     {}
func (b *Builder) VisitVariable(*ast.Variable)   {}
