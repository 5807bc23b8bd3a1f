package symbols

import (
	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/diagnostics"
)

// Resolver checks that every reference and assignment names a declared
// symbol, counts uses, and warns on unused names. It mirrors the
// builder's scope traversal so scope ids line up.
type Resolver struct {
	table        *Table
	maxScope     int
	currentScope int

	functions   FunctionTable
	diagnostics *diagnostics.Bag
}

// ResolveNames runs the resolver over the program.
func ResolveNames(program *ast.Program, table *Table, functions FunctionTable, bag *diagnostics.Bag) {
	r := &Resolver{table: table, functions: functions, diagnostics: bag}
	ast.WalkProgram(r, program)

	for name, fn := range functions {
		if fn.Uses == 0 {
			r.diagnostics.UnusedFunction(name, fn.Span)
		}
	}
	r.checkUsage()
}

func (r *Resolver) enterScope() {
	r.maxScope++
	r.currentScope = r.maxScope
}

func (r *Resolver) exitScope() {
	r.checkUsage()
	r.currentScope = r.table.Scope(r.currentScope).Parent
}

// checkUsage warns on symbols of the current scope that were never read.
func (r *Resolver) checkUsage() {
	scope := r.table.Scope(r.currentScope)
	if scope == nil {
		return
	}
	for name, info := range scope.Symbols {
		if info.Uses == 0 {
			r.diagnostics.UnusedVariable(name, info.Span)
		}
	}
}

func (r *Resolver) VisitFunction(fn *ast.Function) {
	r.enterScope()
	ast.WalkFunction(r, fn)
	r.exitScope()
}

func (r *Resolver) VisitIf(node *ast.If) {
	r.enterScope()
	node.Condition.Accept(r)
	node.Then.Accept(r)
	r.exitScope()
}

func (r *Resolver) VisitWhile(node *ast.While) {
	r.enterScope()
	node.Condition.Accept(r)
	node.Then.Accept(r)
	r.exitScope()
}

func (r *Resolver) VisitAssignment(a *ast.Assignment) {
	if r.table.LookupSymbol(a.Pattern.Name, r.currentScope) == nil {
		r.diagnostics.UndeclaredAssignment(a.Pattern.Name, a.Pattern.Sp)
	}
	a.Value.Accept(r)
}

func (r *Resolver) VisitVariable(v *ast.Variable) {
	info := r.table.LookupSymbol(v.Name, r.currentScope)
	if info == nil {
		r.diagnostics.UndefinedReference(v.Name, v.Sp)
		return
	}
	info.Uses++
}

func (r *Resolver) VisitCall(c *ast.Call) {
	if fn, ok := r.functions[c.Pattern.Name]; ok {
		fn.Uses++
	} else {
		r.diagnostics.UndefinedReference(c.Pattern.Name, c.Pattern.Sp)
	}
	ast.WalkCall(r, c)
}

func (r *Resolver) VisitSequence(seq *ast.Sequence) { ast.WalkSequence(r, seq) }
func (r *Resolver) VisitDefinition(d *ast.Definition) {
	ast.WalkDefinition(r, d)
}
func (r *Resolver) VisitReturn(ret *ast.Return)   { ast.WalkReturn(r, ret) }
func (r *Resolver) VisitBinary(bin *ast.Binary)   { ast.WalkBinary(r, bin) }
func (r *Resolver) VisitUnary(u *ast.Unary)       { ast.WalkUnary(r, u) }
func (r *Resolver) VisitLiteral(*ast.Literal)     {}
