// Package symbols holds the scoped symbol table shared by the compiler
// passes: a builder populates it, the name resolver checks uses, and the
// code generator reads indices and frame sizes from it.
package symbols

import (
	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/source"
)

// DefinitionType separates stack locals from call arguments; the two
// resolve to different frame addressing.
type DefinitionType int

const (
	Local DefinitionType = iota
	Argument
)

// SymbolInfo describes one declared name.
type SymbolInfo struct {
	Type      ast.Type
	DefType   DefinitionType
	Uses      int
	SymbolIdx int
	Span      source.Span
}

// FunctionInfo describes one declared function.
type FunctionInfo struct {
	ReturnType ast.Type
	Uses       int
	LocalIdx   int
	Locals     int // stack locals declared anywhere in the function
	Span       source.Span
}

// FunctionTable maps function names to their metadata. Insertion order
// is not significant; lookups go by name.
type FunctionTable map[string]*FunctionInfo

// Scope is one node of the scope forest. The root scope has parent -1.
type Scope struct {
	Parent  int
	Symbols map[string]*SymbolInfo
}

// Table is an arena of scopes indexed by scope id. Scopes are created in
// AST walk order and never destroyed, so every pass that mirrors the
// walk observes identical ids.
type Table struct {
	Scopes []*Scope
}

// NewTable creates a table holding only the root scope.
func NewTable() *Table {
	return &Table{Scopes: []*Scope{{Parent: -1, Symbols: make(map[string]*SymbolInfo)}}}
}

// InsertScope appends a child scope and returns its id.
func (t *Table) InsertScope(parent int) int {
	t.Scopes = append(t.Scopes, &Scope{Parent: parent, Symbols: make(map[string]*SymbolInfo)})
	return len(t.Scopes) - 1
}

// Scope returns the scope with the given id, or nil.
func (t *Table) Scope(idx int) *Scope {
	if idx < 0 || idx >= len(t.Scopes) {
		return nil
	}
	return t.Scopes[idx]
}

// InsertSymbol binds name in the given scope.
func (t *Table) InsertSymbol(name string, scopeIdx int, info *SymbolInfo) {
	t.Scopes[scopeIdx].Symbols[name] = info
}

// IsShadowing reports whether name is visible from the given scope,
// including outer scopes.
func (t *Table) IsShadowing(name string, scopeIdx int) bool {
	for idx := scopeIdx; idx >= 0; idx = t.Scopes[idx].Parent {
		if _, ok := t.Scopes[idx].Symbols[name]; ok {
			return true
		}
	}
	return false
}

// LookupSymbol resolves name from the given scope outward.
func (t *Table) LookupSymbol(name string, scopeIdx int) *SymbolInfo {
	for idx := scopeIdx; idx >= 0; idx = t.Scopes[idx].Parent {
		if info, ok := t.Scopes[idx].Symbols[name]; ok {
			return info
		}
	}
	return nil
}
