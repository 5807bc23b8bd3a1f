// Package diagnostics collects compiler errors and warnings across
// passes and renders them against the source text.
package diagnostics

import (
	"fmt"

	"github.com/unworried/flip/source"
)

// Kind separates hard errors from warnings; only errors block emission.
type Kind int

const (
	Error Kind = iota
	Warning
)

func (k Kind) String() string {
	if k == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem. Span is nil for whole-program
// diagnostics such as a missing main function.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    *source.Span
}

// Bag accumulates diagnostics. A single bag is shared by the parser and
// every compiler pass.
type Bag struct {
	Diagnostics []Diagnostic
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) report(kind Kind, message string, span *source.Span) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Kind: kind, Message: message, Span: span})
}

func (b *Bag) error(message string, span source.Span) {
	b.report(Error, message, &span)
}

func (b *Bag) warning(message string, span source.Span) {
	b.report(Warning, message, &span)
}

// HasErrors reports whether any error-kind diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.Diagnostics {
		if d.Kind == Error {
			return true
		}
	}
	return false
}

// Empty reports whether nothing at all was recorded.
func (b *Bag) Empty() bool {
	return len(b.Diagnostics) == 0
}

// Messages returns the raw diagnostic messages, for tests.
func (b *Bag) Messages() []string {
	out := make([]string, len(b.Diagnostics))
	for i, d := range b.Diagnostics {
		out[i] = d.Message
	}
	return out
}

// Parser and pass reporting helpers. Token arguments arrive as display
// strings so this package stays independent of the lexer.

func (b *Bag) ExpectedToken(expected, actual string, span source.Span) {
	b.error(fmt.Sprintf("expected: '%s', found: `%s`", expected, actual), span)
}

func (b *Bag) UnexpectedToken(token string, span source.Span) {
	b.error(fmt.Sprintf("unexpected token: `%s`", token), span)
}

func (b *Bag) ExpectedExpression(found string, span source.Span) {
	b.error(fmt.Sprintf("expected expression, found: `%s`", found), span)
}

func (b *Bag) IllegalToken(span source.Span) {
	b.error("illegal token", span)
}

func (b *Bag) UnknownStatement(token string, span source.Span) {
	b.error(fmt.Sprintf("unknown statement `%s`", token), span)
}

func (b *Bag) InvalidOperator(token string, span source.Span) {
	b.error(fmt.Sprintf("invalid operator `%s`", token), span)
}

func (b *Bag) UnknownExpression(token string, span source.Span) {
	b.error(fmt.Sprintf("unknown expression `%s`", token), span)
}

func (b *Bag) SymbolAlreadyDeclared(name string, span source.Span) {
	b.error(fmt.Sprintf("symbol: `%s` already exists in scope", name), span)
}

func (b *Bag) FunctionAlreadyDeclared(name string, span source.Span) {
	b.error(fmt.Sprintf("function: `%s` already declared", name), span)
}

func (b *Bag) UndeclaredAssignment(name string, span source.Span) {
	b.error(fmt.Sprintf("undeclared symbol: `%s`", name), span)
}

func (b *Bag) UndefinedReference(name string, span source.Span) {
	b.error(fmt.Sprintf("symbol: `%s` is undefined", name), span)
}

func (b *Bag) ReferenceBeforeAssignment(name string, span source.Span) {
	b.error(fmt.Sprintf("symbol: `%s` referenced before assignment", name), span)
}

func (b *Bag) UnusedVariable(name string, span source.Span) {
	b.warning(fmt.Sprintf("unused variable: `%s`", name), span)
}

func (b *Bag) UnusedFunction(name string, span source.Span) {
	b.warning(fmt.Sprintf("unused function: `%s`", name), span)
}

func (b *Bag) EmptyBlock(span source.Span) {
	b.warning("empty block found", span)
}

func (b *Bag) MainNotFound() {
	b.report(Error, "`main` function not found", nil)
}
