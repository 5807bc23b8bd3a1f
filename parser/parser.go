// Package parser builds the AST from tokens. It is error tolerant:
// problems are reported to the shared diagnostics bag and parsing
// continues on a best-effort basis.
package parser

import (
	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/diagnostics"
	"github.com/unworried/flip/lexer"
	"github.com/unworried/flip/source"
)

// Parser consumes tokens with one token of lookahead.
type Parser struct {
	lex *lexer.Lexer

	current     lexer.Token
	currentSpan source.Span
	next        lexer.Token
	nextSpan    source.Span

	Diagnostics *diagnostics.Bag
}

// New primes a parser with the first two tokens.
func New(lex *lexer.Lexer, bag *diagnostics.Bag) *Parser {
	p := &Parser{lex: lex, Diagnostics: bag}
	p.current, p.currentSpan = lex.Next()
	p.next, p.nextSpan = lex.Next()
	p.reportIllegal()
	return p
}

// Parse consumes the whole input and returns the program tree.
func (p *Parser) Parse() *ast.Program {
	return p.parseProgram()
}

func (p *Parser) step() {
	if p.currentIs(lexer.Eof) {
		return
	}
	p.current, p.currentSpan = p.next, p.nextSpan
	p.next, p.nextSpan = p.lex.Next()
	p.reportIllegal()
}

func (p *Parser) reportIllegal() {
	for p.currentIs(lexer.Illegal) {
		p.Diagnostics.IllegalToken(p.currentSpan)
		p.current, p.currentSpan = p.next, p.nextSpan
		p.next, p.nextSpan = p.lex.Next()
	}
}

func (p *Parser) consume() (lexer.Token, source.Span) {
	tok, span := p.current, p.currentSpan
	p.step()
	return tok, span
}

func (p *Parser) currentIs(kind lexer.TokenKind) bool {
	return p.current.Kind == kind
}

// expect consumes the current token, reporting a diagnostic when it is
// not of the expected kind.
func (p *Parser) expect(kind lexer.TokenKind) bool {
	tok, span := p.consume()
	if tok.Kind != kind {
		p.Diagnostics.ExpectedToken(lexer.KindString(kind), tok.String(), span)
		return false
	}
	return true
}

func (p *Parser) optional(kind lexer.TokenKind) {
	if p.currentIs(kind) {
		p.step()
	}
}

func (p *Parser) stepUntil(kind lexer.TokenKind) {
	for !p.currentIs(kind) && !p.currentIs(lexer.Eof) {
		p.step()
	}
}

func (p *Parser) skipNewlines() {
	for p.currentIs(lexer.Newline) {
		p.step()
	}
}
