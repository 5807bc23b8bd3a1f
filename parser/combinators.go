package parser

import (
	"strconv"

	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/lexer"
	"github.com/unworried/flip/source"
)

func (p *Parser) parseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.currentIs(lexer.Eof) {
		p.skipNewlines()
		if p.currentIs(lexer.Eof) {
			break
		}
		if fn := p.parseFunction(); fn != nil {
			program.Functions = append(program.Functions, fn)
		}
		p.skipNewlines()
	}
	return program
}

// parseFunction parses `type name(params) { body } [;]`.
func (p *Parser) parseFunction() *ast.Function {
	tok, span := p.consume()
	if tok.Kind != lexer.Ident {
		p.Diagnostics.UnexpectedToken(tok.String(), span)
		p.stepUntil(lexer.Newline)
		return nil
	}
	returnType := ast.TypeFromName(tok.Lit)

	nameTok, nameSpan := p.consume()
	if nameTok.Kind != lexer.Ident {
		p.Diagnostics.ExpectedToken("identifier", nameTok.String(), nameSpan)
		p.stepUntil(lexer.Newline)
		return nil
	}

	p.expect(lexer.LParen)
	parameters := p.parseParameters()
	p.expect(lexer.RParen)

	p.expect(lexer.LBrace)
	p.skipNewlines()
	body := p.parseSequence(lexer.RBrace)
	p.expect(lexer.RBrace)
	p.optional(lexer.SemiColon)

	return &ast.Function{
		Pattern:    ast.Pattern{Name: nameTok.Lit, Sp: nameSpan},
		ReturnType: returnType,
		Parameters: parameters,
		Body:       body,
		Sp:         source.Combine(span, p.currentSpan),
	}
}

func (p *Parser) parseParameters() []ast.Pattern {
	var parameters []ast.Pattern
	for !p.currentIs(lexer.RParen) && !p.currentIs(lexer.Eof) {
		tok, span := p.consume()
		if tok.Kind != lexer.Ident {
			p.Diagnostics.UnexpectedToken(tok.String(), span)
			p.stepUntil(lexer.RParen)
			break
		}
		parameters = append(parameters, ast.Pattern{Name: tok.Lit, Sp: span})
		if !p.currentIs(lexer.RParen) {
			p.expect(lexer.Comma)
		}
	}
	return parameters
}

// parseSequence parses statements until the closing delimiter.
func (p *Parser) parseSequence(end lexer.TokenKind) *ast.Sequence {
	startSpan := p.currentSpan
	seq := &ast.Sequence{}
	for !p.currentIs(end) && !p.currentIs(lexer.Eof) {
		p.skipNewlines()
		if p.currentIs(end) || p.currentIs(lexer.Eof) {
			break
		}
		seq.Statements = append(seq.Statements, p.parseStatement())
		p.skipNewlines()
	}

	seq.Sp = source.Combine(startSpan, p.currentSpan)
	if len(seq.Statements) == 0 {
		p.Diagnostics.EmptyBlock(seq.Sp)
	}
	return seq
}

func (p *Parser) parseStatement() ast.Node {
	tok, span := p.consume()

	var stmt ast.Node
	switch tok.Kind {
	case lexer.Let:
		stmt = p.parseLet(span)
	case lexer.Ident:
		stmt = p.parseAssignmentOrCall(ast.Pattern{Name: tok.Lit, Sp: span})
	case lexer.If:
		stmt = p.parseIf(span)
	case lexer.While:
		stmt = p.parseWhile(span)
	case lexer.Return:
		stmt = p.parseReturn(span)
	default:
		p.Diagnostics.UnknownStatement(tok.String(), span)
		stmt = &ast.Bad{Sp: span}
	}

	p.expect(lexer.SemiColon)
	return stmt
}

func (p *Parser) parseLet(startSpan source.Span) ast.Node {
	nameTok, nameSpan := p.current, p.currentSpan
	if nameTok.Kind != lexer.Ident {
		p.Diagnostics.UnexpectedToken(nameTok.String(), nameSpan)
		return &ast.Bad{Sp: nameSpan}
	}
	p.step()
	p.expect(lexer.Assign)

	value := p.parseExpression()
	return &ast.Definition{
		Pattern: ast.Pattern{Name: nameTok.Lit, Sp: nameSpan},
		Value:   value,
		Sp:      source.Combine(startSpan, p.currentSpan),
	}
}

func (p *Parser) parseAssignmentOrCall(pattern ast.Pattern) ast.Node {
	tok, span := p.consume()
	switch tok.Kind {
	case lexer.Assign:
		value := p.parseExpression()
		return &ast.Assignment{
			Pattern: pattern,
			Value:   value,
			Sp:      source.Combine(pattern.Sp, p.currentSpan),
		}
	case lexer.LParen:
		args := p.parseArguments()
		p.expect(lexer.RParen)
		return &ast.Call{
			Pattern:   pattern,
			Arguments: args,
			Sp:        source.Combine(span, p.currentSpan),
		}
	default:
		p.Diagnostics.UnexpectedToken(tok.String(), span)
		p.stepUntil(lexer.SemiColon)
		return &ast.Bad{Sp: span}
	}
}

func (p *Parser) parseArguments() []ast.Node {
	var args []ast.Node
	for !p.currentIs(lexer.RParen) && !p.currentIs(lexer.Eof) {
		args = append(args, p.parseExpression())
		if !p.currentIs(lexer.RParen) {
			p.expect(lexer.Comma)
		}
	}
	return args
}

func (p *Parser) parseIf(startSpan source.Span) ast.Node {
	condition := p.parseExpression()

	p.expect(lexer.LBrace)
	p.skipNewlines()
	then := p.parseSequence(lexer.RBrace)
	p.expect(lexer.RBrace)

	return &ast.If{
		Condition: condition,
		Then:      then,
		Sp:        source.Combine(startSpan, p.currentSpan),
	}
}

func (p *Parser) parseWhile(startSpan source.Span) ast.Node {
	condition := p.parseExpression()

	p.expect(lexer.LBrace)
	p.skipNewlines()
	then := p.parseSequence(lexer.RBrace)
	p.expect(lexer.RBrace)

	return &ast.While{
		Condition: condition,
		Then:      then,
		Sp:        source.Combine(startSpan, p.currentSpan),
	}
}

func (p *Parser) parseReturn(startSpan source.Span) ast.Node {
	value := p.parseExpression()
	return &ast.Return{
		Value: value,
		Sp:    source.Combine(startSpan, p.currentSpan),
	}
}

func (p *Parser) parseExpression() ast.Node {
	expr := p.parseUnaryOrPrimary()
	if _, ok := binaryOperator(p.current.Kind); ok {
		expr = p.parseBinary(expr, 0)
	}
	return expr
}

func (p *Parser) parseUnaryOrPrimary() ast.Node {
	if p.currentIs(lexer.Minus) {
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *Parser) parseUnary() ast.Node {
	startSpan := p.currentSpan
	p.step()

	operand := p.parseUnaryOrPrimary()
	return &ast.Unary{
		Op:      ast.OpNeg,
		Operand: operand,
		Sp:      source.Combine(startSpan, p.currentSpan),
	}
}

func (p *Parser) parsePrimary() ast.Node {
	tok, span := p.consume()

	switch tok.Kind {
	case lexer.Int:
		value, err := strconv.ParseUint(tok.Lit, 10, 64)
		if err != nil {
			p.Diagnostics.UnknownExpression(tok.String(), span)
			return &ast.Bad{Sp: span}
		}
		return &ast.Literal{Kind: ast.LitInt, Int: value, Sp: span}
	case lexer.Char:
		return &ast.Literal{Kind: ast.LitChar, Str: tok.Lit, Sp: span}
	case lexer.String:
		return &ast.Literal{Kind: ast.LitString, Str: tok.Lit, Sp: span}
	case lexer.LParen:
		return p.parseGroup()
	case lexer.Ident:
		if p.currentIs(lexer.LParen) {
			p.step()
			args := p.parseArguments()
			p.expect(lexer.RParen)
			return &ast.Call{
				Pattern:   ast.Pattern{Name: tok.Lit, Sp: span},
				Arguments: args,
				Sp:        source.Combine(span, p.currentSpan),
			}
		}
		return &ast.Variable{Name: tok.Lit, Sp: span}
	default:
		p.Diagnostics.ExpectedExpression(tok.String(), span)
		return &ast.Bad{Sp: span}
	}
}

func (p *Parser) parseGroup() ast.Node {
	expr := p.parseExpression()
	p.expect(lexer.RParen)
	return expr
}

// parseBinary climbs operator precedence, folding runs of equal or
// higher precedence into the right operand.
func (p *Parser) parseBinary(left ast.Node, precedence int) ast.Node {
	startSpan := p.currentSpan
	for {
		op, ok := binaryOperator(p.current.Kind)
		if !ok || op.Precedence() < precedence {
			break
		}
		p.step()

		right := p.parseUnaryOrPrimary()

		for {
			inner, ok := binaryOperator(p.current.Kind)
			if !ok || inner.Precedence() < op.Precedence() {
				break
			}
			higher := op.Precedence()
			if inner.Precedence() > higher {
				higher = inner.Precedence()
			}
			right = p.parseBinary(right, higher)
		}

		left = &ast.Binary{
			Op:    op,
			Left:  left,
			Right: right,
			Sp:    source.Combine(startSpan, p.currentSpan),
		}
	}
	return left
}

func binaryOperator(kind lexer.TokenKind) (ast.BinOp, bool) {
	switch kind {
	case lexer.Plus:
		return ast.OpAdd, true
	case lexer.Minus:
		return ast.OpSub, true
	case lexer.Asterisk:
		return ast.OpMul, true
	case lexer.ForwardSlash:
		return ast.OpDiv, true
	case lexer.Equal:
		return ast.OpEq, true
	case lexer.NotEqual:
		return ast.OpNotEq, true
	case lexer.LessThan:
		return ast.OpLessThan, true
	case lexer.LessThanEqual:
		return ast.OpLessThanEq, true
	case lexer.GreaterThan:
		return ast.OpGreaterThan, true
	case lexer.GreaterThanEqual:
		return ast.OpGreaterThanEq, true
	default:
		return 0, false
	}
}
