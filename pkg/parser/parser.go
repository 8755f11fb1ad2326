// Package parser builds the AST from the token stream by recursive
// descent with single-token lookahead. Parser errors are fatal and carry
// the offending position.
package parser

import (
	"lark/pkg/ast"
	"lark/pkg/diag"
	"lark/pkg/lexer"
	"lark/pkg/token"
)

// Built-in function names may not be redeclared.
var reserved = map[string]bool{
	"print": true,
	"input": true,
	"mod":   true,
}

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	functions map[string]*ast.FunctionDecl
}

func New(l *lexer.Lexer) (*Parser, error) {
	p := &Parser{l: l, functions: make(map[string]*ast.FunctionDecl)}

	// Read two tokens, so curToken and peekToken are both set.
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) nextToken() error {
	tok, err := p.l.NextToken()
	if err != nil {
		return err
	}
	p.curToken = p.peekToken
	p.peekToken = tok
	return nil
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Functions: p.functions}

	for !p.curTokenIs(token.EOT) {
		var stmt ast.Statement
		var err error
		if p.curTokenIs(token.FUNCTION) {
			stmt, err = p.parseFunctionDecl()
		} else {
			stmt, err = p.parseStatement()
		}
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curToken.Type {
	case token.I64, token.F64, token.STR, token.BOOL:
		stmt, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return stmt, nil
	case token.IDENT:
		return p.parseAssignOrCall()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	default:
		return nil, p.errorf("Can't create statement starting with token '%s'.", p.curToken.Type)
	}
}

func (p *Parser) parseFunctionDecl() (*ast.FunctionDecl, error) {
	fnTok, err := p.expect(token.FUNCTION)
	if err != nil {
		return nil, err
	}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	name := nameTok.Literal
	if reserved[name] || p.functions[name] != nil {
		return nil, diag.New(diag.Parser, nameTok.Pos, "Redeclaration of function '%s'.", name)
	}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}

	returnType, err := p.parseReturnType()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	fd := &ast.FunctionDecl{
		Token:      fnTok,
		Name:       name,
		Parameters: params,
		ReturnType: returnType,
		Body:       body,
	}
	p.functions[name] = fd
	return fd, nil
}

func (p *Parser) parseParameters() ([]*ast.Param, error) {
	params := []*ast.Param{}
	if p.curTokenIs(token.RPAREN) {
		return params, nil
	}

	for {
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)

		if !p.curTokenIs(token.COMMA) {
			return params, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseParameter() (*ast.Param, error) {
	first := p.curToken
	byRef := false
	if p.curTokenIs(token.AMPERSAND) {
		byRef = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	return &ast.Param{Token: first, ByRef: byRef, Type: ty, Name: nameTok.Literal}, nil
}

func (p *Parser) parseReturnType() (ast.Type, error) {
	if p.curTokenIs(token.VOID) {
		if err := p.nextToken(); err != nil {
			return ast.Void, err
		}
		return ast.Void, nil
	}
	switch p.curToken.Type {
	case token.I64, token.F64, token.STR, token.BOOL:
		return p.parseType()
	}
	return ast.Void, p.errorf("Bad return type '%s'. Expected one of: 'i64', 'f64', 'bool', 'str', 'void'.", p.curToken.Type)
}

func (p *Parser) parseType() (ast.Type, error) {
	var ty ast.Type
	switch p.curToken.Type {
	case token.I64:
		ty = ast.I64
	case token.F64:
		ty = ast.F64
	case token.STR:
		ty = ast.Str
	case token.BOOL:
		ty = ast.Bool
	default:
		return ast.Void, p.errorf("Expected a type, got '%s'.", p.curToken.Type)
	}
	return ty, p.nextToken()
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	braceTok, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}

	block := &ast.Block{Token: braceTok, Statements: []ast.Statement{}}
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOT) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}

	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

// parseDeclaration parses "type name [= expression]" without the
// trailing semicolon, which belongs to the caller.
func (p *Parser) parseDeclaration() (*ast.DeclareStatement, error) {
	typeTok := p.curToken
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	stmt := &ast.DeclareStatement{Token: typeTok, Type: ty, Name: nameTok.Literal}
	if p.curTokenIs(token.ASSIGN) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		stmt.Value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseAssignOrCall disambiguates on the token after the identifier:
// '=' starts an assignment, '(' a call.
func (p *Parser) parseAssignOrCall() (ast.Statement, error) {
	identTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	switch p.curToken.Type {
	case token.ASSIGN:
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Token: identTok, Name: identTok.Literal, Value: value}, nil
	case token.LPAREN:
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		call := &ast.CallExpression{Token: identTok, Name: identTok.Literal, Arguments: args}
		return &ast.CallStatement{Call: call}, nil
	}
	return nil, p.errorf("Could not create assignment or call.")
}

func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	ifTok, err := p.expect(token.IF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{Token: ifTok, Condition: condition, Then: then}
	if p.curTokenIs(token.ELSE) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		stmt.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseForStatement() (*ast.ForStatement, error) {
	forTok, err := p.expect(token.FOR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	stmt := &ast.ForStatement{Token: forTok}
	switch p.curToken.Type {
	case token.I64, token.F64, token.STR, token.BOOL:
		stmt.Init, err = p.parseDeclaration()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	stmt.Condition, err = p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	if p.curTokenIs(token.IDENT) {
		identTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ASSIGN); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Post = &ast.AssignStatement{Token: identTok, Name: identTok.Literal, Value: value}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	stmt.Body, err = p.parseBlock()
	return stmt, err
}

func (p *Parser) parseSwitchStatement() (*ast.SwitchStatement, error) {
	switchTok, err := p.expect(token.SWITCH)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	stmt := &ast.SwitchStatement{Token: switchTok}
	for {
		binding, err := p.parseSwitchBinding()
		if err != nil {
			return nil, err
		}
		stmt.Bindings = append(stmt.Bindings, binding)

		if !p.curTokenIs(token.COMMA) {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for p.curTokenIs(token.LPAREN) {
		c, err := p.parseSwitchCase()
		if err != nil {
			return nil, err
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseSwitchBinding() (*ast.SwitchBinding, error) {
	first := p.curToken
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	binding := &ast.SwitchBinding{Token: first, Value: value}
	if p.curTokenIs(token.COLON) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		aliasTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		binding.Alias = aliasTok.Literal
	}
	return binding, nil
}

func (p *Parser) parseSwitchCase() (*ast.SwitchCase, error) {
	parenTok, err := p.expect(token.LPAREN)
	if err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ARROW); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.SwitchCase{Token: parenTok, Condition: condition, Body: body}, nil
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	retTok, err := p.expect(token.RETURN)
	if err != nil {
		return nil, err
	}

	stmt := &ast.ReturnStatement{Token: retTok}
	if !p.curTokenIs(token.SEMICOLON) {
		stmt.Value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseBreakStatement() (*ast.BreakStatement, error) {
	breakTok, err := p.expect(token.BREAK)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.BreakStatement{Token: breakTok}, nil
}

// Expressions, one method per precedence layer, all left-associative.

func (p *Parser) parseExpression() (ast.Expression, error) {
	left, err := p.parseConjunction()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(token.OR) {
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseConjunction()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpression{Token: opTok, Operator: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseConjunction() (ast.Expression, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(token.AND) {
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpression{Token: opTok, Operator: "&&", Left: left, Right: right}
	}
	return left, nil
}

// parseRelation accepts at most one relational operator; relations do
// not chain.
func (p *Parser) parseRelation() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch p.curToken.Type {
	case token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE:
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.InfixExpression{Token: opTok, Operator: opTok.Literal, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(token.PLUS) || p.curTokenIs(token.MINUS) {
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpression{Token: opTok, Operator: opTok.Literal, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseCast()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(token.ASTERISK) || p.curTokenIs(token.SLASH) {
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseCast()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpression{Token: opTok, Operator: opTok.Literal, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseCast() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(token.AS) {
		asTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		to, err := p.parseType()
		if err != nil {
			return nil, err
		}
		left = &ast.CastExpression{Token: asTok, Value: left, To: to}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.curTokenIs(token.MINUS) || p.curTokenIs(token.BANG) {
		opTok := p.curToken
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpression{Token: opTok, Operator: opTok.Literal, Right: right}, nil
	}
	return p.parseFactor()
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	tok := p.curToken
	switch tok.Type {
	case token.INT:
		return &ast.IntLiteral{Token: tok, Value: tok.Int}, p.nextToken()
	case token.FLOAT:
		return &ast.FloatLiteral{Token: tok, Value: tok.Float}, p.nextToken()
	case token.STRING:
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, p.nextToken()
	case token.TRUE:
		return &ast.BoolLiteral{Token: tok, Value: true}, p.nextToken()
	case token.FALSE:
		return &ast.BoolLiteral{Token: tok, Value: false}, p.nextToken()
	case token.LPAREN:
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.IDENT:
		return p.parseIdentifierOrCall()
	}
	return nil, p.errorf("Can't create expression starting with token '%s'.", tok.Type)
}

func (p *Parser) parseIdentifierOrCall() (ast.Expression, error) {
	identTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(token.LPAREN) {
		return &ast.Identifier{Token: identTok, Name: identTok.Literal}, nil
	}

	args, err := p.parseCallArguments()
	if err != nil {
		return nil, err
	}
	return &ast.CallExpression{Token: identTok, Name: identTok.Literal, Arguments: args}, nil
}

func (p *Parser) parseCallArguments() ([]*ast.Argument, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	args := []*ast.Argument{}
	if p.curTokenIs(token.RPAREN) {
		return args, p.nextToken()
	}

	for {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if !p.curTokenIs(token.COMMA) {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArgument() (*ast.Argument, error) {
	first := p.curToken
	byRef := false
	if p.curTokenIs(token.AMPERSAND) {
		byRef = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Argument{Token: first, ByRef: byRef, Value: value}, nil
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if !p.curTokenIs(t) {
		return token.Token{}, p.errorf("Unexpected token '%s'. Expected '%s'.", p.curToken.Type, t)
	}
	tok := p.curToken
	return tok, p.nextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return diag.New(diag.Parser, p.curToken.Pos, format, args...)
}
