// Package parser builds the Quill AST from tokens.
//
// Statements are pipelines of stages. A stage starting with a bare word
// is a command call; anything else is parsed as an expression with a
// Pratt parser handling all infix/prefix forms.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quillsh/quill/pkg/quill/ast"
	qerrors "github.com/quillsh/quill/pkg/quill/errors"
	"github.com/quillsh/quill/pkg/quill/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	EQUALS      // == != in not-in
	LESSGREATER // < > <= >=
	RANGE       // .. ..<
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	INDEX       // path.member
)

var precedences = map[lexer.TokenType]int{
	lexer.EQ:       EQUALS,
	lexer.NOT_EQ:   EQUALS,
	lexer.IN:       EQUALS,
	lexer.NOT_IN:   EQUALS,
	lexer.LT:       LESSGREATER,
	lexer.GT:       LESSGREATER,
	lexer.LTE:      LESSGREATER,
	lexer.GTE:      LESSGREATER,
	lexer.DOTDOT:   RANGE,
	lexer.DOTDOTLT: RANGE,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.DOT:      INDEX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser holds the parsing state.
type Parser struct {
	l *lexer.Lexer

	errors []*qerrors.ShellError

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// rowCondition rewrites bare words to $it cell paths while parsing a
	// 'where' condition.
	rowCondition bool
}

// New creates a parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseBareword)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.VARIABLE, p.parseVariable)
	p.registerPrefix(lexer.INTERP, p.parseInterpolation)
	p.registerPrefix(lexer.LPAREN, p.parseSubexpression)
	p.registerPrefix(lexer.LBRACKET, p.parseListOrTable)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, tt := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE,
		lexer.IN, lexer.NOT_IN,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(lexer.DOTDOT, p.parseRangeLiteral)
	p.registerInfix(lexer.DOTDOTLT, p.parseRangeLiteral)
	p.registerInfix(lexer.DOT, p.parsePathSuffix)

	// Prime curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tt] = fn
}

func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tt] = fn
}

// Errors returns the structured parse errors collected so far.
func (p *Parser) Errors() []*qerrors.ShellError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(err *qerrors.ShellError) {
	p.errors = append(p.errors, err.WithPosition(p.curToken.Line, p.curToken.Column))
}

func (p *Parser) expectPeek(tt lexer.TokenType) bool {
	if p.peekToken.Type == tt {
		p.nextToken()
		return true
	}
	if p.peekToken.Type == lexer.EOF {
		p.addError(qerrors.ParseIncomplete("statement"))
	} else {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0002",
			Message: fmt.Sprintf("expected %s, got %s", tt, p.peekToken.Type),
		})
	}
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == lexer.NEWLINE {
		p.nextToken()
	}
}

func (p *Parser) skipSeparators() {
	for p.curToken.Type == lexer.NEWLINE || p.curToken.Type == lexer.SEMICOLON {
		p.nextToken()
	}
}

// ParseProgram parses an entire source text.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	p.skipSeparators()
	for p.curToken.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if len(p.errors) > 0 {
			break
		}
		p.nextToken()
		p.skipSeparators()
	}

	return program
}

// parseStatement parses one statement; cur is its first token. On
// return cur is the statement's last token.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.DEF:
		return p.parseDefStatement(false)
	case lexer.EXPORT:
		if !p.expectPeek(lexer.DEF) {
			return nil
		}
		return p.parseDefStatement(true)
	case lexer.ALIAS:
		return p.parseAliasStatement()
	case lexer.MODULE:
		return p.parseModuleStatement()
	case lexer.USE:
		return p.parseUseStatement()
	case lexer.HIDE:
		return p.parseHideStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.IDENT:
		if p.peekToken.Type == lexer.ASSIGN {
			return p.parseEnvStatement()
		}
		return p.parsePipeline()
	default:
		return p.parsePipeline()
	}
}

func (p *Parser) parsePipeline() *ast.Pipeline {
	pl := &ast.Pipeline{Token: p.curToken}

	stage := p.parseStage()
	if stage == nil {
		return nil
	}
	pl.Stages = append(pl.Stages, stage)

	for p.peekToken.Type == lexer.PIPE {
		p.nextToken() // onto '|'
		p.nextToken() // onto stage start
		p.skipNewlines()
		stage := p.parseStage()
		if stage == nil {
			return nil
		}
		pl.Stages = append(pl.Stages, stage)
	}

	return pl
}

func (p *Parser) parseStage() ast.Expression {
	if p.curToken.Type == lexer.IDENT {
		return p.parseCommandCall()
	}
	return p.parseExpression(LOWEST)
}

func isStageEnd(tt lexer.TokenType) bool {
	switch tt {
	case lexer.PIPE, lexer.SEMICOLON, lexer.NEWLINE, lexer.EOF,
		lexer.RPAREN, lexer.RBRACE, lexer.RBRACKET:
		return true
	}
	return false
}

// parseCommandCall parses 'name [more-name-words] args...'. Leading
// bare words accumulate as name parts; the evaluator resolves the
// longest known prefix and demotes the rest to string arguments.
func (p *Parser) parseCommandCall() ast.Expression {
	call := &ast.CommandCall{Token: p.curToken}

	// First word; dotted words like 'foo.a' name a qualified import.
	head := p.curToken.Literal
	for p.peekToken.Type == lexer.DOT {
		p.nextToken() // onto '.'
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		head += "." + p.curToken.Literal
	}
	call.NameParts = append(call.NameParts, head)

	// Row conditions get their own parse mode: 'where size < 3'.
	if head == "where" && !isStageEnd(p.peekToken.Type) {
		p.nextToken()
		p.rowCondition = true
		cond := p.parseExpression(LOWEST)
		p.rowCondition = false
		if cond == nil {
			return nil
		}
		call.Args = append(call.Args, &ast.RowCondition{Token: call.Token, Expr: cond})
		return call
	}

	cellPathArgs := head == "get"

	// Subsequent bare words extend the name unless they begin a cell
	// path ('get grade.1').
	for p.peekToken.Type == lexer.IDENT && !cellPathArgs {
		p.nextToken()
		if p.peekToken.Type == lexer.DOT {
			arg := p.parseCellPathLiteral()
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			break
		}
		call.NameParts = append(call.NameParts, p.curToken.Literal)
	}

	for !isStageEnd(p.peekToken.Type) {
		p.nextToken()
		var arg ast.Expression
		if cellPathArgs {
			arg = p.parseCellPathLiteral()
		} else {
			arg = p.parseArgument()
		}
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
	}

	return call
}

// parseArgument parses one command argument; cur is its first token.
func (p *Parser) parseArgument() ast.Expression {
	switch p.curToken.Type {
	case lexer.IDENT:
		if p.peekToken.Type == lexer.DOT {
			return p.parseCellPathLiteral()
		}
		return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	case lexer.INT:
		return p.parseIntegerLiteral()
	case lexer.FLOAT:
		return p.parseFloatLiteral()
	case lexer.STRING:
		lit := p.parseStringLiteral()
		if p.peekToken.Type == lexer.DOT {
			p.nextToken()
			return p.parsePathSuffix(lit)
		}
		return lit
	case lexer.VARIABLE:
		v := p.parseVariable()
		if p.peekToken.Type == lexer.DOT {
			p.nextToken()
			return p.parsePathSuffix(v)
		}
		return v
	case lexer.INTERP:
		return p.parseInterpolation()
	case lexer.FLAG:
		return &ast.Flag{Token: p.curToken, Name: p.curToken.Literal}
	case lexer.LBRACKET:
		return p.parseListOrTable()
	case lexer.LBRACE:
		return p.parseBlockLiteral()
	case lexer.LPAREN:
		sub := p.parseSubexpression()
		if p.peekToken.Type == lexer.DOT {
			p.nextToken()
			return p.parsePathSuffix(sub)
		}
		return sub
	case lexer.MINUS:
		return p.parsePrefixExpression()
	default:
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0003",
			Message: fmt.Sprintf("unexpected token in argument position: %s", p.curToken.Type),
		})
		return nil
	}
}

// parseCellPathLiteral parses a bare path like 'grade.1', '"Column1".0'
// or '$x'; cur is the first member.
func (p *Parser) parseCellPathLiteral() ast.Expression {
	cp := &ast.CellPathLiteral{Token: p.curToken}

	member, ok := p.parsePathMember()
	if !ok {
		return nil
	}
	cp.Members = append(cp.Members, member)

	for p.peekToken.Type == lexer.DOT {
		p.nextToken() // onto '.'
		p.nextToken() // onto member
		member, ok := p.parsePathMember()
		if !ok {
			return nil
		}
		cp.Members = append(cp.Members, member)
	}

	return cp
}

func (p *Parser) parsePathMember() (ast.PathMember, bool) {
	switch p.curToken.Type {
	case lexer.IDENT, lexer.STRING:
		return ast.PathMember{Name: p.curToken.Literal}, true
	case lexer.INT:
		n, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			p.addError(qerrors.ParseIncomplete("cell path"))
			return ast.PathMember{}, false
		}
		return ast.PathMember{Index: n, IsInt: true}, true
	case lexer.VARIABLE:
		return ast.PathMember{Expr: p.parseVariable()}, true
	case lexer.LPAREN:
		return ast.PathMember{Expr: p.parseSubexpression()}, true
	default:
		if p.curToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("cell path"))
		} else {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0004",
				Message: fmt.Sprintf("invalid cell path member: %s", p.curToken.Type),
			})
		}
		return ast.PathMember{}, false
	}
}

// --- Pratt expression parsing ---

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		if p.curToken.Type == lexer.EOF || p.curToken.Type == lexer.NEWLINE ||
			p.curToken.Type == lexer.SEMICOLON {
			p.addError(qerrors.ParseIncomplete("math expression"))
		} else {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0005",
				Message: fmt.Sprintf("unexpected token: %s", p.curToken.Type),
			})
		}
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseBareword() ast.Expression {
	if p.rowCondition {
		// 'where size < 3' reads bare words as $it columns.
		return &ast.FullCellPath{
			Token: p.curToken,
			Head:  &ast.Variable{Token: p.curToken, Name: "it"},
			Path:  []ast.PathMember{{Name: p.curToken.Literal}},
		}
	}
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0006",
			Message: fmt.Sprintf("could not parse %q as integer", p.curToken.Literal),
		})
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0007",
			Message: fmt.Sprintf("could not parse %q as float", p.curToken.Literal),
		})
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseVariable() ast.Expression {
	switch p.curToken.Literal {
	case "true":
		return &ast.BooleanLiteral{Token: p.curToken, Value: true}
	case "false":
		return &ast.BooleanLiteral{Token: p.curToken, Value: false}
	}
	return &ast.Variable{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseRangeLiteral(left ast.Expression) ast.Expression {
	rl := &ast.RangeLiteral{
		Token:     p.curToken,
		Start:     left,
		Inclusive: p.curToken.Type == lexer.DOTDOT,
	}
	p.nextToken()
	rl.End = p.parseExpression(RANGE)
	if rl.End == nil {
		return nil
	}
	return rl
}

// parsePathSuffix parses '.member' chains onto an already-parsed head;
// cur is the '.' token.
func (p *Parser) parsePathSuffix(head ast.Expression) ast.Expression {
	cp := &ast.FullCellPath{Token: p.curToken, Head: head}

	for {
		p.nextToken() // onto member
		member, ok := p.parsePathMember()
		if !ok {
			return nil
		}
		cp.Path = append(cp.Path, member)
		if p.peekToken.Type != lexer.DOT {
			break
		}
		p.nextToken() // onto '.'
	}

	return cp
}

func (p *Parser) parseSubexpression() ast.Expression {
	token := p.curToken // the '(' token
	p.nextToken()
	p.skipNewlines()

	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	if p.peekToken.Type == lexer.NEWLINE {
		p.nextToken()
		p.skipNewlines()
		if p.curToken.Type == lexer.RPAREN {
			return &ast.Subexpression{Token: token, Stmt: stmt}
		}
		p.addError(qerrors.ParseIncomplete("subexpression"))
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return &ast.Subexpression{Token: token, Stmt: stmt}
}

// parseListOrTable parses '[...]'; a first element that is itself a
// list followed by ';' starts a table literal.
func (p *Parser) parseListOrTable() ast.Expression {
	token := p.curToken // the '[' token
	p.nextToken()
	p.skipNewlines()

	if p.curToken.Type == lexer.RBRACKET {
		return &ast.ListLiteral{Token: token}
	}

	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekToken.Type == lexer.SEMICOLON {
		header, ok := first.(*ast.ListLiteral)
		if !ok {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0008",
				Message: "table header must be a list of column names",
			})
			return nil
		}
		return p.parseTableLiteral(token, header)
	}

	list := &ast.ListLiteral{Token: token, Elements: []ast.Expression{first}}
	for p.peekToken.Type != lexer.RBRACKET {
		if p.peekToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("list"))
			return nil
		}
		p.nextToken()
		if p.curToken.Type == lexer.COMMA || p.curToken.Type == lexer.NEWLINE {
			continue
		}
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		list.Elements = append(list.Elements, elem)
	}
	p.nextToken() // onto ']'
	return list
}

func (p *Parser) parseTableLiteral(token lexer.Token, header *ast.ListLiteral) ast.Expression {
	table := &ast.TableLiteral{Token: token, Columns: header.Elements}

	p.nextToken() // onto ';'
	for p.peekToken.Type != lexer.RBRACKET {
		if p.peekToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("table"))
			return nil
		}
		p.nextToken()
		if p.curToken.Type == lexer.COMMA || p.curToken.Type == lexer.NEWLINE {
			continue
		}
		rowExpr := p.parseExpression(LOWEST)
		if rowExpr == nil {
			return nil
		}
		row, ok := rowExpr.(*ast.ListLiteral)
		if !ok {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0009",
				Message: "table row must be a list",
			})
			return nil
		}
		table.Rows = append(table.Rows, row.Elements)
	}
	p.nextToken() // onto ']'
	return table
}

// parseBlockLiteral parses '{ ... }' or '{ |y| ... }' in argument
// position.
func (p *Parser) parseBlockLiteral() ast.Expression {
	bl := &ast.BlockLiteral{Token: p.curToken}

	if p.peekToken.Type == lexer.PIPE {
		p.nextToken() // onto '|'
		p.nextToken() // onto parameter
		if p.curToken.Type != lexer.VARIABLE && p.curToken.Type != lexer.IDENT {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0010",
				Message: "block parameter must be a name",
			})
			return nil
		}
		bl.Param = p.curToken.Literal
		if !p.expectPeek(lexer.PIPE) {
			return nil
		}
	}

	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	bl.Body = body
	return bl
}

// parseBlockBody parses statements up to '}'; cur is '{' or the closing
// '|' of a block parameter list. On return cur is '}'.
func (p *Parser) parseBlockBody() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}

	p.nextToken()
	p.skipSeparators()
	for p.curToken.Type != lexer.RBRACE {
		if p.curToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("block"))
			return nil
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
		p.nextToken()
		p.skipSeparators()
	}

	return block
}

// --- statement forms ---

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken}

	p.nextToken()
	if p.curToken.Type != lexer.VARIABLE && p.curToken.Type != lexer.IDENT {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0011",
			Message: "let requires a variable name",
		})
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	if p.curToken.Type == lexer.EOF || p.curToken.Type == lexer.NEWLINE {
		p.addError(qerrors.ParseIncomplete("let statement"))
		return nil
	}

	value := p.parsePipeline()
	if value == nil {
		return nil
	}
	stmt.Value = value
	return stmt
}

func (p *Parser) parseDefStatement(export bool) ast.Statement {
	stmt := &ast.DefStatement{Token: p.curToken, Export: export}

	p.nextToken()
	if p.curToken.Type != lexer.IDENT && p.curToken.Type != lexer.STRING {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0012",
			Message: "def requires a command name",
		})
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(lexer.LBRACKET) {
		return nil
	}
	for p.peekToken.Type != lexer.RBRACKET {
		if p.peekToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("parameter list"))
			return nil
		}
		p.nextToken()
		if p.curToken.Type == lexer.COMMA || p.curToken.Type == lexer.NEWLINE {
			continue
		}
		param := ast.Param{}
		if p.curToken.Type == lexer.ELLIPSIS {
			param.Rest = true
			p.nextToken()
		}
		if p.curToken.Type != lexer.VARIABLE && p.curToken.Type != lexer.IDENT {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0013",
				Message: "parameter must be a name",
			})
			return nil
		}
		param.Name = p.curToken.Literal
		stmt.Params = append(stmt.Params, param)
	}
	p.nextToken() // onto ']'

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseAliasStatement() ast.Statement {
	stmt := &ast.AliasStatement{Token: p.curToken}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	call := p.parseCommandCall()
	if call == nil {
		return nil
	}
	cc := call.(*ast.CommandCall)
	stmt.Target = cc.NameParts
	stmt.BoundArgs = cc.Args
	return stmt
}

func (p *Parser) parseModuleStatement() ast.Statement {
	stmt := &ast.ModuleStatement{Token: p.curToken}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseUseStatement() ast.Statement {
	stmt := &ast.UseStatement{Token: p.curToken, Selector: ast.ImportModule}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Module = p.curToken.Literal

	if p.peekToken.Type == lexer.DOT {
		p.nextToken() // onto '.'
		p.nextToken() // onto selector
		switch p.curToken.Type {
		case lexer.ASTERISK:
			stmt.Selector = ast.ImportAll
		case lexer.IDENT:
			stmt.Selector = ast.ImportSingle
			stmt.Names = []string{p.curToken.Literal}
		case lexer.LBRACKET:
			names, ok := p.parseNameList()
			if !ok {
				return nil
			}
			stmt.Selector = ast.ImportNames
			stmt.Names = names
		default:
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0014",
				Message: "invalid use path",
			})
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseHideStatement() ast.Statement {
	stmt := &ast.HideStatement{Token: p.curToken, Selector: ast.ImportSingle}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	first := p.curToken.Literal

	if p.peekToken.Type == lexer.DOT {
		p.nextToken() // onto '.'
		p.nextToken() // onto selector
		switch p.curToken.Type {
		case lexer.ASTERISK:
			stmt.Module = first
			stmt.Selector = ast.ImportAll
		case lexer.IDENT:
			stmt.Module = first
			stmt.Names = []string{p.curToken.Literal}
		case lexer.LBRACKET:
			names, ok := p.parseNameList()
			if !ok {
				return nil
			}
			stmt.Module = first
			stmt.Selector = ast.ImportNames
			stmt.Names = names
		default:
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0015",
				Message: "invalid hide path",
			})
			return nil
		}
	} else {
		stmt.Names = []string{first}
	}

	return stmt
}

// parseNameList parses '[a, b]'; cur is '['. On return cur is ']'.
func (p *Parser) parseNameList() ([]string, bool) {
	var names []string
	for p.peekToken.Type != lexer.RBRACKET {
		if p.peekToken.Type == lexer.EOF {
			p.addError(qerrors.ParseIncomplete("name list"))
			return nil, false
		}
		p.nextToken()
		if p.curToken.Type == lexer.COMMA {
			continue
		}
		if p.curToken.Type != lexer.IDENT {
			p.addError(&qerrors.ShellError{
				Class:   qerrors.ClassParse,
				Code:    "PARSE-0016",
				Message: "import list must contain names",
			})
			return nil, false
		}
		names = append(names, p.curToken.Literal)
	}
	p.nextToken() // onto ']'
	return names, true
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	stmt.Condition = cond

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	consequence := p.parseBlockBody()
	if consequence == nil {
		return nil
	}
	stmt.Consequence = consequence

	if p.peekToken.Type == lexer.ELSE {
		p.nextToken() // onto 'else'
		if p.peekToken.Type == lexer.IF {
			p.nextToken()
			alt := p.parseIfStatement()
			if alt == nil {
				return nil
			}
			stmt.Alternative = alt
		} else {
			if !p.expectPeek(lexer.LBRACE) {
				return nil
			}
			alt := p.parseBlockBody()
			if alt == nil {
				return nil
			}
			stmt.Alternative = alt
		}
	}

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	p.nextToken()
	if p.curToken.Type != lexer.VARIABLE && p.curToken.Type != lexer.IDENT {
		p.addError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0017",
			Message: "for requires a loop variable",
		})
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	iterable := p.parseExpression(LOWEST)
	if iterable == nil {
		return nil
	}
	stmt.Iterable = iterable

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	stmt.Body = body
	return stmt
}

// parseEnvStatement parses the 'FOO=BAR stmt' shorthand.
func (p *Parser) parseEnvStatement() ast.Statement {
	stmt := &ast.EnvStatement{Token: p.curToken, Name: p.curToken.Literal}

	p.nextToken() // onto '='
	p.nextToken() // onto value
	value := p.parseArgument()
	if value == nil {
		return nil
	}
	stmt.Value = value

	p.nextToken()
	inner := p.parseStatement()
	if inner == nil {
		return nil
	}
	stmt.Stmt = inner
	return stmt
}

// parseInterpolation splits '$"..."' content into literal fragments and
// parenthesized sub-statements, each parsed with its own parser.
func (p *Parser) parseInterpolation() ast.Expression {
	si := &ast.StringInterpolation{Token: p.curToken}
	content := p.curToken.Literal

	var literal strings.Builder
	i := 0
	for i < len(content) {
		ch := content[i]
		if ch != '(' {
			literal.WriteByte(ch)
			i++
			continue
		}
		// Find the matching close paren, skipping nested parens and
		// quoted strings.
		depth := 0
		j := i
		for j < len(content) {
			switch content[j] {
			case '(':
				depth++
			case ')':
				depth--
			case '\'', '"':
				quote := content[j]
				j++
				for j < len(content) && content[j] != quote {
					j++
				}
			}
			if depth == 0 {
				break
			}
			j++
		}
		if j >= len(content) {
			p.addError(qerrors.ParseIncomplete("string interpolation"))
			return nil
		}
		if literal.Len() > 0 {
			si.Parts = append(si.Parts, &ast.StringLiteral{Token: p.curToken, Value: literal.String()})
			literal.Reset()
		}
		sub := content[i+1 : j]
		subParser := New(lexer.New(sub))
		subParser.nextTokenPastSeparators()
		stmt := subParser.parseStatement()
		if len(subParser.errors) > 0 {
			p.errors = append(p.errors, subParser.errors...)
			return nil
		}
		si.Parts = append(si.Parts, &ast.Subexpression{Token: p.curToken, Stmt: stmt})
		i = j + 1
	}
	if literal.Len() > 0 {
		si.Parts = append(si.Parts, &ast.StringLiteral{Token: p.curToken, Value: literal.String()})
	}

	return si
}

func (p *Parser) nextTokenPastSeparators() {
	p.skipSeparators()
}
