// Package parser turns a token stream into dial commands. Recursive
// descent with a one-token lookahead; each parse function starts with the
// current token at its first token and returns with it at its last.
package parser

import (
	"fmt"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/lexer"
	"github.com/dialscript/dial/internal/token"
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(p.peekToken, "expected %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", tok.Line, tok.Column, msg))
}

// ParseProgram parses commands until EOF. Parsing stops at the first
// error; partial results are still returned alongside Errors().
func (p *Parser) ParseProgram() []ast.Command {
	var cmds []ast.Command
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		cmd := p.parseCommand()
		if cmd == nil || len(p.errors) > 0 {
			break
		}
		cmds = append(cmds, cmd)
		p.nextToken()
	}
	if err := p.l.Err(); err != nil {
		p.errors = append(p.errors, err.Error())
	}
	return cmds
}

func (p *Parser) parseCommand() ast.Command {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLet()
	case token.ASSERT:
		return p.parseAssert()
	case token.FUNCTION:
		return p.parseFuncDef()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.IMPORT:
		return p.parseImport()
	case token.LOAD:
		return p.parseLoad()
	case token.EXPORT:
		return p.parseExport()
	case token.CONFIG:
		return p.parseConfig()
	default:
		tok := p.curToken
		e := p.parseExp()
		if e == nil {
			return nil
		}
		return &ast.ExpStmt{Tok: tok, Exp: e}
	}
}

func (p *Parser) parseLet() ast.Command {
	cmd := &ast.Let{Tok: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	cmd.Name = p.curToken.Literal
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	cmd.Value = p.parseExp()
	if cmd.Value == nil {
		return nil
	}
	return cmd
}

func (p *Parser) parseAssert() ast.Command {
	cmd := &ast.Assert{Tok: p.curToken}
	p.nextToken()
	cmd.Left = p.parseExp()
	if cmd.Left == nil {
		return nil
	}
	switch p.peekToken.Type {
	case token.EQ, token.SUBEQ, token.NOT_EQ:
		p.nextToken()
		cmd.Op = p.curToken.Type
	default:
		p.errorf(p.peekToken, "expected ==, ~= or != in assert, got %s", p.peekToken.Type)
		return nil
	}
	p.nextToken()
	cmd.Right = p.parseExp()
	if cmd.Right == nil {
		return nil
	}
	return cmd
}

func (p *Parser) parseFuncDef() ast.Command {
	cmd := &ast.FuncDef{Tok: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	cmd.Name = p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	for !p.peekTokenIs(token.RPAREN) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		cmd.Params = append(cmd.Params, p.curToken.Literal)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	cmd.Body = p.parseBlock()
	return cmd
}

func (p *Parser) parseIf() ast.Command {
	cmd := &ast.If{Tok: p.curToken}
	p.nextToken()
	cmd.Cond = p.parseExp()
	if cmd.Cond == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	cmd.Then = p.parseBlock()
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		cmd.Else = p.parseBlock()
	}
	return cmd
}

func (p *Parser) parseWhile() ast.Command {
	cmd := &ast.While{Tok: p.curToken}
	p.nextToken()
	cmd.Cond = p.parseExp()
	if cmd.Cond == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	cmd.Body = p.parseBlock()
	return cmd
}

// parseBlock parses `{ commands }`; the current token is the opening
// brace on entry and the closing brace on return.
func (p *Parser) parseBlock() []ast.Command {
	cmds := []ast.Command{}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		cmd := p.parseCommand()
		if cmd == nil || len(p.errors) > 0 {
			return cmds
		}
		cmds = append(cmds, cmd)
		p.nextToken()
	}
	if p.curTokenIs(token.EOF) {
		p.errorf(p.curToken, "unterminated block")
	}
	return cmds
}

func (p *Parser) parseImport() ast.Command {
	cmd := &ast.Import{Tok: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	cmd.Alias = p.curToken.Literal
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	if !p.expectPeek(token.TEXT) {
		return nil
	}
	cmd.Target = p.curToken.Literal
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(token.TEXT) {
			return nil
		}
		cmd.Schema = p.curToken.Literal
	}
	return cmd
}

func (p *Parser) parseLoad() ast.Command {
	cmd := &ast.Load{Tok: p.curToken}
	if !p.expectPeek(token.TEXT) {
		return nil
	}
	cmd.Path = p.curToken.Literal
	return cmd
}

func (p *Parser) parseExport() ast.Command {
	cmd := &ast.Export{Tok: p.curToken}
	if !p.expectPeek(token.TEXT) {
		return nil
	}
	cmd.Path = p.curToken.Literal
	return cmd
}

func (p *Parser) parseConfig() ast.Command {
	cmd := &ast.Config{Tok: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	cmd.Key = p.curToken.Literal
	if !p.expectPeek(token.TEXT) {
		return nil
	}
	cmd.Value = p.curToken.Literal
	return cmd
}
