package parser

import (
	"fmt"
	"strconv"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/lexer"
	"github.com/dialscript/dial/internal/token"
	"github.com/dialscript/dial/internal/value"
)

func (p *Parser) parseExp() ast.Exp {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	return p.parseSelectors(e)
}

// parseSelectors consumes a postfix pipeline of ?, .name, [exp],
// .map/.filter/.fold/.size stages following an already-parsed base.
func (p *Parser) parseSelectors(base ast.Exp) ast.Exp {
	var path []ast.Selector
	for {
		switch {
		case p.peekTokenIs(token.QUESTION):
			p.nextToken()
			path = append(path, ast.Selector{Tok: p.curToken, Kind: ast.SelUnwrap})
		case p.peekTokenIs(token.DOT):
			p.nextToken()
			dot := p.curToken
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			name := p.curToken.Literal
			if p.peekTokenIs(token.LPAREN) {
				sel, ok := p.parseTransform(dot, name)
				if !ok {
					return nil
				}
				path = append(path, sel)
				continue
			}
			path = append(path, ast.Selector{Tok: dot, Kind: ast.SelField, Field: name})
		case p.peekTokenIs(token.LBRACKET):
			p.nextToken()
			tok := p.curToken
			p.nextToken()
			idx := p.parseExp()
			if idx == nil {
				return nil
			}
			if !p.expectPeek(token.RBRACKET) {
				return nil
			}
			path = append(path, ast.Selector{Tok: tok, Kind: ast.SelIndex, Index: idx})
		default:
			if len(path) == 0 {
				return base
			}
			return &ast.Select{Tok: base.Pos(), Base: base, Path: path}
		}
	}
}

// parseTransform handles .map(f), .filter(f), .fold(init, f) and .size()
// once its name has been consumed; the current token is the name and the
// peek token the opening paren.
func (p *Parser) parseTransform(dot token.Token, name string) (ast.Selector, bool) {
	p.nextToken() // (
	switch name {
	case "size":
		if !p.expectPeek(token.RPAREN) {
			return ast.Selector{}, false
		}
		return ast.Selector{Tok: dot, Kind: ast.SelSize}, true
	case "map", "filter":
		if !p.expectPeek(token.IDENT) {
			return ast.Selector{}, false
		}
		fn := p.curToken.Literal
		if !p.expectPeek(token.RPAREN) {
			return ast.Selector{}, false
		}
		kind := ast.SelMap
		if name == "filter" {
			kind = ast.SelFilter
		}
		return ast.Selector{Tok: dot, Kind: kind, Field: fn}, true
	case "fold":
		p.nextToken()
		init := p.parseExp()
		if init == nil {
			return ast.Selector{}, false
		}
		if !p.expectPeek(token.COMMA) {
			return ast.Selector{}, false
		}
		if !p.expectPeek(token.IDENT) {
			return ast.Selector{}, false
		}
		fn := p.curToken.Literal
		if !p.expectPeek(token.RPAREN) {
			return ast.Selector{}, false
		}
		return ast.Selector{Tok: dot, Kind: ast.SelFold, Field: fn, Init: init}, true
	default:
		p.errorf(dot, "unknown transform .%s", name)
		return ast.Selector{}, false
	}
}

func (p *Parser) parsePrimary() ast.Exp {
	tok := p.curToken
	switch tok.Type {
	case token.TRUE:
		return &ast.BoolLit{Tok: tok, Value: true}
	case token.FALSE:
		return &ast.BoolLit{Tok: tok, Value: false}
	case token.NUMBER:
		return &ast.NumberLit{Tok: tok, Text: tok.Literal}
	case token.FLOAT:
		return &ast.FloatLit{Tok: tok, Text: tok.Literal}
	case token.MINUS, token.PLUS:
		return p.parseSignedNumber()
	case token.TEXT:
		return &ast.TextLit{Tok: tok, Value: tok.Literal}
	case token.BLOB:
		if !p.expectPeek(token.TEXT) {
			return nil
		}
		return &ast.BlobLit{Tok: tok, Bytes: []byte(p.curToken.Literal)}
	case token.NULL:
		return &ast.NullLit{Tok: tok}
	case token.OPT:
		p.nextToken()
		inner := p.parseExp()
		if inner == nil {
			return nil
		}
		return &ast.OptLit{Tok: tok, Value: inner}
	case token.VEC:
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		elems, ok := p.parseExpList(token.RBRACE, token.SEMICOLON)
		if !ok {
			return nil
		}
		return &ast.VecLit{Tok: tok, Elems: elems}
	case token.RECORD:
		return p.parseRecordLit()
	case token.VARIANT:
		return p.parseVariantLit()
	case token.PRINCIPAL:
		if !p.expectPeek(token.TEXT) {
			return nil
		}
		return &ast.PrincipalLit{Tok: tok, ID: p.curToken.Literal}
	case token.SERVICE:
		if !p.expectPeek(token.TEXT) {
			return nil
		}
		return &ast.ServiceLit{Tok: tok, ID: p.curToken.Literal}
	case token.FUNC:
		if !p.expectPeek(token.TEXT) {
			return nil
		}
		id := p.curToken.Literal
		if !p.expectPeek(token.DOT) {
			return nil
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		return &ast.FuncRefLit{Tok: tok, ID: id, Method: p.curToken.Literal}
	case token.IDENT:
		if p.peekTokenIs(token.LPAREN) {
			name := tok.Literal
			p.nextToken()
			args, ok := p.parseExpList(token.RPAREN, token.COMMA)
			if !ok {
				return nil
			}
			return &ast.Apply{Tok: tok, Name: name, Args: args}
		}
		return &ast.Ident{Tok: tok, Name: tok.Literal}
	case token.LPAREN:
		return p.parseParenOrAnnot()
	case token.CALL:
		return p.parseCallExp(ast.ModeCall)
	case token.ENCODE:
		return p.parseEncodeExp()
	case token.DECODE:
		return p.parseDecodeExp()
	case token.PAR_CALL:
		return p.parseParCallExp()
	default:
		p.errorf(tok, "unexpected token %s in expression", tok.Type)
		return nil
	}
}

func (p *Parser) parseSignedNumber() ast.Exp {
	tok := p.curToken
	neg := tok.Type == token.MINUS
	switch p.peekToken.Type {
	case token.NUMBER:
		p.nextToken()
		text := p.curToken.Literal
		if neg {
			text = "-" + text
		}
		return &ast.NumberLit{Tok: tok, Text: text}
	case token.FLOAT:
		p.nextToken()
		text := p.curToken.Literal
		if neg {
			text = "-" + text
		}
		return &ast.FloatLit{Tok: tok, Text: text}
	default:
		p.errorf(tok, "expected number after %q", tok.Literal)
		return nil
	}
}

// parseExpList parses a delimited expression list; the current token is
// the opening bracket on entry and the closing one on return.
func (p *Parser) parseExpList(end, sep token.Type) ([]ast.Exp, bool) {
	var list []ast.Exp
	for !p.peekTokenIs(end) {
		p.nextToken()
		e := p.parseExp()
		if e == nil {
			return nil, false
		}
		list = append(list, e)
		if p.peekTokenIs(sep) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseRecordLit() ast.Exp {
	lit := &ast.RecordLit{Tok: p.curToken}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	nextID := uint32(0)
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		f, ok := p.parseFieldLit(&nextID)
		if !ok {
			return nil
		}
		lit.Fields = append(lit.Fields, f)
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

// parseFieldLit parses one record field. Labeled forms are `name = exp`
// and `id = exp`; anything else is a positional field whose numeric id
// continues from the previous one.
func (p *Parser) parseFieldLit(nextID *uint32) (ast.FieldLit, bool) {
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
		name := p.curToken.Literal
		p.nextToken()
		p.nextToken()
		v := p.parseExp()
		if v == nil {
			return ast.FieldLit{}, false
		}
		return ast.FieldLit{Name: name, Named: true, Value: v}, true
	}
	if p.curTokenIs(token.NUMBER) && p.peekTokenIs(token.ASSIGN) {
		id, err := strconv.ParseUint(p.curToken.Literal, 10, 32)
		if err != nil {
			p.errorf(p.curToken, "field id out of range: %s", p.curToken.Literal)
			return ast.FieldLit{}, false
		}
		p.nextToken()
		p.nextToken()
		v := p.parseExp()
		if v == nil {
			return ast.FieldLit{}, false
		}
		*nextID = uint32(id) + 1
		return ast.FieldLit{ID: uint32(id), Value: v}, true
	}
	v := p.parseExp()
	if v == nil {
		return ast.FieldLit{}, false
	}
	f := ast.FieldLit{ID: *nextID, Value: v}
	*nextID++
	return f, true
}

func (p *Parser) parseVariantLit() ast.Exp {
	lit := &ast.VariantLit{Tok: p.curToken}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	switch {
	case p.curTokenIs(token.IDENT):
		lit.Field = ast.FieldLit{Name: p.curToken.Literal, Named: true}
	case p.curTokenIs(token.NUMBER):
		id, err := strconv.ParseUint(p.curToken.Literal, 10, 32)
		if err != nil {
			p.errorf(p.curToken, "variant tag out of range: %s", p.curToken.Literal)
			return nil
		}
		lit.Field = ast.FieldLit{ID: uint32(id)}
	default:
		p.errorf(p.curToken, "expected variant tag, got %s", p.curToken.Type)
		return nil
	}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		v := p.parseExp()
		if v == nil {
			return nil
		}
		lit.Field.Value = v
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

func (p *Parser) parseParenOrAnnot() ast.Exp {
	tok := p.curToken
	p.nextToken()
	e := p.parseExp()
	if e == nil {
		return nil
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		t, ok := p.parseType()
		if !ok {
			return nil
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.Annot{Tok: tok, Exp: e, Type: t}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return e
}

// parseCallTarget parses the callee of a call-like expression: a bound
// name, a reference literal, or a parenthesized expression.
func (p *Parser) parseCallTarget() ast.Exp {
	switch p.curToken.Type {
	case token.IDENT:
		return &ast.Ident{Tok: p.curToken, Name: p.curToken.Literal}
	case token.PRINCIPAL, token.SERVICE, token.FUNC:
		return p.parsePrimary()
	case token.LPAREN:
		return p.parseParenOrAnnot()
	default:
		p.errorf(p.curToken, "expected call target, got %s", p.curToken.Type)
		return nil
	}
}

// parseCallBody parses `target[.method](args…)` with the current token on
// the first target token.
func (p *Parser) parseCallBody(tok token.Token, mode ast.CallMode) *ast.CallExp {
	target := p.parseCallTarget()
	if target == nil {
		return nil
	}
	method := ""
	if p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		method = p.curToken.Literal
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	args, ok := p.parseExpList(token.RPAREN, token.COMMA)
	if !ok {
		return nil
	}
	return &ast.CallExp{Tok: tok, Mode: mode, Target: target, Method: method, Args: args}
}

func (p *Parser) parseCallExp(mode ast.CallMode) ast.Exp {
	tok := p.curToken
	p.nextToken()
	call := p.parseCallBody(tok, mode)
	if call == nil {
		return nil
	}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectIdentWord("proxy") {
			return nil
		}
		if !p.expectIdentWord("via") {
			return nil
		}
		p.nextToken()
		via := p.parseCallTarget()
		if via == nil {
			return nil
		}
		call.Mode = ast.ModeProxy
		call.Via = via
	}
	return call
}

func (p *Parser) expectIdentWord(word string) bool {
	if !p.expectPeek(token.IDENT) {
		return false
	}
	if p.curToken.Literal != word {
		p.errorf(p.curToken, "expected %q, got %q", word, p.curToken.Literal)
		return false
	}
	return true
}

func (p *Parser) parseEncodeExp() ast.Exp {
	tok := p.curToken
	if p.peekTokenIs(token.LPAREN) {
		// no method context: self-describing payload
		p.nextToken()
		args, ok := p.parseExpList(token.RPAREN, token.COMMA)
		if !ok {
			return nil
		}
		return &ast.CallExp{Tok: tok, Mode: ast.ModeEncode, Args: args}
	}
	p.nextToken()
	return p.parseCallBody(tok, ast.ModeEncode)
}

func (p *Parser) parseDecodeExp() ast.Exp {
	exp := &ast.DecodeExp{Tok: p.curToken}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		p.nextToken()
		exp.Target = p.parseCallTarget()
		if exp.Target == nil {
			return nil
		}
		if !p.expectPeek(token.DOT) {
			return nil
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		exp.Method = p.curToken.Literal
	}
	p.nextToken()
	exp.Blob = p.parseExp()
	if exp.Blob == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseParCallExp() ast.Exp {
	exp := &ast.ParCallExp{Tok: p.curToken}
	if !p.expectPeek(token.LBRACKET) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		tok := p.curToken
		call := p.parseCallBody(tok, ast.ModeCall)
		if call == nil {
			return nil
		}
		exp.Calls = append(exp.Calls, call)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

// parseType parses a type annotation with the current token on its first
// token, leaving it on the last.
func (p *Parser) parseType() (value.Type, bool) {
	switch p.curToken.Type {
	case token.OPT:
		p.nextToken()
		elem, ok := p.parseType()
		if !ok {
			return value.Type{}, false
		}
		return value.OptT(elem), true
	case token.VEC:
		p.nextToken()
		elem, ok := p.parseType()
		if !ok {
			return value.Type{}, false
		}
		return value.VecT(elem), true
	case token.BLOB:
		return value.PrimT(value.KindBlob), true
	case token.PRINCIPAL:
		return value.PrimT(value.KindPrincipal), true
	case token.SERVICE:
		return value.PrimT(value.KindService), true
	case token.FUNC:
		return value.PrimT(value.KindFunc), true
	case token.NULL:
		return value.PrimT(value.KindNull), true
	case token.RECORD:
		return value.PrimT(value.KindRecord), true
	case token.VARIANT:
		return value.PrimT(value.KindVariant), true
	case token.IDENT:
		if t, ok := value.PrimTypeByName(p.curToken.Literal); ok {
			return t, true
		}
		p.errorf(p.curToken, "unknown type %q", p.curToken.Literal)
		return value.Type{}, false
	default:
		p.errorf(p.curToken, "expected type, got %s", p.curToken.Type)
		return value.Type{}, false
	}
}

// ParseTypeText parses a standalone type expression, as used by interface
// schema files.
func ParseTypeText(s string) (value.Type, error) {
	p := New(lexer.New(s))
	t, ok := p.parseType()
	if !ok || len(p.errors) > 0 {
		msgs := p.errors
		if len(msgs) == 0 {
			msgs = []string{"malformed type"}
		}
		return value.Type{}, fmt.Errorf("parse type %q: %s", s, msgs[0])
	}
	if !p.peekTokenIs(token.EOF) {
		return value.Type{}, fmt.Errorf("parse type %q: trailing input", s)
	}
	return t, nil
}
