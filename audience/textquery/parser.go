// Package textquery reads and writes a compact infix form of expression
// trees, e.g.
//
//	business.seniority in [cxo, vp] AND NOT (contact.has_email isTrue OR intent.score >= 50)
package textquery

import (
	"fmt"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
)

// Parse parses an expression string into a tree rooted at a group. An empty
// string yields an empty AND group.
func Parse(input string) (expr.Group, error) {
	tokens, err := Lex(input)
	if err != nil {
		return expr.Group{}, err
	}

	p := &parser{tokens: tokens}
	if p.match(TokEOF) {
		return expr.Group{Connective: expr.And}, nil
	}
	n, err := p.parseExpr()
	if err != nil {
		return expr.Group{}, err
	}
	if !p.match(TokEOF) {
		return expr.Group{}, fmt.Errorf("unexpected %v at %d", p.current(), p.current().Pos)
	}
	if g, ok := n.(expr.Group); ok {
		return g, nil
	}
	return expr.Group{Connective: expr.And, Children: []expr.Node{n}}, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseExpr() (expr.Node, error) {
	return p.parseChain(expr.Or)
}

// parseChain collects a run of operands joined by the same connective into
// one group. OR binds looser than AND.
func (p *parser) parseChain(c expr.Connective) (expr.Node, error) {
	next, sep := p.parseUnary, TokAnd
	if c == expr.Or {
		next, sep = func() (expr.Node, error) { return p.parseChain(expr.And) }, TokOr
	}

	first, err := next()
	if err != nil {
		return nil, err
	}
	if !p.match(sep) {
		return first, nil
	}
	children := []expr.Node{first}
	for p.match(sep) {
		p.advance()
		n, err := next()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return expr.Group{Connective: c, Children: children}, nil
}

func (p *parser) parseUnary() (expr.Node, error) {
	if p.match(TokNot) {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Not(inner), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expr.Node, error) {
	if p.match(TokLParen) {
		p.advance()
		// () is the empty group
		if p.match(TokRParen) {
			p.advance()
			return expr.Group{Connective: expr.And}, nil
		}
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.match(TokRParen) {
			return nil, fmt.Errorf("expected ')', got %v at %d", p.current(), p.current().Pos)
		}
		p.advance()
		return n, nil
	}
	return p.parseCondition()
}

var symbolicOps = map[TokenKind]field.Operator{
	TokEq:  field.OpEq,
	TokNeq: field.OpNeq,
	TokGt:  field.OpGt,
	TokGte: field.OpGte,
	TokLt:  field.OpLt,
	TokLte: field.OpLte,
}

func (p *parser) parseCondition() (expr.Condition, error) {
	tok := p.current()
	switch tok.Kind {
	case TokIdent:
	case TokEOF:
		return expr.Condition{}, fmt.Errorf("unexpected end of expression")
	default:
		return expr.Condition{}, fmt.Errorf("expected field, got %v at %d", tok, tok.Pos)
	}
	key := tok.Value
	p.advance()

	var op field.Operator
	opTok := p.current()
	if sym, ok := symbolicOps[opTok.Kind]; ok {
		op = sym
	} else if opTok.Kind == TokIdent && field.Operator(opTok.Value).Valid() {
		op = field.Operator(opTok.Value)
	} else {
		return expr.Condition{}, fmt.Errorf("expected operator after %s, got %v at %d", key, opTok, opTok.Pos)
	}
	p.advance()

	cond := expr.Condition{Category: expr.CategoryOf(key), Field: key, Operator: op}
	if op.Nullary() {
		if op == field.OpIsTrue || op == field.OpIsFalse {
			cond.Value = true
		}
		return cond, nil
	}
	v, err := p.parseOperand()
	if err != nil {
		return expr.Condition{}, fmt.Errorf("%s %s: %w", key, op, err)
	}
	cond.Value = v
	return cond, nil
}

func (p *parser) parseOperand() (any, error) {
	switch p.current().Kind {
	case TokLBracket:
		return p.parseList()
	case TokLBrace:
		return p.parseObject()
	default:
		return p.parseLiteral()
	}
}

func (p *parser) parseLiteral() (any, error) {
	tok := p.current()
	switch tok.Kind {
	case TokString:
		p.advance()
		return tok.Value, nil
	case TokNumber:
		p.advance()
		return tok.Num, nil
	case TokIdent:
		p.advance()
		switch tok.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return tok.Value, nil
	case TokEOF:
		return nil, fmt.Errorf("missing operand")
	default:
		return nil, fmt.Errorf("expected value, got %v at %d", tok, tok.Pos)
	}
}

func (p *parser) parseList() ([]any, error) {
	p.advance() // [
	items := []any{}
	if p.match(TokRBracket) {
		p.advance()
		return items, nil
	}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if p.match(TokComma) {
			p.advance()
			continue
		}
		if !p.match(TokRBracket) {
			return nil, fmt.Errorf("expected ',' or ']', got %v at %d", p.current(), p.current().Pos)
		}
		p.advance()
		return items, nil
	}
}

func (p *parser) parseObject() (map[string]any, error) {
	p.advance() // {
	obj := map[string]any{}
	if p.match(TokRBrace) {
		p.advance()
		return obj, nil
	}
	for {
		keyTok := p.current()
		if keyTok.Kind != TokIdent && keyTok.Kind != TokString {
			return nil, fmt.Errorf("expected key, got %v at %d", keyTok, keyTok.Pos)
		}
		p.advance()
		if !p.match(TokColon) {
			return nil, fmt.Errorf("expected ':' after %s, got %v", keyTok.Value, p.current())
		}
		p.advance()
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		obj[keyTok.Value] = v
		if p.match(TokComma) {
			p.advance()
			continue
		}
		if !p.match(TokRBrace) {
			return nil, fmt.Errorf("expected ',' or '}', got %v at %d", p.current(), p.current().Pos)
		}
		p.advance()
		return obj, nil
	}
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}
