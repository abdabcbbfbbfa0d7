package rsx

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parser builds a template body from a token stream. It is a small
// recursive-descent parser; expression positions (attribute values,
// loop iterables, branch conditions) are captured as canonicalized source
// text rather than parsed, since the engine only ever compares them.
type Parser struct {
	src  string
	toks []Token
	pos  int
}

// Parse parses a full invocation body and assigns slot paths and
// sub-template indices to every nested body.
func Parse(src string) (*Body, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{src: src, toks: toks}
	nodes, err := p.parseNodes(false)
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokEOF {
		return nil, p.errf("unexpected %q", p.peek().Val)
	}
	body := NewBody(nodes)
	assignBodyIndices(body)
	return body, nil
}

func (p *Parser) peek() Token  { return p.toks[p.pos] }
func (p *Parser) peek2() Token { return p.toks[min(p.pos+1, len(p.toks)-1)] }

func (p *Parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.advance()
	if tok.Kind != kind {
		return Token{}, p.errfAt(tok, "expected %s, found %q", kind, tok.Val)
	}
	return tok, nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return p.errfAt(p.peek(), format, args...)
}

func (p *Parser) errfAt(tok Token, format string, args ...interface{}) error {
	return fmt.Errorf("offset %d: %s", tok.Pos, fmt.Sprintf(format, args...))
}

// parseNodes parses child nodes until EOF (inBlock=false) or a closing
// brace (inBlock=true). The closing brace is not consumed.
func (p *Parser) parseNodes(inBlock bool) ([]Node, error) {
	var nodes []Node
	for {
		tok := p.peek()
		if tok.Kind == TokEOF || (inBlock && tok.Kind == TokRBrace) {
			return nodes, nil
		}
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

func (p *Parser) parseNode() (Node, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokString:
		p.advance()
		value, err := ParseIfmt(tok.Val)
		if err != nil {
			return nil, p.errfAt(tok, "%v", err)
		}
		return &Text{Value: value}, nil
	case TokLBrace:
		return p.parseRawExpr()
	case TokKW:
		switch tok.Val {
		case "for":
			return p.parseForLoop()
		case "if":
			return p.parseIfChain()
		}
		return nil, p.errfAt(tok, "unexpected keyword %q", tok.Val)
	case TokIdent:
		return p.parseElementOrComponent()
	}
	return nil, p.errfAt(tok, "unexpected %q", tok.Val)
}

// parseRawExpr captures a `{ expr }` node, slicing the balanced source
// between the braces.
func (p *Parser) parseRawExpr() (Node, error) {
	open, err := p.expect(TokLBrace)
	if err != nil {
		return nil, err
	}
	start, end, err := p.captureBalanced()
	if err != nil {
		return nil, err
	}
	code := canonExpr(p.src[start:end])
	if code == "" {
		return nil, p.errfAt(open, "empty expression block")
	}
	return &Expr{Code: code}, nil
}

// captureBalanced consumes tokens until the brace that closes the block the
// parser is currently inside, returning the source span of the contents.
// The closing brace is consumed.
func (p *Parser) captureBalanced() (start, end int, err error) {
	depth := 1
	start = p.peek().Pos
	end = start
	for {
		tok := p.advance()
		switch tok.Kind {
		case TokEOF:
			return 0, 0, p.errfAt(tok, "unterminated block")
		case TokLBrace:
			depth++
		case TokRBrace:
			depth--
			if depth == 0 {
				return start, end, nil
			}
		}
		end = tok.End
	}
}

// captureExpr consumes tokens until one of the stop conditions holds at
// bracket depth zero, returning the canonicalized source text. Stops are
// not consumed.
func (p *Parser) captureExpr(stop func(Token) bool) (string, error) {
	depth := 0
	start := p.peek().Pos
	end := start
	for {
		tok := p.peek()
		if tok.Kind == TokEOF {
			return "", p.errfAt(tok, "unterminated expression")
		}
		if depth == 0 && stop(tok) {
			return canonExpr(p.src[start:end]), nil
		}
		switch tok.Kind {
		case TokLBrace:
			depth++
		case TokRBrace:
			if depth == 0 {
				return canonExpr(p.src[start:end]), nil
			}
			depth--
		case TokOp:
			switch tok.Val {
			case "(", "[":
				depth++
			case ")", "]":
				depth--
			}
		}
		p.advance()
		end = tok.End
	}
}

func (p *Parser) parseForLoop() (Node, error) {
	p.advance() // for
	pattern, err := p.captureExpr(func(t Token) bool {
		return t.Kind == TokKW && t.Val == "in"
	})
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		return nil, p.errf("missing loop pattern")
	}
	if _, err := p.expect(TokKW); err != nil {
		return nil, err
	}
	iterable, err := p.captureExpr(func(t Token) bool {
		return t.Kind == TokLBrace
	})
	if err != nil {
		return nil, err
	}
	if iterable == "" {
		return nil, p.errf("missing loop iterable")
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return &ForLoop{Pattern: pattern, Iterable: iterable, Body: body}, nil
}

func (p *Parser) parseIfChain() (Node, error) {
	p.advance() // if
	cond, err := p.captureExpr(func(t Token) bool {
		return t.Kind == TokLBrace
	})
	if err != nil {
		return nil, err
	}
	if cond == "" {
		return nil, p.errf("missing condition")
	}
	then, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	chain := &IfChain{Cond: cond, Then: then}
	if p.peek().Kind == TokKW && p.peek().Val == "else" {
		p.advance()
		if p.peek().Kind == TokKW && p.peek().Val == "if" {
			next, err := p.parseIfChain()
			if err != nil {
				return nil, err
			}
			chain.ElseIf = next.(*IfChain)
		} else {
			elseBody, err := p.parseBlockBody()
			if err != nil {
				return nil, err
			}
			chain.Else = elseBody
		}
	}
	return chain, nil
}

// parseBlockBody parses `{ nodes }` into an unindexed nested body.
func (p *Parser) parseBlockBody() (*Body, error) {
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	nodes, err := p.parseNodes(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewBody(nodes), nil
}

func (p *Parser) parseElementOrComponent() (Node, error) {
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	generics := ""
	if p.peek().Kind == TokOp && p.peek().Val == "[" {
		generics, err = p.captureGenerics()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	attrs, children, err := p.parseBlockEntries()
	if err != nil {
		return nil, err
	}
	first, _ := utf8.DecodeRuneInString(name.Val)
	if unicode.IsUpper(first) {
		return &Component{
			Name:     name.Val,
			Generics: generics,
			Fields:   attrs,
			Children: NewBody(children),
		}, nil
	}
	if generics != "" {
		return nil, p.errfAt(name, "element %q cannot take generic arguments", name.Val)
	}
	return &Element{Tag: name.Val, Attributes: attrs, Children: children}, nil
}

func (p *Parser) captureGenerics() (string, error) {
	start := p.peek().Pos
	depth := 0
	end := start
	for {
		tok := p.advance()
		if tok.Kind == TokEOF {
			return "", p.errfAt(tok, "unterminated generic arguments")
		}
		if tok.Kind == TokOp {
			switch tok.Val {
			case "[":
				depth++
			case "]":
				depth--
			}
		}
		end = tok.End
		if depth == 0 {
			return canonExpr(p.src[start:end]), nil
		}
	}
}

// parseBlockEntries parses the interior of an element or component block:
// `name: value` attribute entries (optionally comma-separated) interleaved
// with child nodes. The closing brace is consumed.
func (p *Parser) parseBlockEntries() (attrs []Attribute, children []Node, err error) {
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokEOF:
			return nil, nil, p.errfAt(tok, "unterminated block")
		case tok.Kind == TokRBrace:
			p.advance()
			return attrs, children, nil
		case tok.Kind == TokComma:
			p.advance()
		case tok.Kind == TokIdent && p.peek2().Kind == TokColon:
			attr, err := p.parseAttribute()
			if err != nil {
				return nil, nil, err
			}
			attrs = append(attrs, attr)
		default:
			node, err := p.parseNode()
			if err != nil {
				return nil, nil, err
			}
			children = append(children, node)
		}
	}
}

func (p *Parser) parseAttribute() (Attribute, error) {
	name := p.advance()
	p.advance() // colon
	tok := p.peek()
	switch tok.Kind {
	case TokString:
		p.advance()
		value, err := ParseIfmt(tok.Val)
		if err != nil {
			return Attribute{}, p.errfAt(tok, "%v", err)
		}
		return Attribute{Name: name.Val, Value: AttrValue{Kind: AttrString, String: value}}, nil
	case TokInt:
		p.advance()
		n, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return Attribute{}, p.errfAt(tok, "bad integer literal %q", tok.Val)
		}
		return Attribute{Name: name.Val, Value: AttrValue{Kind: AttrInt, Int: n}}, nil
	case TokFloat:
		p.advance()
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return Attribute{}, p.errfAt(tok, "bad float literal %q", tok.Val)
		}
		return Attribute{Name: name.Val, Value: AttrValue{Kind: AttrFloat, Float: f}}, nil
	case TokKW:
		if tok.Val == "true" || tok.Val == "false" {
			p.advance()
			return Attribute{Name: name.Val, Value: AttrValue{Kind: AttrBool, Bool: tok.Val == "true"}}, nil
		}
	}
	// Anything else is a raw expression value, terminated by a comma or
	// the end of the block at depth zero.
	expr, err := p.captureExpr(func(t Token) bool {
		return t.Kind == TokComma
	})
	if err != nil {
		return Attribute{}, err
	}
	if expr == "" {
		return Attribute{}, p.errfAt(tok, "missing value for attribute %q", name.Val)
	}
	return Attribute{Name: name.Val, Value: AttrValue{Kind: AttrExpr, Expr: expr}}, nil
}

// canonExpr normalizes captured expression text so that formatting-only
// edits compare equal.
func canonExpr(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
